package extract

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClean(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "collapses runs", input: "  Hang   Seng\t\nIndex  ", want: "Hang Seng Index"},
		{name: "non-breaking space", input: "26,000.50 pts", want: "26,000.50 pts"},
		{name: "empty", input: "", want: ""},
		{name: "only whitespace", input: " \n\t ", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Clean(tt.input))
		})
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		want      float64
		wantValid bool
	}{
		{name: "thousands separators", input: "1,234.56", want: 1234.56, wantValid: true},
		{name: "parenthesised negative", input: "(12.5)", want: -12.5, wantValid: true},
		{name: "explicit sign", input: "+0.45", want: 0.45, wantValid: true},
		{name: "negative", input: "-14.76", want: -14.76, wantValid: true},
		{name: "surrounding whitespace", input: "  26,345.12 \n", want: 26345.12, wantValid: true},
		{name: "integer", input: "700", want: 700, wantValid: true},
		{name: "letters", input: "abc", wantValid: false},
		{name: "empty", input: "", wantValid: false},
		{name: "lone dot", input: ".", wantValid: false},
		{name: "empty parens", input: "()", wantValid: false},
		{name: "double dot", input: "1.2.3", wantValid: false},
		{name: "infinity", input: "Inf", wantValid: false},
		{name: "nan", input: "NaN", wantValid: false},
		{name: "percent sign", input: "0.06%", wantValid: false},
		{name: "exponent", input: "1e3", wantValid: false},
		{name: "leading dot", input: ".5", wantValid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseNumber(tt.input)
			assert.Equal(t, tt.wantValid, got.Valid)
			if tt.wantValid {
				assert.InDelta(t, tt.want, got.Value, 1e-9)
			}
		})
	}
}

func TestParseNumber_TotalOverArbitraryInput(t *testing.T) {
	inputs := []string{"▼", "1e", "--5", "(-)", "1,,", "١٢٣", "0x10", "1_000", "\x00", "((1))"}
	for _, input := range inputs {
		assert.NotPanics(t, func() {
			got := ParseNumber(input)
			if got.Valid {
				assert.False(t, got.Value != got.Value, "NaN must never be valid")
			}
		}, input)
	}
}

func TestParseNumber_HugeExponentRejectedQuickly(t *testing.T) {
	for _, input := range []string{"1e-5000000", "1e-2000000000", "(2E+999999999)", "-3.5e-100000000"} {
		start := time.Now()
		got := ParseNumber(input)
		assert.False(t, got.Valid, input)
		assert.Less(t, time.Since(start), time.Second, input)
	}
}

func TestParseScaled(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		units    map[string]int32
		want     float64
		wantUnit string
		valid    bool
	}{
		{name: "billions", input: "1.23B", units: QuoteUnits, want: 1.23e9, wantUnit: "B", valid: true},
		{name: "index billions with space", input: "85.30 B", units: IndexUnits, want: 85.3e9, wantUnit: "B", valid: true},
		{name: "lowercase millions", input: "456.7m", units: QuoteUnits, want: 456.7e6, wantUnit: "M", valid: true},
		{name: "thousands", input: "12K", units: IndexUnits, want: 12000, wantUnit: "K", valid: true},
		{name: "trillions quote only", input: "1.5T", units: QuoteUnits, want: 1.5e12, wantUnit: "T", valid: true},
		{name: "unknown unit falls back to digits", input: "1.5T", units: IndexUnits, want: 1.5, wantUnit: "", valid: true},
		{name: "no unit", input: "123,456", units: IndexUnits, want: 123456, wantUnit: "", valid: true},
		{name: "garbage", input: "n/a", units: IndexUnits, valid: false},
		{name: "exponent before unit", input: "1.5e3K", units: QuoteUnits, valid: false},
		{name: "unit letter starts a word", input: "12 March", units: QuoteUnits, valid: false},
		{name: "trailing text", input: "85.3B HKD", units: IndexUnits, valid: false},
		{name: "huge exponent", input: "1e-2000000000", units: QuoteUnits, valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, unit := ParseScaled(tt.input, tt.units)
			assert.Equal(t, tt.valid, got.Valid)
			assert.Equal(t, tt.wantUnit, unit)
			if tt.valid {
				assert.InDelta(t, tt.want, got.Value, 1e-3)
			}
		})
	}
}
