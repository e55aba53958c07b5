package models

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresent_RejectsNonFinite(t *testing.T) {
	assert.False(t, Present(math.NaN(), "x").Valid)
	assert.False(t, Present(math.Inf(1), "x").Valid)
	assert.True(t, Present(0, "x").Valid)
}

func TestNumericField_Signed(t *testing.T) {
	tests := []struct {
		name      string
		field     NumericField
		direction Direction
		want      float64
	}{
		{"up keeps magnitude", Present(-1.5, ""), DirectionUp, 1.5},
		{"down negates", Present(1.5, ""), DirectionDown, -1.5},
		{"down stays negative", Present(-1.5, ""), DirectionDown, -1.5},
		{"unknown untouched", Present(-1.5, ""), DirectionUnknown, -1.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.field.Signed(tt.direction).Float64()
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	assert.False(t, Absent().Signed(DirectionDown).Valid)
}

func TestChangeValue_WithDirection(t *testing.T) {
	change := ChangeValue{Point: Present(14.76, ""), Percent: Present(0.06, "")}.WithDirection(DirectionDown)
	assert.Equal(t, -14.76, change.Point.Value)
	assert.Equal(t, -0.06, change.Percent.Value)
	assert.False(t, change.IsEmpty())
	assert.True(t, ChangeValue{}.IsEmpty())
}

func TestNumericField_JSON(t *testing.T) {
	snapshot := IndexSnapshot{
		CurrentPoint: Present(26345.12, "selector"),
		Turnover:     Absent(),
	}

	data, err := json.Marshal(snapshot)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"current_point":26345.12`)
	assert.Contains(t, string(data), `"turnover":null`)

	var decoded IndexSnapshot
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, 26345.12, decoded.CurrentPoint.Value)
	assert.True(t, decoded.CurrentPoint.Valid)
	assert.False(t, decoded.Turnover.Valid)
}

func TestToolResponse_JSON(t *testing.T) {
	data, err := json.Marshal(Failed("boom"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":false,"error":"boom"}`, string(data))

	data, err = json.Marshal(Succeeded(map[string]int{"count": 1}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true,"data":{"count":1}}`, string(data))
}

func TestStringPtr(t *testing.T) {
	assert.Nil(t, StringPtr(""))
	require.NotNil(t, StringPtr("HSBC"))
	assert.Equal(t, "HSBC", *StringPtr("HSBC"))
}
