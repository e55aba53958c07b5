package lookup

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/hsi-mcp/internal/interfaces"
	"github.com/ternarybob/hsi-mcp/internal/models"
)

// scriptedGenerator answers grounded and plain calls from fixed responses
type scriptedGenerator struct {
	grounded    string
	groundedErr error
	plain       string
	plainErr    error
	calls       []interfaces.GenerationConfig
}

func (g *scriptedGenerator) Generate(ctx context.Context, prompt string, config interfaces.GenerationConfig) (string, error) {
	g.calls = append(g.calls, config)
	if config.Grounded {
		return g.grounded, g.groundedErr
	}
	return g.plain, g.plainErr
}

func (g *scriptedGenerator) Name() string {
	return "scripted"
}

func TestService_Lookup(t *testing.T) {
	tests := []struct {
		name        string
		generator   *scriptedGenerator
		wantSymbol  string
		wantCompany string
		wantCalls   int
		wantErr     error
	}{
		{
			name:        "grounded answer used",
			generator:   &scriptedGenerator{grounded: "Symbol: 00700, Company: Tencent Holdings Limited"},
			wantSymbol:  "00700",
			wantCompany: "Tencent Holdings Limited",
			wantCalls:   1,
		},
		{
			name: "grounded failure falls back",
			generator: &scriptedGenerator{
				groundedErr: fmt.Errorf("%w: grounding unsupported", models.ErrGeneration),
				plain:       "Symbol: 00005, Company: HSBC Holdings Limited",
			},
			wantSymbol:  "00005",
			wantCompany: "HSBC Holdings Limited",
			wantCalls:   2,
		},
		{
			name:        "grounded not found falls back",
			generator:   &scriptedGenerator{grounded: "NOT_FOUND", plain: "Symbol: 01299, Company: AIA Group Limited"},
			wantSymbol:  "01299",
			wantCompany: "AIA Group Limited",
			wantCalls:   2,
		},
		{
			name:      "both not found",
			generator: &scriptedGenerator{grounded: "NOT_FOUND", plain: "NOT_FOUND"},
			wantCalls: 2,
		},
		{
			name: "plain call failure surfaces",
			generator: &scriptedGenerator{
				groundedErr: errors.New("boom"),
				plainErr:    fmt.Errorf("%w: quota exhausted", models.ErrGeneration),
			},
			wantCalls: 2,
			wantErr:   models.ErrGeneration,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := NewService(tt.generator, arbor.NewLogger())

			result, err := service.Lookup(context.Background(), "  some company ")

			assert.Len(t, tt.generator.calls, tt.wantCalls)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, result)
				return
			}
			require.NoError(t, err)
			if tt.wantSymbol == "" {
				assert.Nil(t, result)
				return
			}
			require.NotNil(t, result)
			assert.Equal(t, tt.wantSymbol, result.Symbol)
			assert.Equal(t, tt.wantCompany, result.CompanyName)
		})
	}
}

func TestService_LookupUsesLookupPreset(t *testing.T) {
	generator := &scriptedGenerator{grounded: "Symbol: 00011, Company: Hang Seng Bank Limited"}
	service := NewService(generator, arbor.NewLogger())

	_, err := service.Lookup(context.Background(), "Hang Seng Bank")
	require.NoError(t, err)

	require.Len(t, generator.calls, 1)
	call := generator.calls[0]
	assert.True(t, call.Grounded)
	assert.Equal(t, interfaces.PurposeLookup, call.Purpose)
	assert.Equal(t, float32(0.1), call.Temperature)
	assert.Equal(t, int32(50), call.MaxOutputTokens)
}

func TestService_LookupWithoutProvider(t *testing.T) {
	service := NewService(nil, arbor.NewLogger())

	result, err := service.Lookup(context.Background(), "Tencent")
	assert.Nil(t, result)
	assert.ErrorIs(t, err, models.ErrLookupUnavailable)

	result, err = service.Lookup(context.Background(), "   ")
	assert.Nil(t, result)
	assert.NoError(t, err)
}

func TestBuildPrompt(t *testing.T) {
	prompt := BuildPrompt("Tencent")
	assert.Contains(t, prompt, `official company name for "Tencent"`)
	assert.Contains(t, prompt, "NOT_FOUND")
	assert.Contains(t, prompt, "Company: Tencent\nResponse:")
}
