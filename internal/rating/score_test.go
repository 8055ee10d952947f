package rating

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOutcomeScore_ContinuousMapping(t *testing.T) {
	assert.Equal(t, 0.5, OutcomeScore(0))
	assert.Equal(t, 0.5, OutcomeScore(0.0009))  // bajo el umbral: empate
	assert.Equal(t, 0.5, OutcomeScore(-0.0009))
	assert.InDelta(t, 0.75, OutcomeScore(0.005), 1e-12)
	assert.InDelta(t, 0.25, OutcomeScore(-0.005), 1e-12)
	assert.Equal(t, 1.0, OutcomeScore(0.05))  // saturado arriba
	assert.Equal(t, 0.0, OutcomeScore(-0.05)) // saturado abajo
}

func TestCalculateHybridScore_HighConfidenceWin(t *testing.T) {
	h := CalculateHybridScore(100, 105, 1000, 500)
	assert.Equal(t, 1.0, h.Score)
	assert.Equal(t, ConfidenceHigh, h.Confidence)
	assert.True(t, h.PriceUp)
	assert.True(t, h.TakerBuyDominant)
}

func TestCalculateHybridScore_LowConfidenceMove(t *testing.T) {
	// +0.3% → score 0.65: movimiento de baja confianza.
	h := CalculateHybridScore(100, 100.3, 500, 1000)
	assert.InDelta(t, 0.65, h.Score, 1e-12)
	assert.Equal(t, ConfidenceLow, h.Confidence)
	assert.True(t, h.PriceUp)
	assert.False(t, h.TakerBuyDominant)
}

func TestCalculateHybridScore_Draw(t *testing.T) {
	h := CalculateHybridScore(100, 100, 500, 1000)
	assert.Equal(t, 0.5, h.Score)
	assert.Equal(t, ConfidenceNeutral, h.Confidence)
	assert.True(t, h.PriceUnchanged)
	assert.False(t, h.PriceUp)
}

func TestCalculateHybridScore_ZeroOpen(t *testing.T) {
	// Open inválido degrada a empate en vez de dividir por cero.
	h := CalculateHybridScore(0, 100, 10, 5)
	assert.Equal(t, 0.5, h.Score)
}
