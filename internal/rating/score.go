package rating

// score.go — mapeo de movimientos de precio a outcome continuo [0,1].

import "math"

const (
	// drawThreshold: movimientos de magnitud < 0.1% son empate exacto.
	drawThreshold = 0.001
	// scoreScale: pendiente del mapeo continuo 0.5 + priceChange×50.
	scoreScale = 50.0
)

// Confidence clasifica la magnitud del outcome de un game.
type Confidence string

const (
	ConfidenceHigh    Confidence = "High"
	ConfidenceLow     Confidence = "Low"
	ConfidenceNeutral Confidence = "Neutral"
)

// OutcomeScore mapea un retorno fraccional al score continuo en [0,1]:
// clamp(0.5 + priceChange×50, 0, 1), con empate exacto (0.5) bajo el
// umbral de 0.1%. Desviación deliberada del outcome discreto clásico.
func OutcomeScore(priceChange float64) float64 {
	if math.Abs(priceChange) < drawThreshold {
		return 0.5
	}
	return clamp(0.5+priceChange*scoreScale, 0, 1)
}

// HybridScore es el outcome de una vela junto con metadata direccional:
// hacia dónde fue el precio y qué lado taker dominó el volumen.
type HybridScore struct {
	PriceUp          bool
	PriceUnchanged   bool
	TakerBuyDominant bool
	Score            float64
	Confidence       Confidence
}

// CalculateHybridScore calcula el outcome continuo de una vela desde
// open/close y el reparto de volumen taker.
func CalculateHybridScore(open, close, takerBuyVolume, takerSellVolume float64) HybridScore {
	priceChange := 0.0
	if open > 0 {
		priceChange = (close - open) / open
	}
	score := OutcomeScore(priceChange)

	var confidence Confidence
	switch dist := math.Abs(score - 0.5); {
	case dist < 0.1:
		confidence = ConfidenceNeutral
	case dist < 0.25:
		confidence = ConfidenceLow
	default:
		confidence = ConfidenceHigh
	}

	return HybridScore{
		PriceUp:          close > open,
		PriceUnchanged:   math.Abs(priceChange) < drawThreshold,
		TakerBuyDominant: takerBuyVolume > takerSellVolume,
		Score:            score,
		Confidence:       confidence,
	}
}
