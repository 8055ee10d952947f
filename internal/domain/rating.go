package domain

import "time"

// AssetRatingState es el estado Glicko-2 de un activo en la escala externa.
// Rating se centra en 1500; RatingDeviation está acotado a [0, 350] y
// Volatility a [0.01, 0.2] — el engine garantiza los límites tras cada update.
type AssetRatingState struct {
	Symbol          string
	Rating          float64
	RatingDeviation float64
	Volatility      float64
	LastUpdated     time.Time
}

// RatingSnapshot es una observación puntual del rating de un símbolo,
// producida al procesar una vela. PerformanceScore es el outcome continuo
// [0,1] que generó el update.
type RatingSnapshot struct {
	Symbol           string
	Timestamp        time.Time
	Rating           float64
	RatingDeviation  float64
	Volatility       float64
	PerformanceScore float64
}

// Comparison es un "game" efímero entre dos activos: el retorno relativo de
// A frente a B en un instante. No se persiste; se consume en el update.
type Comparison struct {
	AssetA      string
	AssetB      string
	PriceChange float64 // retorno fraccional de A vs B
	Timestamp   time.Time
}
