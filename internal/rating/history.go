package rating

// history.go — replay cronológico de velas a snapshots de rating.
//
// Cada vela juega un game del símbolo contra un oponente benchmark fijo
// (1500 / RD 50, el baseline USDT): el benchmark no acumula estado, solo
// el símbolo se actualiza. El resultado es la serie temporal de ratings
// que consume la capa de señales.

import (
	"fmt"
	"math"
	"sort"

	"github.com/pythymcpyface/tradingbot-sub002/internal/domain"
)

// ReplayKlines procesa las velas en orden cronológico y devuelve un
// snapshot de rating por vela. Registra símbolos nuevos con los defaults
// (inicialización lazy en la primera referencia).
//
// Falla con ErrInvalidInput ante velas con precios no finitos o no
// positivos: no hay recuperación silenciosa dentro de un update.
func (e *Engine) ReplayKlines(klines []domain.Kline) ([]domain.RatingSnapshot, error) {
	sorted := make([]domain.Kline, len(klines))
	copy(sorted, klines)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].OpenTime.Before(sorted[j].OpenTime) })

	snapshots := make([]domain.RatingSnapshot, 0, len(sorted))

	for _, k := range sorted {
		if !isFinitePrice(k.Open) || !isFinitePrice(k.Close) {
			return nil, fmt.Errorf("rating.ReplayKlines: %s kline at %s has invalid prices (open=%v close=%v): %w",
				k.Symbol, k.OpenTime.Format("2006-01-02T15:04:05Z"), k.Open, k.Close, ErrInvalidInput)
		}

		hybrid := CalculateHybridScore(k.Open, k.Close, k.TakerBuyBase, k.TakerSellVolume())

		e.mu.Lock()
		p := e.ensureLocked(k.Symbol, k.OpenTime)
		updated := applyGame(*p, benchmarkRating, benchmarkRD, hybrid.Score)
		updated.LastUpdated = k.OpenTime
		*p = updated
		e.mu.Unlock()

		snapshots = append(snapshots, domain.RatingSnapshot{
			Symbol:           k.Symbol,
			Timestamp:        k.OpenTime,
			Rating:           updated.Rating,
			RatingDeviation:  updated.RatingDeviation,
			Volatility:       updated.Volatility,
			PerformanceScore: hybrid.Score,
		})
	}

	return snapshots, nil
}

func isFinitePrice(p float64) bool {
	return p > 0 && !math.IsNaN(p) && !math.IsInf(p, 0)
}
