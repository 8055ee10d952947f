package backtest

// signals.go — señales BUY/SELL/HOLD por z-score del rating.
//
// La serie de ratings de un símbolo se compara contra su media móvil: un
// z-score por encima del umbral indica fuerza relativa anómala (BUY), por
// debajo del umbral negativo debilidad (SELL).

import (
	"errors"
	"sort"
	"time"

	"github.com/pythymcpyface/tradingbot-sub002/internal/domain"
	"github.com/pythymcpyface/tradingbot-sub002/internal/vector"
)

// ErrInvalidConfig: parámetros de backtest fuera de rango.
var ErrInvalidConfig = errors.New("backtest: invalid config")

// Signal es la acción derivada de un z-score.
type Signal string

const (
	SignalBuy  Signal = "BUY"
	SignalSell Signal = "SELL"
	SignalHold Signal = "HOLD"
)

// MovingStats son las estadísticas móviles de una ventana de ratings.
type MovingStats struct {
	Mean   float64
	StdDev float64
	ZScore float64
}

// CalcMovingStats calcula media, desviación y z-score del valor actual
// contra la ventana. Ventana vacía → media = current, z-score 0;
// desviación cero → z-score 0, nunca NaN.
func CalcMovingStats(values []float64, current float64) MovingStats {
	if len(values) == 0 {
		return MovingStats{Mean: current}
	}
	mean := vector.Mean(values)
	sd := vector.StdDev(values, 0)
	z := 0.0
	if sd > 0 {
		z = (current - mean) / sd
	}
	return MovingStats{Mean: mean, StdDev: sd, ZScore: z}
}

// SignalPoint es una señal fechada con el z-score que la generó.
type SignalPoint struct {
	Timestamp time.Time
	ZScore    float64
	Signal    Signal
}

// ZScoreSignals deriva señales por símbolo desde los snapshots de rating.
// period es el tamaño de la media móvil; threshold el umbral de z-score.
func ZScoreSignals(snapshots []domain.RatingSnapshot, period int, threshold float64) (map[string][]SignalPoint, error) {
	if period < 1 || threshold <= 0 {
		return nil, ErrInvalidConfig
	}

	bySymbol := make(map[string][]domain.RatingSnapshot)
	for _, s := range snapshots {
		bySymbol[s.Symbol] = append(bySymbol[s.Symbol], s)
	}

	signals := make(map[string][]SignalPoint, len(bySymbol))
	for symbol, history := range bySymbol {
		sort.Slice(history, func(i, j int) bool { return history[i].Timestamp.Before(history[j].Timestamp) })

		points := make([]SignalPoint, 0, len(history))
		ratings := make([]float64, len(history))
		for i, h := range history {
			ratings[i] = h.Rating
		}

		for end := period; end < len(history); end++ {
			stats := CalcMovingStats(ratings[end-period:end], ratings[end])

			signal := SignalHold
			switch {
			case stats.ZScore > threshold:
				signal = SignalBuy
			case stats.ZScore < -threshold:
				signal = SignalSell
			}

			points = append(points, SignalPoint{
				Timestamp: history[end].Timestamp,
				ZScore:    stats.ZScore,
				Signal:    signal,
			})
		}
		signals[symbol] = points
	}

	return signals, nil
}
