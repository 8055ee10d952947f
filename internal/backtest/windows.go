package backtest

// windows.go — walk-forward: el rango completo se parte en ventanas
// solapadas al 50% y cada una se simula de forma independiente. El
// resultado por ventana se resume como WindowResult para el analizador
// de métricas.

import (
	"fmt"
	"time"

	"github.com/pythymcpyface/tradingbot-sub002/internal/domain"
)

// WindowedRun ejecuta el backtest en ventanas de windowDays días con paso
// de windowDays/2. Ventanas sin datos se omiten. Devuelve los resúmenes en
// orden cronológico de inicio de ventana.
func WindowedRun(cfg Config, snapshots []domain.RatingSnapshot, klines []domain.Kline, windowDays int) ([]domain.WindowResult, error) {
	if windowDays < 1 {
		return nil, fmt.Errorf("backtest.WindowedRun: windowDays=%d: %w", windowDays, ErrInvalidConfig)
	}

	start, end, ok := timeRange(cfg.Symbol, klines)
	if !ok {
		return nil, nil
	}

	windowSize := time.Duration(windowDays) * 24 * time.Hour
	step := windowSize / 2 // 50% de solape entre ventanas

	var results []domain.WindowResult
	for cur := start; !cur.Add(windowSize).After(end.Add(step)); cur = cur.Add(step) {
		winEnd := cur.Add(windowSize)

		winSnaps := filterSnapshots(snapshots, cur, winEnd)
		winKlines := filterKlines(klines, cur, winEnd)
		if len(winSnaps) == 0 || len(winKlines) == 0 {
			continue
		}

		res, err := Run(cfg, winSnaps, winKlines)
		if err != nil {
			return nil, err
		}

		results = append(results, domain.WindowResult{
			Return:    res.TotalReturn(),
			Duration:  float64(windowDays),
			StartDate: cur,
			EndDate:   winEnd,
			Trades:    res.ClosedTrades(),
		})
	}

	return results, nil
}

// timeRange devuelve el rango [min, max] de OpenTime para el símbolo.
func timeRange(symbol string, klines []domain.Kline) (start, end time.Time, ok bool) {
	for _, k := range klines {
		if k.Symbol != symbol {
			continue
		}
		if !ok {
			start, end, ok = k.OpenTime, k.OpenTime, true
			continue
		}
		if k.OpenTime.Before(start) {
			start = k.OpenTime
		}
		if k.OpenTime.After(end) {
			end = k.OpenTime
		}
	}
	return start, end, ok
}

func filterSnapshots(snaps []domain.RatingSnapshot, from, to time.Time) []domain.RatingSnapshot {
	var out []domain.RatingSnapshot
	for _, s := range snaps {
		if !s.Timestamp.Before(from) && !s.Timestamp.After(to) {
			out = append(out, s)
		}
	}
	return out
}

func filterKlines(klines []domain.Kline, from, to time.Time) []domain.Kline {
	var out []domain.Kline
	for _, k := range klines {
		if !k.OpenTime.Before(from) && !k.OpenTime.After(to) {
			out = append(out, k)
		}
	}
	return out
}
