package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pythymcpyface/tradingbot-sub002/config"
	"github.com/pythymcpyface/tradingbot-sub002/internal/adapters/notify"
	"github.com/pythymcpyface/tradingbot-sub002/internal/domain"
	"github.com/pythymcpyface/tradingbot-sub002/internal/optimize"
	"github.com/pythymcpyface/tradingbot-sub002/internal/ports"
)

// defaultGrid es la rejilla de exploración alrededor del config base.
var defaultGrid = optimize.Grid{
	ZScoreThresholds:     []float64{1.0, 1.5, 2.0, 2.5},
	MovingAveragePeriods: []int{10, 20, 50},
	ProfitPercents:       []float64{3, 5, 10},
	StopLossPercents:     []float64{2, 3, 5},
}

// runOptimize ejecuta la búsqueda en rejilla, imprime el ranking y
// persiste el mejor run.
func runOptimize(
	ctx context.Context,
	cfg *config.Config,
	symbol string,
	snapshots []domain.RatingSnapshot,
	klines []domain.Kline,
	store ports.Storage,
	notifier ports.Notifier,
) error {
	started := time.Now().UTC()

	ranked, err := optimize.GridSearch(ctx, backtestConfig(cfg, symbol), defaultGrid,
		cfg.Backtest.WindowDays, snapshots, klines, cfg.Backtest.Workers)
	if err != nil {
		return fmt.Errorf("grid search: %w", err)
	}

	if console, ok := notifier.(*notify.Console); ok {
		console.PrintCandidates(candidateRows(ranked, 15))
	}

	best, ok := optimize.Best(ranked)
	if !ok {
		slog.Warn("no grid candidate produced a valid run", "symbol", symbol)
		return nil
	}

	run := domain.BacktestRun{
		ID:         best.ID,
		Symbol:     symbol,
		StartedAt:  started,
		FinishedAt: time.Now().UTC(),
		Windows:    len(best.Windows),
		Metrics:    best.Metrics,
	}
	if err := store.SaveRun(ctx, run); err != nil {
		return fmt.Errorf("save best run: %w", err)
	}

	if err := notifier.NotifyScorecard(ctx, run); err != nil {
		slog.Warn("notifier error", "err", err)
	}

	slog.Info("grid search complete",
		"candidates", len(ranked),
		"best_run", best.ID,
		"best_score", best.Metrics.CompositeScore,
		"best_threshold", best.Config.ZScoreThreshold,
		"best_period", best.Config.MovingAveragePeriod,
	)
	return nil
}

// candidateRows convierte los primeros n candidatos a filas imprimibles.
func candidateRows(ranked []optimize.Candidate, n int) []notify.CandidateRow {
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	rows := make([]notify.CandidateRow, len(ranked))
	for i, c := range ranked {
		rows[i] = notify.CandidateRow{
			ZScoreThreshold:     c.Config.ZScoreThreshold,
			MovingAveragePeriod: c.Config.MovingAveragePeriod,
			ProfitPercent:       c.Config.ProfitPercent,
			StopLossPercent:     c.Config.StopLossPercent,
			WindowDays:          c.WindowDays,
			CompositeScore:      c.Metrics.CompositeScore,
			Grade:               c.Metrics.StrategyGrade,
			TotalReturn:         c.Metrics.TotalReturn,
		}
	}
	return rows
}
