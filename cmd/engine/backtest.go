package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/pythymcpyface/tradingbot-sub002/config"
	"github.com/pythymcpyface/tradingbot-sub002/internal/backtest"
	"github.com/pythymcpyface/tradingbot-sub002/internal/domain"
	"github.com/pythymcpyface/tradingbot-sub002/internal/metrics"
	"github.com/pythymcpyface/tradingbot-sub002/internal/ports"
)

// backtestConfig traduce la configuración YAML al config del simulador.
func backtestConfig(cfg *config.Config, symbol string) backtest.Config {
	return backtest.Config{
		Symbol:              symbol,
		ZScoreThreshold:     cfg.Backtest.ZScoreThreshold,
		MovingAveragePeriod: cfg.Backtest.MovingAveragePeriod,
		ProfitPercent:       cfg.Backtest.ProfitPercent,
		StopLossPercent:     cfg.Backtest.StopLossPercent,
		InitialCash:         cfg.Backtest.InitialCash,
	}
}

// runBacktest ejecuta el walk-forward sobre el símbolo, imprime el
// scorecard y persiste el run.
func runBacktest(
	ctx context.Context,
	cfg *config.Config,
	symbol string,
	snapshots []domain.RatingSnapshot,
	klines []domain.Kline,
	store ports.Storage,
	notifier ports.Notifier,
) error {
	started := time.Now().UTC()

	windows, err := backtest.WindowedRun(backtestConfig(cfg, symbol), snapshots, klines, cfg.Backtest.WindowDays)
	if err != nil {
		return fmt.Errorf("windowed run: %w", err)
	}
	slog.Info("walk-forward complete", "symbol", symbol, "windows", len(windows))

	run := domain.BacktestRun{
		ID:         uuid.NewString(),
		Symbol:     symbol,
		StartedAt:  started,
		FinishedAt: time.Now().UTC(),
		Windows:    len(windows),
		Metrics:    metrics.Analyze(windows),
	}

	if err := store.SaveRun(ctx, run); err != nil {
		return fmt.Errorf("save run: %w", err)
	}

	if err := notifier.NotifyScorecard(ctx, run); err != nil {
		slog.Warn("notifier error", "err", err)
	}

	slog.Info("backtest complete",
		"run_id", run.ID,
		"score", run.Metrics.CompositeScore,
		"grade", run.Metrics.StrategyGrade,
	)
	return nil
}
