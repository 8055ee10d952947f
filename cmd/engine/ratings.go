package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pythymcpyface/tradingbot-sub002/config"
	"github.com/pythymcpyface/tradingbot-sub002/internal/domain"
	"github.com/pythymcpyface/tradingbot-sub002/internal/ports"
	"github.com/pythymcpyface/tradingbot-sub002/internal/rating"
)

// runRatings descarga el histórico de velas de los símbolos configurados,
// lo reproduce en el rating engine y persiste la serie de snapshots.
// Devuelve snapshots y velas para los modos de backtest.
func runRatings(
	ctx context.Context,
	cfg *config.Config,
	provider ports.KlineProvider,
	store ports.Storage,
	notifier ports.Notifier,
) ([]domain.RatingSnapshot, []domain.Kline, error) {
	from, to := cfg.HistoryRange()

	var klines []domain.Kline
	for _, symbol := range cfg.Engine.Symbols {
		batch, err := provider.FetchKlines(ctx, symbol, cfg.Engine.Interval, from, to)
		if err != nil {
			return nil, nil, fmt.Errorf("fetch %s: %w", symbol, err)
		}
		slog.Info("klines downloaded", "symbol", symbol, "count", len(batch))
		klines = append(klines, batch...)
	}

	engine := rating.NewEngine()
	snapshots, err := engine.ReplayKlines(klines)
	if err != nil {
		return nil, nil, fmt.Errorf("replay klines: %w", err)
	}
	engine.NormalizeRatings()

	if err := store.SaveSnapshots(ctx, snapshots); err != nil {
		return nil, nil, fmt.Errorf("save snapshots: %w", err)
	}

	if err := notifier.NotifyRatings(ctx, engine.States()); err != nil {
		slog.Warn("notifier error", "err", err)
	}

	slog.Info("ratings computed",
		"symbols", len(cfg.Engine.Symbols),
		"snapshots", len(snapshots),
	)
	return snapshots, klines, nil
}
