package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/pythymcpyface/tradingbot-sub002/config"
	"github.com/pythymcpyface/tradingbot-sub002/internal/adapters/binance"
	"github.com/pythymcpyface/tradingbot-sub002/internal/adapters/notify"
	"github.com/pythymcpyface/tradingbot-sub002/internal/adapters/storage"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	backtest := flag.Bool("backtest", false, "compute ratings + run windowed backtest with scorecard")
	optimize := flag.Bool("optimize", false, "compute ratings + grid-search backtest parameters")
	symbol := flag.String("symbol", "", "symbol for backtest/optimize (default: first configured symbol)")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	setupLogger(cfg.Log)

	target := *symbol
	if target == "" && len(cfg.Engine.Symbols) > 0 {
		target = cfg.Engine.Symbols[0]
	}

	slog.Info("rating engine starting",
		"config", *configPath,
		"symbols", cfg.Engine.Symbols,
		"interval", cfg.Engine.Interval,
		"days", cfg.Engine.Days,
		"backtest", *backtest,
		"optimize", *optimize,
	)

	client := binance.NewClient(cfg.API.BinanceBase)

	store, err := storage.NewSQLiteStorage(cfg.Storage.DSN)
	if err != nil {
		slog.Error("failed to open storage", "err", err, "dsn", cfg.Storage.DSN)
		os.Exit(1)
	}
	defer store.Close()

	notifier := notify.NewConsole()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	snapshots, klines, err := runRatings(ctx, cfg, client, store, notifier)
	if err != nil {
		slog.Error("ratings computation failed", "err", err)
		os.Exit(1)
	}

	switch {
	case *optimize:
		if err := runOptimize(ctx, cfg, target, snapshots, klines, store, notifier); err != nil {
			slog.Error("grid search failed", "err", err)
			os.Exit(1)
		}
	case *backtest:
		if err := runBacktest(ctx, cfg, target, snapshots, klines, store, notifier); err != nil {
			slog.Error("backtest failed", "err", err)
			os.Exit(1)
		}
	}

	slog.Info("rating engine stopped cleanly")
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
