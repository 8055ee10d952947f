package backtest

import (
	"testing"
	"time"

	"github.com/pythymcpyface/tradingbot-sub002/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func snapshotSeries(symbol string, ratings []float64) []domain.RatingSnapshot {
	out := make([]domain.RatingSnapshot, len(ratings))
	for i, r := range ratings {
		out[i] = domain.RatingSnapshot{
			Symbol:    symbol,
			Timestamp: t0.Add(time.Duration(i) * time.Hour),
			Rating:    r,
		}
	}
	return out
}

func klineSeries(symbol string, closes []float64) []domain.Kline {
	out := make([]domain.Kline, len(closes))
	for i, c := range closes {
		out[i] = domain.Kline{
			Symbol:   symbol,
			OpenTime: t0.Add(time.Duration(i) * time.Hour),
			Open:     c,
			Close:    c,
		}
	}
	return out
}

func baseConfig() Config {
	return Config{
		Symbol:              "BTCUSDT",
		ZScoreThreshold:     1.0,
		MovingAveragePeriod: 3,
		ProfitPercent:       50,
		StopLossPercent:     50,
		InitialCash:         10000,
	}
}

// --- señales ---

func TestCalcMovingStats(t *testing.T) {
	stats := CalcMovingStats([]float64{1, 2, 3, 4, 5}, 6)
	assert.InDelta(t, 3.0, stats.Mean, 1e-9)
	assert.Greater(t, stats.StdDev, 0.0)
	assert.Greater(t, stats.ZScore, 0.0)
}

func TestCalcMovingStats_Degenerate(t *testing.T) {
	empty := CalcMovingStats(nil, 7)
	assert.Equal(t, 7.0, empty.Mean)
	assert.Equal(t, 0.0, empty.ZScore)

	flat := CalcMovingStats([]float64{5, 5, 5}, 9)
	assert.Equal(t, 0.0, flat.ZScore) // desviación cero → 0, nunca NaN
}

func TestZScoreSignals_BuySellHold(t *testing.T) {
	snaps := snapshotSeries("BTCUSDT", []float64{1500, 1501, 1499, 1600, 1601, 1602, 1400})
	signals, err := ZScoreSignals(snaps, 3, 1.0)
	require.NoError(t, err)

	points := signals["BTCUSDT"]
	require.Len(t, points, 4) // ends 3..6

	assert.Equal(t, SignalBuy, points[0].Signal)  // salto a 1600
	assert.Equal(t, SignalSell, points[3].Signal) // colapso a 1400
}

func TestZScoreSignals_InvalidConfig(t *testing.T) {
	_, err := ZScoreSignals(nil, 0, 1.0)
	assert.ErrorIs(t, err, ErrInvalidConfig)
	_, err = ZScoreSignals(nil, 5, 0)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

// --- engine ---

func TestRun_BuyThenSellIsProfitable(t *testing.T) {
	// Rating salta en t3 (BUY) y colapsa en t6 (SELL); el precio sube de
	// 100 a 110 entre medias: el run termina en positivo.
	snaps := snapshotSeries("BTCUSDT", []float64{1500, 1501, 1499, 1600, 1601, 1602, 1400})
	klines := klineSeries("BTCUSDT", []float64{100, 100, 100, 100, 102, 105, 110})

	res, err := Run(baseConfig(), snaps, klines)
	require.NoError(t, err)

	require.Len(t, res.Orders, 2)
	assert.Equal(t, "BUY", res.Orders[0].Side)
	assert.Equal(t, "ENTRY", res.Orders[0].Reason)
	assert.Equal(t, "SELL", res.Orders[1].Side)
	assert.Equal(t, "EXIT_ZSCORE", res.Orders[1].Reason)
	assert.Greater(t, res.Orders[1].ProfitLoss, 0.0)

	assert.InDelta(t, 0.095, res.TotalReturn(), 1e-9) // 95% del cash al 10%
	assert.Equal(t, 1, res.ClosedTrades())
	assert.NotEmpty(t, res.EquityCurve)
}

func TestRun_StopLossCloses(t *testing.T) {
	cfg := baseConfig()
	cfg.StopLossPercent = 5

	// BUY en t3 a 100; el precio cae a 90 → stop a 95 dispara.
	snaps := snapshotSeries("BTCUSDT", []float64{1500, 1501, 1499, 1600, 1601, 1602, 1603})
	klines := klineSeries("BTCUSDT", []float64{100, 100, 100, 100, 98, 90, 91})

	res, err := Run(cfg, snaps, klines)
	require.NoError(t, err)

	var stops int
	for _, o := range res.Orders {
		if o.Reason == "EXIT_STOP" {
			stops++
			assert.Less(t, o.ProfitLoss, 0.0)
		}
	}
	assert.Equal(t, 1, stops)
	assert.Less(t, res.TotalReturn(), 0.0)
}

func TestRun_TakeProfitCloses(t *testing.T) {
	cfg := baseConfig()
	cfg.ProfitPercent = 5

	snaps := snapshotSeries("BTCUSDT", []float64{1500, 1501, 1499, 1600, 1601, 1602, 1603})
	klines := klineSeries("BTCUSDT", []float64{100, 100, 100, 100, 103, 108, 109})

	res, err := Run(cfg, snaps, klines)
	require.NoError(t, err)

	var takes int
	for _, o := range res.Orders {
		if o.Reason == "EXIT_PROFIT" {
			takes++
		}
	}
	assert.Equal(t, 1, takes)
	assert.Greater(t, res.TotalReturn(), 0.0)
}

func TestRun_ClosesOpenPositionAtEnd(t *testing.T) {
	// BUY sin señal de salida: el engine liquida al final del run.
	snaps := snapshotSeries("BTCUSDT", []float64{1500, 1501, 1499, 1600, 1601})
	klines := klineSeries("BTCUSDT", []float64{100, 100, 100, 100, 104})

	res, err := Run(baseConfig(), snaps, klines)
	require.NoError(t, err)

	require.NotEmpty(t, res.Orders)
	last := res.Orders[len(res.Orders)-1]
	assert.Equal(t, "SELL", last.Side)
	assert.Equal(t, "EXIT_FINAL", last.Reason)
}

func TestRun_NoSignalsNoTrades(t *testing.T) {
	// Ratings planos: nada supera el umbral, el cash queda intacto.
	snaps := snapshotSeries("BTCUSDT", []float64{1500, 1500, 1500, 1500, 1500})
	klines := klineSeries("BTCUSDT", []float64{100, 101, 99, 100, 102})

	res, err := Run(baseConfig(), snaps, klines)
	require.NoError(t, err)
	assert.Empty(t, res.Orders)
	assert.Equal(t, 0.0, res.TotalReturn())
}

func TestRun_InvalidConfig(t *testing.T) {
	cfg := baseConfig()
	cfg.InitialCash = 0
	_, err := Run(cfg, nil, nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	cfg = baseConfig()
	cfg.MovingAveragePeriod = 0
	_, err = Run(cfg, nil, nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

// --- walk-forward ---

func TestWindowedRun_ProducesOverlappingWindows(t *testing.T) {
	// 40 días de datos diarios con ciclos de rating para generar trades.
	n := 40
	ratings := make([]float64, n)
	closes := make([]float64, n)
	for i := 0; i < n; i++ {
		closes[i] = 100 + float64(i%7)
		switch {
		case i%10 == 4:
			ratings[i] = 1620 // picos periódicos → BUY
		case i%10 == 9:
			ratings[i] = 1380 // valles periódicos → SELL
		default:
			ratings[i] = 1500 + float64(i%3)
		}
	}

	snaps := make([]domain.RatingSnapshot, n)
	klines := make([]domain.Kline, n)
	for i := 0; i < n; i++ {
		at := t0.Add(time.Duration(i) * 24 * time.Hour)
		snaps[i] = domain.RatingSnapshot{Symbol: "BTCUSDT", Timestamp: at, Rating: ratings[i]}
		klines[i] = domain.Kline{Symbol: "BTCUSDT", OpenTime: at, Open: closes[i], Close: closes[i]}
	}

	windows, err := WindowedRun(baseConfig(), snaps, klines, 20)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(windows), 2)

	for _, w := range windows {
		assert.Equal(t, 20.0, w.Duration)
		assert.True(t, w.EndDate.After(w.StartDate))
	}
	// Solape del 50%: la segunda ventana empieza a mitad de la primera.
	if len(windows) >= 2 {
		expectedStep := windows[0].EndDate.Sub(windows[0].StartDate) / 2
		assert.Equal(t, expectedStep, windows[1].StartDate.Sub(windows[0].StartDate))
	}
}

func TestWindowedRun_InvalidWindow(t *testing.T) {
	_, err := WindowedRun(baseConfig(), nil, nil, 0)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestWindowedRun_NoData(t *testing.T) {
	windows, err := WindowedRun(baseConfig(), nil, nil, 30)
	require.NoError(t, err)
	assert.Empty(t, windows)
}
