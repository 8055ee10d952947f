package rating

import (
	"math"
	"testing"
	"time"

	"github.com/pythymcpyface/tradingbot-sub002/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeKline(symbol string, open, close float64, at time.Time) domain.Kline {
	return domain.Kline{
		Symbol:       symbol,
		OpenTime:     at,
		CloseTime:    at.Add(time.Hour),
		Open:         open,
		High:         math.Max(open, close) * 1.01,
		Low:          math.Min(open, close) * 0.99,
		Close:        close,
		Volume:       100,
		Trades:       1000,
		TakerBuyBase: 60,
	}
}

func TestReplayKlines_Empty(t *testing.T) {
	e := NewEngine()
	snaps, err := e.ReplayKlines(nil)
	require.NoError(t, err)
	assert.Empty(t, snaps)
}

func TestReplayKlines_SingleBullishKline(t *testing.T) {
	e := NewEngine()
	snaps, err := e.ReplayKlines([]domain.Kline{makeKline("BTCUSDT", 47000, 47500, ts)})
	require.NoError(t, err)
	require.Len(t, snaps, 1)

	s := snaps[0]
	assert.Equal(t, "BTCUSDT", s.Symbol)
	assert.Greater(t, s.Rating, 1500.0) // ganó contra el benchmark
	assert.Equal(t, 1.0, s.PerformanceScore)
	assert.Equal(t, ts, s.Timestamp)
}

func TestReplayKlines_SortsChronologically(t *testing.T) {
	e := NewEngine()
	// Velas fuera de orden: el replay las ordena antes de procesar.
	snaps, err := e.ReplayKlines([]domain.Kline{
		makeKline("BTCUSDT", 100, 101, ts.Add(2*time.Hour)),
		makeKline("BTCUSDT", 100, 99, ts),
		makeKline("BTCUSDT", 100, 102, ts.Add(time.Hour)),
	})
	require.NoError(t, err)
	require.Len(t, snaps, 3)
	assert.True(t, snaps[0].Timestamp.Before(snaps[1].Timestamp))
	assert.True(t, snaps[1].Timestamp.Before(snaps[2].Timestamp))
}

func TestReplayKlines_LazyRegistration(t *testing.T) {
	e := NewEngine()
	_, err := e.ReplayKlines([]domain.Kline{makeKline("ETHUSDT", 3000, 3010, ts)})
	require.NoError(t, err)

	state, ok := e.GetCoinState("ETHUSDT")
	require.True(t, ok)
	assert.NotEqual(t, 1500.0, state.Rating)
}

func TestReplayKlines_InvalidPricesFailFast(t *testing.T) {
	e := NewEngine()

	bad := makeKline("BTCUSDT", 100, math.NaN(), ts)
	_, err := e.ReplayKlines([]domain.Kline{bad})
	assert.ErrorIs(t, err, ErrInvalidInput)

	zero := makeKline("BTCUSDT", 0, 100, ts)
	_, err = e.ReplayKlines([]domain.Kline{zero})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestReplayKlines_RatingConvergesUpward(t *testing.T) {
	e := NewEngine()
	klines := make([]domain.Kline, 0, 20)
	for i := 0; i < 20; i++ {
		// 20 velas alcistas consecutivas del 1%.
		open := 100 * math.Pow(1.01, float64(i))
		klines = append(klines, makeKline("BTCUSDT", open, open*1.01, ts.Add(time.Duration(i)*time.Hour)))
	}

	snaps, err := e.ReplayKlines(klines)
	require.NoError(t, err)
	require.Len(t, snaps, 20)

	// El rating crece de forma monótona y el RD se estrecha.
	assert.Greater(t, snaps[19].Rating, snaps[0].Rating)
	assert.Less(t, snaps[19].RatingDeviation, snaps[0].RatingDeviation)
}
