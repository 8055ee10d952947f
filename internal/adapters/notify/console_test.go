package notify_test

import (
	"bytes"
	"context"
	"math"
	"testing"
	"time"

	"github.com/pythymcpyface/tradingbot-sub002/internal/adapters/notify"
	"github.com/pythymcpyface/tradingbot-sub002/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeState(symbol string, rating float64) domain.AssetRatingState {
	return domain.AssetRatingState{
		Symbol:          symbol,
		Rating:          rating,
		RatingDeviation: 310.5,
		Volatility:      0.06,
		LastUpdated:     time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestConsole_NotifyRatings(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf)

	states := []domain.AssetRatingState{
		makeState("BTCUSDT", 1587.3),
		makeState("ETHUSDT", 1476.1),
	}

	err := n.NotifyRatings(context.Background(), states)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "BTCUSDT")
	assert.Contains(t, out, "ETHUSDT")
	assert.Contains(t, out, "1587.3")
	assert.Contains(t, out, "2 assets rated")
}

func TestConsole_NotifyRatings_Empty(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf)

	err := n.NotifyRatings(context.Background(), nil)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "no ratings computed")
}

func TestConsole_NotifyScorecard(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf)

	run := domain.BacktestRun{
		ID:         "run-123",
		Symbol:     "BTCUSDT",
		StartedAt:  time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC),
		FinishedAt: time.Date(2024, 6, 1, 11, 0, 0, 0, time.UTC),
		Windows:    12,
		Metrics: domain.SuccessMetrics{
			TotalReturn:    0.35,
			SharpeRatio:    1.8,
			WinRate:        0.65,
			ProfitFactor:   math.Inf(1),
			CompositeScore: 78.4,
			StrategyGrade:  domain.GradeB,
			RiskLevel:      domain.RiskMedium,
			Recommendation: "Solid strategy (Grade B).",
			TotalWindows:   12,
			TotalTrades:    40,
		},
	}

	err := n.NotifyScorecard(context.Background(), run)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "BTCUSDT")
	assert.Contains(t, out, "run-123")
	assert.Contains(t, out, "INF") // profit factor infinito no imprime +Inf crudo
	assert.Contains(t, out, "GRADE: B")
	assert.Contains(t, out, "Solid strategy")
}

func TestConsole_PrintCandidates(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf)

	n.PrintCandidates([]notify.CandidateRow{
		{ZScoreThreshold: 1.5, MovingAveragePeriod: 5, WindowDays: 30, CompositeScore: 81.2, Grade: domain.GradeBPlus, TotalReturn: 0.42},
		{ZScoreThreshold: 2.0, MovingAveragePeriod: 7, WindowDays: 30, CompositeScore: 64.0, Grade: domain.GradeC, TotalReturn: 0.1},
	})

	out := buf.String()
	assert.Contains(t, out, "2 candidates")
	assert.Contains(t, out, "81.2")
	assert.Contains(t, out, "B+")
}

func TestConsole_PrintCandidates_Empty(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf)

	n.PrintCandidates(nil)
	assert.Contains(t, buf.String(), "No grid candidates")
}
