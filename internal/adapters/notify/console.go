package notify

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/pythymcpyface/tradingbot-sub002/internal/domain"
)

// Console implementa ports.Notifier.
type Console struct {
	out io.Writer
}

// NewConsole crea un notificador que escribe a stdout.
func NewConsole() *Console {
	return &Console{out: os.Stdout}
}

// NewConsoleWriter crea un notificador para tests.
func NewConsoleWriter(w io.Writer) *Console {
	return &Console{out: w}
}

// NotifyRatings imprime la tabla de ratings, el líder primero.
func (c *Console) NotifyRatings(_ context.Context, states []domain.AssetRatingState) error {
	if len(states) == 0 {
		fmt.Fprintf(c.out, "[%s] no ratings computed\n", time.Now().Format("15:04:05"))
		return nil
	}

	fmt.Fprintf(c.out, "\n[%s] %d assets rated\n", time.Now().Format("15:04:05"), len(states))

	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Symbol", "Rating", "RD", "Volatility", "Updated")

	for i, s := range states {
		table.Append(
			fmt.Sprintf("%d", i+1),
			s.Symbol,
			fmt.Sprintf("%.1f", s.Rating),
			fmt.Sprintf("%.1f", s.RatingDeviation),
			fmt.Sprintf("%.4f", s.Volatility),
			s.LastUpdated.Format("2006-01-02 15:04"),
		)
	}
	table.Render()

	fmt.Fprintln(c.out, "  Rating centered at 1500 | RD = uncertainty (lower is better)")
	return nil
}

// NotifyScorecard imprime el scorecard completo de un run.
func (c *Console) NotifyScorecard(_ context.Context, run domain.BacktestRun) error {
	m := run.Metrics

	fmt.Fprintf(c.out, "\n=== BACKTEST SCORECARD — %s ===\n", run.Symbol)
	if run.ID != "" {
		fmt.Fprintf(c.out, "  Run: %s (%s → %s)\n",
			run.ID,
			run.StartedAt.Format("2006-01-02 15:04"),
			run.FinishedAt.Format("2006-01-02 15:04"))
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("Metric", "Value", "Metric", "Value")
	table.Append("Total return", pctLabel(m.TotalReturn), "Win rate", pctLabel(m.WinRate))
	table.Append("Annualized", pctLabel(m.AnnualizedReturn), "Profit factor", ratioLabel(m.ProfitFactor))
	table.Append("Sharpe", fmt.Sprintf("%.2f", m.SharpeRatio), "Avg win", pctLabel(m.AverageWin))
	table.Append("Sortino", fmt.Sprintf("%.2f", m.SortinoRatio), "Avg loss", pctLabel(m.AverageLoss))
	table.Append("Calmar", fmt.Sprintf("%.2f", m.CalmarRatio), "Max drawdown", pctLabel(m.MaxDrawdown))
	table.Append("Volatility", pctLabel(m.Volatility), "VaR 95%", pctLabel(m.ValueAtRisk95))
	table.Append("Consistency", fmt.Sprintf("%.0f", m.Consistency), "Stability", fmt.Sprintf("%.0f", m.StabilityIndex))
	table.Append("Kelly", pctLabel(m.KellyPercentage), "Windows/Trades", fmt.Sprintf("%d / %d", m.TotalWindows, m.TotalTrades))
	table.Render()

	fmt.Fprintf(c.out, "\n  SCORE: %.1f/100  GRADE: %s  RISK: %s\n",
		m.CompositeScore, m.StrategyGrade, m.RiskLevel)
	fmt.Fprintf(c.out, "  %s\n\n", m.Recommendation)
	return nil
}

// PrintCandidates imprime el ranking de una búsqueda en rejilla: config y
// score de cada candidato, el mejor primero.
func (c *Console) PrintCandidates(rows []CandidateRow) {
	if len(rows) == 0 {
		fmt.Fprintln(c.out, "\n  No grid candidates evaluated.")
		return
	}

	fmt.Fprintf(c.out, "\n=== GRID SEARCH — %d candidates ===\n", len(rows))

	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Z-thresh", "Period", "TP%", "SL%", "WinDays", "Score", "Grade", "Return")

	for i, r := range rows {
		table.Append(
			fmt.Sprintf("%d", i+1),
			fmt.Sprintf("%.2f", r.ZScoreThreshold),
			fmt.Sprintf("%d", r.MovingAveragePeriod),
			fmt.Sprintf("%.1f", r.ProfitPercent),
			fmt.Sprintf("%.1f", r.StopLossPercent),
			fmt.Sprintf("%d", r.WindowDays),
			fmt.Sprintf("%.1f", r.CompositeScore),
			string(r.Grade),
			pctLabel(r.TotalReturn),
		)
	}
	table.Render()
	fmt.Fprintln(c.out)
}

// CandidateRow es una fila del ranking de grid search.
type CandidateRow struct {
	ZScoreThreshold     float64
	MovingAveragePeriod int
	ProfitPercent       float64
	StopLossPercent     float64
	WindowDays          int
	CompositeScore      float64
	Grade               domain.Grade
	TotalReturn         float64
}

// --- helpers ---

func pctLabel(v float64) string {
	return fmt.Sprintf("%.2f%%", v*100)
}

func ratioLabel(v float64) string {
	if math.IsInf(v, 1) {
		return "INF"
	}
	return fmt.Sprintf("%.2f", v)
}
