package metrics

// analyzer.go — scorecard de calidad de un run de backtest.
//
// Analyze es una función pura sin estado: segura para llamar en paralelo
// desde evaluaciones independientes (grid search). Los inputs degenerados
// (lista vacía, una sola ventana) producen un scorecard válido, nunca un
// error — abortar un batch de optimización por un run vacío no es aceptable.

import (
	"math"

	"github.com/pythymcpyface/tradingbot-sub002/internal/domain"
	"github.com/pythymcpyface/tradingbot-sub002/internal/vector"
)

const (
	daysPerYear = 365.25
	// consistencyWindow: las sumas rolling de consistencia usan 12 ventanas
	// (o todas si el run es más corto).
	consistencyWindow = 12
	tinyDrawdown      = 1e-9
)

// Analyze calcula el scorecard completo desde los resultados por ventana.
// No impone orden cronológico; el caller debe suministrar ventanas en orden
// para que la anualización tenga sentido.
func Analyze(windows []domain.WindowResult) domain.SuccessMetrics {
	if len(windows) == 0 {
		return emptyMetrics()
	}

	n := len(windows)
	returns := make([]float64, n)
	durations := make([]float64, n)
	totalTrades := 0
	for i, w := range windows {
		returns[i] = w.Return
		durations[i] = w.Duration
		totalTrades += w.Trades
	}

	m := domain.SuccessMetrics{
		TotalWindows: n,
		TotalTrades:  totalTrades,
	}

	// 1-2. Retorno compuesto y anualizado.
	compounded := 1.0
	for _, r := range returns {
		compounded *= 1 + r
	}
	m.TotalReturn = compounded - 1

	totalDays := vector.Sum(durations)
	m.AnnualizedReturn = annualize(m.TotalReturn, totalDays)

	// 3. Ratios ajustados por riesgo. El factor de anualización sale de la
	// duración media de ventana.
	periodsPerYear := 0.0
	if totalDays > 0 {
		periodsPerYear = daysPerYear / (totalDays / float64(n))
	}
	m.SharpeRatio = vector.SharpeRatio(returns, 0, periodsPerYear)
	m.SortinoRatio = vector.SortinoRatio(returns, 0, periodsPerYear)
	m.MaxDrawdown = vector.MaxDrawdown(returns)
	m.CalmarRatio = m.AnnualizedReturn / math.Max(m.MaxDrawdown, tinyDrawdown)

	// 4. Descomposición win/loss.
	var wins, losses []float64
	for _, r := range returns {
		switch {
		case r > 0:
			wins = append(wins, r)
		case r < 0:
			losses = append(losses, r)
		}
	}
	m.WinRate = float64(len(wins)) / float64(n)

	gainSum := vector.Sum(wins)
	lossSum := math.Abs(vector.Sum(losses))
	switch {
	case lossSum > 0:
		m.ProfitFactor = gainSum / lossSum
	case gainSum > 0:
		m.ProfitFactor = math.Inf(1) // sin ventanas perdedoras
	default:
		m.ProfitFactor = 0
	}

	m.AverageWin = vector.Mean(wins)
	m.AverageLoss = vector.Mean(losses)
	if len(wins) > 0 {
		m.LargestWin, _ = vector.Percentile(wins, 100)
	}
	if len(losses) > 0 {
		m.LargestLoss, _ = vector.Percentile(losses, 0)
	}

	// 5. Riesgo.
	m.Volatility = vector.StdDev(returns, 0)
	m.DownsideDeviation = downsideDeviation(returns, 0)
	m.ValueAtRisk95, _ = vector.Percentile(returns, 5)

	// 6. Consistencia y estabilidad.
	m.Consistency = consistency(returns)
	m.StabilityIndex = stabilityIndex(returns)

	// 7. Kelly.
	m.KellyPercentage = kellyPercentage(m.WinRate, m.AverageWin, m.AverageLoss)

	// 8-12. Scores compuestos, nota, riesgo y recomendación.
	m.CompositeScore = compositeScore(m)
	m.RiskAdjustedScore = riskAdjustedScore(m)
	m.StrategyGrade = gradeFor(m.CompositeScore)
	m.RiskLevel = riskLevelFor(m)
	m.Recommendation = recommendationFor(m)

	return m
}

// emptyMetrics es el scorecard neutro para un run sin ventanas.
func emptyMetrics() domain.SuccessMetrics {
	return domain.SuccessMetrics{
		StrategyGrade:  domain.GradeF,
		RiskLevel:      domain.RiskLow,
		Recommendation: "Insufficient data: no evaluation windows to grade.",
	}
}

// annualize convierte el retorno total en anualizado con exponente
// 365.25/totalDays. Duración cero → 0; equity aniquilada → -1.
func annualize(totalReturn, totalDays float64) float64 {
	if totalDays <= 0 {
		return 0
	}
	base := 1 + totalReturn
	if base <= 0 {
		return -1
	}
	return math.Pow(base, daysPerYear/totalDays) - 1
}

// downsideDeviation es la desviación contando solo observaciones bajo
// target: √(mean((r-target)²ᵧ)) sobre el subconjunto sub-target.
func downsideDeviation(returns []float64, target float64) float64 {
	var sum float64
	n := 0
	for _, r := range returns {
		if r < target {
			d := r - target
			sum += d * d
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return math.Sqrt(sum / float64(n))
}

// consistency devuelve el % de sumas rolling de 12 ventanas que son
// positivas. Runs más cortos que 12 usan una única ventana de su longitud.
func consistency(returns []float64) float64 {
	window := consistencyWindow
	if window > len(returns) {
		window = len(returns)
	}
	sums, err := vector.RollingSum(returns, window)
	if err != nil || len(sums) == 0 {
		return 0
	}
	positive := 0
	for _, s := range sums {
		if s > 0 {
			positive++
		}
	}
	return float64(positive) / float64(len(sums)) * 100
}

// stabilityIndex es clamp(mean/stdev × 10, 0, 100). Media no positiva → 0;
// desviación cero con media positiva → 100 (serie plana no negativa,
// máximamente estable).
func stabilityIndex(returns []float64) float64 {
	mean := vector.Mean(returns)
	if mean <= 0 {
		return 0
	}
	sd := vector.StdDev(returns, 0)
	if sd == 0 {
		return 100
	}
	return clamp(mean/sd*10, 0, 100)
}

// kellyPercentage es clamp((winRate·avgWin − (1−winRate)·|avgLoss|)/avgWin,
// 0, 1); 0 si cualquiera de las dos medias no es positiva en magnitud.
func kellyPercentage(winRate, avgWin, avgLoss float64) float64 {
	lossMag := math.Abs(avgLoss)
	if avgWin <= 0 || lossMag <= 0 {
		return 0
	}
	k := (winRate*avgWin - (1-winRate)*lossMag) / avgWin
	return clamp(k, 0, 1)
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
