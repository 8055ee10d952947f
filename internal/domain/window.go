package domain

import "time"

// WindowResult resume un período de evaluación de un backtest: su retorno
// fraccional, duración en días y número de trades cerrados. Input inmutable
// del analizador de métricas; una lista de estos forma un run completo.
type WindowResult struct {
	Return    float64
	Duration  float64 // días
	StartDate time.Time
	EndDate   time.Time
	Trades    int
}

// Grade es la nota ordinal de una estrategia (A+ hasta F).
type Grade string

const (
	GradeAPlus Grade = "A+"
	GradeA     Grade = "A"
	GradeBPlus Grade = "B+"
	GradeB     Grade = "B"
	GradeCPlus Grade = "C+"
	GradeC     Grade = "C"
	GradeD     Grade = "D"
	GradeF     Grade = "F"
)

// RiskLevel clasifica el riesgo combinado drawdown+volatilidad.
type RiskLevel string

const (
	RiskLow      RiskLevel = "Low"
	RiskMedium   RiskLevel = "Medium"
	RiskHigh     RiskLevel = "High"
	RiskVeryHigh RiskLevel = "Very High"
)

// SuccessMetrics es el scorecard completo de un run. Value object puro:
// se recalcula desde sus WindowResult cada vez, nunca se muta in place.
type SuccessMetrics struct {
	// Retorno
	TotalReturn      float64
	AnnualizedReturn float64

	// Ratios ajustados por riesgo
	SharpeRatio  float64
	SortinoRatio float64
	CalmarRatio  float64

	// Descomposición win/loss
	WinRate      float64
	ProfitFactor float64 // +Inf cuando no hay ventanas perdedoras
	AverageWin   float64
	AverageLoss  float64 // negativo
	LargestWin   float64
	LargestLoss  float64 // negativo

	// Riesgo
	MaxDrawdown       float64
	Volatility        float64 // stdev poblacional de retornos por ventana
	DownsideDeviation float64
	ValueAtRisk95     float64 // percentil 5 de la distribución de retornos

	// Consistencia y sizing
	Consistency     float64 // % de sumas rolling de 12 ventanas positivas
	StabilityIndex  float64 // clamp(mean/stdev × 10, 0, 100)
	KellyPercentage float64

	// Scores compuestos
	CompositeScore    float64
	RiskAdjustedScore float64
	StrategyGrade     Grade
	RiskLevel         RiskLevel
	Recommendation    string

	// Contexto del run
	TotalWindows int
	TotalTrades  int
}

// BacktestRun asocia un scorecard con la identidad del run que lo produjo,
// para persistencia y comparación entre runs.
type BacktestRun struct {
	ID         string // uuid; el storage lo genera si viene vacío
	Symbol     string
	StartedAt  time.Time
	FinishedAt time.Time
	Windows    int
	Metrics    SuccessMetrics
}
