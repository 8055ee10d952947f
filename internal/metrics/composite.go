package metrics

// composite.go — blends compuestos, nota ordinal y recomendación.
//
// Los factores ×25 / ×200 / ×10 de normalización a 0-100 son constantes
// fijas del contrato, no parámetros ajustables.

import (
	"fmt"
	"math"
	"strings"

	"github.com/pythymcpyface/tradingbot-sub002/internal/domain"
)

// Pesos del composite: Sharpe 25%, winRate 20%, profitFactor 20%,
// penalización por drawdown 25%, consistencia 10%.
const (
	weightSharpe       = 0.25
	weightWinRate      = 0.20
	weightProfitFactor = 0.20
	weightDrawdown     = 0.25
	weightConsistency  = 0.10
)

// Umbrales de nota sobre el composite score.
var gradeThresholds = []struct {
	min   float64
	grade domain.Grade
}{
	{90, domain.GradeAPlus},
	{85, domain.GradeA},
	{80, domain.GradeBPlus},
	{75, domain.GradeB},
	{70, domain.GradeCPlus},
	{65, domain.GradeC},
	{60, domain.GradeD},
}

// compositeScore normaliza cada métrica a 0-100 y aplica el blend ponderado.
func compositeScore(m domain.SuccessMetrics) float64 {
	sharpeScore := clamp(m.SharpeRatio*25, 0, 100)
	winScore := m.WinRate * 100
	pfScore := profitFactorScore(m.ProfitFactor)
	ddScore := clamp(100-m.MaxDrawdown*200, 0, 100)

	return sharpeScore*weightSharpe +
		winScore*weightWinRate +
		pfScore*weightProfitFactor +
		ddScore*weightDrawdown +
		m.Consistency*weightConsistency
}

// profitFactorScore mapea el profit factor a 0-100; el sentinel +Inf
// (ninguna ventana perdedora) satura en 100.
func profitFactorScore(pf float64) float64 {
	if math.IsInf(pf, 1) {
		return 100
	}
	return clamp(pf*25, 0, 100)
}

// riskAdjustedScore es el segundo blend: retorno anualizado, Sharpe y
// Sortino, con la penalización por drawdown restada explícitamente.
func riskAdjustedScore(m domain.SuccessMetrics) float64 {
	score := m.AnnualizedReturn*100*0.4 +
		m.SharpeRatio*25*0.3 +
		m.SortinoRatio*25*0.3 -
		m.MaxDrawdown*200*0.25
	return clamp(score, 0, 100)
}

// gradeFor bucketea el composite en la escala ordinal de 8 niveles.
func gradeFor(composite float64) domain.Grade {
	for _, t := range gradeThresholds {
		if composite >= t.min {
			return t.grade
		}
	}
	return domain.GradeF
}

// riskLevelFor clasifica el riesgo combinado drawdown+volatilidad.
func riskLevelFor(m domain.SuccessMetrics) domain.RiskLevel {
	riskScore := m.MaxDrawdown*200*0.6 + m.Volatility*100*0.4
	switch {
	case riskScore < 20:
		return domain.RiskLow
	case riskScore < 40:
		return domain.RiskMedium
	case riskScore < 60:
		return domain.RiskHigh
	default:
		return domain.RiskVeryHigh
	}
}

// recommendationFor concatena observaciones rule-based en un texto legible:
// resumen de nota, aviso de riesgo, debilidades concretas y sizing Kelly.
func recommendationFor(m domain.SuccessMetrics) string {
	var parts []string

	parts = append(parts, fmt.Sprintf("Grade %s strategy (composite %.1f/100).",
		m.StrategyGrade, m.CompositeScore))

	if m.RiskLevel == domain.RiskVeryHigh {
		parts = append(parts, "WARNING: very high risk — drawdown and volatility are elevated; reduce exposure.")
	}

	if m.WinRate < 0.4 {
		parts = append(parts, fmt.Sprintf("Low win rate (%.0f%%); review entry signals.", m.WinRate*100))
	}
	if !math.IsInf(m.ProfitFactor, 1) && m.ProfitFactor < 1.2 {
		parts = append(parts, fmt.Sprintf("Thin profit factor (%.2f); losses nearly offset gains.", m.ProfitFactor))
	}
	if m.SharpeRatio < 0.5 {
		parts = append(parts, fmt.Sprintf("Weak risk-adjusted returns (Sharpe %.2f).", m.SharpeRatio))
	}

	if m.KellyPercentage > 0 {
		parts = append(parts, fmt.Sprintf("Kelly sizing suggests risking at most %.1f%% per position.",
			m.KellyPercentage*100))
	} else {
		parts = append(parts, "Kelly sizing suggests no allocation at current win/loss profile.")
	}

	return strings.Join(parts, " ")
}
