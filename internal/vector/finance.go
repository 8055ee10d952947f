package vector

// finance.go — helpers financieros sobre el kernel: retornos, ratios
// ajustados por riesgo y drawdown sobre una curva de equity compuesta.

import "math"

// ReturnMethod selecciona cómo calcular retornos desde precios.
type ReturnMethod string

const (
	// MethodSimple: (p[i] - p[i-1]) / p[i-1].
	MethodSimple ReturnMethod = "simple"
	// MethodLog: ln(p[i] / p[i-1]). Requiere precios positivos.
	MethodLog ReturnMethod = "log"
)

// Returns calcula la serie de retornos de una serie de precios.
// Necesita al menos 2 precios; método desconocido o precio no positivo en
// el camino logarítmico → ErrInvalidArgument.
func Returns(prices []float64, method ReturnMethod) ([]float64, error) {
	if len(prices) < 2 {
		return nil, ErrInvalidArgument
	}
	out := make([]float64, len(prices)-1)
	switch method {
	case MethodSimple:
		for i := 1; i < len(prices); i++ {
			if math.Abs(prices[i-1]) < epsilon {
				out[i-1] = 0
				continue
			}
			out[i-1] = (prices[i] - prices[i-1]) / prices[i-1]
		}
	case MethodLog:
		for i := 1; i < len(prices); i++ {
			if prices[i] <= 0 || prices[i-1] <= 0 {
				return nil, ErrInvalidArgument
			}
			out[i-1] = math.Log(prices[i] / prices[i-1])
		}
	default:
		return nil, ErrInvalidArgument
	}
	return out, nil
}

// SharpeRatio devuelve el Sharpe anualizado de una serie de retornos por
// período. riskFree es la tasa libre de riesgo por período; periodsPerYear
// el factor de anualización. Desviación cero → 0.
func SharpeRatio(returns []float64, riskFree, periodsPerYear float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	mean := Mean(returns)
	sd := StdDev(returns, 0)
	if sd < epsilon {
		return 0
	}
	return (mean - riskFree) / sd * math.Sqrt(periodsPerYear)
}

// SortinoRatio es como Sharpe pero el denominador es la desviación de
// downside: solo cuentan las observaciones por debajo de target.
// Sin observaciones bajo target o desviación cero → 0.
func SortinoRatio(returns []float64, target, periodsPerYear float64) float64 {
	if len(returns) == 0 {
		return 0
	}
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
	downside := math.Sqrt(sum / float64(n))
	if downside < epsilon {
		return 0
	}
	return (Mean(returns) - target) / downside * math.Sqrt(periodsPerYear)
}

// MaxDrawdown devuelve la caída peak-to-trough máxima (fracción positiva)
// de la curva de equity compuesta construida desde la serie de retornos.
func MaxDrawdown(returns []float64) float64 {
	equity := 1.0
	peak := 1.0
	maxDD := 0.0
	for _, r := range returns {
		equity *= 1 + r
		if equity > peak {
			peak = equity
		}
		if peak > 0 {
			dd := (peak - equity) / peak
			if dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}
