package vector

// vector.go — kernel numérico sobre []float64.
//
// Contrato:
//   - Todas las funciones son puras: nunca mutan sus inputs, siempre
//     devuelven un slice nuevo o un escalar.
//   - Las reducciones que suman muchos términos usan suma compensada
//     (Kahan) o el algoritmo online de Welford; los dos caminos deben
//     coincidir dentro de tolerancia flotante (propiedad testeada).
//   - Edge cases por-elemento (divisor ~0, vectores vacíos, varianza cero)
//     degradan a sentinelas bien definidos en vez de fallar: ocurren de
//     forma rutinaria en datos legítimos y no deben abortar un batch.

import (
	"errors"
	"math"
	"sort"
)

// Taxonomía de errores del kernel. Se comparan con errors.Is.
var (
	// ErrLengthMismatch: operandos elementwise de longitudes distintas.
	ErrLengthMismatch = errors.New("vector: length mismatch")
	// ErrInvalidArgument: percentil, ventana o parámetro fuera de rango.
	ErrInvalidArgument = errors.New("vector: invalid argument")
	// ErrDivisionByZero: divisor escalar ~0 (solo el camino escalar falla;
	// el camino elementwise degrada a 0 por elemento).
	ErrDivisionByZero = errors.New("vector: division by zero")
)

// epsilon es el umbral bajo el cual un divisor se trata como cero.
const epsilon = 1e-15

// --- operaciones elementwise ---

// Add devuelve a[i] + b[i].
func Add(a, b []float64) ([]float64, error) {
	if len(a) != len(b) {
		return nil, ErrLengthMismatch
	}
	out := make([]float64, len(a))
	for i := range a {
		out[i] = a[i] + b[i]
	}
	return out, nil
}

// Subtract devuelve a[i] - b[i].
func Subtract(a, b []float64) ([]float64, error) {
	if len(a) != len(b) {
		return nil, ErrLengthMismatch
	}
	out := make([]float64, len(a))
	for i := range a {
		out[i] = a[i] - b[i]
	}
	return out, nil
}

// Multiply devuelve a[i] * b[i].
func Multiply(a, b []float64) ([]float64, error) {
	if len(a) != len(b) {
		return nil, ErrLengthMismatch
	}
	out := make([]float64, len(a))
	for i := range a {
		out[i] = a[i] * b[i]
	}
	return out, nil
}

// Divide devuelve a[i] / b[i]. Un divisor con |b[i]| < epsilon produce 0 en
// ese elemento en vez de ±Inf: degradación silenciosa por-elemento, a
// diferencia de DivideScalar que falla la llamada completa.
func Divide(a, b []float64) ([]float64, error) {
	if len(a) != len(b) {
		return nil, ErrLengthMismatch
	}
	out := make([]float64, len(a))
	for i := range a {
		if math.Abs(b[i]) < epsilon {
			out[i] = 0
			continue
		}
		out[i] = a[i] / b[i]
	}
	return out, nil
}

// --- operaciones escalares ---

// AddScalar devuelve v[i] + s.
func AddScalar(v []float64, s float64) []float64 {
	out := make([]float64, len(v))
	for i := range v {
		out[i] = v[i] + s
	}
	return out
}

// MultiplyScalar devuelve v[i] * s.
func MultiplyScalar(v []float64, s float64) []float64 {
	out := make([]float64, len(v))
	for i := range v {
		out[i] = v[i] * s
	}
	return out
}

// DivideScalar devuelve v[i] / s. Un divisor ~0 falla la llamada completa
// con ErrDivisionByZero.
func DivideScalar(v []float64, s float64) ([]float64, error) {
	if math.Abs(s) < epsilon {
		return nil, ErrDivisionByZero
	}
	out := make([]float64, len(v))
	for i := range v {
		out[i] = v[i] / s
	}
	return out, nil
}

// --- reducciones ---

// Sum devuelve la suma con compensación de Kahan, acotando la acumulación
// de error flotante en vectores largos de magnitudes mezcladas.
func Sum(v []float64) float64 {
	var sum, c float64
	for _, x := range v {
		y := x - c
		t := sum + y
		c = (t - sum) - y
		sum = t
	}
	return sum
}

// Mean devuelve la media aritmética. Vector vacío → 0.
func Mean(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	return Sum(v) / float64(len(v))
}

// Variance devuelve la varianza en dos pasadas. ddof selecciona el divisor:
// 0 = poblacional (n), 1 = muestral (n-1). Devuelve 0 si n <= ddof.
func Variance(v []float64, ddof int) float64 {
	n := len(v)
	if n == 0 || n <= ddof {
		return 0
	}
	mean := Mean(v)
	var sum, c float64
	for _, x := range v {
		d := x - mean
		y := d*d - c
		t := sum + y
		c = (t - sum) - y
		sum = t
	}
	return sum / float64(n-ddof)
}

// StdDev devuelve la desviación estándar derivada de Variance.
func StdDev(v []float64, ddof int) float64 {
	return math.Sqrt(Variance(v, ddof))
}

// MeanVarOnline calcula media y varianza poblacional en una sola pasada con
// el algoritmo de Welford. Numéricamente estable; debe coincidir con el
// camino de dos pasadas dentro de tolerancia flotante.
func MeanVarOnline(v []float64) (mean, variance float64) {
	var m2 float64
	n := 0.0
	for _, x := range v {
		n++
		delta := x - mean
		mean += delta / n
		m2 += delta * (x - mean)
	}
	if n == 0 {
		return 0, 0
	}
	return mean, m2 / n
}

// Correlation devuelve la correlación de Pearson entre a y b.
// Varianza cero en cualquiera de los dos → 0, nunca NaN.
func Correlation(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, ErrLengthMismatch
	}
	n := len(a)
	if n == 0 {
		return 0, nil
	}
	meanA := Mean(a)
	meanB := Mean(b)

	var cov, varA, varB float64
	for i := 0; i < n; i++ {
		da := a[i] - meanA
		db := b[i] - meanB
		cov += da * db
		varA += da * da
		varB += db * db
	}
	if varA < epsilon || varB < epsilon {
		return 0, nil
	}
	return cov / math.Sqrt(varA*varB), nil
}

// --- percentiles ---

// Percentile devuelve el percentil p (0-100) interpolando linealmente entre
// order statistics sobre una copia ordenada. p fuera de [0,100] →
// ErrInvalidArgument. Vector vacío → 0.
func Percentile(v []float64, p float64) (float64, error) {
	if p < 0 || p > 100 {
		return 0, ErrInvalidArgument
	}
	if len(v) == 0 {
		return 0, nil
	}
	sorted := make([]float64, len(v))
	copy(sorted, v)
	sort.Float64s(sorted)

	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo], nil
	}
	frac := rank - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo]), nil
}

// Quantile es Percentile con q en [0,1].
func Quantile(v []float64, q float64) (float64, error) {
	if q < 0 || q > 1 {
		return 0, ErrInvalidArgument
	}
	return Percentile(v, q*100)
}

// Median devuelve el percentil 50.
func Median(v []float64) float64 {
	m, _ := Percentile(v, 50)
	return m
}

// --- ventanas rolling ---

// RollingSum devuelve las sumas de cada ventana deslizante de tamaño window.
// Resultado de longitud len(v)-window+1. Acumulador O(n), no O(n·window).
// window fuera de [1, len(v)] → ErrInvalidArgument.
func RollingSum(v []float64, window int) ([]float64, error) {
	if window < 1 || window > len(v) {
		return nil, ErrInvalidArgument
	}
	out := make([]float64, len(v)-window+1)
	var acc float64
	for i := 0; i < window; i++ {
		acc += v[i]
	}
	out[0] = acc
	for i := window; i < len(v); i++ {
		acc += v[i] - v[i-window]
		out[i-window+1] = acc
	}
	return out, nil
}

// RollingMean devuelve las medias de cada ventana deslizante.
func RollingMean(v []float64, window int) ([]float64, error) {
	sums, err := RollingSum(v, window)
	if err != nil {
		return nil, err
	}
	for i := range sums {
		sums[i] /= float64(window)
	}
	return sums, nil
}

// --- predicados y utilidades ---

// IsFinite devuelve true si todos los elementos son finitos (ni NaN ni ±Inf).
func IsFinite(v []float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

// HasNaN devuelve true si algún elemento es NaN.
func HasNaN(v []float64) bool {
	for _, x := range v {
		if math.IsNaN(x) {
			return true
		}
	}
	return false
}

// ReplaceNaN devuelve una copia con cada NaN sustituido por repl.
func ReplaceNaN(v []float64, repl float64) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		if math.IsNaN(x) {
			out[i] = repl
			continue
		}
		out[i] = x
	}
	return out
}

// Equal devuelve true si a y b tienen igual longitud y cada par de elementos
// difiere menos que tol.
func Equal(a, b []float64, tol float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.Abs(a[i]-b[i]) > tol {
			return false
		}
	}
	return true
}
