package rating

// engine.go — motor de rating Glicko-2 pairwise con outcome continuo.
//
// Desviaciones deliberadas respecto al Glicko-2 de libro, que los
// consumidores downstream dependen de mantener bit-a-bit:
//   - El outcome es continuo en [0,1] (score = 0.5 + priceChange×50,
//     clampeado), no el {0, 0.5, 1} discreto clásico.
//   - La volatilidad usa la forma cerrada σ' = √(σ² + Δ²/v) en vez del
//     solve iterativo (Illinois). Es una aproximación intencional.
//   - El update es simétrico: ambos participantes se actualizan contra el
//     estado pre-update del otro con score complementario. No es
//     perfectamente zero-sum porque RD/σ difieren por activo; eso es
//     esperado. NormalizeRatings recentra la media del universo en 1500.

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/pythymcpyface/tradingbot-sub002/internal/domain"
	"github.com/pythymcpyface/tradingbot-sub002/internal/vector"
)

const (
	glicko2Scale      = 173.7178
	defaultRating     = 1500.0
	defaultRD         = 350.0
	defaultVolatility = 0.06

	minRD         = 0.0
	maxRD         = 350.0
	minVolatility = 0.01
	maxVolatility = 0.2

	// Oponente benchmark para el replay de velas (baseline USDT).
	benchmarkRating = 1500.0
	benchmarkRD     = 50.0
)

// ErrInvalidInput: input no finito o símbolo no registrado en un update.
// El caller no debe dejar que precios no finitos lleguen hasta aquí.
var ErrInvalidInput = errors.New("rating: invalid input")

// Engine mantiene el estado de rating de cada símbolo del universo.
// El mutex serializa ProcessGame (toca dos símbolos) y hace de barrera
// completa para NormalizeRatings, que lee y reescribe todo el universo.
type Engine struct {
	mu      sync.Mutex
	players map[string]*domain.AssetRatingState
}

// NewEngine crea un engine vacío.
func NewEngine() *Engine {
	return &Engine{players: make(map[string]*domain.AssetRatingState)}
}

// EnsureCoinExists registra el símbolo con los defaults 1500/350/0.06 si no
// existe todavía. Idempotente: un símbolo ya activo no se toca.
func (e *Engine) EnsureCoinExists(symbol string, ts time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ensureLocked(symbol, ts)
}

func (e *Engine) ensureLocked(symbol string, ts time.Time) *domain.AssetRatingState {
	if p, ok := e.players[symbol]; ok {
		return p
	}
	p := &domain.AssetRatingState{
		Symbol:          symbol,
		Rating:          defaultRating,
		RatingDeviation: defaultRD,
		Volatility:      defaultVolatility,
		LastUpdated:     ts,
	}
	e.players[symbol] = p
	return p
}

// ProcessGame aplica un game entre assetA y assetB dado el retorno relativo
// de A frente a B. Ambos participantes se actualizan contra el estado
// pre-update del otro; B recibe el score complementario 1-score.
//
// Falla con ErrInvalidInput si priceChange no es finito o si alguno de los
// símbolos no fue registrado antes con EnsureCoinExists.
func (e *Engine) ProcessGame(assetA, assetB string, priceChange float64, ts time.Time) error {
	if math.IsNaN(priceChange) || math.IsInf(priceChange, 0) {
		return fmt.Errorf("rating.ProcessGame: price change %v: %w", priceChange, ErrInvalidInput)
	}
	if assetA == assetB {
		return fmt.Errorf("rating.ProcessGame: %s vs itself: %w", assetA, ErrInvalidInput)
	}

	score := OutcomeScore(priceChange)

	e.mu.Lock()
	defer e.mu.Unlock()

	a, okA := e.players[assetA]
	if !okA {
		return fmt.Errorf("rating.ProcessGame: unknown symbol %q: %w", assetA, ErrInvalidInput)
	}
	b, okB := e.players[assetB]
	if !okB {
		return fmt.Errorf("rating.ProcessGame: unknown symbol %q: %w", assetB, ErrInvalidInput)
	}

	// Snapshot pre-update: cada lado ve al oponente como estaba antes.
	preA, preB := *a, *b

	newA := applyGame(preA, preB.Rating, preB.RatingDeviation, score)
	newB := applyGame(preB, preA.Rating, preA.RatingDeviation, 1-score)

	newA.LastUpdated = ts
	newB.LastUpdated = ts
	*a = newA
	*b = newB
	return nil
}

// applyGame ejecuta un update Glicko-2 de un jugador contra un oponente.
func applyGame(p domain.AssetRatingState, oppRating, oppRD, score float64) domain.AssetRatingState {
	mu := (p.Rating - defaultRating) / glicko2Scale
	phi := p.RatingDeviation / glicko2Scale
	muJ := (oppRating - defaultRating) / glicko2Scale
	phiJ := oppRD / glicko2Scale

	g := gFunction(phiJ)
	expected := eFunction(mu, muJ, g)

	// Varianza estimada y mejora estimada.
	v := 1 / (g * g * expected * (1 - expected))
	delta := v * g * (score - expected)

	// Forma cerrada de la volatilidad (aproximación intencional del solve
	// iterativo), clampeada a sus límites.
	sigma := clamp(math.Sqrt(p.Volatility*p.Volatility+delta*delta/v), minVolatility, maxVolatility)

	phiStar := math.Sqrt(phi*phi + sigma*sigma)
	phiNew := 1 / math.Sqrt(1/(phiStar*phiStar)+1/v)
	muNew := mu + phiNew*phiNew*g*(score-expected)

	return domain.AssetRatingState{
		Symbol:          p.Symbol,
		Rating:          glicko2Scale*muNew + defaultRating,
		RatingDeviation: clamp(glicko2Scale*phiNew, minRD, maxRD),
		Volatility:      sigma,
		LastUpdated:     p.LastUpdated,
	}
}

// gFunction es g(φ) = 1/√(1 + 3φ²/π²) del spec Glicko-2.
func gFunction(phi float64) float64 {
	return 1 / math.Sqrt(1+3*phi*phi/(math.Pi*math.Pi))
}

// eFunction es E(μ, μ_j, g(φ_j)) = 1/(1+e^{-g(μ-μ_j)}).
func eFunction(mu, muJ, gPhiJ float64) float64 {
	return 1 / (1 + math.Exp(-gPhiJ*(mu-muJ)))
}

// NormalizeRatings recentra el universo: desplaza cada rating por
// (1500 - media actual) para que la media quede exactamente en 1500.
// Es una operación bulk que actúa como barrera — ningún ProcessGame puede
// estar en vuelo mientras se ejecuta; el mutex del engine lo garantiza.
func (e *Engine) NormalizeRatings() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.players) == 0 {
		return
	}

	symbols := make([]string, 0, len(e.players))
	ratings := make([]float64, 0, len(e.players))
	for sym, p := range e.players {
		symbols = append(symbols, sym)
		ratings = append(ratings, p.Rating)
	}

	shift := defaultRating - vector.Mean(ratings)
	shifted := vector.AddScalar(ratings, shift)
	for i, sym := range symbols {
		e.players[sym].Rating = shifted[i]
	}
}

// GetCoinState devuelve el estado actual del símbolo. Un símbolo nunca
// registrado es un lookup miss (found=false), no un error.
func (e *Engine) GetCoinState(symbol string) (domain.AssetRatingState, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, ok := e.players[symbol]
	if !ok {
		return domain.AssetRatingState{}, false
	}
	return *p, true
}

// States devuelve un snapshot de todos los estados, ordenado por rating desc.
func (e *Engine) States() []domain.AssetRatingState {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]domain.AssetRatingState, 0, len(e.players))
	for _, p := range e.players {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Rating > out[j].Rating })
	return out
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
