package optimize

// grid.go — búsqueda en rejilla de parámetros de backtest.
//
// Cada combinación de parámetros es un run independiente (walk-forward +
// scorecard), así que el pool de workers las procesa en paralelo y el
// ranking final se ordena por composite score.

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/pythymcpyface/tradingbot-sub002/internal/backtest"
	"github.com/pythymcpyface/tradingbot-sub002/internal/domain"
	"github.com/pythymcpyface/tradingbot-sub002/internal/metrics"
)

// ErrEmptyGrid: la rejilla no genera ninguna combinación.
var ErrEmptyGrid = errors.New("optimize: empty parameter grid")

// Grid define los valores a explorar por parámetro. Cada eje vacío se
// rellena con el valor del config base, así que basta con poblar los ejes
// que interesa barrer.
type Grid struct {
	ZScoreThresholds     []float64
	MovingAveragePeriods []int
	ProfitPercents       []float64
	StopLossPercents     []float64
	WindowDays           []int
}

// Candidate es una combinación evaluada: config concreto, ventanas
// simuladas y su scorecard.
type Candidate struct {
	ID         string
	Config     backtest.Config
	WindowDays int
	Windows    []domain.WindowResult
	Metrics    domain.SuccessMetrics
}

// combos materializa el producto cartesiano de la rejilla sobre el config
// base. Devuelve nil si algún eje queda sin valores.
func (g Grid) combos(base backtest.Config, baseWindowDays int) []Candidate {
	thresholds := g.ZScoreThresholds
	if len(thresholds) == 0 {
		thresholds = []float64{base.ZScoreThreshold}
	}
	periods := g.MovingAveragePeriods
	if len(periods) == 0 {
		periods = []int{base.MovingAveragePeriod}
	}
	profits := g.ProfitPercents
	if len(profits) == 0 {
		profits = []float64{base.ProfitPercent}
	}
	stops := g.StopLossPercents
	if len(stops) == 0 {
		stops = []float64{base.StopLossPercent}
	}
	windows := g.WindowDays
	if len(windows) == 0 {
		windows = []int{baseWindowDays}
	}

	out := make([]Candidate, 0, len(thresholds)*len(periods)*len(profits)*len(stops)*len(windows))
	for _, th := range thresholds {
		for _, p := range periods {
			for _, tp := range profits {
				for _, sl := range stops {
					for _, wd := range windows {
						cfg := base
						cfg.ZScoreThreshold = th
						cfg.MovingAveragePeriod = p
						cfg.ProfitPercent = tp
						cfg.StopLossPercent = sl
						out = append(out, Candidate{
							ID:         uuid.NewString(),
							Config:     cfg,
							WindowDays: wd,
						})
					}
				}
			}
		}
	}
	return out
}

// GridSearch evalúa todas las combinaciones de la rejilla sobre los mismos
// snapshots y klines y devuelve los candidatos ordenados por composite
// score descendente. Combinaciones inválidas se omiten con un log, no
// abortan la búsqueda.
//
// Si workers <= 0 usa runtime.NumCPU() × 2.
func GridSearch(
	ctx context.Context,
	base backtest.Config,
	grid Grid,
	windowDays int,
	snapshots []domain.RatingSnapshot,
	klines []domain.Kline,
	workers int,
) ([]Candidate, error) {
	candidates := grid.combos(base, windowDays)
	if len(candidates) == 0 {
		return nil, fmt.Errorf("optimize.GridSearch: %w", ErrEmptyGrid)
	}
	if workers <= 0 {
		workers = runtime.NumCPU() * 2
	}

	workCh := make(chan Candidate, len(candidates))
	resultCh := make(chan Candidate, len(candidates))

	// Worker pool: cada worker toma combinaciones de workCh y publica el
	// candidato evaluado en resultCh.
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for c := range workCh {
				if ctx.Err() != nil {
					continue
				}
				windows, err := backtest.WindowedRun(c.Config, snapshots, klines, c.WindowDays)
				if err != nil {
					slog.Debug("grid combo skipped",
						"run_id", c.ID,
						"threshold", c.Config.ZScoreThreshold,
						"period", c.Config.MovingAveragePeriod,
						"err", err,
					)
					continue
				}
				c.Windows = windows
				c.Metrics = metrics.Analyze(windows)
				resultCh <- c
			}
		}()
	}

	for _, c := range candidates {
		workCh <- c
	}
	close(workCh)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	evaluated := make([]Candidate, 0, len(candidates))
	for c := range resultCh {
		evaluated = append(evaluated, c)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("optimize.GridSearch: cancelled: %w", err)
	}

	sort.SliceStable(evaluated, func(i, j int) bool {
		return evaluated[i].Metrics.CompositeScore > evaluated[j].Metrics.CompositeScore
	})

	slog.Debug("grid search complete",
		"combos", len(candidates),
		"evaluated", len(evaluated),
		"workers", workers,
	)

	return evaluated, nil
}

// Best devuelve el candidato mejor clasificado de un resultado de
// GridSearch. ok es false con lista vacía.
func Best(ranked []Candidate) (Candidate, bool) {
	if len(ranked) == 0 {
		return Candidate{}, false
	}
	return ranked[0], true
}
