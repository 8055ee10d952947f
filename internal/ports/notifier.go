package ports

import (
	"context"

	"github.com/pythymcpyface/tradingbot-sub002/internal/domain"
)

// Notifier presenta ratings y scorecards al usuario.
type Notifier interface {
	// NotifyRatings muestra los estados de rating ordenados de mayor a menor.
	// En la implementación de consola, imprime una tabla formateada.
	NotifyRatings(ctx context.Context, states []domain.AssetRatingState) error

	// NotifyScorecard muestra el scorecard de un run de backtest.
	NotifyScorecard(ctx context.Context, run domain.BacktestRun) error
}
