package ports

import (
	"context"
	"time"

	"github.com/pythymcpyface/tradingbot-sub002/internal/domain"
)

// Storage persiste la serie de ratings y los runs de backtest.
type Storage interface {
	// SaveSnapshots persiste los snapshots de rating de un cálculo.
	SaveSnapshots(ctx context.Context, snapshots []domain.RatingSnapshot) error

	// GetSnapshots devuelve los snapshots de un símbolo en el rango dado,
	// en orden cronológico.
	GetSnapshots(ctx context.Context, symbol string, from, to time.Time) ([]domain.RatingSnapshot, error)

	// SaveRun persiste un run de backtest con su scorecard.
	SaveRun(ctx context.Context, run domain.BacktestRun) error

	// GetRuns devuelve los runs de un símbolo, el más reciente primero.
	GetRuns(ctx context.Context, symbol string, limit int) ([]domain.BacktestRun, error)

	// Close cierra la conexión a la base de datos limpiamente.
	Close() error
}
