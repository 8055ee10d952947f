package ports

import (
	"context"
	"time"

	"github.com/pythymcpyface/tradingbot-sub002/internal/domain"
)

// KlineProvider obtiene velas históricas de un exchange.
type KlineProvider interface {
	// FetchKlines devuelve las velas del símbolo en el rango dado, en orden
	// cronológico. interval usa la notación del exchange ("1h", "1d").
	// Pagina automáticamente hasta cubrir el rango completo.
	FetchKlines(ctx context.Context, symbol, interval string, from, to time.Time) ([]domain.Kline, error)
}
