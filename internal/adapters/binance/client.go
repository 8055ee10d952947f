package binance

// client.go — cliente REST de klines de Binance con rate limiting y retries.
//
// El endpoint /api/v3/klines devuelve como máximo 1000 velas por petición;
// FetchKlines pagina avanzando startTime hasta cubrir el rango pedido.

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pythymcpyface/tradingbot-sub002/internal/domain"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL = "https://api.binance.com"

	// Límite documentado: 6000 weight/min, klines pesa 2. Operamos muy por
	// debajo: 10 req/s con burst de 5.
	requestsPerSec = 10
	requestBurst   = 5

	maxKlinesPerRequest = 1000

	maxRetries    = 3
	baseRetryWait = 500 * time.Millisecond
)

// Client es el HTTP client de Binance con rate limiting y retries.
// Implementa ports.KlineProvider.
type Client struct {
	http    *http.Client
	baseURL string
	limiter *rate.Limiter
}

// NewClient crea un Client contra el base URL dado.
// Si baseURL está vacío, usa el URL de producción.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		http:    &http.Client{Timeout: 10 * time.Second},
		baseURL: baseURL,
		limiter: rate.NewLimiter(requestsPerSec, requestBurst),
	}
}

// FetchKlines devuelve las velas del símbolo en [from, to], en orden
// cronológico, paginando las peticiones necesarias.
func (c *Client) FetchKlines(ctx context.Context, symbol, interval string, from, to time.Time) ([]domain.Kline, error) {
	if symbol == "" || interval == "" {
		return nil, fmt.Errorf("binance.FetchKlines: symbol=%q interval=%q: missing parameters", symbol, interval)
	}
	if !to.After(from) {
		return nil, fmt.Errorf("binance.FetchKlines: empty range [%s, %s]", from, to)
	}

	var klines []domain.Kline
	cursor := from
	for cursor.Before(to) {
		batch, err := c.fetchPage(ctx, symbol, interval, cursor, to)
		if err != nil {
			return nil, err
		}
		if len(batch) == 0 {
			break
		}
		klines = append(klines, batch...)

		last := batch[len(batch)-1]
		next := last.CloseTime.Add(time.Millisecond)
		if !next.After(cursor) {
			break // el exchange no avanza: evitar loop infinito
		}
		cursor = next

		if len(batch) < maxKlinesPerRequest {
			break // última página
		}
	}

	slog.Debug("klines fetched",
		"symbol", symbol,
		"interval", interval,
		"count", len(klines),
	)
	return klines, nil
}

// fetchPage pide una página de velas y la decodifica al modelo de dominio.
func (c *Client) fetchPage(ctx context.Context, symbol, interval string, from, to time.Time) ([]domain.Kline, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("interval", interval)
	q.Set("startTime", strconv.FormatInt(from.UnixMilli(), 10))
	q.Set("endTime", strconv.FormatInt(to.UnixMilli(), 10))
	q.Set("limit", strconv.Itoa(maxKlinesPerRequest))

	var raw [][]any
	if err := c.get(ctx, c.baseURL+"/api/v3/klines?"+q.Encode(), &raw); err != nil {
		return nil, fmt.Errorf("binance.fetchPage: %s %s: %w", symbol, interval, err)
	}

	klines := make([]domain.Kline, 0, len(raw))
	for _, row := range raw {
		k, err := parseKlineRow(symbol, row)
		if err != nil {
			return nil, fmt.Errorf("binance.fetchPage: %s: %w", symbol, err)
		}
		klines = append(klines, k)
	}
	return klines, nil
}

// parseKlineRow convierte una fila del API (array posicional mixto de
// números y strings) en una vela de dominio.
func parseKlineRow(symbol string, row []any) (domain.Kline, error) {
	if len(row) < 11 {
		return domain.Kline{}, fmt.Errorf("kline row has %d fields, want 11+", len(row))
	}

	openTime, err := msField(row[0])
	if err != nil {
		return domain.Kline{}, fmt.Errorf("open time: %w", err)
	}
	closeTime, err := msField(row[6])
	if err != nil {
		return domain.Kline{}, fmt.Errorf("close time: %w", err)
	}

	k := domain.Kline{
		Symbol:    symbol,
		OpenTime:  openTime,
		CloseTime: closeTime,
	}

	prices := []struct {
		dst  *float64
		idx  int
		name string
	}{
		{&k.Open, 1, "open"},
		{&k.High, 2, "high"},
		{&k.Low, 3, "low"},
		{&k.Close, 4, "close"},
		{&k.Volume, 5, "volume"},
		{&k.QuoteVolume, 7, "quote volume"},
		{&k.TakerBuyBase, 9, "taker buy base"},
		{&k.TakerBuyQuote, 10, "taker buy quote"},
	}
	for _, p := range prices {
		v, err := floatField(row[p.idx])
		if err != nil {
			return domain.Kline{}, fmt.Errorf("%s: %w", p.name, err)
		}
		*p.dst = v
	}

	n, ok := row[8].(float64)
	if !ok {
		return domain.Kline{}, fmt.Errorf("trades: field %v is not a number", row[8])
	}
	k.Trades = int(n)

	return k, nil
}

// msField interpreta un campo numérico como timestamp en milisegundos.
func msField(v any) (time.Time, error) {
	n, ok := v.(float64)
	if !ok {
		return time.Time{}, fmt.Errorf("field %v is not a number", v)
	}
	return time.UnixMilli(int64(n)).UTC(), nil
}

// floatField interpreta un campo que el API serializa como string decimal.
func floatField(v any) (float64, error) {
	s, ok := v.(string)
	if !ok {
		if n, isNum := v.(float64); isNum {
			return n, nil
		}
		return 0, fmt.Errorf("field %v is not a decimal string", v)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %q: %w", s, err)
	}
	return f, nil
}

// get hace un GET con rate limiting y retries.
func (c *Client) get(ctx context.Context, url string, out any) error {
	return c.doWithRetry(ctx, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		return c.http.Do(req)
	}, out)
}

// doWithRetry ejecuta la función con backoff exponencial, respetando el
// contexto y el rate limiter en cada intento.
func (c *Client) doWithRetry(ctx context.Context, fn func() (*http.Response, error), out any) error {
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}

		resp, err := fn()
		if err != nil {
			if attempt == maxRetries {
				return fmt.Errorf("request failed after %d retries: %w", maxRetries, err)
			}
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()
			slog.Warn("rate limited by API", "attempt", attempt+1)
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode >= 500 {
			resp.Body.Close()
			if attempt == maxRetries {
				return fmt.Errorf("server error %d after %d retries", resp.StatusCode, maxRetries)
			}
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode >= 400 {
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			return fmt.Errorf("client error %d: %s", resp.StatusCode, string(body))
		}

		defer resp.Body.Close()
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	}
	return fmt.Errorf("exhausted %d retries", maxRetries)
}

// sleep espera con backoff exponencial, respetando el contexto.
func (c *Client) sleep(ctx context.Context, attempt int) {
	wait := time.Duration(math.Pow(2, float64(attempt))) * baseRetryWait
	select {
	case <-time.After(wait):
	case <-ctx.Done():
	}
}
