package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// klineRow construye una fila del API en el formato posicional de Binance.
func klineRow(openTime time.Time, open, close float64) []any {
	closeTime := openTime.Add(time.Hour - time.Millisecond)
	return []any{
		openTime.UnixMilli(),
		fmt.Sprintf("%.2f", open),
		fmt.Sprintf("%.2f", open+1),
		fmt.Sprintf("%.2f", open-1),
		fmt.Sprintf("%.2f", close),
		"1000.00",
		closeTime.UnixMilli(),
		"104000.00",
		250,
		"600.00",
		"62400.00",
		"0",
	}
}

func TestFetchKlines_ParsesRows(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/klines", r.URL.Path)
		assert.Equal(t, "BTCUSDT", r.URL.Query().Get("symbol"))
		assert.Equal(t, "1h", r.URL.Query().Get("interval"))

		rows := [][]any{
			klineRow(t0, 100, 104),
			klineRow(t0.Add(time.Hour), 104, 102),
		}
		json.NewEncoder(w).Encode(rows)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	klines, err := c.FetchKlines(context.Background(), "BTCUSDT", "1h", t0, t0.Add(2*time.Hour))
	require.NoError(t, err)
	require.Len(t, klines, 2)

	k := klines[0]
	assert.Equal(t, "BTCUSDT", k.Symbol)
	assert.Equal(t, t0, k.OpenTime)
	assert.InDelta(t, 100, k.Open, 1e-9)
	assert.InDelta(t, 104, k.Close, 1e-9)
	assert.InDelta(t, 1000, k.Volume, 1e-9)
	assert.InDelta(t, 600, k.TakerBuyBase, 1e-9)
	assert.Equal(t, 250, k.Trades)
	assert.True(t, klines[1].OpenTime.After(k.OpenTime))
}

func TestFetchKlines_Paginates(t *testing.T) {
	// Dos páginas: la primera devuelve el máximo por petición, la segunda
	// el resto. El cliente debe avanzar startTime tras cada página.
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		start, err := strconv.ParseInt(r.URL.Query().Get("startTime"), 10, 64)
		require.NoError(t, err)
		from := time.UnixMilli(start).UTC()

		n := maxKlinesPerRequest
		if requests > 1 {
			n = 10
		}
		rows := make([][]any, n)
		for i := 0; i < n; i++ {
			at := from.Add(time.Duration(i) * time.Hour)
			rows[i] = klineRow(at, 100, 101)
		}
		json.NewEncoder(w).Encode(rows)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	end := t0.Add(time.Duration(maxKlinesPerRequest+10) * time.Hour)
	klines, err := c.FetchKlines(context.Background(), "BTCUSDT", "1h", t0, end)
	require.NoError(t, err)

	assert.Equal(t, 2, requests)
	assert.Len(t, klines, maxKlinesPerRequest+10)
}

func TestFetchKlines_RetriesServerErrors(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if requests == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode([][]any{klineRow(t0, 100, 101)})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	klines, err := c.FetchKlines(context.Background(), "BTCUSDT", "1h", t0, t0.Add(time.Hour))
	require.NoError(t, err)
	assert.Len(t, klines, 1)
	assert.Equal(t, 2, requests)
}

func TestFetchKlines_ClientErrorIsNotRetried(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code":-1121,"msg":"Invalid symbol."}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.FetchKlines(context.Background(), "NOPE", "1h", t0, t0.Add(time.Hour))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "client error 400")
	assert.Equal(t, 1, requests)
}

func TestFetchKlines_InvalidArgs(t *testing.T) {
	c := NewClient("")
	_, err := c.FetchKlines(context.Background(), "", "1h", t0, t0.Add(time.Hour))
	assert.Error(t, err)

	_, err = c.FetchKlines(context.Background(), "BTCUSDT", "1h", t0, t0)
	assert.Error(t, err)
}

func TestParseKlineRow_ShortRow(t *testing.T) {
	_, err := parseKlineRow("BTCUSDT", []any{float64(1), "2"})
	assert.Error(t, err)
}
