package backtest

// engine.go — simulación de portfolio dirigida por señales de z-score.
//
// Entradas en BUY, salidas en SELL o al tocar stop-loss / take-profit.
// El engine produce la curva de equity y el log de órdenes; el scoring
// del run es responsabilidad del analizador de métricas, no de aquí.

import (
	"fmt"
	"sort"
	"time"

	"github.com/pythymcpyface/tradingbot-sub002/internal/domain"
)

const defaultAllocation = 0.95 // fracción del cash usada al abrir posición

// Config parametriza un run de backtest sobre un símbolo.
type Config struct {
	Symbol              string
	ZScoreThreshold     float64
	MovingAveragePeriod int
	ProfitPercent       float64 // take profit, en %
	StopLossPercent     float64 // stop loss, en %
	InitialCash         float64
	AllocationPercent   float64 // fracción de cash por entrada; 0 → 0.95
}

// Order es una orden ejecutada en la simulación. ProfitLoss y
// ProfitLossPct solo tienen sentido en el lado SELL.
type Order struct {
	Symbol        string
	Side          string // BUY | SELL
	Quantity      float64
	Price         float64
	Timestamp     time.Time
	Reason        string // ENTRY | EXIT_ZSCORE | EXIT_STOP | EXIT_PROFIT | EXIT_FINAL
	ProfitLoss    float64
	ProfitLossPct float64
}

// EquityPoint es un punto fechado de la curva de equity.
type EquityPoint struct {
	Timestamp time.Time
	Value     float64
}

// Result es el output crudo de un run: curva, órdenes y equity final.
type Result struct {
	Symbol      string
	InitialCash float64
	FinalEquity float64
	Start       time.Time
	End         time.Time
	Orders      []Order
	EquityCurve []EquityPoint
}

// TotalReturn devuelve el retorno fraccional del run.
func (r Result) TotalReturn() float64 {
	if r.InitialCash <= 0 {
		return 0
	}
	return (r.FinalEquity - r.InitialCash) / r.InitialCash
}

// ClosedTrades cuenta las órdenes SELL (trades cerrados).
func (r Result) ClosedTrades() int {
	n := 0
	for _, o := range r.Orders {
		if o.Side == "SELL" {
			n++
		}
	}
	return n
}

// position es una posición abierta durante la simulación.
type position struct {
	quantity   float64
	entryPrice float64
	stopPrice  float64
	takePrice  float64
}

// Run simula la estrategia: alinea señales con precios de cierre por
// timestamp y camina la serie procesando entradas, salidas y stops.
func Run(cfg Config, snapshots []domain.RatingSnapshot, klines []domain.Kline) (Result, error) {
	if cfg.Symbol == "" || cfg.MovingAveragePeriod < 1 || cfg.InitialCash <= 0 || cfg.ZScoreThreshold <= 0 {
		return Result{}, fmt.Errorf("backtest.Run: symbol=%q period=%d cash=%v threshold=%v: %w",
			cfg.Symbol, cfg.MovingAveragePeriod, cfg.InitialCash, cfg.ZScoreThreshold, ErrInvalidConfig)
	}
	allocation := cfg.AllocationPercent
	if allocation <= 0 || allocation > 1 {
		allocation = defaultAllocation
	}

	allSignals, err := ZScoreSignals(snapshots, cfg.MovingAveragePeriod, cfg.ZScoreThreshold)
	if err != nil {
		return Result{}, err
	}
	signals := allSignals[cfg.Symbol]

	prices := closePrices(cfg.Symbol, klines)

	res := Result{
		Symbol:      cfg.Symbol,
		InitialCash: cfg.InitialCash,
		FinalEquity: cfg.InitialCash,
	}
	if len(prices) > 0 {
		res.Start = prices[0].Timestamp
		res.End = prices[len(prices)-1].Timestamp
	}

	cash := cfg.InitialCash
	var open *position

	sigIdx, priceIdx := 0, 0
	var lastPrice float64
	var lastTime time.Time

	for sigIdx < len(signals) && priceIdx < len(prices) {
		sig := signals[sigIdx]
		price := prices[priceIdx]

		// Alinear timestamps: avanza el stream que va por detrás.
		if sig.Timestamp.Before(price.Timestamp) {
			sigIdx++
			continue
		}
		if price.Timestamp.Before(sig.Timestamp) {
			priceIdx++
			continue
		}

		lastPrice = price.Value
		lastTime = price.Timestamp

		// Stops primero: tienen prioridad sobre la señal del mismo bar.
		if open != nil {
			switch {
			case price.Value <= open.stopPrice:
				cash += closePosition(&res, cfg.Symbol, open, price.Value, price.Timestamp, "EXIT_STOP")
				open = nil
			case price.Value >= open.takePrice:
				cash += closePosition(&res, cfg.Symbol, open, price.Value, price.Timestamp, "EXIT_PROFIT")
				open = nil
			}
		}

		switch sig.Signal {
		case SignalBuy:
			if open == nil {
				value := cash * allocation
				qty := value / price.Value
				if qty > 0 {
					open = &position{
						quantity:   qty,
						entryPrice: price.Value,
						stopPrice:  price.Value * (1 - cfg.StopLossPercent/100),
						takePrice:  price.Value * (1 + cfg.ProfitPercent/100),
					}
					cash -= qty * price.Value
					res.Orders = append(res.Orders, Order{
						Symbol:    cfg.Symbol,
						Side:      "BUY",
						Quantity:  qty,
						Price:     price.Value,
						Timestamp: price.Timestamp,
						Reason:    "ENTRY",
					})
				}
			}
		case SignalSell:
			if open != nil {
				cash += closePosition(&res, cfg.Symbol, open, price.Value, price.Timestamp, "EXIT_ZSCORE")
				open = nil
			}
		}

		equity := cash
		if open != nil {
			equity += open.quantity * price.Value
		}
		res.EquityCurve = append(res.EquityCurve, EquityPoint{Timestamp: price.Timestamp, Value: equity})

		sigIdx++
		priceIdx++
	}

	// Cierre forzado al final del run para que el equity sea realizable.
	if open != nil && lastPrice > 0 {
		cash += closePosition(&res, cfg.Symbol, open, lastPrice, lastTime, "EXIT_FINAL")
		open = nil
	}

	res.FinalEquity = cash
	return res, nil
}

// closePosition registra la orden SELL y devuelve el cash recuperado.
func closePosition(res *Result, symbol string, p *position, price float64, ts time.Time, reason string) float64 {
	proceeds := p.quantity * price
	pl := proceeds - p.quantity*p.entryPrice
	plPct := 0.0
	if p.entryPrice > 0 {
		plPct = (price - p.entryPrice) / p.entryPrice * 100
	}
	res.Orders = append(res.Orders, Order{
		Symbol:        symbol,
		Side:          "SELL",
		Quantity:      p.quantity,
		Price:         price,
		Timestamp:     ts,
		Reason:        reason,
		ProfitLoss:    pl,
		ProfitLossPct: plPct,
	})
	return proceeds
}

// closePrices extrae la serie de cierres del símbolo, ordenada por tiempo.
func closePrices(symbol string, klines []domain.Kline) []EquityPoint {
	out := make([]EquityPoint, 0, len(klines))
	for _, k := range klines {
		if k.Symbol != symbol {
			continue
		}
		out = append(out, EquityPoint{Timestamp: k.OpenTime, Value: k.Close})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out
}
