package domain

import "time"

// Kline es una vela OHLCV de un símbolo en un intervalo dado.
type Kline struct {
	Symbol         string
	OpenTime       time.Time
	CloseTime      time.Time
	Open           float64
	High           float64
	Low            float64
	Close          float64
	Volume         float64
	QuoteVolume    float64
	Trades         int
	TakerBuyBase   float64 // volumen base comprado por takers
	TakerBuyQuote  float64
}

// PriceChange devuelve el retorno fraccional open→close.
// Devuelve 0 si Open no es positivo.
func (k Kline) PriceChange() float64 {
	if k.Open <= 0 {
		return 0
	}
	return (k.Close - k.Open) / k.Open
}

// TakerSellVolume devuelve el volumen base vendido por takers.
func (k Kline) TakerSellVolume() float64 {
	return k.Volume - k.TakerBuyBase
}
