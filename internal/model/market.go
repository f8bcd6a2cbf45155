package model

import "time"

// Candle represents a single OHLCV bar. Immutable once received.
type Candle struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Tick is a single trade print delivered by the market feed.
type Tick struct {
	Symbol string
	Price  float64
}
