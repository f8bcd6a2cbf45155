package model

// IndicatorSet holds all technical indicators computed from one candle window.
// It is a pure function of its input window; the most recent candle is the
// reference.
type IndicatorSet struct {
	TrendFast      float64 // EMA(9) of close
	TrendSlow      float64 // SMA(21) of close
	Momentum       float64 // MACD(12,26) line
	MomentumSignal float64 // MACD signal line, EMA(9) of the MACD line
	RSI            float64 // RSI(14), 0-100
	VWAP           float64 // volume-weighted average price over the window
	VolumeSpike    bool    // latest volume > 1.5x mean of the preceding 10
}
