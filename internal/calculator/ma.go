package calculator

import (
	"errors"
	"math"

	"TradePilot/internal/model"
)

// SMA computes the simple moving average of the given prices over the specified period.
func SMA(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(prices) < period {
		return 0, errors.New("not enough data for SMA calculation")
	}
	sum := 0.0
	for i := len(prices) - period; i < len(prices); i++ {
		sum += prices[i]
	}
	return sum / float64(period), nil
}

// EMA computes the exponential moving average over the specified period and
// returns the final value. The first EMA is seeded with a simple average.
func EMA(prices []float64, period int) (float64, error) {
	series, err := emaSeries(prices, period)
	if err != nil {
		return 0, err
	}
	return series[len(series)-1], nil
}

// emaSeries returns the full EMA series aligned to prices. Indices before the
// first full window are NaN.
func emaSeries(prices []float64, period int) ([]float64, error) {
	if period <= 0 {
		return nil, errors.New("period must be positive")
	}
	if len(prices) < period {
		return nil, errors.New("not enough data for EMA calculation")
	}

	out := make([]float64, len(prices))
	multiplier := 2.0 / float64(period+1)

	sum := 0.0
	for i := 0; i < period; i++ {
		sum += prices[i]
	}
	out[period-1] = sum / float64(period)
	for i := 0; i < period-1; i++ {
		out[i] = math.NaN()
	}
	for i := period; i < len(prices); i++ {
		out[i] = (prices[i]-out[i-1])*multiplier + out[i-1]
	}
	return out, nil
}

// Closes extracts closing prices from bars.
func Closes(bars []model.Candle) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}

// Volumes extracts volumes from bars.
func Volumes(bars []model.Candle) []float64 {
	volumes := make([]float64, len(bars))
	for i, b := range bars {
		volumes[i] = b.Volume
	}
	return volumes
}
