package calculator

import (
	"errors"
	"math"

	"TradePilot/internal/model"
)

// ATR computes the Wilder-smoothed Average True Range over the given period.
// Requires at least period+1 bars.
func ATR(bars []model.Candle, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(bars) < period+1 {
		return 0, errors.New("not enough data for ATR calculation")
	}

	trs := make([]float64, 0, len(bars)-1)
	for i := 1; i < len(bars); i++ {
		h, l, prevClose := bars[i].High, bars[i].Low, bars[i-1].Close
		tr := h - l
		if v := math.Abs(h - prevClose); v > tr {
			tr = v
		}
		if v := math.Abs(l - prevClose); v > tr {
			tr = v
		}
		trs = append(trs, tr)
	}

	atr := 0.0
	for i := 0; i < period; i++ {
		atr += trs[i]
	}
	atr /= float64(period)
	for i := period; i < len(trs); i++ {
		atr = (atr*float64(period-1) + trs[i]) / float64(period)
	}
	return atr, nil
}
