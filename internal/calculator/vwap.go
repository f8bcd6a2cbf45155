package calculator

import (
	"errors"

	"TradePilot/internal/model"
)

// VWAP computes the volume-weighted average price over the window.
func VWAP(bars []model.Candle) (float64, error) {
	var weighted, volume float64
	for _, b := range bars {
		weighted += b.Close * b.Volume
		volume += b.Volume
	}
	if volume == 0 {
		return 0, errors.New("no volume in window")
	}
	return weighted / volume, nil
}

// VolumeSpike reports whether the most recent volume exceeds factor times the
// mean of the preceding lookback volumes. Returns false when the window is too
// short to compare.
func VolumeSpike(volumes []float64, lookback int, factor float64) bool {
	if lookback <= 0 || len(volumes) < lookback+1 {
		return false
	}
	recent := volumes[len(volumes)-1]
	sum := 0.0
	for _, v := range volumes[len(volumes)-1-lookback : len(volumes)-1] {
		sum += v
	}
	mean := sum / float64(lookback)
	return recent > mean*factor
}
