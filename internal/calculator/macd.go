package calculator

import "errors"

// MACD computes the fast/slow EMA-difference oscillator and its smoothing
// signal line, returning the most recent value of each.
// The signal line is an EMA of the MACD line seeded from its first value, so
// any window of at least slowPeriod prices yields a defined pair.
func MACD(prices []float64, fastPeriod, slowPeriod, signalPeriod int) (macd, signal float64, err error) {
	if fastPeriod <= 0 || slowPeriod <= 0 || signalPeriod <= 0 {
		return 0, 0, errors.New("periods must be positive")
	}
	if fastPeriod >= slowPeriod {
		return 0, 0, errors.New("fast period must be smaller than slow period")
	}
	if len(prices) < slowPeriod {
		return 0, 0, errors.New("not enough data for MACD calculation")
	}

	fast, err := emaSeries(prices, fastPeriod)
	if err != nil {
		return 0, 0, err
	}
	slow, err := emaSeries(prices, slowPeriod)
	if err != nil {
		return 0, 0, err
	}

	line := make([]float64, 0, len(prices)-slowPeriod+1)
	for i := slowPeriod - 1; i < len(prices); i++ {
		line = append(line, fast[i]-slow[i])
	}

	multiplier := 2.0 / float64(signalPeriod+1)
	signal = line[0]
	for i := 1; i < len(line); i++ {
		signal = (line[i]-signal)*multiplier + signal
	}
	return line[len(line)-1], signal, nil
}
