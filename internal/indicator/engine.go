package indicator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"TradePilot/internal/calculator"
	"TradePilot/internal/exchange"
	"TradePilot/internal/model"
)

// Indicator periods. MinCandles is the longest lookback among the
// sub-indicators (the MACD slow EMA).
const (
	MinCandles = 26

	fastTrendPeriod   = 9
	slowTrendPeriod   = 21
	macdFastPeriod    = 12
	macdSlowPeriod    = 26
	macdSignalPeriod  = 9
	rsiPeriod         = 14
	volumeLookback    = 10
	volumeSpikeFactor = 1.5

	fetchAttempts = 3
)

// ErrInsufficientData is returned when the candle window is too short to
// compute the full indicator set. Callers must not evaluate a signal from a
// partial window.
var ErrInsufficientData = errors.New("insufficient candle data")

// Engine fetches candle windows and computes the indicator set.
type Engine struct {
	Exchange   exchange.Exchange
	Interval   string
	Window     int
	RetryDelay time.Duration
}

// NewEngine creates an Engine with the default fetch retry delay.
func NewEngine(ex exchange.Exchange, interval string, window int) *Engine {
	return &Engine{
		Exchange:   ex,
		Interval:   interval,
		Window:     window,
		RetryDelay: 2 * time.Second,
	}
}

// Collect fetches the candle window for the instrument and computes all
// indicators. The fetch is retried up to 3 times with a fixed delay.
func (e *Engine) Collect(ctx context.Context, symbol string) (*model.IndicatorSet, error) {
	var bars []model.Candle
	var err error
	for attempt := 1; attempt <= fetchAttempts; attempt++ {
		bars, err = e.Exchange.FetchCandles(ctx, symbol, e.Interval, e.Window)
		if err == nil {
			break
		}
		log.Printf("[WARN] fetch candles for %s failed (attempt %d/%d): %v", symbol, attempt, fetchAttempts, err)
		if attempt < fetchAttempts {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(e.RetryDelay):
			}
		}
	}
	if err != nil {
		return nil, fmt.Errorf("fetch candles for %s: %w", symbol, err)
	}
	return Compute(bars)
}

// Compute builds an IndicatorSet from an ordered candle window
// (most-recent-last). It is a pure function of its input.
func Compute(bars []model.Candle) (*model.IndicatorSet, error) {
	if len(bars) < MinCandles {
		return nil, fmt.Errorf("%w: have %d candles, need %d", ErrInsufficientData, len(bars), MinCandles)
	}

	closes := calculator.Closes(bars)
	volumes := calculator.Volumes(bars)

	trendFast, err := calculator.EMA(closes, fastTrendPeriod)
	if err != nil {
		return nil, fmt.Errorf("trend fast: %w", err)
	}
	trendSlow, err := calculator.SMA(closes, slowTrendPeriod)
	if err != nil {
		return nil, fmt.Errorf("trend slow: %w", err)
	}
	momentum, momentumSignal, err := calculator.MACD(closes, macdFastPeriod, macdSlowPeriod, macdSignalPeriod)
	if err != nil {
		return nil, fmt.Errorf("momentum: %w", err)
	}
	rsi, err := calculator.RSI(closes, rsiPeriod)
	if err != nil {
		return nil, fmt.Errorf("rsi: %w", err)
	}
	vwap, err := calculator.VWAP(bars)
	if err != nil {
		return nil, fmt.Errorf("vwap: %w", err)
	}

	return &model.IndicatorSet{
		TrendFast:      trendFast,
		TrendSlow:      trendSlow,
		Momentum:       momentum,
		MomentumSignal: momentumSignal,
		RSI:            rsi,
		VWAP:           vwap,
		VolumeSpike:    calculator.VolumeSpike(volumes, volumeLookback, volumeSpikeFactor),
	}, nil
}
