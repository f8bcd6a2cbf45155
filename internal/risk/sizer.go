package risk

import (
	"context"
	"fmt"
	"log"
	"math"

	"TradePilot/internal/calculator"
	"TradePilot/internal/exchange"
	"TradePilot/internal/model"
)

const (
	atrPeriod      = 14
	atrCandleLimit = 20

	defaultLotPrecision = 3
	defaultMinQuantity  = 0.01
)

// Sizer converts the risk budget and market volatility into order quantities
// and bracket levels.
type Sizer struct {
	Exchange     exchange.Exchange
	Params       model.RiskParameters
	Interval     string
	RefSymbol    string // instrument whose candles seed the ATR; empty uses the traded one
	LotPrecision int
	MinQuantity  float64
}

// NewSizer creates a Sizer with default lot precision and fallback quantity.
func NewSizer(ex exchange.Exchange, params model.RiskParameters, interval, refSymbol string) *Sizer {
	return &Sizer{
		Exchange:     ex,
		Params:       params,
		Interval:     interval,
		RefSymbol:    refSymbol,
		LotPrecision: defaultLotPrecision,
		MinQuantity:  defaultMinQuantity,
	}
}

// PositionSize returns the order quantity for the given entry price. The
// account equity is read to bound exposure as a fraction of capital; when the
// read fails, sizing degrades to the fixed minimum quantity instead of
// aborting the pipeline.
func (s *Sizer) PositionSize(ctx context.Context, entryPrice float64) float64 {
	if entryPrice <= 0 {
		log.Printf("[WARN] non-positive entry price %.2f, degrading to minimum quantity %.4f", entryPrice, s.MinQuantity)
		return s.MinQuantity
	}

	equity, err := s.Exchange.FetchEquity(ctx)
	if err != nil || equity <= 0 {
		log.Printf("[WARN] equity read failed, degraded sizing to minimum quantity %.4f: %v", s.MinQuantity, err)
		return s.MinQuantity
	}
	log.Printf("[INFO] sizing: equity %.2f, risk fraction %.4f", equity, s.Params.RiskPerTrade/equity)

	qty := roundTo(s.Params.RiskPerTrade*s.Params.Leverage/entryPrice, s.LotPrecision)
	if qty <= 0 {
		return s.MinQuantity
	}
	return qty
}

// Brackets computes stop-loss and take-profit levels from recent volatility.
// The take-profit distance is always exactly twice the stop distance.
func (s *Sizer) Brackets(ctx context.Context, symbol string, side model.Side, price float64) (stopLoss, takeProfit float64, err error) {
	ref := s.RefSymbol
	if ref == "" {
		ref = symbol
	}
	bars, err := s.Exchange.FetchCandles(ctx, ref, s.Interval, atrCandleLimit)
	if err != nil {
		return 0, 0, fmt.Errorf("fetch reference candles for %s: %w", ref, err)
	}
	atr, err := calculator.ATR(bars, atrPeriod)
	if err != nil {
		return 0, 0, fmt.Errorf("compute atr: %w", err)
	}

	distance := atr / s.Params.RiskRewardRatio
	if side == model.SideBuy {
		return price - distance, price + 2*distance, nil
	}
	return price + distance, price - 2*distance, nil
}

func roundTo(v float64, precision int) float64 {
	p := math.Pow10(precision)
	return math.Round(v*p) / p
}
