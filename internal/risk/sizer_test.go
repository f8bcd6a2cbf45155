package risk

import (
	"context"
	"errors"
	"math"
	"testing"

	"TradePilot/internal/exchange"
	"TradePilot/internal/model"
)

func testParams() model.RiskParameters {
	return model.RiskParameters{
		RiskPerTrade:    100,
		Leverage:        5,
		RiskRewardRatio: 0.33,
	}
}

func TestPositionSize(t *testing.T) {
	mock := &exchange.Mock{Equity: 10000}
	sizer := NewSizer(mock, testParams(), "15", "")

	// 100 * 5 / 50000 = 0.01
	got := sizer.PositionSize(context.Background(), 50000)
	if math.Abs(got-0.01) > 1e-9 {
		t.Errorf("expected quantity 0.01, got %f", got)
	}

	// 100 * 5 / 400 = 1.25
	got = sizer.PositionSize(context.Background(), 400)
	if math.Abs(got-1.25) > 1e-9 {
		t.Errorf("expected quantity 1.25, got %f", got)
	}
}

func TestPositionSize_FallbackOnEquityFailure(t *testing.T) {
	mock := &exchange.Mock{EquityErr: errors.New("timeout")}
	sizer := NewSizer(mock, testParams(), "15", "")

	got := sizer.PositionSize(context.Background(), 50000)
	if got != sizer.MinQuantity {
		t.Errorf("expected fallback quantity %f, got %f", sizer.MinQuantity, got)
	}
	if got <= 0 {
		t.Error("quantity must stay positive on degraded sizing")
	}
}

func TestPositionSize_NeverZero(t *testing.T) {
	mock := &exchange.Mock{Equity: 10000}
	sizer := NewSizer(mock, testParams(), "15", "")

	// So small it rounds to zero at lot precision; falls back to the minimum.
	got := sizer.PositionSize(context.Background(), 10000000)
	if got != sizer.MinQuantity {
		t.Errorf("expected minimum quantity %f, got %f", sizer.MinQuantity, got)
	}
}

func atrBars(close, span float64, count int) []model.Candle {
	bars := make([]model.Candle, count)
	for i := range bars {
		bars[i] = model.Candle{
			Open:   close,
			High:   close + span/2,
			Low:    close - span/2,
			Close:  close,
			Volume: 100,
		}
	}
	return bars
}

func TestBrackets_Long(t *testing.T) {
	// Constant true range of 30 gives ATR 30; distance = 30/0.33.
	mock := &exchange.Mock{Candles: atrBars(2000, 30, 20)}
	sizer := NewSizer(mock, testParams(), "15", "")

	sl, tp, err := sizer.Brackets(context.Background(), "BTCUSDT", model.SideBuy, 2000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !(sl < 2000 && 2000 < tp) {
		t.Errorf("expected brackets to straddle entry, got sl=%f tp=%f", sl, tp)
	}
	stopDist := 2000 - sl
	profitDist := tp - 2000
	if math.Abs(profitDist-2*stopDist) > 1e-6 {
		t.Errorf("expected profit distance 2x stop distance, got stop=%f profit=%f", stopDist, profitDist)
	}
	wantDist := 30 / 0.33
	if math.Abs(stopDist-wantDist) > 1e-6 {
		t.Errorf("expected stop distance %f, got %f", wantDist, stopDist)
	}
}

func TestBrackets_Short(t *testing.T) {
	mock := &exchange.Mock{Candles: atrBars(2000, 30, 20)}
	sizer := NewSizer(mock, testParams(), "15", "")

	sl, tp, err := sizer.Brackets(context.Background(), "ETHUSDT", model.SideSell, 2000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !(tp < 2000 && 2000 < sl) {
		t.Errorf("expected mirrored brackets for short, got sl=%f tp=%f", sl, tp)
	}
	stopDist := sl - 2000
	profitDist := 2000 - tp
	if math.Abs(profitDist-2*stopDist) > 1e-6 {
		t.Errorf("expected profit distance 2x stop distance, got stop=%f profit=%f", stopDist, profitDist)
	}
}

func TestBrackets_FetchError(t *testing.T) {
	mock := &exchange.Mock{CandlesErr: errors.New("boom")}
	sizer := NewSizer(mock, testParams(), "15", "")

	if _, _, err := sizer.Brackets(context.Background(), "BTCUSDT", model.SideBuy, 2000); err == nil {
		t.Fatal("expected error when reference candles cannot be fetched")
	}
}
