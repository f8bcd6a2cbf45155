package exchange

import (
	"context"
	"time"

	"TradePilot/internal/model"
)

// CloseCall records one ClosePosition invocation on the mock.
type CloseCall struct {
	Symbol   string
	Side     model.Side
	Quantity float64
}

// Mock is a controllable in-memory Exchange for development and testing.
type Mock struct {
	Price       float64
	Candles     []model.Candle
	CandlesErr  error
	Equity      float64
	EquityErr   error
	Position    *model.Position
	PositionErr error
	SubmitErr   error
	CloseErr    error
	OrderID     string

	CandleCalls     int
	SubmittedOrders []OrderRequest
	ClosedPositions []CloseCall
}

func (m *Mock) Name() string { return "mock" }

func (m *Mock) FetchCandles(_ context.Context, _, _ string, limit int) ([]model.Candle, error) {
	m.CandleCalls++
	if m.CandlesErr != nil {
		return nil, m.CandlesErr
	}
	if m.Candles != nil {
		return m.Candles, nil
	}
	return GenerateCandles(m.Price, limit), nil
}

func (m *Mock) FetchEquity(_ context.Context) (float64, error) {
	if m.EquityErr != nil {
		return 0, m.EquityErr
	}
	return m.Equity, nil
}

func (m *Mock) FetchPosition(_ context.Context, _ string) (*model.Position, error) {
	if m.PositionErr != nil {
		return nil, m.PositionErr
	}
	return m.Position, nil
}

func (m *Mock) SubmitMarketOrder(_ context.Context, req OrderRequest) (*model.OrderResult, error) {
	if m.SubmitErr != nil {
		return nil, m.SubmitErr
	}
	m.SubmittedOrders = append(m.SubmittedOrders, req)
	orderID := m.OrderID
	if orderID == "" {
		orderID = "mock-order-1"
	}
	return &model.OrderResult{
		OrderID:     orderID,
		Symbol:      req.Symbol,
		Side:        req.Side,
		FilledPrice: req.EntryPrice,
		StopLoss:    req.StopLoss,
		TakeProfit:  req.TakeProfit,
		Quantity:    req.Quantity,
	}, nil
}

func (m *Mock) ClosePosition(_ context.Context, symbol string, side model.Side, quantity float64) error {
	if m.CloseErr != nil {
		return m.CloseErr
	}
	m.ClosedPositions = append(m.ClosedPositions, CloseCall{Symbol: symbol, Side: side, Quantity: quantity})
	return nil
}

// GenerateCandles builds a mildly trending candle window around basePrice for
// development and testing.
func GenerateCandles(basePrice float64, count int) []model.Candle {
	bars := make([]model.Candle, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001)
		bars[i] = model.Candle{
			Time:   time.Now().Add(-time.Duration(count-i) * 15 * time.Minute),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		}
	}
	return bars
}
