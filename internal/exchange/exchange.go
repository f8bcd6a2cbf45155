package exchange

import (
	"context"

	"TradePilot/internal/model"
)

// OrderRequest contains the parameters for a market order with bracket levels.
type OrderRequest struct {
	Symbol     string
	Side       model.Side
	Quantity   float64
	StopLoss   float64
	TakeProfit float64
	Leverage   float64
	EntryPrice float64 // assumed execution price, used for reporting only
}

// Exchange defines the operations the engine consumes from the trading venue.
type Exchange interface {
	FetchCandles(ctx context.Context, symbol, interval string, limit int) ([]model.Candle, error)
	FetchEquity(ctx context.Context) (float64, error)
	// FetchPosition returns the open position for the instrument, or nil when
	// the account is flat.
	FetchPosition(ctx context.Context, symbol string) (*model.Position, error)
	SubmitMarketOrder(ctx context.Context, req OrderRequest) (*model.OrderResult, error)
	ClosePosition(ctx context.Context, symbol string, side model.Side, quantity float64) error
	Name() string
}
