package model

import "time"

// Side is the direction of an order or position.
type Side string

const (
	SideBuy  Side = "Buy"
	SideSell Side = "Sell"
)

// Opposite returns the side that closes a position held on s.
func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

// Signal is the outcome of one strategy evaluation.
type Signal int

const (
	SignalNone Signal = iota
	SignalLong
	SignalShort
)

func (s Signal) String() string {
	switch s {
	case SignalLong:
		return "long"
	case SignalShort:
		return "short"
	default:
		return "none"
	}
}

// Side maps a directional signal to the order side that opens it.
// SignalNone has no side.
func (s Signal) Side() (Side, bool) {
	switch s {
	case SignalLong:
		return SideBuy, true
	case SignalShort:
		return SideSell, true
	default:
		return "", false
	}
}

// Position is an open position on an instrument. At most one open position
// per instrument is assumed; it is owned by the exchange account.
type Position struct {
	Symbol string
	Side   Side
	Size   float64
}

// RiskParameters is process-wide sizing configuration, loaded once at startup.
type RiskParameters struct {
	RiskPerTrade    float64 // risk budget per trade in quote currency
	Leverage        float64
	RiskRewardRatio float64
}

// TradeProposal is a prospective order awaiting approval. It is consumed
// exactly once (executed or discarded) and never mutated after creation.
type TradeProposal struct {
	ID         string
	Symbol     string
	Side       Side
	EntryPrice float64
	StopLoss   float64
	TakeProfit float64
	Quantity   float64
	CreatedAt  time.Time
}

// OrderResult is the terminal record of a successful submission.
type OrderResult struct {
	OrderID     string
	Symbol      string
	Side        Side
	FilledPrice float64 // assumed execution price for reporting
	StopLoss    float64
	TakeProfit  float64
	Quantity    float64
}
