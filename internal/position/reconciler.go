package position

import (
	"context"
	"fmt"
	"log"
	"time"

	"TradePilot/internal/exchange"
	"TradePilot/internal/model"
	"TradePilot/internal/notifier"
)

// Outcome describes how an existing position affects a new trade.
type Outcome int

const (
	OutcomeProceed Outcome = iota // no open position on the instrument
	OutcomeBlocked                // same-side position already open
	OutcomeCleared                // opposite-side position closed first
)

func (o Outcome) String() string {
	switch o {
	case OutcomeBlocked:
		return "blocked"
	case OutcomeCleared:
		return "cleared"
	default:
		return "proceed"
	}
}

// Notifier is the notification surface the reconciler needs.
type Notifier interface {
	Send(text string) error
}

// Reconciler inspects the account's open position on an instrument and
// decides whether a new trade may proceed.
type Reconciler struct {
	Exchange exchange.Exchange
	Notifier Notifier
	// SettleDelay is a brief wait after closing an opposite position. It is
	// not a guarantee of fill; position reads stay eventually consistent.
	SettleDelay time.Duration
}

// NewReconciler creates a Reconciler with the default settlement delay.
func NewReconciler(ex exchange.Exchange, n Notifier) *Reconciler {
	return &Reconciler{Exchange: ex, Notifier: n, SettleDelay: time.Second}
}

// Reconcile checks the instrument's open position against the proposed side.
// Same side blocks the trade; the opposite side is fully closed at market
// before clearing the trade to proceed.
func (r *Reconciler) Reconcile(ctx context.Context, symbol string, side model.Side) (Outcome, error) {
	pos, err := r.Exchange.FetchPosition(ctx, symbol)
	if err != nil {
		// A failed read usually means the instrument has never traded;
		// absence is the default, not an error.
		log.Printf("[INFO] no open position for %s: %v", symbol, err)
		return OutcomeProceed, nil
	}
	if pos == nil || pos.Size <= 0 {
		return OutcomeProceed, nil
	}

	if pos.Side == side {
		r.notify(notifier.FormatBlocked(pos))
		return OutcomeBlocked, nil
	}

	if err := r.Exchange.ClosePosition(ctx, symbol, pos.Side, pos.Size); err != nil {
		return OutcomeBlocked, fmt.Errorf("close %s position on %s: %w", pos.Side, symbol, err)
	}
	r.notify(notifier.FormatPositionClosed(pos))

	select {
	case <-ctx.Done():
		return OutcomeCleared, ctx.Err()
	case <-time.After(r.SettleDelay):
	}
	return OutcomeCleared, nil
}

func (r *Reconciler) notify(text string) {
	if err := r.Notifier.Send(text); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}
