package recorder

import "TradePilot/internal/model"

// SignalRecord captures one evaluation cycle.
type SignalRecord struct {
	Symbol     string
	Price      float64
	Indicators *model.IndicatorSet
	Signal     model.Signal
}

// Proposal statuses recorded over a proposal's lifecycle.
const (
	ProposalSent     = "SENT"
	ProposalApproved = "APPROVED"
	ProposalExpired  = "EXPIRED"
)

// ProposalRecord captures a proposal lifecycle event.
type ProposalRecord struct {
	Proposal *model.TradeProposal
	Status   string
}

// Order sources distinguish signal-driven from webhook-driven submissions.
const (
	SourceSignal  = "SIGNAL"
	SourceWebhook = "WEBHOOK"
)

// OrderRecord captures a successful order submission.
type OrderRecord struct {
	Result *model.OrderResult
	Source string
}

// Recorder persists historical data for analysis.
type Recorder interface {
	RecordSignal(rec *SignalRecord) error
	RecordProposal(rec *ProposalRecord) error
	RecordOrder(rec *OrderRecord) error
	Close() error
}
