// Package executor serializes all trade triggers through a single worker and
// drives the evaluation, approval and submission pipeline.
package executor

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"TradePilot/internal/exchange"
	"TradePilot/internal/indicator"
	"TradePilot/internal/metrics"
	"TradePilot/internal/model"
	"TradePilot/internal/notifier"
	"TradePilot/internal/position"
	"TradePilot/internal/recorder"
	"TradePilot/internal/risk"
	"TradePilot/internal/strategy"

	"github.com/google/uuid"
)

const (
	triggerQueueSize = 16

	// callbackPrefix tags approval button payloads so unrelated callbacks
	// are ignored.
	callbackPrefix = "trade:"

	confirmButtonLabel = "✅ Confirm"

	// notifyRetries bounds the retrying send used for trade outcomes.
	notifyRetries = 3
)

// TriggerKind identifies the source of a pipeline trigger.
type TriggerKind int

const (
	TriggerTick TriggerKind = iota
	TriggerWebhook
	TriggerApproval
)

func (k TriggerKind) String() string {
	switch k {
	case TriggerWebhook:
		return "webhook"
	case TriggerApproval:
		return "approval"
	default:
		return "tick"
	}
}

// Trigger is one unit of work for the pipeline worker.
type Trigger struct {
	Kind   TriggerKind
	Symbol string
	Price  float64
	Side   model.Side

	proposal *model.TradeProposal
	done     chan error
}

// Notifier is the notification surface the coordinator needs. Trade outcomes
// go through the retrying send; informational messages use the plain one.
type Notifier interface {
	Send(text string) error
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
	SendProposal(text, buttonLabel, callbackData string) error
}

// Coordinator owns the trading pipeline. All triggers, whatever their source,
// are processed one at a time by a single worker so that position reads and
// order submissions never interleave.
type Coordinator struct {
	Exchange   exchange.Exchange
	Engine     *indicator.Engine
	Sizer      *risk.Sizer
	Reconciler *position.Reconciler
	Notifier   Notifier
	Recorder   recorder.Recorder
	Proposals  *ProposalStore
	Symbol     string

	triggers chan Trigger
}

// NewCoordinator wires the pipeline stages together.
func NewCoordinator(
	ex exchange.Exchange,
	engine *indicator.Engine,
	sizer *risk.Sizer,
	rec *position.Reconciler,
	n Notifier,
	store recorder.Recorder,
	proposals *ProposalStore,
	symbol string,
) *Coordinator {
	return &Coordinator{
		Exchange:   ex,
		Engine:     engine,
		Sizer:      sizer,
		Reconciler: rec,
		Notifier:   n,
		Recorder:   store,
		Proposals:  proposals,
		Symbol:     symbol,
		triggers:   make(chan Trigger, triggerQueueSize),
	}
}

// Run processes triggers until ctx is cancelled. It must be running for
// HandleTick, ExecuteWebhook and HandleApproval to make progress.
func (c *Coordinator) Run(ctx context.Context) {
	log.Println("[INFO] trade pipeline worker started")
	for {
		select {
		case <-ctx.Done():
			log.Println("[INFO] trade pipeline worker stopped")
			return
		case t := <-c.triggers:
			var err error
			switch t.Kind {
			case TriggerTick:
				err = c.processTick(ctx, t.Symbol, t.Price)
			case TriggerWebhook:
				err = c.processWebhook(ctx, t.Symbol, t.Side, t.Price)
				t.done <- err
			case TriggerApproval:
				err = c.processApproval(ctx, t.proposal)
			}
			if err != nil {
				log.Printf("[ERROR] %s trigger for %s: %v", t.Kind, t.Symbol, err)
			}
		}
	}
}

// HandleTick enqueues a market tick for evaluation. Ticks arriving while the
// worker is busy and the queue is full are dropped; the next tick carries a
// fresher price anyway.
func (c *Coordinator) HandleTick(tick model.Tick) {
	metrics.IncTick()
	c.enqueue(Trigger{Kind: TriggerTick, Symbol: tick.Symbol, Price: tick.Price})
}

// ExecuteWebhook runs an externally triggered trade through the pipeline and
// waits for the outcome. Evaluation and approval are skipped; reconciliation
// and sizing still apply.
func (c *Coordinator) ExecuteWebhook(ctx context.Context, symbol string, side model.Side, price float64) error {
	t := Trigger{
		Kind:   TriggerWebhook,
		Symbol: symbol,
		Price:  price,
		Side:   side,
		done:   make(chan error, 1),
	}
	select {
	case c.triggers <- t:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-t.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// HandleApproval consumes an approval button press. The payload must carry
// the trade callback prefix; anything else is ignored.
func (c *Coordinator) HandleApproval(data string) {
	if !strings.HasPrefix(data, callbackPrefix) {
		log.Printf("[WARN] ignoring unknown callback payload: %s", data)
		return
	}
	id := strings.TrimPrefix(data, callbackPrefix)
	p := c.Proposals.Take(id)
	if p == nil {
		log.Printf("[WARN] approval for unknown or expired proposal %s", id)
		c.notify("⌛ That proposal is no longer available")
		return
	}
	metrics.IncProposal("approved")
	c.record(func() error {
		return c.Recorder.RecordProposal(&recorder.ProposalRecord{Proposal: p, Status: recorder.ProposalApproved})
	})
	if !c.enqueue(Trigger{Kind: TriggerApproval, Symbol: p.Symbol, proposal: p}) {
		// The operator confirmed this trade; a silent drop is not acceptable.
		c.Proposals.Put(p)
		c.notify("⚠️ Engine busy, approval not processed. Press Confirm again")
	}
}

// SweepExpiredProposals drops proposals past their TTL and reports each one.
// Intended to run on a schedule.
func (c *Coordinator) SweepExpiredProposals() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	for _, p := range c.Proposals.Sweep() {
		log.Printf("[INFO] proposal %s expired unapproved", p.ID)
		metrics.IncProposal("expired")
		c.record(func() error {
			return c.Recorder.RecordProposal(&recorder.ProposalRecord{Proposal: p, Status: recorder.ProposalExpired})
		})
		c.notifyCritical(ctx, notifier.FormatProposalExpired(p))
	}
}

// ReportStatus summarizes account equity, pending approvals and the current
// trend bias.
func (c *Coordinator) ReportStatus(ctx context.Context) string {
	equity, err := c.Exchange.FetchEquity(ctx)
	degraded := err != nil
	if err != nil {
		log.Printf("[WARN] status equity read failed: %v", err)
	} else {
		metrics.SetEquity(equity)
	}
	status := notifier.FormatStatus(equity, c.Proposals.Pending(), degraded)
	if ind, err := c.Engine.Collect(ctx, c.Symbol); err == nil {
		status += fmt.Sprintf("\nBias on %s: %s", c.Symbol, strategy.Bias(ind))
	}
	return status
}

// HandleCommand responds to Telegram commands.
func (c *Coordinator) HandleCommand(command string) string {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch command {
	case "/status":
		return c.ReportStatus(ctx)
	case "/pending":
		return fmt.Sprintf("Pending proposals: %d", c.Proposals.Pending())
	default:
		return "Commands:\n/status - equity, pending approvals and trend bias\n/pending - pending approval count"
	}
}

func (c *Coordinator) processTick(ctx context.Context, symbol string, price float64) error {
	ind, err := c.Engine.Collect(ctx, symbol)
	if err != nil {
		return fmt.Errorf("collect indicators: %w", err)
	}

	sig := strategy.Evaluate(ind)
	metrics.IncSignal(sig.String())
	c.record(func() error {
		return c.Recorder.RecordSignal(&recorder.SignalRecord{
			Symbol:     symbol,
			Price:      price,
			Indicators: ind,
			Signal:     sig,
		})
	})

	side, ok := sig.Side()
	if !ok {
		return nil
	}
	log.Printf("[INFO] %s signal on %s at %.2f", sig, symbol, price)

	outcome, err := c.Reconciler.Reconcile(ctx, symbol, side)
	if err != nil {
		return fmt.Errorf("reconcile position: %w", err)
	}
	if outcome == position.OutcomeBlocked {
		return nil
	}

	p, err := c.buildProposal(ctx, symbol, side, price)
	if err != nil {
		return err
	}

	if !c.Proposals.Put(p) {
		log.Printf("[WARN] proposal store full, dropping %s proposal on %s", side, symbol)
		c.notify("⚠️ Too many pending proposals, new opportunity dropped")
		return nil
	}
	metrics.IncProposal("sent")
	c.record(func() error {
		return c.Recorder.RecordProposal(&recorder.ProposalRecord{Proposal: p, Status: recorder.ProposalSent})
	})

	if err := c.Notifier.SendProposal(notifier.FormatProposal(p), confirmButtonLabel, callbackPrefix+p.ID); err != nil {
		// An unsent proposal can never be approved, take it back out.
		c.Proposals.Take(p.ID)
		return fmt.Errorf("send proposal: %w", err)
	}
	return nil
}

func (c *Coordinator) processWebhook(ctx context.Context, symbol string, side model.Side, price float64) error {
	outcome, err := c.Reconciler.Reconcile(ctx, symbol, side)
	if err != nil {
		return fmt.Errorf("reconcile position: %w", err)
	}
	if outcome == position.OutcomeBlocked {
		return fmt.Errorf("existing %s position on %s blocks the trade", side, symbol)
	}

	p, err := c.buildProposal(ctx, symbol, side, price)
	if err != nil {
		return err
	}
	return c.submit(ctx, p, recorder.SourceWebhook)
}

func (c *Coordinator) processApproval(ctx context.Context, p *model.TradeProposal) error {
	return c.submit(ctx, p, recorder.SourceSignal)
}

func (c *Coordinator) buildProposal(ctx context.Context, symbol string, side model.Side, price float64) (*model.TradeProposal, error) {
	stopLoss, takeProfit, err := c.Sizer.Brackets(ctx, symbol, side, price)
	if err != nil {
		return nil, fmt.Errorf("compute brackets: %w", err)
	}
	qty := c.Sizer.PositionSize(ctx, price)
	return &model.TradeProposal{
		ID:         uuid.NewString(),
		Symbol:     symbol,
		Side:       side,
		EntryPrice: price,
		StopLoss:   stopLoss,
		TakeProfit: takeProfit,
		Quantity:   qty,
		CreatedAt:  time.Now(),
	}, nil
}

func (c *Coordinator) submit(ctx context.Context, p *model.TradeProposal, source string) error {
	res, err := c.Exchange.SubmitMarketOrder(ctx, exchange.OrderRequest{
		Symbol:     p.Symbol,
		Side:       p.Side,
		Quantity:   p.Quantity,
		StopLoss:   p.StopLoss,
		TakeProfit: p.TakeProfit,
		Leverage:   c.Sizer.Params.Leverage,
		EntryPrice: p.EntryPrice,
	})
	if err != nil {
		metrics.IncOrder(string(p.Side), "error")
		c.notifyCritical(ctx, notifier.FormatSubmitFailure(p, err))
		return fmt.Errorf("submit %s order on %s: %w", p.Side, p.Symbol, err)
	}
	log.Printf("[INFO] order %s submitted: %s %g %s", res.OrderID, res.Side, res.Quantity, res.Symbol)
	metrics.IncOrder(string(p.Side), "ok")
	c.record(func() error {
		return c.Recorder.RecordOrder(&recorder.OrderRecord{Result: res, Source: source})
	})
	c.notifyCritical(ctx, notifier.FormatOrderResult(res))
	return nil
}

func (c *Coordinator) enqueue(t Trigger) bool {
	select {
	case c.triggers <- t:
		return true
	default:
		log.Printf("[WARN] trigger queue full, dropping %s trigger for %s", t.Kind, t.Symbol)
		return false
	}
}

func (c *Coordinator) notify(text string) {
	if err := c.Notifier.Send(text); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}

// notifyCritical delivers a trade outcome with retries; losing one of these
// messages leaves the operator blind to an executed or failed order.
func (c *Coordinator) notifyCritical(ctx context.Context, text string) {
	if err := c.Notifier.SendWithRetry(ctx, text, notifyRetries); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}

func (c *Coordinator) record(fn func() error) {
	if err := fn(); err != nil {
		log.Printf("[ERROR] record history: %v", err)
	}
}
