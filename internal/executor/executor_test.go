package executor

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"TradePilot/internal/exchange"
	"TradePilot/internal/indicator"
	"TradePilot/internal/model"
	"TradePilot/internal/position"
	"TradePilot/internal/recorder"
	"TradePilot/internal/risk"
)

type fakeNotifier struct {
	sent        []string
	critical    []string
	callbacks   []string
	sendErr     error
	proposalErr error
}

func (f *fakeNotifier) Send(text string) error {
	f.sent = append(f.sent, text)
	return f.sendErr
}

func (f *fakeNotifier) SendWithRetry(_ context.Context, text string, _ int) error {
	f.critical = append(f.critical, text)
	return f.sendErr
}

func (f *fakeNotifier) SendProposal(text, buttonLabel, callbackData string) error {
	if f.proposalErr != nil {
		return f.proposalErr
	}
	f.callbacks = append(f.callbacks, callbackData)
	return nil
}

// uptrendCandles builds a window that satisfies the long entry rule: a flat
// base followed by a zigzag climb, so the fast trend leads the slow one and
// momentum leads its signal line while the RSI stays off the overbought gate,
// finished with a volume spike.
func uptrendCandles() []model.Candle {
	bars := make([]model.Candle, 64)
	price := 1000.0
	for i := range bars {
		if i >= 34 {
			if i%2 == 1 {
				price += 10
			} else {
				price -= 6
			}
		}
		bars[i] = model.Candle{Open: price - 2, High: price + 5, Low: price - 5, Close: price, Volume: 100}
	}
	bars[len(bars)-1].Volume = 300
	return bars
}

func newTestCoordinator(mock *exchange.Mock) (*Coordinator, *fakeNotifier) {
	n := &fakeNotifier{}
	engine := &indicator.Engine{Exchange: mock, Interval: "15", Window: 200, RetryDelay: 0}
	params := model.RiskParameters{RiskPerTrade: 100, Leverage: 5, RiskRewardRatio: 0.33}
	sizer := risk.NewSizer(mock, params, "15", "")
	rec := &position.Reconciler{Exchange: mock, Notifier: n, SettleDelay: 0}
	c := NewCoordinator(mock, engine, sizer, rec, n, recorder.NewNoopRecorder(),
		NewProposalStore(time.Minute, 8), "BTCUSDT")
	return c, n
}

func TestProcessTick_LongSignalCreatesProposal(t *testing.T) {
	mock := &exchange.Mock{Candles: uptrendCandles(), Equity: 10000}
	c, n := newTestCoordinator(mock)

	if err := c.processTick(context.Background(), "BTCUSDT", 1060); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := c.Proposals.Pending(); got != 1 {
		t.Fatalf("expected 1 pending proposal, got %d", got)
	}
	if len(n.callbacks) != 1 || !strings.HasPrefix(n.callbacks[0], callbackPrefix) {
		t.Fatalf("expected one approval message with %q payload, got %v", callbackPrefix, n.callbacks)
	}
	if len(mock.SubmittedOrders) != 0 {
		t.Errorf("expected no order before approval, got %d", len(mock.SubmittedOrders))
	}

	id := strings.TrimPrefix(n.callbacks[0], callbackPrefix)
	p := c.Proposals.Take(id)
	if p == nil {
		t.Fatal("expected stored proposal for the sent callback id")
	}
	if p.Side != model.SideBuy {
		t.Errorf("expected Buy proposal, got %s", p.Side)
	}
	// qty = 100 * 5 / 1060 rounded to 3 decimals
	if p.Quantity != 0.472 {
		t.Errorf("expected quantity 0.472, got %g", p.Quantity)
	}
	if p.StopLoss >= p.EntryPrice || p.TakeProfit <= p.EntryPrice {
		t.Errorf("expected brackets to straddle entry: sl=%f entry=%f tp=%f", p.StopLoss, p.EntryPrice, p.TakeProfit)
	}
}

func TestProcessTick_NoSignalNoProposal(t *testing.T) {
	// Constant closes: no trend edge, no spike.
	mock := &exchange.Mock{Candles: exchange.GenerateCandles(50000, 60), Equity: 10000}
	c, n := newTestCoordinator(mock)

	if err := c.processTick(context.Background(), "BTCUSDT", 50000); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := c.Proposals.Pending(); got != 0 {
		t.Errorf("expected no proposal, got %d pending", got)
	}
	if len(n.callbacks) != 0 {
		t.Errorf("expected no approval message, got %v", n.callbacks)
	}
}

func TestProcessTick_SameSidePositionBlocks(t *testing.T) {
	mock := &exchange.Mock{
		Candles:  uptrendCandles(),
		Equity:   10000,
		Position: &model.Position{Symbol: "BTCUSDT", Side: model.SideBuy, Size: 1.0},
	}
	c, n := newTestCoordinator(mock)

	if err := c.processTick(context.Background(), "BTCUSDT", 1060); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := c.Proposals.Pending(); got != 0 {
		t.Errorf("expected blocked trade to leave no proposal, got %d", got)
	}
	if len(mock.SubmittedOrders) != 0 || len(mock.ClosedPositions) != 0 {
		t.Error("expected no exchange writes for a blocked trade")
	}
	if len(n.sent) == 0 {
		t.Error("expected a blocked notification")
	}
}

func TestProcessTick_ProposalSendFailureRollsBack(t *testing.T) {
	mock := &exchange.Mock{Candles: uptrendCandles(), Equity: 10000}
	c, n := newTestCoordinator(mock)
	n.proposalErr = errors.New("telegram down")

	if err := c.processTick(context.Background(), "BTCUSDT", 1060); err == nil {
		t.Fatal("expected error when the approval message cannot be sent")
	}
	if got := c.Proposals.Pending(); got != 0 {
		t.Errorf("expected unsent proposal removed from store, got %d pending", got)
	}
}

func TestProcessWebhook_SubmitsWithoutApproval(t *testing.T) {
	mock := &exchange.Mock{Candles: exchange.GenerateCandles(2000, 40), Equity: 10000}
	c, _ := newTestCoordinator(mock)

	if err := c.processWebhook(context.Background(), "ETHUSDT", model.SideSell, 2000); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(mock.SubmittedOrders) != 1 {
		t.Fatalf("expected 1 submitted order, got %d", len(mock.SubmittedOrders))
	}
	req := mock.SubmittedOrders[0]
	if req.Symbol != "ETHUSDT" || req.Side != model.SideSell {
		t.Errorf("unexpected order %+v", req)
	}
	// qty = 100 * 5 / 2000
	if req.Quantity != 0.25 {
		t.Errorf("expected quantity 0.25, got %g", req.Quantity)
	}
	if req.StopLoss <= 2000 || req.TakeProfit >= 2000 {
		t.Errorf("expected short brackets around 2000: sl=%f tp=%f", req.StopLoss, req.TakeProfit)
	}
	if got := c.Proposals.Pending(); got != 0 {
		t.Errorf("expected no pending proposal for webhook flow, got %d", got)
	}
}

func TestProcessWebhook_OppositePositionClosedFirst(t *testing.T) {
	mock := &exchange.Mock{
		Candles:  exchange.GenerateCandles(50000, 40),
		Equity:   10000,
		Position: &model.Position{Symbol: "BTCUSDT", Side: model.SideSell, Size: 0.5},
	}
	c, _ := newTestCoordinator(mock)

	if err := c.processWebhook(context.Background(), "BTCUSDT", model.SideBuy, 50000); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(mock.ClosedPositions) != 1 {
		t.Fatalf("expected 1 close, got %d", len(mock.ClosedPositions))
	}
	closed := mock.ClosedPositions[0]
	if closed.Side != model.SideSell || closed.Quantity != 0.5 {
		t.Errorf("expected full close of the Sell 0.5 position, got %+v", closed)
	}
	if len(mock.SubmittedOrders) != 1 {
		t.Errorf("expected new order after the close, got %d", len(mock.SubmittedOrders))
	}
}

func TestProcessWebhook_SameSideBlockedIsError(t *testing.T) {
	mock := &exchange.Mock{
		Candles:  exchange.GenerateCandles(50000, 40),
		Equity:   10000,
		Position: &model.Position{Symbol: "BTCUSDT", Side: model.SideBuy, Size: 1.0},
	}
	c, _ := newTestCoordinator(mock)

	if err := c.processWebhook(context.Background(), "BTCUSDT", model.SideBuy, 50000); err == nil {
		t.Fatal("expected blocked webhook trade to surface an error")
	}
	if len(mock.SubmittedOrders) != 0 {
		t.Errorf("expected no order for a blocked trade, got %d", len(mock.SubmittedOrders))
	}
}

func TestHandleApproval_SubmitsStoredProposal(t *testing.T) {
	mock := &exchange.Mock{Candles: exchange.GenerateCandles(50000, 40), Equity: 10000}
	c, _ := newTestCoordinator(mock)

	p := newProposal("abc", 0)
	c.Proposals.Put(p)

	c.HandleApproval(callbackPrefix + "abc")
	if len(c.triggers) != 1 {
		t.Fatalf("expected 1 queued trigger, got %d", len(c.triggers))
	}
	tr := <-c.triggers
	if tr.Kind != TriggerApproval || tr.proposal != p {
		t.Fatalf("unexpected trigger %+v", tr)
	}
	if err := c.processApproval(context.Background(), tr.proposal); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(mock.SubmittedOrders) != 1 {
		t.Fatalf("expected 1 submitted order, got %d", len(mock.SubmittedOrders))
	}
	if mock.SubmittedOrders[0].Quantity != p.Quantity {
		t.Errorf("expected submitted quantity %g, got %g", p.Quantity, mock.SubmittedOrders[0].Quantity)
	}

	// A second press of the same button must not trade again.
	c.HandleApproval(callbackPrefix + "abc")
	if len(c.triggers) != 0 {
		t.Error("expected repeated approval to be ignored")
	}
}

func TestHandleApproval_IgnoresForeignPayload(t *testing.T) {
	mock := &exchange.Mock{}
	c, _ := newTestCoordinator(mock)

	c.HandleApproval("settings:noop")
	if len(c.triggers) != 0 {
		t.Error("expected payload without the trade prefix to be ignored")
	}
}

func TestSubmitFailure_Notifies(t *testing.T) {
	mock := &exchange.Mock{SubmitErr: errors.New("insufficient margin")}
	c, n := newTestCoordinator(mock)

	err := c.submit(context.Background(), newProposal("x", 0), recorder.SourceSignal)
	if err == nil {
		t.Fatal("expected submission error")
	}
	if len(n.critical) != 1 || !strings.Contains(n.critical[0], "failed") {
		t.Errorf("expected a retried failure notification, got %v", n.critical)
	}
}

func TestSubmitSuccess_NotifiesWithRetry(t *testing.T) {
	mock := &exchange.Mock{}
	c, n := newTestCoordinator(mock)

	if err := c.submit(context.Background(), newProposal("x", 0), recorder.SourceSignal); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(n.critical) != 1 || !strings.Contains(n.critical[0], "Order executed") {
		t.Errorf("expected the order result to use the retrying send, got %v", n.critical)
	}
	if len(n.sent) != 0 {
		t.Errorf("expected no plain sends for the order result, got %v", n.sent)
	}
}

func TestSweepExpiredProposals(t *testing.T) {
	mock := &exchange.Mock{}
	c, n := newTestCoordinator(mock)

	c.Proposals.Put(newProposal("stale", 2*time.Minute))
	c.Proposals.Put(newProposal("fresh", 0))

	c.SweepExpiredProposals()
	if got := c.Proposals.Pending(); got != 1 {
		t.Errorf("expected only the fresh proposal to remain, got %d", got)
	}
	if len(n.critical) != 1 {
		t.Errorf("expected one expiry notification, got %v", n.critical)
	}
}

func TestHandleApproval_FullQueueRestoresProposal(t *testing.T) {
	mock := &exchange.Mock{}
	c, n := newTestCoordinator(mock)

	p := newProposal("busy", 0)
	c.Proposals.Put(p)

	// Saturate the trigger queue so the approval cannot be enqueued.
	for i := 0; i < cap(c.triggers); i++ {
		c.triggers <- Trigger{Kind: TriggerTick, Symbol: "BTCUSDT"}
	}

	c.HandleApproval(callbackPrefix + "busy")
	if got := c.Proposals.Pending(); got != 1 {
		t.Errorf("expected proposal restored for a retry, got %d pending", got)
	}
	if len(n.sent) != 1 {
		t.Errorf("expected the operator to be told the approval was not processed, got %v", n.sent)
	}
	if c.Proposals.Take("busy") == nil {
		t.Error("expected the restored proposal to be approvable again")
	}
}
