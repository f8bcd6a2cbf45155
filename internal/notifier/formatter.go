package notifier

import (
	"fmt"
	"strings"

	"TradePilot/internal/model"

	"github.com/dustin/go-humanize"
)

func sideEmoji(side model.Side) string {
	if side == model.SideBuy {
		return "📈"
	}
	return "📉"
}

func fmtPrice(v float64) string {
	return humanize.CommafWithDigits(v, 2)
}

// FormatProposal formats a pending trade proposal for the approval message.
func FormatProposal(p *model.TradeProposal) string {
	direction := "Long"
	if p.Side == model.SideSell {
		direction = "Short"
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s <b>%s opportunity on %s</b>\n\n", sideEmoji(p.Side), direction, p.Symbol))
	b.WriteString(fmt.Sprintf("Price: %s\n", fmtPrice(p.EntryPrice)))
	b.WriteString(fmt.Sprintf("TP: %s\n", fmtPrice(p.TakeProfit)))
	b.WriteString(fmt.Sprintf("SL: %s\n", fmtPrice(p.StopLoss)))
	b.WriteString(fmt.Sprintf("Size: %g", p.Quantity))
	return b.String()
}

// FormatOrderResult formats a successful submission for notification.
func FormatOrderResult(res *model.OrderResult) string {
	var b strings.Builder
	b.WriteString("📢 <b>Order executed</b>\n\n")
	b.WriteString(fmt.Sprintf("📊 %s\n", res.Symbol))
	b.WriteString(fmt.Sprintf("🔹 %s\n", res.Side))
	b.WriteString(fmt.Sprintf("💰 Price: %s\n", fmtPrice(res.FilledPrice)))
	b.WriteString(fmt.Sprintf("🎯 TP: %s\n", fmtPrice(res.TakeProfit)))
	b.WriteString(fmt.Sprintf("🛑 SL: %s\n", fmtPrice(res.StopLoss)))
	b.WriteString(fmt.Sprintf("✅ ID: %s", res.OrderID))
	return b.String()
}

// FormatBlocked explains why a trade was suppressed by an existing position.
func FormatBlocked(pos *model.Position) string {
	return fmt.Sprintf("⚠️ A %s position of %g is already open on %s, new trade suppressed", pos.Side, pos.Size, pos.Symbol)
}

// FormatPositionClosed reports a position closed to clear the way for a new trade.
func FormatPositionClosed(pos *model.Position) string {
	return fmt.Sprintf("📢 Closing %s position of %g on %s", pos.Side, pos.Size, pos.Symbol)
}

// FormatSubmitFailure reports a failed order submission.
func FormatSubmitFailure(p *model.TradeProposal, err error) string {
	return fmt.Sprintf("❌ <b>Order submission failed</b>\n\n%s %s @ %s\n%v", p.Side, p.Symbol, fmtPrice(p.EntryPrice), err)
}

// FormatProposalExpired reports a proposal abandoned without approval.
func FormatProposalExpired(p *model.TradeProposal) string {
	return fmt.Sprintf("⌛ Proposal expired unapproved: %s %s @ %s", p.Side, p.Symbol, fmtPrice(p.EntryPrice))
}

// FormatStatus summarizes account equity and pending approvals.
func FormatStatus(equity float64, pending int, degraded bool) string {
	var b strings.Builder
	b.WriteString("📦 <b>Engine status</b>\n\n")
	if degraded {
		b.WriteString("Equity: unavailable\n")
	} else {
		b.WriteString(fmt.Sprintf("Equity: %s\n", fmtPrice(equity)))
	}
	b.WriteString(fmt.Sprintf("Pending proposals: %d", pending))
	return b.String()
}
