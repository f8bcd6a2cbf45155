package strategy

import "TradePilot/internal/model"

// RSI gates: longs are suppressed once overbought, shorts once oversold.
const (
	rsiOverbought = 70
	rsiOversold   = 30
)

// Evaluate applies the entry rule to an indicator set and returns the trade
// signal. The rule is deterministic and stateless; the long and short
// conditions are mutually exclusive on trend direction.
func Evaluate(ind *model.IndicatorSet) model.Signal {
	switch {
	case ind.TrendFast > ind.TrendSlow &&
		ind.Momentum > ind.MomentumSignal &&
		ind.RSI < rsiOverbought &&
		ind.VolumeSpike:
		return model.SignalLong
	case ind.TrendFast < ind.TrendSlow &&
		ind.Momentum < ind.MomentumSignal &&
		ind.RSI > rsiOversold &&
		ind.VolumeSpike:
		return model.SignalShort
	default:
		return model.SignalNone
	}
}

// Bias returns the directional side implied by the trend pair alone, without
// the momentum and volume gates of the full entry rule.
func Bias(ind *model.IndicatorSet) model.Side {
	if ind.TrendFast > ind.TrendSlow {
		return model.SideBuy
	}
	return model.SideSell
}
