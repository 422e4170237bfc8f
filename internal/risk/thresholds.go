package risk

// Thresholds holds the numeric knobs controlling every detector.
// Intervals are in seconds to match the trade timestamps.
type Thresholds struct {
	MaxDailyTrades       int     `json:"max_daily_trades" yaml:"max_daily_trades"`
	MaxLossStreak        int     `json:"max_loss_streak" yaml:"max_loss_streak"`
	MaxPositionPercent   float64 `json:"max_position_percent" yaml:"max_position_percent"`
	MinTradeIntervalSec  int64   `json:"min_trade_interval_sec" yaml:"min_trade_interval_sec"`
	MartingaleMultiplier float64 `json:"martingale_multiplier" yaml:"martingale_multiplier"`
	BalanceDropPercent   float64 `json:"balance_drop_percent" yaml:"balance_drop_percent"`
	BotIntervalSec       int64   `json:"bot_interval_sec" yaml:"bot_interval_sec"`
}

// DefaultThresholds returns the baseline configuration.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MaxDailyTrades:       50,
		MaxLossStreak:        5,
		MaxPositionPercent:   10,
		MinTradeIntervalSec:  10,
		MartingaleMultiplier: 1.8,
		BalanceDropPercent:   20,
		BotIntervalSec:       2,
	}
}

// ThresholdOverride is a partial threshold update. Nil fields keep the
// prior value. Ranges are not validated; the caller is trusted.
type ThresholdOverride struct {
	MaxDailyTrades       *int     `json:"max_daily_trades" yaml:"max_daily_trades"`
	MaxLossStreak        *int     `json:"max_loss_streak" yaml:"max_loss_streak"`
	MaxPositionPercent   *float64 `json:"max_position_percent" yaml:"max_position_percent"`
	MinTradeIntervalSec  *int64   `json:"min_trade_interval_sec" yaml:"min_trade_interval_sec"`
	MartingaleMultiplier *float64 `json:"martingale_multiplier" yaml:"martingale_multiplier"`
	BalanceDropPercent   *float64 `json:"balance_drop_percent" yaml:"balance_drop_percent"`
	BotIntervalSec       *int64   `json:"bot_interval_sec" yaml:"bot_interval_sec"`
}

// Apply returns a copy of t with the non-nil override fields replaced.
func (t Thresholds) Apply(o ThresholdOverride) Thresholds {
	if o.MaxDailyTrades != nil {
		t.MaxDailyTrades = *o.MaxDailyTrades
	}
	if o.MaxLossStreak != nil {
		t.MaxLossStreak = *o.MaxLossStreak
	}
	if o.MaxPositionPercent != nil {
		t.MaxPositionPercent = *o.MaxPositionPercent
	}
	if o.MinTradeIntervalSec != nil {
		t.MinTradeIntervalSec = *o.MinTradeIntervalSec
	}
	if o.MartingaleMultiplier != nil {
		t.MartingaleMultiplier = *o.MartingaleMultiplier
	}
	if o.BalanceDropPercent != nil {
		t.BalanceDropPercent = *o.BalanceDropPercent
	}
	if o.BotIntervalSec != nil {
		t.BotIntervalSec = *o.BotIntervalSec
	}
	return t
}
