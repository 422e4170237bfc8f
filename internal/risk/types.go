package risk

// WarningType identifies the rule that produced a warning.
type WarningType string

const (
	WarnOvertrading      WarningType = "OVERTRADING"
	WarnHighLossStreak   WarningType = "HIGH_LOSS_STREAK"
	WarnLargePosition    WarningType = "LARGE_POSITION"
	WarnRapidTrading     WarningType = "RAPID_TRADING"
	WarnMartingale       WarningType = "MARTINGALE_PATTERN"
	WarnBalanceDepletion WarningType = "BALANCE_DEPLETION"
	WarnBotActivity      WarningType = "BOT_ACTIVITY"
	WarnUnusualHours     WarningType = "UNUSUAL_HOURS"
)

// RiskLevel is the ordinal severity of a warning or an overall result.
// Ordering: LOW < MEDIUM < HIGH < CRITICAL.
type RiskLevel string

const (
	LevelLow      RiskLevel = "LOW"
	LevelMedium   RiskLevel = "MEDIUM"
	LevelHigh     RiskLevel = "HIGH"
	LevelCritical RiskLevel = "CRITICAL"
)

// Trade is a closed historical trade as supplied by the session layer.
// Records are caller-owned; the analyzer never mutates them.
type Trade struct {
	PurchaseTime int64   `json:"purchase_time"` // Unix seconds
	BuyPrice     float64 `json:"buy_price"`     // stake
	SellPrice    float64 `json:"sell_price"`
}

// IsLoss reports whether the trade closed below its stake.
// A break-even trade (sell == buy) is not a loss.
func (t Trade) IsLoss() bool {
	return t.SellPrice < t.BuyPrice
}

// Position is an open, unresolved trade.
type Position struct {
	BuyPrice   float64 `json:"buy_price"` // stake
	ContractID string  `json:"contract_id"`
}

// Warning is a single detector finding. Warnings are value objects:
// created fresh per analysis run and never mutated after creation.
type Warning struct {
	Type        WarningType `json:"type"`
	Level       RiskLevel   `json:"level"`
	Message     string      `json:"message"`
	Value       float64     `json:"value"`
	IsBotLikely bool        `json:"is_bot_likely,omitempty"`
	ContractID  string      `json:"contract_id,omitempty"`
}

// Result is the consolidated output of one AnalyzeTradeHistory call.
// RiskLevel is empty when the run short-circuited on an empty history.
type Result struct {
	Warnings  []Warning `json:"warnings"`
	RiskScore int       `json:"risk_score"`
	RiskLevel RiskLevel `json:"risk_level,omitempty"`
}
