package risk

import (
	"fmt"
	"sync"
	"time"
)

// Analyzer evaluates trade histories and open positions against the
// configured thresholds. Thresholds are the only shared state: updates
// swap a copy under the lock, so an in-flight analysis always sees a
// consistent snapshot. Everything else is stateless per call.
type Analyzer struct {
	mu         sync.RWMutex
	thresholds Thresholds

	nowFn func() time.Time
}

// NewAnalyzer creates an analyzer with default thresholds.
func NewAnalyzer() *Analyzer {
	return NewAnalyzerWith(DefaultThresholds())
}

// NewAnalyzerWith creates an analyzer with the given thresholds.
func NewAnalyzerWith(th Thresholds) *Analyzer {
	return &Analyzer{thresholds: th, nowFn: time.Now}
}

// Thresholds returns a copy of the current configuration.
func (a *Analyzer) Thresholds() Thresholds {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.thresholds
}

// SetThresholds merges a partial override into the current configuration
// and returns the result. Unspecified keys keep their prior values.
func (a *Analyzer) SetThresholds(o ThresholdOverride) Thresholds {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.thresholds = a.thresholds.Apply(o)
	return a.thresholds
}

// AnalyzeTradeHistory runs all seven detectors over the trade history and
// aggregates their warnings into a score and level. An empty history
// short-circuits to a zero-risk result with an empty RiskLevel. Every call
// builds its result from scratch; nothing carries over between runs.
func (a *Analyzer) AnalyzeTradeHistory(trades []Trade, currentBalance, initialBalance float64) (Result, error) {
	if len(trades) == 0 {
		return Result{Warnings: []Warning{}, RiskScore: 0}, nil
	}
	if err := ValidateTrades(trades); err != nil {
		return Result{}, fmt.Errorf("analyze trade history: %w", err)
	}

	th := a.Thresholds()
	now := a.nowFn()

	warnings := []Warning{}
	warnings = append(warnings, detectOvertrading(trades, th, now)...)
	warnings = append(warnings, detectLossStreak(trades, th)...)
	warnings = append(warnings, detectRapidTrading(trades, th)...)
	warnings = append(warnings, detectMartingale(trades, th)...)
	warnings = append(warnings, detectBalanceDepletion(currentBalance, initialBalance, th)...)
	warnings = append(warnings, detectBotActivity(trades, th)...)
	warnings = append(warnings, detectUnusualHours(trades)...)

	score := scoreWarnings(warnings)
	return Result{
		Warnings:  warnings,
		RiskScore: score,
		RiskLevel: levelForScore(score),
	}, nil
}

// AnalyzeOpenPositions checks each open position's stake against the
// balance and flags oversized exposure. It may emit one warning per
// position. Exposure warnings never feed the history score.
// A non-positive balance disables the check entirely.
func (a *Analyzer) AnalyzeOpenPositions(positions []Position, balance float64) []Warning {
	if balance <= 0 {
		return []Warning{}
	}
	th := a.Thresholds()

	warnings := []Warning{}
	for _, p := range positions {
		pct := p.BuyPrice / balance * 100
		if pct <= th.MaxPositionPercent {
			continue
		}
		level := LevelHigh
		if pct > 25 {
			level = LevelCritical
		}
		warnings = append(warnings, Warning{
			Type:       WarnLargePosition,
			Level:      level,
			Message:    fmt.Sprintf("Position %s is %.1f%% of balance (limit %.0f%%)", p.ContractID, pct, th.MaxPositionPercent),
			Value:      pct,
			ContractID: p.ContractID,
		})
	}
	return warnings
}
