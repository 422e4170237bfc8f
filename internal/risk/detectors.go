package risk

import (
	"fmt"
	"sort"
	"time"
)

// Each detector is a pure function over the trade batch and returns at
// most one warning: every rule models a single yes/no condition over the
// whole history, not per-trade findings.

// sortedByTime returns a copy of trades ordered by purchase time
// ascending. Caller-supplied ordering is never mutated.
func sortedByTime(trades []Trade) []Trade {
	out := make([]Trade, len(trades))
	copy(out, trades)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PurchaseTime < out[j].PurchaseTime
	})
	return out
}

// detectOvertrading counts trades placed on the evaluation day (local
// time) and warns when the count exceeds the daily limit.
func detectOvertrading(trades []Trade, th Thresholds, now time.Time) []Warning {
	y, m, d := now.Date()
	count := 0
	for _, t := range trades {
		ty, tm, td := time.Unix(t.PurchaseTime, 0).Date()
		if ty == y && tm == m && td == d {
			count++
		}
	}
	if count <= th.MaxDailyTrades {
		return nil
	}
	return []Warning{{
		Type:    WarnOvertrading,
		Level:   LevelHigh,
		Message: fmt.Sprintf("High trading frequency: %d trades today (limit %d)", count, th.MaxDailyTrades),
		Value:   float64(count),
	}}
}

// detectLossStreak scans trades in their given order and tracks the
// longest run of consecutive losses. Break-even trades reset the streak.
func detectLossStreak(trades []Trade, th Thresholds) []Warning {
	streak, maxStreak := 0, 0
	for _, t := range trades {
		if t.IsLoss() {
			streak++
			if streak > maxStreak {
				maxStreak = streak
			}
		} else {
			streak = 0
		}
	}
	if maxStreak < th.MaxLossStreak {
		return nil
	}
	level := LevelHigh
	if maxStreak >= 8 {
		level = LevelCritical
	}
	return []Warning{{
		Type:    WarnHighLossStreak,
		Level:   level,
		Message: fmt.Sprintf("Loss streak of %d consecutive losing trades", maxStreak),
		Value:   float64(maxStreak),
	}}
}

// detectRapidTrading counts adjacent trades (by time) placed strictly
// closer together than the minimum interval.
func detectRapidTrading(trades []Trade, th Thresholds) []Warning {
	sorted := sortedByTime(trades)
	count := 0
	for i := 1; i < len(sorted); i++ {
		if sorted[i].PurchaseTime-sorted[i-1].PurchaseTime < th.MinTradeIntervalSec {
			count++
		}
	}
	if count <= 5 {
		return nil
	}
	return []Warning{{
		Type:    WarnRapidTrading,
		Level:   LevelMedium,
		Message: fmt.Sprintf("%d trades placed less than %ds apart", count, th.MinTradeIntervalSec),
		Value:   float64(count),
	}}
}

// detectMartingale counts stake escalations following a loss: trade i+1
// staking at least multiplier times trade i's stake after trade i lost.
// Whether the escalated trade itself won is irrelevant.
func detectMartingale(trades []Trade, th Thresholds) []Warning {
	sorted := sortedByTime(trades)
	count := 0
	for i := 1; i < len(sorted); i++ {
		prev := sorted[i-1]
		if prev.IsLoss() && sorted[i].BuyPrice >= prev.BuyPrice*th.MartingaleMultiplier {
			count++
		}
	}
	if count < 3 {
		return nil
	}
	return []Warning{{
		Type:    WarnMartingale,
		Level:   LevelCritical,
		Message: fmt.Sprintf("Martingale pattern: stake raised after a loss %d times", count),
		Value:   float64(count),
	}}
}

// detectBalanceDepletion compares current balance to the session's
// starting balance. A zero or absent initial balance disables the rule.
// Balance growth yields a negative drop and never triggers.
func detectBalanceDepletion(currentBalance, initialBalance float64, th Thresholds) []Warning {
	if initialBalance == 0 {
		return nil
	}
	drop := (initialBalance - currentBalance) / initialBalance * 100
	if drop < th.BalanceDropPercent {
		return nil
	}
	level := LevelHigh
	if drop >= 50 {
		level = LevelCritical
	}
	return []Warning{{
		Type:    WarnBalanceDepletion,
		Level:   level,
		Message: fmt.Sprintf("Balance down %.1f%% from session start", drop),
		Value:   drop,
	}}
}

// detectBotActivity inspects the earliest min(20, n) trades by time and
// counts adjacent gaps at or below the bot interval. Machine-paced
// execution shows up as a run of near-constant tiny gaps.
func detectBotActivity(trades []Trade, th Thresholds) []Warning {
	sorted := sortedByTime(trades)
	if len(sorted) > 20 {
		sorted = sorted[:20]
	}
	count := 0
	for i := 1; i < len(sorted); i++ {
		if sorted[i].PurchaseTime-sorted[i-1].PurchaseTime <= th.BotIntervalSec {
			count++
		}
	}
	if count < 5 {
		return nil
	}
	return []Warning{{
		Type:        WarnBotActivity,
		Level:       LevelMedium,
		Message:     fmt.Sprintf("Bot-like cadence: %d intervals of %ds or less", count, th.BotIntervalSec),
		Value:       float64(count),
		IsBotLikely: true,
	}}
}

// detectUnusualHours counts trades placed between midnight and 06:00
// local time.
func detectUnusualHours(trades []Trade) []Warning {
	count := 0
	for _, t := range trades {
		if time.Unix(t.PurchaseTime, 0).Hour() < 6 {
			count++
		}
	}
	if count < 10 {
		return nil
	}
	return []Warning{{
		Type:    WarnUnusualHours,
		Level:   LevelLow,
		Message: fmt.Sprintf("%d trades placed between midnight and 6am", count),
		Value:   float64(count),
	}}
}
