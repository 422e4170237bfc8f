package risk

// Severity-to-points mapping used by the aggregator.
func points(level RiskLevel) int {
	switch level {
	case LevelLow:
		return 5
	case LevelMedium:
		return 15
	case LevelHigh:
		return 30
	case LevelCritical:
		return 50
	}
	return 0
}

// scoreWarnings sums points over the run's warnings, saturating at 100.
func scoreWarnings(warnings []Warning) int {
	score := 0
	for _, w := range warnings {
		score += points(w.Level)
	}
	if score > 100 {
		score = 100
	}
	return score
}

// levelForScore maps a score in [0,100] to its coarse risk bucket.
// Higher score means more risk.
func levelForScore(score int) RiskLevel {
	switch {
	case score >= 70:
		return LevelCritical
	case score >= 40:
		return LevelHigh
	case score >= 20:
		return LevelMedium
	}
	return LevelLow
}
