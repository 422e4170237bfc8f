package monitor

import "risk-core/internal/risk"

// AlertWorthy reports whether a warning is severe enough to be pushed to
// alert subscribers. LOW and MEDIUM findings stay in the result only.
func AlertWorthy(w risk.Warning) bool {
	return w.Level == risk.LevelHigh || w.Level == risk.LevelCritical
}
