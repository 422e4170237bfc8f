package events

// Event enumerates high-level topics inside the analyzer service.
type Event string

const (
	EventAnalysisCompleted Event = "analysis_completed"
	EventRiskAlert         Event = "risk_alert"
	EventThresholdsUpdated Event = "thresholds_updated"
)
