package monitor

import (
	"context"
	"encoding/json"
	"log"

	"risk-core/internal/events"
	"risk-core/internal/risk"
)

// Monitor watches risk alert events and forwards them to a sink.
type Monitor struct {
	Bus  *events.Bus
	Sink AlertSink
}

func (m *Monitor) Start(ctx context.Context) {
	if m.Bus == nil || m.Sink == nil {
		log.Println("monitor not fully configured; skipping")
		return
	}
	stream, unsub := m.Bus.Subscribe(events.EventRiskAlert, 50)
	go func() {
		defer unsub()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-stream:
				if !ok {
					return
				}
				if err := m.Sink.Send(formatAlert(msg)); err != nil {
					log.Printf("alert sink error: %v", err)
				}
			}
		}
	}()
}

func formatAlert(msg any) string {
	switch t := msg.(type) {
	case risk.Warning:
		return string(t.Level) + " " + string(t.Type) + ": " + t.Message
	case string:
		return t
	default:
		if b, err := json.Marshal(msg); err == nil {
			return string(b)
		}
		return "alert triggered"
	}
}
