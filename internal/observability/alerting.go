package observability

import (
	"fmt"
	"time"
)

// AlertSeverity represents the urgency of an alert.
type AlertSeverity string

const (
	SeverityHigh   AlertSeverity = "high"
	SeverityMedium AlertSeverity = "medium"
	SeverityLow    AlertSeverity = "low"
)

// Alert represents a triggered sync health condition.
type Alert struct {
	ID          string        `json:"id"`
	Condition   string        `json:"condition"`
	Severity    AlertSeverity `json:"severity"`
	Message     string        `json:"message"`
	TriggeredAt time.Time     `json:"triggered_at"`
}

// AlertThresholds configures when alerts fire.
type AlertThresholds struct {
	FailureWindowHours int `yaml:"failure_window_hours" json:"failure_window_hours"`
	MaxFailures        int `yaml:"max_failures" json:"max_failures"`
	MaxStaleDiscards   int `yaml:"max_stale_discards" json:"max_stale_discards"`
	StaleSyncHours     int `yaml:"stale_sync_hours" json:"stale_sync_hours"`
}

// DefaultAlertThresholds returns the thresholds used by pw stats.
func DefaultAlertThresholds() AlertThresholds {
	return AlertThresholds{
		FailureWindowHours: 24,
		MaxFailures:        5,
		MaxStaleDiscards:   10,
		StaleSyncHours:     72,
	}
}

// AlertEngine evaluates sync health conditions against the event log.
type AlertEngine interface {
	Evaluate() ([]Alert, error)
}

type alertEngine struct {
	eventLog   EventLog
	thresholds AlertThresholds
	now        func() time.Time
}

// NewAlertEngine creates a new AlertEngine with the given EventLog and thresholds.
func NewAlertEngine(eventLog EventLog, thresholds AlertThresholds) AlertEngine {
	return &alertEngine{
		eventLog:   eventLog,
		thresholds: thresholds,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Evaluate reads the event log once and checks every condition.
func (ae *alertEngine) Evaluate() ([]Alert, error) {
	events, err := ae.eventLog.Read(EventFilter{})
	if err != nil {
		return nil, fmt.Errorf("reading events for alerts: %w", err)
	}
	now := ae.now()

	var alerts []Alert
	alerts = append(alerts, ae.checkSessionRejected(events, now)...)
	alerts = append(alerts, ae.checkRepeatedFailures(events, now)...)
	alerts = append(alerts, ae.checkStaleDiscards(events, now)...)
	alerts = append(alerts, ae.checkStaleSync(events, now)...)
	return alerts, nil
}

// checkSessionRejected fires when the latest sync outcome is an
// unauthorized failure.
func (ae *alertEngine) checkSessionRejected(events []Event, now time.Time) []Alert {
	for i := len(events) - 1; i >= 0; i-- {
		switch events[i].Type {
		case EventSyncReloaded:
			return nil
		case EventSyncFailed:
			if kind, _ := events[i].Data["kind"].(string); kind == "unauthorized" {
				return []Alert{{
					ID:          "session-rejected",
					Condition:   "session_rejected",
					Severity:    SeverityHigh,
					Message:     "the backend rejected the session; run 'pw auth login'",
					TriggeredAt: now,
				}}
			}
		}
	}
	return nil
}

// checkRepeatedFailures counts sync failures inside the window.
func (ae *alertEngine) checkRepeatedFailures(events []Event, now time.Time) []Alert {
	window := time.Duration(ae.thresholds.FailureWindowHours) * time.Hour
	count := 0
	for _, e := range events {
		if e.Type == EventSyncFailed && now.Sub(e.Time) <= window {
			count++
		}
	}
	if count <= ae.thresholds.MaxFailures {
		return nil
	}
	return []Alert{{
		ID:          "sync-failures",
		Condition:   "sync_failures",
		Severity:    SeverityHigh,
		Message:     fmt.Sprintf("%d sync failures in the last %d hours, exceeding %d", count, ae.thresholds.FailureWindowHours, ae.thresholds.MaxFailures),
		TriggeredAt: now,
	}}
}

// checkStaleDiscards flags frequent out-of-order reload responses.
func (ae *alertEngine) checkStaleDiscards(events []Event, now time.Time) []Alert {
	window := time.Duration(ae.thresholds.FailureWindowHours) * time.Hour
	count := 0
	for _, e := range events {
		if e.Type == EventStaleDiscarded && now.Sub(e.Time) <= window {
			count++
		}
	}
	if count <= ae.thresholds.MaxStaleDiscards {
		return nil
	}
	return []Alert{{
		ID:          "stale-discards",
		Condition:   "stale_reloads",
		Severity:    SeverityLow,
		Message:     fmt.Sprintf("%d reload responses arrived out of order in the last %d hours", count, ae.thresholds.FailureWindowHours),
		TriggeredAt: now,
	}}
}

// checkStaleSync fires when the list has not been refreshed for a while.
// An empty log never alerts.
func (ae *alertEngine) checkStaleSync(events []Event, now time.Time) []Alert {
	var last time.Time
	for _, e := range events {
		if e.Type == EventSyncReloaded && e.Time.After(last) {
			last = e.Time
		}
	}
	if last.IsZero() {
		return nil
	}
	threshold := time.Duration(ae.thresholds.StaleSyncHours) * time.Hour
	if now.Sub(last) <= threshold {
		return nil
	}
	return []Alert{{
		ID:          "stale-sync",
		Condition:   "sync_stale",
		Severity:    SeverityMedium,
		Message:     fmt.Sprintf("task list last refreshed %s, more than %d hours ago", last.Format("2006-01-02 15:04 UTC"), ae.thresholds.StaleSyncHours),
		TriggeredAt: now,
	}}
}
