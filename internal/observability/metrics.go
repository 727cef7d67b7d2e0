package observability

import (
	"fmt"
	"time"
)

// Metrics holds counters derived from the event log.
type Metrics struct {
	TasksCreated   int            `json:"tasks_created"`
	TasksUpdated   int            `json:"tasks_updated"`
	TasksCompleted int            `json:"tasks_completed"`
	TasksReopened  int            `json:"tasks_reopened"`
	TasksDeleted   int            `json:"tasks_deleted"`
	Reorders       int            `json:"reorders"`
	PointsPreview  int            `json:"points_preview"`
	Reloads        int            `json:"reloads"`
	SyncFailures   int            `json:"sync_failures"`
	StaleDiscarded int            `json:"stale_discarded"`
	FailuresByKind map[string]int `json:"failures_by_kind"`
	FailuresByOp   map[string]int `json:"failures_by_op"`
	EventCount     int            `json:"event_count"`
	OldestEvent    *time.Time     `json:"oldest_event,omitempty"`
	NewestEvent    *time.Time     `json:"newest_event,omitempty"`
}

// MetricsCalculator derives metrics from the event log.
type MetricsCalculator interface {
	Calculate(since time.Time) (*Metrics, error)
}

type metricsCalculator struct {
	eventLog EventLog
}

// NewMetricsCalculator creates a new MetricsCalculator that reads from the given EventLog.
func NewMetricsCalculator(eventLog EventLog) MetricsCalculator {
	return &metricsCalculator{eventLog: eventLog}
}

// Calculate reads all events since the given time and aggregates them.
func (mc *metricsCalculator) Calculate(since time.Time) (*Metrics, error) {
	events, err := mc.eventLog.Read(EventFilter{Since: &since})
	if err != nil {
		return nil, fmt.Errorf("reading events for metrics: %w", err)
	}

	m := &Metrics{
		FailuresByKind: make(map[string]int),
		FailuresByOp:   make(map[string]int),
		EventCount:     len(events),
	}

	for i, event := range events {
		if i == 0 {
			t := event.Time
			m.OldestEvent = &t
		}
		t := event.Time
		m.NewestEvent = &t

		switch event.Type {
		case EventTaskCreated:
			m.TasksCreated++
		case EventTaskUpdated:
			m.TasksUpdated++
		case EventTaskCompleted:
			m.TasksCompleted++
			m.PointsPreview += intField(event.Data, "points")
		case EventTaskReopened:
			m.TasksReopened++
		case EventTaskDeleted:
			m.TasksDeleted++
		case EventTaskReordered:
			m.Reorders++
		case EventSyncReloaded:
			m.Reloads++
		case EventStaleDiscarded:
			m.StaleDiscarded++
		case EventSyncFailed:
			m.SyncFailures++
			if kind, ok := event.Data["kind"].(string); ok && kind != "" {
				m.FailuresByKind[kind]++
			}
			if op, ok := event.Data["op"].(string); ok && op != "" {
				m.FailuresByOp[op]++
			}
		}
	}

	return m, nil
}

// intField reads a numeric field that went through JSON, where numbers come
// back as float64.
func intField(data map[string]any, key string) int {
	switch v := data[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	}
	return 0
}
