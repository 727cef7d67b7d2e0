package observability

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"pgregory.net/rapid"
)

// Raising MaxFailures never makes the sync_failures alert appear.
func TestProperty_SyncFailuresThresholdMonotonic(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		el, err := NewJSONLEventLog(filepath.Join(t.TempDir(), "events.jsonl"))
		if err != nil {
			rt.Fatalf("creating event log: %v", err)
		}
		defer func() { _ = el.Close() }()

		now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
		n := rapid.IntRange(0, 15).Draw(rt, "failures")
		for i := 0; i < n; i++ {
			ago := rapid.IntRange(0, 48).Draw(rt, fmt.Sprintf("hoursAgo_%d", i))
			if err := el.Write(failure(now.Add(-time.Duration(ago)*time.Hour), "reorder", "server")); err != nil {
				rt.Fatalf("writing event: %v", err)
			}
		}

		low := rapid.IntRange(0, 10).Draw(rt, "low")
		high := low + rapid.IntRange(0, 10).Draw(rt, "delta")

		fired := func(maxFailures int) bool {
			th := DefaultAlertThresholds()
			th.MaxFailures = maxFailures
			ae := NewAlertEngine(el, th).(*alertEngine)
			ae.now = func() time.Time { return now }
			alerts, err := ae.Evaluate()
			if err != nil {
				rt.Fatalf("evaluating: %v", err)
			}
			_, ok := conditions(alerts)["sync_failures"]
			return ok
		}

		if fired(high) && !fired(low) {
			rt.Errorf("alert fired at threshold %d but not at lower threshold %d", high, low)
		}
	})
}
