package observability

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/valter-silva-au/planwise/pkg/models"
)

func TestFormatNotice(t *testing.T) {
	line := FormatNotice(models.Notice{
		Level:   models.NoticeError,
		Op:      "reorder",
		Kind:    models.KindServer,
		Message: "could not save the new order",
	})
	if !strings.Contains(line, "ERROR") {
		t.Errorf("expected level label in %q", line)
	}
	if !strings.Contains(line, "could not save the new order") {
		t.Errorf("expected message in %q", line)
	}
	if !strings.HasSuffix(line, "[server]") {
		t.Errorf("expected kind suffix in %q", line)
	}

	plain := FormatNotice(models.Notice{Level: models.NoticeInfo, Message: "list refreshed"})
	if strings.Contains(plain, "[") {
		t.Errorf("notice without kind should have no suffix: %q", plain)
	}
}

func TestWriterNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := NewWriterNotifier(&buf)
	n.Notify(models.Notice{Level: models.NoticeWarn, Message: "first"})
	n.Notify(models.Notice{Level: models.NoticeWarn, Message: "second"})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), buf.String())
	}
	if !strings.Contains(lines[1], "second") {
		t.Errorf("second line = %q", lines[1])
	}
}

func TestNoticeQueue_DropsOldest(t *testing.T) {
	q := NewNoticeQueue(3)
	for i := 0; i < 5; i++ {
		q.Notify(models.Notice{Message: fmt.Sprintf("n%d", i)})
	}
	if q.Len() != 3 {
		t.Fatalf("Len = %d, want 3", q.Len())
	}

	got := q.Drain()
	want := []string{"n2", "n3", "n4"}
	for i, n := range got {
		if n.Message != want[i] {
			t.Errorf("notice %d = %s, want %s", i, n.Message, want[i])
		}
	}
	if q.Len() != 0 || len(q.Drain()) != 0 {
		t.Error("queue should be empty after Drain")
	}
}

func TestNoticeQueue_NonPositiveLimit(t *testing.T) {
	q := NewNoticeQueue(0)
	q.Notify(models.Notice{Message: "a"})
	q.Notify(models.Notice{Message: "b"})
	got := q.Drain()
	if len(got) != 1 || got[0].Message != "b" {
		t.Errorf("got %+v, want only the latest notice", got)
	}
}

func TestAlertNotice(t *testing.T) {
	at := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		severity AlertSeverity
		want     models.NoticeLevel
	}{
		{SeverityHigh, models.NoticeError},
		{SeverityMedium, models.NoticeWarn},
		{SeverityLow, models.NoticeInfo},
	}
	for _, tt := range tests {
		n := AlertNotice(Alert{Condition: "sync_stale", Severity: tt.severity, Message: "stale", TriggeredAt: at})
		if n.Level != tt.want {
			t.Errorf("severity %s mapped to %s, want %s", tt.severity, n.Level, tt.want)
		}
		if n.Op != "sync_stale" || n.Message != "stale" || !n.Time.Equal(at) {
			t.Errorf("notice = %+v", n)
		}
	}
}
