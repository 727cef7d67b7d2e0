package observability

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/valter-silva-au/planwise/pkg/models"
)

var (
	noticeErrorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	noticeWarnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	noticeInfoStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
)

// Notifier receives user-visible notices.
type Notifier interface {
	Notify(n models.Notice)
}

// writerNotifier prints one line per notice.
type writerNotifier struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterNotifier creates a Notifier printing notices to w, typically
// stderr.
func NewWriterNotifier(w io.Writer) Notifier {
	return &writerNotifier{w: w}
}

func (n *writerNotifier) Notify(notice models.Notice) {
	n.mu.Lock()
	defer n.mu.Unlock()
	_, _ = fmt.Fprintln(n.w, FormatNotice(notice))
}

// FormatNotice renders a notice as a single styled line.
func FormatNotice(n models.Notice) string {
	label := strings.ToUpper(string(n.Level))
	var style lipgloss.Style
	switch n.Level {
	case models.NoticeError:
		style = noticeErrorStyle
	case models.NoticeWarn:
		style = noticeWarnStyle
	default:
		style = noticeInfoStyle
	}
	line := style.Render(label) + " " + n.Message
	if n.Kind != "" {
		line += fmt.Sprintf(" [%s]", n.Kind)
	}
	return line
}

// NoticeQueue buffers notices for an interactive view to pick up. The
// oldest notices are dropped once the limit is reached.
type NoticeQueue struct {
	mu      sync.Mutex
	limit   int
	notices []models.Notice
}

// NewNoticeQueue creates a queue holding at most limit notices.
func NewNoticeQueue(limit int) *NoticeQueue {
	if limit <= 0 {
		limit = 1
	}
	return &NoticeQueue{limit: limit}
}

// Notify implements Notifier.
func (q *NoticeQueue) Notify(n models.Notice) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.notices = append(q.notices, n)
	if over := len(q.notices) - q.limit; over > 0 {
		q.notices = append(q.notices[:0:0], q.notices[over:]...)
	}
}

// Drain returns the queued notices and empties the queue.
func (q *NoticeQueue) Drain() []models.Notice {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.notices
	q.notices = nil
	return out
}

// Len returns the number of queued notices.
func (q *NoticeQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.notices)
}

// AlertNotice converts an alert into a notice for display.
func AlertNotice(a Alert) models.Notice {
	level := models.NoticeInfo
	switch a.Severity {
	case SeverityHigh:
		level = models.NoticeError
	case SeverityMedium:
		level = models.NoticeWarn
	}
	return models.Notice{
		Time:    a.TriggeredAt,
		Level:   level,
		Op:      a.Condition,
		Message: a.Message,
	}
}
