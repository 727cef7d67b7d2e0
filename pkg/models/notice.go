package models

import "time"

// NoticeLevel is the severity of a user-visible notice.
type NoticeLevel string

const (
	NoticeInfo  NoticeLevel = "info"
	NoticeWarn  NoticeLevel = "warn"
	NoticeError NoticeLevel = "error"
)

// Notice is a message the user should see about a sync operation, usually
// a failure that left the list in a state they did not ask for.
type Notice struct {
	Time    time.Time   `json:"time"`
	Level   NoticeLevel `json:"level"`
	Op      string      `json:"op"`
	TaskID  string      `json:"task_id,omitempty"`
	Kind    ErrorKind   `json:"kind,omitempty"`
	Message string      `json:"message"`
}
