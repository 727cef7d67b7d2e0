package core

import "github.com/valter-silva-au/planwise/pkg/models"

// kindedSentinel is a comparable sentinel error that also carries an
// ErrorKind, so errors.Is and models.KindOf both work on wrapped copies.
type kindedSentinel struct {
	msg  string
	kind models.ErrorKind
}

func (e *kindedSentinel) Error() string { return e.msg }
func (e *kindedSentinel) ErrorKind() models.ErrorKind { return e.kind }

var (
	// ErrIndexOutOfRange is returned when a move references a position
	// outside the displayed sequence.
	ErrIndexOutOfRange error = &kindedSentinel{msg: "index out of range", kind: models.KindValidation}

	// ErrTaskNotCached is returned when an operation needs the cached state
	// of a task the store does not hold.
	ErrTaskNotCached error = &kindedSentinel{msg: "task not in local list", kind: models.KindNotFound}

	// ErrStaleReload is returned by Reload when a newer reload was applied
	// first and this response was discarded.
	ErrStaleReload error = &kindedSentinel{msg: "stale reload discarded", kind: models.KindUnknown}
)
