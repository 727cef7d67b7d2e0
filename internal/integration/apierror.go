package integration

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/bytedance/sonic"

	"github.com/valter-silva-au/planwise/pkg/models"
)

// maxMessageRunes caps how much of a non-JSON error body is kept.
const maxMessageRunes = 200

// APIError is a classified failure of a backend call.
type APIError struct {
	Kind    models.ErrorKind
	Status  int
	Message string
	Err     error
}

func (e *APIError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s (HTTP %d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// ErrorKind implements models.KindedError.
func (e *APIError) ErrorKind() models.ErrorKind { return e.Kind }

func (e *APIError) Unwrap() error { return e.Err }

// KindForStatus maps an HTTP status code to an ErrorKind.
func KindForStatus(status int) models.ErrorKind {
	switch {
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		return models.KindValidation
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return models.KindUnauthorized
	case status == http.StatusNotFound:
		return models.KindNotFound
	case status >= 500:
		return models.KindServer
	default:
		return models.KindUnknown
	}
}

// newStatusError builds an APIError from a non-2xx response body. The
// backend reports problems as {"detail": ...}, where detail is a string or
// a list of field errors.
func newStatusError(status int, body []byte) *APIError {
	return &APIError{
		Kind:    KindForStatus(status),
		Status:  status,
		Message: detailMessage(status, body),
	}
}

func networkError(err error) *APIError {
	return &APIError{Kind: models.KindNetwork, Message: err.Error(), Err: err}
}

func detailMessage(status int, body []byte) string {
	var payload struct {
		Detail any `json:"detail"`
	}
	if len(body) > 0 && sonic.Unmarshal(body, &payload) == nil && payload.Detail != nil {
		switch d := payload.Detail.(type) {
		case string:
			return d
		case []any:
			var msgs []string
			for _, item := range d {
				if m, ok := item.(map[string]any); ok {
					if msg, ok := m["msg"].(string); ok {
						msgs = append(msgs, msg)
					}
				}
			}
			if len(msgs) > 0 {
				return strings.Join(msgs, "; ")
			}
		}
	}

	text := strings.TrimSpace(string(body))
	if text == "" {
		return http.StatusText(status)
	}
	if r := []rune(text); len(r) > maxMessageRunes {
		text = string(r[:maxMessageRunes]) + "..."
	}
	return text
}
