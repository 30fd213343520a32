package audit

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Event is one audit record.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Service   string    `json:"service"`
	Action    string    `json:"action"`
	User      string    `json:"user,omitempty"`
	Target    string    `json:"target,omitempty"`
	Details   string    `json:"details,omitempty"`
	Success   bool      `json:"success"`
	Error     string    `json:"error,omitempty"`
}

// Audit actions.
const (
	ActionCredentialSaved      = "credential.saved"
	ActionCredentialTransition = "credential.status_changed"
	ActionURLPublished         = "url.published"
)

// Logger writes audit events as JSON lines. The zero value is not usable; use New.
type Logger struct {
	service string
	out     zerolog.Logger
}

// New creates an audit Logger writing to w (stdout when nil).
func New(service string, w io.Writer) *Logger {
	if w == nil {
		w = os.Stdout
	}
	return &Logger{service: service, out: zerolog.New(w)}
}

// Log records an audit event. A nil *Logger drops it.
func (l *Logger) Log(action, user, target, details string, success bool, err error) {
	if l == nil {
		return
	}
	event := Event{
		Timestamp: time.Now().UTC(),
		Service:   l.service,
		Action:    action,
		User:      user,
		Target:    target,
		Details:   details,
		Success:   success,
	}
	if err != nil {
		event.Error = err.Error()
	}

	entry, marshalErr := json.Marshal(event)
	if marshalErr != nil {
		l.out.Error().
			Str("action", action).
			Str("user", user).
			Bool("success", success).
			Err(marshalErr).
			Msg("audit event (fallback)")
		return
	}
	l.out.Log().RawJSON("audit_event", entry).Msg("")
}
