// Package audit records session sign-in and sign-out as telemetry events.
package audit

import (
	"context"
	"sync"

	"traccar-client/internal/security"
	"traccar-client/internal/session"
	"traccar-client/internal/telemetry"
)

// eventSource identifies audit events.
const eventSource = "session_audit"

// AuditLogger writes a single audit event. LogEvent is best-effort: failures are logged and
// do not affect the caller.
type AuditLogger interface {
	LogEvent(ctx context.Context, action string, snap session.Snapshot)
}

// Logger implements AuditLogger on top of a telemetry emitter.
type Logger struct {
	emitter telemetry.EventEmitter

	mu   sync.Mutex
	prev session.Snapshot
}

// NewLogger returns a Logger that sends events to emitter. emitter may be nil; then nothing is emitted.
func NewLogger(emitter telemetry.EventEmitter) *Logger {
	return &Logger{emitter: emitter}
}

type eventMetadata struct {
	UserID string `json:"user_id,omitempty"`
}

// LogEvent emits one audit event for snap. The session is identified by the token fingerprint.
func (l *Logger) LogEvent(ctx context.Context, action string, snap session.Snapshot) {
	if l.emitter == nil {
		return
	}
	event := telemetry.NewEvent(action, eventSource, eventMetadata{UserID: userID(snap.User)})
	event.SessionFingerprint = security.TokenFingerprint(snap.Token)
	event.BackendURL = snap.BackendURL
	telemetry.EmitAsync(l.emitter, ctx, event)
}

// Attach subscribes to store and audits every login and logout from now on.
// The returned function stops auditing.
func (l *Logger) Attach(store *session.Store) (detach func()) {
	l.mu.Lock()
	l.prev = store.Snapshot()
	l.mu.Unlock()
	return store.Subscribe(l.observe)
}

func (l *Logger) observe(ctx context.Context, next session.Snapshot) {
	l.mu.Lock()
	prev := l.prev
	if next.Version <= prev.Version {
		// A later mutation was already observed.
		l.mu.Unlock()
		return
	}
	l.prev = next
	l.mu.Unlock()

	action, ok := Transition(prev, next)
	if !ok {
		return
	}
	// A logout carries the session that ended.
	subject := next
	if action == telemetry.EventSessionLogout {
		subject = prev
		subject.BackendURL = next.BackendURL
	}
	l.LogEvent(ctx, action, subject)
}
