// Package producer ships client telemetry events to a message broker (Kafka).
package producer

import (
	"context"

	"traccar-client/internal/telemetry"
)

// Producer emits telemetry events. Callers use it best-effort: log and ignore errors.
// It satisfies telemetry.EventEmitter.
type Producer interface {
	// Emit sends a single event. Implementations may block briefly; use telemetry.EmitAsync from request paths.
	Emit(ctx context.Context, event *telemetry.Event) error
	// Close flushes and releases resources. Safe to call if already closed.
	Close() error
}
