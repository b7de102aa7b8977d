package telemetry

import (
	"context"
	"log"
	"sync"
	"time"
)

// emitTimeout is the max time allowed for a single async emit. Used by EmitAsync and by ShutdownDrainDuration.
const emitTimeout = 5 * time.Second

// ShutdownDrainDuration bounds how long Drain should wait before providers are shut down
// so in-flight async emits can complete. Must be >= emitTimeout.
const ShutdownDrainDuration = emitTimeout

// inflight counts emits started by EmitAsync that have not returned yet.
var inflight struct {
	mu      sync.Mutex
	n       int
	waiters []chan struct{}
}

func inflightAdd(delta int) {
	inflight.mu.Lock()
	defer inflight.mu.Unlock()
	inflight.n += delta
	if inflight.n == 0 {
		for _, w := range inflight.waiters {
			close(w)
		}
		inflight.waiters = nil
	}
}

// EmitAsync runs Emit in a goroutine with a short timeout so the caller is not blocked.
//
// emitter and event may be nil; EmitAsync returns immediately without starting a goroutine.
// The goroutine uses context.Background() with emitTimeout so a finished or cancelled API
// call does not abort the emit.
func EmitAsync(emitter EventEmitter, ctx context.Context, event *Event) {
	if emitter == nil || event == nil {
		return
	}
	inflightAdd(1)
	go func() {
		defer inflightAdd(-1)
		emitCtx, cancel := context.WithTimeout(context.Background(), emitTimeout)
		defer cancel()
		if err := emitter.Emit(emitCtx, event); err != nil {
			log.Printf("telemetry: async emit failed: %v", err)
		}
	}()
}

// Drain waits for every emit started by EmitAsync to finish, or for ctx to end.
// Short-lived processes call it before exiting.
func Drain(ctx context.Context) error {
	inflight.mu.Lock()
	if inflight.n == 0 {
		inflight.mu.Unlock()
		return nil
	}
	done := make(chan struct{})
	inflight.waiters = append(inflight.waiters, done)
	inflight.mu.Unlock()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
