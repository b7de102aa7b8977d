package traccar

import (
	"context"
	"net/http"
	"time"

	"traccar-client/internal/security"
	"traccar-client/internal/telemetry"
)

// eventSource identifies events emitted by this package.
const eventSource = "traccar_client"

// requestMetadata is the JSON shape stored in Event.Metadata for api_request events.
type requestMetadata struct {
	Method     string `json:"method"`
	Path       string `json:"path"`
	StatusCode int    `json:"status_code"`
	DurationMs int64  `json:"duration_ms"`
	RequestID  string `json:"request_id"`
	Error      string `json:"error,omitempty"`
}

// record emits one api_request event. Best-effort: it never blocks or fails the call.
// statusCode is 0 when no response was received.
func (c *Client) record(ctx context.Context, req *http.Request, token string, statusCode int, d time.Duration, err error) {
	if c.emitter == nil {
		return
	}
	meta := requestMetadata{
		Method:     req.Method,
		Path:       req.URL.Path,
		StatusCode: statusCode,
		DurationMs: d.Milliseconds(),
		RequestID:  req.Header.Get("X-Request-ID"),
	}
	if err != nil {
		meta.Error = err.Error()
	}
	event := telemetry.NewEvent(telemetry.EventAPIRequest, eventSource, meta)
	event.SessionFingerprint = security.TokenFingerprint(token)
	telemetry.EmitAsync(c.emitter, ctx, event)
}

func (c *Client) recordUnauthorized(ctx context.Context, req *http.Request, token string) {
	if c.emitter == nil {
		return
	}
	event := telemetry.NewEvent(telemetry.EventAPIUnauthorized, eventSource, map[string]string{
		"method":     req.Method,
		"path":       req.URL.Path,
		"request_id": req.Header.Get("X-Request-ID"),
	})
	event.SessionFingerprint = security.TokenFingerprint(token)
	telemetry.EmitAsync(c.emitter, ctx, event)
}
