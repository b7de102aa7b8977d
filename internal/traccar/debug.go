package traccar

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// DebugService exposes the proxy's raw data dump for troubleshooting.
type DebugService service

// Device returns everything the proxy can fetch for one device over the last hours.
// hours 0 lets the proxy pick its default window.
func (s *DebugService) Device(ctx context.Context, id int64, hours int) (*DeviceDebug, error) {
	q := url.Values{}
	if hours != 0 {
		q.Set("hours", strconv.Itoa(hours))
	}
	var out DeviceDebug
	if err := s.client.do(ctx, call{method: http.MethodGet, path: "/debug/device/" + formatID(id), query: q}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
