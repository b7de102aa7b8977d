package traccar

import (
	"context"
	"net/http"
)

// HealthService checks that the proxy is up.
type HealthService service

// Check returns the proxy health status. It needs no session.
func (s *HealthService) Check(ctx context.Context) (*HealthStatus, error) {
	var out HealthStatus
	if err := s.client.do(ctx, call{method: http.MethodGet, path: "/health"}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
