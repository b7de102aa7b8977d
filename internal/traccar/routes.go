package traccar

import (
	"context"
	"time"
)

// RoutesService reads the route report.
type RoutesService service

// Get returns the route points of one device between from and to.
func (s *RoutesService) Get(ctx context.Context, deviceID int64, from, to time.Time) ([]Position, error) {
	return getField[[]Position](ctx, s.client, "/route", rangeQuery(deviceID, from, to), "route")
}
