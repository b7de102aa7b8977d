package traccar

import (
	"context"
	"time"
)

// TripsService reads the trips report.
type TripsService service

// Get returns the trips of one device between from and to.
func (s *TripsService) Get(ctx context.Context, deviceID int64, from, to time.Time) ([]Trip, error) {
	return getField[[]Trip](ctx, s.client, "/trips", rangeQuery(deviceID, from, to), "trips")
}
