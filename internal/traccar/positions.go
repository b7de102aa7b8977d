package traccar

import (
	"context"
	"net/url"
	"time"
)

// PositionsService reads live and historical positions.
type PositionsService service

// Latest returns the most recent position per device. deviceID 0 means all devices.
func (s *PositionsService) Latest(ctx context.Context, deviceID int64) ([]Position, error) {
	q := url.Values{}
	if deviceID != 0 {
		q.Set("device_id", formatID(deviceID))
	}
	return getField[[]Position](ctx, s.client, "/positions", q, "positions")
}

// History returns the positions of one device between from and to.
func (s *PositionsService) History(ctx context.Context, deviceID int64, from, to time.Time) ([]Position, error) {
	return getField[[]Position](ctx, s.client, "/positions/history", rangeQuery(deviceID, from, to), "positions")
}
