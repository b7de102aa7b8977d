package traccar

import (
	"context"
	"net/url"
	"time"
)

// EventsService reads device events.
type EventsService service

// EventsQuery filters List. Zero fields are not sent.
type EventsQuery struct {
	DeviceID int64
	From     time.Time
	To       time.Time
}

func (q EventsQuery) values() url.Values {
	v := url.Values{}
	if q.DeviceID != 0 {
		v.Set("device_id", formatID(q.DeviceID))
	}
	if !q.From.IsZero() {
		v.Set("from_time", formatTime(q.From))
	}
	if !q.To.IsZero() {
		v.Set("to_time", formatTime(q.To))
	}
	return v
}

// List returns the events matching q.
func (s *EventsService) List(ctx context.Context, q EventsQuery) ([]Event, error) {
	return getField[[]Event](ctx, s.client, "/events", q.values(), "events")
}
