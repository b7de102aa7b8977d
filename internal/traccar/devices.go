package traccar

import "context"

// DevicesService reads the devices visible to the session.
type DevicesService service

// List returns every device.
func (s *DevicesService) List(ctx context.Context) ([]Device, error) {
	return getField[[]Device](ctx, s.client, "/devices", nil, "devices")
}

// Get returns one device. A device missing from the envelope yields nil with no error.
func (s *DevicesService) Get(ctx context.Context, id int64) (*Device, error) {
	return getField[*Device](ctx, s.client, "/devices/"+formatID(id), nil, "device")
}
