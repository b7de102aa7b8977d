package traccar

import (
	"bytes"
	"encoding/json"
)

// Records returned by the API carry Raw, the exact JSON the backend sent. The typed fields are
// a convenience view decoded from it: fields the view does not declare, or cannot decode, stay
// in Raw only and never fail the call. Marshaling a record writes Raw back unchanged.

// unmarshalRecord keeps data as *raw and decodes what it can into view.
func unmarshalRecord(data []byte, raw *json.RawMessage, view any) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	*raw = append(json.RawMessage(nil), data...)
	_ = json.Unmarshal(data, view)
	return nil
}

// marshalRecord writes raw when present, else the typed view.
func marshalRecord(raw json.RawMessage, view any) ([]byte, error) {
	if len(raw) > 0 {
		return raw, nil
	}
	return json.Marshal(view)
}

// Device is a tracked unit as returned by the Traccar API.
type Device struct {
	ID         int64          `json:"id"`
	Name       string         `json:"name"`
	UniqueID   string         `json:"uniqueId"`
	Status     string         `json:"status,omitempty"`
	Disabled   bool           `json:"disabled"`
	LastUpdate string         `json:"lastUpdate,omitempty"`
	PositionID int64          `json:"positionId,omitempty"`
	GroupID    int64          `json:"groupId,omitempty"`
	Phone      string         `json:"phone,omitempty"`
	Model      string         `json:"model,omitempty"`
	Contact    string         `json:"contact,omitempty"`
	Category   string         `json:"category,omitempty"`
	Attributes map[string]any `json:"attributes,omitempty"`

	Raw json.RawMessage `json:"-"`
}

func (d *Device) UnmarshalJSON(data []byte) error {
	type view Device
	return unmarshalRecord(data, &d.Raw, (*view)(d))
}

func (d Device) MarshalJSON() ([]byte, error) {
	type view Device
	return marshalRecord(d.Raw, view(d))
}

// Position is one GPS fix. Speed is in knots, as Traccar reports it. Times are kept as the
// backend formats them.
type Position struct {
	ID         int64          `json:"id"`
	DeviceID   int64          `json:"deviceId"`
	Protocol   string         `json:"protocol,omitempty"`
	ServerTime string         `json:"serverTime,omitempty"`
	DeviceTime string         `json:"deviceTime,omitempty"`
	FixTime    string         `json:"fixTime,omitempty"`
	Outdated   bool           `json:"outdated"`
	Valid      bool           `json:"valid"`
	Latitude   float64        `json:"latitude"`
	Longitude  float64        `json:"longitude"`
	Altitude   float64        `json:"altitude"`
	Speed      float64        `json:"speed"`
	Course     float64        `json:"course"`
	Address    string         `json:"address,omitempty"`
	Accuracy   float64        `json:"accuracy"`
	Attributes map[string]any `json:"attributes,omitempty"`

	Raw json.RawMessage `json:"-"`
}

func (p *Position) UnmarshalJSON(data []byte) error {
	type view Position
	return unmarshalRecord(data, &p.Raw, (*view)(p))
}

func (p Position) MarshalJSON() ([]byte, error) {
	type view Position
	return marshalRecord(p.Raw, view(p))
}

// Event is a device event or alert (ignition, geofence, overspeed, ...).
type Event struct {
	ID            int64          `json:"id"`
	Type          string         `json:"type"`
	EventTime     string         `json:"eventTime,omitempty"`
	DeviceID      int64          `json:"deviceId"`
	PositionID    int64          `json:"positionId,omitempty"`
	GeofenceID    int64          `json:"geofenceId,omitempty"`
	MaintenanceID int64          `json:"maintenanceId,omitempty"`
	Attributes    map[string]any `json:"attributes,omitempty"`

	Raw json.RawMessage `json:"-"`
}

func (e *Event) UnmarshalJSON(data []byte) error {
	type view Event
	return unmarshalRecord(data, &e.Raw, (*view)(e))
}

func (e Event) MarshalJSON() ([]byte, error) {
	type view Event
	return marshalRecord(e.Raw, view(e))
}

// Trip is one entry of the Traccar trips report. Distance is in meters, Duration in milliseconds.
type Trip struct {
	DeviceID        int64   `json:"deviceId"`
	DeviceName      string  `json:"deviceName,omitempty"`
	MaxSpeed        float64 `json:"maxSpeed"`
	AverageSpeed    float64 `json:"averageSpeed"`
	Distance        float64 `json:"distance"`
	SpentFuel       float64 `json:"spentFuel"`
	Duration        int64   `json:"duration"`
	StartTime       string  `json:"startTime,omitempty"`
	StartAddress    string  `json:"startAddress,omitempty"`
	StartLat        float64 `json:"startLat"`
	StartLon        float64 `json:"startLon"`
	EndTime         string  `json:"endTime,omitempty"`
	EndAddress      string  `json:"endAddress,omitempty"`
	EndLat          float64 `json:"endLat"`
	EndLon          float64 `json:"endLon"`
	StartOdometer   float64 `json:"startOdometer"`
	EndOdometer     float64 `json:"endOdometer"`
	StartPositionID int64   `json:"startPositionId,omitempty"`
	EndPositionID   int64   `json:"endPositionId,omitempty"`
	DriverUniqueID  string  `json:"driverUniqueId,omitempty"`
	DriverName      string  `json:"driverName,omitempty"`

	Raw json.RawMessage `json:"-"`
}

func (t *Trip) UnmarshalJSON(data []byte) error {
	type view Trip
	return unmarshalRecord(data, &t.Raw, (*view)(t))
}

func (t Trip) MarshalJSON() ([]byte, error) {
	type view Trip
	return marshalRecord(t.Raw, view(t))
}

// User is the profile returned by login.
type User struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	Administrator bool   `json:"administrator"`
}

// LoginResult is the full login response. User is kept as raw JSON so it can be stored as-is.
type LoginResult struct {
	Success bool            `json:"success"`
	Token   string          `json:"token"`
	User    json.RawMessage `json:"user"`
}

// DecodeUser unmarshals the raw user profile.
func (r *LoginResult) DecodeUser() (*User, error) {
	var u User
	if err := json.Unmarshal(r.User, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// ChatMessage is one turn of a chat conversation. Role is "user" or "assistant".
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest asks the assistant about a device. Zero HoursOfData means 24.
type ChatRequest struct {
	DeviceID            int64
	Message             string
	HoursOfData         int
	ConversationHistory []ChatMessage
}

// ChatResponse is the full chat response body.
type ChatResponse struct {
	Response    string          `json:"response"`
	DataSummary ChatDataSummary `json:"data_summary"`

	Raw json.RawMessage `json:"-"`
}

func (r *ChatResponse) UnmarshalJSON(data []byte) error {
	type view ChatResponse
	return unmarshalRecord(data, &r.Raw, (*view)(r))
}

func (r ChatResponse) MarshalJSON() ([]byte, error) {
	type view ChatResponse
	return marshalRecord(r.Raw, view(r))
}

// ChatDataSummary describes the data the assistant was given.
type ChatDataSummary struct {
	PositionsCount int `json:"positions_count"`
	EventsCount    int `json:"events_count"`
	TripsCount     int `json:"trips_count"`
	HoursAnalyzed  int `json:"hours_analyzed"`
}

// HealthStatus is the proxy health response.
type HealthStatus struct {
	Status string `json:"status"`
	// Timestamp is the proxy's local time, without zone.
	Timestamp string `json:"timestamp"`
}

// DeviceDebug is the raw data dump the proxy assembles for one device.
type DeviceDebug struct {
	Device          *Device      `json:"device"`
	CurrentPosition *DebugSample `json:"current_position"`
	PositionHistory *DebugSample `json:"position_history"`
	Route           *DebugSample `json:"route"`
	Events          *DebugSample `json:"events"`
	Trips           *DebugSample `json:"trips"`
	Errors          []string     `json:"errors"`

	Raw json.RawMessage `json:"-"`
}

func (d *DeviceDebug) UnmarshalJSON(data []byte) error {
	type view DeviceDebug
	return unmarshalRecord(data, &d.Raw, (*view)(d))
}

func (d DeviceDebug) MarshalJSON() ([]byte, error) {
	type view DeviceDebug
	return marshalRecord(d.Raw, view(d))
}

// DebugSample is a count plus a slice of the underlying records.
type DebugSample struct {
	Count  int             `json:"count"`
	Data   json.RawMessage `json:"data,omitempty"`
	First5 json.RawMessage `json:"first_5,omitempty"`
	Last5  json.RawMessage `json:"last_5,omitempty"`
}
