package audit

import (
	"encoding/json"

	"traccar-client/internal/session"
	"traccar-client/internal/telemetry"
)

// Transition derives the audit action for a session change from prev to next.
// A new or replaced token is a login; losing the token is a logout. Changes that keep the
// same token (e.g. only the backend URL moved) are not audited.
func Transition(prev, next session.Snapshot) (action string, ok bool) {
	switch {
	case next.IsAuthenticated() && next.Token != prev.Token:
		return telemetry.EventSessionLogin, true
	case prev.IsAuthenticated() && !next.IsAuthenticated():
		return telemetry.EventSessionLogout, true
	}
	return "", false
}

// userID returns the "id" field of a stored user profile, or "" when the profile is absent
// or has no id.
func userID(user json.RawMessage) string {
	if len(user) == 0 {
		return ""
	}
	var u struct {
		ID json.Number `json:"id"`
	}
	if err := json.Unmarshal(user, &u); err != nil {
		return ""
	}
	return u.ID.String()
}
