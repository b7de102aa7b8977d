// Package security holds the credential helpers: token fingerprints for telemetry and the
// sealer used to encrypt stored session values.
package security

import (
	"crypto/sha256"
	"encoding/hex"
)

// TokenFingerprint returns a hex-encoded SHA-256 of the session token.
// Telemetry and logs carry the fingerprint so the raw credential never leaves the process.
// An empty token has an empty fingerprint.
func TokenFingerprint(token string) string {
	if token == "" {
		return ""
	}
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}
