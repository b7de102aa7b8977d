package storage

import (
	"context"
	"errors"

	"traccar-client/internal/security"
)

// Sealed wraps a Storage and encrypts every value at rest. Values are bound to their key.
// Plain values written before sealing was enabled are returned as-is so an existing session
// survives turning SESSION_SEAL_KEY on; they are sealed on the next write.
type Sealed struct {
	Inner  Storage
	Sealer *security.Sealer
}

// NewSealed returns a sealing decorator around inner.
func NewSealed(inner Storage, sealer *security.Sealer) *Sealed {
	return &Sealed{Inner: inner, Sealer: sealer}
}

// GetItem reads and decrypts key.
func (s *Sealed) GetItem(ctx context.Context, key string) (string, error) {
	v, err := s.Inner.GetItem(ctx, key)
	if err != nil {
		return "", err
	}
	plain, err := s.Sealer.Open(v, key)
	if errors.Is(err, security.ErrNotSealed) {
		return v, nil
	}
	return plain, err
}

// SetItem encrypts value and writes it under key.
func (s *Sealed) SetItem(ctx context.Context, key, value string) error {
	sealed, err := s.Sealer.Seal(value, key)
	if err != nil {
		return err
	}
	return s.Inner.SetItem(ctx, key, sealed)
}

// RemoveItem deletes key.
func (s *Sealed) RemoveItem(ctx context.Context, key string) error {
	return s.Inner.RemoveItem(ctx, key)
}

// Close closes the wrapped storage.
func (s *Sealed) Close() error { return s.Inner.Close() }
