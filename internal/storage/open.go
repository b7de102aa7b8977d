package storage

import (
	"context"
	"fmt"

	"traccar-client/internal/db"
	"traccar-client/internal/security"
)

// Backend names accepted by Open.
const (
	BackendMemory   = "memory"
	BackendBolt     = "bolt"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Options selects and configures a backend for Open.
type Options struct {
	Backend     string
	BoltPath    string
	RedisURL    string
	RedisPrefix string
	DatabaseURL string
	Namespace   string
	// SealKey, when set, wraps the backend in Sealed.
	SealKey string
}

// Open returns the configured backend. The caller must Close it.
func Open(ctx context.Context, opts Options) (Storage, error) {
	var (
		s   Storage
		err error
	)
	switch opts.Backend {
	case BackendMemory:
		s = NewMemoryStorage()
	case BackendBolt, "":
		s, err = OpenBolt(opts.BoltPath)
	case BackendRedis:
		s, err = OpenRedis(ctx, opts.RedisURL, opts.RedisPrefix)
	case BackendPostgres:
		conn, openErr := db.Open(opts.DatabaseURL)
		if openErr != nil {
			return nil, fmt.Errorf("storage: open postgres: %w", openErr)
		}
		s = NewPostgresStorage(conn, opts.Namespace)
	default:
		return nil, fmt.Errorf("storage: unknown backend %q", opts.Backend)
	}
	if err != nil {
		return nil, err
	}
	if opts.SealKey == "" {
		return s, nil
	}
	sealer, err := security.NewSealer(opts.SealKey)
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("storage: seal key: %w", err)
	}
	return NewSealed(s, sealer), nil
}
