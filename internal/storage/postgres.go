package storage

import (
	"context"
	"database/sql"
	"errors"
)

// PostgresStorage keeps items in the client_storage table, one row per (namespace, key).
// Several CLI profiles can share a database by using different namespaces.
// The table is created by the migrations in internal/db.
type PostgresStorage struct {
	db        *sql.DB
	namespace string
}

// NewPostgresStorage returns a storage backed by db for the given namespace.
func NewPostgresStorage(db *sql.DB, namespace string) *PostgresStorage {
	if namespace == "" {
		namespace = "default"
	}
	return &PostgresStorage{db: db, namespace: namespace}
}

// GetItem returns the value for key, or ErrNotFound.
func (s *PostgresStorage) GetItem(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM client_storage WHERE namespace = $1 AND key = $2`,
		s.namespace, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

// SetItem upserts value under key.
func (s *PostgresStorage) SetItem(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO client_storage (namespace, key, value, updated_at)
		 VALUES ($1, $2, $3, now())
		 ON CONFLICT (namespace, key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		s.namespace, key, value,
	)
	return err
}

// RemoveItem deletes key.
func (s *PostgresStorage) RemoveItem(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM client_storage WHERE namespace = $1 AND key = $2`,
		s.namespace, key,
	)
	return err
}

// Namespace returns the namespace this storage reads and writes.
func (s *PostgresStorage) Namespace() string { return s.namespace }

// Keys lists the keys stored in the namespace, sorted.
func (s *PostgresStorage) Keys(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key FROM client_storage WHERE namespace = $1 ORDER BY key`,
		s.namespace,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// Close closes the underlying database handle.
func (s *PostgresStorage) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
