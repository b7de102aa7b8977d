package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/boltdb/bolt"
)

var boltBucket = []byte("local_storage")

// BoltStorage persists items in a single bolt bucket. It is the default backend for the CLI,
// where it plays the role browser local storage plays for the web front-end.
type BoltStorage struct {
	db *bolt.DB
}

// OpenBolt opens (or creates) the bolt file at path and ensures the bucket exists.
func OpenBolt(path string) (*BoltStorage, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("storage: open bolt %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(boltBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("storage: create bucket: %w", err)
	}
	return &BoltStorage{db: db}, nil
}

// GetItem returns the value for key, or ErrNotFound.
func (s *BoltStorage) GetItem(ctx context.Context, key string) (string, error) {
	var value string
	found := false
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(boltBucket).Get([]byte(key))
		if v != nil {
			// v is only valid inside the transaction.
			value = string(v)
			found = true
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	if !found {
		return "", ErrNotFound
	}
	return value, nil
}

// SetItem stores value under key in its own write transaction.
func (s *BoltStorage) SetItem(ctx context.Context, key, value string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(boltBucket).Put([]byte(key), []byte(value))
	})
}

// RemoveItem deletes key.
func (s *BoltStorage) RemoveItem(ctx context.Context, key string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(boltBucket).Delete([]byte(key))
	})
}

// Close closes the bolt file.
func (s *BoltStorage) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
