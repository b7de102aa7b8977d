// Package session holds the client-side auth session: the Traccar token, the signed-in user
// and the backend URL. Every mutation is mirrored synchronously to an injected storage.Storage,
// and listeners are notified with the new state.
package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"traccar-client/internal/storage"
)

// Storage keys, shared with the web front-end's local storage layout.
const (
	KeyToken = "traccar_token"
	KeyUser  = "traccar_user"
	KeyURL   = "traccar_url"
)

// DefaultBackendURL is used when no backend URL has been persisted.
const DefaultBackendURL = "https://demo2.traccar.org"

// Snapshot is a copy of the session state at one point in time.
type Snapshot struct {
	Token      string
	User       json.RawMessage
	BackendURL string
	// Version increases by one on every mutation. Listeners run outside the store lock and
	// may see snapshots out of order; a lower Version is older.
	Version uint64
}

// IsAuthenticated reports whether the snapshot carries a token.
func (s Snapshot) IsAuthenticated() bool { return s.Token != "" }

// Listener is called after every mutation with the resulting state.
type Listener func(ctx context.Context, snap Snapshot)

// Store is the auth session. Reads are safe from any goroutine; writes are last-write-wins.
type Store struct {
	storage storage.Storage

	mu         sync.RWMutex
	token      string
	user       json.RawMessage
	backendURL string
	version    uint64

	lmu       sync.Mutex
	nextID    int
	listeners map[int]Listener
}

// Open loads the session persisted in st. A missing URL falls back to defaultURL, or
// DefaultBackendURL when defaultURL is empty. A stored user of "null" is treated as absent.
func Open(ctx context.Context, st storage.Storage, defaultURL string) (*Store, error) {
	if defaultURL == "" {
		defaultURL = DefaultBackendURL
	}
	s := &Store{storage: st, listeners: make(map[int]Listener)}

	token, err := getOptional(ctx, st, KeyToken)
	if err != nil {
		return nil, err
	}
	rawUser, err := getOptional(ctx, st, KeyUser)
	if err != nil {
		return nil, err
	}
	url, err := getOptional(ctx, st, KeyURL)
	if err != nil {
		return nil, err
	}

	s.token = token
	if rawUser != "" {
		if !json.Valid([]byte(rawUser)) {
			return nil, fmt.Errorf("session: stored %s is not valid JSON", KeyUser)
		}
		s.user = normalizeUser(json.RawMessage(rawUser))
	}
	s.backendURL = url
	if s.backendURL == "" {
		s.backendURL = defaultURL
	}
	return s, nil
}

func getOptional(ctx context.Context, st storage.Storage, key string) (string, error) {
	v, err := st.GetItem(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("session: read %s: %w", key, err)
	}
	return v, nil
}

// normalizeUser maps JSON null to absent.
func normalizeUser(u json.RawMessage) json.RawMessage {
	if len(u) == 0 || bytes.Equal(bytes.TrimSpace(u), []byte("null")) {
		return nil
	}
	return u
}

// Token returns the current token, or "" when signed out.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User returns the raw JSON of the signed-in user, or nil.
func (s *Store) User() json.RawMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append(json.RawMessage(nil), s.user...)
}

// BackendURL returns the Traccar server URL the session belongs to.
func (s *Store) BackendURL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.backendURL
}

// IsAuthenticated reports whether a token is present.
func (s *Store) IsAuthenticated() bool {
	return s.Token() != ""
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{
		Token:      s.token,
		User:       append(json.RawMessage(nil), s.user...),
		BackendURL: s.backendURL,
		Version:    s.version,
	}
}

// DecodeUser unmarshals the stored user into v. It returns false when no user is present.
func (s *Store) DecodeUser(v any) (bool, error) {
	u := s.User()
	if u == nil {
		return false, nil
	}
	if err := json.Unmarshal(u, v); err != nil {
		return false, fmt.Errorf("session: decode user: %w", err)
	}
	return true, nil
}

// SetAuth overwrites token, user and backend URL, in memory first and then in storage.
// user may be nil, which is persisted as JSON null.
func (s *Store) SetAuth(ctx context.Context, token string, user json.RawMessage, backendURL string) error {
	if user != nil && !json.Valid(user) {
		return fmt.Errorf("session: user is not valid JSON")
	}
	s.mu.Lock()
	s.token = token
	s.user = normalizeUser(append(json.RawMessage(nil), user...))
	s.backendURL = backendURL
	s.version++
	snap := s.snapshotLocked()
	s.mu.Unlock()

	userJSON := "null"
	if snap.User != nil {
		userJSON = string(snap.User)
	}
	err := errors.Join(
		wrapWrite(KeyToken, s.storage.SetItem(ctx, KeyToken, token)),
		wrapWrite(KeyUser, s.storage.SetItem(ctx, KeyUser, userJSON)),
		wrapWrite(KeyURL, s.storage.SetItem(ctx, KeyURL, backendURL)),
	)
	s.notify(ctx, snap)
	return err
}

// Logout clears token and user in memory and removes them from storage.
// The backend URL is kept so the next login can default to it.
func (s *Store) Logout(ctx context.Context) error {
	s.mu.Lock()
	s.token = ""
	s.user = nil
	s.version++
	snap := s.snapshotLocked()
	s.mu.Unlock()

	err := errors.Join(
		wrapWrite(KeyToken, s.storage.RemoveItem(ctx, KeyToken)),
		wrapWrite(KeyUser, s.storage.RemoveItem(ctx, KeyUser)),
	)
	s.notify(ctx, snap)
	return err
}

func wrapWrite(key string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("session: write %s: %w", key, err)
}

// Subscribe registers fn to run after every mutation. The returned func removes it.
func (s *Store) Subscribe(fn Listener) (unsubscribe func()) {
	s.lmu.Lock()
	defer s.lmu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	return func() {
		s.lmu.Lock()
		defer s.lmu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *Store) notify(ctx context.Context, snap Snapshot) {
	s.lmu.Lock()
	fns := make([]Listener, 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.lmu.Unlock()
	for _, fn := range fns {
		fn(ctx, snap)
	}
}
