package traccar

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
)

// staticToken is a TokenSource whose value can change between calls.
type staticToken struct {
	mu    sync.Mutex
	token string
}

func (s *staticToken) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

func (s *staticToken) set(token string) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
}

// recordingSession counts Logout calls.
type recordingSession struct {
	mu      sync.Mutex
	logouts int
	err     error
}

func (r *recordingSession) Logout(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logouts++
	return r.err
}

func (r *recordingSession) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.logouts
}

// recordingNavigator remembers every redirect target.
type recordingNavigator struct {
	mu    sync.Mutex
	paths []string
}

func (n *recordingNavigator) Redirect(_ context.Context, path string) {
	n.mu.Lock()
	n.paths = append(n.paths, path)
	n.mu.Unlock()
}

func (n *recordingNavigator) redirects() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.paths...)
}

type harness struct {
	client  *Client
	tokens  *staticToken
	session *recordingSession
	nav     *recordingNavigator
}

// newHarness serves r under /api and returns a client pointed at it.
func newHarness(t *testing.T, r chi.Router) *harness {
	t.Helper()
	root := chi.NewRouter()
	root.Mount("/api", r)
	srv := httptest.NewServer(root)
	t.Cleanup(srv.Close)

	h := &harness{
		tokens:  &staticToken{},
		session: &recordingSession{},
		nav:     &recordingNavigator{},
	}
	h.client = New(Options{BaseURL: srv.URL + "/api"}, h.tokens, h.session, h.nav, WithHTTPClient(srv.Client()))
	return h
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestNew_Defaults(t *testing.T) {
	c := New(Options{}, nil, nil, nil)
	if c.BaseURL() != DefaultBaseURL {
		t.Errorf("BaseURL = %q, want %q", c.BaseURL(), DefaultBaseURL)
	}
	if c.timeout != DefaultTimeout {
		t.Errorf("timeout = %v, want %v", c.timeout, DefaultTimeout)
	}
	if c.chatTimeout != DefaultChatTimeout {
		t.Errorf("chatTimeout = %v, want %v", c.chatTimeout, DefaultChatTimeout)
	}
	if c.httpClient == nil {
		t.Error("httpClient should default to an instrumented client")
	}
}

func TestNew_TrimsTrailingSlash(t *testing.T) {
	c := New(Options{BaseURL: "http://proxy.local/api/"}, nil, nil, nil)
	if c.BaseURL() != "http://proxy.local/api" {
		t.Errorf("BaseURL = %q, want trailing slash removed", c.BaseURL())
	}
}

func TestDo_DefaultHeaders(t *testing.T) {
	var got http.Header
	r := chi.NewRouter()
	r.Get("/devices", func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		writeJSON(w, http.StatusOK, map[string]any{"devices": []any{}})
	})
	h := newHarness(t, r)

	if _, err := h.client.Devices.List(context.Background()); err != nil {
		t.Fatalf("List: %v", err)
	}
	if got.Get("Content-Type") != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", got.Get("Content-Type"))
	}
	if got.Get("Accept") != "application/json" {
		t.Errorf("Accept = %q, want application/json", got.Get("Accept"))
	}
	if got.Get("X-Request-ID") == "" {
		t.Error("X-Request-ID should be set")
	}
	if _, ok := got["Authorization"]; ok {
		t.Errorf("Authorization should be absent without a token, got %q", got.Get("Authorization"))
	}
}

func TestDo_TokenReadAtDispatch(t *testing.T) {
	var seen []string
	r := chi.NewRouter()
	r.Get("/devices", func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, map[string]any{"devices": []any{}})
	})
	h := newHarness(t, r)
	ctx := context.Background()

	h.tokens.set("abc")
	if _, err := h.client.Devices.List(ctx); err != nil {
		t.Fatalf("List: %v", err)
	}
	h.tokens.set("xyz")
	if _, err := h.client.Devices.List(ctx); err != nil {
		t.Fatalf("List: %v", err)
	}

	want := []string{"abc", "xyz"}
	if len(seen) != len(want) {
		t.Fatalf("requests = %d, want %d", len(seen), len(want))
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("request %d Authorization = %q, want %q", i, seen[i], want[i])
		}
	}
}

func TestDo_RequestIDFromContext(t *testing.T) {
	var got string
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("X-Request-ID")
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})
	h := newHarness(t, r)

	ctx := WithRequestID(context.Background(), "req-42")
	if _, err := h.client.Health.Check(ctx); err != nil {
		t.Fatalf("Check: %v", err)
	}
	if got != "req-42" {
		t.Errorf("X-Request-ID = %q, want req-42", got)
	}
}

func TestDo_Unauthorized(t *testing.T) {
	tests := []struct {
		name   string
		method string
		route  string
		call   func(ctx context.Context, c *Client) error
	}{
		{"devices", http.MethodGet, "/devices", func(ctx context.Context, c *Client) error {
			_, err := c.Devices.List(ctx)
			return err
		}},
		{"login", http.MethodPost, "/auth/login", func(ctx context.Context, c *Client) error {
			_, err := c.Auth.Login(ctx, "http://traccar.local", "admin", "wrong")
			return err
		}},
		{"chat", http.MethodPost, "/chat", func(ctx context.Context, c *Client) error {
			_, err := c.Chat.Send(ctx, ChatRequest{DeviceID: 1, Message: "status?"})
			return err
		}},
		{"events", http.MethodGet, "/events", func(ctx context.Context, c *Client) error {
			_, err := c.Events.List(ctx, EventsQuery{DeviceID: 1})
			return err
		}},
		{"debug", http.MethodGet, "/debug/device/{id}", func(ctx context.Context, c *Client) error {
			_, err := c.Debug.Device(ctx, 1, 0)
			return err
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			r := chi.NewRouter()
			r.MethodFunc(tt.method, tt.route, func(w http.ResponseWriter, r *http.Request) {
				calls++
				writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Invalid token"})
			})
			h := newHarness(t, r)
			h.tokens.set("stale")

			err := tt.call(context.Background(), h.client)
			if err == nil {
				t.Fatal("expected error for 401")
			}
			if !errors.Is(err, ErrUnauthorized) {
				t.Errorf("errors.Is(err, ErrUnauthorized) = false, err = %v", err)
			}
			if StatusCode(err) != http.StatusUnauthorized {
				t.Errorf("StatusCode = %d, want 401", StatusCode(err))
			}
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("err = %T, want *APIError", err)
			}
			if apiErr.Detail != "Invalid token" {
				t.Errorf("Detail = %q, want Invalid token", apiErr.Detail)
			}
			if calls != 1 {
				t.Errorf("server calls = %d, want 1 (no retry)", calls)
			}
			if h.session.count() != 1 {
				t.Errorf("logouts = %d, want 1", h.session.count())
			}
			if got := h.nav.redirects(); len(got) != 1 || got[0] != LoginPath {
				t.Errorf("redirects = %v, want [%s]", got, LoginPath)
			}
		})
	}
}

func TestDo_UnauthorizedBodyCutShort(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/devices", func(w http.ResponseWriter, r *http.Request) {
		conn, buf, err := w.(http.Hijacker).Hijack()
		if err != nil {
			t.Errorf("hijack: %v", err)
			return
		}
		defer conn.Close()
		_, _ = buf.WriteString("HTTP/1.1 401 Unauthorized\r\nContent-Type: application/json\r\nContent-Length: 64\r\n\r\n{\"detail\":")
		_ = buf.Flush()
	})
	h := newHarness(t, r)
	h.tokens.set("stale")

	_, err := h.client.Devices.List(context.Background())
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
	if h.session.count() != 1 {
		t.Errorf("logouts = %d, want 1", h.session.count())
	}
	if got := h.nav.redirects(); len(got) != 1 || got[0] != LoginPath {
		t.Errorf("redirects = %v, want [%s]", got, LoginPath)
	}
}

func TestDo_UnauthorizedLogoutFailureStillRedirects(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/devices", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	h := newHarness(t, r)
	h.session.err = errors.New("disk full")

	_, err := h.client.Devices.List(context.Background())
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
	if got := h.nav.redirects(); len(got) != 1 {
		t.Errorf("redirects = %v, want one", got)
	}
}

func TestDo_OtherErrorsDoNotLogout(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		detail string
	}{
		{"forbidden", http.StatusForbidden, `{"detail":"nope"}`, "nope"},
		{"not found", http.StatusNotFound, `{"detail":"Device not found"}`, "Device not found"},
		{"server error", http.StatusInternalServerError, `boom`, ""},
		{"validation", http.StatusUnprocessableEntity, `{"detail":[{"loc":["query","device_id"]}]}`, `[{"loc":["query","device_id"]}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := chi.NewRouter()
			r.Get("/devices", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			h := newHarness(t, r)

			_, err := h.client.Devices.List(context.Background())
			if err == nil {
				t.Fatal("expected error")
			}
			if errors.Is(err, ErrUnauthorized) {
				t.Error("non-401 error must not match ErrUnauthorized")
			}
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("err = %T, want *APIError", err)
			}
			if apiErr.StatusCode != tt.status {
				t.Errorf("StatusCode = %d, want %d", apiErr.StatusCode, tt.status)
			}
			if apiErr.Detail != tt.detail {
				t.Errorf("Detail = %q, want %q", apiErr.Detail, tt.detail)
			}
			if string(apiErr.Body) != tt.body {
				t.Errorf("Body = %q, want %q", apiErr.Body, tt.body)
			}
			if h.session.count() != 0 {
				t.Errorf("logouts = %d, want 0", h.session.count())
			}
			if got := h.nav.redirects(); len(got) != 0 {
				t.Errorf("redirects = %v, want none", got)
			}
		})
	}
}

func TestDo_MalformedBody(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/devices", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"devices": [`))
	})
	h := newHarness(t, r)

	_, err := h.client.Devices.List(context.Background())
	if err == nil {
		t.Fatal("expected decode error")
	}
	if StatusCode(err) != 0 {
		t.Errorf("StatusCode = %d, want 0 for a decode error", StatusCode(err))
	}
}

func TestDo_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	sess := &recordingSession{}
	c := New(Options{BaseURL: base + "/api"}, nil, sess, nil)
	_, err := c.Devices.List(context.Background())
	if err == nil {
		t.Fatal("expected transport error")
	}
	if StatusCode(err) != 0 {
		t.Errorf("StatusCode = %d, want 0", StatusCode(err))
	}
	if sess.count() != 0 {
		t.Errorf("logouts = %d, want 0", sess.count())
	}
}

func TestDo_Timeout(t *testing.T) {
	release := make(chan struct{})
	r := chi.NewRouter()
	r.Get("/devices", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	root := chi.NewRouter()
	root.Mount("/api", r)
	srv := httptest.NewServer(root)
	defer srv.Close()
	defer close(release)

	c := New(Options{BaseURL: srv.URL + "/api", Timeout: 50 * time.Millisecond}, nil, nil, nil, WithHTTPClient(srv.Client()))
	_, err := c.Devices.List(context.Background())
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want context.DeadlineExceeded", err)
	}
}

func TestDo_RequestHook(t *testing.T) {
	var got string
	r := chi.NewRouter()
	r.Get("/devices", func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("X-Client")
		writeJSON(w, http.StatusOK, map[string]any{"devices": []any{}})
	})
	root := chi.NewRouter()
	root.Mount("/api", r)
	srv := httptest.NewServer(root)
	defer srv.Close()

	hook := func(req *http.Request) error {
		req.Header.Set("X-Client", "traccarctl")
		return nil
	}
	c := New(Options{BaseURL: srv.URL + "/api"}, nil, nil, nil, WithHTTPClient(srv.Client()), WithRequestHook(hook))
	if _, err := c.Devices.List(context.Background()); err != nil {
		t.Fatalf("List: %v", err)
	}
	if got != "traccarctl" {
		t.Errorf("X-Client = %q, want traccarctl", got)
	}

	failing := New(Options{BaseURL: srv.URL + "/api"}, nil, nil, nil,
		WithHTTPClient(srv.Client()),
		WithRequestHook(func(*http.Request) error { return errors.New("blocked") }))
	if _, err := failing.Devices.List(context.Background()); err == nil || !strings.Contains(err.Error(), "blocked") {
		t.Errorf("err = %v, want hook error", err)
	}
}

func TestGetField_MissingFieldIsZero(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/devices", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"other": 1})
	})
	h := newHarness(t, r)

	devices, err := h.client.Devices.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if devices != nil {
		t.Errorf("devices = %v, want nil", devices)
	}
}

func TestFormatTime(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	got := formatTime(time.Date(2024, 3, 1, 7, 30, 0, 0, loc))
	if got != "2024-03-01T12:30:00Z" {
		t.Errorf("formatTime = %q, want 2024-03-01T12:30:00Z", got)
	}
}
