// Package traccar is a typed client for the Traccar proxy API. Each resource method issues
// exactly one HTTP request and returns the payload field of the response envelope.
//
// Every request reads the session token at dispatch time and sends it as the Authorization
// header. A 401 response signs the session out, redirects to LoginPath and still fails the call.
package traccar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"traccar-client/internal/telemetry"
)

// Defaults applied by New.
const (
	DefaultBaseURL     = "http://localhost:8000/api"
	DefaultTimeout     = 15 * time.Second
	DefaultChatTimeout = 60 * time.Second
)

// timeLayout is the UTC ISO-8601 form the proxy accepts for from_time/to_time.
const timeLayout = "2006-01-02T15:04:05Z"

// TokenSource supplies the current session token; "" means signed out.
type TokenSource interface {
	Token() string
}

// Unauthorizer clears the session after the backend rejects it.
type Unauthorizer interface {
	Logout(ctx context.Context) error
}

// RequestHook runs on every outgoing request after the default headers are set.
// Returning an error aborts the call before it is sent.
type RequestHook func(req *http.Request) error

// Options configures the endpoint and timeouts. Zero fields take the defaults.
type Options struct {
	BaseURL     string
	Timeout     time.Duration
	ChatTimeout time.Duration
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the instrumented default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithEventEmitter sends one telemetry event per call to emitter.
func WithEventEmitter(emitter telemetry.EventEmitter) Option {
	return func(c *Client) { c.emitter = emitter }
}

// WithRequestHook appends a hook run on every request.
func WithRequestHook(hook RequestHook) Option {
	return func(c *Client) { c.hooks = append(c.hooks, hook) }
}

// Client talks to the proxy API.
type Client struct {
	baseURL     string
	timeout     time.Duration
	chatTimeout time.Duration

	httpClient *http.Client
	tokens     TokenSource
	unauth     Unauthorizer
	nav        Navigator
	hooks      []RequestHook
	emitter    telemetry.EventEmitter

	unauthorized metric.Int64Counter

	Auth      *AuthService
	Devices   *DevicesService
	Positions *PositionsService
	Routes    *RoutesService
	Events    *EventsService
	Trips     *TripsService
	Chat      *ChatService
	Health    *HealthService
	Debug     *DebugService
}

type service struct {
	client *Client
}

// New returns a client for opts.BaseURL. tokens, unauth and nav may be nil: no token is
// sent, and a 401 only fails the call.
func New(opts Options, tokens TokenSource, unauth Unauthorizer, nav Navigator, options ...Option) *Client {
	c := &Client{
		baseURL:     strings.TrimSuffix(opts.BaseURL, "/"),
		timeout:     opts.Timeout,
		chatTimeout: opts.ChatTimeout,
		tokens:      tokens,
		unauth:      unauth,
		nav:         nav,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	if c.chatTimeout <= 0 {
		c.chatTimeout = DefaultChatTimeout
	}
	if c.nav == nil {
		c.nav = noopNavigator{}
	}
	for _, o := range options {
		o(c)
	}
	if c.httpClient == nil {
		// Per-call deadlines come from the request context, so the client itself has no Timeout.
		c.httpClient = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}

	meter := otel.Meter("traccar-client/internal/traccar")
	counter, err := meter.Int64Counter("traccar.client.unauthorized",
		metric.WithDescription("API responses with status 401 that forced a logout"))
	if err != nil {
		log.Printf("traccar: unauthorized counter: %v", err)
	}
	c.unauthorized = counter

	s := service{client: c}
	c.Auth = (*AuthService)(&s)
	c.Devices = (*DevicesService)(&s)
	c.Positions = (*PositionsService)(&s)
	c.Routes = (*RoutesService)(&s)
	c.Events = (*EventsService)(&s)
	c.Trips = (*TripsService)(&s)
	c.Chat = (*ChatService)(&s)
	c.Health = (*HealthService)(&s)
	c.Debug = (*DebugService)(&s)
	return c
}

// BaseURL returns the API base the client sends requests to.
func (c *Client) BaseURL() string { return c.baseURL }

// call describes one request.
type call struct {
	method  string
	path    string
	query   url.Values
	body    any
	timeout time.Duration
}

// do performs c exactly once and decodes a 2xx JSON body into out (when out is non-nil).
// Transport errors are returned unchanged; non-2xx responses become *APIError.
func (c *Client) do(ctx context.Context, cl call, out any) error {
	timeout := cl.timeout
	if timeout <= 0 {
		timeout = c.timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, token, err := c.newRequest(ctx, cl)
	if err != nil {
		return err
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.record(ctx, req, token, 0, time.Since(start), err)
		return err
	}
	defer resp.Body.Close()

	// The status line alone decides the logout; a 401 whose body never arrives still signs out.
	if resp.StatusCode == http.StatusUnauthorized {
		c.handleUnauthorized(ctx, req, token)
	}
	body, err := io.ReadAll(resp.Body)
	c.record(ctx, req, token, resp.StatusCode, time.Since(start), err)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// A truncated error body still yields the status; Body holds whatever was read.
		return newAPIError(req, resp, body)
	}
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	return json.Unmarshal(body, out)
}

// newRequest builds the request and runs the pre-request hooks. It returns the token that
// was attached so telemetry describes exactly what was sent.
func (c *Client) newRequest(ctx context.Context, cl call) (*http.Request, string, error) {
	u := c.baseURL + cl.path
	if len(cl.query) > 0 {
		u += "?" + cl.query.Encode()
	}

	var body io.Reader
	if cl.body != nil {
		b, err := json.Marshal(cl.body)
		if err != nil {
			return nil, "", fmt.Errorf("traccar: encode %s body: %w", cl.path, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, u, body)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	requestID, ok := RequestIDFromContext(ctx)
	if !ok {
		requestID = uuid.New().String()
	}
	req.Header.Set("X-Request-ID", requestID)

	var token string
	if c.tokens != nil {
		token = c.tokens.Token()
	}
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	for _, hook := range c.hooks {
		if err := hook(req); err != nil {
			return nil, "", err
		}
	}
	return req, token, nil
}

// handleUnauthorized signs the session out and navigates to the login view. It runs once per
// 401 response. The logout uses a context detached from the call deadline so it always completes.
func (c *Client) handleUnauthorized(ctx context.Context, req *http.Request, token string) {
	detached := context.WithoutCancel(ctx)
	if c.unauthorized != nil {
		c.unauthorized.Add(detached, 1)
	}
	c.recordUnauthorized(detached, req, token)
	if c.unauth != nil {
		if err := c.unauth.Logout(detached); err != nil {
			log.Printf("traccar: logout after 401 on %s: %v", req.URL.Path, err)
		}
	}
	c.nav.Redirect(detached, LoginPath)
}

func newAPIError(req *http.Request, resp *http.Response, body []byte) *APIError {
	e := &APIError{
		Method:     req.Method,
		Path:       req.URL.Path,
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       body,
	}
	var detail struct {
		Detail any `json:"detail"`
	}
	if json.Unmarshal(body, &detail) == nil && detail.Detail != nil {
		switch d := detail.Detail.(type) {
		case string:
			e.Detail = d
		default:
			if b, err := json.Marshal(d); err == nil {
				e.Detail = string(b)
			}
		}
	}
	return e
}

// GetField issues GET path?query and decodes the named field of the JSON envelope into out.
// A missing field leaves out untouched.
func (c *Client) GetField(ctx context.Context, path string, query url.Values, field string, out any) error {
	var envelope map[string]json.RawMessage
	if err := c.do(ctx, call{method: http.MethodGet, path: path, query: query}, &envelope); err != nil {
		return err
	}
	raw, ok := envelope[field]
	if !ok {
		return nil
	}
	return json.Unmarshal(raw, out)
}

// getField is the typed form of GetField used by the resource services.
func getField[T any](ctx context.Context, c *Client, path string, query url.Values, field string) (T, error) {
	var out T
	err := c.GetField(ctx, path, query, field, &out)
	return out, err
}

// rangeQuery builds the device_id/from_time/to_time query used by the history endpoints.
func rangeQuery(deviceID int64, from, to time.Time) url.Values {
	q := url.Values{}
	q.Set("device_id", formatID(deviceID))
	q.Set("from_time", formatTime(from))
	q.Set("to_time", formatTime(to))
	return q
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}
