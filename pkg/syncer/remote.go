package syncer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"sweetbox/pkg/engine"
	"sweetbox/pkg/models"
)

// ErrEndpointMissing means the backend has no per-entity route for a write.
// The coordinator answers it with a bulk push; it never reaches the user.
var ErrEndpointMissing = errors.New("entity endpoint missing")

// Remote is the backend store the coordinator reconciles against.
type Remote interface {
	FetchState(ctx context.Context) (models.Snapshot, error)
	PushState(ctx context.Context, snap models.Snapshot) error
	Put(ctx context.Context, kind engine.EntityKind, id string, record interface{}) error
	Delete(ctx context.Context, kind engine.EntityKind, id string) error
}

var endpoints = map[engine.EntityKind]string{
	engine.KindUsers:          "users",
	engine.KindOrders:         "orders",
	engine.KindInventory:      "inventory",
	engine.KindAttendanceLogs: "attendance-logs",
	engine.KindUsageLogs:      "inventory-usage-logs",
	engine.KindRequests:       "requests",
}

// Endpoint returns the REST collection path for kind. Sales history has none.
func Endpoint(kind engine.EntityKind) (string, bool) {
	p, ok := endpoints[kind]
	return p, ok
}

const defaultTimeout = 10 * time.Second

// HTTPError is a non-2xx backend answer other than the endpoint-missing 404.
type HTTPError struct {
	Method  string
	Path    string
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, e.Message)
	}
	return fmt.Sprintf("%s %s: %d", e.Method, e.Path, e.Status)
}

// Client talks to the sweetbox backend over HTTP.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithToken sets the bearer token sent on every request.
func WithToken(token string) ClientOption {
	return func(c *Client) { c.token = token }
}

// NewClient creates a backend client rooted at baseURL (e.g. "http://localhost:5500").
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetToken replaces the bearer token.
func (c *Client) SetToken(token string) {
	c.token = token
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal %s body: %w", path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var msg struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&msg)
		return &HTTPError{Method: method, Path: path, Status: resp.StatusCode, Message: msg.Message}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func entityPath(kind engine.EntityKind, id string) (string, error) {
	p, ok := Endpoint(kind)
	if !ok {
		return "", ErrEndpointMissing
	}
	return "/api/" + p + "/" + url.PathEscape(id), nil
}

// endpointMissing turns a 404 on an entity route into ErrEndpointMissing.
func endpointMissing(err error) error {
	var he *HTTPError
	if errors.As(err, &he) && he.Status == http.StatusNotFound {
		return fmt.Errorf("%w: %s %s", ErrEndpointMissing, he.Method, he.Path)
	}
	return err
}

// FetchState downloads the full snapshot.
func (c *Client) FetchState(ctx context.Context) (models.Snapshot, error) {
	var snap models.Snapshot
	err := c.do(ctx, http.MethodGet, "/api/state", nil, &snap)
	return snap, err
}

// PushState uploads the full snapshot.
func (c *Client) PushState(ctx context.Context, snap models.Snapshot) error {
	return c.do(ctx, http.MethodPost, "/api/state", snap, nil)
}

// Put upserts one record through its entity endpoint.
func (c *Client) Put(ctx context.Context, kind engine.EntityKind, id string, record interface{}) error {
	path, err := entityPath(kind, id)
	if err != nil {
		return err
	}
	return endpointMissing(c.do(ctx, http.MethodPut, path, record, nil))
}

// Delete removes one record through its entity endpoint.
func (c *Client) Delete(ctx context.Context, kind engine.EntityKind, id string) error {
	path, err := entityPath(kind, id)
	if err != nil {
		return err
	}
	return endpointMissing(c.do(ctx, http.MethodDelete, path, nil, nil))
}

// Session is the sign-in answer.
type Session struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

// SignIn exchanges an employee id and PIN for a bearer token.
func (c *Client) SignIn(ctx context.Context, userID, pin string) (Session, error) {
	var out Session
	body := map[string]string{"userId": userID, "pin": pin}
	if err := c.do(ctx, http.MethodPost, "/api/auth/sign-in", body, &out); err != nil {
		return Session{}, err
	}
	c.token = out.Token
	return out, nil
}
