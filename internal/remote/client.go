// Package remote is the client side of the Remote Store Gateway.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/StrangeCoder-atWork/The-Leveling-System-sub000/pkg/models"
)

const DefaultTimeout = 10 * time.Second

var (
	// ErrUnauthorized is matched by a 401 StatusError
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNoDocument means the user has never pushed
	ErrNoDocument = errors.New("no remote document")
)

// StatusError is a non-2xx gateway response
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("gateway returned status %d", e.Code)
	}
	return fmt.Sprintf("gateway returned status %d: %s", e.Code, e.Message)
}

// Is lets errors.Is match ErrUnauthorized on 401 responses
func (e *StatusError) Is(target error) bool {
	return target == ErrUnauthorized && e.Code == http.StatusUnauthorized
}

// Client talks to the gateway on behalf of one authenticated user
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a client for the gateway at baseURL
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
}

// WithHTTPClient replaces the underlying HTTP client
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// WithTimeout sets the per-request timeout
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	c.httpClient.Timeout = timeout
	return c
}

// Push overwrites the user's remote document with env
func (c *Client) Push(ctx context.Context, env models.SyncEnvelope) error {
	return c.do(ctx, http.MethodPost, "/sync", env, nil)
}

// FetchDocument returns the user's remote document, or ErrNoDocument
func (c *Client) FetchDocument(ctx context.Context) (*models.UserDocument, error) {
	var doc models.UserDocument
	if err := c.do(ctx, http.MethodGet, "/sync", nil, &doc); err != nil {
		var se *StatusError
		if errors.As(err, &se) && se.Code == http.StatusNotFound {
			return nil, ErrNoDocument
		}
		return nil, err
	}
	return &doc, nil
}

// FetchStreaks returns the user's streak counters and history
func (c *Client) FetchStreaks(ctx context.Context) (models.StreaksResponse, error) {
	var resp models.StreaksResponse
	err := c.do(ctx, http.MethodGet, "/progress/streaks", nil, &resp)
	return resp, err
}

// UpdateProgress records one activity for a date
func (c *Client) UpdateProgress(ctx context.Context, upd models.ProgressUpdate) error {
	return c.do(ctx, http.MethodPost, "/progress/update", upd, nil)
}

// Health checks reachability of the gateway
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodHead, "/health", nil, nil)
}

// Post sends an arbitrary authenticated JSON request, used by the agent
// commands
func (c *Client) Post(ctx context.Context, path string, in, out interface{}) error {
	return c.do(ctx, http.MethodPost, path, in, out)
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	// reachability and sync state must never come from an intermediate cache
	req.Header.Set("Cache-Control", "no-cache")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil || method == http.MethodHead {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	se := &StatusError{Code: resp.StatusCode}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var body models.ErrorResponse
	if json.Unmarshal(data, &body) == nil && body.Error != "" {
		se.Message = body.Error
	} else {
		se.Message = strings.TrimSpace(string(data))
	}
	return se
}
