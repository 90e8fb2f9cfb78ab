package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/frahmantamala/appraisal-portal/internal"
)

const maxBodyBytes = 4 << 20

var ErrContractViolation = errors.New("request violates backend contract")

type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client talks JSON to the appraisal backend. Every call carries the caller's
// bearer token; none is retried.
type Client struct {
	baseURL  string
	http     *http.Client
	contract *Contract
	logger   *slog.Logger
}

type Option func(*Client)

// WithContract validates every request before it leaves the process.
func WithContract(c *Contract) Option {
	return func(cl *Client) { cl.contract = c }
}

func WithHTTPClient(h *http.Client) Option {
	return func(cl *Client) {
		if h != nil {
			cl.http = h
		}
	}
}

func NewClient(cfg Config, logger *slog.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) Get(ctx context.Context, token, path string, out interface{}) error {
	return c.do(ctx, http.MethodGet, token, path, nil, out)
}

func (c *Client) Post(ctx context.Context, token, path string, body, out interface{}) error {
	return c.do(ctx, http.MethodPost, token, path, body, out)
}

// Ping reports whether the backend answers HTTP at all; any status counts.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
	return nil
}

func (c *Client) do(ctx context.Context, method, token, path string, body, out interface{}) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
	}

	if c.contract != nil {
		check, err := c.newRequest(ctx, method, token, path, payload)
		if err != nil {
			return err
		}
		if err := c.contract.Validate(ctx, check); err != nil {
			c.logger.ErrorContext(ctx, "backend contract violation", "method", method, "path", path, "error", err)
			return fmt.Errorf("%w: %v", ErrContractViolation, err)
		}
	}

	req, err := c.newRequest(ctx, method, token, path, payload)
	if err != nil {
		return err
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.WarnContext(ctx, "backend request failed", "method", method, "path", path, "error", err)
		return internal.NewExternalError("appraisal service unavailable", internal.ErrCodeBackendUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return internal.NewExternalError("failed to read backend response", internal.ErrCodeBackendUnavailable, err)
	}

	c.logger.DebugContext(ctx, "backend request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    messageFrom(data),
			Method:     method,
			Path:       path,
		}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return internal.NewExternalError("unexpected backend response", internal.ErrCodeBackendRejected,
			fmt.Errorf("decode %s %s: %w", method, path, err))
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, token, path string, payload []byte) (*http.Request, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}
