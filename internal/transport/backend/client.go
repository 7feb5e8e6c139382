// Package backend is the HTTP client and schema mapping for the resource
// search backend.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"

	"github.com/alonsovargas3/commonlight-crisis-portal/internal/domain"
	domext "github.com/alonsovargas3/commonlight-crisis-portal/internal/domain/extraction"
	"github.com/alonsovargas3/commonlight-crisis-portal/internal/metrics"
	"github.com/alonsovargas3/commonlight-crisis-portal/internal/version"
)

const maxErrorBody = 4 << 10

// Client calls the resource search backend.
type Client struct {
	baseURL    string
	apiKey     string
	maxRetries int
	retryBase  time.Duration
	http       *http.Client
	logger     *zap.Logger
}

// Config holds the backend client settings.
type Config struct {
	BaseURL    string
	APIKey     string // empty = no Authorization header
	Timeout    time.Duration
	MaxRetries int
	RetryBase  time.Duration
	Logger     *zap.Logger
	HTTPClient *http.Client // optional, overrides Timeout
}

// NewClient creates a backend client with one pooled HTTP client.
func NewClient(cfg *Config) *Client {
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	retryBase := cfg.RetryBase
	if retryBase <= 0 {
		retryBase = time.Second
	}
	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		maxRetries: maxRetries,
		retryBase:  retryBase,
		http:       hc,
		logger:     log,
	}
}

// SearchResources runs a search with already transformed parameters.
func (c *Client) SearchResources(ctx context.Context, params map[string]string) (SearchResponse, error) {
	q := url.Values{}
	for k, v := range params {
		q.Set(k, v)
	}
	path := "/search"
	if enc := q.Encode(); enc != "" {
		path += "?" + enc
	}

	body, err := c.do(ctx, "search", http.MethodGet, path, nil)
	if err != nil {
		return SearchResponse{}, err
	}
	var resp SearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return SearchResponse{}, &domain.BackendAPIError{
			StatusCode: http.StatusBadGateway,
			Message:    "invalid search response",
			Err:        err,
		}
	}
	return resp, nil
}

// GetResourceByID fetches one resource as loosely typed JSON.
func (c *Client) GetResourceByID(ctx context.Context, id string) (map[string]any, error) {
	body, err := c.do(ctx, "resource", http.MethodGet, "/resources/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, &domain.BackendAPIError{
			StatusCode: http.StatusBadGateway,
			Message:    "invalid resource response",
			Err:        err,
		}
	}
	// Some deployments wrap the resource in {"resource": {...}}.
	if inner, ok := raw["resource"].(map[string]any); ok {
		return inner, nil
	}
	return raw, nil
}

// ExtractFilters calls the backend's own extraction endpoint and returns the
// raw reply body.
func (c *Client) ExtractFilters(ctx context.Context, query string, qctx domext.QueryContext) ([]byte, error) {
	req := extractRequest{Query: query}
	if qctx.CurrentLocation != nil || qctx.UserType != "" {
		req.Context = &qctx
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal extract request: %w", err)
	}
	return c.do(ctx, "extract", http.MethodPost, "/extract-filters", payload)
}

// HealthCheck makes a single attempt against the backend health endpoint.
func (c *Client) HealthCheck(ctx context.Context) error {
	_, err := c.attempt(ctx, http.MethodGet, "/health", nil)
	return err
}

// do runs one call with retries on network errors and retryable statuses.
func (c *Client) do(ctx context.Context, endpoint, method, path string, payload []byte) ([]byte, error) {
	start := time.Now()

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.retryBase
	b.RandomizationFactor = 0
	b.Multiplier = 2
	b.MaxInterval = c.retryBase << c.maxRetries

	body, err := backoff.Retry(ctx, func() ([]byte, error) {
		body, err := c.attempt(ctx, method, path, payload)
		if err != nil && !retryable(err) {
			return nil, backoff.Permanent(err)
		}
		return body, err
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(c.maxRetries)+1),
		backoff.WithNotify(func(err error, next time.Duration) {
			metrics.BackendRetriesTotal.WithLabelValues(endpoint).Inc()
			c.logger.Warn("backend call failed, retrying",
				zap.String("endpoint", endpoint),
				zap.Duration("backoff", next),
				zap.Error(err),
			)
		}),
	)

	var perm *backoff.PermanentError
	if errors.As(err, &perm) {
		err = perm.Unwrap()
	}

	metrics.BackendRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	metrics.BackendRequestsTotal.WithLabelValues(endpoint, statusLabel(err)).Inc()
	return body, err
}

// attempt performs a single HTTP round trip.
func (c *Client) attempt(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build backend request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &domain.BackendAPIError{Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.BackendAPIError{Message: "read response: " + err.Error(), Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &domain.BackendAPIError{
			StatusCode: resp.StatusCode,
			Message:    errorMessage(resp.StatusCode, body),
		}
	}
	return body, nil
}

// retryable reports network failures and transient statuses.
func retryable(err error) bool {
	var apiErr *domain.BackendAPIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.StatusCode {
	case 0,
		http.StatusRequestTimeout,
		http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// errorMessage prefers error/detail/message from a JSON body over raw text.
func errorMessage(status int, body []byte) string {
	var parsed struct {
		Error   string `json:"error"`
		Detail  string `json:"detail"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &parsed) == nil {
		for _, s := range []string{parsed.Error, parsed.Detail, parsed.Message} {
			if s != "" {
				return s
			}
		}
	}
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	if text := strings.TrimSpace(string(body)); text != "" {
		return text
	}
	return http.StatusText(status)
}

func statusLabel(err error) string {
	if err == nil {
		return "ok"
	}
	var apiErr *domain.BackendAPIError
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == 0 {
			return "network"
		}
		return strconv.Itoa(apiErr.StatusCode)
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return "canceled"
	}
	return "error"
}
