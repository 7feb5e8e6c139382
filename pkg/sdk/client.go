package crisisportal

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

	"github.com/alonsovargas3/commonlight-crisis-portal/internal/transport/urlparams"
	"github.com/alonsovargas3/commonlight-crisis-portal/internal/version"
)

const maxResponseBytes = 4 << 20

// Client is the crisis portal SDK entry point. It is safe for concurrent use.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	obs     *observer
}

// New creates a Client for the portal at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	cfg := &clientConfig{timeout: defaultTimeout}
	for _, o := range opts {
		o.apply(cfg)
	}

	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("crisisportal: invalid base URL %q", baseURL)
	}

	hc := cfg.httpClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.timeout}
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  cfg.apiKey,
		http:    hc,
		obs:     obs,
	}, nil
}

// ExtractFilters turns a free-text query into search filters.
// qctx may be nil.
func (c *Client) ExtractFilters(
	ctx context.Context, query string, qctx *QueryContext,
) (res ExtractionResult, err error) {
	defer c.track("extract_filters")(&err)

	body, err := json.Marshal(struct {
		Query   string        `json:"query"`
		Context *QueryContext `json:"context,omitempty"`
	}{Query: query, Context: qctx})
	if err != nil {
		return ExtractionResult{}, fmt.Errorf("encode request: %w", err)
	}
	err = c.do(ctx, http.MethodPost, "/extract-filters", nil, body, &res)
	return res, err
}

// Search runs a resource search with f. At least a location or keywords
// must be set, otherwise the portal answers 400.
func (c *Client) Search(ctx context.Context, f Filters) (resp SearchResponse, err error) {
	defer c.track("search")(&err)

	q, err := EncodeFilters(f)
	if err != nil {
		return SearchResponse{}, err
	}
	err = c.do(ctx, http.MethodGet, "/resources/search", q, nil, &resp)
	return resp, err
}

// GetResource fetches one resource by id.
func (c *Client) GetResource(ctx context.Context, id string) (d ResourceDetail, err error) {
	defer c.track("get_resource")(&err)

	err = c.do(ctx, http.MethodGet, "/resources/"+url.PathEscape(id), nil, nil, &d)
	return d, err
}

// Health returns the portal health report. A degraded portal answers 503
// with a report body, which is returned without error.
func (c *Client) Health(ctx context.Context) (h HealthStatus, err error) {
	defer c.track("health")(&err)

	err = c.do(ctx, http.MethodGet, "/health", nil, nil, &h)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusServiceUnavailable && h.Status != "" {
		return h, nil
	}
	return h, err
}

// EncodeFilters renders f as query parameters the way the portal decodes
// them: lists repeat the key, objects are JSON text.
func EncodeFilters(f Filters) (url.Values, error) {
	raw, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("crisisportal: encode filters: %w", err)
	}
	var params map[string]any
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, fmt.Errorf("crisisportal: encode filters: %w", err)
	}
	q, err := urlparams.Encode(params)
	if err != nil {
		return nil, fmt.Errorf("crisisportal: encode filters: %w", err)
	}
	return q, nil
}

func (c *Client) track(op string) func(*error) {
	start := time.Now()
	return func(err *error) { c.obs.observe(op, start, *err) }
}

func (c *Client) do(
	ctx context.Context, method, path string, query url.Values, body []byte, out any,
) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, rd)
	if err != nil {
		return fmt.Errorf("crisisportal: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("crisisportal: %s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("crisisportal: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Health reports come back with 503 and a normal body.
		_ = json.Unmarshal(data, out)
		return newAPIError(resp.StatusCode, data)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("crisisportal: decode response: %w", err)
	}
	return nil
}

func newAPIError(status int, data []byte) *APIError {
	var eb errorBody
	if json.Unmarshal(data, &eb) == nil && eb.Error != "" {
		return &APIError{StatusCode: status, Message: eb.Error, Details: eb.Details}
	}
	msg := strings.TrimSpace(string(data))
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &APIError{StatusCode: status, Message: msg}
}
