// Package weather is a thin client for the weather provider's REST API.
//
// It issues a single GET per call and never retries: every failure belongs to
// the check that made the request.
package weather

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"weathercontract/internal/core"
	"weathercontract/internal/httpclient"
	"weathercontract/internal/logging"
)

// Config holds configuration for the weather client
type Config struct {
	// BaseURL is the API root, for example https://dataservice.accuweather.com
	BaseURL string
	// APIKey is sent as the apikey query parameter on every request, even
	// when empty.
	APIKey  string
	Timeout time.Duration
}

// Hooks observe each exchange. logging.HTTPHooks implements it.
type Hooks interface {
	OnRequest(ctx context.Context, req *http.Request)
	OnResponse(ctx context.Context, req *http.Request, status int, latency time.Duration, err error)
}

// Request is a GET against Path with the given query parameters.
type Request struct {
	Path  string
	Query url.Values
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	// Latency runs from sending the request until the body has been read.
	Latency time.Duration
}

// ContentType returns the response Content-Type header.
func (r *Response) ContentType() string {
	return r.Header.Get("Content-Type")
}

// IsJSON reports whether the response declares a JSON media type.
func (r *Response) IsJSON() bool {
	return strings.Contains(strings.ToLower(r.ContentType()), "json")
}

// Client calls the weather API
type Client struct {
	httpClient *http.Client
	config     Config
	hooks      Hooks
}

// New creates a client with an HTTP client built from config.Timeout.
func New(config Config, hooks Hooks) *Client {
	return NewWithHTTPClient(httpclient.NewWithTimeout(config.Timeout), config, hooks)
}

// NewWithHTTPClient creates a client around an existing *http.Client.
func NewWithHTTPClient(httpClient *http.Client, config Config, hooks Hooks) *Client {
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	if hooks == nil {
		hooks = logging.NewHTTPHooks(slog.Default())
	}
	return &Client{
		httpClient: httpClient,
		config:     config,
		hooks:      hooks,
	}
}

// BaseURL returns the configured base URL
func (c *Client) BaseURL() string {
	return c.config.BaseURL
}

// Get performs req. A non-2xx status is not an error; only failing to get a
// response at all is, and that is reported as a transient network error.
func (c *Client) Get(ctx context.Context, req Request) (*Response, error) {
	httpReq, err := c.buildRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	c.hooks.OnRequest(ctx, httpReq)
	start := time.Now()

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.hooks.OnResponse(ctx, httpReq, 0, time.Since(start), err)
		return nil, core.NewTransientNetworkError(req.Path, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	latency := time.Since(start)
	if err != nil {
		c.hooks.OnResponse(ctx, httpReq, resp.StatusCode, latency, err)
		return nil, core.NewTransientNetworkError(req.Path, err)
	}
	c.hooks.OnResponse(ctx, httpReq, resp.StatusCode, latency, nil)

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
		Latency:    latency,
	}, nil
}

func (c *Client) buildRequest(ctx context.Context, req Request) (*http.Request, error) {
	if !strings.HasPrefix(req.Path, "/") {
		return nil, core.NewConfigurationError(req.Path, "request path must start with /", nil)
	}

	query := url.Values{}
	for k, v := range req.Query {
		query[k] = append([]string(nil), v...)
	}
	if _, ok := query["apikey"]; !ok {
		query.Set("apikey", c.config.APIKey)
	}

	target := c.config.BaseURL + req.Path + "?" + query.Encode()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, core.NewConfigurationError(c.config.BaseURL, "failed to create request", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	return httpReq, nil
}
