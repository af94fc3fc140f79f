// Package httpclient provides the HTTP client factory used by the weather client
// and the fixture recorder.
package httpclient

import (
	"net"
	"net/http"
	"time"
)

// ClientConfig holds configuration options for creating HTTP clients
type ClientConfig struct {
	// MaxIdleConns controls the maximum number of idle (keep-alive) connections across all hosts
	MaxIdleConns int

	// MaxIdleConnsPerHost controls the maximum idle (keep-alive) connections to keep per-host
	MaxIdleConnsPerHost int

	IdleConnTimeout time.Duration

	// Timeout bounds the whole exchange, body included. Latency assertions
	// are measured well inside this limit.
	Timeout time.Duration

	DialTimeout         time.Duration
	KeepAlive           time.Duration
	TLSHandshakeTimeout time.Duration

	// ResponseHeaderTimeout is how long to wait for response headers. Zero
	// means it follows Timeout.
	ResponseHeaderTimeout time.Duration
}

// DefaultConfig returns a ClientConfig suited to a public REST API.
func DefaultConfig() ClientConfig {
	return ClientConfig{
		MaxIdleConns:        20,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		Timeout:             30 * time.Second,
		DialTimeout:         10 * time.Second,
		KeepAlive:           30 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
}

// WithTimeout returns a copy of c with the overall timeout replaced.
// Non-positive values leave c unchanged.
func (c ClientConfig) WithTimeout(d time.Duration) ClientConfig {
	if d > 0 {
		c.Timeout = d
	}
	return c
}

// NewHTTPClient creates a new HTTP client with the provided configuration.
// If config is nil, DefaultConfig() is used.
func NewHTTPClient(config *ClientConfig) *http.Client {
	if config == nil {
		cfg := DefaultConfig()
		config = &cfg
	}

	headerTimeout := config.ResponseHeaderTimeout
	if headerTimeout == 0 {
		headerTimeout = config.Timeout
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   config.DialTimeout,
			KeepAlive: config.KeepAlive,
		}).DialContext,
		MaxIdleConns:          config.MaxIdleConns,
		MaxIdleConnsPerHost:   config.MaxIdleConnsPerHost,
		IdleConnTimeout:       config.IdleConnTimeout,
		TLSHandshakeTimeout:   config.TLSHandshakeTimeout,
		ResponseHeaderTimeout: headerTimeout,
		ForceAttemptHTTP2:     true,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   config.Timeout,
	}
}

// NewWithTimeout creates a client from DefaultConfig with the given timeout.
func NewWithTimeout(timeout time.Duration) *http.Client {
	cfg := DefaultConfig().WithTimeout(timeout)
	return NewHTTPClient(&cfg)
}
