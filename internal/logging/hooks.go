package logging

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// redactedParams are query parameters whose values never reach the logs.
var redactedParams = []string{"apikey", "api_key"}

// HTTPHooks logs outbound requests and their responses at debug level.
type HTTPHooks struct {
	Logger *slog.Logger
}

// NewHTTPHooks returns hooks writing to logger, or to slog.Default when nil.
func NewHTTPHooks(logger *slog.Logger) *HTTPHooks {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPHooks{Logger: logger}
}

// OnRequest logs an outgoing request.
func (h *HTTPHooks) OnRequest(ctx context.Context, req *http.Request) {
	h.Logger.DebugContext(ctx, "http request",
		"method", req.Method,
		"url", RedactURL(req.URL),
	)
}

// OnResponse logs a completed exchange. err is the transport error, if any.
func (h *HTTPHooks) OnResponse(ctx context.Context, req *http.Request, status int, latency time.Duration, err error) {
	attrs := []any{
		"method", req.Method,
		"url", RedactURL(req.URL),
		"latency_ms", latency.Milliseconds(),
	}
	if err != nil {
		h.Logger.DebugContext(ctx, "http request failed", append(attrs, "error", err)...)
		return
	}
	h.Logger.DebugContext(ctx, "http response", append(attrs, "status", status)...)
}

// RedactURL renders u with credential query parameters masked.
func RedactURL(u *url.URL) string {
	if u == nil {
		return ""
	}
	q := u.Query()
	changed := false
	for _, p := range redactedParams {
		if _, ok := q[p]; ok {
			q.Set(p, "REDACTED")
			changed = true
		}
	}
	if !changed {
		return u.String()
	}
	clone := *u
	clone.RawQuery = q.Encode()
	return clone.String()
}
