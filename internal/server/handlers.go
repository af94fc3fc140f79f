package server

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"weathercontract/internal/core"
	"weathercontract/internal/stub"
)

// Handler holds the HTTP handlers
type Handler struct {
	registry *stub.Registry
	fixtures stub.FixtureSource
	journal  *Journal
	metrics  *metrics
	logger   *slog.Logger
}

// NewHandler creates the stub handlers.
func NewHandler(registry *stub.Registry, fixtures stub.FixtureSource, journal *Journal, m *metrics, logger *slog.Logger) *Handler {
	return &Handler{
		registry: registry,
		fixtures: fixtures,
		journal:  journal,
		metrics:  m,
		logger:   logger,
	}
}

// Stub resolves the request against the registry and writes the fixture.
func (h *Handler) Stub(c echo.Context) error {
	start := time.Now()
	req := stub.RequestFromHTTP(c.Request())
	entry := JournalEntry{
		ID:     c.Response().Header().Get(echo.HeaderXRequestID),
		Time:   start.UTC(),
		Method: req.Method,
		Path:   req.Path,
		Query:  req.Query,
	}

	match, ok := h.registry.Resolve(req)
	if !ok {
		h.logger.Debug("no stub rule matched", "method", req.Method, "path", req.Path)
		err := core.NewUnmatchedRequestError(req.Method, req.Path)
		entry.Status = err.HTTPStatusCode()
		h.finish(entry, "", outcomeUnmatched, start)
		return handleError(c, err)
	}

	entry.Matched = true
	entry.Rule = match.Rule.Name
	entry.Fixture = match.Rule.Response.Fixture

	resp, err := stub.Synthesize(match.Rule, h.fixtures)
	if err != nil {
		h.logger.Error("failed to synthesize stub response", "rule", match.Rule.Name, "error", err)
		entry.Status = http.StatusInternalServerError
		h.finish(entry, match.Rule.Name, outcomeError, start)
		return handleError(c, err)
	}

	h.logger.Debug("stub rule matched", "rule", match.Rule.Name, "status", resp.Status)
	entry.Status = resp.Status
	h.finish(entry, match.Rule.Name, outcomeMatched, start)

	if resp.ETag != "" {
		c.Response().Header().Set("ETag", resp.ETag)
	}
	if len(resp.Body) == 0 && !bodyExpected(resp.Status) {
		return c.NoContent(resp.Status)
	}
	return c.Blob(resp.Status, resp.ContentType, resp.Body)
}

func (h *Handler) finish(entry JournalEntry, rule, outcome string, start time.Time) {
	h.journal.Record(entry)
	h.metrics.observe(rule, outcome, time.Since(start).Seconds())
}

func bodyExpected(status int) bool {
	return status >= 200 && status != http.StatusNoContent && status != http.StatusNotModified
}

// Health handles GET /__admin/health
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status": "ok",
		"rules":  h.registry.Len(),
	})
}

// ListRequests handles GET /__admin/requests
func (h *Handler) ListRequests(c echo.Context) error {
	entries := h.journal.Entries()
	return c.JSON(http.StatusOK, map[string]interface{}{
		"requests": entries,
		"total":    len(entries),
	})
}

// ClearRequests handles DELETE /__admin/requests
func (h *Handler) ClearRequests(c echo.Context) error {
	h.journal.Clear()
	return c.NoContent(http.StatusNoContent)
}

// ListRules handles GET /__admin/rules. Rules are listed in evaluation order.
func (h *Handler) ListRules(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"rules": h.registry.Rules(),
	})
}

// handleError converts contract errors to appropriate HTTP responses
func handleError(c echo.Context, err error) error {
	var contractErr *core.ContractError
	if errors.As(err, &contractErr) {
		return c.JSON(contractErr.HTTPStatusCode(), contractErr.ToJSON())
	}

	// Fallback for unexpected errors
	return c.JSON(http.StatusInternalServerError, map[string]interface{}{
		"error": map[string]interface{}{
			"type":    "internal_error",
			"message": "an unexpected error occurred",
		},
	})
}
