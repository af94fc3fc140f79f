package contract

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"weathercontract/internal/core"
	"weathercontract/internal/weather"
)

// Result is the outcome of one endpoint.
type Result struct {
	Endpoint    Endpoint
	Mode        Mode
	Status      int
	ContentType string
	Latency     time.Duration
	// Failures holds one assertion failure per broken expectation.
	Failures []error
	// Err is set when no response was obtained.
	Err     error
	Skipped bool
}

// Passed reports whether the endpoint was checked and met every expectation.
func (r Result) Passed() bool {
	return !r.Skipped && r.Err == nil && len(r.Failures) == 0
}

// Error joins the transport error and every assertion failure.
func (r Result) Error() error {
	if r.Err != nil {
		return r.Err
	}
	return errors.Join(r.Failures...)
}

// Check evaluates resp against the endpoint's expectation for mode.
func Check(e Endpoint, mode Mode, resp *weather.Response) Result {
	exp := e.Expect(mode)
	res := Result{Endpoint: e, Mode: mode}
	if !exp.Enabled() {
		res.Skipped = true
		return res
	}

	res.Status = resp.StatusCode
	res.ContentType = resp.ContentType()
	res.Latency = resp.Latency
	name := e.DisplayName()

	fail := func(format string, args ...any) {
		res.Failures = append(res.Failures, core.NewAssertionFailure(name, fmt.Sprintf(format, args...)))
	}

	if exp.MaxLatency > 0 && resp.Latency >= exp.MaxLatency {
		fail("latency %s is not below %s", resp.Latency.Round(time.Millisecond), exp.MaxLatency)
	}
	if exp.RequireJSON && !resp.IsJSON() {
		fail("content type %q does not contain json", res.ContentType)
	}
	if !exp.Accepts(resp.StatusCode) {
		fail("status %d not in %s", resp.StatusCode, formatStatuses(exp.Statuses))
		return res
	}
	for _, c := range exp.Body {
		if msg := c.Evaluate(resp.Body); msg != "" {
			fail("%s", msg)
		}
	}
	return res
}

func formatStatuses(statuses []int) string {
	parts := make([]string, len(statuses))
	for i, s := range statuses {
		parts[i] = fmt.Sprint(s)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
