// Package contract describes the weather API endpoints under test and the
// outcome each one must produce, then checks real or stubbed responses
// against those expectations.
//
// Every endpoint carries two expectations. The live one is deliberately loose:
// the account behind the API key may not be entitled to every endpoint, so it
// enumerates every acceptable status and never looks at the body. The mock one
// is strict: the stub serves known fixtures, so it pins the status and checks
// specific fields.
package contract

import (
	"fmt"
	"net/url"
	"sort"
	"time"
)

// Mode selects which expectation of an endpoint applies.
type Mode string

const (
	ModeLive Mode = "live"
	ModeMock Mode = "mock"
)

// Severity ranks how much a failing endpoint matters.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityNormal   Severity = "normal"
	SeverityMinor    Severity = "minor"
	SeverityTrivial  Severity = "trivial"
)

// Expectation is the acceptable outcome for one endpoint in one mode.
type Expectation struct {
	// Statuses lists every acceptable status code. Empty means the endpoint is
	// not checked in this mode.
	Statuses []int
	// RequireJSON asserts that Content-Type mentions json.
	RequireJSON bool
	// MaxLatency, when set, must exceed the measured latency.
	MaxLatency time.Duration
	// Body checks run only when the status is acceptable.
	Body []BodyCheck
}

// Enabled reports whether the expectation has anything to check.
func (e Expectation) Enabled() bool {
	return len(e.Statuses) > 0
}

// Accepts reports whether status is in the acceptable set.
func (e Expectation) Accepts(status int) bool {
	for _, s := range e.Statuses {
		if s == status {
			return true
		}
	}
	return false
}

// Endpoint is one request of the suite with its expectations.
type Endpoint struct {
	// ID orders endpoints and prefixes the display name.
	ID       int
	Title    string
	Story    string
	Severity Severity

	Path  string
	Query url.Values

	Live Expectation
	Mock Expectation
}

// DisplayName is the stable, sortable name used in reports and subtest names.
func (e Endpoint) DisplayName() string {
	return fmt.Sprintf("%02d) %s", e.ID, e.Title)
}

// Expect returns the expectation for mode.
func (e Endpoint) Expect(mode Mode) Expectation {
	if mode == ModeMock {
		return e.Mock
	}
	return e.Live
}

// SortByDisplayName returns a copy of endpoints ordered by display name.
func SortByDisplayName(endpoints []Endpoint) []Endpoint {
	out := make([]Endpoint, len(endpoints))
	copy(out, endpoints)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DisplayName() < out[j].DisplayName()
	})
	return out
}
