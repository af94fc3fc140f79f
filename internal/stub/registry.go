// Package stub holds the request-matching rules of the mock weather API and
// the policy that picks exactly one rule for an incoming request.
//
// Rules are kept in a single list ordered by priority (higher first) and then
// by registration order (earlier first). Resolution walks that list and returns
// the first rule whose method, path pattern and query predicates all hold, so
// the winner is always the highest-priority match and ties go to the rule that
// was registered first.
package stub

import (
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"

	"weathercontract/internal/core"
)

// ResponseSpec describes what a rule answers with.
type ResponseSpec struct {
	// Status defaults to 200.
	Status int `json:"status" yaml:"status"`
	// ContentType defaults to application/json.
	ContentType string `json:"content_type,omitempty" yaml:"content_type,omitempty"`
	// Fixture is the file served as the body. It may be empty only for
	// statuses that carry no body.
	Fixture string `json:"fixture,omitempty" yaml:"fixture,omitempty"`
}

// Rule is a registered expectation: (method, path pattern, query predicates,
// priority) mapped to a fixed response.
type Rule struct {
	Name     string           `json:"name"`
	Method   string           `json:"method"`
	Path     string           `json:"path"`
	Query    []QueryPredicate `json:"query,omitempty"`
	Priority int              `json:"priority"`
	Response ResponseSpec     `json:"response"`
}

// IncomingRequest is the part of an HTTP request that rules match against.
// Only the first value of a repeated query parameter is kept.
type IncomingRequest struct {
	Method string
	Path   string
	Query  map[string]string
}

// RequestFromHTTP builds an IncomingRequest from r.
func RequestFromHTTP(r *http.Request) IncomingRequest {
	return NewIncomingRequest(r.Method, r.URL.Path, r.URL.Query())
}

// NewIncomingRequest builds an IncomingRequest without an *http.Request.
func NewIncomingRequest(method, path string, query url.Values) IncomingRequest {
	return IncomingRequest{
		Method: strings.ToUpper(method),
		Path:   path,
		Query:  flattenQuery(query),
	}
}

func flattenQuery(values url.Values) map[string]string {
	out := make(map[string]string, len(values))
	for k, v := range values {
		if len(v) > 0 {
			out[k] = v[0]
		}
	}
	return out
}

// Match is the result of a successful resolution.
type Match struct {
	Rule Rule
	// Params holds the values bound to wildcard path segments.
	Params map[string]string
}

type registeredRule struct {
	rule  Rule
	path  PathPattern
	query []compiledPredicate
	seq   int
}

func (r *registeredRule) matches(req IncomingRequest) (map[string]string, bool) {
	if r.rule.Method != req.Method {
		return nil, false
	}
	params, ok := r.path.Match(req.Path)
	if !ok {
		return nil, false
	}
	for _, q := range r.query {
		if !q.holds(req.Query) {
			return nil, false
		}
	}
	return params, true
}

// Registry holds stub rules in evaluation order.
// Register is meant for the setup phase; once Seal is called the registry is
// read-only and safe for concurrent Resolve calls.
type Registry struct {
	mu      sync.RWMutex
	ordered []*registeredRule
	names   map[string]bool
	nextSeq int
	sealed  bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{names: make(map[string]bool)}
}

// Register validates rule and appends it. Malformed rules are rejected with a
// configuration error.
func (r *Registry) Register(rule Rule) error {
	rule.Method = strings.ToUpper(strings.TrimSpace(rule.Method))
	if rule.Method == "" {
		rule.Method = http.MethodGet
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if rule.Name == "" {
		rule.Name = fmt.Sprintf("rule-%d", r.nextSeq+1)
	}
	subject := rule.Name

	if r.sealed {
		return core.NewConfigurationError(subject, "registry is sealed; rules can only be registered during setup", nil)
	}
	if r.names[rule.Name] {
		return core.NewConfigurationError(subject, "duplicate rule name", nil)
	}

	path, err := ParsePathPattern(rule.Path)
	if err != nil {
		return core.NewConfigurationError(subject, "malformed path pattern", err)
	}

	query := make([]compiledPredicate, 0, len(rule.Query))
	for _, q := range rule.Query {
		c, err := compilePredicate(q)
		if err != nil {
			return core.NewConfigurationError(subject, "malformed query predicate", err)
		}
		query = append(query, c)
	}

	if rule.Response.Status == 0 {
		rule.Response.Status = http.StatusOK
	}
	if rule.Response.Status < 100 || rule.Response.Status > 599 {
		return core.NewConfigurationError(subject, fmt.Sprintf("invalid response status %d", rule.Response.Status), nil)
	}
	if rule.Response.ContentType == "" {
		rule.Response.ContentType = "application/json"
	}
	if rule.Response.Fixture == "" && bodyAllowed(rule.Response.Status) {
		return core.NewConfigurationError(subject, fmt.Sprintf("status %d requires a fixture", rule.Response.Status), nil)
	}
	if rule.Response.Fixture != "" && !bodyAllowed(rule.Response.Status) {
		return core.NewConfigurationError(subject, fmt.Sprintf("status %d cannot carry a fixture body", rule.Response.Status), nil)
	}

	r.nextSeq++
	r.names[rule.Name] = true
	r.ordered = append(r.ordered, &registeredRule{
		rule:  rule,
		path:  path,
		query: query,
		seq:   r.nextSeq,
	})
	sort.SliceStable(r.ordered, func(i, j int) bool {
		a, b := r.ordered[i], r.ordered[j]
		if a.rule.Priority != b.rule.Priority {
			return a.rule.Priority > b.rule.Priority
		}
		return a.seq < b.seq
	})
	return nil
}

// RegisterAll registers rules in order and stops at the first failure.
func (r *Registry) RegisterAll(rules []Rule) error {
	for _, rule := range rules {
		if err := r.Register(rule); err != nil {
			return err
		}
	}
	return nil
}

// Seal ends the setup phase. Further Register calls fail.
func (r *Registry) Seal() {
	r.mu.Lock()
	r.sealed = true
	r.mu.Unlock()
}

// Resolve returns the single rule that serves req: the highest-priority
// matching rule, earliest registered on ties. ok is false when nothing matches.
func (r *Registry) Resolve(req IncomingRequest) (Match, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, reg := range r.ordered {
		if params, ok := reg.matches(req); ok {
			return Match{Rule: reg.rule, Params: params}, true
		}
	}
	return Match{}, false
}

// Rules returns the registered rules in evaluation order.
func (r *Registry) Rules() []Rule {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Rule, len(r.ordered))
	for i, reg := range r.ordered {
		out[i] = reg.rule
	}
	return out
}

// Fixtures returns the distinct fixture names referenced by registered rules.
func (r *Registry) Fixtures() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool)
	var out []string
	for _, reg := range r.ordered {
		name := reg.rule.Response.Fixture
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of registered rules.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.ordered)
}

func bodyAllowed(status int) bool {
	return status != http.StatusNoContent && status != http.StatusNotModified && status >= 200
}
