package stub

import (
	"fmt"
	"regexp"
)

// MatchKind selects how a query predicate compares a parameter value.
type MatchKind string

const (
	// MatchEqual requires the parameter to equal Value exactly.
	MatchEqual MatchKind = "equal"
	// MatchAny requires the parameter to be present with any value.
	MatchAny MatchKind = "any"
	// MatchRegex requires the parameter to match the regular expression in Value.
	MatchRegex MatchKind = "regex"
)

// QueryPredicate is one required condition on a query parameter.
type QueryPredicate struct {
	Param string    `json:"param" yaml:"param"`
	Kind  MatchKind `json:"kind" yaml:"kind"`
	Value string    `json:"value,omitempty" yaml:"value,omitempty"`
}

// Equal returns a predicate requiring param == value.
func Equal(param, value string) QueryPredicate {
	return QueryPredicate{Param: param, Kind: MatchEqual, Value: value}
}

// Any returns a predicate requiring param to be present.
func Any(param string) QueryPredicate {
	return QueryPredicate{Param: param, Kind: MatchAny}
}

// Regex returns a predicate requiring param to match expr.
func Regex(param, expr string) QueryPredicate {
	return QueryPredicate{Param: param, Kind: MatchRegex, Value: expr}
}

func (q QueryPredicate) String() string {
	switch q.Kind {
	case MatchAny:
		return q.Param + "=*"
	case MatchRegex:
		return q.Param + "~" + q.Value
	default:
		return q.Param + "=" + q.Value
	}
}

type compiledPredicate struct {
	QueryPredicate
	re *regexp.Regexp
}

func compilePredicate(q QueryPredicate) (compiledPredicate, error) {
	if q.Param == "" {
		return compiledPredicate{}, fmt.Errorf("query predicate has no parameter name")
	}
	c := compiledPredicate{QueryPredicate: q}
	switch q.Kind {
	case MatchEqual, MatchAny:
	case MatchRegex:
		re, err := regexp.Compile(q.Value)
		if err != nil {
			return compiledPredicate{}, fmt.Errorf("query predicate %q: invalid regex: %w", q.Param, err)
		}
		c.re = re
	default:
		return compiledPredicate{}, fmt.Errorf("query predicate %q: unknown match kind %q", q.Param, q.Kind)
	}
	return c, nil
}

func (c compiledPredicate) holds(query map[string]string) bool {
	v, ok := query[c.Param]
	if !ok {
		return false
	}
	switch c.Kind {
	case MatchEqual:
		return v == c.Value
	case MatchRegex:
		return c.re.MatchString(v)
	default:
		return true
	}
}
