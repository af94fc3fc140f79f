package stub

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	paramNamePattern  = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)
	paramValuePattern = regexp.MustCompile(`^[A-Za-z0-9]+$`)
)

type segment struct {
	literal string
	param   string // non-empty for a wildcard segment
}

// PathPattern is a compiled path matcher. A pattern is either an exact path
// ("/locations/v1/topcities/50") or a template whose wildcard segments are
// written as {name} ("/currentconditions/v1/{locationKey}"). A wildcard matches
// exactly one non-empty alphanumeric path segment.
type PathPattern struct {
	raw      string
	segments []segment
}

// ParsePathPattern compiles raw into a PathPattern.
func ParsePathPattern(raw string) (PathPattern, error) {
	if !strings.HasPrefix(raw, "/") {
		return PathPattern{}, fmt.Errorf("path pattern %q must start with /", raw)
	}
	if raw == "/" {
		return PathPattern{raw: raw}, nil
	}

	parts := strings.Split(strings.TrimPrefix(raw, "/"), "/")
	segments := make([]segment, 0, len(parts))
	seen := make(map[string]bool)

	for i, part := range parts {
		if part == "" {
			return PathPattern{}, fmt.Errorf("path pattern %q has an empty segment at position %d", raw, i+1)
		}
		if strings.HasPrefix(part, "{") && strings.HasSuffix(part, "}") {
			name := part[1 : len(part)-1]
			if !paramNamePattern.MatchString(name) {
				return PathPattern{}, fmt.Errorf("path pattern %q has an invalid wildcard name %q", raw, name)
			}
			if seen[name] {
				return PathPattern{}, fmt.Errorf("path pattern %q repeats wildcard %q", raw, name)
			}
			seen[name] = true
			segments = append(segments, segment{param: name})
			continue
		}
		if strings.ContainsAny(part, "{}") {
			return PathPattern{}, fmt.Errorf("path pattern %q has an unbalanced wildcard in segment %q", raw, part)
		}
		segments = append(segments, segment{literal: part})
	}

	return PathPattern{raw: raw, segments: segments}, nil
}

// MustParsePathPattern is like ParsePathPattern but panics on error.
func MustParsePathPattern(raw string) PathPattern {
	p, err := ParsePathPattern(raw)
	if err != nil {
		panic(err)
	}
	return p
}

// String returns the pattern as written.
func (p PathPattern) String() string {
	return p.raw
}

// IsExact reports whether the pattern has no wildcard segments.
func (p PathPattern) IsExact() bool {
	for _, s := range p.segments {
		if s.param != "" {
			return false
		}
	}
	return true
}

// Match reports whether path matches the pattern and returns the values bound
// to wildcard segments.
func (p PathPattern) Match(path string) (map[string]string, bool) {
	if p.raw == "/" {
		return nil, path == "/"
	}
	if !strings.HasPrefix(path, "/") {
		return nil, false
	}

	parts := strings.Split(strings.TrimPrefix(path, "/"), "/")
	if len(parts) != len(p.segments) {
		return nil, false
	}

	var params map[string]string
	for i, s := range p.segments {
		if s.param == "" {
			if parts[i] != s.literal {
				return nil, false
			}
			continue
		}
		if !paramValuePattern.MatchString(parts[i]) {
			return nil, false
		}
		if params == nil {
			params = make(map[string]string, 1)
		}
		params[s.param] = parts[i]
	}
	return params, true
}
