package stub

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"weathercontract/internal/core"
)

// ruleSetFile is the on-disk layout of a stub rule set:
//
//	rules:
//	  - name: currentconditions-details
//	    path: /currentconditions/v1/{locationKey}
//	    priority: 10
//	    query:
//	      - {param: apikey, any: true}
//	      - {param: details, equal: "true"}
//	    response:
//	      fixture: currentconditions_details_true.json
type ruleSetFile struct {
	Rules []ruleEntry `yaml:"rules"`
}

type ruleEntry struct {
	Name     string        `yaml:"name"`
	Method   string        `yaml:"method"`
	Path     string        `yaml:"path"`
	Priority int           `yaml:"priority"`
	Query    []queryEntry  `yaml:"query"`
	Response responseEntry `yaml:"response"`
}

type queryEntry struct {
	Param string  `yaml:"param"`
	Equal *string `yaml:"equal"`
	Any   bool    `yaml:"any"`
	Regex *string `yaml:"regex"`
}

type responseEntry struct {
	Status      int    `yaml:"status"`
	ContentType string `yaml:"content_type"`
	Fixture     string `yaml:"fixture"`
}

// LoadRuleSet reads a YAML rule set from path.
func LoadRuleSet(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, core.NewConfigurationError(path, "failed to read rule set", err)
	}
	rules, err := ParseRuleSet(data)
	if err != nil {
		return nil, fmt.Errorf("rule set %s: %w", path, err)
	}
	return rules, nil
}

// ParseRuleSet decodes a YAML rule set. Unknown keys are rejected so a typo
// cannot silently widen a rule.
func ParseRuleSet(data []byte) ([]Rule, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var file ruleSetFile
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, core.NewConfigurationError("rule set", "failed to parse rule set", err)
	}

	rules := make([]Rule, 0, len(file.Rules))
	for i, e := range file.Rules {
		subject := e.Name
		if subject == "" {
			subject = fmt.Sprintf("rules[%d]", i)
		}

		query := make([]QueryPredicate, 0, len(e.Query))
		for _, q := range e.Query {
			p, err := q.predicate()
			if err != nil {
				return nil, core.NewConfigurationError(subject, "malformed query predicate", err)
			}
			query = append(query, p)
		}

		rules = append(rules, Rule{
			Name:     e.Name,
			Method:   e.Method,
			Path:     e.Path,
			Query:    query,
			Priority: e.Priority,
			Response: ResponseSpec{
				Status:      e.Response.Status,
				ContentType: e.Response.ContentType,
				Fixture:     e.Response.Fixture,
			},
		})
	}
	return rules, nil
}

func (q queryEntry) predicate() (QueryPredicate, error) {
	set := 0
	if q.Equal != nil {
		set++
	}
	if q.Any {
		set++
	}
	if q.Regex != nil {
		set++
	}
	if set != 1 {
		return QueryPredicate{}, fmt.Errorf("param %q: exactly one of equal, any, regex must be set", q.Param)
	}

	switch {
	case q.Equal != nil:
		return Equal(q.Param, *q.Equal), nil
	case q.Regex != nil:
		return Regex(q.Param, *q.Regex), nil
	default:
		return Any(q.Param), nil
	}
}
