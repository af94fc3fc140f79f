package stub

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePathPattern_Invalid(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "empty", raw: ""},
		{name: "relative", raw: "locations/v1"},
		{name: "double slash", raw: "/locations//v1"},
		{name: "trailing slash", raw: "/locations/v1/"},
		{name: "bad wildcard name", raw: "/currentconditions/v1/{1key}"},
		{name: "empty wildcard", raw: "/currentconditions/v1/{}"},
		{name: "repeated wildcard", raw: "/a/{key}/{key}"},
		{name: "unbalanced brace", raw: "/a/{key"},
		{name: "brace inside literal", raw: "/a/b{c}d"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePathPattern(tt.raw)
			assert.Error(t, err)
		})
	}
}

func TestPathPattern_Exact(t *testing.T) {
	p := MustParsePathPattern("/locations/v1/topcities/50")
	assert.True(t, p.IsExact())
	assert.Equal(t, "/locations/v1/topcities/50", p.String())

	params, ok := p.Match("/locations/v1/topcities/50")
	assert.True(t, ok)
	assert.Empty(t, params)

	_, ok = p.Match("/locations/v1/topcities/100")
	assert.False(t, ok)
	_, ok = p.Match("/locations/v1/topcities/50/extra")
	assert.False(t, ok)
}

func TestPathPattern_Wildcard(t *testing.T) {
	p := MustParsePathPattern("/currentconditions/v1/{locationKey}")
	assert.False(t, p.IsExact())

	params, ok := p.Match("/currentconditions/v1/294021")
	require.True(t, ok)
	assert.Equal(t, map[string]string{"locationKey": "294021"}, params)

	tests := []struct {
		name string
		path string
	}{
		{name: "missing segment", path: "/currentconditions/v1"},
		{name: "empty segment", path: "/currentconditions/v1/"},
		{name: "extra segment", path: "/currentconditions/v1/294021/historical"},
		{name: "non alphanumeric value", path: "/currentconditions/v1/29-4021"},
		{name: "different literal", path: "/forecasts/v1/294021"},
		{name: "no leading slash", path: "currentconditions/v1/294021"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := p.Match(tt.path)
			assert.False(t, ok)
		})
	}
}

func TestPathPattern_Root(t *testing.T) {
	p := MustParsePathPattern("/")
	_, ok := p.Match("/")
	assert.True(t, ok)
	_, ok = p.Match("/x")
	assert.False(t, ok)
}

func TestMustParsePathPattern_Panics(t *testing.T) {
	assert.Panics(t, func() { MustParsePathPattern("no-slash") })
}
