package stub

import (
	"weathercontract/internal/fixtures"
)

// FixtureSource opens fixture files by name.
type FixtureSource interface {
	Open(name string) (fixtures.Fixture, error)
}

// Response is a synthesized HTTP response for a resolved rule.
type Response struct {
	Status      int
	ContentType string
	Body        []byte
	// ETag is empty when the response has no body.
	ETag string
}

// Synthesize builds the response for rule. The body is the fixture verbatim;
// nothing is templated or substituted.
func Synthesize(rule Rule, source FixtureSource) (Response, error) {
	resp := Response{
		Status:      rule.Response.Status,
		ContentType: rule.Response.ContentType,
	}
	if resp.Status == 0 {
		resp.Status = 200
	}
	if resp.ContentType == "" {
		resp.ContentType = "application/json"
	}
	if rule.Response.Fixture == "" {
		return resp, nil
	}

	f, err := source.Open(rule.Response.Fixture)
	if err != nil {
		return Response{}, err
	}
	resp.Body = f.Body
	resp.ETag = f.ETag()
	return resp, nil
}
