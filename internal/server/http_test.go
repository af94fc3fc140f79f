package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weathercontract/internal/core"
	"weathercontract/internal/fixtures"
	"weathercontract/internal/stub"
)

const (
	basicBody   = `[{"WeatherText":"Cloudy"}]`
	detailsBody = `[{"WeatherText":"Cloudy","RealFeelTemperature":{"Metric":{"Unit":"C"}}}]`
)

func newTestServer(t *testing.T, cfg *Config) *Server {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "basic.json"), []byte(basicBody), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "details.json"), []byte(detailsBody), 0o644))

	reg := stub.NewRegistry()
	require.NoError(t, reg.RegisterAll([]stub.Rule{
		{
			Name:     "basic",
			Path:     "/currentconditions/v1/{locationKey}",
			Query:    []stub.QueryPredicate{stub.Any("apikey")},
			Response: stub.ResponseSpec{Fixture: "basic.json"},
		},
		{
			Name:     "details",
			Path:     "/currentconditions/v1/{locationKey}",
			Query:    []stub.QueryPredicate{stub.Any("apikey"), stub.Equal("details", "true")},
			Priority: 10,
			Response: stub.ResponseSpec{Fixture: "details.json"},
		},
		{
			Name:     "quiet-alerts",
			Path:     "/alerts/v1/178087",
			Response: stub.ResponseSpec{Status: http.StatusNoContent},
		},
		{
			Name:     "broken",
			Path:     "/broken",
			Response: stub.ResponseSpec{Fixture: "missing.json"},
		},
	}))
	reg.Seal()

	return New(reg, fixtures.NewLoader(dir), cfg)
}

func serve(srv *Server, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func TestStub_ServesFixtureVerbatim(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := serve(srv, http.MethodGet, "/currentconditions/v1/294021?apikey=TEST")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, basicBody, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("ETag"))
}

func TestStub_PriorityDisambiguation(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := serve(srv, http.MethodGet, "/currentconditions/v1/294021?apikey=TEST&details=true")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, detailsBody, rec.Body.String())

	rec = serve(srv, http.MethodGet, "/currentconditions/v1/294021?apikey=TEST")
	assert.Equal(t, basicBody, rec.Body.String())
}

func TestStub_Unmatched(t *testing.T) {
	srv := newTestServer(t, nil)

	for _, target := range []string{
		"/unknown?apikey=TEST",
		"/currentconditions/v1/294021",
		"/currentconditions/v1/294021/historical/6?apikey=TEST",
	} {
		rec := serve(srv, http.MethodGet, target)
		assert.Equal(t, http.StatusNotFound, rec.Code, target)

		var body map[string]map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, string(core.ErrorTypeUnmatchedRequest), body["error"]["type"])
	}

	rec := serve(srv, http.MethodPost, "/currentconditions/v1/294021?apikey=TEST")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStub_NoContent(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := serve(srv, http.MethodGet, "/alerts/v1/178087?apikey=TEST")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
	assert.Empty(t, rec.Header().Get("ETag"))
}

func TestStub_MissingFixtureIsServerError(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := serve(srv, http.MethodGet, "/broken")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), string(core.ErrorTypeFixtureNotFound))
}

func TestRequestIDMiddleware(t *testing.T) {
	srv := newTestServer(t, nil)

	t.Run("generates request ID when missing", func(t *testing.T) {
		rec := serve(srv, http.MethodGet, "/__admin/health")
		assert.Len(t, rec.Header().Get("X-Request-ID"), 36)
	})

	t.Run("preserves existing request ID", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/__admin/health", nil)
		req.Header.Set("X-Request-ID", "my-custom-id")
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)
		assert.Equal(t, "my-custom-id", rec.Header().Get("X-Request-ID"))
	})
}

func TestJournalEndpoints(t *testing.T) {
	srv := newTestServer(t, nil)

	serve(srv, http.MethodGet, "/currentconditions/v1/294021?apikey=secret&details=true")
	serve(srv, http.MethodGet, "/nope")

	rec := serve(srv, http.MethodGet, "/__admin/requests")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Requests []JournalEntry `json:"requests"`
		Total    int            `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, 2, body.Total)
	assert.Equal(t, "details", body.Requests[0].Rule)
	assert.Equal(t, "details.json", body.Requests[0].Fixture)
	assert.True(t, body.Requests[0].Matched)
	assert.NotEmpty(t, body.Requests[0].ID)
	assert.False(t, body.Requests[1].Matched)
	assert.Equal(t, http.StatusNotFound, body.Requests[1].Status)

	assert.Equal(t, 1, srv.Journal().CountRule("details"))
	assert.Len(t, srv.Journal().Unmatched(), 1)

	rec = serve(srv, http.MethodDelete, "/__admin/requests")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 0, srv.Journal().Len())
}

func TestRulesEndpoint_EvaluationOrder(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := serve(srv, http.MethodGet, "/__admin/rules")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Rules []stub.Rule `json:"rules"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Rules, 4)
	assert.Equal(t, "details", body.Rules[0].Name)
	assert.Equal(t, "basic", body.Rules[1].Name, "equal priority keeps registration order")
	assert.Equal(t, "quiet-alerts", body.Rules[2].Name)
	assert.Equal(t, "broken", body.Rules[3].Name)
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, nil)
	rec := serve(srv, http.MethodGet, "/__admin/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","rules":4}`, rec.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	tests := []struct {
		name           string
		config         *Config
		requestPath    string
		expectedStatus int
		expectBody     string
	}{
		{
			name:           "metrics enabled - default endpoint",
			config:         &Config{MetricsEnabled: true},
			requestPath:    "/__admin/metrics",
			expectedStatus: http.StatusOK,
			expectBody:     "stub_requests_total",
		},
		{
			name:           "metrics enabled - custom endpoint",
			config:         &Config{MetricsEnabled: true, MetricsEndpoint: "/custom/metrics"},
			requestPath:    "/custom/metrics",
			expectedStatus: http.StatusOK,
			expectBody:     "go_goroutines",
		},
		{
			name:           "metrics disabled - path falls through to the stub",
			config:         &Config{MetricsEnabled: false},
			requestPath:    "/__admin/metrics",
			expectedStatus: http.StatusNotFound,
			expectBody:     string(core.ErrorTypeUnmatchedRequest),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, tt.config)
			serve(srv, http.MethodGet, "/currentconditions/v1/1?apikey=x")

			rec := serve(srv, http.MethodGet, tt.requestPath)
			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.expectBody)
		})
	}
}

func TestMetrics_CountByOutcome(t *testing.T) {
	srv := newTestServer(t, nil)

	serve(srv, http.MethodGet, "/currentconditions/v1/1?apikey=x")
	serve(srv, http.MethodGet, "/currentconditions/v1/2?apikey=x")
	serve(srv, http.MethodGet, "/nothing")
	serve(srv, http.MethodGet, "/broken")

	m := srv.handler.metrics
	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("basic", outcomeMatched)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("", outcomeUnmatched)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("broken", outcomeError)))
}

func TestServer_StartAndShutdown(t *testing.T) {
	srv := newTestServer(t, nil)
	assert.Empty(t, srv.URL())

	require.NoError(t, srv.Start("127.0.0.1:0"))
	url := srv.URL()
	require.True(t, strings.HasPrefix(url, "http://127.0.0.1:"))
	assert.NotEqual(t, "http://127.0.0.1:0", url)

	err := srv.Start("127.0.0.1:0")
	assert.True(t, core.IsType(err, core.ErrorTypeConfiguration))

	resp, err := http.Get(url + "/currentconditions/v1/294021?apikey=TEST&details=true")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, detailsBody, string(body))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))

	_, err = http.Get(url + "/__admin/health")
	assert.Error(t, err)
}

func TestServer_StartBindFailure(t *testing.T) {
	srv := newTestServer(t, nil)
	err := srv.Start("256.0.0.1:0")
	require.Error(t, err)
	assert.True(t, core.IsSetupFatal(err))
}
