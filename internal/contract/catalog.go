package contract

import (
	"net/http"
	"net/url"
	"time"
)

const (
	// DefaultLocationKey is Minsk.
	DefaultLocationKey = "294021"
	// QuietLocationKey is the location the stub reports no active alerts for.
	QuietLocationKey = "178087"

	perfLatencyLimit = 3000 * time.Millisecond
)

// Params fills the location and language into the catalog.
type Params struct {
	LocationKey string
	Language    string
}

// DefaultParams returns the parameters used when nothing is configured.
func DefaultParams() Params {
	return Params{LocationKey: DefaultLocationKey, Language: "en-us"}
}

func (p Params) withDefaults() Params {
	d := DefaultParams()
	if p.LocationKey == "" {
		p.LocationKey = d.LocationKey
	}
	if p.Language == "" {
		p.Language = d.Language
	}
	return p
}

var (
	entitled         = []int{http.StatusOK, http.StatusUnauthorized, http.StatusForbidden}
	entitledOrAbsent = []int{http.StatusOK, http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound}
	entitledOrEmpty  = []int{http.StatusOK, http.StatusNoContent, http.StatusUnauthorized, http.StatusForbidden}
	okOnly           = []int{http.StatusOK}
)

func query(kv ...string) url.Values {
	q := url.Values{}
	for i := 0; i+1 < len(kv); i += 2 {
		q.Set(kv[i], kv[i+1])
	}
	return q
}

// Catalog returns the twenty endpoints of the suite in ID order.
func Catalog(params Params) []Endpoint {
	p := params.withDefaults()
	loc := p.LocationKey

	return []Endpoint{
		{
			ID: 1, Title: "Cities search returns at least one result",
			Story: "City search", Severity: SeverityCritical,
			Path: "/locations/v1/cities/search", Query: query("q", "Minsk"),
			Live: Expectation{Statuses: entitled, RequireJSON: true},
			Mock: Expectation{Statuses: okOnly},
		},
		{
			ID: 2, Title: "Autocomplete suggests cities",
			Story: "Locations", Severity: SeverityNormal,
			Path: "/locations/v1/cities/autocomplete", Query: query("q", "Lon"),
			Live: Expectation{Statuses: entitled, RequireJSON: true},
			Mock: Expectation{Statuses: okOnly, Body: []BodyCheck{Equals("0.LocalizedName", "London")}},
		},
		{
			ID: 3, Title: "Geoposition search by lat/lon returns location key",
			Story: "Locations", Severity: SeverityNormal,
			Path: "/locations/v1/cities/geoposition/search", Query: query("q", "53.9,27.5667"),
			Live: Expectation{Statuses: entitled, RequireJSON: true},
			Mock: Expectation{Statuses: okOnly, Body: []BodyCheck{Equals("Key", DefaultLocationKey)}},
		},
		{
			ID: 4, Title: "Postal codes search returns matches",
			Story: "Locations", Severity: SeverityMinor,
			Path: "/locations/v1/postalcodes/search", Query: query("q", "10001"),
			Live: Expectation{Statuses: entitled, RequireJSON: true},
			Mock: Expectation{Statuses: okOnly, Body: []BodyCheck{Equals("0.PrimaryPostalCode", "10001")}},
		},
		{
			ID: 5, Title: "Top 50 cities returns list",
			Story: "Locations", Severity: SeverityTrivial,
			Path: "/locations/v1/topcities/50",
			Live: Expectation{Statuses: entitled, RequireJSON: true},
			Mock: Expectation{Statuses: okOnly, Body: []BodyCheck{NotNull("0.LocalizedName")}},
		},
		{
			ID: 6, Title: "Current conditions basic",
			Story: "Current conditions", Severity: SeverityCritical,
			Path: "/currentconditions/v1/" + loc,
			Live: Expectation{Statuses: entitled, RequireJSON: true},
			Mock: Expectation{Statuses: okOnly, Body: []BodyCheck{Equals("0.WeatherText", "Cloudy")}},
		},
		{
			ID: 7, Title: "Current conditions with details",
			Story: "Current conditions", Severity: SeverityCritical,
			Path: "/currentconditions/v1/" + loc, Query: query("details", "true"),
			Live: Expectation{Statuses: entitled, RequireJSON: true},
			Mock: Expectation{Statuses: okOnly, Body: []BodyCheck{Equals("0.RealFeelTemperature.Metric.Unit", "C")}},
		},
		{
			ID: 8, Title: "Historical current conditions (6h)",
			Story: "Historical conditions", Severity: SeverityNormal,
			Path: "/currentconditions/v1/" + loc + "/historical/6",
			Live: Expectation{Statuses: entitledOrAbsent},
			Mock: Expectation{Statuses: okOnly, Body: []BodyCheck{CountAbove("", 0)}},
		},
		{
			ID: 9, Title: "Historical current conditions (24h)",
			Story: "Historical conditions", Severity: SeverityNormal,
			Path: "/currentconditions/v1/" + loc + "/historical/24",
			Live: Expectation{Statuses: entitled},
			Mock: Expectation{Statuses: okOnly, Body: []BodyCheck{CountAbove("", 0)}},
		},
		{
			ID: 10, Title: "Current conditions for top cities 50",
			Story: "Current conditions for top cities", Severity: SeverityMinor,
			Path: "/currentconditions/v1/topcities/50",
			Live: Expectation{Statuses: entitled},
			Mock: Expectation{Statuses: okOnly, Body: []BodyCheck{Equals("0.Temperature.Metric.Unit", "C")}},
		},
		{
			ID: 11, Title: "1 day daily forecast",
			Story: "Forecasts", Severity: SeverityCritical,
			Path: "/forecasts/v1/daily/1day/" + loc, Query: query("language", p.Language, "metric", "true"),
			Live: Expectation{Statuses: entitled},
			Mock: Expectation{Statuses: okOnly, Body: []BodyCheck{CountAtLeast("DailyForecasts", 1)}},
		},
		{
			ID: 12, Title: "5 day daily forecast",
			Story: "Forecasts", Severity: SeverityCritical,
			Path: "/forecasts/v1/daily/5day/" + loc, Query: query("metric", "true"),
			Live: Expectation{Statuses: entitled},
			Mock: Expectation{Statuses: okOnly, Body: []BodyCheck{CountEquals("DailyForecasts", 5)}},
		},
		{
			ID: 13, Title: "12 hour hourly forecast",
			Story: "Forecasts", Severity: SeverityNormal,
			Path: "/forecasts/v1/hourly/12hour/" + loc, Query: query("metric", "true"),
			Live: Expectation{Statuses: entitled},
			Mock: Expectation{Statuses: okOnly, Body: []BodyCheck{CountAbove("", 0)}},
		},
		{
			ID: 14, Title: "24 hour hourly forecast",
			Story: "Forecasts", Severity: SeverityNormal,
			Path: "/forecasts/v1/hourly/24hour/" + loc, Query: query("metric", "true"),
			Live: Expectation{Statuses: entitled},
			Mock: Expectation{Statuses: okOnly, Body: []BodyCheck{CountAbove("", 0)}},
		},
		{
			ID: 15, Title: "Quarter-day 1 day forecast",
			Story: "Forecasts", Severity: SeverityMinor,
			Path: "/forecasts/v1/quarterday/1day/" + loc, Query: query("metric", "true"),
			Live: Expectation{Statuses: entitledOrAbsent},
			Mock: Expectation{Statuses: okOnly, Body: []BodyCheck{CountEquals("", 4)}},
		},
		{
			ID: 16, Title: "Indices 1 day",
			Story: "Weather indices", Severity: SeverityNormal,
			Path: "/indices/v1/daily/1day/" + loc,
			Live: Expectation{Statuses: entitled},
			Mock: Expectation{Statuses: okOnly, Body: []BodyCheck{CountAbove("", 0)}},
		},
		{
			ID: 17, Title: "Indices 5 days",
			Story: "Weather indices", Severity: SeverityNormal,
			Path: "/indices/v1/daily/5day/" + loc,
			Live: Expectation{Statuses: entitled},
			Mock: Expectation{Statuses: okOnly, Body: []BodyCheck{CountAbove("", 0)}},
		},
		{
			ID: 18, Title: "Alerts by location",
			Story: "Weather alerts", Severity: SeverityCritical,
			Path: "/alerts/v1/" + loc,
			Live: Expectation{Statuses: entitledOrEmpty},
			Mock: Expectation{Statuses: okOnly, Body: []BodyCheck{NotNull("0.Severity")}},
		},
		{
			ID: 19, Title: "Forecasts localized language ru-ru",
			Story: "Forecast localization", Severity: SeverityMinor,
			Path: "/forecasts/v1/daily/1day/" + loc, Query: query("language", "ru-ru", "metric", "true"),
			Live: Expectation{Statuses: entitled},
			Mock: Expectation{Statuses: okOnly, Body: []BodyCheck{NotNull("Headline.Text")}},
		},
		{
			ID: 20, Title: "Current conditions header+time checks",
			Story: "Non-functional checks", Severity: SeverityTrivial,
			Path: "/currentconditions/v1/" + loc,
			Live: Expectation{Statuses: entitled, RequireJSON: true, MaxLatency: perfLatencyLimit},
			Mock: Expectation{Statuses: okOnly, RequireJSON: true},
		},
	}
}

// MockScenarios returns stub-only endpoints that exercise rule selection
// beyond the catalog: the no-alerts branch, and the unqualified variants that
// must not be shadowed by a higher-priority rule.
func MockScenarios(params Params) []Endpoint {
	p := params.withDefaults()
	loc := p.LocationKey

	return []Endpoint{
		{
			ID: 7, Title: "Current conditions without details omits RealFeel",
			Story: "Current conditions", Severity: SeverityNormal,
			Path: "/currentconditions/v1/" + loc,
			Mock: Expectation{Statuses: okOnly, RequireJSON: true, Body: []BodyCheck{
				Equals("0.WeatherText", "Cloudy"),
				Missing("0.RealFeelTemperature"),
			}},
		},
		{
			ID: 11, Title: "1 day daily forecast in default language",
			Story: "Forecasts", Severity: SeverityNormal,
			Path: "/forecasts/v1/daily/1day/" + loc, Query: query("language", "en-us", "metric", "true"),
			Mock: Expectation{Statuses: okOnly, Body: []BodyCheck{
				CountEquals("DailyForecasts", 1),
				Equals("Headline.Text", "Expect showers Saturday afternoon"),
			}},
		},
		{
			ID: 18, Title: "Alerts for a location with no active alerts",
			Story: "Weather alerts", Severity: SeverityNormal,
			Path: "/alerts/v1/" + QuietLocationKey,
			Live: Expectation{Statuses: entitledOrEmpty},
			Mock: Expectation{Statuses: []int{http.StatusNoContent}, Body: []BodyCheck{EmptyBody()}},
		},
	}
}
