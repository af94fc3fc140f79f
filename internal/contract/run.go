package contract

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"text/tabwriter"
	"time"

	"weathercontract/internal/weather"
)

// Getter issues a single GET. *weather.Client implements it.
type Getter interface {
	Get(ctx context.Context, req weather.Request) (*weather.Response, error)
}

// Report collects the results of a run in execution order.
type Report struct {
	Mode     Mode
	Results  []Result
	Duration time.Duration
}

// OK reports whether no endpoint failed. Skipped endpoints do not count.
func (r Report) OK() bool {
	for _, res := range r.Results {
		if !res.Skipped && !res.Passed() {
			return false
		}
	}
	return true
}

// Counts returns the number of passed, failed and skipped endpoints.
func (r Report) Counts() (passed, failed, skipped int) {
	for _, res := range r.Results {
		switch {
		case res.Skipped:
			skipped++
		case res.Passed():
			passed++
		default:
			failed++
		}
	}
	return passed, failed, skipped
}

// Run checks endpoints one at a time in display-name order. A failing
// endpoint never stops the run; only ctx cancellation does, and every endpoint
// left unchecked at that point is reported as failed.
func Run(ctx context.Context, client Getter, endpoints []Endpoint, mode Mode) Report {
	start := time.Now()
	report := Report{Mode: mode}

	for _, e := range SortByDisplayName(endpoints) {
		if err := ctx.Err(); err != nil {
			res := Result{Endpoint: e, Mode: mode, Skipped: !e.Expect(mode).Enabled()}
			if !res.Skipped {
				res.Err = fmt.Errorf("not run: %w", err)
			}
			report.Results = append(report.Results, res)
			continue
		}
		res := RunOne(ctx, client, e, mode)
		if res.Passed() {
			slog.Debug("endpoint passed", "endpoint", e.DisplayName(), "status", res.Status)
		} else if !res.Skipped {
			slog.Info("endpoint failed", "endpoint", e.DisplayName(), "error", res.Error())
		}
		report.Results = append(report.Results, res)
	}

	report.Duration = time.Since(start)
	return report
}

// RunOne requests e and checks the response.
func RunOne(ctx context.Context, client Getter, e Endpoint, mode Mode) Result {
	if !e.Expect(mode).Enabled() {
		return Result{Endpoint: e, Mode: mode, Skipped: true}
	}
	resp, err := client.Get(ctx, weather.Request{Path: e.Path, Query: e.Query})
	if err != nil {
		return Result{Endpoint: e, Mode: mode, Err: err}
	}
	return Check(e, mode, resp)
}

// WriteText prints a human-readable summary of the report.
func (r Report) WriteText(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "RESULT\tENDPOINT\tSTORY\tSEVERITY\tSTATUS\tLATENCY\n")
	for _, res := range r.Results {
		outcome := "PASS"
		switch {
		case res.Skipped:
			outcome = "SKIP"
		case !res.Passed():
			outcome = "FAIL"
		}
		status := "-"
		if res.Status != 0 {
			status = fmt.Sprint(res.Status)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			outcome, res.Endpoint.DisplayName(), res.Endpoint.Story, res.Endpoint.Severity,
			status, res.Latency.Round(time.Millisecond))
		if !res.Skipped && !res.Passed() {
			for _, line := range strings.Split(res.Error().Error(), "\n") {
				fmt.Fprintf(tw, "\t  %s\t\t\t\t\n", line)
			}
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	passed, failed, skipped := r.Counts()
	_, err := fmt.Fprintf(w, "\n%s: %d passed, %d failed, %d skipped in %s\n",
		r.Mode, passed, failed, skipped, r.Duration.Round(time.Millisecond))
	return err
}
