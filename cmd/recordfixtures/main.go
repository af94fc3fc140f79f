// Package main records a real weather API response into the fixture that the
// stub serves for the same request.
//
// Usage:
//
//	API_KEY=xxx go run ./cmd/recordfixtures -endpoint=12
//	API_KEY=xxx go run ./cmd/recordfixtures -endpoint=6 -output=/tmp/basic.json
//	go run ./cmd/recordfixtures -list
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"weathercontract/config"
	"weathercontract/internal/contract"
	"weathercontract/internal/logging"
	"weathercontract/internal/stub"
	"weathercontract/internal/weather"
)

func main() {
	id := flag.Int("endpoint", 0, "Catalog ID of the endpoint to record")
	output := flag.String("output", "", "Output file path (defaults to the fixture the stub serves for this request)")
	list := flag.Bool("list", false, "List catalog endpoints and the fixture each one maps to")
	force := flag.Bool("force", false, "Write the body even when the status is not 200")
	flag.Parse()

	result, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	cfg := result.Config

	rules, err := stub.LoadRuleSet(cfg.Stub.RulesFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	registry := stub.NewRegistry()
	if err := registry.RegisterAll(rules); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	registry.Seal()

	catalog := contract.Catalog(contract.Params{
		LocationKey: cfg.API.DefaultLocationKey,
		Language:    cfg.API.Language,
	})

	if *list {
		for _, e := range catalog {
			fmt.Printf("%-50s %s\n", e.DisplayName(), fixtureFor(registry, e))
		}
		return
	}

	var endpoint *contract.Endpoint
	for i := range catalog {
		if catalog[i].ID == *id {
			endpoint = &catalog[i]
			break
		}
	}
	if endpoint == nil {
		fmt.Fprintf(os.Stderr, "Error: unknown endpoint %d\n", *id)
		flag.Usage()
		os.Exit(1)
	}

	if cfg.API.APIKey == "" {
		fmt.Fprintln(os.Stderr, "Error: API_KEY is required")
		os.Exit(1)
	}

	path := *output
	if path == "" {
		name := fixtureFor(registry, *endpoint)
		if name == "" {
			fmt.Fprintf(os.Stderr, "Error: no stub rule serves a fixture for %s\n", endpoint.DisplayName())
			os.Exit(1)
		}
		path = filepath.Join(cfg.Stub.FixturesDir, name)
	}

	client := weather.New(weather.Config{
		BaseURL: cfg.API.BaseURL,
		APIKey:  cfg.API.APIKey,
		Timeout: cfg.HTTP.Timeout,
	}, logging.NewHTTPHooks(logging.New(logging.Options{Format: cfg.Logging.Format, Level: cfg.Logging.Level})))

	fmt.Printf("Sending request to GET %s%s...\n", cfg.API.BaseURL, endpoint.Path)
	resp, err := client.Get(context.Background(), weather.Request{Path: endpoint.Path, Query: endpoint.Query})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error sending request: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Response status: %d in %s\n", resp.StatusCode, resp.Latency)

	if resp.StatusCode != http.StatusOK && !*force {
		fmt.Fprintf(os.Stderr, "Error: refusing to record a %d response (use -force)\n", resp.StatusCode)
		os.Exit(1)
	}

	var pretty bytes.Buffer
	body := resp.Body
	if err := json.Indent(&pretty, resp.Body, "", "  "); err == nil {
		pretty.WriteByte('\n')
		body = pretty.Bytes()
	} else {
		fmt.Println("Response is not JSON, writing raw body")
	}

	if err := writeOutput(path, body); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Response saved to %s\n", path)
}

// fixtureFor resolves the request the endpoint would send against the stub
// rules and returns the fixture the winning rule serves.
func fixtureFor(registry *stub.Registry, e contract.Endpoint) string {
	q := url.Values{}
	for k, v := range e.Query {
		q[k] = v
	}
	q.Set("apikey", "record")
	match, ok := registry.Resolve(stub.NewIncomingRequest(http.MethodGet, e.Path, q))
	if !ok {
		return ""
	}
	return match.Rule.Response.Fixture
}

// writeOutput writes data to the output file, creating directories as needed.
func writeOutput(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
