// Package main runs the endpoint contracts against the real weather API or
// against the stub and prints a summary.
//
// Usage:
//
//	API_KEY=xxx go run ./cmd/contractcheck -mode=live
//	go run ./cmd/contractcheck -mode=mock
//	go run ./cmd/contractcheck -mode=live -base-url=http://127.0.0.1:8089
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"weathercontract/config"
	"weathercontract/internal/app"
	"weathercontract/internal/contract"
	"weathercontract/internal/logging"
	"weathercontract/internal/weather"
)

func main() {
	os.Exit(run())
}

func run() int {
	mode := flag.String("mode", "live", "Expectations to check (live, mock)")
	baseURL := flag.String("base-url", "", "API root to call (overrides BASE_URL; in mock mode defaults to an in-process stub)")
	location := flag.String("location", "", "Location key (overrides DEFAULT_LOCATION_KEY)")
	language := flag.String("language", "", "Forecast language (overrides LANGUAGE)")
	flag.Parse()

	m := contract.Mode(*mode)
	if m != contract.ModeLive && m != contract.ModeMock {
		fmt.Fprintf(os.Stderr, "Error: unknown mode %q\n", *mode)
		flag.Usage()
		return 2
	}

	result, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	cfg := result.Config

	logger := logging.New(logging.Options{
		Format: cfg.Logging.Format,
		Level:  cfg.Logging.Level,
		Output: os.Stderr,
	})
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	target := cfg.API.BaseURL
	if *baseURL != "" {
		target = *baseURL
	}

	if m == contract.ModeMock && *baseURL == "" {
		stub, err := app.New(app.Config{AppConfig: cfg, Logger: logger})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		if err := stub.Start(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = stub.Shutdown(shutdownCtx)
		}()
		target = stub.URL()
	}

	params := contract.Params{LocationKey: cfg.API.DefaultLocationKey, Language: cfg.API.Language}
	if *location != "" {
		params.LocationKey = *location
	}
	if *language != "" {
		params.Language = *language
	}

	endpoints := contract.Catalog(params)
	if m == contract.ModeMock {
		endpoints = append(endpoints, contract.MockScenarios(params)...)
	}

	client := weather.New(weather.Config{
		BaseURL: target,
		APIKey:  cfg.API.APIKey,
		Timeout: cfg.HTTP.Timeout,
	}, logging.NewHTTPHooks(logger))

	slog.Info("running contracts", "mode", m, "base_url", target, "endpoints", len(endpoints))
	report := contract.Run(ctx, client, endpoints, m)

	if err := report.WriteText(os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing report: %v\n", err)
	}
	if !report.OK() {
		return 1
	}
	return 0
}
