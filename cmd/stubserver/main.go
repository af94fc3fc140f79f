// Package main runs the mock weather API as a standalone server.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"weathercontract/config"
	"weathercontract/internal/app"
	"weathercontract/internal/logging"
)

func main() {
	port := flag.Int("port", -1, "Port to listen on (overrides STUB_PORT; 0 picks a free port)")
	flag.Parse()

	result, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := result.Config
	if *port >= 0 {
		cfg.Stub.Port = *port
	}

	logger := logging.New(logging.Options{
		Format: cfg.Logging.Format,
		Level:  cfg.Logging.Level,
		Output: os.Stderr,
	})
	slog.SetDefault(logger)

	for _, src := range result.Sources {
		slog.Info("config source loaded", "path", src)
	}

	application, err := app.New(app.Config{AppConfig: cfg, Logger: logger})
	if err != nil {
		slog.Error("failed to initialize stub", "error", err)
		os.Exit(1)
	}

	if err := application.Start(); err != nil {
		slog.Error("server failed to start", "error", err)
		os.Exit(1)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := application.Shutdown(ctx); err != nil {
		os.Exit(1)
	}
}
