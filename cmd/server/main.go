// Package main is the entry point for the food diary backend.
//
// The main package stays minimal. It reads configuration, builds the logger,
// makes sure the database directory exists, and hands off to internal/server.
// All actual logic lives in imported packages.
package main

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sakif/food-diary/internal/config"
	"github.com/sakif/food-diary/internal/server"
)

func main() {
	// === 1. READ CONFIGURATION ===
	// .env is optional; real environment variables override it.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// === 2. SET UP LOGGING ===
	logger := cfg.NewLogger(os.Stdout, slog.LevelDebug)

	// === 3. DATABASE PATH ===
	// The directory is created on first run (like `mkdir -p`).
	// An in-memory database needs no directory.
	if cfg.DBPath != ":memory:" {
		dbDir := filepath.Dir(cfg.DBPath)
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			logger.Error("failed to create database directory",
				slog.String("dir", dbDir),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
	}

	// === 4. CREATE AND START THE SERVER ===
	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start() blocks until the server is shut down (via Ctrl+C or SIGTERM)
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
