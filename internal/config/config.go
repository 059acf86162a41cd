// Package config loads runtime settings from the environment.
//
// An optional .env file in the working directory is read first with godotenv.
// Variables already present in the environment win over the file, so a
// deployment can override anything the file sets.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds settings for both binaries. Fields a binary does not need are
// ignored by it.
type Config struct {
	Port               int
	DBPath             string
	SearchCacheTTL     time.Duration
	SeedReferenceFoods bool
	LogLevel           slog.Level

	// APIURL is the backend base URL used by the client and mealctl.
	APIURL string
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		Port:               8080,
		DBPath:             "data/fooddiary.db",
		SearchCacheTTL:     15 * time.Minute,
		SeedReferenceFoods: true,
		LogLevel:           slog.LevelDebug,
		APIURL:             "http://localhost:8080",
	}
}

// Load reads .env (if present) and the environment on top of Default.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("config: reading .env: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function, typically os.Getenv.
func FromEnv(getenv func(string) string) (Config, error) {
	cfg := Default()

	if v := getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 || port > 65535 {
			return Config{}, fmt.Errorf("config: invalid PORT %q", v)
		}
		cfg.Port = port
	}

	if v := getenv("DB_PATH"); v != "" {
		cfg.DBPath = v
	}

	if v := getenv("SEARCH_CACHE_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil || ttl < 0 {
			return Config{}, fmt.Errorf("config: invalid SEARCH_CACHE_TTL %q", v)
		}
		cfg.SearchCacheTTL = ttl
	}

	if v := getenv("SEED_REFERENCE_FOODS"); v != "" {
		seed, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("config: invalid SEED_REFERENCE_FOODS %q", v)
		}
		cfg.SeedReferenceFoods = seed
	}

	if v := getenv("LOG_LEVEL"); v != "" {
		var level slog.Level
		if err := level.UnmarshalText([]byte(strings.ToUpper(v))); err != nil {
			return Config{}, fmt.Errorf("config: invalid LOG_LEVEL %q", v)
		}
		cfg.LogLevel = level
	}

	if v := getenv("API_URL"); v != "" {
		cfg.APIURL = strings.TrimRight(v, "/")
	}

	return cfg, nil
}

// NewLogger builds the text logger both binaries use, writing to w.
// Records below LogLevel or floor, whichever is higher, are dropped;
// mealctl raises the floor so logs stay out of the way of its prompt.
func (c Config) NewLogger(w io.Writer, floor slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: max(c.LogLevel, floor),
	}))
}
