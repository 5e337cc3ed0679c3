/*
Package config loads server settings from the environment.

SOURCES (later wins):
  1. Defaults below
  2. A .env file, when present (github.com/joho/godotenv); variables
     already set in the environment are not overridden by it
  3. The process environment
  4. Command-line flags in cmd/server

VARIABLES:
  PAYE_ADDR               Listen address            (":8080")
  PAYE_DB                 SQLite path or ":memory:" ("paye.db")
  PAYE_TAX_YEARS_DIR      Extra/override YAML tables ("")
  PAYE_ALLOWED_ORIGINS    Comma-separated CORS list  (local dev servers)
  PAYE_LOG_LEVEL          debug|info|warn|error      ("info")
  PAYE_LOG_FORMAT         text|json                  ("text")
  PAYE_HISTORY_RETENTION  Go duration, 0 keeps all   ("0")
*/
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr             string
	DBPath           string
	TaxYearsDir      string
	AllowedOrigins   []string
	LogLevel         string
	LogFormat        string
	HistoryRetention time.Duration
}

// Load reads an optional .env file (envFile; "" means ".env") and then the
// environment. A missing .env file is not an error.
func Load(envFile string) (Config, error) {
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load %s: %w", envFile, err)
	}

	cfg := Config{
		Addr:           getEnv("PAYE_ADDR", ":8080"),
		DBPath:         getEnv("PAYE_DB", "paye.db"),
		TaxYearsDir:    getEnv("PAYE_TAX_YEARS_DIR", ""),
		AllowedOrigins: splitList(getEnv("PAYE_ALLOWED_ORIGINS", "")),
		LogLevel:       strings.ToLower(getEnv("PAYE_LOG_LEVEL", "info")),
		LogFormat:      strings.ToLower(getEnv("PAYE_LOG_FORMAT", "text")),
	}

	retention := getEnv("PAYE_HISTORY_RETENTION", "0")
	d, err := time.ParseDuration(retention)
	if err != nil {
		return Config{}, fmt.Errorf("PAYE_HISTORY_RETENTION: %w", err)
	}
	cfg.HistoryRetention = d

	if _, err := parseLevel(cfg.LogLevel); err != nil {
		return Config{}, err
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return Config{}, fmt.Errorf("PAYE_LOG_FORMAT: unknown format %q", cfg.LogFormat)
	}
	return cfg, nil
}

// Logger builds the structured logger described by the config.
func (c Config) Logger(w io.Writer) *slog.Logger {
	level, _ := parseLevel(c.LogLevel)
	opts := &slog.HandlerOptions{Level: level}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("PAYE_LOG_LEVEL: %w", err)
	}
	return level, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
