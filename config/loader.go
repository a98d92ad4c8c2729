package config

// loader.go - configuration loading from environment variables.
//
// Precedence order (highest wins):
//   1. CLI flags  (handled by cmd/root.go)
//   2. Environment variables  (this file)
//   3. Defaults   (defaults.go)

import (
	"os"
	"strconv"
	"strings"
)

// ── Environment variable mapping ─────────────────────────────────────
//
// Every supported env var uses the IRIS_ prefix.  Boolean values
// accept "1", "true", "yes" (case-insensitive).

// LoadFromEnv overlays environment variables onto cfg.  Only non-empty
// env vars override the existing value.  This should be called BEFORE
// CLI flag parsing so that flags take precedence.
func LoadFromEnv(cfg *Config) {
	if v := os.Getenv("IRIS_ADDRESS"); v != "" {
		cfg.Address = v
	}
	if v, ok := envInt("IRIS_PORT"); ok {
		cfg.Port = v
	}
	if v := os.Getenv("IRIS_NAME"); v != "" {
		cfg.ServerName = v
	}
	if v := os.Getenv("IRIS_CHANNELS"); v != "" {
		cfg.Channels = ParseChannels(v)
	}
	if v, ok := envInt("IRIS_OUTBOX"); ok && v > 0 {
		cfg.OutboxSize = v
	}

	if v := os.Getenv("IRIS_METRICS"); v != "" {
		cfg.MetricsAddress = v
	}
	if envBool("IRIS_NO_CONSOLE") {
		cfg.Console = false
	}

	if v, ok := envInt("IRIS_VERBOSE"); ok && v >= 0 {
		cfg.Verbose = v
	}
}

// ── helpers ──────────────────────────────────────────────────────────

func envInt(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func envBool(key string) bool {
	v := strings.ToLower(os.Getenv(key))
	return v == "1" || v == "true" || v == "yes"
}
