// Package config defines the runtime configuration for iris.
package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	ierr "iris/internal/errors"
	"iris/util"
)

// Config holds every tuneable for one server process.
type Config struct {
	// ── Listener ─────────────────────────────────────────────────────
	Address string // IP address to bind
	Port    int

	// ── Protocol ─────────────────────────────────────────────────────
	ServerName string
	Channels   []string // created at startup; JOIN never creates one
	OutboxSize int

	// ── Operator surfaces ────────────────────────────────────────────
	MetricsAddress string // admin HTTP listen address; empty disables
	Console        bool

	// ── Output ───────────────────────────────────────────────────────
	Verbose int
	DryRun  bool
}

// Default returns a Config populated from defaults.go.
func Default() *Config {
	return &Config{
		Address:    DefaultAddress,
		Port:       DefaultPort,
		ServerName: DefaultServerName,
		OutboxSize: DefaultOutboxSize,
		Console:    true,
		Verbose:    DefaultVerbosity,
	}
}

// ListenAddr is the host:port the acceptor binds.
func (c *Config) ListenAddr() string {
	return util.FormatAddr(c.Address, c.Port)
}

// ParsePort accepts a decimal port in 0-65535.  Zero asks the kernel
// for a free port.
func ParsePort(spec string) (int, error) {
	port, err := strconv.Atoi(spec)
	if err != nil {
		return 0, fmt.Errorf("invalid port %q", spec)
	}
	if port < 0 || port > 65535 {
		return 0, fmt.Errorf("port %d out of range 0-65535", port)
	}
	return port, nil
}

// ParseChannels splits a comma-separated channel list, dropping empty
// entries.
func ParseChannels(list string) []string {
	var out []string
	for _, c := range strings.Split(list, ",") {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}

// ── Validation ───────────────────────────────────────────────────────

// Validate checks that the configuration is usable.  Failures are
// *ierr.ConfigError values carrying a hint for the operator.
func (c *Config) Validate() error {
	if net.ParseIP(c.Address) == nil {
		return &ierr.ConfigError{
			Field:   "address",
			Value:   c.Address,
			Message: "not an IP address",
			Hint:    "pass a literal address such as 127.0.0.1 or ::1",
		}
	}
	if c.Port < 0 || c.Port > 65535 {
		return &ierr.ConfigError{
			Field:   "port",
			Value:   c.Port,
			Message: "out of range 0-65535",
			Hint:    fmt.Sprintf("the default is %d", DefaultPort),
		}
	}
	if c.ServerName == "" || strings.ContainsAny(c.ServerName, " \t\r\n:") {
		return &ierr.ConfigError{
			Field:   "name",
			Value:   c.ServerName,
			Message: "must be a single word without ':'",
			Hint:    "try --name irc.example.net",
		}
	}
	for _, ch := range c.Channels {
		if len(ch) < 2 || ch[0] != '#' || strings.ContainsAny(ch, " ,\t") {
			return &ierr.ConfigError{
				Field:   "channel",
				Value:   ch,
				Message: "channel names start with '#' and contain no spaces or commas",
				Hint:    "quote the name in your shell: --channel '#general'",
			}
		}
	}
	if c.OutboxSize < 1 {
		return &ierr.ConfigError{
			Field:   "outbox",
			Value:   c.OutboxSize,
			Message: "must be at least 1",
			Hint:    fmt.Sprintf("the default is %d", DefaultOutboxSize),
		}
	}
	if c.MetricsAddress != "" {
		if _, _, err := net.SplitHostPort(c.MetricsAddress); err != nil {
			return &ierr.ConfigError{
				Field:   "metrics",
				Value:   c.MetricsAddress,
				Message: err.Error(),
				Hint:    "use host:port, e.g. 127.0.0.1:9090 or :9090",
			}
		}
	}
	return nil
}
