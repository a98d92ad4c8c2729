package config

import "time"

// ── Default values ───────────────────────────────────────────────────
//
// All tuneable defaults live here so they are easy to audit and reuse
// across CLI flags and environment variable loading.

const (
	// DefaultAddress is the loopback address the server binds to.
	DefaultAddress = "127.0.0.1"

	// DefaultPort is the well-known port the server listens on.
	DefaultPort = 6991

	// DefaultServerName prefixes every server reply.
	DefaultServerName = "iris-server"

	// DefaultOutboxSize is how many outbound messages may queue per
	// connection before senders block.
	DefaultOutboxSize = 64

	// DefaultVerbosity is the normal log level.
	DefaultVerbosity = 1

	// DefaultGracePeriod is how long shutdown waits for connection
	// loops to flush and exit.
	DefaultGracePeriod = 5 * time.Second

	// MaxFrameSize is the receive buffer size and therefore the longest
	// message, CRLF included.
	MaxFrameSize = 512
)
