// Package transport turns accepted TCP sockets into framed message
// streams.  It owns CRLF framing, the fixed receive buffer and the
// per-connection outbound queue; what the messages mean is the irc
// package's job.
package transport

import (
	"net"

	"iris/internal/metrics"
)

// Conn is one accepted client socket split into its read side, which
// belongs exclusively to the connection loop, and its write side,
// which is shared through an Outbox.
type Conn struct {
	ID     string // remote address, stable for the life of the socket
	Raw    net.Conn
	Reader *FrameReader
	Writer *FrameWriter
}

// NewConn wraps nc.  The reader's buffer comes from the shared pool and
// must be handed back with Reader.Release once the loop is done.
func NewConn(nc net.Conn, m *metrics.Collector) *Conn {
	return &Conn{
		ID:     nc.RemoteAddr().String(),
		Raw:    nc,
		Reader: NewFrameReader(nc, m),
		Writer: NewFrameWriter(nc, m),
	}
}

// Close closes the underlying socket, unblocking any pending read or
// write.  It is safe to call from any goroutine.
func (c *Conn) Close() error {
	return c.Raw.Close()
}
