package core

import (
	"context"
	"time"

	ierr "iris/internal/errors"
	"iris/internal/irc"
	"iris/internal/session"
	"iris/internal/transport"
	"iris/util"
)

// flushTimeout bounds how long a closing connection waits for its
// queued replies to be written.
const flushTimeout = 2 * time.Second

// serveConn is the connection loop: read a frame, parse, dispatch,
// until the peer goes away, sends QUIT or ctx is cancelled.  On every
// exit path the nick is released from the registry and queued replies
// are flushed before the socket closes.
func (m *ServeMode) serveConn(ctx context.Context, conn *transport.Conn) {
	log := m.Logger.With(conn.ID)
	m.Metrics.ConnectionOpened()
	log.Info("new connection")

	outbox := transport.NewOutbox(conn.Writer, m.OutboxSize)
	go func() {
		if err := outbox.Run(); err != nil {
			if !ierr.IsHarmless(err) {
				log.Verbose("write failed: %v", err)
			}
			conn.Close()
		}
	}()
	stop := context.AfterFunc(ctx, func() { conn.Close() })

	client := &irc.Client{Session: session.New(conn.ID), Route: outbox, Logger: log}

	defer func() {
		if r := recover(); r != nil {
			log.Error("connection loop panicked: %v", r)
			m.Metrics.RecordError("panic in connection loop")
		}
		stop()
		m.Registry.Remove(client.Nick)

		outbox.Close()
		select {
		case <-outbox.Finished():
		case <-time.After(flushTimeout):
			log.Warn("dropping unsent replies")
		}
		conn.Close()
		conn.Reader.Release()

		m.Metrics.ConnectionClosed()
		log.Info("connection closed (%s)", client.State())
	}()

	for {
		line, err := conn.Reader.ReadFrame()
		if err != nil {
			if m.readFailed(log, err) {
				return
			}
			continue
		}
		log.Debug("received %q", line)

		msg, ok := irc.Parse(line)
		if !ok {
			log.Verbose("ignoring unrecognised message %q", line)
			continue
		}
		if m.Dispatcher.Handle(ctx, client, msg) {
			return
		}
	}
}

// readFailed reports whether a ReadFrame error ends the connection.
// Malformed input is counted and skipped.
func (m *ServeMode) readFailed(log *util.Logger, err error) bool {
	switch {
	case ierr.IsFraming(err):
		m.Metrics.FramingError()
		log.Warn("ignoring invalid message: %v", err)
		return false
	case ierr.IsTransport(err):
		log.Verbose("%v", err)
	default:
		log.Error("unexpected read error: %v", err)
		m.Metrics.RecordError("read: " + err.Error())
	}
	return true
}
