package core

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"time"

	"iris/internal/admin"
	"iris/internal/console"
	ierr "iris/internal/errors"
	"iris/internal/irc"
	"iris/internal/metrics"
	"iris/internal/transport"
	"iris/util"
)

// ServeMode accepts clients and runs one connection loop per socket
// until the context is cancelled.
type ServeMode struct {
	Address        string // host:port
	ServerName     string
	OutboxSize     int
	MetricsAddress string // admin HTTP address; empty disables it
	Console        bool
	GracePeriod    time.Duration // shutdown wait for connection loops

	Registry   *irc.Registry
	Dispatcher *irc.Dispatcher
	Metrics    *metrics.Collector
	Logger     *util.Logger

	// Stdin feeds the console; os.Stdin when nil.
	Stdin io.Reader

	wg        sync.WaitGroup
	mu        sync.Mutex
	addr      net.Addr
	ready     chan struct{}
	readyOnce sync.Once
}

func (m *ServeMode) readyCh() chan struct{} {
	m.readyOnce.Do(func() { m.ready = make(chan struct{}) })
	return m.ready
}

// Ready is closed once the listener is bound.
func (m *ServeMode) Ready() <-chan struct{} { return m.readyCh() }

// Addr returns the bound address, or nil before Ready.
func (m *ServeMode) Addr() net.Addr {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.addr
}

// Run binds the listener and serves until ctx is done.  Only a bind
// failure is returned; everything after that is logged.
func (m *ServeMode) Run(ctx context.Context) error {
	acc, err := transport.Listen(m.Address, m.Logger, m.Metrics)
	if err != nil {
		return err
	}
	defer acc.Close()

	m.mu.Lock()
	m.addr = acc.Addr()
	m.mu.Unlock()
	close(m.readyCh())
	m.Logger.Info("launching %s at %s", m.ServerName, acc.Addr())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m.startOperatorSurfaces(ctx, cancel)

	// Shut the listener down when the context expires.
	go func() {
		<-ctx.Done()
		acc.Close()
	}()

	for {
		conn, err := acc.Accept(ctx)
		if err != nil {
			if ctx.Err() == nil {
				m.Logger.Error("listener stopped: %v", err)
			}
			break
		}

		m.Logger.Verbose("connection from %s", conn.ID)
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			m.serveConn(ctx, conn)
		}()
	}

	cancel()
	m.drain()
	return nil
}

func (m *ServeMode) startOperatorSurfaces(ctx context.Context, cancel context.CancelFunc) {
	if m.MetricsAddress != "" {
		srv, err := admin.New(m.Registry, m.Metrics, m.Logger.With("admin"))
		if err != nil {
			m.Logger.Error("admin endpoint disabled: %v", err)
		} else {
			go func() {
				if err := srv.Serve(ctx, m.MetricsAddress); err != nil {
					m.Logger.Error("admin endpoint: %v", err)
				}
			}()
		}
	}

	if m.Console {
		c := &console.Console{Notifier: m.Registry, Logger: m.Logger, In: m.Stdin}
		go func() {
			m.consoleStopped(c.Run(ctx), cancel)
		}()
	}
}

// consoleStopped handles the console loop's exit.  An interrupt at the
// terminal stops the server the way SIGINT would.
func (m *ServeMode) consoleStopped(err error, cancel context.CancelFunc) {
	switch {
	case err == nil:
	case errors.Is(err, ierr.ErrInterrupted):
		m.Logger.Info("interrupted at the console, shutting down")
		cancel()
	default:
		m.Logger.Warn("console stopped: %v", err)
	}
}

// drain waits up to GracePeriod for every connection loop to exit.
func (m *ServeMode) drain() {
	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	grace := m.GracePeriod
	if grace <= 0 {
		grace = time.Second
	}
	select {
	case <-done:
		m.Logger.Verbose("all connections closed")
	case <-time.After(grace):
		m.Logger.Warn("%d connection(s) still open after %v", m.Metrics.ActiveConnections(), grace)
	}
}
