package transport

import (
	"context"
	"net"
	"time"

	ierr "iris/internal/errors"
	"iris/internal/metrics"
	"iris/internal/retry"
	"iris/util"
)

// Acceptor owns the listening socket.
type Acceptor struct {
	ln      net.Listener
	logger  *util.Logger
	metrics *metrics.Collector
	backoff *retry.Backoff
}

// Listen binds addr.  A failure here is the one error that is fatal to
// the whole process; it is returned as an *ierr.NetworkError.
func Listen(addr string, logger *util.Logger, m *metrics.Collector) (*Acceptor, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, ierr.Wrap("listen", addr, err)
	}

	a := &Acceptor{ln: ln, logger: logger, metrics: m, backoff: retry.AcceptBackoff()}
	a.backoff.OnRetry = a.retrying
	return a, nil
}

// retrying logs a failed Accept.  A single transient failure, such as a
// client aborting its handshake, is routine; anything that persists or
// cannot be retried, such as running out of descriptors, is a warning.
func (a *Acceptor) retrying(attempt int, err error, wait time.Duration) {
	a.metrics.RecordError("accept: " + err.Error())
	if attempt == 1 && ierr.IsRetryable(err) {
		a.logger.Verbose("failed to accept connection: %v; retrying in %v", err, wait)
		return
	}
	a.logger.Warn("failed to accept connection (attempt %d): %v; retrying in %v",
		attempt, err, wait)
}

// Addr returns the bound address (useful with port 0).
func (a *Acceptor) Addr() net.Addr { return a.ln.Addr() }

// Accept blocks until a socket is available and returns it framed.
// Failures on individual sockets are logged and retried; Accept only
// returns an error once the listener is closed or ctx is done.
func (a *Acceptor) Accept(ctx context.Context) (*Conn, error) {
	var nc net.Conn
	err := a.backoff.Do(ctx, func(int) error {
		c, err := a.ln.Accept()
		if err != nil {
			if ierr.Is(err, net.ErrClosed) || ctx.Err() != nil {
				return retry.Permanent(err)
			}
			return ierr.Wrap("accept", a.ln.Addr().String(), err)
		}
		nc = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return NewConn(nc, a.metrics), nil
}

// Close stops the listener; a blocked Accept returns.
func (a *Acceptor) Close() error {
	return a.ln.Close()
}
