// Package errors provides domain-specific error types for iris.
//
// The sentinels describe the four ways a connection's read side can
// fail plus the registry and queue failures the dispatcher reports.
// The structured types carry context (operation, address,
// retryability) for listener failures and configuration problems.
package errors

import (
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"
)

// ── Sentinel errors ──────────────────────────────────────────────────

var (
	// Transport errors end the connection loop.
	ErrConnectionLost   = errors.New("connection lost")
	ErrConnectionClosed = errors.New("connection closed")

	// Framing errors drop the offending input; the connection stays up.
	ErrMessageTooLong  = errors.New("message too long")
	ErrInvalidEncoding = errors.New("message is not valid UTF-8")

	ErrNickInUse     = errors.New("nickname already in use")
	ErrUnknownTarget = errors.New("target client not found")
	ErrOutboxClosed  = errors.New("outbox is closed")

	// ErrInterrupted is returned by the console when the operator
	// presses Ctrl-C or Ctrl-D at the terminal prompt.
	ErrInterrupted = errors.New("interrupted at the console")
)

// ── Structured error types ───────────────────────────────────────────

// NetworkError represents a failure in a listener operation.
type NetworkError struct {
	Op        string // operation: "listen", "accept", "write", "read"
	Addr      string // network address involved
	Err       error  // underlying error
	Retryable bool   // whether the caller should retry
}

func (e *NetworkError) Error() string {
	s := fmt.Sprintf("%s %s: %v", e.Op, e.Addr, e.Err)
	if e.Retryable {
		s += " (retryable)"
	}
	return s
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ConfigError represents an invalid configuration value.
type ConfigError struct {
	Field   string      // config field name
	Value   interface{} // the invalid value (nil if missing)
	Message string      // human-readable explanation
	Hint    string      // suggestion for the user (optional)
}

func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("config: --%s", e.Field)
	if e.Value != nil {
		msg += fmt.Sprintf("=%v", e.Value)
	}
	msg += ": " + e.Message
	if e.Hint != "" {
		msg += "\n  hint: " + e.Hint
	}
	return msg
}

// ── Constructors ─────────────────────────────────────────────────────

// Wrap creates a NetworkError, automatically detecting retryability
// from the underlying error.
func Wrap(op, addr string, err error) *NetworkError {
	return &NetworkError{
		Op:        op,
		Addr:      addr,
		Err:       err,
		Retryable: classifyRetryable(err),
	}
}

// ── Classification helpers ───────────────────────────────────────────

// IsTransport reports whether err should terminate a connection loop.
func IsTransport(err error) bool {
	return errors.Is(err, ErrConnectionLost) || errors.Is(err, ErrConnectionClosed)
}

// IsFraming reports whether err describes malformed input that can be
// dropped without closing the connection.
func IsFraming(err error) bool {
	return errors.Is(err, ErrMessageTooLong) || errors.Is(err, ErrInvalidEncoding)
}

// IsInterrupted reports whether a low-level read was interrupted by a
// signal and should simply be repeated.
func IsInterrupted(err error) bool {
	return errors.Is(err, syscall.EINTR)
}

// IsRetryable reports whether err is worth retrying.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var ne *NetworkError
	if errors.As(err, &ne) {
		return ne.Retryable
	}
	return classifyRetryable(err)
}

// IsHarmless returns true for errors that are expected during shutdown.
func IsHarmless(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) || errors.Is(err, io.ErrClosedPipe) {
		return true
	}
	return errors.Is(err, ErrConnectionClosed) || errors.Is(err, ErrOutboxClosed)
}

// classifyRetryable inspects standard library error types.
func classifyRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, net.ErrClosed) {
		return false
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return opErr.Temporary() //nolint:staticcheck // Temporary is deprecated but still useful
	}
	return IsInterrupted(err)
}

// ── Re-exports for convenience ───────────────────────────────────────

// Is is [errors.Is].
func Is(err, target error) bool { return errors.Is(err, target) }

// Join is [errors.Join].
func Join(errs ...error) error { return errors.Join(errs...) }
