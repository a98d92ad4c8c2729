package transport

import (
	"bytes"
	"context"
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	ierr "iris/internal/errors"
	"iris/internal/metrics"
	"iris/util"
)

func TestAcceptor_AcceptsFramedConn(t *testing.T) {
	a, err := Listen("127.0.0.1:0", util.NewLogger(0), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()

	client, err := net.DialTimeout("tcp", a.Addr().String(), 2*time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()

	conn, err := a.Accept(context.Background())
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	defer conn.Close()
	defer conn.Reader.Release()

	if conn.ID != client.LocalAddr().String() {
		t.Errorf("ID = %q, want %q", conn.ID, client.LocalAddr().String())
	}

	client.Write([]byte("PING hello\r\n")) //nolint:errcheck
	msg, err := conn.Reader.ReadFrame()
	if err != nil || msg != "PING hello" {
		t.Fatalf("ReadFrame = %q, %v", msg, err)
	}

	if err := conn.Writer.WriteFrame("PONG :hello\r\n"); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	buf := make([]byte, 64)
	client.SetReadDeadline(time.Now().Add(2 * time.Second)) //nolint:errcheck
	n, err := client.Read(buf)
	if err != nil {
		t.Fatalf("client read: %v", err)
	}
	if got := string(buf[:n]); got != "PONG :hello\r\n" {
		t.Errorf("client got %q", got)
	}
}

func TestAcceptor_CloseUnblocksAccept(t *testing.T) {
	a, err := Listen("127.0.0.1:0", util.NewLogger(0), metrics.New())
	if err != nil {
		t.Fatal(err)
	}

	go func() {
		time.Sleep(50 * time.Millisecond)
		a.Close()
	}()

	done := make(chan error, 1)
	go func() {
		_, err := a.Accept(context.Background())
		done <- err
	}()

	select {
	case err := <-done:
		if err == nil {
			t.Fatal("expected error after Close")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Accept did not return after Close")
	}
}

func TestListen_BindFailure(t *testing.T) {
	a, err := Listen("127.0.0.1:0", util.NewLogger(0), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()

	_, err = Listen(a.Addr().String(), util.NewLogger(0), nil)
	if err == nil {
		t.Fatal("second bind on the same address should fail")
	}
	var ne *ierr.NetworkError
	if !errors.As(err, &ne) || ne.Op != "listen" {
		t.Errorf("err = %#v, want NetworkError{Op: listen}", err)
	}
}

func TestAcceptor_RetryLogLevel(t *testing.T) {
	transient := &ierr.NetworkError{Op: "accept", Err: errors.New("connection aborted"), Retryable: true}
	fatal := &ierr.NetworkError{Op: "accept", Err: errors.New("bad file descriptor")}

	tests := []struct {
		name    string
		attempt int
		err     error
		level   string
	}{
		{"first transient failure", 1, transient, "[VRB]"},
		{"transient failure persists", 3, transient, "[WRN]"},
		{"not retryable", 1, fatal, "[WRN]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logs bytes.Buffer
			logger := util.NewLogger(2)
			logger.SetOutput(&logs)
			m := metrics.New()
			a, err := Listen("127.0.0.1:0", logger, m)
			if err != nil {
				t.Fatal(err)
			}
			defer a.Close()

			a.backoff.OnRetry(tt.attempt, tt.err, 5*time.Millisecond)

			if !strings.HasPrefix(logs.String(), tt.level) {
				t.Errorf("log = %q, want level %s", logs.String(), tt.level)
			}
			if m.ErrorCount() != 1 {
				t.Errorf("errors recorded = %d, want 1", m.ErrorCount())
			}
		})
	}
}
