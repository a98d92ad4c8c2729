package transport

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	ierr "iris/internal/errors"
)

func TestOutbox_DeliversInOrder(t *testing.T) {
	var buf bytes.Buffer
	ob := NewOutbox(NewFrameWriter(&buf, nil), 4)

	runErr := make(chan error, 1)
	go func() { runErr <- ob.Run() }()

	for i := 0; i < 10; i++ {
		if err := ob.Send(fmt.Sprintf("msg %d\r\n", i)); err != nil {
			t.Fatalf("Send %d: %v", i, err)
		}
	}
	ob.Close()

	select {
	case err := <-runErr:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Close")
	}

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\r\n"), "\r\n")
	if len(lines) != 10 {
		t.Fatalf("got %d lines: %q", len(lines), buf.String())
	}
	for i, l := range lines {
		if l != fmt.Sprintf("msg %d", i) {
			t.Errorf("line %d = %q", i, l)
		}
	}
}

func TestOutbox_SendAfterClose(t *testing.T) {
	ob := NewOutbox(NewFrameWriter(&bytes.Buffer{}, nil), 1)
	ob.Close()
	ob.Close() // idempotent

	if err := ob.Send("late\r\n"); !errors.Is(err, ierr.ErrOutboxClosed) {
		t.Fatalf("err = %v, want outbox closed", err)
	}
}

func TestOutbox_WriteFailureClosesOutbox(t *testing.T) {
	ob := NewOutbox(NewFrameWriter(failWriter{}, nil), 2)

	if err := ob.Send("doomed\r\n"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	err := ob.Run()
	if !errors.Is(err, ierr.ErrConnectionClosed) {
		t.Fatalf("Run err = %v, want closed", err)
	}
	select {
	case <-ob.Finished():
	default:
		t.Error("Finished not closed after Run returned")
	}
	if err := ob.Send("after\r\n"); !errors.Is(err, ierr.ErrOutboxClosed) {
		t.Errorf("Send after failure = %v, want outbox closed", err)
	}
}

func TestOutbox_ConcurrentSenders(t *testing.T) {
	var buf bytes.Buffer
	ob := NewOutbox(NewFrameWriter(&buf, nil), 8)
	go ob.Run() //nolint:errcheck

	var wg sync.WaitGroup
	for s := 0; s < 5; s++ {
		wg.Add(1)
		go func(s int) {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				ob.Send(fmt.Sprintf("%d-%d\r\n", s, i)) //nolint:errcheck
			}
		}(s)
	}
	wg.Wait()
	ob.Close()
	<-ob.Finished()

	if n := strings.Count(buf.String(), "\r\n"); n != 100 {
		t.Errorf("delivered %d messages, want 100", n)
	}
}

func TestOutbox_AcceptedSendsAreWrittenWhenClosing(t *testing.T) {
	for round := 0; round < 500; round++ {
		var buf bytes.Buffer
		ob := NewOutbox(NewFrameWriter(&buf, nil), 1)
		go ob.Run() //nolint:errcheck

		var (
			wg       sync.WaitGroup
			mu       sync.Mutex
			accepted int
		)
		for s := 0; s < 4; s++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := 0; i < 5; i++ {
					if ob.Send("x\r\n") == nil {
						mu.Lock()
						accepted++
						mu.Unlock()
					}
				}
			}()
		}
		ob.Close()
		wg.Wait()
		<-ob.Finished()

		if n := strings.Count(buf.String(), "\r\n"); n != accepted {
			t.Fatalf("round %d: %d sends accepted, %d written", round, accepted, n)
		}
	}
}
