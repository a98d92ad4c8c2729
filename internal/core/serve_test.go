package core

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"iris/config"
	ierr "iris/internal/errors"
	"iris/util"
)

type testServer struct {
	mode   *ServeMode
	cancel context.CancelFunc
	done   chan error
}

func startServer(t *testing.T, channels ...string) *testServer {
	t.Helper()
	cfg := config.Default()
	cfg.Port = 0
	cfg.Console = false
	cfg.Channels = channels

	logger := util.NewLogger(3)
	logger.SetOutput(io.Discard)
	mode, err := Build(cfg, logger)
	if err != nil {
		t.Fatal(err)
	}
	sm := mode.(*ServeMode)
	sm.GracePeriod = 2 * time.Second

	ctx, cancel := context.WithCancel(context.Background())
	s := &testServer{mode: sm, cancel: cancel, done: make(chan error, 1)}
	go func() { s.done <- sm.Run(ctx) }()

	select {
	case <-sm.Ready():
	case err := <-s.done:
		t.Fatalf("server exited early: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("server never became ready")
	}
	t.Cleanup(func() {
		cancel()
		<-s.done
	})
	return s
}

type client struct {
	t    *testing.T
	conn net.Conn
	r    *bufio.Reader
}

func (s *testServer) dial(t *testing.T) *client {
	t.Helper()
	conn, err := net.DialTimeout("tcp", s.mode.Addr().String(), 2*time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return &client{t: t, conn: conn, r: bufio.NewReader(conn)}
}

func (c *client) send(lines ...string) {
	c.t.Helper()
	for _, l := range lines {
		if _, err := c.conn.Write([]byte(l + "\r\n")); err != nil {
			c.t.Fatalf("write %q: %v", l, err)
		}
	}
}

// expect reads one line and compares it including its CRLF.
func (c *client) expect(want string) {
	c.t.Helper()
	c.conn.SetReadDeadline(time.Now().Add(2 * time.Second)) //nolint:errcheck
	got, err := c.r.ReadString('\n')
	if err != nil {
		c.t.Fatalf("reading (want %q): %v", want, err)
	}
	if got != want {
		c.t.Fatalf("got %q, want %q", got, want)
	}
}

func (c *client) expectEOF() {
	c.t.Helper()
	c.conn.SetReadDeadline(time.Now().Add(2 * time.Second)) //nolint:errcheck
	if _, err := c.r.ReadString('\n'); err != io.EOF {
		c.t.Fatalf("expected EOF, got %v", err)
	}
}

func (c *client) register(nick, realname string) {
	c.t.Helper()
	c.send("NICK "+nick, "USER "+nick+" 0 * :"+realname)
	c.expect(":iris-server 001 " + nick + " :Hi " + realname + ", welcome to IRC\r\n")
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestServe_RegisterAndRoute(t *testing.T) {
	s := startServer(t)
	alice := s.dial(t)
	bob := s.dial(t)

	alice.register("alice", "Alice Liddell")
	bob.register("bob", "Bob")

	alice.send("PRIVMSG bob :hello there")
	bob.expect("hello there\r\n")

	alice.send("PRIVMSG carol :hi")
	alice.expect(":iris-server NOTICE alice :carol Target client not found\r\n")
}

func TestServe_NickCollision(t *testing.T) {
	s := startServer(t)
	first := s.dial(t)
	second := s.dial(t)

	first.register("bob", "Bob")
	second.send("NICK bob")
	second.expect(":iris-server 436 bob :Nickname collision\r\n")

	// still unregistered: PRIVMSG is ignored, PING still answers
	second.send("PRIVMSG bob :hi", "PING check")
	second.expect("PONG :check\r\n")
}

func TestServe_QuitReleasesNick(t *testing.T) {
	s := startServer(t, "#general")
	alice := s.dial(t)
	alice.register("alice", "Alice")
	alice.send("JOIN #general")
	alice.send("QUIT :bye")
	alice.expect("QUIT :bye\r\n")
	alice.expectEOF()

	waitFor(t, "registry cleanup", func() bool { return s.mode.Registry.Stats().Nicks == 0 })
	if members := s.mode.Registry.Channels()[0].Members; len(members) != 0 {
		t.Errorf("#general still lists %v", members)
	}

	again := s.dial(t)
	again.register("alice", "Alice Again")
}

func TestServe_DisconnectReleasesNick(t *testing.T) {
	s := startServer(t)
	alice := s.dial(t)
	alice.register("alice", "Alice")
	alice.conn.Close()

	waitFor(t, "registry cleanup", func() bool { return s.mode.Registry.Stats().Nicks == 0 })
	waitFor(t, "connection count", func() bool { return s.mode.Metrics.ActiveConnections() == 0 })
}

func TestServe_OverlongMessageKeepsConnection(t *testing.T) {
	s := startServer(t)
	c := s.dial(t)

	c.send(strings.Repeat("a", 600))
	c.send("PING still-here")
	c.expect("PONG :still-here\r\n")

	if n := s.mode.Metrics.FramingErrors(); n != 1 {
		t.Errorf("framing errors = %d, want 1", n)
	}
}

func TestServe_InvalidUTF8KeepsConnection(t *testing.T) {
	s := startServer(t)
	c := s.dial(t)

	c.conn.Write([]byte("NICK \xff\xfe\r\n")) //nolint:errcheck
	c.send("PING ok")
	c.expect("PONG :ok\r\n")
}

func TestServe_ChannelBroadcast(t *testing.T) {
	s := startServer(t, "#general")
	alice, bob := s.dial(t), s.dial(t)
	alice.register("alice", "Alice")
	bob.register("bob", "Bob")

	alice.send("JOIN #general")
	bob.send("JOIN #general")
	// PING round-trips order bob's JOIN before alice's broadcast.
	bob.send("PING sync")
	bob.expect("PONG :sync\r\n")

	alice.send("PRIVMSG #general :hi all")
	bob.expect("hi all\r\n")
}

func TestServe_ShutdownClosesClients(t *testing.T) {
	s := startServer(t)
	c := s.dial(t)
	c.register("alice", "Alice")

	s.cancel()
	select {
	case err := <-s.done:
		if err != nil {
			t.Errorf("Run returned %v", err)
		}
		s.done <- nil // for Cleanup
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
	c.expectEOF()
}

func TestServe_BindFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	mode := &ServeMode{Address: ln.Addr().String(), Logger: util.NewLogger(0)}
	err = mode.Run(context.Background())
	var ne *ierr.NetworkError
	if !errors.As(err, &ne) || ne.Op != "listen" {
		t.Fatalf("err = %v, want listen NetworkError", err)
	}
}

func TestConsoleStopped(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		stopped bool
	}{
		{"input ended", nil, false},
		{"interrupted", ierr.ErrInterrupted, true},
		{"read error", errors.New("bad terminal"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := util.NewLogger(0)
			logger.SetOutput(io.Discard)
			m := &ServeMode{Logger: logger}
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			m.consoleStopped(tt.err, cancel)

			if got := ctx.Err() != nil; got != tt.stopped {
				t.Errorf("server stopped = %v, want %v", got, tt.stopped)
			}
		})
	}
}
