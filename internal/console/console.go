// Package console reads operator input on the server's stdin.
//
// Every line is logged.  A line of the form "@target text" is delivered
// to a registered nick (or every member of a channel) as a server
// notice.  When stdin is a terminal the line is edited with x/term and
// log output is routed through the same terminal so the prompt is
// redrawn correctly.
package console

import (
	"bufio"
	"context"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	ierr "iris/internal/errors"
	"iris/util"
)

const prompt = "iris> "

// Notifier delivers server notices.  *irc.Registry satisfies it.
type Notifier interface {
	Notify(target, text string) error
}

// Console is the operator input loop.
type Console struct {
	Notifier Notifier
	Logger   *util.Logger

	// In and Out default to os.Stdin and os.Stderr when nil.
	In  io.Reader
	Out io.Writer
}

func (c *Console) in() io.Reader {
	if c.In != nil {
		return c.In
	}
	return os.Stdin
}

func (c *Console) out() io.Writer {
	if c.Out != nil {
		return c.Out
	}
	return os.Stderr
}

// Run reads lines until input ends or ctx is done.  On a terminal, raw
// mode swallows SIGINT, so Ctrl-C surfaces here as ierr.ErrInterrupted
// and the caller is expected to shut down.  A read blocked on
// stdin cannot be interrupted, so on cancellation the reader goroutine
// is left to die with the process.
func (c *Console) Run(ctx context.Context) error {
	read, restore, err := c.lineReader()
	if err != nil {
		return err
	}
	defer restore()

	lines := make(chan string)
	errc := make(chan error, 1)
	go func() {
		for {
			line, err := read()
			if err != nil {
				errc <- err
				return
			}
			select {
			case lines <- line:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line := <-lines:
			c.Handle(line)
		case err := <-errc:
			if err == io.EOF {
				c.Logger.Verbose("console input closed")
				return nil
			}
			return err
		}
	}
}

// Handle logs one operator line and acts on it.
func (c *Console) Handle(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	c.Logger.Info("console: %s", line)

	if !strings.HasPrefix(line, "@") {
		return
	}
	target, text, _ := strings.Cut(line[1:], " ")
	text = strings.TrimSpace(text)
	if target == "" || text == "" {
		c.Logger.Warn("usage: @nick text  or  @#channel text")
		return
	}
	if err := c.Notifier.Notify(target, text); err != nil {
		c.Logger.Warn("notice to %s not delivered: %v", target, err)
		return
	}
	c.Logger.Verbose("notice delivered to %s", target)
}

// lineReader picks the x/term editor for a terminal and a plain scanner
// otherwise.  restore undoes any terminal mode change.
func (c *Console) lineReader() (read func() (string, error), restore func(), err error) {
	if f, ok := c.in().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return c.terminalReader(f)
	}

	sc := bufio.NewScanner(c.in())
	read = func() (string, error) {
		if sc.Scan() {
			return sc.Text(), nil
		}
		if err := sc.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return read, func() {}, nil
}

func (c *Console) terminalReader(f *os.File) (func() (string, error), func(), error) {
	fd := int(f.Fd())
	old, err := term.MakeRaw(fd)
	if err != nil {
		return nil, nil, err
	}

	t := term.NewTerminal(struct {
		io.Reader
		io.Writer
	}{f, c.out()}, prompt)
	if w, h, err := term.GetSize(fd); err == nil {
		t.SetSize(w, h) //nolint:errcheck
	}
	c.Logger.SetOutput(t)

	restore := func() {
		c.Logger.SetOutput(os.Stderr)
		term.Restore(fd, old) //nolint:errcheck
	}
	return interruptOnEOF(t.ReadLine), restore, nil
}

// interruptOnEOF maps the io.EOF that x/term reports for Ctrl-C and
// Ctrl-D to ierr.ErrInterrupted.
func interruptOnEOF(read func() (string, error)) func() (string, error) {
	return func() (string, error) {
		line, err := read()
		if err == io.EOF {
			return line, ierr.ErrInterrupted
		}
		return line, err
	}
}
