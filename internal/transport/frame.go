package transport

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"net"
	"sync"
	"unicode/utf8"

	ierr "iris/internal/errors"
	"iris/internal/metrics"
	"iris/util"
)

var crlf = []byte("\r\n")

// FrameReader extracts CRLF-delimited messages from a byte stream using
// a fixed 512-byte buffer.  It is not safe for concurrent use.
type FrameReader struct {
	r       io.Reader
	buf     *[]byte
	n       int   // buffered, not yet consumed bytes
	err     error // sticky transport error
	metrics *metrics.Collector
}

// NewFrameReader returns a reader over r with a pooled buffer.
func NewFrameReader(r io.Reader, m *metrics.Collector) *FrameReader {
	return &FrameReader{r: r, buf: util.GetBuf(), metrics: m}
}

// ReadFrame returns the next message without its CRLF.
//
// Errors match one of ierr.ErrConnectionClosed (peer closed),
// ierr.ErrConnectionLost (any other read failure), ierr.ErrMessageTooLong
// (512 bytes buffered with no boundary; the buffer is discarded) or
// ierr.ErrInvalidEncoding (the message was consumed but is not UTF-8).
// Only the first two are permanent.
func (fr *FrameReader) ReadFrame() (string, error) {
	buf := *fr.buf
	for {
		if end := bytes.Index(buf[:fr.n], crlf); end >= 0 {
			return fr.take(end)
		}
		if fr.n == len(buf) {
			fr.n = 0
			return "", ierr.ErrMessageTooLong
		}
		if fr.err != nil {
			return "", fr.err
		}

		n, err := fr.r.Read(buf[fr.n:])
		if n > 0 {
			fr.n += n
			fr.metrics.BytesReceived(int64(n))
		}
		switch {
		case err == nil, ierr.IsInterrupted(err):
		case ierr.Is(err, io.EOF), ierr.Is(err, net.ErrClosed):
			fr.err = ierr.ErrConnectionClosed
		default:
			fr.err = fmt.Errorf("%w: %v", ierr.ErrConnectionLost, err)
		}
	}
}

// take consumes the message ending at end plus its CRLF and shifts the
// remainder to the front of the buffer.
func (fr *FrameReader) take(end int) (string, error) {
	buf := *fr.buf
	line := buf[:end]
	valid := utf8.Valid(line)
	msg := string(line)

	rest := end + len(crlf)
	copy(buf, buf[rest:fr.n])
	fr.n -= rest

	if !valid {
		return "", ierr.ErrInvalidEncoding
	}
	fr.metrics.FrameReceived()
	return msg, nil
}

// Release returns the buffer to the pool.  The reader must not be used
// afterwards.
func (fr *FrameReader) Release() {
	util.PutBuf(fr.buf)
	fr.buf = nil
}

// FrameWriter writes complete messages, flushing each one before
// returning.  Concurrent calls are serialised.
type FrameWriter struct {
	mu      sync.Mutex
	w       *bufio.Writer
	metrics *metrics.Collector
}

// NewFrameWriter returns a writer over w.
func NewFrameWriter(w io.Writer, m *metrics.Collector) *FrameWriter {
	return &FrameWriter{w: bufio.NewWriterSize(w, util.FrameBufSize), metrics: m}
}

// WriteFrame writes text, which carries its own CRLF, and flushes it.
// Any failure is reported as ierr.ErrConnectionClosed.
func (fw *FrameWriter) WriteFrame(text string) error {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	if _, err := fw.w.WriteString(text); err != nil {
		return fmt.Errorf("%w: %v", ierr.ErrConnectionClosed, err)
	}
	if err := fw.w.Flush(); err != nil {
		return fmt.Errorf("%w: %v", ierr.ErrConnectionClosed, err)
	}
	fw.metrics.BytesSent(int64(len(text)))
	fw.metrics.FrameSent()
	return nil
}
