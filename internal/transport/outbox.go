package transport

import (
	"sync"

	ierr "iris/internal/errors"
)

// Outbox is the shareable write side of a connection.  Any goroutine
// may Send; a single Run loop, owned by the connection, drains the
// queue into the FrameWriter so that socket writes never happen while
// another connection is waiting on a lock.
type Outbox struct {
	queue    chan string
	closed   chan struct{}
	finished chan struct{}
	once     sync.Once
	w        *FrameWriter

	// mu orders enqueues against Run sealing the queue: every Send that
	// succeeded holds the read lock until its message is in the queue.
	mu     sync.RWMutex
	sealed bool
}

// NewOutbox returns an outbox that buffers up to size messages.
func NewOutbox(w *FrameWriter, size int) *Outbox {
	if size < 1 {
		size = 1
	}
	return &Outbox{
		queue:    make(chan string, size),
		closed:   make(chan struct{}),
		finished: make(chan struct{}),
		w:        w,
	}
}

// Send queues msg for delivery.  It blocks while the queue is full and
// fails with ierr.ErrOutboxClosed once the outbox has been closed.  A nil
// return means Run will write msg unless the connection fails first.
func (o *Outbox) Send(msg string) error {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.sealed {
		return ierr.ErrOutboxClosed
	}
	select {
	case <-o.closed:
		return ierr.ErrOutboxClosed
	default:
	}
	select {
	case o.queue <- msg:
		return nil
	case <-o.closed:
		return ierr.ErrOutboxClosed
	}
}

// Run writes queued messages until the outbox is closed, then flushes
// whatever is still queued and returns nil.  A write failure closes the
// outbox and is returned.
func (o *Outbox) Run() error {
	defer close(o.finished)
	for {
		select {
		case msg := <-o.queue:
			if err := o.w.WriteFrame(msg); err != nil {
				o.Close()
				o.seal()
				return err
			}
		case <-o.closed:
			o.seal()
			return o.drain()
		}
	}
}

// seal waits for in-flight Sends and rejects all later ones.  Senders
// blocked on a full queue are released by closed first.
func (o *Outbox) seal() {
	o.mu.Lock()
	o.sealed = true
	o.mu.Unlock()
}

func (o *Outbox) drain() error {
	for {
		select {
		case msg := <-o.queue:
			if err := o.w.WriteFrame(msg); err != nil {
				return err
			}
		default:
			return nil
		}
	}
}

// Close stops accepting messages.  It is idempotent.
func (o *Outbox) Close() {
	o.once.Do(func() { close(o.closed) })
}

// Finished is closed when Run has returned.
func (o *Outbox) Finished() <-chan struct{} { return o.finished }
