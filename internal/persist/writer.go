// Package persist serializes snapshot writes to a storage.Adapter.
//
// Every Enqueue is written exactly once, in call order, with at most one write
// in flight. Callers never wait on I/O; Flush and Close are the only blocking calls.
package persist

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"todo/internal/storage"
)

// DefaultWriteTimeout bounds a single Set call.
const DefaultWriteTimeout = 5 * time.Second

// ErrClosed is returned by Enqueue after Close.
var ErrClosed = errors.New("persist: writer closed")

// Option configures a Writer.
type Option func(*Writer)

// WithLogger sets the logger used for write diagnostics.
func WithLogger(l *log.Logger) Option {
	return func(w *Writer) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithWriteTimeout sets the per-write timeout. Non-positive values keep the default.
func WithWriteTimeout(d time.Duration) Option {
	return func(w *Writer) {
		if d > 0 {
			w.timeout = d
		}
	}
}

// WithErrorHandler sets the callback for failed writes.
// It runs on the writer goroutine and must not block for long.
func WithErrorHandler(fn func(err error)) Option {
	return func(w *Writer) {
		w.onError = fn
	}
}

// Writer is a FIFO queue of snapshots for one key, drained by a single goroutine.
type Writer struct {
	adapter storage.Adapter
	key     string
	timeout time.Duration
	logger  *log.Logger
	onError func(err error)

	mu       sync.Mutex
	cond     *sync.Cond
	queue    [][]byte
	inflight bool
	closed   bool
	seq      uint64

	done chan struct{}
}

// NewWriter starts a Writer for key on adapter.
func NewWriter(adapter storage.Adapter, key string, opts ...Option) *Writer {
	w := &Writer{
		adapter: adapter,
		key:     key,
		timeout: DefaultWriteTimeout,
		logger:  log.New(io.Discard),
		done:    make(chan struct{}),
	}
	w.cond = sync.NewCond(&w.mu)
	for _, opt := range opts {
		opt(w)
	}
	go w.run()
	return w
}

// Enqueue schedules data to be written after everything enqueued before it.
func (w *Writer) Enqueue(data []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}
	w.queue = append(w.queue, data)
	w.cond.Broadcast()
	return nil
}

// Pending returns the number of queued writes, counting one in flight.
func (w *Writer) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	n := len(w.queue)
	if w.inflight {
		n++
	}
	return n
}

// Flush waits until every write enqueued so far has been attempted.
func (w *Writer) Flush(ctx context.Context) error {
	drained := make(chan struct{})
	// On cancellation the waiter outlives Flush until the queue drains, which
	// the per-write timeout bounds.
	go func() {
		w.mu.Lock()
		for len(w.queue) > 0 || w.inflight {
			w.cond.Wait()
		}
		w.mu.Unlock()
		close(drained)
	}()

	select {
	case <-drained:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting writes, drains the queue and waits for the worker to exit.
func (w *Writer) Close(ctx context.Context) error {
	w.mu.Lock()
	w.closed = true
	w.cond.Broadcast()
	w.mu.Unlock()

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Writer) run() {
	defer close(w.done)
	for {
		w.mu.Lock()
		for len(w.queue) == 0 && !w.closed {
			w.cond.Wait()
		}
		if len(w.queue) == 0 {
			w.mu.Unlock()
			return
		}
		data := w.queue[0]
		w.queue[0] = nil
		w.queue = w.queue[1:]
		w.inflight = true
		w.seq++
		seq := w.seq
		w.mu.Unlock()

		err := w.write(data)
		if err != nil {
			w.logger.Error("write failed", "key", w.key, "seq", seq, "err", err)
			if w.onError != nil {
				w.onError(err)
			}
		} else {
			w.logger.Debug("write ok", "key", w.key, "seq", seq, "bytes", len(data))
		}

		w.mu.Lock()
		w.inflight = false
		w.cond.Broadcast()
		w.mu.Unlock()
	}
}

func (w *Writer) write(data []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()
	return w.adapter.Set(ctx, w.key, data)
}
