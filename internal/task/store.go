package task

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"todo/internal/persist"
	"todo/internal/storage"
)

// StorageKey is the adapter key the whole list is stored under.
const StorageKey = "@todo-app:tasks"

// Reporter receives *HydrationError and *PersistenceError values for the user.
// It may be called from the persistence goroutine and must not block.
type Reporter func(err error)

// Option configures a Store.
type Option func(*Store)

// WithIDGenerator replaces the UUID generator.
// The generator must eventually return an id that is not in the list.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// WithLogger sets the logger for the store and its write queue.
func WithLogger(l *log.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithReporter sets where hydration and persistence failures are sent.
func WithReporter(r Reporter) Option {
	return func(s *Store) {
		s.report = r
	}
}

// WithWriteTimeout bounds each adapter write.
func WithWriteTimeout(d time.Duration) Option {
	return func(s *Store) {
		s.writeTimeout = d
	}
}

// Store is the in-memory task list, newest first.
// Every observed change is encoded immediately and queued for a full write.
type Store struct {
	adapter      storage.Adapter
	writer       *persist.Writer
	newID        func() string
	logger       *log.Logger
	report       Reporter
	writeTimeout time.Duration

	mu       sync.Mutex
	tasks    []Task
	hydrated bool
}

// NewStore creates an empty, not yet hydrated store backed by adapter.
func NewStore(adapter storage.Adapter, opts ...Option) *Store {
	s := &Store{
		adapter: adapter,
		newID:   uuid.NewString,
		logger:  log.New(io.Discard),
		tasks:   []Task{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.writer = persist.NewWriter(adapter, StorageKey,
		persist.WithLogger(s.logger.WithPrefix("persist")),
		persist.WithWriteTimeout(s.writeTimeout),
		persist.WithErrorHandler(func(err error) {
			s.notify(&PersistenceError{Err: err})
		}),
	)
	return s
}

// Hydrate loads the stored list once.
// A missing blob leaves the list empty. An unreadable or corrupt blob is reported,
// returned as a *HydrationError, and leaves the list unchanged; the store is ready
// either way.
func (s *Store) Hydrate(ctx context.Context) error {
	s.mu.Lock()
	if s.hydrated {
		s.mu.Unlock()
		return ErrAlreadyHydrated
	}

	var herr *HydrationError
	var perr error
	data, found, err := s.adapter.Get(ctx, StorageKey)
	switch {
	case err != nil:
		herr = &HydrationError{Err: err}
	case !found:
		s.logger.Debug("no stored tasks", "key", StorageKey)
	default:
		tasks, err := Decode(data)
		if err != nil {
			herr = &HydrationError{Err: err}
			break
		}
		s.tasks = tasks
		perr = s.persistLocked()
		s.logger.Debug("tasks hydrated", "count", len(tasks))
	}
	s.hydrated = true
	s.mu.Unlock()

	if herr != nil {
		s.logger.Error("hydration failed", "err", herr.Err)
		s.notify(herr)
		return herr
	}
	s.fail(perr)
	return nil
}

// Ready reports whether Hydrate has completed, successfully or not.
func (s *Store) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hydrated
}

// Add prepends a task with the trimmed text.
// Blank text, or a call before Hydrate, is a no-op and returns false.
func (s *Store) Add(text string) (Task, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Task{}, false
	}

	s.mu.Lock()
	if !s.hydrated {
		s.mu.Unlock()
		s.logger.Warn("add before hydration ignored")
		return Task{}, false
	}
	t := Task{ID: s.freshIDLocked(), Text: text}
	s.tasks = append([]Task{t}, s.tasks...)
	err := s.persistLocked()
	s.mu.Unlock()

	s.logger.Debug("task added", "id", t.ID)
	s.fail(err)
	return t, true
}

// Toggle flips the completion state of the task with id.
// It reports whether the task exists; the list is written either way.
func (s *Store) Toggle(id string) bool {
	s.mu.Lock()
	if !s.hydrated {
		s.mu.Unlock()
		s.logger.Warn("toggle before hydration ignored", "id", id)
		return false
	}
	i := s.indexLocked(id)
	if i >= 0 {
		next := make([]Task, len(s.tasks))
		copy(next, s.tasks)
		next[i] = next[i].Toggled()
		s.tasks = next
	}
	err := s.persistLocked()
	s.mu.Unlock()

	s.logger.Debug("task toggled", "id", id, "found", i >= 0)
	s.fail(err)
	return i >= 0
}

// Delete removes the task with id, keeping the order of the rest.
// It reports whether the task existed; the list is written either way.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	if !s.hydrated {
		s.mu.Unlock()
		s.logger.Warn("delete before hydration ignored", "id", id)
		return false
	}
	i := s.indexLocked(id)
	if i >= 0 {
		next := make([]Task, 0, len(s.tasks)-1)
		next = append(next, s.tasks[:i]...)
		next = append(next, s.tasks[i+1:]...)
		s.tasks = next
	}
	err := s.persistLocked()
	s.mu.Unlock()

	s.logger.Debug("task deleted", "id", id, "found", i >= 0)
	s.fail(err)
	return i >= 0
}

// Tasks returns a copy of the list, newest first.
func (s *Store) Tasks() []Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

// Find returns the task with id.
func (s *Store) Find(id string) (Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexLocked(id); i >= 0 {
		return s.tasks[i], true
	}
	return Task{}, false
}

// Len returns the number of tasks.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// Flush waits until every queued write has been attempted.
func (s *Store) Flush(ctx context.Context) error {
	return s.writer.Flush(ctx)
}

// Pending returns the number of snapshots not yet written.
func (s *Store) Pending() int {
	return s.writer.Pending()
}

// Close drains the write queue. Mutations after Close are reported as persistence failures.
func (s *Store) Close(ctx context.Context) error {
	return s.writer.Close(ctx)
}

func (s *Store) indexLocked(id string) int {
	for i, t := range s.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) freshIDLocked() string {
	for {
		id := s.newID()
		if id != "" && s.indexLocked(id) < 0 {
			return id
		}
		s.logger.Warn("id generator returned a used id", "id", id)
	}
}

// persistLocked snapshots the current list onto the write queue.
func (s *Store) persistLocked() error {
	data, err := Encode(s.tasks)
	if err != nil {
		return err
	}
	return s.writer.Enqueue(data)
}

func (s *Store) fail(err error) {
	if err == nil {
		return
	}
	var perr *PersistenceError
	if !errors.As(err, &perr) {
		perr = &PersistenceError{Err: err}
	}
	s.logger.Error("persist failed", "err", perr.Err)
	s.notify(perr)
}

func (s *Store) notify(err error) {
	if s.report != nil {
		s.report(err)
	}
}
