// Package mirror keeps a local, ordered copy of the remote task collection.
//
// A Synchronizer applies a change to its copy only after the remote store has
// confirmed it. Nothing is rolled back because nothing is applied early. Store
// errors are returned to the caller unchanged.
package mirror

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"taskmirror/internal/service"
)

// ErrClosed is returned by operations on a closed Synchronizer.
var ErrClosed = errors.New("mirror: synchronizer closed")

// Snapshot is the state delivered to subscribers after every change.
type Snapshot struct {
	Tasks   []service.Task
	Loading bool

	seq uint64
}

// Option configures a Synchronizer.
type Option func(*Synchronizer)

// WithLogger sets the logger used for operation tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Synchronizer) {
		s.logger = logger
	}
}

// Synchronizer mirrors a service.Service task collection.
// It is safe for concurrent use. Remote calls are made without holding the
// lock, so racing mutations resolve last-write-wins on the mirror.
type Synchronizer struct {
	svc    service.Service
	logger *slog.Logger

	mu      sync.RWMutex
	order   []string
	byID    map[string]service.Task
	loading bool
	closed  bool
	version uint64

	// notifyMu guards delivery state. Only one goroutine delivers at a time;
	// others leave their snapshot in pending for it to pick up.
	notifyMu   sync.Mutex
	pending    *Snapshot
	queued     uint64
	delivering bool

	subMu  sync.Mutex
	subs   map[int]func(Snapshot)
	nextID int
}

// New creates a Synchronizer over svc. The mirror starts empty and loading.
func New(svc service.Service, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		svc:     svc,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		byID:    make(map[string]service.Task),
		loading: true,
		subs:    make(map[int]func(Snapshot)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start performs the initial fetch.
func (s *Synchronizer) Start(ctx context.Context) error {
	return s.FetchAll(ctx)
}

// Close drops all subscribers. Later operations fail with ErrClosed.
func (s *Synchronizer) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.subMu.Lock()
	s.subs = make(map[int]func(Snapshot))
	s.subMu.Unlock()
}

// FetchAll replaces the mirror with the store's full collection, in store order.
// If the store fails, the error is returned and Loading stays true.
func (s *Synchronizer) FetchAll(ctx context.Context) error {
	if err := s.setLoading(true); err != nil {
		return err
	}

	tasks, err := s.svc.List(ctx)
	if err != nil {
		s.logger.Debug("fetch failed", "error", err)
		return err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.order = make([]string, 0, len(tasks))
	s.byID = make(map[string]service.Task, len(tasks))
	for _, t := range tasks {
		if _, dup := s.byID[t.ID]; !dup {
			s.order = append(s.order, t.ID)
		}
		s.byID[t.ID] = t
	}
	s.loading = false
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.logger.Debug("fetched tasks", "count", len(snap.Tasks))
	s.notify(snap)
	return nil
}

// Add creates a task in the store and appends the returned record.
// If the returned ID is already mirrored, that entry is replaced in place.
func (s *Synchronizer) Add(ctx context.Context, payload service.TaskPayload) (service.Task, error) {
	if err := s.checkOpen(); err != nil {
		return service.Task{}, err
	}

	task, err := s.svc.Create(ctx, payload)
	if err != nil {
		s.logger.Debug("create failed", "error", err)
		return service.Task{}, err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return task, ErrClosed
	}
	if _, exists := s.byID[task.ID]; !exists {
		s.order = append(s.order, task.ID)
	}
	s.byID[task.ID] = task
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.logger.Debug("added task", "id", task.ID)
	s.notify(snap)
	return task, nil
}

// Edit updates the task in the store and replaces the mirrored record at the
// same position with the one the store returned. If id is not mirrored the
// mirror is left as is. The returned record is always passed back.
func (s *Synchronizer) Edit(ctx context.Context, id string, update service.TaskUpdate) (service.Task, error) {
	if err := s.checkOpen(); err != nil {
		return service.Task{}, err
	}

	task, err := s.svc.Update(ctx, id, update)
	if err != nil {
		s.logger.Debug("update failed", "id", id, "error", err)
		return service.Task{}, err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return task, ErrClosed
	}
	changed := s.replaceLocked(id, task)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.logger.Debug("edited task", "id", id, "mirrored", changed)
	if changed {
		s.notify(snap)
	}
	return task, nil
}

// Remove deletes the task from the store, then from the mirror.
// Removing an ID that is not mirrored leaves the mirror unchanged.
func (s *Synchronizer) Remove(ctx context.Context, id string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	if err := s.svc.Delete(ctx, id); err != nil {
		s.logger.Debug("delete failed", "id", id, "error", err)
		return err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	changed := s.deleteLocked(id)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.logger.Debug("removed task", "id", id, "mirrored", changed)
	if changed {
		s.notify(snap)
	}
	return nil
}

// Tasks returns a copy of the mirrored collection in order.
func (s *Synchronizer) Tasks() []service.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tasksLocked()
}

// Loading reports whether a fetch is in flight or has never completed.
func (s *Synchronizer) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Len returns the number of mirrored tasks.
func (s *Synchronizer) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// Get returns the mirrored task with the given ID.
func (s *Synchronizer) Get(id string) (service.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.byID[id]
	return t, ok
}

// At returns the task at 1-based position n.
func (s *Synchronizer) At(n int) (service.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if n < 1 || n > len(s.order) {
		return service.Task{}, false
	}
	return s.byID[s.order[n-1]], true
}

// Subscribe registers fn to receive a Snapshot after every change.
// fn is called outside the Synchronizer's lock and never concurrently with
// itself. Snapshots arrive in the order their changes were applied; one that
// is superseded before it can be delivered is skipped, so the last snapshot
// delivered always matches the mirror. The returned func unsubscribes.
func (s *Synchronizer) Subscribe(fn func(Snapshot)) (cancel func()) {
	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Synchronizer) checkOpen() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	return nil
}

func (s *Synchronizer) setLoading(v bool) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.loading = v
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
	return nil
}

// replaceLocked swaps the record at id's position for task.
// If task carries a different ID that is mirrored elsewhere, that other entry is dropped.
func (s *Synchronizer) replaceLocked(id string, task service.Task) bool {
	if _, ok := s.byID[id]; !ok {
		return false
	}
	if task.ID != id {
		if _, ok := s.byID[task.ID]; ok {
			s.deleteLocked(task.ID)
		}
		for i, oid := range s.order {
			if oid == id {
				s.order[i] = task.ID
				break
			}
		}
		delete(s.byID, id)
	}
	s.byID[task.ID] = task
	return true
}

func (s *Synchronizer) deleteLocked(id string) bool {
	if _, ok := s.byID[id]; !ok {
		return false
	}
	delete(s.byID, id)
	kept := s.order[:0]
	for _, oid := range s.order {
		if oid != id {
			kept = append(kept, oid)
		}
	}
	s.order = kept
	return true
}

func (s *Synchronizer) tasksLocked() []service.Task {
	result := make([]service.Task, len(s.order))
	for i, id := range s.order {
		result[i] = s.byID[id]
	}
	return result
}

func (s *Synchronizer) snapshotLocked() Snapshot {
	s.version++
	return Snapshot{Tasks: s.tasksLocked(), Loading: s.loading, seq: s.version}
}

// notify hands snap to subscribers unless a newer snapshot was already queued.
// If another goroutine is delivering, snap is left for it and notify returns.
func (s *Synchronizer) notify(snap Snapshot) {
	s.notifyMu.Lock()
	if snap.seq <= s.queued {
		s.notifyMu.Unlock()
		return
	}
	s.queued = snap.seq
	s.pending = &snap
	if s.delivering {
		s.notifyMu.Unlock()
		return
	}

	s.delivering = true
	for s.pending != nil {
		next := *s.pending
		s.pending = nil
		s.notifyMu.Unlock()
		s.deliver(next)
		s.notifyMu.Lock()
	}
	s.delivering = false
	s.notifyMu.Unlock()
}

func (s *Synchronizer) deliver(snap Snapshot) {
	s.subMu.Lock()
	fns := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}
