// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"taskmirror/internal/service"
)

// FakeService is an in-memory implementation of service.Service for testing.
type FakeService struct {
	mu    sync.RWMutex
	tasks []service.Task
	calls []string

	// NewID assigns identifiers to created tasks. Defaults to random UUIDs.
	NewID func() string

	// Error injection for testing
	ListErr   error
	CreateErr error
	UpdateErr error
	DeleteErr error

	// BeforeList runs at the start of List, before any state is read.
	BeforeList func()

	// AfterUpdate runs after a successful Update has been stored, before the
	// record is returned. It runs without the store lock held.
	AfterUpdate func(task service.Task)
}

// NewFakeService creates an empty FakeService.
func NewFakeService() *FakeService {
	return &FakeService{
		NewID: func() string { return uuid.New().String() },
	}
}

// AddTask seeds a task directly, bypassing Create.
func (f *FakeService) AddTask(id, title string, status service.Status) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks = append(f.tasks, service.Task{ID: id, Title: title, Status: status})
}

// Put seeds a full task record.
func (f *FakeService) Put(t service.Task) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks = append(f.tasks, t)
}

// Stored returns a copy of the store contents.
func (f *FakeService) Stored() []service.Task {
	f.mu.RLock()
	defer f.mu.RUnlock()
	result := make([]service.Task, len(f.tasks))
	copy(result, f.tasks)
	return result
}

// Calls returns the operations invoked so far, e.g. "list", "update t1".
func (f *FakeService) Calls() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]string(nil), f.calls...)
}

func (f *FakeService) record(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
}

// List implements service.Service.
func (f *FakeService) List(ctx context.Context) ([]service.Task, error) {
	f.record("list")
	if f.BeforeList != nil {
		f.BeforeList()
	}
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	result := make([]service.Task, len(f.tasks))
	copy(result, f.tasks)
	return result, nil
}

// Create implements service.Service.
func (f *FakeService) Create(ctx context.Context, payload service.TaskPayload) (service.Task, error) {
	f.record("create")
	if f.CreateErr != nil {
		return service.Task{}, f.CreateErr
	}
	if err := payload.Validate(); err != nil {
		return service.Task{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	task := service.NewTask(f.NewID(), payload)
	f.tasks = append(f.tasks, task)
	return task, nil
}

// Update implements service.Service.
func (f *FakeService) Update(ctx context.Context, id string, update service.TaskUpdate) (service.Task, error) {
	f.record("update " + id)
	if f.UpdateErr != nil {
		return service.Task{}, f.UpdateErr
	}
	if err := update.Validate(); err != nil {
		return service.Task{}, err
	}
	f.mu.Lock()
	var (
		updated service.Task
		found   bool
	)
	for i, t := range f.tasks {
		if t.ID == id {
			f.tasks[i] = update.Apply(t)
			updated, found = f.tasks[i], true
			break
		}
	}
	f.mu.Unlock()

	if !found {
		return service.Task{}, fmt.Errorf("task %s: %w", id, service.ErrNotFound)
	}
	if f.AfterUpdate != nil {
		f.AfterUpdate(updated)
	}
	return updated, nil
}

// Delete implements service.Service.
func (f *FakeService) Delete(ctx context.Context, id string) error {
	f.record("delete " + id)
	if f.DeleteErr != nil {
		return f.DeleteErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	for i, t := range f.tasks {
		if t.ID == id {
			f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("task %s: %w", id, service.ErrNotFound)
}

// SequentialIDs returns an ID generator yielding prefix1, prefix2, ...
func SequentialIDs(prefix string) func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s%d", prefix, n)
	}
}
