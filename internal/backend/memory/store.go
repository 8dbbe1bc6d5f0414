// Package memory implements service.Service in process memory.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"taskmirror/internal/service"
)

// Store keeps tasks in insertion order. It is safe for concurrent use.
type Store struct {
	mu    sync.RWMutex
	order []string
	tasks map[string]service.Task
}

// New creates an empty Store.
func New() *Store {
	return &Store{tasks: make(map[string]service.Task)}
}

// List implements service.Service.
func (s *Store) List(ctx context.Context) ([]service.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]service.Task, 0, len(s.order))
	for _, id := range s.order {
		result = append(result, clone(s.tasks[id]))
	}
	return result, nil
}

// Create implements service.Service. IDs are random UUIDs.
func (s *Store) Create(ctx context.Context, payload service.TaskPayload) (service.Task, error) {
	if err := payload.Validate(); err != nil {
		return service.Task{}, err
	}
	task := service.NewTask(uuid.NewString(), payload)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.order = append(s.order, task.ID)
	s.tasks[task.ID] = task
	return clone(task), nil
}

// Update implements service.Service.
func (s *Store) Update(ctx context.Context, id string, update service.TaskUpdate) (service.Task, error) {
	if err := update.Validate(); err != nil {
		return service.Task{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[id]
	if !ok {
		return service.Task{}, fmt.Errorf("task %s: %w", id, service.ErrNotFound)
	}
	task = update.Apply(task)
	s.tasks[id] = task
	return clone(task), nil
}

// Delete implements service.Service.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[id]; !ok {
		return fmt.Errorf("task %s: %w", id, service.ErrNotFound)
	}
	delete(s.tasks, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// clone copies the slice and pointer fields so callers cannot alias stored state.
func clone(t service.Task) service.Task {
	if t.DueDate != nil {
		due := *t.DueDate
		t.DueDate = &due
	}
	if t.SubTasks != nil {
		t.SubTasks = append([]string(nil), t.SubTasks...)
	}
	return t
}
