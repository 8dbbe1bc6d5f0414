// Package service defines the backend-agnostic interface for the remote task store.
package service

import "context"

// Service is the remote task store.
// Every backend implements it; commands and the mirror never import a backend SDK directly.
type Service interface {
	// List returns the full task collection in store order.
	List(ctx context.Context) ([]Task, error)

	// Create stores a new task and returns the authoritative record,
	// including the store-assigned ID.
	Create(ctx context.Context, payload TaskPayload) (Task, error)

	// Update applies a partial update to the task with the given ID
	// and returns the full updated record.
	Update(ctx context.Context, id string, update TaskUpdate) (Task, error)

	// Delete removes the task with the given ID.
	Delete(ctx context.Context, id string) error
}
