// Package service defines the backend-agnostic interface for the remote task store.
package service

import (
	"fmt"
	"strings"
	"time"
)

// Status is the workflow state of a task.
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in-progress"
	StatusDone       Status = "done"
)

// IsValid reports whether s is one of the three known statuses.
func (s Status) IsValid() bool {
	return s == StatusTodo || s == StatusInProgress || s == StatusDone
}

// ParseStatus parses user input into a Status.
// Accepts "todo", "in-progress" (also "inprogress", "doing") and "done", case-insensitive.
func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "todo":
		return StatusTodo, nil
	case "in-progress", "inprogress", "doing":
		return StatusInProgress, nil
	case "done":
		return StatusDone, nil
	}
	return "", fmt.Errorf("%w: invalid status: %s", ErrInvalidInput, s)
}

// Task represents a single task record as held by the remote store.
type Task struct {
	ID          string     `json:"_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      Status     `json:"status"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	SubTasks    []string   `json:"subTasks,omitempty"`
}

// TaskPayload holds the fields sent when creating a task.
// The remote store assigns the identifier.
type TaskPayload struct {
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      Status     `json:"status,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	SubTasks    []string   `json:"subTasks,omitempty"`
}

// Validate checks the payload before it is sent to a store.
func (p TaskPayload) Validate() error {
	if strings.TrimSpace(p.Title) == "" {
		return fmt.Errorf("%w: title required", ErrInvalidInput)
	}
	if p.Status != "" && !p.Status.IsValid() {
		return fmt.Errorf("%w: invalid status: %s", ErrInvalidInput, p.Status)
	}
	return nil
}

// TaskUpdate is a partial update. Nil fields are left unchanged.
type TaskUpdate struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Status      *Status    `json:"status,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	SubTasks    *[]string  `json:"subTasks,omitempty"`
}

// IsEmpty reports whether the update changes nothing.
func (u TaskUpdate) IsEmpty() bool {
	return u.Title == nil && u.Description == nil && u.Status == nil &&
		u.DueDate == nil && u.SubTasks == nil
}

// Validate checks the update before it is sent to a store.
func (u TaskUpdate) Validate() error {
	if u.Title != nil && strings.TrimSpace(*u.Title) == "" {
		return fmt.Errorf("%w: title cannot be empty", ErrInvalidInput)
	}
	if u.Status != nil && !u.Status.IsValid() {
		return fmt.Errorf("%w: invalid status: %s", ErrInvalidInput, *u.Status)
	}
	return nil
}

// Apply returns t with the non-nil fields of u applied.
func (u TaskUpdate) Apply(t Task) Task {
	if u.Title != nil {
		t.Title = *u.Title
	}
	if u.Description != nil {
		t.Description = *u.Description
	}
	if u.Status != nil {
		t.Status = *u.Status
	}
	if u.DueDate != nil {
		due := *u.DueDate
		t.DueDate = &due
	}
	if u.SubTasks != nil {
		t.SubTasks = append([]string(nil), (*u.SubTasks)...)
	}
	return t
}

// NewTask builds the record a store returns for a payload under the given id.
// Status defaults to todo.
func NewTask(id string, p TaskPayload) Task {
	status := p.Status
	if status == "" {
		status = StatusTodo
	}
	t := Task{
		ID:          id,
		Title:       p.Title,
		Description: p.Description,
		Status:      status,
	}
	if p.DueDate != nil {
		due := *p.DueDate
		t.DueDate = &due
	}
	if len(p.SubTasks) > 0 {
		t.SubTasks = append([]string(nil), p.SubTasks...)
	}
	return t
}
