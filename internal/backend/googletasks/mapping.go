package googletasks

import (
	"strings"
	"time"

	tasks "google.golang.org/api/tasks/v1"

	"taskmirror/internal/service"
)

// Google Tasks status values.
const (
	statusNeedsAction = "needsAction"
	statusCompleted   = "completed"
)

// inProgressMarker is the first notes line of a task that is in progress.
// Google Tasks only knows needsAction and completed.
const inProgressMarker = "[in-progress]"

func fromAPITask(t *tasks.Task, subTasks []string) service.Task {
	status, description := decodeNotes(t.Status, t.Notes)
	task := service.Task{
		ID:          t.Id,
		Title:       t.Title,
		Description: description,
		Status:      status,
		SubTasks:    subTasks,
	}
	if t.Due != "" {
		if due, err := time.Parse(time.RFC3339, t.Due); err == nil {
			task.DueDate = &due
		}
	}
	return task
}

func toAPITask(t service.Task) *tasks.Task {
	apiTask := &tasks.Task{
		Title:  t.Title,
		Notes:  encodeNotes(t.Status, t.Description),
		Status: statusNeedsAction,
	}
	if t.Status == service.StatusDone {
		apiTask.Status = statusCompleted
	}
	if t.DueDate != nil {
		apiTask.Due = t.DueDate.UTC().Format(time.RFC3339)
	}
	if apiTask.Notes == "" {
		// Clear notes on patch
		apiTask.ForceSendFields = []string{"Notes"}
	}
	return apiTask
}

func encodeNotes(status service.Status, description string) string {
	if status != service.StatusInProgress {
		return description
	}
	if description == "" {
		return inProgressMarker
	}
	return inProgressMarker + "\n" + description
}

func decodeNotes(apiStatus, notes string) (service.Status, string) {
	inProgress := false
	if first, rest, _ := strings.Cut(notes, "\n"); strings.TrimSpace(first) == inProgressMarker {
		inProgress = true
		notes = rest
	}

	switch {
	case apiStatus == statusCompleted:
		return service.StatusDone, notes
	case inProgress:
		return service.StatusInProgress, notes
	default:
		return service.StatusTodo, notes
	}
}
