// Package output provides formatters for CLI output.
package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"taskmirror/internal/service"
)

// DateFormat controls how due dates are printed.
type DateFormat struct {
	Layout   string
	Location *time.Location
}

// Format renders t in the configured layout and zone.
func (f DateFormat) Format(t time.Time) string {
	layout := f.Layout
	if layout == "" {
		layout = "Jan 2, 2006"
	}
	if f.Location != nil {
		t = t.In(f.Location)
	}
	return t.Format(layout)
}

// FormatTask formats a task line.
// Format: "{N:>4}  {[STATUS]:<13}  {TITLE}[  (due DATE)][  +K subtasks]\n"
func FormatTask(w io.Writer, num int, task service.Task, df DateFormat) {
	var b strings.Builder
	fmt.Fprintf(&b, "%4d  %-13s  %s", num, "["+string(task.Status)+"]", normalizeTitle(task.Title))
	if task.DueDate != nil {
		fmt.Fprintf(&b, "  (due %s)", df.Format(*task.DueDate))
	}
	if n := len(task.SubTasks); n > 0 {
		fmt.Fprintf(&b, "  +%d %s", n, plural(n, "subtask", "subtasks"))
	}
	fmt.Fprintln(w, b.String())
}

// FormatSummary prints the per-status counts after a listing.
func FormatSummary(w io.Writer, tasks []service.Task) {
	counts := make(map[service.Status]int)
	for _, t := range tasks {
		counts[t.Status]++
	}
	fmt.Fprintf(w, "%d todo, %d in progress, %d done\n",
		counts[service.StatusTodo], counts[service.StatusInProgress], counts[service.StatusDone])
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// normalizeTitle normalizes a task title for display.
// - Empty or whitespace-only titles become "(untitled)"
// - Newlines are replaced with spaces
func normalizeTitle(title string) string {
	title = strings.ReplaceAll(title, "\r", " ")
	title = strings.ReplaceAll(title, "\n", " ")

	if strings.TrimSpace(title) == "" {
		return "(untitled)"
	}
	return title
}
