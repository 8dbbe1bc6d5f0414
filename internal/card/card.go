// Package card builds the display model of a task card and renders it for a terminal.
//
// A card shows the title, a status badge, an optional due date, the
// description as rich text, and the subtask list, plus a menu with Edit,
// Delete and, when a handler is given, Break Down. The description is
// rendered as trusted markup: callers sanitize it first.
package card

import (
	"errors"
	"fmt"
	"time"

	"taskmirror/internal/service"
)

var (
	// ErrNoAction is returned when triggering a menu item the card does not show.
	ErrNoAction = errors.New("card: no such action")

	// ErrDisabled is returned when triggering a disabled menu item.
	ErrDisabled = errors.New("card: action disabled")
)

// Actions is the fixed set of callbacks a card can invoke.
// OnBreakdown is optional; a nil handler hides the Break Down item.
type Actions struct {
	OnEdit      func()
	OnDelete    func()
	OnBreakdown func()

	// Busy is true while a breakdown is being generated.
	Busy bool
}

// Props is everything a card displays.
type Props struct {
	Title       string
	Description string
	Status      service.Status
	DueDate     *time.Time
	SubTasks    []string
	Actions     Actions
}

// FromTask builds Props for a task record.
func FromTask(t service.Task, actions Actions) Props {
	return Props{
		Title:       t.Title,
		Description: t.Description,
		Status:      t.Status,
		DueDate:     t.DueDate,
		SubTasks:    t.SubTasks,
		Actions:     actions,
	}
}

// CanBreakDown reports whether a breakdown may start: a handler is set, the
// task is not done, and it has no subtasks yet.
func CanBreakDown(p Props) bool {
	return p.Actions.OnBreakdown != nil && p.Status != service.StatusDone && len(p.SubTasks) == 0
}

// MenuKind identifies a menu item.
type MenuKind int

const (
	MenuEdit MenuKind = iota
	MenuDelete
	MenuBreakdown
)

// Menu labels.
const (
	LabelEdit              = "Edit"
	LabelDelete            = "Delete"
	LabelBreakdown         = "Break Down"
	LabelBreakdownBusy     = "Generating..."
	LabelBreakdownDisabled = "Break Down (Disabled)"
	LabelBreakdownDone     = "Break Down (Done)"

	BusyMessage = "Breaking down task using AI..."
)

// MenuItem is one entry of the card's action menu.
type MenuItem struct {
	Kind     MenuKind
	Label    string
	Disabled bool

	action func()
}

// View is the computed display model of a card.
type View struct {
	Title       string
	Status      service.Status
	Badge       Badge
	DueLabel    string
	Description string
	Menu        []MenuItem

	// Busy shows BusyMessage in place of the subtask list.
	Busy bool

	SubtaskHeader string
	SubTasks      []string
}

// Options control formatting.
type Options struct {
	// DateLayout is a Go time layout for the due date. Defaults to "Jan 2, 2006".
	DateLayout string

	// Location is the zone the due date is shown in. Defaults to time.Local.
	Location *time.Location
}

// Build computes the View for p.
func Build(p Props, opts Options) View {
	layout := opts.DateLayout
	if layout == "" {
		layout = "Jan 2, 2006"
	}
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}

	v := View{
		Title:       p.Title,
		Status:      p.Status,
		Badge:       BadgeFor(p.Status),
		Description: p.Description,
		Busy:        p.Actions.Busy,
	}

	if p.DueDate != nil {
		v.DueLabel = "Due: " + p.DueDate.In(loc).Format(layout)
	}

	v.Menu = []MenuItem{
		{Kind: MenuEdit, Label: LabelEdit, action: p.Actions.OnEdit},
		{Kind: MenuDelete, Label: LabelDelete, action: p.Actions.OnDelete},
	}
	if p.Actions.OnBreakdown != nil {
		v.Menu = append(v.Menu, MenuItem{
			Kind:     MenuBreakdown,
			Label:    breakdownLabel(p),
			Disabled: !CanBreakDown(p) || p.Actions.Busy,
			action:   p.Actions.OnBreakdown,
		})
	}

	if !p.Actions.Busy && len(p.SubTasks) > 0 {
		v.SubtaskHeader = subtaskHeader(len(p.SubTasks))
		v.SubTasks = append([]string(nil), p.SubTasks...)
	}
	return v
}

func breakdownLabel(p Props) string {
	switch {
	case p.Actions.Busy:
		return LabelBreakdownBusy
	case p.Status == service.StatusDone:
		return LabelBreakdownDisabled
	case len(p.SubTasks) > 0:
		return LabelBreakdownDone
	default:
		return LabelBreakdown
	}
}

func subtaskHeader(n int) string {
	if n == 1 {
		return "1 Subtask"
	}
	return fmt.Sprintf("%d Subtasks", n)
}

// Item returns the menu item of the given kind.
func (v View) Item(kind MenuKind) (MenuItem, bool) {
	for _, item := range v.Menu {
		if item.Kind == kind {
			return item, true
		}
	}
	return MenuItem{}, false
}

// Trigger runs the action bound to a menu item.
func (v View) Trigger(kind MenuKind) error {
	item, ok := v.Item(kind)
	if !ok {
		return ErrNoAction
	}
	if item.Disabled {
		return ErrDisabled
	}
	if item.action == nil {
		return ErrNoAction
	}
	item.action()
	return nil
}
