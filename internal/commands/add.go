package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"taskmirror/internal/config"
	"taskmirror/internal/mirror"
	"taskmirror/internal/service"
)

// DueLayout is the layout accepted by --due.
const DueLayout = "2006-01-02"

func init() {
	Register(&AddCmd{})
}

// AddCmd implements the add command.
type AddCmd struct {
	desc   string
	status service.Status
	due    string
}

// SetFields sets the flag values (for testing).
func (c *AddCmd) SetFields(desc string, status service.Status, due string) {
	c.desc, c.status, c.due = desc, status, due
}

func (c *AddCmd) Name() string      { return "add" }
func (c *AddCmd) Aliases() []string { return []string{"create"} }
func (c *AddCmd) Synopsis() string  { return "Create a task" }
func (c *AddCmd) Usage() string {
	return "taskmirror add [--desc <text>] [--status <status>] [--due <YYYY-MM-DD>] <title...>"
}
func (c *AddCmd) NeedsStore() bool { return true }

func (c *AddCmd) RegisterFlags(fs *flag.FlagSet) {
	c.status = ""
	fs.StringVar(&c.desc, "desc", "", "")
	fs.StringVar(&c.desc, "d", "", "")
	fs.Var(statusFlag{&c.status}, "status", "")
	fs.Var(statusFlag{&c.status}, "s", "")
	fs.StringVar(&c.due, "due", "", "")
}

func (c *AddCmd) Run(ctx context.Context, cfg *config.Config, tasks *mirror.Synchronizer, args []string, out, errOut io.Writer) int {
	title := strings.Join(args, " ")
	if strings.TrimSpace(title) == "" {
		return userError(errOut, "title required")
	}

	payload := service.TaskPayload{
		Title:       title,
		Description: c.desc,
		Status:      c.status,
	}
	if c.due != "" {
		due, err := parseDue(c.due, cfg.Settings.Location())
		if err != nil {
			return userError(errOut, "%v", err)
		}
		payload.DueDate = &due
	}

	if _, err := tasks.Add(ctx, payload); err != nil {
		return ReportError(errOut, err)
	}
	return ok(cfg, out)
}

// parseDue parses a --due value as a calendar date in loc.
func parseDue(s string, loc *time.Location) (time.Time, error) {
	due, err := time.ParseInLocation(DueLayout, strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid due date: %s (want YYYY-MM-DD)", s)
	}
	return due, nil
}
