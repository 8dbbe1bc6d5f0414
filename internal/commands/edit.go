package commands

import (
	"context"
	"flag"
	"io"

	"taskmirror/internal/config"
	"taskmirror/internal/mirror"
	"taskmirror/internal/service"
)

func init() {
	Register(&EditCmd{})
}

// EditCmd implements the edit command. Only flags that were given are sent.
type EditCmd struct {
	title  optString
	desc   optString
	status service.Status
	due    string
}

// optString records whether a string flag was set, so "" can clear a field.
type optString struct {
	value string
	set   bool
}

func (o *optString) String() string { return o.value }

func (o *optString) Set(s string) error {
	o.value, o.set = s, true
	return nil
}

// SetTitle sets the new title (for testing).
func (c *EditCmd) SetTitle(title string) { c.title.Set(title) }

// SetDescription sets the new description (for testing).
func (c *EditCmd) SetDescription(desc string) { c.desc.Set(desc) }

// SetStatus sets the new status (for testing).
func (c *EditCmd) SetStatus(s service.Status) { c.status = s }

// SetDue sets the new due date (for testing).
func (c *EditCmd) SetDue(due string) { c.due = due }

func (c *EditCmd) Name() string      { return "edit" }
func (c *EditCmd) Aliases() []string { return []string{"update"} }
func (c *EditCmd) Synopsis() string  { return "Change a task" }
func (c *EditCmd) Usage() string {
	return "taskmirror edit [--title <t>] [--desc <d>] [--status <s>] [--due <YYYY-MM-DD>] <n>"
}
func (c *EditCmd) NeedsStore() bool { return true }

func (c *EditCmd) RegisterFlags(fs *flag.FlagSet) {
	c.title, c.desc, c.status = optString{}, optString{}, ""
	fs.Var(&c.title, "title", "")
	fs.Var(&c.title, "t", "")
	fs.Var(&c.desc, "desc", "")
	fs.Var(&c.desc, "d", "")
	fs.Var(statusFlag{&c.status}, "status", "")
	fs.Var(statusFlag{&c.status}, "s", "")
	fs.StringVar(&c.due, "due", "", "")
}

func (c *EditCmd) Run(ctx context.Context, cfg *config.Config, tasks *mirror.Synchronizer, args []string, out, errOut io.Writer) int {
	task, code := lookupTask(tasks, args, errOut)
	if code != 0 {
		return code
	}

	var update service.TaskUpdate
	if c.title.set {
		update.Title = &c.title.value
	}
	if c.desc.set {
		update.Description = &c.desc.value
	}
	if c.status != "" {
		update.Status = &c.status
	}
	if c.due != "" {
		due, err := parseDue(c.due, cfg.Settings.Location())
		if err != nil {
			return userError(errOut, "%v", err)
		}
		update.DueDate = &due
	}
	if update.IsEmpty() {
		return userError(errOut, "nothing to change (use --title, --desc, --status or --due)")
	}

	if _, err := tasks.Edit(ctx, task.ID, update); err != nil {
		return ReportError(errOut, err)
	}
	return ok(cfg, out)
}
