package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"taskmirror/internal/config"
	"taskmirror/internal/exitcode"
	"taskmirror/internal/mirror"
	"taskmirror/internal/service"
)

func init() {
	Register(NewStatusCmd("done", service.StatusDone, "Mark a task done", "complete"))
	Register(NewStatusCmd("start", service.StatusInProgress, "Mark a task in progress"))
	Register(NewStatusCmd("reopen", service.StatusTodo, "Move a task back to todo"))
}

// StatusCmd sets a task's status to a fixed value.
type StatusCmd struct {
	name     string
	aliases  []string
	synopsis string
	status   service.Status
}

// NewStatusCmd creates a command that moves a task to status.
func NewStatusCmd(name string, status service.Status, synopsis string, aliases ...string) *StatusCmd {
	return &StatusCmd{name: name, aliases: aliases, synopsis: synopsis, status: status}
}

func (c *StatusCmd) Name() string      { return c.name }
func (c *StatusCmd) Aliases() []string { return c.aliases }
func (c *StatusCmd) Synopsis() string  { return c.synopsis }
func (c *StatusCmd) Usage() string     { return fmt.Sprintf("taskmirror %s <n>", c.name) }
func (c *StatusCmd) NeedsStore() bool  { return true }

func (c *StatusCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *StatusCmd) Run(ctx context.Context, cfg *config.Config, tasks *mirror.Synchronizer, args []string, out, errOut io.Writer) int {
	task, code := lookupTask(tasks, args, errOut)
	if code != 0 {
		return code
	}

	if task.Status == c.status {
		if !cfg.Quiet {
			fmt.Fprintf(out, "already %s\n", c.status)
		}
		return exitcode.Success
	}

	status := c.status
	if _, err := tasks.Edit(ctx, task.ID, service.TaskUpdate{Status: &status}); err != nil {
		return ReportError(errOut, err)
	}
	return ok(cfg, out)
}
