package commands

import (
	"context"
	"flag"
	"io"

	"taskmirror/internal/config"
	"taskmirror/internal/mirror"
)

func init() {
	Register(&RmCmd{})
}

// RmCmd implements the rm command.
type RmCmd struct{}

func (c *RmCmd) Name() string      { return "rm" }
func (c *RmCmd) Aliases() []string { return []string{"delete"} }
func (c *RmCmd) Synopsis() string  { return "Delete a task" }
func (c *RmCmd) Usage() string     { return "taskmirror rm <n>" }
func (c *RmCmd) NeedsStore() bool  { return true }

func (c *RmCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *RmCmd) Run(ctx context.Context, cfg *config.Config, tasks *mirror.Synchronizer, args []string, out, errOut io.Writer) int {
	task, code := lookupTask(tasks, args, errOut)
	if code != 0 {
		return code
	}

	if err := tasks.Remove(ctx, task.ID); err != nil {
		return ReportError(errOut, err)
	}
	return ok(cfg, out)
}
