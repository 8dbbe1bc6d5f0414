package commands

import (
	"context"
	"flag"
	"io"

	"taskmirror/internal/card"
	"taskmirror/internal/config"
	"taskmirror/internal/mirror"
)

func init() {
	Register(&ShowCmd{})
}

// ShowCmd prints a task as a card.
type ShowCmd struct{}

func (c *ShowCmd) Name() string      { return "show" }
func (c *ShowCmd) Aliases() []string { return []string{"card"} }
func (c *ShowCmd) Synopsis() string  { return "Show a task card" }
func (c *ShowCmd) Usage() string     { return "taskmirror show <n>" }
func (c *ShowCmd) NeedsStore() bool  { return true }

func (c *ShowCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *ShowCmd) Run(ctx context.Context, cfg *config.Config, tasks *mirror.Synchronizer, args []string, out, errOut io.Writer) int {
	task, code := lookupTask(tasks, args, errOut)
	if code != 0 {
		return code
	}

	var actions card.Actions
	if cfg.Settings.Breakdown.APIKey != "" {
		// The menu entry only reflects availability here; the breakdown
		// command performs it.
		actions.OnBreakdown = func() {}
	}
	return renderCard(cfg, task, actions, out, errOut)
}
