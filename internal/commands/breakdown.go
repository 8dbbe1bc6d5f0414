package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"taskmirror/internal/breakdown"
	"taskmirror/internal/card"
	"taskmirror/internal/config"
	"taskmirror/internal/exitcode"
	"taskmirror/internal/mirror"
	"taskmirror/internal/service"
)

func init() {
	Register(&BreakdownCmd{})
}

// GeneratorFactory creates the subtask generator from settings.
type GeneratorFactory func(ctx context.Context, cfg config.BreakdownSettings) (breakdown.Breakdowner, error)

// BreakdownCmd asks the chat model for subtasks and saves them on the task.
type BreakdownCmd struct {
	// NewGenerator overrides the OpenAI generator (for testing).
	NewGenerator GeneratorFactory
}

func (c *BreakdownCmd) Name() string      { return "breakdown" }
func (c *BreakdownCmd) Aliases() []string { return []string{"split"} }
func (c *BreakdownCmd) Synopsis() string  { return "Break a task into subtasks using AI" }
func (c *BreakdownCmd) Usage() string     { return "taskmirror breakdown <n>" }
func (c *BreakdownCmd) NeedsStore() bool  { return true }

func (c *BreakdownCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *BreakdownCmd) Run(ctx context.Context, cfg *config.Config, tasks *mirror.Synchronizer, args []string, out, errOut io.Writer) int {
	task, code := lookupTask(tasks, args, errOut)
	if code != 0 {
		return code
	}

	var (
		updated service.Task
		runErr  error
		ran     bool
	)
	props := card.FromTask(task, card.Actions{
		OnBreakdown: func() {
			ran = true
			updated, runErr = c.generate(ctx, cfg, tasks, task, errOut)
		},
	})
	view := card.Build(props, card.Options{})

	if err := view.Trigger(card.MenuBreakdown); err != nil {
		item, _ := view.Item(card.MenuBreakdown)
		return userError(errOut, "cannot break down task %q: %s", task.Title, item.Label)
	}
	if !ran {
		return exitcode.Success
	}
	if runErr != nil {
		var setup setupError
		if errors.As(runErr, &setup) {
			return userError(errOut, "%v", setup.err)
		}
		return ReportError(errOut, runErr)
	}

	if cfg.Quiet {
		return exitcode.Success
	}
	return renderCard(cfg, updated, card.Actions{}, out, errOut)
}

// setupError marks a failure to create the generator.
type setupError struct{ err error }

func (e setupError) Error() string { return e.err.Error() }

func (c *BreakdownCmd) generate(ctx context.Context, cfg *config.Config, tasks *mirror.Synchronizer, task service.Task, errOut io.Writer) (service.Task, error) {
	factory := c.NewGenerator
	if factory == nil {
		factory = newOpenAIGenerator
	}
	gen, err := factory(ctx, cfg.Settings.Breakdown)
	if err != nil {
		return service.Task{}, setupError{err}
	}

	if !cfg.Quiet {
		fmt.Fprintln(errOut, card.BusyMessage)
	}
	subtasks, err := gen.Breakdown(ctx, task)
	if err != nil {
		return service.Task{}, err
	}

	return tasks.Edit(ctx, task.ID, service.TaskUpdate{SubTasks: &subtasks})
}

func newOpenAIGenerator(ctx context.Context, cfg config.BreakdownSettings) (breakdown.Breakdowner, error) {
	return breakdown.NewOpenAI(ctx, cfg)
}
