package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"taskmirror/internal/card"
	"taskmirror/internal/config"
	"taskmirror/internal/exitcode"
	"taskmirror/internal/mirror"
	"taskmirror/internal/output"
	"taskmirror/internal/service"
)

func init() {
	Register(&ListCmd{})
}

// ListCmd implements the list command.
// Handles both `taskmirror` (no args) and `taskmirror list`.
type ListCmd struct {
	cards  bool
	status service.Status
}

// SetCards toggles card rendering (for testing).
func (c *ListCmd) SetCards(cards bool) {
	c.cards = cards
}

// SetStatus sets the status filter (for testing).
func (c *ListCmd) SetStatus(s service.Status) {
	c.status = s
}

func (c *ListCmd) Name() string      { return "list" }
func (c *ListCmd) Aliases() []string { return []string{"ls"} }
func (c *ListCmd) Synopsis() string  { return "List tasks" }
func (c *ListCmd) Usage() string     { return "taskmirror list [--cards] [--status <status>]" }
func (c *ListCmd) NeedsStore() bool  { return true }

func (c *ListCmd) RegisterFlags(fs *flag.FlagSet) {
	c.status = ""
	fs.BoolVar(&c.cards, "cards", false, "")
	fs.Var(statusFlag{&c.status}, "status", "")
	fs.Var(statusFlag{&c.status}, "s", "")
}

func (c *ListCmd) Run(ctx context.Context, cfg *config.Config, tasks *mirror.Synchronizer, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		return userError(errOut, "unexpected argument: %s", args[0])
	}

	all := tasks.Tasks()
	shown := 0
	for i, task := range all {
		if c.status != "" && task.Status != c.status {
			continue
		}
		if c.cards {
			if shown > 0 {
				fmt.Fprintln(out)
			}
			fmt.Fprintf(out, "#%d\n", i+1)
			if code := renderCard(cfg, task, card.Actions{}, out, errOut); code != exitcode.Success {
				return code
			}
		} else {
			output.FormatTask(out, i+1, task, dateFormat(cfg))
		}
		shown++
	}

	if cfg.Quiet {
		return exitcode.Success
	}
	if shown == 0 {
		fmt.Fprintln(out, "no tasks found")
		return exitcode.Success
	}
	if c.status == "" {
		fmt.Fprintln(out)
		output.FormatSummary(out, all)
	}
	return exitcode.Success
}

// dateFormat returns the list date format from settings.
func dateFormat(cfg *config.Config) output.DateFormat {
	return output.DateFormat{
		Layout:   cfg.Settings.DateLayout,
		Location: cfg.Settings.Location(),
	}
}

// cardWidth is the configured width, narrowed to the terminal when out is one.
func cardWidth(cfg *config.Config, out io.Writer) int {
	width := cfg.Settings.Width
	f, ok := out.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return width
	}
	if cols, _, err := term.GetSize(int(f.Fd())); err == nil && cols > 0 && cols < width {
		return cols
	}
	return width
}

// renderCard builds and prints a task card.
func renderCard(cfg *config.Config, task service.Task, actions card.Actions, out, errOut io.Writer) int {
	view := card.Build(card.FromTask(task, actions), card.Options{
		DateLayout: cfg.Settings.DateLayout,
		Location:   cfg.Settings.Location(),
	})
	rendered, err := card.Render(view, card.RenderOptions{Width: cardWidth(cfg, out)})
	if err != nil {
		fmt.Fprintf(errOut, "error: render card: %v\n", err)
		return exitcode.BackendError
	}
	fmt.Fprintln(out, rendered)
	return exitcode.Success
}
