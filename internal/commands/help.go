package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"taskmirror/internal/config"
	"taskmirror/internal/exitcode"
	"taskmirror/internal/mirror"
)

func init() {
	Register(&HelpCmd{})
}

// HelpCmd implements the help command.
type HelpCmd struct {
	// Registry lists the commands to describe. Defaults to DefaultRegistry.
	Registry *Registry
}

func (c *HelpCmd) Name() string      { return "help" }
func (c *HelpCmd) Aliases() []string { return nil }
func (c *HelpCmd) Synopsis() string  { return "Print usage" }
func (c *HelpCmd) Usage() string     { return "taskmirror help [command]" }
func (c *HelpCmd) NeedsStore() bool  { return false }

func (c *HelpCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *HelpCmd) Run(ctx context.Context, cfg *config.Config, tasks *mirror.Synchronizer, args []string, out, errOut io.Writer) int {
	reg := c.Registry
	if reg == nil {
		reg = DefaultRegistry
	}

	if len(args) > 0 {
		cmd, found := reg.Find(args[0])
		if !found {
			return userError(errOut, "unknown command: %s", args[0])
		}
		fmt.Fprintf(out, "%s\n\nUsage:\n  %s\n", cmd.Synopsis(), cmd.Usage())
		if aliases := cmd.Aliases(); len(aliases) > 0 {
			fmt.Fprintf(out, "\nAliases: %s\n", strings.Join(aliases, ", "))
		}
		fmt.Fprint(out, commonFlags)
		return exitcode.Success
	}

	fmt.Fprint(out, "Usage:\n")
	fmt.Fprintf(out, "  taskmirror %-15s %s\n", "", "List tasks")
	for _, cmd := range reg.All() {
		fmt.Fprintf(out, "  taskmirror %-15s %s\n", cmd.Name(), cmd.Synopsis())
	}
	fmt.Fprint(out, "\nRun 'taskmirror help <command>' for command flags.\n")
	fmt.Fprint(out, commonFlags)
	return exitcode.Success
}

const commonFlags = `
Common flags:
  --config <dir>   Override config directory
  --quiet          Suppress informational output
  --debug          Print debug logs to stderr
`
