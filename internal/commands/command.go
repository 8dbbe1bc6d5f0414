// Package commands provides the command interface and implementations.
package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"taskmirror/internal/config"
	"taskmirror/internal/exitcode"
	"taskmirror/internal/mirror"
	"taskmirror/internal/service"
)

// Command defines the interface for CLI commands.
type Command interface {
	// Name returns the primary command name.
	Name() string

	// Aliases returns alternative names for the command.
	Aliases() []string

	// Synopsis returns a short description for help output.
	Synopsis() string

	// Usage returns the usage string for help output.
	Usage() string

	// NeedsStore returns true if the command works on the task collection.
	// Commands like help, version, login, logout return false.
	NeedsStore() bool

	// RegisterFlags registers command-specific flags.
	RegisterFlags(fs *flag.FlagSet)

	// Run executes the command.
	// cfg is always provided (config dir, settings).
	// tasks is nil if NeedsStore() returns false; otherwise the initial fetch
	// has already completed.
	// args contains positional arguments after flag parsing.
	// Returns exit code.
	Run(ctx context.Context, cfg *config.Config, tasks *mirror.Synchronizer, args []string, out, errOut io.Writer) int
}

// ReportError prints err with a category prefix and returns its exit code.
func ReportError(errOut io.Writer, err error) int {
	code := exitcode.FromError(err)
	switch code {
	case exitcode.UserError:
		fmt.Fprintf(errOut, "error: %v\n", err)
	case exitcode.AuthError:
		fmt.Fprintf(errOut, "error: auth error: %v\n", err)
	default:
		if errors.Is(err, mirror.ErrClosed) {
			fmt.Fprintf(errOut, "error: %v\n", err)
		} else {
			fmt.Fprintf(errOut, "error: backend error: %v\n", err)
		}
	}
	return code
}

// userError prints a usage problem and returns exitcode.UserError.
func userError(errOut io.Writer, format string, args ...any) int {
	fmt.Fprintf(errOut, "error: "+format+"\n", args...)
	return exitcode.UserError
}

// ok prints "ok" unless quiet.
func ok(cfg *config.Config, out io.Writer) int {
	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}

// statusFlag is a flag.Value that only accepts task statuses.
type statusFlag struct {
	status *service.Status
}

func (f statusFlag) String() string {
	if f.status == nil || *f.status == "" {
		return ""
	}
	return string(*f.status)
}

func (f statusFlag) Set(s string) error {
	st, err := service.ParseStatus(s)
	if err != nil {
		return fmt.Errorf("invalid status: %s", s)
	}
	*f.status = st
	return nil
}
