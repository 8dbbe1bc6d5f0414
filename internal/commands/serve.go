package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/url"

	"taskmirror/internal/backend/memory"
	"taskmirror/internal/config"
	"taskmirror/internal/exitcode"
	"taskmirror/internal/mirror"
	"taskmirror/internal/server"
)

func init() {
	Register(&ServeCmd{})
}

// ServeCmd runs an in-memory task API for the rest backend to talk to.
type ServeCmd struct {
	addr string
}

// SetAddr sets the listen address (for testing).
func (c *ServeCmd) SetAddr(addr string) {
	c.addr = addr
}

func (c *ServeCmd) Name() string      { return "serve" }
func (c *ServeCmd) Aliases() []string { return nil }
func (c *ServeCmd) Synopsis() string  { return "Run a local in-memory task API" }
func (c *ServeCmd) Usage() string     { return "taskmirror serve [--addr <host:port>]" }
func (c *ServeCmd) NeedsStore() bool  { return false }

func (c *ServeCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.addr, "addr", "", "")
}

func (c *ServeCmd) Run(ctx context.Context, cfg *config.Config, tasks *mirror.Synchronizer, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		return userError(errOut, "unexpected argument: %s", args[0])
	}

	addr := c.addr
	if addr == "" {
		addr = endpointAddr(cfg.Settings.Endpoint)
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return userError(errOut, "cannot listen on %s: %v", addr, err)
	}

	level := slog.LevelInfo
	if cfg.Quiet {
		level = slog.LevelWarn
	}
	if cfg.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(errOut, &slog.HandlerOptions{Level: level}))

	if err := server.New(memory.New(), logger).Serve(ctx, ln); err != nil {
		fmt.Fprintf(errOut, "error: serve: %v\n", err)
		return exitcode.BackendError
	}
	return exitcode.Success
}

// endpointAddr derives a listen address from the configured endpoint.
func endpointAddr(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return "localhost:5000"
	}
	if u.Port() == "" {
		return net.JoinHostPort(u.Hostname(), "80")
	}
	return u.Host
}
