// Package main is the entry point for the taskmirror CLI.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"taskmirror/internal/backend"
	"taskmirror/internal/cli"
	"taskmirror/internal/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, backend.New)

	code := dispatcher.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
