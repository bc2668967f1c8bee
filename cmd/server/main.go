// Package main implements the wordqueue server: an HTTP service that accepts
// text file uploads, ingests their words through a background job queue and
// serves the stored words back in pages.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

// main is the entry point for the wordqueue server.
// Without a subcommand it runs the HTTP server.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().Run(ctx, os.Args); err != nil {
		slog.Error("command failed", "error", err)
		stop()
		os.Exit(1)
	}
}
