package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/apresai/creatorpilot/internal/cli"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := cli.Serve(ctx, os.Args[1:]); err != nil {
		cancel()
		os.Exit(1)
	}
}
