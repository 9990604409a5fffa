package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/melih/lighthouse-relay/internal/cli"
)

func main() {
	// Interrupts end the container log stream, which ends the relay.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
