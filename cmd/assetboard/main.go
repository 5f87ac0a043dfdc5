// Command assetboard serves the IT asset inventory dashboard API.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/assetboard/assetboard/cmd/assetboard/commands"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := commands.NewRootCmd().ExecuteContext(ctx); err != nil {
		slog.Error("assetboard: exiting", "err", err)
		cancel()
		os.Exit(1)
	}
}
