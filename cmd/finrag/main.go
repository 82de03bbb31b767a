// Command finrag answers financial questions over ingested market data and news.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/custodia-labs/finrag/internal/adapters/driving/cli"
	"github.com/custodia-labs/finrag/internal/app"
)

// version is set via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "finrag: %v\n", err)
		return 1
	}
	defer a.Close() //nolint:errcheck

	cli.SetVersion(version)
	cli.SetSettingsService(a.Settings)
	cli.SetServiceFactory(a.Services)

	if err := cli.Execute(ctx); err != nil {
		return 1
	}
	return 0
}
