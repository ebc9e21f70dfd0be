// Command placerank tracks where listings rank in mobile place search.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/placerank/internal/adapters/driven/config/file"
	"github.com/custodia-labs/placerank/internal/adapters/driving/cli"
	"github.com/custodia-labs/placerank/internal/core/services"
	"github.com/custodia-labs/placerank/internal/logger"
)

// version is set with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	// A missing .env is fine; variables may come from the environment.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	configStore, err := file.NewConfigStore("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	settings := services.NewSettingsService(configStore)

	cli.SetVersion(version)
	cli.SetServices(cli.Services{Settings: settings})
	cli.SetBootstrap(func(ctx context.Context, opts cli.Options) (*cli.Services, func(), error) {
		return wire(ctx, settings, opts)
	})

	err = cli.ExecuteContext(ctx)
	logger.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
