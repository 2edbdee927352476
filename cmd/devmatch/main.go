// Command devmatch is the terminal client: browse the developer feed, answer
// connection requests and chat with connections.
package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"devmatch/client/internal/config"
)

func main() {
	config.LoadEnvFile(nil)
	cfg, err := config.LoadClient(os.Getenv)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	logger := config.NewLogger(cfg.LogLevel)

	app, err := newApp(cfg, logger, os.Stdin, os.Stdout)
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(app).ExecuteContext(ctx); err != nil && !errors.Is(err, errQuit) {
		app.fail(err)
		os.Exit(1)
	}
}
