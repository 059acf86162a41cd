// Command mealctl is a line-oriented terminal client for the food diary.
//
// It lists saved meals and composes new ones against a running backend.
// Type "help" at the prompt for the command list.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/sakif/food-diary/internal/config"
	"github.com/sakif/food-diary/internal/foodclient"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// Logs go to stderr so they don't interleave with the prompt on stdout.
	logger := cfg.NewLogger(os.Stderr, slog.LevelWarn)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := foodclient.New(cfg.APIURL, foodclient.WithLogger(logger))
	sh := newShell(ctx, client, os.Stdout, logger)
	defer sh.close()

	if err := sh.run(os.Stdin); err != nil {
		logger.Error("mealctl stopped", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
