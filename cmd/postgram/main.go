package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/nkiryanov/postgram/internal/observability"
)

// Load config, start server and block until ctx cancelled
func run(ctx context.Context, getenv func(string) string, getwd func() (string, error), args []string) error {
	config := NewConfig()

	if err := config.LoadDotEnv(getwd); err != nil {
		return fmt.Errorf("error while loading .env. Err: %w", err)
	}
	if err := config.LoadEnv(getenv); err != nil {
		return err
	}
	if err := config.ParseFlags(args); err != nil {
		return err
	}
	if err := config.Validate(); err != nil {
		return err
	}

	if err := observability.InitSentry(config.SentryDSN, config.Environment); err != nil {
		return fmt.Errorf("error while initializing sentry. Err: %w", err)
	}
	defer observability.FlushSentry()

	srv, err := NewServerApp(ctx, config)
	if err != nil {
		return err
	}
	defer srv.Close()

	err = srv.Run(ctx)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}

	return err
}

func main() {
	// Context cancelled on SIGINT or SIGTERM
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Getenv, os.Getwd, os.Args[1:]); err != nil {
		slog.Error("postgram stopped with error", "error", err.Error())
		os.Exit(1)
	}
}
