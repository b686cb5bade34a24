package app

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
)

// Run is the entrypoint used by cmd/chirp: load config, build the app, and
// serve until SIGINT/SIGTERM. It returns an error instead of calling os.Exit
// so deferred cleanup still runs.
func Run() error {
	cfg := LoadConfig()

	a, err := New(cfg, NewLogger(cfg.LogLevel))
	if err != nil {
		return fmt.Errorf("build app: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return a.Run(ctx)
}
