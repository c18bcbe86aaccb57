// Package main is the ridewise command-line tool.
//
// The offline commands (score, code, distance, tile) need no configuration.
// The rest read the same environment as the API server:
//
//	ridewise conditions --lat 46.5 --lon 11.35     live riding conditions
//	ridewise waypoint add|list|delete              requires DATABASE_URL
//	ridewise route add|list|show                   requires DATABASE_URL
//	ridewise cache purge                           drops expired cache entries
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"ridewise/internal/config"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	a := newApp(func() (*config.Config, error) {
		return config.LoadConfig(config.NewFileProvider())
	}, logger)

	if err := newRootCmd(a).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
