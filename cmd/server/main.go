// Package main is the entry point for the cards API server.
//
// main stays minimal:
//  1. load configuration (flags, YAML, .env, environment)
//  2. build the logger
//  3. open the store, run migrations and wire the server
//  4. serve until SIGINT/SIGTERM
//
// Any failure before the listener opens exits with status 1.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/glencoden/cards-api/internal/config"
	"github.com/glencoden/cards-api/internal/logging"
	"github.com/glencoden/cards-api/internal/server"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		fmt.Fprintf(os.Stdout, "Usage of %s:\n%s", os.Args[0], config.Usage())
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger, err := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger.Info("configuration loaded",
		slog.String("database", cfg.RedactedDatabaseURL()),
		slog.Int("port", cfg.Port),
		slog.Int("db_max_conns", int(cfg.DBMaxConns)),
		slog.Duration("db_acquire_timeout", cfg.DBAcquireTimeout),
		slog.Duration("db_statement_timeout", cfg.DBStatementTimeout),
	)

	srv, err := server.New(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until shutdown and closes the store on the way out.
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
