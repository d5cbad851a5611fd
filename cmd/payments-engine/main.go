package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"payments-engine/internal/config"
	"payments-engine/internal/csvio"
	"payments-engine/internal/ledger"
	"payments-engine/internal/processor"
	"payments-engine/internal/repository"
	"payments-engine/internal/server"
)

func main() {
	serve := flag.Bool("serve", false, "run the HTTP server instead of a batch run")
	flag.Parse()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// Logs go to stderr so batch mode can stream the report on stdout.
	logger := newLogger(cfg)
	slog.SetDefault(logger)

	var err error
	if *serve {
		err = runServe(cfg, logger)
	} else {
		err = runBatch(cfg, logger, flag.Arg(0))
	}
	if err != nil {
		logger.Error("run failed", "error", err)
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "text" {
		return slog.New(slog.NewTextHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, opts))
}

// runBatch processes a CSV transaction feed from the given path, or stdin when
// no path is given, and writes the accounts report to stdout. Using stdin
// keeps the engine convenient to pipe into.
func runBatch(cfg *config.Config, logger *slog.Logger, path string) error {
	var input io.Reader = os.Stdin
	if path != "" {
		file, err := os.Open(path)
		if err != nil {
			return err
		}
		defer file.Close()
		input = file
	}

	l := ledger.New()
	p := processor.New(l, logger)

	stats, err := p.Run(csvio.NewReader(input), csvio.NewWriter(os.Stdout))
	if err != nil {
		return err
	}
	logger.Info("batch finished",
		"applied", stats.Applied,
		"rejected", stats.Rejected,
		"skipped_records", stats.SkippedRecords,
	)

	if cfg.AuditEnabled() {
		return persistSnapshot(cfg, logger, l)
	}
	return nil
}

func persistSnapshot(cfg *config.Config, logger *slog.Logger, l *ledger.Ledger) error {
	db, err := repository.Open(cfg.AuditDBDSN)
	if err != nil {
		return err
	}
	defer db.Close()

	store := repository.NewSnapshotStore(db, logger)
	if err := store.EnsureSchema(); err != nil {
		return err
	}
	return store.SaveSnapshot(uuid.New(), l.Snapshot())
}

func runServe(cfg *config.Config, logger *slog.Logger) error {
	srv, err := server.NewServer(cfg, logger)
	if err != nil {
		return err
	}

	if _, err := srv.Start(cfg.ServerPort); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Stop(shutdownCtx)
}
