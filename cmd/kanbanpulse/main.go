package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"
	_ "time/tzdata"

	"go.uber.org/zap"

	"github.com/wesm/kanbanpulse/internal/config"
	"github.com/wesm/kanbanpulse/internal/dashboard"
	"github.com/wesm/kanbanpulse/internal/db"
	"github.com/wesm/kanbanpulse/internal/server"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildDate = ""
)

const configWatchDebounce = 500 * time.Millisecond

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "serve":
			runServe(os.Args[2:])
			return
		case "version", "--version", "-v":
			fmt.Printf("kanbanpulse %s (commit %s, built %s)\n",
				version, commit, buildDate)
			return
		case "help", "--help", "-h":
			printUsage()
			return
		}
	}

	runServe(os.Args[1:])
}

func printUsage() {
	fmt.Printf(`kanbanpulse %s - dashboard and triage API for kanban agent runs

Aggregates coding-agent attempts against kanban boards into a
single dashboard snapshot: headline metrics, per-project health,
per-agent stats, and a review/failed/stuck inbox.

Usage:
  kanbanpulse [flags]          Start the server (default command)
  kanbanpulse serve [flags]    Start the server (explicit)
  kanbanpulse version          Show version information
  kanbanpulse help             Show this help

Server flags:
  -host string        Host to bind to (default "127.0.0.1")
  -port int           Port to listen on (default 8090)
  -data-dir string    Data directory (database, config)

Environment variables:
  KANBANPULSE_HOST        Host to bind to
  KANBANPULSE_PORT        Port to listen on
  KANBANPULSE_DATA_DIR    Data directory (database, config)

Data is stored in ~/.kanbanpulse/ by default.
`, version)
}

func runServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	fs.String("host", "127.0.0.1", "host to bind to")
	fs.Int("port", 8090, "port to listen on")
	fs.String("data-dir", "", "data directory")
	if err := fs.Parse(args); err != nil {
		os.Exit(2)
	}

	cfg, err := config.Load(fs)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger := newLogger()
	defer logger.Sync()

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("opening database: %v", err)
	}
	defer database.Close()

	// Thresholds are read per request so config edits take
	// effect without a restart.
	var thresholds atomic.Value
	thresholds.Store(cfg.Triage.Thresholds())

	assembler := dashboard.NewAssembler(
		database,
		dashboard.WithThresholds(func() dashboard.Thresholds {
			return thresholds.Load().(dashboard.Thresholds)
		}),
		dashboard.WithLogger(logger),
	)

	watcher, err := config.WatchThresholds(
		cfg.ConfigPath(), configWatchDebounce,
		func(t dashboard.Thresholds) {
			thresholds.Store(t)
			logger.Info("triage thresholds reloaded")
		},
	)
	if err != nil {
		logger.Warn("config watcher unavailable", zap.Error(err))
	} else {
		defer watcher.Stop()
	}

	srv := server.New(cfg, database, assembler, logger,
		server.WithVersion(server.VersionInfo{
			Version:   version,
			Commit:    commit,
			BuildDate: buildDate,
		}),
	)

	errCh := make(chan error, 1)
	addr, err := srv.Start(errCh)
	if err != nil {
		log.Fatalf("starting server: %v", err)
	}
	logger.Info("listening", zap.String("addr", addr))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		logger.Fatal("server failed", zap.Error(err))
	case sig := <-sigCh:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(
		context.Background(), 10*time.Second,
	)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn("shutdown incomplete", zap.Error(err))
	}
}

func newLogger() *zap.Logger {
	if os.Getenv("KANBANPULSE_DEBUG") != "" {
		return zap.Must(zap.NewDevelopment())
	}
	return zap.Must(zap.NewProduction())
}
