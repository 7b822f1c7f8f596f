// Latchkey: a chores-before-screen-time gatekeeper.
//
// During the configured daily window the device stays locked until the
// assigned person's checklist is complete, then unlocks automatically.
// This binary wires the decision engine to its store and runs the
// evaluation loop; the platform shim that actually withholds the screen
// plugs in through the gate.Locker interface.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/mwhitt-dev/latchkey/internal/config"
	"github.com/mwhitt-dev/latchkey/internal/gate"
	"github.com/mwhitt-dev/latchkey/internal/journal"
	"github.com/mwhitt-dev/latchkey/internal/roster"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	// Optional .env next to the binary; absence is fine.
	_ = godotenv.Load()

	configPath := flag.String("config", "", "path to config.json (default: <data dir>/config.json)")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("latchkey v%s\n", version)
		return
	}

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg := config.LoadOrDefault(configPath)
	logger := newLogger(cfg.LogLevel)

	r, err := roster.LoadOrSeed(filepath.Join(cfg.DataDir, roster.RosterFile))
	if err != nil {
		logger.Warn("roster problem, using built-in defaults", "error", err)
	}

	// A broken database must not keep the gate from coming up; the
	// engine runs without persistence and every decision still applies.
	var store gate.Store
	if s, err := journal.NewStore(cfg.DataDir); err != nil {
		logger.Error("journal store unavailable, running without persistence", "error", err)
	} else {
		store = s
		defer s.Close()
	}

	engine := gate.New(cfg, r, store, &consoleLocker{logger: logger}, logger)

	// Graceful shutdown on interrupt.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("shutdown signal received")
		cancel()
	}()

	logger.Info("latchkey started",
		"version", version,
		"data_dir", cfg.DataDir,
		"window", fmt.Sprintf("[%02d:00,%02d:00)", cfg.StartHour, cfg.EndHour),
	)

	engine.Run(ctx)
	return nil
}

// newLogger builds the process logger at the configured level.
func newLogger(level string) *slog.Logger {
	var l slog.Level
	switch level {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
}

// consoleLocker is the stand-in presentation adapter: it announces lock
// transitions instead of withholding a real screen. Deployments replace
// it with the platform shim.
type consoleLocker struct {
	logger *slog.Logger
}

func (c *consoleLocker) Lock()   { c.logger.Info("interactive surfaces withheld") }
func (c *consoleLocker) Unlock() { c.logger.Info("interactive surfaces restored") }
