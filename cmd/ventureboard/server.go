package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"

	"github.com/calebforth/ventureboard/internal/catalog"
	"github.com/calebforth/ventureboard/internal/server"
	"github.com/calebforth/ventureboard/internal/store"
)

// ServerCmd runs the room API server.
type ServerCmd struct {
	Config string `kong:"default='ventureboard.hcl',help='Path to HCL config file'"`
	Debug  bool   `kong:"help='Enable debug logging'"`
}

func (c *ServerCmd) Run() error {
	cfg, err := server.LoadConfig(c.Config)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Server.LogLevel, c.Debug)

	cat, err := catalog.Load()
	if err != nil {
		return err
	}
	assets, projects, obstacles, events := cat.Counts()
	logger.Info("catalog loaded",
		"assets", assets,
		"projects", projects,
		"obstacles", obstacles,
		"macro_events", events)

	st, closeStore, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	srv := server.NewServer(cfg, st, cat, logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	return srv.Run(ctx)
}

func openStore(cfg *server.Config, logger *log.Logger) (store.Store, func(), error) {
	switch cfg.Storage.Driver {
	case "memory":
		logger.Warn("using in-memory storage, rooms will not survive restarts")
		return store.NewMemStore(), func() {}, nil
	default:
		s, err := store.OpenSQLite(cfg.Storage.Path)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("sqlite storage open", "path", cfg.Storage.Path)
		return s, func() { _ = s.Close() }, nil
	}
}

func setupLogger(level string, debug bool) *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
	})
	switch {
	case debug:
		logger.SetLevel(log.DebugLevel)
	case level == "debug":
		logger.SetLevel(log.DebugLevel)
	case level == "warn":
		logger.SetLevel(log.WarnLevel)
	case level == "error":
		logger.SetLevel(log.ErrorLevel)
	default:
		logger.SetLevel(log.InfoLevel)
	}
	return logger
}
