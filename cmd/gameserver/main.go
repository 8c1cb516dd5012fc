// Package main implements the board-game API server: RESTful game and
// move storage, user accounts, and static config-document serving.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gameserver/cmd/gameserver/cli"
	"gameserver/internal/server/config"
	"gameserver/internal/server/http"
	"gameserver/internal/server/logging"
	"gameserver/internal/server/service"
	"gameserver/internal/server/storage"

	"go.uber.org/zap"
)

const gracefulShutdownTimeout = 5 * time.Second

func main() {
	// Check for CLI database commands
	if len(os.Args) > 1 && os.Args[1] == "db" {
		if err := cli.Run(os.Args[2:]); err != nil {
			log.Fatalf("CLI error: %v", err)
		}
		os.Exit(0)
	}

	configFile := flag.String("config", "", "Path to config file (optional, env vars and defaults apply)")
	flag.Parse()

	v, err := config.NewViper(*configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	cfg, err := config.Load(v)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger, err := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	store, err := storage.NewStore(cfg.DatabasePath, cfg.DevMode, logger)
	if err != nil {
		logger.Fatal("failed to initialize storage", zap.Error(err))
	}
	if err := store.InitDB(); err != nil {
		logger.Fatal("failed to initialize schema", zap.Error(err))
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("failed to close storage cleanly", zap.Error(err))
		}
	}()

	docs, err := config.LoadDocuments(cfg.DocumentFiles)
	if err != nil {
		logger.Fatal("failed to load config documents", zap.Error(err))
	}

	svc := service.New(store, logger)
	app := http.NewFiberApp(svc, store, docs, logger, cfg)

	go func() {
		logger.Info("API server starting",
			zap.String("address", cfg.Address),
			zap.String("database", cfg.DatabasePath),
			zap.Bool("testMode", cfg.TestMode),
			zap.Bool("devMode", cfg.DevMode),
			zap.Int("configDocuments", len(cfg.DocumentFiles)),
		)
		if cfg.TestMode {
			logger.Warn("started as test run, reset_test_database is enabled")
		}

		if err := app.Listen(cfg.Address); err != nil {
			logger.Error("server listen error", zap.Error(err))
		}
	}()

	// Wait for an interrupt signal to gracefully shut down
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exited")
}
