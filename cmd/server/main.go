// Package main is the entry point for the casedesk collection server.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/vyrodovalexey/casedesk/internal/config"
	"github.com/vyrodovalexey/casedesk/internal/server"
	"github.com/vyrodovalexey/casedesk/internal/store"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		// Use a basic logger for startup errors
		basicLogger, _ := zap.NewProduction()
		basicLogger.Error("failed to load configuration", zap.Error(err))
		return 1
	}

	logger, err := initLogger(cfg.Server.LogLevel)
	if err != nil {
		basicLogger, _ := zap.NewProduction()
		basicLogger.Error("failed to initialize logger", zap.Error(err))
		return 1
	}
	defer func() {
		_ = logger.Sync()
	}()

	logger.Info("configuration loaded",
		zap.Int("server_port", cfg.Server.Port),
		zap.Int("probe_port", cfg.Server.ProbePort),
		zap.String("log_level", cfg.Server.LogLevel),
		zap.Duration("shutdown_timeout", cfg.Server.ShutdownTimeout),
		zap.Bool("metrics_enabled", cfg.Server.MetricsEnabled),
		zap.String("namespace", cfg.Server.Namespace),
		zap.String("store_driver", cfg.Store.Driver),
		zap.Strings("cors_allowed_origins", cfg.CORS.AllowedOrigins),
	)

	itemStore, closeStore, err := openStore(cfg)
	if err != nil {
		logger.Error("failed to open store", zap.Error(err))
		return 1
	}
	defer func() {
		if err := closeStore(); err != nil {
			logger.Warn("failed to close store", zap.Error(err))
		}
	}()

	srv := server.New(cfg, logger, itemStore)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- srv.Start()
	}()

	// Wait for shutdown signal
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		logger.Error("server error", zap.Error(err))
		return 1
	case sig := <-shutdown:
		logger.Info("shutdown signal received", zap.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("graceful shutdown failed", zap.Error(err))
			return 1
		}
	}

	logger.Info("server stopped")
	return 0
}

// openStore creates the item store selected by the configuration and returns
// a function releasing its resources.
func openStore(cfg *config.Config) (store.Store, func() error, error) {
	switch cfg.Store.Driver {
	case config.StoreDriverMemory:
		return store.NewMemoryStore(), func() error { return nil }, nil
	case config.StoreDriverSQLite:
		db, err := store.OpenSQLite(cfg.Store.DSN, cfg.Server.LogLevel == "debug")
		if err != nil {
			return nil, nil, fmt.Errorf("opening sqlite store: %w", err)
		}

		sqlDB, err := db.DB()
		if err != nil {
			return nil, nil, fmt.Errorf("retrieving sqlite handle: %w", err)
		}

		return store.NewSQLStore(db), sqlDB.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver: %s", cfg.Store.Driver)
	}
}

// initLogger initializes a zap logger with the specified log level.
func initLogger(level string) (*zap.Logger, error) {
	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		zapLevel = zapcore.InfoLevel
	}

	zapConfig := zap.Config{
		Level:       zap.NewAtomicLevelAt(zapLevel),
		Development: false,
		Sampling: &zap.SamplingConfig{
			Initial:    100,
			Thereafter: 100,
		},
		Encoding: "json",
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "timestamp",
			LevelKey:       "level",
			NameKey:        "logger",
			CallerKey:      "caller",
			FunctionKey:    zapcore.OmitKey,
			MessageKey:     "message",
			StacktraceKey:  "stacktrace",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.LowercaseLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.SecondsDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		},
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	return zapConfig.Build()
}
