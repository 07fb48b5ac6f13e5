package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Gangoo91/Elec-Mate-Merge-sub265/internal/app"
	"github.com/Gangoo91/Elec-Mate-Merge-sub265/internal/config"
	"github.com/Gangoo91/Elec-Mate-Merge-sub265/pkg/logger"
)

const serviceName = "materials-search"

// version is stamped at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := run(); err != nil {
		slog.Error("materials search service failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	cfg.Version = version

	log := logger.New(serviceName, version, cfg.LogLevel)
	slog.SetDefault(log)
	log.Info("starting materials search service",
		slog.String("environment", cfg.Environment),
		slog.Int("http_port", cfg.HTTPPort),
		slog.String("engine", cfg.SearchEngine),
		slog.String("catalog_source", cfg.CatalogSource),
		slog.Bool("kafka", cfg.KafkaEnabled),
		slog.Bool("redis", cfg.RedisEnabled),
		slog.Bool("postgres", cfg.PostgresEnabled),
	)

	application, err := app.NewApp(cfg, log)
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := application.Run(ctx); err != nil {
		return fmt.Errorf("run: %w", err)
	}
	log.Info("materials search service stopped")
	return nil
}
