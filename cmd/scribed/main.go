package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"scribe/internal/config"
	"scribe/internal/daemon"
	"scribe/internal/logging"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("prepare directories: %v", err)
	}

	logger, err := logging.NewForPaths(cfg.Logging.Level, cfg.Logging.Format, cfg.Paths.LogDir, "scribed.log")
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	d, err := daemon.New(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("start daemon: %v", err)
	}
	defer d.Close()

	if err := d.Start(ctx); err != nil {
		logger.Error("daemon start", logging.Error(err))
	}

	<-ctx.Done()
	logger.Info("scribed shutting down")
	d.Stop()
}
