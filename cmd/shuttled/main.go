package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"shuttle/internal/config"
	"shuttle/internal/daemon"
	"shuttle/internal/history"
	"shuttle/internal/logging"
	"shuttle/internal/pipeline"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		log.Fatalf("shuttled: %v", err)
	}
}

func run(ctx context.Context) error {
	cfg, _, _, err := config.Load("")
	if err != nil {
		return err
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return err
	}

	ledger, err := history.Open(cfg)
	if err != nil {
		return err
	}

	p, err := pipeline.New(cfg, ledger, logger)
	if err != nil {
		_ = ledger.Close()
		return err
	}

	d, err := daemon.New(cfg, ledger, logger, p)
	if err != nil {
		_ = ledger.Close()
		return err
	}
	defer d.Close()

	if err := d.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	d.Stop()
	logger.Info("shuttled shutting down")
	return nil
}
