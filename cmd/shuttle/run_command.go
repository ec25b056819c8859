package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"shuttle/internal/daemon"
	"shuttle/internal/history"
	"shuttle/internal/logging"
	"shuttle/internal/pipeline"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the distribution pipeline in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipelineProcess(cmd, ctx)
		},
	}
}

func runPipelineProcess(cmd *cobra.Command, ctx *commandContext) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	ledger, err := history.Open(cfg)
	if err != nil {
		return fmt.Errorf("open history ledger: %w", err)
	}

	p, err := pipeline.New(cfg, ledger, logger)
	if err != nil {
		_ = ledger.Close()
		return fmt.Errorf("build pipeline: %w", err)
	}

	d, err := daemon.New(cfg, ledger, logger, p)
	if err != nil {
		_ = ledger.Close()
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	if err := d.Start(signalCtx); err != nil {
		return err
	}

	<-signalCtx.Done()
	d.Stop()
	return nil
}
