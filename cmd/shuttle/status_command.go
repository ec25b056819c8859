package main

import (
	"fmt"
	"os"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"shuttle/internal/daemon"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Report whether a shuttle daemon is running",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			lockPath := daemon.LockPath(cfg)
			if _, err := os.Stat(lockPath); os.IsNotExist(err) {
				fmt.Fprintln(out, "Daemon: not running (no lock file)")
				return nil
			}

			probe := flock.New(lockPath)
			acquired, err := probe.TryLock()
			if err != nil {
				return fmt.Errorf("probe daemon lock: %w", err)
			}
			if acquired {
				_ = probe.Unlock()
				fmt.Fprintln(out, "Daemon: not running (stale lock file)")
				return nil
			}

			fmt.Fprintf(out, "Daemon: running (lock held at %s)\n", lockPath)
			return nil
		},
	}
}
