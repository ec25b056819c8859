package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"shuttle/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigInitCommand())
	configCmd.AddCommand(newConfigShowCommand(ctx))
	configCmd.AddCommand(newConfigValidateCommand(ctx))

	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return fmt.Errorf("determine default config path: %w", err)
				}
				target = defaultPath
			} else {
				expanded, err := config.ExpandPath(target)
				if err != nil {
					return fmt.Errorf("resolve config path: %w", err)
				}
				target = expanded
			}

			if !overwrite {
				if _, err := os.Stat(target); err == nil {
					return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
				} else if !os.IsNotExist(err) {
					return fmt.Errorf("check config path: %w", err)
				}
			}

			if err := config.CreateSample(target); err != nil {
				return fmt.Errorf("create sample config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "Edit the file to set source roots and destination targets before running shuttle.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing configuration if present")
	return cmd
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the resolved configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Data directory:   %s\n", cfg.Paths.DataDir)
			fmt.Fprintf(out, "Log directory:    %s\n", cfg.Paths.LogDir)
			fmt.Fprintf(out, "Source roots:     %s\n", strings.Join(cfg.Sources.Roots, ", "))
			fmt.Fprintf(out, "Destinations:     %s\n", strings.Join(cfg.Destinations.Targets, ", "))
			fmt.Fprintf(out, "Shuffle targets:  %s\n", yesNo(cfg.Destinations.Shuffle))
			fmt.Fprintf(out, "Rsync binary:     %s\n", cfg.RsyncBinary())
			if cfg.Transfer.BandwidthLimit > 0 {
				fmt.Fprintf(out, "Bandwidth limit:  %d KiB/s\n", cfg.Transfer.BandwidthLimit)
			} else {
				fmt.Fprintln(out, "Bandwidth limit:  unlimited")
			}
			if cfg.Transfer.IOPriority != "" {
				fmt.Fprintf(out, "I/O priority:     %s\n", cfg.Transfer.IOPriority)
			}
			fmt.Fprintf(out, "Preflight file:   %s\n", cfg.Transfer.PreflightFile)
			fmt.Fprintf(out, "Global lock:      %s\n", yesNo(cfg.Locking.GlobalSingleTransfer))
			fmt.Fprintf(out, "Per-source lock:  %s\n", yesNo(cfg.Locking.PerSourceSingleTransfer))
			fmt.Fprintf(out, "Backoff:          short %s, long %s after %d unmounted retries\n",
				cfg.ShortBackoff(), cfg.LongBackoff(), cfg.Backoff.UnmountedEscalateAfter)
			fmt.Fprintf(out, "Logging:          %s (%s)\n", cfg.Logging.Format, cfg.Logging.Level)
			return nil
		},
	}
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:         "validate",
		Short:       "Validate configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, exists, err := config.Load(ctx.configPath())
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if !exists {
				return fmt.Errorf("no config file found at %s (run `shuttle config init`)", path)
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return fmt.Errorf("ensure directories: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config path: %s\n", path)
			fmt.Fprintln(out, "Configuration valid")
			return nil
		},
	}
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
