package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"shuttle/internal/history"
)

const (
	ansiReset = "\x1b[0m"
	ansiRed   = "\x1b[31m"
	ansiGreen = "\x1b[32m"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent transfer outcomes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			ledger, err := history.Open(cfg)
			if err != nil {
				return fmt.Errorf("open history ledger: %w", err)
			}
			defer ledger.Close()

			records, err := ledger.Recent(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("read history: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintln(out, "No transfers recorded yet")
				return nil
			}

			colorize := shouldColorize(out)
			rows := make([][]string, 0, len(records))
			for _, rec := range records {
				rows = append(rows, []string{
					rec.CreatedAt.Local().Format(time.DateTime),
					renderOutcome(rec, colorize),
					rec.Path,
					rec.Destination,
					formatBytes(rec.Bytes),
					formatDuration(rec.Duration),
				})
			}

			headers := []string{"When", "Outcome", "File", "Destination", "Size", "Duration"}
			aligns := []columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight}
			fmt.Fprintln(out, renderTable(headers, rows, aligns))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 25, "Maximum number of records to show")
	return cmd
}

func renderOutcome(rec history.Record, colorize bool) string {
	label := string(rec.Outcome)
	if rec.Outcome == history.OutcomeDropped && rec.Detail != "" {
		label = fmt.Sprintf("%s (%s)", label, rec.Detail)
	}
	if !colorize {
		return label
	}
	switch rec.Outcome {
	case history.OutcomeTransferred:
		return ansiGreen + label + ansiReset
	case history.OutcomeDropped:
		return ansiRed + label + ansiReset
	default:
		return label
	}
}

func formatBytes(n int64) string {
	if n <= 0 {
		return "-"
	}
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	return d.Round(time.Millisecond).String()
}
