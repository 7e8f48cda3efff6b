package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/JGorski-cyber/event-sentinel/report"

	"github.com/spf13/cobra"
)

// newVerifyCmd creates the 'verify' subcommand
func newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <report.json>",
		Short: "Validate a JSON report",
		Long:  "Check a JSON report against the report schema and the per-group sample rules.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(filepath.Clean(args[0]))
			if err != nil {
				return fmt.Errorf("failed to open report: %w", err)
			}
			defer f.Close()

			v, err := report.VerifyJSON(f)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			successColor.Fprintf(cmd.OutOrStdout(), "✓ %s is valid\n", args[0])
			fmt.Fprintf(cmd.OutOrStdout(), "  Groups:  %d\n  Events:  %d\n  Samples: %d\n", v.Groups, v.Events, v.Samples)
			return nil
		},
	}
}
