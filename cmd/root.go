// Package cmd provides the command-line interface of sentinel.
package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/JGorski-cyber/event-sentinel/bootstrap"
	"github.com/JGorski-cyber/event-sentinel/ingest"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// CLI output formatters
var (
	successColor = color.New(color.FgGreen, color.Bold)
	warningColor = color.New(color.FgYellow)
	infoColor    = color.New(color.FgCyan)
)

// flagKeys binds each run flag to its configuration key
var flagKeys = map[string]string{
	"file":         "input.files",
	"directory":    "input.directory",
	"type":         "input.type",
	"output":       "output.format",
	"output-path":  "output.path",
	"no-color":     "output.no_color",
	"metrics-file": "output.metrics_file",
	"workers":      "engine.workers",
	"verbose":      "logging.verbose",
	"s3-url":       "publish.s3.url",
}

// NewRootCmd creates the sentinel command
func NewRootCmd() *cobra.Command {
	v := viper.New()
	var configFile string

	rootCmd := &cobra.Command{
		Use:   "sentinel",
		Short: "Triage Sysmon, Windows event, web access and syslog files",
		Long: `Parse security log files, tag suspicious events and summarize them.

Events are grouped by source and event ID. A summary is printed to stdout and
JSON and/or CSV reports are written to the output path.`,
		Example: `  sentinel -f sysmon.csv -f access.log
  sentinel -d /var/log/collected -o both --output-path ./out
  sentinel verify ./reports/report.json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if noColor, _ := cmd.Flags().GetBool("no-color"); noColor {
				color.NoColor = true
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTriage(cmd, v, configFile)
		},
	}

	flags := rootCmd.Flags()
	flags.StringSliceP("file", "f", nil, "Log file to process (repeatable)")
	flags.StringP("directory", "d", "", "Directory of log files to process")
	flags.StringP("type", "t", ingest.TypeAuto, "Log type: sysmon, windows, web, syslog or auto")
	flags.StringP("output", "o", "json", "Report format: json, csv or both")
	flags.String("output-path", "./reports", "Directory reports are written to")
	flags.BoolP("verbose", "v", false, "Enable debug logging")
	flags.Int("workers", 1, "Number of files parsed concurrently")
	flags.String("metrics-file", "", "Write run metrics in Prometheus textfile format")
	flags.String("s3-url", "", "Publish reports to this S3 location (s3://bucket/prefix)")

	rootCmd.PersistentFlags().Bool("no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file path (default ./sentinel.yaml or ./config/sentinel.yaml)")

	if err := bindFlags(v, rootCmd); err != nil {
		panic(err)
	}

	rootCmd.AddCommand(newVerifyCmd())
	return rootCmd
}

func bindFlags(v *viper.Viper, cmd *cobra.Command) error {
	for name, key := range flagKeys {
		var flag *pflag.Flag
		if flag = cmd.Flags().Lookup(name); flag == nil {
			flag = cmd.PersistentFlags().Lookup(name)
		}
		if flag == nil {
			return fmt.Errorf("flag %q is not defined", name)
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("failed to bind flag %q: %w", name, err)
		}
	}
	return nil
}

func runTriage(cmd *cobra.Command, v *viper.Viper, configFile string) error {
	cfg, err := bootstrap.InitConfig(v, configFile)
	if err != nil {
		return err
	}
	if cfg.Output.NoColor {
		color.NoColor = true
	}

	logger, sugar, err := bootstrap.InitLogger(cfg.Logging.Verbose, cfg.Output.NoColor)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.NewApp(cfg, sugar,
		bootstrap.WithViper(v),
		bootstrap.WithStdout(cmd.OutOrStdout()))
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}

	result, err := app.Run(ctx)
	if err != nil {
		if errors.Is(err, bootstrap.ErrNoInputFiles) {
			sugar.Error("No input files provided. Use --file or --directory.")
		}
		return err
	}

	renderResult(cmd.ErrOrStderr(), result)
	return nil
}

func renderResult(w io.Writer, result *bootstrap.Result) {
	successColor.Fprintf(w, "Triage complete: %d events in %d groups from %d file(s)\n",
		result.Events, result.Groups, len(result.Inputs)-len(result.Skipped))
	if len(result.Skipped) > 0 {
		warningColor.Fprintf(w, "Skipped %d file(s):\n", len(result.Skipped))
		for _, path := range result.Skipped {
			fmt.Fprintf(w, "  %s\n", path)
		}
	}
	for _, path := range result.Reports {
		infoColor.Fprintf(w, "Report: %s\n", path)
	}
	for _, location := range result.Published {
		infoColor.Fprintf(w, "Published: %s\n", location)
	}
}
