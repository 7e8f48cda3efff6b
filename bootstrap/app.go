package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/JGorski-cyber/event-sentinel/aggregate"
	"github.com/JGorski-cyber/event-sentinel/config"
	"github.com/JGorski-cyber/event-sentinel/core"
	"github.com/JGorski-cyber/event-sentinel/detect"
	"github.com/JGorski-cyber/event-sentinel/ingest"
	"github.com/JGorski-cyber/event-sentinel/metrics"
	"github.com/JGorski-cyber/event-sentinel/report"
	"github.com/JGorski-cyber/event-sentinel/util/goroutine"

	"github.com/google/uuid"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrNoInputFiles is returned when neither files nor a directory yield input
var ErrNoInputFiles = errors.New("no input files provided")

// App is one triage run with all of its components
type App struct {
	Config  *config.Config
	Sugar   *zap.SugaredLogger
	Metrics *metrics.Metrics
	RunID   string

	Registry  *ingest.Registry
	Detector  *detect.Detector
	Publisher *report.S3Publisher

	// Stdout receives the console summary
	Stdout io.Writer
	// Progress enables the stderr spinner
	Progress bool
}

// Result describes a finished run
type Result struct {
	RunID     string
	Inputs    []string
	Skipped   []string
	Reports   []string
	Published []string
	Groups    int
	Events    int
}

// Option customizes an App
type Option func(*App)

// WithStdout redirects the console summary
func WithStdout(w io.Writer) Option {
	return func(a *App) { a.Stdout = w }
}

// WithPublisher replaces the publisher built from the configuration
func WithPublisher(p *report.S3Publisher) Option {
	return func(a *App) { a.Publisher = p }
}

// WithViper lets the App report which config file was used
func WithViper(v *viper.Viper) Option {
	return func(a *App) { logConfig(v, a.Config, a.Sugar) }
}

// NewApp creates the components of a run. Every log line of the run carries
// its run_id.
func NewApp(cfg *config.Config, sugar *zap.SugaredLogger, opts ...Option) (*App, error) {
	runID := uuid.New().String()
	app := &App{
		Config:   cfg,
		Sugar:    sugar.With("run_id", runID),
		Metrics:  metrics.New(),
		RunID:    runID,
		Stdout:   os.Stdout,
		Progress: !cfg.Logging.Verbose,
	}

	mappings := core.DefaultFieldMappings()
	if cfg.Input.FieldMappings != "" {
		loaded, err := core.LoadFieldMappings(cfg.Input.FieldMappings)
		if err != nil {
			return nil, fmt.Errorf("failed to load field mappings: %w", err)
		}
		mappings = loaded
		app.Sugar.Infof("Field mappings loaded from %s", cfg.Input.FieldMappings)
	}

	app.Registry = ingest.NewRegistry(ingest.Options{
		Mappings: mappings,
		Logger:   app.Sugar,
		Metrics:  app.Metrics,
	})

	detector, err := InitDetector(cfg, app.Metrics, app.Sugar)
	if err != nil {
		return nil, err
	}
	app.Detector = detector

	publisher, err := InitPublisher(cfg, app.Sugar)
	if err != nil {
		return nil, err
	}
	app.Publisher = publisher

	for _, opt := range opts {
		opt(app)
	}
	return app, nil
}

// Run parses every input, tags and groups the events, prints the summary and
// writes the reports. Unusable files are skipped with a warning; only a run
// without any input fails before reports are written.
func (a *App) Run(ctx context.Context) (*Result, error) {
	cfg := a.Config
	inputs, err := ingest.ResolveInputs(cfg.Input.Files, cfg.Input.Directory, cfg.Input.Extensions)
	if err != nil {
		return nil, err
	}
	if len(inputs) == 0 {
		return nil, ErrNoInputFiles
	}
	a.Sugar.Infof("Processing %d input file(s)", len(inputs))

	batches, err := a.parseAll(ctx, inputs)
	if err != nil {
		return nil, err
	}

	result := &Result{RunID: a.RunID, Inputs: inputs}
	agg := aggregate.New()
	for i, events := range batches {
		if events == nil {
			result.Skipped = append(result.Skipped, inputs[i])
			continue
		}
		a.Detector.Run(events)
		agg.AddEvents(events)
	}
	result.Groups = agg.Len()
	result.Events = len(agg.Events())
	a.Metrics.Groups.Set(float64(result.Groups))
	a.Sugar.Infow("Processing complete",
		"files", len(inputs)-len(result.Skipped),
		"skipped", len(result.Skipped),
		"events", result.Events,
		"groups", result.Groups)

	if err := report.PrintSummary(a.Stdout, agg, !cfg.Output.NoColor); err != nil {
		return nil, fmt.Errorf("failed to print summary: %w", err)
	}

	format, err := report.ParseFormat(cfg.Output.Format)
	if err != nil {
		return nil, err
	}
	written, err := report.NewExporter(agg, a.Sugar).Export(cfg.Output.Path, format)
	result.Reports = written
	if err != nil {
		return result, err
	}

	if cfg.Output.MetricsFile != "" {
		if err := a.Metrics.WriteTextfile(cfg.Output.MetricsFile); err != nil {
			a.Sugar.Warnf("Failed to write metrics file %s: %v", cfg.Output.MetricsFile, err)
		} else {
			a.Sugar.Infof("Metrics written to %s", cfg.Output.MetricsFile)
		}
	}

	if a.Publisher != nil {
		locations, err := a.Publisher.Publish(ctx, a.RunID, written)
		result.Published = locations
		if err != nil {
			return result, fmt.Errorf("failed to publish reports: %w", err)
		}
	}
	return result, nil
}

// parseAll parses inputs and returns one batch per input, in input order. A
// nil batch marks a skipped file.
func (a *App) parseAll(ctx context.Context, inputs []string) ([][]*core.Event, error) {
	batches := make([][]*core.Event, len(inputs))
	p := newProgress(a.Progress, len(inputs))
	defer p.stop()

	if a.Config.Engine.Workers <= 1 {
		for i, path := range inputs {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("run cancelled: %w", err)
			}
			p.file(i+1, path)
			batches[i] = a.recoverParse(path)
		}
		return batches, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.Config.Engine.Workers)
	for i, path := range inputs {
		i, path := i, path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			p.file(i+1, path)
			batches[i] = a.recoverParse(path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("run cancelled: %w", err)
	}
	return batches, nil
}

// recoverParse is parseFile with a panicking parser turned into a skip
func (a *App) recoverParse(path string) (events []*core.Event) {
	defer goroutine.Recover("parse "+path, a.Sugar, func() {
		a.Metrics.FilesSkipped.WithLabelValues(SkipPanic).Inc()
		events = nil
	})
	return a.parseFile(path)
}

// parseFile returns the events of one file, or nil when the file is skipped
func (a *App) parseFile(path string) []*core.Event {
	parser, err := a.Registry.ForFile(path, a.Config.Input.Type)
	if err != nil {
		a.skip(path, err)
		return nil
	}

	events, err := ingest.ParseFile(parser, path)
	if err != nil {
		a.skip(path, err)
		return nil
	}

	a.Metrics.FilesProcessed.WithLabelValues(string(parser.Kind())).Inc()
	a.Metrics.EventsParsed.WithLabelValues(string(parser.Kind())).Add(float64(len(events)))
	a.Sugar.Infof("Parsed %d events from %s (%s)", len(events), path, parser.Kind())
	if events == nil {
		events = []*core.Event{}
	}
	return events
}

func (a *App) skip(path string, err error) {
	reason := ClassifySkip(err)
	a.Metrics.FilesSkipped.WithLabelValues(reason).Inc()
	if reason == SkipEmpty {
		a.Sugar.Infof("Skipping empty file %s", path)
		return
	}
	a.Sugar.Warnw("Skipping file", "path", path, "reason", reason, "error", err)
}
