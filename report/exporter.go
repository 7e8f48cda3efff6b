package report

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/JGorski-cyber/event-sentinel/aggregate"

	"go.uber.org/zap"
)

// Report file names inside the output directory
const (
	JSONFileName = "report.json"
	CSVFileName  = "report.csv"
)

var ErrUnsupportedFormat = errors.New("unsupported report format")

// Format selects which report files are written
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatBoth Format = "both"
)

// ParseFormat validates a format name
func ParseFormat(name string) (Format, error) {
	switch f := Format(name); f {
	case FormatJSON, FormatCSV, FormatBoth:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
}

func (f Format) includesJSON() bool { return f == FormatJSON || f == FormatBoth }
func (f Format) includesCSV() bool  { return f == FormatCSV || f == FormatBoth }

// Exporter writes the report files of one aggregated run
type Exporter struct {
	agg    *aggregate.Aggregator
	logger *zap.SugaredLogger
}

// NewExporter creates an Exporter for agg
func NewExporter(agg *aggregate.Aggregator, logger *zap.SugaredLogger) *Exporter {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Exporter{agg: agg, logger: logger}
}

// Export writes the files selected by format into dir, creating it when
// missing, and returns the written paths in JSON, CSV order
func (e *Exporter) Export(dir string, format Format) ([]string, error) {
	if !format.includesJSON() && !format.includesCSV() {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	var written []string
	if format.includesJSON() {
		path := filepath.Join(dir, JSONFileName)
		if err := writeFile(path, func(f *os.File) error { return WriteJSON(f, e.agg) }); err != nil {
			return written, fmt.Errorf("failed to write JSON report: %w", err)
		}
		e.logger.Infof("JSON report saved to %s", path)
		written = append(written, path)
	}
	if format.includesCSV() {
		path := filepath.Join(dir, CSVFileName)
		events := e.agg.Events()
		if len(events) == 0 {
			e.logger.Warn("No events to export, writing header-only CSV")
		}
		if err := writeFile(path, func(f *os.File) error { return WriteCSV(f, events) }); err != nil {
			return written, fmt.Errorf("failed to write CSV report: %w", err)
		}
		e.logger.Infof("CSV report saved to %s", path)
		written = append(written, path)
	}
	return written, nil
}

func writeFile(path string, write func(f *os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
