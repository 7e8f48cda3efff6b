// Package ingest turns log files into events. Each supported format has a
// Parser; the Registry selects one by name or by sniffing the first line of a
// file.
package ingest

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/JGorski-cyber/event-sentinel/core"
	"github.com/JGorski-cyber/event-sentinel/metrics"

	"go.uber.org/zap"
)

const (
	// maxFieldLength caps a single raw field value
	maxFieldLength = 50000
	// maxLineSize caps a single line of a line-oriented log
	maxLineSize = 1024 * 1024
)

var (
	ErrUnknownSourceKind = errors.New("unknown source kind")
	ErrEmptyInput        = errors.New("empty input")

	errLineTooLong = errors.New("line exceeds the maximum line size")
)

// Parser converts one log file into events
type Parser interface {
	// Kind is the source kind stamped on every produced event
	Kind() core.SourceKind
	// Parse reads the whole input. Malformed records are handled by the
	// parser's own policy; a returned error means the input was unusable.
	Parse(r io.Reader) ([]*core.Event, error)
}

// Options configures the parsers built by NewRegistry
type Options struct {
	// Mappings maps named raw fields to normalized fields; defaults apply when nil
	Mappings *core.FieldMappings
	Logger   *zap.SugaredLogger
	Metrics  *metrics.Metrics
}

func (o Options) withDefaults() Options {
	if o.Mappings == nil {
		o.Mappings = core.DefaultFieldMappings()
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop().Sugar()
	}
	return o
}

// base provides common functionality for parsers
type base struct {
	kind    core.SourceKind
	name    string
	logger  *zap.SugaredLogger
	metrics *metrics.Metrics
}

func newBase(kind core.SourceKind, name string, opts Options) base {
	return base{
		kind:    kind,
		name:    name,
		logger:  opts.Logger,
		metrics: opts.Metrics,
	}
}

func (b *base) Kind() core.SourceKind {
	return b.kind
}

// skipRecord records a dropped malformed record
func (b *base) skipRecord(record int, reason error) {
	b.logger.Debugf("Skipping malformed %s record %d: %v", b.name, record, reason)
	if b.metrics != nil {
		b.metrics.RecordsSkipped.WithLabelValues(b.name).Inc()
	}
}

// ParseFile opens path and parses it with p. An empty file yields
// ErrEmptyInput.
func ParseFile(p Parser, path string) ([]*core.Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.Size() == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrEmptyInput)
	}

	events, err := p.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s as %s: %w", path, p.Kind(), err)
	}
	return events, nil
}

// clampField truncates oversized values
func clampField(value string) string {
	if len(value) > maxFieldLength {
		return value[:maxFieldLength] + "..."
	}
	return value
}

// skipBOM drops a leading UTF-8 byte order mark so it never reaches a
// tokenizer
func skipBOM(r io.Reader) io.Reader {
	const bom = "\ufeff"
	reader := bufio.NewReader(r)
	if prefix, err := reader.Peek(len(bom)); err == nil && string(prefix) == bom {
		_, _ = reader.Discard(len(bom))
	}
	return reader
}

// scanLines calls fn for every line of r with the line terminator removed.
// A line longer than maxLineSize is discarded and reported to tooLong; reading
// resumes at the next line.
func scanLines(r io.Reader, fn func(lineNo int, line string), tooLong func(lineNo int)) error {
	reader := bufio.NewReaderSize(r, 64*1024)
	var buf []byte
	lineNo := 0
	oversized := false
	for {
		chunk, isPrefix, err := reader.ReadLine()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read line %d: %w", lineNo+1, err)
		}
		if !oversized {
			buf = append(buf, chunk...)
			if len(buf) > maxLineSize {
				oversized = true
				buf = buf[:0]
			}
		}
		if isPrefix {
			continue
		}

		lineNo++
		if oversized {
			tooLong(lineNo)
		} else {
			fn(lineNo, strings.TrimSuffix(string(buf), "\r"))
		}
		buf = buf[:0]
		oversized = false
	}
}
