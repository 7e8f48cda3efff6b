package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/JGorski-cyber/event-sentinel/core"
)

// SysmonParser reads Sysmon CSV exports with a header row. Records the CSV
// reader rejects are skipped and parsing continues with the next record.
type SysmonParser struct {
	base
	mappings *core.FieldMappings
}

// NewSysmonParser creates a SysmonParser
func NewSysmonParser(opts Options) *SysmonParser {
	opts = opts.withDefaults()
	return &SysmonParser{
		base:     newBase(core.SourceSysmon, "sysmon", opts),
		mappings: opts.Mappings,
	}
}

func (p *SysmonParser) Parse(r io.Reader) ([]*core.Event, error) {
	reader := csv.NewReader(skipBOM(r))
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err == io.EOF {
		return []*core.Event{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	columns := make([]string, len(header))
	for i, name := range header {
		columns[i] = strings.TrimSpace(name)
	}

	events := []*core.Event{}
	for record := 1; ; record++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				p.skipRecord(record, err)
				continue
			}
			return nil, fmt.Errorf("failed to read CSV record %d: %w", record, err)
		}

		raw := make(map[string]string, len(columns))
		for i, name := range columns {
			if i >= len(row) {
				break
			}
			raw[name] = clampField(row[i])
		}

		event := core.NewEvent(p.kind, core.RecordTimestamp(p.kind, raw))
		event.Raw = raw
		p.mappings.Normalize(event)
		events = append(events, event)
	}

	p.logger.Debugf("Parsed %d sysmon events", len(events))
	return events, nil
}
