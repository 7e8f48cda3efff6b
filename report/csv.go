package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/JGorski-cyber/event-sentinel/core"
)

// DetectionSeparator joins detection tags in a CSV cell
const DetectionSeparator = ";"

// CSVHeader returns the columns for events: timestamp, source, the sorted
// union of every normalized field present on any event, then detections
func CSVHeader(events []*core.Event) []string {
	fields := csvFields(events)
	header := make([]string, 0, len(fields)+3)
	header = append(header, "timestamp", "source")
	for _, f := range fields {
		header = append(header, f.String())
	}
	return append(header, "detections")
}

func csvFields(events []*core.Event) []core.Field {
	seen := make(map[core.Field]struct{})
	var fields []core.Field
	for _, e := range events {
		if e == nil {
			continue
		}
		for _, f := range e.Normalized.Keys() {
			if _, ok := seen[f]; !ok {
				seen[f] = struct{}{}
				fields = append(fields, f)
			}
		}
	}
	sort.Slice(fields, func(i, j int) bool {
		return fields[i].String() < fields[j].String()
	})
	return fields
}

// WriteCSV writes one row per event in the given order. Without events only
// the header is written.
func WriteCSV(w io.Writer, events []*core.Event) error {
	fields := csvFields(events)
	cw := csv.NewWriter(w)

	if err := cw.Write(CSVHeader(events)); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	row := make([]string, 0, len(fields)+3)
	for _, e := range events {
		if e == nil {
			continue
		}
		row = row[:0]
		row = append(row, e.Timestamp, e.Source.String())
		for _, f := range fields {
			row = append(row, e.Get(f))
		}
		row = append(row, strings.Join(e.Detections, DetectionSeparator))
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
