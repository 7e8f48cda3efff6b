// Package report renders an aggregated run as JSON and CSV report files, a
// console summary, and optionally publishes the written files to S3.
package report

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/JGorski-cyber/event-sentinel/aggregate"
	"github.com/JGorski-cyber/event-sentinel/core"
)

const jsonIndent = "    "

// entryJSON is the report shape of one group
type entryJSON struct {
	Count     int           `json:"count"`
	FirstSeen string        `json:"first_seen"`
	LastSeen  string        `json:"last_seen"`
	Samples   []*core.Event `json:"samples"`
}

func newEntryJSON(entry *aggregate.Entry) entryJSON {
	samples := entry.Samples
	if samples == nil {
		samples = []*core.Event{}
	}
	return entryJSON{
		Count:     entry.Count,
		FirstSeen: entry.FirstSeen,
		LastSeen:  entry.LastSeen,
		Samples:   samples,
	}
}

// WriteJSON writes one object keyed "<source>:<event_id>" with groups in
// order of first appearance
func WriteJSON(w io.Writer, agg *aggregate.Aggregator) error {
	bw := bufio.NewWriter(w)
	groups := agg.Summary()

	if len(groups) == 0 {
		if _, err := bw.WriteString("{}\n"); err != nil {
			return err
		}
		return bw.Flush()
	}

	bw.WriteString("{\n")
	for i, g := range groups {
		key, err := marshalIndented(g.Key.String(), "")
		if err != nil {
			return fmt.Errorf("failed to encode group key %s: %w", g.Key, err)
		}
		value, err := marshalIndented(newEntryJSON(g.Entry), jsonIndent)
		if err != nil {
			return fmt.Errorf("failed to encode group %s: %w", g.Key, err)
		}

		bw.WriteString(jsonIndent)
		bw.Write(key)
		bw.WriteString(": ")
		bw.Write(value)
		if i < len(groups)-1 {
			bw.WriteString(",")
		}
		bw.WriteString("\n")
	}
	bw.WriteString("}\n")

	return bw.Flush()
}

// marshalIndented encodes v without HTML escaping, indenting continuation
// lines with prefix
func marshalIndented(v interface{}, prefix string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent(prefix, jsonIndent)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
