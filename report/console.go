package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/JGorski-cyber/event-sentinel/aggregate"
	"github.com/JGorski-cyber/event-sentinel/core"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"
)

// summaryTitle heads the colored console summary
const summaryTitle = "=== Log Triage Summary ==="

type palette struct {
	title     *color.Color
	group     *color.Color
	count     *color.Color
	seen      *color.Color
	samples   *color.Color
	detection *color.Color
	clean     *color.Color
}

func newPalette() palette {
	p := palette{
		title:     color.New(color.FgHiYellow, color.Bold),
		group:     color.New(color.FgHiBlue, color.Bold),
		count:     color.New(color.FgGreen),
		seen:      color.New(color.FgCyan),
		samples:   color.New(color.FgHiMagenta),
		detection: color.New(color.FgRed),
		clean:     color.New(color.FgHiGreen),
	}
	// the caller decides; do not fall back to terminal detection
	for _, c := range []*color.Color{p.title, p.group, p.count, p.seen, p.samples, p.detection, p.clean} {
		c.EnableColor()
	}
	return p
}

// PrintSummary writes the per-group rollup to w. With colored false the
// summary is rendered as plain YAML.
func PrintSummary(w io.Writer, agg *aggregate.Aggregator, colored bool) error {
	if !colored {
		return printPlainSummary(w, agg)
	}

	p := newPalette()
	p.title.Fprintf(w, "\n%s\n\n", summaryTitle)

	for _, g := range agg.Summary() {
		p.group.Fprintf(w, "[%s] Event ID %s\n", g.Key.Source, g.Key.EventID)
		p.count.Fprintf(w, "  Count: %d\n", g.Entry.Count)
		p.seen.Fprintf(w, "  First Seen: %s\n", g.Entry.FirstSeen)
		p.seen.Fprintf(w, "  Last Seen:  %s\n", g.Entry.LastSeen)
		p.samples.Fprintln(w, "  Sample Events:")

		for _, sample := range g.Entry.Samples {
			fmt.Fprintf(w, "   • %s %s\n", sample.Timestamp, describeSample(sample))
			if len(sample.Detections) == 0 {
				fmt.Fprintf(w, "     Detections: %s\n", p.clean.Sprint("None"))
				continue
			}
			tags := make([]string, 0, len(sample.Detections))
			for _, tag := range sample.Detections {
				tags = append(tags, p.detection.Sprint(tag))
			}
			fmt.Fprintf(w, "     Detections: %s\n", strings.Join(tags, ", "))
		}
		fmt.Fprintln(w)
	}
	return nil
}

// describeSample renders the normalized fields as space separated key=value
// pairs in vocabulary order
func describeSample(e *core.Event) string {
	keys := e.Normalized.Keys()
	parts := make([]string, 0, len(keys))
	for _, f := range keys {
		parts = append(parts, f.String()+"="+e.Get(f))
	}
	return strings.Join(parts, " ")
}

type plainSample struct {
	Timestamp  string            `yaml:"timestamp"`
	Normalized map[string]string `yaml:"normalized,omitempty"`
	Detections []string          `yaml:"detections"`
}

type plainGroup struct {
	Group     string        `yaml:"group"`
	Count     int           `yaml:"count"`
	FirstSeen string        `yaml:"first_seen"`
	LastSeen  string        `yaml:"last_seen"`
	Samples   []plainSample `yaml:"samples"`
}

type plainSummary struct {
	Summary []plainGroup `yaml:"summary"`
}

func printPlainSummary(w io.Writer, agg *aggregate.Aggregator) error {
	out := plainSummary{Summary: []plainGroup{}}
	for _, g := range agg.Summary() {
		group := plainGroup{
			Group:     g.Key.String(),
			Count:     g.Entry.Count,
			FirstSeen: g.Entry.FirstSeen,
			LastSeen:  g.Entry.LastSeen,
			Samples:   make([]plainSample, 0, len(g.Entry.Samples)),
		}
		for _, s := range g.Entry.Samples {
			group.Samples = append(group.Samples, plainSample{
				Timestamp:  s.Timestamp,
				Normalized: s.Normalized.Map(),
				Detections: append([]string{}, s.Detections...),
			})
		}
		out.Summary = append(out.Summary, group)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("failed to render summary: %w", err)
	}
	return enc.Close()
}
