package detect

import (
	"time"

	"github.com/JGorski-cyber/event-sentinel/core"
	"github.com/JGorski-cyber/event-sentinel/metrics"

	"go.uber.org/zap"
)

// Detector evaluates an ordered rule set against events
type Detector struct {
	rules   []Rule
	logger  *zap.SugaredLogger
	metrics *metrics.Metrics
}

// NewDetector creates a Detector over rules. Rule order is the order in which
// tags are attached. m may be nil.
func NewDetector(rules []Rule, logger *zap.SugaredLogger, m *metrics.Metrics) *Detector {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Detector{
		rules:   rules,
		logger:  logger,
		metrics: m,
	}
}

// Rules returns the rule set in evaluation order
func (d *Detector) Rules() []Rule {
	return d.rules
}

// Evaluate returns the tags of every rule matching event, in rule order,
// without modifying the event
func (d *Detector) Evaluate(event *core.Event) []string {
	tags := []string{}
	if event == nil {
		return tags
	}

	seen := make(map[string]struct{}, len(d.rules))
	for _, rule := range d.rules {
		tag := rule.Tag()
		if _, dup := seen[tag]; dup {
			continue
		}
		matched, ok := d.safeMatch(rule, event)
		if !ok {
			continue
		}
		if !matched {
			d.record(tag, "no_match")
			continue
		}
		d.record(tag, "match")
		seen[tag] = struct{}{}
		tags = append(tags, tag)
		if d.metrics != nil {
			d.metrics.DetectionsTotal.WithLabelValues(tag).Inc()
		}
	}
	return tags
}

// Run replaces the detections of every event with the tags of the matching
// rules and returns the same slice
func (d *Detector) Run(events []*core.Event) []*core.Event {
	tagged := 0
	for _, event := range events {
		if event == nil {
			continue
		}
		start := time.Now()
		event.Detections = d.Evaluate(event)
		if d.metrics != nil {
			d.metrics.EventProcessingDuration.Observe(time.Since(start).Seconds())
		}
		if len(event.Detections) > 0 {
			tagged++
		}
	}
	d.logger.Debugf("Detection pass complete: %d events, %d with detections", len(events), tagged)
	return events
}

// safeMatch recovers a panicking rule; ok is false when the rule panicked
func (d *Detector) safeMatch(rule Rule, event *core.Event) (matched, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Errorf("Panic in rule %s: %v", rule.Tag(), r)
			d.record(rule.Tag(), "error")
			matched, ok = false, false
		}
	}()
	return rule.Match(event), true
}

func (d *Detector) record(tag, result string) {
	if d.metrics != nil {
		d.metrics.RuleEvaluationsTotal.WithLabelValues(tag, result).Inc()
	}
}
