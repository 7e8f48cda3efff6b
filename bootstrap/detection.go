package bootstrap

import (
	"fmt"

	"github.com/JGorski-cyber/event-sentinel/config"
	"github.com/JGorski-cyber/event-sentinel/detect"
	"github.com/JGorski-cyber/event-sentinel/metrics"

	"go.uber.org/zap"
)

// InitDetector builds the detector with the built-in rule table
func InitDetector(cfg *config.Config, m *metrics.Metrics, sugar *zap.SugaredLogger) (*detect.Detector, error) {
	matcher, err := detect.NewMatcher(cfg.GetRegexTimeout(), sugar, m)
	if err != nil {
		return nil, fmt.Errorf("failed to create regex matcher: %w", err)
	}

	rules, err := detect.DefaultRules(matcher)
	if err != nil {
		return nil, fmt.Errorf("failed to compile detection rules: %w", err)
	}

	tags := make([]string, 0, len(rules))
	for _, r := range rules {
		tags = append(tags, r.Tag())
	}
	sugar.Debugw("Detection rules loaded", "count", len(rules), "tags", tags)

	return detect.NewDetector(rules, sugar, m), nil
}
