package detect

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/JGorski-cyber/event-sentinel/metrics"

	"github.com/dlclark/regexp2"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

// DefaultRegexTimeout bounds a single pattern match against one field value
const DefaultRegexTimeout = 100 * time.Millisecond

// DefaultPatternCacheSize is the number of compiled patterns kept by a Matcher
const DefaultPatternCacheSize = 64

var (
	ErrRegexTimeout  = errors.New("regex evaluation timeout")
	ErrEmptyPattern  = errors.New("regex pattern cannot be empty")
	ErrNilExpression = errors.New("regex expression is nil")
)

// Expression is a compiled pattern bound to the rule tag it reports under
type Expression struct {
	tag string
	re  *regexp2.Regexp
}

// String returns the source pattern
func (e *Expression) String() string {
	if e == nil || e.re == nil {
		return ""
	}
	return e.re.String()
}

// Matcher compiles patterns with a backtracking limit and evaluates them,
// converting every match failure into a non-match
type Matcher struct {
	cache   *lru.Cache[string, *regexp2.Regexp]
	timeout time.Duration
	logger  *zap.SugaredLogger
	metrics *metrics.Metrics
}

// NewMatcher creates a Matcher. A non-positive timeout selects
// DefaultRegexTimeout. m may be nil.
func NewMatcher(timeout time.Duration, logger *zap.SugaredLogger, m *metrics.Metrics) (*Matcher, error) {
	if timeout <= 0 {
		timeout = DefaultRegexTimeout
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	cache, err := lru.New[string, *regexp2.Regexp](DefaultPatternCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create pattern cache: %w", err)
	}
	return &Matcher{
		cache:   cache,
		timeout: timeout,
		logger:  logger,
		metrics: m,
	}, nil
}

// Timeout returns the per-match timeout
func (m *Matcher) Timeout() time.Duration {
	return m.timeout
}

// Compile returns an Expression for pattern. Identical patterns and options
// share one compiled program, so only callers compiling a pattern more than
// once on the same Matcher see cache hits.
func (m *Matcher) Compile(tag, pattern string, opts regexp2.RegexOptions) (*Expression, error) {
	if pattern == "" {
		return nil, ErrEmptyPattern
	}

	// different options compile to different programs
	cacheKey := fmt.Sprintf("%d:%s", opts, pattern)
	if re, ok := m.cache.Get(cacheKey); ok {
		if m.metrics != nil {
			m.metrics.PatternCacheHits.Inc()
		}
		return &Expression{tag: tag, re: re}, nil
	}
	if m.metrics != nil {
		m.metrics.PatternCacheMisses.Inc()
	}

	re, err := regexp2.Compile(pattern, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to compile regex pattern %q: %w", pattern, err)
	}
	re.MatchTimeout = m.timeout
	m.cache.Add(cacheKey, re)

	return &Expression{tag: tag, re: re}, nil
}

// MatchString reports whether expr matches anywhere in input
func (m *Matcher) MatchString(expr *Expression, input string) (bool, error) {
	if expr == nil || expr.re == nil {
		return false, ErrNilExpression
	}

	match, err := expr.re.MatchString(input)
	if err != nil {
		// regexp2 reports an exceeded MatchTimeout as a plain error
		if strings.Contains(strings.ToLower(err.Error()), "timeout") {
			return false, ErrRegexTimeout
		}
		return false, fmt.Errorf("regex matching error: %w", err)
	}
	return match, nil
}

// Search is MatchString with errors folded into a non-match. Timeouts and
// failures are logged and counted.
func (m *Matcher) Search(expr *Expression, input string) bool {
	match, err := m.MatchString(expr, input)
	if err == nil {
		return match
	}

	tag := ""
	if expr != nil {
		tag = expr.tag
	}
	if errors.Is(err, ErrRegexTimeout) {
		if m.metrics != nil {
			m.metrics.RegexTimeouts.WithLabelValues(tag).Inc()
		}
		m.logger.Warnf("Regex timeout in rule %s (pattern: %s, timeout: %v, input length: %d)",
			tag, expr.String(), m.timeout, len(input))
		return false
	}
	if m.metrics != nil {
		m.metrics.RuleEvaluationsTotal.WithLabelValues(tag, "error").Inc()
	}
	m.logger.Errorf("Regex evaluation failed in rule %s: %v", tag, err)
	return false
}
