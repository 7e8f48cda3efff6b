package detect

import (
	"strings"
	"testing"
	"time"

	"github.com/JGorski-cyber/event-sentinel/metrics"

	"github.com/dlclark/regexp2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewMatcher_DefaultTimeout(t *testing.T) {
	m, err := NewMatcher(0, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultRegexTimeout, m.Timeout())
}

func TestMatcher_CompileRejectsEmptyPattern(t *testing.T) {
	m, err := NewMatcher(time.Second, zap.NewNop().Sugar(), nil)
	require.NoError(t, err)

	_, err = m.Compile("empty", "", regexp2.None)
	assert.ErrorIs(t, err, ErrEmptyPattern)
}

func TestMatcher_CompileInvalidPattern(t *testing.T) {
	m, err := NewMatcher(time.Second, zap.NewNop().Sugar(), nil)
	require.NoError(t, err)

	_, err = m.Compile("broken", "(unclosed", regexp2.None)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to compile")
}

func TestMatcher_CompileUsesCache(t *testing.T) {
	reg := metrics.New()
	m, err := NewMatcher(time.Second, zap.NewNop().Sugar(), reg)
	require.NoError(t, err)

	first, err := m.Compile("a", "login", regexp2.IgnoreCase)
	require.NoError(t, err)
	second, err := m.Compile("b", "login", regexp2.IgnoreCase)
	require.NoError(t, err)
	_, err = m.Compile("c", "login", regexp2.None)
	require.NoError(t, err)

	assert.Same(t, first.re, second.re, "identical pattern and options should share one program")
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.PatternCacheHits))
	assert.Equal(t, 2.0, testutil.ToFloat64(reg.PatternCacheMisses))
}

func TestMatcher_MatchString(t *testing.T) {
	m, err := NewMatcher(time.Second, zap.NewNop().Sugar(), nil)
	require.NoError(t, err)

	expr, err := m.Compile("test", "needle", regexp2.None)
	require.NoError(t, err)

	match, err := m.MatchString(expr, strings.Repeat("hay ", 10000)+"needle")
	require.NoError(t, err)
	assert.True(t, match)

	match, err = m.MatchString(expr, "haystack")
	require.NoError(t, err)
	assert.False(t, match)

	_, err = m.MatchString(nil, "anything")
	assert.ErrorIs(t, err, ErrNilExpression)
}

func TestMatcher_SearchTimeoutIsNoMatch(t *testing.T) {
	reg := metrics.New()
	m, err := NewMatcher(10*time.Millisecond, zap.NewNop().Sugar(), reg)
	require.NoError(t, err)

	// nested quantifier with a failing suffix backtracks exponentially
	expr, err := m.Compile("redos", `^(a+)+$`, regexp2.None)
	require.NoError(t, err)
	input := strings.Repeat("a", 40) + "!"

	_, err = m.MatchString(expr, input)
	assert.ErrorIs(t, err, ErrRegexTimeout)

	assert.False(t, m.Search(expr, input))
	assert.GreaterOrEqual(t, testutil.ToFloat64(reg.RegexTimeouts.WithLabelValues("redos")), 1.0)
}
