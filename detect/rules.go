package detect

import (
	"fmt"
	"strings"

	"github.com/JGorski-cyber/event-sentinel/core"

	"github.com/dlclark/regexp2"
)

// Detection tags, in evaluation order
const (
	TagFailedLogin       = "failed_login"
	TagSuspiciousProcess = "suspicious_process"
	TagBase64Command     = "base64_command"
	TagRareExternalIP    = "rare_external_ip"
	TagWebAttack         = "web_attack"
	TagSuspiciousBinary  = "suspicious_binary"
)

// Rule is a pure predicate over an event's normalized fields
type Rule interface {
	Tag() string
	Match(event *core.Event) bool
}

// Patterns used by the default rule set
const (
	failedLoginPattern       = `(failed|invalid).*login`
	suspiciousProcessPattern = `(powershell\.exe|cmd\.exe|wscript\.exe).*?-enc`
	base64Pattern            = `(?:[A-Za-z0-9+/]{20,}={0,2})`
	webSQLiPattern           = `(\bor\b|\band\b).*(=|<|>).*(\b\d\b|'|"|%)`
	webRCEPattern            = `(;|\|\||&&)\s*(wget|curl|bash|sh)`
	webTraversalPattern      = `\.\./\.\./|\.\.\\\.\.\\`
)

// privateIPPrefixes are the address prefixes treated as internal
var privateIPPrefixes = []string{"10.", "172.16.", "192.168."}

// trustedBinaries are executables never flagged by SuspiciousBinaryRule
var trustedBinaries = map[string]struct{}{
	"explorer.exe":   {},
	"cmd.exe":        {},
	"powershell.exe": {},
	"svchost.exe":    {},
}

// FailedLoginRule flags authentication failures described in message text
type FailedLoginRule struct {
	matcher *Matcher
	expr    *Expression
}

func (r *FailedLoginRule) Tag() string { return TagFailedLogin }

func (r *FailedLoginRule) Match(event *core.Event) bool {
	for _, value := range []string{event.Message(), event.Description()} {
		if value != "" && r.matcher.Search(r.expr, value) {
			return true
		}
	}
	return false
}

// SuspiciousProcessRule flags encoded commands passed to common LOLBins
type SuspiciousProcessRule struct {
	matcher *Matcher
	expr    *Expression
}

func (r *SuspiciousProcessRule) Tag() string { return TagSuspiciousProcess }

func (r *SuspiciousProcessRule) Match(event *core.Event) bool {
	for _, value := range []string{event.Parent(), event.Process(), event.Command()} {
		if value != "" && r.matcher.Search(r.expr, value) {
			return true
		}
	}
	return false
}

// Base64CommandRule flags command lines carrying a long base64 run
type Base64CommandRule struct {
	matcher *Matcher
	expr    *Expression
}

func (r *Base64CommandRule) Tag() string { return TagBase64Command }

func (r *Base64CommandRule) Match(event *core.Event) bool {
	command := event.Command()
	return command != "" && r.matcher.Search(r.expr, command)
}

// RareExternalIPRule flags any source address outside the private prefixes
type RareExternalIPRule struct{}

func (RareExternalIPRule) Tag() string { return TagRareExternalIP }

func (RareExternalIPRule) Match(event *core.Event) bool {
	ip := event.SourceIP()
	if ip == "" {
		return false
	}
	for _, prefix := range privateIPPrefixes {
		if strings.HasPrefix(ip, prefix) {
			return false
		}
	}
	return true
}

// WebAttackRule flags SQL injection, command injection and path traversal in
// the request line, or in the URL when no request line was recorded
type WebAttackRule struct {
	matcher  *Matcher
	patterns []*Expression
}

func (r *WebAttackRule) Tag() string { return TagWebAttack }

func (r *WebAttackRule) Match(event *core.Event) bool {
	target := event.Request()
	if target == "" {
		target = event.URL()
	}
	if target == "" {
		return false
	}
	for _, expr := range r.patterns {
		if r.matcher.Search(expr, target) {
			return true
		}
	}
	return false
}

// SuspiciousBinaryRule flags executables that are not on the trusted list
type SuspiciousBinaryRule struct{}

func (SuspiciousBinaryRule) Tag() string { return TagSuspiciousBinary }

func (SuspiciousBinaryRule) Match(event *core.Event) bool {
	name := binaryName(event.Process())
	if name == "" || !strings.HasSuffix(name, ".exe") {
		return false
	}
	_, trusted := trustedBinaries[name]
	return !trusted
}

// binaryName returns the lower-cased final path component, accepting both
// Windows and POSIX separators
func binaryName(path string) string {
	path = strings.ToLower(path)
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		path = path[i+1:]
	}
	return path
}

// DefaultRules returns the built-in rule set in evaluation order
func DefaultRules(m *Matcher) ([]Rule, error) {
	compile := func(tag, pattern string, opts regexp2.RegexOptions) (*Expression, error) {
		expr, err := m.Compile(tag, pattern, opts)
		if err != nil {
			return nil, fmt.Errorf("rule %s: %w", tag, err)
		}
		return expr, nil
	}

	failedLogin, err := compile(TagFailedLogin, failedLoginPattern, regexp2.IgnoreCase)
	if err != nil {
		return nil, err
	}
	suspiciousProcess, err := compile(TagSuspiciousProcess, suspiciousProcessPattern, regexp2.IgnoreCase)
	if err != nil {
		return nil, err
	}
	base64, err := compile(TagBase64Command, base64Pattern, regexp2.None)
	if err != nil {
		return nil, err
	}

	webPatterns := make([]*Expression, 0, 3)
	for _, p := range []struct {
		pattern string
		opts    regexp2.RegexOptions
	}{
		{webSQLiPattern, regexp2.IgnoreCase},
		{webRCEPattern, regexp2.IgnoreCase},
		{webTraversalPattern, regexp2.None},
	} {
		expr, err := compile(TagWebAttack, p.pattern, p.opts)
		if err != nil {
			return nil, err
		}
		webPatterns = append(webPatterns, expr)
	}

	return []Rule{
		&FailedLoginRule{matcher: m, expr: failedLogin},
		&SuspiciousProcessRule{matcher: m, expr: suspiciousProcess},
		&Base64CommandRule{matcher: m, expr: base64},
		RareExternalIPRule{},
		&WebAttackRule{matcher: m, patterns: webPatterns},
		SuspiciousBinaryRule{},
	}, nil
}
