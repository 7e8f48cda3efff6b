package core

import (
	"strings"
	"time"
)

// sourceLayouts lists the timestamp layouts each source is known to emit, most
// common first. Layouts without a zone are interpreted as UTC.
var sourceLayouts = map[SourceKind][]string{
	SourceSysmon: {
		"2006-01-02 15:04:05.000",
		"2006-01-02 15:04:05",
		time.RFC3339Nano,
		"01/02/2006 15:04:05",
	},
	SourceWindowsEvent: {
		time.RFC3339Nano,
		"2006-01-02T15:04:05.9999999",
		"2006-01-02 15:04:05",
	},
	SourceWeb: {
		"02/Jan/2006:15:04:05 -0700",
		"02/Jan/2006:15:04:05",
	},
	SourceSyslog: {
		time.Stamp,
		time.RFC3339Nano,
	},
}

// fallbackLayouts are tried for every source after its own layouts
var fallbackLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
}

// ParseTimestamp parses a source timestamp into an instant. It returns false
// when no known layout matches; callers must then fall back to comparing the
// raw strings. Syslog timestamps carry no year and parse into year 0.
func ParseTimestamp(source SourceKind, value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" || value == "N/A" {
		return time.Time{}, false
	}
	for _, layout := range sourceLayouts[source] {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), true
		}
	}
	for _, layout := range fallbackLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// Stamp pairs a verbatim timestamp with its parsed instant
type Stamp struct {
	Raw     string
	Instant time.Time
}

// Compare orders two stamps. Parsed instants are compared when both stamps
// have one; otherwise the raw strings are compared lexicographically. It
// returns -1, 0 or 1.
func (s Stamp) Compare(other Stamp) int {
	if !s.Instant.IsZero() && !other.Instant.IsZero() {
		return s.Instant.Compare(other.Instant)
	}
	return strings.Compare(s.Raw, other.Raw)
}
