package ingest

import (
	"io"
	"net/netip"
	"regexp"
	"strconv"
	"strings"

	"github.com/JGorski-cyber/event-sentinel/core"
)

var (
	// RFC3164 syslog: <pri>timestamp hostname message
	syslogPattern = regexp.MustCompile(`^<(\d+)>(\w{3}\s+\d+\s+\d+:\d+:\d+)\s+(\S+)\s+(.+)$`)
	// tag[pid]: message
	syslogTagPattern = regexp.MustCompile(`^([^\s:\[\]]+)(?:\[(\d+)\])?:\s*(.*)$`)
	// first "from <ipv4>" in a message, as written by sshd and friends
	fromAddressPattern = regexp.MustCompile(`\bfrom\s+(\d{1,3}(?:\.\d{1,3}){3})\b`)
)

var syslogSeverities = []string{"emerg", "alert", "crit", "err", "warning", "notice", "info", "debug"}

// SyslogParser reads RFC3164 syslog files. Lines without the standard header
// are kept through a whitespace split; blank lines are skipped.
type SyslogParser struct {
	base
}

// NewSyslogParser creates a SyslogParser
func NewSyslogParser(opts Options) *SyslogParser {
	opts = opts.withDefaults()
	return &SyslogParser{base: newBase(core.SourceSyslog, "syslog", opts)}
}

func (p *SyslogParser) Parse(r io.Reader) ([]*core.Event, error) {
	events := []*core.Event{}
	err := scanLines(r, func(_ int, line string) {
		if strings.TrimSpace(line) == "" {
			return
		}
		events = append(events, p.parseLine(line))
	}, func(lineNo int) {
		p.skipRecord(lineNo, errLineTooLong)
	})
	if err != nil {
		return nil, err
	}

	p.logger.Debugf("Parsed %d syslog events", len(events))
	return events, nil
}

func (p *SyslogParser) parseLine(line string) *core.Event {
	raw := map[string]string{}
	timestamp := core.MissingTimestamp
	var hostname, message string

	if m := syslogPattern.FindStringSubmatch(line); m != nil {
		raw["priority"] = m[1]
		if pri, err := strconv.Atoi(m[1]); err == nil {
			raw["facility"] = strconv.Itoa(pri / 8)
			raw["severity"] = severityName(pri % 8)
		}
		timestamp = m[2]
		hostname = m[3]
		message = m[4]
	} else {
		// fallback to simple parsing if the header does not match
		parts := strings.Fields(line)
		if len(parts) >= 4 && strings.HasPrefix(parts[0], "<") && strings.HasSuffix(parts[0], ">") {
			timestamp = parts[1] + " " + parts[2]
			hostname = parts[3]
			message = strings.Join(parts[4:], " ")
		} else {
			message = strings.TrimSpace(line)
		}
	}

	raw["timestamp"] = timestamp
	raw["hostname"] = hostname
	raw["message"] = clampField(message)

	event := core.NewEvent(p.kind, timestamp)
	event.Raw = raw
	if hostname != "" {
		event.Set(core.FieldHostname, hostname)
	}

	if m := syslogTagPattern.FindStringSubmatch(message); m != nil {
		raw["tag"] = m[1]
		event.Set(core.FieldProcessName, m[1])
		if m[2] != "" {
			raw["pid"] = m[2]
			event.Set(core.FieldProcessID, m[2])
		}
		message = m[3]
	}
	event.Set(core.FieldMessage, clampField(message))

	if ip := fromAddress(message); ip != "" {
		event.Set(core.FieldSrcIP, ip)
	}
	return event
}

func severityName(code int) string {
	if code >= 0 && code < len(syslogSeverities) {
		return syslogSeverities[code]
	}
	return "info"
}

// fromAddress returns the first valid IPv4 address following "from"
func fromAddress(message string) string {
	for _, m := range fromAddressPattern.FindAllStringSubmatch(message, -1) {
		if addr, err := netip.ParseAddr(m[1]); err == nil && addr.Is4() {
			return addr.String()
		}
	}
	return ""
}
