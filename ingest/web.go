package ingest

import (
	"errors"
	"io"
	"regexp"
	"strings"

	"github.com/JGorski-cyber/event-sentinel/core"
)

// accessLogPattern matches Common Log Format lines with the optional Combined
// Log Format referrer and user agent
var accessLogPattern = regexp.MustCompile(
	`(?P<ip>\S+) ` +
		`(?P<ident>\S*) ` +
		`(?P<authuser>\S*) ` +
		`\[(?P<timestamp>.+?)\] ` +
		`"(?P<request>.*?)" ` +
		`(?P<status>\d{3}) ` +
		`(?P<size>\S+)` +
		`(?: "(?P<referrer>[^"]*)" "(?P<agent>[^"]*)")?`,
)

var errNoAccessLogMatch = errors.New("line is not in access log format")

// WebParser reads Apache/Nginx access logs. Lines that do not match the
// access log format are skipped.
type WebParser struct {
	base
}

// NewWebParser creates a WebParser
func NewWebParser(opts Options) *WebParser {
	opts = opts.withDefaults()
	return &WebParser{base: newBase(core.SourceWeb, "web", opts)}
}

func (p *WebParser) Parse(r io.Reader) ([]*core.Event, error) {
	events := []*core.Event{}
	err := scanLines(r, func(lineNo int, line string) {
		if strings.TrimSpace(line) == "" {
			return
		}
		event, ok := p.parseLine(line)
		if !ok {
			p.skipRecord(lineNo, errNoAccessLogMatch)
			return
		}
		events = append(events, event)
	}, func(lineNo int) {
		p.skipRecord(lineNo, errLineTooLong)
	})
	if err != nil {
		return nil, err
	}

	p.logger.Debugf("Parsed %d web events", len(events))
	return events, nil
}

func (p *WebParser) parseLine(line string) (*core.Event, bool) {
	loc := accessLogPattern.FindStringSubmatchIndex(line)
	if loc == nil {
		return nil, false
	}

	raw := make(map[string]string, 9)
	for i, name := range accessLogPattern.SubexpNames() {
		if name == "" || loc[2*i] < 0 {
			continue
		}
		raw[name] = clampField(line[loc[2*i]:loc[2*i+1]])
	}

	event := core.NewEvent(p.kind, raw["timestamp"])
	event.Raw = raw

	method, url, protocol := splitRequest(raw["request"])
	event.Set(core.FieldSrcIP, raw["ip"])
	event.Set(core.FieldMethod, method)
	event.Set(core.FieldURL, url)
	event.Set(core.FieldProtocol, protocol)
	event.Set(core.FieldStatus, raw["status"])
	event.Set(core.FieldUserAgent, raw["agent"])
	event.Set(core.FieldReferrer, raw["referrer"])

	return event, true
}

// splitRequest splits "METHOD URL PROTOCOL". Request lines with more than
// three parts are not split.
func splitRequest(request string) (method, url, protocol string) {
	parts := strings.Fields(request)
	switch len(parts) {
	case 3:
		return parts[0], parts[1], parts[2]
	case 2:
		return parts[0], parts[1], ""
	case 1:
		return parts[0], "", ""
	}
	return "", "", ""
}
