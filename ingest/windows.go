package ingest

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/JGorski-cyber/event-sentinel/core"
)

// WindowsEventParser reads Event Viewer XML exports. Event elements are found
// at any depth and matched by local name, so namespaced exports work. A
// document that is not well-formed XML fails as a whole.
type WindowsEventParser struct {
	base
	mappings *core.FieldMappings
}

// NewWindowsEventParser creates a WindowsEventParser
func NewWindowsEventParser(opts Options) *WindowsEventParser {
	opts = opts.withDefaults()
	return &WindowsEventParser{
		base:     newBase(core.SourceWindowsEvent, "windows", opts),
		mappings: opts.Mappings,
	}
}

// xmlEvent accumulates one <Event> while streaming
type xmlEvent struct {
	depth     int
	path      []string
	eventID   string
	timestamp string
	raw       map[string]string
	unnamed   int

	dataName string
	text     strings.Builder
}

func (p *WindowsEventParser) Parse(r io.Reader) ([]*core.Event, error) {
	decoder := xml.NewDecoder(r)
	events := []*core.Event{}

	var current *xmlEvent
	depth := 0

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("invalid event XML: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			if current == nil {
				if t.Name.Local == "Event" {
					current = &xmlEvent{depth: depth, raw: make(map[string]string), timestamp: core.MissingTimestamp}
				}
				continue
			}
			current.path = append(current.path, t.Name.Local)
			current.start(t)

		case xml.EndElement:
			if current != nil {
				if depth == current.depth {
					events = append(events, p.buildEvent(current))
					current = nil
				} else {
					current.end()
				}
			}
			depth--

		case xml.CharData:
			if current != nil {
				current.text.Write(t)
			}
		}
	}

	p.logger.Debugf("Parsed %d windows events", len(events))
	return events, nil
}

func (e *xmlEvent) at(path ...string) bool {
	if len(e.path) != len(path) {
		return false
	}
	for i := range path {
		if e.path[i] != path[i] {
			return false
		}
	}
	return true
}

func (e *xmlEvent) start(t xml.StartElement) {
	e.text.Reset()
	switch {
	case e.at("System", "TimeCreated"):
		if ts := attr(t, "SystemTime"); ts != "" {
			e.timestamp = ts
		}
	case e.at("EventData", "Data"):
		e.dataName = attr(t, "Name")
		if e.dataName == "" {
			e.unnamed++
			e.dataName = "Data" + strconv.Itoa(e.unnamed)
		}
	}
}

func (e *xmlEvent) end() {
	switch {
	case e.at("System", "EventID"):
		e.eventID = strings.TrimSpace(e.text.String())
	case e.at("EventData", "Data"):
		e.raw[e.dataName] = clampField(e.text.String())
	}
	e.text.Reset()
	e.path = e.path[:len(e.path)-1]
}

func (p *WindowsEventParser) buildEvent(x *xmlEvent) *core.Event {
	event := core.NewEvent(p.kind, x.timestamp)
	event.Raw = x.raw
	event.Set(core.FieldEventID, x.eventID)
	p.mappings.Normalize(event)
	return event
}

func attr(t xml.StartElement, local string) string {
	for _, a := range t.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}
