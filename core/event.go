package core

import (
	"bytes"
	"encoding/json"
	"time"
)

// Event is one normalized observation derived from a single raw log record
type Event struct {
	// Timestamp is the source timestamp, kept verbatim for display and export
	Timestamp string
	// Instant is Timestamp parsed with the source's layouts; zero when unparseable
	Instant time.Time
	// Source identifies the parser that produced the event
	Source SourceKind
	// Raw holds the source-native fields as read from the record
	Raw map[string]string
	// Normalized holds values from the shared field vocabulary
	Normalized Normalized
	// Detections holds the tags attached by the detection engine, in rule order
	Detections []string
}

// NewEvent creates an Event for the given source and parses its timestamp
func NewEvent(source SourceKind, timestamp string) *Event {
	instant, _ := ParseTimestamp(source, timestamp)
	return &Event{
		Timestamp:  timestamp,
		Instant:    instant,
		Source:     source,
		Raw:        make(map[string]string),
		Detections: []string{},
	}
}

// Get returns a normalized field value, or "" when absent
func (e *Event) Get(f Field) string {
	return e.Normalized.Get(f)
}

// Set stores a normalized field value
func (e *Event) Set(f Field, value string) {
	e.Normalized.Set(f, value)
}

func (e *Event) Message() string     { return e.Normalized.Get(FieldMessage) }
func (e *Event) Description() string { return e.Normalized.Get(FieldDescription) }
func (e *Event) Process() string     { return e.Normalized.Get(FieldProcessName) }
func (e *Event) Parent() string      { return e.Normalized.Get(FieldParentProcess) }
func (e *Event) Command() string     { return e.Normalized.Get(FieldCommandLine) }
func (e *Event) SourceIP() string    { return e.Normalized.Get(FieldSrcIP) }
func (e *Event) Request() string     { return e.Normalized.Get(FieldRequest) }
func (e *Event) URL() string         { return e.Normalized.Get(FieldURL) }

// EventID returns the normalized event identifier, or UnknownEventID when it
// is absent or empty
func (e *Event) EventID() string {
	if id := e.Normalized.Get(FieldEventID); id != "" {
		return id
	}
	return UnknownEventID
}

// Stamp returns the event timestamp paired with its parsed instant
func (e *Event) Stamp() Stamp {
	return Stamp{Raw: e.Timestamp, Instant: e.Instant}
}

// HasDetection reports whether the tag was attached to the event
func (e *Event) HasDetection(tag string) bool {
	for _, d := range e.Detections {
		if d == tag {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the event
func (e *Event) Clone() *Event {
	clone := *e
	clone.Raw = make(map[string]string, len(e.Raw))
	for k, v := range e.Raw {
		clone.Raw[k] = v
	}
	clone.Detections = append([]string{}, e.Detections...)
	return &clone
}

type eventJSON struct {
	Timestamp  string            `json:"timestamp"`
	Source     SourceKind        `json:"source"`
	Raw        map[string]string `json:"raw"`
	Normalized Normalized        `json:"normalized"`
	Detections []string          `json:"detections"`
}

// MarshalJSON encodes the event in the report sample shape
func (e Event) MarshalJSON() ([]byte, error) {
	out := eventJSON{
		Timestamp:  e.Timestamp,
		Source:     e.Source,
		Raw:        e.Raw,
		Normalized: e.Normalized,
		Detections: e.Detections,
	}
	if out.Raw == nil {
		out.Raw = map[string]string{}
	}
	if out.Detections == nil {
		out.Detections = []string{}
	}

	// raw values are log text; keep <, > and & readable
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(out); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// UnmarshalJSON decodes the report sample shape and re-parses the timestamp
func (e *Event) UnmarshalJSON(data []byte) error {
	var in eventJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	instant, _ := ParseTimestamp(in.Source, in.Timestamp)
	*e = Event{
		Timestamp:  in.Timestamp,
		Instant:    instant,
		Source:     in.Source,
		Raw:        in.Raw,
		Normalized: in.Normalized,
		Detections: in.Detections,
	}
	if e.Raw == nil {
		e.Raw = map[string]string{}
	}
	if e.Detections == nil {
		e.Detections = []string{}
	}
	return nil
}
