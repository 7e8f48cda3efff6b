package core

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Field is a key of the cross-format normalized vocabulary
type Field int

const (
	FieldEventID Field = iota
	FieldProcessName
	FieldProcessPath
	FieldProcessID
	FieldCommandLine
	FieldParentProcess
	FieldParentCommandLine
	FieldUser
	FieldLogonType
	FieldSrcIP
	FieldDestIP
	FieldMethod
	FieldURL
	FieldProtocol
	FieldRequest
	FieldStatus
	FieldUserAgent
	FieldReferrer
	FieldMessage
	FieldDescription
	FieldHostname

	fieldCount
)

var fieldNames = [fieldCount]string{
	FieldEventID:           "event_id",
	FieldProcessName:       "process_name",
	FieldProcessPath:       "process_path",
	FieldProcessID:         "process_id",
	FieldCommandLine:       "command_line",
	FieldParentProcess:     "parent_process",
	FieldParentCommandLine: "parent_command_line",
	FieldUser:              "user",
	FieldLogonType:         "logon_type",
	FieldSrcIP:             "src_ip",
	FieldDestIP:            "dest_ip",
	FieldMethod:            "method",
	FieldURL:               "url",
	FieldProtocol:          "protocol",
	FieldRequest:           "request",
	FieldStatus:            "status",
	FieldUserAgent:         "user_agent",
	FieldReferrer:          "referrer",
	FieldMessage:           "message",
	FieldDescription:       "description",
	FieldHostname:          "hostname",
}

var fieldsByName = func() map[string]Field {
	m := make(map[string]Field, fieldCount)
	for i, name := range fieldNames {
		m[name] = Field(i)
	}
	return m
}()

// String returns the vocabulary name of the field
func (f Field) String() string {
	if !f.valid() {
		return fmt.Sprintf("Field(%d)", int(f))
	}
	return fieldNames[f]
}

func (f Field) valid() bool {
	return f >= 0 && f < fieldCount
}

// ParseField resolves a vocabulary name to its Field
func ParseField(name string) (Field, bool) {
	f, ok := fieldsByName[name]
	return f, ok
}

// AllFields returns every vocabulary field in declaration order
func AllFields() []Field {
	fields := make([]Field, 0, fieldCount)
	for f := Field(0); f < fieldCount; f++ {
		fields = append(fields, f)
	}
	return fields
}

// Normalized holds the optional string values of an event's normalized fields.
// The zero value is an empty set. Normalized is a plain value, so assigning it
// copies every field.
type Normalized struct {
	values  [fieldCount]string
	present [fieldCount]bool
}

// Set stores a value and marks the field present, including for empty values
func (n *Normalized) Set(f Field, value string) {
	if !f.valid() {
		return
	}
	n.values[f] = value
	n.present[f] = true
}

// Unset removes a field
func (n *Normalized) Unset(f Field) {
	if !f.valid() {
		return
	}
	n.values[f] = ""
	n.present[f] = false
}

// Get returns the field value, or "" when the field is absent
func (n Normalized) Get(f Field) string {
	if !f.valid() {
		return ""
	}
	return n.values[f]
}

// Lookup returns the field value and whether the field is present
func (n Normalized) Lookup(f Field) (string, bool) {
	if !f.valid() {
		return "", false
	}
	return n.values[f], n.present[f]
}

// Has reports whether the field is present
func (n Normalized) Has(f Field) bool {
	return f.valid() && n.present[f]
}

// Keys returns the present fields in declaration order
func (n Normalized) Keys() []Field {
	var keys []Field
	for f := Field(0); f < fieldCount; f++ {
		if n.present[f] {
			keys = append(keys, f)
		}
	}
	return keys
}

// Len returns the number of present fields
func (n Normalized) Len() int {
	count := 0
	for _, p := range n.present {
		if p {
			count++
		}
	}
	return count
}

// Map returns the present fields keyed by vocabulary name
func (n Normalized) Map() map[string]string {
	m := make(map[string]string, n.Len())
	for _, f := range n.Keys() {
		m[f.String()] = n.values[f]
	}
	return m
}

// MarshalJSON encodes the present fields as a JSON object of strings
func (n Normalized) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(n.Map()); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// UnmarshalJSON decodes a JSON object of strings, rejecting names outside the vocabulary
func (n *Normalized) UnmarshalJSON(data []byte) error {
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*n = Normalized{}
	for name, value := range m {
		f, ok := ParseField(name)
		if !ok {
			return fmt.Errorf("unknown normalized field %q", name)
		}
		n.Set(f, value)
	}
	return nil
}
