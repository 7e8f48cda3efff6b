package core

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// MissingTimestamp is recorded when a record carries no timestamp
const MissingTimestamp = "N/A"

// FieldRule maps the raw names that may carry a value to one normalized field
type FieldRule struct {
	Field Field
	Names []string
}

// FieldMappings holds the raw-to-normalized rules of every source
type FieldMappings struct {
	rules map[SourceKind][]FieldRule
}

// DefaultFieldMappings returns the built-in mappings
func DefaultFieldMappings() *FieldMappings {
	m := &FieldMappings{rules: make(map[SourceKind][]FieldRule, len(defaultFieldRules))}
	for source, rules := range defaultFieldRules {
		m.rules[source] = cloneRules(rules)
	}
	return m
}

func cloneRules(rules []FieldRule) []FieldRule {
	out := make([]FieldRule, len(rules))
	for i, r := range rules {
		out[i] = FieldRule{Field: r.Field, Names: append([]string(nil), r.Names...)}
	}
	return out
}

// LoadFieldMappings reads YAML overrides on top of the defaults. The document
// maps a source kind to normalized field names, each with the raw names to
// read, e.g.
//
//	windows_event:
//	  src_ip: [IpAddress, Ip, SourceAddress]
//
// An override replaces the raw names of an existing field or adds the field.
func LoadFieldMappings(path string) (*FieldMappings, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read field mappings file: %w", err)
	}

	var doc map[string]map[string][]string
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse field mappings YAML: %w", err)
	}

	m := DefaultFieldMappings()
	for sourceName, fields := range doc {
		source := SourceKind(sourceName)
		if !source.IsValid() {
			return nil, fmt.Errorf("field mappings: unknown source %q", sourceName)
		}
		for fieldName, names := range fields {
			field, ok := ParseField(fieldName)
			if !ok {
				return nil, fmt.Errorf("field mappings: unknown normalized field %q for source %s", fieldName, sourceName)
			}
			m.Override(source, field, names...)
		}
	}
	return m, nil
}

// Override sets the raw names read for one field of a source
func (m *FieldMappings) Override(source SourceKind, field Field, names ...string) {
	rules := m.rules[source]
	for i := range rules {
		if rules[i].Field == field {
			rules[i].Names = append([]string(nil), names...)
			return
		}
	}
	m.rules[source] = append(rules, FieldRule{Field: field, Names: append([]string(nil), names...)})
}

// Rules returns the rules of a source
func (m *FieldMappings) Rules(source SourceKind) []FieldRule {
	return m.rules[source]
}

// Normalize fills event.Normalized from event.Raw using the rules of the
// event's source. Raw names match case-insensitively.
func (m *FieldMappings) Normalize(event *Event) {
	rules := m.rules[event.Source]
	if len(rules) == 0 {
		return
	}

	folded := make(map[string]string, len(event.Raw))
	for k, v := range event.Raw {
		folded[strings.ToLower(k)] = v
	}

	for _, rule := range rules {
		event.Set(rule.Field, firstValue(folded, rule.Names))
	}
}

// RecordTimestamp returns the timestamp carried by a named-field record, or
// MissingTimestamp
func RecordTimestamp(source SourceKind, raw map[string]string) string {
	names := timestampNames[source]
	if len(names) == 0 {
		return MissingTimestamp
	}
	folded := make(map[string]string, len(raw))
	for k, v := range raw {
		folded[strings.ToLower(k)] = v
	}
	if ts := firstValue(folded, names); ts != "" {
		return ts
	}
	return MissingTimestamp
}

func firstValue(folded map[string]string, names []string) string {
	for _, name := range names {
		if v := folded[strings.ToLower(name)]; v != "" {
			return v
		}
	}
	return ""
}
