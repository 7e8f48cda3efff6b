package core

// SourceKind identifies the log format family an event was produced from
type SourceKind string

const (
	// SourceSysmon marks events parsed from Sysmon CSV exports
	SourceSysmon SourceKind = "sysmon"
	// SourceWindowsEvent marks events parsed from Windows Event Viewer XML exports
	SourceWindowsEvent SourceKind = "windows_event"
	// SourceWeb marks events parsed from Apache/Nginx access logs
	SourceWeb SourceKind = "web"
	// SourceSyslog marks events parsed from RFC3164 syslog lines
	SourceSyslog SourceKind = "syslog"
)

// String returns the string representation
func (s SourceKind) String() string {
	return string(s)
}

// IsValid checks if the source kind is one of the known kinds
func (s SourceKind) IsValid() bool {
	switch s {
	case SourceSysmon, SourceWindowsEvent, SourceWeb, SourceSyslog:
		return true
	default:
		return false
	}
}

// UnknownEventID is the group identifier used when an event carries no event_id
const UnknownEventID = "unknown"
