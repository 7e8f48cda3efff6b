package core

// defaultFieldRules are the built-in raw-to-normalized mappings for sources
// whose records carry named fields. For each field the first non-empty raw
// name in the list wins. Every listed field is set on the event, empty when
// no raw name carries a value.
var defaultFieldRules = map[SourceKind][]FieldRule{
	SourceSysmon: {
		{Field: FieldEventID, Names: []string{"EventID"}},
		{Field: FieldProcessName, Names: []string{"Image"}},
		{Field: FieldProcessPath, Names: []string{"Image"}},
		{Field: FieldCommandLine, Names: []string{"CommandLine"}},
		{Field: FieldParentProcess, Names: []string{"ParentImage"}},
		{Field: FieldParentCommandLine, Names: []string{"ParentCommandLine"}},
		{Field: FieldUser, Names: []string{"User"}},
		{Field: FieldSrcIP, Names: []string{"SourceIp"}},
		{Field: FieldDestIP, Names: []string{"DestinationIp"}},
	},
	SourceWindowsEvent: {
		{Field: FieldUser, Names: []string{"TargetUserName"}},
		{Field: FieldLogonType, Names: []string{"LogonType"}},
		{Field: FieldSrcIP, Names: []string{"IpAddress", "Ip"}},
		{Field: FieldProcessName, Names: []string{"NewProcessName", "ProcessName"}},
		{Field: FieldProcessID, Names: []string{"ProcessId"}},
		{Field: FieldCommandLine, Names: []string{"CommandLine"}},
	},
}

// timestampNames are the raw fields holding the record timestamp, by source
var timestampNames = map[SourceKind][]string{
	SourceSysmon: {"UtcTime", "EventTime"},
}
