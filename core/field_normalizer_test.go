package core

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldMappings_NormalizeSysmon(t *testing.T) {
	e := NewEvent(SourceSysmon, "2024-03-01 10:00:00.000")
	e.Raw = map[string]string{
		"EventID":     "1",
		"Image":       `C:\Windows\System32\cmd.exe`,
		"CommandLine": "cmd.exe /c whoami",
		"ParentImage": `C:\Windows\explorer.exe`,
	}

	DefaultFieldMappings().Normalize(e)

	assert.Equal(t, "1", e.EventID())
	assert.Equal(t, `C:\Windows\System32\cmd.exe`, e.Process())
	assert.Equal(t, `C:\Windows\System32\cmd.exe`, e.Get(FieldProcessPath))
	assert.Equal(t, "cmd.exe /c whoami", e.Command())
	assert.Equal(t, `C:\Windows\explorer.exe`, e.Parent())

	user, ok := e.Normalized.Lookup(FieldUser)
	assert.True(t, ok, "mapped fields are present even without a raw value")
	assert.Empty(t, user)
	assert.False(t, e.Normalized.Has(FieldMessage))
}

func TestFieldMappings_AliasPriority(t *testing.T) {
	e := NewEvent(SourceWindowsEvent, "")
	e.Raw = map[string]string{"Ip": "10.0.0.2", "ipaddress": "8.8.8.8", "ProcessName": "a.exe"}

	DefaultFieldMappings().Normalize(e)

	assert.Equal(t, "8.8.8.8", e.SourceIP(), "names match case-insensitively and the first listed wins")
	assert.Equal(t, "a.exe", e.Process())
}

func TestFieldMappings_UnmappedSource(t *testing.T) {
	e := NewEvent(SourceWeb, "")
	e.Raw = map[string]string{"ip": "8.8.8.8"}

	DefaultFieldMappings().Normalize(e)

	assert.Equal(t, 0, e.Normalized.Len())
}

func TestDefaultFieldMappings_Independent(t *testing.T) {
	m := DefaultFieldMappings()
	m.Override(SourceSysmon, FieldProcessName, "OriginalFileName")

	fresh := DefaultFieldMappings()
	for _, r := range fresh.Rules(SourceSysmon) {
		if r.Field == FieldProcessName {
			assert.Equal(t, []string{"Image"}, r.Names)
		}
	}
}

func TestLoadFieldMappings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mappings.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
windows_event:
  src_ip: [SourceAddress, IpAddress]
  hostname: [WorkstationName]
`), 0644))

	m, err := LoadFieldMappings(path)
	require.NoError(t, err)

	e := NewEvent(SourceWindowsEvent, "")
	e.Raw = map[string]string{"SourceAddress": "1.2.3.4", "IpAddress": "8.8.8.8", "WorkstationName": "WS01"}
	m.Normalize(e)

	assert.Equal(t, "1.2.3.4", e.SourceIP())
	assert.Equal(t, "WS01", e.Get(FieldHostname))
}

func TestLoadFieldMappings_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadFieldMappings(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	badSource := filepath.Join(dir, "source.yaml")
	require.NoError(t, os.WriteFile(badSource, []byte("netflow:\n  src_ip: [src]\n"), 0644))
	_, err = LoadFieldMappings(badSource)
	assert.ErrorContains(t, err, "unknown source")

	badField := filepath.Join(dir, "field.yaml")
	require.NoError(t, os.WriteFile(badField, []byte("sysmon:\n  hash: [Hashes]\n"), 0644))
	_, err = LoadFieldMappings(badField)
	assert.ErrorContains(t, err, "unknown normalized field")

	badYAML := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(badYAML, []byte("sysmon: [\n"), 0644))
	_, err = LoadFieldMappings(badYAML)
	assert.ErrorContains(t, err, "failed to parse")
}

func TestRecordTimestamp(t *testing.T) {
	assert.Equal(t, "2024-03-01 10:00:00.000", RecordTimestamp(SourceSysmon, map[string]string{"UtcTime": "2024-03-01 10:00:00.000"}))
	assert.Equal(t, "t2", RecordTimestamp(SourceSysmon, map[string]string{"UtcTime": "", "EventTime": "t2"}))
	assert.Equal(t, MissingTimestamp, RecordTimestamp(SourceSysmon, map[string]string{}))
	assert.Equal(t, MissingTimestamp, RecordTimestamp(SourceWeb, map[string]string{"UtcTime": "x"}))
}
