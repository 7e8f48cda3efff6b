package ingest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/JGorski-cyber/event-sentinel/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDetect(t *testing.T) {
	tests := []struct {
		line string
		want string
		ok   bool
	}{
		{"Microsoft-Windows-Sysmon/Operational export", TypeSysmon, true},
		{"UtcTime,EventID,Image,CommandLine", TypeSysmon, true},
		{`"EventID","Image","User"`, TypeSysmon, true},
		{"<Events><Event xmlns='http://schemas.microsoft.com/win/2004/08/events/event'>", TypeWindows, true},
		{"EventLog export", TypeWindows, true},
		{"<34>Oct 11 22:14:15 host su: failed", TypeSyslog, true},
		{`1.2.3.4 - - [10/Oct/2000:13:55:36 -0700] "GET / HTTP/1.1" 200 1`, TypeWeb, true},
		{`1.2.3.4 - - [x] "post /login" 200 1`, TypeWeb, true},
		{"EventID,Computer", "", false},
		{"just some text", "", false},
		{"   ", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, ok := Detect(tt.line)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDetect_Order(t *testing.T) {
	// sysmon wins over every later check
	got, _ := Detect(`GET /sysmon HTTP/1.1 <event>`)
	assert.Equal(t, TypeSysmon, got)

	// syslog priority wins over http content
	got, _ = Detect("<13>Oct 11 22:14:15 proxy squid: GET http://example.com")
	assert.Equal(t, TypeSyslog, got)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry(Options{})

	assert.Equal(t, []string{TypeSyslog, TypeSysmon, TypeWeb, TypeWindows}, r.Names())

	kinds := map[string]core.SourceKind{
		TypeSysmon:  core.SourceSysmon,
		TypeWindows: core.SourceWindowsEvent,
		TypeWeb:     core.SourceWeb,
		TypeSyslog:  core.SourceSyslog,
	}
	for name, kind := range kinds {
		p, err := r.Get(name)
		require.NoError(t, err)
		assert.Equal(t, kind, p.Kind())
	}

	_, err := r.Get("netflow")
	assert.ErrorIs(t, err, ErrUnknownSourceKind)
}

func TestRegistry_ForFile(t *testing.T) {
	dir := t.TempDir()
	r := NewRegistry(Options{})

	xmlPath := writeFile(t, dir, "security.xml", "<?xml version=\"1.0\"?>\n\n<Events><Event></Event></Events>\n")
	p, err := r.ForFile(xmlPath, TypeAuto)
	require.NoError(t, err)
	assert.Equal(t, core.SourceWindowsEvent, p.Kind())

	unknown := writeFile(t, dir, "notes.txt", "shopping list\n")
	_, err = r.ForFile(unknown, TypeAuto)
	assert.ErrorIs(t, err, ErrUnknownSourceKind)

	p, err = r.ForFile(unknown, TypeWeb)
	require.NoError(t, err)
	assert.Equal(t, core.SourceWeb, p.Kind())

	empty := writeFile(t, dir, "empty.log", "")
	_, err = r.ForFile(empty, TypeAuto)
	assert.ErrorIs(t, err, ErrEmptyInput)

	_, err = r.ForFile(filepath.Join(dir, "missing.log"), TypeAuto)
	assert.Error(t, err)
}

func TestFirstLine(t *testing.T) {
	dir := t.TempDir()

	line, err := FirstLine(writeFile(t, dir, "bom.csv", "\ufeff\n  \nUtcTime,EventID\n1,2\n"))
	require.NoError(t, err)
	assert.Equal(t, "UtcTime,EventID", line)

	line, err = FirstLine(writeFile(t, dir, "blank.log", "\n\n"))
	require.NoError(t, err)
	assert.Empty(t, line)
}

func TestRegistry_ForFile_SingleLineXML(t *testing.T) {
	event := `<Event><System><EventID>4625</EventID><TimeCreated SystemTime="2024-03-01T10:00:00Z"/></System>` +
		`<EventData><Data Name="TargetUserName">bob</Data><Data Name="IpAddress">203.0.113.7</Data></EventData></Event>`
	content := "<Events>" + strings.Repeat(event, 600) + "</Events>"
	require.Greater(t, len(content), sniffLimit)
	path := writeFile(t, t.TempDir(), "security.xml", content)

	line, err := FirstLine(path)
	require.NoError(t, err)
	assert.Len(t, line, sniffLimit)
	assert.True(t, strings.HasPrefix(line, "<Events><Event>"))

	p, err := NewRegistry(Options{}).ForFile(path, TypeAuto)
	require.NoError(t, err)
	assert.Equal(t, core.SourceWindowsEvent, p.Kind())

	events, err := ParseFile(p, path)
	require.NoError(t, err)
	assert.Len(t, events, 600)
}

func TestFirstLine_SkipsLongBlankLine(t *testing.T) {
	content := strings.Repeat(" ", sniffLimit+100) + "\nUtcTime,EventID\n"
	line, err := FirstLine(writeFile(t, t.TempDir(), "padded.csv", content))
	require.NoError(t, err)
	assert.Equal(t, "UtcTime,EventID", line)
}

func TestResolveInputs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.log", "x")
	writeFile(t, dir, "a.log", "x")
	writeFile(t, dir, "events.xml", "x")
	writeFile(t, dir, "sysmon.csv", "x")
	writeFile(t, dir, "image.png", "x")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.log"), 0755))
	writeFile(t, filepath.Join(dir, "nested.log"), "deep.log", "x")

	explicit := writeFile(t, t.TempDir(), "explicit.txt", "x")

	inputs, err := ResolveInputs([]string{explicit, filepath.Join(dir, "a.log")}, dir, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{
		explicit,
		filepath.Join(dir, "a.log"),
		filepath.Join(dir, "b.log"),
		filepath.Join(dir, "sysmon.csv"),
		filepath.Join(dir, "events.xml"),
	}, inputs)
}

func TestResolveInputs_Errors(t *testing.T) {
	inputs, err := ResolveInputs(nil, "", nil)
	require.NoError(t, err)
	assert.Empty(t, inputs)

	_, err = ResolveInputs(nil, filepath.Join(t.TempDir(), "missing"), nil)
	assert.Error(t, err)

	file := writeFile(t, t.TempDir(), "file.log", "x")
	_, err = ResolveInputs(nil, file, nil)
	assert.ErrorContains(t, err, "not a directory")
}
