package ingest

import (
	"strings"
	"testing"

	"github.com/JGorski-cyber/event-sentinel/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const windowsXML = `<?xml version="1.0" encoding="UTF-8"?>
<Events>
  <Event xmlns="http://schemas.microsoft.com/win/2004/08/events/event">
    <System>
      <Provider Name="Microsoft-Windows-Security-Auditing"/>
      <EventID>4625</EventID>
      <TimeCreated SystemTime="2024-03-01T10:00:00.1234567Z"/>
    </System>
    <EventData>
      <Data Name="TargetUserName">bob</Data>
      <Data Name="LogonType">3</Data>
      <Data Name="IpAddress">203.0.113.7</Data>
      <Data Name="Description">An account failed to log on. Invalid login</Data>
    </EventData>
  </Event>
  <Event>
    <System>
      <EventID>4688</EventID>
      <TimeCreated SystemTime="2024-03-01T10:00:05Z"/>
    </System>
    <EventData>
      <Data Name="NewProcessName">C:\Temp\dropper.exe</Data>
      <Data Name="ProcessId">0x1a2b</Data>
      <Data Name="CommandLine">dropper.exe /silent</Data>
      <Data>unnamed value</Data>
    </EventData>
  </Event>
</Events>
`

func TestWindowsEventParser_Parse(t *testing.T) {
	p := NewWindowsEventParser(Options{})

	events, err := p.Parse(strings.NewReader(windowsXML))
	require.NoError(t, err)
	require.Len(t, events, 2)

	logon := events[0]
	assert.Equal(t, core.SourceWindowsEvent, logon.Source)
	assert.Equal(t, "2024-03-01T10:00:00.1234567Z", logon.Timestamp)
	assert.False(t, logon.Instant.IsZero())
	assert.Equal(t, "4625", logon.EventID())
	assert.Equal(t, "bob", logon.Get(core.FieldUser))
	assert.Equal(t, "3", logon.Get(core.FieldLogonType))
	assert.Equal(t, "203.0.113.7", logon.SourceIP())
	assert.Equal(t, "An account failed to log on. Invalid login", logon.Raw["Description"])
	assert.NotContains(t, logon.Normalized.Map(), "timestamp")

	process := events[1]
	assert.Equal(t, "4688", process.EventID())
	assert.Equal(t, `C:\Temp\dropper.exe`, process.Process())
	assert.Equal(t, "0x1a2b", process.Get(core.FieldProcessID))
	assert.Equal(t, "dropper.exe /silent", process.Command())
	assert.Equal(t, "unnamed value", process.Raw["Data1"])
}

func TestWindowsEventParser_NestedAndMissingSystem(t *testing.T) {
	input := `<Root><Channel><Batch><Event><EventData><Data Name="Ip">10.0.0.9</Data></EventData></Event></Batch></Channel></Root>`

	events, err := NewWindowsEventParser(Options{}).Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, core.MissingTimestamp, events[0].Timestamp)
	assert.Equal(t, core.UnknownEventID, events[0].EventID())
	assert.Equal(t, "10.0.0.9", events[0].SourceIP())
}

func TestWindowsEventParser_SingleEventRoot(t *testing.T) {
	input := `<Event><System><EventID>1102</EventID></System></Event>`

	events, err := NewWindowsEventParser(Options{}).Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "1102", events[0].EventID())
}

func TestWindowsEventParser_InvalidXMLAbortsFile(t *testing.T) {
	input := `<Events><Event><System><EventID>1</EventID></System></Event><Event><System></Event></Events>`

	events, err := NewWindowsEventParser(Options{}).Parse(strings.NewReader(input))
	require.Error(t, err)
	assert.Nil(t, events)
	assert.Contains(t, err.Error(), "invalid event XML")
}
