package report

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/JGorski-cyber/event-sentinel/aggregate"
	"github.com/JGorski-cyber/event-sentinel/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteJSON_Layout(t *testing.T) {
	agg := aggregate.New()
	e := core.NewEvent(core.SourceWeb, "10/Oct/2000:13:55:36 -0700")
	e.Raw["ip"] = "8.8.8.8"
	e.Set(core.FieldSrcIP, "8.8.8.8")
	e.Detections = []string{"rare_external_ip"}
	agg.AddEvents([]*core.Event{e})

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, agg))

	expected := `{
    "web:unknown": {
        "count": 1,
        "first_seen": "10/Oct/2000:13:55:36 -0700",
        "last_seen": "10/Oct/2000:13:55:36 -0700",
        "samples": [
            {
                "timestamp": "10/Oct/2000:13:55:36 -0700",
                "source": "web",
                "raw": {
                    "ip": "8.8.8.8"
                },
                "normalized": {
                    "src_ip": "8.8.8.8"
                },
                "detections": [
                    "rare_external_ip"
                ]
            }
        ]
    }
}
`
	assert.Equal(t, expected, buf.String())
}

func TestWriteJSON_GroupOrderAndContent(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, fixtureAggregator()))

	sysmonAt := bytes.Index(buf.Bytes(), []byte(`"sysmon:1"`))
	webAt := bytes.Index(buf.Bytes(), []byte(`"web:unknown"`))
	require.True(t, sysmonAt > 0 && webAt > 0)
	assert.Less(t, sysmonAt, webAt, "groups keep first-appearance order")

	var decoded map[string]entryJSON
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 2)

	sysmon := decoded["sysmon:1"]
	assert.Equal(t, 2, sysmon.Count)
	assert.Equal(t, "2024-03-01 10:00:00.000", sysmon.FirstSeen)
	assert.Equal(t, "2024-03-01 10:00:05.000", sysmon.LastSeen)
	require.Len(t, sysmon.Samples, 2)
	assert.Equal(t, "evil.exe", sysmon.Samples[0].Process())

	web := decoded["web:unknown"]
	require.Len(t, web.Samples, 1)
	assert.Equal(t, []string{"rare_external_ip", "web_attack"}, web.Samples[0].Detections)
}

func TestWriteJSON_KeepsMarkupReadable(t *testing.T) {
	agg := aggregate.New()
	e := core.NewEvent(core.SourceWeb, "")
	e.Set(core.FieldRequest, "GET /?q=<script>&x=1 HTTP/1.1")
	agg.AddEvents([]*core.Event{e})

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, agg))
	assert.Contains(t, buf.String(), "<script>&x=1")
}

func TestWriteJSON_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, aggregate.New()))
	assert.Equal(t, "{}\n", buf.String())
}
