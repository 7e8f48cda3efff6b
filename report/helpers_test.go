package report

import (
	"github.com/JGorski-cyber/event-sentinel/aggregate"
	"github.com/JGorski-cyber/event-sentinel/core"
)

func webAttackEvent(ts string) *core.Event {
	e := core.NewEvent(core.SourceWeb, ts)
	e.Raw["ip"] = "8.8.8.8"
	e.Raw["request"] = "GET /../../etc/passwd HTTP/1.1"
	e.Set(core.FieldSrcIP, "8.8.8.8")
	e.Set(core.FieldURL, "/../../etc/passwd")
	e.Detections = []string{"rare_external_ip", "web_attack"}
	return e
}

func sysmonEvent(id, ts, process string) *core.Event {
	e := core.NewEvent(core.SourceSysmon, ts)
	e.Raw["EventID"] = id
	e.Raw["Image"] = process
	e.Set(core.FieldEventID, id)
	e.Set(core.FieldProcessName, process)
	return e
}

func fixtureAggregator() *aggregate.Aggregator {
	agg := aggregate.New()
	agg.AddEvents([]*core.Event{
		sysmonEvent("1", "2024-03-01 10:00:00.000", "evil.exe"),
		webAttackEvent("10/Oct/2000:13:55:36 -0700"),
		sysmonEvent("1", "2024-03-01 10:00:05.000", "cmd.exe"),
	})
	return agg
}
