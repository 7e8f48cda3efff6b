// Package aggregate folds detected events into per-(source, event id) groups
// with occurrence counts, first/last seen timestamps and a bounded sample of
// event snapshots.
package aggregate

import (
	"github.com/JGorski-cyber/event-sentinel/core"
)

// MaxSamples caps the number of event snapshots kept per group
const MaxSamples = 3

// Key identifies a group
type Key struct {
	Source  core.SourceKind
	EventID string
}

// KeyOf returns the group key of an event
func KeyOf(event *core.Event) Key {
	return Key{Source: event.Source, EventID: event.EventID()}
}

// String returns "source:event_id", the form used in reports
func (k Key) String() string {
	return string(k.Source) + ":" + k.EventID
}

// Entry is the running summary of one group
type Entry struct {
	Count     int
	FirstSeen string
	LastSeen  string
	Samples   []*core.Event

	first core.Stamp
	last  core.Stamp
}

func newEntry(event *core.Event) *Entry {
	stamp := event.Stamp()
	return &Entry{
		FirstSeen: stamp.Raw,
		LastSeen:  stamp.Raw,
		Samples:   make([]*core.Event, 0, MaxSamples),
		first:     stamp,
		last:      stamp,
	}
}

func (e *Entry) observeFirst(stamp core.Stamp) {
	if stamp.Compare(e.first) < 0 {
		e.first = stamp
		e.FirstSeen = stamp.Raw
	}
}

func (e *Entry) observeLast(stamp core.Stamp) {
	if stamp.Compare(e.last) > 0 {
		e.last = stamp
		e.LastSeen = stamp.Raw
	}
}

func (e *Entry) add(event *core.Event) {
	e.Count++
	stamp := event.Stamp()
	e.observeFirst(stamp)
	e.observeLast(stamp)
	if len(e.Samples) < MaxSamples {
		e.Samples = append(e.Samples, event.Clone())
	}
}

// Group pairs a key with its entry
type Group struct {
	Key   Key
	Entry *Entry
}

// Aggregator accumulates groups across any number of AddEvents calls. It is
// not safe for concurrent use; combine independently built aggregators with
// Merge instead.
type Aggregator struct {
	entries map[Key]*Entry
	order   []Key
	events  []*core.Event
}

// New returns an empty Aggregator
func New() *Aggregator {
	return &Aggregator{
		entries: make(map[Key]*Entry),
	}
}

// AddEvents folds a batch into the running summary. Samples are snapshots
// taken when the event is folded in.
func (a *Aggregator) AddEvents(events []*core.Event) {
	for _, event := range events {
		if event == nil {
			continue
		}
		key := KeyOf(event)
		entry, ok := a.entries[key]
		if !ok {
			entry = newEntry(event)
			a.entries[key] = entry
			a.order = append(a.order, key)
		}
		entry.add(event)
		a.events = append(a.events, event)
	}
}

// Keys returns the group keys in order of first appearance
func (a *Aggregator) Keys() []Key {
	return append([]Key(nil), a.order...)
}

// Entry returns the entry of a group
func (a *Aggregator) Entry(key Key) (*Entry, bool) {
	entry, ok := a.entries[key]
	return entry, ok
}

// Summary returns every group in order of first appearance
func (a *Aggregator) Summary() []Group {
	groups := make([]Group, 0, len(a.order))
	for _, key := range a.order {
		groups = append(groups, Group{Key: key, Entry: a.entries[key]})
	}
	return groups
}

// Events returns every folded event in fold order
func (a *Aggregator) Events() []*core.Event {
	return a.events
}

// Len returns the number of groups
func (a *Aggregator) Len() int {
	return len(a.order)
}

// Merge folds the state of other into a. Counts are summed, the earliest and
// latest timestamps win, samples keep a's first and are topped up from other's
// up to MaxSamples, groups new to a are appended in other's order, and other's
// events follow a's.
func (a *Aggregator) Merge(other *Aggregator) {
	if other == nil {
		return
	}
	for _, key := range other.order {
		src := other.entries[key]
		dst, ok := a.entries[key]
		if !ok {
			dst = &Entry{
				FirstSeen: src.FirstSeen,
				LastSeen:  src.LastSeen,
				Samples:   make([]*core.Event, 0, MaxSamples),
				first:     src.first,
				last:      src.last,
			}
			a.entries[key] = dst
			a.order = append(a.order, key)
		} else {
			dst.observeFirst(src.first)
			dst.observeLast(src.last)
		}
		dst.Count += src.Count
		for _, sample := range src.Samples {
			if len(dst.Samples) >= MaxSamples {
				break
			}
			dst.Samples = append(dst.Samples, sample.Clone())
		}
	}
	a.events = append(a.events, other.events...)
}
