// Package telemetry provides colony health tracking, bookmarking, traces, and snapshots.
package telemetry

import (
	"log/slog"

	"github.com/pthm-cable/forage/components"
	"github.com/pthm-cable/forage/systems"
)

// EventType identifies telemetry events.
type EventType uint8

const (
	EventTransition EventType = iota
	EventExtract
	EventDeliver
	EventStale
	EventRetry
)

var eventNames = [...]string{
	EventTransition: "transition",
	EventExtract:    "extract",
	EventDeliver:    "deliver",
	EventStale:      "stale",
	EventRetry:      "retry",
}

func (t EventType) String() string {
	if int(t) < len(eventNames) {
		return eventNames[t]
	}
	return "unknown"
}

// Event represents a single per-bee telemetry event.
type Event struct {
	Type  EventType
	Frame int32
	BeeID uint32

	From components.State
	To   components.State

	// Optional fields depending on event type
	Source components.SourceID
	Amount float64 // nectar extracted or delivered
}

// EventsFor expands one transition outcome into its events.
// source is the handle the bee held before the transition.
func EventsFor(frame int32, beeID uint32, source components.SourceID, out systems.Outcome) []Event {
	base := Event{Frame: frame, BeeID: beeID, From: out.From, To: out.To, Source: source}

	var events []Event
	add := func(typ EventType, amount float64) {
		e := base
		e.Type = typ
		e.Amount = amount
		events = append(events, e)
	}

	if out.Retry {
		add(EventRetry, 0)
	}
	if out.Stale {
		add(EventStale, 0)
	}
	if out.Extracted > 0 {
		add(EventExtract, out.Extracted)
	}
	if out.Delivered > 0 {
		add(EventDeliver, out.Delivered)
	}
	if out.Changed() {
		add(EventTransition, 0)
	}
	return events
}

// LogValue implements slog.LogValuer for structured logging.
func (e Event) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("type", e.Type.String()),
		slog.Int("frame", int(e.Frame)),
		slog.Int("bee", int(e.BeeID)),
		slog.String("from", e.From.String()),
		slog.String("to", e.To.String()),
	}
	if e.Source != components.NoSource {
		attrs = append(attrs, slog.Uint64("source", uint64(e.Source)))
	}
	if e.Amount > 0 {
		attrs = append(attrs, slog.Float64("amount", e.Amount))
	}
	return slog.GroupValue(attrs...)
}
