package main

import "fmt"

// PulseBackend receives a schedule replay. OnStart fires once before any
// event, OnEvent once per event in sorted schedule order, and OnFinish once
// at the end; OnFinish's return value is handed back to the replay caller
// as the backend's summary.
type PulseBackend interface {
	OnStart(schedule *PulseSchedule)
	OnEvent(event PulseEvent)
	OnFinish(schedule *PulseSchedule) map[string]any
}

// Replay drives a schedule through a backend and returns the backend's
// summary. Events arrive in the schedule's canonical order.
func Replay(schedule *PulseSchedule, backend PulseBackend) map[string]any {
	backend.OnStart(schedule)
	for _, evt := range schedule.Events {
		backend.OnEvent(evt)
	}
	return backend.OnFinish(schedule)
}

// LoggingBackend records one formatted line per callback. It is the
// reference backend: useful for tests and for the --replay CLI mode.
type LoggingBackend struct {
	Lines []string
	count int
}

func (b *LoggingBackend) OnStart(schedule *PulseSchedule) {
	b.count = 0
	b.Lines = append(b.Lines, fmt.Sprintf("start: %d events", len(schedule.Events)))
}

func (b *LoggingBackend) OnEvent(event PulseEvent) {
	b.count++
	tgt := "-"
	if event.Target >= 0 {
		tgt = fmt.Sprintf("%d", event.Target)
	}
	b.Lines = append(b.Lines, fmt.Sprintf("event %d: t=%.1fns %s %s[%s] dur=%.1fns",
		b.count, event.Start, event.Kind, event.Register, tgt, event.Duration))
}

func (b *LoggingBackend) OnFinish(schedule *PulseSchedule) map[string]any {
	b.Lines = append(b.Lines, fmt.Sprintf("finish: total %.1f ns", schedule.TotalDuration()))
	return map[string]any{
		"event_count": b.count,
		"duration_ns": schedule.TotalDuration(),
	}
}
