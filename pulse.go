package main

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var durationRegex = regexp.MustCompile(`^([-+]?\d*\.?\d+(?:[eE][-+]?\d+)?)\s*([a-zA-Z]+)?`)

// PulseEvent is one timestamped entry of a pulse schedule. Target is -1
// when the event has no target qubit.
type PulseEvent struct {
	Kind     OpKind  `json:"kind"`
	Register string  `json:"register"`
	Target   int     `json:"target"`
	Start    float64 `json:"start_ns"`
	Duration float64 `json:"duration_ns"`

	Axis      string            `json:"axis,omitempty"`
	Angle     float64           `json:"angle,omitempty"`
	Shape     string            `json:"shape,omitempty"`
	Waveform  string            `json:"waveform,omitempty"`
	Channel   string            `json:"channel,omitempty"`
	Frequency string            `json:"frequency,omitempty"`
	Kernel    string            `json:"kernel,omitempty"`
	When      string            `json:"when,omitempty"`
	Branch    string            `json:"branch,omitempty"`
	Meta      map[string]string `json:"meta,omitempty"`
	Raw       string            `json:"raw,omitempty"`
}

// PulseSchedule is the ordered collection of pulse events. Events are kept
// sorted by (start, register, target); insertion order during the walk
// carries no meaning.
type PulseSchedule struct {
	Events []PulseEvent
}

// TotalDuration is the derived schedule length: the latest event end, or
// zero for an empty schedule.
func (s *PulseSchedule) TotalDuration() float64 {
	total := 0.0
	for _, evt := range s.Events {
		if end := evt.Start + evt.Duration; end > total {
			total = end
		}
	}
	return total
}

func sortEvents(events []PulseEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		if a.Register != b.Register {
			return a.Register < b.Register
		}
		return a.Target < b.Target
	})
}

// ToJSON serializes the schedule as a structured record list.
func (s *PulseSchedule) ToJSON() (string, error) {
	data, err := json.MarshalIndent(s.Events, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ToTable renders a fixed-width text table with a trailing total-duration
// line.
func (s *PulseSchedule) ToTable() string {
	if len(s.Events) == 0 {
		return "(no pulse events)"
	}

	var lines []string
	header := fmt.Sprintf("%10s %8s %6s %4s %10s details", "start(ns)", "dur(ns)", "reg", "tgt", "kind")
	lines = append(lines, header)
	lines = append(lines, strings.Repeat("-", len(header)))

	for _, evt := range s.Events {
		tgt := ""
		if evt.Target >= 0 {
			tgt = strconv.Itoa(evt.Target)
		}
		var details []string
		if evt.Axis != "" {
			details = append(details, "axis="+evt.Axis)
		}
		if evt.Kind == OpRotate || evt.Kind == OpShiftPhase {
			details = append(details, "angle="+formatParam(evt.Angle))
		}
		if evt.Shape != "" {
			details = append(details, "shape="+evt.Shape)
		}
		if evt.Waveform != "" {
			details = append(details, "waveform="+evt.Waveform)
		}
		if evt.Channel != "" {
			details = append(details, "channel="+evt.Channel)
		}
		if evt.Frequency != "" {
			details = append(details, "freq="+evt.Frequency)
		}
		if evt.Kernel != "" {
			details = append(details, "kernel="+evt.Kernel)
		}
		if evt.Branch != "" {
			details = append(details, "branch="+evt.Branch)
		}
		lines = append(lines, fmt.Sprintf("%10.1f %8.1f %6s %4s %10s %s",
			evt.Start, evt.Duration, evt.Register, tgt, string(evt.Kind), strings.Join(details, ", ")))
	}

	lines = append(lines, fmt.Sprintf("Total duration: %.1f ns", s.TotalDuration()))
	return strings.Join(lines, "\n")
}

// scheduler carries the per-invocation state of one schedule build.
type scheduler struct {
	regs   map[string]int
	filter string
}

// BuildSchedule walks the statement tree with a running time cursor and
// produces the pulse schedule. Timing needs the tree, not the flat
// operation list: a clause's position depends on what runs before and
// after its children.
//
// A non-empty filter keeps only that register's events; filtered events
// still advance the cursor so timing is unaffected. The filter register
// must be declared.
func BuildSchedule(statements []Statement, regs map[string]int, defaultRegister, filter string) (*PulseSchedule, error) {
	if filter != "" {
		if _, ok := regs[filter]; !ok {
			return nil, fmt.Errorf("register %q not declared", filter)
		}
	}
	if _, ok := regs[defaultRegister]; !ok {
		return nil, fmt.Errorf("register %q not declared", defaultRegister)
	}

	s := &scheduler{regs: regs, filter: filter}
	ctx := resolveCtx{scope: scopeLogic, defaultRegister: defaultRegister}
	events, _, err := s.walkBlock(statements, ctx, 0, "")
	if err != nil {
		return nil, err
	}

	sortEvents(events)
	return &PulseSchedule{Events: events}, nil
}

// walkBlock schedules a statement list sequentially from start and returns
// the events plus the duration the block occupies.
func (s *scheduler) walkBlock(statements []Statement, ctx resolveCtx, start float64, branchLabel string) ([]PulseEvent, float64, error) {
	cursor := start
	var events []PulseEvent

	for _, stmt := range statements {
		op, childCtx, err := resolveClause(stmt.Text, ctx, s.regs)
		if err != nil {
			return nil, 0, err
		}

		switch {
		case op != nil && op.Kind.isPulse():
			evt, delta := s.pulseEvent(*op, cursor, branchLabel)
			if evt != nil {
				events = append(events, *evt)
			}
			cursor += delta

		case op != nil && op.Kind == OpAnalog:
			childEvents, duration, err := s.walkBlock(stmt.Children, childCtx, cursor, branchLabel)
			if err != nil {
				return nil, 0, err
			}
			events = append(events, childEvents...)
			cursor += duration

		case op != nil && op.Kind == OpAlign:
			childEvents, duration, err := s.walkAlign(stmt.Children, childCtx, cursor)
			if err != nil {
				return nil, 0, err
			}
			events = append(events, childEvents...)
			cursor += duration

		case len(stmt.Children) > 0:
			childEvents, duration, err := s.walkBlock(stmt.Children, childCtx, cursor, branchLabel)
			if err != nil {
				return nil, 0, err
			}
			events = append(events, childEvents...)
			cursor += duration
		}
	}

	return events, cursor - start, nil
}

// walkAlign schedules every branch of an Align block from the same start
// time and reports the critical path: the maximum branch duration.
func (s *scheduler) walkAlign(branches []Statement, ctx resolveCtx, start float64) ([]PulseEvent, float64, error) {
	var events []PulseEvent
	longest := 0.0

	for _, branchStmt := range branches {
		op, childCtx, err := resolveClause(branchStmt.Text, ctx, s.regs)
		if err != nil {
			return nil, 0, err
		}
		label := ""
		if op != nil && op.Kind == OpBranch {
			label = op.Label
		}

		childEvents, duration, err := s.walkBlock(branchStmt.Children, childCtx, start, label)
		if err != nil {
			return nil, 0, err
		}
		events = append(events, childEvents...)
		if duration > longest {
			longest = duration
		}
	}

	return events, longest, nil
}

// pulseEvent lowers one pulse operation into an event at the given start
// time. A filtered-out event returns nil but its duration still counts.
func (s *scheduler) pulseEvent(op Operation, start float64, branchLabel string) (*PulseEvent, float64) {
	durationText := op.Duration
	if durationText == "" && op.Meta != nil {
		durationText = op.Meta["duration"]
	}
	duration := parseDuration(durationText)

	if s.filter != "" && op.Register != s.filter {
		return nil, duration
	}

	target := -1
	if len(op.Targets) > 0 {
		target = op.Targets[0]
	}

	return &PulseEvent{
		Kind:      op.Kind,
		Register:  op.Register,
		Target:    target,
		Start:     start,
		Duration:  duration,
		Axis:      op.Axis,
		Angle:     op.Angle,
		Shape:     op.Shape,
		Waveform:  op.Waveform,
		Channel:   op.Channel,
		Frequency: op.Frequency,
		Kernel:    op.Kernel,
		When:      op.When,
		Branch:    branchLabel,
		Meta:      op.Meta,
		Raw:       op.Raw,
	}, duration
}

// parseDuration converts a duration string into nanoseconds: a signed
// decimal/exponential number with an optional case-insensitive unit suffix
// (s, ms, us, ns, ps, fs, or the abstract tick dt). A missing unit means
// nanoseconds; missing or unparsable text means zero.
func parseDuration(text string) float64 {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0
	}
	m := durationRegex.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	value, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0
	}

	unit := strings.ToLower(m[2])
	if unit == "" {
		unit = "ns"
	}
	factor := 1.0
	switch unit {
	case "s":
		factor = 1e9
	case "ms":
		factor = 1e6
	case "us":
		factor = 1e3
	case "ns":
		factor = 1
	case "ps":
		factor = 1e-3
	case "fs":
		factor = 1e-6
	case "dt":
		factor = 1 // abstract tick, kept in the same numeric field
	}
	return value * factor
}
