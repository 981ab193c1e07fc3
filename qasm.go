package main

import (
	"fmt"
	"regexp"
	"strings"
)

var whenGuardRegex = regexp.MustCompile(`^(\w+)\s*==\s*([01])$`)

// GateCircuit is the lowered gate-level output: quantum and classical
// register declarations (in allocation order) plus the instruction lines.
// Ancilla and temporary classical registers are allocated per compile
// invocation; circuits are never shared between compiles.
type GateCircuit struct {
	Register string
	Width    int

	qregNames []string
	qregSizes map[string]int
	cregNames []string
	cregSizes map[string]int
	lines     []string

	tmpCounter int
}

func newGateCircuit(register string, width int) *GateCircuit {
	c := &GateCircuit{
		Register:  register,
		Width:     width,
		qregSizes: map[string]int{},
		cregSizes: map[string]int{},
	}
	c.ensureQreg(register, width)
	return c
}

func (c *GateCircuit) ensureQreg(name string, size int) {
	if cur, ok := c.qregSizes[name]; ok {
		if size > cur {
			c.qregSizes[name] = size
		}
		return
	}
	c.qregNames = append(c.qregNames, name)
	c.qregSizes[name] = size
}

func (c *GateCircuit) ensureCreg(name string, size int) {
	if _, ok := c.cregSizes[name]; ok {
		return
	}
	c.cregNames = append(c.cregNames, name)
	c.cregSizes[name] = size
}

func (c *GateCircuit) tmpCreg(size int) string {
	name := fmt.Sprintf("tmp%d", c.tmpCounter)
	c.tmpCounter++
	c.ensureCreg(name, size)
	return name
}

func (c *GateCircuit) emit(line string) {
	c.lines = append(c.lines, line)
}

// Lines returns the emitted instruction lines (without declarations).
func (c *GateCircuit) Lines() []string {
	return c.lines
}

// Render produces the complete OpenQASM 2.0 text.
func (c *GateCircuit) Render() string {
	var sb strings.Builder
	sb.WriteString("OPENQASM 2.0;\n")
	sb.WriteString("include \"qelib1.inc\";\n")
	for _, name := range c.qregNames {
		fmt.Fprintf(&sb, "qreg %s[%d];\n", name, c.qregSizes[name])
	}
	for _, name := range c.cregNames {
		fmt.Fprintf(&sb, "creg %s[%d];\n", name, c.cregSizes[name])
	}
	for _, line := range c.lines {
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	return sb.String()
}

// LowerGates lowers the resolved operation stream for one register into a
// gate circuit. Operations on other registers are filtered out first.
// Unsupported constructs become comment lines so intent is never silently
// dropped.
func LowerGates(ops []Operation, register string, width int) *GateCircuit {
	c := newGateCircuit(register, width)

	for _, op := range ops {
		if op.Register != register {
			continue
		}
		switch op.Kind {
		case OpSuperpose:
			c.emitSuperpose(op)
		case OpPhase:
			c.emitPhase(op)
		case OpFlip:
			c.emitFlip(op)
		case OpReflect:
			c.emitReflect(op)
		case OpMeasure:
			c.emitMeasure(op)
		case OpAnalog:
			c.emit(fmt.Sprintf("// analog scope (pulse layer): %s", op.Raw))
		case OpAlign:
			c.emit(fmt.Sprintf("// align block (pulse layer): %s", op.Raw))
		case OpBranch:
			c.emit(fmt.Sprintf("// align branch %s (pulse layer)", op.Label))
		case OpRotate, OpWait, OpShiftPhase, OpSetFreq, OpPlay, OpAcquire:
			c.emit(fmt.Sprintf("// %s (pulse layer) not gate-lowerable: %s", op.Kind, op.Raw))
		default:
			c.emit(fmt.Sprintf("// unsupported operation kind %q: %s", op.Kind, op.Raw))
		}
	}
	return c
}

func (c *GateCircuit) emitSuperpose(op Operation) {
	targets := op.Targets
	if op.AllTargets {
		targets = make([]int, c.Width)
		for q := range targets {
			targets[q] = q
		}
	}
	for _, q := range targets {
		c.emit(fmt.Sprintf("h %s[%d];", c.Register, q))
	}
}

func (c *GateCircuit) emitPhase(op Operation) {
	controls, ok := decomposeControls(op.Where, c.Register)
	if !ok {
		c.emit(fmt.Sprintf("// unsupported phase predicate %q (angle %s)", op.Where, formatParam(op.Angle)))
		return
	}
	angle := formatParam(op.Angle)

	switch len(controls) {
	case 0:
		// Diagonal phase on qubit 0 stands in for a global phase.
		c.emitWithWhen([]string{fmt.Sprintf("u1(%s) %s[0]; // global phase marker", angle, c.Register)}, op.When)
	case 1:
		ctl := controls[0]
		var lines []string
		lines = appendConjugated(lines, c.Register, controls, func(lines []string) []string {
			return append(lines, fmt.Sprintf("u1(%s) %s[%d];", angle, c.Register, ctl.index))
		})
		c.emitWithWhen(lines, op.When)
	case 2:
		var lines []string
		lines = appendConjugated(lines, c.Register, controls, func(lines []string) []string {
			return append(lines, fmt.Sprintf("cu1(%s) %s[%d],%s[%d];",
				angle, c.Register, controls[0].index, c.Register, controls[1].index))
		})
		c.emitWithWhen(lines, op.When)
	default:
		c.emit(fmt.Sprintf("// unsupported phase with %d controls: %s", len(controls), op.Raw))
	}
}

func (c *GateCircuit) emitFlip(op Operation) {
	controls, ok := decomposeControls(op.Where, c.Register)
	if !ok {
		c.emit(fmt.Sprintf("// unsupported flip predicate %q: %s", op.Where, op.Raw))
		return
	}
	target := 0
	if len(op.Targets) > 0 {
		target = op.Targets[0]
	}

	var lines []string
	switch len(controls) {
	case 0:
		lines = append(lines, fmt.Sprintf("x %s[%d];", c.Register, target))
	case 1:
		lines = appendConjugated(lines, c.Register, controls, func(lines []string) []string {
			return append(lines, fmt.Sprintf("cx %s[%d],%s[%d];", c.Register, controls[0].index, c.Register, target))
		})
	case 2:
		lines = appendConjugated(lines, c.Register, controls, func(lines []string) []string {
			return append(lines, fmt.Sprintf("ccx %s[%d],%s[%d],%s[%d];",
				c.Register, controls[0].index, c.Register, controls[1].index, c.Register, target))
		})
	default:
		lines = appendConjugated(lines, c.Register, controls, func(lines []string) []string {
			indices := make([]int, len(controls))
			for i, ctl := range controls {
				indices[i] = ctl.index
			}
			return append(lines, c.multiControlX(indices, target)...)
		})
	}
	c.emitWithWhen(lines, op.When)
}

func (c *GateCircuit) emitReflect(op Operation) {
	if !strings.Contains(strings.ToUpper(op.Axis), "MEAN") {
		c.emit(fmt.Sprintf("// unsupported reflect axis %q: %s", op.Axis, op.Raw))
		return
	}

	n := c.Width
	// Diffusion operator: H^n X^n (multi-controlled Z) X^n H^n.
	for q := 0; q < n; q++ {
		c.emit(fmt.Sprintf("h %s[%d];", c.Register, q))
	}
	for q := 0; q < n; q++ {
		c.emit(fmt.Sprintf("x %s[%d];", c.Register, q))
	}

	controls := make([]int, 0, n-1)
	for q := 0; q < n-1; q++ {
		controls = append(controls, q)
	}
	for _, line := range c.multiControlZ(controls, n-1) {
		c.emit(line)
	}

	for q := 0; q < n; q++ {
		c.emit(fmt.Sprintf("x %s[%d];", c.Register, q))
	}
	for q := 0; q < n; q++ {
		c.emit(fmt.Sprintf("h %s[%d];", c.Register, q))
	}
}

func (c *GateCircuit) emitMeasure(op Operation) {
	if op.MeasureAll {
		dest := op.ClassicalDest
		if dest == "" {
			dest = fmt.Sprintf("meas_%s_%d", c.Register, c.tmpCounter)
		}
		c.ensureCreg(dest, c.Width)
		c.emit(fmt.Sprintf("measure %s -> %s;", c.Register, dest))
		return
	}

	dest := op.ClassicalDest
	if dest == "" {
		dest = c.tmpCreg(1)
	}
	c.ensureCreg(dest, 1)
	target := 0
	if len(op.Targets) > 0 {
		target = op.Targets[0]
	}
	c.emit(fmt.Sprintf("measure %s[%d] -> %s[0];", c.Register, target, dest))
}

// appendConjugated wraps a gate group with NOTs on every control that is
// required at value 0, so that "controlled on 0" runs through the plain
// controlled primitives.
func appendConjugated(lines []string, register string, controls []control, body func([]string) []string) []string {
	var conj []string
	for _, ctl := range controls {
		if ctl.value == 0 {
			conj = append(conj, fmt.Sprintf("x %s[%d];", register, ctl.index))
		}
	}
	lines = append(lines, conj...)
	lines = body(lines)
	lines = append(lines, conj...)
	return lines
}

// multiControlZ lowers a k-controlled Z as H on the target around a
// k-controlled X.
func (c *GateCircuit) multiControlZ(controls []int, target int) []string {
	if len(controls) == 0 {
		return []string{fmt.Sprintf("z %s[%d];", c.Register, target)}
	}
	var lines []string
	lines = append(lines, fmt.Sprintf("h %s[%d];", c.Register, target))
	lines = append(lines, c.multiControlX(controls, target)...)
	lines = append(lines, fmt.Sprintf("h %s[%d];", c.Register, target))
	return lines
}

// multiControlX decomposes a k-controlled X. For k > 2 it builds the
// reversible ancilla chain: compute the conjunction into k-2 ancillas,
// apply the doubly-controlled target, then uncompute in exact reverse so
// every ancilla returns to zero for the next synthesis call.
func (c *GateCircuit) multiControlX(controls []int, target int) []string {
	reg := c.Register
	k := len(controls)
	switch k {
	case 0:
		return []string{fmt.Sprintf("x %s[%d];", reg, target)}
	case 1:
		return []string{fmt.Sprintf("cx %s[%d],%s[%d];", reg, controls[0], reg, target)}
	case 2:
		return []string{fmt.Sprintf("ccx %s[%d],%s[%d],%s[%d];", reg, controls[0], reg, controls[1], reg, target)}
	}

	ancCount := k - 2
	ancName := "anc_" + reg
	c.ensureQreg(ancName, ancCount)

	var lines []string
	compute := []string{fmt.Sprintf("ccx %s[%d],%s[%d],%s[0];", reg, controls[0], reg, controls[1], ancName)}
	for i := 2; i < k-1; i++ {
		compute = append(compute, fmt.Sprintf("ccx %s[%d],%s[%d],%s[%d];",
			reg, controls[i], ancName, i-2, ancName, i-1))
	}
	lines = append(lines, compute...)

	lines = append(lines, fmt.Sprintf("ccx %s[%d],%s[%d],%s[%d];",
		reg, controls[k-1], ancName, ancCount-1, reg, target))

	for i := len(compute) - 1; i >= 0; i-- {
		lines = append(lines, compute[i])
	}
	return lines
}

// emitWithWhen applies the classical guard. A missing guard emits the
// lines unmodified. A guard must be exactly `name == 0|1`; anything else
// is annotated and the lines are emitted unguarded (best effort, not
// fatal).
func (c *GateCircuit) emitWithWhen(lines []string, when string) {
	if strings.TrimSpace(when) == "" {
		for _, line := range lines {
			c.emit(line)
		}
		return
	}

	m := whenGuardRegex.FindStringSubmatch(strings.TrimSpace(when))
	if m == nil {
		c.emit(fmt.Sprintf("// unsupported when guard %q", when))
		for _, line := range lines {
			c.emit(line)
		}
		return
	}

	c.ensureCreg(m[1], 1)
	for _, line := range lines {
		c.emit(fmt.Sprintf("if (%s==%s) %s", m[1], m[2], line))
	}
}
