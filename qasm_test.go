package main

import (
	"fmt"
	"strings"
	"testing"
)

func lowerSource(t *testing.T, source, register string) *GateCircuit {
	t.Helper()
	script, err := ParseScript(source)
	if err != nil {
		t.Fatalf("ParseScript error: %v", err)
	}
	return LowerGates(script.Operations, register, script.Registers[register])
}

func TestLowerSuperposeAndMeasure(t *testing.T) {
	c := lowerSource(t, `let q = Register(2);
q.Superpose();
let out = q.Measure();`, "q")

	qasm := c.Render()
	fmt.Printf("Lowered QASM:\n%s\n", qasm)

	want := []string{
		"OPENQASM 2.0;",
		`include "qelib1.inc";`,
		"qreg q[2];",
		"creg out[2];",
		"h q[0];",
		"h q[1];",
		"measure q -> out;",
	}
	for _, line := range want {
		if !strings.Contains(qasm, line) {
			t.Errorf("missing line %q", line)
		}
	}
}

func TestLowerIndexedMeasureAllocatesTmpCreg(t *testing.T) {
	c := lowerSource(t, `let q = Register(2);
Measure(q[1]);`, "q")

	lines := c.Lines()
	if len(lines) != 1 || lines[0] != "measure q[1] -> tmp0[0];" {
		t.Fatalf("got lines %v", lines)
	}
	if !strings.Contains(c.Render(), "creg tmp0[1];") {
		t.Error("tmp creg not declared")
	}
}

func TestLowerFlipValueZeroConjugation(t *testing.T) {
	c := lowerSource(t, `let q = Register(3);
q.Flip(target: 2, where: q[0] == 1 && q[1] == 0);`, "q")

	want := []string{
		"x q[1];",
		"ccx q[0],q[1],q[2];",
		"x q[1];",
	}
	lines := c.Lines()
	fmt.Printf("Flip lowering:\n  %s\n", strings.Join(lines, "\n  "))
	if len(lines) != len(want) {
		t.Fatalf("expected %d lines, got %d: %v", len(want), len(lines), lines)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d: got %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestLowerFlipAncillaChain(t *testing.T) {
	c := lowerSource(t, `let q = Register(5);
q.Flip(target: 4, where: q[0] == 1 && q[1] == 1 && q[2] == 1 && q[3] == 1);`, "q")

	// 4 controls -> 2 ancillas, compute/apply/uncompute palindrome.
	want := []string{
		"ccx q[0],q[1],anc_q[0];",
		"ccx q[2],anc_q[0],anc_q[1];",
		"ccx q[3],anc_q[1],q[4];",
		"ccx q[2],anc_q[0],anc_q[1];",
		"ccx q[0],q[1],anc_q[0];",
	}
	lines := c.Lines()
	fmt.Printf("Ancilla chain:\n  %s\n", strings.Join(lines, "\n  "))
	if len(lines) != len(want) {
		t.Fatalf("expected %d lines, got %d: %v", len(want), len(lines), lines)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d: got %q, want %q", i, lines[i], want[i])
		}
	}
	if !strings.Contains(c.Render(), "qreg anc_q[2];") {
		t.Error("ancilla qreg not declared")
	}
}

func TestLowerPhaseForms(t *testing.T) {
	c := lowerSource(t, `let q = Register(2);
q.Phase(angle: pi);
q.Phase(angle: pi/4, where: q[1] == 0);
q.Phase(angle: pi/2, where: q[0] == 1 && q[1] == 1);`, "q")

	want := []string{
		"u1(pi) q[0]; // global phase marker",
		"x q[1];",
		"u1(pi/4) q[1];",
		"x q[1];",
		"cu1(pi/2) q[0],q[1];",
	}
	lines := c.Lines()
	fmt.Printf("Phase lowering:\n  %s\n", strings.Join(lines, "\n  "))
	if len(lines) != len(want) {
		t.Fatalf("expected %d lines, got %d: %v", len(want), len(lines), lines)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d: got %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestLowerPhaseTooManyControls(t *testing.T) {
	c := lowerSource(t, `let q = Register(3);
q.Phase(angle: pi, where: q[0] == 1 && q[1] == 1 && q[2] == 1);`, "q")

	lines := c.Lines()
	if len(lines) != 1 || !strings.HasPrefix(lines[0], "// unsupported phase with 3 controls") {
		t.Fatalf("expected unsupported annotation, got %v", lines)
	}
}

func TestLowerReflectDiffusion(t *testing.T) {
	c := lowerSource(t, `let q = Register(2);
q.Reflect(axis: Axis.MEAN);`, "q")

	want := []string{
		"h q[0];",
		"h q[1];",
		"x q[0];",
		"x q[1];",
		"h q[1];",
		"cx q[0],q[1];",
		"h q[1];",
		"x q[0];",
		"x q[1];",
		"h q[0];",
		"h q[1];",
	}
	lines := c.Lines()
	if len(lines) != len(want) {
		t.Fatalf("expected %d lines, got %d: %v", len(want), len(lines), lines)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d: got %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestLowerWhenGuard(t *testing.T) {
	c := lowerSource(t, `let q = Register(2);
let m = q.Measure();
q.Flip(target: 0, when: m == 1);`, "q")

	qasm := c.Render()
	fmt.Printf("Guarded QASM:\n%s\n", qasm)

	if !strings.Contains(qasm, "if (m==1) x q[0];") {
		t.Error("missing guarded flip")
	}
	if !strings.Contains(qasm, "creg m[2];") {
		t.Error("measure destination creg not declared")
	}
}

func TestLowerUnsupportedPredicateAnnotates(t *testing.T) {
	c := lowerSource(t, `let q = Register(2);
q.Flip(target: 0, where: q[0] == 1 || q[1] == 1);`, "q")

	lines := c.Lines()
	if len(lines) != 1 || !strings.HasPrefix(lines[0], "// unsupported flip predicate") {
		t.Fatalf("expected unsupported annotation, got %v", lines)
	}
}

func TestLowerPulseClausesBecomeComments(t *testing.T) {
	c := lowerSource(t, `let q = Register(1);
Analog(target: q[0]) {
  Rotate(axis: X, angle: pi/2, duration: 10ns);
}`, "q")

	lines := c.Lines()
	if len(lines) != 2 {
		t.Fatalf("expected 2 comment lines, got %v", lines)
	}
	for _, line := range lines {
		if !strings.HasPrefix(line, "//") {
			t.Errorf("pulse clause leaked a gate line: %q", line)
		}
	}
}

func TestLowerIsIdempotent(t *testing.T) {
	script, err := ParseScript(`let q = Register(4);
q.Superpose();
q.Flip(target: 3, where: q[0] == 1 && q[1] == 1 && q[2] == 1);
q.Reflect(axis: Axis.MEAN);
Measure(q[0]);
let out = q.Measure();`)
	if err != nil {
		t.Fatalf("ParseScript error: %v", err)
	}

	first := LowerGates(script.Operations, "q", 4).Render()
	second := LowerGates(script.Operations, "q", 4).Render()
	if first != second {
		t.Fatalf("compiles differ:\n--- first ---\n%s\n--- second ---\n%s", first, second)
	}
}

func TestLowerFiltersOtherRegisters(t *testing.T) {
	c := lowerSource(t, `let q = Register(2);
let r = Register(2);
q.Superpose();
r.Superpose();`, "q")

	lines := c.Lines()
	for _, line := range lines {
		if strings.Contains(line, "r[") {
			t.Errorf("operation on register r leaked into q circuit: %q", line)
		}
	}
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines for q, got %v", lines)
	}
}
