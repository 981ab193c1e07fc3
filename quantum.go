package main

import (
	"math"
	"math/cmplx"
	"strings"
)

type Complex = complex128

type StateVector struct {
	Amplitudes []Complex
	NumQubits  int
}

func NewStateVector(numQubits int) *StateVector {
	n := 1 << numQubits
	amps := make([]Complex, n)
	amps[0] = 1
	return &StateVector{Amplitudes: amps, NumQubits: numQubits}
}

func (s *StateVector) Clone() *StateVector {
	amps := make([]Complex, len(s.Amplitudes))
	copy(amps, s.Amplitudes)
	return &StateVector{Amplitudes: amps, NumQubits: s.NumQubits}
}

func (s *StateVector) applyH(q int) {
	hFactor := complex(1.0/math.Sqrt2, 0)
	n := len(s.Amplitudes)
	bit := 1 << q
	newAmps := make([]Complex, n)
	for i := 0; i < n; i++ {
		if i&bit == 0 {
			j := i | bit
			newAmps[i] = hFactor * (s.Amplitudes[i] + s.Amplitudes[j])
			newAmps[j] = hFactor * (s.Amplitudes[i] - s.Amplitudes[j])
		}
	}
	s.Amplitudes = newAmps
}

// applyControlledX flips the target qubit on every basis state whose
// control qubits hold their required values. With no controls this is a
// plain X.
func (s *StateVector) applyControlledX(controls []control, target int) {
	mask, want := controlBits(controls)
	n := len(s.Amplitudes)
	tBit := 1 << target
	for i := 0; i < n; i++ {
		if i&mask == want && i&tBit == 0 {
			j := i | tBit
			s.Amplitudes[i], s.Amplitudes[j] = s.Amplitudes[j], s.Amplitudes[i]
		}
	}
}

// applyControlledPhase multiplies e^(i*theta) onto every basis state whose
// control qubits hold their required values. With no controls this is a
// global phase.
func (s *StateVector) applyControlledPhase(controls []control, theta float64) {
	mask, want := controlBits(controls)
	phase := cmplx.Exp(complex(0, theta))
	n := len(s.Amplitudes)
	for i := 0; i < n; i++ {
		if i&mask == want {
			s.Amplitudes[i] *= phase
		}
	}
}

// invertAboutMean applies the diffusion step 2|mean><mean| - I.
func (s *StateVector) invertAboutMean() {
	var mean Complex
	for _, amp := range s.Amplitudes {
		mean += amp
	}
	mean /= complex(float64(len(s.Amplitudes)), 0)
	for i := range s.Amplitudes {
		s.Amplitudes[i] = 2*mean - s.Amplitudes[i]
	}
}

func controlBits(controls []control) (mask, want int) {
	for _, ctl := range controls {
		bit := 1 << ctl.index
		mask |= bit
		if ctl.value == 1 {
			want |= bit
		}
	}
	return mask, want
}

type QubitProbability struct {
	Prob0 float64
	Prob1 float64
}

func (s *StateVector) GetQubitProbabilities() []QubitProbability {
	probs := make([]QubitProbability, s.NumQubits)
	n := len(s.Amplitudes)

	for i := 0; i < n; i++ {
		prob := real(s.Amplitudes[i] * cmplx.Conj(s.Amplitudes[i]))
		for q := 0; q < s.NumQubits; q++ {
			if i&(1<<q) != 0 {
				probs[q].Prob1 += prob
			} else {
				probs[q].Prob0 += prob
			}
		}
	}

	return probs
}

// SimulateOperations runs the logic-scope operations for one register on an
// ideal statevector. Pulse-layer operations, measurements, guarded clauses,
// and operations with undecomposable predicates are skipped; the result is
// the pre-measurement state of the supported logic subset.
func SimulateOperations(ops []Operation, register string, width int) *StateVector {
	if width == 0 {
		return NewStateVector(1)
	}
	state := NewStateVector(width)

	for _, op := range ops {
		if op.Register != register {
			continue
		}
		if op.When != "" {
			continue
		}
		switch op.Kind {
		case OpSuperpose:
			targets := op.Targets
			if op.AllTargets {
				targets = make([]int, width)
				for q := range targets {
					targets[q] = q
				}
			}
			for _, q := range targets {
				state.applyH(q)
			}
		case OpPhase:
			controls, ok := decomposeControls(op.Where, register)
			if !ok {
				continue
			}
			state.applyControlledPhase(controls, op.Angle)
		case OpFlip:
			controls, ok := decomposeControls(op.Where, register)
			if !ok {
				continue
			}
			target := 0
			if len(op.Targets) > 0 {
				target = op.Targets[0]
			}
			state.applyControlledX(controls, target)
		case OpReflect:
			if strings.Contains(strings.ToUpper(op.Axis), "MEAN") {
				state.invertAboutMean()
			}
		}
	}

	return state
}
