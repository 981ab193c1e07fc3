package main

import (
	"regexp"
	"strconv"
	"strings"
)

// control is one qubit condition extracted from a `where` predicate: the
// qubit must hold the required value (0 or 1) for the operation to apply.
type control struct {
	index int
	value int
}

var (
	controlTermRegex = regexp.MustCompile(`^(\w+)\[(\d+)\]\s*==\s*([01])$`)
	bareTermRegex    = regexp.MustCompile(`^(\w+)\[(\d+)\]$`)
)

// decomposeControls turns a conjunctive predicate over a single register
// into an ordered control list. Term order follows the source left to
// right, which fixes ancilla allocation order downstream.
//
// An empty predicate means no controls. Any disjunction, any term on a
// different register, or any term of another shape makes the whole
// predicate unsupported (ok=false); the caller annotates rather than
// guessing a lowering.
func decomposeControls(predicate, register string) (controls []control, ok bool) {
	if strings.TrimSpace(predicate) == "" {
		return nil, true
	}
	if strings.Contains(predicate, "||") {
		return nil, false
	}

	controls = []control{}
	for _, term := range strings.Split(predicate, "&&") {
		term = strings.TrimSpace(term)
		switch strings.ToLower(term) {
		case "", "true", "1":
			continue
		}

		if m := controlTermRegex.FindStringSubmatch(term); m != nil {
			if m[1] != register {
				return nil, false
			}
			idx, _ := strconv.Atoi(m[2])
			val, _ := strconv.Atoi(m[3])
			controls = append(controls, control{index: idx, value: val})
			continue
		}
		if m := bareTermRegex.FindStringSubmatch(term); m != nil {
			if m[1] != register {
				return nil, false
			}
			idx, _ := strconv.Atoi(m[2])
			controls = append(controls, control{index: idx, value: 1})
			continue
		}
		return nil, false
	}
	return controls, true
}
