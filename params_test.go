package main

import (
	"fmt"
	"math"
	"testing"
)

func TestEvalAngle(t *testing.T) {
	cases := []struct {
		expr string
		want float64
	}{
		{"pi", math.Pi},
		{"PI", math.Pi},
		{"tau", 2 * math.Pi},
		{"pi/2", math.Pi / 2},
		{"3*pi/4", 3 * math.Pi / 4},
		{"-tau/8", -math.Pi / 4},
		{"(pi + pi/2) / 3", math.Pi / 2},
		{"2*(pi - pi/2)", math.Pi},
		{"1.5707", 1.5707},
		{"3.14e-2", 0.0314},
		{"0", 0},
		{"-0.5", -0.5},
	}

	for _, tc := range cases {
		got, err := evalAngle(tc.expr)
		if err != nil {
			t.Errorf("evalAngle(%q) error: %v", tc.expr, err)
			continue
		}
		fmt.Printf("evalAngle(%q) = %g\n", tc.expr, got)
		if math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("evalAngle(%q) = %g, want %g", tc.expr, got, tc.want)
		}
	}
}

func TestEvalAngleErrors(t *testing.T) {
	bad := []string{
		"pi/0",
		"theta",
		"2+",
		"(pi",
		"",
		"1..2",
		"pi pi",
	}
	for _, expr := range bad {
		if _, err := evalAngle(expr); err == nil {
			t.Errorf("evalAngle(%q): expected error", expr)
		} else {
			fmt.Printf("evalAngle(%q) rejected: %v\n", expr, err)
		}
	}
}

func TestFormatParam(t *testing.T) {
	cases := []struct {
		val  float64
		want string
	}{
		{math.Pi, "pi"},
		{math.Pi / 2, "pi/2"},
		{-math.Pi / 2, "-pi/2"},
		{3 * math.Pi / 4, "3*pi/4"},
		{2 * math.Pi, "2*pi"},
		{1.0, "1"},
		{0.25, "0.25"},
	}
	for _, tc := range cases {
		got := formatParam(tc.val)
		if got != tc.want {
			t.Errorf("formatParam(%g) = %q, want %q", tc.val, got, tc.want)
		}
	}
}
