package main

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// evalAngle folds a constant angle expression into radians. The grammar is
// deliberately narrow: decimal/exponential literals, the constants pi and
// tau (any case), parentheses, unary minus, and the operators + - * /.
// Anything else is a parse error.
//
// Supported examples: "pi", "PI/2", "3*pi/4", "-tau/8", "(pi + pi/2) / 3",
// "1.5707", "3.14e-2".
func evalAngle(expr string) (float64, error) {
	p := angleParser{input: expr}
	val, err := p.parseExpr()
	if err != nil {
		return 0, err
	}
	p.skipSpace()
	if p.pos != len(p.input) {
		return 0, fmt.Errorf("angle %q: unexpected %q", expr, p.input[p.pos:])
	}
	return val, nil
}

type angleParser struct {
	input string
	pos   int
}

func (p *angleParser) skipSpace() {
	for p.pos < len(p.input) && (p.input[p.pos] == ' ' || p.input[p.pos] == '\t') {
		p.pos++
	}
}

func (p *angleParser) peek() byte {
	if p.pos >= len(p.input) {
		return 0
	}
	return p.input[p.pos]
}

// expr := term (('+' | '-') term)*
func (p *angleParser) parseExpr() (float64, error) {
	val, err := p.parseTerm()
	if err != nil {
		return 0, err
	}
	for {
		p.skipSpace()
		op := p.peek()
		if op != '+' && op != '-' {
			return val, nil
		}
		p.pos++
		rhs, err := p.parseTerm()
		if err != nil {
			return 0, err
		}
		if op == '+' {
			val += rhs
		} else {
			val -= rhs
		}
	}
}

// term := factor (('*' | '/') factor)*
func (p *angleParser) parseTerm() (float64, error) {
	val, err := p.parseFactor()
	if err != nil {
		return 0, err
	}
	for {
		p.skipSpace()
		op := p.peek()
		if op != '*' && op != '/' {
			return val, nil
		}
		p.pos++
		rhs, err := p.parseFactor()
		if err != nil {
			return 0, err
		}
		if op == '*' {
			val *= rhs
		} else {
			if rhs == 0 {
				return 0, fmt.Errorf("angle %q: division by zero", p.input)
			}
			val /= rhs
		}
	}
}

// factor := '-' factor | '(' expr ')' | number | constant
func (p *angleParser) parseFactor() (float64, error) {
	p.skipSpace()
	switch {
	case p.peek() == '-':
		p.pos++
		val, err := p.parseFactor()
		return -val, err
	case p.peek() == '(':
		p.pos++
		val, err := p.parseExpr()
		if err != nil {
			return 0, err
		}
		p.skipSpace()
		if p.peek() != ')' {
			return 0, fmt.Errorf("angle %q: missing ')'", p.input)
		}
		p.pos++
		return val, nil
	}

	start := p.pos
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		if (c >= '0' && c <= '9') || c == '.' {
			p.pos++
			continue
		}
		// exponent, e.g. 3.14e-2
		if (c == 'e' || c == 'E') && p.pos > start {
			next := p.pos + 1
			if next < len(p.input) && (p.input[next] == '+' || p.input[next] == '-') {
				next++
			}
			if next < len(p.input) && p.input[next] >= '0' && p.input[next] <= '9' {
				p.pos = next
				continue
			}
		}
		break
	}
	if p.pos > start {
		val, err := strconv.ParseFloat(p.input[start:p.pos], 64)
		if err != nil {
			return 0, fmt.Errorf("angle %q: bad number %q", p.input, p.input[start:p.pos])
		}
		return val, nil
	}

	for p.pos < len(p.input) && isIdentByte(p.input[p.pos]) {
		p.pos++
	}
	switch name := strings.ToLower(p.input[start:p.pos]); name {
	case "pi":
		return math.Pi, nil
	case "tau":
		return 2 * math.Pi, nil
	case "":
		return 0, fmt.Errorf("angle %q: expected a value", p.input)
	default:
		return 0, fmt.Errorf("angle %q: unknown constant %q", p.input, name)
	}
}

func isIdentByte(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_'
}

// formatParam formats an angle value, using pi notation when possible.
// Recognizes common pi fractions: pi, pi/2, pi/4, pi/3, pi/6, pi/8, 2pi, 3pi/4, etc.
func formatParam(val float64) string {
	type piForm struct {
		value   float64
		display string
	}
	piForms := []piForm{
		{2 * math.Pi, "2*pi"},
		{math.Pi, "pi"},
		{math.Pi / 2, "pi/2"},
		{math.Pi / 3, "pi/3"},
		{math.Pi / 4, "pi/4"},
		{math.Pi / 6, "pi/6"},
		{math.Pi / 8, "pi/8"},
		{3 * math.Pi / 4, "3*pi/4"},
		{3 * math.Pi / 2, "3*pi/2"},
		{2 * math.Pi / 3, "2*pi/3"},
	}

	for _, pf := range piForms {
		if math.Abs(val-pf.value) < 1e-10 {
			return pf.display
		}
		if math.Abs(val+pf.value) < 1e-10 {
			return "-" + pf.display
		}
	}

	return fmt.Sprintf("%g", val)
}
