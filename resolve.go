package main

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Pre-compiled regexps for PsiScript clause classification.
var (
	registerDeclRegex   = regexp.MustCompile(`(\w+)\s*=\s*Register\((\d+)\)`)
	branchRegex         = regexp.MustCompile(`^branch\s+(\w+)(?:\[(\d+)\])?$`)
	measureIndexedRegex = regexp.MustCompile(`^(?:let\s+(\w+)\s*=\s*)?Measure\(\s*(\w+)\[(\d+)\]\s*\)$`)
	measureMethodRegex  = regexp.MustCompile(`^(?:let\s+(\w+)\s*=\s*)?(\w+)\.Measure\(\s*\)$`)
	targetRefRegex      = regexp.MustCompile(`^(\w+)\[(\d+)\]$`)
)

// OpKind tags the closed set of operations the resolver can produce.
// Both backends switch exhaustively over it; an unknown kind is a visible
// "unsupported" annotation, never a silent no-op.
type OpKind string

const (
	OpSuperpose  OpKind = "superpose"
	OpPhase      OpKind = "phase"
	OpFlip       OpKind = "flip"
	OpReflect    OpKind = "reflect"
	OpMeasure    OpKind = "measure"
	OpAnalog     OpKind = "analog"
	OpAlign      OpKind = "align"
	OpBranch     OpKind = "branch"
	OpRotate     OpKind = "rotate"
	OpWait       OpKind = "wait"
	OpShiftPhase OpKind = "shiftphase"
	OpSetFreq    OpKind = "setfreq"
	OpPlay       OpKind = "play"
	OpAcquire    OpKind = "acquire"
)

// isPulse reports whether the kind belongs to the analog/pulse layer.
func (k OpKind) isPulse() bool {
	switch k {
	case OpRotate, OpWait, OpShiftPhase, OpSetFreq, OpPlay, OpAcquire:
		return true
	}
	return false
}

// Scope names carried on operations and propagated down the tree.
const (
	scopeLogic  = "logic"
	scopeAnalog = "analog"
	scopeAlign  = "align"
)

// Operation is one resolved PsiScript clause. Operations are immutable
// value records created during resolution.
type Operation struct {
	Kind       OpKind
	Register   string
	Targets    []int
	AllTargets bool
	Scope      string

	Angle         float64
	Where         string
	When          string
	Axis          string
	ClassicalDest string
	MeasureAll    bool

	Duration  string
	Shape     string
	Waveform  string
	Channel   string
	Frequency string
	Kernel    string

	Label string
	Meta  map[string]string
	Raw   string
}

// analogTarget is the ambient (register, qubit) binding that pulse clauses
// inherit when they omit an explicit target.
type analogTarget struct {
	register string
	index    int
	hasIndex bool
}

// resolveCtx is the context threaded from parent to child statements. A
// clause may return an override that applies to its own subtree only.
type resolveCtx struct {
	scope           string
	defaultRegister string
	analog          *analogTarget
}

// Script is one parsed PsiScript program: the statement tree, the register
// table (with declaration order preserved), and the resolved operations.
type Script struct {
	Statements    []Statement
	Registers     map[string]int
	RegisterNames []string
	Operations    []Operation
}

// ParseScript builds the statement tree from source and resolves it.
func ParseScript(source string) (*Script, error) {
	statements, err := BuildStatements(source)
	if err != nil {
		return nil, err
	}

	regs, names := scanRegisters(statements)
	if len(regs) == 0 {
		return nil, fmt.Errorf("no registers declared in the script")
	}

	ops, err := Resolve(statements, names[0], regs)
	if err != nil {
		return nil, err
	}

	return &Script{
		Statements:    statements,
		Registers:     regs,
		RegisterNames: names,
		Operations:    ops,
	}, nil
}

// scanRegisters collects every register declaration in the tree, in
// document order, before resolution begins.
func scanRegisters(statements []Statement) (map[string]int, []string) {
	regs := map[string]int{}
	var names []string
	var walk func([]Statement)
	walk = func(stmts []Statement) {
		for _, stmt := range stmts {
			for _, m := range registerDeclRegex.FindAllStringSubmatch(stmt.Text, -1) {
				width, _ := strconv.Atoi(m[2])
				if _, seen := regs[m[1]]; !seen {
					names = append(names, m[1])
				}
				regs[m[1]] = width
			}
			walk(stmt.Children)
		}
	}
	walk(statements)
	return regs, names
}

// Resolve walks the statement tree in document order (pre-order) and
// returns the resolved operation stream. Context overrides from a clause
// apply to its own subtree, never to siblings.
func Resolve(statements []Statement, defaultRegister string, regs map[string]int) ([]Operation, error) {
	ctx := resolveCtx{scope: scopeLogic, defaultRegister: defaultRegister}
	return resolveBlock(statements, ctx, regs)
}

func resolveBlock(statements []Statement, ctx resolveCtx, regs map[string]int) ([]Operation, error) {
	var ops []Operation
	for _, stmt := range statements {
		op, childCtx, err := resolveClause(stmt.Text, ctx, regs)
		if err != nil {
			return nil, err
		}
		if op != nil {
			ops = append(ops, *op)
		}
		if len(stmt.Children) > 0 {
			childOps, err := resolveBlock(stmt.Children, childCtx, regs)
			if err != nil {
				return nil, err
			}
			ops = append(ops, childOps...)
		}
	}
	return ops, nil
}

// resolveClause classifies a single clause. It returns the operation (nil
// for declarations and unrecognized text) and the context for the clause's
// subtree. Unrecognized clauses keep the ambient context so operations
// nested inside unknown wrappers still surface.
func resolveClause(text string, ctx resolveCtx, regs map[string]int) (*Operation, resolveCtx, error) {
	text = strings.TrimSpace(text)

	if registerDeclRegex.MatchString(text) {
		return nil, ctx, nil
	}

	if text == "Align" {
		op := &Operation{Kind: OpAlign, Register: ctx.defaultRegister, Scope: ctx.scope, Raw: text}
		childCtx := ctx
		childCtx.scope = scopeAlign
		return op, childCtx, nil
	}

	if m := branchRegex.FindStringSubmatch(text); m != nil {
		reg := m[1]
		op := &Operation{Kind: OpBranch, Register: reg, Scope: ctx.scope, Label: strings.TrimSpace(text[len("branch"):]), Raw: text}
		childCtx := ctx
		childCtx.defaultRegister = reg
		binding := &analogTarget{register: reg}
		if m[2] != "" {
			idx, _ := strconv.Atoi(m[2])
			op.Targets = []int{idx}
			binding.index = idx
			binding.hasIndex = true
		}
		childCtx.analog = binding
		if err := validateOp(op, regs); err != nil {
			return nil, ctx, err
		}
		return op, childCtx, nil
	}

	if _, args, ok := splitCall(text, "Analog"); ok {
		params := parseKeyValues(args)
		op := &Operation{Kind: OpAnalog, Scope: scopeAnalog, Raw: text, Meta: leftoverMeta(params, "target")}
		binding := &analogTarget{}
		if ref, found := params["target"]; found {
			reg, idx, hasIdx := parseTargetRef(ref)
			if reg == "" {
				reg = ctx.defaultRegister
			}
			op.Register = reg
			binding.register = reg
			if hasIdx {
				op.Targets = []int{idx}
				binding.index = idx
				binding.hasIndex = true
			}
		} else {
			op.Register = ctx.defaultRegister
			binding.register = ctx.defaultRegister
		}
		childCtx := resolveCtx{scope: scopeAnalog, defaultRegister: op.Register, analog: binding}
		if err := validateOp(op, regs); err != nil {
			return nil, ctx, err
		}
		return op, childCtx, nil
	}

	if m := measureIndexedRegex.FindStringSubmatch(text); m != nil {
		idx, _ := strconv.Atoi(m[3])
		op := &Operation{Kind: OpMeasure, Register: m[2], Targets: []int{idx}, ClassicalDest: m[1], Scope: ctx.scope, Raw: text}
		if err := validateOp(op, regs); err != nil {
			return nil, ctx, err
		}
		return op, ctx, nil
	}
	if m := measureMethodRegex.FindStringSubmatch(text); m != nil {
		op := &Operation{Kind: OpMeasure, Register: m[2], MeasureAll: true, ClassicalDest: m[1], Scope: ctx.scope, Raw: text}
		if err := validateOp(op, regs); err != nil {
			return nil, ctx, err
		}
		return op, ctx, nil
	}

	if receiver, args, ok := splitCall(text, "Superpose"); ok {
		params := parseKeyValues(args)
		op := &Operation{Kind: OpSuperpose, Register: callRegister(receiver, ctx), Scope: ctx.scope, Raw: text, Meta: leftoverMeta(params, "targets")}
		spec := params["targets"]
		if spec == "" {
			spec = "ALL"
		}
		targets, all, err := parseTargets(spec)
		if err != nil {
			return nil, ctx, fmt.Errorf("%s: %v", text, err)
		}
		op.Targets = targets
		op.AllTargets = all
		if err := validateOp(op, regs); err != nil {
			return nil, ctx, err
		}
		return op, ctx, nil
	}

	if receiver, args, ok := splitCall(text, "Phase"); ok {
		params := parseKeyValues(args)
		op := &Operation{Kind: OpPhase, Register: callRegister(receiver, ctx), Scope: ctx.scope, Raw: text,
			Where: params["where"], When: params["when"], Meta: leftoverMeta(params, "angle", "where", "when")}
		angle, err := angleParam(params, "0")
		if err != nil {
			return nil, ctx, fmt.Errorf("%s: %v", text, err)
		}
		op.Angle = angle
		if err := validateOp(op, regs); err != nil {
			return nil, ctx, err
		}
		return op, ctx, nil
	}

	if receiver, args, ok := splitCall(text, "Flip"); ok {
		params := parseKeyValues(args)
		op := &Operation{Kind: OpFlip, Register: callRegister(receiver, ctx), Scope: ctx.scope, Raw: text,
			Where: params["where"], When: params["when"], Meta: leftoverMeta(params, "target", "where", "when")}
		target := 0
		if v, found := params["target"]; found {
			t, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return nil, ctx, fmt.Errorf("%s: bad target %q", text, v)
			}
			target = t
		}
		op.Targets = []int{target}
		if err := validateOp(op, regs); err != nil {
			return nil, ctx, err
		}
		return op, ctx, nil
	}

	if receiver, args, ok := splitCall(text, "Reflect"); ok {
		params := parseKeyValues(args)
		axis := params["axis"]
		if axis == "" {
			axis = "Axis.MEAN"
		}
		op := &Operation{Kind: OpReflect, Register: callRegister(receiver, ctx), Axis: axis, Scope: ctx.scope, Raw: text,
			Meta: leftoverMeta(params, "axis")}
		if err := validateOp(op, regs); err != nil {
			return nil, ctx, err
		}
		return op, ctx, nil
	}

	for name, kind := range pulseClauses {
		receiver, args, ok := splitCall(text, name)
		if !ok {
			continue
		}
		op, err := resolvePulseClause(kind, receiver, args, text, ctx)
		if err != nil {
			return nil, ctx, err
		}
		if err := validateOp(op, regs); err != nil {
			return nil, ctx, err
		}
		return op, ctx, nil
	}

	return nil, ctx, nil
}

var pulseClauses = map[string]OpKind{
	"Rotate":     OpRotate,
	"Wait":       OpWait,
	"ShiftPhase": OpShiftPhase,
	"SetFreq":    OpSetFreq,
	"Play":       OpPlay,
	"Acquire":    OpAcquire,
}

// resolvePulseClause builds a pulse-layer operation. A clause without an
// explicit target inherits the ambient analog binding, falling back to the
// default register with no target index.
func resolvePulseClause(kind OpKind, receiver, args, raw string, ctx resolveCtx) (*Operation, error) {
	params := parseKeyValues(args)

	op := &Operation{
		Kind:      kind,
		Scope:     ctx.scope,
		Raw:       raw,
		Axis:      params["axis"],
		Duration:  params["duration"],
		Shape:     params["shape"],
		Waveform:  params["waveform"],
		Channel:   params["channel"],
		Frequency: params["hz"],
		Kernel:    params["kernel"],
		When:      params["when"],
		Meta: leftoverMeta(params, "axis", "angle", "duration", "shape",
			"waveform", "channel", "hz", "kernel", "when", "target"),
	}

	if _, found := params["angle"]; found {
		angle, err := angleParam(params, "0")
		if err != nil {
			return nil, fmt.Errorf("%s: %v", raw, err)
		}
		op.Angle = angle
	}

	switch {
	case params["target"] != "":
		reg, idx, hasIdx := parseTargetRef(params["target"])
		if reg == "" {
			reg = ctx.defaultRegister
		}
		op.Register = reg
		if hasIdx {
			op.Targets = []int{idx}
		}
	case receiver != "":
		op.Register = receiver
		if ctx.analog != nil && ctx.analog.register == receiver && ctx.analog.hasIndex {
			op.Targets = []int{ctx.analog.index}
		}
	case ctx.analog != nil:
		op.Register = ctx.analog.register
		if ctx.analog.hasIndex {
			op.Targets = []int{ctx.analog.index}
		}
	default:
		op.Register = ctx.defaultRegister
	}
	return op, nil
}

// splitCall matches `Kind(args)` or `reg.Kind(args)` and returns the
// receiver (may be empty) and the raw argument text. The kind name must be
// a whole token so that e.g. ShiftPhase never matches Phase.
func splitCall(stmt, kind string) (receiver, args string, ok bool) {
	search := 0
	for {
		rel := strings.Index(stmt[search:], kind+"(")
		if rel < 0 {
			return "", "", false
		}
		at := search + rel
		if at > 0 && isIdentByte(stmt[at-1]) {
			search = at + 1
			continue
		}
		if at > 0 && stmt[at-1] == '.' {
			receiver = strings.TrimSpace(stmt[:at-1])
		} else if strings.TrimSpace(stmt[:at]) != "" {
			search = at + 1
			continue
		}
		open := at + len(kind)
		end := strings.LastIndex(stmt, ")")
		if end < open {
			return "", "", false
		}
		return receiver, stmt[open+1 : end], true
	}
}

func callRegister(receiver string, ctx resolveCtx) string {
	if receiver != "" {
		return receiver
	}
	return ctx.defaultRegister
}

// parseKeyValues splits `key: value` arguments on top-level commas,
// tracking bracket depth so nested calls like Gaussian(amp: 0.2) stay
// intact.
func parseKeyValues(args string) map[string]string {
	items := map[string]string{}
	depth := 0
	var buf strings.Builder
	flush := func() {
		part := strings.TrimSpace(buf.String())
		buf.Reset()
		if part == "" {
			return
		}
		key, value, found := strings.Cut(part, ":")
		if !found {
			return
		}
		items[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	for _, ch := range args {
		switch ch {
		case '(', '[':
			depth++
		case ')', ']':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				flush()
				continue
			}
		}
		buf.WriteRune(ch)
	}
	flush()
	return items
}

// leftoverMeta returns the key/value arguments not consumed by named
// fields, or nil when there are none.
func leftoverMeta(params map[string]string, consumed ...string) map[string]string {
	meta := map[string]string{}
	for k, v := range params {
		meta[k] = v
	}
	for _, k := range consumed {
		delete(meta, k)
	}
	if len(meta) == 0 {
		return nil
	}
	return meta
}

func angleParam(params map[string]string, fallback string) (float64, error) {
	expr := params["angle"]
	if strings.TrimSpace(expr) == "" {
		expr = fallback
	}
	return evalAngle(expr)
}

// parseTargets parses a Superpose target spec: ALL, a single index, or a
// bracketed list.
func parseTargets(spec string) (targets []int, all bool, err error) {
	spec = strings.TrimSpace(spec)
	if strings.EqualFold(spec, "ALL") {
		return nil, true, nil
	}
	if strings.HasPrefix(spec, "[") && strings.HasSuffix(spec, "]") {
		for _, part := range strings.Split(strings.Trim(spec, "[]"), ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			idx, err := strconv.Atoi(part)
			if err != nil {
				return nil, false, fmt.Errorf("bad target %q", part)
			}
			targets = append(targets, idx)
		}
		return targets, false, nil
	}
	idx, err := strconv.Atoi(spec)
	if err != nil {
		return nil, false, fmt.Errorf("bad targets %q", spec)
	}
	return []int{idx}, false, nil
}

// parseTargetRef parses `reg[i]`, a bare index, or a bare register name.
func parseTargetRef(ref string) (register string, index int, hasIndex bool) {
	ref = strings.TrimSpace(ref)
	if m := targetRefRegex.FindStringSubmatch(ref); m != nil {
		idx, _ := strconv.Atoi(m[2])
		return m[1], idx, true
	}
	if idx, err := strconv.Atoi(ref); err == nil {
		return "", idx, true
	}
	return ref, 0, false
}

// validateOp rejects references to undeclared registers and target indices
// past the declared width. Both backends rely on this having run.
func validateOp(op *Operation, regs map[string]int) error {
	if op.Register == "" {
		return nil
	}
	width, declared := regs[op.Register]
	if !declared {
		return fmt.Errorf("%s: register %q not declared", op.Raw, op.Register)
	}
	for _, t := range op.Targets {
		if t < 0 || t >= width {
			return fmt.Errorf("%s: target %d out of range for %s[%d]", op.Raw, t, op.Register, width)
		}
	}
	return nil
}
