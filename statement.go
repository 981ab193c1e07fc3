package main

import (
	"fmt"
	"strings"
)

// Statement is one clause of a PsiScript program plus the clauses nested
// inside its braces. Leaf clauses have no children. Statements are built
// once per compile and never mutated afterwards.
type Statement struct {
	Text     string
	Children []Statement
}

// BuildStatements tokenizes PsiScript source into a statement tree.
// Line comments (`// ...`) are stripped first; the remaining text is split
// on the three control characters `;`, `{` and `}`. A clause followed by
// `{` opens a nested scope, a clause followed by `;` (or end of input) is a
// leaf, and stray empty clauses are discarded.
func BuildStatements(source string) ([]Statement, error) {
	var clean strings.Builder
	for _, line := range strings.Split(source, "\n") {
		if idx := strings.Index(line, "//"); idx >= 0 {
			line = line[:idx]
		}
		clean.WriteString(line)
		clean.WriteString(" ")
	}

	root := &Statement{}
	stack := []*Statement{root}
	var buf strings.Builder

	flushLeaf := func() {
		text := strings.TrimSpace(buf.String())
		buf.Reset()
		if text == "" {
			return
		}
		top := stack[len(stack)-1]
		top.Children = append(top.Children, Statement{Text: text})
	}

	for _, ch := range clean.String() {
		switch ch {
		case ';':
			flushLeaf()
		case '{':
			text := strings.TrimSpace(buf.String())
			buf.Reset()
			top := stack[len(stack)-1]
			top.Children = append(top.Children, Statement{Text: text})
			stack = append(stack, &top.Children[len(top.Children)-1])
		case '}':
			flushLeaf()
			if len(stack) == 1 {
				return nil, fmt.Errorf("unbalanced braces: unexpected '}'")
			}
			stack = stack[:len(stack)-1]
		default:
			buf.WriteRune(ch)
		}
	}
	flushLeaf()

	if len(stack) != 1 {
		return nil, fmt.Errorf("unbalanced braces: %d block(s) left open", len(stack)-1)
	}
	return root.Children, nil
}
