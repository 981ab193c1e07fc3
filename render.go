package main

import (
	"fmt"
	"strings"
)

// ──────────────────────────── Rendering helpers ────────────────────────────

// probBar renders a probability as a fixed-width bar, e.g. "████░░░░ 0.50".
func probBar(p float64) string {
	filled := int(p*float64(probBarW) + 0.5)
	if filled > probBarW {
		filled = probBarW
	}
	bar := barStyle.Render(strings.Repeat("█", filled)) + dimStyle.Render(strings.Repeat("░", probBarW-filled))
	return fmt.Sprintf("%s %.2f", bar, p)
}

// ──────────────────────────── Panel rendering ────────────────────────────

// renderSchedulePanel renders the pulse schedule table with the qubit
// probability bars underneath.
func (m Model) renderSchedulePanel(width, height int) string {
	var sb strings.Builder

	title := fmt.Sprintf("Pulse Schedule — %s", m.register)
	if m.focus == focusSchedule {
		title += " [ACTIVE]"
	}
	sb.WriteString(titleStyle.Render(title))
	sb.WriteString("\n\n")

	probLines := m.state.NumQubits + 2
	tableRows := max(height-probLines-8, 3)

	lines := strings.Split(m.schedule.ToTable(), "\n")
	if len(m.schedule.Events) == 0 {
		sb.WriteString(dimStyle.Render(lines[0]))
		sb.WriteString("\n")
	} else {
		// header + rule, then the visible window of event rows
		sb.WriteString(dimStyle.Render(lines[0]) + "\n")
		sb.WriteString(dimStyle.Render(lines[1]) + "\n")

		rows := lines[2 : len(lines)-1]
		start := m.scrollRow
		if start > len(rows)-1 {
			start = max(len(rows)-1, 0)
		}
		end := min(start+tableRows, len(rows))
		if start > 0 {
			fmt.Fprintf(&sb, "  ◀ showing events %d–%d of %d\n", start+1, end, len(rows))
		}
		for i := start; i < end; i++ {
			if i == start && m.focus == focusSchedule {
				sb.WriteString(rowSelectedStyle.Render(rows[i]))
			} else {
				sb.WriteString(rows[i])
			}
			sb.WriteString("\n")
		}
		sb.WriteString(dimStyle.Render(lines[len(lines)-1]) + "\n")
	}

	sb.WriteString("\n")
	sb.WriteString(titleStyle.Render("Qubit Probabilities"))
	sb.WriteString("\n")
	for q, p := range m.state.GetQubitProbabilities() {
		label := fmt.Sprintf("%s[%d]", m.register, q)
		fmt.Fprintf(&sb, "%s %s\n", registerLabelStyle.Render(fmt.Sprintf("%-6s", label)), probBar(p.Prob1))
	}

	if m.statusMsg != "" {
		sb.WriteString("\n")
		sb.WriteString(activeStyle.Render(m.statusMsg))
	}

	return scheduleStyle.Width(width).Height(height).Render(sb.String())
}

// renderQASMPanel renders the lowered OpenQASM panel.
func (m Model) renderQASMPanel(width, height int) string {
	var sb strings.Builder

	title := "OpenQASM"
	if m.focus == focusQASM {
		title += " [ACTIVE]"
	}
	sb.WriteString(titleStyle.Render(title))
	sb.WriteString("\n\n")
	sb.WriteString(m.qasmEditor.View())

	return qasmStyle.Width(width).Height(height).Render(sb.String())
}

// renderControlsPanel renders the bottom help/controls bar.
func (m Model) renderControlsPanel(width, height int) string {
	var sb strings.Builder

	sb.WriteString(activeStyle.Render("Navigate: "))
	sb.WriteString("↑↓/jk Scroll events  g Top\n")

	sb.WriteString(activeStyle.Render("Actions:  "))
	sb.WriteString("Tab Switch focus  ^S Save QASM  q/^C Quit")

	return controlsStyle.Width(width).Height(height).Render(sb.String())
}
