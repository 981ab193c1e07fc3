package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// focus represents which panel has keyboard input.
type focus int

const (
	focusSchedule focus = iota
	focusQASM
)

// Model is the TUI viewer state: one compiled script shown as a pulse
// schedule table next to its lowered gate circuit.
type Model struct {
	script   *Script
	register string
	circuit  *GateCircuit
	schedule *PulseSchedule
	state    *StateVector

	qasmEditor textarea.Model
	focus      focus
	scrollRow  int // first schedule row currently visible
	width      int
	height     int
	statusMsg  string // transient status message (e.g. save confirmation)
	savePath   string
}

func newViewerModel(script *Script, register, savePath string) (Model, error) {
	width := script.Registers[register]
	circuit := LowerGates(script.Operations, register, width)
	schedule, err := BuildSchedule(script.Statements, script.Registers, register, "")
	if err != nil {
		return Model{}, err
	}

	ta := textarea.New()
	ta.SetWidth(40)
	ta.SetHeight(20)
	ta.ShowLineNumbers = true
	ta.SetValue(circuit.Render())

	return Model{
		script:     script,
		register:   register,
		circuit:    circuit,
		schedule:   schedule,
		state:      SimulateOperations(script.Operations, register, width),
		qasmEditor: ta,
		focus:      focusSchedule,
		savePath:   savePath,
	}, nil
}

// ──────────────────────────── Init / Update ────────────────────────────

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		qasmW := max(msg.Width/3-6, minPanelW)
		m.qasmEditor.SetWidth(qasmW)
		ctrlH := 5
		editorH := max(msg.Height-ctrlH-8, 4)
		m.qasmEditor.SetHeight(editorH)

	case tea.KeyMsg:
		key := msg.String()
		m.statusMsg = ""

		if key == "ctrl+c" {
			return m, tea.Quit
		}

		switch m.focus {
		case focusSchedule:
			switch key {
			case "q":
				return m, tea.Quit
			case "tab":
				m.focus = focusQASM
				m.qasmEditor.Focus()
			case "up", "k":
				if m.scrollRow > 0 {
					m.scrollRow--
				}
			case "down", "j":
				if m.scrollRow < len(m.schedule.Events)-1 {
					m.scrollRow++
				}
			case "home", "g":
				m.scrollRow = 0
			case "ctrl+s":
				if err := os.WriteFile(m.savePath, []byte(m.circuit.Render()), 0644); err != nil {
					m.statusMsg = fmt.Sprintf("Save error: %v", err)
				} else {
					m.statusMsg = "Saved " + m.savePath
				}
			}

		case focusQASM:
			switch key {
			case "tab":
				m.focus = focusSchedule
				m.qasmEditor.Blur()
			default:
				var cmd tea.Cmd
				m.qasmEditor, cmd = m.qasmEditor.Update(msg)
				cmds = append(cmds, cmd)
			}
		}
	}

	return m, tea.Batch(cmds...)
}

// View renders the UI.
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	qasmWidth := m.width / 3
	scheduleWidth := m.width - qasmWidth - 4
	controlsHeight := 5
	panelHeight := max(m.height-controlsHeight-2, 6)

	schedulePanel := m.renderSchedulePanel(scheduleWidth, panelHeight)
	qasmPanel := m.renderQASMPanel(qasmWidth, panelHeight)
	controlsPanel := m.renderControlsPanel(m.width-4, controlsHeight-2)

	topRow := lipgloss.JoinHorizontal(lipgloss.Top, schedulePanel, qasmPanel)
	return lipgloss.JoinVertical(lipgloss.Left, topRow, controlsPanel)
}
