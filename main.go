package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
)

func main() {
	register := flag.String("register", "", "register to compile (default: first declared)")
	out := flag.String("out", "", "write the lowered OpenQASM to this file instead of stdout")
	pulseTable := flag.Bool("pulse-table", false, "print the pulse schedule as a text table")
	pulseJSON := flag.Bool("pulse-json", false, "print the pulse schedule as JSON")
	pulseFilter := flag.String("pulse-filter", "", "restrict the pulse schedule to one register")
	replay := flag.Bool("replay", false, "replay the pulse schedule through the logging backend")
	view := flag.Bool("view", false, "open the interactive schedule/QASM viewer")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: psideck [flags] <script.psi>")
		flag.PrintDefaults()
		os.Exit(2)
	}

	source, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		fatal(err)
	}

	script, err := ParseScript(string(source))
	if err != nil {
		fatal(err)
	}

	reg := *register
	if reg == "" {
		reg = script.RegisterNames[0]
	}
	width, ok := script.Registers[reg]
	if !ok {
		fatal(fmt.Errorf("register %q not declared", reg))
	}

	if *view {
		m, err := newViewerModel(script, reg, qasmPath(*out))
		if err != nil {
			fatal(err)
		}
		if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
			fatal(err)
		}
		return
	}

	circuit := LowerGates(script.Operations, reg, width)
	if *out != "" {
		if err := os.WriteFile(*out, []byte(circuit.Render()), 0644); err != nil {
			fatal(err)
		}
	} else {
		fmt.Print(circuit.Render())
	}

	if !*pulseTable && !*pulseJSON && !*replay {
		return
	}

	schedule, err := BuildSchedule(script.Statements, script.Registers, reg, *pulseFilter)
	if err != nil {
		fatal(err)
	}

	if *pulseTable {
		fmt.Println(schedule.ToTable())
	}
	if *pulseJSON {
		text, err := schedule.ToJSON()
		if err != nil {
			fatal(err)
		}
		fmt.Println(text)
	}
	if *replay {
		backend := &LoggingBackend{}
		summary := Replay(schedule, backend)
		for _, line := range backend.Lines {
			fmt.Println(line)
		}
		data, err := json.Marshal(summary)
		if err != nil {
			fatal(err)
		}
		fmt.Println(string(data))
	}
}

func qasmPath(out string) string {
	if out != "" {
		return out
	}
	return "circuit.qasm"
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "psideck:", err)
	os.Exit(1)
}
