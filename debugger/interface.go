package debugger

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"riscv-sim/core"
)

// RunCLI runs the command-line debugger interface
func RunCLI(dbg *Debugger) error {
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("(riscv-dbg) ")

		if !scanner.Scan() {
			break
		}

		cmdLine := strings.TrimSpace(scanner.Text())

		if cmdLine == "quit" || cmdLine == "q" || cmdLine == "exit" {
			fmt.Println("Exiting debugger...")
			break
		}

		if err := dbg.ExecuteCommand(cmdLine); err != nil {
			fmt.Printf("Error: %v\n", err)
		}

		output := dbg.GetOutput()
		if output != "" {
			fmt.Print(output)
		}

		if dbg.Running {
			for dbg.Running {
				if shouldBreak, reason := dbg.ShouldBreak(); shouldBreak {
					dbg.Running = false
					fmt.Printf("Stopped: %s at pc=0x%016X\n", reason, dbg.Hart.PC)
					break
				}

				outcome, _ := dbg.Hart.Step(core.RunConfig{})
				if outcome.Kind != core.StopNone {
					dbg.Running = false
					fmt.Printf("Program exited: %s (value %d)\n", stopKindString(outcome.Kind), outcome.Value)
					break
				}
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("input error: %w", err)
	}

	return nil
}

func stopKindString(k core.StopKind) string {
	switch k {
	case core.StopStop:
		return "stop"
	case core.StopExit:
		return "exit"
	default:
		return "unknown"
	}
}

// RunTUI runs the TUI (Text User Interface) debugger
func RunTUI(dbg *Debugger) error {
	tui := NewTUI(dbg)
	return tui.Run()
}
