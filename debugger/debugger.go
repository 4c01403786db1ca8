package debugger

import (
	"fmt"
	"strconv"
	"strings"

	"riscv-sim/core"
)

// Debugger holds one interactive debugging session's state around a
// single hart: breakpoints, watchpoints, command history, the
// expression evaluator, and the symbol/source maps used to resolve
// labels and annotate the instruction stream.
type Debugger struct {
	Hart *core.Hart

	Breakpoints *BreakpointManager
	Watchpoints *WatchpointManager
	History     *CommandHistory
	Evaluator   *ExpressionEvaluator

	Running           bool
	StepMode          StepMode
	StepOverCallDepth int
	StepOverPC        uint64 // pc to return to after step over

	Symbols   map[string]uint64
	SourceMap map[uint64]string

	LastCommand string

	Output strings.Builder
}

// StepMode represents different stepping modes
type StepMode int

const (
	StepNone   StepMode = iota
	StepSingle
	StepOver
	StepOut
)

func NewDebugger(h *core.Hart) *Debugger {
	return &Debugger{
		Hart:        h,
		Breakpoints: NewBreakpointManager(),
		Watchpoints: NewWatchpointManager(),
		History:     NewCommandHistory(0),
		Evaluator:   NewExpressionEvaluator(),
		Symbols:     make(map[string]uint64),
		SourceMap:   make(map[uint64]string),
	}
}

func (d *Debugger) LoadSymbols(symbols map[string]uint64) {
	d.Symbols = symbols
}

func (d *Debugger) LoadSourceMap(sourceMap map[uint64]string) {
	d.SourceMap = sourceMap
}

// ResolveAddress resolves a label to an address, or parses a numeric
// address (0x-prefixed hex or decimal).
func (d *Debugger) ResolveAddress(addrStr string) (uint64, error) {
	if addr, exists := d.Symbols[addrStr]; exists {
		return addr, nil
	}

	if strings.HasPrefix(addrStr, "0x") || strings.HasPrefix(addrStr, "0X") {
		addr, err := strconv.ParseUint(addrStr[2:], 16, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid address: %s", addrStr)
		}
		return addr, nil
	}

	addr, err := strconv.ParseUint(addrStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid address: %s", addrStr)
	}
	return addr, nil
}

func (d *Debugger) ExecuteCommand(cmdLine string) error {
	cmdLine = strings.TrimSpace(cmdLine)

	if cmdLine == "" {
		cmdLine = d.LastCommand
	}

	if cmdLine != "" {
		d.History.Add(cmdLine)
		d.LastCommand = cmdLine
	}

	parts := strings.Fields(cmdLine)
	if len(parts) == 0 {
		return nil
	}

	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	return d.handleCommand(cmd, args)
}

func (d *Debugger) handleCommand(cmd string, args []string) error {
	switch cmd {
	case "run", "r":
		return d.cmdRun(args)
	case "continue", "c":
		return d.cmdContinue(args)
	case "step", "s", "si":
		return d.cmdStep(args)
	case "next", "n":
		return d.cmdNext(args)
	case "finish", "fin":
		return d.cmdFinish(args)

	case "break", "b":
		return d.cmdBreak(args)
	case "tbreak", "tb":
		return d.cmdTBreak(args)
	case "delete", "d":
		return d.cmdDelete(args)
	case "enable":
		return d.cmdEnable(args)
	case "disable":
		return d.cmdDisable(args)

	case "watch", "w":
		return d.cmdWatch(args)

	case "print", "p":
		return d.cmdPrint(args)
	case "x":
		return d.cmdExamine(args)
	case "info", "i":
		return d.cmdInfo(args)
	case "backtrace", "bt", "where":
		return d.cmdBacktrace(args)
	case "list", "l":
		return d.cmdList(args)

	case "set":
		return d.cmdSet(args)

	case "load":
		return d.cmdLoad(args)
	case "reset":
		return d.cmdReset(args)

	case "help", "h", "?":
		return d.cmdHelp(args)

	default:
		return fmt.Errorf("unknown command: %s (type 'help' for available commands)", cmd)
	}
}

// ShouldBreak checks if execution should pause at the current PC.
func (d *Debugger) ShouldBreak() (bool, string) {
	pc := d.Hart.PC

	switch d.StepMode {
	case StepSingle:
		d.StepMode = StepNone
		return true, "single step"

	case StepOver:
		if pc == d.StepOverPC {
			d.StepMode = StepNone
			return true, "step over complete"
		}

	case StepOut:
		// Full call-stack tracking isn't maintained; "finish" degrades
		// to running until the next breakpoint or halt.
	}

	if bp := d.Breakpoints.GetBreakpoint(pc); bp != nil {
		if !bp.Enabled {
			return false, ""
		}

		if bp.Condition != "" {
			result, err := d.Evaluator.Evaluate(bp.Condition, d.Hart, d.Symbols)
			if err != nil {
				return true, fmt.Sprintf("breakpoint %d (condition error: %v)", bp.ID, err)
			}
			if !result {
				return false, ""
			}
		}

		bp.HitCount++
		if bp.Temporary {
			_ = d.Breakpoints.DeleteBreakpoint(bp.ID)
		}

		return true, fmt.Sprintf("breakpoint %d", bp.ID)
	}

	if wp, changed := d.Watchpoints.CheckWatchpoints(d.Hart); wp != nil && changed {
		return true, fmt.Sprintf("watchpoint %d: %s", wp.ID, wp.Expression)
	}

	return false, ""
}

func (d *Debugger) GetOutput() string {
	output := d.Output.String()
	d.Output.Reset()
	return output
}

func (d *Debugger) Printf(format string, args ...interface{}) {
	d.Output.WriteString(fmt.Sprintf(format, args...))
}

func (d *Debugger) Println(args ...interface{}) {
	d.Output.WriteString(fmt.Sprintln(args...))
}

// fetchAt decodes the instruction at addr without side effects on
// Hart.PC, for SetStepOver's call detection and the TUI's disassembly
// view.
func (d *Debugger) fetchAt(addr uint64) (*core.Decoded, int, bool) {
	ext := d.Hart.EnabledExtensions
	if full, ok := d.Hart.Mem.ReadInstWord(addr); ok {
		if full&0x3 == 0x3 {
			return core.Decode(full, d.Hart.XLen, ext), 4, true
		}
		return core.DecodeCompressed(uint16(full), d.Hart.XLen, ext), 2, true
	}
	half, ok := d.Hart.Mem.ReadInstHalf(addr)
	if !ok {
		return nil, 0, false
	}
	if core.IsCompressed(half) {
		return core.DecodeCompressed(half, d.Hart.XLen, ext), 2, true
	}
	return nil, 0, false
}

// SetStepOver configures the debugger to step over the call at the
// current PC (next's semantics): if the instruction there is a JAL or
// JALR writing ra (the standard call convention, spec.md §2), stop
// back at the instruction following it; otherwise single-step.
func (d *Debugger) SetStepOver() {
	d.StepMode = StepSingle
	d.Running = true

	decoded, size, ok := d.fetchAt(d.Hart.PC)
	if !ok || decoded == nil {
		return
	}

	isCall := (decoded.Info.Opcode == core.OpJal || decoded.Info.Opcode == core.OpJalr) && decoded.Rd == 1
	if isCall {
		d.StepOverPC = d.Hart.PC + uint64(size)
		d.StepMode = StepOver
	}
}

// SetStepOut configures the debugger for "finish": it runs until the
// next breakpoint, watchpoint or halt. Function returns are not
// tracked, so it does not stop when the current function returns.
func (d *Debugger) SetStepOut() {
	d.StepMode = StepOut
	d.Running = true
}
