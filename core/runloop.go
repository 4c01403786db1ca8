package core

import "fmt"

// RunConfig carries the per-run feature toggles spec.md §4.5 lists:
// an optional stop address, instruction-count limit, and whether
// triggers/counters/statistics/trace are consulted at all. The fast
// path (SimpleRun) ignores all of these and only fetches/executes/
// retires.
type RunConfig struct {
	StopAddr        uint64
	HasStopAddr     bool
	MaxInstructions uint64
	HasMaxInstrs    bool

	EnableTriggers   bool
	EnableCounters   bool
	EnableStatistics bool
}

// RunResult summarizes why Run stopped.
type RunResult struct {
	Outcome     StepOutcome
	Interrupted bool
	HitStopAddr bool
	HitMaxInstr bool
}

// Run drives the hart step by step until a Stop/Exit condition, a
// cancellation, a configured limit, or the watchdog fires (spec.md
// §4.5, §7.4). It is the full-featured path: triggers, counters,
// trace, and limit checks all run on every step.
func (h *Hart) Run(cfg RunConfig) RunResult {
	for {
		if !h.UserOK {
			return RunResult{Interrupted: true}
		}
		if cfg.HasStopAddr && h.PC == cfg.StopAddr {
			return RunResult{HitStopAddr: true}
		}
		if cfg.HasMaxInstrs && h.RetiredInsts >= cfg.MaxInstructions {
			return RunResult{HitMaxInstr: true}
		}

		outcome, retired := h.Step(cfg)
		_ = retired
		if outcome.Kind != StopNone {
			return RunResult{Outcome: outcome}
		}
		if h.ConsecutiveIllegalCount() > 64 {
			return RunResult{Outcome: StepOutcome{Kind: StopExit, Value: 1}}
		}
		if h.DebugMode && h.DebugStepMode {
			return RunResult{}
		}
	}
}

// SimpleRun is the fast path spec.md §4.5 describes: no triggers, no
// counters, no trace, no limit checks; it only fetches, decodes,
// executes, and retires until a Stop/Exit condition.
func (h *Hart) SimpleRun() StepOutcome {
	for {
		h.CurrentPC = h.PC
		h.HasException = false
		word, size, ok := h.fetch()
		if !ok {
			continue
		}
		var d *Decoded
		if size == 2 {
			d = DecodeCompressed(uint16(word), h.XLen, h.EnabledExtensions)
		} else {
			d = Decode(word, h.XLen, h.EnabledExtensions)
		}
		h.PC += uint64(d.Size)
		res := h.Execute(d)
		if res.Stop.Kind != StopNone {
			return res.Stop
		}
		if !h.HasException {
			h.RetiredInsts++
		}
		h.HasException = false
	}
}

// Step executes exactly one instruction, implementing spec.md §4.5's
// numbered sequence: interrupt/NMI poll, pre-execute address trigger,
// fetch, pre-execute opcode trigger, dispatch, post-execute retire
// accounting (load-queue source/dest bookkeeping, statistics, trace).
func (h *Hart) Step(cfg RunConfig) (StepOutcome, bool) {
	if !h.DebugStepMode {
		h.pollInterrupts()
	}

	h.CurrentPC = h.PC
	h.TriggerTripped = false
	h.HasException = false
	h.LoadAddrValid = false

	if cfg.EnableTriggers && h.Triggers.CheckAddress(h.PC) {
		h.handleTriggerHit()
		return StepOutcome{}, false
	}

	word, size, ok := h.fetch()
	if !ok {
		h.emitTrace(nil, 0, "<fault>")
		return StepOutcome{}, false
	}

	if cfg.EnableTriggers && h.Triggers.CheckOpcode(h.CurrentPC, word) {
		h.handleTriggerHit()
		return StepOutcome{}, false
	}

	var d *Decoded
	if size == 2 {
		d = DecodeCompressed(uint16(word), h.XLen, h.EnabledExtensions)
	} else {
		d = Decode(word, h.XLen, h.EnabledExtensions)
	}
	h.PC += uint64(d.Size)

	res := h.Execute(d)

	if res.Stop.Kind != StopNone {
		return res.Stop, false
	}

	if h.HasException {
		h.emitTrace(d, word, disasmStub(d))
		return StepOutcome{}, false
	}

	if h.TriggerTripped {
		h.IntRegs.UndoLastWrite()
		h.handleTriggerHit()
		return StepOutcome{}, false
	}

	countedRetire := !(h.DebugMode && h.dcsrStopcount())
	if countedRetire {
		h.RetiredInsts++
	}

	h.retireQueueAccounting(d)

	if cfg.EnableStatistics {
		h.recordStatistics(d)
	}
	h.emitTrace(d, word, disasmStub(d))

	if cfg.EnableTriggers && h.Triggers.CheckICount() {
		h.handleTriggerHit()
	}

	if h.DebugStepMode {
		h.DebugMode = true
	}

	return StepOutcome{}, countedRetire
}

// fetch implements spec.md §4.5 step 4: a 4-byte fetch is tried first;
// if it fails but the narrower 2-byte fetch succeeds and the word is
// compressed, that succeeds instead; if the 2-byte fetch succeeds but
// the word is full-size, an access fault is raised with tval = pc+2.
func (h *Hart) fetch() (word uint32, size int, ok bool) {
	if h.PC&1 != 0 {
		h.TakeTrap(CauseInstAddrMisaligned, false, h.PC, h.PC)
		return 0, 0, false
	}

	full, fullOK := h.Mem.ReadInstWord(h.PC)
	if fullOK {
		return full, wordSize(full), true
	}

	half, halfOK := h.Mem.ReadInstHalf(h.PC)
	if !halfOK {
		h.TakeTrap(CauseInstAccessFault, false, h.PC, h.PC)
		return 0, 0, false
	}
	if IsCompressed(half) {
		return uint32(half), 2, true
	}
	h.TakeTrap(CauseInstAccessFault, false, h.PC+2, h.PC)
	return 0, 0, false
}

func wordSize(word uint32) int {
	if word&0x3 == 0x3 {
		return 4
	}
	return 2
}

func (h *Hart) dcsrStopcount() bool {
	dcsr := h.CSRs.MustRead(CsrDcsr)
	return dcsr&(1<<10) != 0
}

// pollInterrupts implements spec.md §4.5 step 1: NMI takes precedence
// over maskable interrupts, which are checked in the fixed priority
// order M-external > M-local > M-software > M-timer > M-int-timer0 >
// M-int-timer1, each gated by MSTATUS.MIE and MIE ∩ MIP.
func (h *Hart) pollInterrupts() {
	if h.NMIPending() {
		return
	}
	status := h.CSRs.MustRead(CsrMstatus)
	if status&(1<<mstatusMIEBit) == 0 {
		return
	}
	mie := h.CSRs.MustRead(CsrMie)
	mip := h.CSRs.MustRead(CsrMip)
	pending := mie & mip
	for _, bit := range interruptPriority {
		if pending&(1<<bit) != 0 {
			h.TakeTrap(uint64(bit), true, 0, h.PC)
			return
		}
	}
}

// handleTriggerHit implements spec.md §4.4.3's trigger-fired path:
// enter debug mode or raise a breakpoint, per DCSR.hasEnterDebug.
func (h *Hart) handleTriggerHit() {
	h.TriggerTripped = true
	if h.Triggers.HasEnterDebug() {
		h.enterDebugMode(2) // dcsr.cause == 2: trigger
	} else {
		h.TakeTrap(CauseBreakpoint, false, h.CurrentPC, h.CurrentPC)
	}
}

// retireQueueAccounting implements spec.md §4.5 step 9.
func (h *Hart) retireQueueAccounting(d *Decoded) {
	if d.Info.Category != CatLoad {
		for _, reg := range []int{d.Rs1, d.Rs2} {
			if reg != 0 {
				h.LoadQueue.RemoveYoungestForSource(reg)
			}
		}
	}
	if destWritesIntReg(d) && d.Rd != 0 {
		// A retiring load's own entry, pushed by execLoad this step, is
		// not older than the load and stays valid.
		keepLast := d.Info.Category == CatLoad && h.LoadAddrValid && h.LoadQueue.Len() > 0
		h.LoadQueue.InvalidateOlderForDest(d.Rd)
		if keepLast {
			h.LoadQueue.entries[h.LoadQueue.Len()-1].Valid = true
		}
	}
}

func destWritesIntReg(d *Decoded) bool {
	switch d.Info.Category {
	case CatFP:
		switch d.Info.Opcode {
		case OpFmvXW, OpFmvXD, OpFeqS, OpFltS, OpFleS, OpFeqD, OpFltD, OpFleD,
			OpFclassS, OpFclassD, OpFcvtWS, OpFcvtWuS, OpFcvtLS, OpFcvtLuS,
			OpFcvtWD, OpFcvtWuD, OpFcvtLD, OpFcvtLuD:
			return true
		}
		return false
	case CatSystem:
		return false
	}
	return true
}

func (h *Hart) recordStatistics(d *Decoded) {
	val := h.IntRegs.Read(d.Rd)
	h.Stats.RecordRetire(d.Info, val)
	h.recordPerfEvents(d)
}

func (h *Hart) recordPerfEvents(d *Decoded) {
	if !h.countersOn {
		return
	}
	h.Stats.RecordEvent(EventInstCommitted)
	if d.Size == 2 {
		h.Stats.RecordEvent(EventInst16Committed)
	} else {
		h.Stats.RecordEvent(EventInst32Committed)
	}
	switch d.Info.Category {
	case CatInteger:
		h.Stats.RecordEvent(EventAlu)
	case CatBranch:
		h.Stats.RecordEvent(EventBranch)
		if h.LastBranchTaken {
			h.Stats.RecordEvent(EventBranchTaken)
		}
	case CatMultiply:
		h.Stats.RecordEvent(EventMul)
	case CatDivide:
		h.Stats.RecordEvent(EventDiv)
	case CatLoad:
		h.Stats.RecordEvent(EventLoad)
	case CatStore:
		h.Stats.RecordEvent(EventStore)
	case CatAtomic:
		switch d.Info.Opcode {
		case OpLrW, OpLrD:
			h.Stats.RecordEvent(EventLr)
		case OpScW, OpScD:
			h.Stats.RecordEvent(EventSc)
		default:
			h.Stats.RecordEvent(EventAtomic)
		}
	case CatCSR:
		h.Stats.RecordEvent(EventCsrReadWrite)
	case CatSystem:
		switch d.Info.Opcode {
		case OpEcall:
			h.Stats.RecordEvent(EventEcall)
		case OpEbreak:
			h.Stats.RecordEvent(EventEbreak)
		case OpFence:
			h.Stats.RecordEvent(EventFence)
		case OpFenceI:
			h.Stats.RecordEvent(EventFencei)
		case OpMret:
			h.Stats.RecordEvent(EventMret)
		}
	}
}

// emitTrace implements spec.md §6's trace record emission. Only
// registers/CSRs touched this instruction are reported.
func (h *Hart) emitTrace(d *Decoded, word uint32, disasm string) {
	if h.Trace == nil || !h.Trace.Enabled {
		return
	}
	var records []TraceRecord
	if reg, _ := h.IntRegs.LastWrittenWithPrev(); reg != -1 {
		records = append(records, TraceRecord{Resource: ResourceInt, Addr: uint64(reg), Value: h.IntRegs.Read(reg)})
	}
	if reg, _ := h.FPRegs.LastWrittenWithPrev(); reg != -1 {
		records = append(records, TraceRecord{Resource: ResourceFloat, Addr: uint64(reg), Value: h.FPRegs.Read(reg)})
	}
	regs, trigs := h.CSRs.LastWrittenRegs()
	for _, r := range regs {
		v, _ := h.CSRs.Read(r, PrivMachine, true)
		records = append(records, TraceRecord{Resource: ResourceCSR, Addr: uint64(r), Value: v})
	}
	for _, ix := range trigs {
		records = append(records, TraceRecord{Resource: ResourceCSR, Addr: uint64(ix)<<16 | uint64(CsrTdata1), Value: 0})
	}

	h.Trace.Emit(h.ID, h.CurrentPC, uint64(word), disasm, records)

	h.IntRegs.ClearTrace()
	h.FPRegs.ClearTrace()
	h.CSRs.ClearLastWritten()
}

// Disassembler formats a decoded instruction for trace lines. It is
// nil until cmd/riscv-sim wires in asmtext.DisassembleDecoded at
// startup (core can't import asmtext directly: asmtext imports core
// for Decoded/Opcode/ABIName). disasmStub covers the gap for anything
// that builds a Hart without setting it, such as core's own tests.
var Disassembler func(d *Decoded) string

func disasmStub(d *Decoded) string {
	if Disassembler != nil {
		return Disassembler(d)
	}
	if d == nil || d.Info == nil {
		return "?"
	}
	return fmt.Sprintf("%s x%d, x%d, x%d", d.Info.Mnemonic, d.Rd, d.Rs1, d.Rs2)
}
