package core

// ExecResult is the per-instruction result of Hart.Execute. Stop.Kind
// is StopNone unless the instruction raised a Stop condition (a store to
// tohost), per spec.md §9; no instruction, ECALL included, yields Exit.
type ExecResult struct {
	Stop StepOutcome
}

// Execute dispatches a decoded instruction to its semantic handler
// (spec.md §4.4). It may call Memory, the register files, the CSR
// file, the speculation queues, and the trap unit; on an architectural
// fault it calls Hart.TakeTrap itself, directly or through raiseIllegal
// (setting HasException), and
// returns without the caller needing special-case logic.
func (h *Hart) Execute(d *Decoded) ExecResult {
	if d.Info.Opcode == OpIllegal {
		h.raiseIllegal()
		return ExecResult{}
	}

	switch d.Info.Category {
	case CatInteger:
		h.execInteger(d)
	case CatBranch:
		h.execBranch(d)
	case CatJump:
		h.execJump(d)
	case CatLoad:
		h.execLoad(d)
	case CatStore:
		return h.execStore(d)
	case CatMultiply, CatDivide:
		h.execMulDiv(d)
	case CatAtomic:
		h.execAtomic(d)
	case CatCSR:
		h.execCSR(d)
	case CatFP:
		h.execFP(d)
	case CatSystem:
		return h.execSystem(d)
	default:
		h.raiseIllegal()
	}
	return ExecResult{}
}

func (h *Hart) raiseIllegal() {
	h.consecutiveIllegal++
	h.TakeTrap(CauseIllegalInstruction, false, 0, h.CurrentPC)
}

func (h *Hart) clearIllegalStreak() {
	h.consecutiveIllegal = 0
}

// ConsecutiveIllegalCount returns the current watchdog counter, for
// the run loop's >64-consecutive-illegal-ops Stop condition (spec.md §7.4).
func (h *Hart) ConsecutiveIllegalCount() int {
	return h.consecutiveIllegal
}
