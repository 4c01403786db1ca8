package core

const dcsrEbreakmBit = 15

// execSystem implements spec.md §4.4 "System". ECALL raises an
// environment-call trap for the current privilege level. EBREAK enters
// debug mode when machine-mode DCSR.ebreakm is set, otherwise raises a
// breakpoint trap. MRET/SRET/URET are delegated to Hart.ExecuteRet.
// WFI and FENCE.I are no-ops; FENCE clears both speculation queues.
func (h *Hart) execSystem(d *Decoded) ExecResult {
	h.clearIllegalStreak()

	switch d.Info.Opcode {
	case OpEcall:
		switch h.Privilege {
		case PrivMachine:
			h.TakeTrap(CauseEcallM, false, 0, h.CurrentPC)
		case PrivSupervisor:
			h.TakeTrap(CauseEcallS, false, 0, h.CurrentPC)
		default:
			h.TakeTrap(CauseEcallU, false, 0, h.CurrentPC)
		}
		return ExecResult{}

	case OpEbreak:
		dcsr := h.CSRs.MustRead(CsrDcsr)
		if h.Privilege == PrivMachine && dcsr&(1<<dcsrEbreakmBit) != 0 {
			h.enterDebugMode(1) // dcsr.cause == 1: ebreak
		} else {
			h.TakeTrap(CauseBreakpoint, false, h.CurrentPC, h.CurrentPC)
		}
		return ExecResult{}

	case OpMret:
		h.ExecuteRet(PrivMachine)
		return ExecResult{}
	case OpSret:
		h.ExecuteRet(PrivSupervisor)
		return ExecResult{}
	case OpUret:
		h.ExecuteRet(PrivUser)
		return ExecResult{}

	case OpWfi, OpFenceI, OpFence:
		if d.Info.Opcode == OpFence {
			h.StoreQueue.Reset()
			h.LoadQueue.Reset()
		}
		return ExecResult{}

	default:
		h.raiseIllegal()
		return ExecResult{}
	}
}

// enterDebugMode implements the debug-mode entry spec.md §4.4.3
// describes for trigger hits and EBREAK: set DCSR.cause, copy pc into
// DPC, and halt.
func (h *Hart) enterDebugMode(cause uint64) {
	dcsr := h.CSRs.MustRead(CsrDcsr)
	dcsr = (dcsr &^ (0x7 << 6)) | ((cause & 0x7) << 6)
	h.CSRs.MustPoke(CsrDcsr, dcsr)
	h.CSRs.MustPoke(CsrDpc, h.CurrentPC&^1)
	h.DebugMode = true
}
