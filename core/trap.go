package core

// mstatus bit positions this core cares about.
const (
	mstatusMIEBit  = 3
	mstatusMPIEBit = 7
	mstatusMPPLo   = 11 // MPP occupies bits 11:12
)

// TakeTrap implements the single trap-dispatch entry point of spec.md
// §4.4.1, used for both synchronous exceptions and asynchronous
// interrupts. pcToSave is the instruction address to record in xEPC
// (the faulting/interrupted instruction, not the next one).
func (h *Hart) TakeTrap(cause uint64, isInterrupt bool, tval uint64, pcToSave uint64) {
	origin := h.Privilege
	h.Privilege = PrivMachine

	epc := pcToSave &^ 1
	h.CSRs.MustPoke(CsrMepc, epc)

	fullCause := cause
	if isInterrupt {
		fullCause |= 1 << 63
	}
	h.CSRs.MustPoke(CsrMcause, fullCause)
	h.CSRs.MustPoke(CsrMtval, tval)

	status := h.CSRs.MustRead(CsrMstatus)
	mie := status&(1<<mstatusMIEBit) != 0
	status &^= 1 << mstatusMPIEBit
	if mie {
		status |= 1 << mstatusMPIEBit
	}
	status &^= 1 << mstatusMIEBit
	status &^= uint64(0x3) << mstatusMPPLo
	status |= uint64(origin) << mstatusMPPLo
	h.CSRs.MustPoke(CsrMstatus, status)

	mtvec := h.CSRs.MustRead(CsrMtvec)
	base := mtvec &^ 0x3
	mode := mtvec & 0x3
	if mode == 1 && isInterrupt {
		h.PC = (base + 4*cause) &^ 1
	} else {
		h.PC = base &^ 1
	}

	h.HasLR = false
	h.HasException = true
}

// TakeNMI implements spec.md §4.4.1's NMI entry: MCAUSE is set
// unconditionally (no sign-bit convention), MTVAL is zeroed, and
// control jumps to a fixed handler address. The first NMI latches the
// cause; later NMIs before acknowledgement do not overwrite it.
func (h *Hart) TakeNMI(cause uint64, nmiHandlerAddr uint64) {
	if !h.nmiPending {
		h.nmiPending = true
		h.nmiCause = cause
	}
	h.CSRs.MustPoke(CsrMcause, h.nmiCause)
	h.CSRs.MustPoke(CsrMtval, 0)
	h.CSRs.MustPoke(CsrMepc, h.CurrentPC&^1)

	dcsr := h.CSRs.MustRead(CsrDcsr)
	dcsr |= 1 << 3 // nmip bit
	h.CSRs.MustPoke(CsrDcsr, dcsr)

	h.PC = nmiHandlerAddr &^ 1
	h.HasLR = false
	h.HasException = true
}

// AckNMI clears the latched NMI so the next bus error can latch a
// fresh cause.
func (h *Hart) AckNMI() {
	h.nmiPending = false
	dcsr := h.CSRs.MustRead(CsrDcsr)
	dcsr &^= 1 << 3
	h.CSRs.MustPoke(CsrDcsr, dcsr)
}

// NMIPending reports DCSR.nmip, mirroring the hart's own latched flag
// (spec.md §3 "DCSR.nmip mirrors the hart's NMI-pending flag").
func (h *Hart) NMIPending() bool {
	return h.nmiPending
}

// ExecuteRet implements MRET/SRET/URET (spec.md §4.4 "System"): restore
// xIE <- xPIE, set xPIE <- 1, set xPP <- least-privileged mode, set
// privilege <- saved xPP, set pc <- xEPC & ~1.
func (h *Hart) ExecuteRet(from Privilege) {
	switch from {
	case PrivMachine:
		status := h.CSRs.MustRead(CsrMstatus)
		mpie := status&(1<<mstatusMPIEBit) != 0
		mpp := Privilege((status >> mstatusMPPLo) & 0x3)
		status &^= 1 << mstatusMIEBit
		if mpie {
			status |= 1 << mstatusMIEBit
		}
		status |= 1 << mstatusMPIEBit
		status &^= uint64(0x3) << mstatusMPPLo
		// least-privileged mode the MPP can be set to is U, unless
		// only M/S are implemented, in which case M (handled by
		// leaving it 0/PrivUser here, matching a core with U support).
		h.CSRs.MustPoke(CsrMstatus, status)
		h.Privilege = mpp
		epc := h.CSRs.MustRead(CsrMepc)
		h.PC = epc &^ 1
	case PrivSupervisor:
		status := h.CSRs.MustRead(CsrMstatus)
		const spieBit = 5
		const spieSaveBit = 1
		const sppBit = 8
		spie := status&(1<<spieBit) != 0
		spp := Privilege((status >> sppBit) & 0x1)
		status &^= 1 << spieSaveBit
		if spie {
			status |= 1 << spieSaveBit
		}
		status |= 1 << spieBit
		status &^= 1 << sppBit
		h.CSRs.MustPoke(CsrMstatus, status)
		h.Privilege = spp
		epc := h.CSRs.MustRead(CsrSepc)
		h.PC = epc &^ 1
	case PrivUser:
		h.Privilege = PrivUser
	}
}
