package core

// execCSR implements spec.md §4.3/§4.4 "CSR": CSRRW/S/C[I] read the old
// value into rd (skipped for RW when rd==x0), compute new = old op
// operand, and write it subject to the write mask. Writing x0 for the
// S/C register forms or immediate 0 for the SI/CI forms suppresses the
// write entirely (no side effects, no last-written record). MINSTRET
// and MCYCLE are incremented before the write takes effect, then
// decremented afterward, to compensate for the run loop's later
// auto-increment of the same tied counter.
func (h *Hart) execCSR(d *Decoded) {
	h.clearIllegalStreak()
	num := d.CSR

	old, ok := h.CSRs.Read(num, h.Privilege, h.DebugMode)
	if !ok {
		h.raiseIllegal()
		return
	}

	var operand uint64
	var isImm bool
	switch d.Info.Opcode {
	case OpCsrrw, OpCsrrs, OpCsrrc:
		operand = h.IntRegs.Read(d.Rs1)
	case OpCsrrwi, OpCsrrsi, OpCsrrci:
		operand = d.Imm
		isImm = true
	default:
		h.raiseIllegal()
		return
	}

	skipRead := (d.Info.Opcode == OpCsrrw || d.Info.Opcode == OpCsrrwi) && d.Rd == 0
	if !skipRead {
		h.IntRegs.Write(d.Rd, truncateToXlen(old, h.XLen))
	}

	suppressWrite := false
	switch d.Info.Opcode {
	case OpCsrrs, OpCsrrc:
		suppressWrite = d.Rs1 == 0
	case OpCsrrsi, OpCsrrci:
		suppressWrite = isImm && operand == 0
	}
	if suppressWrite {
		return
	}

	var newVal uint64
	switch d.Info.Opcode {
	case OpCsrrw, OpCsrrwi:
		newVal = operand
	case OpCsrrs, OpCsrrsi:
		newVal = old | operand
	case OpCsrrc, OpCsrrci:
		newVal = old &^ operand
	}

	tied := h.tiedCounter(num)
	if tied != nil {
		*tied++
	}
	h.CSRs.Write(num, h.Privilege, h.DebugMode, newVal)
	if tied != nil {
		*tied--
	}
}

// tiedCounter returns the hart-owned storage word backing a CSR that
// the run loop auto-increments at retirement (spec.md §4.4), or nil.
func (h *Hart) tiedCounter(num uint16) *uint64 {
	switch num {
	case CsrMinstret:
		return &h.RetiredInsts
	case CsrMcycle:
		return &h.CycleCount
	}
	return nil
}
