package core

// execBranch implements spec.md §4.4 "Branches": the comparison is
// always on the full register value (signed or unsigned per opcode);
// on a taken branch, pc is set to CurrentPC + sign-extended offset.
// LastBranchTaken records whether the branch fell through or jumped,
// for statistics and trace annotation.
func (h *Hart) execBranch(d *Decoded) {
	h.clearIllegalStreak()
	r := h.IntRegs
	a, b := r.Read(d.Rs1), r.Read(d.Rs2)

	var taken bool
	switch d.Info.Opcode {
	case OpBeq:
		taken = a == b
	case OpBne:
		taken = a != b
	case OpBlt:
		taken = int64(signExtendForXlen(a, h.XLen)) < int64(signExtendForXlen(b, h.XLen))
	case OpBge:
		taken = int64(signExtendForXlen(a, h.XLen)) >= int64(signExtendForXlen(b, h.XLen))
	case OpBltu:
		taken = a < b
	case OpBgeu:
		taken = a >= b
	default:
		h.raiseIllegal()
		return
	}

	h.LastBranchTaken = taken
	if taken {
		h.PC = truncateToXlen(h.CurrentPC+d.Imm, h.XLen)
	}
}

// execJump implements JAL/JALR (spec.md §4.4 "Branches"): rd receives
// the return address (pc of the instruction following the jump); the
// new pc is computed from CurrentPC (JAL) or rs1 (JALR), with JALR's
// target forced even by clearing bit 0.
func (h *Hart) execJump(d *Decoded) {
	h.clearIllegalStreak()
	r := h.IntRegs

	linkPC := h.CurrentPC + uint64(d.Size)
	switch d.Info.Opcode {
	case OpJal:
		r.Write(d.Rd, truncateToXlen(linkPC, h.XLen))
		h.PC = truncateToXlen(h.CurrentPC+d.Imm, h.XLen)
	case OpJalr:
		target := (r.Read(d.Rs1) + d.Imm) &^ 1
		r.Write(d.Rd, truncateToXlen(linkPC, h.XLen))
		h.PC = truncateToXlen(target, h.XLen)
	default:
		h.raiseIllegal()
		return
	}
	h.LastBranchTaken = true
}
