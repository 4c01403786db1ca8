package core

// execAtomic implements spec.md §4.4 "Atomic (A)": LR places a load
// reservation covering the accessed address and size; SC succeeds (and
// clears the reservation) only if a live reservation still covers the
// exact address, failing with a 1 in rd and leaving memory untouched
// otherwise; AMO* read-modify-write the target and always clear any
// reservation the store overlaps, per the standard "any store to the
// reserved range drops the reservation" rule.
func (h *Hart) execAtomic(d *Decoded) {
	h.clearIllegalStreak()
	r := h.IntRegs
	wide := isAtomicWide(d.Info.Opcode)
	size := SizeWord
	if wide {
		size = SizeDWord
	}
	addr := r.Read(d.Rs1)

	switch d.Info.Opcode {
	case OpLrW, OpLrD:
		var raw uint64
		var ok bool
		if wide {
			raw, ok = h.Mem.ReadDWord(addr)
		} else {
			var v uint32
			v, ok = h.Mem.ReadWord(addr)
			raw = uint64(int64(int32(v)))
		}
		if !ok {
			h.TakeTrap(CauseLoadAccessFault, false, addr, h.CurrentPC)
			return
		}
		h.HasLR = true
		h.LRAddr = addr
		h.LRSize = size
		r.Write(d.Rd, truncateToXlen(raw, h.XLen))
		return

	case OpScW, OpScD:
		if !h.HasLR || h.LRAddr != addr || h.LRSize != size {
			r.Write(d.Rd, 1)
			h.HasLR = false
			return
		}
		val := r.Read(d.Rs2)
		var ok bool
		if wide {
			ok = h.Mem.WriteDWord(addr, val)
		} else {
			ok = h.Mem.WriteWord(addr, uint32(val))
		}
		h.HasLR = false
		if !ok {
			h.TakeTrap(CauseStoreAccessFault, false, addr, h.CurrentPC)
			return
		}
		r.Write(d.Rd, 0)
		return
	}

	var old uint64
	var ok bool
	if wide {
		old, ok = h.Mem.ReadDWord(addr)
	} else {
		var v uint32
		v, ok = h.Mem.ReadWord(addr)
		old = uint64(int64(int32(v)))
	}
	if !ok {
		h.TakeTrap(CauseLoadAccessFault, false, addr, h.CurrentPC)
		return
	}

	operand := r.Read(d.Rs2)
	xlen := h.XLen
	if !wide {
		xlen = XLen32
	}
	var result uint64
	switch d.Info.Opcode {
	case OpAmoswapW, OpAmoswapD:
		result = operand
	case OpAmoaddW, OpAmoaddD:
		result = old + operand
	case OpAmoxorW, OpAmoxorD:
		result = old ^ operand
	case OpAmoandW, OpAmoandD:
		result = old & operand
	case OpAmoorW, OpAmoorD:
		result = old | operand
	case OpAmominW, OpAmominD:
		result = minMax(old, operand, xlen, true, true)
	case OpAmomaxW, OpAmomaxD:
		result = minMax(old, operand, xlen, false, true)
	case OpAmominuW, OpAmominuD:
		result = minMax(old, operand, xlen, true, false)
	case OpAmomaxuW, OpAmomaxuD:
		result = minMax(old, operand, xlen, false, false)
	default:
		h.raiseIllegal()
		return
	}

	if wide {
		ok = h.Mem.WriteDWord(addr, result)
	} else {
		ok = h.Mem.WriteWord(addr, uint32(result))
	}
	if !ok {
		h.TakeTrap(CauseStoreAccessFault, false, addr, h.CurrentPC)
		return
	}
	if h.HasLR && overlaps(addr, size, h.LRAddr, h.LRSize) {
		h.HasLR = false
	}
	r.Write(d.Rd, truncateToXlen(old, h.XLen))
}

func isAtomicWide(op Opcode) bool {
	switch op {
	case OpLrD, OpScD, OpAmoswapD, OpAmoaddD, OpAmoxorD, OpAmoandD, OpAmoorD,
		OpAmominD, OpAmomaxD, OpAmominuD, OpAmomaxuD:
		return true
	}
	return false
}
