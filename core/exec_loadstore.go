package core

import (
	"bufio"
	"os"
)

var stdinReader = bufio.NewReader(os.Stdin)

func sizeOf(op Opcode) int {
	switch op {
	case OpLb, OpLbu, OpSb:
		return SizeByte
	case OpLh, OpLhu, OpSh:
		return SizeHalf
	case OpLw, OpLwu, OpSw:
		return SizeWord
	case OpLd, OpSd:
		return SizeDWord
	}
	return SizeByte
}

// crossesRegion reports whether a misaligned access spanning
// [addr, addr+size) straddles two differently-kinded regions, the
// condition spec.md §4.4 requires before a misaligned load/store
// becomes a fault rather than a silently-tolerated unaligned access.
func crossesRegion(mem Memory, addr uint64, size int) bool {
	first := mem.RegionOf(addr)
	return mem.RegionOf(addr+uint64(size)-1) != first
}

// execLoad implements spec.md §4.4 "Loads". A read from the
// console-in address pulls one byte from stdin instead of touching
// backing memory; otherwise the effective address is checked for
// misalignment-across-region-boundary, then for an access fault
// (including the force-fail test hooks), and on success the value is
// sign- or zero-extended and written to rd. A successful load outside
// DCCM is pushed onto the load queue.
func (h *Hart) execLoad(d *Decoded) {
	h.clearIllegalStreak()
	addr := truncateToXlen(h.IntRegs.Read(d.Rs1)+d.Imm, h.XLen)
	size := sizeOf(d.Info.Opcode)

	if h.ConsoleIOAddr != 0 && addr == h.ConsoleIOAddr && size == SizeByte {
		b, err := stdinReader.ReadByte()
		if err != nil {
			h.IntRegs.Write(d.Rd, ^uint64(0))
		} else {
			h.IntRegs.Write(d.Rd, uint64(b))
		}
		return
	}

	if size > 1 && addr%uint64(size) != 0 && crossesRegion(h.Mem, addr, size) {
		h.TakeTrap(CauseLoadAddrMisaligned, false, addr, h.CurrentPC)
		return
	}

	var raw uint64
	var ok bool
	switch size {
	case SizeByte:
		var v uint8
		v, ok = h.Mem.ReadByte(addr)
		raw = uint64(v)
	case SizeHalf:
		var v uint16
		v, ok = h.Mem.ReadHalf(addr)
		raw = uint64(v)
	case SizeWord:
		var v uint32
		v, ok = h.Mem.ReadWord(addr)
		raw = uint64(v)
	case SizeDWord:
		raw, ok = h.Mem.ReadDWord(addr)
	}
	if !ok {
		h.TakeTrap(CauseLoadAccessFault, false, addr, h.CurrentPC)
		return
	}

	var result uint64
	if d.Info.Signed {
		switch size {
		case SizeByte:
			result = uint64(int64(int8(uint8(raw))))
		case SizeHalf:
			result = uint64(int64(int16(uint16(raw))))
		case SizeWord:
			result = uint64(int64(int32(uint32(raw))))
		default:
			result = raw
		}
	} else {
		result = raw
	}
	prev := h.IntRegs.Read(d.Rd)
	h.IntRegs.Write(d.Rd, truncateToXlen(result, h.XLen))

	if h.LoadQueue.max > 0 && !h.Mem.IsInDCCM(addr) {
		h.LoadQueue.Push(LoadQueueEntry{
			Size: size, Addr: addr, TargetReg: d.Rd,
			PrevValue: prev, Valid: true,
		})
		h.LoadAddrValid = true
	}
}

// execStore implements spec.md §4.4 "Stores". A write to the tohost
// address with a non-zero value raises StopStop (test harness exit
// protocol, spec.md §6). A write to the console-out address emits the
// byte and performs no memory access. Otherwise the effective address
// is checked for a misaligned region-crossing fault and then an access
// fault; a successful store outside DCCM is pushed onto the store
// queue with its old/new byte values for later rollback.
func (h *Hart) execStore(d *Decoded) ExecResult {
	h.clearIllegalStreak()
	addr := truncateToXlen(h.IntRegs.Read(d.Rs1)+d.Imm, h.XLen)
	size := sizeOf(d.Info.Opcode)
	val := truncateToXlen(h.IntRegs.Read(d.Rs2), h.XLen)

	if h.ToHostAddr != 0 && addr == h.ToHostAddr && val != 0 {
		return ExecResult{Stop: StepOutcome{Kind: StopStop, Value: val}}
	}
	if h.ConsoleIOAddr != 0 && addr == h.ConsoleIOAddr && size == SizeByte {
		os.Stdout.Write([]byte{byte(val)})
		return ExecResult{}
	}

	if size > 1 && addr%uint64(size) != 0 && crossesRegion(h.Mem, addr, size) {
		h.TakeTrap(CauseStoreAddrMisaligned, false, addr, h.CurrentPC)
		return ExecResult{}
	}

	var old uint64
	var ok bool
	switch size {
	case SizeByte:
		old, _ = readOldByte(h.Mem, addr)
		ok = h.Mem.WriteByte(addr, uint8(val))
	case SizeHalf:
		old, _ = readOldHalf(h.Mem, addr)
		ok = h.Mem.WriteHalf(addr, uint16(val))
	case SizeWord:
		old, _ = readOldWord(h.Mem, addr)
		ok = h.Mem.WriteWord(addr, uint32(val))
	case SizeDWord:
		old, _ = h.Mem.ReadDWord(addr)
		ok = h.Mem.WriteDWord(addr, val)
	}
	if !ok {
		h.TakeTrap(CauseStoreAccessFault, false, addr, h.CurrentPC)
		return ExecResult{}
	}

	if h.HasLR && overlaps(addr, size, h.LRAddr, h.LRSize) {
		h.HasLR = false
	}

	if h.StoreQueue.max > 0 && !h.Mem.IsInDCCM(addr) {
		h.StoreQueue.Push(StoreQueueEntry{Size: size, Addr: addr, NewBytes: val, OldBytes: old})
	}
	return ExecResult{}
}

func readOldByte(mem Memory, addr uint64) (uint64, bool) {
	v, ok := mem.ReadByte(addr)
	return uint64(v), ok
}

func readOldHalf(mem Memory, addr uint64) (uint64, bool) {
	v, ok := mem.ReadHalf(addr)
	return uint64(v), ok
}

func readOldWord(mem Memory, addr uint64) (uint64, bool) {
	v, ok := mem.ReadWord(addr)
	return uint64(v), ok
}
