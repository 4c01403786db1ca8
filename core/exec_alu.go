package core

import mbits "math/bits"

// execInteger implements spec.md §4.4 "Integer arithmetic/logical":
// two-operand forms write a single register; overflow wraps in two's
// complement; variable shifts mask the shift amount to xlen-1 bits;
// W-form (32-bit-result) operations sign-extend their result to 64 bits.
func (h *Hart) execInteger(d *Decoded) {
	h.clearIllegalStreak()
	r := h.IntRegs

	switch d.Info.Opcode {
	case OpLui:
		r.Write(d.Rd, signExtend(d.Imm, 32))
	case OpAuipc:
		r.Write(d.Rd, truncateToXlen(h.CurrentPC+signExtend(d.Imm, 32), h.XLen))
		return

	case OpAdd:
		r.Write(d.Rd, r.Read(d.Rs1)+r.Read(d.Rs2))
	case OpSub:
		r.Write(d.Rd, r.Read(d.Rs1)-r.Read(d.Rs2))
	case OpSll:
		sh := r.Read(d.Rs2) & r.ShiftMask()
		r.Write(d.Rd, r.Read(d.Rs1)<<sh)
	case OpSlt:
		if int64(r.Read(d.Rs1)) < int64(r.Read(d.Rs2)) {
			r.Write(d.Rd, 1)
		} else {
			r.Write(d.Rd, 0)
		}
	case OpSltu:
		if r.Read(d.Rs1) < r.Read(d.Rs2) {
			r.Write(d.Rd, 1)
		} else {
			r.Write(d.Rd, 0)
		}
	case OpXor:
		r.Write(d.Rd, r.Read(d.Rs1)^r.Read(d.Rs2))
	case OpSrl:
		sh := r.Read(d.Rs2) & r.ShiftMask()
		r.Write(d.Rd, r.Read(d.Rs1)>>sh)
	case OpSra:
		sh := r.Read(d.Rs2) & r.ShiftMask()
		v := signExtendForXlen(r.Read(d.Rs1), h.XLen)
		r.Write(d.Rd, uint64(v>>sh))
	case OpOr:
		r.Write(d.Rd, r.Read(d.Rs1)|r.Read(d.Rs2))
	case OpAnd:
		r.Write(d.Rd, r.Read(d.Rs1)&r.Read(d.Rs2))
	case OpMin:
		r.Write(d.Rd, minMax(r.Read(d.Rs1), r.Read(d.Rs2), h.XLen, true, true))
	case OpMax:
		r.Write(d.Rd, minMax(r.Read(d.Rs1), r.Read(d.Rs2), h.XLen, false, true))
	case OpMinu:
		r.Write(d.Rd, minMax(r.Read(d.Rs1), r.Read(d.Rs2), h.XLen, true, false))
	case OpMaxu:
		r.Write(d.Rd, minMax(r.Read(d.Rs1), r.Read(d.Rs2), h.XLen, false, false))

	case OpAddi:
		r.Write(d.Rd, r.Read(d.Rs1)+d.Imm)
	case OpSlti:
		if int64(r.Read(d.Rs1)) < int64(d.Imm) {
			r.Write(d.Rd, 1)
		} else {
			r.Write(d.Rd, 0)
		}
	case OpSltiu:
		if r.Read(d.Rs1) < d.Imm {
			r.Write(d.Rd, 1)
		} else {
			r.Write(d.Rd, 0)
		}
	case OpXori:
		r.Write(d.Rd, r.Read(d.Rs1)^d.Imm)
	case OpOri:
		r.Write(d.Rd, r.Read(d.Rs1)|d.Imm)
	case OpAndi:
		r.Write(d.Rd, r.Read(d.Rs1)&d.Imm)
	case OpSlli:
		r.Write(d.Rd, r.Read(d.Rs1)<<d.Imm)
	case OpSrli:
		r.Write(d.Rd, r.Read(d.Rs1)>>d.Imm)
	case OpSrai:
		v := signExtendForXlen(r.Read(d.Rs1), h.XLen)
		r.Write(d.Rd, uint64(v>>d.Imm))

	case OpAddw:
		res := uint32(r.Read(d.Rs1)) + uint32(r.Read(d.Rs2))
		r.Write(d.Rd, signExtend(uint64(res), 32))
	case OpSubw:
		res := uint32(r.Read(d.Rs1)) - uint32(r.Read(d.Rs2))
		r.Write(d.Rd, signExtend(uint64(res), 32))
	case OpSllw:
		sh := r.Read(d.Rs2) & 31
		res := uint32(r.Read(d.Rs1)) << sh
		r.Write(d.Rd, signExtend(uint64(res), 32))
	case OpSrlw:
		sh := r.Read(d.Rs2) & 31
		res := uint32(r.Read(d.Rs1)) >> sh
		r.Write(d.Rd, signExtend(uint64(res), 32))
	case OpSraw:
		sh := r.Read(d.Rs2) & 31
		res := int32(uint32(r.Read(d.Rs1))) >> sh
		r.Write(d.Rd, signExtend(uint64(uint32(res)), 32))
	case OpAddiw:
		res := uint32(r.Read(d.Rs1)) + uint32(d.Imm)
		r.Write(d.Rd, signExtend(uint64(res), 32))
	case OpSlliw:
		res := uint32(r.Read(d.Rs1)) << d.Imm
		r.Write(d.Rd, signExtend(uint64(res), 32))
	case OpSrliw:
		res := uint32(r.Read(d.Rs1)) >> d.Imm
		r.Write(d.Rd, signExtend(uint64(res), 32))
	case OpSraiw:
		res := int32(uint32(r.Read(d.Rs1))) >> d.Imm
		r.Write(d.Rd, signExtend(uint64(uint32(res)), 32))

	case OpClz:
		v := truncateToXlen(r.Read(d.Rs1), h.XLen)
		if h.XLen == XLen32 {
			r.Write(d.Rd, uint64(mbits.LeadingZeros32(uint32(v))))
		} else {
			r.Write(d.Rd, uint64(mbits.LeadingZeros64(v)))
		}
	case OpCtz:
		v := truncateToXlen(r.Read(d.Rs1), h.XLen)
		if h.XLen == XLen32 {
			n := mbits.TrailingZeros32(uint32(v))
			if v == 0 {
				n = 32
			}
			r.Write(d.Rd, uint64(n))
		} else {
			n := mbits.TrailingZeros64(v)
			if v == 0 {
				n = 64
			}
			r.Write(d.Rd, uint64(n))
		}
	case OpCpop:
		v := truncateToXlen(r.Read(d.Rs1), h.XLen)
		r.Write(d.Rd, uint64(mbits.OnesCount64(v)))
	case OpSextB:
		r.Write(d.Rd, signExtend(r.Read(d.Rs1), 8))
	case OpSextH:
		r.Write(d.Rd, signExtend(r.Read(d.Rs1), 16))

	default:
		h.raiseIllegal()
	}
}

func signExtendForXlen(v uint64, xlen XLen) int64 {
	if xlen == XLen32 {
		return int64(int32(uint32(v)))
	}
	return int64(v)
}

func minMax(a, b uint64, xlen XLen, wantMin bool, signed bool) uint64 {
	var less bool
	if signed {
		less = signExtendForXlen(a, xlen) < signExtendForXlen(b, xlen)
	} else {
		less = a < b
	}
	if wantMin == less {
		return a
	}
	return b
}
