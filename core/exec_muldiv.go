package core

import mbits "math/bits"

// execMulDiv implements spec.md §4.4 "Multiply/divide": division by
// zero yields all-ones (unsigned) or -1 (signed); signed overflow
// (MININT / -1) yields MININT for quotient and 0 for remainder;
// mulh* variants return the upper xlen bits of the widened product
// using the appropriate signedness of each operand.
func (h *Hart) execMulDiv(d *Decoded) {
	h.clearIllegalStreak()
	r := h.IntRegs
	xlen := h.XLen

	switch d.Info.Opcode {
	case OpMul:
		r.Write(d.Rd, r.Read(d.Rs1)*r.Read(d.Rs2))
	case OpMulh:
		r.Write(d.Rd, mulhSigned(signExtendForXlen(r.Read(d.Rs1), xlen), signExtendForXlen(r.Read(d.Rs2), xlen), xlen))
	case OpMulhsu:
		r.Write(d.Rd, mulhSU(signExtendForXlen(r.Read(d.Rs1), xlen), truncateToXlen(r.Read(d.Rs2), xlen), xlen))
	case OpMulhu:
		if xlen == XLen32 {
			r.Write(d.Rd, signExtend((truncateToXlen(r.Read(d.Rs1), xlen)*truncateToXlen(r.Read(d.Rs2), xlen))>>32, 32))
		} else {
			hi, _ := mbits.Mul64(truncateToXlen(r.Read(d.Rs1), xlen), truncateToXlen(r.Read(d.Rs2), xlen))
			r.Write(d.Rd, hi)
		}
	case OpDiv:
		a, b := signExtendForXlen(r.Read(d.Rs1), xlen), signExtendForXlen(r.Read(d.Rs2), xlen)
		r.Write(d.Rd, truncateToXlen(uint64(signedDiv(a, b)), xlen))
	case OpDivu:
		a, b := truncateToXlen(r.Read(d.Rs1), xlen), truncateToXlen(r.Read(d.Rs2), xlen)
		r.Write(d.Rd, unsignedDiv(a, b))
	case OpRem:
		a, b := signExtendForXlen(r.Read(d.Rs1), xlen), signExtendForXlen(r.Read(d.Rs2), xlen)
		r.Write(d.Rd, truncateToXlen(uint64(signedRem(a, b)), xlen))
	case OpRemu:
		a, b := truncateToXlen(r.Read(d.Rs1), xlen), truncateToXlen(r.Read(d.Rs2), xlen)
		r.Write(d.Rd, unsignedRem(a, b))

	case OpMulw:
		res := int32(uint32(r.Read(d.Rs1))) * int32(uint32(r.Read(d.Rs2)))
		r.Write(d.Rd, signExtend(uint64(uint32(res)), 32))
	case OpDivw:
		a, b := int32(uint32(r.Read(d.Rs1))), int32(uint32(r.Read(d.Rs2)))
		res := signedDiv32(a, b)
		r.Write(d.Rd, signExtend(uint64(uint32(res)), 32))
	case OpDivuw:
		a, b := uint32(r.Read(d.Rs1)), uint32(r.Read(d.Rs2))
		var res uint32
		if b == 0 {
			res = 0xFFFFFFFF
		} else {
			res = a / b
		}
		r.Write(d.Rd, signExtend(uint64(res), 32))
	case OpRemw:
		a, b := int32(uint32(r.Read(d.Rs1))), int32(uint32(r.Read(d.Rs2)))
		res := signedRem32(a, b)
		r.Write(d.Rd, signExtend(uint64(uint32(res)), 32))
	case OpRemuw:
		a, b := uint32(r.Read(d.Rs1)), uint32(r.Read(d.Rs2))
		var res uint32
		if b == 0 {
			res = a
		} else {
			res = a % b
		}
		r.Write(d.Rd, signExtend(uint64(res), 32))

	default:
		h.raiseIllegal()
	}
}

func signedDiv(a, b int64) int64 {
	if b == 0 {
		return -1
	}
	if a == minInt64(64) && b == -1 {
		return a
	}
	return a / b
}

func signedRem(a, b int64) int64 {
	if b == 0 {
		return a
	}
	if a == minInt64(64) && b == -1 {
		return 0
	}
	return a % b
}

func signedDiv32(a, b int32) int32 {
	if b == 0 {
		return -1
	}
	if a == int32(-1<<31) && b == -1 {
		return a
	}
	return a / b
}

func signedRem32(a, b int32) int32 {
	if b == 0 {
		return a
	}
	if a == int32(-1<<31) && b == -1 {
		return 0
	}
	return a % b
}

func unsignedDiv(a, b uint64) uint64 {
	if b == 0 {
		return 0xFFFFFFFFFFFFFFFF
	}
	return a / b
}

func unsignedRem(a, b uint64) uint64 {
	if b == 0 {
		return a
	}
	return a % b
}

func minInt64(xlenBits int) int64 {
	return int64(1) << (xlenBits - 1)
}

func mulhSigned(a, b int64, xlen XLen) uint64 {
	if xlen == XLen32 {
		full := int64(int32(uint32(a))) * int64(int32(uint32(b)))
		return signExtend(uint64(full>>32), 32)
	}
	hi, _ := mbits.Mul64(uint64(a), uint64(b))
	if a < 0 {
		hi -= uint64(b)
	}
	if b < 0 {
		hi -= uint64(a)
	}
	return hi
}

func mulhSU(a int64, bUnsigned uint64, xlen XLen) uint64 {
	if xlen == XLen32 {
		full := int64(int32(uint32(a))) * int64(uint32(bUnsigned))
		return signExtend(uint64(full>>32), 32)
	}
	hi, _ := mbits.Mul64(uint64(a), bUnsigned)
	if a < 0 {
		hi -= bUnsigned
	}
	return hi
}
