package core

import "math"

// Rounding-mode encodings (RISC-V F/D extension, table in the base ISA
// manual). 5 and 6 are reserved and illegal if selected explicitly or
// via FRM in dynamic mode.
const (
	rmRNE = 0
	rmRTZ = 1
	rmRDN = 2
	rmRUP = 3
	rmRMM = 4
	rmDyn = 7
)

const (
	fflagNX = 1 << 0
	fflagUF = 1 << 1
	fflagOF = 1 << 2
	fflagDZ = 1 << 3
	fflagNV = 1 << 4
)

// resolveRM implements spec.md §4.4 "Floating-point"'s effective
// rounding mode resolution: the operand rm field, or FCSR.FRM when the
// field encodes Dynamic; 5 and 6 are always illegal.
func (h *Hart) resolveRM(instRM uint32) (uint32, bool) {
	rm := instRM
	if rm == rmDyn {
		rm = uint32(h.CSRs.MustRead(CsrFrm))
	}
	if rm == 5 || rm == 6 || rm > 7 {
		return 0, false
	}
	return rm, true
}

func (h *Hart) accrueFlags(bits uint32) {
	if bits == 0 {
		return
	}
	cur := h.CSRs.MustRead(CsrFflags)
	h.CSRs.MustPoke(CsrFflags, cur|uint64(bits))
}

// execFP implements spec.md §4.4 "Floating-point": arithmetic ops
// clear/derive exception flags around the host operation, FSGNJ*
// manipulates only the sign bit, FCVT* saturate on out-of-range
// conversions, and FCLASS reports the standard 10-bit classification
// mask.
func (h *Hart) execFP(d *Decoded) {
	h.clearIllegalStreak()

	rm, rmOK := h.resolveRM(d.RM)
	switch d.Info.Opcode {
	case OpFaddS, OpFsubS, OpFmulS, OpFdivS, OpFsqrtS,
		OpFaddD, OpFsubD, OpFmulD, OpFdivD, OpFsqrtD,
		OpFcvtWS, OpFcvtWuS, OpFcvtLS, OpFcvtLuS, OpFcvtWD, OpFcvtWuD, OpFcvtLD, OpFcvtLuD,
		OpFcvtSW, OpFcvtSWu, OpFcvtSL, OpFcvtSLu, OpFcvtDW, OpFcvtDWu, OpFcvtDL, OpFcvtDLu,
		OpFcvtSD, OpFcvtDS:
		if !rmOK {
			h.raiseIllegal()
			return
		}
	}

	r := h.FPRegs
	ir := h.IntRegs

	switch d.Info.Opcode {
	case OpFaddS:
		a, b := math.Float32frombits(r.ReadSingle(d.Rs1)), math.Float32frombits(r.ReadSingle(d.Rs2))
		res := a + b
		r.WriteSingle(d.Rd, math.Float32bits(res))
		h.accrueFlags(flagsForResult32(res))
	case OpFsubS:
		a, b := math.Float32frombits(r.ReadSingle(d.Rs1)), math.Float32frombits(r.ReadSingle(d.Rs2))
		res := a - b
		r.WriteSingle(d.Rd, math.Float32bits(res))
		h.accrueFlags(flagsForResult32(res))
	case OpFmulS:
		a, b := math.Float32frombits(r.ReadSingle(d.Rs1)), math.Float32frombits(r.ReadSingle(d.Rs2))
		res := a * b
		r.WriteSingle(d.Rd, math.Float32bits(res))
		h.accrueFlags(flagsForResult32(res))
	case OpFdivS:
		a, b := math.Float32frombits(r.ReadSingle(d.Rs1)), math.Float32frombits(r.ReadSingle(d.Rs2))
		res := a / b
		r.WriteSingle(d.Rd, math.Float32bits(res))
		flags := flagsForResult32(res)
		if b == 0 && a != 0 && !math.IsNaN(float64(a)) {
			flags |= fflagDZ
		}
		h.accrueFlags(flags)
	case OpFsqrtS:
		a := math.Float32frombits(r.ReadSingle(d.Rs1))
		res := float32(math.Sqrt(float64(a)))
		r.WriteSingle(d.Rd, math.Float32bits(res))
		flags := flagsForResult32(res)
		if a < 0 {
			flags |= fflagNV
		}
		h.accrueFlags(flags)

	case OpFaddD:
		a, b := math.Float64frombits(r.Read(d.Rs1)), math.Float64frombits(r.Read(d.Rs2))
		res := a + b
		r.Write(d.Rd, math.Float64bits(res))
		h.accrueFlags(flagsForResult64(res))
	case OpFsubD:
		a, b := math.Float64frombits(r.Read(d.Rs1)), math.Float64frombits(r.Read(d.Rs2))
		res := a - b
		r.Write(d.Rd, math.Float64bits(res))
		h.accrueFlags(flagsForResult64(res))
	case OpFmulD:
		a, b := math.Float64frombits(r.Read(d.Rs1)), math.Float64frombits(r.Read(d.Rs2))
		res := a * b
		r.Write(d.Rd, math.Float64bits(res))
		h.accrueFlags(flagsForResult64(res))
	case OpFdivD:
		a, b := math.Float64frombits(r.Read(d.Rs1)), math.Float64frombits(r.Read(d.Rs2))
		res := a / b
		r.Write(d.Rd, math.Float64bits(res))
		flags := flagsForResult64(res)
		if b == 0 && a != 0 && !math.IsNaN(a) {
			flags |= fflagDZ
		}
		h.accrueFlags(flags)
	case OpFsqrtD:
		a := math.Float64frombits(r.Read(d.Rs1))
		res := math.Sqrt(a)
		r.Write(d.Rd, math.Float64bits(res))
		flags := flagsForResult64(res)
		if a < 0 {
			flags |= fflagNV
		}
		h.accrueFlags(flags)

	case OpFminS, OpFmaxS:
		a, b := math.Float32frombits(r.ReadSingle(d.Rs1)), math.Float32frombits(r.ReadSingle(d.Rs2))
		res, flags := minMaxFloat32(a, b, d.Info.Opcode == OpFminS)
		r.WriteSingle(d.Rd, math.Float32bits(res))
		h.accrueFlags(flags)
	case OpFminD, OpFmaxD:
		a, b := math.Float64frombits(r.Read(d.Rs1)), math.Float64frombits(r.Read(d.Rs2))
		res, flags := minMaxFloat64(a, b, d.Info.Opcode == OpFminD)
		r.Write(d.Rd, math.Float64bits(res))
		h.accrueFlags(flags)

	case OpFsgnjS, OpFsgnjnS, OpFsgnjxS:
		a, b := r.ReadSingle(d.Rs1), r.ReadSingle(d.Rs2)
		r.WriteSingle(d.Rd, sgnj32(a, b, d.Info.Opcode))
	case OpFsgnjD, OpFsgnjnD, OpFsgnjxD:
		a, b := r.Read(d.Rs1), r.Read(d.Rs2)
		r.Write(d.Rd, sgnj64(a, b, d.Info.Opcode))

	case OpFmvXW:
		ir.Write(d.Rd, truncateToXlen(uint64(int64(int32(r.ReadSingle(d.Rs1)))), h.XLen))
	case OpFmvWX:
		r.WriteSingle(d.Rd, uint32(ir.Read(d.Rs1)))
	case OpFmvXD:
		ir.Write(d.Rd, r.Read(d.Rs1))
	case OpFmvDX:
		r.Write(d.Rd, ir.Read(d.Rs1))

	case OpFeqS:
		a, b := math.Float32frombits(r.ReadSingle(d.Rs1)), math.Float32frombits(r.ReadSingle(d.Rs2))
		ir.Write(d.Rd, boolToReg(a == b))
		if isSNaN32(r.ReadSingle(d.Rs1)) || isSNaN32(r.ReadSingle(d.Rs2)) {
			h.accrueFlags(fflagNV)
		}
	case OpFltS:
		a, b := math.Float32frombits(r.ReadSingle(d.Rs1)), math.Float32frombits(r.ReadSingle(d.Rs2))
		ir.Write(d.Rd, boolToReg(a < b))
		if math.IsNaN(float64(a)) || math.IsNaN(float64(b)) {
			h.accrueFlags(fflagNV)
		}
	case OpFleS:
		a, b := math.Float32frombits(r.ReadSingle(d.Rs1)), math.Float32frombits(r.ReadSingle(d.Rs2))
		ir.Write(d.Rd, boolToReg(a <= b))
		if math.IsNaN(float64(a)) || math.IsNaN(float64(b)) {
			h.accrueFlags(fflagNV)
		}
	case OpFeqD:
		a, b := math.Float64frombits(r.Read(d.Rs1)), math.Float64frombits(r.Read(d.Rs2))
		ir.Write(d.Rd, boolToReg(a == b))
		if isSNaN64(r.Read(d.Rs1)) || isSNaN64(r.Read(d.Rs2)) {
			h.accrueFlags(fflagNV)
		}
	case OpFltD:
		a, b := math.Float64frombits(r.Read(d.Rs1)), math.Float64frombits(r.Read(d.Rs2))
		ir.Write(d.Rd, boolToReg(a < b))
		if math.IsNaN(a) || math.IsNaN(b) {
			h.accrueFlags(fflagNV)
		}
	case OpFleD:
		a, b := math.Float64frombits(r.Read(d.Rs1)), math.Float64frombits(r.Read(d.Rs2))
		ir.Write(d.Rd, boolToReg(a <= b))
		if math.IsNaN(a) || math.IsNaN(b) {
			h.accrueFlags(fflagNV)
		}

	case OpFclassS:
		ir.Write(d.Rd, uint64(classify32(r.ReadSingle(d.Rs1))))
	case OpFclassD:
		ir.Write(d.Rd, uint64(classify64(r.Read(d.Rs1))))

	case OpFcvtWS, OpFcvtWuS, OpFcvtLS, OpFcvtLuS:
		a := math.Float32frombits(r.ReadSingle(d.Rs1))
		h.execFloatToInt(d, float64(a), rm)
	case OpFcvtWD, OpFcvtWuD, OpFcvtLD, OpFcvtLuD:
		a := math.Float64frombits(r.Read(d.Rs1))
		h.execFloatToInt(d, a, rm)

	case OpFcvtSW:
		r.WriteSingle(d.Rd, math.Float32bits(float32(int32(ir.Read(d.Rs1)))))
	case OpFcvtSWu:
		r.WriteSingle(d.Rd, math.Float32bits(float32(uint32(ir.Read(d.Rs1)))))
	case OpFcvtSL:
		r.WriteSingle(d.Rd, math.Float32bits(float32(int64(ir.Read(d.Rs1)))))
	case OpFcvtSLu:
		r.WriteSingle(d.Rd, math.Float32bits(float32(ir.Read(d.Rs1))))
	case OpFcvtDW:
		r.Write(d.Rd, math.Float64bits(float64(int32(ir.Read(d.Rs1)))))
	case OpFcvtDWu:
		r.Write(d.Rd, math.Float64bits(float64(uint32(ir.Read(d.Rs1)))))
	case OpFcvtDL:
		r.Write(d.Rd, math.Float64bits(float64(int64(ir.Read(d.Rs1)))))
	case OpFcvtDLu:
		r.Write(d.Rd, math.Float64bits(float64(ir.Read(d.Rs1))))

	case OpFcvtSD:
		a := math.Float64frombits(r.Read(d.Rs1))
		r.WriteSingle(d.Rd, math.Float32bits(float32(a)))
	case OpFcvtDS:
		a := math.Float32frombits(r.ReadSingle(d.Rs1))
		r.Write(d.Rd, math.Float64bits(float64(a)))

	default:
		h.raiseIllegal()
	}
}

// execFloatToInt implements the saturating FCVT.{W,WU,L,LU}.{S,D}
// conversions: a NaN or out-of-range source saturates to the relevant
// boundary value and sets NV, per spec.md §4.4.
func (h *Hart) execFloatToInt(d *Decoded, a float64, rm uint32) {
	rounded := roundToIntegral(a, rm)
	var invalid bool

	switch d.Info.Opcode {
	case OpFcvtWS, OpFcvtWD:
		var v int32
		v, invalid = saturateToInt32(rounded)
		h.IntRegs.Write(d.Rd, truncateToXlen(uint64(int64(v)), h.XLen))
	case OpFcvtWuS, OpFcvtWuD:
		var v uint32
		v, invalid = saturateToUint32(rounded)
		h.IntRegs.Write(d.Rd, truncateToXlen(uint64(int64(int32(v))), h.XLen))
	case OpFcvtLS, OpFcvtLD:
		var v int64
		v, invalid = saturateToInt64(rounded)
		h.IntRegs.Write(d.Rd, truncateToXlen(uint64(v), h.XLen))
	case OpFcvtLuS, OpFcvtLuD:
		var v uint64
		v, invalid = saturateToUint64(rounded)
		h.IntRegs.Write(d.Rd, truncateToXlen(v, h.XLen))
	}
	if invalid {
		h.accrueFlags(fflagNV)
	} else if rounded != a {
		h.accrueFlags(fflagNX)
	}
}

func roundToIntegral(a float64, rm uint32) float64 {
	if math.IsNaN(a) || math.IsInf(a, 0) {
		return a
	}
	switch rm {
	case rmRTZ:
		return math.Trunc(a)
	case rmRDN:
		return math.Floor(a)
	case rmRUP:
		return math.Ceil(a)
	case rmRMM:
		return math.Round(a)
	default: // RNE and dynamic fallback
		return math.RoundToEven(a)
	}
}

func saturateToInt32(a float64) (int32, bool) {
	if math.IsNaN(a) {
		return math.MaxInt32, true
	}
	if a >= math.MaxInt32 {
		return math.MaxInt32, a > math.MaxInt32
	}
	if a <= math.MinInt32 {
		return math.MinInt32, a < math.MinInt32
	}
	return int32(a), false
}

func saturateToUint32(a float64) (uint32, bool) {
	if math.IsNaN(a) {
		return math.MaxUint32, true
	}
	if a <= 0 {
		return 0, a < 0
	}
	if a >= math.MaxUint32 {
		return math.MaxUint32, a > math.MaxUint32
	}
	return uint32(a), false
}

func saturateToInt64(a float64) (int64, bool) {
	if math.IsNaN(a) {
		return math.MaxInt64, true
	}
	if a >= math.MaxInt64 {
		return math.MaxInt64, true
	}
	if a <= math.MinInt64 {
		return math.MinInt64, a < math.MinInt64
	}
	return int64(a), false
}

func saturateToUint64(a float64) (uint64, bool) {
	if math.IsNaN(a) {
		return math.MaxUint64, true
	}
	if a <= 0 {
		return 0, a < 0
	}
	if a >= math.MaxUint64 {
		return math.MaxUint64, true
	}
	return uint64(a), false
}

func flagsForResult32(v float32) uint32 {
	switch {
	case math.IsNaN(float64(v)):
		return fflagNV
	case math.IsInf(float64(v), 0):
		return fflagOF
	}
	return 0
}

func flagsForResult64(v float64) uint32 {
	switch {
	case math.IsNaN(v):
		return fflagNV
	case math.IsInf(v, 0):
		return fflagOF
	}
	return 0
}

func minMaxFloat32(a, b float32, wantMin bool) (float32, uint32) {
	aNaN, bNaN := math.IsNaN(float64(a)), math.IsNaN(float64(b))
	if aNaN && bNaN {
		return float32(math.NaN()), fflagNV
	}
	if aNaN {
		return b, 0
	}
	if bNaN {
		return a, 0
	}
	if wantMin {
		if a < b {
			return a, 0
		}
		return b, 0
	}
	if a > b {
		return a, 0
	}
	return b, 0
}

func minMaxFloat64(a, b float64, wantMin bool) (float64, uint32) {
	aNaN, bNaN := math.IsNaN(a), math.IsNaN(b)
	if aNaN && bNaN {
		return math.NaN(), fflagNV
	}
	if aNaN {
		return b, 0
	}
	if bNaN {
		return a, 0
	}
	if wantMin {
		if a < b {
			return a, 0
		}
		return b, 0
	}
	if a > b {
		return a, 0
	}
	return b, 0
}

func sgnj32(a, b uint32, op Opcode) uint32 {
	sign := b & 0x80000000
	mag := a &^ 0x80000000
	switch op {
	case OpFsgnjnS:
		return (^sign & 0x80000000) | mag
	case OpFsgnjxS:
		return ((a ^ b) & 0x80000000) | mag
	default:
		return sign | mag
	}
}

func sgnj64(a, b uint64, op Opcode) uint64 {
	sign := b & (1 << 63)
	mag := a &^ (1 << 63)
	switch op {
	case OpFsgnjnD:
		return (^sign & (1 << 63)) | mag
	case OpFsgnjxD:
		return ((a ^ b) & (1 << 63)) | mag
	default:
		return sign | mag
	}
}

func isSNaN32(bits uint32) bool {
	exp := (bits >> 23) & 0xFF
	frac := bits & 0x7FFFFF
	return exp == 0xFF && frac != 0 && frac&0x400000 == 0
}

func isSNaN64(bits uint64) bool {
	exp := (bits >> 52) & 0x7FF
	frac := bits & 0xFFFFFFFFFFFFF
	return exp == 0x7FF && frac != 0 && frac&0x8000000000000 == 0
}

// classify32 implements FCLASS.S's 10-bit mask (bit i set per the
// standard classification table).
func classify32(bits uint32) uint32 {
	sign := bits>>31 != 0
	exp := (bits >> 23) & 0xFF
	frac := bits & 0x7FFFFF

	switch {
	case exp == 0xFF && frac != 0:
		if frac&0x400000 == 0 {
			return 1 << 8 // signaling NaN
		}
		return 1 << 9 // quiet NaN
	case exp == 0xFF:
		if sign {
			return 1 << 0 // -inf
		}
		return 1 << 7 // +inf
	case exp == 0 && frac == 0:
		if sign {
			return 1 << 3 // -0
		}
		return 1 << 4 // +0
	case exp == 0:
		if sign {
			return 1 << 2 // -subnormal
		}
		return 1 << 5 // +subnormal
	default:
		if sign {
			return 1 << 1 // -normal
		}
		return 1 << 6 // +normal
	}
}

func classify64(bits uint64) uint32 {
	sign := bits>>63 != 0
	exp := (bits >> 52) & 0x7FF
	frac := bits & 0xFFFFFFFFFFFFF

	switch {
	case exp == 0x7FF && frac != 0:
		if frac&0x8000000000000 == 0 {
			return 1 << 8
		}
		return 1 << 9
	case exp == 0x7FF:
		if sign {
			return 1 << 0
		}
		return 1 << 7
	case exp == 0 && frac == 0:
		if sign {
			return 1 << 3
		}
		return 1 << 4
	case exp == 0 && frac != 0:
		if sign {
			return 1 << 2
		}
		return 1 << 5
	default:
		if sign {
			return 1 << 1
		}
		return 1 << 6
	}
}

func boolToReg(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}
