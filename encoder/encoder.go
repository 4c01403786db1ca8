// Package encoder implements the compressed-instruction encode path:
// given an already-decoded, fully-expanded instruction (core.Decoded,
// the exact type the executor consumes), it finds a matching 16-bit
// RISC-V C-extension encoding when one exists. It is the mirror image
// of core.DecodeCompressed and must agree with it bit-for-bit; the
// decode/encode round trip (decode a compressed word, compress the
// result, compare) is how this package's tests check that agreement.
//
// asmtext uses Compress only for a warning: it always emits the full
// 32-bit encoding, then asks Compress whether a 16-bit form exists and
// reports one as a warning; it never emits the compressed word.
package encoder

import "riscv-sim/core"

// Compress attempts to produce the 16-bit compressed encoding of a
// decoded instruction. ok is false when the opcode has no compressed
// form, or the operands fall outside what the chosen form can express
// (e.g. a register outside x8..x15 for the register-compressed forms,
// or an immediate wider than the form's field).
func Compress(d *core.Decoded, xlen core.XLen) (word uint16, ok bool) {
	if d == nil || d.Info == nil {
		return 0, false
	}
	switch d.Info.Opcode {
	case core.OpAddi:
		return compressAddi(d)
	case core.OpAddiw:
		return compressAddiw(d)
	case core.OpLui:
		return compressLui(d)
	case core.OpJal:
		return compressJal(d, xlen)
	case core.OpJalr:
		return compressJalr(d)
	case core.OpLw:
		return compressLoad32(d)
	case core.OpLd:
		return compressLoad64(d, xlen)
	case core.OpSw:
		return compressStore32(d)
	case core.OpSd:
		return compressStore64(d, xlen)
	case core.OpAdd:
		return compressAdd(d)
	case core.OpSub, core.OpXor, core.OpOr, core.OpAnd, core.OpSubw, core.OpAddw:
		return compressMiscAlu(d, xlen)
	case core.OpSrli, core.OpSrai, core.OpAndi:
		return compressShiftImm(d, xlen)
	case core.OpSlli:
		return compressSlli(d, xlen)
	case core.OpBeq, core.OpBne:
		return compressBranch(d)
	case core.OpEbreak:
		return 0b1001_0000_0000_0010, true
	}
	return 0, false
}

// fitsSignedImm reports whether imm (held as a zero-extended uint64)
// round-trips through a `bits`-wide two's-complement field.
func fitsSignedImm(imm uint64, bits uint) bool {
	s := int64(imm)
	lo := int64(-1) << (bits - 1)
	hi := (int64(1) << (bits - 1)) - 1
	return s >= lo && s <= hi
}

func compressedRegOK(r int) (uint16, bool) {
	if r < 8 || r > 15 {
		return 0, false
	}
	return uint16(r - 8), true
}

// compressAddi covers C.ADDI, C.NOP, C.LI, C.ADDI16SP and C.ADDI4SPN,
// all of which core.DecodeCompressed maps to OpAddi.
func compressAddi(d *core.Decoded) (uint16, bool) {
	imm := int64(d.Imm)

	// C.ADDI4SPN: addi rd', sp, nzuimm (rd in x8..x15, uimm 4..1020 mult of 4).
	if d.Rs1 == 2 && d.Rd != 2 {
		if rd, ok := compressedRegOK(d.Rd); ok && imm > 0 && imm <= 1020 && imm%4 == 0 {
			u := uint16(imm)
			var w uint16
			w |= (u >> 6 & 0xF) << 7
			w |= (u >> 4 & 0x3) << 11
			w |= (u >> 3 & 0x1) << 5
			w |= (u >> 2 & 0x1) << 6
			w |= rd << 2
			return w, true
		}
	}

	// C.ADDI16SP: addi sp, sp, nzimm (imm multiple of 16, -512..496, nonzero).
	if d.Rd == 2 && d.Rs1 == 2 && imm != 0 && imm >= -512 && imm <= 496 && imm%16 == 0 {
		u := uint16(int16(imm))
		w := uint16(0b011) << 13
		w |= 2 << 7
		w |= (u >> 9 & 0x1) << 12
		w |= (u >> 7 & 0x3) << 3
		w |= (u >> 6 & 0x1) << 5
		w |= (u >> 5 & 0x1) << 2
		w |= (u >> 4 & 0x1) << 6
		return w | 0b01, true
	}

	// C.LI: addi rd, x0, imm (rd != 0, imm fits 6 bits signed).
	if d.Rs1 == 0 && d.Rd != 0 && fitsSignedImm(uint64(imm), 6) {
		return packImm6(0b010, d.Rd, imm), true
	}

	// C.ADDI / C.NOP: addi rd, rd, imm (rd == rs1, imm fits 6 bits signed).
	if d.Rd == d.Rs1 && d.Rd != 0 && fitsSignedImm(uint64(imm), 6) {
		return packImm6(0b000, d.Rd, imm), true
	}

	return 0, false
}

// packImm6 builds the "funct3 | imm[5] | rd[4:0] | imm[4:0] | 01"
// layout shared by C.ADDI, C.LI and C.ADDIW.
func packImm6(funct3 uint16, rd int, imm int64) uint16 {
	u := uint16(imm) & 0x3F
	w := funct3 << 13
	w |= (u >> 5 & 1) << 12
	w |= uint16(rd) << 7
	w |= (u & 0x1F) << 2
	return w | 0b01
}

func compressAddiw(d *core.Decoded) (uint16, bool) {
	if d.Rd == d.Rs1 && d.Rd != 0 && fitsSignedImm(d.Imm, 6) {
		return packImm6(0b001, d.Rd, int64(d.Imm)), true
	}
	return 0, false
}

// compressLui covers C.LUI: rd != 0, rd != 2, nzimm a nonzero multiple
// of 0x1000 that fits the 18-bit sign-extended field core.Decode's
// immU() convention also uses for the uncompressed form.
func compressLui(d *core.Decoded) (uint16, bool) {
	if d.Rd == 0 || d.Rd == 2 {
		return 0, false
	}
	imm := int64(d.Imm)
	if imm == 0 || !fitsSignedImm(uint64(imm), 18) || imm%(1<<12) != 0 {
		return 0, false
	}
	u := uint16(imm>>12) & 0x3F
	w := uint16(0b011) << 13
	w |= (u >> 5 & 1) << 12
	w |= uint16(d.Rd) << 7
	w |= (u & 0x1F) << 2
	return w | 0b01, true
}

// compressJal covers C.J (rd==0, any xlen) and C.JAL (rd==1, rv32
// only); imm must fit the 12-bit signed, even-valued CJ field.
func compressJal(d *core.Decoded, xlen core.XLen) (uint16, bool) {
	imm := int64(d.Imm)
	if !fitsSignedImm(uint64(imm), 12) || imm%2 != 0 {
		return 0, false
	}
	var funct3 uint16
	switch {
	case d.Rd == 0:
		funct3 = 0b101
	case d.Rd == 1 && xlen == core.XLen32:
		funct3 = 0b001
	default:
		return 0, false
	}
	return packCJImm(funct3, imm), true
}

// packCJImm inverts core.decodeCJImm's scattered bit layout:
// v11<-w12, v10<-w8, v9<-w10, v8<-w9, v7<-w6, v6<-w7, v5<-w2, v4<-w11,
// v3<-w5, v2<-w4, v1<-w3.
func packCJImm(funct3 uint16, imm int64) uint16 {
	u := uint16(imm) & 0xFFF
	bit := func(i uint) uint16 { return (u >> i) & 1 }
	w := funct3 << 13
	w |= bit(11) << 12
	w |= bit(4) << 11
	w |= bit(9) << 10
	w |= bit(8) << 9
	w |= bit(10) << 8
	w |= bit(6) << 7
	w |= bit(7) << 6
	w |= bit(3) << 5
	w |= bit(2) << 4
	w |= bit(1) << 3
	w |= bit(5) << 2
	return w | 0b01
}

func compressJalr(d *core.Decoded) (uint16, bool) {
	if d.Imm != 0 || d.Rs1 == 0 {
		return 0, false
	}
	if d.Rd == 0 {
		return 0b1000_0000_0000_0010 | uint16(d.Rs1)<<7, true // C.JR
	}
	if d.Rd == 1 {
		return 0b1001_0000_0000_0010 | uint16(d.Rs1)<<7, true // C.JALR
	}
	return 0, false
}

// compressLoad32 covers C.LWSP (rs1==sp) and C.LW (register form,
// both registers in x8..x15).
func compressLoad32(d *core.Decoded) (uint16, bool) {
	imm := d.Imm
	if d.Rs1 == 2 && d.Rd != 0 {
		if imm > 252 || imm%4 != 0 {
			return 0, false
		}
		w := uint16(0b010) << 13
		w |= uint16(d.Rd) << 7
		w |= uint16(imm>>6&0x3) << 2
		w |= uint16(imm>>5&0x1) << 12
		w |= uint16(imm>>2&0x7) << 4
		return w | 0b10, true
	}
	rd, ok1 := compressedRegOK(d.Rd)
	rs1, ok2 := compressedRegOK(d.Rs1)
	if !ok1 || !ok2 || imm > 124 || imm%4 != 0 {
		return 0, false
	}
	w := uint16(0b010) << 13
	w |= rs1 << 7
	w |= rd << 2
	w |= uint16(imm>>6&1) << 5
	w |= uint16(imm>>3&0x7) << 10
	w |= uint16(imm>>2&1) << 6
	return w | 0b00, true
}

// compressLoad64 covers C.LDSP and C.LD (rv64 only).
func compressLoad64(d *core.Decoded, xlen core.XLen) (uint16, bool) {
	if xlen != core.XLen64 {
		return 0, false
	}
	imm := d.Imm
	if d.Rs1 == 2 && d.Rd != 0 {
		if imm > 504 || imm%8 != 0 {
			return 0, false
		}
		w := uint16(0b011) << 13
		w |= uint16(d.Rd) << 7
		w |= uint16(imm>>6&0x7) << 2
		w |= uint16(imm>>5&0x1) << 12
		w |= uint16(imm>>3&0x3) << 5
		return w | 0b10, true
	}
	rd, ok1 := compressedRegOK(d.Rd)
	rs1, ok2 := compressedRegOK(d.Rs1)
	if !ok1 || !ok2 || imm > 248 || imm%8 != 0 {
		return 0, false
	}
	w := uint16(0b011) << 13
	w |= rs1 << 7
	w |= rd << 2
	w |= uint16(imm>>6&0x3) << 5
	w |= uint16(imm>>3&0x7) << 10
	return w | 0b00, true
}

// compressStore32 covers C.SWSP and C.SW (register form).
func compressStore32(d *core.Decoded) (uint16, bool) {
	imm := d.Imm
	if d.Rs1 == 2 {
		if imm > 252 || imm%4 != 0 {
			return 0, false
		}
		w := uint16(0b110) << 13
		w |= uint16(d.Rs2) << 2
		w |= uint16(imm>>6&0x3) << 7
		w |= uint16(imm>>2&0xF) << 9
		return w | 0b10, true
	}
	rs1, ok1 := compressedRegOK(d.Rs1)
	rs2, ok2 := compressedRegOK(d.Rs2)
	if !ok1 || !ok2 || imm > 124 || imm%4 != 0 {
		return 0, false
	}
	w := uint16(0b110) << 13
	w |= rs1 << 7
	w |= rs2 << 2
	w |= uint16(imm>>6&1) << 5
	w |= uint16(imm>>3&0x7) << 10
	w |= uint16(imm>>2&1) << 6
	return w | 0b00, true
}

// compressStore64 covers C.SDSP and C.SD (rv64 only).
func compressStore64(d *core.Decoded, xlen core.XLen) (uint16, bool) {
	if xlen != core.XLen64 {
		return 0, false
	}
	imm := d.Imm
	if d.Rs1 == 2 {
		if imm > 504 || imm%8 != 0 {
			return 0, false
		}
		w := uint16(0b111) << 13
		w |= uint16(d.Rs2) << 2
		w |= uint16(imm>>6&0x7) << 7
		w |= uint16(imm>>3&0x7) << 10
		return w | 0b10, true
	}
	rs1, ok1 := compressedRegOK(d.Rs1)
	rs2, ok2 := compressedRegOK(d.Rs2)
	if !ok1 || !ok2 || imm > 248 || imm%8 != 0 {
		return 0, false
	}
	w := uint16(0b111) << 13
	w |= rs1 << 7
	w |= rs2 << 2
	w |= uint16(imm>>6&0x3) << 5
	w |= uint16(imm>>3&0x7) << 10
	return w | 0b00, true
}

// compressAdd covers C.MV (rs1==x0) and C.ADD (rd==rs1).
func compressAdd(d *core.Decoded) (uint16, bool) {
	if d.Rd == 0 || d.Rs2 == 0 {
		return 0, false
	}
	if d.Rs1 == 0 {
		return 0b1000_0000_0000_0010 | uint16(d.Rd)<<7 | uint16(d.Rs2)<<2, true
	}
	if d.Rd == d.Rs1 {
		return 0b1001_0000_0000_0010 | uint16(d.Rd)<<7 | uint16(d.Rs2)<<2, true
	}
	return 0, false
}

// compressMiscAlu covers C.SUB/C.XOR(/C.ADDW)/C.OR/C.AND, rd==rs1 and
// both registers in x8..x15.
func compressMiscAlu(d *core.Decoded, xlen core.XLen) (uint16, bool) {
	if d.Rd != d.Rs1 {
		return 0, false
	}
	rd, ok1 := compressedRegOK(d.Rd)
	rs2, ok2 := compressedRegOK(d.Rs2)
	if !ok1 || !ok2 {
		return 0, false
	}
	var funct2, wide uint16
	switch d.Info.Opcode {
	case core.OpSub:
		funct2 = 0b00
	case core.OpSubw:
		if xlen != core.XLen64 {
			return 0, false
		}
		funct2, wide = 0b00, 1
	case core.OpXor:
		funct2 = 0b01
	case core.OpAddw:
		if xlen != core.XLen64 {
			return 0, false
		}
		funct2, wide = 0b01, 1
	case core.OpOr:
		funct2 = 0b10
	case core.OpAnd:
		funct2 = 0b11
	default:
		return 0, false
	}
	w := uint16(0b100011) << 10
	w |= wide << 12
	w |= rd << 7
	w |= funct2 << 5
	w |= rs2 << 2
	return w | 0b01, true
}

// compressShiftImm covers C.SRLI, C.SRAI and C.ANDI: rd==rs1 in
// x8..x15, shift amounts within the register width.
func compressShiftImm(d *core.Decoded, xlen core.XLen) (uint16, bool) {
	if d.Rd != d.Rs1 {
		return 0, false
	}
	rd, ok := compressedRegOK(d.Rd)
	if !ok {
		return 0, false
	}
	maxShamt := uint64(31)
	if xlen == core.XLen64 {
		maxShamt = 63
	}
	switch d.Info.Opcode {
	case core.OpSrli, core.OpSrai:
		if d.Imm > maxShamt {
			return 0, false
		}
		w := uint16(0b100) << 13
		if d.Info.Opcode == core.OpSrai {
			w |= 0b01 << 10
		}
		w |= (uint16(d.Imm) >> 5 & 1) << 12
		w |= rd << 7
		w |= (uint16(d.Imm) & 0x1F) << 2
		return w | 0b01, true
	case core.OpAndi:
		if !fitsSignedImm(d.Imm, 6) {
			return 0, false
		}
		u := uint16(int64(d.Imm)) & 0x3F
		w := uint16(0b100) << 13
		w |= 0b10 << 10
		w |= (u >> 5 & 1) << 12
		w |= rd << 7
		w |= (u & 0x1F) << 2
		return w | 0b01, true
	}
	return 0, false
}

// compressSlli covers C.SLLI: rd==rs1, any register, shift amount
// within the register width.
func compressSlli(d *core.Decoded, xlen core.XLen) (uint16, bool) {
	if d.Rd != d.Rs1 || d.Rd == 0 {
		return 0, false
	}
	maxShamt := uint64(31)
	if xlen == core.XLen64 {
		maxShamt = 63
	}
	if d.Imm > maxShamt {
		return 0, false
	}
	w := uint16(0b000) << 13
	w |= (uint16(d.Imm) >> 5 & 1) << 12
	w |= uint16(d.Rd) << 7
	w |= (uint16(d.Imm) & 0x1F) << 2
	return w | 0b10, true
}

// compressBranch covers C.BEQZ/C.BNEZ: rs2==x0, rs1 in x8..x15, and an
// even offset that fits the 9-bit signed CB field.
func compressBranch(d *core.Decoded) (uint16, bool) {
	if d.Rs2 != 0 {
		return 0, false
	}
	rs1, ok := compressedRegOK(d.Rs1)
	if !ok {
		return 0, false
	}
	imm := int64(d.Imm)
	if !fitsSignedImm(uint64(imm), 9) || imm%2 != 0 {
		return 0, false
	}
	u := uint16(imm) & 0x1FF
	bit := func(i uint) uint16 { return (u >> i) & 1 }
	funct3 := uint16(0b110)
	if d.Info.Opcode == core.OpBne {
		funct3 = 0b111
	}
	w := funct3 << 13
	w |= bit(8) << 12
	w |= ((u >> 3) & 0x3) << 10
	w |= rs1 << 7
	w |= bit(7) << 6
	w |= bit(6) << 5
	w |= ((u >> 1) & 0x3) << 3
	w |= bit(5) << 2
	return w | 0b01, true
}
