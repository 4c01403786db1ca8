package core

// compressedReg maps the 3-bit compressed register field (rs1'/rs2'/rd')
// to the full register index x8..x15.
func compressedReg(field uint32) int {
	return int(field) + 8
}

// DecodeCompressed maps a 16-bit instruction word to a Decoded
// descriptor with Size==2. This is the "executing" path of spec.md
// §4.1: it must call the executor directly with the expanded
// operands, and must agree bit-for-bit with encoder.Compress (the
// "encoding" path, its inverse).
func DecodeCompressed(word uint16, xlen XLen, ext uint32) *Decoded {
	illegal := &Decoded{Info: info(OpIllegal), Size: 2}
	if ext&ExtC == 0 {
		return illegal
	}

	w := uint32(word)
	op := bits(w, 1, 0)
	funct3 := bits(w, 15, 13)

	mk := func(o Opcode) *Decoded {
		return &Decoded{Info: info(o), Size: 2}
	}

	switch op {
	case 0b00:
		switch funct3 {
		case 0b000: // C.ADDI4SPN
			nzuimm := (bits(w, 10, 7) << 6) | (bits(w, 12, 11) << 4) | (bits(w, 5, 5) << 3) | (bits(w, 6, 6) << 2)
			if nzuimm == 0 {
				return illegal
			}
			rd := compressedReg(bits(w, 4, 2))
			d := mk(OpAddi)
			d.Rd, d.Rs1, d.Imm = rd, 2, uint64(nzuimm)
			d.Op = [4]uint64{uint64(rd), 2, uint64(nzuimm)}
			return d
		case 0b010: // C.LW
			rs1 := compressedReg(bits(w, 9, 7))
			rd := compressedReg(bits(w, 4, 2))
			imm := (bits(w, 5, 5) << 6) | (bits(w, 12, 10) << 3) | (bits(w, 6, 6) << 2)
			d := mk(OpLw)
			d.Rd, d.Rs1, d.Imm = rd, rs1, uint64(imm)
			d.Op = [4]uint64{uint64(rd), uint64(rs1), uint64(imm)}
			return d
		case 0b011: // C.LD (RV64) / C.FLW (RV32, unimplemented)
			if xlen != XLen64 {
				return illegal
			}
			rs1 := compressedReg(bits(w, 9, 7))
			rd := compressedReg(bits(w, 4, 2))
			imm := (bits(w, 6, 5) << 6) | (bits(w, 12, 10) << 3)
			d := mk(OpLd)
			d.Rd, d.Rs1, d.Imm = rd, rs1, uint64(imm)
			d.Op = [4]uint64{uint64(rd), uint64(rs1), uint64(imm)}
			return d
		case 0b110: // C.SW
			rs1 := compressedReg(bits(w, 9, 7))
			rs2 := compressedReg(bits(w, 4, 2))
			imm := (bits(w, 5, 5) << 6) | (bits(w, 12, 10) << 3) | (bits(w, 6, 6) << 2)
			d := mk(OpSw)
			d.Rs1, d.Rs2, d.Imm = rs1, rs2, uint64(imm)
			d.Op = [4]uint64{uint64(rs1), uint64(rs2), uint64(imm)}
			return d
		case 0b111: // C.SD (RV64)
			if xlen != XLen64 {
				return illegal
			}
			rs1 := compressedReg(bits(w, 9, 7))
			rs2 := compressedReg(bits(w, 4, 2))
			imm := (bits(w, 6, 5) << 6) | (bits(w, 12, 10) << 3)
			d := mk(OpSd)
			d.Rs1, d.Rs2, d.Imm = rs1, rs2, uint64(imm)
			d.Op = [4]uint64{uint64(rs1), uint64(rs2), uint64(imm)}
			return d
		}
		return illegal

	case 0b01:
		switch funct3 {
		case 0b000: // C.ADDI / C.NOP
			rd := int(bits(w, 11, 7))
			imm := signExtend(uint64((bits(w, 12, 12)<<5)|bits(w, 6, 2)), 6)
			d := mk(OpAddi)
			d.Rd, d.Rs1, d.Imm = rd, rd, imm
			d.Op = [4]uint64{uint64(rd), uint64(rd), imm}
			return d
		case 0b001: // C.ADDIW (RV64) / C.JAL (RV32)
			if xlen == XLen64 {
				rd := int(bits(w, 11, 7))
				imm := signExtend(uint64((bits(w, 12, 12)<<5)|bits(w, 6, 2)), 6)
				d := mk(OpAddiw)
				d.Rd, d.Rs1, d.Imm = rd, rd, imm
				d.Op = [4]uint64{uint64(rd), uint64(rd), imm}
				return d
			}
			imm := decodeCJImm(w)
			d := mk(OpJal)
			d.Rd, d.Imm = 1, imm
			d.Op = [4]uint64{1, imm}
			return d
		case 0b010: // C.LI
			rd := int(bits(w, 11, 7))
			imm := signExtend(uint64((bits(w, 12, 12)<<5)|bits(w, 6, 2)), 6)
			d := mk(OpAddi)
			d.Rd, d.Rs1, d.Imm = rd, 0, imm
			d.Op = [4]uint64{uint64(rd), 0, imm}
			return d
		case 0b011: // C.ADDI16SP / C.LUI
			rd := int(bits(w, 11, 7))
			if rd == 2 {
				imm := signExtend(uint64((bits(w, 12, 12)<<9)|(bits(w, 4, 3)<<7)|
					(bits(w, 5, 5)<<6)|(bits(w, 2, 2)<<5)|(bits(w, 6, 6)<<4)), 10)
				if imm == 0 {
					return illegal
				}
				d := mk(OpAddi)
				d.Rd, d.Rs1, d.Imm = 2, 2, imm
				d.Op = [4]uint64{2, 2, imm}
				return d
			}
			nzimm := signExtend(uint64((bits(w, 12, 12)<<17)|(bits(w, 6, 2)<<12)), 18)
			if nzimm == 0 || rd == 0 {
				return illegal
			}
			d := mk(OpLui)
			d.Rd, d.Imm = rd, nzimm
			d.Op = [4]uint64{uint64(rd), nzimm}
			return d
		case 0b100: // misc-ALU: C.SRLI/C.SRAI/C.ANDI/C.SUB/C.XOR/C.OR/C.AND
			rd := compressedReg(bits(w, 9, 7))
			shamt := (bits(w, 12, 12) << 5) | bits(w, 6, 2)
			switch bits(w, 11, 10) {
			case 0b00:
				d := mk(OpSrli)
				d.Rd, d.Rs1, d.Imm = rd, rd, uint64(shamt)
				d.Op = [4]uint64{uint64(rd), uint64(rd), uint64(shamt)}
				return d
			case 0b01:
				d := mk(OpSrai)
				d.Rd, d.Rs1, d.Imm = rd, rd, uint64(shamt)
				d.Op = [4]uint64{uint64(rd), uint64(rd), uint64(shamt)}
				return d
			case 0b10:
				imm := signExtend(uint64((bits(w, 12, 12)<<5)|bits(w, 6, 2)), 6)
				d := mk(OpAndi)
				d.Rd, d.Rs1, d.Imm = rd, rd, imm
				d.Op = [4]uint64{uint64(rd), uint64(rd), imm}
				return d
			case 0b11:
				rs2 := compressedReg(bits(w, 4, 2))
				wide := bits(w, 12, 12) != 0
				switch bits(w, 6, 5) {
				case 0b00:
					op := OpSub
					if wide {
						if xlen != XLen64 {
							return illegal
						}
						op = OpSubw
					}
					d := mk(op)
					d.Rd, d.Rs1, d.Rs2 = rd, rd, rs2
					d.Op = [4]uint64{uint64(rd), uint64(rd), uint64(rs2)}
					return d
				case 0b01:
					op := OpXor
					if wide {
						if xlen != XLen64 {
							return illegal
						}
						op = OpAddw
					}
					d := mk(op)
					d.Rd, d.Rs1, d.Rs2 = rd, rd, rs2
					d.Op = [4]uint64{uint64(rd), uint64(rd), uint64(rs2)}
					return d
				case 0b10:
					if wide {
						return illegal
					}
					d := mk(OpOr)
					d.Rd, d.Rs1, d.Rs2 = rd, rd, rs2
					d.Op = [4]uint64{uint64(rd), uint64(rd), uint64(rs2)}
					return d
				case 0b11:
					if wide {
						return illegal
					}
					d := mk(OpAnd)
					d.Rd, d.Rs1, d.Rs2 = rd, rd, rs2
					d.Op = [4]uint64{uint64(rd), uint64(rd), uint64(rs2)}
					return d
				}
			}
			return illegal
		case 0b101: // C.J
			imm := decodeCJImm(w)
			d := mk(OpJal)
			d.Rd, d.Imm = 0, imm
			d.Op = [4]uint64{0, imm}
			return d
		case 0b110, 0b111: // C.BEQZ / C.BNEZ
			rs1 := compressedReg(bits(w, 9, 7))
			imm := signExtend(uint64((bits(w, 12, 12)<<8)|(bits(w, 6, 5)<<6)|
				(bits(w, 2, 2)<<5)|(bits(w, 11, 10)<<3)|(bits(w, 4, 3)<<1)), 9)
			op := OpBeq
			if funct3 == 0b111 {
				op = OpBne
			}
			d := mk(op)
			d.Rs1, d.Rs2, d.Imm = rs1, 0, imm
			d.Op = [4]uint64{uint64(rs1), 0, imm}
			return d
		}
		return illegal

	case 0b10:
		switch funct3 {
		case 0b000: // C.SLLI
			rd := int(bits(w, 11, 7))
			shamt := (bits(w, 12, 12) << 5) | bits(w, 6, 2)
			if xlen == XLen32 && bits(w, 12, 12) != 0 {
				return illegal
			}
			d := mk(OpSlli)
			d.Rd, d.Rs1, d.Imm = rd, rd, uint64(shamt)
			d.Op = [4]uint64{uint64(rd), uint64(rd), uint64(shamt)}
			return d
		case 0b010: // C.LWSP
			rd := int(bits(w, 11, 7))
			if rd == 0 {
				return illegal
			}
			imm := (bits(w, 3, 2) << 6) | (bits(w, 12, 12) << 5) | (bits(w, 6, 4) << 2)
			d := mk(OpLw)
			d.Rd, d.Rs1, d.Imm = rd, 2, uint64(imm)
			d.Op = [4]uint64{uint64(rd), 2, uint64(imm)}
			return d
		case 0b011: // C.LDSP (RV64)
			if xlen != XLen64 {
				return illegal
			}
			rd := int(bits(w, 11, 7))
			if rd == 0 {
				return illegal
			}
			imm := (bits(w, 4, 2) << 6) | (bits(w, 12, 12) << 5) | (bits(w, 6, 5) << 3)
			d := mk(OpLd)
			d.Rd, d.Rs1, d.Imm = rd, 2, uint64(imm)
			d.Op = [4]uint64{uint64(rd), 2, uint64(imm)}
			return d
		case 0b100:
			rd := int(bits(w, 11, 7))
			rs2 := int(bits(w, 6, 2))
			if bits(w, 12, 12) == 0 {
				if rs2 == 0 { // C.JR
					if rd == 0 {
						return illegal
					}
					d := mk(OpJalr)
					d.Rd, d.Rs1, d.Imm = 0, rd, 0
					d.Op = [4]uint64{0, uint64(rd), 0}
					return d
				}
				// C.MV
				if rd == 0 {
					return illegal
				}
				d := mk(OpAdd)
				d.Rd, d.Rs1, d.Rs2 = rd, 0, rs2
				d.Op = [4]uint64{uint64(rd), 0, uint64(rs2)}
				return d
			}
			if rd == 0 && rs2 == 0 { // C.EBREAK
				return mk(OpEbreak)
			}
			if rs2 == 0 { // C.JALR
				d := mk(OpJalr)
				d.Rd, d.Rs1, d.Imm = 1, rd, 0
				d.Op = [4]uint64{1, uint64(rd), 0}
				return d
			}
			// C.ADD
			if rd == 0 {
				return illegal
			}
			d := mk(OpAdd)
			d.Rd, d.Rs1, d.Rs2 = rd, rd, rs2
			d.Op = [4]uint64{uint64(rd), uint64(rd), uint64(rs2)}
			return d
		case 0b110: // C.SWSP
			rs2 := int(bits(w, 6, 2))
			imm := (bits(w, 8, 7) << 6) | (bits(w, 12, 9) << 2)
			d := mk(OpSw)
			d.Rs1, d.Rs2, d.Imm = 2, rs2, uint64(imm)
			d.Op = [4]uint64{2, uint64(rs2), uint64(imm)}
			return d
		case 0b111: // C.SDSP (RV64)
			if xlen != XLen64 {
				return illegal
			}
			rs2 := int(bits(w, 6, 2))
			imm := (bits(w, 9, 7) << 6) | (bits(w, 12, 10) << 3)
			d := mk(OpSd)
			d.Rs1, d.Rs2, d.Imm = 2, rs2, uint64(imm)
			d.Op = [4]uint64{2, uint64(rs2), uint64(imm)}
			return d
		}
		return illegal
	}
	return illegal
}

func decodeCJImm(w uint32) uint64 {
	v := (bits(w, 12, 12) << 11) | (bits(w, 8, 8) << 10) | (bits(w, 10, 9) << 8) |
		(bits(w, 6, 6) << 7) | (bits(w, 7, 7) << 6) | (bits(w, 2, 2) << 5) |
		(bits(w, 11, 11) << 4) | (bits(w, 5, 3) << 1)
	return signExtend(uint64(v), 12)
}

// IsCompressed reports whether the low 2 bits of a fetched halfword
// indicate a 16-bit (compressed) encoding.
func IsCompressed(word uint16) bool {
	return word&0x3 != 0x3
}
