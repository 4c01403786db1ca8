package core

// Decoded holds one decode result: the shared InstInfo plus the
// per-instance operand values. op0..op3's meaning depends on the
// opcode's form, per spec.md §4.1.
type Decoded struct {
	Info *InstInfo
	Op   [4]uint64
	Size int // 2 (compressed) or 4; copied from Info.Size at decode time, never mutates the shared table

	// Raw fields kept around for executor convenience; not part of the
	// InstInfo contract since they're redundant with Op for most forms.
	Rd, Rs1, Rs2, Rs3 int
	Imm               uint64
	Funct3            uint32
	Funct7            uint32
	CSR               uint16
	Aq, Rl            bool
	RM                uint32 // rounding-mode field for FP ops
}

func bits(word uint32, hi, lo uint) uint32 {
	return (word >> lo) & ((1 << (hi - lo + 1)) - 1)
}

// Decode maps a 32-bit instruction word to a Decoded descriptor. xlen
// gates 64-bit-only opcodes; ext is the enabled-extensions bit set.
func Decode(word uint32, xlen XLen, ext uint32) *Decoded {
	opcode := bits(word, 6, 0)
	rd := int(bits(word, 11, 7))
	funct3 := bits(word, 14, 12)
	rs1 := int(bits(word, 19, 15))
	rs2 := int(bits(word, 24, 20))
	funct7 := bits(word, 31, 25)
	rs3 := int(bits(word, 31, 27))
	rm := funct3

	illegal := func() *Decoded {
		return &Decoded{Info: info(OpIllegal), Size: 4}
	}

	if opcode&0x3 != 0x3 {
		// Only 32-bit-wide encodings reach here; bits[1:0] != 11 is a
		// compressed word that must go through DecodeCompressed instead.
		return illegal()
	}

	signExtImmI := func() uint64 { return signExtend(uint64(bits(word, 31, 20)), 12) }
	signExtImmS := func() uint64 {
		v := (bits(word, 31, 25) << 5) | bits(word, 11, 7)
		return signExtend(uint64(v), 12)
	}
	signExtImmB := func() uint64 {
		v := (bits(word, 31, 31) << 12) | (bits(word, 7, 7) << 11) |
			(bits(word, 30, 25) << 5) | (bits(word, 11, 8) << 1)
		return signExtend(uint64(v), 13)
	}
	immU := func() uint64 { return uint64(word & 0xFFFFF000) }
	signExtImmJ := func() uint64 {
		v := (bits(word, 31, 31) << 20) | (bits(word, 19, 12) << 12) |
			(bits(word, 20, 20) << 11) | (bits(word, 30, 21) << 1)
		return signExtend(uint64(v), 21)
	}

	mk := func(op Opcode) *Decoded {
		return &Decoded{Info: info(op), Size: 4, Rd: rd, Rs1: rs1, Rs2: rs2, Rs3: rs3,
			Funct3: funct3, Funct7: funct7, RM: rm}
	}

	switch opcode {
	case 0b0110111: // LUI
		d := mk(OpLui)
		d.Imm = immU()
		d.Op = [4]uint64{uint64(rd), d.Imm}
		return d
	case 0b0010111: // AUIPC
		d := mk(OpAuipc)
		d.Imm = immU()
		d.Op = [4]uint64{uint64(rd), d.Imm}
		return d
	case 0b1101111: // JAL
		d := mk(OpJal)
		d.Imm = signExtImmJ()
		d.Op = [4]uint64{uint64(rd), d.Imm}
		return d
	case 0b1100111: // JALR
		if funct3 != 0 {
			return illegal()
		}
		d := mk(OpJalr)
		d.Imm = signExtImmI()
		d.Op = [4]uint64{uint64(rd), uint64(rs1), d.Imm}
		return d
	case 0b1100011: // branches
		var op Opcode
		switch funct3 {
		case 0b000:
			op = OpBeq
		case 0b001:
			op = OpBne
		case 0b100:
			op = OpBlt
		case 0b101:
			op = OpBge
		case 0b110:
			op = OpBltu
		case 0b111:
			op = OpBgeu
		default:
			return illegal()
		}
		d := mk(op)
		d.Imm = signExtImmB()
		d.Op = [4]uint64{uint64(rs1), uint64(rs2), d.Imm}
		return d
	case 0b0000011: // loads
		var op Opcode
		switch funct3 {
		case 0b000:
			op = OpLb
		case 0b001:
			op = OpLh
		case 0b010:
			op = OpLw
		case 0b011:
			if xlen != XLen64 {
				return illegal()
			}
			op = OpLd
		case 0b100:
			op = OpLbu
		case 0b101:
			op = OpLhu
		case 0b110:
			if xlen != XLen64 {
				return illegal()
			}
			op = OpLwu
		default:
			return illegal()
		}
		d := mk(op)
		d.Imm = signExtImmI()
		d.Op = [4]uint64{uint64(rd), uint64(rs1), d.Imm}
		return d
	case 0b0100011: // stores
		var op Opcode
		switch funct3 {
		case 0b000:
			op = OpSb
		case 0b001:
			op = OpSh
		case 0b010:
			op = OpSw
		case 0b011:
			if xlen != XLen64 {
				return illegal()
			}
			op = OpSd
		default:
			return illegal()
		}
		d := mk(op)
		d.Imm = signExtImmS()
		d.Op = [4]uint64{uint64(rs1), uint64(rs2), d.Imm}
		return d
	case 0b0010011: // OP-IMM
		d := decodeOpImm(word, xlen, rd, rs1, funct3, funct7, signExtImmI())
		d.Size = 4
		return d
	case 0b0011011: // OP-IMM-32 (RV64 only)
		if xlen != XLen64 {
			return illegal()
		}
		d := decodeOpImm32(word, rd, rs1, funct3, funct7, signExtImmI())
		d.Size = 4
		return d
	case 0b0110011: // OP (register-register)
		d := decodeOp(rd, rs1, rs2, funct3, funct7, ext)
		d.Size = 4
		return d
	case 0b0111011: // OP-32 (RV64 only)
		if xlen != XLen64 {
			return illegal()
		}
		d := decodeOp32(rd, rs1, rs2, funct3, funct7, ext)
		d.Size = 4
		return d
	case 0b0001111: // FENCE / FENCE.I
		d := mk(OpFence)
		if funct3 == 0b001 {
			d.Info = info(OpFenceI)
		}
		return d
	case 0b1110011: // SYSTEM: ECALL/EBREAK/xRET/WFI/CSR*
		d := decodeSystem(word, xlen, rd, rs1, funct3, rs2)
		d.Size = 4
		return d
	case 0b0101111: // AMO (A extension)
		if ext&ExtA == 0 {
			return illegal()
		}
		d := decodeAmo(rd, rs1, rs2, funct3, funct7, xlen)
		d.Size = 4
		return d
	case 0b0000111: // FLW/FLD
		if ext&ExtF == 0 {
			return illegal()
		}
		var op Opcode
		switch funct3 {
		case 0b010:
			op = OpFlw
		case 0b011:
			if ext&ExtD == 0 {
				return illegal()
			}
			op = OpFld
		default:
			return illegal()
		}
		d := mk(op)
		d.Imm = signExtImmI()
		d.Op = [4]uint64{uint64(rd), uint64(rs1), d.Imm}
		return d
	case 0b0100111: // FSW/FSD
		if ext&ExtF == 0 {
			return illegal()
		}
		var op Opcode
		switch funct3 {
		case 0b010:
			op = OpFsw
		case 0b011:
			if ext&ExtD == 0 {
				return illegal()
			}
			op = OpFsd
		default:
			return illegal()
		}
		d := mk(op)
		d.Imm = signExtImmS()
		d.Op = [4]uint64{uint64(rs1), uint64(rs2), d.Imm}
		return d
	case 0b1010011: // OP-FP
		if ext&ExtF == 0 {
			return illegal()
		}
		d := decodeOpFP(rd, rs1, rs2, rs3, funct7, rm, ext)
		d.Size = 4
		return d
	default:
		return illegal()
	}
}

func decodeOpImm(word uint32, xlen XLen, rd, rs1 int, funct3, funct7 uint32, imm uint64) *Decoded {
	mkI := func(op Opcode) *Decoded {
		d := &Decoded{Info: info(op), Rd: rd, Rs1: rs1, Funct3: funct3, Funct7: funct7, Imm: imm}
		d.Op = [4]uint64{uint64(rd), uint64(rs1), imm}
		return d
	}
	switch funct3 {
	case 0b000:
		return mkI(OpAddi)
	case 0b010:
		return mkI(OpSlti)
	case 0b011:
		return mkI(OpSltiu)
	case 0b100:
		return mkI(OpXori)
	case 0b110:
		return mkI(OpOri)
	case 0b111:
		return mkI(OpAndi)
	case 0b001:
		shamt := bits(word, 25, 20)
		top := bits(word, 31, 26)
		if xlen == XLen32 && bits(word, 25, 25) != 0 {
			return &Decoded{Info: info(OpIllegal)}
		}
		if top == 0b011000 { // CLZ/CTZ/CPOP minor bit-manip (Zbb-style), funct7[31:26]
			switch bits(word, 24, 20) {
			case 0b00000:
				return &Decoded{Info: info(OpClz), Rd: rd, Rs1: rs1, Op: [4]uint64{uint64(rd), uint64(rs1)}}
			case 0b00001:
				return &Decoded{Info: info(OpCtz), Rd: rd, Rs1: rs1, Op: [4]uint64{uint64(rd), uint64(rs1)}}
			case 0b00010:
				return &Decoded{Info: info(OpCpop), Rd: rd, Rs1: rs1, Op: [4]uint64{uint64(rd), uint64(rs1)}}
			case 0b00100:
				return &Decoded{Info: info(OpSextB), Rd: rd, Rs1: rs1, Op: [4]uint64{uint64(rd), uint64(rs1)}}
			case 0b00101:
				return &Decoded{Info: info(OpSextH), Rd: rd, Rs1: rs1, Op: [4]uint64{uint64(rd), uint64(rs1)}}
			}
			return &Decoded{Info: info(OpIllegal)}
		}
		d := mkI(OpSlli)
		d.Imm = uint64(shamt)
		d.Op[2] = d.Imm
		return d
	case 0b101:
		shamt := bits(word, 25, 20)
		if xlen == XLen32 && bits(word, 25, 25) != 0 {
			return &Decoded{Info: info(OpIllegal)}
		}
		arithmetic := bits(word, 31, 26) == 0b010000
		var d *Decoded
		if arithmetic {
			d = mkI(OpSrai)
		} else {
			d = mkI(OpSrli)
		}
		d.Imm = uint64(shamt)
		d.Op[2] = d.Imm
		return d
	}
	return &Decoded{Info: info(OpIllegal)}
}

func decodeOpImm32(word uint32, rd, rs1 int, funct3, funct7 uint32, imm uint64) *Decoded {
	mk := func(op Opcode) *Decoded {
		d := &Decoded{Info: info(op), Rd: rd, Rs1: rs1, Funct3: funct3, Imm: imm}
		d.Op = [4]uint64{uint64(rd), uint64(rs1), imm}
		return d
	}
	switch funct3 {
	case 0b000:
		return mk(OpAddiw)
	case 0b001:
		shamt := bits(word, 24, 20)
		d := mk(OpSlliw)
		d.Imm = uint64(shamt)
		d.Op[2] = d.Imm
		return d
	case 0b101:
		shamt := bits(word, 24, 20)
		var d *Decoded
		if bits(word, 31, 25) == 0b0100000 {
			d = mk(OpSraiw)
		} else {
			d = mk(OpSrliw)
		}
		d.Imm = uint64(shamt)
		d.Op[2] = d.Imm
		return d
	}
	return &Decoded{Info: info(OpIllegal)}
}

func decodeOp(rd, rs1, rs2 int, funct3, funct7 uint32, ext uint32) *Decoded {
	mk := func(op Opcode) *Decoded {
		return &Decoded{Info: info(op), Rd: rd, Rs1: rs1, Rs2: rs2, Funct3: funct3, Funct7: funct7,
			Op: [4]uint64{uint64(rd), uint64(rs1), uint64(rs2)}}
	}
	if funct7 == 0b0000001 { // M extension
		if ext&ExtM == 0 {
			return &Decoded{Info: info(OpIllegal)}
		}
		switch funct3 {
		case 0b000:
			return mk(OpMul)
		case 0b001:
			return mk(OpMulh)
		case 0b010:
			return mk(OpMulhsu)
		case 0b011:
			return mk(OpMulhu)
		case 0b100:
			return mk(OpDiv)
		case 0b101:
			return mk(OpDivu)
		case 0b110:
			return mk(OpRem)
		case 0b111:
			return mk(OpRemu)
		}
	}
	if funct7 == 0b0000101 && ext&ExtB != 0 { // minor bit-manip min/max
		switch funct3 {
		case 0b100:
			return mk(OpMin)
		case 0b101:
			return mk(OpMax)
		case 0b110:
			return mk(OpMinu)
		case 0b111:
			return mk(OpMaxu)
		}
	}
	switch funct3 {
	case 0b000:
		if funct7 == 0b0100000 {
			return mk(OpSub)
		}
		if funct7 == 0 {
			return mk(OpAdd)
		}
	case 0b001:
		if funct7 == 0 {
			return mk(OpSll)
		}
	case 0b010:
		if funct7 == 0 {
			return mk(OpSlt)
		}
	case 0b011:
		if funct7 == 0 {
			return mk(OpSltu)
		}
	case 0b100:
		if funct7 == 0 {
			return mk(OpXor)
		}
	case 0b101:
		if funct7 == 0 {
			return mk(OpSrl)
		}
		if funct7 == 0b0100000 {
			return mk(OpSra)
		}
	case 0b110:
		if funct7 == 0 {
			return mk(OpOr)
		}
	case 0b111:
		if funct7 == 0 {
			return mk(OpAnd)
		}
	}
	return &Decoded{Info: info(OpIllegal)}
}

func decodeOp32(rd, rs1, rs2 int, funct3, funct7 uint32, ext uint32) *Decoded {
	mk := func(op Opcode) *Decoded {
		return &Decoded{Info: info(op), Rd: rd, Rs1: rs1, Rs2: rs2, Funct3: funct3, Funct7: funct7,
			Op: [4]uint64{uint64(rd), uint64(rs1), uint64(rs2)}}
	}
	if funct7 == 0b0000001 {
		if ext&ExtM == 0 {
			return &Decoded{Info: info(OpIllegal)}
		}
		switch funct3 {
		case 0b000:
			return mk(OpMulw)
		case 0b100:
			return mk(OpDivw)
		case 0b101:
			return mk(OpDivuw)
		case 0b110:
			return mk(OpRemw)
		case 0b111:
			return mk(OpRemuw)
		}
		return &Decoded{Info: info(OpIllegal)}
	}
	switch funct3 {
	case 0b000:
		if funct7 == 0b0100000 {
			return mk(OpSubw)
		}
		if funct7 == 0 {
			return mk(OpAddw)
		}
	case 0b001:
		if funct7 == 0 {
			return mk(OpSllw)
		}
	case 0b101:
		if funct7 == 0 {
			return mk(OpSrlw)
		}
		if funct7 == 0b0100000 {
			return mk(OpSraw)
		}
	}
	return &Decoded{Info: info(OpIllegal)}
}

func decodeAmo(rd, rs1, rs2 int, funct3, funct7 uint32, xlen XLen) *Decoded {
	wide := funct3 == 0b011
	if wide && xlen != XLen64 {
		return &Decoded{Info: info(OpIllegal)}
	}
	if funct3 != 0b010 && funct3 != 0b011 {
		return &Decoded{Info: info(OpIllegal)}
	}
	aq := funct7&0b0000010 != 0
	rl := funct7&0b0000001 != 0
	top5 := funct7 >> 2
	mk := func(op32, op64 Opcode) *Decoded {
		op := op32
		if wide {
			op = op64
		}
		return &Decoded{Info: info(op), Rd: rd, Rs1: rs1, Rs2: rs2, Aq: aq, Rl: rl,
			Op: [4]uint64{uint64(rd), uint64(rs1), uint64(rs2)}}
	}
	switch top5 {
	case 0b00010:
		return mk(OpLrW, OpLrD)
	case 0b00011:
		return mk(OpScW, OpScD)
	case 0b00001:
		return mk(OpAmoswapW, OpAmoswapD)
	case 0b00000:
		return mk(OpAmoaddW, OpAmoaddD)
	case 0b00100:
		return mk(OpAmoxorW, OpAmoxorD)
	case 0b01100:
		return mk(OpAmoandW, OpAmoandD)
	case 0b01000:
		return mk(OpAmoorW, OpAmoorD)
	case 0b10000:
		return mk(OpAmominW, OpAmominD)
	case 0b10100:
		return mk(OpAmomaxW, OpAmomaxD)
	case 0b11000:
		return mk(OpAmominuW, OpAmominuD)
	case 0b11100:
		return mk(OpAmomaxuW, OpAmomaxuD)
	}
	return &Decoded{Info: info(OpIllegal)}
}

func decodeSystem(word uint32, xlen XLen, rd, rs1 int, funct3 uint32, rs2 int) *Decoded {
	if funct3 == 0 {
		imm12 := bits(word, 31, 20)
		switch imm12 {
		case 0x000:
			return &Decoded{Info: info(OpEcall)}
		case 0x001:
			return &Decoded{Info: info(OpEbreak)}
		case 0x302:
			return &Decoded{Info: info(OpMret)}
		case 0x102:
			return &Decoded{Info: info(OpSret)}
		case 0x002:
			return &Decoded{Info: info(OpUret)}
		case 0x105:
			return &Decoded{Info: info(OpWfi)}
		}
		return &Decoded{Info: info(OpIllegal)}
	}
	csr := uint16(bits(word, 31, 20))
	switch funct3 {
	case 0b001:
		return &Decoded{Info: info(OpCsrrw), Rd: rd, Rs1: rs1, CSR: csr, Op: [4]uint64{uint64(rd), uint64(csr), uint64(rs1)}}
	case 0b010:
		return &Decoded{Info: info(OpCsrrs), Rd: rd, Rs1: rs1, CSR: csr, Op: [4]uint64{uint64(rd), uint64(csr), uint64(rs1)}}
	case 0b011:
		return &Decoded{Info: info(OpCsrrc), Rd: rd, Rs1: rs1, CSR: csr, Op: [4]uint64{uint64(rd), uint64(csr), uint64(rs1)}}
	case 0b101:
		return &Decoded{Info: info(OpCsrrwi), Rd: rd, CSR: csr, Imm: uint64(rs1), Op: [4]uint64{uint64(rd), uint64(csr), uint64(rs1)}}
	case 0b110:
		return &Decoded{Info: info(OpCsrrsi), Rd: rd, CSR: csr, Imm: uint64(rs1), Op: [4]uint64{uint64(rd), uint64(csr), uint64(rs1)}}
	case 0b111:
		return &Decoded{Info: info(OpCsrrci), Rd: rd, CSR: csr, Imm: uint64(rs1), Op: [4]uint64{uint64(rd), uint64(csr), uint64(rs1)}}
	}
	return &Decoded{Info: info(OpIllegal)}
}

func decodeOpFP(rd, rs1, rs2, rs3 int, funct7 uint32, rm uint32, ext uint32) *Decoded {
	mk := func(op Opcode, kind2 bool) *Decoded {
		d := &Decoded{Info: info(op), Rd: rd, Rs1: rs1, Rs2: rs2, Rs3: rs3, RM: rm}
		if kind2 {
			d.Op = [4]uint64{uint64(rd), uint64(rs1), uint64(rs2)}
		} else {
			d.Op = [4]uint64{uint64(rd), uint64(rs1)}
		}
		return d
	}
	top5 := funct7 >> 2
	double := funct7&0x1 != 0
	if double && ext&ExtD == 0 {
		return &Decoded{Info: info(OpIllegal)}
	}
	switch top5 {
	case 0b00000:
		if double {
			return mk(OpFaddD, true)
		}
		return mk(OpFaddS, true)
	case 0b00001:
		if double {
			return mk(OpFsubD, true)
		}
		return mk(OpFsubS, true)
	case 0b00010:
		if double {
			return mk(OpFmulD, true)
		}
		return mk(OpFmulS, true)
	case 0b00011:
		if double {
			return mk(OpFdivD, true)
		}
		return mk(OpFdivS, true)
	case 0b01011:
		if double {
			return mk(OpFsqrtD, false)
		}
		return mk(OpFsqrtS, false)
	case 0b00100:
		switch rm {
		case 0:
			if double {
				return mk(OpFsgnjD, true)
			}
			return mk(OpFsgnjS, true)
		case 1:
			if double {
				return mk(OpFsgnjnD, true)
			}
			return mk(OpFsgnjnS, true)
		case 2:
			if double {
				return mk(OpFsgnjxD, true)
			}
			return mk(OpFsgnjxS, true)
		}
		return &Decoded{Info: info(OpIllegal)}
	case 0b00101:
		switch rm {
		case 0:
			if double {
				return mk(OpFminD, true)
			}
			return mk(OpFminS, true)
		case 1:
			if double {
				return mk(OpFmaxD, true)
			}
			return mk(OpFmaxS, true)
		}
		return &Decoded{Info: info(OpIllegal)}
	case 0b10100:
		switch rm {
		case 0b010:
			if double {
				return mk(OpFeqD, true)
			}
			return mk(OpFeqS, true)
		case 0b001:
			if double {
				return mk(OpFltD, true)
			}
			return mk(OpFltS, true)
		case 0b000:
			if double {
				return mk(OpFleD, true)
			}
			return mk(OpFleS, true)
		}
		return &Decoded{Info: info(OpIllegal)}
	case 0b11100:
		if rm == 0b001 {
			if double {
				return mk(OpFclassD, false)
			}
			return mk(OpFclassS, false)
		}
		if double {
			return mk(OpFmvXD, false)
		}
		return mk(OpFmvXW, false)
	case 0b11110:
		if double {
			return mk(OpFmvDX, false)
		}
		return mk(OpFmvWX, false)
	case 0b01000: // FCVT.S.D / FCVT.D.S
		if rs2 == 1 {
			return mk(OpFcvtSD, false)
		}
		return mk(OpFcvtDS, false)
	case 0b11000: // FCVT.{W,WU,L,LU}.{S,D}
		switch rs2 {
		case 0:
			if double {
				return mk(OpFcvtWD, false)
			}
			return mk(OpFcvtWS, false)
		case 1:
			if double {
				return mk(OpFcvtWuD, false)
			}
			return mk(OpFcvtWuS, false)
		case 2:
			if double {
				return mk(OpFcvtLD, false)
			}
			return mk(OpFcvtLS, false)
		case 3:
			if double {
				return mk(OpFcvtLuD, false)
			}
			return mk(OpFcvtLuS, false)
		}
	case 0b11010: // FCVT.{S,D}.{W,WU,L,LU}
		switch rs2 {
		case 0:
			if double {
				return mk(OpFcvtDW, false)
			}
			return mk(OpFcvtSW, false)
		case 1:
			if double {
				return mk(OpFcvtDWu, false)
			}
			return mk(OpFcvtSWu, false)
		case 2:
			if double {
				return mk(OpFcvtDL, false)
			}
			return mk(OpFcvtSL, false)
		case 3:
			if double {
				return mk(OpFcvtDLu, false)
			}
			return mk(OpFcvtSLu, false)
		}
	}
	return &Decoded{Info: info(OpIllegal)}
}
