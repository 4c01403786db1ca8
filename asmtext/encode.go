package asmtext

import (
	"fmt"

	"riscv-sim/core"
)

// instFormat names the six base instruction encodings plus the handful
// of fixed-field special cases (system, fence) the encoder below
// needs to treat differently from a plain R/I/S/B/U/J layout.
type instFormat int

const (
	fmtR instFormat = iota
	fmtI
	fmtIShift // shift-amount immediate: funct7/funct6 | shamt
	fmtS
	fmtB
	fmtU
	fmtJ
	fmtCSR
	fmtCSRImm
	fmtSystemFixed // ecall/ebreak/mret/sret/uret/wfi: whole imm12 fixed by opcode
	fmtFence
)

type encEntry struct {
	format  instFormat
	opcode7 uint32
	funct3  uint32
	funct7  uint32 // or fixed imm12 for fmtSystemFixed
	wide    bool   // true for the W-suffixed RV64 32-bit-result ops
}

// encTable maps every Opcode the assembler can emit to its instruction
// format and fixed encoding fields, taken directly from the RISC-V
// base ISA and M-extension encodings (the values core/decoder.go
// checks against when decoding the words this file produces).
var encTable = map[core.Opcode]encEntry{
	core.OpAdd:  {fmtR, 0b0110011, 0b000, 0b0000000, false},
	core.OpSub:  {fmtR, 0b0110011, 0b000, 0b0100000, false},
	core.OpSll:  {fmtR, 0b0110011, 0b001, 0b0000000, false},
	core.OpSlt:  {fmtR, 0b0110011, 0b010, 0b0000000, false},
	core.OpSltu: {fmtR, 0b0110011, 0b011, 0b0000000, false},
	core.OpXor:  {fmtR, 0b0110011, 0b100, 0b0000000, false},
	core.OpSrl:  {fmtR, 0b0110011, 0b101, 0b0000000, false},
	core.OpSra:  {fmtR, 0b0110011, 0b101, 0b0100000, false},
	core.OpOr:   {fmtR, 0b0110011, 0b110, 0b0000000, false},
	core.OpAnd:  {fmtR, 0b0110011, 0b111, 0b0000000, false},

	core.OpMul:    {fmtR, 0b0110011, 0b000, 0b0000001, false},
	core.OpMulh:   {fmtR, 0b0110011, 0b001, 0b0000001, false},
	core.OpMulhsu: {fmtR, 0b0110011, 0b010, 0b0000001, false},
	core.OpMulhu:  {fmtR, 0b0110011, 0b011, 0b0000001, false},
	core.OpDiv:    {fmtR, 0b0110011, 0b100, 0b0000001, false},
	core.OpDivu:   {fmtR, 0b0110011, 0b101, 0b0000001, false},
	core.OpRem:    {fmtR, 0b0110011, 0b110, 0b0000001, false},
	core.OpRemu:   {fmtR, 0b0110011, 0b111, 0b0000001, false},

	core.OpAddw: {fmtR, 0b0111011, 0b000, 0b0000000, true},
	core.OpSubw: {fmtR, 0b0111011, 0b000, 0b0100000, true},
	core.OpSllw: {fmtR, 0b0111011, 0b001, 0b0000000, true},
	core.OpSrlw: {fmtR, 0b0111011, 0b101, 0b0000000, true},
	core.OpSraw: {fmtR, 0b0111011, 0b101, 0b0100000, true},

	core.OpMulw:  {fmtR, 0b0111011, 0b000, 0b0000001, true},
	core.OpDivw:  {fmtR, 0b0111011, 0b100, 0b0000001, true},
	core.OpDivuw: {fmtR, 0b0111011, 0b101, 0b0000001, true},
	core.OpRemw:  {fmtR, 0b0111011, 0b110, 0b0000001, true},
	core.OpRemuw: {fmtR, 0b0111011, 0b111, 0b0000001, true},

	core.OpAddi:  {fmtI, 0b0010011, 0b000, 0, false},
	core.OpSlti:  {fmtI, 0b0010011, 0b010, 0, false},
	core.OpSltiu: {fmtI, 0b0010011, 0b011, 0, false},
	core.OpXori:  {fmtI, 0b0010011, 0b100, 0, false},
	core.OpOri:   {fmtI, 0b0010011, 0b110, 0, false},
	core.OpAndi:  {fmtI, 0b0010011, 0b111, 0, false},
	core.OpSlli:  {fmtIShift, 0b0010011, 0b001, 0b0000000, false},
	core.OpSrli:  {fmtIShift, 0b0010011, 0b101, 0b0000000, false},
	core.OpSrai:  {fmtIShift, 0b0010011, 0b101, 0b0100000, false},

	core.OpAddiw: {fmtI, 0b0011011, 0b000, 0, true},
	core.OpSlliw: {fmtIShift, 0b0011011, 0b001, 0b0000000, true},
	core.OpSrliw: {fmtIShift, 0b0011011, 0b101, 0b0000000, true},
	core.OpSraiw: {fmtIShift, 0b0011011, 0b101, 0b0100000, true},

	core.OpJalr: {fmtI, 0b1100111, 0b000, 0, false},

	core.OpLb:  {fmtI, 0b0000011, 0b000, 0, false},
	core.OpLh:  {fmtI, 0b0000011, 0b001, 0, false},
	core.OpLw:  {fmtI, 0b0000011, 0b010, 0, false},
	core.OpLd:  {fmtI, 0b0000011, 0b011, 0, false},
	core.OpLbu: {fmtI, 0b0000011, 0b100, 0, false},
	core.OpLhu: {fmtI, 0b0000011, 0b101, 0, false},
	core.OpLwu: {fmtI, 0b0000011, 0b110, 0, false},

	core.OpSb: {fmtS, 0b0100011, 0b000, 0, false},
	core.OpSh: {fmtS, 0b0100011, 0b001, 0, false},
	core.OpSw: {fmtS, 0b0100011, 0b010, 0, false},
	core.OpSd: {fmtS, 0b0100011, 0b011, 0, false},

	core.OpBeq:  {fmtB, 0b1100011, 0b000, 0, false},
	core.OpBne:  {fmtB, 0b1100011, 0b001, 0, false},
	core.OpBlt:  {fmtB, 0b1100011, 0b100, 0, false},
	core.OpBge:  {fmtB, 0b1100011, 0b101, 0, false},
	core.OpBltu: {fmtB, 0b1100011, 0b110, 0, false},
	core.OpBgeu: {fmtB, 0b1100011, 0b111, 0, false},

	core.OpLui:   {fmtU, 0b0110111, 0, 0, false},
	core.OpAuipc: {fmtU, 0b0010111, 0, 0, false},
	core.OpJal:   {fmtJ, 0b1101111, 0, 0, false},

	core.OpCsrrw: {fmtCSR, 0b1110011, 0b001, 0, false},
	core.OpCsrrs: {fmtCSR, 0b1110011, 0b010, 0, false},
	core.OpCsrrc: {fmtCSR, 0b1110011, 0b011, 0, false},
	core.OpCsrrwi: {fmtCSRImm, 0b1110011, 0b101, 0, false},
	core.OpCsrrsi: {fmtCSRImm, 0b1110011, 0b110, 0, false},
	core.OpCsrrci: {fmtCSRImm, 0b1110011, 0b111, 0, false},

	core.OpEcall:  {fmtSystemFixed, 0b1110011, 0, 0x000, false},
	core.OpEbreak: {fmtSystemFixed, 0b1110011, 0, 0x001, false},
	core.OpMret:   {fmtSystemFixed, 0b1110011, 0, 0x302, false},
	core.OpSret:   {fmtSystemFixed, 0b1110011, 0, 0x102, false},
	core.OpUret:   {fmtSystemFixed, 0b1110011, 0, 0x002, false},
	core.OpWfi:    {fmtSystemFixed, 0b1110011, 0, 0x105, false},

	core.OpFence:   {fmtFence, 0b0001111, 0b000, 0, false},
	core.OpFenceI:  {fmtFence, 0b0001111, 0b001, 0, false},
}

// EncodeInstruction assembles one instruction's fields into its 32-bit
// machine word. xlen64 selects the 6-bit shift-amount encoding that
// RV64's non-W shift-immediate forms use in place of RV32's 5-bit one.
func EncodeInstruction(op core.Opcode, rd, rs1, rs2 int, imm int64, csr uint16, xlen64 bool) (uint32, error) {
	e, ok := encTable[op]
	if !ok {
		return 0, fmt.Errorf("asmtext: opcode %v has no assembler encoding", op)
	}
	switch e.format {
	case fmtR:
		return e.funct7<<25 | uint32(rs2&0x1f)<<20 | uint32(rs1&0x1f)<<15 | e.funct3<<12 | uint32(rd&0x1f)<<7 | e.opcode7, nil
	case fmtI:
		return (uint32(imm)&0xfff)<<20 | uint32(rs1&0x1f)<<15 | e.funct3<<12 | uint32(rd&0x1f)<<7 | e.opcode7, nil
	case fmtIShift:
		shamt := uint32(imm)
		var immField uint32
		if xlen64 && !e.wide {
			immField = (e.funct7>>1)<<6 | (shamt & 0x3f)
		} else {
			immField = e.funct7<<5 | (shamt & 0x1f)
		}
		return immField<<20 | uint32(rs1&0x1f)<<15 | e.funct3<<12 | uint32(rd&0x1f)<<7 | e.opcode7, nil
	case fmtS:
		u := uint32(imm)
		return (u>>5&0x7f)<<25 | uint32(rs2&0x1f)<<20 | uint32(rs1&0x1f)<<15 | e.funct3<<12 | (u&0x1f)<<7 | e.opcode7, nil
	case fmtB:
		u := uint32(imm)
		return (u>>12&0x1)<<31 | (u>>5&0x3f)<<25 | uint32(rs2&0x1f)<<20 | uint32(rs1&0x1f)<<15 |
			e.funct3<<12 | (u>>1&0xf)<<8 | (u>>11&0x1)<<7 | e.opcode7, nil
	case fmtU:
		return (uint32(imm) & 0xfffff000) | uint32(rd&0x1f)<<7 | e.opcode7, nil
	case fmtJ:
		u := uint32(imm)
		return (u>>20&0x1)<<31 | (u>>1&0x3ff)<<21 | (u>>11&0x1)<<20 | (u>>12&0xff)<<12 | uint32(rd&0x1f)<<7 | e.opcode7, nil
	case fmtCSR:
		return uint32(csr)<<20 | uint32(rs1&0x1f)<<15 | e.funct3<<12 | uint32(rd&0x1f)<<7 | e.opcode7, nil
	case fmtCSRImm:
		return uint32(csr)<<20 | (uint32(rs1)&0x1f)<<15 | e.funct3<<12 | uint32(rd&0x1f)<<7 | e.opcode7, nil
	case fmtSystemFixed:
		return e.funct7<<20 | e.opcode7, nil
	case fmtFence:
		if e.funct3 == 0b001 {
			return e.funct3<<12 | e.opcode7, nil
		}
		// default to a full iorw,iorw barrier when no predecessor/successor
		// set was parsed out of the operand text.
		return 0b1111<<24 | 0b1111<<20 | e.opcode7, nil
	}
	return 0, fmt.Errorf("asmtext: unhandled instruction format for %v", op)
}
