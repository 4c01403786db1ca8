package asmtext

import (
	"fmt"
	"strconv"

	"riscv-sim/core"
)

// fpABINames mirrors core.ABIName but for the floating-point file
// (core doesn't export one since it never needs to print register
// names itself).
var fpABINames = [32]string{
	"ft0", "ft1", "ft2", "ft3", "ft4", "ft5", "ft6", "ft7",
	"fs0", "fs1", "fa0", "fa1", "fa2", "fa3", "fa4", "fa5",
	"fa6", "fa7", "fs2", "fs3", "fs4", "fs5", "fs6", "fs7",
	"fs8", "fs9", "fs10", "fs11", "ft8", "ft9", "ft10", "ft11",
}

func fpABIName(i int) string {
	if i < 0 || i > 31 {
		return "?"
	}
	return fpABINames[i]
}

// Disassemble renders one decoded instruction as assembly text, in
// the operand order core/opcodes.go's instInfoTable records for it.
// It is used by the CLI's trace/step display and the TUI's
// disassembly pane (core/runloop.go's own disasmStub is a placeholder
// until this package is wired in, which the CLI now does).
func Disassemble(word uint32, xlen core.XLen, ext uint32) string {
	var d *core.Decoded
	if word&0x3 == 0x3 {
		d = core.Decode(word, xlen, ext)
	} else {
		d = core.DecodeCompressed(uint16(word), xlen, ext)
	}
	return DisassembleDecoded(d)
}

// DisassembleDecoded renders an already-decoded instruction, for
// callers (like the debugger) that decode once and need both the
// Decoded value and its text form.
func DisassembleDecoded(d *core.Decoded) string {
	mn := d.Info.Mnemonic
	if mn == "" {
		return "unknown"
	}

	out := mn
	sep := " "
	for i := 0; i < 4; i++ {
		kind := d.Info.OperandKinds[i]
		if kind == core.OperandNone {
			break
		}
		out += sep + formatOperand(kind, d.Op[i])
		sep = ", "
	}
	return out
}

func formatOperand(kind core.OperandKind, v uint64) string {
	switch kind {
	case core.OperandIntReg:
		return core.ABIName(int(v))
	case core.OperandFPReg:
		return fpABIName(int(v))
	case core.OperandCSRNum:
		return "0x" + strconv.FormatUint(v, 16)
	case core.OperandImm:
		return formatImm(v)
	default:
		return fmt.Sprintf("%d", v)
	}
}

// formatImm renders v as a signed decimal when its top bit (as a
// 64-bit two's-complement value) is set, matching how the assembler
// accepts negative immediates.
func formatImm(v uint64) string {
	return strconv.FormatInt(int64(v), 10)
}
