package asmtext

// DefaultLoadAddress is the address assembled code lands at when the
// caller doesn't specify one: the reset vector bare-metal RISC-V test
// programs conventionally use.
const DefaultLoadAddress uint64 = 0x8000_0000

// directiveNames lists every directive the parser recognizes, for
// callers that want to validate source before assembling it.
var directiveNames = []string{
	".word", ".half", ".dword", ".byte",
	".ascii", ".asciz", ".string",
	".space", ".skip", ".align", ".balign", ".org",
	".globl", ".global", ".equ", ".section", ".text", ".data", ".bss",
	".file", ".size", ".type",
}
