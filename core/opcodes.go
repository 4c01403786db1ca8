package core

// Opcode identifies a single decoded RISC-V mnemonic. The decoder
// dispatches directly on the 5-bit primary opcode and sub-fields
// (spec.md §4.1); this enum is the result of that dispatch, not an
// intermediate microcode form.
type Opcode int

const (
	OpIllegal Opcode = iota

	// Integer register-register / register-immediate (RV32I/RV64I).
	OpAdd
	OpSub
	OpSll
	OpSlt
	OpSltu
	OpXor
	OpSrl
	OpSra
	OpOr
	OpAnd
	OpAddi
	OpSlti
	OpSltiu
	OpXori
	OpOri
	OpAndi
	OpSlli
	OpSrli
	OpSrai
	OpLui
	OpAuipc
	OpAddw
	OpSubw
	OpSllw
	OpSrlw
	OpSraw
	OpAddiw
	OpSlliw
	OpSrliw
	OpSraiw

	// Branches / jumps.
	OpBeq
	OpBne
	OpBlt
	OpBge
	OpBltu
	OpBgeu
	OpJal
	OpJalr

	// Loads / stores.
	OpLb
	OpLh
	OpLw
	OpLd
	OpLbu
	OpLhu
	OpLwu
	OpSb
	OpSh
	OpSw
	OpSd

	// Multiply / divide (M extension).
	OpMul
	OpMulh
	OpMulhsu
	OpMulhu
	OpDiv
	OpDivu
	OpRem
	OpRemu
	OpMulw
	OpDivw
	OpDivuw
	OpRemw
	OpRemuw

	// Atomics (A extension).
	OpLrW
	OpScW
	OpAmoswapW
	OpAmoaddW
	OpAmoxorW
	OpAmoandW
	OpAmoorW
	OpAmominW
	OpAmomaxW
	OpAmominuW
	OpAmomaxuW
	OpLrD
	OpScD
	OpAmoswapD
	OpAmoaddD
	OpAmoxorD
	OpAmoandD
	OpAmoorD
	OpAmominD
	OpAmomaxD
	OpAmominuD
	OpAmomaxuD

	// CSR instructions.
	OpCsrrw
	OpCsrrs
	OpCsrrc
	OpCsrrwi
	OpCsrrsi
	OpCsrrci

	// System.
	OpEcall
	OpEbreak
	OpMret
	OpSret
	OpUret
	OpWfi
	OpFence
	OpFenceI

	// Floating point (F/D extension).
	OpFlw
	OpFsw
	OpFld
	OpFsd
	OpFaddS
	OpFsubS
	OpFmulS
	OpFdivS
	OpFsqrtS
	OpFminS
	OpFmaxS
	OpFsgnjS
	OpFsgnjnS
	OpFsgnjxS
	OpFcvtWS
	OpFcvtWuS
	OpFcvtSW
	OpFcvtSWu
	OpFmvXW
	OpFmvWX
	OpFeqS
	OpFltS
	OpFleS
	OpFclassS
	OpFaddD
	OpFsubD
	OpFmulD
	OpFdivD
	OpFsqrtD
	OpFminD
	OpFmaxD
	OpFsgnjD
	OpFsgnjnD
	OpFsgnjxD
	OpFcvtWD
	OpFcvtWuD
	OpFcvtDW
	OpFcvtDWu
	OpFcvtSD
	OpFcvtDS
	OpFeqD
	OpFltD
	OpFleD
	OpFclassD
	OpFcvtLS
	OpFcvtLuS
	OpFcvtSL
	OpFcvtSLu
	OpFcvtLD
	OpFcvtLuD
	OpFcvtDL
	OpFcvtDLu
	OpFmvXD
	OpFmvDX

	// Minor bit-manipulation extension (experimental).
	OpClz
	OpCtz
	OpCpop
	OpMin
	OpMax
	OpMinu
	OpMaxu
	OpSextB
	OpSextH
)

// Category is the semantic class InstInfo exposes for statistics,
// trap-source tracking, and performance-counter events.
type Category int

const (
	CatIllegal Category = iota
	CatInteger
	CatLoad
	CatStore
	CatBranch
	CatJump
	CatMultiply
	CatDivide
	CatAtomic
	CatCSR
	CatFP
	CatSystem
)

// OperandKind classifies what operand slot i (op0..op3) holds.
type OperandKind int

const (
	OperandNone OperandKind = iota
	OperandIntReg
	OperandFPReg
	OperandImm
	OperandCSRNum
)

// Access describes how an operand is used by the instruction.
type Access int

const (
	AccessUnused Access = iota
	AccessRead
	AccessWrite
	AccessReadWrite
)

// InstInfo is the decoder's output: an immutable descriptor borrowed
// from the process-wide instruction-info table, plus the per-decode
// operand values carried alongside it (spec.md §3 "Ownership").
type InstInfo struct {
	Opcode   Opcode
	Mnemonic string
	Category Category
	Signed   bool // used to bucket operand-value histograms
	Size     int  // static default width in bytes; Decoded.Size carries the actual per-instance value

	OperandKinds   [4]OperandKind
	OperandAccess  [4]Access
}

// instInfoTable is the process-wide, immutable table indexed by
// Opcode; entries are looked up by value, never mutated, and shared
// across every hart (spec.md §9 "Global/shared instruction-info table").
var instInfoTable = buildInstInfoTable()

func info(op Opcode) *InstInfo {
	if ii, ok := instInfoTable[op]; ok {
		return ii
	}
	return instInfoTable[OpIllegal]
}

// mnemonicTable is the reverse of instInfoTable, built once at package
// init for the assembler and encoder, which both need to go from text
// back to an Opcode.
var mnemonicTable = buildMnemonicTable()

func buildMnemonicTable() map[string]Opcode {
	t := make(map[string]Opcode, len(instInfoTable))
	for op, ii := range instInfoTable {
		if op == OpIllegal {
			continue
		}
		t[ii.Mnemonic] = op
	}
	return t
}

// LookupMnemonic resolves an assembly mnemonic (lowercase, e.g. "addi")
// to its opcode and immutable descriptor, for asmtext's parser and
// encoder's disassembly-formatting path.
func LookupMnemonic(name string) (*InstInfo, bool) {
	op, ok := mnemonicTable[name]
	if !ok {
		return nil, false
	}
	return instInfoTable[op], true
}

func reg(k OperandKind, a Access) (OperandKind, Access) { return k, a }

func buildInstInfoTable() map[Opcode]*InstInfo {
	t := make(map[Opcode]*InstInfo)
	add := func(op Opcode, mnemonic string, cat Category, signed bool, kinds [4]OperandKind, access [4]Access) {
		t[op] = &InstInfo{Opcode: op, Mnemonic: mnemonic, Category: cat, Signed: signed, Size: 4, OperandKinds: kinds, OperandAccess: access}
	}

	rType := [4]OperandKind{OperandIntReg, OperandIntReg, OperandIntReg, OperandNone}
	rAccess := [4]Access{AccessWrite, AccessRead, AccessRead, AccessUnused}
	iType := [4]OperandKind{OperandIntReg, OperandIntReg, OperandImm, OperandNone}
	iAccess := [4]Access{AccessWrite, AccessRead, AccessRead, AccessUnused}
	uType := [4]OperandKind{OperandIntReg, OperandImm, OperandNone, OperandNone}
	uAccess := [4]Access{AccessWrite, AccessRead, AccessUnused, AccessUnused}
	bType := [4]OperandKind{OperandIntReg, OperandIntReg, OperandImm, OperandNone}
	bAccess := [4]Access{AccessRead, AccessRead, AccessRead, AccessUnused}

	add(OpIllegal, "illegal", CatIllegal, false, [4]OperandKind{}, [4]Access{})

	for _, e := range []struct {
		op Opcode
		mn string
	}{
		{OpAdd, "add"}, {OpSub, "sub"}, {OpSll, "sll"}, {OpSlt, "slt"},
		{OpSltu, "sltu"}, {OpXor, "xor"}, {OpSrl, "srl"}, {OpSra, "sra"},
		{OpOr, "or"}, {OpAnd, "and"}, {OpAddw, "addw"}, {OpSubw, "subw"},
		{OpSllw, "sllw"}, {OpSrlw, "srlw"}, {OpSraw, "sraw"},
		{OpMin, "min"}, {OpMax, "max"}, {OpMinu, "minu"}, {OpMaxu, "maxu"},
	} {
		add(e.op, e.mn, CatInteger, e.op == OpSlt, rType, rAccess)
	}
	for _, e := range []struct {
		op Opcode
		mn string
	}{
		{OpAddi, "addi"}, {OpSlti, "slti"}, {OpSltiu, "sltiu"}, {OpXori, "xori"},
		{OpOri, "ori"}, {OpAndi, "andi"}, {OpSlli, "slli"}, {OpSrli, "srli"},
		{OpSrai, "srai"}, {OpAddiw, "addiw"}, {OpSlliw, "slliw"}, {OpSrliw, "srliw"},
		{OpSraiw, "sraiw"}, {OpJalr, "jalr"},
	} {
		add(e.op, e.mn, CatInteger, true, iType, iAccess)
	}
	add(OpLui, "lui", CatInteger, true, uType, uAccess)
	add(OpAuipc, "auipc", CatInteger, true, uType, uAccess)

	for _, e := range []struct {
		op Opcode
		mn string
	}{
		{OpBeq, "beq"}, {OpBne, "bne"}, {OpBlt, "blt"}, {OpBge, "bge"},
		{OpBltu, "bltu"}, {OpBgeu, "bgeu"},
	} {
		add(e.op, e.mn, CatBranch, true, bType, bAccess)
	}
	add(OpJal, "jal", CatJump, true, uType, uAccess)

	lType := [4]OperandKind{OperandIntReg, OperandIntReg, OperandImm, OperandNone}
	lAccess := [4]Access{AccessWrite, AccessRead, AccessRead, AccessUnused}
	for _, e := range []struct {
		op     Opcode
		mn     string
		signed bool
	}{
		{OpLb, "lb", true}, {OpLh, "lh", true}, {OpLw, "lw", true}, {OpLd, "ld", true},
		{OpLbu, "lbu", false}, {OpLhu, "lhu", false}, {OpLwu, "lwu", false},
	} {
		add(e.op, e.mn, CatLoad, e.signed, lType, lAccess)
	}
	sType := [4]OperandKind{OperandIntReg, OperandIntReg, OperandImm, OperandNone}
	sAccess := [4]Access{AccessRead, AccessRead, AccessRead, AccessUnused}
	for _, e := range []struct {
		op Opcode
		mn string
	}{
		{OpSb, "sb"}, {OpSh, "sh"}, {OpSw, "sw"}, {OpSd, "sd"},
	} {
		add(e.op, e.mn, CatStore, false, sType, sAccess)
	}

	for _, e := range []struct {
		op  Opcode
		mn  string
		cat Category
	}{
		{OpMul, "mul", CatMultiply}, {OpMulh, "mulh", CatMultiply}, {OpMulhsu, "mulhsu", CatMultiply},
		{OpMulhu, "mulhu", CatMultiply}, {OpMulw, "mulw", CatMultiply},
		{OpDiv, "div", CatDivide}, {OpDivu, "divu", CatDivide}, {OpRem, "rem", CatDivide},
		{OpRemu, "remu", CatDivide}, {OpDivw, "divw", CatDivide}, {OpDivuw, "divuw", CatDivide},
		{OpRemw, "remw", CatDivide}, {OpRemuw, "remuw", CatDivide},
	} {
		add(e.op, e.mn, e.cat, true, rType, rAccess)
	}

	amoKinds := [4]OperandKind{OperandIntReg, OperandIntReg, OperandIntReg, OperandNone}
	amoAccess := [4]Access{AccessWrite, AccessRead, AccessRead, AccessUnused}
	lrKinds := [4]OperandKind{OperandIntReg, OperandIntReg, OperandNone, OperandNone}
	lrAccess := [4]Access{AccessWrite, AccessRead, AccessUnused, AccessUnused}
	for _, e := range []struct {
		op Opcode
		mn string
	}{
		{OpAmoswapW, "amoswap.w"}, {OpAmoaddW, "amoadd.w"}, {OpAmoxorW, "amoxor.w"},
		{OpAmoandW, "amoand.w"}, {OpAmoorW, "amoor.w"}, {OpAmominW, "amomin.w"},
		{OpAmomaxW, "amomax.w"}, {OpAmominuW, "amominu.w"}, {OpAmomaxuW, "amomaxu.w"},
		{OpAmoswapD, "amoswap.d"}, {OpAmoaddD, "amoadd.d"}, {OpAmoxorD, "amoxor.d"},
		{OpAmoandD, "amoand.d"}, {OpAmoorD, "amoor.d"}, {OpAmominD, "amomin.d"},
		{OpAmomaxD, "amomax.d"}, {OpAmominuD, "amominu.d"}, {OpAmomaxuD, "amomaxu.d"},
	} {
		add(e.op, e.mn, CatAtomic, false, amoKinds, amoAccess)
	}
	add(OpLrW, "lr.w", CatAtomic, false, lrKinds, lrAccess)
	add(OpLrD, "lr.d", CatAtomic, false, lrKinds, lrAccess)
	add(OpScW, "sc.w", CatAtomic, false, amoKinds, amoAccess)
	add(OpScD, "sc.d", CatAtomic, false, amoKinds, amoAccess)

	csrKinds := [4]OperandKind{OperandIntReg, OperandCSRNum, OperandIntReg, OperandNone}
	csrAccess := [4]Access{AccessWrite, AccessReadWrite, AccessRead, AccessUnused}
	csriKinds := [4]OperandKind{OperandIntReg, OperandCSRNum, OperandImm, OperandNone}
	csriAccess := [4]Access{AccessWrite, AccessReadWrite, AccessRead, AccessUnused}
	add(OpCsrrw, "csrrw", CatCSR, false, csrKinds, csrAccess)
	add(OpCsrrs, "csrrs", CatCSR, false, csrKinds, csrAccess)
	add(OpCsrrc, "csrrc", CatCSR, false, csrKinds, csrAccess)
	add(OpCsrrwi, "csrrwi", CatCSR, false, csriKinds, csriAccess)
	add(OpCsrrsi, "csrrsi", CatCSR, false, csriKinds, csriAccess)
	add(OpCsrrci, "csrrci", CatCSR, false, csriKinds, csriAccess)

	sysKinds := [4]OperandKind{OperandNone, OperandNone, OperandNone, OperandNone}
	sysAccess := [4]Access{AccessUnused, AccessUnused, AccessUnused, AccessUnused}
	add(OpEcall, "ecall", CatSystem, false, sysKinds, sysAccess)
	add(OpEbreak, "ebreak", CatSystem, false, sysKinds, sysAccess)
	add(OpMret, "mret", CatSystem, false, sysKinds, sysAccess)
	add(OpSret, "sret", CatSystem, false, sysKinds, sysAccess)
	add(OpUret, "uret", CatSystem, false, sysKinds, sysAccess)
	add(OpWfi, "wfi", CatSystem, false, sysKinds, sysAccess)
	add(OpFence, "fence", CatSystem, false, sysKinds, sysAccess)
	add(OpFenceI, "fence.i", CatSystem, false, sysKinds, sysAccess)

	flKinds := [4]OperandKind{OperandFPReg, OperandIntReg, OperandImm, OperandNone}
	flAccess := [4]Access{AccessWrite, AccessRead, AccessRead, AccessUnused}
	fsKinds := [4]OperandKind{OperandFPReg, OperandIntReg, OperandImm, OperandNone}
	fsAccess := [4]Access{AccessRead, AccessRead, AccessRead, AccessUnused}
	add(OpFlw, "flw", CatFP, false, flKinds, flAccess)
	add(OpFld, "fld", CatFP, false, flKinds, flAccess)
	add(OpFsw, "fsw", CatFP, false, fsKinds, fsAccess)
	add(OpFsd, "fsd", CatFP, false, fsKinds, fsAccess)

	fArith := [4]OperandKind{OperandFPReg, OperandFPReg, OperandFPReg, OperandNone}
	fArithAccess := [4]Access{AccessWrite, AccessRead, AccessRead, AccessUnused}
	for _, e := range []Opcode{OpFaddS, OpFsubS, OpFmulS, OpFdivS, OpFminS, OpFmaxS,
		OpFsgnjS, OpFsgnjnS, OpFsgnjxS, OpFaddD, OpFsubD, OpFmulD, OpFdivD,
		OpFminD, OpFmaxD, OpFsgnjD, OpFsgnjnD, OpFsgnjxD} {
		add(e, instMnemonicFallback(e), CatFP, false, fArith, fArithAccess)
	}

	fUnary := [4]OperandKind{OperandFPReg, OperandFPReg, OperandNone, OperandNone}
	fUnaryAccess := [4]Access{AccessWrite, AccessRead, AccessUnused, AccessUnused}
	for _, e := range []Opcode{OpFsqrtS, OpFsqrtD, OpFcvtSD, OpFcvtDS} {
		add(e, instMnemonicFallback(e), CatFP, false, fUnary, fUnaryAccess)
	}

	fToInt := [4]OperandKind{OperandIntReg, OperandFPReg, OperandNone, OperandNone}
	fToIntAccess := [4]Access{AccessWrite, AccessRead, AccessUnused, AccessUnused}
	for _, e := range []Opcode{OpFcvtWS, OpFcvtWuS, OpFmvXW, OpFclassS, OpFcvtWD, OpFcvtWuD,
		OpFclassD, OpFcvtLS, OpFcvtLuS, OpFcvtLD, OpFcvtLuD, OpFmvXD} {
		add(e, instMnemonicFallback(e), CatFP, false, fToInt, fToIntAccess)
	}
	intToF := [4]OperandKind{OperandFPReg, OperandIntReg, OperandNone, OperandNone}
	intToFAccess := [4]Access{AccessWrite, AccessRead, AccessUnused, AccessUnused}
	for _, e := range []Opcode{OpFcvtSW, OpFcvtSWu, OpFmvWX, OpFcvtDW, OpFcvtDWu,
		OpFcvtSL, OpFcvtSLu, OpFcvtDL, OpFcvtDLu, OpFmvDX} {
		add(e, instMnemonicFallback(e), CatFP, false, intToF, intToFAccess)
	}

	fCmp := [4]OperandKind{OperandIntReg, OperandFPReg, OperandFPReg, OperandNone}
	fCmpAccess := [4]Access{AccessWrite, AccessRead, AccessRead, AccessUnused}
	for _, e := range []Opcode{OpFeqS, OpFltS, OpFleS, OpFeqD, OpFltD, OpFleD} {
		add(e, instMnemonicFallback(e), CatFP, false, fCmp, fCmpAccess)
	}

	unaryInt := [4]OperandKind{OperandIntReg, OperandIntReg, OperandNone, OperandNone}
	unaryIntAccess := [4]Access{AccessWrite, AccessRead, AccessUnused, AccessUnused}
	add(OpClz, "clz", CatInteger, false, unaryInt, unaryIntAccess)
	add(OpCtz, "ctz", CatInteger, false, unaryInt, unaryIntAccess)
	add(OpCpop, "cpop", CatInteger, false, unaryInt, unaryIntAccess)
	add(OpSextB, "sext.b", CatInteger, true, unaryInt, unaryIntAccess)
	add(OpSextH, "sext.h", CatInteger, true, unaryInt, unaryIntAccess)

	return t
}

// instMnemonicFallback derives a display mnemonic for FP opcodes from
// their identifier so the table-building loop above doesn't need a
// name repeated at each call site.
func instMnemonicFallback(op Opcode) string {
	names := map[Opcode]string{
		OpFaddS: "fadd.s", OpFsubS: "fsub.s", OpFmulS: "fmul.s", OpFdivS: "fdiv.s",
		OpFminS: "fmin.s", OpFmaxS: "fmax.s", OpFsgnjS: "fsgnj.s", OpFsgnjnS: "fsgnjn.s",
		OpFsgnjxS: "fsgnjx.s", OpFsqrtS: "fsqrt.s", OpFcvtWS: "fcvt.w.s", OpFcvtWuS: "fcvt.wu.s",
		OpFmvXW: "fmv.x.w", OpFclassS: "fclass.s", OpFeqS: "feq.s", OpFltS: "flt.s", OpFleS: "fle.s",
		OpFaddD: "fadd.d", OpFsubD: "fsub.d", OpFmulD: "fmul.d", OpFdivD: "fdiv.d",
		OpFminD: "fmin.d", OpFmaxD: "fmax.d", OpFsgnjD: "fsgnj.d", OpFsgnjnD: "fsgnjn.d",
		OpFsgnjxD: "fsgnjx.d", OpFsqrtD: "fsqrt.d", OpFcvtWD: "fcvt.w.d", OpFcvtWuD: "fcvt.wu.d",
		OpFclassD: "fclass.d", OpFeqD: "feq.d", OpFltD: "flt.d", OpFleD: "fle.d",
		OpFcvtSD: "fcvt.s.d", OpFcvtDS: "fcvt.d.s",
		OpFcvtSW: "fcvt.s.w", OpFcvtSWu: "fcvt.s.wu", OpFmvWX: "fmv.w.x",
		OpFcvtDW: "fcvt.d.w", OpFcvtDWu: "fcvt.d.wu",
		OpFcvtLS: "fcvt.l.s", OpFcvtLuS: "fcvt.lu.s", OpFcvtSL: "fcvt.s.l", OpFcvtSLu: "fcvt.s.lu",
		OpFcvtLD: "fcvt.l.d", OpFcvtLuD: "fcvt.lu.d", OpFcvtDL: "fcvt.d.l", OpFcvtDLu: "fcvt.d.lu",
		OpFmvXD: "fmv.x.d", OpFmvDX: "fmv.d.x",
	}
	if n, ok := names[op]; ok {
		return n
	}
	return "f?"
}
