package core

// defineCSRs populates a fresh Hart's CSR file with the RV32/64
// privileged-architecture set spec.md §6 names, plus the
// implementation-defined MDSEAC/MEIHAP/MGPMC/MRAC/MHPMCOUNTER/MHPMEVENT
// registers. MINSTRET/MCYCLE (and their 32-bit high halves) are tied to
// the Hart's own counters so reads always observe the live value
// (spec.md §3, §4.3 "Tying").
func defineCSRs(h *Hart) {
	c := h.CSRs
	full := maxXlenMask(h.XLen)

	def := func(num uint16, name string, priv Privilege, writeMask, pokeMask, reset uint64, debugOnly bool) {
		c.Define(CSRDescriptor{
			Number: num, Name: name, Implemented: true, Privilege: priv,
			DebugOnly: debugOnly, WriteMask: writeMask, PokeMask: pokeMask | writeMask,
			ResetValue: reset,
		})
	}

	def(CsrMisa, "misa", PrivMachine, 0, full, uint64(h.EnabledExtensions)|isaBaseBits(h.XLen), false)
	def(CsrMvendorid, "mvendorid", PrivMachine, 0, 0, 0, false)
	def(CsrMarchid, "marchid", PrivMachine, 0, 0, 0, false)
	def(CsrMimpid, "mimpid", PrivMachine, 0, 0, 0, false)
	def(CsrMhartid, "mhartid", PrivMachine, 0, 0, h.ID, false) // MHARTID is constant

	def(CsrMstatus, "mstatus", PrivMachine, full, full, 0, false)
	def(CsrMedeleg, "medeleg", PrivMachine, full, full, 0, false)
	def(CsrMideleg, "mideleg", PrivMachine, full, full, 0, false)
	def(CsrMie, "mie", PrivMachine, full, full, 0, false)
	def(CsrMtvec, "mtvec", PrivMachine, full, full, 0, false)
	def(CsrMcounteren, "mcounteren", PrivMachine, full, full, 0, false)
	def(CsrMscratch, "mscratch", PrivMachine, full, full, 0, false)
	def(CsrMepc, "mepc", PrivMachine, full&^1, full&^1, 0, false)
	def(CsrMcause, "mcause", PrivMachine, full, full, 0, false)
	def(CsrMtval, "mtval", PrivMachine, full, full, 0, false)
	def(CsrMip, "mip", PrivMachine, full, full, 0, false)

	def(CsrSstatus, "sstatus", PrivSupervisor, full, full, 0, false)
	def(CsrSie, "sie", PrivSupervisor, full, full, 0, false)
	def(CsrStvec, "stvec", PrivSupervisor, full, full, 0, false)
	def(CsrSepc, "sepc", PrivSupervisor, full&^1, full&^1, 0, false)
	def(CsrScause, "scause", PrivSupervisor, full, full, 0, false)
	def(CsrStval, "stval", PrivSupervisor, full, full, 0, false)
	def(CsrSip, "sip", PrivSupervisor, full, full, 0, false)

	def(CsrFflags, "fflags", PrivUser, 0x1F, 0x1F, 0, false)
	def(CsrFrm, "frm", PrivUser, 0x7, 0x7, 0, false)
	def(CsrFcsr, "fcsr", PrivUser, 0xFF, 0xFF, 0, false)

	// MCYCLE/MINSTRET: tied to the Hart's own counters.
	def(CsrMcycle, "mcycle", PrivMachine, full, full, 0, false)
	def(CsrMinstret, "minstret", PrivMachine, full, full, 0, false)
	c.Tie(CsrMcycle, &h.CycleCount)
	c.Tie(CsrMinstret, &h.RetiredInsts)
	def(CsrCycle, "cycle", PrivUser, 0, 0, 0, false)
	def(CsrInstret, "instret", PrivUser, 0, 0, 0, false)
	c.Tie(CsrCycle, &h.CycleCount)
	c.Tie(CsrInstret, &h.RetiredInsts)

	if h.XLen == XLen32 {
		var cycleHi, instretHi uint64
		def(CsrMcycleH, "mcycleh", PrivMachine, 0xFFFFFFFF, 0xFFFFFFFF, 0, false)
		def(CsrMinstretH, "minstreth", PrivMachine, 0xFFFFFFFF, 0xFFFFFFFF, 0, false)
		c.Tie(CsrMcycleH, &cycleHi)
		c.Tie(CsrMinstretH, &instretHi)
		def(CsrCycleH, "cycleh", PrivUser, 0, 0, 0, false)
		def(CsrTimeH, "timeh", PrivUser, 0, 0, 0, false)
		def(CsrInstretH, "instreth", PrivUser, 0, 0, 0, false)
	}
	def(CsrTime, "time", PrivUser, 0, 0, 0, false)

	// Implementation-defined.
	def(CsrMdseac, "mdseac", PrivMachine, 0, full, 0, false) // software cannot write it directly; only poke
	def(CsrMeihap, "meihap", PrivMachine, full&^0x3FC, full, 0, false)
	def(CsrMgpmc, "mgpmc", PrivMachine, 0x1, 0x1, 0x1, false)
	def(CsrMrac, "mrac", PrivMachine, full, full, 0, false)

	for i := 3; i <= 31; i++ {
		def(uint16(CsrMhpmcounter3Base+i-3), "mhpmcounter"+itoa(i), PrivMachine, full, full, 0, false)
		def(uint16(CsrMhpmevent3Base+i-3), "mhpmevent"+itoa(i), PrivMachine, full, full, 0, false)
	}

	// Debug CSRs.
	def(CsrDcsr, "dcsr", PrivMachine, 0x00FF8FFC, 0xFFFFFFFF, 0x40000003, true)
	def(CsrDpc, "dpc", PrivMachine, full&^1, full&^1, 0, true)
	def(CsrDscratch0, "dscratch0", PrivMachine, full, full, 0, true)
	def(CsrDscratch1, "dscratch1", PrivMachine, full, full, 0, true)

	def(CsrTselect, "tselect", PrivMachine, full, full, 0, false)
	def(CsrTdata1, "tdata1", PrivMachine, full, full, 0, false)
	def(CsrTdata2, "tdata2", PrivMachine, full, full, 0, false)
	def(CsrTdata3, "tdata3", PrivMachine, full, full, 0, false)

	c.PostWriteHook = func(num uint16, old, newV uint64) {
		switch num {
		case CsrDcsr:
			h.dcsrStep = newV&(1<<2) != 0
			h.dcsrStepIE = newV&(1<<11) != 0
		case CsrMgpmc:
			// Delayed enable: this instruction's accounting pass still
			// observes prevCountersOn; the *next* instruction observes
			// the freshly written bit (spec.md §9).
			h.countersOn = newV&0x1 != 0
		case CsrTdata1, CsrTdata2, CsrTdata3:
			c.MarkTriggerWritten(0)
		}
	}
}

func isaBaseBits(xlen XLen) uint64 {
	if xlen == XLen64 {
		return 2 << 62
	}
	return 1 << 30
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	neg := i < 0
	if neg {
		i = -i
	}
	var buf [20]byte
	pos := len(buf)
	for i > 0 {
		pos--
		buf[pos] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		pos--
		buf[pos] = '-'
	}
	return string(buf[pos:])
}
