package core

import "fmt"

// CSR numbers used by the core. Only the subset spec.md §6 names is
// addressed explicitly; anything else decodes but is "not implemented".
const (
	CsrFflags = 0x001
	CsrFrm    = 0x002
	CsrFcsr   = 0x003

	CsrCycle   = 0xC00
	CsrTime    = 0xC01
	CsrInstret = 0xC02
	CsrCycleH   = 0xC80
	CsrTimeH    = 0xC81
	CsrInstretH = 0xC82

	CsrSstatus = 0x100
	CsrSie     = 0x104
	CsrStvec   = 0x105
	CsrSepc    = 0x141
	CsrScause  = 0x142
	CsrStval   = 0x143
	CsrSip     = 0x144

	CsrMstatus  = 0x300
	CsrMisa     = 0x301
	CsrMedeleg  = 0x302
	CsrMideleg  = 0x303
	CsrMie      = 0x304
	CsrMtvec    = 0x305
	CsrMcounteren = 0x306
	CsrMscratch = 0x340
	CsrMepc     = 0x341
	CsrMcause   = 0x342
	CsrMtval    = 0x343
	CsrMip      = 0x344

	CsrMcycle    = 0xB00
	CsrMinstret  = 0xB02
	CsrMcycleH   = 0xB80
	CsrMinstretH = 0xB82

	CsrMvendorid = 0xF11
	CsrMarchid   = 0xF12
	CsrMimpid    = 0xF13
	CsrMhartid   = 0xF14

	// Implementation-defined CSRs (spec.md §6).
	CsrMdseac = 0x7C0
	CsrMeihap = 0x7C8
	CsrMgpmc  = 0x7D0
	CsrMrac   = 0x7C1

	// Debug CSRs (debug-only).
	CsrDcsr   = 0x7B0
	CsrDpc    = 0x7B1
	CsrDscratch0 = 0x7B2
	CsrDscratch1 = 0x7B3

	// Trigger CSRs.
	CsrTselect = 0x7A0
	CsrTdata1  = 0x7A1
	CsrTdata2  = 0x7A2
	CsrTdata3  = 0x7A3

	// CsrMhpmcounter3Base/CsrMhpmevent3Base are the low ends of the
	// event-indexed performance-counter ranges (counters 3..31).
	CsrMhpmcounter3Base = 0xB03
	CsrMhpmevent3Base   = 0x323
)

// CSRDescriptor is the sparse register descriptor of spec.md §3: reset
// value, write/poke masks, implemented/privilege/debug-only flags, and
// either owned storage or a tied pointer to an externally-held word.
type CSRDescriptor struct {
	Number       uint16
	Name         string
	Implemented  bool
	Privilege    Privilege
	DebugOnly    bool
	WriteMask    uint64
	PokeMask     uint64
	ResetValue   uint64

	value uint64  // owned storage, used when tied == nil
	tied  *uint64 // externally owned storage, e.g. MINSTRET/MCYCLE

	prevValue uint64
}

func (d *CSRDescriptor) load() uint64 {
	if d.tied != nil {
		return *d.tied
	}
	return d.value
}

func (d *CSRDescriptor) store(v uint64) {
	if d.tied != nil {
		*d.tied = v
		return
	}
	d.value = v
}

// CSRFile is the sparse CSR file keyed by 12-bit CSR number.
type CSRFile struct {
	descs map[uint16]*CSRDescriptor
	xlen  XLen

	writtenCSRs     map[uint16]bool
	writtenTriggers map[int]bool

	mdseacLocked bool

	// PostWriteHook observes side-effecting writes (DCSR step/step-IE,
	// MGPMC counter-enable) so the hart can react without the CSR file
	// knowing about hart internals (spec.md §4.3, §9 "cyclic structure").
	PostWriteHook func(num uint16, old, new uint64)
}

// NewCSRFile builds an empty CSR file for the given register width.
func NewCSRFile(xlen XLen) *CSRFile {
	return &CSRFile{
		descs:           make(map[uint16]*CSRDescriptor),
		xlen:            xlen,
		writtenCSRs:     make(map[uint16]bool),
		writtenTriggers: make(map[int]bool),
	}
}

// Define registers a CSR descriptor, applying its reset value.
func (c *CSRFile) Define(d CSRDescriptor) {
	dd := d
	dd.value = dd.ResetValue
	c.descs[dd.Number] = &dd
}

// Tie binds a CSR's storage to an externally held word (spec.md §4.3,
// "Tying"), so increments to that word are observed on read with no
// explicit synchronization.
func (c *CSRFile) Tie(num uint16, storage *uint64) {
	if d, ok := c.descs[num]; ok {
		d.tied = storage
		*storage = d.ResetValue
	}
}

func (c *CSRFile) lookup(num uint16) (*CSRDescriptor, bool) {
	d, ok := c.descs[num]
	return d, ok
}

// Read returns the CSR value, failing if it is unimplemented, the
// caller's privilege is insufficient, or it is debug-only and the core
// is not in debug mode.
func (c *CSRFile) Read(num uint16, priv Privilege, debug bool) (uint64, bool) {
	d, ok := c.lookup(num)
	if !ok || !d.Implemented {
		return 0, false
	}
	if priv < d.Privilege {
		return 0, false
	}
	if d.DebugOnly && !debug {
		return 0, false
	}
	return d.load(), true
}

// Write applies value & writeMask to the CSR, subject to privilege and
// debug-only gating, and records it as written since the last flush.
// MDSEAC additionally honors the NMI-unlock lock: once locked, writes
// are accepted into the log but never change the stored value (spec.md
// §4.4.2, §5).
func (c *CSRFile) Write(num uint16, priv Privilege, debug bool, value uint64) bool {
	d, ok := c.lookup(num)
	if !ok || !d.Implemented {
		return false
	}
	if priv < d.Privilege {
		return false
	}
	if d.DebugOnly && !debug {
		return false
	}

	old := d.load()
	if num == CsrMdseac && c.mdseacLocked {
		c.markWritten(num)
		return true
	}

	// MEIHAP: CSR writes leave the claim-id bits (2-9) untouched.
	if num == CsrMeihap {
		newVal := (old &^ (d.WriteMask &^ 0x3FC)) | (value & d.WriteMask &^ 0x3FC)
		d.prevValue = old
		d.store(newVal)
	} else {
		newVal := (old &^ d.WriteMask) | (value & d.WriteMask)
		d.prevValue = old
		d.store(newVal)
	}

	c.markWritten(num)
	if c.PostWriteHook != nil {
		c.PostWriteHook(num, old, d.load())
	}
	return true
}

// Poke applies value & pokeMask without recording a trace entry; used
// by the trap unit and test bench to modify fields read-only to
// software (MDSEAC, MEPC, ...). Poke is not gated by the write lock:
// the "lock" only suppresses software writes.
func (c *CSRFile) Poke(num uint16, value uint64) bool {
	d, ok := c.lookup(num)
	if !ok {
		return false
	}
	old := d.load()
	if num == CsrMeihap {
		// Pokes only affect the claim-id bits.
		newVal := (old &^ 0x3FC) | (value & 0x3FC)
		d.store(newVal)
		return true
	}
	newVal := (old &^ d.PokeMask) | (value & d.PokeMask)
	d.store(newVal)
	return true
}

func (c *CSRFile) markWritten(num uint16) {
	c.writtenCSRs[num] = true
	switch num {
	case CsrTdata1, CsrTdata2, CsrTdata3:
		c.writtenTriggers[0] = true
	}
}

// MarkTriggerWritten records that the trigger indexed by ix changed,
// for the trace record's "(triggerIx << 16) | csrNumber" encoding.
func (c *CSRFile) MarkTriggerWritten(ix int) {
	c.writtenTriggers[ix] = true
}

// LastWrittenRegs returns the CSR numbers and trigger indices written
// since the last ClearLastWritten.
func (c *CSRFile) LastWrittenRegs() ([]uint16, []int) {
	regs := make([]uint16, 0, len(c.writtenCSRs))
	for n := range c.writtenCSRs {
		regs = append(regs, n)
	}
	trigs := make([]int, 0, len(c.writtenTriggers))
	for t := range c.writtenTriggers {
		trigs = append(trigs, t)
	}
	return regs, trigs
}

// ClearLastWritten flushes the written-since-last-trace set.
func (c *CSRFile) ClearLastWritten() {
	c.writtenCSRs = make(map[uint16]bool)
	c.writtenTriggers = make(map[int]bool)
}

// LockMDSEAC sets or clears the MDSEAC write-ignore lock.
func (c *CSRFile) LockMDSEAC(locked bool) {
	c.mdseacLocked = locked
}

// MDSEACLocked reports whether MDSEAC is currently locked.
func (c *CSRFile) MDSEACLocked() bool {
	return c.mdseacLocked
}

// MustRead reads a CSR the core itself depends on (e.g. MSTATUS during
// trap dispatch) and panics if it is missing: a core-defined CSR that
// fails to read back is a simulator-internal assertion failure
// (spec.md §7.5), never an architectural fault.
func (c *CSRFile) MustRead(num uint16) uint64 {
	v, ok := c.Read(num, PrivMachine, true)
	if !ok {
		panic(fmt.Sprintf("core: mandatory csr 0x%03x missing or unreadable", num))
	}
	return v
}

// MustPoke pokes a CSR the core itself depends on, ignoring mask
// restrictions the way internal trap-unit writes to EPC/CAUSE/TVAL do.
func (c *CSRFile) MustPoke(num uint16, value uint64) {
	d, ok := c.lookup(num)
	if !ok {
		panic(fmt.Sprintf("core: mandatory csr 0x%03x not defined", num))
	}
	d.store(value)
}
