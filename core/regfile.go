package core

// IntRegisterFile holds the 32 integer registers of a hart. x0 is
// hard-wired to zero: reads always return 0 and writes are ignored.
// The most recent write (index and prior value) is retained until
// ClearTrace so the trace emitter and trigger rollback can see it.
type IntRegisterFile struct {
	regs [32]uint64
	xlen XLen

	lastWritten     int // -1 if nothing written since last clear
	lastWrittenPrev uint64
}

// NewIntRegisterFile creates a zeroed integer register file.
func NewIntRegisterFile(xlen XLen) *IntRegisterFile {
	return &IntRegisterFile{xlen: xlen, lastWritten: -1}
}

// Read returns the value of register i, or 0 for i==0.
func (r *IntRegisterFile) Read(i int) uint64 {
	if i == 0 {
		return 0
	}
	return r.regs[i]
}

// Write sets register i to v, recording the prior value for tracing.
// Writes to x0 are silently dropped.
func (r *IntRegisterFile) Write(i int, v uint64) {
	if i == 0 {
		return
	}
	v = truncateToXlen(v, r.xlen)
	r.lastWritten = i
	r.lastWrittenPrev = r.regs[i]
	r.regs[i] = v
}

// Poke sets register i like Write but does not record it for tracing
// or trigger rollback; used by debugger/test-bench pokes.
func (r *IntRegisterFile) Poke(i int, v uint64) {
	if i == 0 {
		return
	}
	r.regs[i] = truncateToXlen(v, r.xlen)
}

// LastWritten returns the index of the most recently written register,
// or -1 if none since the last ClearTrace.
func (r *IntRegisterFile) LastWritten() int {
	return r.lastWritten
}

// LastWrittenWithPrev returns the most recently written register index
// and its value immediately before that write.
func (r *IntRegisterFile) LastWrittenWithPrev() (int, uint64) {
	return r.lastWritten, r.lastWrittenPrev
}

// UndoLastWrite restores the most recently written register to its
// prior value; used by trigger rollback (spec.md §4.4.3).
func (r *IntRegisterFile) UndoLastWrite() {
	if r.lastWritten > 0 {
		r.regs[r.lastWritten] = r.lastWrittenPrev
	}
}

// ClearTrace forgets the last-written record without touching storage.
func (r *IntRegisterFile) ClearTrace() {
	r.lastWritten = -1
}

// ShiftMask returns xlen-1, the mask variable shift amounts are
// reduced by before use.
func (r *IntRegisterFile) ShiftMask() uint64 {
	if r.xlen == XLen32 {
		return 31
	}
	return 63
}

// Reset zeroes all registers and clears the trace record.
func (r *IntRegisterFile) Reset() {
	for i := range r.regs {
		r.regs[i] = 0
	}
	r.lastWritten = -1
	r.lastWrittenPrev = 0
}

// singleNaN is the canonical quiet NaN bit pattern for single precision.
const singleNaN uint64 = 0xFFFFFFFF7FC00000

// FPRegisterFile holds the 32 floating-point registers. Each entry is
// stored as 64 raw bits; single-precision values are NaN-boxed (upper
// 32 bits set to all ones) on write, per spec.md §3/§4.2.
type FPRegisterFile struct {
	regs [32]uint64

	lastWritten     int
	lastWrittenPrev uint64
}

// NewFPRegisterFile creates a zeroed FP register file.
func NewFPRegisterFile() *FPRegisterFile {
	return &FPRegisterFile{lastWritten: -1}
}

// ReadBits returns the raw 64 bits stored in register i.
func (f *FPRegisterFile) ReadBits(i int) uint64 {
	return f.regs[i]
}

// PokeBits sets the raw 64 bits of register i without recording a
// trace entry.
func (f *FPRegisterFile) PokeBits(i int, v uint64) {
	f.regs[i] = v
}

// ReadSingle interprets register i as a NaN-boxed single. If the upper
// 32 bits are not all ones, the box is broken and the canonical
// single-precision quiet NaN is returned instead (spec.md §4.2).
func (f *FPRegisterFile) ReadSingle(i int) uint32 {
	v := f.regs[i]
	if v>>32 != 0xFFFFFFFF {
		return 0x7FC00000
	}
	return uint32(v)
}

// WriteSingle NaN-boxes a single-precision bit pattern into register i.
func (f *FPRegisterFile) WriteSingle(i int, v uint32) {
	f.record(i)
	f.regs[i] = 0xFFFFFFFF00000000 | uint64(v)
}

// Read returns register i as a double-precision bit pattern.
func (f *FPRegisterFile) Read(i int) uint64 {
	return f.regs[i]
}

// Write sets register i to a double-precision bit pattern.
func (f *FPRegisterFile) Write(i int, v uint64) {
	f.record(i)
	f.regs[i] = v
}

func (f *FPRegisterFile) record(i int) {
	f.lastWritten = i
	f.lastWrittenPrev = f.regs[i]
}

// LastWrittenWithPrev mirrors IntRegisterFile's tracing contract.
func (f *FPRegisterFile) LastWrittenWithPrev() (int, uint64) {
	return f.lastWritten, f.lastWrittenPrev
}

// ClearTrace forgets the last-written record.
func (f *FPRegisterFile) ClearTrace() {
	f.lastWritten = -1
}

// Reset zeroes all FP registers.
func (f *FPRegisterFile) Reset() {
	for i := range f.regs {
		f.regs[i] = 0
	}
	f.lastWritten = -1
}

// CustomRegisterFile is a small 4-entry auxiliary register file for
// implementation-defined custom extensions.
type CustomRegisterFile struct {
	regs [4]uint64
}

// Read returns custom register i (0..3), or 0 out of range.
func (c *CustomRegisterFile) Read(i int) uint64 {
	if i < 0 || i > 3 {
		return 0
	}
	return c.regs[i]
}

// Write sets custom register i (0..3); out-of-range writes are ignored.
func (c *CustomRegisterFile) Write(i int, v uint64) {
	if i < 0 || i > 3 {
		return
	}
	c.regs[i] = v
}

// Reset zeroes all custom registers.
func (c *CustomRegisterFile) Reset() {
	for i := range c.regs {
		c.regs[i] = 0
	}
}
