package core

import "fmt"

// RegionKind classifies a memory region the way the memory subsystem
// reports it to the core, for misaligned-access and idempotency checks
// (spec.md §4.4, load/store handlers).
type RegionKind int

const (
	RegionRAM RegionKind = iota
	RegionDCCM
	RegionMMIO
	RegionUnmapped
)

// Memory is the external-collaborator contract spec.md §6 describes:
// the core only ever calls these operations and never assumes how the
// memory subsystem is implemented underneath.
type Memory interface {
	ReadByte(addr uint64) (uint8, bool)
	ReadHalf(addr uint64) (uint16, bool)
	ReadWord(addr uint64) (uint32, bool)
	ReadDWord(addr uint64) (uint64, bool)

	WriteByte(addr uint64, v uint8) bool
	WriteHalf(addr uint64, v uint16) bool
	WriteWord(addr uint64, v uint32) bool
	WriteDWord(addr uint64, v uint64) bool

	// ReadInstHalf fetches one 16-bit instruction-side halfword,
	// distinct from ReadHalf because instruction- and data-closely-
	// coupled memories may be backed differently.
	ReadInstHalf(addr uint64) (uint16, bool)
	ReadInstWord(addr uint64) (uint32, bool)

	// CheckWrite reports whether a masked store value would be
	// accepted, without performing it (used for region-mismatch
	// pre-checks ahead of misaligned stores).
	CheckWrite(addr uint64, maskedValue uint64, size int) bool

	RegionOf(addr uint64) RegionKind
	IsInDCCM(addr uint64) bool
	IsLastWriteToDCCM() bool
	PageSize() uint64

	// GetLastWriteValue reports the old/new bytes of the most recent
	// write touching addr, and the size of that write, used by the
	// store-speculation queue to reconstruct roll-back state.
	GetLastWriteValue(addr uint64) (old, new uint64, size int, ok bool)
}

// SimpleMemory is a reference Memory implementation: flat byte slices
// per region plus a DCCM window, sufficient to drive the core in tests
// and the CLI without a real SoC memory map behind it.
type SimpleMemory struct {
	ram      []byte
	ramBase  uint64
	dccmBase uint64
	dccmSize uint64
	dccm     []byte

	// mmio is a small set of memory-mapped single-byte registers
	// (console in/out) wired by the CLI/loader.
	mmio map[uint64]*mmioReg

	pageSize uint64

	lastWriteAddr uint64
	lastWriteOld  uint64
	lastWriteNew  uint64
	lastWriteSize int
	lastWriteOK   bool
	lastWasDCCM   bool

	// ForceFetchFail/ForceReadFail/ForceWriteFail are conformance test
	// hooks: while an address is set, every access of that kind at that
	// address fails (the entry is not cleared by a failure), mirroring spec.md §4.4's "forced fetch-fail" / "force-fail test
	// hook" language for INST_ACC_FAULT / LOAD_ACC_FAULT / STORE_ACC_FAULT.
	ForceFetchFail map[uint64]bool
	ForceReadFail  map[uint64]bool
	ForceWriteFail map[uint64]bool
}

type mmioReg struct {
	read  func() (uint8, bool)
	write func(uint8) bool
}

// NewSimpleMemory allocates a flat RAM region starting at ramBase plus
// a DCCM window, matching spec.md's data-closely-coupled-memory model.
func NewSimpleMemory(ramBase uint64, ramSize uint64, dccmBase, dccmSize uint64) *SimpleMemory {
	return &SimpleMemory{
		ram:            make([]byte, ramSize),
		ramBase:        ramBase,
		dccmBase:       dccmBase,
		dccmSize:       dccmSize,
		dccm:           make([]byte, dccmSize),
		mmio:           make(map[uint64]*mmioReg),
		pageSize:       4096,
		ForceFetchFail: make(map[uint64]bool),
		ForceReadFail:  make(map[uint64]bool),
		ForceWriteFail: make(map[uint64]bool),
	}
}

// MapMMIO registers a single-byte memory-mapped register at addr, used
// for console-in/console-out wiring by the CLI.
func (m *SimpleMemory) MapMMIO(addr uint64, read func() (uint8, bool), write func(uint8) bool) {
	m.mmio[addr] = &mmioReg{read: read, write: write}
}

func (m *SimpleMemory) backing(addr uint64) (buf []byte, off uint64, isDCCM bool, ok bool) {
	if addr >= m.dccmBase && addr < m.dccmBase+m.dccmSize {
		return m.dccm, addr - m.dccmBase, true, true
	}
	if addr >= m.ramBase && addr < m.ramBase+uint64(len(m.ram)) {
		return m.ram, addr - m.ramBase, false, true
	}
	return nil, 0, false, false
}

func (m *SimpleMemory) RegionOf(addr uint64) RegionKind {
	if _, ok := m.mmio[addr]; ok {
		return RegionMMIO
	}
	if addr >= m.dccmBase && addr < m.dccmBase+m.dccmSize {
		return RegionDCCM
	}
	if addr >= m.ramBase && addr < m.ramBase+uint64(len(m.ram)) {
		return RegionRAM
	}
	return RegionUnmapped
}

func (m *SimpleMemory) IsInDCCM(addr uint64) bool {
	return addr >= m.dccmBase && addr < m.dccmBase+m.dccmSize
}

func (m *SimpleMemory) IsLastWriteToDCCM() bool {
	return m.lastWasDCCM
}

func (m *SimpleMemory) PageSize() uint64 {
	return m.pageSize
}

func (m *SimpleMemory) ReadByte(addr uint64) (uint8, bool) {
	if m.ForceReadFail[addr] {
		return 0, false
	}
	if reg, ok := m.mmio[addr]; ok {
		return reg.read()
	}
	buf, off, _, ok := m.backing(addr)
	if !ok || off >= uint64(len(buf)) {
		return 0, false
	}
	return buf[off], true
}

func (m *SimpleMemory) ReadHalf(addr uint64) (uint16, bool) {
	b0, ok0 := m.ReadByte(addr)
	b1, ok1 := m.ReadByte(addr + 1)
	if !ok0 || !ok1 {
		return 0, false
	}
	return uint16(b0) | uint16(b1)<<8, true
}

func (m *SimpleMemory) ReadWord(addr uint64) (uint32, bool) {
	lo, ok0 := m.ReadHalf(addr)
	hi, ok1 := m.ReadHalf(addr + 2)
	if !ok0 || !ok1 {
		return 0, false
	}
	return uint32(lo) | uint32(hi)<<16, true
}

func (m *SimpleMemory) ReadDWord(addr uint64) (uint64, bool) {
	lo, ok0 := m.ReadWord(addr)
	hi, ok1 := m.ReadWord(addr + 4)
	if !ok0 || !ok1 {
		return 0, false
	}
	return uint64(lo) | uint64(hi)<<32, true
}

func (m *SimpleMemory) ReadInstHalf(addr uint64) (uint16, bool) {
	if m.ForceFetchFail[addr] {
		return 0, false
	}
	return m.ReadHalf(addr)
}

func (m *SimpleMemory) ReadInstWord(addr uint64) (uint32, bool) {
	if m.ForceFetchFail[addr] {
		return 0, false
	}
	return m.ReadWord(addr)
}

func (m *SimpleMemory) WriteByte(addr uint64, v uint8) bool {
	if m.ForceWriteFail[addr] {
		return false
	}
	if reg, ok := m.mmio[addr]; ok {
		return reg.write(v)
	}
	buf, off, isDCCM, ok := m.backing(addr)
	if !ok || off >= uint64(len(buf)) {
		return false
	}
	old := buf[off]
	buf[off] = v
	m.recordWrite(addr, uint64(old), uint64(v), SizeByte, isDCCM)
	return true
}

func (m *SimpleMemory) WriteHalf(addr uint64, v uint16) bool {
	if !m.WriteByte(addr, uint8(v)) {
		return false
	}
	if !m.WriteByte(addr+1, uint8(v>>8)) {
		return false
	}
	return true
}

func (m *SimpleMemory) WriteWord(addr uint64, v uint32) bool {
	if !m.WriteHalf(addr, uint16(v)) {
		return false
	}
	if !m.WriteHalf(addr+2, uint16(v>>16)) {
		return false
	}
	return true
}

func (m *SimpleMemory) WriteDWord(addr uint64, v uint64) bool {
	if !m.WriteWord(addr, uint32(v)) {
		return false
	}
	if !m.WriteWord(addr+4, uint32(v>>32)) {
		return false
	}
	return true
}

func (m *SimpleMemory) recordWrite(addr, old, new uint64, size int, isDCCM bool) {
	m.lastWriteAddr = addr
	m.lastWriteOld = old
	m.lastWriteNew = new
	m.lastWriteSize = size
	m.lastWriteOK = true
	m.lastWasDCCM = isDCCM
}

func (m *SimpleMemory) GetLastWriteValue(addr uint64) (old, new uint64, size int, ok bool) {
	if !m.lastWriteOK || m.lastWriteAddr != addr {
		return 0, 0, 0, false
	}
	return m.lastWriteOld, m.lastWriteNew, m.lastWriteSize, true
}

func (m *SimpleMemory) CheckWrite(addr uint64, maskedValue uint64, size int) bool {
	if m.ForceWriteFail[addr] {
		return false
	}
	_, _, _, ok := m.backing(addr)
	if !ok {
		_, mmioOK := m.mmio[addr]
		return mmioOK
	}
	return true
}

// LoadImage copies data into RAM starting at addr, for the loader
// package. Returns an error if the image would run off the mapped
// region rather than silently truncating.
func (m *SimpleMemory) LoadImage(addr uint64, data []byte) error {
	for i, b := range data {
		if !m.WriteByte(addr+uint64(i), b) {
			return fmt.Errorf("core: load image byte %d at 0x%x falls outside mapped memory", i, addr+uint64(i))
		}
	}
	return nil
}
