package core

// ============================================================================
// RISC-V Architecture Constants
// ============================================================================

// XLen is the register width of a hart, fixed at construction.
type XLen int

const (
	XLen32 XLen = 32
	XLen64 XLen = 64
)

// Privilege levels, encoded the same way MPP/SPP store them.
type Privilege uint8

const (
	PrivUser       Privilege = 0
	PrivSupervisor Privilege = 1
	PrivMachine    Privilege = 3
)

func (p Privilege) String() string {
	switch p {
	case PrivUser:
		return "U"
	case PrivSupervisor:
		return "S"
	case PrivMachine:
		return "M"
	default:
		return "?"
	}
}

// Extension bits, matching MISA bit positions (letter - 'A').
const (
	ExtA = 1 << 0  // Atomic
	ExtC = 1 << 2  // Compressed
	ExtD = 1 << 3  // Double-precision float
	ExtF = 1 << 5  // Single-precision float
	ExtM = 1 << 12 // Integer multiply/divide
	ExtS = 1 << 18 // Supervisor mode
	ExtU = 1 << 20 // User mode

	// ExtB is an experimental, implementation-defined bit-manipulation
	// subset (a handful of Zba/Zbb-style instructions), borrowing the
	// unused MISA bit 1 the way a vendor extension would.
	ExtB = 1 << 1
)

// Integer ABI register names, x0..x31.
var abiRegisterNames = [32]string{
	"zero", "ra", "sp", "gp", "tp", "t0", "t1", "t2",
	"s0", "s1", "a0", "a1", "a2", "a3", "a4", "a5",
	"a6", "a7", "s2", "s3", "s4", "s5", "s6", "s7",
	"s8", "s9", "s10", "s11", "t3", "t4", "t5", "t6",
}

// ABIName returns the ABI name of integer register i (0..31).
func ABIName(i int) string {
	if i < 0 || i > 31 {
		return "?"
	}
	return abiRegisterNames[i]
}

// Synchronous exception causes (mcause with bit 63/31 clear).
const (
	CauseInstAddrMisaligned = 0
	CauseInstAccessFault    = 1
	CauseIllegalInstruction = 2
	CauseBreakpoint         = 3
	CauseLoadAddrMisaligned = 4
	CauseLoadAccessFault    = 5
	CauseStoreAddrMisaligned = 6
	CauseStoreAccessFault   = 7
	CauseEcallU             = 8
	CauseEcallS             = 9
	CauseEcallM             = 11
)

// Interrupt causes (mcause with the sign bit set). This block is not in
// priority order; interruptPriority below gives the polling order.
const (
	InterruptMExternal  = 11
	InterruptMSoftware  = 3
	InterruptMTimer     = 7
	InterruptMLocal     = 16 // implementation-defined local/"correctable error" interrupt
	InterruptMIntTimer0 = 28
	InterruptMIntTimer1 = 29
)

// interruptPriority lists causes in the polling order spec.md §4.5 and
// §7.2 require: external, local, software, timer, then the two
// implementation-defined internal timers.
var interruptPriority = []uint{
	InterruptMExternal,
	InterruptMLocal,
	InterruptMSoftware,
	InterruptMTimer,
	InterruptMIntTimer0,
	InterruptMIntTimer1,
}

// Memory access sizes in bytes.
const (
	SizeByte = 1
	SizeHalf = 2
	SizeWord = 4
	SizeDWord = 8
)

// Performance-counter event numbers, indexing MHPMEVENT3..31.
type PerfEvent int

const (
	EventEcall PerfEvent = iota
	EventEbreak
	EventFence
	EventFencei
	EventMret
	EventAlu
	EventMul
	EventDiv
	EventLoad
	EventMisalignLoad
	EventStore
	EventMisalignStore
	EventLr
	EventSc
	EventAtomic
	EventCsrRead
	EventCsrWrite
	EventCsrReadWrite
	EventBranch
	EventBranchTaken
	EventInstCommitted
	EventInst16Committed
	EventInst32Committed
	EventInstAligned
	EventException
	EventExternalInterrupt
	EventTimerInterrupt

	numPerfEvents
)

// maxXlenMask returns the all-ones mask for the given register width.
func maxXlenMask(xlen XLen) uint64 {
	if xlen == XLen32 {
		return 0xFFFFFFFF
	}
	return 0xFFFFFFFFFFFFFFFF
}

// signExtend sign-extends the low `bits` bits of v to a full uint64.
func signExtend(v uint64, bits uint) uint64 {
	shift := 64 - bits
	return uint64(int64(v<<shift) >> shift)
}

// truncateToXlen masks a value down to the hart's register width.
func truncateToXlen(v uint64, xlen XLen) uint64 {
	return v & maxXlenMask(xlen)
}
