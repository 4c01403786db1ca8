package core

// Hart is a single hardware thread's complete architectural state
// (spec.md §3). It owns its register files, CSR file, and speculation
// queues exclusively; Memory is shared by reference.
type Hart struct {
	ID uint64

	XLen XLen
	PC   uint64 // architectural program counter
	CurrentPC uint64 // pc of the instruction being executed this step

	Privilege      Privilege
	DebugMode      bool
	DebugStepMode  bool

	RetiredInsts uint64
	CycleCount   uint64

	EnabledExtensions uint32

	// Per-instruction FP scratch (spec.md §3).
	RoundingModeForInst uint32
	Rs3ForInst          int

	// Load-reservation state for LR/SC.
	HasLR  bool
	LRAddr uint64
	LRSize int

	IntRegs    *IntRegisterFile
	FPRegs     *FPRegisterFile
	CustomRegs *CustomRegisterFile
	CSRs       *CSRFile

	Mem Memory

	// ToHostAddr/ConsoleIOAddr are resolved by the loader from the
	// tohost/__whisper_console_io symbols (spec.md §6) and wired in
	// before the run loop starts; zero means "absent, never matches".
	ToHostAddr   uint64
	ConsoleIOAddr uint64

	StoreQueue *StoreQueue
	LoadQueue  *LoadQueue

	Triggers TriggerUnit

	Stats *Statistics
	Trace *TraceEmitter

	// NMI pending state, latched by apply_{load,store}_exception and by
	// an external bus-error source.
	nmiPending bool
	nmiCause   uint64

	// dcsrStep/dcsrStepIE cache DCSR's step/stepie bits so the run loop
	// doesn't need to re-read the CSR file every instruction (spec.md
	// §9 "cyclic structure").
	dcsrStep   bool
	dcsrStepIE bool

	// countersOn/prevCountersOn implement MGPMC's one-instruction
	// delayed enable (spec.md §6, §9): the write itself is still
	// counted under the old state.
	countersOn     bool
	prevCountersOn bool

	// Last-branch-taken flag, surfaced for statistics (spec.md §4.4).
	LastBranchTaken bool

	// HasException/TriggerTripped/LoadAddrValid are cleared at the top
	// of each step (spec.md §4.5 step 2) and consumed at the bottom.
	HasException   bool
	TriggerTripped bool
	LoadAddrValid  bool

	consecutiveIllegal int

	// UserOK is the cooperative-cancellation flag the run loop checks
	// at step boundaries (spec.md §5); a SIGINT handler outside the
	// core flips it to false.
	UserOK bool
}

// HartConfig carries the construction-time parameters spec.md §3 fixes
// for the lifetime of a Hart.
type HartConfig struct {
	ID                uint64
	XLen              XLen
	EnabledExtensions uint32
	StoreQueueDepth   int
	LoadQueueDepth    int
	Mem               Memory
}

// NewHart constructs a Hart at its reset state. A requested D without F
// has D cleared silently (spec.md §3 "enabled_extensions"); no other
// requested extension bit is checked or cleared, and no diagnostic is
// emitted.
func NewHart(cfg HartConfig) *Hart {
	ext := cfg.EnabledExtensions
	if ext&ExtD != 0 && ext&ExtF == 0 {
		ext &^= ExtD // D requires F
	}

	h := &Hart{
		ID:                cfg.ID,
		XLen:              cfg.XLen,
		EnabledExtensions: ext,
		IntRegs:           NewIntRegisterFile(cfg.XLen),
		FPRegs:            NewFPRegisterFile(),
		CustomRegs:        &CustomRegisterFile{},
		CSRs:              NewCSRFile(cfg.XLen),
		Mem:               cfg.Mem,
		StoreQueue:        NewStoreQueue(cfg.StoreQueueDepth),
		LoadQueue:         NewLoadQueue(cfg.LoadQueueDepth),
		Triggers:          noopTriggerUnit{},
		Stats:             NewStatistics(),
		Trace:             NewTraceEmitter(),
		UserOK:            true,
	}
	h.Privilege = PrivMachine
	defineCSRs(h)
	return h
}

// Reset restores a Hart to its post-construction state. A second reset
// leaves identical state besides memory-mapped registers, which the
// caller may suppress by not re-zeroing Mem (spec.md §8 round-trip).
func (h *Hart) Reset() {
	h.PC = 0
	h.CurrentPC = 0
	h.Privilege = PrivMachine
	h.DebugMode = false
	h.DebugStepMode = false
	h.RetiredInsts = 0
	h.CycleCount = 0
	h.HasLR = false
	h.LRAddr = 0
	h.LRSize = 0
	h.IntRegs.Reset()
	h.FPRegs.Reset()
	h.CustomRegs.Reset()
	h.CSRs = NewCSRFile(h.XLen)
	defineCSRs(h)
	h.StoreQueue.Reset()
	h.LoadQueue.Reset()
	h.nmiPending = false
	h.nmiCause = 0
	h.dcsrStep = false
	h.dcsrStepIE = false
	h.countersOn = false
	h.prevCountersOn = false
	h.LastBranchTaken = false
	h.consecutiveIllegal = 0
	h.UserOK = true
}

// SetTrigger installs the trigger engine the run loop polls for
// address/opcode/data/icount "hit" signals (spec.md §1, §4.4.3). The
// trigger-match logic itself is an external collaborator; the core
// only consumes its result.
func (h *Hart) SetTrigger(t TriggerUnit) {
	if t == nil {
		t = noopTriggerUnit{}
	}
	h.Triggers = t
}
