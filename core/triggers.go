package core

// TriggerUnit is the external-collaborator contract for the
// debug-trigger engine (spec.md §1, §4.4.3): address/opcode/data/icount
// match logic lives entirely outside the core, which only ever
// consumes a "hit" signal at well-defined poll points.
type TriggerUnit interface {
	// CheckAddress is polled before fetch with the address about to be
	// fetched (spec.md §4.5 step 3).
	CheckAddress(pc uint64) bool
	// CheckOpcode is polled after fetch, before execute, with the raw
	// instruction word (spec.md §4.5 step 5).
	CheckOpcode(pc uint64, inst uint32) bool
	// CheckICount is polled after a successful retirement (spec.md
	// §4.4.3 "An icount trigger fires after execution").
	CheckICount() bool

	// HasEnterDebug reports whether a trigger hit should enter debug
	// mode (true) or raise a breakpoint exception (false), mirroring
	// DCSR.hasEnterDebug (spec.md §4.4.3).
	HasEnterDebug() bool
}

// noopTriggerUnit is the default TriggerUnit: no trigger ever fires.
// Installed by NewHart so the core is usable without wiring a real
// debug-trigger engine.
type noopTriggerUnit struct{}

func (noopTriggerUnit) CheckAddress(pc uint64) bool        { return false }
func (noopTriggerUnit) CheckOpcode(pc uint64, inst uint32) bool { return false }
func (noopTriggerUnit) CheckICount() bool                  { return false }
func (noopTriggerUnit) HasEnterDebug() bool                 { return false }
