package debugger

import (
	"fmt"
	"sync"

	"riscv-sim/core"
)

// WatchType distinguishes a register watchpoint from a memory one.
// Both are change-detection watchpoints: Debugger.ShouldBreak polls
// CheckWatchpoints each step and stops as soon as a monitored value
// differs from what it was the last time it was checked, rather than
// trapping on the actual load/store (core.Memory exposes no read/write
// callback hooks for that).
type WatchType int

const (
	WatchRegister WatchType = iota
	WatchMemory
)

// Watchpoint monitors a register or a doubleword of memory for a
// value change.
type Watchpoint struct {
	ID         int
	Type       WatchType
	Expression string // original text, e.g. "a0" or "[0x80001000]"
	Address    uint64 // resolved address, for WatchMemory
	IsFP       bool   // Register names an FP register rather than an integer one
	Register   int
	Enabled    bool
	LastValue  uint64
	HitCount   int
}

// WatchpointManager owns every watchpoint for one debugger session.
type WatchpointManager struct {
	mu          sync.RWMutex
	watchpoints map[int]*Watchpoint
	nextID      int
}

func NewWatchpointManager() *WatchpointManager {
	return &WatchpointManager{
		watchpoints: make(map[int]*Watchpoint),
		nextID:      1,
	}
}

// AddWatchpoint adds a new watchpoint. Its LastValue is left at zero;
// call InitializeWatchpoint before the first CheckWatchpoints so the
// watchpoint doesn't immediately fire on the register/memory's current
// value.
func (wm *WatchpointManager) AddWatchpoint(wpType WatchType, expression string, address uint64, isFP bool, register int) *Watchpoint {
	wm.mu.Lock()
	defer wm.mu.Unlock()

	wp := &Watchpoint{
		ID:         wm.nextID,
		Type:       wpType,
		Expression: expression,
		Address:    address,
		IsFP:       isFP,
		Register:   register,
		Enabled:    true,
	}

	wm.watchpoints[wp.ID] = wp
	wm.nextID++

	return wp
}

func (wm *WatchpointManager) DeleteWatchpoint(id int) error {
	wm.mu.Lock()
	defer wm.mu.Unlock()

	if _, exists := wm.watchpoints[id]; !exists {
		return fmt.Errorf("watchpoint %d not found", id)
	}

	delete(wm.watchpoints, id)
	return nil
}

func (wm *WatchpointManager) EnableWatchpoint(id int) error {
	wm.mu.Lock()
	defer wm.mu.Unlock()

	wp, exists := wm.watchpoints[id]
	if !exists {
		return fmt.Errorf("watchpoint %d not found", id)
	}

	wp.Enabled = true
	return nil
}

func (wm *WatchpointManager) DisableWatchpoint(id int) error {
	wm.mu.Lock()
	defer wm.mu.Unlock()

	wp, exists := wm.watchpoints[id]
	if !exists {
		return fmt.Errorf("watchpoint %d not found", id)
	}

	wp.Enabled = false
	return nil
}

func (wm *WatchpointManager) GetWatchpoint(id int) *Watchpoint {
	wm.mu.RLock()
	defer wm.mu.RUnlock()

	return wm.watchpoints[id]
}

func (wm *WatchpointManager) GetAllWatchpoints() []*Watchpoint {
	wm.mu.RLock()
	defer wm.mu.RUnlock()

	result := make([]*Watchpoint, 0, len(wm.watchpoints))
	for _, wp := range wm.watchpoints {
		result = append(result, wp)
	}

	return result
}

func (wm *WatchpointManager) readCurrent(wp *Watchpoint, h *core.Hart) (uint64, bool) {
	if wp.Type == WatchRegister {
		if wp.IsFP {
			return h.FPRegs.Read(wp.Register), true
		}
		return h.IntRegs.Read(wp.Register), true
	}
	return h.Mem.ReadDWord(wp.Address)
}

// CheckWatchpoints returns the first enabled watchpoint whose value
// differs from its last known value, updating that value and its hit
// count as a side effect.
func (wm *WatchpointManager) CheckWatchpoints(h *core.Hart) (*Watchpoint, bool) {
	wm.mu.Lock()
	defer wm.mu.Unlock()

	for _, wp := range wm.watchpoints {
		if !wp.Enabled {
			continue
		}

		current, ok := wm.readCurrent(wp, h)
		if !ok {
			continue
		}

		if current != wp.LastValue {
			wp.HitCount++
			wp.LastValue = current
			return wp, true
		}
	}

	return nil, false
}

// InitializeWatchpoint seeds LastValue from the hart's current state,
// so AddWatchpoint followed immediately by CheckWatchpoints doesn't
// report a spurious hit.
func (wm *WatchpointManager) InitializeWatchpoint(id int, h *core.Hart) error {
	wm.mu.Lock()
	defer wm.mu.Unlock()

	wp, exists := wm.watchpoints[id]
	if !exists {
		return fmt.Errorf("watchpoint %d not found", id)
	}

	value, ok := wm.readCurrent(wp, h)
	if !ok {
		return fmt.Errorf("failed to initialize watchpoint %d: memory read fault at %#x", id, wp.Address)
	}
	wp.LastValue = value
	return nil
}

func (wm *WatchpointManager) Clear() {
	wm.mu.Lock()
	defer wm.mu.Unlock()

	wm.watchpoints = make(map[int]*Watchpoint)
}

func (wm *WatchpointManager) Count() int {
	wm.mu.RLock()
	defer wm.mu.RUnlock()

	return len(wm.watchpoints)
}
