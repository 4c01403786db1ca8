package debugger

import (
	"testing"

	"riscv-sim/core"
)

func newTestHart(t *testing.T) *core.Hart {
	t.Helper()
	mem := core.NewSimpleMemory(0x8000_0000, 64<<10, 0, 0)
	return core.NewHart(core.HartConfig{XLen: core.XLen64, Mem: mem})
}

func TestWatchpointManager_AddWatchpoint(t *testing.T) {
	wm := NewWatchpointManager()

	wp := wm.AddWatchpoint(WatchRegister, "a0", 0, false, 10)

	if wp == nil {
		t.Fatal("AddWatchpoint returned nil")
	}

	if wp.ID != 1 {
		t.Errorf("Expected ID 1, got %d", wp.ID)
	}

	if wp.Type != WatchRegister {
		t.Errorf("Wrong watchpoint type: got %d, want %d", wp.Type, WatchRegister)
	}

	if wp.Expression != "a0" {
		t.Errorf("Expression = %s, want a0", wp.Expression)
	}

	if wp.IsFP {
		t.Error("Should be an integer register watchpoint")
	}

	if !wp.Enabled {
		t.Error("Watchpoint should be enabled by default")
	}

	if wp.HitCount != 0 {
		t.Errorf("Initial hit count should be 0, got %d", wp.HitCount)
	}
}

func TestWatchpointManager_AddMultiple(t *testing.T) {
	wm := NewWatchpointManager()

	wp1 := wm.AddWatchpoint(WatchRegister, "a0", 0, false, 10)
	wp2 := wm.AddWatchpoint(WatchMemory, "[0x1000]", 0x1000, false, 0)

	if wp1.ID == wp2.ID {
		t.Error("Watchpoint IDs should be unique")
	}

	if wm.Count() != 2 {
		t.Errorf("Expected 2 watchpoints, got %d", wm.Count())
	}
}

func TestWatchpointManager_DeleteWatchpoint(t *testing.T) {
	wm := NewWatchpointManager()

	wp := wm.AddWatchpoint(WatchRegister, "a0", 0, false, 10)

	err := wm.DeleteWatchpoint(wp.ID)
	if err != nil {
		t.Fatalf("DeleteWatchpoint failed: %v", err)
	}

	if wm.GetWatchpoint(wp.ID) != nil {
		t.Error("Watchpoint not deleted")
	}

	err = wm.DeleteWatchpoint(999)
	if err == nil {
		t.Error("Expected error when deleting non-existent watchpoint")
	}
}

func TestWatchpointManager_EnableDisable(t *testing.T) {
	wm := NewWatchpointManager()

	wp := wm.AddWatchpoint(WatchRegister, "a0", 0, false, 10)

	err := wm.DisableWatchpoint(wp.ID)
	if err != nil {
		t.Fatalf("DisableWatchpoint failed: %v", err)
	}

	if wp.Enabled {
		t.Error("Watchpoint not disabled")
	}

	err = wm.EnableWatchpoint(wp.ID)
	if err != nil {
		t.Fatalf("EnableWatchpoint failed: %v", err)
	}

	if !wp.Enabled {
		t.Error("Watchpoint not enabled")
	}
}

func TestWatchpointManager_CheckWatchpoints_Register(t *testing.T) {
	wm := NewWatchpointManager()
	h := newTestHart(t)

	wp := wm.AddWatchpoint(WatchRegister, "a0", 0, false, 10)

	h.IntRegs.Write(10, 100)
	if err := wm.InitializeWatchpoint(wp.ID, h); err != nil {
		t.Fatalf("InitializeWatchpoint failed: %v", err)
	}

	if wp.LastValue != 100 {
		t.Errorf("LastValue = %d, want 100", wp.LastValue)
	}

	triggered, changed := wm.CheckWatchpoints(h)
	if triggered != nil || changed {
		t.Error("Should not trigger when value hasn't changed")
	}

	h.IntRegs.Write(10, 200)
	triggered, changed = wm.CheckWatchpoints(h)
	if triggered == nil || !changed {
		t.Fatal("Should trigger when value changes")
	}

	if triggered.ID != wp.ID {
		t.Errorf("Wrong watchpoint triggered: got %d, want %d", triggered.ID, wp.ID)
	}

	if wp.HitCount != 1 {
		t.Errorf("Hit count = %d, want 1", wp.HitCount)
	}

	if wp.LastValue != 200 {
		t.Errorf("LastValue not updated: got %d, want 200", wp.LastValue)
	}
}

func TestWatchpointManager_CheckWatchpoints_Memory(t *testing.T) {
	wm := NewWatchpointManager()
	h := newTestHart(t)

	addr := uint64(0x8000_0010)

	wp := wm.AddWatchpoint(WatchMemory, "[0x80000010]", addr, false, 0)

	h.Mem.WriteDWord(addr, 0x12345678)
	if err := wm.InitializeWatchpoint(wp.ID, h); err != nil {
		t.Fatalf("InitializeWatchpoint failed: %v", err)
	}

	triggered, changed := wm.CheckWatchpoints(h)
	if triggered != nil || changed {
		t.Error("Should not trigger when value hasn't changed")
	}

	h.Mem.WriteDWord(addr, 0xABCDEF00)
	triggered, changed = wm.CheckWatchpoints(h)
	if triggered == nil || !changed {
		t.Fatal("Should trigger when value changes")
	}

	if triggered.ID != wp.ID {
		t.Errorf("Wrong watchpoint triggered: got %d, want %d", triggered.ID, wp.ID)
	}
}

func TestWatchpointManager_Disabled(t *testing.T) {
	wm := NewWatchpointManager()
	h := newTestHart(t)

	wp := wm.AddWatchpoint(WatchRegister, "a0", 0, false, 10)
	_ = wm.InitializeWatchpoint(wp.ID, h)
	_ = wm.DisableWatchpoint(wp.ID)

	h.IntRegs.Write(10, 100)

	triggered, _ := wm.CheckWatchpoints(h)
	if triggered != nil {
		t.Error("Disabled watchpoint should not trigger")
	}
}

func TestWatchpointManager_GetAllWatchpoints(t *testing.T) {
	wm := NewWatchpointManager()

	wm.AddWatchpoint(WatchRegister, "a0", 0, false, 10)
	wm.AddWatchpoint(WatchRegister, "a1", 0, false, 11)
	wm.AddWatchpoint(WatchMemory, "[0x1000]", 0x1000, false, 0)

	all := wm.GetAllWatchpoints()

	if len(all) != 3 {
		t.Errorf("Expected 3 watchpoints, got %d", len(all))
	}
}

func TestWatchpointManager_Clear(t *testing.T) {
	wm := NewWatchpointManager()

	wm.AddWatchpoint(WatchRegister, "a0", 0, false, 10)
	wm.AddWatchpoint(WatchRegister, "a1", 0, false, 11)

	wm.Clear()

	if wm.Count() != 0 {
		t.Errorf("Expected 0 watchpoints after clear, got %d", wm.Count())
	}
}

func TestWatchpoint_FPRegister(t *testing.T) {
	wm := NewWatchpointManager()
	h := newTestHart(t)

	wp := wm.AddWatchpoint(WatchRegister, "fa0", 0, true, 10)
	h.FPRegs.Write(10, 0x3ff0000000000000) // 1.0

	if err := wm.InitializeWatchpoint(wp.ID, h); err != nil {
		t.Fatalf("InitializeWatchpoint failed: %v", err)
	}
	if wp.LastValue != 0x3ff0000000000000 {
		t.Errorf("LastValue = %#x, want 1.0 bit pattern", wp.LastValue)
	}

	h.FPRegs.Write(10, 0x4000000000000000) // 2.0
	triggered, changed := wm.CheckWatchpoints(h)
	if triggered == nil || !changed {
		t.Fatal("Should trigger when FP register changes")
	}
}
