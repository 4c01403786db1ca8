package core

import "testing"

func newTestHart(t *testing.T) (*Hart, *SimpleMemory) {
	t.Helper()
	mem := NewSimpleMemory(0x1000, 0x1000, 0, 0)
	h := NewHart(HartConfig{
		XLen:              XLen64,
		EnabledExtensions: ExtM | ExtA | ExtC,
		StoreQueueDepth:   4,
		LoadQueueDepth:    4,
		Mem:               mem,
	})
	h.PC = 0x1000
	return h, mem
}

// encodeIType packs an I-type word: imm(12) rs1(5) funct3(3) rd(5) opcode(7).
func encodeIType(imm int32, rs1, funct3, rd int, opcode uint32) uint32 {
	return uint32(imm)<<20 | uint32(rs1)<<15 | uint32(funct3)<<12 | uint32(rd)<<7 | opcode
}

func TestStepAddImmediate(t *testing.T) {
	h, mem := newTestHart(t)
	// addi x1, x0, 5
	word := encodeIType(5, 0, 0, 1, 0b0010011)
	mem.WriteWord(0x1000, word)

	outcome, retired := h.Step(RunConfig{EnableStatistics: true})
	if outcome.Kind != StopNone {
		t.Fatalf("unexpected stop: %+v", outcome)
	}
	if !retired {
		t.Fatalf("expected instruction to retire")
	}
	if got := h.IntRegs.Read(1); got != 5 {
		t.Fatalf("x1 = %d, want 5", got)
	}
	if h.PC != 0x1004 {
		t.Fatalf("pc = %#x, want 0x1004", h.PC)
	}
	if h.RetiredInsts != 1 {
		t.Fatalf("retired count = %d, want 1", h.RetiredInsts)
	}
}

func TestStepIllegalInstructionTraps(t *testing.T) {
	h, mem := newTestHart(t)
	mem.WriteWord(0x1000, 0) // all-zero word decodes to illegal

	outcome, retired := h.Step(RunConfig{})
	if outcome.Kind != StopNone {
		t.Fatalf("unexpected stop: %+v", outcome)
	}
	if retired {
		t.Fatalf("an illegal instruction must not retire")
	}
	if h.ConsecutiveIllegalCount() != 1 {
		t.Fatalf("consecutive illegal count = %d, want 1", h.ConsecutiveIllegalCount())
	}
	cause := h.CSRs.MustRead(CsrMcause)
	if cause != CauseIllegalInstruction {
		t.Fatalf("mcause = %d, want %d", cause, CauseIllegalInstruction)
	}
}

func TestStoreToToHostStops(t *testing.T) {
	h, mem := newTestHart(t)
	h.ToHostAddr = 0x2000
	// addi x1, x0, 1 ; then sw x1, 0(x0) won't reach tohost addr directly;
	// construct store manually via two instructions: lui x2,0x2 ; sw x1,0(x2)
	addi := encodeIType(1, 0, 0, 1, 0b0010011)
	lui := uint32(2)<<12 | uint32(2)<<7 | 0b0110111 // lui x2, 2 -> 0x2000
	// S-type sw x1, 0(x2): imm[11:5] rs2 rs1 funct3 imm[4:0] opcode
	sw := uint32(0)<<25 | uint32(1)<<20 | uint32(2)<<15 | uint32(0b010)<<12 | uint32(0)<<7 | 0b0100011

	mem.WriteWord(0x1000, addi)
	mem.WriteWord(0x1004, lui)
	mem.WriteWord(0x1008, sw)

	for i := 0; i < 2; i++ {
		outcome, _ := h.Step(RunConfig{})
		if outcome.Kind != StopNone {
			t.Fatalf("unexpected stop at step %d: %+v", i, outcome)
		}
	}
	outcome, _ := h.Step(RunConfig{})
	if outcome.Kind != StopStop {
		t.Fatalf("expected StopStop, got %+v", outcome)
	}
	if outcome.Value != 1 {
		t.Fatalf("tohost value = %d, want 1", outcome.Value)
	}
}

func TestSimpleRunRetiresUntilStop(t *testing.T) {
	h, mem := newTestHart(t)
	h.ToHostAddr = 0x2000
	addi := encodeIType(1, 0, 0, 1, 0b0010011)
	lui := uint32(2)<<12 | uint32(2)<<7 | 0b0110111
	sw := uint32(0)<<25 | uint32(1)<<20 | uint32(2)<<15 | uint32(0b010)<<12 | uint32(0)<<7 | 0b0100011
	mem.WriteWord(0x1000, addi)
	mem.WriteWord(0x1004, lui)
	mem.WriteWord(0x1008, sw)

	outcome := h.SimpleRun()
	if outcome.Kind != StopStop || outcome.Value != 1 {
		t.Fatalf("SimpleRun outcome = %+v", outcome)
	}
	if h.RetiredInsts != 2 {
		t.Fatalf("retired = %d, want 2", h.RetiredInsts)
	}
}

func TestRunHonorsMaxInstructions(t *testing.T) {
	h, mem := newTestHart(t)
	addi := encodeIType(1, 1, 0, 1, 0b0010011) // addi x1, x1, 1
	for addr := uint64(0x1000); addr < 0x1020; addr += 4 {
		mem.WriteWord(addr, addi)
	}

	res := h.Run(RunConfig{MaxInstructions: 3, HasMaxInstrs: true})
	if !res.HitMaxInstr {
		t.Fatalf("expected HitMaxInstr, got %+v", res)
	}
	if h.RetiredInsts != 3 {
		t.Fatalf("retired = %d, want 3", h.RetiredInsts)
	}
}
