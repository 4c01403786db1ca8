package encoder

import (
	"testing"

	"riscv-sim/core"
)

func info(t *testing.T, mnemonic string) *core.InstInfo {
	t.Helper()
	ii, ok := core.LookupMnemonic(mnemonic)
	if !ok {
		t.Fatalf("no such mnemonic %q", mnemonic)
	}
	return ii
}

// simm converts a signed immediate to Decoded.Imm's two's-complement form.
func simm(v int64) uint64 { return uint64(v) }

// roundTrip builds a Decoded by hand, compresses it, decodes the
// result back, and checks the fields the instruction actually uses
// survived the trip (spec.md §8's encode/decode round trip).
func roundTrip(t *testing.T, xlen core.XLen, d *core.Decoded) *core.Decoded {
	t.Helper()
	w, ok := Compress(d, xlen)
	if !ok {
		t.Fatalf("%s did not compress: %+v", d.Info.Mnemonic, d)
	}
	back := core.DecodeCompressed(w, xlen, core.ExtC)
	if back.Info.Opcode != d.Info.Opcode {
		t.Fatalf("%s: round trip opcode mismatch, got %v", d.Info.Mnemonic, back.Info.Opcode)
	}
	return back
}

func TestCompressAddiForms(t *testing.T) {
	// addi x10, x0, 5 -> C.LI
	back := roundTrip(t, core.XLen64, &core.Decoded{Info: info(t, "addi"), Rd: 10, Rs1: 0, Imm: 5})
	if back.Rd != 10 || back.Imm != 5 {
		t.Fatalf("c.li mismatch: %+v", back)
	}

	// addi x10, x10, -3 -> C.ADDI
	back = roundTrip(t, core.XLen64, &core.Decoded{Info: info(t, "addi"), Rd: 10, Rs1: 10, Imm: simm(-3)})
	if back.Rd != 10 || back.Rs1 != 10 || int64(back.Imm) != -3 {
		t.Fatalf("c.addi mismatch: %+v", back)
	}

	// addi x2, x2, -32 -> C.ADDI16SP
	back = roundTrip(t, core.XLen64, &core.Decoded{Info: info(t, "addi"), Rd: 2, Rs1: 2, Imm: simm(-32)})
	if back.Rd != 2 || int64(back.Imm) != -32 {
		t.Fatalf("c.addi16sp mismatch: %+v", back)
	}

	// addi x9, x2, 16 -> C.ADDI4SPN
	back = roundTrip(t, core.XLen64, &core.Decoded{Info: info(t, "addi"), Rd: 9, Rs1: 2, Imm: 16})
	if back.Rd != 9 || back.Rs1 != 2 || back.Imm != 16 {
		t.Fatalf("c.addi4spn mismatch: %+v", back)
	}
}

func TestCompressLui(t *testing.T) {
	back := roundTrip(t, core.XLen64, &core.Decoded{Info: info(t, "lui"), Rd: 5, Imm: uint64(3 << 12)})
	if back.Rd != 5 || back.Imm != uint64(3<<12) {
		t.Fatalf("c.lui mismatch: %+v", back)
	}
}

func TestCompressJalAndJalr(t *testing.T) {
	back := roundTrip(t, core.XLen64, &core.Decoded{Info: info(t, "jal"), Rd: 0, Imm: simm(-100)})
	if int64(back.Imm) != -100 {
		t.Fatalf("c.j mismatch: %+v", back)
	}

	back = roundTrip(t, core.XLen64, &core.Decoded{Info: info(t, "jalr"), Rd: 0, Rs1: 11, Imm: 0})
	if back.Rs1 != 11 {
		t.Fatalf("c.jr mismatch: %+v", back)
	}
}

func TestCompressLoadStoreSP(t *testing.T) {
	back := roundTrip(t, core.XLen64, &core.Decoded{Info: info(t, "ld"), Rd: 10, Rs1: 2, Imm: 8})
	if back.Rd != 10 || back.Rs1 != 2 || back.Imm != 8 {
		t.Fatalf("c.ldsp mismatch: %+v", back)
	}

	back = roundTrip(t, core.XLen64, &core.Decoded{Info: info(t, "sd"), Rs1: 2, Rs2: 14, Imm: 16})
	if back.Rs1 != 2 || back.Rs2 != 14 || back.Imm != 16 {
		t.Fatalf("c.sdsp mismatch: %+v", back)
	}
}

func TestCompressLoadStoreRegister(t *testing.T) {
	back := roundTrip(t, core.XLen64, &core.Decoded{Info: info(t, "lw"), Rd: 9, Rs1: 10, Imm: 4})
	if back.Rd != 9 || back.Rs1 != 10 || back.Imm != 4 {
		t.Fatalf("c.lw mismatch: %+v", back)
	}

	back = roundTrip(t, core.XLen64, &core.Decoded{Info: info(t, "sw"), Rs1: 10, Rs2: 9, Imm: 4})
	if back.Rs1 != 10 || back.Rs2 != 9 || back.Imm != 4 {
		t.Fatalf("c.sw mismatch: %+v", back)
	}
}

func TestCompressMiscAluAndShift(t *testing.T) {
	back := roundTrip(t, core.XLen64, &core.Decoded{Info: info(t, "sub"), Rd: 9, Rs1: 9, Rs2: 10})
	if back.Rd != 9 || back.Rs2 != 10 {
		t.Fatalf("c.sub mismatch: %+v", back)
	}

	back = roundTrip(t, core.XLen64, &core.Decoded{Info: info(t, "srli"), Rd: 8, Rs1: 8, Imm: 5})
	if back.Rd != 8 || back.Imm != 5 {
		t.Fatalf("c.srli mismatch: %+v", back)
	}

	back = roundTrip(t, core.XLen64, &core.Decoded{Info: info(t, "slli"), Rd: 12, Rs1: 12, Imm: 3})
	if back.Rd != 12 || back.Imm != 3 {
		t.Fatalf("c.slli mismatch: %+v", back)
	}
}

func TestCompressBranch(t *testing.T) {
	back := roundTrip(t, core.XLen64, &core.Decoded{Info: info(t, "beq"), Rs1: 9, Rs2: 0, Imm: simm(-16)})
	if back.Rs1 != 9 || int64(back.Imm) != -16 {
		t.Fatalf("c.beqz mismatch: %+v", back)
	}
}

func TestCompressAddMv(t *testing.T) {
	back := roundTrip(t, core.XLen64, &core.Decoded{Info: info(t, "add"), Rd: 10, Rs1: 0, Rs2: 11})
	if back.Rd != 10 || back.Rs2 != 11 {
		t.Fatalf("c.mv mismatch: %+v", back)
	}

	back = roundTrip(t, core.XLen64, &core.Decoded{Info: info(t, "add"), Rd: 10, Rs1: 10, Rs2: 11})
	if back.Rd != 10 || back.Rs1 != 10 || back.Rs2 != 11 {
		t.Fatalf("c.add mismatch: %+v", back)
	}
}

func TestCompressRejectsOutOfRange(t *testing.T) {
	d := &core.Decoded{Info: info(t, "addi"), Rd: 1, Rs1: 1, Imm: 1000}
	if _, ok := Compress(d, core.XLen64); ok {
		t.Fatalf("expected out-of-range addi to not compress")
	}
}

func TestCompressEbreak(t *testing.T) {
	w, ok := Compress(&core.Decoded{Info: info(t, "ebreak")}, core.XLen64)
	if !ok {
		t.Fatalf("expected ebreak to compress")
	}
	back := core.DecodeCompressed(w, core.XLen64, core.ExtC)
	if back.Info.Opcode != core.OpEbreak {
		t.Fatalf("c.ebreak mismatch: %+v", back)
	}
}
