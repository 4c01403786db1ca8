package loader

import (
	"os"
	"path/filepath"
	"testing"

	"riscv-sim/core"
)

func TestLoadIHexDataAndEntry(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prog.hex")
	// Extended address 0, two data bytes 0xAA 0xBB at 0x0000, start
	// address 0x80000000, EOF.
	lines := []string{
		":020000040000FA",
		":02000000AABB99", // len=2 addr=0000 type=00 data AA BB chk
		":040000058000000077",
		":00000001FF",
		"",
	}
	content := ""
	for _, l := range lines {
		if l != "" {
			content += l + "\n"
		}
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	mem := core.NewSimpleMemory(0, 0x1000, 0, 0)
	img, err := LoadIHex(path, mem)
	if err != nil {
		t.Fatalf("LoadIHex: %v", err)
	}
	b0, ok0 := mem.ReadByte(0)
	b1, ok1 := mem.ReadByte(1)
	if !ok0 || !ok1 || b0 != 0xAA || b1 != 0xBB {
		t.Fatalf("data not loaded: %#x %#x (ok %v %v)", b0, b1, ok0, ok1)
	}
	if img.EntryPoint != 0x80000000 {
		t.Fatalf("EntryPoint = %#x, want 0x80000000", img.EntryPoint)
	}
}

func TestParseIHexLineRejectsBadChecksum(t *testing.T) {
	if _, err := parseIHexLine(":02000000AABB00"); err == nil {
		t.Fatalf("expected checksum error")
	}
}

func TestLoadDispatchesOnExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prog.ihex")
	if err := os.WriteFile(path, []byte(":00000001FF\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	mem := core.NewSimpleMemory(0, 0x1000, 0, 0)
	if _, err := Load(path, mem); err != nil {
		t.Fatalf("Load: %v", err)
	}
}
