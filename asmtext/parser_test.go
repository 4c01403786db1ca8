package asmtext

import (
	"encoding/binary"
	"testing"
)

func assembleSource(t *testing.T, src string) *AssembledProgram {
	t.Helper()
	lexer := NewLexer("test.s", src)
	toks, err := lexer.Tokenize()
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	parser := NewParser(toks)
	prog, err := parser.ParseProgram("test.s")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	asm, err := Assemble(prog, 0x1000, true)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	return asm
}

func word(b []byte, off int) uint32 {
	return binary.LittleEndian.Uint32(b[off:])
}

func TestAssembleBasicAddi(t *testing.T) {
	asm := assembleSource(t, "addi a0, zero, 5\n")
	w := word(asm.Bytes, 0)
	// opcode field (bits 6:0) must be OP-IMM.
	if w&0x7f != 0b0010011 {
		t.Fatalf("bad opcode bits: %#x", w)
	}
	rd := (w >> 7) & 0x1f
	if rd != 10 {
		t.Fatalf("expected rd=a0(10), got %d", rd)
	}
	imm := int32(w) >> 20
	if imm != 5 {
		t.Fatalf("expected imm=5, got %d", imm)
	}
}

func TestAssembleLabelAndBranch(t *testing.T) {
	src := "loop:\n  addi a0, a0, -1\n  bnez a0, loop\n"
	asm := assembleSource(t, src)
	if len(asm.Bytes) != 8 {
		t.Fatalf("expected 8 bytes, got %d", len(asm.Bytes))
	}
	sym, ok := asm.Symbols.Lookup("loop")
	if !ok || sym.Address != 0x1000 {
		t.Fatalf("loop label not resolved to base address: %+v", sym)
	}
}

func TestAssembleDataDirectives(t *testing.T) {
	asm := assembleSource(t, ".word 1, 2\n.byte 0xff\n")
	if len(asm.Bytes) != 9 {
		t.Fatalf("expected 9 bytes, got %d", len(asm.Bytes))
	}
	if word(asm.Bytes, 0) != 1 || word(asm.Bytes, 4) != 2 {
		t.Fatalf("word values wrong: %v", asm.Bytes[:8])
	}
	if asm.Bytes[8] != 0xff {
		t.Fatalf("byte value wrong: %#x", asm.Bytes[8])
	}
}

func TestAssembleUndefinedLabelFails(t *testing.T) {
	lexer := NewLexer("bad.s", "j nowhere\n")
	toks, err := lexer.Tokenize()
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	parser := NewParser(toks)
	prog, err := parser.ParseProgram("bad.s")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, err := Assemble(prog, 0x1000, true); err == nil {
		t.Fatalf("expected undefined-label error")
	}
}

func TestAssembleLiWideImmediate(t *testing.T) {
	asm := assembleSource(t, "li t0, 0x12345678\n")
	if len(asm.Bytes) != 8 {
		t.Fatalf("expected lui+addi pair, got %d bytes", len(asm.Bytes))
	}
}

func TestProcessEscapeSequences(t *testing.T) {
	got := ProcessEscapeSequences(`hello\nworld\x41`)
	want := "hello\nworldA"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}
