// Package loader loads a program image into a core.Memory and resolves
// the symbols the run loop and CLI need: the entry point, an optional
// exit point, the tohost/console-I/O MMIO addresses, and the global
// pointer (spec.md §6). Two formats are supported: ELF32/ELF64 via the
// standard library's debug/elf, and Intel hex, which has no library in
// the dependency pack and is parsed by hand.
package loader

import (
	"bufio"
	"debug/elf"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"riscv-sim/core"
)

// Image is the resolved result of loading a program, the inputs the
// run loop and debugger need before the first instruction executes.
type Image struct {
	EntryPoint    uint64
	HasExitPoint  bool
	ExitPoint     uint64
	HasToHost     bool
	ToHostAddr    uint64
	HasConsoleIO  bool
	ConsoleIOAddr uint64
	HasGlobalPtr  bool
	GlobalPtrAddr uint64
}

// toHostSymbols/consoleIOSymbols/exitSymbols/globalPtrSymbols list the
// symbol-name spellings spec.md §6 recognizes, most preferred first.
var (
	toHostSymbols    = []string{"tohost", "__tohost"}
	consoleIOSymbols = []string{"__whisper_console_io", "tohost_console"}
	exitSymbols      = []string{"_exit", "exit"}
	endSymbols       = []string{"_end", "end"}
	globalPtrSymbols = []string{"__global_pointer$", "_gp"}
)

// LoadELF reads an ELF32 or ELF64 file, writes every PT_LOAD segment's
// file-backed bytes into mem, and resolves the symbols above from the
// symbol table. Segments are zero-filled up to Memsz (bss) beyond
// Filesz, matching a normal ELF loader's behavior.
func LoadELF(path string, mem *core.SimpleMemory) (*Image, error) {
	f, err := elf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("loader: open elf %q: %w", path, err)
	}
	defer f.Close()

	for _, prog := range f.Progs {
		if prog.Type != elf.PT_LOAD {
			continue
		}
		data := make([]byte, prog.Filesz)
		if _, err := prog.ReadAt(data, 0); err != nil && err != io.EOF {
			return nil, fmt.Errorf("loader: read segment at %#x: %w", prog.Vaddr, err)
		}
		if err := mem.LoadImage(prog.Vaddr, data); err != nil {
			return nil, fmt.Errorf("loader: load segment at %#x: %w", prog.Vaddr, err)
		}
		if prog.Memsz > prog.Filesz {
			bss := make([]byte, prog.Memsz-prog.Filesz)
			if err := mem.LoadImage(prog.Vaddr+prog.Filesz, bss); err != nil {
				return nil, fmt.Errorf("loader: zero bss at %#x: %w", prog.Vaddr+prog.Filesz, err)
			}
		}
	}

	syms, err := f.Symbols()
	if err != nil {
		// A stripped binary has no symbol table; fall back to the ELF
		// header's entry point and leave everything else unresolved.
		syms = nil
	}

	img := &Image{EntryPoint: f.Entry}
	lookup := func(names []string) (uint64, bool) {
		for _, want := range names {
			for _, s := range syms {
				if s.Name == want {
					return s.Value, true
				}
			}
		}
		return 0, false
	}

	if v, ok := lookup(toHostSymbols); ok {
		img.ToHostAddr, img.HasToHost = v, true
	}
	if v, ok := lookup(consoleIOSymbols); ok {
		img.ConsoleIOAddr, img.HasConsoleIO = v, true
	}
	if v, ok := lookup(exitSymbols); ok {
		img.ExitPoint, img.HasExitPoint = v, true
	} else if v, ok := lookup(endSymbols); ok {
		img.ExitPoint, img.HasExitPoint = v, true
	}
	if v, ok := lookup(globalPtrSymbols); ok {
		img.GlobalPtrAddr, img.HasGlobalPtr = v, true
	}
	return img, nil
}

// LoadIHex parses an Intel-hex file and writes its data records into
// mem. Record types: 00 data, 01 end-of-file, 04 extended linear
// address (sets the upper 16 bits of subsequent 16-bit addresses), 05
// start linear address (the entry point). Other record types are
// ignored, matching common ihex tooling's tolerant behavior.
func LoadIHex(path string, mem *core.SimpleMemory) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("loader: open ihex %q: %w", path, err)
	}
	defer f.Close()

	img := &Image{}
	var upperAddr uint64
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		rec, err := parseIHexLine(line)
		if err != nil {
			return nil, fmt.Errorf("loader: ihex line %d: %w", lineNo, err)
		}
		switch rec.recType {
		case 0x00:
			addr := upperAddr | uint64(rec.addr)
			if err := mem.LoadImage(addr, rec.data); err != nil {
				return nil, fmt.Errorf("loader: ihex line %d: %w", lineNo, err)
			}
		case 0x01:
			return img, nil
		case 0x04:
			if len(rec.data) != 2 {
				return nil, fmt.Errorf("loader: ihex line %d: bad extended-address record", lineNo)
			}
			upperAddr = (uint64(rec.data[0])<<8 | uint64(rec.data[1])) << 16
		case 0x05:
			if len(rec.data) != 4 {
				return nil, fmt.Errorf("loader: ihex line %d: bad start-address record", lineNo)
			}
			img.EntryPoint = uint64(rec.data[0])<<24 | uint64(rec.data[1])<<16 |
				uint64(rec.data[2])<<8 | uint64(rec.data[3])
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("loader: scan ihex %q: %w", path, err)
	}
	return img, nil
}

type ihexRecord struct {
	addr    uint16
	recType byte
	data    []byte
}

// parseIHexLine decodes one ":llaaaatt[dd...]cc" Intel-hex line,
// verifying the trailing checksum.
func parseIHexLine(line string) (ihexRecord, error) {
	if len(line) < 11 || line[0] != ':' {
		return ihexRecord{}, fmt.Errorf("malformed record %q", line)
	}
	raw, err := hex.DecodeString(line[1:])
	if err != nil {
		return ihexRecord{}, fmt.Errorf("bad hex digits: %w", err)
	}
	if len(raw) < 5 {
		return ihexRecord{}, fmt.Errorf("record too short")
	}
	byteCount := int(raw[0])
	if len(raw) != byteCount+5 {
		return ihexRecord{}, fmt.Errorf("byte count %d doesn't match record length", byteCount)
	}
	var sum byte
	for _, b := range raw {
		sum += b
	}
	if sum != 0 {
		return ihexRecord{}, fmt.Errorf("checksum mismatch")
	}
	return ihexRecord{
		addr:    uint16(raw[1])<<8 | uint16(raw[2]),
		recType: raw[3],
		data:    raw[4 : 4+byteCount],
	}, nil
}

// Load dispatches on the file's extension: ".hex"/".ihex" is treated
// as Intel hex, anything else is attempted as ELF.
func Load(path string, mem *core.SimpleMemory) (*Image, error) {
	if strings.HasSuffix(path, ".hex") || strings.HasSuffix(path, ".ihex") {
		return LoadIHex(path, mem)
	}
	return LoadELF(path, mem)
}
