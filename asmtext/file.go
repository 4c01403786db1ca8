package asmtext

import (
	"fmt"
	"os"
)

// ParseFileOptions controls how ParseFile reads and assembles a
// source file. XLen64 must match the hart the assembled image will
// run on, since shift-immediate encoding depends on it.
type ParseFileOptions struct {
	LoadAddress uint64
	XLen64      bool
}

// DefaultParseFileOptions returns the options ParseFile uses when the
// caller doesn't need anything unusual: load at DefaultLoadAddress,
// assemble for RV64.
func DefaultParseFileOptions() ParseFileOptions {
	return ParseFileOptions{LoadAddress: DefaultLoadAddress, XLen64: true}
}

// ParseFile reads filePath, lexes and parses it into a Program, and
// returns both the Program and the Parser that built it (the caller
// may want the parser's accumulated warnings).
func ParseFile(filePath string, opts ParseFileOptions) (*Program, *Parser, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, nil, fmt.Errorf("asmtext: read %q: %w", filePath, err)
	}
	lexer := NewLexer(filePath, string(data))
	toks, err := lexer.Tokenize()
	if err != nil {
		return nil, nil, err
	}
	parser := NewParser(toks)
	prog, err := parser.ParseProgram(filePath)
	if err != nil {
		return prog, parser, err
	}
	return prog, parser, nil
}

// ParseFileSimple assembles filePath with DefaultParseFileOptions and
// returns the finished byte image, for callers that don't need to
// inspect the intermediate Program.
func ParseFileSimple(filePath string) (*AssembledProgram, error) {
	return AssembleFile(filePath, DefaultParseFileOptions())
}

// AssembleFile parses and assembles filePath in one call.
func AssembleFile(filePath string, opts ParseFileOptions) (*AssembledProgram, error) {
	prog, _, err := ParseFile(filePath, opts)
	if err != nil {
		return nil, err
	}
	return Assemble(prog, opts.LoadAddress, opts.XLen64)
}
