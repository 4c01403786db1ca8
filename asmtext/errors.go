// Package asmtext implements a minimal RISC-V assembly lexer, parser,
// and symbol table, producing machine words the loader can write
// directly into core.Memory.
package asmtext

import "fmt"

// Position locates a token or error in the source being assembled.
type Position struct {
	Filename string
	Line     int
	Column   int
}

func (p Position) String() string {
	return fmt.Sprintf("%s:%d:%d", p.Filename, p.Line, p.Column)
}

// ErrorKind classifies an assembly-time error for callers that want to
// react differently to, say, an undefined label versus a malformed
// operand.
type ErrorKind int

const (
	ErrorSyntax ErrorKind = iota
	ErrorUndefinedLabel
	ErrorDuplicateLabel
	ErrorInvalidDirective
	ErrorInvalidInstruction
	ErrorInvalidOperand
	ErrorFileIO
)

// Error is one assembly-time diagnostic, with enough position context
// to print a caret under the offending token.
type Error struct {
	Pos     Position
	Message string
	Context string
	Kind    ErrorKind
}

func (e *Error) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Pos, e.Message, e.Context)
	}
	return fmt.Sprintf("%s: %s", e.Pos, e.Message)
}

// NewError builds a bare Error with no extra context string.
func NewError(pos Position, kind ErrorKind, message string) *Error {
	return &Error{Pos: pos, Message: message, Kind: kind}
}

// NewErrorWithContext builds an Error carrying the source line or
// token text that triggered it.
func NewErrorWithContext(pos Position, kind ErrorKind, message, context string) *Error {
	return &Error{Pos: pos, Message: message, Context: context, Kind: kind}
}

// Warning is a non-fatal diagnostic (e.g. an instruction that could
// have been compressed but wasn't requested to be).
type Warning struct {
	Pos     Position
	Message string
}

// ErrorList accumulates errors and warnings across a whole assembly
// pass so the caller can report everything at once instead of
// stopping at the first problem.
type ErrorList struct {
	Errors   []*Error
	Warnings []Warning
}

func (l *ErrorList) AddError(err *Error)  { l.Errors = append(l.Errors, err) }
func (l *ErrorList) AddWarning(w Warning) { l.Warnings = append(l.Warnings, w) }
func (l *ErrorList) HasErrors() bool      { return len(l.Errors) > 0 }

func (l *ErrorList) Error() string {
	if len(l.Errors) == 0 {
		return ""
	}
	msg := l.Errors[0].Error()
	if len(l.Errors) > 1 {
		msg = fmt.Sprintf("%s (and %d more error(s))", msg, len(l.Errors)-1)
	}
	return msg
}
