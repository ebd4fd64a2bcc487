package main

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds. Every *AssembleError unwraps to exactly one of these.
var (
	ErrParse               = errors.New("parse error")
	ErrUnknownRegister     = errors.New("unknown register")
	ErrUnknownInstruction  = errors.New("unknown instruction")
	ErrDuplicateSymbol     = errors.New("duplicate symbol")
	ErrUndefinedSymbol     = errors.New("undefined symbol")
	ErrDivisionByZero      = errors.New("division by zero")
	ErrImmediateOutOfRange = errors.New("immediate out of range")
	ErrInvalidOrgTarget    = errors.New("invalid .org target")
	ErrInvalidArgument     = errors.New("invalid argument")
)

// errorKinds maps the names used by Markdown test cases to error kinds.
var errorKinds = map[string]error{
	"ParseError":          ErrParse,
	"UnknownRegister":     ErrUnknownRegister,
	"UnknownInstruction":  ErrUnknownInstruction,
	"DuplicateSymbol":     ErrDuplicateSymbol,
	"UndefinedSymbol":     ErrUndefinedSymbol,
	"DivisionByZero":      ErrDivisionByZero,
	"ImmediateOutOfRange": ErrImmediateOutOfRange,
	"InvalidOrgTarget":    ErrInvalidOrgTarget,
	"InvalidArgument":     ErrInvalidArgument,
}

// Pos is a location in assembly source. Line and Col are 1-based.
type Pos struct {
	Offset int
	Line   int
	Col    int
}

func (p Pos) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Col)
}

// AssembleError describes why an assembly run failed.
type AssembleError struct {
	Kind   error
	Pos    Pos
	Rule   string // parse errors: the grammar rule that failed
	Name   string // symbol, mnemonic or register involved
	Field  string // encoding errors: the destination field
	Detail string
}

func (e *AssembleError) Error() string {
	var b strings.Builder
	b.WriteString(e.Pos.String())
	b.WriteString(": ")
	b.WriteString(e.Kind.Error())
	if e.Rule != "" {
		fmt.Fprintf(&b, " in %s", e.Rule)
	}
	if e.Name != "" {
		fmt.Fprintf(&b, " '%s'", e.Name)
	}
	if e.Field != "" {
		fmt.Fprintf(&b, " (field %s)", e.Field)
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	return b.String()
}

func (e *AssembleError) Unwrap() error {
	return e.Kind
}

func newError(kind error, pos Pos, name string, format string, args ...any) *AssembleError {
	return &AssembleError{
		Kind:   kind,
		Pos:    pos,
		Name:   name,
		Detail: fmt.Sprintf(format, args...),
	}
}

// ErrorKindName returns the test-case name of err's kind, or "" if err is
// not an assembler error.
func ErrorKindName(err error) string {
	for name, kind := range errorKinds {
		if errors.Is(err, kind) {
			return name
		}
	}
	return ""
}
