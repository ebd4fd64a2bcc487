package main

import (
	"errors"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

// ListingEntry is one line of the assembly listing: a label or a statement
// that occupies memory.
type ListingEntry struct {
	Addr   uint64
	Bytes  []byte
	Line   int
	Source string
}

// Assembler runs the two passes over a parsed program. An Assembler may be
// reused; each call to Assemble starts from a clean state.
type Assembler struct {
	spec    *InstructionSpec
	symbols *SymbolTable
	image   *Image
	lines   []string
	listing []ListingEntry
	pc      uint64
	pass    int
}

func NewAssembler(spec *InstructionSpec) *Assembler {
	return &Assembler{spec: spec}
}

// Assemble turns source into a flat little-endian image using spec.
func Assemble(source string, spec *InstructionSpec) ([]byte, error) {
	return NewAssembler(spec).Assemble(source)
}

func (a *Assembler) reset(source string) {
	a.symbols = NewSymbolTable()
	a.image = &Image{}
	a.lines = strings.Split(source, "\n")
	a.listing = nil
	a.pc = 0
}

// Assemble parses and assembles source. On failure no image is returned.
func (a *Assembler) Assemble(source string) ([]byte, error) {
	a.reset(source)
	program, err := Parse(source, a.spec)
	if err != nil {
		return nil, err
	}
	return a.run(program)
}

// AssembleProgram assembles an already parsed program. The listing has no
// source text.
func (a *Assembler) AssembleProgram(program *ASTNode) ([]byte, error) {
	a.reset("")
	return a.run(program)
}

func (a *Assembler) run(program *ASTNode) ([]byte, error) {
	for pass := 1; pass <= 2; pass++ {
		if err := a.runPass(program, pass); err != nil {
			a.image = &Image{}
			a.listing = nil
			return nil, err
		}
	}
	return a.image.Bytes(), nil
}

// Symbols returns the symbols declared by the last run.
func (a *Assembler) Symbols() []Symbol {
	if a.symbols == nil {
		return nil
	}
	return a.symbols.Symbols()
}

// Listing returns the listing of the last successful run.
func (a *Assembler) Listing() []ListingEntry {
	return a.listing
}

// Lookup resolves a name in the active scope, falling back to the
// constants of the instruction definition.
func (a *Assembler) Lookup(name string) (uint64, error) {
	val, err := a.symbols.Lookup(name)
	if err == nil {
		return val, nil
	}
	if c, ok := a.spec.Constant(name); ok && errors.Is(err, ErrUndefinedSymbol) {
		return c, nil
	}
	return 0, err
}

func (a *Assembler) runPass(program *ASTNode, pass int) error {
	a.pass = pass
	a.pc = 0
	a.symbols.ResetScope()
	for _, stmt := range program.Children {
		var err error
		switch stmt.Kind {
		case NodeLabel:
			err = a.label(stmt)
		case NodeInstruction:
			if isDirective(stmt.String) {
				err = a.directive(stmt)
			} else {
				err = a.instruction(stmt)
			}
		default:
			err = newError(ErrInvalidArgument, stmt.Pos, "", "unexpected %s at top level", stmt.Kind)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (a *Assembler) label(stmt *ASTNode) error {
	if a.pass == 1 {
		if err := a.checkNotConstant(stmt.String, stmt.Pos); err != nil {
			return err
		}
		return a.symbols.Declare(stmt.String, a.pc, SymbolLabel, stmt.Pos)
	}
	a.symbols.EnterScope(stmt.String)
	a.record(stmt, a.pc, nil)
	return nil
}

// checkNotConstant rejects a symbol named like a constant of the
// instruction definition. Lookup falls back to those constants, so such a
// symbol would resolve differently before and after its declaration.
func (a *Assembler) checkNotConstant(name string, pos Pos) error {
	if _, ok := a.spec.Constant(name); ok {
		return newError(ErrDuplicateSymbol, pos, name, "already a constant of %s", a.spec.Name())
	}
	return nil
}

// advance moves the PC past n bytes.
func (a *Assembler) advance(stmt *ASTNode, n uint64) error {
	if n > MaxImageSize || a.pc+n > MaxImageSize {
		return newError(ErrInvalidArgument, stmt.Pos, stmt.String, "program extends past the %d-byte image limit", MaxImageSize)
	}
	a.pc += n
	return nil
}

func alignUp(addr, align uint64) uint64 {
	if align <= 1 {
		return addr
	}
	return (addr + align - 1) / align * align
}

func (a *Assembler) record(stmt *ASTNode, addr uint64, data []byte) {
	if a.pass != 2 {
		return
	}
	var source string
	if line := stmt.Pos.Line - 1; line >= 0 && line < len(a.lines) {
		source = strings.TrimSpace(strings.TrimSuffix(a.lines[line], "\r"))
	}
	a.listing = append(a.listing, ListingEntry{
		Addr:   addr,
		Bytes:  append([]byte(nil), data...),
		Line:   stmt.Pos.Line,
		Source: source,
	})
}

func (a *Assembler) instruction(stmt *ASTNode) error {
	format, ok := a.spec.Lookup(stmt.String, len(stmt.Children))
	if !ok {
		return a.unknownInstruction(stmt)
	}
	a.pc = alignUp(a.pc, a.spec.AlignBytes())
	addr := a.pc
	if err := a.advance(stmt, a.spec.InstructionBytes()); err != nil {
		return err
	}
	if a.pass == 1 {
		return nil
	}

	args := make([]uint64, len(stmt.Children))
	for i, arg := range stmt.Children {
		val, err := a.operand(stmt, format, i, arg, addr)
		if err != nil {
			return err
		}
		args[i] = val
	}
	word, err := format.Encode(args)
	if err != nil {
		return a.encodingError(stmt, format, err)
	}
	data := a.image.PutUint(addr, uint64(word), int(a.spec.InstructionBytes()))
	a.record(stmt, addr, data)
	return nil
}

// operand converts argument i into the value its field expects.
func (a *Assembler) operand(stmt *ASTNode, format *InstructionFormat, i int, arg *ASTNode, pc uint64) (uint64, error) {
	field := format.ArgField(i)
	switch field.Kind {
	case FieldRegister:
		switch arg.Kind {
		case NodeRegister:
			return arg.Integer, nil
		case NodeIdent:
			e := newError(ErrUnknownRegister, arg.Pos, arg.String, "%s expects a register as argument %d", stmt.String, i+1)
			e.Field = field.Name
			return 0, e
		default:
			e := newError(ErrInvalidArgument, arg.Pos, stmt.String, "argument %d must be a register", i+1)
			e.Field = field.Name
			return 0, e
		}

	default:
		if arg.Kind == NodeRegister {
			e := newError(ErrInvalidArgument, arg.Pos, stmt.String, "argument %d must be an immediate, got register %s", i+1, arg.String)
			e.Field = field.Name
			return 0, e
		}
		return Evaluate(arg, a, pc)
	}
}

func (a *Assembler) encodingError(stmt *ASTNode, format *InstructionFormat, err error) error {
	var rangeErr *FieldRangeError
	if !errors.As(err, &rangeErr) {
		return newError(ErrInvalidArgument, stmt.Pos, stmt.String, "%s", err)
	}
	pos := stmt.Pos
	for i, arg := range stmt.Children {
		if format.ArgField(i).Name == rangeErr.Field {
			pos = arg.Pos
			break
		}
	}
	e := newError(ErrImmediateOutOfRange, pos, stmt.String, "%s", rangeErr)
	e.Field = rangeErr.Field
	return e
}

func (a *Assembler) unknownInstruction(stmt *ASTNode) error {
	arities := a.spec.Arities(stmt.String)
	if len(arities) == 0 {
		return newError(ErrUnknownInstruction, stmt.Pos, stmt.String, "")
	}
	counts := lo.Map(arities, func(n int, _ int) string { return strconv.Itoa(n) })
	return newError(ErrUnknownInstruction, stmt.Pos, stmt.String,
		"takes %s arguments, got %d", strings.Join(counts, " or "), len(stmt.Children))
}
