package main

import (
	"math/bits"
	"strings"
)

// directiveSizes gives the element size of the data directives.
var directiveSizes = map[string]uint64{
	".byte":  1,
	".half":  2,
	".word":  4,
	".dword": 8,
}

func isDirective(mnemonic string) bool {
	switch strings.ToLower(mnemonic) {
	case ".org", ".equ", ".define",
		".byte", ".half", ".word", ".dword",
		".ascii", ".asciz", ".string",
		".zero", ".align":
		return true
	}
	return false
}

// isDefineDirective reports whether mnemonic declares a constant. Its
// arguments are parsed as NAME [,] VALUE.
func isDefineDirective(mnemonic string) bool {
	switch strings.ToLower(mnemonic) {
	case ".equ", ".define":
		return true
	}
	return false
}

func (a *Assembler) directive(stmt *ASTNode) error {
	name := strings.ToLower(stmt.String)
	switch name {
	case ".org":
		return a.org(stmt)
	case ".equ", ".define":
		return a.define(stmt)
	case ".byte", ".half", ".word", ".dword":
		return a.data(stmt, directiveSizes[name])
	case ".ascii":
		return a.ascii(stmt, false)
	case ".asciz", ".string":
		return a.ascii(stmt, true)
	case ".zero":
		return a.zero(stmt)
	case ".align":
		return a.align(stmt)
	default:
		panic("Unsupported directive: " + stmt.String)
	}
}

func expectArgs(stmt *ASTNode, n int) error {
	if len(stmt.Children) != n {
		return newError(ErrInvalidArgument, stmt.Pos, stmt.String, "expected %d argument(s), got %d", n, len(stmt.Children))
	}
	return nil
}

// constantArg evaluates a directive argument that must be known when it is
// reached in pass 1.
func (a *Assembler) constantArg(stmt *ASTNode, arg *ASTNode) (uint64, error) {
	if arg.Kind == NodeRegister || arg.Kind == NodeString {
		return 0, newError(ErrInvalidArgument, arg.Pos, stmt.String, "expected an integer expression")
	}
	return Evaluate(arg, a, a.pc)
}

// .org ADDR
func (a *Assembler) org(stmt *ASTNode) error {
	if len(stmt.Children) != 1 {
		return newError(ErrInvalidOrgTarget, stmt.Pos, "", "expected one address, got %d arguments", len(stmt.Children))
	}
	arg := stmt.Children[0]
	if arg.Kind == NodeRegister || arg.Kind == NodeString {
		return newError(ErrInvalidOrgTarget, arg.Pos, "", "address must be an integer expression")
	}
	addr, err := Evaluate(arg, a, a.pc)
	if err != nil {
		return err
	}
	if addr > MaxImageSize {
		return newError(ErrInvalidOrgTarget, arg.Pos, "", "address %#x is beyond the %d-byte image limit", addr, MaxImageSize)
	}
	a.pc = addr
	return nil
}

// .equ NAME VALUE
func (a *Assembler) define(stmt *ASTNode) error {
	if a.pass != 1 {
		return nil
	}
	if err := expectArgs(stmt, 2); err != nil {
		return err
	}
	name := stmt.Children[0]
	if err := a.checkNotConstant(name.String, name.Pos); err != nil {
		return err
	}
	val, err := a.constantArg(stmt, stmt.Children[1])
	if err != nil {
		return err
	}
	return a.symbols.Declare(name.String, val, SymbolConstant, name.Pos)
}

// recordSpan lists the bytes a data directive wrote from start to the PC.
func (a *Assembler) recordSpan(stmt *ASTNode, start uint64) {
	if a.pass != 2 {
		return
	}
	written := a.image.Bytes()
	if a.pc > uint64(len(written)) {
		written = nil
	} else {
		written = written[start:a.pc]
	}
	a.record(stmt, start, written)
}

func fitsDataSize(val uint64, size uint64) bool {
	if size >= 8 {
		return true
	}
	width := size * 8
	return val>>width == 0 || int64(val)>>(width-1) == -1
}

// .byte/.half/.word/.dword VALUE, ...
func (a *Assembler) data(stmt *ASTNode, size uint64) error {
	if len(stmt.Children) == 0 {
		return newError(ErrInvalidArgument, stmt.Pos, stmt.String, "expected at least one value")
	}
	start := a.pc
	for _, arg := range stmt.Children {
		addr := a.pc
		if arg.Kind == NodeString {
			if size != 1 {
				return newError(ErrInvalidArgument, arg.Pos, stmt.String, "string literals are only allowed in .byte")
			}
			if err := a.advance(stmt, uint64(len(arg.String))); err != nil {
				return err
			}
			if a.pass == 2 {
				a.image.Write(addr, []byte(arg.String))
			}
			continue
		}
		if err := a.advance(stmt, size); err != nil {
			return err
		}
		if a.pass == 1 {
			continue
		}
		val, err := a.constantArg(stmt, arg)
		if err != nil {
			return err
		}
		if !fitsDataSize(val, size) {
			e := newError(ErrImmediateOutOfRange, arg.Pos, stmt.String, "value %d does not fit in %d byte(s)", int64(val), size)
			e.Field = stmt.String
			return e
		}
		a.image.PutUint(addr, val, int(size))
	}
	a.recordSpan(stmt, start)
	return nil
}

// .ascii/.asciz STRING, ...
func (a *Assembler) ascii(stmt *ASTNode, terminate bool) error {
	if len(stmt.Children) == 0 {
		return newError(ErrInvalidArgument, stmt.Pos, stmt.String, "expected at least one string")
	}
	start := a.pc
	for _, arg := range stmt.Children {
		if arg.Kind != NodeString {
			return newError(ErrInvalidArgument, arg.Pos, stmt.String, "expected a string literal")
		}
		data := []byte(arg.String)
		if terminate {
			data = append(data, 0)
		}
		addr := a.pc
		if err := a.advance(stmt, uint64(len(data))); err != nil {
			return err
		}
		if a.pass == 2 {
			a.image.Write(addr, data)
		}
	}
	a.recordSpan(stmt, start)
	return nil
}

// .zero COUNT
func (a *Assembler) zero(stmt *ASTNode) error {
	if err := expectArgs(stmt, 1); err != nil {
		return err
	}
	count, err := a.constantArg(stmt, stmt.Children[0])
	if err != nil {
		return err
	}
	addr := a.pc
	if err := a.advance(stmt, count); err != nil {
		return err
	}
	if a.pass == 2 {
		a.image.Write(addr, make([]byte, count))
	}
	a.recordSpan(stmt, addr)
	return nil
}

// .align BOUNDARY, where BOUNDARY is a power of two in bytes. Padding is
// not written, so it extends the image only when something follows it.
func (a *Assembler) align(stmt *ASTNode) error {
	if err := expectArgs(stmt, 1); err != nil {
		return err
	}
	boundary, err := a.constantArg(stmt, stmt.Children[0])
	if err != nil {
		return err
	}
	if boundary == 0 || bits.OnesCount64(boundary) != 1 {
		return newError(ErrInvalidArgument, stmt.Children[0].Pos, stmt.String, "alignment %d is not a power of two", boundary)
	}
	aligned := alignUp(a.pc, boundary)
	return a.advance(stmt, aligned-a.pc)
}
