package main

import (
	"testing"

	"github.com/nalgeon/be"
)

// mapResolver resolves names from a fixed map.
type mapResolver map[string]uint64

func (m mapResolver) Lookup(name string) (uint64, error) {
	if val, ok := m[name]; ok {
		return val, nil
	}
	return 0, newError(ErrUndefinedSymbol, Pos{}, name, "")
}

func evalString(t *testing.T, input string, symbols SymbolResolver, pc uint64) (uint64, error) {
	t.Helper()
	ast, err := ParseExpressionString(input, DefaultInstructionSpec())
	be.Err(t, err, nil)
	return Evaluate(ast, symbols, pc)
}

func TestEvaluateArithmetic(t *testing.T) {
	symbols := mapResolver{"x": 10, "y": 3, "neg": 0xffff_ffff_ffff_fff0}
	tests := []struct {
		input    string
		expected uint64
	}{
		{"2+2*3", 8},
		{"(2+2)*3", 12},
		{"1<<2+1", 8},
		{"x + y", 13},
		{"x - y", 7},
		{"y - x", 0xffff_ffff_ffff_fff9},
		{"x * y", 30},
		{"x / y", 3},
		{"-x", 0xffff_ffff_ffff_fff6},
		{"0 - x + x", 0},
		{"x << 60", 0xa000_0000_0000_0000},
		{"x << 64", 10},
		{"x << 65", 20},
		{"neg >> 4", 0x0fff_ffff_ffff_ffff},
		{"neg >>> 4", 0xffff_ffff_ffff_ffff},
		{"x >>> 1", 5},
		{"0xffffffffffffffff * 2", 0xffff_ffff_ffff_fffe},
		{"0xffffffffffffffff + x", 9},
	}

	for _, test := range tests {
		val, err := evalString(t, test.input, symbols, 0)
		be.Err(t, err, nil)
		be.Equal(t, val, test.expected)
	}
}

func TestEvaluatePC(t *testing.T) {
	symbols := mapResolver{"target": 0x40}
	val, err := evalString(t, "target - $", symbols, 0x30)
	be.Err(t, err, nil)
	be.Equal(t, val, uint64(0x10))

	val, err = evalString(t, "$", symbols, 0x1234)
	be.Err(t, err, nil)
	be.Equal(t, val, uint64(0x1234))
}

func TestEvaluateUndefinedSymbol(t *testing.T) {
	_, err := evalString(t, "1 + missing", mapResolver{}, 0)
	be.Err(t, err, ErrUndefinedSymbol)

	ae := err.(*AssembleError)
	be.Equal(t, ae.Name, "missing")
	be.Equal(t, ae.Pos, Pos{Offset: 4, Line: 1, Col: 5})
}

func TestEvaluateDivisionByZero(t *testing.T) {
	_, err := evalString(t, "1/0", mapResolver{}, 0)
	be.Err(t, err, ErrDivisionByZero)

	_, err = evalString(t, "x / (y - y)", mapResolver{"x": 1, "y": 2}, 0)
	be.Err(t, err, ErrDivisionByZero)
	be.Equal(t, err.(*AssembleError).Pos.Col, 1)
}

func TestEvaluateNonExpressions(t *testing.T) {
	reg := &ASTNode{Kind: NodeRegister, String: "x1", Integer: 1}
	_, err := Evaluate(reg, mapResolver{}, 0)
	be.Err(t, err, ErrInvalidArgument)

	str := &ASTNode{Kind: NodeString, String: "hi"}
	_, err = Evaluate(str, mapResolver{}, 0)
	be.Err(t, err, ErrInvalidArgument)

	label := &ASTNode{Kind: NodeLabel, String: "foo"}
	_, err = Evaluate(label, mapResolver{}, 0)
	be.Err(t, err, ErrInvalidArgument)
}

func TestApplyBinary(t *testing.T) {
	val, ok := applyBinary("/", 7, 0)
	be.True(t, !ok)
	be.Equal(t, val, uint64(0))

	val, ok = applyBinary(">>>", 0x8000_0000_0000_0000, 63)
	be.True(t, ok)
	be.Equal(t, val, uint64(0xffff_ffff_ffff_ffff))
}
