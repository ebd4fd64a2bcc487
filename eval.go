package main

import "errors"

// SymbolResolver resolves a symbol name against whatever scope is active.
type SymbolResolver interface {
	Lookup(name string) (uint64, error)
}

// Evaluate reduces an expression to a 64-bit value. pc is the address bound
// to '$'.
func Evaluate(node *ASTNode, symbols SymbolResolver, pc uint64) (uint64, error) {
	switch node.Kind {
	case NodeInteger:
		return node.Integer, nil

	case NodePC:
		return pc, nil

	case NodeIdent:
		val, err := symbols.Lookup(node.String)
		if err != nil {
			var ae *AssembleError
			if errors.As(err, &ae) && ae.Pos == (Pos{}) {
				ae.Pos = node.Pos
			}
			return 0, err
		}
		return val, nil

	case NodeUnary:
		val, err := Evaluate(node.Children[0], symbols, pc)
		if err != nil {
			return 0, err
		}
		return 0 - val, nil

	case NodeBinary:
		lhs, err := Evaluate(node.Children[0], symbols, pc)
		if err != nil {
			return 0, err
		}
		rhs, err := Evaluate(node.Children[1], symbols, pc)
		if err != nil {
			return 0, err
		}
		val, ok := applyBinary(node.Op, lhs, rhs)
		if !ok {
			return 0, newError(ErrDivisionByZero, node.Pos, "", "")
		}
		return val, nil

	case NodeRegister:
		return 0, newError(ErrInvalidArgument, node.Pos, node.String, "register used where a value is expected")

	case NodeString:
		return 0, newError(ErrInvalidArgument, node.Pos, "", "string literal used where a value is expected")

	default:
		return 0, newError(ErrInvalidArgument, node.Pos, "", "%s is not an expression", node.Kind)
	}
}

// applyBinary computes lhs op rhs with 64-bit wraparound. It reports false
// only for division by zero.
func applyBinary(op string, lhs, rhs uint64) (uint64, bool) {
	switch op {
	case "+":
		return lhs + rhs, true
	case "-":
		return lhs - rhs, true
	case "*":
		return lhs * rhs, true
	case "/":
		if rhs == 0 {
			return 0, false
		}
		return lhs / rhs, true
	case "<<":
		return lhs << (rhs % 64), true
	case ">>":
		return lhs >> (rhs % 64), true
	case ">>>":
		return uint64(int64(lhs) >> (rhs % 64)), true
	default:
		panic("Unsupported binary operator: " + op)
	}
}
