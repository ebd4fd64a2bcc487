package main

import (
	"strconv"
	"strings"
)

// NodeKind represents different types of AST nodes
type NodeKind string

const (
	NodeIdent       NodeKind = "NodeIdent"
	NodeInteger     NodeKind = "NodeInteger"
	NodeString      NodeKind = "NodeString"
	NodePC          NodeKind = "NodePC"
	NodeRegister    NodeKind = "NodeRegister"
	NodeUnary       NodeKind = "NodeUnary"
	NodeBinary      NodeKind = "NodeBinary"
	NodeLabel       NodeKind = "NodeLabel"
	NodeInstruction NodeKind = "NodeInstruction"
	NodeProgram     NodeKind = "NodeProgram"
)

// ASTNode represents a node in the Abstract Syntax Tree
type ASTNode struct {
	Kind NodeKind
	Pos  Pos
	// NodeIdent, NodeRegister, NodeLabel, NodeInstruction (mnemonic),
	// NodeString (raw bytes):
	String string
	// NodeInteger, NodeRegister (index):
	Integer uint64
	// NodeUnary, NodeBinary:
	Op string // "-", "+", "*", "/", "<<", ">>", ">>>"
	// Operands, instruction arguments, program statements:
	Children []*ASTNode
}

// RegisterSet classifies register names. *InstructionSpec implements it.
type RegisterSet interface {
	RegisterIndex(name string) (uint32, bool)
}

type parser struct {
	lex  *Lexer
	regs RegisterSet
}

// Parse parses a whole assembly program.
func Parse(source string, regs RegisterSet) (*ASTNode, error) {
	p := &parser{lex: NewLexer(source), regs: regs}
	p.lex.NextToken()
	return p.ParseProgram()
}

// ParseExpressionString parses source as a single expression.
func ParseExpressionString(source string, regs RegisterSet) (*ASTNode, error) {
	p := &parser{lex: NewLexer(source), regs: regs}
	p.lex.NextToken()
	expr, err := p.ParseExpression()
	if err != nil {
		return nil, err
	}
	if p.lex.CurrTokenType != EOF {
		return nil, p.unexpected("expression", "end of input")
	}
	return expr, nil
}

func (p *parser) tok() TokenType {
	return p.lex.CurrTokenType
}

func (p *parser) errorf(rule string, format string, args ...any) *AssembleError {
	e := newError(ErrParse, p.lex.CurrPos, "", format, args...)
	e.Rule = rule
	return e
}

// unexpected reports the current token as not matching rule. Lexing errors
// take priority because they explain the bad token better.
func (p *parser) unexpected(rule, expected string) *AssembleError {
	if p.tok() == ILLEGAL && p.lex.Err != nil {
		return p.lex.Err
	}
	return p.errorf(rule, "expected %s, got %s", expected, describeToken(p.lex))
}

func describeToken(l *Lexer) string {
	switch l.CurrTokenType {
	case EOF:
		return "end of input"
	case NEWLINE:
		return "end of line"
	case IDENT, INT, STRING, CHAR:
		return strings.ToLower(string(l.CurrTokenType)) + " " + strconv.Quote(l.CurrLiteral)
	default:
		return "'" + l.CurrLiteral + "'"
	}
}

func (p *parser) isRegister(name string) (uint32, bool) {
	if p.regs == nil {
		return 0, false
	}
	return p.regs.RegisterIndex(name)
}

func atEndOfStatement(t TokenType) bool {
	return t == NEWLINE || t == EOF
}

// ParseProgram parses labels and instructions until end of input.
func (p *parser) ParseProgram() (*ASTNode, error) {
	program := &ASTNode{Kind: NodeProgram, Pos: p.lex.CurrPos}
	for {
		switch p.tok() {
		case EOF:
			return program, nil

		case NEWLINE:
			p.lex.NextToken()

		case IDENT:
			if p.lex.PeekToken() == COLON {
				program.Children = append(program.Children, &ASTNode{
					Kind:   NodeLabel,
					Pos:    p.lex.CurrPos,
					String: p.lex.CurrLiteral,
				})
				p.lex.NextToken() // label name
				p.lex.NextToken() // ':'
				continue
			}
			insn, err := p.ParseInstruction()
			if err != nil {
				return nil, err
			}
			program.Children = append(program.Children, insn)

		default:
			return nil, p.unexpected("statement", "label or instruction")
		}
	}
}

// ParseInstruction parses a mnemonic and its arguments up to the end of the
// line.
func (p *parser) ParseInstruction() (*ASTNode, error) {
	insn := &ASTNode{
		Kind:   NodeInstruction,
		Pos:    p.lex.CurrPos,
		String: p.lex.CurrLiteral,
	}
	p.lex.NextToken()

	if isDefineDirective(insn.String) {
		if err := p.parseDefineArguments(insn); err != nil {
			return nil, err
		}
	} else if !atEndOfStatement(p.tok()) {
		for {
			args, err := p.ParseArgument()
			if err != nil {
				return nil, err
			}
			insn.Children = append(insn.Children, args...)
			if p.tok() != COMMA {
				break
			}
			p.lex.NextToken()
		}
	}

	if !atEndOfStatement(p.tok()) {
		return nil, p.unexpected("instruction", "',' or end of line")
	}
	return insn, nil
}

// parseDefineArguments handles ".equ NAME VAL" and ".equ NAME, VAL".
func (p *parser) parseDefineArguments(insn *ASTNode) error {
	if p.tok() != IDENT {
		return p.unexpected("define", "constant name")
	}
	if _, isReg := p.isRegister(p.lex.CurrLiteral); isReg {
		return p.errorf("define", "register name '%s' cannot name a constant", p.lex.CurrLiteral)
	}
	name := &ASTNode{Kind: NodeIdent, Pos: p.lex.CurrPos, String: p.lex.CurrLiteral}
	p.lex.NextToken()
	if p.tok() == COMMA {
		p.lex.NextToken()
	}
	value, err := p.ParseExpression()
	if err != nil {
		return err
	}
	insn.Children = []*ASTNode{name, value}
	return nil
}

// ParseArgument parses one instruction argument. A memory operand
// "OFFSET(REG)" yields two arguments, offset first.
func (p *parser) ParseArgument() ([]*ASTNode, error) {
	switch p.tok() {
	case IDENT:
		if index, ok := p.isRegister(p.lex.CurrLiteral); ok {
			reg := p.registerNode(index)
			if !atEndOfStatement(p.tok()) && p.tok() != COMMA {
				return nil, p.unexpected("argument", "',' or end of line after register")
			}
			return []*ASTNode{reg}, nil
		}

	case STRING:
		str := &ASTNode{Kind: NodeString, Pos: p.lex.CurrPos, String: string(p.lex.CurrBytes)}
		p.lex.NextToken()
		return []*ASTNode{str}, nil

	case LPAREN:
		// "(REG)" is a memory operand with a zero offset.
		saved := *p.lex
		pos := p.lex.CurrPos
		p.lex.NextToken()
		if p.tok() == IDENT {
			if _, ok := p.isRegister(p.lex.CurrLiteral); ok {
				*p.lex = saved
				zero := &ASTNode{Kind: NodeInteger, Pos: pos}
				base, err := p.parseMemoryBase()
				if err != nil {
					return nil, err
				}
				return []*ASTNode{zero, base}, nil
			}
		}
		*p.lex = saved
	}

	expr, err := p.ParseExpression()
	if err != nil {
		return nil, err
	}
	if p.tok() == LPAREN {
		base, err := p.parseMemoryBase()
		if err != nil {
			return nil, err
		}
		return []*ASTNode{expr, base}, nil
	}
	return []*ASTNode{expr}, nil
}

// parseMemoryBase parses "(REG)".
func (p *parser) parseMemoryBase() (*ASTNode, error) {
	p.lex.NextToken() // '('
	if p.tok() != IDENT {
		return nil, p.unexpected("memory operand", "base register")
	}
	index, ok := p.isRegister(p.lex.CurrLiteral)
	if !ok {
		return nil, newError(ErrUnknownRegister, p.lex.CurrPos, p.lex.CurrLiteral, "memory operand base must be a register")
	}
	reg := p.registerNode(index)
	if p.tok() != RPAREN {
		return nil, p.unexpected("memory operand", "')'")
	}
	p.lex.NextToken()
	return reg, nil
}

func (p *parser) registerNode(index uint32) *ASTNode {
	reg := &ASTNode{
		Kind:    NodeRegister,
		Pos:     p.lex.CurrPos,
		String:  p.lex.CurrLiteral,
		Integer: uint64(index),
	}
	p.lex.NextToken()
	return reg
}

// precedence returns the precedence level for a given token type
func precedence(tokenType TokenType) int {
	switch tokenType {
	case SHL, SHR, ASHR:
		return 1
	case PLUS, MINUS:
		return 2
	case ASTERISK, SLASH:
		return 3
	default:
		return 0 // not an operator
	}
}

// isOperator returns true if the token is a binary operator
func isOperator(tokenType TokenType) bool {
	return precedence(tokenType) > 0
}

// ParseExpression parses an expression and returns an AST node
func (p *parser) ParseExpression() (*ASTNode, error) {
	return p.parseExpressionWithPrecedence(1)
}

// parseExpressionWithPrecedence implements precedence climbing
func (p *parser) parseExpressionWithPrecedence(minPrec int) (*ASTNode, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	for isOperator(p.tok()) && precedence(p.tok()) >= minPrec {
		op := p.lex.CurrLiteral
		prec := precedence(p.tok())
		p.lex.NextToken()

		right, err := p.parseExpressionWithPrecedence(prec + 1) // left-associative
		if err != nil {
			return nil, err
		}
		left = newBinary(op, left, right)
	}

	return left, nil
}

func (p *parser) parseUnary() (*ASTNode, error) {
	if p.tok() == MINUS {
		pos := p.lex.CurrPos
		p.lex.NextToken()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return newNegation(pos, operand), nil
	}
	return p.parsePrimary()
}

// parsePrimary handles literals, identifiers, '$' and parentheses.
func (p *parser) parsePrimary() (*ASTNode, error) {
	pos := p.lex.CurrPos
	switch p.tok() {
	case INT, CHAR:
		node := &ASTNode{Kind: NodeInteger, Pos: pos, Integer: p.lex.CurrIntValue}
		p.lex.NextToken()
		return node, nil

	case DOLLAR:
		p.lex.NextToken()
		return &ASTNode{Kind: NodePC, Pos: pos}, nil

	case IDENT:
		if _, isReg := p.isRegister(p.lex.CurrLiteral); isReg {
			return nil, p.errorf("expression", "register '%s' cannot be used in an expression", p.lex.CurrLiteral)
		}
		node := &ASTNode{Kind: NodeIdent, Pos: pos, String: p.lex.CurrLiteral}
		p.lex.NextToken()
		return node, nil

	case LPAREN:
		p.lex.NextToken() // consume '('
		expr, err := p.ParseExpression()
		if err != nil {
			return nil, err
		}
		if p.tok() != RPAREN {
			return nil, p.unexpected("expression", "')'")
		}
		p.lex.NextToken()
		return expr, nil

	case STRING:
		return nil, p.errorf("expression", "string literal cannot be used in an expression")

	default:
		return nil, p.unexpected("expression", "expression")
	}
}

// newBinary builds lhs op rhs, folding it when both sides are literals.
func newBinary(op string, lhs, rhs *ASTNode) *ASTNode {
	if lhs.Kind == NodeInteger && rhs.Kind == NodeInteger {
		if val, ok := applyBinary(op, lhs.Integer, rhs.Integer); ok {
			return &ASTNode{Kind: NodeInteger, Pos: lhs.Pos, Integer: val}
		}
	}
	return &ASTNode{
		Kind:     NodeBinary,
		Pos:      lhs.Pos,
		Op:       op,
		Children: []*ASTNode{lhs, rhs},
	}
}

func newNegation(pos Pos, operand *ASTNode) *ASTNode {
	if operand.Kind == NodeInteger {
		return &ASTNode{Kind: NodeInteger, Pos: pos, Integer: 0 - operand.Integer}
	}
	return &ASTNode{Kind: NodeUnary, Pos: pos, Op: "-", Children: []*ASTNode{operand}}
}

// ToSExpr converts an AST node to s-expression string representation
func ToSExpr(node *ASTNode) string {
	switch node.Kind {
	case NodeIdent:
		return "(ident " + quoteSExpr(node.String) + ")"
	case NodeInteger:
		return "(integer " + strconv.FormatUint(node.Integer, 10) + ")"
	case NodeString:
		return "(string " + quoteSExpr(node.String) + ")"
	case NodePC:
		return "(pc)"
	case NodeRegister:
		return "(register " + quoteSExpr(node.String) + " " + strconv.FormatUint(node.Integer, 10) + ")"
	case NodeUnary:
		return "(unary \"" + node.Op + "\" " + ToSExpr(node.Children[0]) + ")"
	case NodeBinary:
		left := ToSExpr(node.Children[0])
		right := ToSExpr(node.Children[1])
		return "(binary \"" + node.Op + "\" " + left + " " + right + ")"
	case NodeLabel:
		return "(label " + quoteSExpr(node.String) + ")"
	case NodeInstruction:
		result := "(instruction " + quoteSExpr(node.String)
		for _, arg := range node.Children {
			result += " " + ToSExpr(arg)
		}
		return result + ")"
	case NodeProgram:
		result := "(program"
		for _, stmt := range node.Children {
			result += " " + ToSExpr(stmt)
		}
		return result + ")"
	default:
		return ""
	}
}

func quoteSExpr(s string) string {
	escaped := strings.ReplaceAll(s, "\\", "\\\\")
	escaped = strings.ReplaceAll(escaped, "\"", "\\\"")
	return "\"" + escaped + "\""
}
