package sexy

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// NodeType represents the type of a Node
type NodeType int

const (
	NodeSymbol NodeType = iota
	NodeString
	NodeInteger
	NodeEllipsis
	NodeList
)

func (t NodeType) String() string {
	switch t {
	case NodeSymbol:
		return "symbol"
	case NodeString:
		return "string"
	case NodeInteger:
		return "integer"
	case NodeEllipsis:
		return "ellipsis"
	case NodeList:
		return "list"
	default:
		return fmt.Sprintf("UNKNOWN_NODE_TYPE_%d", int(t))
	}
}

// Node represents any Sexy data structure
type Node struct {
	Type NodeType
	Line int // 1-based line of the first token

	// Atoms and text
	Text string // NodeSymbol, NodeString, NodeInteger

	Items []*Node // NodeList
}

func (n *Node) String() string {
	switch n.Type {
	case NodeSymbol, NodeInteger:
		return n.Text
	case NodeString:
		escaped := strings.ReplaceAll(n.Text, "\\", "\\\\")
		escaped = strings.ReplaceAll(escaped, "\"", "\\\"")
		return fmt.Sprintf("\"%s\"", escaped)
	case NodeEllipsis:
		return "..."
	case NodeList:
		return "(" + joinItems(n.Items) + ")"
	default:
		return n.Type.String()
	}
}

func joinItems(items []*Node) string {
	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = item.String()
	}
	return strings.Join(parts, " ")
}

// Helper constructors for common node types
func NewSymbol(name string) *Node {
	return &Node{Type: NodeSymbol, Text: name}
}

func NewString(value string) *Node {
	return &Node{Type: NodeString, Text: value}
}

func NewInteger(text string) *Node {
	return &Node{Type: NodeInteger, Text: text}
}

func NewEllipsis() *Node {
	return &Node{Type: NodeEllipsis}
}

func NewList(items []*Node) *Node {
	return &Node{Type: NodeList, Items: items}
}

// IsAtom checks if the node is an atomic value
func (n *Node) IsAtom() bool {
	return n.Type == NodeSymbol || n.Type == NodeString || n.Type == NodeInteger || n.Type == NodeEllipsis
}

// Head returns the leading symbol of a list, or "" if there is none.
func (n *Node) Head() string {
	if n.Type != NodeList || len(n.Items) == 0 || n.Items[0].Type != NodeSymbol {
		return ""
	}
	return n.Items[0].Text
}

// Int parses an integer atom. Decimal, 0x, 0o and 0b forms are accepted,
// with optional sign and '_' separators.
func (n *Node) Int() (int64, error) {
	if n.Type != NodeInteger {
		return 0, fmt.Errorf("line %d: expected integer but got %s", n.Line, n.Type)
	}
	text := strings.ReplaceAll(n.Text, "_", "")
	if val, err := strconv.ParseInt(text, 0, 64); err == nil {
		return val, nil
	}
	val, err := strconv.ParseUint(text, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("line %d: invalid integer %s", n.Line, n.Text)
	}
	return int64(val), nil
}

type parser struct {
	lexer        *lexer
	currentToken token
	peekToken    token
}

// Parse parses the entire input and returns the top-level datum
func Parse(input string) (*Node, error) {
	nodes, err := ParseAll(input)
	if err != nil {
		return nil, err
	}
	if len(nodes) != 1 {
		return nil, fmt.Errorf("expected exactly one datum but got %d", len(nodes))
	}
	return nodes[0], nil
}

// ParseAll parses a sequence of top-level data, such as a definition file.
func ParseAll(input string) ([]*Node, error) {
	p := &parser{lexer: newLexer(input)}
	p.nextToken()
	p.nextToken()

	var nodes []*Node
	for p.currentToken.Type != tokenEOF {
		node, err := p.ParseDatum()
		if len(p.lexer.errors) > 0 {
			// Lexer errors take priority because they might cause confusing parser errors.
			return nil, fmt.Errorf("%s", p.lexer.errors[0])
		}
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
	if len(p.lexer.errors) > 0 {
		return nil, fmt.Errorf("%s", p.lexer.errors[0])
	}
	return nodes, nil
}

func (p *parser) nextToken() {
	p.currentToken = p.peekToken
	p.peekToken = p.lexer.nextToken()
}

func (p *parser) errorf(format string, args ...any) error {
	return fmt.Errorf("line %d: %s", p.currentToken.Line, fmt.Sprintf(format, args...))
}

func (p *parser) ParseDatum() (*Node, error) {
	line := p.currentToken.Line
	var node *Node
	var err error
	switch p.currentToken.Type {
	case tokenSymbol:
		node = NewSymbol(p.currentToken.Value)
		p.nextToken()
	case tokenString:
		node = NewString(p.currentToken.Value)
		p.nextToken()
	case tokenInteger:
		// Callers validate the digits with Node.Int when they need a value.
		node = NewInteger(p.currentToken.Value)
		p.nextToken()
	case tokenEllipsis:
		node = NewEllipsis()
		p.nextToken()
	case tokenLParen:
		node, err = p.parseList()
	default:
		return nil, p.errorf("unexpected token: %s", p.currentToken.Type)
	}
	if err != nil {
		return nil, err
	}
	node.Line = line
	return node, nil
}

func (p *parser) parseList() (*Node, error) {
	var items []*Node
	p.nextToken() // consume '('

	for p.currentToken.Type != tokenRParen && p.currentToken.Type != tokenEOF {
		item, err := p.ParseDatum()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	if p.currentToken.Type != tokenRParen {
		return nil, p.errorf("expected %s but got %s", tokenRParen, p.currentToken.Type)
	}
	p.nextToken() // consume ')'

	return NewList(items), nil
}

type tokenType int

const (
	tokenEOF tokenType = iota
	tokenSymbol
	tokenString
	tokenInteger
	tokenEllipsis
	tokenLParen
	tokenRParen
)

func (t tokenType) String() string {
	switch t {
	case tokenEOF:
		return "EOF"
	case tokenSymbol:
		return "symbol"
	case tokenString:
		return "string"
	case tokenInteger:
		return "integer"
	case tokenEllipsis:
		return "ellipsis"
	case tokenLParen:
		return "'('"
	case tokenRParen:
		return "')'"
	default:
		return fmt.Sprintf("unknown token %d", int(t))
	}
}

type token struct {
	Type  tokenType
	Value string
	Line  int
}

type lexer struct {
	input    string
	position int
	line     int
	current  rune
	errors   []string
}

func newLexer(input string) *lexer {
	l := &lexer{input: input, line: 1}
	l.readChar()
	return l
}

func (l *lexer) readChar() {
	if l.current == '\n' {
		l.line++
	}
	if l.position >= len(l.input) {
		l.current = 0
	} else {
		l.current = rune(l.input[l.position])
	}
	l.position++
}

func (l *lexer) peekChar() rune {
	if l.position >= len(l.input) {
		return 0
	}
	return rune(l.input[l.position])
}

func (l *lexer) errorf(format string, args ...any) {
	l.errors = append(l.errors, fmt.Sprintf("line %d: %s", l.line, fmt.Sprintf(format, args...)))
}

func (l *lexer) skipWhitespace() {
	for unicode.IsSpace(l.current) {
		l.readChar()
	}
}

func (l *lexer) skipComment() {
	for l.current != '\n' && l.current != '\r' && l.current != 0 {
		l.readChar()
	}
}

func (l *lexer) readSymbol() string {
	start := l.position - 1
	for isSymbolChar(l.current) {
		l.readChar()
	}
	return l.input[start : l.position-1]
}

func (l *lexer) readString() (string, error) {
	var result strings.Builder
	l.readChar() // skip opening quote

	for l.current != '"' && l.current != 0 {
		if l.current == '\\' {
			l.readChar()
			switch l.current {
			case '"':
				result.WriteByte('"')
			case '\\':
				result.WriteByte('\\')
			case 'n':
				result.WriteByte('\n')
			case 't':
				result.WriteByte('\t')
			default:
				return "", fmt.Errorf("invalid escape sequence: \\%c", l.current)
			}
		} else {
			result.WriteByte(byte(l.current))
		}
		l.readChar()
	}

	if l.current != '"' {
		return "", fmt.Errorf("unterminated string")
	}
	l.readChar() // skip closing quote

	return result.String(), nil
}

func (l *lexer) readInteger() string {
	start := l.position - 1
	if l.current == '+' || l.current == '-' {
		l.readChar()
	}
	for unicode.IsDigit(l.current) || unicode.IsLetter(l.current) || l.current == '_' {
		l.readChar()
	}
	return l.input[start : l.position-1]
}

func (l *lexer) nextToken() token {
	for {
		l.skipWhitespace()

		line := l.line

		switch l.current {
		case 0:
			return token{Type: tokenEOF, Line: line}
		case ';':
			l.skipComment()
			continue
		case '(':
			l.readChar()
			return token{Type: tokenLParen, Value: "(", Line: line}
		case ')':
			l.readChar()
			return token{Type: tokenRParen, Value: ")", Line: line}
		case '"':
			str, err := l.readString()
			if err != nil {
				l.errorf("%s", err)
				return token{Type: tokenEOF, Line: line}
			}
			return token{Type: tokenString, Value: str, Line: line}
		case '.':
			if l.peekChar() == '.' {
				l.readChar()
				if l.peekChar() == '.' {
					l.readChar()
					l.readChar()
					return token{Type: tokenEllipsis, Value: "...", Line: line}
				}
			}
			// Single dot is a syntax error
			l.errorf("unexpected character '.'")
			return token{Type: tokenEOF, Line: line}
		default:
			if isSymbolStart(l.current) {
				symbol := l.readSymbol()
				return token{Type: tokenSymbol, Value: symbol, Line: line}
			} else if unicode.IsDigit(l.current) || l.current == '+' || l.current == '-' {
				if (l.current == '+' || l.current == '-') && !unicode.IsDigit(l.peekChar()) {
					// Single + or - is a symbol
					symbol := l.readSymbol()
					return token{Type: tokenSymbol, Value: symbol, Line: line}
				}
				integer := l.readInteger()
				return token{Type: tokenInteger, Value: integer, Line: line}
			} else {
				// Unknown character is a syntax error
				l.errorf("unexpected character '%c'", l.current)
				return token{Type: tokenEOF, Line: line}
			}
		}
	}
}

func isSymbolStart(r rune) bool {
	return unicode.IsLetter(r) || r == '_'
}

func isSymbolChar(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' || r == '.'
}
