package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// TokenType is the type of token (identifier, operator, literal, etc.).
type TokenType string

// Definition of token types
const (
	// Special tokens
	ILLEGAL TokenType = "ILLEGAL"
	EOF     TokenType = "EOF"
	NEWLINE TokenType = "NEWLINE"

	// Identifiers + literals
	IDENT  TokenType = "IDENT" // addi, loop, .local, x5
	INT    TokenType = "INT"   // 42, 0x2a, 0b10_1010
	STRING TokenType = "STRING"
	CHAR   TokenType = "CHAR"

	// Operators
	PLUS     TokenType = "+"
	MINUS    TokenType = "-"
	ASTERISK TokenType = "*"
	SLASH    TokenType = "/"
	SHL      TokenType = "<<"
	SHR      TokenType = ">>"
	ASHR     TokenType = ">>>"
	DOLLAR   TokenType = "$"

	// Delimiters
	COMMA  TokenType = ","
	COLON  TokenType = ":"
	LPAREN TokenType = "("
	RPAREN TokenType = ")"
)

// Lexer turns assembly source into tokens. The current token lives in the
// Curr* fields; call NextToken to advance.
type Lexer struct {
	input     []byte // always terminated by a 0 byte
	pos       int
	line      int
	lineStart int

	CurrTokenType TokenType
	CurrLiteral   string
	CurrIntValue  uint64 // INT and CHAR only
	CurrBytes     []byte // STRING only
	CurrPos       Pos

	// Err describes the most recent ILLEGAL token.
	Err *AssembleError
}

// NewLexer creates a lexer over source. The first token is not scanned
// until NextToken is called.
func NewLexer(source string) *Lexer {
	input := make([]byte, len(source)+1)
	copy(input, source)
	return &Lexer{input: input, line: 1}
}

func (l *Lexer) here() Pos {
	return Pos{Offset: l.pos, Line: l.line, Col: l.pos - l.lineStart + 1}
}

// peekAt returns the byte n positions ahead, or 0 past the end of input.
func (l *Lexer) peekAt(n int) byte {
	if l.pos+n >= len(l.input) {
		return 0
	}
	return l.input[l.pos+n]
}

func (l *Lexer) atEnd() bool {
	return l.pos >= len(l.input)-1
}

// NextToken scans the next token into the Curr* fields.
func (l *Lexer) NextToken() {
	l.skipWhitespace()

	l.CurrPos = l.here()
	l.CurrIntValue = 0
	l.CurrBytes = nil
	start := l.pos
	c := l.input[l.pos]

	switch {
	case c == 0 && l.atEnd():
		l.CurrTokenType = EOF
		l.CurrLiteral = ""

	case c == '\n':
		l.pos++
		l.line++
		l.lineStart = l.pos
		l.CurrTokenType = NEWLINE
		l.CurrLiteral = "\n"

	case c == '+':
		l.single(PLUS)
	case c == '-':
		l.single(MINUS)
	case c == '*':
		l.single(ASTERISK)
	case c == '/':
		l.single(SLASH)
	case c == '$':
		l.single(DOLLAR)
	case c == ',':
		l.single(COMMA)
	case c == ':':
		l.single(COLON)
	case c == '(':
		l.single(LPAREN)
	case c == ')':
		l.single(RPAREN)

	case c == '<':
		if l.peekAt(1) == '<' {
			l.pos += 2
			l.CurrTokenType = SHL
			l.CurrLiteral = "<<"
		} else {
			l.illegal("operator", "expected '<<'")
		}

	case c == '>':
		if l.peekAt(1) == '>' && l.peekAt(2) == '>' {
			l.pos += 3
			l.CurrTokenType = ASHR
			l.CurrLiteral = ">>>"
		} else if l.peekAt(1) == '>' {
			l.pos += 2
			l.CurrTokenType = SHR
			l.CurrLiteral = ">>"
		} else {
			l.illegal("operator", "expected '>>' or '>>>'")
		}

	case c == '"':
		l.readString()

	case c == '\'':
		l.readCharLiteral()

	case isIdentStart(c):
		for isIdentChar(l.input[l.pos]) {
			l.pos++
		}
		l.CurrTokenType = IDENT
		l.CurrLiteral = string(l.input[start:l.pos])

	case isDigit(c):
		for isIdentChar(l.input[l.pos]) {
			l.pos++
		}
		lit := string(l.input[start:l.pos])
		val, err := parseIntegerLiteral(lit)
		if err != nil {
			l.pos = start
			l.illegal("integer", err.Error())
			l.pos = start + len(lit)
			return
		}
		l.CurrTokenType = INT
		l.CurrLiteral = lit
		l.CurrIntValue = val

	default:
		l.illegal("token", "unexpected character "+strconv.QuoteRune(rune(c)))
		l.pos++
	}
}

// PeekToken returns the next token type without advancing the lexer.
func (l *Lexer) PeekToken() TokenType {
	saved := *l
	l.NextToken()
	next := l.CurrTokenType
	*l = saved
	return next
}

func (l *Lexer) single(t TokenType) {
	l.CurrTokenType = t
	l.CurrLiteral = string(l.input[l.pos])
	l.pos++
}

// illegal reports a lexing error at the current position.
func (l *Lexer) illegal(rule, detail string) {
	l.CurrTokenType = ILLEGAL
	l.CurrLiteral = string(l.input[l.pos : l.pos+1])
	l.Err = &AssembleError{Kind: ErrParse, Pos: l.here(), Rule: rule, Detail: detail}
}

func (l *Lexer) skipWhitespace() {
	for {
		c := l.input[l.pos]
		switch {
		case c == ' ' || c == '\t' || c == '\r':
			l.pos++
		case c == '\\' && l.peekAt(1) == '\n':
			l.pos += 2
			l.line++
			l.lineStart = l.pos
		case c == '\\' && l.peekAt(1) == '\r' && l.peekAt(2) == '\n':
			l.pos += 3
			l.line++
			l.lineStart = l.pos
		case c == ';':
			for l.input[l.pos] != '\n' && !(l.input[l.pos] == 0 && l.atEnd()) {
				l.pos++
			}
		default:
			return
		}
	}
}

func (l *Lexer) readString() {
	start := l.pos
	l.pos++ // skip opening "
	var data []byte
	for l.input[l.pos] != '"' {
		if l.input[l.pos] == '\n' || l.atEnd() {
			l.pos = start
			l.illegal("string", "unterminated string literal")
			l.pos++
			return
		}
		b, ok := l.readByte()
		if !ok {
			return
		}
		data = append(data, b)
	}
	l.pos++ // skip closing "
	l.CurrTokenType = STRING
	l.CurrLiteral = string(l.input[start:l.pos])
	l.CurrBytes = data
	if l.CurrBytes == nil {
		l.CurrBytes = []byte{}
	}
}

func (l *Lexer) readCharLiteral() {
	start := l.pos
	l.pos++ // skip opening '
	if l.input[l.pos] == '\'' || l.input[l.pos] == '\n' || l.atEnd() {
		l.pos = start
		l.illegal("char", "empty character literal")
		l.pos++
		return
	}
	b, ok := l.readByte()
	if !ok {
		return
	}
	if l.input[l.pos] != '\'' {
		l.pos = start
		l.illegal("char", "character literal must contain exactly one byte")
		l.pos++
		return
	}
	l.pos++ // skip closing '
	l.CurrTokenType = CHAR
	l.CurrLiteral = string(l.input[start:l.pos])
	l.CurrIntValue = uint64(b)
}

// readByte consumes one possibly escaped byte of a string or character
// literal.
func (l *Lexer) readByte() (byte, bool) {
	c := l.input[l.pos]
	if c != '\\' {
		l.pos++
		return c, true
	}
	switch l.peekAt(1) {
	case 'n':
		l.pos += 2
		return '\n', true
	case 't':
		l.pos += 2
		return '\t', true
	case 'r':
		l.pos += 2
		return '\r', true
	case '\\':
		l.pos += 2
		return '\\', true
	case '\'':
		l.pos += 2
		return '\'', true
	case '"':
		l.pos += 2
		return '"', true
	case 'x':
		hi, lo := l.peekAt(2), l.peekAt(3)
		if !isHexDigit(hi) || !isHexDigit(lo) {
			l.illegal("escape", `\x must be followed by exactly two hex digits`)
			l.pos++
			return 0, false
		}
		l.pos += 4
		return hexValue(hi)<<4 | hexValue(lo), true
	default:
		l.illegal("escape", "unknown escape sequence")
		l.pos++
		return 0, false
	}
}

// parseIntegerLiteral converts an integer literal with an optional radix
// prefix (0x, 0o, 0b, 0d) and '_' digit separators.
func parseIntegerLiteral(lit string) (uint64, error) {
	base := 10
	digits := lit
	if len(lit) >= 2 && lit[0] == '0' {
		switch lit[1] {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		case 'd', 'D':
			base = 10
		}
		if base != 10 || lit[1] == 'd' || lit[1] == 'D' {
			digits = lit[2:]
		}
	}
	digits = strings.ReplaceAll(digits, "_", "")
	if digits == "" {
		return 0, fmt.Errorf("integer literal %q has no digits", lit)
	}
	val, err := strconv.ParseUint(digits, base, 64)
	if errors.Is(err, strconv.ErrRange) {
		return 0, fmt.Errorf("integer literal %q does not fit in 64 bits", lit)
	}
	if err != nil {
		return 0, fmt.Errorf("invalid digit in base-%d integer literal %q", base, lit)
	}
	return val, nil
}

func isIdentStart(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || c == '_' || c == '.'
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}

func isHexDigit(c byte) bool {
	return isDigit(c) || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

func hexValue(c byte) byte {
	switch {
	case isDigit(c):
		return c - '0'
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10
	default:
		return c - 'A' + 10
	}
}
