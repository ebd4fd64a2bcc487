package main

import (
	"testing"

	"github.com/nalgeon/be"
)

func lexInput(inputStr string) *Lexer {
	l := NewLexer(inputStr)
	l.NextToken()
	return l
}

// lexAll returns the type of every token up to and including EOF.
func lexAll(inputStr string) []TokenType {
	l := lexInput(inputStr)
	var types []TokenType
	for {
		types = append(types, l.CurrTokenType)
		if l.CurrTokenType == EOF || l.CurrTokenType == ILLEGAL {
			return types
		}
		l.NextToken()
	}
}

func TestIntLiteral(t *testing.T) {
	l := lexInput("12345")
	be.Equal(t, l.CurrTokenType, INT)
	be.Equal(t, l.CurrLiteral, "12345")
	be.Equal(t, l.CurrIntValue, uint64(12345))
}

func TestIntLiteralRadix(t *testing.T) {
	tests := []struct {
		input    string
		expected uint64
	}{
		{"0x1_0", 16},
		{"0X1F", 31},
		{"0o17", 15},
		{"0b1010_1010", 0xaa},
		{"0d99", 99},
		{"0D1_000", 1000},
		{"1_000_000", 1000000},
		{"0", 0},
		{"007", 7},
		{"0xffffffffffffffff", 0xffffffffffffffff},
	}

	for _, tt := range tests {
		l := lexInput(tt.input)
		be.Equal(t, l.CurrTokenType, INT)
		be.Equal(t, l.CurrLiteral, tt.input)
		be.Equal(t, l.CurrIntValue, tt.expected)
	}
}

func TestIntLiteralErrors(t *testing.T) {
	tests := []struct {
		input  string
		detail string
	}{
		{"0x", "has no digits"},
		{"0b_", "has no digits"},
		{"0b102", "invalid digit in base-2"},
		{"0o8", "invalid digit in base-8"},
		{"12ab", "invalid digit in base-10"},
		{"0x1_0000_0000_0000_0000", "does not fit in 64 bits"},
	}

	for _, tt := range tests {
		l := lexInput(tt.input)
		be.Equal(t, l.CurrTokenType, ILLEGAL)
		be.Err(t, l.Err, ErrParse)
		be.Equal(t, l.Err.Rule, "integer")
		be.Err(t, l.Err, tt.detail)
	}
}

func TestIdentifier(t *testing.T) {
	tests := []string{"foobar", "x5", ".local", "_start", "a.b.c", "fence.i"}

	for _, input := range tests {
		l := lexInput(input)
		be.Equal(t, l.CurrTokenType, IDENT)
		be.Equal(t, l.CurrLiteral, input)
	}
}

func TestStringLiteral(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{`"hello"`, "hello"},
		{`""`, ""},
		{`"a\nb"`, "a\nb"},
		{`"tab\there"`, "tab\there"},
		{`"\r\\"`, "\r\\"},
		{`"\x41\x7a"`, "Az"},
		{`"say \"hi\""`, `say "hi"`},
		{`"it\'s"`, "it's"},
	}

	for _, tt := range tests {
		l := lexInput(tt.input)
		be.Equal(t, l.CurrTokenType, STRING)
		be.Equal(t, l.CurrLiteral, tt.input)
		be.Equal(t, string(l.CurrBytes), tt.expected)
	}
}

func TestCharLiteral(t *testing.T) {
	tests := []struct {
		input    string
		expected uint64
	}{
		{"'a'", 'a'},
		{"'0'", '0'},
		{`'\n'`, '\n'},
		{`'\t'`, '\t'},
		{`'\\'`, '\\'},
		{`'\''`, '\''},
		{`'\x00'`, 0},
		{`'\xFF'`, 0xff},
	}

	for _, tt := range tests {
		l := lexInput(tt.input)
		be.Equal(t, l.CurrTokenType, CHAR)
		be.Equal(t, l.CurrLiteral, tt.input)
		be.Equal(t, l.CurrIntValue, tt.expected)
	}
}

func TestLiteralErrors(t *testing.T) {
	tests := []struct {
		input string
		rule  string
	}{
		{`"unterminated`, "string"},
		{"\"line\nbreak\"", "string"},
		{`"\q"`, "escape"},
		{`"\x4"`, "escape"},
		{`''`, "char"},
		{`'ab'`, "char"},
		{`'\xZZ'`, "escape"},
		{"@", "token"},
		{"<", "operator"},
		{">", "operator"},
	}

	for _, tt := range tests {
		l := lexInput(tt.input)
		be.Equal(t, l.CurrTokenType, ILLEGAL)
		be.Err(t, l.Err, ErrParse)
		be.Equal(t, l.Err.Rule, tt.rule)
	}
}

func TestOperatorsAndDelimiters(t *testing.T) {
	tests := []struct {
		input string
		typ   TokenType
	}{
		{"+", PLUS},
		{"-", MINUS},
		{"*", ASTERISK},
		{"/", SLASH},
		{"<<", SHL},
		{">>", SHR},
		{">>>", ASHR},
		{"$", DOLLAR},
		{",", COMMA},
		{":", COLON},
		{"(", LPAREN},
		{")", RPAREN},
		{"\n", NEWLINE},
		{"", EOF},
	}

	for _, tt := range tests {
		l := lexInput(tt.input)
		be.Equal(t, l.CurrTokenType, tt.typ)
		if tt.typ != EOF && tt.typ != NEWLINE {
			be.Equal(t, l.CurrLiteral, tt.input)
		}
	}
}

func TestInstructionLine(t *testing.T) {
	types := lexAll("loop: lw x5, -8(sp) ; load\n")
	be.Equal(t, types, []TokenType{
		IDENT, COLON, IDENT, IDENT, COMMA, MINUS, INT, LPAREN, IDENT, RPAREN, NEWLINE, EOF,
	})
}

func TestCommentsAndWhitespace(t *testing.T) {
	be.Equal(t, lexAll("; only a comment"), []TokenType{EOF})
	be.Equal(t, lexAll("  \t\r\n"), []TokenType{NEWLINE, EOF})
	be.Equal(t, lexAll("nop ; c1\n; c2\nnop"), []TokenType{IDENT, NEWLINE, NEWLINE, IDENT, EOF})
}

func TestLineContinuation(t *testing.T) {
	be.Equal(t, lexAll("addi x1, \\\n x0, 5"), []TokenType{IDENT, IDENT, COMMA, IDENT, COMMA, INT, EOF})
	be.Equal(t, lexAll("addi x1, \\\r\n x0, 5"), []TokenType{IDENT, IDENT, COMMA, IDENT, COMMA, INT, EOF})
}

func TestTokenPositions(t *testing.T) {
	l := lexInput("nop\n  addi x1")
	be.Equal(t, l.CurrPos, Pos{Offset: 0, Line: 1, Col: 1})

	l.NextToken() // NEWLINE
	be.Equal(t, l.CurrPos, Pos{Offset: 3, Line: 1, Col: 4})

	l.NextToken() // addi
	be.Equal(t, l.CurrPos, Pos{Offset: 6, Line: 2, Col: 3})

	l.NextToken() // x1
	be.Equal(t, l.CurrPos, Pos{Offset: 11, Line: 2, Col: 8})
}

func TestContinuationPositions(t *testing.T) {
	l := lexInput("a \\\nb")
	l.NextToken()
	be.Equal(t, l.CurrLiteral, "b")
	be.Equal(t, l.CurrPos.Line, 2)
	be.Equal(t, l.CurrPos.Col, 1)
}

func TestPeekToken(t *testing.T) {
	l := lexInput("foo: bar")
	be.Equal(t, l.PeekToken(), COLON)
	be.Equal(t, l.CurrTokenType, IDENT)
	be.Equal(t, l.CurrLiteral, "foo")

	l.NextToken()
	be.Equal(t, l.CurrTokenType, COLON)
	be.Equal(t, l.PeekToken(), IDENT)
	l.NextToken()
	be.Equal(t, l.CurrLiteral, "bar")
	be.Equal(t, l.PeekToken(), EOF)
}

func TestEmbeddedNulByte(t *testing.T) {
	l := lexInput("nop\x00nop")
	be.Equal(t, l.CurrTokenType, IDENT)
	l.NextToken()
	be.Equal(t, l.CurrTokenType, ILLEGAL)
	be.Equal(t, l.Err.Rule, "token")
}

func TestParseIntegerLiteral(t *testing.T) {
	val, err := parseIntegerLiteral("0x1_0")
	be.Err(t, err, nil)
	be.Equal(t, val, uint64(16))

	val, err = parseIntegerLiteral("0b1111_0000")
	be.Err(t, err, nil)
	be.Equal(t, val, uint64(0xf0))

	_, err = parseIntegerLiteral("0x")
	be.Err(t, err, `integer literal "0x" has no digits`)

	_, err = parseIntegerLiteral("99999999999999999999")
	be.Err(t, err, "does not fit in 64 bits")
}
