package sexy

import (
	"testing"

	"github.com/nalgeon/be"
)

func TestParseSymbol(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"hello", "hello"},
		{"test_var", "test_var"},
		{"I-shift", "I-shift"},
		{"fence.i", "fence.i"},
		{"x", "x"},
	}

	for _, test := range tests {
		result, err := Parse(test.input)
		be.Err(t, err, nil)

		be.Equal(t, result.Type, NodeSymbol)
		be.Equal(t, result.Text, test.expected)
		be.Equal(t, result.String(), test.expected)
	}
}

func TestParseString(t *testing.T) {
	tests := []struct {
		input    string
		expected string
		output   string
	}{
		{`"hello"`, "hello", `"hello"`},
		{`"hello world"`, "hello world", `"hello world"`},
		{`""`, "", `""`},
		{`"test\"quote"`, `test"quote`, `"test\"quote"`},
		{`"test\\backslash"`, `test\backslash`, `"test\\backslash"`},
	}

	for _, test := range tests {
		result, err := Parse(test.input)
		be.Err(t, err, nil)

		be.Equal(t, result.Type, NodeString)
		be.Equal(t, result.Text, test.expected)
		be.Equal(t, result.String(), test.output)
	}
}

func TestParseInteger(t *testing.T) {
	tests := []struct {
		input    string
		expected int64
	}{
		{"42", 42},
		{"0", 0},
		{"-123", -123},
		{"+456", 456},
		{"0x6f", 0x6f},
		{"0b1010", 10},
		{"0o17", 15},
		{"1_000", 1000},
		{"18446744073709551615", -1},
	}

	for _, test := range tests {
		result, err := Parse(test.input)
		be.Err(t, err, nil)

		be.Equal(t, result.Type, NodeInteger)
		// Integer value is stored as text, parse if needed
		be.Equal(t, result.Text, test.input)
		be.Equal(t, result.String(), test.input)

		val, err := result.Int()
		be.Err(t, err, nil)
		be.Equal(t, val, test.expected)
	}
}

func TestParseInvalidInteger(t *testing.T) {
	result, err := Parse("12abc")
	be.Err(t, err, nil)
	be.Equal(t, result.Type, NodeInteger)

	_, err = result.Int()
	be.Err(t, err, "invalid integer 12abc")

	_, err = NewSymbol("x").Int()
	be.Err(t, err, "expected integer")
}

func TestParseEllipsis(t *testing.T) {
	result, err := Parse("...")
	be.Err(t, err, nil)

	be.Equal(t, result.Type, NodeEllipsis)
	be.Equal(t, result.String(), "...")
}

func TestParseList(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"()", "()"},
		{"(hello)", "(hello)"},
		{"(1 2 3)", "(1 2 3)"},
		{"(binary \"+\" 1 2)", "(binary \"+\" 1 2)"},
		{"(nested (list here))", "(nested (list here))"},
	}

	for _, test := range tests {
		result, err := Parse(test.input)
		be.Err(t, err, nil)

		be.Equal(t, result.Type, NodeList)
		be.Equal(t, result.String(), test.expected)
	}
}

func TestParseAll(t *testing.T) {
	nodes, err := ParseAll("(const ILEN 32)\n(const IALIGN 32)\n\n; trailing comment\n")
	be.Err(t, err, nil)
	be.Equal(t, len(nodes), 2)
	be.Equal(t, nodes[0].String(), "(const ILEN 32)")
	be.Equal(t, nodes[1].String(), "(const IALIGN 32)")

	nodes, err = ParseAll("")
	be.Err(t, err, nil)
	be.Equal(t, len(nodes), 0)
}

func TestNodeLines(t *testing.T) {
	nodes, err := ParseAll("(a)\n\n(b\n  (c))")
	be.Err(t, err, nil)
	be.Equal(t, nodes[0].Line, 1)
	be.Equal(t, nodes[1].Line, 3)
	be.Equal(t, nodes[1].Items[1].Line, 4)
}

func TestHead(t *testing.T) {
	node, err := Parse("(insn addi I)")
	be.Err(t, err, nil)
	be.Equal(t, node.Head(), "insn")

	node, err = Parse("()")
	be.Err(t, err, nil)
	be.Equal(t, node.Head(), "")

	node, err = Parse(`("insn")`)
	be.Err(t, err, nil)
	be.Equal(t, node.Head(), "")

	be.Equal(t, NewSymbol("insn").Head(), "")
}

func TestRoundTripParsing(t *testing.T) {
	tests := []string{
		`(program (label "main") (instruction "addi" (register "x1" 1) (register "x0" 0) (integer 5)))`,
		`(binary "+" (ident "x") (integer 1))`,
		`(a ... b)`,
	}

	for _, test := range tests {
		result, err := Parse(test)
		be.Err(t, err, nil)
		be.Equal(t, result.String(), test)
	}
}

func TestParseComments(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"; comment\nhello", "hello"},
		{"hello ; trailing comment", "hello"},
		{"; AST for expression\n(binary \"+\" 1 2)", "(binary \"+\" 1 2)"},
		{"(test ; inline comment\n world)", "(test world)"},
	}

	for _, test := range tests {
		result, err := Parse(test.input)
		be.Err(t, err, nil)
		be.Equal(t, result.String(), test.expected)
	}
}

func TestLexerErrors(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{`"unterminated string`, "line 1: unterminated string"},
		{`"invalid \escape"`, "line 1: invalid escape sequence: \\e"},
		{".", "line 1: unexpected character '.'"},
		{"\n\n@", "line 3: unexpected character '@'"},
		{"$", "line 1: unexpected character '$'"},
		{"(1 2 3 . 4)", "line 1: unexpected character '.'"},
		{"[1 2]", "line 1: unexpected character '['"},
		{"{name: rd}", "line 1: unexpected character '{'"},
	}

	for _, test := range tests {
		result, err := Parse(test.input)
		be.Err(t, err, test.expected)
		be.True(t, result == nil)
	}
}

func TestParserErrors(t *testing.T) {
	tests := []string{
		"(",           // unclosed list
		"(hello",      // unclosed list with content
		"hello world", // extra tokens after main expression
		"42 extra",    // extra tokens after integer
		")",           // stray closing paren
		"",            // nothing at all
	}

	for _, test := range tests {
		_, err := Parse(test)
		be.True(t, err != nil)
	}
}

func TestNodeTypeHelpers(t *testing.T) {
	be.True(t, NewSymbol("test").IsAtom())
	be.True(t, NewString("hello").IsAtom())
	be.True(t, NewInteger("42").IsAtom())
	be.True(t, NewEllipsis().IsAtom())

	be.True(t, !NewList(nil).IsAtom())

	be.Equal(t, NodeList.String(), "list")
	be.Equal(t, NodeType(99).String(), "UNKNOWN_NODE_TYPE_99")
}
