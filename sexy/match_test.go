package sexy

import (
	"testing"

	"github.com/nalgeon/be"
)

func mustParse(t *testing.T, input string) *Node {
	t.Helper()
	node, err := Parse(input)
	be.Err(t, err, nil)
	return node
}

func TestMatch(t *testing.T) {
	tests := []struct {
		pattern string
		actual  string
	}{
		{`(integer 5)`, `(integer 5)`},
		{`(integer -1)`, `(integer 18446744073709551615)`},
		{`(integer 0x10)`, `(integer 16)`},
		{`(instruction "addi" ...)`, `(instruction "addi" (register "x1" 1) (integer 5))`},
		{`(instruction "nop" ...)`, `(instruction "nop")`},
		{`(binary ... (integer 2) (integer 3))`, `(binary "*" (integer 2) (integer 3))`},
		{`...`, `(anything at all)`},
	}

	for _, test := range tests {
		err := Match(mustParse(t, test.pattern), mustParse(t, test.actual))
		be.Err(t, err, nil)
	}
}

func TestMatchMismatch(t *testing.T) {
	tests := []struct {
		pattern  string
		actual   string
		expected string
	}{
		{`(integer 5)`, `(integer 6)`, "at root[1]: expected 5, got 6"},
		{`(label "a")`, `(label "b")`, `at root[1]: expected "a", got "b"`},
		{`(label "a")`, `(ident "a")`, `at root[0]: expected label, got ident`},
		{`(program (label "a"))`, `(program)`, "at root: expected (label \"a\") at index 1, got end of list"},
		{`(program)`, `(program (label "a"))`, "at root: unexpected extra item (label \"a\")"},
		{`(integer 5)`, `integer`, "at root: expected list, got integer"},
		{`5`, `"5"`, `at root: expected integer 5, got "5"`},
	}

	for _, test := range tests {
		err := Match(mustParse(t, test.pattern), mustParse(t, test.actual))
		be.Err(t, err, test.expected)
	}
}
