package main

import (
	"sort"
	"strings"
)

// SymbolKind distinguishes label addresses from named constants. Both share
// one namespace.
type SymbolKind string

const (
	SymbolLabel    SymbolKind = "label"
	SymbolConstant SymbolKind = "constant"
)

// Symbol is one resolved entry of the symbol table.
type Symbol struct {
	Name  string
	Scope string // enclosing global label; set only for local names
	Kind  SymbolKind
	Value uint64
	Pos   Pos
}

// QualifiedName is Name prefixed by its scope for local symbols.
func (s Symbol) QualifiedName() string {
	return s.Scope + s.Name
}

type symbolKey struct {
	scope string
	name  string
}

// SymbolTable maps label and constant names to values. Local names (leading
// '.') are keyed by the most recently declared global label.
type SymbolTable struct {
	symbols map[symbolKey]*Symbol
	scope   string
}

func NewSymbolTable() *SymbolTable {
	return &SymbolTable{symbols: make(map[symbolKey]*Symbol)}
}

func isLocalName(name string) bool {
	return strings.HasPrefix(name, ".")
}

func (st *SymbolTable) key(name, scope string) symbolKey {
	if isLocalName(name) {
		return symbolKey{scope: scope, name: name}
	}
	return symbolKey{name: name}
}

// Declare adds name to the active scope. Declaring a global label makes it
// the enclosing scope for the local names that follow.
func (st *SymbolTable) Declare(name string, value uint64, kind SymbolKind, pos Pos) error {
	k := st.key(name, st.scope)
	if prev, exists := st.symbols[k]; exists {
		return newError(ErrDuplicateSymbol, pos, name, "previously defined as a %s at %s", prev.Kind, prev.Pos)
	}
	sym := &Symbol{Name: name, Scope: k.scope, Kind: kind, Value: value, Pos: pos}
	st.symbols[k] = sym
	if kind == SymbolLabel && !isLocalName(name) {
		st.scope = name
	}
	return nil
}

// Resolve looks name up as seen from the given enclosing scope.
func (st *SymbolTable) Resolve(name, scope string) (uint64, error) {
	sym, ok := st.symbols[st.key(name, scope)]
	if !ok {
		if isLocalName(name) && scope != "" {
			return 0, newError(ErrUndefinedSymbol, Pos{}, name, "no local symbol of that name under '%s'", scope)
		}
		return 0, newError(ErrUndefinedSymbol, Pos{}, name, "")
	}
	return sym.Value, nil
}

// Lookup resolves name against the active scope.
func (st *SymbolTable) Lookup(name string) (uint64, error) {
	return st.Resolve(name, st.scope)
}

// EnterScope makes label the enclosing scope without declaring it. Pass 2
// uses this to replay the scope changes of pass 1.
func (st *SymbolTable) EnterScope(label string) {
	if !isLocalName(label) {
		st.scope = label
	}
}

// ResetScope returns to the state before any global label.
func (st *SymbolTable) ResetScope() {
	st.scope = ""
}

func (st *SymbolTable) Scope() string {
	return st.scope
}

// Symbols returns every entry ordered by value, then by qualified name.
func (st *SymbolTable) Symbols() []Symbol {
	result := make([]Symbol, 0, len(st.symbols))
	for _, sym := range st.symbols {
		result = append(result, *sym)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Value != result[j].Value {
			return result[i].Value < result[j].Value
		}
		return result[i].QualifiedName() < result[j].QualifiedName()
	})
	return result
}
