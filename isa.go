package main

import (
	"fmt"
	"sort"

	"github.com/samber/lo"
)

// FieldKind says where a variable field takes its value from.
type FieldKind string

const (
	FieldFixed     FieldKind = "fixed"
	FieldRegister  FieldKind = "reg"
	FieldImmediate FieldKind = "imm"
)

// OverflowPolicy says what happens to an immediate wider than its field.
type OverflowPolicy string

const (
	OverflowStrict OverflowPolicy = "strict" // reject
	OverflowWrap   OverflowPolicy = "wrap"   // keep the low-order bits
)

// Slice places Len bits of a field value, starting at value bit ValueLo,
// into the instruction word starting at word bit WordLo.
type Slice struct {
	ValueLo uint
	Len     uint
	WordLo  uint
}

// Field is one bit range of an instruction word.
type Field struct {
	Name     string
	Kind     FieldKind
	Width    uint // significant bits of the value
	Signed   bool
	Overflow OverflowPolicy
	Slices   []Slice
}

func (f *Field) mask() uint32 {
	var m uint32
	for _, s := range f.Slices {
		m |= uint32((uint64(1)<<s.Len)-1) << s.WordLo
	}
	return m
}

// InstructionFormat binds one mnemonic at one arity to a word template.
type InstructionFormat struct {
	Mnemonic   string
	FormatName string
	Fields     []Field
	Fixed      map[string]uint64 // field name -> constant value
	Args       []int             // argument i is encoded into Fields[Args[i]]
}

// Arity is the number of arguments the binding accepts.
func (f *InstructionFormat) Arity() int {
	return len(f.Args)
}

// ArgField returns the field that argument i is encoded into.
func (f *InstructionFormat) ArgField(i int) *Field {
	return &f.Fields[f.Args[i]]
}

// Encode packs argument values into a word. Register arguments are passed as
// their indices.
func (f *InstructionFormat) Encode(args []uint64) (uint32, error) {
	if len(args) != len(f.Args) {
		return 0, fmt.Errorf("expected %d arguments, got %d", len(f.Args), len(args))
	}
	var word uint32
	for i := range f.Fields {
		field := &f.Fields[i]
		if val, ok := f.Fixed[field.Name]; ok {
			bits, err := field.fit(val, OverflowStrict)
			if err != nil {
				return 0, err
			}
			word |= field.place(bits)
		}
	}
	for i, val := range args {
		field := f.ArgField(i)
		bits, err := field.fit(val, field.Overflow)
		if err != nil {
			return 0, err
		}
		word |= field.place(bits)
	}
	return word, nil
}

// FieldRangeError reports a value that does not fit its field.
type FieldRangeError struct {
	Field  string
	Value  uint64
	Width  uint
	Signed bool
}

func (e *FieldRangeError) Error() string {
	if e.Signed {
		lo := -(int64(1) << (e.Width - 1))
		hi := int64(1)<<(e.Width-1) - 1
		return fmt.Sprintf("value %d does not fit %d-bit signed field %s [%d, %d]", int64(e.Value), e.Width, e.Field, lo, hi)
	}
	return fmt.Sprintf("value %d does not fit %d-bit field %s [0, %d]", e.Value, e.Width, e.Field, uint64(1)<<e.Width-1)
}

// fit range-checks val against the field width and returns its low Width
// bits.
func (f *Field) fit(val uint64, policy OverflowPolicy) (uint64, error) {
	mask := uint64(1)<<f.Width - 1
	if f.Width >= 64 {
		mask = ^uint64(0)
	}
	if policy == OverflowStrict && f.Width < 64 {
		if f.Signed {
			v := int64(val)
			lo := -(int64(1) << (f.Width - 1))
			hi := int64(1)<<(f.Width-1) - 1
			if v < lo || v > hi {
				return 0, &FieldRangeError{Field: f.Name, Value: val, Width: f.Width, Signed: true}
			}
		} else if val > mask {
			return 0, &FieldRangeError{Field: f.Name, Value: val, Width: f.Width}
		}
	}
	return val & mask, nil
}

func (f *Field) place(bits uint64) uint32 {
	var word uint32
	for _, s := range f.Slices {
		chunk := (bits >> s.ValueLo) & (uint64(1)<<s.Len - 1)
		word |= uint32(chunk) << s.WordLo
	}
	return word
}

type formatKey struct {
	mnemonic string
	arity    int
}

// InstructionSpec is an immutable description of a target: registers,
// constants and mnemonic bindings.
type InstructionSpec struct {
	name      string
	ilen      uint
	registers map[string]uint32
	constants map[string]uint64
	formats   map[formatKey]*InstructionFormat
	mnemonics map[string][]int // arities bound per mnemonic
}

// NewInstructionSpec validates and freezes a description. ILEN must be 32.
func NewInstructionSpec(name string, registers map[string]uint32, constants map[string]uint64, formats []*InstructionFormat) (*InstructionSpec, error) {
	s := &InstructionSpec{
		name:      name,
		ilen:      32,
		registers: make(map[string]uint32, len(registers)),
		constants: make(map[string]uint64, len(constants)),
		formats:   make(map[formatKey]*InstructionFormat, len(formats)),
		mnemonics: make(map[string][]int),
	}
	for reg, index := range registers {
		s.registers[reg] = index
	}
	for c, val := range constants {
		s.constants[c] = val
	}
	if ilen, ok := s.constants["ILEN"]; ok && ilen != 32 {
		return nil, fmt.Errorf("%s: ILEN %d is not supported, only 32-bit instructions are", name, ilen)
	}
	s.constants["ILEN"] = 32
	if ialign, ok := s.constants["IALIGN"]; ok {
		if ialign != 8 && ialign != 16 && ialign != 32 {
			return nil, fmt.Errorf("%s: IALIGN %d must be 8, 16 or 32", name, ialign)
		}
	} else {
		s.constants["IALIGN"] = 32
	}

	for _, f := range formats {
		if err := validateFormat(f, s.ilen); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		key := formatKey{f.Mnemonic, f.Arity()}
		if _, exists := s.formats[key]; exists {
			return nil, fmt.Errorf("%s: instruction %s with %d arguments defined twice", name, f.Mnemonic, f.Arity())
		}
		s.formats[key] = f
		s.mnemonics[f.Mnemonic] = append(s.mnemonics[f.Mnemonic], f.Arity())
	}
	for _, arities := range s.mnemonics {
		sort.Ints(arities)
	}
	return s, nil
}

func validateFormat(f *InstructionFormat, ilen uint) error {
	var used uint32
	bound := make([]bool, len(f.Fields))
	for i := range f.Fields {
		field := &f.Fields[i]
		if field.Width == 0 || field.Width > 64 {
			return fmt.Errorf("%s: field %s has invalid width %d", f.Mnemonic, field.Name, field.Width)
		}
		for _, sl := range field.Slices {
			if sl.Len == 0 || sl.WordLo+sl.Len > ilen || sl.ValueLo+sl.Len > field.Width {
				return fmt.Errorf("%s: field %s has a slice outside its bounds", f.Mnemonic, field.Name)
			}
		}
		m := field.mask()
		if used&m != 0 {
			return fmt.Errorf("%s: field %s overlaps another field", f.Mnemonic, field.Name)
		}
		used |= m
		if _, ok := f.Fixed[field.Name]; ok {
			bound[i] = true
		}
	}
	for name, val := range f.Fixed {
		idx := f.fieldIndex(name)
		if idx < 0 {
			return fmt.Errorf("%s: no field named %s", f.Mnemonic, name)
		}
		if _, err := f.Fields[idx].fit(val, OverflowStrict); err != nil {
			return fmt.Errorf("%s: fixed %w", f.Mnemonic, err)
		}
	}
	for _, idx := range f.Args {
		if idx < 0 || idx >= len(f.Fields) {
			return fmt.Errorf("%s: argument refers to unknown field", f.Mnemonic)
		}
		field := &f.Fields[idx]
		if field.Kind == FieldFixed {
			return fmt.Errorf("%s: fixed field %s cannot take an argument", f.Mnemonic, field.Name)
		}
		if bound[idx] {
			return fmt.Errorf("%s: field %s is bound twice", f.Mnemonic, field.Name)
		}
		bound[idx] = true
	}
	for i, ok := range bound {
		if !ok {
			return fmt.Errorf("%s: field %s is neither fixed nor an argument", f.Mnemonic, f.Fields[i].Name)
		}
	}
	return nil
}

func (f *InstructionFormat) fieldIndex(name string) int {
	for i := range f.Fields {
		if f.Fields[i].Name == name {
			return i
		}
	}
	return -1
}

func (s *InstructionSpec) Name() string {
	return s.name
}

// InstructionBytes is the fixed encoded width.
func (s *InstructionSpec) InstructionBytes() uint64 {
	return uint64(s.ilen / 8)
}

// AlignBytes is the instruction alignment.
func (s *InstructionSpec) AlignBytes() uint64 {
	return s.constants["IALIGN"] / 8
}

// Lookup finds the binding of mnemonic at the given arity.
func (s *InstructionSpec) Lookup(mnemonic string, arity int) (*InstructionFormat, bool) {
	f, ok := s.formats[formatKey{mnemonic, arity}]
	return f, ok
}

// Arities lists the argument counts mnemonic is bound at, in increasing
// order. It is empty for unknown mnemonics.
func (s *InstructionSpec) Arities(mnemonic string) []int {
	return s.mnemonics[mnemonic]
}

// Mnemonics lists every bound mnemonic.
func (s *InstructionSpec) Mnemonics() []string {
	names := lo.Keys(s.mnemonics)
	sort.Strings(names)
	return names
}

// Registers lists every register name and alias, ordered by index and then
// by name.
func (s *InstructionSpec) Registers() []string {
	names := lo.Keys(s.registers)
	sort.Slice(names, func(i, j int) bool {
		a, b := s.registers[names[i]], s.registers[names[j]]
		if a != b {
			return a < b
		}
		return names[i] < names[j]
	})
	return names
}

func (s *InstructionSpec) RegisterIndex(name string) (uint32, bool) {
	index, ok := s.registers[name]
	return index, ok
}

// Constant returns a named constant of the definition, such as ILEN.
func (s *InstructionSpec) Constant(name string) (uint64, bool) {
	val, ok := s.constants[name]
	return val, ok
}
