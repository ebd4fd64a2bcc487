package main

import (
	_ "embed"
	"fmt"
	"math"
	"strings"

	"github.com/samber/lo"
	"github.com/strager/rvasm/sexy"
)

//go:embed isa/rv32i.sexy
var rv32iDefinition string

// DefinitionFile is one instruction-definition source. Name is used in error
// messages.
type DefinitionFile struct {
	Name   string
	Source string
}

// DefaultInstructionSpec returns the built-in RV32I base integer set.
func DefaultInstructionSpec() *InstructionSpec {
	spec, err := LoadInstructionSpec(DefinitionFile{Name: "rv32i.sexy", Source: rv32iDefinition})
	if err != nil {
		panic("built-in RV32I definition is invalid: " + err.Error())
	}
	return spec
}

type definitionLoader struct {
	registers map[string]uint32
	constants map[string]uint64
	formats   map[string][]Field
	insns     []*InstructionFormat
}

type definitionForm struct {
	file string
	node *sexy.Node
}

// LoadInstructionSpec parses and merges definition files. Registers,
// constants and formats are shared by every file, so an instruction may use
// a format declared in another file.
func LoadInstructionSpec(files ...DefinitionFile) (*InstructionSpec, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("no instruction definition files")
	}
	l := &definitionLoader{
		registers: make(map[string]uint32),
		constants: make(map[string]uint64),
		formats:   make(map[string][]Field),
	}

	var insnForms []definitionForm
	for _, file := range files {
		nodes, err := sexy.ParseAll(file.Source)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", file.Name, err)
		}
		for _, node := range nodes {
			var err error
			switch node.Head() {
			case "const":
				err = l.loadConst(node)
			case "registers":
				err = l.loadRegisters(node)
			case "format":
				err = l.loadFormat(node)
			case "insn":
				insnForms = append(insnForms, definitionForm{file.Name, node})
			default:
				err = fmt.Errorf("line %d: unknown definition form %s", node.Line, node)
			}
			if err != nil {
				return nil, fmt.Errorf("%s: %w", file.Name, err)
			}
		}
	}

	for _, form := range insnForms {
		if err := l.loadInsn(form.node); err != nil {
			return nil, fmt.Errorf("%s: %w", form.file, err)
		}
	}

	names := lo.Map(files, func(f DefinitionFile, _ int) string { return f.Name })
	return NewInstructionSpec(strings.Join(names, "+"), l.registers, l.constants, l.insns)
}

func expectSymbol(node *sexy.Node, what string) (string, error) {
	if node.Type != sexy.NodeSymbol {
		return "", fmt.Errorf("line %d: expected %s but got %s", node.Line, what, node)
	}
	return node.Text, nil
}

func expectUint(node *sexy.Node, what string) (uint64, error) {
	val, err := node.Int()
	if err != nil {
		return 0, fmt.Errorf("line %d: expected %s but got %s", node.Line, what, node)
	}
	if val < 0 {
		return 0, fmt.Errorf("line %d: %s must not be negative", node.Line, what)
	}
	return uint64(val), nil
}

func checkArgs(node *sexy.Node, min int) error {
	if len(node.Items)-1 < min {
		return fmt.Errorf("line %d: %s needs at least %d arguments", node.Line, node.Head(), min)
	}
	return nil
}

// (const NAME VALUE)
func (l *definitionLoader) loadConst(node *sexy.Node) error {
	if err := checkArgs(node, 2); err != nil {
		return err
	}
	name, err := expectSymbol(node.Items[1], "constant name")
	if err != nil {
		return err
	}
	val, err := node.Items[2].Int()
	if err != nil {
		return err
	}
	if _, exists := l.constants[name]; exists {
		return fmt.Errorf("line %d: constant %s defined twice", node.Line, name)
	}
	l.constants[name] = uint64(val)
	return nil
}

// (registers (NAME INDEX ALIAS...)...)
func (l *definitionLoader) loadRegisters(node *sexy.Node) error {
	for _, entry := range node.Items[1:] {
		if entry.Type != sexy.NodeList || len(entry.Items) < 2 {
			return fmt.Errorf("line %d: expected (NAME INDEX ALIAS...) but got %s", entry.Line, entry)
		}
		index, err := expectUint(entry.Items[1], "register index")
		if err != nil {
			return err
		}
		if index > math.MaxUint32 {
			return fmt.Errorf("line %d: register index %d does not fit in 32 bits", entry.Line, index)
		}
		names := append([]*sexy.Node{entry.Items[0]}, entry.Items[2:]...)
		for _, n := range names {
			name, err := expectSymbol(n, "register name")
			if err != nil {
				return err
			}
			if _, exists := l.registers[name]; exists {
				return fmt.Errorf("line %d: register %s defined twice", n.Line, name)
			}
			l.registers[name] = uint32(index)
		}
	}
	return nil
}

// (format NAME FIELD...)
func (l *definitionLoader) loadFormat(node *sexy.Node) error {
	if err := checkArgs(node, 2); err != nil {
		return err
	}
	name, err := expectSymbol(node.Items[1], "format name")
	if err != nil {
		return err
	}
	if _, exists := l.formats[name]; exists {
		return fmt.Errorf("line %d: format %s defined twice", node.Line, name)
	}
	var fields []Field
	for _, fieldNode := range node.Items[2:] {
		field, err := parseFieldDefinition(fieldNode)
		if err != nil {
			return fmt.Errorf("format %s: %w", name, err)
		}
		fields = append(fields, field)
	}
	l.formats[name] = fields
	return nil
}

// parseFieldDefinition reads one of
//
//	(fixed NAME POS WIDTH)
//	(reg NAME POS WIDTH)
//	(imm NAME WIDTH signed|unsigned [strict|wrap] POS|(bits VLO LEN POS)...)
func parseFieldDefinition(node *sexy.Node) (Field, error) {
	kind := FieldKind(node.Head())
	if !lo.Contains([]FieldKind{FieldFixed, FieldRegister, FieldImmediate}, kind) {
		return Field{}, fmt.Errorf("line %d: expected fixed, reg or imm field but got %s", node.Line, node)
	}
	if err := checkArgs(node, 3); err != nil {
		return Field{}, err
	}
	name, err := expectSymbol(node.Items[1], "field name")
	if err != nil {
		return Field{}, err
	}
	field := Field{Name: name, Kind: kind, Overflow: OverflowStrict}

	if kind != FieldImmediate {
		pos, err := expectUint(node.Items[2], "field position")
		if err != nil {
			return Field{}, err
		}
		width, err := expectUint(node.Items[3], "field width")
		if err != nil {
			return Field{}, err
		}
		field.Width = uint(width)
		field.Slices = []Slice{{ValueLo: 0, Len: uint(width), WordLo: uint(pos)}}
		return field, nil
	}

	width, err := expectUint(node.Items[2], "immediate width")
	if err != nil {
		return Field{}, err
	}
	field.Width = uint(width)
	rest := node.Items[3:]
	switch rest[0].Text {
	case "signed":
		field.Signed = true
	case "unsigned":
	default:
		return Field{}, fmt.Errorf("line %d: expected signed or unsigned but got %s", rest[0].Line, rest[0])
	}
	rest = rest[1:]
	if len(rest) > 0 && rest[0].Type == sexy.NodeSymbol {
		switch policy := OverflowPolicy(rest[0].Text); policy {
		case OverflowStrict, OverflowWrap:
			field.Overflow = policy
			rest = rest[1:]
		default:
			return Field{}, fmt.Errorf("line %d: unknown overflow policy %s", rest[0].Line, rest[0])
		}
	}
	if len(rest) == 0 {
		return Field{}, fmt.Errorf("line %d: immediate %s has no position", node.Line, name)
	}
	for _, placement := range rest {
		if placement.Type == sexy.NodeInteger {
			pos, err := expectUint(placement, "immediate position")
			if err != nil {
				return Field{}, err
			}
			field.Slices = append(field.Slices, Slice{ValueLo: 0, Len: field.Width, WordLo: uint(pos)})
			continue
		}
		if placement.Head() != "bits" || len(placement.Items) != 4 {
			return Field{}, fmt.Errorf("line %d: expected (bits VLO LEN POS) but got %s", placement.Line, placement)
		}
		var parts [3]uint64
		for i, what := range []string{"value bit", "slice length", "slice position"} {
			if parts[i], err = expectUint(placement.Items[i+1], what); err != nil {
				return Field{}, err
			}
		}
		field.Slices = append(field.Slices, Slice{ValueLo: uint(parts[0]), Len: uint(parts[1]), WordLo: uint(parts[2])})
	}
	return field, nil
}

// (insn MNEMONIC FORMAT (FIELD VALUE)... [ARGFIELD...])
func (l *definitionLoader) loadInsn(node *sexy.Node) error {
	if err := checkArgs(node, 2); err != nil {
		return err
	}
	mnemonic, err := expectSymbol(node.Items[1], "mnemonic")
	if err != nil {
		return err
	}
	formatName, err := expectSymbol(node.Items[2], "format name")
	if err != nil {
		return err
	}
	fields, ok := l.formats[formatName]
	if !ok {
		return fmt.Errorf("line %d: %s uses unknown format %s", node.Line, mnemonic, formatName)
	}

	insn := &InstructionFormat{
		Mnemonic:   mnemonic,
		FormatName: formatName,
		Fields:     fields,
		Fixed:      make(map[string]uint64),
	}
	for _, item := range node.Items[3:] {
		switch item.Type {
		case sexy.NodeList:
			if len(item.Items) != 2 {
				return fmt.Errorf("line %d: expected (FIELD VALUE) but got %s", item.Line, item)
			}
			field, err := expectSymbol(item.Items[0], "field name")
			if err != nil {
				return err
			}
			val, err := item.Items[1].Int()
			if err != nil {
				return err
			}
			if _, dup := insn.Fixed[field]; dup {
				return fmt.Errorf("line %d: %s sets field %s twice", item.Line, mnemonic, field)
			}
			insn.Fixed[field] = uint64(val)
		case sexy.NodeSymbol:
			idx := insn.fieldIndex(item.Text)
			if idx < 0 {
				return fmt.Errorf("line %d: format %s has no field %s", item.Line, formatName, item.Text)
			}
			insn.Args = append(insn.Args, idx)
		default:
			return fmt.Errorf("line %d: unexpected %s in insn %s", item.Line, item, mnemonic)
		}
	}
	l.insns = append(l.insns, insn)
	return nil
}
