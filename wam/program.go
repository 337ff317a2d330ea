package wam

import (
	"fmt"
	"strings"

	"github.com/brunokim/reason/errors"
	"github.com/brunokim/reason/logic"
)

// Program is a frozen list of instructions, ready to be executed.
type Program struct {
	// Code is the flat instruction array.
	Code []Instruction
	// Literals maps literal ids in instructions to their values.
	Literals []logic.Literal
	// NumRegisters is the size of the register file needed to run the code.
	NumRegisters int

	// entries maps literal ids of predicate keys to their first instruction, or -1.
	entries []int
	// predicates lists the literal ids with entries, in definition order.
	predicates []int
}

// Entry returns the address of the first clause for key.
func (p *Program) Entry(key logic.Literal) (int, bool) {
	for _, id := range p.predicates {
		if logic.Eq(p.Literals[id], key) {
			return p.entries[id], true
		}
	}
	return 0, false
}

func (p *Program) entry(literalID int) (int, bool) {
	addr := p.entries[literalID]
	return addr, addr >= 0
}

// Format returns the text of an instruction with its literal.
func (p *Program) Format(ins Instruction) string {
	switch ins.Op {
	case PutStructure, GetStructure, Call:
		return ins.format(p.Literals[ins.Literal].String())
	}
	return ins.String()
}

// Listing returns the text of the program, with one instruction per line preceded
// by its address. Predicate entries are preceded by their key.
func (p *Program) Listing() string {
	labels := make(map[int]logic.Literal)
	for _, id := range p.predicates {
		labels[p.entries[id]] = p.Literals[id]
	}
	var b strings.Builder
	for addr, ins := range p.Code {
		if key, ok := labels[addr]; ok {
			fmt.Fprintf(&b, "%% %v\n", key)
		}
		fmt.Fprintf(&b, "%4d  %s\n", addr, p.Format(ins))
	}
	return b.String()
}

// ---- Builder

// Label is a symbolic address, that may be referenced before being defined.
type Label int

// Builder writes a Program incrementally. References to labels that are not yet
// defined are recorded and patched once the label is defined.
type Builder struct {
	code       []Instruction
	literals   []logic.Literal
	literalIDs map[string]int
	labels     []int
	patches    map[Label][]int
	entries    map[int]int
	predicates []int
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{
		literalIDs: make(map[string]int),
		patches:    make(map[Label][]int),
		entries:    make(map[int]int),
	}
}

// Len returns the address of the next instruction.
func (b *Builder) Len() int {
	return len(b.code)
}

// Literal interns lit, returning its id.
func (b *Builder) Literal(lit logic.Literal) int {
	key := logic.Key(lit)
	if id, ok := b.literalIDs[key]; ok {
		return id
	}
	id := len(b.literals)
	b.literals = append(b.literals, lit)
	b.literalIDs[key] = id
	return id
}

// Write appends an instruction without literal, returning its address.
func (b *Builder) Write(op Opcode, arg1, arg2 int) int {
	b.code = append(b.code, Instruction{Op: op, Arg1: arg1, Arg2: arg2})
	return len(b.code) - 1
}

// WriteLiteral appends an instruction referencing lit, returning its address.
func (b *Builder) WriteLiteral(op Opcode, lit logic.Literal, arg1, arg2 int) int {
	b.code = append(b.code, Instruction{Op: op, Literal: b.Literal(lit), Arg1: arg1, Arg2: arg2})
	return len(b.code) - 1
}

// NewLabel creates an undefined label.
func (b *Builder) NewLabel() Label {
	b.labels = append(b.labels, -1)
	return Label(len(b.labels) - 1)
}

// WriteLabel appends an instruction whose Arg1 is the address of label, relative to
// the instruction itself.
func (b *Builder) WriteLabel(op Opcode, label Label, arg2 int) int {
	addr := len(b.code)
	if target := b.labels[label]; target >= 0 {
		return b.Write(op, target-addr, arg2)
	}
	b.patches[label] = append(b.patches[label], addr)
	return b.Write(op, 0, arg2)
}

// DefineLabel sets the label address to the next instruction, and patches every
// instruction that referenced it.
//
// It panics if the label was already defined.
func (b *Builder) DefineLabel(label Label) {
	if b.labels[label] >= 0 {
		panic(fmt.Sprintf("wam.Builder: label %d defined twice", label))
	}
	addr := len(b.code)
	b.labels[label] = addr
	for _, ref := range b.patches[label] {
		b.code[ref].Arg1 = addr - ref
	}
	delete(b.patches, label)
}

// SetEntry marks the next instruction as the entry of the predicate identified by key.
func (b *Builder) SetEntry(key logic.Literal) error {
	id := b.Literal(key)
	if _, ok := b.entries[id]; ok {
		return errors.New("predicate %v defined twice", key)
	}
	b.entries[id] = len(b.code)
	b.predicates = append(b.predicates, id)
	return nil
}

// Finish freezes the program, discarding label and literal tables.
func (b *Builder) Finish() (*Program, error) {
	for label, refs := range b.patches {
		if len(refs) > 0 {
			return nil, errors.New("label %d referenced at %d: %w", label, refs[0], ErrUndefinedLabel)
		}
	}
	p := &Program{
		Code:         b.code,
		Literals:     b.literals,
		NumRegisters: numRegisters(b.code),
		entries:      make([]int, len(b.literals)),
		predicates:   b.predicates,
	}
	for i := range p.entries {
		p.entries[i] = -1
	}
	for id, addr := range b.entries {
		p.entries[id] = addr
	}
	*b = Builder{}
	return p, nil
}

func numRegisters(code []Instruction) int {
	var n int
	need := func(reg int) {
		n = max(n, reg+1)
	}
	for _, ins := range code {
		switch ins.Op {
		case PutStructure, GetStructure, SetVariable, SetValue, UnifyVariable, UnifyValue:
			need(ins.Arg1)
		case PutVariable, PutValue, GetVariable, GetValue:
			need(ins.Arg1)
			need(ins.Arg2)
		case Allocate:
			need(ins.Arg1 + ins.Arg2 - 1)
		case Call:
			need(ins.Arg1 - 1)
		}
	}
	return n
}
