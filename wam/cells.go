package wam

import (
	"fmt"

	"github.com/brunokim/reason/logic"
)

// Ref is the handle of a cell in the heap. The zero Ref is never a valid cell.
type Ref int

// CellTag is the kind of a cell.
type CellTag uint8

const (
	// Unbound cells represent free variables.
	Unbound CellTag = iota
	// BoundTo cells alias another cell.
	BoundTo
	// Structure cells hold a name and a list of argument cells.
	Structure
)

type cell struct {
	tag  CellTag
	ref  Ref
	name logic.Literal
	args []Ref
}

// Heap is an arena of cells. Following references from any cell always ends in an
// unbound or structure cell.
type Heap struct {
	cells []cell
}

func (h *Heap) init() {
	if len(h.cells) == 0 {
		h.cells = append(h.cells, cell{})
	}
}

// Len returns the number of allocated cells, which is also the next handle.
func (h *Heap) Len() int {
	h.init()
	return len(h.cells)
}

// NewVariable allocates an unbound cell.
func (h *Heap) NewVariable() Ref {
	h.init()
	h.cells = append(h.cells, cell{tag: Unbound})
	return Ref(len(h.cells) - 1)
}

// NewStructure allocates a structure cell with arity empty args, that must be filled
// before being read.
func (h *Heap) NewStructure(name logic.Literal, arity int) Ref {
	h.init()
	h.cells = append(h.cells, cell{tag: Structure, name: name, args: make([]Ref, arity)})
	return Ref(len(h.cells) - 1)
}

// Tag returns the kind of cell at ref.
func (h *Heap) Tag(ref Ref) CellTag {
	return h.cells[ref].tag
}

// Name returns the name of a structure cell.
func (h *Heap) Name(ref Ref) logic.Literal {
	return h.cells[ref].name
}

// Args returns the args of a structure cell.
func (h *Heap) Args(ref Ref) []Ref {
	return h.cells[ref].args
}

// Deref walks the reference chain until it finds a structure or an unbound cell.
func (h *Heap) Deref(ref Ref) Ref {
	for h.cells[ref].tag == BoundTo {
		ref = h.cells[ref].ref
	}
	return ref
}

func (h *Heap) bind(ref, value Ref) {
	if h.cells[ref].tag != Unbound {
		panic(fmt.Sprintf("wam.Heap.bind(%d, %d): cell is not unbound", ref, value))
	}
	h.cells[ref] = cell{tag: BoundTo, ref: value}
}

func (h *Heap) unbind(ref Ref) {
	h.cells[ref] = cell{tag: Unbound}
}

// truncate discards every cell allocated after the heap had n cells.
func (h *Heap) truncate(n int) {
	for i := n; i < len(h.cells); i++ {
		h.cells[i] = cell{}
	}
	h.cells = h.cells[:n]
}
