package wam

import (
	"fmt"

	"github.com/brunokim/reason/logic"
)

func structName(name logic.Literal) string {
	if f, ok := name.(logic.Functor); ok {
		return f.Name.String()
	}
	return name.String()
}

// Build writes lit into the heap, returning its cell. Variables are looked up in
// vars, and new cells are added to it for variables seen for the first time.
func (m *Machine) Build(lit logic.Literal, vars map[logic.Variable]Ref) Ref {
	switch t := lit.(type) {
	case logic.Variable:
		if ref, ok := vars[t]; ok {
			return ref
		}
		ref := m.Heap.NewVariable()
		vars[t] = ref
		return ref
	case *logic.Term:
		args := make([]Ref, len(t.Args))
		for i, arg := range t.Args {
			args[i] = m.Build(arg, vars)
		}
		ref := m.Heap.NewStructure(t.Functor, len(args))
		copy(m.Heap.Args(ref), args)
		return ref
	case logic.Atom, logic.Functor, logic.Truth:
		return m.Heap.NewStructure(t, 0)
	default:
		panic(fmt.Sprintf("wam.Machine.Build: unhandled type %T (%v)", lit, lit))
	}
}

// NewVariable allocates an unbound cell, to be passed as argument to Call.
func (m *Machine) NewVariable() Ref {
	return m.Heap.NewVariable()
}

// Resolve reads the term at ref. Unbound cells are read as the variables in names,
// or as new variables from arena, which are then added to names. names may be nil.
func (m *Machine) Resolve(ref Ref, names map[Ref]logic.Variable, arena *logic.Arena) logic.Literal {
	if names == nil {
		names = make(map[Ref]logic.Variable)
	}
	r := &resolver{h: &m.Heap, names: names, arena: arena, parents: make(map[Ref]struct{})}
	return r.resolve(ref)
}

type resolver struct {
	h       *Heap
	names   map[Ref]logic.Variable
	arena   *logic.Arena
	parents map[Ref]struct{}
}

func (r *resolver) variable(ref Ref) logic.Variable {
	if x, ok := r.names[ref]; ok {
		return x
	}
	x := r.arena.NewVariable("")
	r.names[ref] = x
	return x
}

func (r *resolver) resolve(ref Ref) logic.Literal {
	ref = r.h.Deref(ref)
	// Unbound cells may have a name before being bound, so check after deref.
	if r.h.Tag(ref) == Unbound {
		return r.variable(ref)
	}
	name, refs := r.h.Name(ref), r.h.Args(ref)
	f, ok := name.(logic.Functor)
	if !ok || f.Arity != len(refs) {
		return name
	}
	if _, ok := r.parents[ref]; ok {
		// Cyclic term.
		return r.variable(ref)
	}
	r.parents[ref] = struct{}{}
	defer delete(r.parents, ref)
	args := make([]logic.Literal, len(refs))
	for i, arg := range refs {
		args[i] = r.resolve(arg)
	}
	return f.Of(args...)
}
