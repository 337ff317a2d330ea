package wam

import (
	"github.com/brunokim/reason/logic"
)

// bind makes the unbound cell ref point to value, trailing it if the binding must be
// undone on backtrack.
func (m *Machine) bind(ref, value Ref) {
	m.Heap.bind(ref, value)
	if m.shouldTrail(ref) {
		m.Trail = append(m.Trail, ref)
	}
}

// shouldTrail returns whether ref is older than the latest choice point. Younger cells
// are discarded on backtrack anyway.
func (m *Machine) shouldTrail(ref Ref) bool {
	if m.ChoicePoint != nil {
		return int(ref) < m.ChoicePoint.HeapSize
	}
	return int(ref) < m.baseHeap
}

func (m *Machine) unwindTrail(size int) {
	for _, ref := range m.Trail[size:] {
		m.Heap.unbind(ref)
	}
	clear(m.Trail[size:])
	m.Trail = m.Trail[:size]
}

// unify makes the terms at x and y equal, binding unbound cells as needed. Bindings
// made before a failure are not undone here, but by backtracking.
//
// There's no occurs check, so unifying X with f(X) creates a cyclic term.
func (m *Machine) unify(x, y Ref) bool {
	stack := []Ref{x, y}
	for len(stack) > 0 {
		n := len(stack)
		a, b := m.Heap.Deref(stack[n-2]), m.Heap.Deref(stack[n-1])
		stack = stack[:n-2]
		if a == b {
			continue
		}
		tagA, tagB := m.Heap.Tag(a), m.Heap.Tag(b)
		switch {
		case tagA == Unbound && tagB == Unbound:
			// Bind the younger cell to the older one.
			if a < b {
				a, b = b, a
			}
			m.bind(a, b)
		case tagA == Unbound:
			m.bind(a, b)
		case tagB == Unbound:
			m.bind(b, a)
		default:
			argsA, argsB := m.Heap.Args(a), m.Heap.Args(b)
			if len(argsA) != len(argsB) || !logic.Eq(m.Heap.Name(a), m.Heap.Name(b)) {
				return false
			}
			for i := len(argsA) - 1; i >= 0; i-- {
				stack = append(stack, argsA[i], argsB[i])
			}
		}
	}
	return true
}
