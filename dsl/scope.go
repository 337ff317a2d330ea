// Package dsl provides a compact way to write literals and clauses by name.
//
// Literals have identity, so a Scope remembers which atom or functor was created for
// each name. Variables are scoped per clause: call NewClause between clauses so that
// X in one clause is distinct from X in the next.
package dsl

import (
	"github.com/brunokim/reason/logic"
)

type indicator struct {
	name  string
	arity int
}

// Scope maps names to literals created by an arena.
type Scope struct {
	arena    *logic.Arena
	atoms    map[string]logic.Atom
	functors map[indicator]logic.Functor
	vars     map[string]logic.Variable
}

// NewScope returns a scope creating literals in arena.
func NewScope(arena *logic.Arena) *Scope {
	return &Scope{
		arena:    arena,
		atoms:    make(map[string]logic.Atom),
		functors: make(map[indicator]logic.Functor),
		vars:     make(map[string]logic.Variable),
	}
}

// Arena returns the scope's arena.
func (s *Scope) Arena() *logic.Arena {
	return s.arena
}

// Atom returns the atom named name.
func (s *Scope) Atom(name string) logic.Atom {
	if a, ok := s.atoms[name]; ok {
		return a
	}
	a := s.arena.NewAtom(name)
	s.atoms[name] = a
	return a
}

// Var returns the variable named name in the current clause. Each "_" is a new
// variable.
func (s *Scope) Var(name string) logic.Variable {
	if name == "_" {
		return s.arena.NewVariable(name)
	}
	if x, ok := s.vars[name]; ok {
		return x
	}
	x := s.arena.NewVariable(name)
	s.vars[name] = x
	return x
}

// Vars returns the named variables of the current clause.
func (s *Scope) Vars() map[string]logic.Variable {
	return s.vars
}

// Functor returns the functor name/arity. Functors with the same name share the
// name atom.
func (s *Scope) Functor(name string, arity int) logic.Functor {
	ind := indicator{name, arity}
	if f, ok := s.functors[ind]; ok {
		return f
	}
	f := logic.NamedFunctor(s.Atom(name), arity)
	s.functors[ind] = f
	return f
}

// Comp returns name(args...), or the atom name if there are no args.
func (s *Scope) Comp(name string, args ...logic.Literal) logic.Literal {
	if len(args) == 0 {
		return s.Atom(name)
	}
	return s.Functor(name, len(args)).Of(args...)
}

// Clause returns a clause. A nil head creates a denial.
func (s *Scope) Clause(head logic.Literal, body ...logic.Literal) *logic.Clause {
	if head == nil {
		return logic.Denial(body...)
	}
	return logic.Rule(head, body...)
}

// NewClause starts a new variable scope.
func (s *Scope) NewClause() {
	s.vars = make(map[string]logic.Variable)
}

// Literals is a helper to build a slice of literals.
func Literals(ls ...logic.Literal) []logic.Literal {
	return ls
}

// Clauses is a helper to build a slice of clauses.
func Clauses(cs ...*logic.Clause) []*logic.Clause {
	return cs
}
