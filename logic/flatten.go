package logic

import (
	"fmt"
)

// AssignmentKind distinguishes how the value of an assignment is produced.
type AssignmentKind int

const (
	// TermAssignment assigns a term whose arguments are fresh variables, X = f(Y, Z).
	TermAssignment AssignmentKind = iota
	// VariableAssignment assigns a variable from the original literal, X = Y.
	VariableAssignment
	// ArgumentAssignment assigns a call argument that is a bare variable.
	ArgumentAssignment
)

func (k AssignmentKind) String() string {
	switch k {
	case TermAssignment:
		return "term"
	case VariableAssignment:
		return "variable"
	case ArgumentAssignment:
		return "argument"
	}
	return fmt.Sprintf("AssignmentKind(%d)", int(k))
}

// Assignment is a pair Target = Value produced by flattening a literal.
type Assignment struct {
	Kind   AssignmentKind
	Target Variable
	Value  Literal
}

// Dependencies returns the fresh variables standing for the value's subterms.
func (a Assignment) Dependencies() []Literal {
	if a.Kind != TermAssignment {
		return nil
	}
	return a.Value.Dependencies()
}

func (a Assignment) String() string {
	if a.Kind == ArgumentAssignment {
		return fmt.Sprintf("arg %v = %v", a.Target, a.Value)
	}
	return fmt.Sprintf("%v = %v", a.Target, a.Value)
}

func (a Assignment) remap(m map[Variable]Variable) Assignment {
	if x, ok := a.Value.(Variable); ok {
		if y, ok := m[x]; ok {
			a.Value = y
		}
		return a
	}
	deps := a.Value.Dependencies()
	if len(deps) == 0 {
		return a
	}
	var changed bool
	args := make([]Literal, len(deps))
	for i, dep := range deps {
		args[i] = dep
		if x, ok := dep.(Variable); ok {
			if y, ok := m[x]; ok {
				args[i] = y
				changed = true
			}
		}
	}
	if changed {
		a.Value = a.Value.Rebuild(args)
	}
	return a
}

// ---- Flatten

// Flatten decomposes l into a list of assignments. The first one assigns l itself
// with fresh variables in place of its arguments, followed by the assignments of each
// argument. Equal subterms are flattened once.
//
// For example, p(Z, h(Z, W), f(W)) is flattened into
//
//	X1 = p(X2, X3, X4)
//	X2 = Z
//	X3 = h(X2, X5)
//	X5 = W
//	X4 = f(X5)
func Flatten(a *Arena, l Literal) []Assignment {
	if l.IndexKey() == nil {
		return []Assignment{{Kind: VariableAssignment, Target: a.NewVariable(""), Value: l}}
	}
	deps := l.Dependencies()
	if len(deps) == 0 {
		return []Assignment{{Kind: TermAssignment, Target: a.NewVariable(""), Value: l}}
	}
	args := make([]Literal, len(deps))
	var rest []Assignment
	for i, dep := range deps {
		sub := Flatten(a, dep)
		args[i] = sub[0].Target
		rest = append(rest, sub...)
	}
	root := Assignment{Kind: TermAssignment, Target: a.NewVariable(""), Value: l.Rebuild(args)}
	return Eliminate(append([]Assignment{root}, rest...))
}

// Eliminate removes assignments whose value is equal to a previous one, replacing
// references to their targets by the target of the first occurrence. This is repeated
// until there are no duplicates, since remapping may expose new ones.
func Eliminate(as []Assignment) []Assignment {
	return eliminate(as, 0)
}

// eliminate keeps the first pinned assignments in place, only remapping them.
func eliminate(as []Assignment, pinned int) []Assignment {
	for {
		canonical := make(map[string]Variable)
		remap := make(map[Variable]Variable)
		for _, a := range as[pinned:] {
			key := Key(a.Value)
			if x, ok := canonical[key]; ok {
				remap[a.Target] = x
				continue
			}
			canonical[key] = a.Target
		}
		if len(remap) == 0 {
			return as
		}
		out := make([]Assignment, 0, len(as)-len(remap))
		for i, a := range as {
			if _, ok := remap[a.Target]; ok && i >= pinned {
				continue
			}
			out = append(out, a.remap(remap))
		}
		as = out
	}
}

// ---- Goals

// Goal is the flattened form of a predicate call or clause head. The first
// NumArguments assignments target the argument registers, in order.
type Goal struct {
	Assignments  []Assignment
	NumArguments int
}

// Arguments returns the assignments for each argument.
func (g Goal) Arguments() []Assignment {
	return g.Assignments[:g.NumArguments]
}

// FlattenGoal flattens the arguments of a predicate literal. An argument that is a
// bare variable is passed through an ArgumentAssignment, so that every argument has
// its own target.
func FlattenGoal(a *Arena, l Literal) Goal {
	deps := l.Dependencies()
	args := make([]Assignment, len(deps))
	var rest []Assignment
	for i, dep := range deps {
		sub := Flatten(a, dep)
		root := sub[0]
		if root.Kind == VariableAssignment {
			args[i] = Assignment{Kind: ArgumentAssignment, Target: a.NewVariable(""), Value: root.Target}
			rest = append(rest, sub...)
		} else {
			args[i] = root
			rest = append(rest, sub[1:]...)
		}
	}
	return Goal{
		Assignments:  eliminate(append(args, rest...), len(args)),
		NumArguments: len(args),
	}
}
