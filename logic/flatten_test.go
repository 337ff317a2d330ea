package logic_test

import (
	"testing"

	"github.com/brunokim/reason/dsl"
	"github.com/brunokim/reason/logic"
)

func TestFlattenDeduplicates(t *testing.T) {
	s := dsl.NewScope(logic.NewArena())
	x, y, z, w := s.Var("X"), s.Var("Y"), s.Var("Z"), s.Var("W")
	a := s.Atom("a")
	tests := []struct {
		lit  logic.Literal
		want int
	}{
		{a, 1},
		{x, 1},
		{logic.True, 1},
		{s.Comp("f", a), 2},
		{s.Comp("p", x, x), 2},
		{s.Comp("p", a, a), 2},
		{s.Comp("p", z, s.Comp("h", z, w), s.Comp("f", w)), 5},
		{s.Comp("p", s.Comp("f", x), s.Comp("h", y, s.Comp("f", a)), y), 7},
		{s.Comp("p", s.Comp("f", a), s.Comp("f", a)), 3},
		{s.Comp("p", s.Comp("g", s.Comp("f", a)), s.Comp("g", s.Comp("f", a))), 4},
	}
	for _, test := range tests {
		got := logic.Flatten(s.Arena(), test.lit)
		if len(got) != test.want {
			t.Errorf("Flatten(%v): got %d assignments, want %d: %v", test.lit, len(got), test.want, got)
		}
	}
}

func TestFlattenStructure(t *testing.T) {
	s := dsl.NewScope(logic.NewArena())
	z, w := s.Var("Z"), s.Var("W")
	lit := s.Comp("p", z, s.Comp("h", z, w), s.Comp("f", w))
	as := logic.Flatten(s.Arena(), lit)
	byTarget := make(map[logic.Variable]logic.Assignment)
	for _, a := range as {
		byTarget[a.Target] = a
	}
	// Resolving the root through the assignments must rebuild the original literal.
	var resolve func(l logic.Literal) logic.Literal
	resolve = func(l logic.Literal) logic.Literal {
		x, ok := l.(logic.Variable)
		if !ok {
			return l
		}
		a, ok := byTarget[x]
		if !ok {
			return x
		}
		if a.Kind == logic.VariableAssignment {
			return a.Value
		}
		deps := a.Value.Dependencies()
		if len(deps) == 0 {
			return a.Value
		}
		args := make([]logic.Literal, len(deps))
		for i, dep := range deps {
			args[i] = resolve(dep)
		}
		return a.Value.Rebuild(args)
	}
	if got := resolve(as[0].Target); !logic.Eq(got, lit) {
		t.Errorf("root resolves to %v, want %v", got, lit)
	}
	if as[0].Kind != logic.TermAssignment {
		t.Errorf("root assignment kind is %v, want term", as[0].Kind)
	}
	// h(Z, W) and f(W) must share the target for W.
	h := as[0].Value.Dependencies()[1].(logic.Variable)
	f := as[0].Value.Dependencies()[2].(logic.Variable)
	hw := byTarget[h].Value.Dependencies()[1]
	fw := byTarget[f].Value.Dependencies()[0]
	if !logic.Eq(hw, fw) {
		t.Errorf("W is flattened into distinct targets %v and %v", hw, fw)
	}
}

func TestFlattenGoal(t *testing.T) {
	s := dsl.NewScope(logic.NewArena())
	x, y := s.Var("X"), s.Var("Y")
	tests := []struct {
		lit      logic.Literal
		wantArgs []logic.AssignmentKind
		wantLen  int
	}{
		{s.Atom("p"), nil, 0},
		{s.Comp("q", x, y), []logic.AssignmentKind{logic.ArgumentAssignment, logic.ArgumentAssignment}, 4},
		{s.Comp("q", x, x), []logic.AssignmentKind{logic.ArgumentAssignment, logic.ArgumentAssignment}, 3},
		{s.Comp("q", s.Atom("a"), s.Atom("a")), []logic.AssignmentKind{logic.TermAssignment, logic.TermAssignment}, 2},
		{s.Comp("q", s.Comp("f", x), x), []logic.AssignmentKind{logic.TermAssignment, logic.ArgumentAssignment}, 3},
	}
	for _, test := range tests {
		goal := logic.FlattenGoal(s.Arena(), test.lit)
		if goal.NumArguments != len(test.wantArgs) {
			t.Fatalf("FlattenGoal(%v): got %d arguments, want %d", test.lit, goal.NumArguments, len(test.wantArgs))
		}
		for i, a := range goal.Arguments() {
			if a.Kind != test.wantArgs[i] {
				t.Errorf("FlattenGoal(%v): argument #%d is %v, want %v", test.lit, i, a.Kind, test.wantArgs[i])
			}
		}
		if len(goal.Assignments) != test.wantLen {
			t.Errorf("FlattenGoal(%v): got %d assignments, want %d: %v", test.lit, len(goal.Assignments), test.wantLen, goal.Assignments)
		}
	}
}

func TestFlattenGoalSharesVariables(t *testing.T) {
	s := dsl.NewScope(logic.NewArena())
	x := s.Var("X")
	goal := logic.FlattenGoal(s.Arena(), s.Comp("q", x, x))
	args := goal.Arguments()
	if !logic.Eq(args[0].Value, args[1].Value) {
		t.Errorf("arguments of q(X, X) point to %v and %v", args[0].Value, args[1].Value)
	}
}
