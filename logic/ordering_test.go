package logic_test

import (
	"testing"

	"github.com/brunokim/reason/dsl"
	"github.com/brunokim/reason/logic"
	"github.com/brunokim/reason/test_helpers"

	"github.com/google/go-cmp/cmp"
)

func positions(as []logic.Assignment) map[logic.Variable]int {
	pos := make(map[logic.Variable]int)
	for i, a := range as {
		pos[a.Target] = i
	}
	return pos
}

func TestOrderBuild(t *testing.T) {
	s := dsl.NewScope(logic.NewArena())
	lits := []logic.Literal{
		s.Comp("p", s.Var("Z"), s.Comp("h", s.Var("Z"), s.Var("W")), s.Comp("f", s.Var("W"))),
		s.Comp("p", s.Comp("f", s.Var("X")), s.Comp("h", s.Var("Y"), s.Comp("f", s.Atom("a"))), s.Var("Y")),
		s.Comp("g", s.Comp("g", s.Comp("g", s.Comp("g", s.Atom("a"))))),
	}
	for _, lit := range lits {
		as := logic.Flatten(s.Arena(), lit)
		build := logic.OrderBuild(as)
		if len(build) != len(as) {
			t.Fatalf("OrderBuild(%v): got %d assignments, want %d", lit, len(build), len(as))
		}
		pos := positions(build)
		for _, a := range build {
			for _, dep := range a.Dependencies() {
				if pos[dep.(logic.Variable)] > pos[a.Target] {
					t.Errorf("OrderBuild(%v): %v comes before its dependency %v", lit, a, dep)
				}
			}
		}
		if last := build[len(build)-1]; !logic.Eq(last.Target, as[0].Target) {
			t.Errorf("OrderBuild(%v): last assignment is %v, want the root %v", lit, last, as[0])
		}
	}
}

func TestOrderMatchIsReverse(t *testing.T) {
	s := dsl.NewScope(logic.NewArena())
	lit := s.Comp("p", s.Comp("f", s.Var("X")), s.Comp("h", s.Var("Y"), s.Comp("f", s.Atom("a"))), s.Var("Y"))
	as := logic.Flatten(s.Arena(), lit)
	build := logic.OrderBuild(as)
	match := logic.OrderMatch(as)
	reversed := make([]logic.Assignment, len(build))
	for i, a := range build {
		reversed[len(build)-1-i] = a
	}
	if diff := cmp.Diff(reversed, match, test_helpers.EqLiterals); diff != "" {
		t.Errorf("(-want, +got)%s", diff)
	}
	if !logic.Eq(match[0].Target, as[0].Target) {
		t.Errorf("OrderMatch: first assignment is %v, want the root %v", match[0], as[0])
	}
}
