package logic_test

import (
	"testing"

	"github.com/brunokim/reason/dsl"
	"github.com/brunokim/reason/logic"
	"github.com/brunokim/reason/test_helpers"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestUnify(t *testing.T) {
	s := dsl.NewScope(logic.NewArena())
	a, b := s.Atom("a"), s.Atom("b")
	x, y := s.Var("X"), s.Var("Y")
	tests := []struct {
		name   string
		x, y   logic.Literal
		want   logic.Bindings
		wantOk bool
	}{
		{"atom with itself", a, a, logic.Bindings{}, true},
		{"atom with fresh atom", a, s.Arena().NewAtom("a"), nil, false},
		{"atom with other atom", a, b, nil, false},
		{"var with atom", x, a, logic.Bindings{x: a}, true},
		{"functor binds arg", s.Comp("f", a), s.Comp("f", x), logic.Bindings{x: a}, true},
		{"functor name mismatch", s.Comp("f", a), s.Comp("g", a), nil, false},
		{"functor arity mismatch", s.Comp("f", a), s.Comp("f", a, b), nil, false},
		{"shared var", s.Comp("f", x, x), s.Comp("f", a, y), logic.Bindings{x: a, y: a}, true},
		{"shared var conflict", s.Comp("f", x, x), s.Comp("f", a, b), nil, false},
		{"truth", logic.True, logic.True, logic.Bindings{}, true},
		{"truth with atom", logic.True, a, nil, false},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, ok := logic.Unify(test.x, test.y, logic.Bindings{})
			assert.Equal(t, test.wantOk, ok)
			if !ok {
				return
			}
			for x, want := range test.want {
				if diff := cmp.Diff(want, got.Resolve(x), test_helpers.EqLiterals); diff != "" {
					t.Errorf("%v: (-want, +got)%s", x, diff)
				}
			}
		})
	}
}

func TestUnifyDoesNotModifyInput(t *testing.T) {
	s := dsl.NewScope(logic.NewArena())
	x := s.Var("X")
	b := logic.Bindings{}
	_, ok := logic.Unify(x, s.Atom("a"), b)
	assert.True(t, ok)
	assert.Empty(t, b)
}

func TestResolve(t *testing.T) {
	s := dsl.NewScope(logic.NewArena())
	x, y, z := s.Var("X"), s.Var("Y"), s.Var("Z")
	b := logic.Bindings{x: s.Comp("f", y), y: s.Comp("g", z)}
	got := b.Resolve(s.Comp("p", x))
	want := s.Comp("p", s.Comp("f", s.Comp("g", z)))
	if diff := cmp.Diff(want, got, test_helpers.EqLiterals); diff != "" {
		t.Errorf("(-want, +got)%s", diff)
	}
}

func TestResolve_Cyclic(t *testing.T) {
	s := dsl.NewScope(logic.NewArena())
	x, y := s.Var("X"), s.Var("Y")
	b, ok := logic.Unify(s.Comp("eq", x, x), s.Comp("eq", y, s.Comp("f", y)), logic.Bindings{})
	assert.True(t, ok, "no occurs check")

	got := b.Resolve(y)
	assert.Equal(t, "f(Y)", got.String())
	got = b.Resolve(s.Comp("p", x, y))
	assert.Equal(t, "p(f(f(Y)), f(Y))", got.String())
}
