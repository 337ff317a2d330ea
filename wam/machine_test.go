package wam

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brunokim/reason/logic"
)

// newFrameMachine returns a machine whose current environment has prevBase
// permanent variables, followed by numArgs argument registers.
func newFrameMachine(numRegs, prevBase, numArgs int) (m *Machine, perms, args []Ref) {
	m = NewMachine(&Program{NumRegisters: numRegs})
	root := &Env{Continuation: halt}
	m.Env = &Env{Prev: root, PermanentVars: make([]Ref, prevBase)}
	perms = make([]Ref, 0, prevBase)
	for i := 0; i < prevBase; i++ {
		x := m.Heap.NewVariable()
		m.Reg[i] = x
		m.Env.PermanentVars[i] = x
		perms = append(perms, x)
	}
	for i := 0; i < numArgs; i++ {
		x := m.Heap.NewVariable()
		m.Reg[prevBase+i] = x
		args = append(args, x)
	}
	for i := prevBase + numArgs; i < numRegs; i++ {
		m.Reg[i] = m.Heap.NewVariable()
	}
	m.Base = prevBase
	return m, perms, args
}

func TestAllocate(t *testing.T) {
	tests := []struct {
		name             string
		prevBase, n, arg int
	}{
		{"grow", 1, 3, 2},
		{"grow from zero", 0, 2, 3},
		{"shrink", 3, 1, 2},
		{"shrink to zero", 2, 0, 2},
		{"equal", 2, 2, 2},
		{"no args", 1, 2, 0},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			m, perms, args := newFrameMachine(8, test.prevBase, test.arg)
			before := make(map[Ref]bool)
			for _, ref := range m.Reg {
				before[ref] = true
			}

			m.Continuation = 42
			m.allocate(test.n, test.arg)
			m.Continuation = 7

			assert.Equal(t, test.n, m.Base)
			require.Len(t, m.Env.PermanentVars, test.n)
			assert.Equal(t, m.Env.PermanentVars, m.Reg[:test.n])
			if len(args) > 0 {
				assert.Equal(t, args, m.Reg[test.n:test.n+test.arg], "args after shift")
			}
			for i, ref := range m.Reg {
				if i >= test.n && i < test.n+test.arg {
					continue
				}
				assert.Falsef(t, before[ref], "register %d was not replaced", i)
				assert.Equalf(t, Unbound, m.Heap.Tag(ref), "register %d", i)
			}

			require.NoError(t, m.deallocate())
			assert.Equal(t, test.prevBase, m.Base)
			assert.Equal(t, perms, m.Reg[:test.prevBase], "registers restored after deallocate")
			assert.Equal(t, 42, m.Continuation, "continuation restored after deallocate")
		})
	}
}

func TestDeallocate_Root(t *testing.T) {
	m := NewMachine(&Program{NumRegisters: 1})
	m.Env = &Env{Continuation: halt}
	assert.ErrorIs(t, m.deallocate(), ErrNoEnvironment)
}

func TestDeallocate_FreshensTemporaries(t *testing.T) {
	m, perms, _ := newFrameMachine(6, 1, 1)
	m.allocate(4, 1)
	inner := append([]Ref(nil), m.Reg[:4]...)
	require.NoError(t, m.deallocate())
	assert.Equal(t, perms, m.Reg[:1])
	for i := 1; i < 4; i++ {
		assert.NotEqualf(t, inner[i], m.Reg[i], "register %d kept a permanent of the popped frame", i)
		assert.Equalf(t, Unbound, m.Heap.Tag(m.Reg[i]), "register %d", i)
	}
}

func TestUnify_Functors(t *testing.T) {
	arena := logic.NewArena()
	f1 := logic.NamedFunctor(arena.NewAtom("f"), 1)
	f2 := logic.NamedFunctor(f1.Name, 2)
	g1 := logic.NamedFunctor(arena.NewAtom("g"), 1)
	a, b := arena.NewAtom("a"), arena.NewAtom("b")
	x := arena.NewVariable("X")

	t.Run("f(a) = f(X)", func(t *testing.T) {
		m := NewMachine(&Program{})
		vars := make(map[logic.Variable]Ref)
		fa := m.Build(f1.Of(a), vars)
		fx := m.Build(f1.Of(x), vars)
		require.True(t, m.unify(fa, fx))
		got := m.Resolve(vars[x], nil, arena)
		assert.True(t, logic.Eq(a, got), "X = %v", got)
	})
	t.Run("f(a) = g(a)", func(t *testing.T) {
		m := NewMachine(&Program{})
		vars := make(map[logic.Variable]Ref)
		assert.False(t, m.unify(m.Build(f1.Of(a), vars), m.Build(g1.Of(a), vars)))
	})
	t.Run("f(a) = f(a, b)", func(t *testing.T) {
		m := NewMachine(&Program{})
		vars := make(map[logic.Variable]Ref)
		assert.False(t, m.unify(m.Build(f1.Of(a), vars), m.Build(f2.Of(a, b), vars)))
	})
	t.Run("atom identity", func(t *testing.T) {
		m := NewMachine(&Program{})
		vars := make(map[logic.Variable]Ref)
		other := arena.NewAtom("a")
		assert.True(t, m.unify(m.Build(a, vars), m.Build(a, vars)))
		assert.False(t, m.unify(m.Build(a, vars), m.Build(other, vars)))
	})
	t.Run("younger binds to older", func(t *testing.T) {
		m := NewMachine(&Program{})
		old, young := m.NewVariable(), m.NewVariable()
		require.True(t, m.unify(old, young))
		assert.Equal(t, BoundTo, m.Heap.Tag(young))
		assert.Equal(t, Unbound, m.Heap.Tag(old))
	})
	t.Run("cyclic term", func(t *testing.T) {
		m := NewMachine(&Program{})
		vars := make(map[logic.Variable]Ref)
		require.True(t, m.unify(m.Build(x, vars), m.Build(f1.Of(x), vars)))
		assert.Equal(t, "f(_S1)=_S1", m.Heap.format(vars[x]))
	})
}

func TestTrail_Conditional(t *testing.T) {
	m := NewMachine(&Program{})
	m.Env = &Env{Continuation: halt}
	old := m.NewVariable()
	m.ChoicePoint = &ChoicePoint{HeapSize: m.Heap.Len(), Env: m.Env}
	young := m.NewVariable()
	s := m.Heap.NewStructure(logic.True, 0)

	m.bind(young, s)
	assert.Empty(t, m.Trail, "cell created after the choice point is not trailed")
	m.bind(old, s)
	assert.Equal(t, []Ref{old}, m.Trail)

	m.unwindTrail(0)
	assert.Empty(t, m.Trail)
	assert.Equal(t, Unbound, m.Heap.Tag(old))
}

// choiceProgram returns the program for p(a). p(b). p(c).
func choiceProgram(t *testing.T, arena *logic.Arena) (*Program, logic.Functor, []logic.Atom) {
	t.Helper()
	p := logic.NamedFunctor(arena.NewAtom("p"), 1)
	atoms := []logic.Atom{arena.NewAtom("a"), arena.NewAtom("b"), arena.NewAtom("c")}
	b := NewBuilder()
	require.NoError(t, b.SetEntry(p))
	l1, l2 := b.NewLabel(), b.NewLabel()
	b.WriteLabel(TryMeElse, l1, 1)
	b.WriteLiteral(GetStructure, atoms[0], 0, 0)
	b.Write(Proceed, 0, 0)
	b.DefineLabel(l1)
	b.WriteLabel(RetryMeElse, l2, 0)
	b.WriteLiteral(GetStructure, atoms[1], 0, 0)
	b.Write(Proceed, 0, 0)
	b.DefineLabel(l2)
	b.Write(TrustMe, 0, 0)
	b.WriteLiteral(GetStructure, atoms[2], 0, 0)
	b.Write(Proceed, 0, 0)
	prog, err := b.Finish()
	require.NoError(t, err)
	return prog, p, atoms
}

func TestCall_BacktrackRestoresArgs(t *testing.T) {
	arena := logic.NewArena()
	prog, p, atoms := choiceProgram(t, arena)
	m := NewMachine(prog)
	x := m.NewVariable()
	next := m.Call(p, x)
	for _, want := range atoms {
		ok, err := next()
		require.NoError(t, err)
		require.True(t, ok)
		got := m.Resolve(x, nil, arena)
		assert.True(t, logic.Eq(want, got), "got %v, want %v", got, want)
	}
	ok, err := next()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, Unbound, m.Heap.Tag(x), "binding undone after exhaustion")
	assert.Empty(t, m.Trail)

	ok, err = next()
	assert.NoError(t, err)
	assert.False(t, ok, "exhausted call stays exhausted")
}

func TestCall_BoundArgument(t *testing.T) {
	arena := logic.NewArena()
	prog, p, atoms := choiceProgram(t, arena)
	m := NewMachine(prog)
	next := m.Call(p, m.Build(atoms[1], nil))
	ok, err := next()
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = next()
	require.NoError(t, err)
	assert.False(t, ok)

	next = m.Call(p, m.Build(arena.NewAtom("b"), nil))
	ok, err = next()
	require.NoError(t, err)
	assert.False(t, ok, "atoms with the same name are different")
}

func TestCall_UndefinedPredicate(t *testing.T) {
	arena := logic.NewArena()
	prog, _, _ := choiceProgram(t, arena)
	m := NewMachine(prog)
	ok, err := m.Call(arena.NewFunctor(1), m.NewVariable())()
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestCall_IterLimit(t *testing.T) {
	arena := logic.NewArena()
	loop := arena.NewFunctor(0)
	b := NewBuilder()
	require.NoError(t, b.SetEntry(loop))
	b.Write(Allocate, 0, 0)
	b.WriteLiteral(Call, loop, 0, 0)
	b.Write(Deallocate, 0, 0)
	b.Write(Proceed, 0, 0)
	prog, err := b.Finish()
	require.NoError(t, err)

	m := NewMachine(prog, WithIterLimit(100))
	_, err = m.Call(loop)()
	assert.ErrorIs(t, err, ErrIterLimit)
}

func TestCall_UnknownOpcode(t *testing.T) {
	arena := logic.NewArena()
	key := arena.NewFunctor(0)
	b := NewBuilder()
	require.NoError(t, b.SetEntry(key))
	b.Write(numOpcodes, 0, 0)
	prog, err := b.Finish()
	require.NoError(t, err)

	_, err = NewMachine(prog).Call(key)()
	assert.ErrorIs(t, err, ErrUnknownOpcode)
}

func TestTrace(t *testing.T) {
	arena := logic.NewArena()
	prog, p, _ := choiceProgram(t, arena)
	var buf bytes.Buffer
	m := NewMachine(prog, WithTrace(&buf))
	ok, err := m.Call(p, m.NewVariable())()
	require.NoError(t, err)
	require.True(t, ok)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	// Program, try_me_else, get_struct, proceed.
	require.Len(t, lines, 4)
	var step map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[2]), &step))
	assert.Equal(t, "get_struct a, X0", step["Instr"])
	assert.Equal(t, "write", step["Mode"])
	assert.Len(t, step["ChoicePoints"], 1)
}
