// Package logic implements the term model of a Horn-clause engine.
//
// A literal can fall in one of four categories:
//
// * atom: an identity-unique symbol.
//
// * variable: an identity-unique placeholder, unifiable with anything.
//
// * functor: a name and an arity. An unbound functor is a template, like p/2, and a
// bound functor (a Term) carries its arguments, like p(a, X).
//
// * truth: the singleton literal that only unifies with itself.
//
// Atoms and variables are created by an Arena, which assigns them identities. Two
// atoms with the same name created by separate calls are different atoms.
//
// A logic program is composed of clauses of the form 'head :- lit1, lit2.', that
// must be read as "head holds if lit1 and lit2 holds". A clause with no literals in
// the body is called a fact, and a clause without head is called a denial.
package logic

import (
	"fmt"
	"strings"
	"sync/atomic"
)

// ---- Basic types

// Literal is an immutable logic term.
type Literal interface {
	fmt.Stringer
	// Dependencies returns the arguments of a literal. It's empty for atoms, variables
	// and unbound functors.
	Dependencies() []Literal
	// IndexKey returns the shape identity of a literal, used to group clauses that may
	// match the same goal. It's nil exactly for variables.
	IndexKey() Literal
	// Rebuild returns a literal of the same shape with the provided arguments.
	Rebuild(args []Literal) Literal
	writeKey(b *strings.Builder)
}

// Arena assigns identities to atoms and variables. It's safe for concurrent use.
//
// Literals created by different arenas never compare equal.
type Arena struct {
	next atomic.Int64
}

// Atom is an identity-unique symbol.
type Atom struct {
	arena *Arena
	id    int64
	name  string
}

// Variable is an identity-unique placeholder.
type Variable struct {
	arena *Arena
	id    int64
	name  string
}

// Functor is an unbound functor, identified by its name and arity.
type Functor struct {
	// Name is usually an Atom.
	Name  Literal
	Arity int
}

// Term is a functor bound to arguments.
type Term struct {
	Functor Functor
	Args    []Literal
}

// Truth is the type of True.
type Truth struct{}

// ---- Public vars

var (
	// True is a literal that always holds.
	True = Truth{}
)

// ---- Arena

// NewArena returns an empty arena.
func NewArena() *Arena {
	return new(Arena)
}

func (a *Arena) nextID() int64 {
	return a.next.Add(1)
}

// NewAtom creates an atom. The name is only used for display.
func (a *Arena) NewAtom(name string) Atom {
	return Atom{arena: a, id: a.nextID(), name: name}
}

// NewVariable creates a variable. The name is only used for display, and may be empty.
func (a *Arena) NewVariable(name string) Variable {
	return Variable{arena: a, id: a.nextID(), name: name}
}

// NewFunctor creates a functor with a private name.
func (a *Arena) NewFunctor(arity int) Functor {
	return Functor{Name: a.NewAtom(""), Arity: arity}
}

// NamedFunctor creates a functor with an explicit name literal.
func NamedFunctor(name Literal, arity int) Functor {
	return Functor{Name: name, Arity: arity}
}

// ---- Atoms and variables

// Name returns the display name of the atom.
func (t Atom) Name() string { return t.name }

// Name returns the display name of the variable.
func (x Variable) Name() string { return x.name }

// ID returns the identity of the variable within its arena.
func (x Variable) ID() int64 { return x.id }

func (t Atom) Dependencies() []Literal     { return nil }
func (x Variable) Dependencies() []Literal { return nil }
func (f Functor) Dependencies() []Literal  { return nil }
func (t *Term) Dependencies() []Literal    { return t.Args }
func (Truth) Dependencies() []Literal      { return nil }

func (t Atom) IndexKey() Literal     { return t }
func (x Variable) IndexKey() Literal { return nil }
func (f Functor) IndexKey() Literal  { return f }
func (t *Term) IndexKey() Literal    { return t.Functor }
func (Truth) IndexKey() Literal      { return True }

func (t Atom) Rebuild(args []Literal) Literal     { return t }
func (x Variable) Rebuild(args []Literal) Literal { return x }
func (Truth) Rebuild(args []Literal) Literal      { return True }

// Rebuild binds the functor to args.
func (f Functor) Rebuild(args []Literal) Literal {
	return f.Of(args...)
}

func (t *Term) Rebuild(args []Literal) Literal {
	return t.Functor.Of(args...)
}

// ---- Functors

// Of binds the functor to args.
//
// It panics if the number of args is different from the functor's arity.
func (f Functor) Of(args ...Literal) *Term {
	if len(args) != f.Arity {
		panic(fmt.Sprintf("%v: got %d args", f, len(args)))
	}
	return &Term{Functor: f, Args: args}
}

// ---- Clauses

// Clause is the representation of a logic rule.
// Note that Clause is not a Literal, so it can't be used within terms.
type Clause struct {
	// Head is the consequent of a clause, or nil for a denial.
	Head Literal
	// Body is the antecedent of a clause.
	Body []Literal
}

// Fact creates a clause with empty body.
func Fact(head Literal) *Clause {
	return &Clause{Head: head}
}

// Rule creates a clause.
func Rule(head Literal, body ...Literal) *Clause {
	return &Clause{Head: head, Body: body}
}

// Denial creates a clause without head.
func Denial(body ...Literal) *Clause {
	return &Clause{Body: body}
}

// IsDenial returns whether the clause has no head.
func (c *Clause) IsDenial() bool {
	return c.Head == nil
}

// Literals returns the head, if any, followed by the body.
func (c *Clause) Literals() []Literal {
	if c.Head == nil {
		return c.Body
	}
	return append([]Literal{c.Head}, c.Body...)
}

// Vars returns the distinct variables in the clause, in order of appearance.
func (c *Clause) Vars() []Variable {
	return collectVars(c.Literals())
}

// Rename returns a copy of c with every variable replaced by a fresh one from a.
func Rename(a *Arena, c *Clause) *Clause {
	fresh := make(map[Variable]Literal)
	for _, x := range c.Vars() {
		fresh[x] = a.NewVariable(x.name)
	}
	renamed := &Clause{Body: make([]Literal, len(c.Body))}
	if c.Head != nil {
		renamed.Head = replaceVars(c.Head, fresh)
	}
	for i, lit := range c.Body {
		renamed.Body[i] = replaceVars(lit, fresh)
	}
	return renamed
}

func replaceVars(l Literal, m map[Variable]Literal) Literal {
	if x, ok := l.(Variable); ok {
		if y, ok := m[x]; ok {
			return y
		}
		return x
	}
	deps := l.Dependencies()
	if len(deps) == 0 {
		return l
	}
	args := make([]Literal, len(deps))
	for i, dep := range deps {
		args[i] = replaceVars(dep, m)
	}
	return l.Rebuild(args)
}

// ---- Vars

// Vars returns the distinct variables in l, in order of appearance.
func Vars(l Literal) []Variable {
	return collectVars([]Literal{l})
}

func collectVars(ls []Literal) []Variable {
	var xs []Variable
	seen := make(map[Variable]struct{})
	stack := make([]Literal, len(ls))
	for i, l := range ls {
		stack[len(ls)-1-i] = l
	}
	for len(stack) > 0 {
		n := len(stack)
		l := stack[n-1]
		stack = stack[:n-1]
		if x, ok := l.(Variable); ok {
			if _, ok := seen[x]; !ok {
				seen[x] = struct{}{}
				xs = append(xs, x)
			}
			continue
		}
		deps := l.Dependencies()
		for i := len(deps) - 1; i >= 0; i-- {
			stack = append(stack, deps[i])
		}
	}
	return xs
}

// ---- Comparisons

// Eq returns whether two literals are equal. Atoms and variables are compared by
// identity, and functors by name, arity and arguments.
func Eq(l1, l2 Literal) bool {
	if l1 == nil || l2 == nil {
		return l1 == nil && l2 == nil
	}
	switch t1 := l1.(type) {
	case Atom:
		t2, ok := l2.(Atom)
		return ok && t1.arena == t2.arena && t1.id == t2.id
	case Variable:
		t2, ok := l2.(Variable)
		return ok && t1.arena == t2.arena && t1.id == t2.id
	case Truth:
		_, ok := l2.(Truth)
		return ok
	case Functor:
		t2, ok := l2.(Functor)
		return ok && t1.Arity == t2.Arity && Eq(t1.Name, t2.Name)
	case *Term:
		t2, ok := l2.(*Term)
		if !ok || !Eq(t1.Functor, t2.Functor) || len(t1.Args) != len(t2.Args) {
			return false
		}
		for i, arg := range t1.Args {
			if !Eq(arg, t2.Args[i]) {
				return false
			}
		}
		return true
	default:
		panic(fmt.Sprintf("logic.Eq: unhandled type %T", l1))
	}
}

// Key returns a canonical string for l, such that Key(l1) == Key(l2) iff Eq(l1, l2).
// It's only valid within a process, since it depends on arena addresses.
func Key(l Literal) string {
	var b strings.Builder
	l.writeKey(&b)
	return b.String()
}

func (t Atom) writeKey(b *strings.Builder) {
	fmt.Fprintf(b, "a%p.%d", t.arena, t.id)
}

func (x Variable) writeKey(b *strings.Builder) {
	fmt.Fprintf(b, "v%p.%d", x.arena, x.id)
}

func (Truth) writeKey(b *strings.Builder) {
	b.WriteString("T")
}

func (f Functor) writeKey(b *strings.Builder) {
	b.WriteString("f(")
	f.Name.writeKey(b)
	fmt.Fprintf(b, "/%d)", f.Arity)
}

func (t *Term) writeKey(b *strings.Builder) {
	b.WriteString("t(")
	t.Functor.writeKey(b)
	for _, arg := range t.Args {
		b.WriteString(";")
		arg.writeKey(b)
	}
	b.WriteString(")")
}

// ---- String()

func (t Atom) String() string {
	if t.name == "" {
		return fmt.Sprintf("_A%d", t.id)
	}
	return FormatAtom(t.name)
}

func (x Variable) String() string {
	if x.name == "" || x.name == "_" {
		return fmt.Sprintf("_X%d", x.id)
	}
	return x.name
}

func (f Functor) String() string {
	return fmt.Sprintf("%v/%d", f.Name, f.Arity)
}

func (t *Term) String() string {
	args := make([]string, len(t.Args))
	for i, arg := range t.Args {
		args[i] = arg.String()
	}
	return fmt.Sprintf("%v(%s)", t.Functor.Name, strings.Join(args, ", "))
}

func (Truth) String() string {
	return "true"
}

func (c *Clause) String() string {
	body := make([]string, len(c.Body))
	for i, lit := range c.Body {
		body[i] = lit.String()
	}
	if c.Head == nil {
		return fmt.Sprintf(":- %s.", strings.Join(body, ", "))
	}
	head := c.Head.String()
	if len(c.Body) == 0 {
		return head + "."
	}
	return fmt.Sprintf("%s :-\n  %s.", head, strings.Join(body, ",\n  "))
}
