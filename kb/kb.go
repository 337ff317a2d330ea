// Package kb implements knowledge bases, the clause stores consulted by compilers and
// solvers.
package kb

import (
	"context"
	"sync"

	"github.com/brunokim/reason/logic"
)

// KnowledgeBase is an ordered collection of clauses.
//
// Implementations may be backed by I/O, so every operation accepts a context and may
// fail.
type KnowledgeBase interface {
	// Clauses returns every clause, in assertion order.
	Clauses(ctx context.Context) ([]*logic.Clause, error)
	// CandidatesFor returns the clauses whose head has the same index key as lit, or
	// every clause if lit is a variable.
	CandidatesFor(ctx context.Context, lit logic.Literal) ([]*logic.Clause, error)
}

// List is a persistent knowledge base. Asserting a clause returns a new List that
// shares every previous clause with its parent, which is left unchanged.
//
// A List is safe for concurrent use.
type List struct {
	prev   *List
	clause *logic.Clause
	size   int

	once    sync.Once
	clauses []*logic.Clause
	index   map[string][]*logic.Clause
}

var _ KnowledgeBase = (*List)(nil)

// Empty returns a knowledge base without clauses.
func Empty() *List {
	return &List{}
}

// New returns a knowledge base with clauses, in order.
func New(clauses ...*logic.Clause) *List {
	l := Empty()
	for _, c := range clauses {
		l = l.Assert(c)
	}
	return l
}

// Assert returns a knowledge base with c appended after every clause in l.
func (l *List) Assert(c *logic.Clause) *List {
	return &List{prev: l, clause: c, size: l.size + 1}
}

// Len returns the number of clauses.
func (l *List) Len() int {
	return l.size
}

func (l *List) build() {
	l.once.Do(func() {
		l.clauses = make([]*logic.Clause, l.size)
		for node, i := l, l.size-1; node.prev != nil; node, i = node.prev, i-1 {
			l.clauses[i] = node.clause
		}
		l.index = make(map[string][]*logic.Clause)
		for _, c := range l.clauses {
			if c.IsDenial() {
				continue
			}
			key := logic.Key(c.Head.IndexKey())
			l.index[key] = append(l.index[key], c)
		}
	})
}

// Clauses returns every clause, in assertion order.
func (l *List) Clauses(ctx context.Context) ([]*logic.Clause, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.build()
	return append([]*logic.Clause(nil), l.clauses...), nil
}

// CandidatesFor returns the clauses whose head has the same index key as lit, in
// assertion order. If lit is a variable, returns every clause.
func (l *List) CandidatesFor(ctx context.Context, lit logic.Literal) ([]*logic.Clause, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.build()
	key := lit.IndexKey()
	if key == nil {
		return append([]*logic.Clause(nil), l.clauses...), nil
	}
	return append([]*logic.Clause(nil), l.index[logic.Key(key)]...), nil
}
