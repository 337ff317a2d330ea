package solver

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/brunokim/reason/errors"
	"github.com/brunokim/reason/kb"
	"github.com/brunokim/reason/logic"
)

// ErrNonGroundGoal is returned by the forward chaining solver for goals with variables.
var ErrNonGroundGoal = errors.Sentinel("goal is not ground")

// ForwardSolver derives facts from the knowledge base, round by round, until every
// goal has been derived. A round matches the body of each clause against the facts
// derived so far, and adds the resulting heads. Only ground heads are kept, so
// clauses whose head has a variable not bound by the body never contribute.
//
// A query has at most one solution, without bindings. It has none if a round
// derives no new fact before the goals are covered.
type ForwardSolver struct {
	base kb.KnowledgeBase
	opts options
}

// NewForward returns a solver over base.
func NewForward(base kb.KnowledgeBase, opts ...Option) *ForwardSolver {
	return &ForwardSolver{base: base, opts: newOptions(opts)}
}

// facts is a set of ground literals, indexed by their key for matching.
type facts struct {
	keys  map[string]bool
	index map[string][]logic.Literal
}

func newFacts() *facts {
	return &facts{keys: make(map[string]bool), index: make(map[string][]logic.Literal)}
}

func (fs *facts) has(l logic.Literal) bool {
	return fs.keys[logic.Key(l)]
}

// add returns false if l was already present.
func (fs *facts) add(l logic.Literal) bool {
	key := logic.Key(l)
	if fs.keys[key] {
		return false
	}
	fs.keys[key] = true
	idx := logic.Key(l.IndexKey())
	fs.index[idx] = append(fs.index[idx], l)
	return true
}

func (fs *facts) candidates(l logic.Literal) []logic.Literal {
	return fs.index[logic.Key(l.IndexKey())]
}

// Query derives facts until goals are covered.
func (s *ForwardSolver) Query(ctx context.Context, goals ...logic.Literal) <-chan Result {
	ch := make(chan Result)
	logger := s.opts.logger.With(zap.String("query_id", uuid.NewString()))
	go func() {
		defer close(ch)
		logger.Debug("query", zap.Stringers("goals", goals))
		ok, err := s.solve(ctx, goals, logger)
		switch {
		case err != nil:
			if ctx.Err() == nil {
				logger.Debug("query failed", zap.Error(err))
				send(ctx, ch, Result{Err: err})
			}
		case ok:
			logger.Debug("solution")
			send(ctx, ch, Result{Solution: Solution{}})
		default:
			logger.Debug("no more solutions", zap.Int("solutions", 0))
		}
	}()
	return ch
}

func (s *ForwardSolver) solve(ctx context.Context, goals []logic.Literal, logger *zap.Logger) (bool, error) {
	for _, goal := range goals {
		if len(logic.Vars(goal)) > 0 {
			return false, errors.New("%v: %w", goal, ErrNonGroundGoal)
		}
	}
	clauses, err := s.base.Clauses(ctx)
	if err != nil {
		return false, errors.New("listing clauses: %w", err)
	}
	solved := newFacts()
	solved.add(logic.True)
	remaining := make(map[string]bool)
	for _, goal := range goals {
		if !solved.has(goal) {
			remaining[logic.Key(goal)] = true
		}
	}
	for round := 0; len(remaining) > 0; round++ {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		if round >= s.opts.maxDepth {
			return false, errors.New("%w (%d)", ErrDepthLimit, s.opts.maxDepth)
		}
		var derived []logic.Literal
		for _, c := range clauses {
			if c.IsDenial() {
				continue
			}
			match(solved, c.Body, logic.Bindings{}, func(b logic.Bindings) {
				head := b.Resolve(c.Head)
				if len(logic.Vars(head)) == 0 && !solved.has(head) {
					derived = append(derived, head)
				}
			})
		}
		var n int
		for _, fact := range derived {
			if solved.add(fact) {
				n++
				delete(remaining, logic.Key(fact))
			}
		}
		logger.Debug("round", zap.Int("round", round), zap.Int("derived", n))
		if n == 0 {
			return false, nil
		}
	}
	return true, nil
}

// match calls yield with every extension of b that unifies each of body with a
// solved fact.
func match(solved *facts, body []logic.Literal, b logic.Bindings, yield func(logic.Bindings)) {
	if len(body) == 0 {
		yield(b)
		return
	}
	lit := b.Walk(body[0])
	if lit.IndexKey() == nil {
		return
	}
	for _, fact := range solved.candidates(lit) {
		if b2, ok := logic.Unify(lit, fact, b); ok {
			match(solved, body[1:], b2, yield)
		}
	}
}
