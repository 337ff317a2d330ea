package solver

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/brunokim/reason/errors"
	"github.com/brunokim/reason/kb"
	"github.com/brunokim/reason/logic"
)

var (
	// ErrDepthLimit is returned when a proof is deeper than the solver's maximum depth.
	ErrDepthLimit = errors.Sentinel("depth limit reached")
	// ErrUnboundGoal is returned when a goal is a variable without value.
	ErrUnboundGoal = errors.Sentinel("goal is an unbound variable")
)

// BackwardSolver proves goals depth-first, trying clauses in assertion order. Each
// clause is renamed before use, so its variables are distinct from the query's.
type BackwardSolver struct {
	arena *logic.Arena
	base  kb.KnowledgeBase
	opts  options
}

// NewBackward returns a solver over base. Clauses asserted to base afterwards are
// not seen by the solver.
func NewBackward(arena *logic.Arena, base kb.KnowledgeBase, opts ...Option) *BackwardSolver {
	return &BackwardSolver{arena: arena, base: base, opts: newOptions(opts)}
}

// Query searches for proofs of goals.
func (s *BackwardSolver) Query(ctx context.Context, goals ...logic.Literal) <-chan Result {
	ch := make(chan Result)
	logger := s.opts.logger.With(zap.String("query_id", uuid.NewString()))
	go func() {
		defer close(ch)
		logger.Debug("query", zap.Stringers("goals", goals))
		vars := queryVars(goals)
		var n int
		yield := func(b logic.Bindings) bool {
			solution := make(Solution, len(vars))
			for _, x := range vars {
				solution[x] = b.Resolve(x)
			}
			n++
			logger.Debug("solution", zap.Stringer("solution", solution))
			return send(ctx, ch, Result{Solution: solution})
		}
		_, err := s.solve(ctx, goals, logic.Bindings{}, 0, yield)
		if err != nil {
			if ctx.Err() == nil {
				logger.Debug("query failed", zap.Error(err))
				send(ctx, ch, Result{Err: err})
			}
			return
		}
		logger.Debug("no more solutions", zap.Int("solutions", n))
	}()
	return ch
}

// solve proves goals under b, calling yield for each proof. It returns false if
// yield asked to stop.
func (s *BackwardSolver) solve(ctx context.Context, goals []logic.Literal, b logic.Bindings, depth int, yield func(logic.Bindings) bool) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if len(goals) == 0 {
		return yield(b), nil
	}
	if depth >= s.opts.maxDepth {
		return false, errors.New("%w (%d)", ErrDepthLimit, s.opts.maxDepth)
	}
	goal, rest := b.Walk(goals[0]), goals[1:]
	if logic.Eq(goal, logic.True) {
		return s.solve(ctx, rest, b, depth, yield)
	}
	if goal.IndexKey() == nil {
		return false, errors.New("%v: %w", goal, ErrUnboundGoal)
	}
	candidates, err := s.base.CandidatesFor(ctx, goal)
	if err != nil {
		return false, err
	}
	for _, c := range candidates {
		c = logic.Rename(s.arena, c)
		b2, ok := logic.Unify(goal, c.Head, b)
		if !ok {
			continue
		}
		next := append(append([]logic.Literal(nil), c.Body...), rest...)
		cont, err := s.solve(ctx, next, b2, depth+1, yield)
		if err != nil || !cont {
			return cont, err
		}
	}
	return true, nil
}
