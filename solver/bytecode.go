package solver

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/brunokim/reason/errors"
	"github.com/brunokim/reason/kb"
	"github.com/brunokim/reason/logic"
	"github.com/brunokim/reason/wam"
	"github.com/brunokim/reason/wam/compiler"
)

// ByteCodeSolver compiles each query together with the knowledge base, and runs it
// on a fresh machine.
type ByteCodeSolver struct {
	arena   *logic.Arena
	clauses []*logic.Clause
	opts    options
}

// NewByteCode lists the clauses in base and checks that they compile. Clauses
// asserted to base afterwards are not seen by the solver.
func NewByteCode(ctx context.Context, arena *logic.Arena, base kb.KnowledgeBase, opts ...Option) (*ByteCodeSolver, error) {
	clauses, err := base.Clauses(ctx)
	if err != nil {
		return nil, errors.New("listing clauses: %w", err)
	}
	if _, err := compiler.Compile(clauses); err != nil {
		return nil, err
	}
	return &ByteCodeSolver{arena: arena, clauses: clauses, opts: newOptions(opts)}, nil
}

// Program compiles the knowledge base with a clause for goals, returning the key
// to call it and the query variables, that are the arguments of the call.
func (s *ByteCodeSolver) Program(goals ...logic.Literal) (*wam.Program, logic.Functor, []logic.Variable, error) {
	vars := queryVars(goals)
	args := make([]logic.Literal, len(vars))
	for i, x := range vars {
		args[i] = x
	}
	key := s.arena.NewFunctor(len(vars))
	query := logic.Rule(key.Of(args...), goals...)
	clauses := append(append([]*logic.Clause(nil), s.clauses...), query)
	prog, err := compiler.Compile(clauses)
	if err != nil {
		return nil, key, nil, err
	}
	return prog, key, vars, nil
}

// Query runs goals on a WAM.
func (s *ByteCodeSolver) Query(ctx context.Context, goals ...logic.Literal) <-chan Result {
	ch := make(chan Result)
	logger := s.opts.logger.With(zap.String("query_id", uuid.NewString()))
	go func() {
		defer close(ch)
		logger.Debug("query", zap.Stringers("goals", goals))
		prog, key, vars, err := s.Program(goals...)
		if err != nil {
			send(ctx, ch, Result{Err: err})
			return
		}
		mopts := []wam.Option{wam.WithLogger(logger), wam.WithInterrupt(ctx.Done())}
		if s.opts.iterLimit > 0 {
			mopts = append(mopts, wam.WithIterLimit(s.opts.iterLimit))
		}
		if s.opts.trace != nil {
			mopts = append(mopts, wam.WithTrace(s.opts.trace))
		}
		m := wam.NewMachine(prog, mopts...)
		refs := make([]wam.Ref, len(vars))
		for i := range refs {
			refs[i] = m.NewVariable()
		}
		next := m.Call(key, refs...)
		for n := 0; ; n++ {
			if ctx.Err() != nil {
				logger.Debug("query cancelled", zap.Int("solutions", n))
				return
			}
			ok, err := next()
			if err != nil {
				logger.Debug("query failed", zap.Error(err))
				send(ctx, ch, Result{Err: err})
				return
			}
			if !ok {
				logger.Debug("no more solutions", zap.Int("solutions", n))
				return
			}
			names := make(map[wam.Ref]logic.Variable)
			for i, x := range vars {
				names[m.Heap.Deref(refs[i])] = x
			}
			solution := make(Solution, len(vars))
			for i, x := range vars {
				solution[x] = m.Resolve(refs[i], names, s.arena)
			}
			logger.Debug("solution", zap.Stringer("solution", solution))
			if !send(ctx, ch, Result{Solution: solution}) {
				return
			}
		}
	}()
	return ch
}
