package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/brunokim/reason/dsl"
	"github.com/brunokim/reason/kb"
	"github.com/brunokim/reason/logic"
	"github.com/brunokim/reason/parser"
	"github.com/brunokim/reason/solver"
)

// session holds the literals and clauses read by a command.
type session struct {
	scope  *dsl.Scope
	parser *parser.Parser
	prog   *parser.Program
}

func newSession() *session {
	scope := dsl.NewScope(logic.NewArena())
	return &session{
		scope:  scope,
		parser: parser.New(scope),
		prog:   new(parser.Program),
	}
}

// consult reads files concurrently and parses them in order, so that clauses keep
// the order of the command line.
func (s *session) consult(ctx context.Context, files []string) error {
	texts := make([]string, len(files))
	g, ctx := errgroup.WithContext(ctx)
	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			bs, err := os.ReadFile(file)
			if err != nil {
				return err
			}
			texts[i] = string(bs)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	for i, text := range texts {
		prog, err := s.parser.Parse(text)
		if err != nil {
			return fmt.Errorf("%s:%w", files[i], err)
		}
		logger.Debug("consulted file",
			zap.String("file", files[i]),
			zap.Int("clauses", len(prog.Clauses)),
			zap.Int("queries", len(prog.Queries)))
		s.prog.Clauses = append(s.prog.Clauses, prog.Clauses...)
		s.prog.Queries = append(s.prog.Queries, prog.Queries...)
	}
	return nil
}

// newSolver returns a solver over the consulted clauses, configured by cfg. The
// returned function closes the trace file, if any, and must be called once queries
// are done.
func (s *session) newSolver(ctx context.Context) (solver.Solver, func() error, error) {
	style, opts, err := cfg.SolverOptions()
	if err != nil {
		return nil, nil, err
	}
	opts = append(opts, solver.WithLogger(logger))
	closeTrace := func() error { return nil }
	if cfg.Machine.TraceFile != "" {
		f, err := os.Create(cfg.Machine.TraceFile)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, solver.WithTrace(f))
		closeTrace = f.Close
	}
	sv, err := solver.New(ctx, style, s.scope.Arena(), kb.New(s.prog.Clauses...), opts...)
	if err != nil {
		closeTrace()
		return nil, nil, err
	}
	return sv, closeTrace, nil
}

// answer prints up to limit solutions for goals, or all of them if limit is 0.
func answer(ctx context.Context, w io.Writer, sv solver.Solver, goals []logic.Literal, limit int) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	var n int
	for result := range sv.Query(ctx, goals...) {
		if result.Err != nil {
			return result.Err
		}
		n++
		printSolution(w, result.Solution)
		if n == limit {
			return nil
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if n == 0 {
		fmt.Fprintln(w, "false.")
	}
	return nil
}

func printSolution(w io.Writer, solution solver.Solution) {
	if len(solution) == 0 {
		fmt.Fprintln(w, "true.")
		return
	}
	fmt.Fprintf(w, "%v.\n", solution)
}
