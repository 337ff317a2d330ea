// Package solver answers queries against a knowledge base.
//
// ByteCode compiles the knowledge base and runs it on a WAM. BackwardChaining walks
// the clauses directly, unifying literals with substitutions. ForwardChaining
// derives facts from the clauses until every goal is derived, and only accepts
// ground goals.
package solver

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/brunokim/reason/errors"
	"github.com/brunokim/reason/kb"
	"github.com/brunokim/reason/logic"
)

// Solution maps each query variable to its value.
type Solution map[logic.Variable]logic.Literal

// String returns the bindings sorted by variable name, like "X = a, Y = f(b)".
func (s Solution) String() string {
	xs := make([]logic.Variable, 0, len(s))
	for x := range s {
		xs = append(xs, x)
	}
	sort.Slice(xs, func(i, j int) bool {
		if xs[i].Name() != xs[j].Name() {
			return xs[i].Name() < xs[j].Name()
		}
		return xs[i].ID() < xs[j].ID()
	})
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = fmt.Sprintf("%v = %v", x, s[x])
	}
	return strings.Join(parts, ", ")
}

// Result is either a solution or an error that stopped the query.
type Result struct {
	Solution Solution
	Err      error
}

// Solver finds solutions for a conjunction of goals.
type Solver interface {
	// Query streams every solution for goals, in order. The channel is closed after
	// the last solution, after an error, or when ctx is done.
	Query(ctx context.Context, goals ...logic.Literal) <-chan Result
}

// Style selects a solving strategy.
type Style int

const (
	// ByteCode compiles the knowledge base into WAM bytecode.
	ByteCode Style = iota
	// BackwardChaining searches clauses depth-first over substitutions.
	BackwardChaining
	// ForwardChaining saturates the knowledge base with derived facts.
	ForwardChaining
)

var styleNames = map[Style]string{
	ByteCode:         "bytecode",
	BackwardChaining: "backward",
	ForwardChaining:  "forward",
}

func (s Style) String() string {
	if name, ok := styleNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Style(%d)", int(s))
}

// ParseStyle returns the style with the given name.
func ParseStyle(name string) (Style, error) {
	for style, styleName := range styleNames {
		if styleName == name {
			return style, nil
		}
	}
	return 0, errors.New("unknown solver style %q", name)
}

type options struct {
	logger    *zap.Logger
	iterLimit int
	maxDepth  int
	trace     io.Writer
}

// Option configures a solver.
type Option func(*options)

// WithLogger sets the logger for queries.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithIterLimit limits the instructions executed per solution by the bytecode solver.
func WithIterLimit(n int) Option {
	return func(o *options) { o.iterLimit = n }
}

// WithMaxDepth limits the depth of the backward chaining search, and the number of
// rounds of forward chaining.
func WithMaxDepth(n int) Option {
	return func(o *options) { o.maxDepth = n }
}

// WithTrace writes the machine state of the bytecode solver to w, as JSON lines.
func WithTrace(w io.Writer) Option {
	return func(o *options) { o.trace = w }
}

func newOptions(opts []Option) options {
	o := options{
		logger:   zap.NewNop(),
		maxDepth: 1000,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// New returns a solver with the given style over base. Literals created while
// solving, like renamed clauses and unbound variables in solutions, come from arena.
func New(ctx context.Context, style Style, arena *logic.Arena, base kb.KnowledgeBase, opts ...Option) (Solver, error) {
	switch style {
	case ByteCode:
		return NewByteCode(ctx, arena, base, opts...)
	case BackwardChaining:
		return NewBackward(arena, base, opts...), nil
	case ForwardChaining:
		return NewForward(base, opts...), nil
	}
	return nil, errors.New("unknown solver style %v", style)
}

// queryVars returns the distinct variables in goals, in order of appearance.
func queryVars(goals []logic.Literal) []logic.Variable {
	return logic.Denial(goals...).Vars()
}

// send delivers r unless ctx is done first.
func send(ctx context.Context, ch chan<- Result, r Result) bool {
	select {
	case ch <- r:
		return true
	case <-ctx.Done():
		return false
	}
}
