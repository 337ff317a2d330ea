// Package compiler translates clauses into bytecode for the wam package.
//
// Each literal is flattened into assignments of fresh variables, that are bound to
// registers. The head of a clause is compiled with match instructions, that read
// the call arguments, and each goal in the body with build instructions, that write
// the arguments of the next call.
//
// Registers are laid out per clause as
//
//	0..k-1                permanent variables
//	k..k+m-1              arguments, where m is the largest arity in the clause
//	k+m..                 other variables and structures
package compiler

import (
	"context"
	"fmt"
	"sort"

	"github.com/brunokim/reason/errors"
	"github.com/brunokim/reason/kb"
	"github.com/brunokim/reason/logic"
	"github.com/brunokim/reason/wam"
)

var (
	// ErrVariableGoal is returned when compiling a clause with a variable as head or goal.
	ErrVariableGoal = errors.Sentinel("variable can't be called")
)

// PermanentVariables returns the variables that must survive a call, given the
// assignments of each position in a clause: the head at position 0, and each body
// goal in order. A variable is permanent if it appears at a position after the
// first goal and also at an earlier position.
//
// Variables are returned in order of first appearance, which is also the order of
// their registers.
func PermanentVariables(positions [][]logic.Assignment) []logic.Variable {
	firstPos := make(map[logic.Variable]int)
	order := make(map[logic.Variable]int)
	var perms []logic.Variable
	isPerm := make(map[logic.Variable]bool)
	for pos, as := range positions {
		for _, a := range as {
			if a.Kind != logic.VariableAssignment {
				continue
			}
			x, ok := a.Value.(logic.Variable)
			if !ok {
				continue
			}
			first, seen := firstPos[x]
			if !seen {
				firstPos[x] = pos
				order[x] = len(order)
				continue
			}
			if pos > 1 && first < pos && !isPerm[x] {
				isPerm[x] = true
				perms = append(perms, x)
			}
		}
	}
	sort.Slice(perms, func(i, j int) bool { return order[perms[i]] < order[perms[j]] })
	return perms
}

// Compile translates the clauses into a program. Clauses are grouped into predicates
// by the key of their heads, keeping their relative order. Denials are ignored.
func Compile(clauses []*logic.Clause) (*wam.Program, error) {
	preds, err := groupPredicates(clauses)
	if err != nil {
		return nil, err
	}
	c := &compiler{
		arena: logic.NewArena(),
		b:     wam.NewBuilder(),
	}
	for _, pred := range preds {
		if err := c.compilePredicate(pred); err != nil {
			return nil, err
		}
	}
	return c.b.Finish()
}

// CompileKB compiles every clause in the knowledge base. No program is returned if
// the clauses can't be listed.
func CompileKB(ctx context.Context, base kb.KnowledgeBase) (*wam.Program, error) {
	clauses, err := base.Clauses(ctx)
	if err != nil {
		return nil, errors.New("listing clauses: %w", err)
	}
	return Compile(clauses)
}

type predicate struct {
	key     logic.Literal
	arity   int
	clauses []*logic.Clause
}

func groupPredicates(clauses []*logic.Clause) ([]*predicate, error) {
	var preds []*predicate
	byKey := make(map[string]*predicate)
	for _, clause := range clauses {
		if clause.IsDenial() {
			continue
		}
		key := clause.Head.IndexKey()
		if key == nil {
			return nil, errors.New("head of %v: %w", clause, ErrVariableGoal)
		}
		k := logic.Key(key)
		pred, ok := byKey[k]
		if !ok {
			pred = &predicate{key: key, arity: len(clause.Head.Dependencies())}
			byKey[k] = pred
			preds = append(preds, pred)
		}
		pred.clauses = append(pred.clauses, clause)
	}
	return preds, nil
}

type compiler struct {
	arena *logic.Arena
	b     *wam.Builder
}

// compilePredicate writes the clauses of a predicate, chained by choice instructions
// if there's more than one.
func (c *compiler) compilePredicate(pred *predicate) error {
	if err := c.b.SetEntry(pred.key); err != nil {
		return err
	}
	var next wam.Label
	n := len(pred.clauses)
	for i, clause := range pred.clauses {
		switch {
		case n == 1:
		case i == 0:
			next = c.b.NewLabel()
			c.b.WriteLabel(wam.TryMeElse, next, pred.arity)
		case i < n-1:
			c.b.DefineLabel(next)
			next = c.b.NewLabel()
			c.b.WriteLabel(wam.RetryMeElse, next, 0)
		default:
			c.b.DefineLabel(next)
			c.b.Write(wam.TrustMe, 0, 0)
		}
		cc, err := newClauseCompiler(c.arena, c.b, clause)
		if err != nil {
			return err
		}
		cc.compile()
	}
	return nil
}

// ---- Clause compiler

type clauseCompiler struct {
	b     *wam.Builder
	head  logic.Goal
	goals []logic.Goal
	calls []logic.Literal

	numPerm int
	regs    map[logic.Variable]int
	used    regset
}

func newClauseCompiler(arena *logic.Arena, b *wam.Builder, clause *logic.Clause) (*clauseCompiler, error) {
	cc := &clauseCompiler{
		b:    b,
		head: logic.FlattenGoal(arena, clause.Head),
		regs: make(map[logic.Variable]int),
	}
	for _, lit := range clause.Body {
		if logic.Eq(lit, logic.True) {
			continue
		}
		if lit.IndexKey() == nil {
			return nil, errors.New("goal %v in %v: %w", lit, clause, ErrVariableGoal)
		}
		cc.goals = append(cc.goals, logic.FlattenGoal(arena, lit))
		cc.calls = append(cc.calls, lit)
	}
	positions := [][]logic.Assignment{cc.head.Assignments}
	for _, g := range cc.goals {
		positions = append(positions, g.Assignments)
	}
	cc.bindRegisters(PermanentVariables(positions))
	return cc, nil
}

// bindRegisters assigns a register to the target of every assignment.
func (cc *clauseCompiler) bindRegisters(perms []logic.Variable) {
	cc.numPerm = len(perms)
	varRegs := make(map[logic.Variable]int)
	for i, x := range perms {
		varRegs[x] = i
	}
	all := append([]logic.Goal{cc.head}, cc.goals...)
	maxArity := 0
	for _, g := range all {
		maxArity = max(maxArity, g.NumArguments)
	}
	next := cc.numPerm + maxArity
	for _, g := range all {
		for i, a := range g.Assignments {
			switch {
			case i < g.NumArguments:
				cc.regs[a.Target] = cc.numPerm + i
			case a.Kind == logic.VariableAssignment:
				x := a.Value.(logic.Variable)
				reg, ok := varRegs[x]
				if !ok {
					reg = next
					next++
					varRegs[x] = reg
				}
				cc.regs[a.Target] = reg
			default:
				cc.regs[a.Target] = next
				next++
			}
		}
	}
}

func (cc *clauseCompiler) reg(l logic.Literal) int {
	x, ok := l.(logic.Variable)
	if !ok {
		panic(fmt.Sprintf("clauseCompiler.reg: %v is not a variable", l))
	}
	reg, ok := cc.regs[x]
	if !ok {
		panic(fmt.Sprintf("clauseCompiler.reg: %v has no register", x))
	}
	return reg
}

// firstUse returns whether reg is being used for the first time in the clause,
// marking it as used.
func (cc *clauseCompiler) firstUse(reg int) bool {
	if cc.used.has(reg) {
		return false
	}
	cc.used = cc.used.add(reg)
	return true
}

func (cc *clauseCompiler) compile() {
	needsEnv := cc.numPerm > 0 || len(cc.goals) > 0
	if needsEnv {
		cc.b.Write(wam.Allocate, cc.numPerm, cc.head.NumArguments)
	}
	cc.compileHead()
	for i, g := range cc.goals {
		cc.compileGoal(g)
		key, arity := predicateKey(cc.calls[i])
		cc.b.WriteLiteral(wam.Call, key, arity, 0)
	}
	if needsEnv {
		cc.b.Write(wam.Deallocate, 0, 0)
	}
	cc.b.Write(wam.Proceed, 0, 0)
}

// compileHead writes match instructions for the head, reading terms before their args.
func (cc *clauseCompiler) compileHead() {
	for _, a := range logic.OrderMatch(cc.head.Assignments) {
		switch a.Kind {
		case logic.TermAssignment:
			name, arity := structKey(a)
			cc.b.WriteLiteral(wam.GetStructure, name, cc.reg(a.Target), arity)
			for _, dep := range a.Dependencies() {
				reg := cc.reg(dep)
				if cc.firstUse(reg) {
					cc.b.Write(wam.UnifyVariable, reg, 0)
				} else {
					cc.b.Write(wam.UnifyValue, reg, 0)
				}
			}
		case logic.ArgumentAssignment:
			reg, arg := cc.reg(a.Value), cc.reg(a.Target)
			if cc.firstUse(reg) {
				cc.b.Write(wam.GetVariable, reg, arg)
			} else {
				cc.b.Write(wam.GetValue, reg, arg)
			}
		}
	}
}

// compileGoal writes build instructions for the arguments of a goal, writing args
// before their terms.
func (cc *clauseCompiler) compileGoal(g logic.Goal) {
	for _, a := range logic.OrderBuild(g.Assignments) {
		switch a.Kind {
		case logic.TermAssignment:
			name, arity := structKey(a)
			target := cc.reg(a.Target)
			cc.b.WriteLiteral(wam.PutStructure, name, target, arity)
			for _, dep := range a.Dependencies() {
				reg := cc.reg(dep)
				if cc.firstUse(reg) {
					cc.b.Write(wam.SetVariable, reg, 0)
				} else {
					cc.b.Write(wam.SetValue, reg, 0)
				}
			}
			cc.used = cc.used.add(target)
		case logic.ArgumentAssignment:
			reg, arg := cc.reg(a.Value), cc.reg(a.Target)
			if cc.firstUse(reg) {
				cc.b.Write(wam.PutVariable, reg, arg)
			} else {
				cc.b.Write(wam.PutValue, reg, arg)
			}
		}
	}
}
