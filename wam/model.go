// Package wam implements an interpreter for a Warren Abstract Machine.
//
// The WAM is a specification to implement a register-based Prolog machine,
// that enjoys good performance and ease of translation to machine code.
//
// Compiled code is a flat array of instructions with integer operands. Terms
// live in a heap of cells addressed by integer handles, so that binding and
// dereferencing don't depend on Go pointers, and backtracking may discard every
// cell created after a choice point by truncating the heap.
//
// The machine is composed of a register file and two stacks: the
// environment (or AND-)stack, that stores permanent variables of clauses that
// make calls, and the choicepoint (or OR-)stack, that stores the sequence of
// possible alternate clauses to try on failure.
//
// Registers below the current frame base are the permanent variables of the
// current environment, and arguments are passed immediately above them. A call
// shifts its arguments to the bottom of the register file, and allocating an
// environment with n permanent variables shifts them back to start at n.
//
// Learn more in "Warren’s Abstract Machine: A tutorial reconstrution", Hassan Aït-Kici
package wam

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/brunokim/reason/logic"
)

// ---- Instructions

// Opcode identifies the operation of an instruction.
type Opcode byte

const (
	// Nothing does nothing.
	Nothing Opcode = iota

	// Build instructions, used to write the arguments of a call.

	// PutStructure starts writing a new structure into a register.
	PutStructure
	// SetVariable writes a fresh cell as next structure arg, and stores it in a register.
	SetVariable
	// SetValue writes the value of a register as next structure arg.
	SetValue
	// PutVariable stores a fresh cell in a variable register and an argument register.
	PutVariable
	// PutValue copies a variable register into an argument register.
	PutValue

	// Match instructions, used to unify the head of a clause with the call arguments.

	// GetStructure opens a structure in a register for reading, or starts writing one
	// if the register is unbound.
	GetStructure
	// UnifyVariable reads the next structure arg into a register, or writes a fresh one.
	UnifyVariable
	// UnifyValue unifies a register with the next structure arg, or writes it.
	UnifyValue
	// GetVariable copies an argument register into a variable register.
	GetVariable
	// GetValue unifies a variable register with an argument register.
	GetValue

	// Control instructions.

	// Call invokes a predicate, returning to the next instruction.
	Call
	// Proceed returns to the continuation register.
	Proceed
	// Allocate pushes an environment with permanent variables.
	Allocate
	// Deallocate pops the current environment.
	Deallocate
	// TryMeElse pushes a choice point to an alternative clause.
	TryMeElse
	// RetryMeElse updates the alternative of the current choice point.
	RetryMeElse
	// TrustMe discards the current choice point.
	TrustMe

	numOpcodes
)

var opcodeNames = [numOpcodes]string{
	Nothing:       "nop",
	PutStructure:  "put_struct",
	SetVariable:   "set_variable",
	SetValue:      "set_value",
	PutVariable:   "put_variable",
	PutValue:      "put_value",
	GetStructure:  "get_struct",
	UnifyVariable: "unify_variable",
	UnifyValue:    "unify_value",
	GetVariable:   "get_variable",
	GetValue:      "get_value",
	Call:          "call",
	Proceed:       "proceed",
	Allocate:      "allocate",
	Deallocate:    "deallocate",
	TryMeElse:     "try_me_else",
	RetryMeElse:   "retry_me_else",
	TrustMe:       "trust_me",
}

func (op Opcode) String() string {
	if op < numOpcodes {
		return opcodeNames[op]
	}
	return fmt.Sprintf("Opcode(%d)", int(op))
}

// Instruction is a single bytecode instruction.
//
// Operands by opcode:
//
//	put_struct, get_struct      Literal: name, Arg1: register, Arg2: arity
//	set_*, unify_*              Arg1: register
//	put_*, get_variable/value   Arg1: variable register, Arg2: argument register
//	call                        Literal: predicate key, Arg1: arity
//	allocate                    Arg1: permanent vars, Arg2: arguments
//	try_me_else                 Arg1: relative address of alternative, Arg2: arity
//	retry_me_else               Arg1: relative address of alternative
type Instruction struct {
	Op      Opcode
	Literal int
	Arg1    int
	Arg2    int
}

func (ins Instruction) format(lit string) string {
	switch ins.Op {
	case PutStructure, GetStructure:
		return fmt.Sprintf("%v %s, X%d", ins.Op, lit, ins.Arg1)
	case SetVariable, SetValue, UnifyVariable, UnifyValue:
		return fmt.Sprintf("%v X%d", ins.Op, ins.Arg1)
	case PutVariable, PutValue, GetVariable, GetValue:
		return fmt.Sprintf("%v X%d, X%d", ins.Op, ins.Arg1, ins.Arg2)
	case Call:
		return fmt.Sprintf("%v %s", ins.Op, lit)
	case Allocate:
		return fmt.Sprintf("%v %d, %d", ins.Op, ins.Arg1, ins.Arg2)
	case TryMeElse, RetryMeElse:
		return fmt.Sprintf("%v %+d", ins.Op, ins.Arg1)
	default:
		return ins.Op.String()
	}
}

func (ins Instruction) String() string {
	return ins.format(fmt.Sprintf("#%d", ins.Literal))
}

// ---- Stack frames

// Env represents an AND-stack frame with the environment associated to a call.
type Env struct {
	// Previous environment.
	Prev *Env
	// Continuation of the caller, restored on deallocate.
	Continuation int
	// Permanent vars stored in stack to survive between calls.
	PermanentVars []Ref
}

// ChoicePoint represents an OR-stack frame with the state associated to an alternative code path.
type ChoicePoint struct {
	// Previous choice point.
	Prev *ChoicePoint
	// Next clause to try.
	NextAlternative int

	// Machine state to restore.
	Args         []Ref
	TrailSize    int
	HeapSize     int
	Env          *Env
	Continuation int
	Base         int
}

// UnificationMode is an enum for the current machine's read or write unification approach.
type UnificationMode int

const (
	Read UnificationMode = iota
	Write
)

func (mode UnificationMode) String() string {
	if mode == Write {
		return "write"
	}
	return "read"
}

// Machine represents an abstract machine state.
//
// A machine is owned by a single query and must not be shared between goroutines.
type Machine struct {
	// Frozen program being executed.
	Program *Program

	// Current instruction index.
	CodePtr int

	// Address to return to on proceed, set by call.
	Continuation int

	// Register file, sized to the program's number of registers.
	Reg []Ref

	// Number of registers at the bottom of the register file that hold the
	// permanent variables of Env.
	Base int

	// Cells referenced by registers, environments and structures.
	Heap Heap

	// Trail of cells that may need to be unbound on backtrack.
	Trail []Ref

	// Read or write mode for term unification.
	Mode UnificationMode

	// Current structure being read or written, and the index of its next arg.
	Compound Ref
	ArgIndex int

	// Latest environment.
	Env *Env

	// Latest choice point.
	ChoicePoint *ChoicePoint

	// Limit of iterations to run per solution.
	IterLimit int

	logger    *zap.Logger
	tracer    *tracer
	interrupt <-chan struct{}

	// Heap and trail sizes when the current call started, restored when it
	// has no more solutions.
	baseHeap, baseTrail int

	// Debugging info: annotate calls that failed.
	hasBacktracked bool
}

func formatRefs(h *Heap, refs []Ref) string {
	if len(refs) == 0 {
		return ""
	}
	xs := make([]string, len(refs))
	for i, ref := range refs {
		xs[i] = fmt.Sprintf("#%d: %s", i, h.format(ref))
	}
	return "\n\t" + strings.Join(xs, "\n\t")
}

func indent(s string) string {
	return "\t" + strings.ReplaceAll(s, "\n", "\n\t")
}

func (m *Machine) String() string {
	var envs []string
	for env := m.Env; env != nil; env = env.Prev {
		envs = append(envs, indent(fmt.Sprintf("%% %p\ncontinuation: %d\nvars:%s",
			env, env.Continuation, formatRefs(&m.Heap, env.PermanentVars))))
	}
	var cpts []string
	for cpt := m.ChoicePoint; cpt != nil; cpt = cpt.Prev {
		cpts = append(cpts, indent(fmt.Sprintf("%% %p\nenv: %p\nheap_size: %d\ntrail_size: %d\nnext_alternative: %d\nargs:%s",
			cpt, cpt.Env, cpt.HeapSize, cpt.TrailSize, cpt.NextAlternative, formatRefs(&m.Heap, cpt.Args))))
	}
	return fmt.Sprintf(`%% %p
code_ptr: %d
continuation: %d
base: %d
registers:%s
trail: %d
unification_mode: %v
compound_term: %s
arg_index: %d
environments:
%s
choice_points:
%s`,
		m, m.CodePtr, m.Continuation, m.Base, formatRefs(&m.Heap, m.Reg), len(m.Trail), m.Mode,
		m.Heap.format(m.Compound), m.ArgIndex, strings.Join(envs, "\n"), strings.Join(cpts, "\n"))
}

// ---- Capabilities

// BuildOps are the operations used to write call arguments.
type BuildOps interface {
	PutStructure(name logic.Literal, arity, reg int)
	SetVariable(reg int)
	SetValue(reg int)
	PutVariable(reg, arg int)
	PutValue(reg, arg int)
}

// MatchOps are the operations used to unify a clause head with call arguments. They
// return false if unification fails.
type MatchOps interface {
	GetStructure(name logic.Literal, arity, reg int) bool
	UnifyVariable(reg int)
	UnifyValue(reg int) bool
	GetVariable(reg, arg int)
	GetValue(reg, arg int) bool
}

var (
	_ BuildOps = (*Machine)(nil)
	_ MatchOps = (*Machine)(nil)
)
