package wam

import (
	"io"
	"math"

	"go.uber.org/zap"

	"github.com/brunokim/reason/errors"
	"github.com/brunokim/reason/logic"
)

var (
	// ErrIterLimit is returned when a solution takes more steps than the machine's IterLimit.
	ErrIterLimit = errors.Sentinel("iteration limit reached")
	// ErrUnknownOpcode is returned when executing an instruction with an invalid opcode.
	ErrUnknownOpcode = errors.Sentinel("unknown opcode")
	// ErrInvalidAddress is returned when the code pointer leaves the program.
	ErrInvalidAddress = errors.Sentinel("invalid code address")
	// ErrNoEnvironment is returned when deallocating the root environment.
	ErrNoEnvironment = errors.Sentinel("no environment to deallocate")
	// ErrInterrupted is returned when the interrupt channel is closed while running.
	ErrInterrupted = errors.Sentinel("interrupted")
	// ErrUndefinedLabel is returned when finishing a program with a label that was
	// referenced but never defined.
	ErrUndefinedLabel = errors.Sentinel("undefined label")
)

// halt is the continuation of the root environment. Proceeding to it means that the
// called predicate succeeded.
const halt = -1

// Option configures a Machine.
type Option func(*Machine)

// WithIterLimit sets the maximum number of instructions executed per solution.
func WithIterLimit(n int) Option {
	return func(m *Machine) { m.IterLimit = n }
}

// WithLogger sets the logger for calls and backtracking.
func WithLogger(logger *zap.Logger) Option {
	return func(m *Machine) { m.logger = logger }
}

// WithTrace writes the machine state after every instruction to w, as JSON lines.
func WithTrace(w io.Writer) Option {
	return func(m *Machine) { m.tracer = newTracer(w) }
}

// WithInterrupt stops the machine with ErrInterrupted when done is closed. The channel
// is polled every few hundred instructions.
func WithInterrupt(done <-chan struct{}) Option {
	return func(m *Machine) { m.interrupt = done }
}

const interruptPeriod = 256

// NewMachine returns a machine to run the program.
func NewMachine(p *Program, opts ...Option) *Machine {
	m := &Machine{
		Program:   p,
		Reg:       make([]Ref, p.NumRegisters),
		IterLimit: math.MaxInt32,
		logger:    zap.NewNop(),
	}
	m.Heap.init()
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Call invokes the predicate identified by key with the given argument cells, and
// returns a function to fetch solutions.
//
// Each invocation of the returned function searches for the next solution, returning
// true if one was found. Bindings of a solution may be read from the arguments with
// Resolve, and are valid until the next invocation. When there are no more
// solutions, every binding made to the arguments is undone and it returns false.
//
// Calling an undefined predicate has no solutions.
func (m *Machine) Call(key logic.Literal, args ...Ref) func() (bool, error) {
	entry, ok := m.Program.Entry(key)
	if !ok {
		m.logger.Debug("undefined predicate", zap.Stringer("key", key))
		return func() (bool, error) { return false, nil }
	}
	var started, done bool
	return func() (bool, error) {
		if done {
			return false, nil
		}
		if !started {
			started = true
			m.start(entry, args)
		} else if !m.backtrack() {
			m.exhaust()
			done = true
			return false, nil
		}
		ok, err := m.run()
		if err != nil || !ok {
			m.exhaust()
			done = true
		}
		return ok, err
	}
}

func (m *Machine) start(entry int, args []Ref) {
	if len(m.Reg) < len(args) {
		m.Reg = append(m.Reg, make([]Ref, len(args)-len(m.Reg))...)
	}
	copy(m.Reg, args)
	m.CodePtr = entry
	m.Base = 0
	m.Env = &Env{Continuation: halt}
	m.Continuation = halt
	m.ChoicePoint = nil
	m.baseHeap = m.Heap.Len()
	m.baseTrail = len(m.Trail)
}

// exhaust undoes every binding made since the call started.
func (m *Machine) exhaust() {
	m.unwindTrail(m.baseTrail)
	m.Heap.truncate(m.baseHeap)
	m.ChoicePoint = nil
	m.logger.Debug("no more solutions")
}

// run executes instructions until the called predicate succeeds or every
// alternative fails.
func (m *Machine) run() (bool, error) {
	for i := 0; ; i++ {
		if m.CodePtr == halt {
			return true, nil
		}
		if i >= m.IterLimit {
			return false, errors.New("%w (%d)", ErrIterLimit, m.IterLimit)
		}
		if i%interruptPeriod == 0 && m.interrupted() {
			return false, errors.New("%w @ step %d", ErrInterrupted, i)
		}
		if m.CodePtr < 0 || m.CodePtr >= len(m.Program.Code) {
			return false, errors.New("%w: %d", ErrInvalidAddress, m.CodePtr)
		}
		ins := m.Program.Code[m.CodePtr]
		m.hasBacktracked = false
		ok, err := m.execute(ins)
		if err != nil {
			return false, errors.New("@%d %s: %w", m.CodePtr, m.Program.Format(ins), err)
		}
		if !ok && !m.backtrack() {
			return false, nil
		}
		m.tracer.write(m, ins)
	}
}

func (m *Machine) interrupted() bool {
	select {
	case <-m.interrupt:
		return true
	default:
		return false
	}
}

func (m *Machine) set(reg int, ref Ref) {
	m.Reg[reg] = ref
	if reg < m.Base {
		m.Env.PermanentVars[reg] = ref
	}
}

func (m *Machine) execute(ins Instruction) (bool, error) {
	addr := m.CodePtr
	m.CodePtr++
	switch ins.Op {
	case Nothing:
	case PutStructure:
		m.PutStructure(m.Program.Literals[ins.Literal], ins.Arg2, ins.Arg1)
	case SetVariable:
		m.SetVariable(ins.Arg1)
	case SetValue:
		m.SetValue(ins.Arg1)
	case PutVariable:
		m.PutVariable(ins.Arg1, ins.Arg2)
	case PutValue:
		m.PutValue(ins.Arg1, ins.Arg2)
	case GetStructure:
		return m.GetStructure(m.Program.Literals[ins.Literal], ins.Arg2, ins.Arg1), nil
	case UnifyVariable:
		m.UnifyVariable(ins.Arg1)
	case UnifyValue:
		return m.UnifyValue(ins.Arg1), nil
	case GetVariable:
		m.GetVariable(ins.Arg1, ins.Arg2)
	case GetValue:
		return m.GetValue(ins.Arg1, ins.Arg2), nil
	case Call:
		return m.call(ins.Literal, ins.Arg1), nil
	case Proceed:
		m.proceed()
	case Allocate:
		m.allocate(ins.Arg1, ins.Arg2)
	case Deallocate:
		return true, m.deallocate()
	case TryMeElse:
		m.ChoicePoint = &ChoicePoint{
			Prev:            m.ChoicePoint,
			NextAlternative: addr + ins.Arg1,
			Args:            append([]Ref(nil), m.Reg[m.Base:m.Base+ins.Arg2]...),
			TrailSize:       len(m.Trail),
			HeapSize:        m.Heap.Len(),
			Env:             m.Env,
			Continuation:    m.Continuation,
			Base:            m.Base,
		}
	case RetryMeElse:
		m.ChoicePoint.NextAlternative = addr + ins.Arg1
	case TrustMe:
		m.ChoicePoint = m.ChoicePoint.Prev
	default:
		return false, errors.New("%w: %v", ErrUnknownOpcode, ins.Op)
	}
	return true, nil
}

// ---- Build operations

// PutStructure writes a new structure into reg, whose args will be filled by
// the following set instructions.
func (m *Machine) PutStructure(name logic.Literal, arity, reg int) {
	ref := m.Heap.NewStructure(name, arity)
	m.set(reg, ref)
	m.Compound, m.ArgIndex, m.Mode = ref, 0, Write
}

// SetVariable writes a fresh cell as the next structure arg, and stores it in reg.
func (m *Machine) SetVariable(reg int) {
	x := m.Heap.NewVariable()
	m.setArg(x)
	m.set(reg, x)
}

// SetValue writes the cell in reg as the next structure arg.
func (m *Machine) SetValue(reg int) {
	m.setArg(m.Reg[reg])
}

// PutVariable stores a fresh cell both in reg and arg.
func (m *Machine) PutVariable(reg, arg int) {
	x := m.Heap.NewVariable()
	m.set(reg, x)
	m.set(arg, x)
}

// PutValue copies reg into arg.
func (m *Machine) PutValue(reg, arg int) {
	m.set(arg, m.Reg[reg])
}

func (m *Machine) setArg(ref Ref) {
	m.Heap.Args(m.Compound)[m.ArgIndex] = ref
	m.ArgIndex++
}

// ---- Match operations

// GetStructure opens the structure in reg for reading, if it has the expected name
// and arity. If reg is unbound, a new structure is bound to it and opened for writing.
func (m *Machine) GetStructure(name logic.Literal, arity, reg int) bool {
	ref := m.Heap.Deref(m.Reg[reg])
	switch m.Heap.Tag(ref) {
	case Unbound:
		s := m.Heap.NewStructure(name, arity)
		m.bind(ref, s)
		m.Compound, m.ArgIndex, m.Mode = s, 0, Write
		return true
	case Structure:
		if len(m.Heap.Args(ref)) != arity || !logic.Eq(m.Heap.Name(ref), name) {
			return false
		}
		m.Compound, m.ArgIndex, m.Mode = ref, 0, Read
		return true
	}
	return false
}

// UnifyVariable stores the next structure arg in reg. In write mode, the arg is a
// fresh cell.
func (m *Machine) UnifyVariable(reg int) {
	if m.Mode == Write {
		m.SetVariable(reg)
		return
	}
	m.set(reg, m.Heap.Args(m.Compound)[m.ArgIndex])
	m.ArgIndex++
}

// UnifyValue unifies reg with the next structure arg. In write mode, reg is written
// as the arg.
func (m *Machine) UnifyValue(reg int) bool {
	if m.Mode == Write {
		m.SetValue(reg)
		return true
	}
	arg := m.Heap.Args(m.Compound)[m.ArgIndex]
	m.ArgIndex++
	return m.unify(m.Reg[reg], arg)
}

// GetVariable copies arg into reg.
func (m *Machine) GetVariable(reg, arg int) {
	m.set(reg, m.Reg[arg])
}

// GetValue unifies reg with arg.
func (m *Machine) GetValue(reg, arg int) bool {
	return m.unify(m.Reg[reg], m.Reg[arg])
}

// ---- Control

func (m *Machine) call(keyID, arity int) bool {
	entry, ok := m.Program.entry(keyID)
	if !ok {
		m.logger.Debug("undefined predicate", zap.Stringer("key", m.Program.Literals[keyID]))
		return false
	}
	copy(m.Reg[:arity], m.Reg[m.Base:m.Base+arity])
	m.Continuation = m.CodePtr
	m.Base = 0
	m.CodePtr = entry
	return true
}

func (m *Machine) proceed() {
	m.CodePtr = m.Continuation
	m.Base = copy(m.Reg, m.Env.PermanentVars)
}

// allocate pushes an environment with n permanent variables, moving the a arguments
// to start at register n. Every other register gets a fresh cell. The environment
// saves the continuation, that is restored on deallocate.
func (m *Machine) allocate(n, a int) {
	env := &Env{Prev: m.Env, Continuation: m.Continuation, PermanentVars: make([]Ref, n)}
	switch base := m.Base; {
	case n > base:
		// Grow: move from the top so that no argument is overwritten before being read.
		for i := a - 1; i >= 0; i-- {
			m.Reg[n+i] = m.Reg[base+i]
		}
	case n < base:
		// Shrink: move from the bottom.
		for i := 0; i < a; i++ {
			m.Reg[n+i] = m.Reg[base+i]
		}
	}
	for i := 0; i < n; i++ {
		x := m.Heap.NewVariable()
		m.Reg[i] = x
		env.PermanentVars[i] = x
	}
	m.freshen(n + a)
	m.Env = env
	m.Base = n
}

func (m *Machine) deallocate() error {
	popped := m.Env
	if popped.Prev == nil {
		return ErrNoEnvironment
	}
	m.Env = popped.Prev
	m.Continuation = popped.Continuation
	k := copy(m.Reg, m.Env.PermanentVars)
	for i := k; i < len(popped.PermanentVars); i++ {
		m.Reg[i] = m.Heap.NewVariable()
	}
	m.Base = k
	return nil
}

// freshen puts fresh cells in registers from start onwards.
func (m *Machine) freshen(start int) {
	for i := start; i < len(m.Reg); i++ {
		m.Reg[i] = m.Heap.NewVariable()
	}
}

// backtrack restores the state saved by the latest choice point, and jumps to its
// alternative. It returns false if there are no choice points.
func (m *Machine) backtrack() bool {
	cp := m.ChoicePoint
	if cp == nil {
		return false
	}
	m.unwindTrail(cp.TrailSize)
	m.Heap.truncate(cp.HeapSize)
	m.Env = cp.Env
	m.Continuation = cp.Continuation
	copy(m.Reg[:cp.Base], m.Env.PermanentVars)
	copy(m.Reg[cp.Base:], cp.Args)
	m.Base = cp.Base
	m.CodePtr = cp.NextAlternative
	m.hasBacktracked = true
	m.logger.Debug("backtrack", zap.Int("alternative", cp.NextAlternative))
	return true
}
