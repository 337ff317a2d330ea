package wam

import (
	"encoding/json"
	"io"
)

// tracer writes the machine state as JSON lines. The first line holds the program,
// and each following line the state after one instruction.
type tracer struct {
	enc     *json.Encoder
	step    int
	started bool
	err     error
}

func newTracer(w io.Writer) *tracer {
	return &tracer{enc: json.NewEncoder(w)}
}

func (t *tracer) write(m *Machine, ins Instruction) {
	if t == nil || t.err != nil {
		return
	}
	if !t.started {
		t.started = true
		t.encode(m.encodeProgram())
	}
	t.step++
	obj := newMachineEncoder(m).machine()
	obj["Step"] = t.step
	obj["Instr"] = m.Program.Format(ins)
	t.encode(obj)
}

func (t *tracer) encode(obj any) {
	if err := t.enc.Encode(obj); err != nil {
		t.err = err
	}
}

func (m *Machine) encodeProgram() map[string]any {
	code := make([]string, len(m.Program.Code))
	for i, ins := range m.Program.Code {
		code[i] = m.Program.Format(ins)
	}
	return map[string]any{
		"Code":         code,
		"NumRegisters": m.Program.NumRegisters,
	}
}

type machineEncoder struct {
	m         *Machine
	envPos    map[*Env]int
	choicePos map[*ChoicePoint]int
	envs      []*Env
	choices   []*ChoicePoint
}

func newMachineEncoder(m *Machine) *machineEncoder {
	enc := &machineEncoder{m: m}
	// Choices
	enc.choicePos = choicePositions(m.ChoicePoint)
	enc.choices = make([]*ChoicePoint, len(enc.choicePos))
	for choice, i := range enc.choicePos {
		enc.choices[i] = choice
	}
	// Envs
	envs := []*Env{m.Env}
	for _, choice := range enc.choices {
		envs = append(envs, choice.Env)
	}
	enc.envPos = envPositions(envs)
	enc.envs = make([]*Env, len(enc.envPos))
	for env, i := range enc.envPos {
		enc.envs[i] = env
	}
	return enc
}

func (enc *machineEncoder) machine() map[string]any {
	m := enc.m
	return map[string]any{
		"CodePtr":      m.CodePtr,
		"Continuation": m.Continuation,
		"Base":         m.Base,
		"Reg":          enc.refs(m.Reg),
		"Trail":        enc.refs(m.Trail),
		"HeapSize":     m.Heap.Len(),
		"Mode":         m.Mode.String(),
		"Compound":     m.Heap.format(m.Compound),
		"ArgIndex":     m.ArgIndex,
		"EnvPos":       enc.getEnvPos(m.Env),
		"Envs":         enc.envs_(),
		"ChoicePos":    enc.getChoicePos(m.ChoicePoint),
		"ChoicePoints": enc.choices_(),
		"Backtracked":  m.hasBacktracked,
	}
}

func (enc *machineEncoder) refs(refs []Ref) []string {
	s := make([]string, len(refs))
	for i, ref := range refs {
		s[i] = enc.m.Heap.format(ref)
	}
	return s
}

func (enc *machineEncoder) getEnvPos(env *Env) any {
	pos, ok := enc.envPos[env]
	if !ok {
		return nil
	}
	return pos
}

func (enc *machineEncoder) getChoicePos(choice *ChoicePoint) any {
	pos, ok := enc.choicePos[choice]
	if !ok {
		return nil
	}
	return pos
}

func choicePositions(choicePoint *ChoicePoint) map[*ChoicePoint]int {
	id := 0
	m := make(map[*ChoicePoint]int)
	for choicePoint != nil {
		m[choicePoint] = id
		id++
		choicePoint = choicePoint.Prev
	}
	return m
}

func envPositions(stack []*Env) map[*Env]int {
	idxs := make(map[*Env]int)
	id := 0
	for len(stack) > 0 {
		var env *Env
		env, stack = stack[0], stack[1:]
		if _, ok := idxs[env]; ok || env == nil {
			continue
		}
		idxs[env] = id
		id++
		stack = append([]*Env{env.Prev}, stack...)
	}
	return idxs
}

func (enc *machineEncoder) envs_() []any {
	s := make([]any, len(enc.envs))
	for i, env := range enc.envs {
		s[i] = map[string]any{
			"PrevPos":       enc.getEnvPos(env.Prev),
			"Continuation":  env.Continuation,
			"PermanentVars": enc.refs(env.PermanentVars),
		}
	}
	return s
}

func (enc *machineEncoder) choices_() []any {
	s := make([]any, len(enc.choices))
	for i, choice := range enc.choices {
		s[i] = map[string]any{
			"PrevPos":         enc.getChoicePos(choice.Prev),
			"NextAlternative": choice.NextAlternative,
			"Args":            enc.refs(choice.Args),
			"TrailSize":       choice.TrailSize,
			"HeapSize":        choice.HeapSize,
			"EnvPos":          enc.getEnvPos(choice.Env),
			"Continuation":    choice.Continuation,
			"Base":            choice.Base,
		}
	}
	return s
}
