package logic

// Bindings is a substitution from variables to literals. It's never modified in place:
// Unify returns an extended copy.
type Bindings map[Variable]Literal

// Walk follows variable bindings on the top level of l.
func (b Bindings) Walk(l Literal) Literal {
	for {
		x, ok := l.(Variable)
		if !ok {
			return l
		}
		next, ok := b[x]
		if !ok {
			return l
		}
		l = next
	}
}

// Resolve replaces every bound variable within l by its value, recursively.
//
// Without an occurs check, a variable may be bound to a term containing itself. Such
// a variable is kept as is within its own value, so that X = f(X) resolves to f(X).
func (b Bindings) Resolve(l Literal) Literal {
	return b.resolve(l, make(map[Variable]bool))
}

func (b Bindings) resolve(l Literal, parents map[Variable]bool) Literal {
	var walked []Variable
	for {
		x, ok := l.(Variable)
		if !ok || parents[x] {
			break
		}
		next, ok := b[x]
		if !ok {
			break
		}
		walked = append(walked, x)
		l = next
	}
	deps := l.Dependencies()
	if len(deps) == 0 {
		return l
	}
	for _, x := range walked {
		parents[x] = true
	}
	args := make([]Literal, len(deps))
	for i, dep := range deps {
		args[i] = b.resolve(dep, parents)
	}
	for _, x := range walked {
		delete(parents, x)
	}
	return l.Rebuild(args)
}

func (b Bindings) clone() Bindings {
	c := make(Bindings, len(b)+1)
	for x, l := range b {
		c[x] = l
	}
	return c
}

// Unify returns the bindings that make x and y equal, extending b. There's no
// occurs check.
func Unify(x, y Literal, b Bindings) (Bindings, bool) {
	b = b.clone()
	stack := []Literal{x, y}
	for len(stack) > 0 {
		n := len(stack)
		l1, l2 := b.Walk(stack[n-2]), b.Walk(stack[n-1])
		stack = stack[:n-2]
		if Eq(l1, l2) {
			continue
		}
		if x1, ok := l1.(Variable); ok {
			b[x1] = l2
			continue
		}
		if x2, ok := l2.(Variable); ok {
			b[x2] = l1
			continue
		}
		if !Eq(l1.IndexKey(), l2.IndexKey()) {
			return nil, false
		}
		deps1, deps2 := l1.Dependencies(), l2.Dependencies()
		if len(deps1) != len(deps2) {
			return nil, false
		}
		for i := range deps1 {
			stack = append(stack, deps1[i], deps2[i])
		}
	}
	return b, true
}
