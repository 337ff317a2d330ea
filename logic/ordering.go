package logic

// OrderBuild sorts assignments so that subterms come before the terms that contain
// them. This is the order to write terms, since a term can't be written before its
// argument cells exist.
func OrderBuild(as []Assignment) []Assignment {
	byTarget := make(map[Variable]Assignment, len(as))
	for _, a := range as {
		byTarget[a.Target] = a
	}
	seen := make(map[Variable]struct{}, len(as))
	out := make([]Assignment, 0, len(as))
	stack := make([]Variable, len(as))
	for i, a := range as {
		stack[len(as)-1-i] = a.Target
	}
	for len(stack) > 0 {
		n := len(stack)
		x := stack[n-1]
		stack = stack[:n-1]
		if _, ok := seen[x]; ok {
			continue
		}
		a := byTarget[x]
		var pending []Variable
		for _, dep := range a.Dependencies() {
			y, ok := dep.(Variable)
			if !ok {
				continue
			}
			if _, ok := byTarget[y]; !ok {
				continue
			}
			if _, ok := seen[y]; !ok {
				pending = append(pending, y)
			}
		}
		if len(pending) == 0 {
			seen[x] = struct{}{}
			out = append(out, a)
			continue
		}
		// Revisit x after its dependencies.
		stack = append(stack, x)
		for i := len(pending) - 1; i >= 0; i-- {
			stack = append(stack, pending[i])
		}
	}
	return out
}

// OrderMatch sorts assignments so that terms come before their subterms. This is the
// order to read terms, since a structure must be opened before inspecting its
// arguments. It's the reverse of OrderBuild.
func OrderMatch(as []Assignment) []Assignment {
	out := OrderBuild(as)
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}
