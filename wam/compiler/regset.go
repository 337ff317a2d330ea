package compiler

import (
	"sort"
)

// regset is a set of register indices, implemented as a sorted array.
type regset []int

func (r regset) index(reg int) (int, bool) {
	i := sort.SearchInts(r, reg)
	return i, i < len(r) && r[i] == reg
}

func (r regset) has(reg int) bool {
	_, ok := r.index(reg)
	return ok
}

func (r regset) add(reg int) regset {
	i, ok := r.index(reg)
	if ok {
		return r
	}
	r = append(r, -1)
	copy(r[i+1:], r[i:])
	r[i] = reg
	return r
}
