package test_helpers

import (
	"github.com/brunokim/reason/logic"

	"github.com/google/go-cmp/cmp"
)

var (
	// EqLiterals compares literals with logic.Eq, that is, atoms and variables by
	// identity and terms structurally.
	EqLiterals = cmp.Options{
		cmp.Comparer(func(l1, l2 logic.Literal) bool { return logic.Eq(l1, l2) }),
	}
)
