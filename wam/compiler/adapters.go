package compiler

import (
	"fmt"

	"github.com/brunokim/reason/logic"
)

// predicateKey returns the key and arity that identify the predicate called by lit.
func predicateKey(lit logic.Literal) (logic.Literal, int) {
	key := lit.IndexKey()
	if key == nil {
		panic(fmt.Sprintf("predicateKey: variable %v has no key", lit))
	}
	return key, len(lit.Dependencies())
}

// structKey returns the name and arity written by a term assignment.
func structKey(a logic.Assignment) (logic.Literal, int) {
	return a.Value.IndexKey(), len(a.Value.Dependencies())
}
