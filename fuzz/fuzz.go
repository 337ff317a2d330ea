// Package fuzz is an entry point for go-fuzz over the parser.
package fuzz

import (
	"github.com/brunokim/reason/dsl"
	"github.com/brunokim/reason/logic"
	"github.com/brunokim/reason/parser"
)

// Fuzz returns 1 if data parses, so that the fuzzer favors valid programs.
func Fuzz(data []byte) int {
	s := dsl.NewScope(logic.NewArena())
	if _, err := parser.New(s).Parse(string(data)); err != nil {
		return 0
	}
	return 1
}
