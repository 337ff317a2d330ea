// Package test_helpers contains functions shared by tests of several packages.
package test_helpers

import (
	"strings"
)

func numSpaces(s string) int {
	return len(s) - len(strings.TrimLeft(s, " "))
}

// Dedent removes common whitespace of each line. Useful to remove indentation that is
// present only because of a `backtick` string indentation level.
func Dedent(s string) string {
	lines := strings.Split(s, "\n")
	minSpaces := len(s)
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if n := numSpaces(line); n < minSpaces {
			minSpaces = n
		}
	}
	for i, line := range lines {
		if len(line) >= minSpaces {
			lines[i] = line[minSpaces:]
		} else {
			lines[i] = strings.TrimLeft(line, " ")
		}
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
