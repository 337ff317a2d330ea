package logic

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

func firstRune(s string) (rune, bool) {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError && size < 2 {
		return 0, false
	}
	return r, true
}

// IsIdent returns whether ch may appear in an unquoted atom or variable name.
func IsIdent(ch rune) bool {
	return ch == '_' || unicode.IsLetter(ch) || unicode.IsDigit(ch)
}

func isIdents(text string) bool {
	for _, ch := range text {
		if !IsIdent(ch) {
			return false
		}
	}
	return true
}

// IsVarFirst returns whether ch starts a variable name.
func IsVarFirst(ch rune) bool {
	return ch == '_' || unicode.IsUpper(ch)
}

// IsVar returns whether text is a valid variable name.
func IsVar(text string) bool {
	ch, ok := firstRune(text)
	if !ok || !IsVarFirst(ch) {
		return false
	}
	return isIdents(text)
}

var escapeChars = map[rune]string{
	'\n': "\\n",
	'\t': "\\t",
	'\v': "\\v",
	'\f': "\\f",
	'\r': "\\r",
	'"':  "\\\"",
	'\\': "\\\\",
}

// FormatAtom returns the atom name as it should be written to be read back, quoting
// it if necessary.
func FormatAtom(text string) string {
	ch, ok := firstRune(text)
	if ok && !IsVarFirst(ch) && isIdents(text) {
		return text
	}
	var b strings.Builder
	b.WriteRune('"')
	for _, ch := range text {
		if exp, ok := escapeChars[ch]; ok {
			b.WriteString(exp)
		} else {
			b.WriteRune(ch)
		}
	}
	b.WriteRune('"')
	return b.String()
}
