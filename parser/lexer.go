package parser

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/brunokim/reason/logic"
)

// Pos is a position in the source text. Lines and columns start at 1.
type Pos struct {
	Line, Col int
}

func (p Pos) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Col)
}

// Error is a syntax error at a position.
type Error struct {
	Pos Pos
	Msg string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%v: %s", e.Pos, e.Msg)
}

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokAtom
	tokQuoted
	tokVar
	tokParenL
	tokParenR
	tokComma
	tokPeriod
	tokNeck
	tokQuery
)

var tokenNames = map[tokenKind]string{
	tokEOF:    "end of input",
	tokAtom:   "atom",
	tokQuoted: "quoted atom",
	tokVar:    "variable",
	tokParenL: "'('",
	tokParenR: "')'",
	tokComma:  "','",
	tokPeriod: "'.'",
	tokNeck:   "':-'",
	tokQuery:  "'?-'",
}

func (k tokenKind) String() string {
	return tokenNames[k]
}

type token struct {
	kind tokenKind
	val  string
	pos  Pos
}

func (t token) String() string {
	switch t.kind {
	case tokAtom, tokVar:
		return fmt.Sprintf("%v %s", t.kind, t.val)
	case tokQuoted:
		return fmt.Sprintf("%v %s", t.kind, logic.FormatAtom(t.val))
	}
	return t.kind.String()
}

const eof = -1

// lexer splits text into tokens, skipping whitespace and comments.
type lexer struct {
	input []rune
	i     int
	pos   Pos
}

func newLexer(text string) *lexer {
	return &lexer{input: []rune(text), pos: Pos{1, 1}}
}

func (l *lexer) peek() rune {
	if l.i >= len(l.input) {
		return eof
	}
	return l.input[l.i]
}

func (l *lexer) peekAt(n int) rune {
	if l.i+n >= len(l.input) {
		return eof
	}
	return l.input[l.i+n]
}

func (l *lexer) advance() rune {
	r := l.peek()
	if r == eof {
		return r
	}
	l.i++
	if r == '\n' {
		l.pos.Line++
		l.pos.Col = 1
	} else {
		l.pos.Col++
	}
	return r
}

func (l *lexer) errorf(pos Pos, format string, args ...any) error {
	return &Error{Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

func (l *lexer) skipSpace() {
	for {
		r := l.peek()
		switch {
		case r == '%':
			for r != '\n' && r != eof {
				r = l.advance()
			}
		case r != eof && unicode.IsSpace(r):
			l.advance()
		default:
			return
		}
	}
}

// endsClause returns whether r may follow the period that ends a clause.
func endsClause(r rune) bool {
	return r == eof || r == '%' || unicode.IsSpace(r)
}

func (l *lexer) next() (token, error) {
	l.skipSpace()
	pos := l.pos
	emit := func(kind tokenKind, val string) (token, error) {
		return token{kind: kind, val: val, pos: pos}, nil
	}
	r := l.peek()
	switch {
	case r == eof:
		return emit(tokEOF, "")
	case r == '(':
		l.advance()
		return emit(tokParenL, "(")
	case r == ')':
		l.advance()
		return emit(tokParenR, ")")
	case r == ',':
		l.advance()
		return emit(tokComma, ",")
	case r == '.':
		l.advance()
		if !endsClause(l.peek()) {
			return token{}, l.errorf(pos, "'.' must be followed by whitespace or end of input")
		}
		return emit(tokPeriod, ".")
	case (r == ':' || r == '?') && l.peekAt(1) == '-':
		l.advance()
		l.advance()
		if r == ':' {
			return emit(tokNeck, ":-")
		}
		return emit(tokQuery, "?-")
	case r == '\'' || r == '"':
		text, err := l.quoted()
		if err != nil {
			return token{}, err
		}
		return emit(tokQuoted, text)
	case logic.IsVarFirst(r):
		return emit(tokVar, l.ident())
	case logic.IsIdent(r):
		return emit(tokAtom, l.ident())
	}
	return token{}, l.errorf(pos, "unexpected character %q", r)
}

func (l *lexer) ident() string {
	var b strings.Builder
	for logic.IsIdent(l.peek()) {
		b.WriteRune(l.advance())
	}
	return b.String()
}

var unescapeChars = map[rune]rune{
	'n':  '\n',
	't':  '\t',
	'v':  '\v',
	'f':  '\f',
	'r':  '\r',
	'"':  '"',
	'\'': '\'',
	'\\': '\\',
}

// quoted reads an atom between single or double quotes. A quote is escaped with a
// backslash, or by doubling it.
func (l *lexer) quoted() (string, error) {
	start := l.pos
	delim := l.advance()
	var b strings.Builder
	for {
		pos := l.pos
		r := l.advance()
		switch r {
		case eof, '\n':
			return "", l.errorf(start, "unterminated quoted atom")
		case delim:
			if l.peek() != delim {
				return b.String(), nil
			}
			b.WriteRune(l.advance())
		case '\\':
			esc := l.advance()
			ch, ok := unescapeChars[esc]
			if !ok {
				return "", l.errorf(pos, "unknown escape sequence \\%c", esc)
			}
			b.WriteRune(ch)
		default:
			b.WriteRune(r)
		}
	}
}
