// Package parser reads clauses and queries written in a Prolog-like syntax.
//
//	% Comments run until the end of line.
//	parent(alice, bob).
//	ancestor(X, Y) :- parent(X, Y).
//	ancestor(X, Z) :- parent(X, Y), ancestor(Y, Z).
//	:- parent(X, X).
//	?- ancestor(alice, Who).
//
// Atoms start with a lowercase letter or digit, or are quoted with single or double
// quotes. Variables start with an uppercase letter or '_', and each '_' alone is a
// distinct variable. The atom true in a goal position is the truth literal.
//
// Literals are created by a dsl.Scope, so atoms and functors with the same name are
// the same literal across every text parsed with the same scope. Variables are
// scoped per clause or query.
package parser

import (
	"github.com/brunokim/reason/dsl"
	"github.com/brunokim/reason/logic"
)

// Program is the content of a source text.
type Program struct {
	// Clauses are facts, rules and denials, in order.
	Clauses []*logic.Clause
	// Queries are the goals of each '?-' directive, in order.
	Queries [][]logic.Literal
}

// Parser creates literals within a scope. It's not safe for concurrent use.
type Parser struct {
	scope *dsl.Scope
}

// New returns a parser creating literals in scope.
func New(scope *dsl.Scope) *Parser {
	return &Parser{scope: scope}
}

// Parse reads a sequence of clauses and queries, each terminated by a period.
func (p *Parser) Parse(text string) (*Program, error) {
	st, err := p.start(text)
	if err != nil {
		return nil, err
	}
	prog := new(Program)
	for st.tok.kind != tokEOF {
		p.scope.NewClause()
		clause, query, err := st.clause()
		if err != nil {
			return nil, err
		}
		if clause != nil {
			prog.Clauses = append(prog.Clauses, clause)
		} else {
			prog.Queries = append(prog.Queries, query)
		}
	}
	return prog, nil
}

// ParseClauses reads a sequence of clauses. Queries are not allowed.
func (p *Parser) ParseClauses(text string) ([]*logic.Clause, error) {
	st, err := p.start(text)
	if err != nil {
		return nil, err
	}
	var clauses []*logic.Clause
	for st.tok.kind != tokEOF {
		p.scope.NewClause()
		if st.tok.kind == tokQuery {
			return nil, st.errorf("unexpected query in clauses")
		}
		clause, _, err := st.clause()
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, clause)
	}
	return clauses, nil
}

// ParseQuery reads a conjunction of goals, optionally preceded by '?-' and
// followed by a period. The query variables are available in the scope afterwards.
func (p *Parser) ParseQuery(text string) ([]logic.Literal, error) {
	p.scope.NewClause()
	st, err := p.start(text)
	if err != nil {
		return nil, err
	}
	if st.tok.kind == tokQuery {
		if err := st.advance(); err != nil {
			return nil, err
		}
	}
	goals, err := st.goals()
	if err != nil {
		return nil, err
	}
	if st.tok.kind == tokPeriod {
		if err := st.advance(); err != nil {
			return nil, err
		}
	}
	if err := st.expect(tokEOF); err != nil {
		return nil, err
	}
	return goals, nil
}

// state holds the lookahead token for a single parse.
type state struct {
	scope *dsl.Scope
	lex   *lexer
	tok   token
}

func (p *Parser) start(text string) (*state, error) {
	st := &state{scope: p.scope, lex: newLexer(text)}
	if err := st.advance(); err != nil {
		return nil, err
	}
	return st, nil
}

func (st *state) advance() error {
	tok, err := st.lex.next()
	if err != nil {
		return err
	}
	st.tok = tok
	return nil
}

func (st *state) errorf(format string, args ...any) error {
	return st.lex.errorf(st.tok.pos, format, args...)
}

// expect consumes a token of the given kind.
func (st *state) expect(kind tokenKind) error {
	if st.tok.kind != kind {
		return st.errorf("expected %v, got %v", kind, st.tok)
	}
	if kind == tokEOF {
		return nil
	}
	return st.advance()
}

// clause reads a clause or a query up to its period. Only one of the results is
// non-nil.
func (st *state) clause() (*logic.Clause, []logic.Literal, error) {
	switch st.tok.kind {
	case tokNeck, tokQuery:
		isQuery := st.tok.kind == tokQuery
		if err := st.advance(); err != nil {
			return nil, nil, err
		}
		goals, err := st.goals()
		if err != nil {
			return nil, nil, err
		}
		if err := st.expect(tokPeriod); err != nil {
			return nil, nil, err
		}
		if isQuery {
			return nil, goals, nil
		}
		return logic.Denial(goals...), nil, nil
	}
	if st.tok.kind == tokVar {
		return nil, nil, st.errorf("clause head can't be a variable")
	}
	head, err := st.term()
	if err != nil {
		return nil, nil, err
	}
	var body []logic.Literal
	if st.tok.kind == tokNeck {
		if err := st.advance(); err != nil {
			return nil, nil, err
		}
		if body, err = st.goals(); err != nil {
			return nil, nil, err
		}
	}
	if err := st.expect(tokPeriod); err != nil {
		return nil, nil, err
	}
	return logic.Rule(head, body...), nil, nil
}

// goals reads one or more goals separated by commas.
func (st *state) goals() ([]logic.Literal, error) {
	var goals []logic.Literal
	for {
		goal, err := st.goal()
		if err != nil {
			return nil, err
		}
		goals = append(goals, goal)
		if st.tok.kind != tokComma {
			return goals, nil
		}
		if err := st.advance(); err != nil {
			return nil, err
		}
	}
}

func (st *state) goal() (logic.Literal, error) {
	tok := st.tok
	lit, err := st.term()
	if err != nil {
		return nil, err
	}
	if _, ok := lit.(logic.Atom); ok && tok.kind == tokAtom && tok.val == "true" {
		return logic.True, nil
	}
	return lit, nil
}

// term reads an atom, a variable or a compound term.
func (st *state) term() (logic.Literal, error) {
	tok := st.tok
	switch tok.kind {
	case tokVar:
		return st.scope.Var(tok.val), st.advance()
	case tokAtom, tokQuoted:
	default:
		return nil, st.errorf("expected term, got %v", tok)
	}
	if err := st.advance(); err != nil {
		return nil, err
	}
	if st.tok.kind != tokParenL {
		return st.scope.Atom(tok.val), nil
	}
	if err := st.advance(); err != nil {
		return nil, err
	}
	var args []logic.Literal
	for {
		arg, err := st.term()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if st.tok.kind != tokComma {
			break
		}
		if err := st.advance(); err != nil {
			return nil, err
		}
	}
	if err := st.expect(tokParenR); err != nil {
		return nil, err
	}
	return st.scope.Comp(tok.val, args...), nil
}
