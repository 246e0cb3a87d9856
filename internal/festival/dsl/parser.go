/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package dsl parses and evaluates festival rule expressions.
//
// A term is tithi=N [shukla|krishna], nakshatra=N, yoga=N, karana=NAME,
// weekday=NAME or one of the keywords pradosha_kala, brahma_muhurta,
// amavasya, purnima and ekadashi. Terms combine with prefix !, & and |,
// binding in that order, and parentheses group.
package dsl

import (
	"fmt"
	"strconv"

	"github.com/friendsincode/panchangam/internal/panchangam"
)

// SyntaxError reports a malformed rule expression.
type SyntaxError struct {
	Source string
	Offset int // byte offset into Source
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("dsl: %s at offset %d in %q", e.Msg, e.Offset, e.Source)
}

// Parse builds the expression tree for src.
func Parse(src string) (Expr, error) {
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{src: src, toks: toks}
	if p.peek().kind == tokEOF {
		return nil, p.errorf(p.peek(), "empty expression")
	}
	e, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		if t.kind == tokRParen {
			return nil, p.errorf(t, "unbalanced ')'")
		}
		return nil, p.errorf(t, "unexpected %s %q", t.kind, t.text)
	}
	return e, nil
}

// MustParse is Parse for expressions known at compile time.
func MustParse(src string) Expr {
	e, err := Parse(src)
	if err != nil {
		panic(err)
	}
	return e
}

type parser struct {
	src  string
	toks []token
	pos  int
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) errorf(t token, format string, args ...any) error {
	return &SyntaxError{Source: p.src, Offset: t.pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) parseOr() (Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokOr {
		p.next()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &Or{Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokAnd {
		p.next()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &And{Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseUnary() (Expr, error) {
	if p.peek().kind == tokNot {
		p.next()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &Not{X: x}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (Expr, error) {
	t := p.next()
	switch t.kind {
	case tokLParen:
		e, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if c := p.peek(); c.kind != tokRParen {
			return nil, p.errorf(t, "unbalanced '('")
		}
		p.next()
		return e, nil
	case tokIdent:
		return p.parseTerm(t)
	case tokEOF:
		return nil, p.errorf(t, "unexpected end of input")
	default:
		return nil, p.errorf(t, "unexpected %s", t.kind)
	}
}

func (p *parser) parseTerm(name token) (Expr, error) {
	if kind, ok := keywordKinds[name.text]; ok {
		return &Term{Kind: kind}, nil
	}

	switch name.text {
	case "tithi", "nakshatra", "yoga", "karana", "weekday":
	default:
		return nil, p.errorf(name, "unknown term %q", name.text)
	}
	if t := p.next(); t.kind != tokEq {
		return nil, p.errorf(t, "expected '=' after %s", name.text)
	}

	switch name.text {
	case "karana", "weekday":
		v := p.next()
		if v.kind != tokIdent {
			return nil, p.errorf(v, "expected a name after %s=", name.text)
		}
		if name.text == "karana" {
			if !panchangam.IsKaranaName(v.text) {
				return nil, p.errorf(v, "unknown karana %q", v.text)
			}
			return &Term{Kind: TermKarana, Name: v.text}, nil
		}
		if !isWeekday(v.text) {
			return nil, p.errorf(v, "unknown weekday %q", v.text)
		}
		return &Term{Kind: TermWeekday, Name: v.text}, nil
	}

	v := p.next()
	if v.kind != tokNumber {
		return nil, p.errorf(v, "expected a number after %s=", name.text)
	}
	n, err := strconv.Atoi(v.text)
	if err != nil {
		n = -1
	}

	switch name.text {
	case "nakshatra":
		if n < 1 || n > 27 {
			return nil, p.errorf(v, "nakshatra %s outside 1-27", v.text)
		}
		return &Term{Kind: TermNakshatra, Number: n}, nil
	case "yoga":
		if n < 1 || n > 27 {
			return nil, p.errorf(v, "yoga %s outside 1-27", v.text)
		}
		return &Term{Kind: TermYoga, Number: n}, nil
	}

	if n < 1 || n > 30 {
		return nil, p.errorf(v, "tithi %s outside 1-30", v.text)
	}
	term := &Term{Kind: TermTithi, Number: n}
	if pk := p.peek(); pk.kind == tokIdent && (pk.text == "shukla" || pk.text == "krishna") {
		p.next()
		term.Paksha = panchangam.Paksha(pk.text)
		switch {
		case term.Paksha == panchangam.Krishna && n <= 15:
			// Fortnight-relative: krishna 14 is the 29th tithi.
			term.Number = n + 15
		case term.Paksha == panchangam.Shukla && n > 15:
			return nil, p.errorf(v, "tithi %d is not in the shukla paksha", n)
		}
	}
	return term, nil
}
