/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package dsl

import (
	"fmt"
	"sort"

	"github.com/friendsincode/panchangam/internal/panchangam"
)

// Expr is a node of a parsed rule: *Term, *And, *Or or *Not.
type Expr interface {
	// String renders the node with the minimum parentheses needed to
	// reparse it to the same tree.
	String() string
	node()
}

// TermKind identifies what a Term tests.
type TermKind int

const (
	TermTithi TermKind = iota + 1
	TermNakshatra
	TermYoga
	TermKarana
	TermWeekday
	TermPradoshaKala
	TermBrahmaMuhurta
	TermAmavasya
	TermPurnima
	TermEkadashi
)

var keywordKinds = map[string]TermKind{
	"pradosha_kala":  TermPradoshaKala,
	"brahma_muhurta": TermBrahmaMuhurta,
	"amavasya":       TermAmavasya,
	"purnima":        TermPurnima,
	"ekadashi":       TermEkadashi,
}

// Term is a leaf predicate.
//
// Number is the absolute tithi (1..30), nakshatra or yoga number. Name is
// the lowercased karana or weekday. Paksha records the fortnight written in
// the source, if any; it is informational since Number is already absolute.
type Term struct {
	Kind   TermKind
	Number int
	Name   string
	Paksha panchangam.Paksha
}

// And is true when both operands are.
type And struct{ Left, Right Expr }

// Or is true when either operand is.
type Or struct{ Left, Right Expr }

// Not negates its operand.
type Not struct{ X Expr }

func (*Term) node() {}
func (*And) node()  {}
func (*Or) node()   {}
func (*Not) node()  {}

func (t *Term) String() string {
	switch t.Kind {
	case TermTithi:
		if t.Paksha == panchangam.Krishna {
			return fmt.Sprintf("tithi=%d krishna", t.Number-15)
		}
		if t.Paksha == panchangam.Shukla {
			return fmt.Sprintf("tithi=%d shukla", t.Number)
		}
		return fmt.Sprintf("tithi=%d", t.Number)
	case TermNakshatra:
		return fmt.Sprintf("nakshatra=%d", t.Number)
	case TermYoga:
		return fmt.Sprintf("yoga=%d", t.Number)
	case TermKarana:
		return "karana=" + t.Name
	case TermWeekday:
		return "weekday=" + t.Name
	}
	for kw, k := range keywordKinds {
		if k == t.Kind {
			return kw
		}
	}
	return "?"
}

// Both operators associate to the left, so a right operand of the same
// operator keeps its parentheses.
func (a *And) String() string {
	return group(a.Left, isOr) + " & " + group(a.Right, func(e Expr) bool { return isOr(e) || isAnd(e) })
}

func (o *Or) String() string {
	return o.Left.String() + " | " + group(o.Right, isOr)
}

func (n *Not) String() string {
	switch n.X.(type) {
	case *And, *Or:
		return "!(" + n.X.String() + ")"
	}
	return "!" + n.X.String()
}

func isOr(e Expr) bool {
	_, ok := e.(*Or)
	return ok
}

func isAnd(e Expr) bool {
	_, ok := e.(*And)
	return ok
}

func group(e Expr, needs func(Expr) bool) string {
	if needs(e) {
		return "(" + e.String() + ")"
	}
	return e.String()
}

// Terms returns the leaves of e in source order.
func Terms(e Expr) []*Term {
	var out []*Term
	var walk func(Expr)
	walk = func(e Expr) {
		switch n := e.(type) {
		case *Term:
			out = append(out, n)
		case *And:
			walk(n.Left)
			walk(n.Right)
		case *Or:
			walk(n.Left)
			walk(n.Right)
		case *Not:
			walk(n.X)
		}
	}
	walk(e)
	return out
}

var weekdays = []string{"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday"}

func isWeekday(name string) bool {
	for _, w := range weekdays {
		if w == name {
			return true
		}
	}
	return false
}

// Keywords lists the bare keyword terms.
func Keywords() []string {
	out := make([]string, 0, len(keywordKinds))
	for kw := range keywordKinds {
		out = append(out, kw)
	}
	sort.Strings(out)
	return out
}
