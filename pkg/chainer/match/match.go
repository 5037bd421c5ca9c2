package match

import "github.com/cognicore/chainer/pkg/chainer/term"

// Match pairs p1 against p2 and returns the bindings that make them agree.
//
// Names and arities must be equal. Terms are compared left to right: a
// variable on the left is bound to the right term, else a variable on the
// right is bound to the left term, else the two must be equal. The first
// failing pair fails the whole match; there is no backtracking and no
// occurs-check.
//
// When both sides hold variables the left one is bound to the right one's
// element. That alias is never resolved further.
func Match(p1, p2 term.Predicate) (*Assignments, bool) {
	return MatchWith(p1, p2, nil)
}

// MatchWith is Match continuing from bindings, which is extended in place.
// A nil bindings starts from an empty environment.
func MatchWith(p1, p2 term.Predicate, bindings *Assignments) (*Assignments, bool) {
	if p1.Name != p2.Name || len(p1.Terms) != len(p2.Terms) {
		return nil, false
	}
	if bindings == nil {
		bindings = NewAssignments()
	}
	for i := range p1.Terms {
		left, right := p1.Terms[i], p2.Terms[i]
		switch {
		case left.IsVariable():
			if !bindings.TestAndBind(left, right) {
				return nil, false
			}
		case right.IsVariable():
			if !bindings.TestAndBind(right, left) {
				return nil, false
			}
		case !left.Equal(right):
			return nil, false
		}
	}
	return bindings, true
}

// Instantiate substitutes every bound variable of template. Unbound
// variables and constants pass through unchanged.
func Instantiate(template term.Predicate, bindings *Assignments) term.Predicate {
	out := term.Predicate{Name: template.Name, Terms: make([]term.Term, len(template.Terms))}
	for i, t := range template.Terms {
		if t.IsVariable() && bindings != nil {
			if bound, ok := bindings.Lookup(term.NewVariable(t.Element)); ok {
				out.Terms[i] = bound
				continue
			}
		}
		out.Terms[i] = t
	}
	return out
}
