// Package match pairs predicates term by term and applies the resulting
// bindings to predicate templates.
package match

import (
	"strings"

	"github.com/cognicore/chainer/pkg/chainer/term"
)

// Assignment is one variable binding, kept for display.
type Assignment struct {
	Variable term.Variable
	Value    term.Term
}

func (a Assignment) String() string {
	return a.Variable.Element + " : " + a.Value.Element
}

// Assignments is the binding environment of one match attempt.
// The zero value is not usable; call NewAssignments.
type Assignments struct {
	mapping map[string]string
	order   []Assignment
}

// NewAssignments returns an empty environment.
func NewAssignments() *Assignments {
	return &Assignments{mapping: make(map[string]string)}
}

// Len is the number of bound variables.
func (a *Assignments) Len() int { return len(a.order) }

// List returns the bindings in the order they were made.
func (a *Assignments) List() []Assignment {
	out := make([]Assignment, len(a.order))
	copy(out, a.order)
	return out
}

// Get returns the element bound to the variable named element.
func (a *Assignments) Get(element string) (string, bool) {
	v, ok := a.mapping[element]
	return v, ok
}

// Map returns a copy of variable element -> bound element.
func (a *Assignments) Map() map[string]string {
	out := make(map[string]string, len(a.mapping))
	for k, v := range a.mapping {
		out[k] = v
	}
	return out
}

// Assign records v = value. Callers check Lookup first.
func (a *Assignments) Assign(v term.Variable, value term.Term) {
	a.mapping[v.Element] = value.Element
	a.order = append(a.order, Assignment{Variable: v, Value: value})
}

// Lookup returns the bound value of v re-classified as a Term.
func (a *Assignments) Lookup(v term.Variable) (term.Term, bool) {
	value, ok := a.mapping[v.Element]
	if !ok {
		return term.Term{}, false
	}
	return term.Parse(value), true
}

// TestAndBind binds variable to value unless it is already bound, in which
// case it reports whether the existing binding equals value.
func (a *Assignments) TestAndBind(variable, value term.Term) bool {
	v := term.NewVariable(variable.Element)
	if bound, ok := a.Lookup(v); ok {
		return value.Equal(bound)
	}
	a.Assign(v, value)
	return true
}

// Clone returns an independent copy.
func (a *Assignments) Clone() *Assignments {
	c := &Assignments{
		mapping: make(map[string]string, len(a.mapping)),
		order:   make([]Assignment, len(a.order)),
	}
	for k, v := range a.mapping {
		c.mapping[k] = v
	}
	copy(c.order, a.order)
	return c
}

// String renders "?x : a, ?y : b", or "" with no bindings.
func (a *Assignments) String() string {
	if len(a.order) == 0 {
		return ""
	}
	parts := make([]string, len(a.order))
	for i, b := range a.order {
		parts[i] = b.String()
	}
	return strings.Join(parts, ", ")
}
