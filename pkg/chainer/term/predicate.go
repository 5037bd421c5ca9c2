package term

import (
	"strconv"
	"strings"
)

// Predicate is a name applied to an ordered list of terms.
type Predicate struct {
	Name  string
	Terms []Term
}

// NewPredicate builds a predicate, classifying each literal with Parse.
func NewPredicate(name string, args ...string) Predicate {
	terms := make([]Term, len(args))
	for i, a := range args {
		terms[i] = Parse(a)
	}
	return Predicate{Name: name, Terms: terms}
}

// PredicateOf builds a predicate from terms that are already classified.
func PredicateOf(name string, args ...Term) Predicate {
	terms := make([]Term, len(args))
	copy(terms, args)
	return Predicate{Name: name, Terms: terms}
}

// FromFields builds a predicate from [name, arg...], the shape the text
// format produces. An empty slice yields the zero Predicate.
func FromFields(fields []string) Predicate {
	if len(fields) == 0 {
		return Predicate{}
	}
	return NewPredicate(fields[0], fields[1:]...)
}

// Arity is the number of arguments.
func (p Predicate) Arity() int { return len(p.Terms) }

// Equal requires equal names, equal arity and positionally equal terms.
func (p Predicate) Equal(other Predicate) bool {
	if p.Name != other.Name || len(p.Terms) != len(other.Terms) {
		return false
	}
	for i := range p.Terms {
		if !p.Terms[i].Equal(other.Terms[i]) {
			return false
		}
	}
	return true
}

// Key is a structural identity: two predicates are Equal iff their keys are.
// Every element is written quoted, so no element can pass for a separator.
func (p Predicate) Key() string {
	var b strings.Builder
	p.writeKey(&b)
	return b.String()
}

func (p Predicate) writeKey(b *strings.Builder) {
	b.WriteString(strconv.Quote(p.Name))
	for _, t := range p.Terms {
		b.WriteByte(' ')
		b.WriteString(strconv.Quote(t.Element))
	}
}

// ConjunctionKey is the structural identity of lhs -> rhs.
func ConjunctionKey(lhs []Predicate, rhs Predicate) string {
	var b strings.Builder
	for i, p := range lhs {
		if i > 0 {
			b.WriteString(" & ")
		}
		p.writeKey(&b)
	}
	b.WriteString(" -> ")
	rhs.writeKey(&b)
	return b.String()
}

// IsGround reports whether no argument is a variable.
func (p Predicate) IsGround() bool {
	for _, t := range p.Terms {
		if t.IsVariable() {
			return false
		}
	}
	return true
}

// Variables lists the distinct variables in first-occurrence order.
func (p Predicate) Variables() []Variable {
	var out []Variable
	seen := make(map[string]struct{})
	for _, t := range p.Terms {
		if !t.IsVariable() {
			continue
		}
		if _, ok := seen[t.Element]; ok {
			continue
		}
		seen[t.Element] = struct{}{}
		out = append(out, NewVariable(t.Element))
	}
	return out
}

// Clone returns a copy that shares no storage with p.
func (p Predicate) Clone() Predicate {
	return PredicateOf(p.Name, p.Terms...)
}

// String renders the text form: name followed by its arguments.
func (p Predicate) String() string {
	if len(p.Terms) == 0 {
		return p.Name
	}
	parts := make([]string, 0, len(p.Terms)+1)
	parts = append(parts, p.Name)
	for _, t := range p.Terms {
		parts = append(parts, t.Element)
	}
	return strings.Join(parts, " ")
}
