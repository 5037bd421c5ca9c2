package kb

import (
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/cognicore/chainer/pkg/chainer/internalerr"
	"github.com/cognicore/chainer/pkg/chainer/term"
)

// FactID is the stable handle of a stored fact. The zero value refers to
// nothing.
type FactID int

// RuleID is the stable handle of a stored rule. The zero value refers to
// nothing.
type RuleID int

// Justification records the rule application that produced an entry.
type Justification struct {
	Rule RuleID
	Fact FactID
}

// Item is a *Fact or a *Rule.
type Item interface {
	String() string
	item()
}

// Fact is a stored or pending predicate instance with its provenance.
type Fact struct {
	Predicate term.Predicate

	// Asserted is true once the fact has been inserted without a
	// justification. A fact can be asserted and derived at once.
	Asserted bool

	ReliesOn    []Justification
	ReliedFacts []FactID
	ReliedRules []RuleID

	id FactID
}

// NewFact builds a fact. With no justification it is asserted.
func NewFact(p term.Predicate, reliesOn ...Justification) *Fact {
	f := &Fact{Predicate: p.Clone(), Asserted: len(reliesOn) == 0}
	f.ReliesOn = append(f.ReliesOn, reliesOn...)
	return f
}

// FactFromFields builds an asserted fact from [name, arg...].
func FactFromFields(fields []string) *Fact {
	return NewFact(term.FromFields(fields))
}

// ID is the handle of a stored fact, or zero for a fact never stored.
func (f *Fact) ID() FactID { return f.id }

// Key is the fact's identity in the store.
func (f *Fact) Key() string { return f.Predicate.Key() }

func (f *Fact) String() string { return f.Predicate.String() }

func (*Fact) item() {}

func (f *Fact) clone() *Fact {
	return NewFact(f.Predicate, f.ReliesOn...)
}

// Rule is a conjunction of LHS predicates implying RHS.
type Rule struct {
	LHS []term.Predicate
	RHS term.Predicate

	Asserted bool

	ReliesOn    []Justification
	ReliedFacts []FactID
	ReliedRules []RuleID

	id RuleID
}

// NewRule builds a rule. With no justification it is asserted.
func NewRule(lhs []term.Predicate, rhs term.Predicate, reliesOn ...Justification) *Rule {
	r := &Rule{
		LHS:      make([]term.Predicate, len(lhs)),
		RHS:      rhs.Clone(),
		Asserted: len(reliesOn) == 0,
	}
	for i, p := range lhs {
		r.LHS[i] = p.Clone()
	}
	r.ReliesOn = append(r.ReliesOn, reliesOn...)
	return r
}

// RuleFromFields builds an asserted rule from LHS term-lists and an RHS
// term-list, each shaped [name, arg...].
func RuleFromFields(lhs [][]string, rhs []string) *Rule {
	preds := make([]term.Predicate, len(lhs))
	for i, fields := range lhs {
		preds[i] = term.FromFields(fields)
	}
	return NewRule(preds, term.FromFields(rhs))
}

// ID is the handle of a stored rule, or zero for a rule never stored.
func (r *Rule) ID() RuleID { return r.id }

// Key is the rule's identity in the store.
func (r *Rule) Key() string { return term.ConjunctionKey(r.LHS, r.RHS) }

// Equal compares LHS and RHS structurally.
func (r *Rule) Equal(other *Rule) bool {
	if len(r.LHS) != len(other.LHS) || !r.RHS.Equal(other.RHS) {
		return false
	}
	for i := range r.LHS {
		if !r.LHS[i].Equal(other.LHS[i]) {
			return false
		}
	}
	return true
}

// Validate rejects an empty LHS (ErrInvalidInput) and RHS variables that no
// LHS conjunct binds (ErrUnsafeRule).
func (r *Rule) Validate() error {
	if len(r.LHS) == 0 {
		return errors.Wrapf(internalerr.ErrInvalidInput, "rule %q has no conditions", r.String())
	}
	bound := make(map[string]struct{})
	for _, p := range r.LHS {
		for _, v := range p.Variables() {
			bound[v.Element] = struct{}{}
		}
	}
	var unbound []string
	for _, v := range r.RHS.Variables() {
		if _, ok := bound[v.Element]; !ok {
			unbound = append(unbound, v.Element)
		}
	}
	if len(unbound) > 0 {
		return errors.Wrapf(internalerr.ErrUnsafeRule, "rule %q: %s not bound by conditions",
			r.String(), strings.Join(unbound, ", "))
	}
	return nil
}

// String renders "lhs1 & lhs2 -> rhs".
func (r *Rule) String() string {
	parts := make([]string, len(r.LHS))
	for i, p := range r.LHS {
		parts[i] = p.String()
	}
	return strings.Join(parts, " & ") + " -> " + r.RHS.String()
}

func (*Rule) item() {}

func (r *Rule) clone() *Rule {
	return NewRule(r.LHS, r.RHS, r.ReliesOn...)
}
