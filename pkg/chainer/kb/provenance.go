package kb

import "github.com/cognicore/chainer/pkg/chainer/term"

// Fact returns the stored fact with handle id, or nil.
func (kb *KnowledgeBase) Fact(id FactID) *Fact {
	if id <= 0 || int(id) > len(kb.facts) {
		return nil
	}
	return kb.facts[id-1]
}

// Rule returns the stored rule with handle id, or nil.
func (kb *KnowledgeBase) Rule(id RuleID) *Rule {
	if id <= 0 || int(id) > len(kb.rules) {
		return nil
	}
	return kb.rules[id-1]
}

// Facts returns the stored facts in storage order. The entries are shared
// with the knowledge base and must not be modified.
func (kb *KnowledgeBase) Facts() []*Fact {
	out := make([]*Fact, len(kb.facts))
	copy(out, kb.facts)
	return out
}

// Rules returns the stored rules in storage order. The entries are shared
// with the knowledge base and must not be modified.
func (kb *KnowledgeBase) Rules() []*Rule {
	out := make([]*Rule, len(kb.rules))
	copy(out, kb.rules)
	return out
}

// LookupFact finds the stored fact equal to p.
func (kb *KnowledgeBase) LookupFact(p term.Predicate) (*Fact, bool) {
	id, ok := kb.factIndex[p.Key()]
	if !ok {
		return nil, false
	}
	return kb.facts[id-1], true
}

// LookupRule finds the stored rule equal to lhs -> rhs.
func (kb *KnowledgeBase) LookupRule(lhs []term.Predicate, rhs term.Predicate) (*Rule, bool) {
	id, ok := kb.ruleIndex[term.ConjunctionKey(lhs, rhs)]
	if !ok {
		return nil, false
	}
	return kb.rules[id-1], true
}

// Len returns the number of stored facts and rules.
func (kb *KnowledgeBase) Len() (facts, rules int) {
	return len(kb.facts), len(kb.rules)
}

// Stats reports counters and current sizes.
func (kb *KnowledgeBase) Stats() Stats {
	s := kb.stats
	s.Facts, s.Rules = kb.Len()
	return s
}

// Edge is one justification seen from the entry it supports.
type Edge struct {
	Rule *Rule
	Fact *Fact
}

// Supports resolves the justifications of fact id. Asserted facts may have
// none.
func (kb *KnowledgeBase) Supports(id FactID) []Edge {
	f := kb.Fact(id)
	if f == nil {
		return nil
	}
	return kb.edges(f.ReliesOn)
}

// RuleSupports resolves the justifications of rule id.
func (kb *KnowledgeBase) RuleSupports(id RuleID) []Edge {
	r := kb.Rule(id)
	if r == nil {
		return nil
	}
	return kb.edges(r.ReliesOn)
}

func (kb *KnowledgeBase) edges(why []Justification) []Edge {
	out := make([]Edge, 0, len(why))
	for _, j := range why {
		out = append(out, Edge{Rule: kb.Rule(j.Rule), Fact: kb.Fact(j.Fact)})
	}
	return out
}

// Dependents returns the facts and rules that fact id helped derive.
func (kb *KnowledgeBase) Dependents(id FactID) (facts []*Fact, rules []*Rule) {
	f := kb.Fact(id)
	if f == nil {
		return nil, nil
	}
	for _, d := range f.ReliedFacts {
		facts = append(facts, kb.Fact(d))
	}
	for _, d := range f.ReliedRules {
		rules = append(rules, kb.Rule(d))
	}
	return facts, rules
}
