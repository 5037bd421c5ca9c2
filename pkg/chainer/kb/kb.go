// Package kb stores facts and rules and forward-chains on every insertion.
//
// Each insertion runs to a fixpoint before returning: a new fact is tried
// against every stored rule and a new rule against every stored fact.
// A rule fires one condition at a time. Matching its first condition binds
// variables, and the rule is either turned into a derived fact (one
// condition) or specialized into a shorter rule over the remaining
// conditions, which is stored and tried in turn. Bindings are committed
// greedily; a specialized rule that never completes stays stored.
//
// Entries are never removed. Re-inserting an equal entry only merges its
// provenance.
package kb

import (
	"strconv"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/cognicore/chainer/pkg/chainer/internalerr"
	"github.com/cognicore/chainer/pkg/chainer/logging"
	"github.com/cognicore/chainer/pkg/chainer/match"
	"github.com/cognicore/chainer/pkg/chainer/term"
)

// DefaultMaxDerivations caps the entries derived by one top-level insertion.
const DefaultMaxDerivations = 100000

// Stats counts work done since the KnowledgeBase was created.
type Stats struct {
	Facts       int
	Rules       int
	Derivations int // derived facts and specialized rules produced
	Merges      int // insertions that matched an existing entry
	Checks      int // (fact, rule) pairs tried
}

// KnowledgeBase owns every fact and rule. It is not safe for concurrent use.
type KnowledgeBase struct {
	facts     []*Fact // facts[id-1]
	rules     []*Rule // rules[id-1]
	factIndex map[string]FactID
	ruleIndex map[string]RuleID

	arity       map[string]int
	arityWarned map[string]struct{}

	log            *zap.SugaredLogger
	maxDerivations int
	strictRules    bool
	stats          Stats
}

// Option configures a KnowledgeBase.
type Option func(*KnowledgeBase)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(kb *KnowledgeBase) { kb.log = logging.Named(l, "kb") }
}

// WithMaxDerivations caps derivations per top-level insertion. Zero or less
// disables the cap.
func WithMaxDerivations(n int) Option {
	return func(kb *KnowledgeBase) { kb.maxDerivations = n }
}

// WithStrictRules makes AddRule reject asserted rules whose RHS uses a
// variable no condition binds. On by default.
func WithStrictRules(strict bool) Option {
	return func(kb *KnowledgeBase) { kb.strictRules = strict }
}

// New creates an empty knowledge base.
func New(opts ...Option) *KnowledgeBase {
	kb := &KnowledgeBase{
		factIndex:      make(map[string]FactID),
		ruleIndex:      make(map[string]RuleID),
		arity:          make(map[string]int),
		arityWarned:    make(map[string]struct{}),
		log:            logging.Nop(),
		maxDerivations: DefaultMaxDerivations,
		strictRules:    true,
	}
	for _, opt := range opts {
		opt(kb)
	}
	return kb
}

// Add inserts a *Fact or *Rule.
func (kb *KnowledgeBase) Add(item Item) error {
	switch v := item.(type) {
	case *Fact:
		return kb.AddFact(v)
	case *Rule:
		return kb.AddRule(v)
	default:
		return errors.Wrapf(internalerr.ErrInvalidInput, "cannot add %T", item)
	}
}

// AddFact inserts f and derives everything it enables. The knowledge base
// keeps its own copy of f.
func (kb *KnowledgeBase) AddFact(f *Fact) error {
	if f == nil {
		return errors.Wrap(internalerr.ErrInvalidInput, "nil fact")
	}
	if f.Predicate.Name == "" {
		return errors.Wrap(internalerr.ErrInvalidInput, "fact has no predicate name")
	}
	return kb.run(f.clone())
}

// AddRule inserts r and derives everything it enables. The knowledge base
// keeps its own copy of r.
func (kb *KnowledgeBase) AddRule(r *Rule) error {
	if r == nil {
		return errors.Wrap(internalerr.ErrInvalidInput, "nil rule")
	}
	if err := r.Validate(); err != nil {
		if errors.Is(err, internalerr.ErrInvalidInput) || (kb.strictRules && len(r.ReliesOn) == 0) {
			return err
		}
		kb.log.Warnw("storing unsafe rule", logging.FieldRule, r.String())
	}
	return kb.run(r.clone())
}

// AddFacts inserts facts one at a time, in order. It stops at the first
// error.
func (kb *KnowledgeBase) AddFacts(facts ...*Fact) error {
	for i, f := range facts {
		if err := kb.AddFact(f); err != nil {
			return errors.Wrapf(err, "fact %d", i+1)
		}
	}
	return nil
}

// AddRules inserts rules one at a time, in order. It stops at the first
// error.
func (kb *KnowledgeBase) AddRules(rules ...*Rule) error {
	for i, r := range rules {
		if err := kb.AddRule(r); err != nil {
			return errors.Wrapf(err, "rule %d", i+1)
		}
	}
	return nil
}

// run drains a LIFO worklist seeded with item. The entries derived by one
// store step are pushed in reverse, so each one and everything it derives is
// stored before its next sibling: storage order is depth first. Every
// (fact, rule) pair is tried exactly once, when the later of the two is
// stored.
func (kb *KnowledgeBase) run(item Item) error {
	stack := []Item{item}
	derived := 0
	for len(stack) > 0 {
		next := stack[len(stack)-1]
		stack[len(stack)-1] = nil
		stack = stack[:len(stack)-1]

		var produced []Item
		switch v := next.(type) {
		case *Fact:
			produced = kb.storeFact(v)
		case *Rule:
			produced = kb.storeRule(v)
		}

		derived += len(produced)
		kb.stats.Derivations += len(produced)
		if kb.maxDerivations > 0 && derived > kb.maxDerivations {
			kb.log.Warnw("derivation limit reached",
				logging.FieldLimit, kb.maxDerivations,
				logging.FieldCount, derived,
				"seed", item.String())
			return errors.Wrapf(internalerr.ErrDerivationLimit,
				"inserting %q derived more than %d entries", item.String(), kb.maxDerivations)
		}
		for i := len(produced) - 1; i >= 0; i-- {
			stack = append(stack, produced[i])
		}
	}
	return nil
}

// storeFact stores f or merges it into an equal entry, and returns what the
// newly stored fact derives against the stored rules.
func (kb *KnowledgeBase) storeFact(f *Fact) []Item {
	key := f.Key()
	if id, ok := kb.factIndex[key]; ok {
		existing := kb.facts[id-1]
		kb.mergeFact(existing, f)
		return nil
	}

	kb.checkArity(f.Predicate)
	f.Asserted = len(f.ReliesOn) == 0
	f.id = FactID(len(kb.facts) + 1)
	kb.facts = append(kb.facts, f)
	kb.factIndex[key] = f.id
	kb.linkFact(f, f.ReliesOn)
	kb.log.Debugw("stored fact", logging.FieldFact, f.String(), "asserted", f.Asserted)

	var produced []Item
	for _, r := range kb.rules {
		if item := kb.derive(f, r); item != nil {
			produced = append(produced, item)
		}
	}
	return produced
}

// storeRule stores r or merges it into an equal entry, and returns what the
// newly stored rule derives against the stored facts.
func (kb *KnowledgeBase) storeRule(r *Rule) []Item {
	key := r.Key()
	if id, ok := kb.ruleIndex[key]; ok {
		existing := kb.rules[id-1]
		kb.mergeRule(existing, r)
		return nil
	}

	for _, p := range r.LHS {
		kb.checkArity(p)
	}
	kb.checkArity(r.RHS)
	r.Asserted = len(r.ReliesOn) == 0
	r.id = RuleID(len(kb.rules) + 1)
	kb.rules = append(kb.rules, r)
	kb.ruleIndex[key] = r.id
	kb.linkRule(r, r.ReliesOn)
	kb.log.Debugw("stored rule", logging.FieldRule, r.String(), "asserted", r.Asserted)

	var produced []Item
	for _, f := range kb.facts {
		if item := kb.derive(f, r); item != nil {
			produced = append(produced, item)
		}
	}
	return produced
}

func (kb *KnowledgeBase) mergeFact(existing, incoming *Fact) {
	kb.stats.Merges++
	if len(incoming.ReliesOn) > 0 {
		existing.ReliesOn = append(existing.ReliesOn, incoming.ReliesOn...)
		kb.linkFact(existing, incoming.ReliesOn)
	} else {
		existing.Asserted = true
	}
	kb.log.Debugw("merged fact", logging.FieldFact, existing.String(), "asserted", existing.Asserted)
}

func (kb *KnowledgeBase) mergeRule(existing, incoming *Rule) {
	kb.stats.Merges++
	if len(incoming.ReliesOn) > 0 {
		existing.ReliesOn = append(existing.ReliesOn, incoming.ReliesOn...)
		kb.linkRule(existing, incoming.ReliesOn)
	} else {
		existing.Asserted = true
	}
	kb.log.Debugw("merged rule", logging.FieldRule, existing.String(), "asserted", existing.Asserted)
}

// derive tries rule's first condition against fact. It returns the derived
// fact, the specialized rule, or nil when the condition does not match.
func (kb *KnowledgeBase) derive(fact *Fact, rule *Rule) Item {
	kb.stats.Checks++
	if len(rule.LHS) == 0 {
		return nil
	}
	bindings, ok := match.Match(rule.LHS[0], fact.Predicate)
	if !ok {
		return nil
	}
	why := Justification{Rule: rule.id, Fact: fact.id}

	if len(rule.LHS) == 1 {
		return NewFact(match.Instantiate(rule.RHS, bindings), why)
	}

	rest := make([]term.Predicate, len(rule.LHS)-1)
	for i, p := range rule.LHS[1:] {
		rest[i] = match.Instantiate(p, bindings)
	}
	return NewRule(rest, match.Instantiate(rule.RHS, bindings), why)
}

func (kb *KnowledgeBase) linkFact(f *Fact, why []Justification) {
	for _, j := range why {
		if r := kb.Rule(j.Rule); r != nil {
			r.ReliedFacts = append(r.ReliedFacts, f.id)
		}
		if src := kb.Fact(j.Fact); src != nil {
			src.ReliedFacts = append(src.ReliedFacts, f.id)
		}
	}
}

func (kb *KnowledgeBase) linkRule(r *Rule, why []Justification) {
	for _, j := range why {
		if parent := kb.Rule(j.Rule); parent != nil {
			parent.ReliedRules = append(parent.ReliedRules, r.id)
		}
		if src := kb.Fact(j.Fact); src != nil {
			src.ReliedRules = append(src.ReliedRules, r.id)
		}
	}
}

// checkArity warns once per name and arity when a predicate name shows up
// with a different arity than it was first seen with.
func (kb *KnowledgeBase) checkArity(p term.Predicate) {
	first, ok := kb.arity[p.Name]
	if !ok {
		kb.arity[p.Name] = p.Arity()
		return
	}
	if first == p.Arity() {
		return
	}
	key := p.Name + "/" + strconv.Itoa(p.Arity())
	if _, warned := kb.arityWarned[key]; warned {
		return
	}
	kb.arityWarned[key] = struct{}{}
	kb.log.Warnw("predicate used with inconsistent arity",
		logging.FieldPredicate, p.Name,
		logging.FieldArity, p.Arity(),
		"first_arity", first)
}

// Query matches the pattern fact q against every stored fact, in storage
// order, returning one binding set per match. Anything other than a *Fact
// is an invalid query: the result is empty and the error wraps
// ErrInvalidQuery.
func (kb *KnowledgeBase) Query(q Item) ([]*match.Assignments, error) {
	f, ok := q.(*Fact)
	if !ok || f == nil {
		desc := describe(q)
		kb.log.Warnw("invalid question", logging.FieldQuery, desc)
		return []*match.Assignments{}, errors.Wrapf(internalerr.ErrInvalidQuery, "%s is not a fact", desc)
	}
	return kb.QueryPredicate(f.Predicate), nil
}

// QueryPredicate is Query for a bare predicate pattern.
func (kb *KnowledgeBase) QueryPredicate(pattern term.Predicate) []*match.Assignments {
	out := []*match.Assignments{}
	for _, stored := range kb.facts {
		if b, ok := match.Match(pattern, stored.Predicate); ok {
			out = append(out, b)
		}
	}
	return out
}

func describe(item Item) string {
	switch v := item.(type) {
	case nil:
		return "<nil>"
	case *Fact:
		if v == nil {
			return "<nil>"
		}
	case *Rule:
		if v == nil {
			return "<nil>"
		}
	}
	return item.String()
}
