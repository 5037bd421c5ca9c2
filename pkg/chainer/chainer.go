// Package chainer is the forward-chaining engine facade. It owns a
// knowledge base, journals what the caller asserts so it can be saved as a
// snapshot, and answers questions and explanations in the text format read
// by package parser.
package chainer

import (
	"context"
	"io"
	"os"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/cognicore/chainer/pkg/chainer/config"
	"github.com/cognicore/chainer/pkg/chainer/explain"
	"github.com/cognicore/chainer/pkg/chainer/internalerr"
	"github.com/cognicore/chainer/pkg/chainer/kb"
	"github.com/cognicore/chainer/pkg/chainer/logging"
	"github.com/cognicore/chainer/pkg/chainer/match"
	"github.com/cognicore/chainer/pkg/chainer/parser"
	"github.com/cognicore/chainer/pkg/chainer/store"
	"github.com/cognicore/chainer/pkg/chainer/term"
)

// Engine is safe for concurrent use.
type Engine struct {
	mu      sync.Mutex
	cfg     *config.Config
	base    *zap.SugaredLogger
	log     *zap.SugaredLogger
	kb      *kb.KnowledgeBase
	store   store.Store
	ids     *store.IDSource
	journal []store.Statement
	now     func() time.Time
}

// Options configures an Engine
type Options struct {
	Config *config.Config // nil means config.Default()
	Logger *zap.SugaredLogger
	Store  store.Store // optional, needed for snapshots
}

// New creates an Engine with an empty knowledge base.
func New(opts Options) *Engine {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	base := opts.Logger
	if base == nil {
		base = logging.Nop()
	}
	e := &Engine{
		cfg:   cfg,
		base:  base,
		log:   logging.Named(base, "engine"),
		store: opts.Store,
		ids:   store.NewIDSource(),
		now:   time.Now,
	}
	e.kb = e.newKB()
	return e
}

func (e *Engine) newKB() *kb.KnowledgeBase {
	return kb.New(append(e.cfg.KBOptions(), kb.WithLogger(e.base))...)
}

// Close closes the snapshot store, if any.
func (e *Engine) Close() error {
	if e.store == nil {
		return nil
	}
	return e.store.Close()
}

// Add inserts a fact or rule. Asserted items are journaled for Save, also
// when derivation stopped at the limit, since the item itself is stored.
func (e *Engine) Add(item kb.Item) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.add(item)
}

func (e *Engine) add(item kb.Item) error {
	err := e.kb.Add(item)
	if err != nil && !errors.Is(err, internalerr.ErrDerivationLimit) {
		return err
	}
	if st, ok := statementOf(item); ok {
		e.journal = append(e.journal, st)
	}
	return err
}

// statementOf returns the journal entry of an asserted item. Arguments are
// kept apart, so elements holding spaces or arrows survive a round trip.
func statementOf(item kb.Item) (store.Statement, bool) {
	switch v := item.(type) {
	case *kb.Fact:
		if len(v.ReliesOn) > 0 {
			return store.Statement{}, false
		}
		return store.Statement{Kind: store.KindFact, Text: v.String(), Head: atomOf(v.Predicate)}, true
	case *kb.Rule:
		if len(v.ReliesOn) > 0 {
			return store.Statement{}, false
		}
		lhs := make([]store.Atom, len(v.LHS))
		for i, p := range v.LHS {
			lhs[i] = atomOf(p)
		}
		return store.Statement{Kind: store.KindRule, Text: v.String(), LHS: lhs, Head: atomOf(v.RHS)}, true
	}
	return store.Statement{}, false
}

func atomOf(p term.Predicate) store.Atom {
	var args []string
	for _, t := range p.Terms {
		args = append(args, t.Element)
	}
	return store.Atom{Name: p.Name, Args: args}
}

func predicateOf(a store.Atom) term.Predicate {
	return term.NewPredicate(a.Name, a.Args...)
}

// Tell parses one fact or rule line and adds it.
func (e *Engine) Tell(line string) error {
	item, err := parser.ParseStatement(line)
	if err != nil {
		return err
	}
	return e.Add(item)
}

// LoadFacts adds every fact read from r, stopping at the first error.
func (e *Engine) LoadFacts(r io.Reader) error {
	facts, err := parser.ParseFacts(r)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, f := range facts {
		if err := e.add(f); err != nil {
			return errors.Wrapf(err, "fact %d", i+1)
		}
	}
	e.log.Infow("loaded facts", logging.FieldCount, len(facts))
	return nil
}

// LoadRules adds every rule read from r, stopping at the first error.
func (e *Engine) LoadRules(r io.Reader) error {
	rules, err := parser.ParseRules(r)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, rule := range rules {
		if err := e.add(rule); err != nil {
			return errors.Wrapf(err, "rule %d", i+1)
		}
	}
	e.log.Infow("loaded rules", logging.FieldCount, len(rules))
	return nil
}

// LoadFactsFile is LoadFacts for a file.
func (e *Engine) LoadFactsFile(path string) error {
	return loadFile(path, e.LoadFacts)
}

// LoadRulesFile is LoadRules for a file.
func (e *Engine) LoadRulesFile(path string) error {
	return loadFile(path, e.LoadRules)
}

func loadFile(path string, load func(io.Reader) error) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.WithHint(errors.Wrapf(err, "open %s", path), "check the path passed on the command line")
	}
	defer f.Close()
	if err := load(f); err != nil {
		return errors.Wrapf(err, "%s", path)
	}
	return nil
}

// Query matches q against the stored facts. See kb.KnowledgeBase.Query.
func (e *Engine) Query(q kb.Item) ([]*match.Assignments, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.kb.Query(q)
}

// Ask parses a question line and queries with it. A rule line is parsed
// but rejected by Query as an invalid question.
func (e *Engine) Ask(line string) ([]*match.Assignments, error) {
	item, err := parser.ParseStatement(line)
	if err != nil {
		return []*match.Assignments{}, err
	}
	return e.Query(item)
}

// Explain returns the justification tree of the stored fact written on
// line.
func (e *Engine) Explain(line string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	id, err := e.lookup(line)
	if err != nil {
		return "", err
	}
	return explain.Tree(e.kb, id)
}

// ExplainHTML writes the justification tree of the fact on line as HTML.
func (e *Engine) ExplainHTML(w io.Writer, line string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	id, err := e.lookup(line)
	if err != nil {
		return err
	}
	return explain.RenderHTML(w, e.kb, id)
}

func (e *Engine) lookup(line string) (kb.FactID, error) {
	f, err := parser.ParseFactLine(line)
	if err != nil {
		return 0, err
	}
	stored, ok := e.kb.LookupFact(f.Predicate)
	if !ok {
		return 0, errors.Wrapf(internalerr.ErrNotFound, "fact %s", f)
	}
	return stored.ID(), nil
}

// Facts lists the stored facts in storage order, derived ones included.
// The returned entries belong to the engine and must not be modified.
func (e *Engine) Facts() []*kb.Fact {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.kb.Facts()
}

// Rules lists the stored rules in storage order.
func (e *Engine) Rules() []*kb.Rule {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.kb.Rules()
}

// Stats returns the knowledge base counters.
func (e *Engine) Stats() kb.Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.kb.Stats()
}

// Reset drops every fact, rule and journaled statement.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.kb = e.newKB()
	e.journal = nil
}

// Save stores the asserted statements under a new snapshot ID.
func (e *Engine) Save(ctx context.Context, label string) (store.SnapshotInfo, error) {
	if e.store == nil {
		return store.SnapshotInfo{}, errors.Wrap(internalerr.ErrStoreUnavailable, "no snapshot store configured")
	}

	e.mu.Lock()
	facts, rules := e.kb.Len()
	now := e.now().UTC()
	snap := store.Snapshot{
		SnapshotInfo: store.SnapshotInfo{
			ID:        e.ids.Next(now),
			Label:     label,
			CreatedAt: now,
			Facts:     facts,
			Rules:     rules,
		},
		Statements: append([]store.Statement(nil), e.journal...),
	}
	e.mu.Unlock()

	if err := e.store.SaveSnapshot(ctx, snap); err != nil {
		return store.SnapshotInfo{}, errors.Wrap(err, "save snapshot")
	}
	e.log.Infow("saved snapshot",
		logging.FieldSnapshot, snap.ID,
		logging.FieldCount, len(snap.Statements))
	return snap.SnapshotInfo, nil
}

// Restore replaces the knowledge base with the one saved as snapshot id.
// Statements are replayed in their original order. On error the current
// knowledge base is kept.
func (e *Engine) Restore(ctx context.Context, id string) error {
	if e.store == nil {
		return errors.Wrap(internalerr.ErrStoreUnavailable, "no snapshot store configured")
	}
	snap, err := e.store.GetSnapshot(ctx, id)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	prevKB, prevJournal := e.kb, e.journal
	e.kb = e.newKB()
	e.journal = nil

	for i, st := range snap.Statements {
		err := e.replay(st)
		if errors.Is(err, internalerr.ErrDerivationLimit) {
			e.log.Warnw("derivation limit reached during restore",
				logging.FieldSnapshot, id,
				logging.FieldLine, i+1)
			continue
		}
		if err != nil {
			e.kb, e.journal = prevKB, prevJournal
			return errors.Wrapf(err, "snapshot %s statement %d", id, i+1)
		}
	}
	e.log.Infow("restored snapshot",
		logging.FieldSnapshot, id,
		logging.FieldCount, len(snap.Statements))
	return nil
}

func (e *Engine) replay(st store.Statement) error {
	if st.Head.Name != "" {
		switch st.Kind {
		case store.KindFact:
			return e.add(kb.NewFact(predicateOf(st.Head)))
		case store.KindRule:
			lhs := make([]term.Predicate, len(st.LHS))
			for i, a := range st.LHS {
				lhs[i] = predicateOf(a)
			}
			return e.add(kb.NewRule(lhs, predicateOf(st.Head)))
		}
	}
	switch st.Kind {
	case store.KindFact:
		f, err := parser.ParseFactLine(st.Text)
		if err != nil {
			return err
		}
		return e.add(f)
	case store.KindRule:
		r, err := parser.ParseRuleLine(st.Text)
		if err != nil {
			return err
		}
		return e.add(r)
	default:
		return errors.Wrapf(internalerr.ErrInvalidInput, "unknown statement kind %q", st.Kind)
	}
}

// Snapshots lists the saved snapshots, newest first.
func (e *Engine) Snapshots(ctx context.Context) ([]store.SnapshotInfo, error) {
	if e.store == nil {
		return nil, errors.Wrap(internalerr.ErrStoreUnavailable, "no snapshot store configured")
	}
	return e.store.ListSnapshots(ctx)
}

// DeleteSnapshot removes snapshot id from the store. The current knowledge
// base is not touched.
func (e *Engine) DeleteSnapshot(ctx context.Context, id string) error {
	if e.store == nil {
		return errors.Wrap(internalerr.ErrStoreUnavailable, "no snapshot store configured")
	}
	if err := e.store.DeleteSnapshot(ctx, id); err != nil {
		return errors.Wrapf(err, "delete snapshot %s", id)
	}
	e.log.Infow("deleted snapshot", logging.FieldSnapshot, id)
	return nil
}
