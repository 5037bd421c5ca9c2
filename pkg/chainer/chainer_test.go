package chainer

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cognicore/chainer/pkg/chainer/config"
	"github.com/cognicore/chainer/pkg/chainer/internalerr"
	"github.com/cognicore/chainer/pkg/chainer/kb"
	"github.com/cognicore/chainer/pkg/chainer/match"
	"github.com/cognicore/chainer/pkg/chainer/store"
	"github.com/cognicore/chainer/pkg/chainer/store/memstore"
	"github.com/cognicore/chainer/pkg/chainer/term"
)

const familyFacts = `
# family
parent alice bob
parent bob carol
`

const familyRules = `
parent ?x ?y -> ancestor ?x ?y
parent ?x ?y & ancestor ?y ?z -> ancestor ?x ?z
`

func strs(results []*match.Assignments) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.String()
	}
	return out
}

func familyEngine(t *testing.T, opts Options) *Engine {
	t.Helper()
	e := New(opts)
	require.NoError(t, e.LoadFacts(strings.NewReader(familyFacts)))
	require.NoError(t, e.LoadRules(strings.NewReader(familyRules)))
	return e
}

func TestAsk(t *testing.T) {
	e := familyEngine(t, Options{})

	got, err := e.Ask("ancestor alice ?who")
	require.NoError(t, err)
	assert.Equal(t, []string{"?who : bob", "?who : carol"}, strs(got))

	got, err = e.Ask("ancestor carol ?who")
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = e.Ask("ancestor alice carol")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "", got[0].String())
}

func TestAskInvalid(t *testing.T) {
	e := familyEngine(t, Options{})

	got, err := e.Ask("parent ?x ?y -> ancestor ?x ?y")
	assert.True(t, errors.Is(err, internalerr.ErrInvalidQuery))
	assert.NotNil(t, got)
	assert.Empty(t, got)

	got, err = e.Ask("   ")
	assert.True(t, errors.Is(err, internalerr.ErrParse))
	assert.Empty(t, got)
}

func TestTell(t *testing.T) {
	e := New(Options{})
	require.NoError(t, e.Tell("p ?x -> q ?x"))
	require.NoError(t, e.Tell("p a"))

	got, err := e.Ask("q ?x")
	require.NoError(t, err)
	assert.Equal(t, []string{"?x : a"}, strs(got))

	assert.True(t, errors.Is(e.Tell("-> q a"), internalerr.ErrParse))
	assert.True(t, errors.Is(e.Tell("p ?x -> q ?y"), internalerr.ErrUnsafeRule))
}

func TestLoadFilesMissing(t *testing.T) {
	e := New(Options{})
	err := e.LoadFactsFile("/nonexistent/facts.txt")
	require.Error(t, err)
	assert.NotEmpty(t, errors.GetAllHints(err))
}

func TestExplain(t *testing.T) {
	e := New(Options{})
	require.NoError(t, e.Tell("p ?x -> q ?x"))
	require.NoError(t, e.Tell("p a"))

	got, err := e.Explain("q a")
	require.NoError(t, err)
	assert.Equal(t, "fact q a\n  because rule p ?x -> q ?x (asserted)\n  and fact p a (asserted)\n", got)

	_, err = e.Explain("q b")
	assert.True(t, errors.Is(err, internalerr.ErrNotFound))

	var buf bytes.Buffer
	require.NoError(t, e.ExplainHTML(&buf, "q a"))
	assert.Contains(t, buf.String(), "<title>Why q a</title>")
}

func TestDerivationLimitFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Engine.MaxDerivations = 1
	e := New(Options{Config: cfg})

	require.NoError(t, e.Tell("p ?x -> q ?x"))
	require.NoError(t, e.Tell("q ?x -> r ?x"))
	require.NoError(t, e.Tell("r ?x -> s ?x"))

	err := e.Tell("p a")
	assert.True(t, errors.Is(err, internalerr.ErrDerivationLimit))

	got, err := e.Ask("p a")
	require.NoError(t, err)
	assert.Len(t, got, 1, "the inserted fact itself is stored")
}

func TestLenientRulesFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Engine.StrictRules = false
	e := New(Options{Config: cfg})

	assert.NoError(t, e.Tell("p ?x -> q ?y"))
	assert.Len(t, e.Rules(), 1)
}

func TestFactsAndRules(t *testing.T) {
	e := familyEngine(t, Options{})

	var asserted, derived int
	for _, f := range e.Facts() {
		if f.Asserted {
			asserted++
		} else {
			derived++
		}
	}
	assert.Equal(t, 2, asserted)
	assert.Equal(t, 3, derived) // ancestor alice bob, bob carol, alice carol
	assert.Equal(t, 5, e.Stats().Facts)

	e.Reset()
	assert.Empty(t, e.Facts())
	assert.Empty(t, e.Rules())
}

func TestSaveRestore(t *testing.T) {
	ctx := context.Background()
	e := familyEngine(t, Options{Store: memstore.New()})
	defer e.Close()

	info, err := e.Save(ctx, "family")
	require.NoError(t, err)
	assert.Equal(t, "family", info.Label)
	assert.Equal(t, 5, info.Facts)

	created, err := store.IDTime(info.ID)
	require.NoError(t, err)
	assert.WithinDuration(t, info.CreatedAt, created, time.Millisecond)

	before, err := e.Ask("ancestor ?x ?y")
	require.NoError(t, err)

	e.Reset()
	require.NoError(t, e.Tell("parent zed yan"))

	require.NoError(t, e.Restore(ctx, info.ID))
	after, err := e.Ask("ancestor ?x ?y")
	require.NoError(t, err)
	assert.Equal(t, strs(before), strs(after))

	got, err := e.Ask("parent zed ?y")
	require.NoError(t, err)
	assert.Empty(t, got, "restore replaces the knowledge base")

	list, err := e.Snapshots(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, info.ID, list[0].ID)
}

func TestSaveJournalsOnlyAssertions(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	e := familyEngine(t, Options{Store: st})

	info, err := e.Save(ctx, "")
	require.NoError(t, err)

	snap, err := st.GetSnapshot(ctx, info.ID)
	require.NoError(t, err)
	assert.Equal(t, []store.Statement{
		{
			Kind: store.KindFact,
			Text: "parent alice bob",
			Head: store.Atom{Name: "parent", Args: []string{"alice", "bob"}},
		},
		{
			Kind: store.KindFact,
			Text: "parent bob carol",
			Head: store.Atom{Name: "parent", Args: []string{"bob", "carol"}},
		},
		{
			Kind: store.KindRule,
			Text: "parent ?x ?y -> ancestor ?x ?y",
			LHS:  []store.Atom{{Name: "parent", Args: []string{"?x", "?y"}}},
			Head: store.Atom{Name: "ancestor", Args: []string{"?x", "?y"}},
		},
		{
			Kind: store.KindRule,
			Text: "parent ?x ?y & ancestor ?y ?z -> ancestor ?x ?z",
			LHS: []store.Atom{
				{Name: "parent", Args: []string{"?x", "?y"}},
				{Name: "ancestor", Args: []string{"?y", "?z"}},
			},
			Head: store.Atom{Name: "ancestor", Args: []string{"?x", "?z"}},
		},
	}, snap.Statements)
}

func TestRestoreKeepsProgrammaticElements(t *testing.T) {
	ctx := context.Background()
	e := New(Options{Store: memstore.New()})

	require.NoError(t, e.Add(kb.NewFact(term.NewPredicate("name", "alice", "Alice Smith"))))
	require.NoError(t, e.Add(kb.NewFact(term.NewPredicate("p", "a->b"))))
	require.NoError(t, e.Add(kb.NewRule(
		[]term.Predicate{term.NewPredicate("name", "?who", "?full")},
		term.NewPredicate("known", "?full"))))

	query := kb.NewFact(term.NewPredicate("known", "?n"))
	before, err := e.Query(query)
	require.NoError(t, err)
	require.Equal(t, []string{"?n : Alice Smith"}, strs(before))

	info, err := e.Save(ctx, "programmatic")
	require.NoError(t, err)
	e.Reset()
	require.NoError(t, e.Restore(ctx, info.ID))

	after, err := e.Query(query)
	require.NoError(t, err)
	assert.Equal(t, strs(before), strs(after))

	got, err := e.Query(kb.NewFact(term.NewPredicate("p", "?x")))
	require.NoError(t, err)
	assert.Equal(t, []string{"?x : a->b"}, strs(got))
	assert.Equal(t, info.Facts, e.Stats().Facts)
	assert.Equal(t, info.Rules, e.Stats().Rules)
}

func TestDeleteSnapshot(t *testing.T) {
	ctx := context.Background()
	e := familyEngine(t, Options{Store: memstore.New()})
	defer e.Close()

	keep, err := e.Save(ctx, "keep")
	require.NoError(t, err)
	drop, err := e.Save(ctx, "drop")
	require.NoError(t, err)

	require.NoError(t, e.DeleteSnapshot(ctx, drop.ID))

	list, err := e.Snapshots(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, keep.ID, list[0].ID)

	assert.True(t, errors.Is(e.Restore(ctx, drop.ID), internalerr.ErrNotFound))
	assert.Equal(t, 5, e.Stats().Facts, "deleting does not touch the knowledge base")
}

func TestRestoreKeepsCurrentOnError(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	require.NoError(t, st.SaveSnapshot(ctx, store.Snapshot{
		SnapshotInfo: store.SnapshotInfo{ID: "broken"},
		Statements: []store.Statement{
			{Kind: store.KindFact, Text: "p a"},
			{Kind: store.KindRule, Text: "no arrow here"},
		},
	}))

	e := New(Options{Store: st})
	require.NoError(t, e.Tell("keep me"))

	err := e.Restore(ctx, "broken")
	assert.True(t, errors.Is(err, internalerr.ErrParse))

	got, err := e.Ask("keep ?x")
	require.NoError(t, err)
	assert.Equal(t, []string{"?x : me"}, strs(got))

	err = e.Restore(ctx, "missing")
	assert.True(t, errors.Is(err, internalerr.ErrNotFound))
}

func TestSnapshotsWithoutStore(t *testing.T) {
	ctx := context.Background()
	e := New(Options{})

	_, err := e.Save(ctx, "x")
	assert.True(t, errors.Is(err, internalerr.ErrStoreUnavailable))
	assert.True(t, errors.Is(e.Restore(ctx, "x"), internalerr.ErrStoreUnavailable))
	_, err = e.Snapshots(ctx)
	assert.True(t, errors.Is(err, internalerr.ErrStoreUnavailable))
	assert.True(t, errors.Is(e.DeleteSnapshot(ctx, "x"), internalerr.ErrStoreUnavailable))
	assert.NoError(t, e.Close())
}

func TestLogsSnapshots(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	e := New(Options{Logger: zap.New(core).Sugar(), Store: memstore.New()})
	require.NoError(t, e.Tell("p a"))

	info, err := e.Save(context.Background(), "logged")
	require.NoError(t, err)

	entries := logs.FilterMessage("saved snapshot").All()
	require.Len(t, entries, 1)
	assert.Equal(t, info.ID, entries[0].ContextMap()["snapshot"])
	assert.Equal(t, "engine", entries[0].ContextMap()["component"])
}

func TestConcurrentUse(t *testing.T) {
	e := New(Options{})
	require.NoError(t, e.Tell("p ?x -> q ?x"))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, e.Tell(fmt.Sprintf("p c%d", i)))
			_, err := e.Ask("q ?x")
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	got, err := e.Ask("q ?x")
	require.NoError(t, err)
	assert.Len(t, got, 8)
}
