// Package storetest checks that a store.Store implementation behaves like
// the others.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/chainer/pkg/chainer/internalerr"
	"github.com/cognicore/chainer/pkg/chainer/store"
)

// Run exercises open's store against the store.Store contract.
func Run(t *testing.T, open func(t *testing.T) store.Store) {
	t.Run("SaveAndGet", func(t *testing.T) { testSaveAndGet(t, open(t)) })
	t.Run("Replace", func(t *testing.T) { testReplace(t, open(t)) })
	t.Run("ListNewestFirst", func(t *testing.T) { testList(t, open(t)) })
	t.Run("Delete", func(t *testing.T) { testDelete(t, open(t)) })
	t.Run("Missing", func(t *testing.T) { testMissing(t, open(t)) })
}

func sample(ids *store.IDSource, at time.Time, label string) store.Snapshot {
	return store.Snapshot{
		SnapshotInfo: store.SnapshotInfo{
			ID:        ids.Next(at),
			Label:     label,
			CreatedAt: at,
			Facts:     6,
			Rules:     2,
		},
		Statements: []store.Statement{
			{Kind: store.KindFact, Text: "p a", Head: store.Atom{Name: "p", Args: []string{"a"}}},
			{
				Kind: store.KindRule,
				Text: "p ?x & r ?x -> q ?x",
				LHS: []store.Atom{
					{Name: "p", Args: []string{"?x"}},
					{Name: "r", Args: []string{"?x"}},
				},
				Head: store.Atom{Name: "q", Args: []string{"?x"}},
			},
			// Arguments with spaces or arrows have no faithful text form.
			{Kind: store.KindFact, Text: "name a Alice Smith", Head: store.Atom{Name: "name", Args: []string{"a", "Alice Smith"}}},
			{Kind: store.KindFact, Text: "edge a->b", Head: store.Atom{Name: "edge", Args: []string{"a->b"}}},
			{Kind: store.KindFact, Text: "rain", Head: store.Atom{Name: "rain"}},
			{Kind: store.KindFact, Text: "r a"},
		},
	}
}

func testSaveAndGet(t *testing.T, st store.Store) {
	ctx := context.Background()
	defer st.Close()

	snap := sample(store.NewIDSource(), time.Date(2026, 1, 2, 3, 4, 5, 6000, time.UTC), "first")
	require.NoError(t, st.SaveSnapshot(ctx, snap))

	got, err := st.GetSnapshot(ctx, snap.ID)
	require.NoError(t, err)
	if diff := cmp.Diff(snap, got); diff != "" {
		t.Errorf("snapshot mismatch (-want +got):\n%s", diff)
	}
}

func testReplace(t *testing.T, st store.Store) {
	ctx := context.Background()
	defer st.Close()

	snap := sample(store.NewIDSource(), time.Now().UTC(), "v1")
	require.NoError(t, st.SaveSnapshot(ctx, snap))

	snap.Label = "v2"
	snap.Statements = snap.Statements[:1]
	require.NoError(t, st.SaveSnapshot(ctx, snap))

	got, err := st.GetSnapshot(ctx, snap.ID)
	require.NoError(t, err)
	assert.Equal(t, "v2", got.Label)
	assert.Len(t, got.Statements, 1)

	list, err := st.ListSnapshots(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func testList(t *testing.T, st store.Store) {
	ctx := context.Background()
	defer st.Close()

	ids := store.NewIDSource()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	older := sample(ids, base, "older")
	newer := sample(ids, base.Add(time.Hour), "newer")
	require.NoError(t, st.SaveSnapshot(ctx, older))
	require.NoError(t, st.SaveSnapshot(ctx, newer))

	list, err := st.ListSnapshots(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "newer", list[0].Label)
	assert.Equal(t, "older", list[1].Label)
	assert.Equal(t, 6, list[0].Facts)
	assert.Equal(t, 2, list[0].Rules)
}

func testDelete(t *testing.T, st store.Store) {
	ctx := context.Background()
	defer st.Close()

	snap := sample(store.NewIDSource(), time.Now().UTC(), "gone")
	require.NoError(t, st.SaveSnapshot(ctx, snap))
	require.NoError(t, st.DeleteSnapshot(ctx, snap.ID))
	require.NoError(t, st.DeleteSnapshot(ctx, snap.ID))

	_, err := st.GetSnapshot(ctx, snap.ID)
	assert.True(t, errors.Is(err, internalerr.ErrNotFound))

	list, err := st.ListSnapshots(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func testMissing(t *testing.T, st store.Store) {
	ctx := context.Background()
	defer st.Close()

	_, err := st.GetSnapshot(ctx, "01ARZ3NDEKTSV4RRFFQ69G5FAV")
	assert.True(t, errors.Is(err, internalerr.ErrNotFound))

	err = st.SaveSnapshot(ctx, store.Snapshot{})
	assert.True(t, errors.Is(err, internalerr.ErrInvalidInput))
}
