package memstore

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/chainer/pkg/chainer/internalerr"
	"github.com/cognicore/chainer/pkg/chainer/store"
	"github.com/cognicore/chainer/pkg/chainer/store/storetest"
)

func TestContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store { return New() })
}

func TestClosedStoreIsUnavailable(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.Close())

	_, err := s.ListSnapshots(ctx)
	assert.True(t, errors.Is(err, internalerr.ErrStoreUnavailable))
	err = s.SaveSnapshot(ctx, store.Snapshot{SnapshotInfo: store.SnapshotInfo{ID: "x"}})
	assert.True(t, errors.Is(err, internalerr.ErrStoreUnavailable))
}

func TestSnapshotsAreCopied(t *testing.T) {
	ctx := context.Background()
	s := New()

	snap := store.Snapshot{
		SnapshotInfo: store.SnapshotInfo{ID: "a"},
		Statements: []store.Statement{{
			Kind: store.KindRule,
			Text: "p ?x -> q ?x",
			LHS:  []store.Atom{{Name: "p", Args: []string{"?x"}}},
			Head: store.Atom{Name: "q", Args: []string{"?x"}},
		}},
	}
	require.NoError(t, s.SaveSnapshot(ctx, snap))
	snap.Statements[0].Text = "changed"
	snap.Statements[0].LHS[0].Args[0] = "?y"
	snap.Statements[0].Head.Args[0] = "?y"

	got, err := s.GetSnapshot(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "p ?x -> q ?x", got.Statements[0].Text)
	assert.Equal(t, []string{"?x"}, got.Statements[0].LHS[0].Args)
	assert.Equal(t, []string{"?x"}, got.Statements[0].Head.Args)

	got.Statements[0].Head.Args[0] = "?z"
	again, err := s.GetSnapshot(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"?x"}, again.Statements[0].Head.Args)
}
