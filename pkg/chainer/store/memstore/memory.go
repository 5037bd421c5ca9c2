package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/cognicore/chainer/pkg/chainer/internalerr"
	"github.com/cognicore/chainer/pkg/chainer/store"
)

// Store is an in-memory implementation of store.Store for tests.
type Store struct {
	mu        sync.RWMutex
	snapshots map[string]store.Snapshot
	closed    bool
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		snapshots: make(map[string]store.Snapshot),
	}
}

// Close implements store.Store.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// SaveSnapshot stores a copy of snap, replacing any snapshot with its ID.
func (s *Store) SaveSnapshot(ctx context.Context, snap store.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return internalerr.ErrStoreUnavailable
	}
	if snap.ID == "" {
		return errors.Wrap(internalerr.ErrInvalidInput, "snapshot without id")
	}
	s.snapshots[snap.ID] = copySnapshot(snap)
	return nil
}

// GetSnapshot returns the snapshot with the given ID.
func (s *Store) GetSnapshot(ctx context.Context, id string) (store.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return store.Snapshot{}, internalerr.ErrStoreUnavailable
	}
	snap, ok := s.snapshots[id]
	if !ok {
		return store.Snapshot{}, errors.Wrapf(internalerr.ErrNotFound, "snapshot %s", id)
	}
	return copySnapshot(snap), nil
}

// ListSnapshots returns every snapshot, newest first.
func (s *Store) ListSnapshots(ctx context.Context) ([]store.SnapshotInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, internalerr.ErrStoreUnavailable
	}
	out := make([]store.SnapshotInfo, 0, len(s.snapshots))
	for _, snap := range s.snapshots {
		out = append(out, snap.SnapshotInfo)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID > out[j].ID
	})
	return out, nil
}

// DeleteSnapshot removes a snapshot. Deleting a missing ID is not an error.
func (s *Store) DeleteSnapshot(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return internalerr.ErrStoreUnavailable
	}
	delete(s.snapshots, id)
	return nil
}

func copySnapshot(snap store.Snapshot) store.Snapshot {
	out := snap
	out.Statements = nil
	for _, st := range snap.Statements {
		st.LHS = copyAtoms(st.LHS)
		st.Head.Args = copyArgs(st.Head.Args)
		out.Statements = append(out.Statements, st)
	}
	return out
}

func copyAtoms(atoms []store.Atom) []store.Atom {
	if atoms == nil {
		return nil
	}
	out := make([]store.Atom, len(atoms))
	for i, a := range atoms {
		out[i] = store.Atom{Name: a.Name, Args: copyArgs(a.Args)}
	}
	return out
}

func copyArgs(args []string) []string {
	if args == nil {
		return nil
	}
	return append([]string{}, args...)
}
