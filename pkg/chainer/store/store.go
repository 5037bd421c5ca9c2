package store

import (
	"context"
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Store persists snapshots of a knowledge base.
//
// A snapshot holds the asserted statements in the order they were
// inserted. Derived entries are not stored: replaying the statements
// recomputes them.
type Store interface {
	Close() error

	SaveSnapshot(ctx context.Context, s Snapshot) error
	GetSnapshot(ctx context.Context, id string) (Snapshot, error)
	ListSnapshots(ctx context.Context) ([]SnapshotInfo, error)
	DeleteSnapshot(ctx context.Context, id string) error
}

// StatementKind tells facts from rules.
type StatementKind string

const (
	KindFact StatementKind = "fact"
	KindRule StatementKind = "rule"
)

// Atom is a predicate as stored: a name and its literal arguments. An
// argument is a variable iff it starts with "?".
type Atom struct {
	Name string   `json:"name"`
	Args []string `json:"args,omitempty"`
}

// Statement is one asserted fact or rule. Head is the fact, or the rule's
// conclusion, and LHS holds the rule's conditions. Text is the display form.
// A statement with an empty Head is replayed from Text.
type Statement struct {
	Kind StatementKind
	Text string
	LHS  []Atom
	Head Atom
}

// SnapshotInfo describes a snapshot without its statements.
type SnapshotInfo struct {
	ID        string
	Label     string
	CreatedAt time.Time
	Facts     int // stored facts when saved, derived included
	Rules     int // stored rules when saved, specialized included
}

// Snapshot is a saved, replayable knowledge base.
type Snapshot struct {
	SnapshotInfo
	Statements []Statement
}

// IDSource hands out time-ordered snapshot IDs.
type IDSource struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// NewIDSource creates an ID source.
func NewIDSource() *IDSource {
	return &IDSource{
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

// Next returns a new ID for time t. IDs sort by time.
func (s *IDSource) Next(t time.Time) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), s.entropy).String()
}

// IDTime extracts the creation time encoded in an ID.
func IDTime(id string) (time.Time, error) {
	u, err := ulid.ParseStrict(id)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(u.Time()), nil
}
