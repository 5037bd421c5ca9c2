package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
	_ "modernc.org/sqlite"

	"github.com/cognicore/chainer/pkg/chainer/internalerr"
	"github.com/cognicore/chainer/pkg/chainer/store"
)

// statementBody is the JSON held in statements.body
type statementBody struct {
	LHS  []store.Atom `json:"lhs,omitempty"`
	Head store.Atom   `json:"head"`
}

// sqliteStore implements the Store interface using SQLite
type sqliteStore struct {
	db *sql.DB
}

// OpenSQLite opens a SQLite database with WAL mode enabled.
func OpenSQLite(ctx context.Context, path string) (store.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	// One connection keeps the pragmas below in effect for every statement
	db.SetMaxOpenConns(1)

	// Enable WAL mode for better concurrency
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "enable WAL")
	}

	// Statements cascade with their snapshot
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "enable foreign keys")
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "init schema")
	}

	return &sqliteStore{db: db}, nil
}

// Close closes the database connection
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// initSchema creates tables if they don't exist
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS snapshots (
	id TEXT PRIMARY KEY,
	label TEXT,
	created_at TEXT NOT NULL,
	fact_count INTEGER NOT NULL DEFAULT 0,
	rule_count INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS statements (
	snapshot_id TEXT NOT NULL,
	seq INTEGER NOT NULL,
	kind TEXT NOT NULL CHECK (kind IN ('fact', 'rule')),
	text TEXT NOT NULL,
	body TEXT NOT NULL DEFAULT '{}',
	PRIMARY KEY(snapshot_id, seq),
	FOREIGN KEY(snapshot_id) REFERENCES snapshots(id) ON DELETE CASCADE
);
`

	_, err := db.ExecContext(ctx, schema)
	return err
}

// SaveSnapshot inserts a snapshot, replacing any snapshot with its ID
func (s *sqliteStore) SaveSnapshot(ctx context.Context, snap store.Snapshot) error {
	if snap.ID == "" {
		return errors.Wrap(internalerr.ErrInvalidInput, "snapshot without id")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(internalerr.ErrStoreUnavailable, err.Error())
	}
	defer tx.Rollback()

	const upsert = `
INSERT INTO snapshots (id, label, created_at, fact_count, rule_count)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	label=excluded.label,
	created_at=excluded.created_at,
	fact_count=excluded.fact_count,
	rule_count=excluded.rule_count;
`
	if _, err := tx.ExecContext(ctx, upsert,
		snap.ID,
		snap.Label,
		snap.CreatedAt.UTC().Format(time.RFC3339Nano),
		snap.Facts,
		snap.Rules,
	); err != nil {
		return errors.Wrapf(err, "save snapshot %s", snap.ID)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM statements WHERE snapshot_id = ?`, snap.ID); err != nil {
		return errors.Wrap(err, "clear statements")
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO statements (snapshot_id, seq, kind, text, body) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, st := range snap.Statements {
		body, err := json.Marshal(statementBody{LHS: st.LHS, Head: st.Head})
		if err != nil {
			return errors.Wrapf(err, "marshal statement %d", i+1)
		}
		if _, err := stmt.ExecContext(ctx, snap.ID, i, string(st.Kind), st.Text, string(body)); err != nil {
			return errors.Wrapf(err, "statement %d", i+1)
		}
	}

	return tx.Commit()
}

// GetSnapshot loads a snapshot and its statements in insertion order
func (s *sqliteStore) GetSnapshot(ctx context.Context, id string) (store.Snapshot, error) {
	var snap store.Snapshot
	var created string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, label, created_at, fact_count, rule_count FROM snapshots WHERE id = ?`, id,
	).Scan(&snap.ID, &snap.Label, &created, &snap.Facts, &snap.Rules)
	if err == sql.ErrNoRows {
		return store.Snapshot{}, errors.Wrapf(internalerr.ErrNotFound, "snapshot %s", id)
	}
	if err != nil {
		return store.Snapshot{}, err
	}
	if snap.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
		return store.Snapshot{}, errors.Wrapf(err, "snapshot %s created_at", id)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT kind, text, body FROM statements WHERE snapshot_id = ? ORDER BY seq`, id)
	if err != nil {
		return store.Snapshot{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var kind, text, body string
		if err := rows.Scan(&kind, &text, &body); err != nil {
			return store.Snapshot{}, err
		}
		var b statementBody
		if err := json.Unmarshal([]byte(body), &b); err != nil {
			return store.Snapshot{}, errors.Wrapf(err, "snapshot %s statement %d body", id, len(snap.Statements)+1)
		}
		snap.Statements = append(snap.Statements, store.Statement{
			Kind: store.StatementKind(kind),
			Text: text,
			LHS:  b.LHS,
			Head: b.Head,
		})
	}
	return snap, rows.Err()
}

// ListSnapshots returns every snapshot, newest first
func (s *sqliteStore) ListSnapshots(ctx context.Context) ([]store.SnapshotInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, label, created_at, fact_count, rule_count FROM snapshots ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.SnapshotInfo
	for rows.Next() {
		var info store.SnapshotInfo
		var created string
		if err := rows.Scan(&info.ID, &info.Label, &created, &info.Facts, &info.Rules); err != nil {
			return nil, err
		}
		if info.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, errors.Wrapf(err, "snapshot %s created_at", info.ID)
		}
		out = append(out, info)
	}
	return out, rows.Err()
}

// DeleteSnapshot removes a snapshot and its statements
func (s *sqliteStore) DeleteSnapshot(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(internalerr.ErrStoreUnavailable, err.Error())
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM statements WHERE snapshot_id = ?`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM snapshots WHERE id = ?`, id); err != nil {
		return err
	}
	return tx.Commit()
}
