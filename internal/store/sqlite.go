package store

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "modernc.org/sqlite" // register "sqlite" driver

	"github.com/Badar25/Journal-backend/internal/journal"
)

// SQLiteBackend is a Backend backed by a local SQLite database. Vectors are
// stored as little-endian float32 blobs and similarity is computed in
// process over the owner's rows.
type SQLiteBackend struct {
	// db is the underlying database connection pool.
	db *sql.DB
}

// DefaultSQLitePath returns the default database path, ~/.journal/journal.db,
// creating the directory if needed.
func DefaultSQLitePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("store: could not determine home directory: %w", err)
	}
	dir := filepath.Join(home, ".journal")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("store: could not create %s: %w", dir, err)
	}
	return filepath.Join(dir, "journal.db"), nil
}

// OpenSQLite opens (or creates) a SQLiteBackend at the given path and runs
// the schema migration. Use ":memory:" for an in-memory database in tests.
func OpenSQLite(path string) (*SQLiteBackend, error) {
	// WAL mode improves concurrent read performance and is safe for single-host use.
	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	// Limit to a single writer connection to avoid SQLITE_BUSY under concurrent writes.
	db.SetMaxOpenConns(1)

	s := &SQLiteBackend{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// migrate creates the schema if it does not already exist.
func (s *SQLiteBackend) migrate() error {
	const ddl = `
CREATE TABLE IF NOT EXISTS entries (
    id           TEXT    PRIMARY KEY,
    owner_id     TEXT    NOT NULL,
    title        TEXT    NOT NULL DEFAULT '',
    content      TEXT    NOT NULL DEFAULT '',
    created_at   INTEGER NOT NULL,  -- Unix timestamp (seconds)
    vector       BLOB    NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_entries_owner_created
    ON entries (owner_id, created_at);
CREATE INDEX IF NOT EXISTS idx_entries_created
    ON entries (created_at);
CREATE TABLE IF NOT EXISTS store_meta (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`
	if _, err := s.db.Exec(ddl); err != nil {
		return fmt.Errorf("store: migrate: %w", err)
	}
	return nil
}

// Name implements Backend.
func (s *SQLiteBackend) Name() string { return "sqlite" }

// Init records dims on first use and rejects a different size afterwards.
func (s *SQLiteBackend) Init(ctx context.Context, dims int) error {
	var stored string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM store_meta WHERE key = 'dimensions'`).Scan(&stored)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		const q = `INSERT INTO store_meta (key, value) VALUES ('dimensions', ?)`
		if _, err := s.db.ExecContext(ctx, q, strconv.Itoa(dims)); err != nil {
			return fmt.Errorf("store: init dimensions: %w", err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("store: read dimensions: %w", err)
	}

	have, err := strconv.Atoi(stored)
	if err != nil {
		return fmt.Errorf("store: parse stored dimensions %q: %w", stored, err)
	}
	if have != dims {
		return fmt.Errorf("%w: have %d, want %d", ErrDimensionMismatch, have, dims)
	}
	return nil
}

// Put implements Backend. The upsert is a single statement and therefore atomic.
func (s *SQLiteBackend) Put(ctx context.Context, rec Record) error {
	const q = `
INSERT INTO entries (id, owner_id, title, content, created_at, vector)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    owner_id   = excluded.owner_id,
    title      = excluded.title,
    content    = excluded.content,
    created_at = excluded.created_at,
    vector     = excluded.vector`
	_, err := s.db.ExecContext(ctx, q,
		rec.ID, rec.OwnerID, rec.Title, rec.Content, rec.CreatedAt.Unix(), encodeVector(rec.Vector))
	if err != nil {
		return fmt.Errorf("store: put %s: %w", rec.ID, err)
	}
	return nil
}

// Get implements Backend.
func (s *SQLiteBackend) Get(ctx context.Context, id string) (journal.Entry, bool, error) {
	const q = `SELECT id, owner_id, title, content, created_at FROM entries WHERE id = ?`
	var e journal.Entry
	var ts int64
	err := s.db.QueryRowContext(ctx, q, id).Scan(&e.ID, &e.OwnerID, &e.Title, &e.Content, &ts)
	if errors.Is(err, sql.ErrNoRows) {
		return journal.Entry{}, false, nil
	}
	if err != nil {
		return journal.Entry{}, false, fmt.Errorf("store: get %s: %w", id, err)
	}
	e.CreatedAt = time.Unix(ts, 0).UTC()
	return e, true, nil
}

// List implements Backend.
func (s *SQLiteBackend) List(ctx context.Context, owner string, rng *journal.TimeRange, limit int) ([]journal.Entry, error) {
	q := `SELECT id, owner_id, title, content, created_at FROM entries WHERE owner_id = ?`
	args := []any{owner}
	if rng != nil {
		q += ` AND created_at >= ? AND created_at <= ?`
		args = append(args, rng.Start.Unix(), rng.End.Unix())
	}
	q += ` ORDER BY created_at ASC, id ASC`
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("store: list: %w", err)
	}
	defer rows.Close()

	out := make([]journal.Entry, 0)
	for rows.Next() {
		var e journal.Entry
		var ts int64
		if err := rows.Scan(&e.ID, &e.OwnerID, &e.Title, &e.Content, &ts); err != nil {
			return nil, fmt.Errorf("store: list scan: %w", err)
		}
		e.CreatedAt = time.Unix(ts, 0).UTC()
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list rows: %w", err)
	}
	return out, nil
}

// Delete implements Backend.
func (s *SQLiteBackend) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM entries WHERE id = ?`, id); err != nil {
		return fmt.Errorf("store: delete %s: %w", id, err)
	}
	return nil
}

// DeleteByOwner implements Backend.
func (s *SQLiteBackend) DeleteByOwner(ctx context.Context, owner string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM entries WHERE owner_id = ?`, owner); err != nil {
		return fmt.Errorf("store: delete by owner: %w", err)
	}
	return nil
}

// DeleteCreatedBefore implements Backend.
func (s *SQLiteBackend) DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM entries WHERE created_at < ?`, cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("store: delete before %s: %w", cutoff.Format(time.RFC3339), err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("store: delete rows affected: %w", err)
	}
	return int(n), nil
}

// Search implements Backend.
func (s *SQLiteBackend) Search(ctx context.Context, vector []float32, owner string, limit int) ([]Match, error) {
	const q = `SELECT id, owner_id, title, content, created_at, vector FROM entries WHERE owner_id = ?`
	rows, err := s.db.QueryContext(ctx, q, owner)
	if err != nil {
		return nil, fmt.Errorf("store: search: %w", err)
	}
	defer rows.Close()

	matches := make([]Match, 0)
	for rows.Next() {
		var m Match
		var ts int64
		var blob []byte
		if err := rows.Scan(&m.ID, &m.OwnerID, &m.Title, &m.Content, &ts, &blob); err != nil {
			return nil, fmt.Errorf("store: search scan: %w", err)
		}
		m.CreatedAt = time.Unix(ts, 0).UTC()
		m.Similarity = cosineSimilarity(vector, decodeVector(blob))
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: search rows: %w", err)
	}
	return rankMatches(matches, limit), nil
}

// Ping implements Backend.
func (s *SQLiteBackend) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("store: ping: %w", err)
	}
	return nil
}

// Close releases the database connection pool.
func (s *SQLiteBackend) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("store: close: %w", err)
	}
	return nil
}

// encodeVector packs v as little-endian float32 values.
func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(f))
	}
	return buf
}

// decodeVector is the inverse of encodeVector. Trailing bytes are ignored.
func decodeVector(b []byte) []float32 {
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return v
}
