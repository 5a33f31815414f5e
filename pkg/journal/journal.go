// Package journal records encoded wire frames in SQLite, indexed by
// correlation id, and tracks which requests are still waiting for a reply.
package journal

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/crypto/blake2b"

	"github.com/ZentaChain/zentalk-wire/pkg/wire"
)

// DefaultRetention is how long frames are kept when Open gets zero
const DefaultRetention = 7 * 24 * time.Hour

// Entry is one recorded frame
type Entry struct {
	ID          int64
	Kind        wire.FrameKind
	CorrID      wire.CorrelationID // zero for responses
	Target      string             // display form of the sender or addressees
	Fingerprint string             // hex BLAKE2b-256 of Frame
	Frame       []byte             // header + payload
	RecordedAt  int64              // unix ms
	ResolvedAt  int64              // unix ms, 0 while a request is pending
}

// Resolved reports whether a request has been answered
func (e *Entry) Resolved() bool {
	return e.ResolvedAt != 0
}

// Journal is a SQLite envelope log. Safe for concurrent use.
type Journal struct {
	db        *sql.DB
	retention time.Duration
	logger    *slog.Logger
	now       func() time.Time

	done      chan struct{}
	closeOnce sync.Once
}

// Open opens or creates the journal at path. Frames older than retention are
// pruned hourly; zero retention uses DefaultRetention.
func Open(path string, retention time.Duration, logger *slog.Logger) (*Journal, error) {
	if retention == 0 {
		retention = DefaultRetention
	}
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open journal database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}

	j := &Journal{
		db:        db,
		retention: retention,
		logger:    logger.With("component", "journal"),
		now:       time.Now,
		done:      make(chan struct{}),
	}

	if err := j.initSchema(); err != nil {
		db.Close()
		return nil, err
	}

	go j.cleanupLoop(time.Hour)

	return j, nil
}

func (j *Journal) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS envelopes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		kind TEXT NOT NULL,
		corrid TEXT,
		target TEXT NOT NULL,
		fingerprint TEXT NOT NULL,
		frame BLOB NOT NULL,
		recorded_at INTEGER NOT NULL,
		resolved_at INTEGER
	);

	-- Lookup by correlation id
	CREATE INDEX IF NOT EXISTS idx_envelopes_corrid ON envelopes(corrid);

	-- Duplicate detection
	CREATE INDEX IF NOT EXISTS idx_envelopes_fingerprint ON envelopes(fingerprint);

	-- Pending requests and pruning
	CREATE INDEX IF NOT EXISTS idx_envelopes_recorded ON envelopes(recorded_at);
	`

	if _, err := j.db.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Fingerprint returns the hex BLAKE2b-256 digest of a frame
func Fingerprint(frame []byte) string {
	sum := blake2b.Sum256(frame)
	return hex.EncodeToString(sum[:])
}

// Record stores e. A correlated request or error frame whose fingerprint is
// already present is a no-op reported as duplicate. Responses and
// uncorrelated frames are always stored. Recording an error reply resolves the request with the same
// correlation id.
func (j *Journal) Record(ctx context.Context, e *Entry) (duplicate bool, err error) {
	if len(e.Frame) == 0 {
		return false, errors.New("journal: empty frame")
	}
	if e.Kind < wire.KindReq || e.Kind > wire.KindError {
		return false, fmt.Errorf("journal: invalid frame kind %d", uint8(e.Kind))
	}
	e.Fingerprint = Fingerprint(e.Frame)
	if e.RecordedAt == 0 {
		e.RecordedAt = j.now().UnixMilli()
	}

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin record: %w", err)
	}
	defer tx.Rollback()

	if e.Kind != wire.KindRes && !e.CorrID.IsZero() {
		var exists int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM envelopes WHERE fingerprint = ? AND kind = ? LIMIT 1`,
			e.Fingerprint, e.Kind.String()).Scan(&exists)
		if err == nil {
			j.logger.Debug("duplicate frame", "kind", e.Kind, "fingerprint", e.Fingerprint[:16])
			return true, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return false, fmt.Errorf("check duplicate %s frame: %w", e.Kind, err)
		}
	}

	query := `
		INSERT INTO envelopes (kind, corrid, target, fingerprint, frame, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	result, err := tx.ExecContext(ctx, query, e.Kind.String(), corrColumn(e.CorrID), e.Target, e.Fingerprint, e.Frame, e.RecordedAt)
	if err != nil {
		return false, fmt.Errorf("record %s frame: %w", e.Kind, err)
	}
	e.ID, _ = result.LastInsertId()

	if e.Kind == wire.KindError && !e.CorrID.IsZero() {
		if _, err := resolve(ctx, tx, e.CorrID, e.RecordedAt); err != nil {
			return false, err
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit record: %w", err)
	}

	j.logger.Debug("recorded", "kind", e.Kind, "corrid", e.CorrID, "target", e.Target)
	return false, nil
}

// ResolveCorr marks the pending request with corrid as answered. It reports
// whether a pending request was found.
func (j *Journal) ResolveCorr(ctx context.Context, corrid wire.CorrelationID) (bool, error) {
	return resolve(ctx, j.db, corrid, j.now().UnixMilli())
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func resolve(ctx context.Context, db execer, corrid wire.CorrelationID, at int64) (bool, error) {
	query := `
		UPDATE envelopes SET resolved_at = ?
		WHERE corrid = ? AND kind = ? AND resolved_at IS NULL
	`
	result, err := db.ExecContext(ctx, query, at, corrColumn(corrid), wire.KindReq.String())
	if err != nil {
		return false, fmt.Errorf("resolve %s: %w", corrid, err)
	}
	n, _ := result.RowsAffected()
	return n > 0, nil
}

const selectEntry = `SELECT id, kind, corrid, target, fingerprint, frame, recorded_at, resolved_at FROM envelopes`

// ByCorrelation returns every frame recorded under corrid, oldest first
func (j *Journal) ByCorrelation(ctx context.Context, corrid wire.CorrelationID) ([]*Entry, error) {
	return j.query(ctx, selectEntry+` WHERE corrid = ? ORDER BY id ASC`, corrColumn(corrid))
}

// Pending returns the unanswered requests, oldest first
func (j *Journal) Pending(ctx context.Context) ([]*Entry, error) {
	return j.query(ctx, selectEntry+` WHERE kind = ? AND resolved_at IS NULL ORDER BY recorded_at ASC, id ASC`, wire.KindReq.String())
}

// Recent returns the newest frames, newest first
func (j *Journal) Recent(ctx context.Context, limit int) ([]*Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	return j.query(ctx, selectEntry+` ORDER BY id DESC LIMIT ?`, limit)
}

func (j *Journal) query(ctx context.Context, query string, args ...any) ([]*Entry, error) {
	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query journal: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		var (
			e        Entry
			kind     string
			corrid   sql.NullString
			resolved sql.NullInt64
		)
		if err := rows.Scan(&e.ID, &kind, &corrid, &e.Target, &e.Fingerprint, &e.Frame, &e.RecordedAt, &resolved); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		if e.Kind, err = parseKind(kind); err != nil {
			return nil, err
		}
		if corrid.Valid {
			if e.CorrID, err = parseCorrColumn(corrid.String); err != nil {
				return nil, err
			}
		}
		e.ResolvedAt = resolved.Int64
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// Count returns the number of recorded frames
func (j *Journal) Count(ctx context.Context) (int, error) {
	var count int
	if err := j.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM envelopes`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count frames: %w", err)
	}
	return count, nil
}

// Stats summarizes the journal
type Stats struct {
	Total   int            `json:"total"`
	Pending int            `json:"pending"`
	ByKind  map[string]int `json:"by_kind"`
	Oldest  int64          `json:"oldest,omitempty"` // unix ms of the oldest frame
}

// Stats returns frame counts by kind
func (j *Journal) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{ByKind: make(map[string]int)}

	rows, err := j.db.QueryContext(ctx, `SELECT kind, COUNT(*) FROM envelopes GROUP BY kind`)
	if err != nil {
		return nil, fmt.Errorf("journal stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var kind string
		var count int
		if err := rows.Scan(&kind, &count); err != nil {
			return nil, err
		}
		stats.ByKind[kind] = count
		stats.Total += count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	query := `SELECT COUNT(*) FROM envelopes WHERE kind = ? AND resolved_at IS NULL`
	if err := j.db.QueryRowContext(ctx, query, wire.KindReq.String()).Scan(&stats.Pending); err != nil {
		return nil, err
	}

	var oldest sql.NullInt64
	if err := j.db.QueryRowContext(ctx, `SELECT MIN(recorded_at) FROM envelopes`).Scan(&oldest); err != nil {
		return nil, err
	}
	stats.Oldest = oldest.Int64

	return stats, nil
}

// Prune deletes frames recorded before cutoff and returns how many were removed
func (j *Journal) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := j.db.ExecContext(ctx, `DELETE FROM envelopes WHERE recorded_at < ?`, cutoff.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("prune journal: %w", err)
	}
	return result.RowsAffected()
}

// cleanupLoop prunes frames past retention until Close
func (j *Journal) cleanupLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-j.done:
			return
		case <-ticker.C:
			count, err := j.Prune(context.Background(), j.now().Add(-j.retention))
			if err != nil {
				j.logger.Error("cleanup failed", "error", err)
				continue
			}
			if count > 0 {
				j.logger.Info("pruned frames", "count", count)
			}
		}
	}
}

// Close stops the cleanup loop and closes the database
func (j *Journal) Close() error {
	var err error
	j.closeOnce.Do(func() {
		close(j.done)
		err = j.db.Close()
	})
	return err
}

func corrColumn(id wire.CorrelationID) any {
	if id.IsZero() {
		return nil
	}
	return hex.EncodeToString(id[:])
}

func parseCorrColumn(s string) (wire.CorrelationID, error) {
	var id wire.CorrelationID
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != len(id) {
		return id, fmt.Errorf("journal: bad corrid column %q", s)
	}
	copy(id[:], b)
	return id, nil
}

func parseKind(s string) (wire.FrameKind, error) {
	for _, k := range []wire.FrameKind{wire.KindReq, wire.KindRes, wire.KindError} {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("journal: bad kind column %q", s)
}
