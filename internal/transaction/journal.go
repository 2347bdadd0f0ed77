package transaction

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

// Driver names accepted by OpenJournal.
const (
	DriverCGO    = "sqlite3" // github.com/mattn/go-sqlite3
	DriverPureGo = "sqlite"  // modernc.org/sqlite
)

var (
	// ErrNothingToUndo is returned by Undo when no transaction is pending.
	ErrNothingToUndo = errors.New("transaction: nothing to undo")
	// ErrNothingToRedo is returned by Redo when no undone transaction exists.
	ErrNothingToRedo = errors.New("transaction: nothing to redo")
)

// Entry is one recorded transaction.
type Entry struct {
	ID        string
	SessionID string
	Do        []Operation
	Undo      []Operation
	Timestamp time.Time
	Undone    bool
}

// Journal is a Log backed by SQLite. Submitted operations are applied
// through the Applier and recorded so they can be undone and redone.
type Journal struct {
	db        *sql.DB
	applier   Applier
	sessionID string
	logger    *slog.Logger
}

// OpenJournal opens (creating if needed) the journal database at path
// using driver, which is DriverCGO or DriverPureGo.
func OpenJournal(driver, path string, applier Applier, logger *slog.Logger) (*Journal, error) {
	dsn := path
	switch driver {
	case DriverCGO, "":
		driver = DriverCGO
		dsn = path + "?_busy_timeout=5000&_journal_mode=WAL"
	case DriverPureGo:
		dsn = path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	default:
		return nil, fmt.Errorf("unknown sqlite driver %q", driver)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if logger == nil {
		logger = slog.Default()
	}
	j := &Journal{
		db:        db,
		applier:   applier,
		sessionID: uuid.NewString(),
		logger:    logger,
	}
	if err := j.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return j, nil
}

// Close closes the database connection.
func (j *Journal) Close() error {
	if j.db != nil {
		return j.db.Close()
	}
	return nil
}

// SessionID identifies transactions recorded by this process.
func (j *Journal) SessionID() string {
	return j.sessionID
}

func (j *Journal) initSchema() error {
	schema := `
CREATE TABLE IF NOT EXISTS transactions (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    id TEXT NOT NULL UNIQUE,
    session_id TEXT NOT NULL,
    do_ops TEXT NOT NULL,
    undo_ops TEXT NOT NULL,
    timestamp TEXT NOT NULL,
    undone INTEGER DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_transactions_undone ON transactions(undone, seq);
`
	_, err := j.db.Exec(schema)
	return err
}

// Submit applies do and records the pair. Pending redo entries are
// discarded. Empty submissions are ignored.
func (j *Journal) Submit(ctx context.Context, do, undo []Operation) error {
	if len(do) == 0 {
		return nil
	}
	if err := j.apply(ctx, do); err != nil {
		return err
	}
	doJSON, err := json.Marshal(do)
	if err != nil {
		return fmt.Errorf("marshal do ops: %w", err)
	}
	undoJSON, err := json.Marshal(undo)
	if err != nil {
		return fmt.Errorf("marshal undo ops: %w", err)
	}

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM transactions WHERE undone = 1`); err != nil {
		return fmt.Errorf("drop redo entries: %w", err)
	}
	id := uuid.NewString()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO transactions (id, session_id, do_ops, undo_ops, timestamp) VALUES (?, ?, ?, ?, ?)`,
		id, j.sessionID, string(doJSON), string(undoJSON), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	j.logger.Debug("transaction submitted", "id", id, "ops", len(do))
	return nil
}

// Undo applies the undo operations of the latest active transaction in
// reverse order, so an operation emitted after another is undone first.
func (j *Journal) Undo(ctx context.Context) (*Entry, error) {
	e, err := j.queryOne(ctx, `WHERE undone = 0 ORDER BY seq DESC LIMIT 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNothingToUndo
	}
	if err != nil {
		return nil, err
	}
	undo := slices.Clone(e.Undo)
	slices.Reverse(undo)
	if err := j.apply(ctx, undo); err != nil {
		return nil, err
	}
	if err := j.setUndone(ctx, e.ID, true); err != nil {
		return nil, err
	}
	e.Undone = true
	return e, nil
}

// Redo re-applies the most recently undone transaction.
func (j *Journal) Redo(ctx context.Context) (*Entry, error) {
	e, err := j.queryOne(ctx, `WHERE undone = 1 ORDER BY seq ASC LIMIT 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNothingToRedo
	}
	if err != nil {
		return nil, err
	}
	if err := j.apply(ctx, e.Do); err != nil {
		return nil, err
	}
	if err := j.setUndone(ctx, e.ID, false); err != nil {
		return nil, err
	}
	e.Undone = false
	return e, nil
}

// History returns recorded transactions, newest first.
func (j *Journal) History(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, session_id, do_ops, undo_ops, timestamp, undone FROM transactions ORDER BY seq DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

func (j *Journal) apply(ctx context.Context, ops []Operation) error {
	if j.applier == nil {
		return nil
	}
	if err := j.applier.Apply(ctx, ops); err != nil {
		return fmt.Errorf("apply operations: %w", err)
	}
	return nil
}

func (j *Journal) setUndone(ctx context.Context, id string, undone bool) error {
	_, err := j.db.ExecContext(ctx, `UPDATE transactions SET undone = ? WHERE id = ?`, boolToInt(undone), id)
	if err != nil {
		return fmt.Errorf("mark transaction %s: %w", id, err)
	}
	return nil
}

func (j *Journal) queryOne(ctx context.Context, clause string) (*Entry, error) {
	row := j.db.QueryRowContext(ctx,
		`SELECT id, session_id, do_ops, undo_ops, timestamp, undone FROM transactions `+clause)
	return scanEntry(row)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (*Entry, error) {
	var (
		e              Entry
		doJSON, undoJS string
		ts             string
		undone         int
	)
	if err := s.Scan(&e.ID, &e.SessionID, &doJSON, &undoJS, &ts, &undone); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(doJSON), &e.Do); err != nil {
		return nil, fmt.Errorf("decode do ops: %w", err)
	}
	if err := json.Unmarshal([]byte(undoJS), &e.Undo); err != nil {
		return nil, fmt.Errorf("decode undo ops: %w", err)
	}
	e.Timestamp, _ = time.Parse(time.RFC3339Nano, ts)
	e.Undone = undone == 1
	return &e, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
