package reassess

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"
)

const movesTable = "moves"

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Question)

// ErrNoRuns is returned when the journal holds no moves.
var ErrNoRuns = errors.New("journal has no recorded runs")

// Entry is one journaled move.
type Entry struct {
	ID          int64
	RunID       string
	Source      string
	Destination string
	CityKey     string
	Material    string
	MovedAt     time.Time
	RestoredAt  *time.Time
}

// RunInfo summarizes one verify run in the journal.
type RunInfo struct {
	RunID    string
	Moves    int
	Restored int
	Started  time.Time
}

// Journal is the SQLite record of files moved into reassess folders.
type Journal struct {
	db   *sql.DB
	path string
}

// OpenJournal opens or creates the journal database at path.
func OpenJournal(ctx context.Context, path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to apply pragma %q: %w", pragma, err)
		}
	}

	j := &Journal{db: db, path: path}
	if err := j.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return j, nil
}

func (j *Journal) initSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS moves (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            run_id TEXT NOT NULL,
            source TEXT NOT NULL,
            destination TEXT NOT NULL,
            city_key TEXT NOT NULL,
            material TEXT NOT NULL,
            moved_at TEXT NOT NULL,
            restored_at TEXT
        )`,
		`CREATE INDEX IF NOT EXISTS idx_moves_run_id ON moves(run_id)`,
	}
	for _, stmt := range statements {
		if _, err := j.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to initialize journal schema: %w", err)
		}
	}
	return nil
}

// Path returns the database file path.
func (j *Journal) Path() string {
	return j.path
}

// Close closes the underlying database connection.
func (j *Journal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}
	return j.db.Close()
}

// Record stores a completed move under runID.
func (j *Journal) Record(ctx context.Context, runID string, mv Move, at time.Time) error {
	query, args, err := psql.Insert(movesTable).
		Columns("run_id", "source", "destination", "city_key", "material", "moved_at").
		Values(runID, mv.Source, mv.Destination, mv.CityKey, mv.Material.String(), at.UTC().Format(time.RFC3339Nano)).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert: %w", err)
	}
	if _, err := j.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to record move: %w", err)
	}
	return nil
}

// Entries returns the moves of runID in the order they happened. With
// pendingOnly, restored moves are left out.
func (j *Journal) Entries(ctx context.Context, runID string, pendingOnly bool) ([]Entry, error) {
	where := sq.And{sq.Eq{"run_id": runID}}
	if pendingOnly {
		where = append(where, sq.Eq{"restored_at": nil})
	}

	query, args, err := psql.Select("id", "run_id", "source", "destination", "city_key", "material", "moved_at", "restored_at").
		From(movesTable).
		Where(where).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select: %w", err)
	}

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query journal: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e        Entry
			movedAt  string
			restored sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.RunID, &e.Source, &e.Destination, &e.CityKey, &e.Material, &movedAt, &restored); err != nil {
			return nil, fmt.Errorf("failed to scan journal row: %w", err)
		}
		if e.MovedAt, err = time.Parse(time.RFC3339Nano, movedAt); err != nil {
			return nil, fmt.Errorf("invalid moved_at %q: %w", movedAt, err)
		}
		if restored.Valid {
			t, err := time.Parse(time.RFC3339Nano, restored.String)
			if err != nil {
				return nil, fmt.Errorf("invalid restored_at %q: %w", restored.String, err)
			}
			e.RestoredAt = &t
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read journal: %w", err)
	}
	return entries, nil
}

// MarkRestored stamps a move as undone.
func (j *Journal) MarkRestored(ctx context.Context, id int64, at time.Time) error {
	query, args, err := psql.Update(movesTable).
		Set("restored_at", at.UTC().Format(time.RFC3339Nano)).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update: %w", err)
	}
	if _, err := j.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to mark move %d restored: %w", id, err)
	}
	return nil
}

// Runs lists the journaled runs, newest first.
func (j *Journal) Runs(ctx context.Context) ([]RunInfo, error) {
	query, args, err := psql.Select("run_id", "COUNT(*)", "COUNT(restored_at)", "MIN(moved_at)").
		From(movesTable).
		GroupBy("run_id").
		OrderBy("MIN(id) DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select: %w", err)
	}

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunInfo
	for rows.Next() {
		var (
			r       RunInfo
			started string
		)
		if err := rows.Scan(&r.RunID, &r.Moves, &r.Restored, &started); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if r.Started, err = time.Parse(time.RFC3339Nano, started); err != nil {
			return nil, fmt.Errorf("invalid moved_at %q: %w", started, err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read runs: %w", err)
	}
	return runs, nil
}

// LatestRun returns the id of the most recent run.
func (j *Journal) LatestRun(ctx context.Context) (string, error) {
	runs, err := j.Runs(ctx)
	if err != nil {
		return "", err
	}
	if len(runs) == 0 {
		return "", ErrNoRuns
	}
	return runs[0].RunID, nil
}
