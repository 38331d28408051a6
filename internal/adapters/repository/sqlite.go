package repository

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/golang-migrate/migrate/v4"
	msqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/okian/wakepoint/internal/domain/model"
	"github.com/okian/wakepoint/pkg/metrics"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteStore persists analyses in a SQLite database. Results are stored as JSON.
type SQLiteStore struct {
	db          *sql.DB
	busyTimeout time.Duration
	retries     int
	backoff     time.Duration
	closed      atomic.Bool
}

// OpenSQLite opens (or creates) the database at path and applies migrations.
// Use ":memory:" for a private in-memory database.
func OpenSQLite(ctx context.Context, path string, opts ...SQLiteOption) (*SQLiteStore, error) {
	s := &SQLiteStore{
		busyTimeout: 5 * time.Second,
		retries:     3,
		backoff:     50 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(s)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection keeps pragmas and :memory: databases consistent.
	db.SetMaxOpenConns(1)
	s.db = db

	pragmas := []string{
		fmt.Sprintf("PRAGMA busy_timeout = %d", s.busyTimeout.Milliseconds()),
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			db.Close()
			return nil, fmt.Errorf("set pragma %q: %w", p, err)
		}
	}

	if err := s.migrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) migrateUp() error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	driver, err := msqlite.WithInstance(s.db, &msqlite.Config{})
	if err != nil {
		return fmt.Errorf("create sqlite driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	// m is not closed: that would close the shared *sql.DB.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

// Save implements Store.Save.
func (s *SQLiteStore) Save(ctx context.Context, a model.Analysis) (err error) {
	defer func(start time.Time) { observe("save", start, err) }(time.Now())
	if s.closed.Load() {
		return ErrClosed
	}
	if a.ID == "" {
		return ErrInvalidID
	}

	var result sql.NullString
	if a.Result != nil {
		b, err := json.Marshal(a.Result)
		if err != nil {
			return fmt.Errorf("encode result %s: %w", a.ID, err)
		}
		result = sql.NullString{String: string(b), Valid: true}
	}
	var completed sql.NullInt64
	if a.CompletedAt != nil {
		completed = sql.NullInt64{Int64: a.CompletedAt.UnixNano(), Valid: true}
	}

	err = s.withRetry(ctx, func() error {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO analyses (id, status, submitted_at, completed_at, result)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				status = excluded.status,
				submitted_at = excluded.submitted_at,
				completed_at = excluded.completed_at,
				result = excluded.result`,
			a.ID, string(a.Status), a.SubmittedAt.UnixNano(), completed, result)
		return err
	})
	if err != nil {
		return fmt.Errorf("save analysis %s: %w", a.ID, err)
	}
	s.updateGauge(ctx)
	return nil
}

// Get implements Store.Get.
func (s *SQLiteStore) Get(ctx context.Context, id string) (a model.Analysis, err error) {
	defer func(start time.Time) { observe("get", start, err) }(time.Now())
	if s.closed.Load() {
		return model.Analysis{}, ErrClosed
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT id, status, submitted_at, completed_at, result FROM analyses WHERE id = ?`, id)
	a, err = scanAnalysis(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Analysis{}, ErrNotFound
	}
	return a, err
}

// Delete implements Store.Delete.
func (s *SQLiteStore) Delete(ctx context.Context, id string) (err error) {
	defer func(start time.Time) { observe("delete", start, err) }(time.Now())
	if s.closed.Load() {
		return ErrClosed
	}
	err = s.withRetry(ctx, func() error {
		_, err := s.db.ExecContext(ctx, `DELETE FROM analyses WHERE id = ?`, id)
		return err
	})
	if err != nil {
		return fmt.Errorf("delete analysis %s: %w", id, err)
	}
	s.updateGauge(ctx)
	return nil
}

// List implements Store.List.
func (s *SQLiteStore) List(ctx context.Context) (out []model.Analysis, err error) {
	defer func(start time.Time) { observe("list", start, err) }(time.Now())
	if s.closed.Load() {
		return nil, ErrClosed
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, status, submitted_at, completed_at, result FROM analyses ORDER BY submitted_at DESC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list analyses: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// DeleteOlderThan implements Store.DeleteOlderThan.
func (s *SQLiteStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (ids []string, err error) {
	defer func(start time.Time) { observe("prune", start, err) }(time.Now())
	if s.closed.Load() {
		return nil, ErrClosed
	}

	err = s.withRetry(ctx, func() error {
		ids = ids[:0]
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback() //nolint:errcheck

		rows, err := tx.QueryContext(ctx,
			`SELECT id FROM analyses WHERE submitted_at < ? ORDER BY id`, cutoff.UnixNano())
		if err != nil {
			return err
		}
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return err
			}
			ids = append(ids, id)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM analyses WHERE submitted_at < ?`, cutoff.UnixNano()); err != nil {
			return err
		}
		return tx.Commit()
	})
	if err != nil {
		return nil, fmt.Errorf("delete analyses before %s: %w", cutoff.Format(time.RFC3339), err)
	}
	s.updateGauge(ctx)
	return ids, nil
}

// Count implements Store.Count.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	if s.closed.Load() {
		return 0, ErrClosed
	}
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM analyses`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count analyses: %w", err)
	}
	return n, nil
}

// Close implements Store.Close. It is safe to call more than once.
func (s *SQLiteStore) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) updateGauge(ctx context.Context) {
	if n, err := s.Count(ctx); err == nil {
		metrics.UpdateStoredAnalyses(n)
	}
}

// withRetry reruns fn while SQLite reports the database as busy or locked.
func (s *SQLiteStore) withRetry(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 0; ; attempt++ {
		err = fn()
		if err == nil || !isBusy(err) || attempt >= s.retries {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.backoff * time.Duration(attempt+1)):
		}
	}
}

func isBusy(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() & 0xff {
	case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
		return true
	}
	return false
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAnalysis(sc scanner) (model.Analysis, error) {
	var (
		a         model.Analysis
		status    string
		submitted int64
		completed sql.NullInt64
		result    sql.NullString
	)
	if err := sc.Scan(&a.ID, &status, &submitted, &completed, &result); err != nil {
		return model.Analysis{}, err
	}
	a.Status = model.AnalysisStatus(status)
	a.SubmittedAt = time.Unix(0, submitted).UTC()
	if completed.Valid {
		t := time.Unix(0, completed.Int64).UTC()
		a.CompletedAt = &t
	}
	if result.Valid {
		var r model.Result
		if err := json.Unmarshal([]byte(result.String), &r); err != nil {
			return model.Analysis{}, fmt.Errorf("decode result %s: %w", a.ID, err)
		}
		a.Result = &r
	}
	return a, nil
}
