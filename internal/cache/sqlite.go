package cache

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	cerrors "github.com/five82/crfboost/internal/errors"
	"github.com/five82/crfboost/internal/logging"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// SQLiteStore keeps trial scores in a SQLite database.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens or creates the database at path and applies migrations.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, cerrors.NewCacheError("failed to create cache directory", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, cerrors.NewCacheError("open sqlite db", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, cerrors.NewCacheError(fmt.Sprintf("apply pragma %q", pragma), execErr)
		}
	}

	store := &SQLiteStore{db: db, path: path}
	if err := store.applyMigrations(ctx); err != nil {
		_ = db.Close()
		return nil, cerrors.NewCacheError("migrate cache schema", err)
	}
	return store, nil
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.path
}

func (s *SQLiteStore) applyMigrations(ctx context.Context) error {
	entries, err := migrationFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, "CREATE TABLE IF NOT EXISTS schema_migrations (version TEXT PRIMARY KEY)"); err != nil {
		return fmt.Errorf("ensure schema_migrations: %w", err)
	}

	for _, name := range names {
		version := strings.TrimSuffix(name, ".sql")
		var count int
		if err := tx.QueryRowContext(ctx, "SELECT COUNT(1) FROM schema_migrations WHERE version = ?", version).Scan(&count); err != nil {
			return fmt.Errorf("scan migration version: %w", err)
		}
		if count > 0 {
			continue
		}
		data, err := migrationFS.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := tx.ExecContext(ctx, string(data)); err != nil {
			return fmt.Errorf("apply migration %s: %w", version, err)
		}
		if _, err := tx.ExecContext(ctx, "INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("record migration %s: %w", version, err)
		}
		logger().Debug("applied migration", "version", version, "db", s.path)
	}

	return tx.Commit()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		logger().Debug("database busy, retrying", "attempt", attempt+1, "delay", delay)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

// Get implements Store.
func (s *SQLiteStore) Get(ctx context.Context, key Key) (Scores, bool, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT frame, score FROM trials
		WHERE fingerprint = ? AND start_frame = ? AND end_frame = ? AND crf = ? AND sample_hash = ? AND params_hash = ?`,
		key.Fingerprint, key.StartFrame, key.EndFrame, key.CRF, key.SampleHash, key.ParamsHash)
	if err != nil {
		return nil, false, cerrors.NewCacheError("query trial scores", err)
	}
	defer func() { _ = rows.Close() }()

	scores := make(Scores)
	for rows.Next() {
		var frame int
		var score float64
		if err := rows.Scan(&frame, &score); err != nil {
			return nil, false, cerrors.NewCacheError("scan trial score", err)
		}
		scores[frame] = score
	}
	if err := rows.Err(); err != nil {
		return nil, false, cerrors.NewCacheError("iterate trial scores", err)
	}
	if len(scores) == 0 {
		return nil, false, nil
	}
	return scores, true, nil
}

// Put implements Store. Scores for frames already stored are replaced.
func (s *SQLiteStore) Put(ctx context.Context, key Key, scores Scores) error {
	if len(scores) == 0 {
		return nil
	}
	err := retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO trials (fingerprint, start_frame, end_frame, crf, sample_hash, params_hash, frame, score, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (fingerprint, start_frame, end_frame, crf, sample_hash, params_hash, frame)
			DO UPDATE SET score = excluded.score, updated_at = excluded.updated_at`)
		if err != nil {
			return err
		}
		defer func() { _ = stmt.Close() }()

		now := time.Now().UTC().Format(time.RFC3339)
		for frame, score := range scores {
			if _, err := stmt.ExecContext(ctx, key.Fingerprint, key.StartFrame, key.EndFrame, key.CRF,
				key.SampleHash, key.ParamsHash, frame, score, now); err != nil {
				return err
			}
		}
		return tx.Commit()
	})
	if err != nil {
		return cerrors.NewCacheError("store trial scores", err)
	}
	return nil
}

// Stats implements Store.
func (s *SQLiteStore) Stats(ctx context.Context) ([]CRFStats, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT crf,
		       COUNT(DISTINCT fingerprint || ':' || start_frame || ':' || end_frame || ':' || sample_hash || ':' || params_hash),
		       COUNT(1)
		FROM trials GROUP BY crf ORDER BY crf DESC`)
	if err != nil {
		return nil, cerrors.NewCacheError("query cache stats", err)
	}
	defer func() { _ = rows.Close() }()

	var stats []CRFStats
	for rows.Next() {
		var st CRFStats
		if err := rows.Scan(&st.CRF, &st.Entries, &st.Frames); err != nil {
			return nil, cerrors.NewCacheError("scan cache stats", err)
		}
		stats = append(stats, st)
	}
	if err := rows.Err(); err != nil {
		return nil, cerrors.NewCacheError("iterate cache stats", err)
	}
	return stats, nil
}

// Clear implements Store.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	err := retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx, "DELETE FROM trials")
		return err
	})
	if err != nil {
		return cerrors.NewCacheError("clear cache", err)
	}
	return nil
}

// Run is one recorded invocation.
type Run struct {
	ID          string
	Video       string
	Fingerprint string
	StartedAt   time.Time
	FinishedAt  time.Time
	Scenes      int
	Failed      int
}

// RecordRun inserts or updates a run row.
func (s *SQLiteStore) RecordRun(ctx context.Context, run Run) error {
	var finished any
	if !run.FinishedAt.IsZero() {
		finished = run.FinishedAt.UTC().Format(time.RFC3339)
	}
	err := retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO runs (id, video, fingerprint, started_at, finished_at, scenes, failed)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET finished_at = excluded.finished_at,
				scenes = excluded.scenes, failed = excluded.failed`,
			run.ID, run.Video, run.Fingerprint, run.StartedAt.UTC().Format(time.RFC3339), finished, run.Scenes, run.Failed)
		return err
	})
	if err != nil {
		return cerrors.NewCacheError("record run", err)
	}
	return nil
}

// Runs returns recorded runs, newest first.
func (s *SQLiteStore) Runs(ctx context.Context, limit int) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, video, fingerprint, started_at, COALESCE(finished_at, ''), scenes, failed
		FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, cerrors.NewCacheError("query runs", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []Run
	for rows.Next() {
		var r Run
		var started, finished string
		if err := rows.Scan(&r.ID, &r.Video, &r.Fingerprint, &started, &finished, &r.Scenes, &r.Failed); err != nil {
			return nil, cerrors.NewCacheError("scan run", err)
		}
		r.StartedAt, _ = time.Parse(time.RFC3339, started)
		if finished != "" {
			r.FinishedAt, _ = time.Parse(time.RFC3339, finished)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
