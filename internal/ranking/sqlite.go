package ranking

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mizuki-t/kanata/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

const (
	metaLastResetDay = "last_reset_day"
	metaLastEntryID  = "last_entry_id"
)

// SQLiteStore is the durable Store backed by SQLite.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*SQLiteStore, error) {
	return OpenWithClock(path, time.Now)
}

// OpenWithClock allows a deterministic clock for day-rollover tests.
func OpenWithClock(path string, now func() time.Time) (*SQLiteStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &SQLiteStore{db: db, now: now}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS entries (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			score REAL NOT NULL,
			correct INTEGER NOT NULL,
			elapsed_seconds REAL NOT NULL,
			recorded_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS daily_tally (
			day TEXT PRIMARY KEY,
			total_correct INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_entries_score ON entries(score);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// ensureDay clears the ranking when the stored reset day no longer matches
// today. It runs on every access rather than on a schedule.
func (s *SQLiteStore) ensureDay(ctx context.Context) error {
	today := DayKey(s.now())
	stored, err := s.getMeta(ctx, metaLastResetDay)
	if err != nil {
		return err
	}
	if stored == today {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM entries`); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM meta WHERE key = ?`, metaLastEntryID); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO meta (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		metaLastResetDay, today); err != nil {
		return err
	}
	return tx.Commit()
}

// Load implements Store.
func (s *SQLiteStore) Load(ctx context.Context) ([]model.Entry, error) {
	if err := s.ensureDay(ctx); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, score, correct, elapsed_seconds, recorded_at
		 FROM entries
		 ORDER BY score DESC, recorded_at ASC, name ASC
		 LIMIT ?`, Cap)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var entries []model.Entry
	for rows.Next() {
		var entry model.Entry
		var recordedAt string
		if err := rows.Scan(&entry.ID, &entry.Name, &entry.Score, &entry.Correct, &entry.ElapsedSeconds, &recordedAt); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, recordedAt)
		if err != nil {
			return nil, err
		}
		entry.RecordedAt = parsed
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// Record implements Store.
func (s *SQLiteStore) Record(ctx context.Context, entry model.Entry) error {
	if err := s.ensureDay(ctx); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO entries (id, name, score, correct, elapsed_seconds, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ID,
		TrimName(entry.Name),
		entry.Score,
		entry.Correct,
		entry.ElapsedSeconds,
		entry.RecordedAt.Format(time.RFC3339Nano),
	); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx,
		`DELETE FROM entries WHERE id NOT IN (
			SELECT id FROM entries
			ORDER BY score DESC, recorded_at ASC, name ASC
			LIMIT ?
		)`, Cap); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO meta (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		metaLastEntryID, entry.ID); err != nil {
		return err
	}
	return tx.Commit()
}

// Rename implements Store.
func (s *SQLiteStore) Rename(ctx context.Context, id, newName string) error {
	if err := s.ensureDay(ctx); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE entries SET name = ? WHERE id = ?`, TrimName(newName), id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrEntryNotFound
	}
	return nil
}

// LastEntryID implements Store.
func (s *SQLiteStore) LastEntryID(ctx context.Context) (string, error) {
	if err := s.ensureDay(ctx); err != nil {
		return "", err
	}
	return s.getMeta(ctx, metaLastEntryID)
}

// AddTally implements Store.
func (s *SQLiteStore) AddTally(ctx context.Context, correct int) error {
	if correct < 0 {
		return fmt.Errorf("tally increment must be >= 0")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO daily_tally (day, total_correct) VALUES (?, ?)
		 ON CONFLICT(day) DO UPDATE SET total_correct = total_correct + excluded.total_correct`,
		DayKey(s.now()), correct)
	return err
}

// Tally implements Store.
func (s *SQLiteStore) Tally(ctx context.Context, lastN int) ([]model.TallyRow, error) {
	if lastN <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT day, total_correct FROM daily_tally ORDER BY day DESC LIMIT ?`, lastN)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var tally []model.TallyRow
	for rows.Next() {
		var row model.TallyRow
		if err := rows.Scan(&row.Day, &row.TotalCorrect); err != nil {
			return nil, err
		}
		tally = append(tally, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tally, nil
}

func (s *SQLiteStore) getMeta(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}
