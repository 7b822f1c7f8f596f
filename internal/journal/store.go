package journal

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "modernc.org/sqlite"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// DBFile is the database filename inside the data directory.
const DBFile = "latchkey.db"

// Preference keys.
const (
	PrefAssignedPerson  = "assigned_person"
	PrefLaunchAtStartup = "launch_at_startup"
	PrefCleanShutdown   = "clean_shutdown"
)

// Store persists the completion journal and the small key/value
// preference set in a single SQLite database.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the database under dataDir with WAL mode
// and runs migrations.
func NewStore(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("journal: create data dir: %w", err)
	}

	dbPath := filepath.Join(dataDir, DBFile)
	db, err := openDB("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("journal: open database: %w", err)
	}

	// SQLite durability/concurrency pragmas
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("journal: pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("journal: migration: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS completions (
			id           TEXT PRIMARY KEY,
			name         TEXT NOT NULL,
			completed_at TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS preferences (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`
	_, err := s.db.Exec(schema)
	return err
}

// ─── Completion entries ──────────────────────────────────────────────────────

// SaveEntries replaces the stored journal with the given entries in one
// transaction. The in-memory log is the source of truth; the table is a
// durable mirror of it.
func (s *Store) SaveEntries(entries []Entry) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("journal: begin save: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM completions`); err != nil {
		return fmt.Errorf("journal: clear completions: %w", err)
	}
	for _, e := range entries {
		_, err := tx.Exec(
			`INSERT INTO completions (id, name, completed_at) VALUES (?, ?, ?)`,
			e.ID, e.Name, e.Timestamp.Format(time.RFC3339Nano),
		)
		if err != nil {
			return fmt.Errorf("journal: insert completion: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("journal: commit save: %w", err)
	}
	return nil
}

// LoadEntries returns all stored entries in insertion order, which
// SaveEntries writes newest first. Ordering by rowid rather than the
// timestamp text keeps the round trip exact: lexicographic order of
// RFC3339Nano strings diverges from chronological order when
// fractional-second precision or zone offsets differ, and ties between
// equal timestamps would come back in arbitrary order. Rows whose
// timestamp no longer parses are skipped rather than failing the load.
func (s *Store) LoadEntries() ([]Entry, error) {
	rows, err := s.db.Query(
		`SELECT id, name, completed_at FROM completions ORDER BY rowid`,
	)
	if err != nil {
		return nil, fmt.Errorf("journal: load completions: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var at string
		if err := rows.Scan(&e.ID, &e.Name, &at); err != nil {
			return nil, fmt.Errorf("journal: scan completion: %w", err)
		}
		ts, err := time.Parse(time.RFC3339Nano, at)
		if err != nil {
			continue
		}
		e.Timestamp = ts
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("journal: iterate completions: %w", err)
	}
	return entries, nil
}

// ─── Preferences ─────────────────────────────────────────────────────────────

// setPref upserts one preference value.
func (s *Store) setPref(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO preferences (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("journal: set preference %q: %w", key, err)
	}
	return nil
}

// getPref reads one preference value; ok is false when the key is absent.
func (s *Store) getPref(key string) (value string, ok bool, err error) {
	err = s.db.QueryRow(`SELECT value FROM preferences WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("journal: get preference %q: %w", key, err)
	}
	return value, true, nil
}

// AssignedPerson returns the persisted assignment, empty when unset.
func (s *Store) AssignedPerson() (string, error) {
	value, _, err := s.getPref(PrefAssignedPerson)
	return value, err
}

// SetAssignedPerson persists the assignment; empty clears it.
func (s *Store) SetAssignedPerson(name string) error {
	return s.setPref(PrefAssignedPerson, name)
}

// LaunchAtStartup returns the persisted launch preference, false when unset.
func (s *Store) LaunchAtStartup() (bool, error) {
	value, ok, err := s.getPref(PrefLaunchAtStartup)
	if err != nil || !ok {
		return false, err
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, nil
	}
	return b, nil
}

// SetLaunchAtStartup persists the launch preference.
func (s *Store) SetLaunchAtStartup(enabled bool) error {
	return s.setPref(PrefLaunchAtStartup, strconv.FormatBool(enabled))
}

// CleanShutdown reports the last session's shutdown flag. present is
// false on a first run, before any session has recorded the flag.
func (s *Store) CleanShutdown() (clean bool, present bool, err error) {
	value, ok, err := s.getPref(PrefCleanShutdown)
	if err != nil || !ok {
		return false, false, err
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, false, nil
	}
	return b, true, nil
}

// SetCleanShutdown records whether the current session ended cleanly.
func (s *Store) SetCleanShutdown(clean bool) error {
	return s.setPref(PrefCleanShutdown, strconv.FormatBool(clean))
}
