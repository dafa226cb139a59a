// Package cache mirrors the remote collections into a local SQLite
// file for offline listing and fast lookups.
//
// # Overview
//
// The cache is a manual pull, nothing more: FullSync replaces its
// contents with whatever the remote tree holds right now, and records
// go stale the moment anyone else writes. List fields are stored as
// JSON text and filtered with json_each, so a section filter works
// against display names and slugs alike.
//
// The database runs on the embedded no-CGO SQLite build with WAL mode,
// created on first open at ~/.sdb/cache.db unless configured elsewhere.
package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/stutra/sdb/internal/record"
)

// metaLastSync is the meta table key holding the last FullSync stamp.
const metaLastSync = "last_sync"

// DB wraps the SQLite connection holding the mirrored collections.
type DB struct {
	conn *sql.DB
	path string
}

// Open opens (creating if needed) the cache database at path and
// prepares it for use. The caller must Close it.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", "file:"+path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping cache database: %w", err)
	}

	db := &DB{conn: conn, path: path}
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}
	return db, nil
}

// Path returns the database file location.
func (db *DB) Path() string {
	return db.path
}

// Size returns the database file's length in bytes.
func (db *DB) Size() (int64, error) {
	fi, err := os.Stat(db.path)
	if err != nil {
		return 0, fmt.Errorf("failed to stat cache database: %w", err)
	}
	return fi.Size(), nil
}

// Close checkpoints the WAL and closes the connection.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}
	if _, err := db.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to checkpoint WAL: %v\n", err)
	}
	if err := db.conn.Close(); err != nil {
		return fmt.Errorf("failed to close cache database: %w", err)
	}
	db.conn = nil
	return nil
}

// InitSchema creates the tables and indexes if they do not exist. Safe
// to call on every open.
func (db *DB) InitSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS students (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		admission_number TEXT,
		sections TEXT NOT NULL,  -- JSON array of section references
		photo_url TEXT,
		created_at TEXT,
		updated_at TEXT
	);

	CREATE TABLE IF NOT EXISTS teachers (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT,
		assigned_sections TEXT NOT NULL,  -- JSON array of section references
		created_at TEXT,
		updated_at TEXT
	);

	CREATE TABLE IF NOT EXISTS sections (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		students TEXT NOT NULL,  -- JSON array of student ids
		teachers TEXT NOT NULL,  -- JSON array of teacher ids
		created_at TEXT,
		updated_at TEXT
	);

	CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_students_admission ON students(admission_number);
	CREATE INDEX IF NOT EXISTS idx_students_name ON students(name);
	`
	if _, err := db.conn.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize cache schema: %w", err)
	}
	return nil
}

// Clear empties the mirrored collections, leaving meta intact.
func (db *DB) Clear(ctx context.Context) error {
	for _, table := range []string{"students", "teachers", "sections"} {
		if _, err := db.conn.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}

// UpsertStudent inserts or replaces one student row.
func (db *DB) UpsertStudent(ctx context.Context, st *record.Student) error {
	sections, err := json.Marshal(st.Sections)
	if err != nil {
		return fmt.Errorf("failed to marshal sections: %w", err)
	}
	query := `
	INSERT INTO students (id, name, admission_number, sections, photo_url, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		name = excluded.name,
		admission_number = excluded.admission_number,
		sections = excluded.sections,
		photo_url = excluded.photo_url,
		created_at = excluded.created_at,
		updated_at = excluded.updated_at
	`
	_, err = db.conn.ExecContext(ctx, query,
		st.ID, st.Name, st.AdmissionNumber, string(sections), st.PhotoURL, st.CreatedAt, st.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert student %s: %w", st.ID, err)
	}
	return nil
}

// UpsertTeacher inserts or replaces one teacher row.
func (db *DB) UpsertTeacher(ctx context.Context, tr *record.Teacher) error {
	assigned, err := json.Marshal(tr.AssignedSections)
	if err != nil {
		return fmt.Errorf("failed to marshal assigned sections: %w", err)
	}
	query := `
	INSERT INTO teachers (id, name, email, assigned_sections, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		name = excluded.name,
		email = excluded.email,
		assigned_sections = excluded.assigned_sections,
		created_at = excluded.created_at,
		updated_at = excluded.updated_at
	`
	_, err = db.conn.ExecContext(ctx, query,
		tr.ID, tr.Name, tr.Email, string(assigned), tr.CreatedAt, tr.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert teacher %s: %w", tr.ID, err)
	}
	return nil
}

// UpsertSection inserts or replaces one section row.
func (db *DB) UpsertSection(ctx context.Context, sec *record.Section) error {
	students, err := json.Marshal(sec.Students)
	if err != nil {
		return fmt.Errorf("failed to marshal students: %w", err)
	}
	teachers, err := json.Marshal(sec.Teachers)
	if err != nil {
		return fmt.Errorf("failed to marshal teachers: %w", err)
	}
	query := `
	INSERT INTO sections (id, name, students, teachers, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		name = excluded.name,
		students = excluded.students,
		teachers = excluded.teachers,
		created_at = excluded.created_at,
		updated_at = excluded.updated_at
	`
	_, err = db.conn.ExecContext(ctx, query,
		sec.ID, sec.Name, string(students), string(teachers), sec.CreatedAt, sec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert section %s: %w", sec.ID, err)
	}
	return nil
}

// ListStudents returns cached students ordered by id, optionally
// filtered to one section reference. The filter normalizes each stored
// reference the same way the slug derivation does, so names and slugs
// both match.
func (db *DB) ListStudents(ctx context.Context, sectionRef string) ([]*record.Student, error) {
	query := `
	SELECT id, name, admission_number, sections, photo_url, created_at, updated_at
	FROM students
	`
	args := []any{}
	if sectionRef != "" {
		query += `
	WHERE EXISTS (
		SELECT 1 FROM json_each(students.sections) je
		WHERE replace(lower(je.value), ' ', '_') = ?
	)
	`
		args = append(args, record.Slug(sectionRef))
	}
	query += "ORDER BY id"

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query students: %w", err)
	}
	defer rows.Close()

	var out []*record.Student
	for rows.Next() {
		var st record.Student
		var sections string
		if err := rows.Scan(&st.ID, &st.Name, &st.AdmissionNumber, &sections, &st.PhotoURL, &st.CreatedAt, &st.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan student row: %w", err)
		}
		if err := json.Unmarshal([]byte(sections), &st.Sections); err != nil {
			return nil, fmt.Errorf("failed to decode sections for %s: %w", st.ID, err)
		}
		out = append(out, &st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate students: %w", err)
	}
	return out, nil
}

// Counts returns the row counts of the three mirrored collections.
func (db *DB) Counts(ctx context.Context) (students, teachers, sections int, err error) {
	for _, q := range []struct {
		table string
		dst   *int
	}{
		{"students", &students},
		{"teachers", &teachers},
		{"sections", &sections},
	} {
		if err = db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+q.table).Scan(q.dst); err != nil {
			return 0, 0, 0, fmt.Errorf("failed to count %s: %w", q.table, err)
		}
	}
	return students, teachers, sections, nil
}

// LastSync returns when FullSync last completed, and whether it ever
// has.
func (db *DB) LastSync(ctx context.Context) (time.Time, bool, error) {
	var value string
	err := db.conn.QueryRowContext(ctx, "SELECT value FROM meta WHERE key = ?", metaLastSync).Scan(&value)
	if err == sql.ErrNoRows {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to read last sync: %w", err)
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to parse last sync stamp: %w", err)
	}
	return t, true, nil
}

// SetLastSync records when a sync completed.
func (db *DB) SetLastSync(ctx context.Context, t time.Time) error {
	query := `
	INSERT INTO meta (key, value) VALUES (?, ?)
	ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`
	if _, err := db.conn.ExecContext(ctx, query, metaLastSync, t.UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("failed to record last sync: %w", err)
	}
	return nil
}
