// Package database holds the local state of the console: the persisted
// session and the history of console operations.
package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/tsg-Selina-Varshney/EMS/internal/database/migrations"
	"github.com/tsg-Selina-Varshney/EMS/internal/ems"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

const memoryPath = ":memory:"

// SQLiteDatabase stores local console state in SQLite.
type SQLiteDatabase struct {
	db    *sql.DB
	path  string
	clock ems.Clock
}

var _ ems.OperationLog = (*SQLiteDatabase)(nil)

// NewSQLiteDatabase opens the database at path and brings its schema up to
// date. path can be a file path or ":memory:".
func NewSQLiteDatabase(path string, clock ems.Clock) (*SQLiteDatabase, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}
	if err := migrations.MigrateUp(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating %s: %w", path, err)
	}
	s := NewSQLiteDatabaseFromDB(db, clock)
	s.path = path
	return s, nil
}

// NewSQLiteDatabaseFromDB wraps an existing, already migrated connection.
func NewSQLiteDatabaseFromDB(db *sql.DB, clock ems.Clock) *SQLiteDatabase {
	if clock == nil {
		clock = ems.RealClock{}
	}
	return &SQLiteDatabase{db: db, clock: clock}
}

// OpenConnection opens and configures a SQLite connection.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// every connection to :memory: is a separate database
	if path == memoryPath {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}
	return db, nil
}

// Session blobs

// GetSession returns the blob stored under key, or nil if there is none.
func (s *SQLiteDatabase) GetSession(key string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRow("SELECT data FROM sessions WHERE key = ?", key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading session %q: %w", key, err)
	}
	return data, nil
}

// PutSession stores data under key, replacing any previous blob.
func (s *SQLiteDatabase) PutSession(key string, data []byte) error {
	_, err := s.db.Exec(`
		INSERT INTO sessions (key, data, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		key, data, s.clock.Now().UTC())
	if err != nil {
		return fmt.Errorf("writing session %q: %w", key, err)
	}
	return nil
}

// DeleteSession removes the blob stored under key.
func (s *SQLiteDatabase) DeleteSession(key string) error {
	if _, err := s.db.Exec("DELETE FROM sessions WHERE key = ?", key); err != nil {
		return fmt.Errorf("deleting session %q: %w", key, err)
	}
	return nil
}

// Operation history

func (s *SQLiteDatabase) CreateOperation(name, parameters, username string) (*ems.Operation, error) {
	op := &ems.Operation{
		Name:       name,
		Parameters: parameters,
		Username:   username,
		StartedAt:  s.clock.Now().UTC(),
		Status:     ems.StatusRunning,
	}
	res, err := s.db.Exec(`
		INSERT INTO console_operations (started_at, operation, parameters, username, status)
		VALUES (?, ?, ?, ?, ?)`,
		op.StartedAt, op.Name, op.Parameters, op.Username, op.Status)
	if err != nil {
		return nil, fmt.Errorf("creating operation: %w", err)
	}
	if op.ID, err = res.LastInsertId(); err != nil {
		return nil, fmt.Errorf("reading operation id: %w", err)
	}
	return op, nil
}

func (s *SQLiteDatabase) FinishOperation(id int64, status string) error {
	res, err := s.db.Exec(
		"UPDATE console_operations SET finished_at = ?, status = ? WHERE id = ?",
		s.clock.Now().UTC(), status, id)
	if err != nil {
		return fmt.Errorf("finishing operation: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("finishing operation: no operation with id %d", id)
	}
	return nil
}

func (s *SQLiteDatabase) ListOperations(limit int) ([]*ems.Operation, error) {
	rows, err := s.db.Query(`
		SELECT id, started_at, finished_at, operation, parameters, username, status
		FROM console_operations
		ORDER BY id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing operations: %w", err)
	}
	defer rows.Close()

	var ops []*ems.Operation
	for rows.Next() {
		var op ems.Operation
		var finished sql.NullTime
		if err := rows.Scan(&op.ID, &op.StartedAt, &finished, &op.Name, &op.Parameters, &op.Username, &op.Status); err != nil {
			return nil, fmt.Errorf("scanning operation: %w", err)
		}
		if finished.Valid {
			t := finished.Time
			op.FinishedAt = &t
		}
		ops = append(ops, &op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing operations: %w", err)
	}
	return ops, nil
}

// Path returns the database file path (or ":memory:").
func (s *SQLiteDatabase) Path() string {
	return s.path
}

// CheckMigrations verifies the database schema is up-to-date.
func (s *SQLiteDatabase) CheckMigrations() error {
	return migrations.CheckDBMigrationStatus(s.db)
}

// BackupTo writes a complete copy of the database to destPath using VACUUM INTO.
func (s *SQLiteDatabase) BackupTo(destPath string) error {
	if _, err := s.db.Exec("VACUUM INTO ?", destPath); err != nil {
		return fmt.Errorf("backing up database: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteDatabase) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
