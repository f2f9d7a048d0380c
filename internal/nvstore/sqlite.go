package nvstore

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// SQLite persists words in a single-table SQLite database.
// Rows exist only for written words; missing rows read as Erased.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite creates or opens the database at path.
//
// The database is configured with:
//   - WAL mode so the status page can read while the console writes
//   - FULL synchronous mode, a configuration write must survive power loss
//   - 5-second busy timeout for lock contention
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	// SQLite only supports one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = FULL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %q: %w", p, err)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

// ReadWord returns the word at addr, or Erased if no row exists.
func (s *SQLite) ReadWord(addr uint16) (uint32, error) {
	if err := checkRange(addr, 1); err != nil {
		return 0, err
	}
	var v int64
	err := s.db.QueryRow(`SELECT value FROM words WHERE addr = ?`, int64(addr)).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return Erased, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read word %d: %w", addr, err)
	}
	return uint32(v), nil
}

// WriteWord stores value at addr.
func (s *SQLite) WriteWord(addr uint16, value uint32) error {
	return s.WriteWords(addr, []uint32{value})
}

// WriteWords stores values starting at addr in one transaction.
func (s *SQLite) WriteWords(addr uint16, values []uint32) error {
	if err := checkRange(addr, len(values)); err != nil {
		return err
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin write: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO words (addr, value) VALUES (?, ?)
		ON CONFLICT(addr) DO UPDATE SET value = excluded.value`)
	if err != nil {
		return fmt.Errorf("prepare write: %w", err)
	}
	defer stmt.Close()

	for i, v := range values {
		a := int64(addr) + int64(i)
		if _, err := stmt.Exec(a, int64(v)); err != nil {
			return fmt.Errorf("write word %d: %w", a, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit write: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *SQLite) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
