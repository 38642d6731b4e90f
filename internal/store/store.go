package store

import (
	"database/sql"
	_ "embed"
	"fmt"
	"net/url"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/labledger/internal/ledger"
)

//go:embed schema.sql
var schemaSQL string

var _ ledger.Store = (*Store)(nil)

// Store is a durable ledger.Store backed by one SQLite file.
// Every accepted write also lands in record_journal through triggers.
type Store struct {
	db *sql.DB
}

// connParams are go-sqlite3 DSN options, applied to every connection the
// pool opens.
var connParams = url.Values{
	"_journal_mode": {"WAL"},
	"_synchronous":  {"NORMAL"},
	"_busy_timeout": {"5000"},
	"_foreign_keys": {"on"},
	"_txlock":       {"immediate"},
}

// migration moves the schema to version. Each one runs in its own
// transaction together with the user_version bump.
type migration struct {
	version int
	stmt    string
}

var migrations = []migration{
	{version: 1, stmt: `CREATE INDEX IF NOT EXISTS idx_record_journal_key ON record_journal(key, seq)`},
}

// Open opens the ledger database at path, creating it if needed, and brings
// the schema up to date. Reopening an existing file is safe.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?"+connParams.Encode())
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	// One connection: the handler is the only writer
	db.SetMaxOpenConns(1)

	if err := bootstrap(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

func bootstrap(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("schema: %w", err)
	}

	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}
	for _, m := range migrations {
		if m.version <= version {
			continue
		}
		if err := migrate(db, m); err != nil {
			return err
		}
	}
	return nil
}

func migrate(db *sql.DB, m migration) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("migration %d: %w", m.version, err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(m.stmt); err != nil {
		return fmt.Errorf("migration %d: %w", m.version, err)
	}
	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", m.version)); err != nil {
		return fmt.Errorf("migration %d: set user_version: %w", m.version, err)
	}
	return tx.Commit()
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// pragma reads a pragma value as text.
func (s *Store) pragma(name string) (string, error) {
	var value string
	err := s.db.QueryRow("PRAGMA " + name).Scan(&value)
	return value, err
}
