package store

import (
	"database/sql"
	_ "embed"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// migrations[i] moves a database from user_version i to i+1.
var migrations = []func(*sql.DB) error{
	indexFingerprints,
}

// IDGenerator produces snapshot ids.
type IDGenerator interface {
	Generate() string
}

type uuidGenerator struct{}

func (uuidGenerator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Option configures a Store.
type Option func(*Store)

// WithIDGenerator replaces the default UUIDv7 id generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(s *Store) { s.ids = g }
}

// Store keeps serialized programs in SQLite, one row per snapshot.
type Store struct {
	db    *sql.DB
	ids   IDGenerator
	clock *Clock
}

// Open opens (creating if needed) the snapshot database at path, configures
// the connection and brings the schema up to date. Opening an existing
// database resumes its seq numbering.
//
// Connection settings: WAL journal, synchronous=NORMAL, a 5s busy timeout
// and foreign keys on. The pool is limited to one connection since SQLite
// allows a single writer.
func Open(path string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	last, err := prepare(db)
	if err != nil {
		db.Close()
		return nil, err
	}

	s := &Store{db: db, ids: uuidGenerator{}, clock: NewClockAt(last)}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// prepare configures db and returns the highest seq it holds.
func prepare(db *sql.DB) (int64, error) {
	if err := db.Ping(); err != nil {
		return 0, fmt.Errorf("connect: %w", err)
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			return 0, fmt.Errorf("%s: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		return 0, fmt.Errorf("create schema: %w", err)
	}
	if err := migrate(db); err != nil {
		return 0, err
	}

	var last int64
	if err := db.QueryRow("SELECT COALESCE(MAX(seq), 0) FROM snapshots").Scan(&last); err != nil {
		return 0, fmt.Errorf("read last seq: %w", err)
	}
	return last, nil
}

// migrate runs the migrations past the database's user_version.
func migrate(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}
	for v := version; v < len(migrations); v++ {
		if err := migrations[v](db); err != nil {
			return fmt.Errorf("migrate to v%d: %w", v+1, err)
		}
		if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", v+1)); err != nil {
			return fmt.Errorf("set user_version %d: %w", v+1, err)
		}
	}
	return nil
}

func indexFingerprints(db *sql.DB) error {
	_, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_snapshots_fingerprint ON snapshots(fingerprint)`)
	return err
}

// Close closes the database. Closing a zero Store is a no-op.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
