package sqlite

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dfryer1193/blogwrite/shared/db"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

const (
	driverName = "sqlite"
	defaultPath = "./blogwrite.db"
)

type SQLiteConfig struct {
	Path string
}

func NewSQLiteConfig() *SQLiteConfig {
	path := os.Getenv("SQLITE_DB_PATH")
	if path == "" {
		path = defaultPath
	}

	return &SQLiteConfig{
		Path: path,
	}
}

// SQLiteDB implements the db.Database interface for SQLite
type SQLiteDB struct {
	dbPath string
	db     *sqlx.DB
}

var _ db.Database = (*SQLiteDB)(nil)

// NewSQLiteDB creates a new SQLite database instance
func NewSQLiteDB(cfg *SQLiteConfig) *SQLiteDB {
	return &SQLiteDB{
		dbPath: cfg.Path,
	}
}

// Connect opens a connection to the SQLite database and migrates it
func (s *SQLiteDB) Connect() error {
	if s.db != nil {
		return fmt.Errorf("database already connected")
	}

	if s.dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(s.dbPath), 0755); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	conn, err := sqlx.Open(driverName, s.dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	if s.dbPath == ":memory:" {
		// each connection to :memory: opens its own empty database
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
		"PRAGMA cache_size=-64000", // KiB when negative
	}

	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return fmt.Errorf("failed to set pragma %q: %w", pragma, err)
		}
	}

	if err := db.RunMigrations(conn.DB, driverName); err != nil {
		conn.Close()
		return err
	}

	s.db = conn
	return nil
}

// Close closes the database connection
func (s *SQLiteDB) Close() error {
	if s.db == nil {
		return nil
	}

	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteDB) DB() *sqlx.DB {
	return s.db
}
