package postgres

import (
	"fmt"
	"os"
	"time"

	"github.com/dfryer1193/blogwrite/shared/db"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

const driverName = "pgx"

type PostgresConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// NewPostgresConfig reads DATABASE_URL with the default pool settings.
func NewPostgresConfig() *PostgresConfig {
	return &PostgresConfig{
		URL:             os.Getenv("DATABASE_URL"),
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
	}
}

// PostgresDB implements db.Database over the pgx stdlib driver
type PostgresDB struct {
	cfg *PostgresConfig
	db  *sqlx.DB
}

var _ db.Database = (*PostgresDB)(nil)

func NewPostgresDB(cfg *PostgresConfig) *PostgresDB {
	return &PostgresDB{cfg: cfg}
}

func (p *PostgresDB) Connect() error {
	if p.db != nil {
		return fmt.Errorf("database already connected")
	}
	if p.cfg.URL == "" {
		return fmt.Errorf("postgres connection url is empty")
	}

	conn, err := sqlx.Connect(driverName, p.cfg.URL)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	conn.SetMaxOpenConns(p.cfg.MaxOpenConns)
	conn.SetMaxIdleConns(p.cfg.MaxIdleConns)
	conn.SetConnMaxLifetime(p.cfg.ConnMaxLifetime)

	if err := db.RunMigrations(conn.DB, driverName); err != nil {
		conn.Close()
		return err
	}

	log.Info().Str("driver", driverName).Msg("Database connected")
	p.db = conn
	return nil
}

func (p *PostgresDB) Close() error {
	if p.db == nil {
		return nil
	}

	err := p.db.Close()
	p.db = nil
	return err
}

func (p *PostgresDB) DB() *sqlx.DB {
	return p.db
}
