package db

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"strings"

	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog/log"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// dialectMap maps database/sql driver names to goose dialects
var dialectMap = map[string]string{
	"sqlite": "sqlite3",
	"pgx":    "postgres",
}

func getDialect(driver string) string {
	if dialect, ok := dialectMap[driver]; ok {
		return dialect
	}
	return driver
}

// gooseLogger routes goose output through zerolog
type gooseLogger struct{}

func (gooseLogger) Printf(format string, v ...interface{}) {
	log.Debug().Str("component", "goose").Msg(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (gooseLogger) Fatalf(format string, v ...interface{}) {
	log.Fatal().Str("component", "goose").Msg(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func setupGoose(driver string) error {
	if err := goose.SetDialect(getDialect(driver)); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}

	migrationsDir, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to get migrations directory: %w", err)
	}

	goose.SetBaseFS(migrationsDir)
	goose.SetLogger(gooseLogger{})
	return nil
}

// RunMigrations applies every pending migration for the given driver.
func RunMigrations(db *sql.DB, driver string) error {
	if err := setupGoose(driver); err != nil {
		return err
	}

	if err := goose.Up(db, "."); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Info().Str("driver", driver).Msg("Migrations completed successfully")
	return nil
}

// MigrateDown rolls back the most recent migration.
func MigrateDown(db *sql.DB, driver string) error {
	if err := setupGoose(driver); err != nil {
		return err
	}

	if err := goose.Down(db, "."); err != nil {
		return fmt.Errorf("failed to rollback migration: %w", err)
	}

	log.Info().Str("driver", driver).Msg("Rolled back one migration")
	return nil
}
