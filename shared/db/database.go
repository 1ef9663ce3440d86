package db

import (
	"github.com/jmoiron/sqlx"
)

// Database is a SQL backend with an explicit connect/close lifecycle.
type Database interface {
	Connect() error
	Close() error
	DB() *sqlx.DB
}
