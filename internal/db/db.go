package db

import (
	"database/sql"
	"strings"

	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// DB wraps the database connection.
type DB struct {
	*sql.DB
}

// New creates a new database connection from the provided connection string.
func New(connectionString string) (*DB, error) {
	if connectionString == "" {
		return nil, errors.New("database connection string is required")
	}

	sqlDB, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}

	if err := sqlDB.Ping(); err != nil {
		// Retry with SSL disabled if the string does not pin an sslmode.
		if !strings.Contains(strings.ToLower(connectionString), "sslmode") {
			log.Info().Str("component", "db").Msg("retrying database connection with SSL disabled")
			_ = sqlDB.Close()
			retry := connectionString
			if strings.Contains(retry, "?") {
				retry += "&sslmode=disable"
			} else {
				retry += "?sslmode=disable"
			}
			sqlDB, err = sql.Open("postgres", retry)
			if err != nil {
				return nil, errors.Wrap(err, "failed to open database")
			}
		}
		if err := sqlDB.Ping(); err != nil {
			return nil, errors.Wrap(err, "failed to ping database")
		}
	}

	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	return &DB{DB: sqlDB}, nil
}

// HealthCheck verifies the database connection is healthy.
func (db *DB) HealthCheck() error {
	return db.Ping()
}

func (db *DB) Close() error {
	return db.DB.Close()
}

const bookingsSchema = `
CREATE TABLE IF NOT EXISTS bookings (
	booking_id   TEXT PRIMARY KEY,
	business_id  TEXT NOT NULL,
	session_id   TEXT NOT NULL,
	service_name TEXT NOT NULL,
	booked_time  TEXT NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// EnsureSchema creates the booking log table if it does not exist.
func (db *DB) EnsureSchema() error {
	_, err := db.Exec(bookingsSchema)
	return errors.Wrap(err, "failed to ensure bookings schema")
}
