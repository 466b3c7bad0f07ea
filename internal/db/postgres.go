package db

import (
	"context"
	_ "embed"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

//go:embed schema.sql
var schema string

// Open connects to postgres, tunes the pool and pings with a timeout so a
// dead database fails at boot rather than on the first mutation.
func Open(ctx context.Context, dsn string, log *zap.Logger) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "db: open")
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "db: ping")
	}

	// never log the DSN, it may carry the password
	log.Info("db: connected", zap.String("driver", db.DriverName()))
	return db, nil
}

// Migrate creates the tables this service owns. Safe to run repeatedly.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, schema)
	return errors.Wrap(err, "db: migrate")
}
