package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrSerializationConflict marks a transaction that lost a race with a
// concurrent one and can be retried from scratch.
var ErrSerializationConflict = errors.New("database: serialization conflict")

// SQLSTATE codes treated as retryable conflicts.
const (
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeUniqueViolation      = "23505"
)

type DB struct {
	*pgxpool.Pool
}

func NewPostgreSQLDB(dsn string) (*DB, error) {
	config, err := pgxpool.ParseConfig(dsn)

	if err != nil {
		return nil, err
	}

	// Connection pool settings
	config.MaxConns = 25
	config.MinConns = 5

	pool, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(context.Background()); err != nil {
		return nil, err
	}

	return &DB{Pool: pool}, nil
}

// BeginTx starts a transaction with the given isolation level.
func (db *DB) BeginTx(ctx context.Context, iso pgx.TxIsoLevel) (pgx.Tx, error) {
	return db.Pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: iso})
}

type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, arguments ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// IsRetryable reports whether err is a serialization failure, a deadlock or
// a unique violation raised by a concurrent writer.
func IsRetryable(err error) bool {
	if errors.Is(err, ErrSerializationConflict) {
		return true
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case codeSerializationFailure, codeDeadlockDetected, codeUniqueViolation:
		return true
	}
	return false
}

// MapError wraps retryable Postgres errors with ErrSerializationConflict and
// returns every other error unchanged.
func MapError(err error) error {
	if err == nil || errors.Is(err, ErrSerializationConflict) || !IsRetryable(err) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrSerializationConflict, err)
}
