package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Pool is the pgx connection pool shared by every store in this
// package. Candidate, catalog, comparable, bounty and demand stores all
// run against the same pool so the pipeline holds one set of
// connections.
type Pool struct {
	*pgxpool.Pool
}

// NewPool connects to Postgres and verifies the connection with a ping.
// A pool that cannot reach the database is never returned.
func NewPool(ctx context.Context, dsn string) (*Pool, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &Pool{Pool: pool}, nil
}

// isUniqueViolation reports whether err is a unique-constraint
// violation (SQLSTATE 23505). Stores translate it to
// storage.ErrDuplicateKey at their boundary.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// isNoRows reports whether err means the query matched nothing. Stores
// translate it to storage.ErrNotFound at their boundary.
func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
