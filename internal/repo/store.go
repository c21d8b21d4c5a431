package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/noah-isme/toko-checkout/internal/common"
	dbgen "github.com/noah-isme/toko-checkout/internal/db/gen"
)

// Postgres error codes the unit of work reacts to.
const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgUniqueViolation      = "23505"
	pgCheckViolation       = "23514"
	pgForeignKeyViolation  = "23503"
)

// TxRunner runs fn inside one unit of work. Every query issued through q
// commits together when fn returns nil and rolls back otherwise.
type TxRunner interface {
	InTx(ctx context.Context, fn func(q dbgen.Querier) error) error
}

// Store couples the unit of work with a non-transactional querier for reads.
type Store interface {
	TxRunner
	Queries() dbgen.Querier
}

// PgxStore is the Postgres backed Store.
type PgxStore struct {
	Pool *pgxpool.Pool
	Q    *dbgen.Queries
}

// NewPgxStore wraps the pool with generated queries.
func NewPgxStore(pool *pgxpool.Pool) *PgxStore {
	return &PgxStore{Pool: pool, Q: dbgen.New(pool)}
}

// Queries returns the pool-bound querier.
func (s *PgxStore) Queries() dbgen.Querier {
	return s.Q
}

// InTx begins a READ COMMITTED transaction, hands fn a querier bound to it and
// commits on success. Serialization failures and deadlocks surface as
// PERSISTENCE_CONFLICT.
func (s *PgxStore) InTx(ctx context.Context, fn func(q dbgen.Querier) error) error {
	if s == nil || s.Pool == nil {
		return errors.New("pgx store not configured")
	}
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return MapError(fmt.Errorf("begin tx: %w", err))
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	if err := fn(s.Q.WithTx(tx)); err != nil {
		return MapError(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return MapError(fmt.Errorf("commit tx: %w", err))
	}
	return nil
}

// MapError converts transient Postgres concurrency failures into
// PERSISTENCE_CONFLICT and leaves everything else untouched.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgSerializationFailure, pgDeadlockDetected:
			return common.ErrPersistenceConflict.Wrap(err)
		}
	}
	return err
}

// IsNoRows reports whether err signals a missing row.
func IsNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// IsUniqueViolation reports whether err is a unique constraint violation.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// IsCheckViolation reports whether err is a CHECK constraint violation.
func IsCheckViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgCheckViolation
}

// IsForeignKeyViolation reports whether err is a foreign key violation.
func IsForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation
}

// Retry runs fn and repeats it up to retries more times while it fails with
// PERSISTENCE_CONFLICT. Context cancellation stops the loop.
func Retry(ctx context.Context, retries int, fn func() error) error {
	if retries < 0 {
		retries = 0
	}
	var err error
	for attempt := 0; attempt <= retries; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			if err != nil {
				return err
			}
			return ctxErr
		}
		err = fn()
		if err == nil || !errors.Is(err, common.ErrPersistenceConflict) {
			return err
		}
	}
	return err
}
