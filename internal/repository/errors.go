package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// PostgreSQL error codes translated into repository sentinels.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

var (
	// ErrDuplicate signals that a unique index rejected the write.
	ErrDuplicate = errors.New("duplicate key")
	// ErrForeignKey signals a missing referenced row.
	ErrForeignKey = errors.New("referenced row does not exist")
	// ErrCheckViolation signals a violated CHECK constraint.
	ErrCheckViolation = errors.New("check constraint violated")
)

// ConstraintError keeps the constraint name next to the sentinel it maps to.
type ConstraintError struct {
	Kind       error
	Constraint string
	Err        error
}

func (e *ConstraintError) Error() string {
	return fmt.Sprintf("%v (%s): %v", e.Kind, e.Constraint, e.Err)
}

func (e *ConstraintError) Is(target error) bool { return target == e.Kind }

func (e *ConstraintError) Unwrap() error { return e.Err }

// translate maps constraint violations onto sentinels; other errors pass through.
func translate(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	var kind error
	switch string(pqErr.Code) {
	case pgUniqueViolation:
		kind = ErrDuplicate
	case pgForeignKeyViolation:
		kind = ErrForeignKey
	case pgCheckViolation:
		kind = ErrCheckViolation
	default:
		return err
	}
	return &ConstraintError{Kind: kind, Constraint: pqErr.Constraint, Err: err}
}

// insertReturningID runs a named INSERT ... RETURNING id on a pool or transaction.
func insertReturningID(ctx context.Context, ext sqlx.ExtContext, query string, arg interface{}) (int64, error) {
	rows, err := sqlx.NamedQueryContext(ctx, ext, query, arg)
	if err != nil {
		return 0, translate(err)
	}
	defer rows.Close() //nolint:errcheck

	var id int64
	if rows.Next() {
		if err := rows.Scan(&id); err != nil {
			return 0, err
		}
	}
	if err := rows.Err(); err != nil {
		return 0, translate(err)
	}
	return id, nil
}

// withTx runs fn inside a transaction, rolling back on error.
func withTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) (err error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// orderClause resolves a user supplied sort key against an allow-list.
func orderClause(allowed map[string]string, sortBy, sortOrder, fallback string) string {
	column, ok := allowed[sortBy]
	if !ok {
		column = allowed[fallback]
	}
	order := "DESC"
	if sortOrder == "asc" || sortOrder == "ASC" {
		order = "ASC"
	}
	return column + " " + order
}
