package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrDuplicateKey marks a store-level unique constraint violation. Services
// translate it into a field validation error so it never surfaces as a 500.
var ErrDuplicateKey = errors.New("duplicate key value")

// pgUniqueViolation is SQLSTATE 23505.
const pgUniqueViolation = "23505"

// translateError maps driver-specific constraint failures onto the
// repository's own error vocabulary; anything else passes through.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return ErrDuplicateKey
	}
	return err
}
