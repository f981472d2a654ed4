package dbx

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/branchkeeper/internal/common"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

// MapError translates a database/sql error into the common sentinels:
// sql.ErrNoRows becomes ErrorNotFound, a unique violation ErrorAlreadyExists,
// anything else ErrorPersistence.
func MapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, common.ErrorNotFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%s: %w", op, common.ErrorAlreadyExists)
	}
	return fmt.Errorf("%w: %s: %w", common.ErrorPersistence, op, err)
}

// RequireAffected reports ErrorNotFound when an exec touched no rows.
func RequireAffected(op string, res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return MapError(op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, common.ErrorNotFound)
	}
	return nil
}
