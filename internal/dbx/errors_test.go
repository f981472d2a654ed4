package dbx

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/branchkeeper/internal/common"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestMapError(t *testing.T) {
	assert.NoError(t, MapError("op", nil))

	err := MapError("get task", sql.ErrNoRows)
	assert.ErrorIs(t, err, common.ErrorNotFound)
	assert.NotErrorIs(t, err, common.ErrorPersistence)

	cause := errors.New("conn reset")
	err = MapError("get task", cause)
	assert.ErrorIs(t, err, common.ErrorPersistence)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "get task")

	err = MapError("create user", &pgconn.PgError{Code: "23505"})
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)
}

func TestRequireAffected(t *testing.T) {
	assert.NoError(t, RequireAffected("op", sqlmock.NewResult(0, 1)))
	assert.ErrorIs(t, RequireAffected("op", sqlmock.NewResult(0, 0)), common.ErrorNotFound)
	assert.ErrorIs(t, RequireAffected("op", sqlmock.NewErrorResult(errors.New("x"))), common.ErrorPersistence)
}
