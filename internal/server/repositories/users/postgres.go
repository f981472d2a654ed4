package users

import (
	"context"

	"github.com/dmitrijs2005/branchkeeper/internal/dbx"
	"github.com/dmitrijs2005/branchkeeper/internal/server/models"
	"github.com/google/uuid"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {

	query :=
		`INSERT INTO users (id, account_id, username, email)
         VALUES ($1, $2, $3, $4)
		 RETURNING created_at
		 `

	id := uuid.NewString()
	err := r.db.QueryRowContext(ctx, query,
		id, user.AccountID, user.UserName, user.Email).Scan(&user.CreatedAt)

	if err != nil {
		return nil, dbx.MapError("create user", err)
	}

	user.ID = id
	return user, nil
}

func (r *PostgresRepository) GetByAccountID(ctx context.Context, accountID string) (*models.User, error) {
	query :=
		`SELECT id, account_id, username, email, created_at FROM users
		 WHERE account_id = $1
		 `

	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, accountID).
		Scan(&user.ID, &user.AccountID, &user.UserName, &user.Email, &user.CreatedAt)

	if err != nil {
		return nil, dbx.MapError("get user", err)
	}

	return user, nil
}

func (r *PostgresRepository) Update(ctx context.Context, accountID string, patch models.UserPatch) (*models.User, error) {
	query :=
		`UPDATE users SET username = COALESCE($2, username), email = COALESCE($3, email)
		 WHERE account_id = $1
		 RETURNING id, account_id, username, email, created_at
		 `

	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, accountID, patch.UserName, patch.Email).
		Scan(&user.ID, &user.AccountID, &user.UserName, &user.Email, &user.CreatedAt)

	if err != nil {
		return nil, dbx.MapError("update user", err)
	}

	return user, nil
}
