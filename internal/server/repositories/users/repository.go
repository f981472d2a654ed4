package users

import (
	"context"

	"github.com/dmitrijs2005/branchkeeper/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByAccountID(ctx context.Context, accountID string) (*models.User, error)
	Update(ctx context.Context, accountID string, patch models.UserPatch) (*models.User, error)
}
