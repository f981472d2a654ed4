// Package categories persists top-level containers.
package categories

import (
	"context"

	"github.com/dmitrijs2005/branchkeeper/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, c *models.Category) (*models.Category, error)
	GetByID(ctx context.Context, id string) (*models.Category, error)
	Update(ctx context.Context, id string, patch models.CategoryPatch) (*models.Category, error)
	// Delete removes the row and returns its prior state.
	Delete(ctx context.Context, id string) (*models.Category, error)
	// FindByOwner lists the account's categories, oldest first.
	FindByOwner(ctx context.Context, accountID string) ([]*models.Category, error)
	OwnerOf(ctx context.Context, id string) (string, error)
	Search(ctx context.Context, accountID, query string) ([]models.SearchHit, error)
}
