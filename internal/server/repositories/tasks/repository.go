// Package tasks persists tasks. A task stores only its own parent reference;
// child lists are computed by querying FindByParent.
package tasks

import (
	"context"

	"github.com/dmitrijs2005/branchkeeper/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, t *models.Task) (*models.Task, error)
	GetByID(ctx context.Context, id string) (*models.Task, error)
	Update(ctx context.Context, id string, patch models.TaskPatch) (*models.Task, error)
	Delete(ctx context.Context, id string) (*models.Task, error)
	FindByOwner(ctx context.Context, accountID string) ([]*models.Task, error)
	FindByParent(ctx context.Context, parent models.ParentRef) ([]*models.Task, error)
	SetParent(ctx context.Context, id string, parent models.ParentRef) error
	OwnerOf(ctx context.Context, id string) (string, error)
	Search(ctx context.Context, accountID, query string) ([]models.SearchHit, error)
}
