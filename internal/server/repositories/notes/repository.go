// Package notes persists free-text notes attached to tasks and events.
package notes

import (
	"context"

	"github.com/dmitrijs2005/branchkeeper/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, n *models.Note) (*models.Note, error)
	GetByID(ctx context.Context, id string) (*models.Note, error)
	Update(ctx context.Context, id string, patch models.NotePatch) (*models.Note, error)
	Delete(ctx context.Context, id string) (*models.Note, error)
	FindByOwner(ctx context.Context, accountID string) ([]*models.Note, error)
	FindByParent(ctx context.Context, parent models.ParentRef) ([]*models.Note, error)
	SetParent(ctx context.Context, id string, parent models.ParentRef) error
	OwnerOf(ctx context.Context, id string) (string, error)
	Search(ctx context.Context, accountID, query string) ([]models.SearchHit, error)
}
