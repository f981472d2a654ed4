// Package events persists events and their reschedule history.
package events

import (
	"context"

	"github.com/dmitrijs2005/branchkeeper/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, e *models.Event) (*models.Event, error)
	GetByID(ctx context.Context, id string) (*models.Event, error)
	// Update applies the patch. A changed DateTime appends the previous
	// value to PrevDates.
	Update(ctx context.Context, id string, patch models.EventPatch) (*models.Event, error)
	Delete(ctx context.Context, id string) (*models.Event, error)
	FindByOwner(ctx context.Context, accountID string) ([]*models.Event, error)
	FindByParent(ctx context.Context, parent models.ParentRef) ([]*models.Event, error)
	SetParent(ctx context.Context, id string, parent models.ParentRef) error
	OwnerOf(ctx context.Context, id string) (string, error)
	Search(ctx context.Context, accountID, query string) ([]models.SearchHit, error)
}
