package memory

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/branchkeeper/internal/common"
	"github.com/dmitrijs2005/branchkeeper/internal/server/models"
)

type CategoryRepository struct{ s *Store }

func (s *Store) Categories() *CategoryRepository { return &CategoryRepository{s: s} }

func (r *CategoryRepository) Create(_ context.Context, c *models.Category) (*models.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c.ID, c.CreatedAt = r.s.register()
	r.s.categories[c.ID] = cloneCategory(c)
	return c, nil
}

func (r *CategoryRepository) GetByID(_ context.Context, id string) (*models.Category, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	c, ok := r.s.categories[id]
	if !ok {
		return nil, fmt.Errorf("get category: %w", common.ErrorNotFound)
	}
	return cloneCategory(c), nil
}

func (r *CategoryRepository) Update(_ context.Context, id string, patch models.CategoryPatch) (*models.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.categories[id]
	if !ok {
		return nil, fmt.Errorf("update category: %w", common.ErrorNotFound)
	}
	patch.ApplyTo(c)
	return cloneCategory(c), nil
}

func (r *CategoryRepository) Delete(_ context.Context, id string) (*models.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.categories[id]
	if !ok {
		return nil, fmt.Errorf("delete category: %w", common.ErrorNotFound)
	}
	delete(r.s.categories, id)
	delete(r.s.order, id)
	return c, nil
}

func (r *CategoryRepository) FindByOwner(_ context.Context, accountID string) ([]*models.Category, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []*models.Category
	for _, c := range r.s.categories {
		if c.AccountID == accountID {
			out = append(out, cloneCategory(c))
		}
	}
	sortByOrder(r.s, out)
	return out, nil
}

func (r *CategoryRepository) OwnerOf(_ context.Context, id string) (string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	c, ok := r.s.categories[id]
	if !ok {
		return "", fmt.Errorf("category owner: %w", common.ErrorNotFound)
	}
	return c.AccountID, nil
}

func (r *CategoryRepository) Search(_ context.Context, accountID, query string) ([]models.SearchHit, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var hits []models.SearchHit
	for _, c := range r.s.categories {
		if c.AccountID != accountID {
			continue
		}
		if sc := score(query, c.Name); sc > 0 {
			hits = append(hits, models.SearchHit{Kind: models.KindCategory, Score: sc, Entity: cloneCategory(c)})
		}
	}
	sortHits(hits)
	return hits, nil
}
