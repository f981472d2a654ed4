package memory

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/branchkeeper/internal/common"
	"github.com/dmitrijs2005/branchkeeper/internal/server/models"
)

type TaskRepository struct{ s *Store }

func (s *Store) Tasks() *TaskRepository { return &TaskRepository{s: s} }

func (r *TaskRepository) Create(_ context.Context, t *models.Task) (*models.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t.ID, t.CreatedAt = r.s.register()
	r.s.tasks[t.ID] = cloneTask(t)
	return t, nil
}

func (r *TaskRepository) GetByID(_ context.Context, id string) (*models.Task, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	t, ok := r.s.tasks[id]
	if !ok {
		return nil, fmt.Errorf("get task: %w", common.ErrorNotFound)
	}
	return cloneTask(t), nil
}

func (r *TaskRepository) Update(_ context.Context, id string, patch models.TaskPatch) (*models.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.tasks[id]
	if !ok {
		return nil, fmt.Errorf("update task: %w", common.ErrorNotFound)
	}
	patch.ApplyTo(t)
	return cloneTask(t), nil
}

func (r *TaskRepository) Delete(_ context.Context, id string) (*models.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.tasks[id]
	if !ok {
		return nil, fmt.Errorf("delete task: %w", common.ErrorNotFound)
	}
	delete(r.s.tasks, id)
	delete(r.s.order, id)
	return t, nil
}

func (r *TaskRepository) filter(keep func(*models.Task) bool) []*models.Task {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []*models.Task
	for _, t := range r.s.tasks {
		if keep(t) {
			out = append(out, cloneTask(t))
		}
	}
	sortByOrder(r.s, out)
	return out
}

func (r *TaskRepository) FindByOwner(_ context.Context, accountID string) ([]*models.Task, error) {
	return r.filter(func(t *models.Task) bool { return t.AccountID == accountID }), nil
}

func (r *TaskRepository) FindByParent(_ context.Context, parent models.ParentRef) ([]*models.Task, error) {
	return r.filter(func(t *models.Task) bool { return t.ParentRef() == parent }), nil
}

func (r *TaskRepository) SetParent(_ context.Context, id string, parent models.ParentRef) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.tasks[id]
	if !ok {
		return fmt.Errorf("move task: %w", common.ErrorNotFound)
	}
	t.ParentType, t.Parent = parent.Kind, parent.ID
	return nil
}

func (r *TaskRepository) OwnerOf(_ context.Context, id string) (string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	t, ok := r.s.tasks[id]
	if !ok {
		return "", fmt.Errorf("task owner: %w", common.ErrorNotFound)
	}
	return t.AccountID, nil
}

func (r *TaskRepository) Search(_ context.Context, accountID, query string) ([]models.SearchHit, error) {
	var hits []models.SearchHit
	for _, t := range r.filter(func(t *models.Task) bool { return t.AccountID == accountID }) {
		if sc := score(query, t.Name, t.Description); sc > 0 {
			hits = append(hits, models.SearchHit{Kind: models.KindTask, Score: sc, Entity: t})
		}
	}
	sortHits(hits)
	return hits, nil
}
