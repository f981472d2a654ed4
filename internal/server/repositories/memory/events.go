package memory

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/branchkeeper/internal/common"
	"github.com/dmitrijs2005/branchkeeper/internal/server/models"
)

type EventRepository struct{ s *Store }

func (s *Store) Events() *EventRepository { return &EventRepository{s: s} }

func (r *EventRepository) Create(_ context.Context, e *models.Event) (*models.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	e.ID, e.CreatedAt = r.s.register()
	r.s.events[e.ID] = cloneEvent(e)
	return e, nil
}

func (r *EventRepository) GetByID(_ context.Context, id string) (*models.Event, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	e, ok := r.s.events[id]
	if !ok {
		return nil, fmt.Errorf("get event: %w", common.ErrorNotFound)
	}
	return cloneEvent(e), nil
}

func (r *EventRepository) Update(_ context.Context, id string, patch models.EventPatch) (*models.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	e, ok := r.s.events[id]
	if !ok {
		return nil, fmt.Errorf("update event: %w", common.ErrorNotFound)
	}
	patch.ApplyTo(e)
	return cloneEvent(e), nil
}

func (r *EventRepository) Delete(_ context.Context, id string) (*models.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	e, ok := r.s.events[id]
	if !ok {
		return nil, fmt.Errorf("delete event: %w", common.ErrorNotFound)
	}
	delete(r.s.events, id)
	delete(r.s.order, id)
	return e, nil
}

func (r *EventRepository) filter(keep func(*models.Event) bool) []*models.Event {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []*models.Event
	for _, e := range r.s.events {
		if keep(e) {
			out = append(out, cloneEvent(e))
		}
	}
	sortByOrder(r.s, out)
	return out
}

func (r *EventRepository) FindByOwner(_ context.Context, accountID string) ([]*models.Event, error) {
	return r.filter(func(e *models.Event) bool { return e.AccountID == accountID }), nil
}

func (r *EventRepository) FindByParent(_ context.Context, parent models.ParentRef) ([]*models.Event, error) {
	return r.filter(func(e *models.Event) bool { return e.ParentRef() == parent }), nil
}

func (r *EventRepository) SetParent(_ context.Context, id string, parent models.ParentRef) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	e, ok := r.s.events[id]
	if !ok {
		return fmt.Errorf("move event: %w", common.ErrorNotFound)
	}
	e.ParentType, e.Parent = parent.Kind, parent.ID
	return nil
}

func (r *EventRepository) OwnerOf(_ context.Context, id string) (string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	e, ok := r.s.events[id]
	if !ok {
		return "", fmt.Errorf("event owner: %w", common.ErrorNotFound)
	}
	return e.AccountID, nil
}

func (r *EventRepository) Search(_ context.Context, accountID, query string) ([]models.SearchHit, error) {
	var hits []models.SearchHit
	for _, e := range r.filter(func(e *models.Event) bool { return e.AccountID == accountID }) {
		if sc := score(query, e.Name); sc > 0 {
			hits = append(hits, models.SearchHit{Kind: models.KindEvent, Score: sc, Entity: e})
		}
	}
	sortHits(hits)
	return hits, nil
}
