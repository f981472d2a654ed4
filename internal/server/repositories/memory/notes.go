package memory

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/branchkeeper/internal/common"
	"github.com/dmitrijs2005/branchkeeper/internal/server/models"
)

type NoteRepository struct{ s *Store }

func (s *Store) Notes() *NoteRepository { return &NoteRepository{s: s} }

func (r *NoteRepository) Create(_ context.Context, n *models.Note) (*models.Note, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	n.ID, n.CreatedAt = r.s.register()
	if n.DateStamp.IsZero() {
		n.DateStamp = n.CreatedAt
	}
	r.s.notes[n.ID] = cloneNote(n)
	return n, nil
}

func (r *NoteRepository) GetByID(_ context.Context, id string) (*models.Note, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	n, ok := r.s.notes[id]
	if !ok {
		return nil, fmt.Errorf("get note: %w", common.ErrorNotFound)
	}
	return cloneNote(n), nil
}

func (r *NoteRepository) Update(_ context.Context, id string, patch models.NotePatch) (*models.Note, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	n, ok := r.s.notes[id]
	if !ok {
		return nil, fmt.Errorf("update note: %w", common.ErrorNotFound)
	}
	patch.ApplyTo(n)
	return cloneNote(n), nil
}

func (r *NoteRepository) Delete(_ context.Context, id string) (*models.Note, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	n, ok := r.s.notes[id]
	if !ok {
		return nil, fmt.Errorf("delete note: %w", common.ErrorNotFound)
	}
	delete(r.s.notes, id)
	delete(r.s.order, id)
	return n, nil
}

func (r *NoteRepository) filter(keep func(*models.Note) bool) []*models.Note {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []*models.Note
	for _, n := range r.s.notes {
		if keep(n) {
			out = append(out, cloneNote(n))
		}
	}
	sortByOrder(r.s, out)
	return out
}

func (r *NoteRepository) FindByOwner(_ context.Context, accountID string) ([]*models.Note, error) {
	return r.filter(func(n *models.Note) bool { return n.AccountID == accountID }), nil
}

func (r *NoteRepository) FindByParent(_ context.Context, parent models.ParentRef) ([]*models.Note, error) {
	return r.filter(func(n *models.Note) bool { return n.ParentRef() == parent }), nil
}

func (r *NoteRepository) SetParent(_ context.Context, id string, parent models.ParentRef) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	n, ok := r.s.notes[id]
	if !ok {
		return fmt.Errorf("move note: %w", common.ErrorNotFound)
	}
	n.ParentType, n.Parent = parent.Kind, parent.ID
	return nil
}

func (r *NoteRepository) OwnerOf(_ context.Context, id string) (string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	n, ok := r.s.notes[id]
	if !ok {
		return "", fmt.Errorf("note owner: %w", common.ErrorNotFound)
	}
	return n.AccountID, nil
}

func (r *NoteRepository) Search(_ context.Context, accountID, query string) ([]models.SearchHit, error) {
	var hits []models.SearchHit
	for _, n := range r.filter(func(n *models.Note) bool { return n.AccountID == accountID }) {
		if sc := score(query, n.Text); sc > 0 {
			hits = append(hits, models.SearchHit{Kind: models.KindNote, Score: sc, Entity: n})
		}
	}
	sortHits(hits)
	return hits, nil
}
