package memory

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/branchkeeper/internal/common"
	"github.com/dmitrijs2005/branchkeeper/internal/server/models"
)

type UserRepository struct{ s *Store }

func (s *Store) Users() *UserRepository { return &UserRepository{s: s} }

func (r *UserRepository) Create(_ context.Context, u *models.User) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[u.AccountID]; ok {
		return nil, fmt.Errorf("create user: %w", common.ErrorAlreadyExists)
	}
	u.ID, u.CreatedAt = r.s.register()
	r.s.users[u.AccountID] = cloneUser(u)
	return u, nil
}

func (r *UserRepository) GetByAccountID(_ context.Context, accountID string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[accountID]
	if !ok {
		return nil, fmt.Errorf("get user: %w", common.ErrorNotFound)
	}
	return cloneUser(u), nil
}

func (r *UserRepository) Update(_ context.Context, accountID string, patch models.UserPatch) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[accountID]
	if !ok {
		return nil, fmt.Errorf("update user: %w", common.ErrorNotFound)
	}
	patch.ApplyTo(u)
	return cloneUser(u), nil
}
