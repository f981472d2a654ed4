// Package services contains server-side business logic. This file implements
// UserService, which registers accounts and manages their profile.
package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/branchkeeper/internal/common"
	"github.com/dmitrijs2005/branchkeeper/internal/dbx"
	"github.com/dmitrijs2005/branchkeeper/internal/logging"
	"github.com/dmitrijs2005/branchkeeper/internal/server/models"
	"github.com/dmitrijs2005/branchkeeper/internal/server/repositories/repomanager"
)

// UserService links external accounts to users.
type UserService struct {
	db          dbx.DBTX
	tx          dbx.TxRunner
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

// NewUserService constructs a UserService. tx scopes Register to a single
// unit of work.
func NewUserService(db dbx.DBTX, tx dbx.TxRunner, m repomanager.RepositoryManager, logger logging.Logger) *UserService {
	return &UserService{db: db, tx: tx, repomanager: m, logger: logger.With("module", "users")}
}

// Register creates the user for accountID together with its "Uncategorized"
// category. A second registration fails with ErrorAlreadyExists.
func (s *UserService) Register(ctx context.Context, accountID, userName, email string) (*models.User, error) {
	if strings.TrimSpace(accountID) == "" {
		return nil, fmt.Errorf("%w: empty account id", common.ErrorValidation)
	}

	var user *models.User
	err := s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		u, err := s.repomanager.Users(tx).Create(ctx, &models.User{
			AccountID: accountID,
			UserName:  userName,
			Email:     email,
		})
		if err != nil {
			return err
		}
		c, err := s.repomanager.Categories(tx).Create(ctx, &models.Category{
			AccountID: accountID,
			Name:      common.UncategorizedCategoryName,
		})
		if err != nil {
			return err
		}
		u.Categories = []string{c.ID}
		user = u
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error registering user: %w", err)
	}

	s.logger.Info(ctx, "user registered", "account", accountID)
	return user, nil
}

// Get returns the user with its categories, oldest first.
func (s *UserService) Get(ctx context.Context, accountID string) (*models.User, error) {
	u, err := s.repomanager.Users(s.db).GetByAccountID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if err := s.attachCategories(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Update changes profile fields only.
func (s *UserService) Update(ctx context.Context, accountID string, patch models.UserPatch) (*models.User, error) {
	u, err := s.repomanager.Users(s.db).Update(ctx, accountID, patch)
	if err != nil {
		return nil, err
	}
	if err := s.attachCategories(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *UserService) attachCategories(ctx context.Context, u *models.User) error {
	cats, err := s.repomanager.Categories(s.db).FindByOwner(ctx, u.AccountID)
	if err != nil {
		return err
	}
	u.Categories = make([]string, 0, len(cats))
	for _, c := range cats {
		u.Categories = append(u.Categories, c.ID)
	}
	return nil
}
