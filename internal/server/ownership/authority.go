// Package ownership answers whether an account owns a given entity.
package ownership

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/branchkeeper/internal/common"
	"github.com/dmitrijs2005/branchkeeper/internal/dbx"
	"github.com/dmitrijs2005/branchkeeper/internal/server/models"
	"github.com/dmitrijs2005/branchkeeper/internal/server/repositories/repomanager"
)

type Authority struct {
	db dbx.DBTX
	rm repomanager.RepositoryManager
}

func NewAuthority(db dbx.DBTX, rm repomanager.RepositoryManager) *Authority {
	return &Authority{db: db, rm: rm}
}

// OwnerOf returns the account id owning the entity.
func (a *Authority) OwnerOf(ctx context.Context, kind models.Kind, id string) (string, error) {
	switch kind {
	case models.KindCategory:
		return a.rm.Categories(a.db).OwnerOf(ctx, id)
	case models.KindTask:
		return a.rm.Tasks(a.db).OwnerOf(ctx, id)
	case models.KindEvent:
		return a.rm.Events(a.db).OwnerOf(ctx, id)
	case models.KindNote:
		return a.rm.Notes(a.db).OwnerOf(ctx, id)
	default:
		return "", fmt.Errorf("%w: %s", common.ErrorInvalidParentType, kind)
	}
}

// Verify reports whether caller owns the entity. A missing entity is not
// owned by anyone and yields false without an error.
func (a *Authority) Verify(ctx context.Context, kind models.Kind, id, caller string) (bool, error) {
	owner, err := a.OwnerOf(ctx, kind, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return false, nil
		}
		return false, err
	}
	return caller != "" && owner == caller, nil
}

// Require is Verify turning a negative answer into ErrorForbidden.
func (a *Authority) Require(ctx context.Context, kind models.Kind, id, caller string) error {
	ok, err := a.Verify(ctx, kind, id, caller)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s %s", common.ErrorForbidden, kind, id)
	}
	return nil
}
