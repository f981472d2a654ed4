package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dmitrijs2005/branchkeeper/internal/common"
	"github.com/dmitrijs2005/branchkeeper/internal/dbx"
	"github.com/dmitrijs2005/branchkeeper/internal/logging"
	"github.com/dmitrijs2005/branchkeeper/internal/server/archive"
	"github.com/dmitrijs2005/branchkeeper/internal/server/hierarchy"
	"github.com/dmitrijs2005/branchkeeper/internal/server/models"
	"github.com/dmitrijs2005/branchkeeper/internal/server/notify"
	"github.com/dmitrijs2005/branchkeeper/internal/server/ownership"
	"github.com/dmitrijs2005/branchkeeper/internal/server/repositories/repomanager"
	"golang.org/x/sync/errgroup"
)

// BranchService is the authorization gate in front of the repositories and
// the hierarchy engine. Every method takes the caller's account id and
// checks ownership before reading or changing anything.
type BranchService struct {
	db          dbx.DBTX
	repomanager repomanager.RepositoryManager
	authority   *ownership.Authority
	engine      *hierarchy.Engine
	archiver    archive.Archiver
	publisher   notify.Publisher
	logger      logging.Logger
}

func NewBranchService(
	db dbx.DBTX,
	m repomanager.RepositoryManager,
	engine *hierarchy.Engine,
	archiver archive.Archiver,
	publisher notify.Publisher,
	logger logging.Logger,
) *BranchService {
	if archiver == nil {
		archiver = archive.Nop{}
	}
	if publisher == nil {
		publisher = notify.Nop{}
	}
	return &BranchService{
		db:          db,
		repomanager: m,
		authority:   ownership.NewAuthority(db, m),
		engine:      engine,
		archiver:    archiver,
		publisher:   publisher,
		logger:      logger.With("module", "branches"),
	}
}

func (s *BranchService) get(ctx context.Context, kind models.Kind, id string) (models.Entity, error) {
	switch kind {
	case models.KindCategory:
		c, err := s.repomanager.Categories(s.db).GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return c, nil
	case models.KindTask:
		t, err := s.repomanager.Tasks(s.db).GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return t, nil
	case models.KindEvent:
		e, err := s.repomanager.Events(s.db).GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return e, nil
	case models.KindNote:
		n, err := s.repomanager.Notes(s.db).GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return n, nil
	}
	return nil, fmt.Errorf("%w: %s", common.ErrorInvalidParentType, kind)
}

// GetEntity returns a single entity with its derived child lists.
func (s *BranchService) GetEntity(ctx context.Context, caller string, kind models.Kind, id string) (models.Entity, error) {
	if err := s.authority.Require(ctx, kind, id, caller); err != nil {
		return nil, err
	}
	ent, err := s.get(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	if err := s.engine.Hydrate(ctx, ent); err != nil {
		return nil, err
	}
	return ent, nil
}

func (s *BranchService) GetTree(ctx context.Context, caller string, kind models.Kind, id string, opts hierarchy.GetOptions) (*models.Tree, error) {
	if err := s.authority.Require(ctx, kind, id, caller); err != nil {
		return nil, err
	}
	return s.engine.GetRecursive(ctx, kind, id, opts)
}

func (s *BranchService) ListCategories(ctx context.Context, caller string) ([]*models.Category, error) {
	cats, err := s.repomanager.Categories(s.db).FindByOwner(ctx, caller)
	if err != nil {
		return nil, err
	}
	for _, c := range cats {
		if err := s.engine.Hydrate(ctx, c); err != nil {
			return nil, err
		}
	}
	if cats == nil {
		cats = []*models.Category{}
	}
	return cats, nil
}

func (s *BranchService) CreateCategory(ctx context.Context, caller, name string) (*models.Category, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: category name is required", common.ErrorValidation)
	}
	c, err := s.repomanager.Categories(s.db).Create(ctx, &models.Category{AccountID: caller, Name: name})
	if err != nil {
		return nil, err
	}
	c.Tasks, c.Events = []string{}, []string{}
	return c, nil
}

// checkParent validates the pairing and that the caller owns the parent.
func (s *BranchService) checkParent(ctx context.Context, caller string, parent models.ParentRef, child models.Kind) error {
	if err := parent.Accepts(child); err != nil {
		return err
	}
	return s.authority.Require(ctx, parent.Kind, parent.ID, caller)
}

// CreateTask stores draft under parent. Owner, parent and child lists in the
// draft are overwritten.
func (s *BranchService) CreateTask(ctx context.Context, caller string, parent models.ParentRef, draft models.Task) (*models.Task, error) {
	if strings.TrimSpace(draft.Name) == "" {
		return nil, fmt.Errorf("%w: task name is required", common.ErrorValidation)
	}
	if err := s.checkParent(ctx, caller, parent, models.KindTask); err != nil {
		return nil, err
	}
	draft.ID = ""
	draft.AccountID = caller
	draft.ParentType, draft.Parent = parent.Kind, parent.ID
	draft.SubTasks, draft.Events, draft.Notes = []string{}, []string{}, []string{}
	return s.repomanager.Tasks(s.db).Create(ctx, &draft)
}

func (s *BranchService) CreateEvent(ctx context.Context, caller string, parent models.ParentRef, draft models.Event) (*models.Event, error) {
	if strings.TrimSpace(draft.Name) == "" {
		return nil, fmt.Errorf("%w: event name is required", common.ErrorValidation)
	}
	if err := s.checkParent(ctx, caller, parent, models.KindEvent); err != nil {
		return nil, err
	}
	draft.ID = ""
	draft.AccountID = caller
	draft.ParentType, draft.Parent = parent.Kind, parent.ID
	draft.PrevDates = nil
	draft.Notes = []string{}
	return s.repomanager.Events(s.db).Create(ctx, &draft)
}

func (s *BranchService) CreateNote(ctx context.Context, caller string, parent models.ParentRef, draft models.Note) (*models.Note, error) {
	if err := s.checkParent(ctx, caller, parent, models.KindNote); err != nil {
		return nil, err
	}
	draft.ID = ""
	draft.AccountID = caller
	draft.ParentType, draft.Parent = parent.Kind, parent.ID
	return s.repomanager.Notes(s.db).Create(ctx, &draft)
}

func (s *BranchService) UpdateCategory(ctx context.Context, caller, id string, patch models.CategoryPatch) (*models.Category, error) {
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return nil, fmt.Errorf("%w: category name is required", common.ErrorValidation)
	}
	if err := s.authority.Require(ctx, models.KindCategory, id, caller); err != nil {
		return nil, err
	}
	c, err := s.repomanager.Categories(s.db).Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	return c, s.engine.Hydrate(ctx, c)
}

func (s *BranchService) UpdateTask(ctx context.Context, caller, id string, patch models.TaskPatch) (*models.Task, error) {
	if err := s.authority.Require(ctx, models.KindTask, id, caller); err != nil {
		return nil, err
	}
	t, err := s.repomanager.Tasks(s.db).Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	return t, s.engine.Hydrate(ctx, t)
}

func (s *BranchService) UpdateEvent(ctx context.Context, caller, id string, patch models.EventPatch) (*models.Event, error) {
	if err := s.authority.Require(ctx, models.KindEvent, id, caller); err != nil {
		return nil, err
	}
	e, err := s.repomanager.Events(s.db).Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	return e, s.engine.Hydrate(ctx, e)
}

func (s *BranchService) UpdateNote(ctx context.Context, caller, id string, patch models.NotePatch) (*models.Note, error) {
	if err := s.authority.Require(ctx, models.KindNote, id, caller); err != nil {
		return nil, err
	}
	return s.repomanager.Notes(s.db).Update(ctx, id, patch)
}

// Delete removes the entity and its subtree. A partial failure still
// returns the removed part of the tree.
func (s *BranchService) Delete(ctx context.Context, caller string, kind models.Kind, id string) (*models.Tree, error) {
	if err := s.authority.Require(ctx, kind, id, caller); err != nil {
		return nil, err
	}
	tree, err := s.engine.DeleteRecursive(ctx, kind, id)
	if tree != nil {
		key := s.archive(ctx, caller, tree)
		s.publish(ctx, notify.Event{
			Type:       notify.EventDeleted,
			AccountID:  caller,
			Kind:       kind,
			ID:         id,
			Removed:    tree.Count(),
			ArchiveKey: key,
		})
	}
	return tree, err
}

// DeleteAndRebase removes a category or task and hands its children to
// newParent, which the caller must own as well.
func (s *BranchService) DeleteAndRebase(ctx context.Context, caller string, kind models.Kind, id string, newParent models.ParentRef) (*models.RebaseResult, error) {
	if err := s.authority.Require(ctx, kind, id, caller); err != nil {
		return nil, err
	}
	if err := s.authority.Require(ctx, newParent.Kind, newParent.ID, caller); err != nil {
		return nil, err
	}
	res, err := s.engine.DeleteAndRebase(ctx, kind, id, newParent)
	if res != nil {
		removed := res.Removed()
		key := s.archive(ctx, caller, removed)
		s.publish(ctx, notify.Event{
			Type:       notify.EventRebased,
			AccountID:  caller,
			Kind:       kind,
			ID:         id,
			Parent:     &newParent,
			Removed:    removed.Count(),
			Moved:      res.Moved,
			ArchiveKey: key,
		})
	}
	return res, err
}

// Rebase moves a single task, event or note under newParent.
func (s *BranchService) Rebase(ctx context.Context, caller string, child models.ChildRef, newParent models.ParentRef) (*models.RebaseChildResult, error) {
	if err := s.authority.Require(ctx, child.Kind, child.ID, caller); err != nil {
		return nil, err
	}
	if err := s.authority.Require(ctx, newParent.Kind, newParent.ID, caller); err != nil {
		return nil, err
	}
	res, err := s.engine.RebaseChild(ctx, child, newParent, false)
	if err != nil {
		return res, err
	}
	s.publish(ctx, notify.Event{
		Type:      notify.EventMoved,
		AccountID: caller,
		Kind:      child.Kind,
		ID:        child.ID,
		Parent:    &newParent,
	})
	return res, nil
}

// Search runs a full-text query over the requested kinds (all when empty),
// restricted to the caller's entities and ordered by score.
func (s *BranchService) Search(ctx context.Context, caller string, kinds []models.Kind, query string) ([]models.SearchHit, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: empty query", common.ErrorValidation)
	}
	if len(kinds) == 0 {
		kinds = []models.Kind{models.KindCategory, models.KindTask, models.KindEvent, models.KindNote}
	}

	results := make([][]models.SearchHit, len(kinds))
	g, gctx := errgroup.WithContext(ctx)
	for i, kind := range kinds {
		g.Go(func() error {
			var err error
			switch kind {
			case models.KindCategory:
				results[i], err = s.repomanager.Categories(s.db).Search(gctx, caller, query)
			case models.KindTask:
				results[i], err = s.repomanager.Tasks(s.db).Search(gctx, caller, query)
			case models.KindEvent:
				results[i], err = s.repomanager.Events(s.db).Search(gctx, caller, query)
			case models.KindNote:
				results[i], err = s.repomanager.Notes(s.db).Search(gctx, caller, query)
			default:
				err = fmt.Errorf("%w: %s", common.ErrorInvalidParentType, kind)
			}
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	hits := []models.SearchHit{}
	for _, r := range results {
		hits = append(hits, r...)
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	return hits, nil
}

func (s *BranchService) archive(ctx context.Context, caller string, tree *models.Tree) string {
	key, err := s.archiver.Archive(ctx, caller, tree)
	if err != nil {
		s.logger.Warn(ctx, "archive failed", "account", caller, "error", err)
		return ""
	}
	return key
}

func (s *BranchService) publish(ctx context.Context, ev notify.Event) {
	ev.At = time.Now().UTC()
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.logger.Warn(ctx, "change notification failed", "type", ev.Type, "id", ev.ID, "error", err)
	}
}
