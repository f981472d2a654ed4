// Package hierarchy implements the tree operations over branch entities:
// recursive reads, recursive deletes and re-parenting of children.
//
// The engine performs no authorization. Callers verify ownership before
// invoking it. Fan-out runs concurrently and every individual store call is
// bounded by a weighted semaphore.
package hierarchy

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/branchkeeper/internal/common"
	"github.com/dmitrijs2005/branchkeeper/internal/dbx"
	"github.com/dmitrijs2005/branchkeeper/internal/logging"
	"github.com/dmitrijs2005/branchkeeper/internal/server/models"
	"github.com/dmitrijs2005/branchkeeper/internal/server/repositories/repomanager"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

const (
	DefaultMaxConcurrency = 16
	DefaultMaxDepth       = 64
)

// Options configure an Engine. Zero values select the defaults.
type Options struct {
	// MaxConcurrency bounds in-flight store calls per engine.
	MaxConcurrency int64
	// MaxDepth bounds nesting for every traversal, including parent-chain walks.
	MaxDepth int
}

// GetOptions tune a single GetRecursive call.
type GetOptions struct {
	IncludeNotes bool
	// MaxDepth lowers the engine limit for this call when positive.
	MaxDepth int
}

type Engine struct {
	db       dbx.DBTX
	rm       repomanager.RepositoryManager
	sem      *semaphore.Weighted
	maxDepth int
	logger   logging.Logger
}

func NewEngine(db dbx.DBTX, rm repomanager.RepositoryManager, opts Options, logger logging.Logger) *Engine {
	if opts.MaxConcurrency <= 0 {
		opts.MaxConcurrency = DefaultMaxConcurrency
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	if logger == nil {
		logger = logging.Nop{}
	}
	return &Engine{
		db:       db,
		rm:       rm,
		sem:      semaphore.NewWeighted(opts.MaxConcurrency),
		maxDepth: opts.MaxDepth,
		logger:   logger.With("module", "hierarchy"),
	}
}

// call runs one store operation under the semaphore. The semaphore is never
// held across recursion.
func call[T any](ctx context.Context, e *Engine, fn func() (T, error)) (T, error) {
	var zero T
	if err := e.sem.Acquire(ctx, 1); err != nil {
		return zero, err
	}
	defer e.sem.Release(1)
	return fn()
}

func (e *Engine) load(ctx context.Context, kind models.Kind, id string) (models.Entity, error) {
	return call(ctx, e, func() (models.Entity, error) {
		switch kind {
		case models.KindCategory:
			c, err := e.rm.Categories(e.db).GetByID(ctx, id)
			if err != nil {
				return nil, err
			}
			return c, nil
		case models.KindTask:
			t, err := e.rm.Tasks(e.db).GetByID(ctx, id)
			if err != nil {
				return nil, err
			}
			return t, nil
		case models.KindEvent:
			ev, err := e.rm.Events(e.db).GetByID(ctx, id)
			if err != nil {
				return nil, err
			}
			return ev, nil
		case models.KindNote:
			n, err := e.rm.Notes(e.db).GetByID(ctx, id)
			if err != nil {
				return nil, err
			}
			return n, nil
		}
		return nil, fmt.Errorf("%w: %s", common.ErrorInvalidParentType, kind)
	})
}

func (e *Engine) ownerOf(ctx context.Context, ref models.ParentRef) (string, error) {
	return call(ctx, e, func() (string, error) {
		switch ref.Kind {
		case models.KindCategory:
			return e.rm.Categories(e.db).OwnerOf(ctx, ref.ID)
		case models.KindTask:
			return e.rm.Tasks(e.db).OwnerOf(ctx, ref.ID)
		case models.KindEvent:
			return e.rm.Events(e.db).OwnerOf(ctx, ref.ID)
		}
		return "", fmt.Errorf("%w: %s", common.ErrorInvalidParentType, ref.Kind)
	})
}

func (e *Engine) setParent(ctx context.Context, child models.ChildRef, parent models.ParentRef) error {
	_, err := call(ctx, e, func() (struct{}, error) {
		switch child.Kind {
		case models.KindTask:
			return struct{}{}, e.rm.Tasks(e.db).SetParent(ctx, child.ID, parent)
		case models.KindEvent:
			return struct{}{}, e.rm.Events(e.db).SetParent(ctx, child.ID, parent)
		case models.KindNote:
			return struct{}{}, e.rm.Notes(e.db).SetParent(ctx, child.ID, parent)
		}
		return struct{}{}, fmt.Errorf("%w: %s", common.ErrorInvalidParentType, child.Kind)
	})
	return err
}

// childSet holds the direct children of one container.
type childSet struct {
	tasks  []*models.Task
	events []*models.Event
	notes  []*models.Note
}

func (e *Engine) children(ctx context.Context, ref models.ParentRef, withNotes bool) (*childSet, error) {
	cs := &childSet{}
	g, gctx := errgroup.WithContext(ctx)
	if models.CanParent(ref.Kind, models.KindTask) {
		g.Go(func() error {
			var err error
			cs.tasks, err = call(gctx, e, func() ([]*models.Task, error) {
				return e.rm.Tasks(e.db).FindByParent(gctx, ref)
			})
			return err
		})
	}
	if models.CanParent(ref.Kind, models.KindEvent) {
		g.Go(func() error {
			var err error
			cs.events, err = call(gctx, e, func() ([]*models.Event, error) {
				return e.rm.Events(e.db).FindByParent(gctx, ref)
			})
			return err
		})
	}
	if withNotes && models.CanParent(ref.Kind, models.KindNote) {
		g.Go(func() error {
			var err error
			cs.notes, err = call(gctx, e, func() ([]*models.Note, error) {
				return e.rm.Notes(e.db).FindByParent(gctx, ref)
			})
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return cs, nil
}

// ChildIDs lists the current direct children of a container.
func (e *Engine) ChildIDs(ctx context.Context, ref models.ParentRef) (*models.ParentState, error) {
	cs, err := e.children(ctx, ref, true)
	if err != nil {
		return nil, err
	}
	return &models.ParentState{
		Ref:    ref,
		Tasks:  ids(cs.tasks),
		Events: ids(cs.events),
		Notes:  ids(cs.notes),
	}, nil
}

// Hydrate fills the derived child-id lists of a single entity.
func (e *Engine) Hydrate(ctx context.Context, ent models.Entity) error {
	if ent.EntityKind() == models.KindNote {
		return nil
	}
	cs, err := e.children(ctx, models.ParentRef{Kind: ent.EntityKind(), ID: ent.EntityID()}, true)
	if err != nil {
		return err
	}
	setDerived(ent, cs, true)
	return nil
}

func setDerived(ent models.Entity, cs *childSet, withNotes bool) {
	switch v := ent.(type) {
	case *models.Category:
		v.Tasks, v.Events = ids(cs.tasks), ids(cs.events)
	case *models.Task:
		v.SubTasks, v.Events, v.Notes = ids(cs.tasks), ids(cs.events), noteIDs(cs, withNotes)
	case *models.Event:
		v.Notes = noteIDs(cs, withNotes)
	}
}

// noteIDs is empty, never nil, when notes were not loaded.
func noteIDs(cs *childSet, withNotes bool) []string {
	if !withNotes {
		return []string{}
	}
	return ids(cs.notes)
}

func ids[T models.Entity](items []T) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.EntityID())
	}
	return out
}

func parentOf(ent models.Entity) (models.ParentRef, bool) {
	c, ok := ent.(interface{ ParentRef() models.ParentRef })
	if !ok {
		return models.ParentRef{}, false
	}
	return c.ParentRef(), true
}

func setParentField(ent models.Entity, p models.ParentRef) {
	switch v := ent.(type) {
	case *models.Task:
		v.ParentType, v.Parent = p.Kind, p.ID
	case *models.Event:
		v.ParentType, v.Parent = p.Kind, p.ID
	case *models.Note:
		v.ParentType, v.Parent = p.Kind, p.ID
	}
}

// isWithin reports whether target is start or one of start's ancestors,
// i.e. whether start lies inside target's subtree.
func (e *Engine) isWithin(ctx context.Context, start, target models.ParentRef) (bool, error) {
	cur := start
	for depth := 0; depth <= e.maxDepth; depth++ {
		if cur == target {
			return true, nil
		}
		if cur.Kind == models.KindCategory {
			return false, nil
		}
		ent, err := e.load(ctx, cur.Kind, cur.ID)
		if err != nil {
			return false, err
		}
		next, ok := parentOf(ent)
		if !ok {
			return false, nil
		}
		cur = next
	}
	return false, fmt.Errorf("%w: parent chain of %s exceeds %d levels", common.ErrorInvalidOperation, start, e.maxDepth)
}

// collector aggregates sibling failures of a best-effort fan-out.
type collector struct {
	mu  sync.Mutex
	err error
}

func (c *collector) add(err error) {
	c.mu.Lock()
	c.err = multierr.Append(c.err, err)
	c.mu.Unlock()
}

func (c *collector) result() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", common.ErrorPartialFailure, c.err)
}

func compact[T any](items []*T) []*T {
	out := make([]*T, 0, len(items))
	for _, it := range items {
		if it != nil {
			out = append(out, it)
		}
	}
	return out
}
