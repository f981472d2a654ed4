package hierarchy

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/branchkeeper/internal/common"
	"github.com/dmitrijs2005/branchkeeper/internal/server/models"
	"golang.org/x/sync/errgroup"
)

// GetRecursive loads a Category or Task with every nested task, the events
// under each level and, with IncludeNotes, the notes of tasks and events.
// Any failure aborts the read.
func (e *Engine) GetRecursive(ctx context.Context, kind models.Kind, id string, opts GetOptions) (*models.Tree, error) {
	if kind != models.KindCategory && kind != models.KindTask {
		return nil, fmt.Errorf("%w: a %s has no subtree", common.ErrorInvalidOperation, kind)
	}
	root, err := e.load(ctx, kind, id)
	if err != nil {
		return nil, err
	}

	limit := e.maxDepth
	if opts.MaxDepth > 0 && opts.MaxDepth < limit {
		limit = opts.MaxDepth
	}

	e.logger.Debug(ctx, "expanding tree", "kind", kind, "id", id, "notes", opts.IncludeNotes)
	return e.expand(ctx, root, opts.IncludeNotes, 0, limit)
}

func (e *Engine) expand(ctx context.Context, ent models.Entity, withNotes bool, depth, limit int) (*models.Tree, error) {
	if depth > limit {
		return nil, fmt.Errorf("%w: tree under %s is deeper than %d", common.ErrorInvalidOperation, ent.EntityID(), limit)
	}

	cs, err := e.children(ctx, models.ParentRef{Kind: ent.EntityKind(), ID: ent.EntityID()}, withNotes)
	if err != nil {
		return nil, err
	}
	setDerived(ent, cs, withNotes)

	tree := &models.Tree{
		Entity: ent,
		Children: models.Children{
			Tasks:  make([]*models.Tree, len(cs.tasks)),
			Events: cs.events,
			Notes:  cs.notes,
		},
	}
	if tree.Children.Events == nil {
		tree.Children.Events = []*models.Event{}
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, t := range cs.tasks {
		g.Go(func() error {
			sub, err := e.expand(gctx, t, withNotes, depth+1, limit)
			if err != nil {
				return err
			}
			tree.Children.Tasks[i] = sub
			return nil
		})
	}
	if !withNotes {
		for _, ev := range cs.events {
			ev.Notes = []string{}
		}
	} else {
		for _, ev := range cs.events {
			g.Go(func() error {
				notes, err := call(gctx, e, func() ([]*models.Note, error) {
					return e.rm.Notes(e.db).FindByParent(gctx, models.EventParent(ev.ID))
				})
				if err != nil {
					return err
				}
				ev.Notes = ids(notes)
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return tree, nil
}
