package hierarchy

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/branchkeeper/internal/common"
	"github.com/dmitrijs2005/branchkeeper/internal/server/models"
	"golang.org/x/sync/errgroup"
)

// DeleteRecursive removes an entity and everything beneath it. The target is
// removed first so readers never see a half-deleted node. Then child tasks
// (recursively) and the target's notes go concurrently, then child events
// with their notes.
//
// The walk has no depth limit. RebaseChild keeps the hierarchy acyclic, so
// every chain ends.
//
// The returned tree lists what was removed. Sibling failures do not stop the
// rest; they come back wrapped in ErrorPartialFailure next to the partial tree.
func (e *Engine) DeleteRecursive(ctx context.Context, kind models.Kind, id string) (*models.Tree, error) {
	e.logger.Debug(ctx, "recursive delete", "kind", kind, "id", id)

	var (
		tree *models.Tree
		err  error
	)
	switch kind {
	case models.KindCategory, models.KindTask:
		tree, err = e.deleteContainer(ctx, kind, id)
	case models.KindEvent:
		var ev *models.Event
		ev, err = e.deleteEvent(ctx, id)
		if ev != nil {
			tree = &models.Tree{Entity: ev}
		}
	case models.KindNote:
		var n *models.Note
		n, err = e.deleteNote(ctx, id)
		if n != nil {
			tree = &models.Tree{Entity: n}
		}
	default:
		return nil, fmt.Errorf("%w: %s", common.ErrorInvalidParentType, kind)
	}

	if err != nil && tree != nil {
		e.logger.Warn(ctx, "recursive delete incomplete", "kind", kind, "id", id, "removed", tree.Count(), "error", err)
	}
	return tree, err
}

func (e *Engine) deleteContainer(ctx context.Context, kind models.Kind, id string) (*models.Tree, error) {
	ent, err := call(ctx, e, func() (models.Entity, error) {
		if kind == models.KindCategory {
			c, err := e.rm.Categories(e.db).Delete(ctx, id)
			if err != nil {
				return nil, err
			}
			return c, nil
		}
		t, err := e.rm.Tasks(e.db).Delete(ctx, id)
		if err != nil {
			return nil, err
		}
		return t, nil
	})
	if err != nil {
		return nil, err
	}

	tree := &models.Tree{Entity: ent}
	var col collector

	cs, err := e.children(ctx, models.ParentRef{Kind: kind, ID: id}, true)
	if err != nil {
		col.add(fmt.Errorf("list children of %s: %w", id, err))
		return tree, col.result()
	}

	tasks := make([]*models.Tree, len(cs.tasks))
	notes := make([]*models.Note, len(cs.notes))
	events := make([]*models.Event, len(cs.events))

	var g errgroup.Group
	for i, t := range cs.tasks {
		g.Go(func() error {
			sub, err := e.deleteContainer(ctx, models.KindTask, t.ID)
			tasks[i] = sub
			if err != nil {
				col.add(fmt.Errorf("task %s: %w", t.ID, err))
			}
			return nil
		})
	}
	for i, n := range cs.notes {
		g.Go(func() error {
			removed, err := e.deleteNote(ctx, n.ID)
			notes[i] = removed
			if err != nil {
				col.add(fmt.Errorf("note %s: %w", n.ID, err))
			}
			return nil
		})
	}
	_ = g.Wait()

	var eg errgroup.Group
	for i, ev := range cs.events {
		eg.Go(func() error {
			removed, err := e.deleteEvent(ctx, ev.ID)
			events[i] = removed
			if err != nil {
				col.add(fmt.Errorf("event %s: %w", ev.ID, err))
			}
			return nil
		})
	}
	_ = eg.Wait()

	tree.Children = models.Children{
		Tasks:  compact(tasks),
		Events: compact(events),
		Notes:  compact(notes),
	}
	return tree, col.result()
}

// deleteEvent removes an event and then its notes. The event is returned
// whenever it was removed, even if some notes were not.
func (e *Engine) deleteEvent(ctx context.Context, id string) (*models.Event, error) {
	ev, err := call(ctx, e, func() (*models.Event, error) {
		return e.rm.Events(e.db).Delete(ctx, id)
	})
	if err != nil {
		return nil, err
	}

	var col collector
	cs, err := e.children(ctx, models.EventParent(id), true)
	if err != nil {
		col.add(fmt.Errorf("list notes of %s: %w", id, err))
		return ev, col.result()
	}

	removed := make([]*models.Note, len(cs.notes))
	var g errgroup.Group
	for i, n := range cs.notes {
		g.Go(func() error {
			note, err := e.deleteNote(ctx, n.ID)
			removed[i] = note
			if err != nil {
				col.add(fmt.Errorf("note %s: %w", n.ID, err))
			}
			return nil
		})
	}
	_ = g.Wait()

	ev.Notes = ids(compact(removed))
	return ev, col.result()
}

func (e *Engine) deleteNote(ctx context.Context, id string) (*models.Note, error) {
	return call(ctx, e, func() (*models.Note, error) {
		return e.rm.Notes(e.db).Delete(ctx, id)
	})
}
