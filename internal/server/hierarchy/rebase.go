package hierarchy

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/branchkeeper/internal/common"
	"github.com/dmitrijs2005/branchkeeper/internal/server/models"
	"golang.org/x/sync/errgroup"
)

// DeleteAndRebase removes a Category or Task without its subtree and moves
// its direct tasks and events under newParent. Notes of a removed task follow
// it when newParent is a task and are deleted otherwise.
//
// All structural checks run before anything is removed, so a rejected call
// leaves the store untouched. Once the target is gone, children move
// independently: a failed move is reported in ErrorPartialFailure and never
// undoes the others.
func (e *Engine) DeleteAndRebase(ctx context.Context, kind models.Kind, id string, newParent models.ParentRef) (*models.RebaseResult, error) {
	if kind != models.KindCategory && kind != models.KindTask {
		return nil, fmt.Errorf("%w: only categories and tasks can hand over children, got %s", common.ErrorInvalidOperation, kind)
	}
	if err := newParent.Accepts(models.KindTask); err != nil {
		return nil, err
	}

	target := models.ParentRef{Kind: kind, ID: id}
	if newParent == target {
		return nil, fmt.Errorf("%w: cannot rebase children of %s onto itself", common.ErrorInvalidOperation, target)
	}

	ent, err := e.load(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	np, err := e.load(ctx, newParent.Kind, newParent.ID)
	if err != nil {
		return nil, err
	}
	if np.Owner() != ent.Owner() {
		return nil, fmt.Errorf("%w: %s belongs to another account", common.ErrorInvalidOperation, newParent)
	}
	inside, err := e.isWithin(ctx, newParent, target)
	if err != nil {
		return nil, err
	}
	if inside {
		return nil, fmt.Errorf("%w: %s lies inside %s", common.ErrorInvalidOperation, newParent, target)
	}

	deleted, err := call(ctx, e, func() (models.Entity, error) {
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

	e.logger.Debug(ctx, "rebasing children", "from", target, "to", newParent)

	res := &models.RebaseResult{Deleted: deleted, NewParent: np, Moved: []models.ChildRef{}, DeletedNotes: []*models.Note{}}
	var col collector

	cs, err := e.children(ctx, target, true)
	if err != nil {
		col.add(fmt.Errorf("list children of %s: %w", target, err))
		return res, col.result()
	}

	var refs []models.ChildRef
	for _, t := range cs.tasks {
		refs = append(refs, t.Ref())
	}
	for _, ev := range cs.events {
		refs = append(refs, ev.Ref())
	}
	notesFollow := newParent.Kind == models.KindTask
	if notesFollow {
		for _, n := range cs.notes {
			refs = append(refs, n.Ref())
		}
	}

	moved := make([]*models.ChildRef, len(refs))
	var dropped []*models.Note
	if !notesFollow {
		dropped = make([]*models.Note, len(cs.notes))
	}
	var g errgroup.Group
	for i, ref := range refs {
		g.Go(func() error {
			if _, err := e.RebaseChild(ctx, ref, newParent, true); err != nil {
				col.add(fmt.Errorf("move %s: %w", ref, err))
				return nil
			}
			moved[i] = &ref
			return nil
		})
	}
	if !notesFollow {
		for i, n := range cs.notes {
			g.Go(func() error {
				removed, err := e.deleteNote(ctx, n.ID)
				if err != nil {
					col.add(fmt.Errorf("note %s: %w", n.ID, err))
					return nil
				}
				dropped[i] = removed
				return nil
			})
		}
	}
	_ = g.Wait()

	for _, m := range compact(moved) {
		res.Moved = append(res.Moved, *m)
	}
	res.DeletedNotes = append(res.DeletedNotes, compact(dropped)...)

	err = col.result()
	if err != nil {
		e.logger.Warn(ctx, "rebase incomplete", "from", target, "to", newParent, "moved", len(res.Moved), "error", err)
	}
	return res, err
}

// RebaseChild moves one task, event or note under newParent after checking
// the kind pairing, self-parenting, cycles and that both sides share an
// owner. When oldParentDeleted is false the old parent's refreshed child
// lists are returned as well.
func (e *Engine) RebaseChild(ctx context.Context, child models.ChildRef, newParent models.ParentRef, oldParentDeleted bool) (*models.RebaseChildResult, error) {
	switch child.Kind {
	case models.KindTask, models.KindEvent, models.KindNote:
	default:
		return nil, fmt.Errorf("%w: a %s cannot be moved", common.ErrorInvalidParentType, child.Kind)
	}
	if err := newParent.Accepts(child.Kind); err != nil {
		return nil, err
	}
	if newParent == child.AsParent() {
		return nil, fmt.Errorf("%w: %s cannot be its own parent", common.ErrorInvalidOperation, child)
	}

	ent, err := e.load(ctx, child.Kind, child.ID)
	if err != nil {
		return nil, err
	}
	oldParent, _ := parentOf(ent)

	owner, err := e.ownerOf(ctx, newParent)
	if err != nil {
		return nil, err
	}
	if owner != ent.Owner() {
		return nil, fmt.Errorf("%w: %s belongs to another account", common.ErrorInvalidOperation, newParent)
	}

	if child.Kind == models.KindTask {
		cycle, err := e.isWithin(ctx, newParent, child.AsParent())
		if err != nil {
			return nil, err
		}
		if cycle {
			return nil, fmt.Errorf("%w: %s lies inside %s", common.ErrorInvalidOperation, newParent, child)
		}
	}

	if err := e.setParent(ctx, child, newParent); err != nil {
		return nil, err
	}
	setParentField(ent, newParent)

	res := &models.RebaseChildResult{Child: ent}
	if !oldParentDeleted && oldParent != newParent {
		state, err := e.ChildIDs(ctx, oldParent)
		if err != nil {
			return res, err
		}
		res.OldParent = state
	}
	return res, nil
}
