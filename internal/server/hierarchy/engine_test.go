package hierarchy

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/dmitrijs2005/branchkeeper/internal/common"
	"github.com/dmitrijs2005/branchkeeper/internal/dbx"
	"github.com/dmitrijs2005/branchkeeper/internal/logging"
	"github.com/dmitrijs2005/branchkeeper/internal/server/models"
	"github.com/dmitrijs2005/branchkeeper/internal/server/repositories/events"
	"github.com/dmitrijs2005/branchkeeper/internal/server/repositories/memory"
	"github.com/dmitrijs2005/branchkeeper/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	t      *testing.T
	ctx    context.Context
	store  *memory.Store
	engine *Engine
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	store := memory.NewStore()
	return &fixture{
		t:      t,
		ctx:    context.Background(),
		store:  store,
		engine: NewEngine(nil, repomanager.NewMemoryRepositoryManager(store), opts, logging.Nop{}),
	}
}

func (f *fixture) category(owner, name string) *models.Category {
	c, err := f.store.Categories().Create(f.ctx, &models.Category{AccountID: owner, Name: name})
	require.NoError(f.t, err)
	return c
}

func (f *fixture) task(owner string, parent models.ParentRef, name string) *models.Task {
	tk, err := f.store.Tasks().Create(f.ctx, &models.Task{AccountID: owner, Name: name, ParentType: parent.Kind, Parent: parent.ID})
	require.NoError(f.t, err)
	return tk
}

func (f *fixture) event(owner string, parent models.ParentRef, name string) *models.Event {
	ev, err := f.store.Events().Create(f.ctx, &models.Event{AccountID: owner, Name: name, ParentType: parent.Kind, Parent: parent.ID})
	require.NoError(f.t, err)
	return ev
}

func (f *fixture) note(owner string, parent models.ParentRef, text string) *models.Note {
	n, err := f.store.Notes().Create(f.ctx, &models.Note{AccountID: owner, Text: text, ParentType: parent.Kind, Parent: parent.ID})
	require.NoError(f.t, err)
	return n
}

func treeTaskIDs(tree *models.Tree) []string {
	var out []string
	for _, c := range tree.Children.Tasks {
		out = append(out, c.Entity.EntityID())
	}
	return out
}

func TestGetRecursive_CategoryChildrenMatchParentLinks(t *testing.T) {
	f := newFixture(t, Options{})
	c := f.category("acc", "Work")
	other := f.category("acc", "Home")
	t1 := f.task("acc", c.Ref(), "t1")
	t2 := f.task("acc", c.Ref(), "t2")
	sub := f.task("acc", models.TaskParent(t1.ID), "sub")
	ev := f.event("acc", c.Ref(), "ev")
	f.task("acc", other.Ref(), "elsewhere")
	f.note("acc", models.TaskParent(t1.ID), "n")

	tree, err := f.engine.GetRecursive(f.ctx, models.KindCategory, c.ID, GetOptions{})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{t1.ID, t2.ID}, treeTaskIDs(tree))
	require.Len(t, tree.Children.Events, 1)
	assert.Equal(t, ev.ID, tree.Children.Events[0].ID)
	assert.Nil(t, tree.Children.Notes)

	var t1Tree *models.Tree
	for _, c := range tree.Children.Tasks {
		if c.Entity.EntityID() == t1.ID {
			t1Tree = c
		}
	}
	require.NotNil(t, t1Tree)
	assert.Equal(t, []string{sub.ID}, treeTaskIDs(t1Tree))
	assert.Empty(t, t1Tree.Children.Notes)

	cat := tree.Entity.(*models.Category)
	assert.ElementsMatch(t, []string{t1.ID, t2.ID}, cat.Tasks)
	assert.Equal(t, []string{ev.ID}, cat.Events)
}

func TestGetRecursive_IncludeNotes(t *testing.T) {
	f := newFixture(t, Options{})
	c := f.category("acc", "Work")
	tk := f.task("acc", c.Ref(), "t")
	ev := f.event("acc", models.TaskParent(tk.ID), "ev")
	n1 := f.note("acc", models.TaskParent(tk.ID), "task note")
	n2 := f.note("acc", models.EventParent(ev.ID), "event note")

	tree, err := f.engine.GetRecursive(f.ctx, models.KindTask, tk.ID, GetOptions{IncludeNotes: true})
	require.NoError(t, err)

	require.Len(t, tree.Children.Notes, 1)
	assert.Equal(t, n1.ID, tree.Children.Notes[0].ID)
	require.Len(t, tree.Children.Events, 1)
	assert.Equal(t, []string{n2.ID}, tree.Children.Events[0].Notes)
	assert.Equal(t, []string{n1.ID}, tree.Entity.(*models.Task).Notes)
}

func TestGetRecursive_WithoutNotesRendersEmptyLists(t *testing.T) {
	f := newFixture(t, Options{})
	c := f.category("acc", "Work")
	tk := f.task("acc", c.Ref(), "t")
	ev := f.event("acc", models.TaskParent(tk.ID), "ev")
	f.note("acc", models.TaskParent(tk.ID), "hidden")
	f.note("acc", models.EventParent(ev.ID), "hidden")

	tree, err := f.engine.GetRecursive(f.ctx, models.KindTask, tk.ID, GetOptions{})
	require.NoError(t, err)

	raw, err := json.Marshal(tree)
	require.NoError(t, err)
	var got struct {
		SubTasks []string `json:"subTasks"`
		Notes    []string `json:"notes"`
		Children struct {
			Events []struct {
				Notes []string `json:"notes"`
			} `json:"events"`
		} `json:"children"`
	}
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.NotNil(t, got.SubTasks)
	assert.NotNil(t, got.Notes)
	assert.Empty(t, got.Notes)
	require.Len(t, got.Children.Events, 1)
	assert.NotNil(t, got.Children.Events[0].Notes)
	assert.Empty(t, got.Children.Events[0].Notes)
}

func TestGetRecursive_Errors(t *testing.T) {
	f := newFixture(t, Options{})
	c := f.category("acc", "Work")
	ev := f.event("acc", c.Ref(), "ev")

	_, err := f.engine.GetRecursive(f.ctx, models.KindEvent, ev.ID, GetOptions{})
	assert.ErrorIs(t, err, common.ErrorInvalidOperation)

	_, err = f.engine.GetRecursive(f.ctx, models.KindTask, "missing", GetOptions{})
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestGetRecursive_DepthLimit(t *testing.T) {
	f := newFixture(t, Options{})
	c := f.category("acc", "Deep")
	parent := c.Ref()
	for i := 0; i < 4; i++ {
		parent = models.TaskParent(f.task("acc", parent, "level").ID)
	}

	_, err := f.engine.GetRecursive(f.ctx, models.KindCategory, c.ID, GetOptions{MaxDepth: 2})
	assert.ErrorIs(t, err, common.ErrorInvalidOperation)

	_, err = f.engine.GetRecursive(f.ctx, models.KindCategory, c.ID, GetOptions{MaxDepth: 4})
	assert.NoError(t, err)
}

func TestGetRecursive_SingleSlotDoesNotDeadlock(t *testing.T) {
	f := newFixture(t, Options{MaxConcurrency: 1})
	c := f.category("acc", "Wide")
	for i := 0; i < 10; i++ {
		tk := f.task("acc", c.Ref(), "t")
		f.task("acc", models.TaskParent(tk.ID), "sub")
		f.event("acc", models.TaskParent(tk.ID), "ev")
	}

	tree, err := f.engine.GetRecursive(f.ctx, models.KindCategory, c.ID, GetOptions{IncludeNotes: true})
	require.NoError(t, err)
	assert.Equal(t, 31, tree.Count())
}

func TestDeleteRecursive_RemovesWholeSubtree(t *testing.T) {
	f := newFixture(t, Options{})
	c := f.category("acc", "Work")
	sibling := f.task("acc", c.Ref(), "sibling")
	root := f.task("acc", c.Ref(), "root")

	var taskIDs, eventIDs []string
	for i := 0; i < 3; i++ {
		sub := f.task("acc", models.TaskParent(root.ID), "sub")
		taskIDs = append(taskIDs, sub.ID)
		eventIDs = append(eventIDs, f.event("acc", models.TaskParent(sub.ID), "ev").ID)
	}
	eventIDs = append(eventIDs, f.event("acc", models.TaskParent(root.ID), "ev").ID)

	before := f.store.Len()
	tree, err := f.engine.DeleteRecursive(f.ctx, models.KindTask, root.ID)
	require.NoError(t, err)

	n, m := len(taskIDs), len(eventIDs)
	assert.Equal(t, before-(n+m+1), f.store.Len())
	assert.Equal(t, n+m+1, tree.Count())

	for _, id := range append(taskIDs, root.ID) {
		_, err := f.store.Tasks().GetByID(f.ctx, id)
		assert.ErrorIs(t, err, common.ErrorNotFound)
	}
	for _, id := range eventIDs {
		_, err := f.store.Events().GetByID(f.ctx, id)
		assert.ErrorIs(t, err, common.ErrorNotFound)
	}
	_, err = f.store.Tasks().GetByID(f.ctx, sibling.ID)
	assert.NoError(t, err)
}

func TestDeleteRecursive_DeeperThanMaxDepth(t *testing.T) {
	f := newFixture(t, Options{MaxDepth: 2})
	c := f.category("acc", "Deep")
	parent := c.Ref()
	for i := 0; i < 5; i++ {
		tk := f.task("acc", parent, "level")
		f.note("acc", models.TaskParent(tk.ID), "n")
		parent = models.TaskParent(tk.ID)
	}
	f.event("acc", parent, "leaf")
	require.Equal(t, 12, f.store.Len())

	tree, err := f.engine.DeleteRecursive(f.ctx, models.KindCategory, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 12, tree.Count())
	assert.Equal(t, 0, f.store.Len())
}

func TestDeleteRecursive_TwiceIsNotFound(t *testing.T) {
	f := newFixture(t, Options{})
	c := f.category("acc", "Work")
	a := f.task("acc", c.Ref(), "a")
	b := f.task("acc", c.Ref(), "b")

	_, err := f.engine.DeleteRecursive(f.ctx, models.KindTask, a.ID)
	require.NoError(t, err)

	tree, err := f.engine.DeleteRecursive(f.ctx, models.KindTask, a.ID)
	assert.ErrorIs(t, err, common.ErrorNotFound)
	assert.Nil(t, tree)

	_, err = f.store.Tasks().GetByID(f.ctx, b.ID)
	assert.NoError(t, err)
}

func TestDeleteRecursive_EventTakesItsNotes(t *testing.T) {
	f := newFixture(t, Options{})
	c := f.category("acc", "Work")
	ev := f.event("acc", c.Ref(), "ev")
	n := f.note("acc", models.EventParent(ev.ID), "n")

	tree, err := f.engine.DeleteRecursive(f.ctx, models.KindEvent, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{n.ID}, tree.Entity.(*models.Event).Notes)
	assert.Equal(t, 1, f.store.Len())
}

func TestDeleteRecursive_NoteAlone(t *testing.T) {
	f := newFixture(t, Options{})
	tk := f.task("acc", models.CategoryParent("c"), "t")
	n := f.note("acc", models.TaskParent(tk.ID), "n")

	tree, err := f.engine.DeleteRecursive(f.ctx, models.KindNote, n.ID)
	require.NoError(t, err)
	assert.Equal(t, n.ID, tree.Entity.EntityID())
	assert.Equal(t, 1, f.store.Len())
}

type flakyEvents struct {
	events.Repository
	failID string
}

func (r flakyEvents) Delete(ctx context.Context, id string) (*models.Event, error) {
	if id == r.failID {
		return nil, errors.Join(common.ErrorPersistence, errors.New("disk full"))
	}
	return r.Repository.Delete(ctx, id)
}

type flakyManager struct {
	*repomanager.MemoryRepositoryManager
	failID string
}

func (m flakyManager) Events(db dbx.DBTX) events.Repository {
	return flakyEvents{Repository: m.MemoryRepositoryManager.Events(db), failID: m.failID}
}

func TestDeleteRecursive_PartialFailureKeepsGoing(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	c, _ := store.Categories().Create(ctx, &models.Category{AccountID: "acc", Name: "Work"})
	bad, _ := store.Events().Create(ctx, &models.Event{AccountID: "acc", ParentType: models.KindCategory, Parent: c.ID})
	good, _ := store.Events().Create(ctx, &models.Event{AccountID: "acc", ParentType: models.KindCategory, Parent: c.ID})
	tk, _ := store.Tasks().Create(ctx, &models.Task{AccountID: "acc", ParentType: models.KindCategory, Parent: c.ID})

	rm := flakyManager{MemoryRepositoryManager: repomanager.NewMemoryRepositoryManager(store), failID: bad.ID}
	engine := NewEngine(nil, rm, Options{}, nil)

	tree, err := engine.DeleteRecursive(ctx, models.KindCategory, c.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrorPartialFailure)
	assert.ErrorIs(t, err, common.ErrorPersistence)
	require.NotNil(t, tree)

	assert.Equal(t, []string{tk.ID}, treeTaskIDs(tree))
	require.Len(t, tree.Children.Events, 1)
	assert.Equal(t, good.ID, tree.Children.Events[0].ID)

	_, err = store.Events().GetByID(ctx, bad.ID)
	assert.NoError(t, err)
	_, err = store.Categories().GetByID(ctx, c.ID)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestDeleteAndRebase_CategoryToCategory(t *testing.T) {
	f := newFixture(t, Options{})
	a := f.category("acc", "A")
	b := f.category("acc", "B")
	t1 := f.task("acc", a.Ref(), "t1")
	sub := f.task("acc", models.TaskParent(t1.ID), "sub")
	ev := f.event("acc", a.Ref(), "ev")
	existing := f.task("acc", b.Ref(), "existing")

	res, err := f.engine.DeleteAndRebase(f.ctx, models.KindCategory, a.ID, b.Ref())
	require.NoError(t, err)
	assert.Equal(t, a.ID, res.Deleted.EntityID())
	assert.Equal(t, b.ID, res.NewParent.EntityID())
	assert.ElementsMatch(t, []models.ChildRef{t1.Ref(), ev.Ref()}, res.Moved)

	_, err = f.store.Categories().GetByID(f.ctx, a.ID)
	assert.ErrorIs(t, err, common.ErrorNotFound)

	tree, err := f.engine.GetRecursive(f.ctx, models.KindCategory, b.ID, GetOptions{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{existing.ID, t1.ID}, treeTaskIDs(tree))
	require.Len(t, tree.Children.Events, 1)
	assert.Equal(t, ev.ID, tree.Children.Events[0].ID)

	moved, err := f.store.Tasks().GetByID(f.ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskParent(t1.ID), moved.ParentRef())
}

func TestDeleteAndRebase_SelfIsRejected(t *testing.T) {
	f := newFixture(t, Options{})
	c := f.category("acc", "Work")
	x := f.task("acc", c.Ref(), "x")
	f.task("acc", models.TaskParent(x.ID), "child")
	before := f.store.Len()

	_, err := f.engine.DeleteAndRebase(f.ctx, models.KindTask, x.ID, models.TaskParent(x.ID))
	assert.ErrorIs(t, err, common.ErrorInvalidOperation)
	assert.Equal(t, before, f.store.Len())
}

func TestDeleteAndRebase_IntoDescendantIsRejected(t *testing.T) {
	f := newFixture(t, Options{})
	c := f.category("acc", "Work")
	x := f.task("acc", c.Ref(), "x")
	child := f.task("acc", models.TaskParent(x.ID), "child")
	grandchild := f.task("acc", models.TaskParent(child.ID), "grandchild")
	before := f.store.Len()

	_, err := f.engine.DeleteAndRebase(f.ctx, models.KindTask, x.ID, models.TaskParent(child.ID))
	assert.ErrorIs(t, err, common.ErrorInvalidOperation)
	_, err = f.engine.DeleteAndRebase(f.ctx, models.KindCategory, c.ID, models.TaskParent(grandchild.ID))
	assert.ErrorIs(t, err, common.ErrorInvalidOperation)

	assert.Equal(t, before, f.store.Len())
	got, err := f.store.Tasks().GetByID(f.ctx, child.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskParent(x.ID), got.ParentRef())
}

func TestDeleteAndRebase_GuardsBeforeMutation(t *testing.T) {
	f := newFixture(t, Options{})
	c := f.category("acc", "Work")
	foreign := f.category("other", "Theirs")
	x := f.task("acc", c.Ref(), "x")
	ev := f.event("acc", c.Ref(), "ev")
	before := f.store.Len()

	_, err := f.engine.DeleteAndRebase(f.ctx, models.KindTask, x.ID, foreign.Ref())
	assert.ErrorIs(t, err, common.ErrorInvalidOperation)

	_, err = f.engine.DeleteAndRebase(f.ctx, models.KindTask, x.ID, models.CategoryParent("missing"))
	assert.ErrorIs(t, err, common.ErrorNotFound)

	_, err = f.engine.DeleteAndRebase(f.ctx, models.KindTask, x.ID, models.EventParent(ev.ID))
	assert.ErrorIs(t, err, common.ErrorInvalidParentType)

	_, err = f.engine.DeleteAndRebase(f.ctx, models.KindEvent, ev.ID, c.Ref())
	assert.ErrorIs(t, err, common.ErrorInvalidOperation)

	assert.Equal(t, before, f.store.Len())
}

func TestDeleteAndRebase_UncategorizedScenario(t *testing.T) {
	f := newFixture(t, Options{})
	uc := f.category("acc", common.UncategorizedCategoryName)
	t1 := f.task("acc", uc.Ref(), "T1")
	t2 := f.task("acc", models.TaskParent(t1.ID), "T2")

	_, err := f.engine.DeleteAndRebase(f.ctx, models.KindTask, t1.ID, uc.Ref())
	require.NoError(t, err)

	got, err := f.store.Tasks().GetByID(f.ctx, t2.ID)
	require.NoError(t, err)
	assert.Equal(t, uc.Ref(), got.ParentRef())

	_, err = f.store.Tasks().GetByID(f.ctx, t1.ID)
	assert.ErrorIs(t, err, common.ErrorNotFound)

	cat, err := f.store.Categories().GetByID(f.ctx, uc.ID)
	require.NoError(t, err)
	require.NoError(t, f.engine.Hydrate(f.ctx, cat))
	assert.Equal(t, []string{t2.ID}, cat.Tasks)
}

func TestDeleteAndRebase_NotesFollowOnlyToTasks(t *testing.T) {
	f := newFixture(t, Options{})
	c := f.category("acc", "Work")
	keeper := f.task("acc", c.Ref(), "keeper")

	x := f.task("acc", c.Ref(), "x")
	n := f.note("acc", models.TaskParent(x.ID), "follows")
	res, err := f.engine.DeleteAndRebase(f.ctx, models.KindTask, x.ID, models.TaskParent(keeper.ID))
	require.NoError(t, err)
	assert.Empty(t, res.DeletedNotes)
	got, err := f.store.Notes().GetByID(f.ctx, n.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskParent(keeper.ID), got.ParentRef())

	y := f.task("acc", c.Ref(), "y")
	gone := f.note("acc", models.TaskParent(y.ID), "dropped")
	res, err = f.engine.DeleteAndRebase(f.ctx, models.KindTask, y.ID, c.Ref())
	require.NoError(t, err)
	require.Len(t, res.DeletedNotes, 1)
	assert.Equal(t, gone.ID, res.DeletedNotes[0].ID)
	assert.Equal(t, 2, res.Removed().Count())
	_, err = f.store.Notes().GetByID(f.ctx, gone.ID)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestRebaseChild(t *testing.T) {
	f := newFixture(t, Options{})
	c := f.category("acc", "Work")
	a := f.task("acc", c.Ref(), "a")
	b := f.task("acc", c.Ref(), "b")
	sub := f.task("acc", models.TaskParent(a.ID), "sub")
	ev := f.event("acc", c.Ref(), "ev")
	n := f.note("acc", models.TaskParent(a.ID), "n")
	foreign := f.category("other", "Theirs")

	res, err := f.engine.RebaseChild(f.ctx, b.Ref(), models.TaskParent(a.ID), false)
	require.NoError(t, err)
	assert.Equal(t, models.TaskParent(a.ID), res.Child.(*models.Task).ParentRef())
	require.NotNil(t, res.OldParent)
	assert.Equal(t, c.Ref(), res.OldParent.Ref)
	assert.Equal(t, []string{a.ID}, res.OldParent.Tasks)
	assert.Equal(t, []string{ev.ID}, res.OldParent.Events)

	res, err = f.engine.RebaseChild(f.ctx, n.Ref(), models.EventParent(ev.ID), true)
	require.NoError(t, err)
	assert.Nil(t, res.OldParent)

	_, err = f.engine.RebaseChild(f.ctx, ev.Ref(), models.EventParent(ev.ID), false)
	assert.ErrorIs(t, err, common.ErrorInvalidParentType)

	_, err = f.engine.RebaseChild(f.ctx, n.Ref(), c.Ref(), false)
	assert.ErrorIs(t, err, common.ErrorInvalidParentType)

	_, err = f.engine.RebaseChild(f.ctx, models.ChildRef{Kind: models.KindCategory, ID: c.ID}, models.TaskParent(a.ID), false)
	assert.ErrorIs(t, err, common.ErrorInvalidParentType)

	_, err = f.engine.RebaseChild(f.ctx, a.Ref(), models.TaskParent(a.ID), false)
	assert.ErrorIs(t, err, common.ErrorInvalidOperation)

	_, err = f.engine.RebaseChild(f.ctx, a.Ref(), models.TaskParent(sub.ID), false)
	assert.ErrorIs(t, err, common.ErrorInvalidOperation)

	_, err = f.engine.RebaseChild(f.ctx, a.Ref(), foreign.Ref(), false)
	assert.ErrorIs(t, err, common.ErrorInvalidOperation)

	_, err = f.engine.RebaseChild(f.ctx, a.Ref(), models.CategoryParent("missing"), false)
	assert.ErrorIs(t, err, common.ErrorNotFound)

	got, err := f.store.Tasks().GetByID(f.ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, c.Ref(), got.ParentRef())
}

func TestHydrate(t *testing.T) {
	f := newFixture(t, Options{})
	c := f.category("acc", "Work")
	tk := f.task("acc", c.Ref(), "t")
	sub := f.task("acc", models.TaskParent(tk.ID), "sub")
	ev := f.event("acc", models.TaskParent(tk.ID), "ev")
	n := f.note("acc", models.TaskParent(tk.ID), "n")

	got, err := f.store.Tasks().GetByID(f.ctx, tk.ID)
	require.NoError(t, err)
	require.NoError(t, f.engine.Hydrate(f.ctx, got))
	assert.Equal(t, []string{sub.ID}, got.SubTasks)
	assert.Equal(t, []string{ev.ID}, got.Events)
	assert.Equal(t, []string{n.ID}, got.Notes)

	note, err := f.store.Notes().GetByID(f.ctx, n.ID)
	require.NoError(t, err)
	assert.NoError(t, f.engine.Hydrate(f.ctx, note))
}
