// Package memory is an in-process implementation of every repository,
// used for local runs (DatabaseDSN "memory") and tests. All repositories
// returned by one Store share its state. Values are copied in and out so
// callers never alias stored data.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/branchkeeper/internal/dbx"
	"github.com/dmitrijs2005/branchkeeper/internal/server/models"
	"github.com/google/uuid"
)

type Store struct {
	mu         sync.RWMutex
	seq        uint64
	order      map[string]uint64
	users      map[string]*models.User // by account id
	categories map[string]*models.Category
	tasks      map[string]*models.Task
	events     map[string]*models.Event
	notes      map[string]*models.Note
	now        func() time.Time
}

func NewStore() *Store {
	return &Store{
		order:      map[string]uint64{},
		users:      map[string]*models.User{},
		categories: map[string]*models.Category{},
		tasks:      map[string]*models.Task{},
		events:     map[string]*models.Event{},
		notes:      map[string]*models.Note{},
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// WithTx runs fn directly; the store has no rollback.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	return fn(ctx, nil)
}

// Len returns the number of stored branch entities (users excluded).
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.categories) + len(s.tasks) + len(s.events) + len(s.notes)
}

// must hold s.mu for writing
func (s *Store) register() (string, time.Time) {
	s.seq++
	id := uuid.NewString()
	s.order[id] = s.seq
	return id, s.now()
}

func sortByOrder[T models.Entity](s *Store, items []T) {
	sort.Slice(items, func(i, j int) bool {
		return s.order[items[i].EntityID()] < s.order[items[j].EntityID()]
	})
}

func score(query string, fields ...string) float64 {
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return 0
	}
	var n int
	for _, f := range fields {
		lf := strings.ToLower(f)
		for _, t := range terms {
			n += strings.Count(lf, t)
		}
	}
	return float64(n) / float64(len(terms))
}

func sortHits(hits []models.SearchHit) {
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

func cloneUser(u *models.User) *models.User {
	c := *u
	c.Categories = nil
	return &c
}

func cloneCategory(v *models.Category) *models.Category {
	c := *v
	c.Tasks, c.Events = nil, nil
	return &c
}

func cloneTask(v *models.Task) *models.Task {
	c := *v
	c.Deadline = cloneTime(v.Deadline)
	c.StartDate = cloneTime(v.StartDate)
	c.PrqTasks = v.PrqTasks.Clone()
	c.PrqEvents = v.PrqEvents.Clone()
	c.SubTasks, c.Events, c.Notes = nil, nil, nil
	return &c
}

func cloneEvent(v *models.Event) *models.Event {
	c := *v
	c.DateTime = cloneTime(v.DateTime)
	c.PrevDates = append(models.TimeList(nil), v.PrevDates...)
	c.PrqTasks = v.PrqTasks.Clone()
	c.PrqEvents = v.PrqEvents.Clone()
	c.Notes = nil
	return &c
}

func cloneNote(v *models.Note) *models.Note {
	c := *v
	return &c
}
