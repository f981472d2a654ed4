package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/branchkeeper/internal/dbx"
	"github.com/dmitrijs2005/branchkeeper/internal/server/repositories/categories"
	"github.com/dmitrijs2005/branchkeeper/internal/server/repositories/events"
	"github.com/dmitrijs2005/branchkeeper/internal/server/repositories/memory"
	"github.com/dmitrijs2005/branchkeeper/internal/server/repositories/notes"
	"github.com/dmitrijs2005/branchkeeper/internal/server/repositories/tasks"
	"github.com/dmitrijs2005/branchkeeper/internal/server/repositories/users"
)

// MemoryRepositoryManager serves every repository from one memory.Store.
// The DBTX argument is ignored.
type MemoryRepositoryManager struct {
	Store *memory.Store
}

func NewMemoryRepositoryManager(s *memory.Store) *MemoryRepositoryManager {
	return &MemoryRepositoryManager{Store: s}
}

func (m *MemoryRepositoryManager) RunMigrations(context.Context, *sql.DB) error { return nil }

func (m *MemoryRepositoryManager) Users(dbx.DBTX) users.Repository { return m.Store.Users() }

func (m *MemoryRepositoryManager) Categories(dbx.DBTX) categories.Repository {
	return m.Store.Categories()
}

func (m *MemoryRepositoryManager) Tasks(dbx.DBTX) tasks.Repository { return m.Store.Tasks() }

func (m *MemoryRepositoryManager) Events(dbx.DBTX) events.Repository { return m.Store.Events() }

func (m *MemoryRepositoryManager) Notes(dbx.DBTX) notes.Repository { return m.Store.Notes() }
