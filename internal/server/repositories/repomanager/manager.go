package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/branchkeeper/internal/dbx"
	"github.com/dmitrijs2005/branchkeeper/internal/server/repositories/categories"
	"github.com/dmitrijs2005/branchkeeper/internal/server/repositories/events"
	"github.com/dmitrijs2005/branchkeeper/internal/server/repositories/notes"
	"github.com/dmitrijs2005/branchkeeper/internal/server/repositories/tasks"
	"github.com/dmitrijs2005/branchkeeper/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Categories(db dbx.DBTX) categories.Repository
	Tasks(db dbx.DBTX) tasks.Repository
	Events(db dbx.DBTX) events.Repository
	Notes(db dbx.DBTX) notes.Repository
}
