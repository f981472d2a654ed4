package tasks

import (
	"context"

	"github.com/dmitrijs2005/branchkeeper/internal/dbx"
	"github.com/dmitrijs2005/branchkeeper/internal/server/models"
	"github.com/google/uuid"
)

const columns = `id, account_id, name, description, completed, deadline, start_date,
	estimated_minutes, external, parent_type, parent_id, prq_tasks, prq_events, created_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(s scanner, extra ...any) (*models.Task, error) {
	t := &models.Task{}
	dest := []any{
		&t.ID, &t.AccountID, &t.Name, &t.Description, &t.Completed, &t.Deadline, &t.StartDate,
		&t.EstimatedMinutes, &t.External, &t.ParentType, &t.Parent, &t.PrqTasks, &t.PrqEvents, &t.CreatedAt,
	}
	if err := s.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return t, nil
}

func listArg(l *models.IDList) any {
	if l == nil {
		return nil
	}
	return *l
}

func (r *PostgresRepository) Create(ctx context.Context, t *models.Task) (*models.Task, error) {
	query :=
		`INSERT INTO tasks (id, account_id, name, description, completed, deadline, start_date,
		     estimated_minutes, external, parent_type, parent_id, prq_tasks, prq_events)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 RETURNING created_at`

	id := uuid.NewString()
	err := r.db.QueryRowContext(ctx, query,
		id, t.AccountID, t.Name, t.Description, t.Completed, t.Deadline, t.StartDate,
		t.EstimatedMinutes, t.External, int(t.ParentType), t.Parent, t.PrqTasks, t.PrqEvents,
	).Scan(&t.CreatedAt)
	if err != nil {
		return nil, dbx.MapError("create task", err)
	}
	t.ID = id
	return t, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Task, error) {
	t, err := scanTask(r.db.QueryRowContext(ctx, `SELECT `+columns+` FROM tasks WHERE id = $1`, id))
	if err != nil {
		return nil, dbx.MapError("get task", err)
	}
	return t, nil
}

func (r *PostgresRepository) Update(ctx context.Context, id string, p models.TaskPatch) (*models.Task, error) {
	query :=
		`UPDATE tasks SET
		     name = COALESCE($2, name),
		     description = COALESCE($3, description),
		     completed = COALESCE($4, completed),
		     deadline = COALESCE($5, deadline),
		     start_date = COALESCE($6, start_date),
		     estimated_minutes = COALESCE($7, estimated_minutes),
		     external = COALESCE($8, external),
		     prq_tasks = COALESCE($9::jsonb, prq_tasks),
		     prq_events = COALESCE($10::jsonb, prq_events)
		 WHERE id = $1
		 RETURNING ` + columns

	t, err := scanTask(r.db.QueryRowContext(ctx, query,
		id, p.Name, p.Description, p.Completed, p.Deadline, p.StartDate,
		p.EstimatedMinutes, p.External, listArg(p.PrqTasks), listArg(p.PrqEvents)))
	if err != nil {
		return nil, dbx.MapError("update task", err)
	}
	return t, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) (*models.Task, error) {
	t, err := scanTask(r.db.QueryRowContext(ctx, `DELETE FROM tasks WHERE id = $1 RETURNING `+columns, id))
	if err != nil {
		return nil, dbx.MapError("delete task", err)
	}
	return t, nil
}

func (r *PostgresRepository) list(ctx context.Context, op, query string, args ...any) ([]*models.Task, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dbx.MapError(op, err)
	}
	defer rows.Close()

	var out []*models.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, dbx.MapError(op, err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, dbx.MapError(op, err)
	}
	return out, nil
}

func (r *PostgresRepository) FindByOwner(ctx context.Context, accountID string) ([]*models.Task, error) {
	return r.list(ctx, "list tasks",
		`SELECT `+columns+` FROM tasks WHERE account_id = $1 ORDER BY created_at, id`, accountID)
}

func (r *PostgresRepository) FindByParent(ctx context.Context, parent models.ParentRef) ([]*models.Task, error) {
	return r.list(ctx, "list child tasks",
		`SELECT `+columns+` FROM tasks WHERE parent_type = $1 AND parent_id = $2 ORDER BY created_at, id`,
		int(parent.Kind), parent.ID)
}

func (r *PostgresRepository) SetParent(ctx context.Context, id string, parent models.ParentRef) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE tasks SET parent_type = $2, parent_id = $3 WHERE id = $1`, id, int(parent.Kind), parent.ID)
	if err != nil {
		return dbx.MapError("move task", err)
	}
	return dbx.RequireAffected("move task", res)
}

func (r *PostgresRepository) OwnerOf(ctx context.Context, id string) (string, error) {
	var owner string
	if err := r.db.QueryRowContext(ctx, `SELECT account_id FROM tasks WHERE id = $1`, id).Scan(&owner); err != nil {
		return "", dbx.MapError("task owner", err)
	}
	return owner, nil
}

func (r *PostgresRepository) Search(ctx context.Context, accountID, query string) ([]models.SearchHit, error) {
	q :=
		`SELECT ` + columns + `, ts_rank(search, plainto_tsquery('simple', $2)) AS score
		 FROM tasks
		 WHERE account_id = $1 AND search @@ plainto_tsquery('simple', $2)
		 ORDER BY score DESC`

	rows, err := r.db.QueryContext(ctx, q, accountID, query)
	if err != nil {
		return nil, dbx.MapError("search tasks", err)
	}
	defer rows.Close()

	var hits []models.SearchHit
	for rows.Next() {
		var score float64
		t, err := scanTask(rows, &score)
		if err != nil {
			return nil, dbx.MapError("search tasks", err)
		}
		hits = append(hits, models.SearchHit{Kind: models.KindTask, Score: score, Entity: t})
	}
	if err := rows.Err(); err != nil {
		return nil, dbx.MapError("search tasks", err)
	}
	return hits, nil
}
