package events

import (
	"context"

	"github.com/dmitrijs2005/branchkeeper/internal/dbx"
	"github.com/dmitrijs2005/branchkeeper/internal/server/models"
	"github.com/google/uuid"
)

const columns = `id, account_id, name, date_time, length_minutes, completed, prev_dates,
	parent_type, parent_id, prq_tasks, prq_events, created_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEvent(s scanner, extra ...any) (*models.Event, error) {
	e := &models.Event{}
	dest := []any{
		&e.ID, &e.AccountID, &e.Name, &e.DateTime, &e.LengthMinutes, &e.Completed, &e.PrevDates,
		&e.ParentType, &e.Parent, &e.PrqTasks, &e.PrqEvents, &e.CreatedAt,
	}
	if err := s.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return e, nil
}

func listArg(l *models.IDList) any {
	if l == nil {
		return nil
	}
	return *l
}

func (r *PostgresRepository) Create(ctx context.Context, e *models.Event) (*models.Event, error) {
	query :=
		`INSERT INTO events (id, account_id, name, date_time, length_minutes, completed, prev_dates,
		     parent_type, parent_id, prq_tasks, prq_events)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING created_at`

	id := uuid.NewString()
	err := r.db.QueryRowContext(ctx, query,
		id, e.AccountID, e.Name, e.DateTime, e.LengthMinutes, e.Completed, e.PrevDates,
		int(e.ParentType), e.Parent, e.PrqTasks, e.PrqEvents,
	).Scan(&e.CreatedAt)
	if err != nil {
		return nil, dbx.MapError("create event", err)
	}
	e.ID = id
	return e, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Event, error) {
	e, err := scanEvent(r.db.QueryRowContext(ctx, `SELECT `+columns+` FROM events WHERE id = $1`, id))
	if err != nil {
		return nil, dbx.MapError("get event", err)
	}
	return e, nil
}

// SET expressions all read the pre-update row, so prev_dates sees the old
// date_time.
func (r *PostgresRepository) Update(ctx context.Context, id string, p models.EventPatch) (*models.Event, error) {
	query :=
		`UPDATE events SET
		     name = COALESCE($2, name),
		     prev_dates = CASE
		         WHEN $3::timestamptz IS NOT NULL AND date_time IS NOT NULL AND date_time <> $3::timestamptz
		         THEN prev_dates || to_jsonb(date_time)
		         ELSE prev_dates
		     END,
		     date_time = COALESCE($3, date_time),
		     length_minutes = COALESCE($4, length_minutes),
		     completed = COALESCE($5, completed),
		     prq_tasks = COALESCE($6::jsonb, prq_tasks),
		     prq_events = COALESCE($7::jsonb, prq_events)
		 WHERE id = $1
		 RETURNING ` + columns

	e, err := scanEvent(r.db.QueryRowContext(ctx, query,
		id, p.Name, p.DateTime, p.LengthMinutes, p.Completed, listArg(p.PrqTasks), listArg(p.PrqEvents)))
	if err != nil {
		return nil, dbx.MapError("update event", err)
	}
	return e, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) (*models.Event, error) {
	e, err := scanEvent(r.db.QueryRowContext(ctx, `DELETE FROM events WHERE id = $1 RETURNING `+columns, id))
	if err != nil {
		return nil, dbx.MapError("delete event", err)
	}
	return e, nil
}

func (r *PostgresRepository) list(ctx context.Context, op, query string, args ...any) ([]*models.Event, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dbx.MapError(op, err)
	}
	defer rows.Close()

	var out []*models.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, dbx.MapError(op, err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, dbx.MapError(op, err)
	}
	return out, nil
}

func (r *PostgresRepository) FindByOwner(ctx context.Context, accountID string) ([]*models.Event, error) {
	return r.list(ctx, "list events",
		`SELECT `+columns+` FROM events WHERE account_id = $1 ORDER BY created_at, id`, accountID)
}

func (r *PostgresRepository) FindByParent(ctx context.Context, parent models.ParentRef) ([]*models.Event, error) {
	return r.list(ctx, "list child events",
		`SELECT `+columns+` FROM events WHERE parent_type = $1 AND parent_id = $2 ORDER BY created_at, id`,
		int(parent.Kind), parent.ID)
}

func (r *PostgresRepository) SetParent(ctx context.Context, id string, parent models.ParentRef) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE events SET parent_type = $2, parent_id = $3 WHERE id = $1`, id, int(parent.Kind), parent.ID)
	if err != nil {
		return dbx.MapError("move event", err)
	}
	return dbx.RequireAffected("move event", res)
}

func (r *PostgresRepository) OwnerOf(ctx context.Context, id string) (string, error) {
	var owner string
	if err := r.db.QueryRowContext(ctx, `SELECT account_id FROM events WHERE id = $1`, id).Scan(&owner); err != nil {
		return "", dbx.MapError("event owner", err)
	}
	return owner, nil
}

func (r *PostgresRepository) Search(ctx context.Context, accountID, query string) ([]models.SearchHit, error) {
	q :=
		`SELECT ` + columns + `, ts_rank(search, plainto_tsquery('simple', $2)) AS score
		 FROM events
		 WHERE account_id = $1 AND search @@ plainto_tsquery('simple', $2)
		 ORDER BY score DESC`

	rows, err := r.db.QueryContext(ctx, q, accountID, query)
	if err != nil {
		return nil, dbx.MapError("search events", err)
	}
	defer rows.Close()

	var hits []models.SearchHit
	for rows.Next() {
		var score float64
		e, err := scanEvent(rows, &score)
		if err != nil {
			return nil, dbx.MapError("search events", err)
		}
		hits = append(hits, models.SearchHit{Kind: models.KindEvent, Score: score, Entity: e})
	}
	if err := rows.Err(); err != nil {
		return nil, dbx.MapError("search events", err)
	}
	return hits, nil
}
