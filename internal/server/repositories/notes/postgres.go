package notes

import (
	"context"
	"time"

	"github.com/dmitrijs2005/branchkeeper/internal/dbx"
	"github.com/dmitrijs2005/branchkeeper/internal/server/models"
	"github.com/google/uuid"
)

const columns = `id, account_id, date_stamp, text, parent_type, parent_id, created_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanNote(s scanner, extra ...any) (*models.Note, error) {
	n := &models.Note{}
	dest := []any{&n.ID, &n.AccountID, &n.DateStamp, &n.Text, &n.ParentType, &n.Parent, &n.CreatedAt}
	if err := s.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return n, nil
}

func (r *PostgresRepository) Create(ctx context.Context, n *models.Note) (*models.Note, error) {
	query :=
		`INSERT INTO notes (id, account_id, date_stamp, text, parent_type, parent_id)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING created_at`

	if n.DateStamp.IsZero() {
		n.DateStamp = time.Now().UTC()
	}
	id := uuid.NewString()
	err := r.db.QueryRowContext(ctx, query,
		id, n.AccountID, n.DateStamp, n.Text, int(n.ParentType), n.Parent).Scan(&n.CreatedAt)
	if err != nil {
		return nil, dbx.MapError("create note", err)
	}
	n.ID = id
	return n, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Note, error) {
	n, err := scanNote(r.db.QueryRowContext(ctx, `SELECT `+columns+` FROM notes WHERE id = $1`, id))
	if err != nil {
		return nil, dbx.MapError("get note", err)
	}
	return n, nil
}

func (r *PostgresRepository) Update(ctx context.Context, id string, p models.NotePatch) (*models.Note, error) {
	query :=
		`UPDATE notes SET text = COALESCE($2, text), date_stamp = COALESCE($3, date_stamp)
		 WHERE id = $1
		 RETURNING ` + columns

	n, err := scanNote(r.db.QueryRowContext(ctx, query, id, p.Text, p.DateStamp))
	if err != nil {
		return nil, dbx.MapError("update note", err)
	}
	return n, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) (*models.Note, error) {
	n, err := scanNote(r.db.QueryRowContext(ctx, `DELETE FROM notes WHERE id = $1 RETURNING `+columns, id))
	if err != nil {
		return nil, dbx.MapError("delete note", err)
	}
	return n, nil
}

func (r *PostgresRepository) list(ctx context.Context, op, query string, args ...any) ([]*models.Note, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dbx.MapError(op, err)
	}
	defer rows.Close()

	var out []*models.Note
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, dbx.MapError(op, err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, dbx.MapError(op, err)
	}
	return out, nil
}

func (r *PostgresRepository) FindByOwner(ctx context.Context, accountID string) ([]*models.Note, error) {
	return r.list(ctx, "list notes",
		`SELECT `+columns+` FROM notes WHERE account_id = $1 ORDER BY created_at, id`, accountID)
}

func (r *PostgresRepository) FindByParent(ctx context.Context, parent models.ParentRef) ([]*models.Note, error) {
	return r.list(ctx, "list child notes",
		`SELECT `+columns+` FROM notes WHERE parent_type = $1 AND parent_id = $2 ORDER BY created_at, id`,
		int(parent.Kind), parent.ID)
}

func (r *PostgresRepository) SetParent(ctx context.Context, id string, parent models.ParentRef) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE notes SET parent_type = $2, parent_id = $3 WHERE id = $1`, id, int(parent.Kind), parent.ID)
	if err != nil {
		return dbx.MapError("move note", err)
	}
	return dbx.RequireAffected("move note", res)
}

func (r *PostgresRepository) OwnerOf(ctx context.Context, id string) (string, error) {
	var owner string
	if err := r.db.QueryRowContext(ctx, `SELECT account_id FROM notes WHERE id = $1`, id).Scan(&owner); err != nil {
		return "", dbx.MapError("note owner", err)
	}
	return owner, nil
}

func (r *PostgresRepository) Search(ctx context.Context, accountID, query string) ([]models.SearchHit, error) {
	q :=
		`SELECT ` + columns + `, ts_rank(search, plainto_tsquery('simple', $2)) AS score
		 FROM notes
		 WHERE account_id = $1 AND search @@ plainto_tsquery('simple', $2)
		 ORDER BY score DESC`

	rows, err := r.db.QueryContext(ctx, q, accountID, query)
	if err != nil {
		return nil, dbx.MapError("search notes", err)
	}
	defer rows.Close()

	var hits []models.SearchHit
	for rows.Next() {
		var score float64
		n, err := scanNote(rows, &score)
		if err != nil {
			return nil, dbx.MapError("search notes", err)
		}
		hits = append(hits, models.SearchHit{Kind: models.KindNote, Score: score, Entity: n})
	}
	if err := rows.Err(); err != nil {
		return nil, dbx.MapError("search notes", err)
	}
	return hits, nil
}
