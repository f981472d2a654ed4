package categories

import (
	"context"

	"github.com/dmitrijs2005/branchkeeper/internal/dbx"
	"github.com/dmitrijs2005/branchkeeper/internal/server/models"
	"github.com/google/uuid"
)

const columns = `id, account_id, name, created_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(s scanner) (*models.Category, error) {
	c := &models.Category{}
	if err := s.Scan(&c.ID, &c.AccountID, &c.Name, &c.CreatedAt); err != nil {
		return nil, err
	}
	return c, nil
}

func (r *PostgresRepository) Create(ctx context.Context, c *models.Category) (*models.Category, error) {
	query :=
		`INSERT INTO categories (id, account_id, name)
		 VALUES ($1, $2, $3)
		 RETURNING created_at`

	id := uuid.NewString()
	if err := r.db.QueryRowContext(ctx, query, id, c.AccountID, c.Name).Scan(&c.CreatedAt); err != nil {
		return nil, dbx.MapError("create category", err)
	}
	c.ID = id
	return c, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Category, error) {
	query := `SELECT ` + columns + ` FROM categories WHERE id = $1`

	c, err := scan(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, dbx.MapError("get category", err)
	}
	return c, nil
}

func (r *PostgresRepository) Update(ctx context.Context, id string, patch models.CategoryPatch) (*models.Category, error) {
	query :=
		`UPDATE categories SET name = COALESCE($2, name)
		 WHERE id = $1
		 RETURNING ` + columns

	c, err := scan(r.db.QueryRowContext(ctx, query, id, patch.Name))
	if err != nil {
		return nil, dbx.MapError("update category", err)
	}
	return c, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) (*models.Category, error) {
	query := `DELETE FROM categories WHERE id = $1 RETURNING ` + columns

	c, err := scan(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, dbx.MapError("delete category", err)
	}
	return c, nil
}

func (r *PostgresRepository) FindByOwner(ctx context.Context, accountID string) ([]*models.Category, error) {
	query := `SELECT ` + columns + ` FROM categories WHERE account_id = $1 ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, dbx.MapError("list categories", err)
	}
	defer rows.Close()

	var out []*models.Category
	for rows.Next() {
		c, err := scan(rows)
		if err != nil {
			return nil, dbx.MapError("list categories", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, dbx.MapError("list categories", err)
	}
	return out, nil
}

func (r *PostgresRepository) OwnerOf(ctx context.Context, id string) (string, error) {
	var owner string
	if err := r.db.QueryRowContext(ctx, `SELECT account_id FROM categories WHERE id = $1`, id).Scan(&owner); err != nil {
		return "", dbx.MapError("category owner", err)
	}
	return owner, nil
}

func (r *PostgresRepository) Search(ctx context.Context, accountID, query string) ([]models.SearchHit, error) {
	q :=
		`SELECT ` + columns + `, ts_rank(search, plainto_tsquery('simple', $2)) AS score
		 FROM categories
		 WHERE account_id = $1 AND search @@ plainto_tsquery('simple', $2)
		 ORDER BY score DESC`

	rows, err := r.db.QueryContext(ctx, q, accountID, query)
	if err != nil {
		return nil, dbx.MapError("search categories", err)
	}
	defer rows.Close()

	var hits []models.SearchHit
	for rows.Next() {
		c := &models.Category{}
		var score float64
		if err := rows.Scan(&c.ID, &c.AccountID, &c.Name, &c.CreatedAt, &score); err != nil {
			return nil, dbx.MapError("search categories", err)
		}
		hits = append(hits, models.SearchHit{Kind: models.KindCategory, Score: score, Entity: c})
	}
	if err := rows.Err(); err != nil {
		return nil, dbx.MapError("search categories", err)
	}
	return hits, nil
}
