package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"rentdesk-backend/internal/domain"
	"rentdesk-backend/internal/repository"
)

type productRepository struct {
	db *sql.DB
}

func NewProductRepository(db *sql.DB) repository.ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) Create(ctx context.Context, p *domain.Product) error {
	query := `INSERT INTO products (id, org_id, name, description, category_id, default_rent, active, created_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := q(ctx, r.db).ExecContext(ctx, query, p.ID, p.OrgID, p.Name, p.Description, p.CategoryID, p.DefaultRent, p.Active, p.CreatedOn)
	return err
}

func (r *productRepository) GetByID(ctx context.Context, orgID, id string) (*domain.Product, error) {
	p := &domain.Product{}
	query := `SELECT id, org_id, name, description, category_id, default_rent, active, created_on, deleted_on
	          FROM products WHERE id = $1 AND org_id = $2`
	err := q(ctx, r.db).QueryRowContext(ctx, query, id, orgID).
		Scan(&p.ID, &p.OrgID, &p.Name, &p.Description, &p.CategoryID, &p.DefaultRent, &p.Active, &p.CreatedOn, &p.DeletedOn)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *productRepository) Update(ctx context.Context, p *domain.Product) error {
	query := `UPDATE products SET name=$1, description=$2, category_id=$3, default_rent=$4, active=$5
	          WHERE id=$6 AND org_id=$7`
	res, err := q(ctx, r.db).ExecContext(ctx, query, p.Name, p.Description, p.CategoryID, p.DefaultRent, p.Active, p.ID, p.OrgID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

func (r *productRepository) Deactivate(ctx context.Context, orgID, id string, at time.Time) error {
	query := `UPDATE products SET active=false, deleted_on=$1 WHERE id=$2 AND org_id=$3`
	res, err := q(ctx, r.db).ExecContext(ctx, query, at, id, orgID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

func (r *productRepository) ListByOrg(ctx context.Context, orgID string, page, pageSize int32) ([]domain.Product, int32, error) {
	var count int32
	countQuery := `SELECT count(*) FROM products WHERE org_id = $1`
	if err := q(ctx, r.db).QueryRowContext(ctx, countQuery, orgID).Scan(&count); err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	query := `SELECT id, org_id, name, description, category_id, default_rent, active, created_on, deleted_on
	          FROM products WHERE org_id = $1 ORDER BY created_on DESC LIMIT $2 OFFSET $3`
	rows, err := q(ctx, r.db).QueryContext(ctx, query, orgID, pageSize, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.OrgID, &p.Name, &p.Description, &p.CategoryID, &p.DefaultRent, &p.Active, &p.CreatedOn, &p.DeletedOn); err != nil {
			return nil, 0, err
		}
		products = append(products, p)
	}
	return products, count, rows.Err()
}
