package postgres

import (
	"context"
	"database/sql"
	"errors"

	"rentdesk-backend/internal/domain"
	"rentdesk-backend/internal/repository"
)

type organizationRepository struct {
	db *sql.DB
}

func NewOrganizationRepository(db *sql.DB) repository.OrganizationRepository {
	return &organizationRepository{db: db}
}

func (r *organizationRepository) Create(ctx context.Context, org *domain.Organization) error {
	query := `INSERT INTO organizations (id, name, description, address, phone_number, email, created_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := q(ctx, r.db).ExecContext(ctx, query, org.ID, org.Name, org.Description, org.Address, org.PhoneNumber, org.Email, org.CreatedOn)
	return err
}

func (r *organizationRepository) GetByID(ctx context.Context, id string) (*domain.Organization, error) {
	org := &domain.Organization{}
	query := `SELECT id, name, description, address, phone_number, email, created_on FROM organizations WHERE id = $1`
	err := q(ctx, r.db).QueryRowContext(ctx, query, id).
		Scan(&org.ID, &org.Name, &org.Description, &org.Address, &org.PhoneNumber, &org.Email, &org.CreatedOn)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrOrganizationNotFound
	}
	if err != nil {
		return nil, err
	}
	return org, nil
}

func (r *organizationRepository) List(ctx context.Context) ([]domain.Organization, error) {
	query := `SELECT id, name, description, address, phone_number, email, created_on FROM organizations ORDER BY created_on`
	rows, err := q(ctx, r.db).QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orgs []domain.Organization
	for rows.Next() {
		var org domain.Organization
		if err := rows.Scan(&org.ID, &org.Name, &org.Description, &org.Address, &org.PhoneNumber, &org.Email, &org.CreatedOn); err != nil {
			return nil, err
		}
		orgs = append(orgs, org)
	}
	return orgs, rows.Err()
}
