package postgres

import (
	"context"
	"database/sql"
	"errors"

	"rentdesk-backend/internal/domain"
	"rentdesk-backend/internal/repository"
)

type orderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) repository.OrderRepository {
	return &orderRepository{db: db}
}

const orderColumns = `id, org_id, customer_name, customer_phone, customer_email, status, total_amount, total_received, remaining_amount, created_on, updated_on`

func (r *orderRepository) Create(ctx context.Context, o *domain.Order) error {
	query := `INSERT INTO orders (` + orderColumns + `)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := q(ctx, r.db).ExecContext(ctx, query,
		o.ID, o.OrgID, o.CustomerName, o.CustomerPhone, o.CustomerEmail,
		o.Status, o.TotalAmount, o.TotalReceived, o.RemainingAmount, o.CreatedOn, o.UpdatedOn)
	return err
}

func (r *orderRepository) GetByID(ctx context.Context, orgID, id string) (*domain.Order, error) {
	o := &domain.Order{}
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 AND org_id = $2`
	err := q(ctx, r.db).QueryRowContext(ctx, query, id, orgID).Scan(
		&o.ID, &o.OrgID, &o.CustomerName, &o.CustomerPhone, &o.CustomerEmail,
		&o.Status, &o.TotalAmount, &o.TotalReceived, &o.RemainingAmount, &o.CreatedOn, &o.UpdatedOn)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}

	// Booking membership is derived from the bookings table; insertion order
	// is creation order.
	idsQuery := `SELECT id FROM bookings WHERE order_id = $1 AND org_id = $2 ORDER BY created_on, id`
	rows, err := q(ctx, r.db).QueryContext(ctx, idsQuery, id, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var bid string
		if err := rows.Scan(&bid); err != nil {
			return nil, err
		}
		o.BookingIDs = append(o.BookingIDs, bid)
	}
	return o, rows.Err()
}

func (r *orderRepository) Update(ctx context.Context, o *domain.Order) error {
	query := `UPDATE orders SET customer_name=$1, customer_phone=$2, customer_email=$3, status=$4,
	          total_amount=$5, total_received=$6, remaining_amount=$7, updated_on=$8
	          WHERE id=$9 AND org_id=$10`
	res, err := q(ctx, r.db).ExecContext(ctx, query,
		o.CustomerName, o.CustomerPhone, o.CustomerEmail, o.Status,
		o.TotalAmount, o.TotalReceived, o.RemainingAmount, o.UpdatedOn, o.ID, o.OrgID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

func (r *orderRepository) ListByOrg(ctx context.Context, orgID string, page, pageSize int32) ([]domain.Order, int32, error) {
	var count int32
	countQuery := `SELECT count(*) FROM orders WHERE org_id = $1`
	if err := q(ctx, r.db).QueryRowContext(ctx, countQuery, orgID).Scan(&count); err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	query := `SELECT ` + orderColumns + ` FROM orders WHERE org_id = $1 ORDER BY created_on DESC LIMIT $2 OFFSET $3`
	rows, err := q(ctx, r.db).QueryContext(ctx, query, orgID, pageSize, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(&o.ID, &o.OrgID, &o.CustomerName, &o.CustomerPhone, &o.CustomerEmail,
			&o.Status, &o.TotalAmount, &o.TotalReceived, &o.RemainingAmount, &o.CreatedOn, &o.UpdatedOn); err != nil {
			return nil, 0, err
		}
		orders = append(orders, o)
	}
	return orders, count, rows.Err()
}
