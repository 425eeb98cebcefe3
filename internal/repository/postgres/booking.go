package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"rentdesk-backend/internal/domain"
	"rentdesk-backend/internal/repository"
)

type bookingRepository struct {
	db *sql.DB
}

func NewBookingRepository(db *sql.DB) repository.BookingRepository {
	return &bookingRepository{db: db}
}

const bookingColumns = `id, org_id, order_id, product_id, category_id, from_date_time, to_date_time,
	product_default_rent, decided_rent, advance_amount, remaining_amount, status,
	is_conflict_overridden, pending_refund_amount, created_on, updated_on`

func scanBooking(row interface{ Scan(dest ...any) error }, b *domain.Booking) error {
	return row.Scan(&b.ID, &b.OrgID, &b.OrderID, &b.ProductID, &b.CategoryID, &b.FromDateTime, &b.ToDateTime,
		&b.ProductDefaultRent, &b.DecidedRent, &b.AdvanceAmount, &b.RemainingAmount, &b.Status,
		&b.IsConflictOverridden, &b.PendingRefundAmount, &b.CreatedOn, &b.UpdatedOn)
}

func (r *bookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	query := `INSERT INTO bookings (` + bookingColumns + `)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`
	_, err := q(ctx, r.db).ExecContext(ctx, query,
		b.ID, b.OrgID, b.OrderID, b.ProductID, b.CategoryID, b.FromDateTime, b.ToDateTime,
		b.ProductDefaultRent, b.DecidedRent, b.AdvanceAmount, b.RemainingAmount, b.Status,
		b.IsConflictOverridden, b.PendingRefundAmount, b.CreatedOn, b.UpdatedOn)
	return err
}

func (r *bookingRepository) GetByID(ctx context.Context, orgID, id string) (*domain.Booking, error) {
	b := &domain.Booking{}
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1 AND org_id = $2`
	err := scanBooking(q(ctx, r.db).QueryRowContext(ctx, query, id, orgID), b)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}

	payments, err := r.listPayments(ctx, orgID, []string{id})
	if err != nil {
		return nil, err
	}
	b.Payments = payments[id]
	return b, nil
}

func (r *bookingRepository) Update(ctx context.Context, b *domain.Booking) error {
	query := `UPDATE bookings SET product_id=$1, category_id=$2, from_date_time=$3, to_date_time=$4,
	          product_default_rent=$5, decided_rent=$6, advance_amount=$7, remaining_amount=$8,
	          status=$9, is_conflict_overridden=$10, pending_refund_amount=$11, updated_on=$12
	          WHERE id=$13 AND org_id=$14`
	res, err := q(ctx, r.db).ExecContext(ctx, query,
		b.ProductID, b.CategoryID, b.FromDateTime, b.ToDateTime,
		b.ProductDefaultRent, b.DecidedRent, b.AdvanceAmount, b.RemainingAmount,
		b.Status, b.IsConflictOverridden, b.PendingRefundAmount, b.UpdatedOn, b.ID, b.OrgID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrBookingNotFound
	}
	return nil
}

func (r *bookingRepository) ListByOrder(ctx context.Context, orgID, orderID string) ([]domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE order_id = $1 AND org_id = $2 ORDER BY created_on, id`
	rows, err := q(ctx, r.db).QueryContext(ctx, query, orderID, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []domain.Booking
	var ids []string
	for rows.Next() {
		var b domain.Booking
		if err := scanBooking(rows, &b); err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
		ids = append(ids, b.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	payments, err := r.listPayments(ctx, orgID, ids)
	if err != nil {
		return nil, err
	}
	for i := range bookings {
		bookings[i].Payments = payments[bookings[i].ID]
	}
	return bookings, nil
}

func (r *bookingRepository) FindOverlapping(ctx context.Context, orgID, productID string, from, to time.Time, excludeID string) ([]domain.Booking, error) {
	// Half-open interval overlap: existing.from < new.to AND existing.to > new.from.
	// RETURNED and CANCELLED bookings never conflict.
	query := `SELECT ` + bookingColumns + ` FROM bookings
	          WHERE org_id = $1 AND product_id = $2 AND status IN ('BOOKED', 'ISSUED')
	            AND from_date_time < $3 AND to_date_time > $4 AND id <> $5
	          ORDER BY from_date_time, id`
	rows, err := q(ctx, r.db).QueryContext(ctx, query, orgID, productID, to, from, excludeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []domain.Booking
	for rows.Next() {
		var b domain.Booking
		if err := scanBooking(rows, &b); err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

func (r *bookingRepository) AppendPayment(ctx context.Context, entry *domain.PaymentEntry) error {
	query := `INSERT INTO payment_entries (id, booking_id, org_id, type, amount, note, recorded_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := q(ctx, r.db).ExecContext(ctx, query,
		entry.ID, entry.BookingID, entry.OrgID, entry.Type, entry.Amount, entry.Note, entry.RecordedOn)
	return err
}

func (r *bookingRepository) ListIssuedOverdue(ctx context.Context, orgID string, now time.Time) ([]domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
	          WHERE org_id = $1 AND status = 'ISSUED' AND to_date_time <= $2
	          ORDER BY to_date_time, id`
	rows, err := q(ctx, r.db).QueryContext(ctx, query, orgID, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []domain.Booking
	for rows.Next() {
		var b domain.Booking
		if err := scanBooking(rows, &b); err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

func (r *bookingRepository) listPayments(ctx context.Context, orgID string, bookingIDs []string) (map[string][]domain.PaymentEntry, error) {
	result := make(map[string][]domain.PaymentEntry, len(bookingIDs))
	if len(bookingIDs) == 0 {
		return result, nil
	}

	query := `SELECT id, booking_id, org_id, type, amount, note, recorded_on FROM payment_entries
	          WHERE org_id = $1 AND booking_id = ANY($2) ORDER BY recorded_on, id`
	rows, err := q(ctx, r.db).QueryContext(ctx, query, orgID, pq.Array(bookingIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var p domain.PaymentEntry
		if err := rows.Scan(&p.ID, &p.BookingID, &p.OrgID, &p.Type, &p.Amount, &p.Note, &p.RecordedOn); err != nil {
			return nil, err
		}
		// Rows written before the label change may still carry RENT_REMAINING.
		p.Type = domain.NormalizePaymentType(p.Type)
		result[p.BookingID] = append(result[p.BookingID], p)
	}
	return result, rows.Err()
}
