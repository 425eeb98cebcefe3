package postgres

import (
	"context"
	"database/sql/driver"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentdesk-backend/internal/domain"
)

var bookingCols = []string{
	"id", "org_id", "order_id", "product_id", "category_id", "from_date_time", "to_date_time",
	"product_default_rent", "decided_rent", "advance_amount", "remaining_amount", "status",
	"is_conflict_overridden", "pending_refund_amount", "created_on", "updated_on",
}

var paymentCols = []string{"id", "booking_id", "org_id", "type", "amount", "note", "recorded_on"}

func bookingRow(id string) []driver.Value {
	now := time.Now()
	return []driver.Value{
		id, "org-1", "order-1", "prod-1", nil, now, now.Add(24 * time.Hour),
		"1200", "1000", "300", "700", "BOOKED",
		false, "0", now, now,
	}
}

func TestBookingRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := NewBookingRepository(db)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		now := time.Now()
		b := &domain.Booking{
			ID: "bk-1", OrgID: "org-1", OrderID: "order-1", ProductID: "prod-1",
			FromDateTime: now, ToDateTime: now.Add(24 * time.Hour),
			ProductDefaultRent: decimal.RequireFromString("1200"),
			DecidedRent:        decimal.RequireFromString("1000"),
			AdvanceAmount:      decimal.RequireFromString("300"),
			RemainingAmount:    decimal.RequireFromString("700"),
			Status:             domain.BookingStatusBooked,
			CreatedOn:          now, UpdatedOn: now,
		}

		mock.ExpectExec("INSERT INTO bookings").
			WithArgs(b.ID, b.OrgID, b.OrderID, b.ProductID, nil, b.FromDateTime, b.ToDateTime,
				b.ProductDefaultRent, b.DecidedRent, b.AdvanceAmount, b.RemainingAmount, b.Status,
				b.IsConflictOverridden, b.PendingRefundAmount, b.CreatedOn, b.UpdatedOn).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.Create(ctx, b))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestBookingRepository_GetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := NewBookingRepository(db)
	ctx := context.Background()

	t.Run("Success With Ledger", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM bookings WHERE id = \\$1 AND org_id = \\$2").
			WithArgs("bk-1", "org-1").
			WillReturnRows(sqlmock.NewRows(bookingCols).AddRow(bookingRow("bk-1")...))
		mock.ExpectQuery("SELECT (.+) FROM payment_entries").
			WithArgs("org-1", sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows(paymentCols).
				AddRow("pe-1", "bk-1", "org-1", "ADVANCE", "300", "", time.Now()))

		b, err := repo.GetByID(ctx, "org-1", "bk-1")
		require.NoError(t, err)
		assert.Equal(t, "bk-1", b.ID)
		require.Len(t, b.Payments, 1)
		assert.Equal(t, domain.PaymentTypeAdvance, b.Payments[0].Type)
		assert.True(t, b.NetPaid().Equal(decimal.RequireFromString("300")))
	})

	t.Run("Legacy Ledger Type Normalized On Read", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM bookings WHERE id = \\$1 AND org_id = \\$2").
			WithArgs("bk-1", "org-1").
			WillReturnRows(sqlmock.NewRows(bookingCols).AddRow(bookingRow("bk-1")...))
		mock.ExpectQuery("SELECT (.+) FROM payment_entries").
			WithArgs("org-1", sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows(paymentCols).
				AddRow("pe-legacy", "bk-1", "org-1", "RENT_REMAINING", "200", "", time.Now()))

		b, err := repo.GetByID(ctx, "org-1", "bk-1")
		require.NoError(t, err)
		require.Len(t, b.Payments, 1)
		assert.Equal(t, domain.PaymentTypeReceived, b.Payments[0].Type)
	})

	t.Run("Not Found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM bookings WHERE id = \\$1 AND org_id = \\$2").
			WithArgs("missing", "org-1").
			WillReturnRows(sqlmock.NewRows(bookingCols))

		_, err := repo.GetByID(ctx, "org-1", "missing")
		assert.ErrorIs(t, err, domain.ErrBookingNotFound)
	})
}

func TestBookingRepository_Update(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := NewBookingRepository(db)
	ctx := context.Background()

	t.Run("Zero Rows Means Not Found", func(t *testing.T) {
		mock.ExpectExec("UPDATE bookings SET").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Update(ctx, &domain.Booking{ID: "ghost", OrgID: "org-1"})
		assert.ErrorIs(t, err, domain.ErrBookingNotFound)
	})
}

func TestBookingRepository_FindOverlapping(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := NewBookingRepository(db)
	ctx := context.Background()
	from := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)

	t.Run("Passes Interval Reversed For Half Open Overlap", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM bookings").
			WithArgs("org-1", "prod-1", to, from, "self").
			WillReturnRows(sqlmock.NewRows(bookingCols).AddRow(bookingRow("bk-2")...))

		conflicts, err := repo.FindOverlapping(ctx, "org-1", "prod-1", from, to, "self")
		require.NoError(t, err)
		require.Len(t, conflicts, 1)
		assert.Equal(t, "bk-2", conflicts[0].ID)
	})
}

func TestBookingRepository_AppendPayment(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := NewBookingRepository(db)
	ctx := context.Background()

	entry := &domain.PaymentEntry{
		ID: "pe-1", BookingID: "bk-1", OrgID: "org-1",
		Type: domain.PaymentTypeRefund, Amount: decimal.RequireFromString("100"),
		Note: "cancellation refund", RecordedOn: time.Now(),
	}
	mock.ExpectExec("INSERT INTO payment_entries").
		WithArgs(entry.ID, entry.BookingID, entry.OrgID, entry.Type, entry.Amount, entry.Note, entry.RecordedOn).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.AppendPayment(ctx, entry))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepository_ListIssuedOverdue(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := NewBookingRepository(db)
	ctx := context.Background()
	now := time.Now()

	row := bookingRow("bk-3")
	row[11] = "ISSUED"
	mock.ExpectQuery("SELECT (.+) FROM bookings").
		WithArgs("org-1", now).
		WillReturnRows(sqlmock.NewRows(bookingCols).AddRow(row...))

	overdue, err := repo.ListIssuedOverdue(ctx, "org-1", now)
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, domain.BookingStatusIssued, overdue[0].Status)
}
