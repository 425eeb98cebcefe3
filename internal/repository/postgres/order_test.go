package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentdesk-backend/internal/domain"
)

var orderCols = []string{
	"id", "org_id", "customer_name", "customer_phone", "customer_email",
	"status", "total_amount", "total_received", "remaining_amount", "created_on", "updated_on",
}

func TestOrderRepository_GetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := NewOrderRepository(db)
	ctx := context.Background()

	t.Run("Success With Booking Membership", func(t *testing.T) {
		now := time.Now()
		mock.ExpectQuery("SELECT (.+) FROM orders WHERE id = \\$1 AND org_id = \\$2").
			WithArgs("order-1", "org-1").
			WillReturnRows(sqlmock.NewRows(orderCols).
				AddRow("order-1", "org-1", "Asha Verma", "98xxxxxx", "", "IN_PROGRESS", "1500", "500", "1000", now, now))
		mock.ExpectQuery("SELECT id FROM bookings WHERE order_id = \\$1").
			WithArgs("order-1", "org-1").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("bk-1").AddRow("bk-2"))

		order, err := repo.GetByID(ctx, "org-1", "order-1")
		require.NoError(t, err)
		assert.Equal(t, domain.OrderStatusInProgress, order.Status)
		assert.True(t, order.RemainingAmount.Equal(decimal.RequireFromString("1000")))
		assert.Equal(t, []string{"bk-1", "bk-2"}, order.BookingIDs)
	})

	t.Run("Not Found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM orders WHERE id = \\$1 AND org_id = \\$2").
			WithArgs("ghost", "org-1").
			WillReturnRows(sqlmock.NewRows(orderCols))

		_, err := repo.GetByID(ctx, "org-1", "ghost")
		assert.ErrorIs(t, err, domain.ErrOrderNotFound)
	})
}

func TestOrderRepository_Update(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := NewOrderRepository(db)
	ctx := context.Background()

	t.Run("Zero Rows Means Not Found", func(t *testing.T) {
		mock.ExpectExec("UPDATE orders SET").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Update(ctx, &domain.Order{ID: "ghost", OrgID: "org-1"})
		assert.ErrorIs(t, err, domain.ErrOrderNotFound)
	})
}

func TestOrderRepository_ListByOrg(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := NewOrderRepository(db)
	ctx := context.Background()
	now := time.Now()

	mock.ExpectQuery("SELECT count\\(\\*\\) FROM orders").
		WithArgs("org-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(25))
	mock.ExpectQuery("SELECT (.+) FROM orders WHERE org_id = \\$1").
		WithArgs("org-1", int32(10), int32(10)).
		WillReturnRows(sqlmock.NewRows(orderCols).
			AddRow("order-1", "org-1", "Asha Verma", "", "", "INITIATED", "0", "0", "0", now, now))

	orders, total, err := repo.ListByOrg(ctx, "org-1", 2, 10)
	require.NoError(t, err)
	assert.Equal(t, int32(25), total)
	require.Len(t, orders, 1)
}
