package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentdesk-backend/internal/domain"
)

func TestAggregateOrder_StatusDerivation(t *testing.T) {
	paid := func(rent, advance string, status domain.BookingStatus, extra ...domain.PaymentEntry) domain.Booking {
		b := domain.Booking{DecidedRent: d(rent), Status: status}
		if a := d(advance); a.IsPositive() {
			b.Payments = append(b.Payments, domain.PaymentEntry{Type: domain.PaymentTypeAdvance, Amount: a})
		}
		b.Payments = append(b.Payments, extra...)
		return b
	}

	t.Run("No Bookings", func(t *testing.T) {
		o := &domain.Order{Status: domain.OrderStatusInProgress}
		AggregateOrder(o, nil)
		assert.Equal(t, domain.OrderStatusInitiated, o.Status)
		assert.True(t, o.TotalAmount.IsZero())
	})

	t.Run("Advances Only Stay INITIATED", func(t *testing.T) {
		o := &domain.Order{Status: domain.OrderStatusInitiated}
		AggregateOrder(o, []domain.Booking{
			paid("1000", "300", domain.BookingStatusBooked),
			paid("500", "0", domain.BookingStatusBooked),
		})
		assert.Equal(t, domain.OrderStatusInitiated, o.Status)
		assert.True(t, o.TotalAmount.Equal(d("1500")))
		assert.True(t, o.TotalReceived.Equal(d("300")))
		assert.True(t, o.RemainingAmount.Equal(d("1200")))
	})

	t.Run("Non Advance Payment Means IN_PROGRESS", func(t *testing.T) {
		o := &domain.Order{}
		AggregateOrder(o, []domain.Booking{
			paid("1000", "300", domain.BookingStatusBooked,
				domain.PaymentEntry{Type: domain.PaymentTypeReceived, Amount: d("200")}),
		})
		assert.Equal(t, domain.OrderStatusInProgress, o.Status)
	})

	t.Run("Issued Booking Means IN_PROGRESS", func(t *testing.T) {
		o := &domain.Order{}
		AggregateOrder(o, []domain.Booking{
			paid("1000", "300", domain.BookingStatusIssued),
			paid("500", "0", domain.BookingStatusBooked),
		})
		assert.Equal(t, domain.OrderStatusInProgress, o.Status)
	})

	t.Run("Some Returned Means PARTIALLY_DONE", func(t *testing.T) {
		o := &domain.Order{}
		AggregateOrder(o, []domain.Booking{
			paid("1000", "0", domain.BookingStatusReturned),
			paid("500", "0", domain.BookingStatusIssued),
		})
		assert.Equal(t, domain.OrderStatusPartiallyDone, o.Status)
	})

	t.Run("All Returned Means FULLY_DONE", func(t *testing.T) {
		o := &domain.Order{}
		AggregateOrder(o, []domain.Booking{
			paid("1000", "0", domain.BookingStatusReturned),
			paid("500", "0", domain.BookingStatusReturned),
			paid("200", "0", domain.BookingStatusCancelled), // ignored
		})
		assert.Equal(t, domain.OrderStatusFullyDone, o.Status)
		assert.True(t, o.TotalAmount.Equal(d("1500")))
	})

	t.Run("Cancelled Is Sticky", func(t *testing.T) {
		o := &domain.Order{Status: domain.OrderStatusCancelled}
		AggregateOrder(o, []domain.Booking{
			paid("1000", "0", domain.BookingStatusReturned),
		})
		assert.Equal(t, domain.OrderStatusCancelled, o.Status)
	})

	t.Run("Idempotent", func(t *testing.T) {
		bookings := []domain.Booking{
			paid("1000", "300", domain.BookingStatusIssued),
			paid("500", "100", domain.BookingStatusBooked),
		}
		o := &domain.Order{}
		AggregateOrder(o, bookings)
		first := *o
		AggregateOrder(o, bookings)
		assert.Equal(t, first.Status, o.Status)
		assert.True(t, first.TotalAmount.Equal(o.TotalAmount))
		assert.True(t, first.TotalReceived.Equal(o.TotalReceived))
		assert.True(t, first.RemainingAmount.Equal(o.RemainingAmount))
	})
}

func TestOrderService_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(day(1))
	fx.addProduct("tractor-a", "Tractor A", d("1200"))

	order, err := fx.orders.CreateOrder(ctx, CreateOrderInput{
		OrgID: testOrg, CustomerName: "Asha Verma", CustomerPhone: "98xxxxxx", CustomerEmail: "asha@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusInitiated, order.Status)

	mustCreate(t, fx, CreateBookingInput{
		OrgID: testOrg, OrderID: order.ID, ProductID: "tractor-a",
		From: day(10), To: day(15), DecidedRent: d("1000"), AdvanceAmount: d("300"),
	})

	got, bookings, err := fx.orders.GetOrder(ctx, testOrg, order.ID)
	require.NoError(t, err)
	require.Len(t, bookings, 1)
	assert.Equal(t, bookings[0].ID, got.BookingIDs[0])
	assert.True(t, got.TotalAmount.Equal(d("1000")))
}

func TestOrderService_ReaggregateOrder(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(day(1))
	fx.addProduct("tractor-a", "Tractor A", d("1200"))
	fx.addOrder("order-1")
	mustCreate(t, fx, CreateBookingInput{
		OrgID: testOrg, OrderID: "order-1", ProductID: "tractor-a",
		From: day(10), To: day(15), DecidedRent: d("1000"), AdvanceAmount: d("300"),
	})

	// Simulate drift in the stored snapshot.
	fx.store.orders["order-1"].TotalReceived = d("9999")

	got, err := fx.orders.ReaggregateOrder(ctx, testOrg, "order-1")
	require.NoError(t, err)
	assert.True(t, got.TotalReceived.Equal(d("300")))

	again, err := fx.orders.ReaggregateOrder(ctx, testOrg, "order-1")
	require.NoError(t, err)
	assert.True(t, again.TotalReceived.Equal(got.TotalReceived))
	assert.Equal(t, got.Status, again.Status)
}

func TestOrderService_CancelOrder(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*fixture, *domain.Booking, *domain.Booking) {
		t.Helper()
		fx := newFixture(day(1))
		fx.addProduct("tractor-a", "Tractor A", d("1200"))
		fx.addProduct("tractor-b", "Tractor B", d("900"))
		fx.addOrder("order-1")
		b1 := mustCreate(t, fx, CreateBookingInput{
			OrgID: testOrg, OrderID: "order-1", ProductID: "tractor-a",
			From: day(10), To: day(15), DecidedRent: d("1000"), AdvanceAmount: d("300"),
		})
		b2 := mustCreate(t, fx, CreateBookingInput{
			OrgID: testOrg, OrderID: "order-1", ProductID: "tractor-b",
			From: day(10), To: day(15), DecidedRent: d("500"), AdvanceAmount: d("200"),
		})
		return fx, b1, b2
	}

	t.Run("Cash Refund Drains Sources In Order", func(t *testing.T) {
		fx, b1, b2 := setup(t)
		refund := d("400")
		order, err := fx.orders.CancelOrder(ctx, testOrg, "order-1", CancelOrderInput{
			ShouldRefund: true, RefundAmount: &refund,
		})
		require.NoError(t, err)
		assert.Equal(t, domain.OrderStatusCancelled, order.Status)
		assert.True(t, order.TotalAmount.IsZero())

		// b1 held 300 and is fully drained; b2 gives the remaining 100.
		s1, err := fx.bookings.GetBooking(ctx, testOrg, b1.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.BookingStatusCancelled, s1.Status)
		assert.True(t, s1.PendingRefundAmount.IsZero())

		s2, err := fx.bookings.GetBooking(ctx, testOrg, b2.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.BookingStatusCancelled, s2.Status)
		assert.True(t, s2.PendingRefundAmount.Equal(d("100")))
	})

	t.Run("No Refund Leaves Everything Pending", func(t *testing.T) {
		fx, b1, b2 := setup(t)
		_, err := fx.orders.CancelOrder(ctx, testOrg, "order-1", CancelOrderInput{})
		require.NoError(t, err)

		s1, _ := fx.bookings.GetBooking(ctx, testOrg, b1.ID)
		s2, _ := fx.bookings.GetBooking(ctx, testOrg, b2.ID)
		assert.True(t, s1.PendingRefundAmount.Equal(d("300")))
		assert.True(t, s2.PendingRefundAmount.Equal(d("200")))
	})

	t.Run("Transfer To Booking In Another Order", func(t *testing.T) {
		fx, _, _ := setup(t)
		fx.addOrder("order-2")
		outsider := mustCreate(t, fx, CreateBookingInput{
			OrgID: testOrg, OrderID: "order-2", ProductID: "tractor-a",
			From: day(20), To: day(25), DecidedRent: d("900"),
		})

		_, err := fx.orders.CancelOrder(ctx, testOrg, "order-1", CancelOrderInput{
			ShouldTransfer: true,
			Transfers:      []TransferInput{{TargetBookingID: outsider.ID, Amount: d("500")}},
		})
		require.NoError(t, err)

		moved, err := fx.bookings.GetBooking(ctx, testOrg, outsider.ID)
		require.NoError(t, err)
		assert.True(t, moved.NetPaid().Equal(d("500")))

		targetOrder := fx.store.orders["order-2"]
		assert.True(t, targetOrder.TotalReceived.Equal(d("500")))
	})

	t.Run("Transfer Inside The Cancelled Order Rejected", func(t *testing.T) {
		fx, _, b2 := setup(t)
		_, err := fx.orders.CancelOrder(ctx, testOrg, "order-1", CancelOrderInput{
			ShouldTransfer: true,
			Transfers:      []TransferInput{{TargetBookingID: b2.ID, Amount: d("100")}},
		})
		var stateErr *domain.InvalidStateTransitionError
		require.ErrorAs(t, err, &stateErr)

		// Nothing changed.
		order, _, err := fx.orders.GetOrder(ctx, testOrg, "order-1")
		require.NoError(t, err)
		assert.NotEqual(t, domain.OrderStatusCancelled, order.Status)
	})

	t.Run("Refund Above Combined Ceiling Rejected", func(t *testing.T) {
		fx, _, _ := setup(t)
		refund := d("600") // only 500 was paid across the order
		_, err := fx.orders.CancelOrder(ctx, testOrg, "order-1", CancelOrderInput{
			ShouldRefund: true, RefundAmount: &refund,
		})
		var fundsErr *domain.InsufficientFundsError
		require.ErrorAs(t, err, &fundsErr)
		assert.True(t, fundsErr.MaxRefund.Equal(d("500")))
	})

	t.Run("Issued Booking Blocks Order Cancel", func(t *testing.T) {
		fx, b1, _ := setup(t)
		_, err := fx.bookings.IssueBooking(ctx, testOrg, b1.ID, nil)
		require.NoError(t, err)

		_, err = fx.orders.CancelOrder(ctx, testOrg, "order-1", CancelOrderInput{})
		var stateErr *domain.InvalidStateTransitionError
		assert.ErrorAs(t, err, &stateErr)
	})

	t.Run("Already Cancelled Rejected", func(t *testing.T) {
		fx, _, _ := setup(t)
		_, err := fx.orders.CancelOrder(ctx, testOrg, "order-1", CancelOrderInput{})
		require.NoError(t, err)
		_, err = fx.orders.CancelOrder(ctx, testOrg, "order-1", CancelOrderInput{})
		assert.ErrorIs(t, err, domain.ErrOrderCancelled)
	})

	t.Run("Cancelled Sibling Is Skipped", func(t *testing.T) {
		fx, b1, b2 := setup(t)
		_, err := fx.bookings.CancelBooking(ctx, testOrg, b1.ID, CancelBookingInput{})
		require.NoError(t, err)

		refund := d("200") // only b2's 200 is still refundable
		_, err = fx.orders.CancelOrder(ctx, testOrg, "order-1", CancelOrderInput{
			ShouldRefund: true, RefundAmount: &refund,
		})
		require.NoError(t, err)

		s2, _ := fx.bookings.GetBooking(ctx, testOrg, b2.ID)
		assert.True(t, s2.PendingRefundAmount.IsZero())
	})
}
