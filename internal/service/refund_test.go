package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentdesk-backend/internal/domain"
)

func ledgered(id string, rent, netPaid string, status domain.BookingStatus) domain.Booking {
	b := domain.Booking{ID: id, DecidedRent: d(rent), Status: status}
	if p := d(netPaid); p.IsPositive() {
		b.Payments = []domain.PaymentEntry{{Type: domain.PaymentTypeAdvance, Amount: p}}
	}
	return b
}

func TestSuggestTransfers(t *testing.T) {
	source := ledgered("src", "1000", "800", domain.BookingStatusBooked)

	t.Run("Splits Across Siblings In Order", func(t *testing.T) {
		siblings := []domain.Booking{
			source,
			ledgered("b1", "500", "200", domain.BookingStatusBooked), // headroom 300
			ledgered("b2", "900", "0", domain.BookingStatusBooked),   // headroom 900
		}
		got := suggestTransfers(&source, siblings)
		require.Len(t, got, 2)
		assert.Equal(t, "b1", got[0].TargetBookingID)
		assert.True(t, got[0].Amount.Equal(d("300")))
		assert.Equal(t, "b2", got[1].TargetBookingID)
		assert.True(t, got[1].Amount.Equal(d("500")))
	})

	t.Run("Skips Terminal And Saturated Siblings", func(t *testing.T) {
		siblings := []domain.Booking{
			ledgered("done", "500", "0", domain.BookingStatusReturned),
			ledgered("gone", "500", "0", domain.BookingStatusCancelled),
			ledgered("full", "500", "500", domain.BookingStatusBooked),
		}
		assert.Empty(t, suggestTransfers(&source, siblings))
	})

	t.Run("Nothing Refundable", func(t *testing.T) {
		empty := ledgered("src", "1000", "0", domain.BookingStatusBooked)
		siblings := []domain.Booking{ledgered("b1", "500", "0", domain.BookingStatusBooked)}
		assert.Empty(t, suggestTransfers(&empty, siblings))
	})
}

func TestValidateTransfers(t *testing.T) {
	source := ledgered("src", "1000", "500", domain.BookingStatusBooked)
	target := ledgered("tgt", "900", "100", domain.BookingStatusBooked) // headroom 800

	targets := func(bs ...domain.Booking) map[string]*domain.Booking {
		m := make(map[string]*domain.Booking, len(bs))
		for i := range bs {
			m[bs[i].ID] = &bs[i]
		}
		return m
	}

	t.Run("Valid Batch", func(t *testing.T) {
		total, err := validateTransfers(&source, []TransferInput{{TargetBookingID: "tgt", Amount: d("500")}}, targets(target))
		require.NoError(t, err)
		assert.True(t, total.Equal(d("500")))
	})

	t.Run("Batch Total Above Ceiling", func(t *testing.T) {
		_, err := validateTransfers(&source, []TransferInput{
			{TargetBookingID: "tgt", Amount: d("400")},
			{TargetBookingID: "tgt", Amount: d("200")},
		}, targets(target))
		var fundsErr *domain.InsufficientFundsError
		require.ErrorAs(t, err, &fundsErr)
		assert.True(t, fundsErr.Requested.Equal(d("600")))
	})

	t.Run("Target Headroom Exceeded", func(t *testing.T) {
		tight := ledgered("tight", "200", "0", domain.BookingStatusBooked)
		_, err := validateTransfers(&source, []TransferInput{{TargetBookingID: "tight", Amount: d("300")}}, targets(tight))
		var overErr *domain.OverpaymentError
		assert.ErrorAs(t, err, &overErr)
	})

	t.Run("Repeated Target Checked As A Sum", func(t *testing.T) {
		rich := ledgered("rich", "1000", "600", domain.BookingStatusBooked)
		small := ledgered("small", "300", "0", domain.BookingStatusBooked) // headroom 300

		// Each entry fits on its own; together they would overpay the target.
		_, err := validateTransfers(&rich, []TransferInput{
			{TargetBookingID: "small", Amount: d("300")},
			{TargetBookingID: "small", Amount: d("300")},
		}, targets(small))
		var overErr *domain.OverpaymentError
		require.ErrorAs(t, err, &overErr)
		assert.Equal(t, "small", overErr.BookingID)
		assert.True(t, overErr.Attempted.Equal(d("600")))

		// A repeated target whose sum stays within headroom is fine.
		total, err := validateTransfers(&rich, []TransferInput{
			{TargetBookingID: "small", Amount: d("100")},
			{TargetBookingID: "small", Amount: d("150")},
		}, targets(small))
		require.NoError(t, err)
		assert.True(t, total.Equal(d("250")))
	})

	t.Run("Unknown Target", func(t *testing.T) {
		_, err := validateTransfers(&source, []TransferInput{{TargetBookingID: "ghost", Amount: d("10")}}, targets())
		assert.ErrorIs(t, err, domain.ErrBookingNotFound)
	})

	t.Run("Terminal Target", func(t *testing.T) {
		done := ledgered("done", "500", "0", domain.BookingStatusReturned)
		_, err := validateTransfers(&source, []TransferInput{{TargetBookingID: "done", Amount: d("10")}}, targets(done))
		var stateErr *domain.InvalidStateTransitionError
		assert.ErrorAs(t, err, &stateErr)
	})

	t.Run("Self Transfer", func(t *testing.T) {
		_, err := validateTransfers(&source, []TransferInput{{TargetBookingID: "src", Amount: d("10")}}, targets(source))
		var stateErr *domain.InvalidStateTransitionError
		assert.ErrorAs(t, err, &stateErr)
	})

	t.Run("Negative Amount", func(t *testing.T) {
		_, err := validateTransfers(&source, []TransferInput{{TargetBookingID: "tgt", Amount: d("-1")}}, targets(target))
		assert.ErrorIs(t, err, domain.ErrNegativeAmount)
	})
}
