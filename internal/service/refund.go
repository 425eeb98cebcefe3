package service

import (
	"github.com/shopspring/decimal"

	"rentdesk-backend/internal/domain"
)

// suggestTransfers proposes how a booking's refundable amount could be
// redistributed across its sibling bookings instead of being returned as
// cash. Siblings are considered in insertion order and each absorbs at most
// its own remaining amount.
func suggestTransfers(source *domain.Booking, siblings []domain.Booking) []TransferInput {
	left := source.MaxRefund()
	var out []TransferInput
	for i := range siblings {
		if !left.IsPositive() {
			break
		}
		s := &siblings[i]
		if s.ID == source.ID || s.Status.IsTerminal() {
			continue
		}
		headroom := s.Remaining()
		if !headroom.IsPositive() {
			continue
		}
		amount := decimal.Min(headroom, left)
		out = append(out, TransferInput{TargetBookingID: s.ID, Amount: amount})
		left = left.Sub(amount)
	}
	return out
}

// validateTransfers checks a transfer batch against the refundable ceiling
// and each target's headroom. targets must already be loaded with ledgers.
// Returns the batch total. Any violation fails the whole batch.
func validateTransfers(source *domain.Booking, transfers []TransferInput, targets map[string]*domain.Booking) (decimal.Decimal, error) {
	total := decimal.Zero
	perTarget := make(map[string]decimal.Decimal, len(targets))
	for _, t := range transfers {
		if t.Amount.IsNegative() {
			return decimal.Zero, domain.ErrNegativeAmount
		}
		target, ok := targets[t.TargetBookingID]
		if !ok {
			return decimal.Zero, domain.ErrBookingNotFound
		}
		if target.ID == source.ID {
			return decimal.Zero, &domain.InvalidStateTransitionError{BookingID: target.ID, Status: target.Status, Operation: "receive transfer from itself"}
		}
		if target.Status.IsTerminal() {
			return decimal.Zero, &domain.InvalidStateTransitionError{BookingID: target.ID, Status: target.Status, Operation: "receive transfer"}
		}
		// A target may appear more than once; its entries are checked as a sum
		// so the batch cannot overpay it piecewise.
		committed := perTarget[target.ID].Add(t.Amount)
		if committed.GreaterThan(target.Remaining()) {
			return decimal.Zero, &domain.OverpaymentError{BookingID: target.ID, Remaining: target.Remaining(), Attempted: committed}
		}
		perTarget[target.ID] = committed
		total = total.Add(t.Amount)
	}
	if total.GreaterThan(source.MaxRefund()) {
		return decimal.Zero, &domain.InsufficientFundsError{Ref: source.ID, MaxRefund: source.MaxRefund(), Requested: total}
	}
	return total, nil
}
