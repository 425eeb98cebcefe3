package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrOrganizationNotFound = errors.New("organization not found")
	ErrProductNotFound      = errors.New("product not found")
	ErrProductInactive      = errors.New("product is inactive")
	ErrOrderNotFound        = errors.New("order not found")
	ErrBookingNotFound      = errors.New("booking not found")
	ErrOrderCancelled       = errors.New("order is cancelled")
	ErrInvalidInterval      = errors.New("to date/time must be strictly after from date/time")
	ErrNegativeAmount       = errors.New("amount must not be negative")
	ErrInvalidPaymentType   = errors.New("unknown payment type")
)

// ConflictError reports that a proposed interval overlaps existing
// BOOKED/ISSUED bookings on the same product. It carries the conflicting set
// so the client can display it.
type ConflictError struct {
	ProductID string
	Conflicts []Booking
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("product %s has %d conflicting booking(s) in the requested interval", e.ProductID, len(e.Conflicts))
}

// InvalidStateTransitionError reports an operation applied to a booking in a
// status that does not permit it.
type InvalidStateTransitionError struct {
	BookingID string
	Status    BookingStatus
	Operation string
}

func (e *InvalidStateTransitionError) Error() string {
	return fmt.Sprintf("booking %s: cannot %s while %s", e.BookingID, e.Operation, e.Status)
}

// OverpaymentError reports an inbound payment that would drive a booking's
// remaining amount below zero. Overpayment is rejected, never clamped.
type OverpaymentError struct {
	BookingID string
	Remaining decimal.Decimal
	Attempted decimal.Decimal
}

func (e *OverpaymentError) Error() string {
	return fmt.Sprintf("booking %s: payment of %s exceeds remaining %s", e.BookingID, e.Attempted, e.Remaining)
}

// InsufficientFundsError reports a refund or transfer request above the
// refundable ceiling.
type InsufficientFundsError struct {
	Ref       string // booking or order id
	MaxRefund decimal.Decimal
	Requested decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("%s: requested refund %s exceeds max refundable %s", e.Ref, e.Requested, e.MaxRefund)
}
