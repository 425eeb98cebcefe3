package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type BookingStatus string

const (
	BookingStatusBooked    BookingStatus = "BOOKED"
	BookingStatusIssued    BookingStatus = "ISSUED"
	BookingStatusReturned  BookingStatus = "RETURNED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
)

// IsTerminal reports whether no further transitions are possible.
func (s BookingStatus) IsTerminal() bool {
	return s == BookingStatusReturned || s == BookingStatusCancelled
}

// Booking is one rental of one product for one date/time interval inside an
// order. The interval is half-open: [FromDateTime, ToDateTime).
type Booking struct {
	ID         string  `json:"id"`
	OrgID      string  `json:"org_id"`
	OrderID    string  `json:"order_id"`
	ProductID  string  `json:"product_id"`
	CategoryID *string `json:"category_id,omitempty"`

	FromDateTime time.Time `json:"from_date_time"`
	ToDateTime   time.Time `json:"to_date_time"`

	// ProductDefaultRent is a snapshot of the product's default rent taken
	// when the booking was pointed at the product. DecidedRent is the
	// negotiated price, mutable while BOOKED.
	ProductDefaultRent decimal.Decimal `json:"product_default_rent"`
	DecidedRent        decimal.Decimal `json:"decided_rent"`
	AdvanceAmount      decimal.Decimal `json:"advance_amount"`
	RemainingAmount    decimal.Decimal `json:"remaining_amount"`

	Status               BookingStatus `json:"status"`
	IsConflictOverridden bool          `json:"is_conflict_overridden"`

	// PendingRefundAmount is money owed back to the customer after a
	// cancellation that declined (part of) the immediate refund.
	PendingRefundAmount decimal.Decimal `json:"pending_refund_amount"`

	Payments []PaymentEntry `json:"payments"`

	CreatedOn time.Time `json:"created_on"`
	UpdatedOn time.Time `json:"updated_on"`
}

// Overlaps reports whether the booking's interval overlaps [from, to) under
// half-open semantics: intervals that share only a boundary instant do not
// overlap.
func (b *Booking) Overlaps(from, to time.Time) bool {
	return b.FromDateTime.Before(to) && b.ToDateTime.After(from)
}

// NetPaid is the amount the customer has effectively paid on this booking:
// inbound entries minus refunds already issued.
func (b *Booking) NetPaid() decimal.Decimal {
	net := decimal.Zero
	for _, p := range b.Payments {
		if p.Type.IsInbound() {
			net = net.Add(p.Amount)
		} else {
			net = net.Sub(p.Amount)
		}
	}
	return net
}

// Remaining is the ledger invariant: decidedRent minus net payments.
func (b *Booking) Remaining() decimal.Decimal {
	return b.DecidedRent.Sub(b.NetPaid())
}

// MaxRefund is the ceiling on any refund request: everything paid in that
// has not already been refunded.
func (b *Booking) MaxRefund() decimal.Decimal {
	return b.NetPaid()
}
