package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusInitiated     OrderStatus = "INITIATED"
	OrderStatusInProgress    OrderStatus = "IN_PROGRESS"
	OrderStatusPartiallyDone OrderStatus = "PARTIALLY_DONE"
	OrderStatusFullyDone     OrderStatus = "FULLY_DONE"
	OrderStatusCancelled     OrderStatus = "CANCELLED"
)

// Order is a customer's overall transaction. It owns its bookings; a booking
// never exists outside exactly one order. TotalAmount, TotalReceived and
// RemainingAmount are derived from the non-cancelled bookings and are only
// ever written by the aggregator.
type Order struct {
	ID            string `json:"id"`
	OrgID         string `json:"org_id"`
	CustomerName  string `json:"customer_name"`
	CustomerPhone string `json:"customer_phone"`
	CustomerEmail string `json:"customer_email,omitempty"`

	Status          OrderStatus     `json:"status"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	TotalReceived   decimal.Decimal `json:"total_received"`
	RemainingAmount decimal.Decimal `json:"remaining_amount"`

	// BookingIDs preserves insertion order, which is creation order.
	BookingIDs []string `json:"booking_ids"`

	CreatedOn time.Time `json:"created_on"`
	UpdatedOn time.Time `json:"updated_on"`
}
