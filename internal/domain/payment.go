package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentType string

const (
	PaymentTypeAdvance  PaymentType = "ADVANCE"
	PaymentTypeReceived PaymentType = "PAYMENT_RECEIVED"
	PaymentTypeRefund   PaymentType = "REFUND"
)

// NormalizePaymentType maps the legacy RENT_REMAINING label onto
// PAYMENT_RECEIVED. The two were always the same inbound-payment entry;
// only the newer name is stored.
func NormalizePaymentType(t PaymentType) PaymentType {
	if t == "RENT_REMAINING" {
		return PaymentTypeReceived
	}
	return t
}

// IsInbound reports whether the entry moves money from the customer to the
// organization. REFUND is the only outbound type.
func (t PaymentType) IsInbound() bool {
	return t == PaymentTypeAdvance || t == PaymentTypeReceived
}

// IsValid reports whether t is one of the known types. Callers are expected
// to normalize first; the legacy label is not valid on its own.
func (t PaymentType) IsValid() bool {
	switch t {
	case PaymentTypeAdvance, PaymentTypeReceived, PaymentTypeRefund:
		return true
	}
	return false
}

// PaymentEntry is one immutable record in a booking's ledger. Entries are
// never edited or deleted; corrections are made by appending a new entry.
// Amount is always a positive magnitude; direction comes from Type.
type PaymentEntry struct {
	ID         string          `json:"id"`
	BookingID  string          `json:"booking_id"`
	OrgID      string          `json:"org_id"`
	Type       PaymentType     `json:"type"`
	Amount     decimal.Decimal `json:"amount"`
	Note       string          `json:"note,omitempty"`
	RecordedOn time.Time       `json:"recorded_on"`
}
