package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"rentdesk-backend/internal/domain"
)

type CreateBookingInput struct {
	OrgID         string
	OrderID       string
	ProductID     string
	CategoryID    *string
	From          time.Time
	To            time.Time
	DecidedRent   decimal.Decimal
	AdvanceAmount decimal.Decimal
	AdvanceNote   string
	// OverrideConflicts lets staff commit a booking despite detected
	// conflicts; the booking is permanently flagged for audit.
	OverrideConflicts bool
}

// UpdateBookingInput is a patch; nil fields are left unchanged.
type UpdateBookingInput struct {
	ProductID         *string
	CategoryID        *string
	From              *time.Time
	To                *time.Time
	DecidedRent       *decimal.Decimal
	AdvanceAmount     *decimal.Decimal
	OverrideConflicts bool
}

type PaymentInput struct {
	Type   domain.PaymentType
	Amount decimal.Decimal
	Note   string
}

type TransferInput struct {
	TargetBookingID string
	Amount          decimal.Decimal
}

type CancelBookingInput struct {
	// RefundAmount is the cash refund to issue now, at most the booking's
	// maxRefund. Anything refundable but not refunded or transferred becomes
	// the booking's pending refund.
	RefundAmount *decimal.Decimal
	// Transfers move refundable money onto sibling bookings of the same
	// order instead of returning cash. Applied atomically or not at all.
	Transfers []TransferInput
}

type CancelOrderInput struct {
	ShouldRefund   bool
	RefundAmount   *decimal.Decimal
	ShouldTransfer bool
	// Order-level transfers target bookings outside the order being
	// cancelled (every booking inside it is cancelled by this call).
	Transfers []TransferInput
}

type RefundPreview struct {
	BookingID          string          `json:"booking_id"`
	MaxRefund          decimal.Decimal `json:"max_refund"`
	SuggestedTransfers []TransferInput `json:"suggested_transfers,omitempty"`
}

type BookingService interface {
	DetectConflicts(ctx context.Context, orgID, productID string, from, to time.Time, excludeID string) ([]domain.Booking, error)
	CreateBooking(ctx context.Context, in CreateBookingInput) (*domain.Booking, error)
	UpdateBooking(ctx context.Context, orgID, id string, patch UpdateBookingInput) (*domain.Booking, error)
	IssueBooking(ctx context.Context, orgID, id string, payment *PaymentInput) (*domain.Booking, error)
	ReturnBooking(ctx context.Context, orgID, id string, payment *PaymentInput) (*domain.Booking, error)
	CancelBooking(ctx context.Context, orgID, id string, in CancelBookingInput) (*domain.Booking, error)
	AddPayment(ctx context.Context, orgID, id string, in PaymentInput) (*domain.Booking, error)
	PreviewCancellationRefund(ctx context.Context, orgID, id string) (*RefundPreview, error)
	GetBooking(ctx context.Context, orgID, id string) (*domain.Booking, error)
}

type CreateOrderInput struct {
	OrgID         string
	CustomerName  string
	CustomerPhone string
	CustomerEmail string
}

type OrderService interface {
	CreateOrder(ctx context.Context, in CreateOrderInput) (*domain.Order, error)
	GetOrder(ctx context.Context, orgID, id string) (*domain.Order, []domain.Booking, error)
	ListOrders(ctx context.Context, orgID string, page, pageSize int32) ([]domain.Order, int32, error)
	CancelOrder(ctx context.Context, orgID, id string, in CancelOrderInput) (*domain.Order, error)
	// ReaggregateOrder re-runs the aggregator; safe to repeat because
	// aggregation is idempotent.
	ReaggregateOrder(ctx context.Context, orgID, id string) (*domain.Order, error)
}

type CreateProductInput struct {
	OrgID       string
	Name        string
	Description string
	CategoryID  *string
	DefaultRent decimal.Decimal
}

type UpdateProductInput struct {
	Name        *string
	Description *string
	CategoryID  *string
	DefaultRent *decimal.Decimal
	Active      *bool
}

type ProductService interface {
	AddProduct(ctx context.Context, in CreateProductInput) (*domain.Product, error)
	GetProduct(ctx context.Context, orgID, id string) (*domain.Product, error)
	UpdateProduct(ctx context.Context, orgID, id string, patch UpdateProductInput) (*domain.Product, error)
	DeactivateProduct(ctx context.Context, orgID, id string) error
	ListProducts(ctx context.Context, orgID string, page, pageSize int32) ([]domain.Product, int32, error)
}

type OrganizationService interface {
	CreateOrganization(ctx context.Context, org *domain.Organization) error
	GetOrganization(ctx context.Context, id string) (*domain.Organization, error)
	ListOrganizations(ctx context.Context) ([]domain.Organization, error)
}

type EmailService interface {
	SendBookingIssuedNotification(ctx context.Context, email, customerName, productName string, remaining decimal.Decimal) error
	SendBookingReturnedNotification(ctx context.Context, email, customerName, productName string) error
	SendBookingCancelledNotification(ctx context.Context, email, customerName, productName string, refunded, pending decimal.Decimal) error
	SendOverdueReminder(ctx context.Context, email, customerName, productName string, dueOn time.Time) error
}
