package repository

import (
	"context"
	"time"

	"rentdesk-backend/internal/domain"
)

// Transactor runs fn inside a single database transaction. Repository calls
// made with the context passed to fn join that transaction. Used for the
// paths that must apply atomically (cancellation transfers, order cancel).
type Transactor interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type OrganizationRepository interface {
	Create(ctx context.Context, org *domain.Organization) error
	GetByID(ctx context.Context, id string) (*domain.Organization, error)
	List(ctx context.Context) ([]domain.Organization, error)
}

type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	GetByID(ctx context.Context, orgID, id string) (*domain.Product, error)
	Update(ctx context.Context, product *domain.Product) error
	Deactivate(ctx context.Context, orgID, id string, at time.Time) error
	ListByOrg(ctx context.Context, orgID string, page, pageSize int32) ([]domain.Product, int32, error)
}

type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	GetByID(ctx context.Context, orgID, id string) (*domain.Order, error)
	Update(ctx context.Context, order *domain.Order) error
	ListByOrg(ctx context.Context, orgID string, page, pageSize int32) ([]domain.Order, int32, error)
}

type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) error
	// GetByID returns the booking with its full payment ledger loaded.
	GetByID(ctx context.Context, orgID, id string) (*domain.Booking, error)
	Update(ctx context.Context, booking *domain.Booking) error
	// ListByOrder returns the order's bookings in creation order, ledgers loaded.
	ListByOrder(ctx context.Context, orgID, orderID string) ([]domain.Booking, error)
	// FindOverlapping returns BOOKED/ISSUED bookings of the product whose
	// half-open interval overlaps [from, to). excludeID, when non-empty,
	// removes that booking from consideration.
	FindOverlapping(ctx context.Context, orgID, productID string, from, to time.Time, excludeID string) ([]domain.Booking, error)
	// AppendPayment adds an immutable entry to a booking's ledger.
	AppendPayment(ctx context.Context, entry *domain.PaymentEntry) error
	// ListIssuedOverdue returns ISSUED bookings whose interval end has passed.
	ListIssuedOverdue(ctx context.Context, orgID string, now time.Time) ([]domain.Booking, error)
}
