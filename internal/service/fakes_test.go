package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"rentdesk-backend/internal/clock"
	"rentdesk-backend/internal/domain"
)

// fakeStore is an in-memory stand-in for the Postgres store. WithTx snapshots
// the whole state and restores it on error, so tests can observe the same
// all-or-nothing behavior the real transaction gives.
type fakeStore struct {
	orders   map[string]*domain.Order
	bookings map[string]*domain.Booking // stored without ledgers
	payments map[string][]domain.PaymentEntry
	products map[string]*domain.Product
	seq      []string // booking ids in creation order

	// failAppendNote makes AppendPayment fail for entries whose note contains
	// the string, to exercise transactional rollback.
	failAppendNote string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		orders:   make(map[string]*domain.Order),
		bookings: make(map[string]*domain.Booking),
		payments: make(map[string][]domain.PaymentEntry),
		products: make(map[string]*domain.Product),
	}
}

func (f *fakeStore) snapshot() *fakeStore {
	snap := newFakeStore()
	for id, o := range f.orders {
		c := *o
		snap.orders[id] = &c
	}
	for id, b := range f.bookings {
		c := *b
		c.Payments = nil
		snap.bookings[id] = &c
	}
	for id, entries := range f.payments {
		snap.payments[id] = append([]domain.PaymentEntry(nil), entries...)
	}
	for id, p := range f.products {
		c := *p
		snap.products[id] = &c
	}
	snap.seq = append([]string(nil), f.seq...)
	return snap
}

func (f *fakeStore) restore(snap *fakeStore) {
	f.orders = snap.orders
	f.bookings = snap.bookings
	f.payments = snap.payments
	f.products = snap.products
	f.seq = snap.seq
}

func (f *fakeStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	snap := f.snapshot()
	if err := fn(ctx); err != nil {
		f.restore(snap)
		return err
	}
	return nil
}

// --- BookingRepository ---

func (f *fakeStore) Create(ctx context.Context, b *domain.Booking) error {
	c := *b
	c.Payments = nil
	f.bookings[b.ID] = &c
	f.seq = append(f.seq, b.ID)
	return nil
}

func (f *fakeStore) GetByID(ctx context.Context, orgID, id string) (*domain.Booking, error) {
	b, ok := f.bookings[id]
	if !ok || b.OrgID != orgID {
		return nil, domain.ErrBookingNotFound
	}
	return f.withLedger(b), nil
}

func (f *fakeStore) Update(ctx context.Context, b *domain.Booking) error {
	if _, ok := f.bookings[b.ID]; !ok {
		return domain.ErrBookingNotFound
	}
	c := *b
	c.Payments = nil
	f.bookings[b.ID] = &c
	return nil
}

func (f *fakeStore) ListByOrder(ctx context.Context, orgID, orderID string) ([]domain.Booking, error) {
	var out []domain.Booking
	for _, id := range f.seq {
		b := f.bookings[id]
		if b.OrgID == orgID && b.OrderID == orderID {
			out = append(out, *f.withLedger(b))
		}
	}
	return out, nil
}

func (f *fakeStore) FindOverlapping(ctx context.Context, orgID, productID string, from, to time.Time, excludeID string) ([]domain.Booking, error) {
	var out []domain.Booking
	for _, id := range f.seq {
		b := f.bookings[id]
		if b.OrgID != orgID || b.ProductID != productID || b.ID == excludeID {
			continue
		}
		if b.Status != domain.BookingStatusBooked && b.Status != domain.BookingStatusIssued {
			continue
		}
		if b.Overlaps(from, to) {
			out = append(out, *f.withLedger(b))
		}
	}
	return out, nil
}

func (f *fakeStore) AppendPayment(ctx context.Context, entry *domain.PaymentEntry) error {
	if f.failAppendNote != "" && strings.Contains(entry.Note, f.failAppendNote) {
		return fmt.Errorf("simulated append failure for %q", entry.Note)
	}
	f.payments[entry.BookingID] = append(f.payments[entry.BookingID], *entry)
	return nil
}

func (f *fakeStore) ListIssuedOverdue(ctx context.Context, orgID string, now time.Time) ([]domain.Booking, error) {
	var out []domain.Booking
	for _, id := range f.seq {
		b := f.bookings[id]
		if b.OrgID == orgID && b.Status == domain.BookingStatusIssued && !b.ToDateTime.After(now) {
			out = append(out, *f.withLedger(b))
		}
	}
	return out, nil
}

func (f *fakeStore) withLedger(b *domain.Booking) *domain.Booking {
	c := *b
	c.Payments = append([]domain.PaymentEntry(nil), f.payments[b.ID]...)
	return &c
}

// --- OrderRepository ---

type fakeOrderRepo struct{ store *fakeStore }

func (f fakeOrderRepo) Create(ctx context.Context, o *domain.Order) error {
	c := *o
	f.store.orders[o.ID] = &c
	return nil
}

func (f fakeOrderRepo) GetByID(ctx context.Context, orgID, id string) (*domain.Order, error) {
	o, ok := f.store.orders[id]
	if !ok || o.OrgID != orgID {
		return nil, domain.ErrOrderNotFound
	}
	c := *o
	c.BookingIDs = nil
	for _, bid := range f.store.seq {
		if b := f.store.bookings[bid]; b.OrderID == id {
			c.BookingIDs = append(c.BookingIDs, bid)
		}
	}
	return &c, nil
}

func (f fakeOrderRepo) Update(ctx context.Context, o *domain.Order) error {
	if _, ok := f.store.orders[o.ID]; !ok {
		return domain.ErrOrderNotFound
	}
	c := *o
	f.store.orders[o.ID] = &c
	return nil
}

func (f fakeOrderRepo) ListByOrg(ctx context.Context, orgID string, page, pageSize int32) ([]domain.Order, int32, error) {
	var out []domain.Order
	for _, o := range f.store.orders {
		if o.OrgID == orgID {
			out = append(out, *o)
		}
	}
	return out, int32(len(out)), nil
}

// --- ProductRepository ---

type fakeProductRepo struct{ store *fakeStore }

func (f fakeProductRepo) Create(ctx context.Context, p *domain.Product) error {
	c := *p
	f.store.products[p.ID] = &c
	return nil
}

func (f fakeProductRepo) GetByID(ctx context.Context, orgID, id string) (*domain.Product, error) {
	p, ok := f.store.products[id]
	if !ok || p.OrgID != orgID {
		return nil, domain.ErrProductNotFound
	}
	c := *p
	return &c, nil
}

func (f fakeProductRepo) Update(ctx context.Context, p *domain.Product) error {
	if _, ok := f.store.products[p.ID]; !ok {
		return domain.ErrProductNotFound
	}
	c := *p
	f.store.products[p.ID] = &c
	return nil
}

func (f fakeProductRepo) Deactivate(ctx context.Context, orgID, id string, at time.Time) error {
	p, ok := f.store.products[id]
	if !ok || p.OrgID != orgID {
		return domain.ErrProductNotFound
	}
	p.Active = false
	p.DeletedOn = &at
	return nil
}

func (f fakeProductRepo) ListByOrg(ctx context.Context, orgID string, page, pageSize int32) ([]domain.Product, int32, error) {
	var out []domain.Product
	for _, p := range f.store.products {
		if p.OrgID == orgID {
			out = append(out, *p)
		}
	}
	return out, int32(len(out)), nil
}

// --- shared fixture helpers ---

const testOrg = "org-1"

type fixture struct {
	store    *fakeStore
	bookings BookingService
	orders   OrderService
}

func newFixture(now time.Time) *fixture {
	store := newFakeStore()
	orderRepo := fakeOrderRepo{store: store}
	productRepo := fakeProductRepo{store: store}
	clk := clock.NewFixed(now)
	aggregator := NewOrderAggregator(orderRepo, store, clk)
	return &fixture{
		store:    store,
		bookings: NewBookingService(store, store, orderRepo, productRepo, aggregator, nil, clk),
		orders:   NewOrderService(store, orderRepo, store, aggregator, clk),
	}
}

func (fx *fixture) addProduct(id, name string, defaultRent decimal.Decimal) {
	fx.store.products[id] = &domain.Product{
		ID: id, OrgID: testOrg, Name: name, DefaultRent: defaultRent, Active: true,
	}
}

func (fx *fixture) addOrder(id string) {
	fx.store.orders[id] = &domain.Order{
		ID: id, OrgID: testOrg, CustomerName: "Asha Verma",
		Status: domain.OrderStatusInitiated,
		TotalAmount:     decimal.Zero,
		TotalReceived:   decimal.Zero,
		RemainingAmount: decimal.Zero,
	}
}
