package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"rentdesk-backend/internal/clock"
	"rentdesk-backend/internal/domain"
	"rentdesk-backend/internal/logger"
	"rentdesk-backend/internal/repository"
)

// OrderAggregator recomputes an order's derived financial totals and status
// from its bookings. It is invoked synchronously after every booking-level
// mutation, inside the same transaction, so readers never observe an order
// whose totals lag behind its ledgers.
type OrderAggregator struct {
	orderRepo   repository.OrderRepository
	bookingRepo repository.BookingRepository
	clk         clock.Clock
}

func NewOrderAggregator(orderRepo repository.OrderRepository, bookingRepo repository.BookingRepository, clk clock.Clock) *OrderAggregator {
	return &OrderAggregator{orderRepo: orderRepo, bookingRepo: bookingRepo, clk: clk}
}

// Refresh reloads the order's bookings, recomputes the aggregate and stores
// the result. Idempotent: repeating it with unchanged bookings leaves the
// derived fields unchanged.
func (a *OrderAggregator) Refresh(ctx context.Context, orgID, orderID string) (*domain.Order, error) {
	order, err := a.orderRepo.GetByID(ctx, orgID, orderID)
	if err != nil {
		return nil, err
	}
	bookings, err := a.bookingRepo.ListByOrder(ctx, orgID, orderID)
	if err != nil {
		return nil, err
	}

	AggregateOrder(order, bookings)
	order.UpdatedOn = a.clk.Now()
	if err := a.orderRepo.Update(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// AggregateOrder recomputes the derived totals and status in place from the
// order's bookings. Cancelled bookings contribute nothing; an explicitly
// cancelled order keeps its CANCELLED status regardless of booking states.
func AggregateOrder(o *domain.Order, bookings []domain.Booking) {
	total := decimal.Zero
	received := decimal.Zero
	active := 0
	returned := 0
	advanceOnly := true

	for i := range bookings {
		b := &bookings[i]
		if b.Status == domain.BookingStatusCancelled {
			continue
		}
		active++
		total = total.Add(b.DecidedRent)
		received = received.Add(b.NetPaid())
		if b.Status == domain.BookingStatusReturned {
			returned++
		}
		if b.Status != domain.BookingStatusBooked {
			advanceOnly = false
		}
		for _, p := range b.Payments {
			if p.Type != domain.PaymentTypeAdvance {
				advanceOnly = false
			}
		}
	}

	o.TotalAmount = total
	o.TotalReceived = received
	o.RemainingAmount = total.Sub(received)

	if o.Status == domain.OrderStatusCancelled {
		return
	}
	switch {
	case active == 0:
		o.Status = domain.OrderStatusInitiated
	case returned == active:
		o.Status = domain.OrderStatusFullyDone
	case returned > 0:
		o.Status = domain.OrderStatusPartiallyDone
	case advanceOnly:
		o.Status = domain.OrderStatusInitiated
	default:
		o.Status = domain.OrderStatusInProgress
	}
}

type orderService struct {
	tx          repository.Transactor
	orderRepo   repository.OrderRepository
	bookingRepo repository.BookingRepository
	aggregator  *OrderAggregator
	clk         clock.Clock
}

func NewOrderService(
	tx repository.Transactor,
	orderRepo repository.OrderRepository,
	bookingRepo repository.BookingRepository,
	aggregator *OrderAggregator,
	clk clock.Clock,
) OrderService {
	return &orderService{
		tx:          tx,
		orderRepo:   orderRepo,
		bookingRepo: bookingRepo,
		aggregator:  aggregator,
		clk:         clk,
	}
}

func (s *orderService) CreateOrder(ctx context.Context, in CreateOrderInput) (*domain.Order, error) {
	now := s.clk.Now()
	order := &domain.Order{
		ID:              uuid.NewString(),
		OrgID:           in.OrgID,
		CustomerName:    in.CustomerName,
		CustomerPhone:   in.CustomerPhone,
		CustomerEmail:   in.CustomerEmail,
		Status:          domain.OrderStatusInitiated,
		TotalAmount:     decimal.Zero,
		TotalReceived:   decimal.Zero,
		RemainingAmount: decimal.Zero,
		CreatedOn:       now,
		UpdatedOn:       now,
	}
	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	return order, nil
}

func (s *orderService) GetOrder(ctx context.Context, orgID, id string) (*domain.Order, []domain.Booking, error) {
	order, err := s.orderRepo.GetByID(ctx, orgID, id)
	if err != nil {
		return nil, nil, err
	}
	bookings, err := s.bookingRepo.ListByOrder(ctx, orgID, id)
	if err != nil {
		return nil, nil, err
	}
	return order, bookings, nil
}

func (s *orderService) ListOrders(ctx context.Context, orgID string, page, pageSize int32) ([]domain.Order, int32, error) {
	return s.orderRepo.ListByOrg(ctx, orgID, page, pageSize)
}

func (s *orderService) ReaggregateOrder(ctx context.Context, orgID, id string) (*domain.Order, error) {
	return s.aggregator.Refresh(ctx, orgID, id)
}

// CancelOrder cancels every booking of the order. Cancellation is only legal
// while all of them are still BOOKED. The combined refundable amount can be
// returned as cash, moved onto bookings outside this order, or left pending.
func (s *orderService) CancelOrder(ctx context.Context, orgID, id string, in CancelOrderInput) (*domain.Order, error) {
	logger.EnterMethod("orderService.CancelOrder", "org_id", orgID, "order_id", id)

	order, err := s.orderRepo.GetByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if order.Status == domain.OrderStatusCancelled {
		return nil, domain.ErrOrderCancelled
	}

	bookings, err := s.bookingRepo.ListByOrder(ctx, orgID, id)
	if err != nil {
		return nil, err
	}

	lockIDs := make([]string, 0, len(bookings)+len(in.Transfers))
	for _, b := range bookings {
		lockIDs = append(lockIDs, b.ID)
	}
	for _, t := range in.Transfers {
		lockIDs = append(lockIDs, t.TargetBookingID)
	}
	unlock := bookingLocks.LockAll(lockIDs)
	defer unlock()

	// Reload under the locks; another request may have advanced a booking.
	bookings, err = s.bookingRepo.ListByOrder(ctx, orgID, id)
	if err != nil {
		return nil, err
	}

	sources := make([]domain.Booking, 0, len(bookings))
	maxRefund := decimal.Zero
	for _, b := range bookings {
		if b.Status == domain.BookingStatusCancelled {
			continue
		}
		if b.Status != domain.BookingStatusBooked {
			return nil, &domain.InvalidStateTransitionError{BookingID: b.ID, Status: b.Status, Operation: "cancel"}
		}
		sources = append(sources, b)
		maxRefund = maxRefund.Add(b.NetPaid())
	}

	refundAmount := decimal.Zero
	if in.ShouldRefund && in.RefundAmount != nil {
		refundAmount = *in.RefundAmount
	}
	transferTotal := decimal.Zero
	var transfers []TransferInput
	if in.ShouldTransfer {
		transfers = in.Transfers
		for _, t := range transfers {
			transferTotal = transferTotal.Add(t.Amount)
		}
	}
	if refundAmount.IsNegative() || transferTotal.IsNegative() {
		return nil, domain.ErrNegativeAmount
	}
	if refundAmount.Add(transferTotal).GreaterThan(maxRefund) {
		return nil, &domain.InsufficientFundsError{Ref: order.ID, MaxRefund: maxRefund, Requested: refundAmount.Add(transferTotal)}
	}

	now := s.clk.Now()
	targetOrders := make(map[string]bool)

	err = s.tx.WithTx(ctx, func(txCtx context.Context) error {
		// Validate and apply transfers first: each target must absorb its
		// share without overpaying, or the whole cancellation fails.
		for _, t := range transfers {
			target, err := s.bookingRepo.GetByID(txCtx, orgID, t.TargetBookingID)
			if err != nil {
				return err
			}
			if target.OrderID == order.ID {
				return &domain.InvalidStateTransitionError{BookingID: target.ID, Status: target.Status, Operation: "receive transfer from its own order's cancellation"}
			}
			if target.Status.IsTerminal() {
				return &domain.InvalidStateTransitionError{BookingID: target.ID, Status: target.Status, Operation: "receive transfer"}
			}
			if t.Amount.GreaterThan(target.Remaining()) {
				return &domain.OverpaymentError{BookingID: target.ID, Remaining: target.Remaining(), Attempted: t.Amount}
			}
			if err := s.bookingRepo.AppendPayment(txCtx, &domain.PaymentEntry{
				ID:         uuid.NewString(),
				BookingID:  target.ID,
				OrgID:      orgID,
				Type:       domain.PaymentTypeReceived,
				Amount:     t.Amount,
				Note:       fmt.Sprintf("transfer from cancelled order %s", order.ID),
				RecordedOn: now,
			}); err != nil {
				return err
			}
			target.RemainingAmount = target.Remaining().Sub(t.Amount)
			target.UpdatedOn = now
			if err := s.bookingRepo.Update(txCtx, target); err != nil {
				return err
			}
			targetOrders[target.OrderID] = true
		}

		// Drain each source booking in insertion order: refunds and
		// transfers are recorded as REFUND entries against the sources.
		toDrain := refundAmount.Add(transferTotal)
		for i := range sources {
			b := &sources[i]
			drained := decimal.Min(b.NetPaid(), toDrain)
			if drained.IsPositive() {
				entry := &domain.PaymentEntry{
					ID:         uuid.NewString(),
					BookingID:  b.ID,
					OrgID:      orgID,
					Type:       domain.PaymentTypeRefund,
					Amount:     drained,
					Note:       "order cancellation",
					RecordedOn: now,
				}
				if err := s.bookingRepo.AppendPayment(txCtx, entry); err != nil {
					return err
				}
				b.Payments = append(b.Payments, *entry)
				toDrain = toDrain.Sub(drained)
			}
			b.Status = domain.BookingStatusCancelled
			b.PendingRefundAmount = b.NetPaid()
			b.RemainingAmount = b.Remaining()
			b.UpdatedOn = now
			if err := s.bookingRepo.Update(txCtx, b); err != nil {
				return err
			}
		}

		order.Status = domain.OrderStatusCancelled
		order.UpdatedOn = now
		if err := s.orderRepo.Update(txCtx, order); err != nil {
			return err
		}

		if _, err := s.aggregator.Refresh(txCtx, orgID, order.ID); err != nil {
			return err
		}
		for targetOrderID := range targetOrders {
			if _, err := s.aggregator.Refresh(txCtx, orgID, targetOrderID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("orderService.CancelOrder", err, "order_id", id)
		return nil, err
	}

	refreshed, err := s.orderRepo.GetByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	logger.ExitMethod("orderService.CancelOrder", "order_id", id, "refunded", refundAmount, "transferred", transferTotal)
	return refreshed, nil
}
