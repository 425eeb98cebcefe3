package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"rentdesk-backend/internal/clock"
	"rentdesk-backend/internal/domain"
	"rentdesk-backend/internal/logger"
	"rentdesk-backend/internal/repository"
)

type bookingService struct {
	tx          repository.Transactor
	bookingRepo repository.BookingRepository
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	aggregator  *OrderAggregator
	emailSvc    EmailService // nil disables notifications
	clk         clock.Clock
}

func NewBookingService(
	tx repository.Transactor,
	bookingRepo repository.BookingRepository,
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	aggregator *OrderAggregator,
	emailSvc EmailService,
	clk clock.Clock,
) BookingService {
	return &bookingService{
		tx:          tx,
		bookingRepo: bookingRepo,
		orderRepo:   orderRepo,
		productRepo: productRepo,
		aggregator:  aggregator,
		emailSvc:    emailSvc,
		clk:         clk,
	}
}

// DetectConflicts returns the BOOKED/ISSUED bookings of the product whose
// half-open interval overlaps [from, to). The check is advisory: it is not
// atomic with a subsequent write, so two staff members can still race past
// it — that is what the override flag and its audit trail are for.
func (s *bookingService) DetectConflicts(ctx context.Context, orgID, productID string, from, to time.Time, excludeID string) ([]domain.Booking, error) {
	if !to.After(from) {
		return nil, domain.ErrInvalidInterval
	}
	return s.bookingRepo.FindOverlapping(ctx, orgID, productID, from, to, excludeID)
}

func (s *bookingService) CreateBooking(ctx context.Context, in CreateBookingInput) (*domain.Booking, error) {
	logger.EnterMethod("bookingService.CreateBooking", "org_id", in.OrgID, "order_id", in.OrderID, "product_id", in.ProductID)

	if !in.To.After(in.From) {
		return nil, domain.ErrInvalidInterval
	}
	if in.DecidedRent.IsNegative() || in.AdvanceAmount.IsNegative() {
		return nil, domain.ErrNegativeAmount
	}

	order, err := s.orderRepo.GetByID(ctx, in.OrgID, in.OrderID)
	if err != nil {
		return nil, err
	}
	if order.Status == domain.OrderStatusCancelled {
		return nil, domain.ErrOrderCancelled
	}

	product, err := s.productRepo.GetByID(ctx, in.OrgID, in.ProductID)
	if err != nil {
		return nil, err
	}
	if !product.Active {
		return nil, domain.ErrProductInactive
	}

	conflicts, err := s.bookingRepo.FindOverlapping(ctx, in.OrgID, in.ProductID, in.From, in.To, "")
	if err != nil {
		return nil, err
	}
	if len(conflicts) > 0 && !in.OverrideConflicts {
		return nil, &domain.ConflictError{ProductID: in.ProductID, Conflicts: conflicts}
	}

	if in.AdvanceAmount.GreaterThan(in.DecidedRent) {
		return nil, &domain.OverpaymentError{BookingID: "", Remaining: in.DecidedRent, Attempted: in.AdvanceAmount}
	}

	now := s.clk.Now()
	booking := &domain.Booking{
		ID:                   uuid.NewString(),
		OrgID:                in.OrgID,
		OrderID:              in.OrderID,
		ProductID:            in.ProductID,
		CategoryID:           in.CategoryID,
		FromDateTime:         in.From,
		ToDateTime:           in.To,
		ProductDefaultRent:   product.DefaultRent,
		DecidedRent:          in.DecidedRent,
		AdvanceAmount:        in.AdvanceAmount,
		RemainingAmount:      in.DecidedRent.Sub(in.AdvanceAmount),
		Status:               domain.BookingStatusBooked,
		IsConflictOverridden: len(conflicts) > 0 && in.OverrideConflicts,
		PendingRefundAmount:  decimal.Zero,
		CreatedOn:            now,
		UpdatedOn:            now,
	}

	err = s.tx.WithTx(ctx, func(txCtx context.Context) error {
		if err := s.bookingRepo.Create(txCtx, booking); err != nil {
			return fmt.Errorf("failed to create booking: %w", err)
		}
		if in.AdvanceAmount.IsPositive() {
			entry := &domain.PaymentEntry{
				ID:         uuid.NewString(),
				BookingID:  booking.ID,
				OrgID:      in.OrgID,
				Type:       domain.PaymentTypeAdvance,
				Amount:     in.AdvanceAmount,
				Note:       in.AdvanceNote,
				RecordedOn: now,
			}
			if err := s.bookingRepo.AppendPayment(txCtx, entry); err != nil {
				return err
			}
			booking.Payments = append(booking.Payments, *entry)
		}
		_, err := s.aggregator.Refresh(txCtx, in.OrgID, in.OrderID)
		return err
	})
	if err != nil {
		logger.ExitMethodWithError("bookingService.CreateBooking", err, "order_id", in.OrderID)
		return nil, err
	}

	logger.ExitMethod("bookingService.CreateBooking", "booking_id", booking.ID, "overridden", booking.IsConflictOverridden)
	return booking, nil
}

func (s *bookingService) UpdateBooking(ctx context.Context, orgID, id string, patch UpdateBookingInput) (*domain.Booking, error) {
	unlock := bookingLocks.Lock(id)
	defer unlock()

	booking, err := s.bookingRepo.GetByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if booking.Status != domain.BookingStatusBooked {
		return nil, &domain.InvalidStateTransitionError{BookingID: id, Status: booking.Status, Operation: "update"}
	}

	now := s.clk.Now()
	interestChanged := false

	if patch.ProductID != nil && *patch.ProductID != booking.ProductID {
		product, err := s.productRepo.GetByID(ctx, orgID, *patch.ProductID)
		if err != nil {
			return nil, err
		}
		if !product.Active {
			return nil, domain.ErrProductInactive
		}
		booking.ProductID = product.ID
		// The default-rent snapshot follows the referenced product.
		booking.ProductDefaultRent = product.DefaultRent
		interestChanged = true
	}
	if patch.CategoryID != nil {
		booking.CategoryID = patch.CategoryID
	}
	if patch.From != nil {
		booking.FromDateTime = *patch.From
		interestChanged = true
	}
	if patch.To != nil {
		booking.ToDateTime = *patch.To
		interestChanged = true
	}
	if !booking.ToDateTime.After(booking.FromDateTime) {
		return nil, domain.ErrInvalidInterval
	}

	if interestChanged {
		conflicts, err := s.bookingRepo.FindOverlapping(ctx, orgID, booking.ProductID, booking.FromDateTime, booking.ToDateTime, booking.ID)
		if err != nil {
			return nil, err
		}
		if len(conflicts) > 0 {
			if !patch.OverrideConflicts {
				return nil, &domain.ConflictError{ProductID: booking.ProductID, Conflicts: conflicts}
			}
			booking.IsConflictOverridden = true
		}
	}

	if patch.DecidedRent != nil {
		if patch.DecidedRent.IsNegative() {
			return nil, domain.ErrNegativeAmount
		}
		// Lowering the rent below what is already paid would drive the
		// remaining amount negative.
		if patch.DecidedRent.LessThan(booking.NetPaid()) {
			return nil, &domain.OverpaymentError{BookingID: id, Remaining: *patch.DecidedRent, Attempted: booking.NetPaid()}
		}
		booking.DecidedRent = *patch.DecidedRent
	}

	// An advance change is realized as a correcting ledger entry; the
	// original ADVANCE entry is never rewritten.
	var correction *domain.PaymentEntry
	if patch.AdvanceAmount != nil {
		if patch.AdvanceAmount.IsNegative() {
			return nil, domain.ErrNegativeAmount
		}
		diff := patch.AdvanceAmount.Sub(booking.AdvanceAmount)
		if diff.IsPositive() {
			if diff.GreaterThan(booking.Remaining()) {
				return nil, &domain.OverpaymentError{BookingID: id, Remaining: booking.Remaining(), Attempted: diff}
			}
			correction = &domain.PaymentEntry{
				ID:         uuid.NewString(),
				BookingID:  id,
				OrgID:      orgID,
				Type:       domain.PaymentTypeAdvance,
				Amount:     diff,
				Note:       "advance adjustment",
				RecordedOn: now,
			}
		} else if diff.IsNegative() {
			back := diff.Neg()
			if back.GreaterThan(booking.NetPaid()) {
				return nil, &domain.InsufficientFundsError{Ref: id, MaxRefund: booking.NetPaid(), Requested: back}
			}
			correction = &domain.PaymentEntry{
				ID:         uuid.NewString(),
				BookingID:  id,
				OrgID:      orgID,
				Type:       domain.PaymentTypeRefund,
				Amount:     back,
				Note:       "advance adjustment",
				RecordedOn: now,
			}
		}
		booking.AdvanceAmount = *patch.AdvanceAmount
	}

	err = s.tx.WithTx(ctx, func(txCtx context.Context) error {
		if correction != nil {
			if err := s.bookingRepo.AppendPayment(txCtx, correction); err != nil {
				return err
			}
			booking.Payments = append(booking.Payments, *correction)
		}
		booking.RemainingAmount = booking.Remaining()
		booking.UpdatedOn = now
		if err := s.bookingRepo.Update(txCtx, booking); err != nil {
			return err
		}
		_, err := s.aggregator.Refresh(txCtx, orgID, booking.OrderID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return booking, nil
}

func (s *bookingService) IssueBooking(ctx context.Context, orgID, id string, payment *PaymentInput) (*domain.Booking, error) {
	booking, err := s.transition(ctx, orgID, id, "issue", domain.BookingStatusBooked, domain.BookingStatusIssued, payment)
	if err != nil {
		return nil, err
	}
	s.notify(ctx, booking, func(email, name, productName string) error {
		return s.emailSvc.SendBookingIssuedNotification(ctx, email, name, productName, booking.RemainingAmount)
	})
	return booking, nil
}

func (s *bookingService) ReturnBooking(ctx context.Context, orgID, id string, payment *PaymentInput) (*domain.Booking, error) {
	booking, err := s.transition(ctx, orgID, id, "return", domain.BookingStatusIssued, domain.BookingStatusReturned, payment)
	if err != nil {
		return nil, err
	}
	s.notify(ctx, booking, func(email, name, productName string) error {
		return s.emailSvc.SendBookingReturnedNotification(ctx, email, name, productName)
	})
	return booking, nil
}

// transition moves a booking between statuses, optionally recording an
// inbound payment first. The payment is rejected, and nothing changes, if it
// would exceed the remaining amount.
func (s *bookingService) transition(ctx context.Context, orgID, id, op string, from, to domain.BookingStatus, payment *PaymentInput) (*domain.Booking, error) {
	unlock := bookingLocks.Lock(id)
	defer unlock()

	booking, err := s.bookingRepo.GetByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if booking.Status != from {
		return nil, &domain.InvalidStateTransitionError{BookingID: id, Status: booking.Status, Operation: op}
	}

	now := s.clk.Now()
	var entry *domain.PaymentEntry
	if payment != nil {
		if payment.Amount.IsNegative() {
			return nil, domain.ErrNegativeAmount
		}
		if payment.Amount.IsPositive() {
			if payment.Amount.GreaterThan(booking.Remaining()) {
				return nil, &domain.OverpaymentError{BookingID: id, Remaining: booking.Remaining(), Attempted: payment.Amount}
			}
			entry = &domain.PaymentEntry{
				ID:         uuid.NewString(),
				BookingID:  id,
				OrgID:      orgID,
				Type:       domain.PaymentTypeReceived,
				Amount:     payment.Amount,
				Note:       payment.Note,
				RecordedOn: now,
			}
		}
	}

	err = s.tx.WithTx(ctx, func(txCtx context.Context) error {
		if entry != nil {
			if err := s.bookingRepo.AppendPayment(txCtx, entry); err != nil {
				return err
			}
			booking.Payments = append(booking.Payments, *entry)
		}
		booking.Status = to
		booking.RemainingAmount = booking.Remaining()
		booking.UpdatedOn = now
		if err := s.bookingRepo.Update(txCtx, booking); err != nil {
			return err
		}
		_, err := s.aggregator.Refresh(txCtx, orgID, booking.OrderID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return booking, nil
}

func (s *bookingService) AddPayment(ctx context.Context, orgID, id string, in PaymentInput) (*domain.Booking, error) {
	unlock := bookingLocks.Lock(id)
	defer unlock()

	booking, err := s.bookingRepo.GetByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if booking.Status.IsTerminal() {
		return nil, &domain.InvalidStateTransitionError{BookingID: id, Status: booking.Status, Operation: "add payment"}
	}

	paymentType := domain.NormalizePaymentType(in.Type)
	if !paymentType.IsValid() {
		return nil, domain.ErrInvalidPaymentType
	}
	if in.Amount.IsNegative() {
		return nil, domain.ErrNegativeAmount
	}
	if in.Amount.IsZero() {
		return booking, nil
	}
	if paymentType.IsInbound() {
		if in.Amount.GreaterThan(booking.Remaining()) {
			return nil, &domain.OverpaymentError{BookingID: id, Remaining: booking.Remaining(), Attempted: in.Amount}
		}
	} else {
		if in.Amount.GreaterThan(booking.NetPaid()) {
			return nil, &domain.InsufficientFundsError{Ref: id, MaxRefund: booking.NetPaid(), Requested: in.Amount}
		}
	}

	now := s.clk.Now()
	entry := &domain.PaymentEntry{
		ID:         uuid.NewString(),
		BookingID:  id,
		OrgID:      orgID,
		Type:       paymentType,
		Amount:     in.Amount,
		Note:       in.Note,
		RecordedOn: now,
	}

	err = s.tx.WithTx(ctx, func(txCtx context.Context) error {
		if err := s.bookingRepo.AppendPayment(txCtx, entry); err != nil {
			return err
		}
		booking.Payments = append(booking.Payments, *entry)
		booking.RemainingAmount = booking.Remaining()
		booking.UpdatedOn = now
		if err := s.bookingRepo.Update(txCtx, booking); err != nil {
			return err
		}
		_, err := s.aggregator.Refresh(txCtx, orgID, booking.OrderID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return booking, nil
}

// CancelBooking cancels a BOOKED booking. The refundable ceiling is what the
// customer has paid in minus refunds already issued; it can be returned as
// cash, transferred onto sibling bookings of the same order, or left as a
// pending refund. A transfer batch applies fully or not at all.
func (s *bookingService) CancelBooking(ctx context.Context, orgID, id string, in CancelBookingInput) (*domain.Booking, error) {
	logger.EnterMethod("bookingService.CancelBooking", "org_id", orgID, "booking_id", id)

	lockIDs := []string{id}
	for _, t := range in.Transfers {
		lockIDs = append(lockIDs, t.TargetBookingID)
	}
	unlock := bookingLocks.LockAll(lockIDs)
	defer unlock()

	booking, err := s.bookingRepo.GetByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if booking.Status != domain.BookingStatusBooked {
		return nil, &domain.InvalidStateTransitionError{BookingID: id, Status: booking.Status, Operation: "cancel"}
	}

	maxRefund := booking.MaxRefund()

	refundAmount := decimal.Zero
	if in.RefundAmount != nil {
		refundAmount = *in.RefundAmount
	}
	if refundAmount.IsNegative() {
		return nil, domain.ErrNegativeAmount
	}

	targets := make(map[string]*domain.Booking, len(in.Transfers))
	for _, t := range in.Transfers {
		target, err := s.bookingRepo.GetByID(ctx, orgID, t.TargetBookingID)
		if err != nil {
			return nil, err
		}
		if target.OrderID != booking.OrderID {
			return nil, &domain.InvalidStateTransitionError{BookingID: target.ID, Status: target.Status, Operation: "receive transfer from another order"}
		}
		targets[target.ID] = target
	}
	transferTotal, err := validateTransfers(booking, in.Transfers, targets)
	if err != nil {
		return nil, err
	}
	if refundAmount.Add(transferTotal).GreaterThan(maxRefund) {
		return nil, &domain.InsufficientFundsError{Ref: id, MaxRefund: maxRefund, Requested: refundAmount.Add(transferTotal)}
	}

	now := s.clk.Now()
	err = s.tx.WithTx(ctx, func(txCtx context.Context) error {
		appendToSource := func(amount decimal.Decimal, note string) error {
			entry := &domain.PaymentEntry{
				ID:         uuid.NewString(),
				BookingID:  id,
				OrgID:      orgID,
				Type:       domain.PaymentTypeRefund,
				Amount:     amount,
				Note:       note,
				RecordedOn: now,
			}
			if err := s.bookingRepo.AppendPayment(txCtx, entry); err != nil {
				return err
			}
			booking.Payments = append(booking.Payments, *entry)
			return nil
		}

		if refundAmount.IsPositive() {
			if err := appendToSource(refundAmount, "cancellation refund"); err != nil {
				return err
			}
		}
		for _, t := range in.Transfers {
			if !t.Amount.IsPositive() {
				continue
			}
			if err := appendToSource(t.Amount, fmt.Sprintf("transfer to booking %s", t.TargetBookingID)); err != nil {
				return err
			}
			target := targets[t.TargetBookingID]
			entry := &domain.PaymentEntry{
				ID:         uuid.NewString(),
				BookingID:  target.ID,
				OrgID:      orgID,
				Type:       domain.PaymentTypeReceived,
				Amount:     t.Amount,
				Note:       fmt.Sprintf("transfer from cancelled booking %s", id),
				RecordedOn: now,
			}
			if err := s.bookingRepo.AppendPayment(txCtx, entry); err != nil {
				return err
			}
			target.Payments = append(target.Payments, *entry)
			target.RemainingAmount = target.Remaining()
			target.UpdatedOn = now
			if err := s.bookingRepo.Update(txCtx, target); err != nil {
				return err
			}
		}

		booking.Status = domain.BookingStatusCancelled
		// Whatever was refundable but neither refunded nor transferred is
		// still owed to the customer.
		booking.PendingRefundAmount = booking.NetPaid()
		booking.RemainingAmount = booking.Remaining()
		booking.UpdatedOn = now
		if err := s.bookingRepo.Update(txCtx, booking); err != nil {
			return err
		}
		_, err := s.aggregator.Refresh(txCtx, orgID, booking.OrderID)
		return err
	})
	if err != nil {
		logger.ExitMethodWithError("bookingService.CancelBooking", err, "booking_id", id)
		return nil, err
	}

	s.notify(ctx, booking, func(email, name, productName string) error {
		return s.emailSvc.SendBookingCancelledNotification(ctx, email, name, productName, refundAmount, booking.PendingRefundAmount)
	})

	logger.ExitMethod("bookingService.CancelBooking", "booking_id", id, "refunded", refundAmount, "pending_refund", booking.PendingRefundAmount)
	return booking, nil
}

// PreviewCancellationRefund computes the refundable ceiling and a suggested
// redistribution across sibling bookings without mutating anything.
func (s *bookingService) PreviewCancellationRefund(ctx context.Context, orgID, id string) (*RefundPreview, error) {
	booking, err := s.bookingRepo.GetByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if booking.Status != domain.BookingStatusBooked {
		return nil, &domain.InvalidStateTransitionError{BookingID: id, Status: booking.Status, Operation: "cancel"}
	}
	siblings, err := s.bookingRepo.ListByOrder(ctx, orgID, booking.OrderID)
	if err != nil {
		return nil, err
	}
	return &RefundPreview{
		BookingID:          id,
		MaxRefund:          booking.MaxRefund(),
		SuggestedTransfers: suggestTransfers(booking, siblings),
	}, nil
}

func (s *bookingService) GetBooking(ctx context.Context, orgID, id string) (*domain.Booking, error) {
	return s.bookingRepo.GetByID(ctx, orgID, id)
}

// notify sends a customer email best-effort; failures are logged, never
// surfaced to the caller.
func (s *bookingService) notify(ctx context.Context, booking *domain.Booking, send func(email, name, productName string) error) {
	if s.emailSvc == nil {
		return
	}
	order, err := s.orderRepo.GetByID(ctx, booking.OrgID, booking.OrderID)
	if err != nil || order.CustomerEmail == "" {
		return
	}
	productName := booking.ProductID
	if product, err := s.productRepo.GetByID(ctx, booking.OrgID, booking.ProductID); err == nil {
		productName = product.Name
	}
	if err := send(order.CustomerEmail, order.CustomerName, productName); err != nil {
		logger.Warn("Failed to send booking notification", "booking_id", booking.ID, "error", err)
	}
}
