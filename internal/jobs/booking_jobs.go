package jobs

import (
	"context"
	"time"

	"rentdesk-backend/internal/domain"
	"rentdesk-backend/internal/logger"
)

// SendOverdueReminders emails customers whose issued equipment is past its
// return date. Failures are logged per booking so one bad address does not
// stop the sweep.
func (jr *JobRunner) SendOverdueReminders() {
	jr.runWithRecovery("send_overdue_reminders", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		orgs, err := jr.store.List(ctx)
		if err != nil {
			logger.Error("Failed to list organizations", "error", err)
			return
		}

		now := jr.clk.Now()
		var sent, failed int
		for _, org := range orgs {
			overdue, err := jr.store.ListIssuedOverdue(ctx, org.ID, now)
			if err != nil {
				logger.Error("Failed to list overdue bookings", "orgId", org.ID, "error", err)
				continue
			}

			for _, booking := range overdue {
				if err := jr.remindOverdueBooking(ctx, &booking); err != nil {
					failed++
					logger.Warn("Overdue reminder not sent",
						"orgId", org.ID, "bookingId", booking.ID, "error", err)
					continue
				}
				sent++
			}
		}

		logger.Info("Overdue reminder sweep finished", "sent", sent, "failed", failed)
	})
}

func (jr *JobRunner) remindOverdueBooking(ctx context.Context, booking *domain.Booking) error {
	order, err := jr.store.OrderRepository.GetByID(ctx, booking.OrgID, booking.OrderID)
	if err != nil {
		return err
	}
	if order.CustomerEmail == "" {
		logger.Debug("Skipping reminder, order has no customer email",
			"orderId", order.ID, "bookingId", booking.ID)
		return nil
	}

	productName := booking.ProductID
	if product, err := jr.store.ProductRepository.GetByID(ctx, booking.OrgID, booking.ProductID); err == nil {
		productName = product.Name
	}

	return jr.services.Email.SendOverdueReminder(
		ctx, order.CustomerEmail, order.CustomerName, productName, booking.ToDateTime)
}

// ReconcileOrderAggregates re-derives every order's totals and status from its
// bookings and ledgers. The aggregation is idempotent, so a clean system is a
// no-op; any order whose stored snapshot drifted gets repaired and logged.
func (jr *JobRunner) ReconcileOrderAggregates() {
	jr.runWithRecovery("reconcile_order_aggregates", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		defer cancel()

		orgs, err := jr.store.List(ctx)
		if err != nil {
			logger.Error("Failed to list organizations", "error", err)
			return
		}

		var checked, repaired int
		for _, org := range orgs {
			c, r := jr.reconcileOrg(ctx, org.ID)
			checked += c
			repaired += r
		}

		logger.Info("Order reconciliation finished", "checked", checked, "repaired", repaired)
	})
}

func (jr *JobRunner) reconcileOrg(ctx context.Context, orgID string) (checked, repaired int) {
	const pageSize = 100
	for page := int32(1); ; page++ {
		orders, _, err := jr.store.OrderRepository.ListByOrg(ctx, orgID, page, pageSize)
		if err != nil {
			logger.Error("Failed to list orders", "orgId", orgID, "page", page, "error", err)
			return checked, repaired
		}
		if len(orders) == 0 {
			return checked, repaired
		}

		for _, before := range orders {
			after, err := jr.services.Orders.ReaggregateOrder(ctx, orgID, before.ID)
			if err != nil {
				logger.Error("Failed to reaggregate order", "orgId", orgID, "orderId", before.ID, "error", err)
				continue
			}
			checked++
			if orderDrifted(&before, after) {
				repaired++
				logger.Warn("Order aggregate drift repaired",
					"orgId", orgID,
					"orderId", before.ID,
					"oldStatus", before.Status,
					"newStatus", after.Status,
					"oldTotal", before.TotalAmount,
					"newTotal", after.TotalAmount,
					"oldReceived", before.TotalReceived,
					"newReceived", after.TotalReceived)
			}
		}

		if len(orders) < pageSize {
			return checked, repaired
		}
	}
}

func orderDrifted(before, after *domain.Order) bool {
	return before.Status != after.Status ||
		!before.TotalAmount.Equal(after.TotalAmount) ||
		!before.TotalReceived.Equal(after.TotalReceived) ||
		!before.RemainingAmount.Equal(after.RemainingAmount)
}
