package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"shopbot/internal/domain"
	"shopbot/internal/events"
	"shopbot/internal/notify"
	"shopbot/internal/repos"
)

var (
	ErrInvalidTransition = errors.New("status transition not allowed")
	ErrStatusUnchanged   = errors.New("order already has that status")
	ErrTrackingRequired  = errors.New("shipping requires a tracking number")
)

// Cancellation is reachable from PENDING and CONFIRMED only.
var allowedTransitions = map[domain.OrderStatus]map[domain.OrderStatus]bool{
	domain.StatusPending: {
		domain.StatusConfirmed: true,
		domain.StatusShipped:   true,
		domain.StatusCancelled: true,
	},
	domain.StatusConfirmed: {
		domain.StatusShipped:   true,
		domain.StatusCancelled: true,
	},
	domain.StatusShipped: {
		domain.StatusArrived: true,
	},
	domain.StatusArrived: {
		domain.StatusCompleted: true,
	},
	domain.StatusCompleted: {},
	domain.StatusCancelled: {},
}

// Lifecycle drives post-creation status transitions and their side effects.
type Lifecycle struct {
	Orders    *repos.OrderRepo
	Customers notify.Notifier  // optional
	Bus       events.Publisher // optional
}

func NewLifecycle(orders *repos.OrderRepo) *Lifecycle {
	return &Lifecycle{Orders: orders}
}

// SetStatus applies a transition, stamps its timestamp and notifies the
// customer. Notification failure does not fail the status update.
func (l *Lifecycle) SetStatus(orderID string, next domain.OrderStatus, tracking string) (*domain.Order, error) {
	o, _, err := l.Orders.Get(orderID)
	if err != nil {
		return nil, fmt.Errorf("load order: %w", err)
	}
	if o.Status == next {
		return nil, ErrStatusUnchanged
	}
	if !allowedTransitions[o.Status][next] {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, next)
	}
	if next == domain.StatusShipped && tracking == "" {
		return nil, ErrTrackingRequired
	}

	ok, err := l.Orders.UpdateStatus(orderID, next, tracking, o.Status)
	if err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}
	if !ok {
		// A concurrent update moved the order since we read it.
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, next)
	}
	old := o.Status

	updated, _, err := l.Orders.Get(orderID)
	if err != nil {
		return nil, fmt.Errorf("reload order: %w", err)
	}

	log.Info().Str("order_no", updated.OrderNo).
		Str("from", string(old)).Str("to", string(next)).Msg("order status changed")

	if l.Customers != nil {
		if err := l.Customers.Notify(updated.UserID, statusNotice(&updated, old, tracking)); err != nil {
			// Unreachable customer: the status change stands.
			log.Warn().Err(err).Str("order_no", updated.OrderNo).Msg("customer notify failed")
		}
	}
	if l.Bus != nil {
		ev := events.StatusChanged{
			OrderNo:        updated.OrderNo,
			UserID:         updated.UserID,
			OldStatus:      string(old),
			NewStatus:      string(next),
			TrackingNumber: tracking,
		}
		if err := l.Bus.Publish(context.Background(), events.RouteStatusChanged, ev); err != nil {
			log.Warn().Err(err).Str("order_no", updated.OrderNo).Msg("status event publish failed")
		}
	}
	return &updated, nil
}

func statusNotice(o *domain.Order, old domain.OrderStatus, tracking string) string {
	text := fmt.Sprintf("Order %s: %s → %s", o.OrderNo, old.Label(), o.Status.Label())
	if tracking != "" {
		text += fmt.Sprintf("\nTracking number: %s", tracking)
	}
	if o.Status == domain.StatusArrived {
		text += fmt.Sprintf("\nYour parcel is ready for pickup at store %s.", o.StoreCode)
	}
	return text
}
