package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopbot/internal/domain"
	"shopbot/internal/services"
)

func placeOrder(t *testing.T, e *env) *services.OrderView {
	t.Helper()
	e.seedProduct(t, "P", 100, 5)
	_, err := e.cart.AddItem(buyer, "P", 1, nil)
	require.NoError(t, err)
	view, err := e.orderSvc.Commit(buyer, testFields)
	require.NoError(t, err)
	return view
}

func TestLifecycle_ShippedRequiresTracking(t *testing.T) {
	e := newEnv(t)
	view := placeOrder(t, e)
	lc := services.NewLifecycle(e.orders)
	n := newCaptureNotifier()
	lc.Customers = n

	_, err := lc.SetStatus(view.Order.ID, domain.StatusShipped, "")
	assert.ErrorIs(t, err, services.ErrTrackingRequired)
	assert.Empty(t, n.sent(buyer), "rejected transition must not notify")

	o, err := lc.SetStatus(view.Order.ID, domain.StatusShipped, "TRK123")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusShipped, o.Status)
	assert.Equal(t, "TRK123", o.TrackingNumber)
	assert.NotEmpty(t, o.ShippedAt)

	msgs := n.sent(buyer)
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "TRK123")
}

func TestLifecycle_FullChainWithNotices(t *testing.T) {
	e := newEnv(t)
	view := placeOrder(t, e)
	lc := services.NewLifecycle(e.orders)
	n := newCaptureNotifier()
	lc.Customers = n

	o, err := lc.SetStatus(view.Order.ID, domain.StatusConfirmed, "")
	require.NoError(t, err)
	assert.NotEmpty(t, o.ConfirmedAt)

	_, err = lc.SetStatus(view.Order.ID, domain.StatusShipped, "TRK999")
	require.NoError(t, err)

	o, err = lc.SetStatus(view.Order.ID, domain.StatusArrived, "")
	require.NoError(t, err)
	assert.NotEmpty(t, o.ArrivedAt)

	msgs := n.sent(buyer)
	require.Len(t, msgs, 3)
	assert.Contains(t, msgs[2], "ready for pickup")
	assert.Contains(t, msgs[2], o.StoreCode)

	o, err = lc.SetStatus(view.Order.ID, domain.StatusCompleted, "")
	require.NoError(t, err)
	assert.NotEmpty(t, o.CompletedAt)
}

func TestLifecycle_RejectsBadTransitions(t *testing.T) {
	e := newEnv(t)
	view := placeOrder(t, e)
	lc := services.NewLifecycle(e.orders)

	// not adjacent in the chain
	_, err := lc.SetStatus(view.Order.ID, domain.StatusCompleted, "")
	assert.ErrorIs(t, err, services.ErrInvalidTransition)

	_, err = lc.SetStatus(view.Order.ID, domain.StatusPending, "")
	assert.ErrorIs(t, err, services.ErrStatusUnchanged)

	// cancellation is reachable from PENDING and CONFIRMED only
	o, err := lc.SetStatus(view.Order.ID, domain.StatusCancelled, "")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, o.Status)
	assert.NotEmpty(t, o.CancelledAt)

	_, err = lc.SetStatus(view.Order.ID, domain.StatusConfirmed, "")
	assert.ErrorIs(t, err, services.ErrInvalidTransition)
}

func TestLifecycle_StatusWriteGuardedOnObservedStatus(t *testing.T) {
	e := newEnv(t)
	view := placeOrder(t, e)

	// a write whose observed status went stale matches no row
	ok, err := e.orders.UpdateStatus(view.Order.ID, domain.StatusCancelled, "", domain.StatusConfirmed)
	require.NoError(t, err)
	assert.False(t, ok)
	got, _, err := e.orders.Get(view.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, got.Status)

	ok, err = e.orders.UpdateStatus(view.Order.ID, domain.StatusConfirmed, "", domain.StatusPending)
	require.NoError(t, err)
	assert.True(t, ok)

	// racing transitions from the same observed status: only one can land
	lc := services.NewLifecycle(e.orders)
	_, err = lc.SetStatus(view.Order.ID, domain.StatusShipped, "TRK12345")
	require.NoError(t, err)
	_, err = lc.SetStatus(view.Order.ID, domain.StatusCancelled, "")
	assert.ErrorIs(t, err, services.ErrInvalidTransition)
}

func TestLifecycle_NotifyFailureDoesNotBlockUpdate(t *testing.T) {
	e := newEnv(t)
	view := placeOrder(t, e)
	lc := services.NewLifecycle(e.orders)
	n := newCaptureNotifier()
	n.failFor[buyer] = assert.AnError // customer blocked the channel
	lc.Customers = n

	o, err := lc.SetStatus(view.Order.ID, domain.StatusConfirmed, "")
	require.NoError(t, err, "unreachable customer must not fail the transition")
	assert.Equal(t, domain.StatusConfirmed, o.Status)

	got, _, err := e.orders.Get(view.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, got.Status)
}
