package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"shopbot/internal/domain"
	applog "shopbot/internal/log"
	"shopbot/internal/notify"
	"shopbot/internal/repos"
	"shopbot/internal/services"
	"shopbot/internal/validate"
)

type AdminHandler struct {
	Orders    *repos.OrderRepo
	Lifecycle *services.Lifecycle
	Users     *repos.UserRepo
	Broadcast *notify.Broadcaster
}

// ListOrders returns recent orders, optionally filtered by ?status=.
func (h *AdminHandler) ListOrders(c *fiber.Ctx) error {
	status := strings.ToUpper(strings.TrimSpace(c.Query("status")))
	var (
		orders []domain.Order
		err    error
	)
	if status != "" {
		orders, err = h.Orders.ListByStatus(domain.OrderStatus(status), 50)
	} else {
		orders, err = h.Orders.ListLatest(50)
	}
	if err != nil {
		applog.Error(c, "admin.orders.list", err, nil)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
	return c.JSON(fiber.Map{"orders": orders})
}

func (h *AdminHandler) GetOrder(c *fiber.Ctx) error {
	o, lines, err := h.Orders.Get(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "order not found"})
	}
	return c.JSON(fiber.Map{"order": o, "lines": lines})
}

type statusReq struct {
	Status   string `json:"status"`
	Tracking string `json:"tracking"`
}

// UpdateStatus drives the order lifecycle. Shipping without a tracking number
// is rejected by the lifecycle itself.
func (h *AdminHandler) UpdateStatus(c *fiber.Ctx) error {
	var req statusReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad payload"})
	}
	tracking := ""
	if req.Tracking != "" {
		t, ok := validate.Tracking(req.Tracking)
		if !ok {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid tracking number"})
		}
		tracking = t
	}

	o, err := h.Lifecycle.SetStatus(c.Params("id"), domain.OrderStatus(strings.ToUpper(req.Status)), tracking)
	switch {
	case err == nil:
	case errors.Is(err, services.ErrTrackingRequired),
		errors.Is(err, services.ErrInvalidTransition),
		errors.Is(err, services.ErrStatusUnchanged):
		applog.Security(c, "admin.status.rejected", map[string]any{"order_id": c.Params("id"), "err": err.Error()})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	default:
		applog.Error(c, "admin.status.update", err, map[string]any{"order_id": c.Params("id")})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}

	applog.Audit(c, "admin.status.update", map[string]any{
		"order_no": o.OrderNo, "status": string(o.Status), "tracking": tracking != "",
	})
	return c.JSON(fiber.Map{"order": o})
}

type broadcastReq struct {
	Text string `json:"text"`
}

// BroadcastMessage fans a staff notice out to every known user. Per-recipient
// failures are counted, never fatal.
func (h *AdminHandler) BroadcastMessage(c *fiber.Ctx) error {
	var req broadcastReq
	if err := c.BodyParser(&req); err != nil || strings.TrimSpace(req.Text) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing text"})
	}
	ids, err := h.Users.AllIDs()
	if err != nil {
		applog.Error(c, "admin.broadcast.targets", err, nil)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
	sent, failed := h.Broadcast.Send(ids, strings.TrimSpace(req.Text))
	applog.Audit(c, "admin.broadcast", map[string]any{"sent": sent, "failed": failed})
	return c.JSON(fiber.Map{"sent": sent, "failed": failed})
}
