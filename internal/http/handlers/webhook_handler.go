package handlers

import (
	"github.com/gofiber/fiber/v2"

	"shopbot/internal/chat"
	applog "shopbot/internal/log"
)

// WebhookHandler receives chat-platform updates and returns the replies the
// router produced as the response body.
type WebhookHandler struct {
	Router *chat.Router
}

func (h *WebhookHandler) Receive(c *fiber.Ctx) error {
	var u chat.Update
	if err := c.BodyParser(&u); err != nil {
		applog.Security(c, "webhook.bad_payload", map[string]any{"err": err.Error()})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad payload"})
	}
	if u.UserID <= 0 || (u.Text == "" && u.Callback == "") {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing user_id or input"})
	}

	col := &chat.Collector{}
	if err := h.Router.Handle(u, col); err != nil {
		applog.Error(c, "webhook.handle", err, map[string]any{"user_id": u.UserID})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
	return c.JSON(fiber.Map{"replies": col.Replies})
}
