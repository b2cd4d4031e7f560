package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"golang.org/x/crypto/bcrypt"

	"shopbot/internal/config"
	"shopbot/internal/events"
	"shopbot/internal/http/handlers"
	"shopbot/internal/notify"
	"shopbot/internal/repos"
)

// newApp wires the full route table over a seeded :memory: database, the same
// way main does minus the rate limiter.
func newApp(t *testing.T, cfg config.Config) *fiber.App {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if cfg.CheckoutTimeout == 0 {
		cfg.CheckoutTimeout = 10 * time.Minute
	}
	deps := handlers.NewDeps(db, cfg, events.Nop{}, notify.LogNotifier{})

	app := fiber.New()
	app.Use(requestid.New())
	app.Post("/webhook", deps.WebhookHandler.Receive)
	admin := app.Group("/admin", handlers.RequireToken(cfg.AdminTokenHash))
	admin.Get("/orders", deps.AdminHandler.ListOrders)
	admin.Get("/orders/:id", deps.AdminHandler.GetOrder)
	admin.Post("/orders/:id/status", deps.AdminHandler.UpdateStatus)
	admin.Post("/broadcast", deps.AdminHandler.BroadcastMessage)
	return app
}

func postJSON(t *testing.T, app *fiber.App, path string, body any, header map[string]string) (int, map[string]json.RawMessage) {
	t.Helper()
	buf, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req := httptest.NewRequest("POST", path, bytes.NewReader(buf))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()
	out := map[string]json.RawMessage{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

// send pushes one chat update through the webhook and returns the replies.
func send(t *testing.T, app *fiber.App, userID int64, text, callback string) []string {
	t.Helper()
	status, out := postJSON(t, app, "/webhook", map[string]any{
		"user_id": userID, "text": text, "callback": callback,
	}, nil)
	if status != fiber.StatusOK {
		t.Fatalf("webhook status = %d, body %v", status, out)
	}
	var replies []string
	if err := json.Unmarshal(out["replies"], &replies); err != nil {
		t.Fatalf("decode replies: %v", err)
	}
	if len(replies) == 0 {
		t.Fatal("expected at least one reply")
	}
	return replies
}

func TestWebhookCheckoutFlow(t *testing.T) {
	app := newApp(t, config.Config{})
	const user int64 = 7001

	replies := send(t, app, user, "", "ADD_milk-tea")
	if !strings.Contains(replies[0], "Added to cart") {
		t.Fatalf("add reply = %q", replies[0])
	}

	replies = send(t, app, user, "/cart", "")
	if !strings.Contains(replies[0], "Milk Tea") || !strings.Contains(replies[0], "$60") {
		t.Fatalf("cart reply = %q", replies[0])
	}

	replies = send(t, app, user, "/checkout", "")
	if !strings.Contains(replies[0], "Step 1/3") {
		t.Fatalf("checkout reply = %q", replies[0])
	}
	replies = send(t, app, user, "王小明", "")
	if !strings.Contains(replies[0], "Step 2/3") {
		t.Fatalf("name step reply = %q", replies[0])
	}
	replies = send(t, app, user, "0912-345-678", "")
	if !strings.Contains(replies[0], "Step 3/3") {
		t.Fatalf("phone step reply = %q", replies[0])
	}
	replies = send(t, app, user, "123456", "")
	if !strings.Contains(replies[0], "Order placed!") ||
		!strings.Contains(replies[0], "TDR") ||
		!strings.Contains(replies[0], "Songshan Station") {
		t.Fatalf("receipt = %q", replies[0])
	}

	// Cart must be empty after the order committed.
	replies = send(t, app, user, "/cart", "")
	if !strings.Contains(replies[0], "cart is empty") {
		t.Fatalf("post-order cart reply = %q", replies[0])
	}
}

func TestWebhookRejectsBadPayload(t *testing.T) {
	app := newApp(t, config.Config{})

	status, _ := postJSON(t, app, "/webhook", map[string]any{"text": "/start"}, nil)
	if status != fiber.StatusBadRequest {
		t.Fatalf("missing user_id: status = %d", status)
	}
	status, _ = postJSON(t, app, "/webhook", map[string]any{"user_id": 1}, nil)
	if status != fiber.StatusBadRequest {
		t.Fatalf("missing input: status = %d", status)
	}

	req := httptest.NewRequest("POST", "/webhook", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("malformed body: status = %d", resp.StatusCode)
	}
}

func TestAdminTokenGuard(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	app := newApp(t, config.Config{AdminTokenHash: string(hash)})

	resp, err := app.Test(httptest.NewRequest("GET", "/admin/orders", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusForbidden {
		t.Fatalf("no token: status = %d", resp.StatusCode)
	}

	req := httptest.NewRequest("GET", "/admin/orders", nil)
	req.Header.Set("X-Admin-Token", "wrong")
	resp, err = app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusForbidden {
		t.Fatalf("wrong token: status = %d", resp.StatusCode)
	}

	req = httptest.NewRequest("GET", "/admin/orders", nil)
	req.Header.Set("X-Admin-Token", "s3cret")
	resp, err = app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("valid token: status = %d", resp.StatusCode)
	}
}

func TestAdminUnconfiguredIsHidden(t *testing.T) {
	app := newApp(t, config.Config{})
	resp, err := app.Test(httptest.NewRequest("GET", "/admin/orders", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("unconfigured admin: status = %d", resp.StatusCode)
	}
}

func TestAdminStatusUpdate(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	app := newApp(t, config.Config{AdminTokenHash: string(hash)})
	auth := map[string]string{"X-Admin-Token": "s3cret"}
	const user int64 = 7002

	// Place an order through the webhook so there is something to drive.
	send(t, app, user, "", "ADD_milk-tea")
	send(t, app, user, "/checkout", "")
	send(t, app, user, "王小明", "")
	send(t, app, user, "0912345678", "")
	send(t, app, user, "123456", "")

	status, out := postJSON(t, app, "/webhook", map[string]any{"user_id": user, "text": "/orders"}, nil)
	if status != fiber.StatusOK {
		t.Fatalf("orders: status = %d", status)
	}
	var replies []string
	if err := json.Unmarshal(out["replies"], &replies); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(replies[0], "pending payment") {
		t.Fatalf("orders reply = %q", replies[0])
	}

	req := httptest.NewRequest("GET", "/admin/orders?status=PENDING", nil)
	req.Header.Set("X-Admin-Token", "s3cret")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	var listed struct {
		Orders []struct {
			ID      string `json:"id"`
			OrderNo string `json:"order_no"`
		} `json:"orders"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&listed); err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if len(listed.Orders) != 1 {
		t.Fatalf("pending orders = %d, want 1", len(listed.Orders))
	}
	orderID := listed.Orders[0].ID

	// The customer can open the order detail from the history list.
	detail := send(t, app, user, "", "ORDER_"+orderID)
	if !strings.Contains(detail[0], listed.Orders[0].OrderNo) ||
		!strings.Contains(detail[0], "Pickup store: 123456") {
		t.Fatalf("order detail = %q", detail[0])
	}
	// Another user gets nothing.
	other := send(t, app, user+1, "", "ORDER_"+orderID)
	if other[0] != "Order not found." {
		t.Fatalf("foreign order detail = %q", other[0])
	}

	// Shipping without tracking is a client error, not a server one.
	status, _ = postJSON(t, app, "/admin/orders/"+orderID+"/status",
		map[string]any{"status": "shipped"}, auth)
	if status != fiber.StatusBadRequest {
		t.Fatalf("ship without tracking: status = %d", status)
	}

	status, _ = postJSON(t, app, "/admin/orders/"+orderID+"/status",
		map[string]any{"status": "shipped", "tracking": "TRK12345"}, auth)
	if status != fiber.StatusOK {
		t.Fatalf("ship: status = %d", status)
	}

	// Regressing the lifecycle is rejected.
	status, _ = postJSON(t, app, "/admin/orders/"+orderID+"/status",
		map[string]any{"status": "confirmed"}, auth)
	if status != fiber.StatusBadRequest {
		t.Fatalf("regress: status = %d", status)
	}
}
