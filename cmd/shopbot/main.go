package main

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/rs/zerolog/log"

	"shopbot/internal/config"
	"shopbot/internal/events"
	"shopbot/internal/http/handlers"
	applog "shopbot/internal/log"
	"shopbot/internal/notify"
	"shopbot/internal/repos"
)

func main() {
	cfg := config.Load()
	applog.Setup(cfg.LogPretty)

	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}

	var bus events.Publisher = events.Nop{}
	if cfg.AMQPURL != "" {
		pub, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.EventExchange)
		if err != nil {
			log.Fatal().Err(err).Msg("connect event broker")
		}
		defer pub.Close()
		bus = pub
	}

	// The chat transport delivers outbound messages; until one is attached,
	// notifications land in the log.
	var customers notify.Notifier = notify.LogNotifier{}

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Error(c, "server.error", err, nil)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
		},
	})
	app.Server().MaxRequestBodySize = 1 << 20 // 1 MiB

	app.Use(requestid.New())
	app.Use(recover.New())
	app.Use(func(c *fiber.Ctx) error {
		err := c.Next()
		applog.Info(c, "http.access", map[string]any{"status": c.Response().StatusCode()})
		return err
	})

	deps := handlers.NewDeps(db, cfg, bus, customers)

	app.Post("/webhook", limiter.New(limiter.Config{
		Max:        60,
		Expiration: time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.webhook.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "rate limit exceeded"})
		},
	}), deps.WebhookHandler.Receive)

	admin := app.Group("/admin", handlers.RequireToken(cfg.AdminTokenHash))
	admin.Get("/orders", deps.AdminHandler.ListOrders)
	admin.Get("/orders/:id", deps.AdminHandler.GetOrder)
	admin.Post("/orders/:id/status", deps.AdminHandler.UpdateStatus)
	admin.Post("/broadcast", deps.AdminHandler.BroadcastMessage)

	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })

	log.Fatal().Err(app.Listen(":" + cfg.Port)).Msg("server stopped")
}
