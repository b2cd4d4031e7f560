// Package log configures the process-wide zerolog logger and keeps the
// action-style helpers the HTTP layer logs through.
package log

import (
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup installs the global logger. Pretty selects the console writer for
// local runs; the default is one JSON object per line.
func Setup(pretty bool) {
	zerolog.TimeFieldFormat = time.RFC3339
	if pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
	}
}

func event(level zerolog.Level, c *fiber.Ctx, action string) *zerolog.Event {
	e := log.WithLevel(level).Str("action", action)
	if c != nil {
		e = e.Str("ip", c.IP()).Str("method", c.Method()).Str("path", c.Path())
		if rid, ok := c.Locals("requestid").(string); ok && rid != "" {
			e = e.Str("req_id", rid)
		}
	}
	return e
}

func Info(c *fiber.Ctx, action string, fields map[string]any) {
	event(zerolog.InfoLevel, c, action).Fields(fields).Msg("")
}

// Audit marks state-changing operations an operator may need to trace.
func Audit(c *fiber.Ctx, action string, fields map[string]any) {
	event(zerolog.InfoLevel, c, action).Bool("audit", true).Fields(fields).Msg("")
}

// Security marks rejected input, failed auth and rate-limit hits.
func Security(c *fiber.Ctx, action string, fields map[string]any) {
	event(zerolog.WarnLevel, c, action).Fields(fields).Msg("")
}

func Error(c *fiber.Ctx, action string, err error, fields map[string]any) {
	event(zerolog.ErrorLevel, c, action).Err(err).Fields(fields).Msg("")
}
