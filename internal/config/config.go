package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Port            string
	DBDSN           string
	AMQPURL         string // empty disables the AMQP event publisher
	EventExchange   string
	AdminTokenHash  string // bcrypt hash of the admin API token
	OperatorIDs     []int64
	CheckoutTimeout time.Duration
	LogPretty       bool
}

func Load() Config {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := Config{
		Port:            getenv("PORT", "8080"),
		DBDSN:           getenv("DB_DSN", "shopbot.db"),
		AMQPURL:         os.Getenv("AMQP_URL"),
		EventExchange:   getenv("EVENT_EXCHANGE", "shopbot.events"),
		AdminTokenHash:  os.Getenv("ADMIN_TOKEN_HASH"),
		OperatorIDs:     parseIDs(os.Getenv("OPERATOR_IDS")),
		CheckoutTimeout: parseDuration(getenv("CHECKOUT_TIMEOUT", "10m")),
		LogPretty:       os.Getenv("LOG_PRETTY") == "1",
	}
	log.Info().
		Str("port", cfg.Port).
		Str("db_dsn", cfg.DBDSN).
		Int("operators", len(cfg.OperatorIDs)).
		Dur("checkout_timeout", cfg.CheckoutTimeout).
		Bool("amqp", cfg.AMQPURL != "").
		Msg("config loaded")
	return cfg
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// parseIDs reads a comma-separated operator id list, e.g. "123456,987654".
func parseIDs(s string) []int64 {
	var out []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			log.Warn().Str("value", part).Msg("config: skipping bad operator id")
			continue
		}
		out = append(out, id)
	}
	return out
}

func parseDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 10 * time.Minute
	}
	return d
}
