// Package config loads service configuration from flags and environment
// variables.
package config

import (
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Database holds PostgreSQL connection settings.
type Database struct {
	Host     string `long:"host" env:"HOST" default:"localhost" description:"PostgreSQL host"`
	Port     string `long:"port" env:"PORT" default:"5432" description:"PostgreSQL port"`
	User     string `long:"user" env:"USER" default:"postgres" description:"PostgreSQL user"`
	Password string `long:"password" env:"PASSWORD" default:"postgres" description:"PostgreSQL password"`
	Name     string `long:"name" env:"NAME" default:"eventbooking" description:"PostgreSQL database"`
	SSLMode  string `long:"sslmode" env:"SSLMODE" default:"disable" description:"PostgreSQL sslmode"`
}

// DSN builds a libpq-compatible connection string.
func (c Database) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// Ticket configures signed ticket tokens.
type Ticket struct {
	Secret             string        `long:"secret" env:"SECRET" description:"HMAC secret for ticket tokens"`
	Algorithm          string        `long:"algorithm" env:"ALGORITHM" default:"HS256" choice:"HS256" choice:"HS384" choice:"HS512" description:"ticket token signing algorithm"`
	ValidityAfterEvent time.Duration `long:"validity-after-event" env:"VALIDITY_AFTER_EVENT" default:"24h" description:"how long a ticket stays valid after the event date, 0 disables expiry"`
}

// Payment configures the Stripe checkout integration.
type Payment struct {
	StripeSecretKey string `long:"stripe-secret-key" env:"STRIPE_SECRET_KEY" description:"Stripe API secret key"`
	SuccessURL      string `long:"success-url" env:"PAYMENT_SUCCESS_URL" default:"http://localhost:8080/payments/success?session_id={CHECKOUT_SESSION_ID}" description:"checkout success redirect"`
	CancelURL       string `long:"cancel-url" env:"PAYMENT_CANCEL_URL" default:"http://localhost:3000/cancel" description:"checkout cancel redirect"`
}

// Config is the full service configuration.
type Config struct {
	Port           string        `long:"port" env:"PORT" default:"8080" description:"HTTP listen port"`
	LogLevel       string        `long:"log-level" env:"LOG_LEVEL" default:"info" description:"logrus level"`
	RedisAddr      string        `long:"redis-addr" env:"REDIS_ADDR" description:"Redis address; enables distributed locks and redis-stream messaging"`
	LockTTL        time.Duration `long:"lock-ttl" env:"LOCK_TTL" default:"30s" description:"registration lock lease"`
	RepairInterval time.Duration `long:"repair-interval" env:"REPAIR_INTERVAL" default:"1m" description:"ledger repair sweep interval, 0 disables the sweep"`
	RepairBatch    int           `long:"repair-batch" env:"REPAIR_BATCH" default:"100" description:"attendees repaired per sweep"`

	DB      Database `group:"database" namespace:"db" env-namespace:"DB"`
	Ticket  Ticket   `group:"ticket" namespace:"ticket" env-namespace:"TICKET_TOKEN"`
	Payment Payment  `group:"payment" namespace:"payment"`
}

// Load parses args and the environment. Unknown flags are an error.
func Load(args []string) (Config, error) {
	var cfg Config
	parser := flags.NewParser(&cfg, flags.HelpFlag|flags.PassDoubleDash)
	if _, err := parser.ParseArgs(args); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Validate checks the settings the HTTP service cannot run without.
func (c Config) Validate() error {
	if c.Ticket.Secret == "" {
		return fmt.Errorf("TICKET_TOKEN_SECRET is required")
	}
	if c.Payment.StripeSecretKey == "" {
		return fmt.Errorf("STRIPE_SECRET_KEY is required")
	}
	if c.RepairBatch <= 0 {
		return fmt.Errorf("repair batch must be positive")
	}
	return nil
}
