package stripe

import "time"

// Config holds Stripe client configuration. The secret key is scoped to this
// client instance; nothing is written to stripe-go's package-level key.
type Config struct {
	SecretKey     string        `env:"STRIPE_SECRET_KEY,required"`
	WebhookSecret string        `env:"STRIPE_WEBHOOK_SECRET"`
	CallTimeout   time.Duration `env:"STRIPE_CALL_TIMEOUT" envDefault:"15s"`
}
