package stripe

import (
	"github.com/lessonpay/lessonpay/internal/config"
	ierr "github.com/lessonpay/lessonpay/internal/errors"
	"github.com/lessonpay/lessonpay/internal/logger"
	"github.com/stripe/stripe-go/v82"
)

// Client handles Stripe API client setup and configuration
type Client struct {
	config *config.StripeConfig
	logger *logger.Logger
}

// NewClient creates a new Stripe client
func NewClient(cfg *config.Configuration, logger *logger.Logger) *Client {
	return &Client{
		config: &cfg.Stripe,
		logger: logger,
	}
}

// GetStripeClient returns a configured Stripe client. The secret key is
// checked on every call so a deployment without it still serves requests
// that do not need the gateway.
func (c *Client) GetStripeClient() (*stripe.Client, error) {
	if c.config.SecretKey == "" {
		return nil, ierr.NewError("stripe secret key not configured").
			WithHint("Server misconfigured: STRIPE_SECRET_KEY is not set").
			WithReportableDetails(map[string]any{"setting": "STRIPE_SECRET_KEY"}).
			Mark(ierr.ErrMisconfiguration)
	}

	return stripe.NewClient(c.config.SecretKey, nil), nil
}

// LiveMode reports whether the configured key is expected to be a live key
func (c *Client) LiveMode() bool {
	return c.config.LiveMode
}
