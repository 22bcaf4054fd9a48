package config

import (
	ierr "github.com/lessonpay/lessonpay/internal/errors"
)

// RequireEnrollment reports the first configuration value the enrollment
// endpoints need but do not have.
func (c *Configuration) RequireEnrollment() error {
	if c.Stripe.SecretKey == "" {
		return misconfigured("STRIPE_SECRET_KEY")
	}
	if c.Server.ClientURL == "" {
		return misconfigured("CLIENT_URL")
	}
	return nil
}

// RequireWebhook reports missing configuration for the webhook endpoint
func (c *Configuration) RequireWebhook() error {
	if c.Stripe.SecretKey == "" {
		return misconfigured("STRIPE_SECRET_KEY")
	}
	if c.Stripe.WebhookSecret == "" {
		return misconfigured("STRIPE_WEBHOOK_SECRET")
	}
	return nil
}

func misconfigured(name string) error {
	return ierr.NewError("missing required configuration").
		WithHintf("Server misconfigured: %s is not set", name).
		WithReportableDetails(map[string]any{"setting": name}).
		Mark(ierr.ErrMisconfiguration)
}

// RequireGateway reports a missing gateway secret key
func (c *Configuration) RequireGateway() error {
	if c.Stripe.SecretKey == "" {
		return misconfigured("STRIPE_SECRET_KEY")
	}
	return nil
}
