package stripe

import (
	"encoding/json"
	"time"

	"github.com/lessonpay/lessonpay/internal/config"
	"github.com/lessonpay/lessonpay/internal/domain/gateway"
	ierr "github.com/lessonpay/lessonpay/internal/errors"
	"github.com/lessonpay/lessonpay/internal/logger"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

// EventVerifier verifies Stripe-Signature headers
type EventVerifier struct {
	config *config.StripeConfig
	logger *logger.Logger
}

var _ gateway.EventVerifier = (*EventVerifier)(nil)

// NewEventVerifier creates a verifier using the configured webhook secret
func NewEventVerifier(cfg *config.Configuration, logger *logger.Logger) gateway.EventVerifier {
	return &EventVerifier{
		config: &cfg.Stripe,
		logger: logger,
	}
}

// VerifyEvent parses a Stripe webhook event with signature verification
func (v *EventVerifier) VerifyEvent(payload []byte, signature string) (*gateway.Event, error) {
	if v.config.WebhookSecret == "" {
		return nil, ierr.NewError("stripe webhook secret not configured").
			WithHint("Server misconfigured: STRIPE_WEBHOOK_SECRET is not set").
			Mark(ierr.ErrMisconfiguration)
	}

	// Verify the webhook signature, ignoring API version mismatch
	options := webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	}
	event, err := webhook.ConstructEventWithOptions(payload, signature, v.config.WebhookSecret, options)
	if err != nil {
		v.logger.Errorw("Stripe webhook verification failed", "error", err)
		return nil, ierr.WithError(err).
			WithHint("Webhook Error: invalid signature").
			Mark(ierr.ErrInvalidSignature)
	}

	return v.toEvent(&event), nil
}

// toEvent leaves CheckoutSession nil when the session object cannot be
// decoded; the event is still authentic and is acknowledged as malformed
func (v *EventVerifier) toEvent(event *stripe.Event) *gateway.Event {
	out := &gateway.Event{
		ID:       event.ID,
		Type:     string(event.Type),
		Created:  time.Unix(event.Created, 0).UTC(),
		LiveMode: event.Livemode,
	}

	if !out.IsCheckoutCompleted() || event.Data == nil {
		return out
	}

	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		v.logger.Warnw("undecodable checkout session in webhook event",
			"event_id", event.ID,
			"error", err)
		return out
	}
	out.CheckoutSession = toCheckoutSession(&session)

	return out
}
