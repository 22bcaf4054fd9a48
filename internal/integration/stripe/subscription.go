package stripe

import (
	"context"
	"time"

	"github.com/lessonpay/lessonpay/internal/domain/gateway"
	ierr "github.com/lessonpay/lessonpay/internal/errors"
	"github.com/lessonpay/lessonpay/internal/types"
	"github.com/samber/lo"
	"github.com/stripe/stripe-go/v82"
)

// subscription statuses that no longer bill and may be replaced
var endedStatuses = []stripe.SubscriptionStatus{
	stripe.SubscriptionStatusCanceled,
	stripe.SubscriptionStatusIncompleteExpired,
}

// FindSubscription returns the live subscription of the customer to the price
// that was activated from the checkout session
func (g *Gateway) FindSubscription(ctx context.Context, customerID, priceID, sessionID string) (*gateway.Subscription, error) {
	stripeClient, err := g.client.GetStripeClient()
	if err != nil {
		return nil, err
	}

	params := &stripe.SubscriptionListParams{
		Customer: stripe.String(customerID),
		Price:    stripe.String(priceID),
		Status:   stripe.String("all"),
	}

	for sub, err := range stripeClient.V1Subscriptions.List(ctx, params) {
		if err != nil {
			if isResourceMissing(err) {
				break
			}
			g.logger.Errorw("failed to list Stripe subscriptions",
				"error", err,
				"stripe_customer_id", customerID)
			return nil, gatewayError("list subscriptions", err)
		}
		if lo.Contains(endedStatuses, sub.Status) || sub.Metadata[types.MetadataKeySessionID] != sessionID {
			continue
		}
		return toSubscription(sub), nil
	}

	return nil, ierr.NewError("subscription not found").
		WithHint("No live subscription exists for this checkout session").
		Mark(ierr.ErrNotFound)
}

// CreateSubscription creates the recurring subscription
func (g *Gateway) CreateSubscription(ctx context.Context, input *gateway.CreateSubscriptionInput) (*gateway.Subscription, error) {
	stripeClient, err := g.client.GetStripeClient()
	if err != nil {
		return nil, err
	}

	params := &stripe.SubscriptionCreateParams{
		Customer: stripe.String(input.CustomerID),
		Items: []*stripe.SubscriptionCreateItemParams{
			{Price: stripe.String(input.PriceID)},
		},
		BillingCycleAnchor: stripe.Int64(input.BillingCycleAnchor.Unix()),
		ProrationBehavior:  stripe.String(input.ProrationBehavior),
		PaymentBehavior:    stripe.String(input.PaymentBehavior),
		Metadata:           input.Metadata,
	}
	if input.DefaultPaymentMethodID != "" {
		params.DefaultPaymentMethod = stripe.String(input.DefaultPaymentMethodID)
	}
	if input.IdempotencyKey != "" {
		params.SetIdempotencyKey(input.IdempotencyKey)
	}

	sub, err := stripeClient.V1Subscriptions.Create(ctx, params)
	if err != nil {
		g.logger.Errorw("failed to create Stripe subscription",
			"error", err,
			"stripe_customer_id", input.CustomerID,
			"price_id", input.PriceID)
		return nil, gatewayError("create subscription", err)
	}

	g.logger.Infow("created Stripe subscription",
		"subscription_id", sub.ID,
		"stripe_customer_id", input.CustomerID,
		"status", sub.Status,
		"billing_cycle_anchor", input.BillingCycleAnchor)

	return toSubscription(sub), nil
}

func toSubscription(s *stripe.Subscription) *gateway.Subscription {
	out := &gateway.Subscription{
		ID:                 s.ID,
		Status:             string(s.Status),
		BillingCycleAnchor: time.Unix(s.BillingCycleAnchor, 0).UTC(),
		Metadata:           types.Metadata(lo.Assign(map[string]string{}, s.Metadata)),
	}
	if s.Customer != nil {
		out.CustomerID = s.Customer.ID
	}
	if s.Items != nil && len(s.Items.Data) > 0 && s.Items.Data[0].Price != nil {
		out.PriceID = s.Items.Data[0].Price.ID
	}
	return out
}
