package stripe

import (
	"context"

	"github.com/lessonpay/lessonpay/internal/domain/gateway"
	ierr "github.com/lessonpay/lessonpay/internal/errors"
	"github.com/lessonpay/lessonpay/internal/types"
	"github.com/samber/lo"
	"github.com/stripe/stripe-go/v82"
)

// CreateCheckoutSession creates a hosted checkout for a one-time charge, or a
// setup-only checkout when nothing is owed now
func (g *Gateway) CreateCheckoutSession(ctx context.Context, input *gateway.CreateCheckoutSessionInput) (*gateway.CheckoutSession, error) {
	stripeClient, err := g.client.GetStripeClient()
	if err != nil {
		return nil, err
	}

	params := &stripe.CheckoutSessionCreateParams{
		Mode:       stripe.String(string(input.Mode)),
		Customer:   stripe.String(input.CustomerID),
		SuccessURL: stripe.String(input.SuccessURL),
		CancelURL:  stripe.String(input.CancelURL),
		Metadata:   input.Metadata,
		PaymentMethodTypes: []*string{
			stripe.String("card"),
		},
	}

	switch input.Mode {
	case gateway.CheckoutModeSetup:
		params.Currency = stripe.String(input.Currency) // Required by Stripe even for setup mode
		params.SetupIntentData = &stripe.CheckoutSessionCreateSetupIntentDataParams{
			Metadata: input.Metadata,
		}
	default:
		params.LineItems = []*stripe.CheckoutSessionCreateLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionCreateLineItemPriceDataParams{
					Currency: stripe.String(input.Currency),
					ProductData: &stripe.CheckoutSessionCreateLineItemPriceDataProductDataParams{
						Name:        stripe.String(input.ProductName),
						Description: lo.Ternary(input.Description != "", stripe.String(input.Description), nil),
					},
					UnitAmount: stripe.Int64(input.Amount),
				},
				Quantity: stripe.Int64(1),
			},
		}
		params.PaymentIntentData = &stripe.CheckoutSessionCreatePaymentIntentDataParams{
			Metadata: input.Metadata,
		}
		if input.SaveForFutureUse {
			params.PaymentIntentData.SetupFutureUsage = stripe.String(types.SetupFutureUsageOffSession)
		}
	}

	if input.IdempotencyKey != "" {
		params.SetIdempotencyKey(input.IdempotencyKey)
	}

	session, err := stripeClient.V1CheckoutSessions.Create(ctx, params)
	if err != nil {
		g.logger.Errorw("failed to create Stripe checkout session",
			"error", err,
			"stripe_customer_id", input.CustomerID,
			"mode", input.Mode)
		return nil, gatewayError("create checkout session", err)
	}

	g.logger.Infow("created Stripe checkout session",
		"session_id", session.ID,
		"stripe_customer_id", input.CustomerID,
		"mode", input.Mode,
		"amount", input.Amount)

	return toCheckoutSession(session), nil
}

// GetCheckoutPaymentMethod returns the payment method a completed session
// collected, from its payment intent or, for setup sessions, its setup intent
func (g *Gateway) GetCheckoutPaymentMethod(ctx context.Context, sessionID string) (string, error) {
	stripeClient, err := g.client.GetStripeClient()
	if err != nil {
		return "", err
	}

	params := &stripe.CheckoutSessionRetrieveParams{
		Expand: []*string{
			stripe.String("payment_intent"),
			stripe.String("setup_intent"),
		},
	}
	session, err := stripeClient.V1CheckoutSessions.Retrieve(ctx, sessionID, params)
	if err != nil {
		g.logger.Errorw("failed to get Stripe checkout session",
			"error", err,
			"session_id", sessionID)
		return "", gatewayError("retrieve checkout session", err)
	}

	if session.PaymentIntent != nil && session.PaymentIntent.PaymentMethod != nil {
		return session.PaymentIntent.PaymentMethod.ID, nil
	}
	if session.SetupIntent != nil && session.SetupIntent.PaymentMethod != nil {
		return session.SetupIntent.PaymentMethod.ID, nil
	}

	// The expanded intent may not carry the method yet; ask the intent itself
	if session.PaymentIntent != nil && session.PaymentIntent.ID != "" {
		pi, err := stripeClient.V1PaymentIntents.Retrieve(ctx, session.PaymentIntent.ID, nil)
		if err != nil {
			return "", gatewayError("retrieve payment intent", err)
		}
		if pi.PaymentMethod != nil {
			return pi.PaymentMethod.ID, nil
		}
	}

	return "", ierr.NewError("checkout session has no payment method").
		WithHint("The completed checkout did not collect a payment method").
		WithReportableDetails(map[string]any{"session_id": sessionID}).
		Mark(ierr.ErrNotFound)
}

func toCheckoutSession(s *stripe.CheckoutSession) *gateway.CheckoutSession {
	out := &gateway.CheckoutSession{
		ID:            s.ID,
		URL:           s.URL,
		Mode:          gateway.CheckoutMode(s.Mode),
		PaymentStatus: string(s.PaymentStatus),
		Metadata:      types.Metadata(lo.Assign(map[string]string{}, s.Metadata)),
	}
	if s.Customer != nil {
		out.CustomerID = s.Customer.ID
	}
	if s.PaymentIntent != nil {
		out.PaymentIntentID = s.PaymentIntent.ID
	}
	if s.SetupIntent != nil {
		out.SetupIntentID = s.SetupIntent.ID
	}
	return out
}
