package stripe

import (
	"context"

	"github.com/lessonpay/lessonpay/internal/domain/gateway"
	ierr "github.com/lessonpay/lessonpay/internal/errors"
	"github.com/lessonpay/lessonpay/internal/types"
	"github.com/samber/lo"
	"github.com/stripe/stripe-go/v82"
)

// FindCustomerByEmail returns the most recent Stripe customer with the email
func (g *Gateway) FindCustomerByEmail(ctx context.Context, email string) (*gateway.Customer, error) {
	stripeClient, err := g.client.GetStripeClient()
	if err != nil {
		return nil, err
	}

	params := &stripe.CustomerListParams{
		Email: stripe.String(email),
	}
	params.Limit = stripe.Int64(1)

	for c, err := range stripeClient.V1Customers.List(ctx, params) {
		if err != nil {
			g.logger.Errorw("failed to list Stripe customers by email", "error", err)
			return nil, gatewayError("find customer", err)
		}
		return toCustomer(c), nil
	}

	return nil, ierr.NewError("customer not found").
		WithHint("No customer exists for this email").
		Mark(ierr.ErrNotFound)
}

// CreateCustomer creates a customer in Stripe
func (g *Gateway) CreateCustomer(ctx context.Context, input *gateway.CreateCustomerInput) (*gateway.Customer, error) {
	stripeClient, err := g.client.GetStripeClient()
	if err != nil {
		return nil, err
	}

	params := &stripe.CustomerCreateParams{
		Name:     stripe.String(input.Name),
		Email:    stripe.String(input.Email),
		Phone:    stripe.String(input.Phone),
		Metadata: input.Metadata,
	}

	if input.PaymentMethodID != "" {
		params.PaymentMethod = stripe.String(input.PaymentMethodID)
		params.InvoiceSettings = &stripe.CustomerCreateInvoiceSettingsParams{
			DefaultPaymentMethod: stripe.String(input.PaymentMethodID),
		}
	}

	if input.IdempotencyKey != "" {
		params.SetIdempotencyKey(input.IdempotencyKey)
	}

	c, err := stripeClient.V1Customers.Create(ctx, params)
	if err != nil {
		g.logger.Errorw("failed to create Stripe customer", "error", err)
		return nil, gatewayError("create customer", err)
	}

	g.logger.Infow("created Stripe customer", "stripe_customer_id", c.ID)
	return toCustomer(c), nil
}

// UpdateCustomer refreshes contact details and merges metadata
func (g *Gateway) UpdateCustomer(ctx context.Context, customerID string, name, phone string, metadata map[string]string) (*gateway.Customer, error) {
	stripeClient, err := g.client.GetStripeClient()
	if err != nil {
		return nil, err
	}

	params := &stripe.CustomerUpdateParams{
		Metadata: metadata,
	}
	if name != "" {
		params.Name = stripe.String(name)
	}
	if phone != "" {
		params.Phone = stripe.String(phone)
	}

	c, err := stripeClient.V1Customers.Update(ctx, customerID, params)
	if err != nil {
		g.logger.Errorw("failed to update Stripe customer",
			"error", err,
			"stripe_customer_id", customerID)
		return nil, gatewayError("update customer", err)
	}

	return toCustomer(c), nil
}

func toCustomer(c *stripe.Customer) *gateway.Customer {
	return &gateway.Customer{
		ID:       c.ID,
		Name:     c.Name,
		Email:    c.Email,
		Phone:    c.Phone,
		Metadata: types.Metadata(lo.Assign(map[string]string{}, c.Metadata)),
	}
}
