package stripe

import (
	"context"

	"github.com/stripe/stripe-go/v82"
)

// AttachPaymentMethod attaches a payment method to a customer unless it is
// already attached to that customer
func (g *Gateway) AttachPaymentMethod(ctx context.Context, paymentMethodID, customerID string) error {
	stripeClient, err := g.client.GetStripeClient()
	if err != nil {
		return err
	}

	pm, err := stripeClient.V1PaymentMethods.Retrieve(ctx, paymentMethodID, nil)
	if err != nil {
		return gatewayError("retrieve payment method", err)
	}
	if pm.Customer != nil && pm.Customer.ID == customerID {
		g.logger.Debugw("payment method already attached",
			"payment_method_id", paymentMethodID,
			"stripe_customer_id", customerID)
		return nil
	}

	_, err = stripeClient.V1PaymentMethods.Attach(ctx, paymentMethodID, &stripe.PaymentMethodAttachParams{
		Customer: stripe.String(customerID),
	})
	if err != nil {
		g.logger.Errorw("failed to attach payment method",
			"error", err,
			"payment_method_id", paymentMethodID,
			"stripe_customer_id", customerID)
		return gatewayError("attach payment method", err)
	}

	g.logger.Infow("attached payment method to customer",
		"payment_method_id", paymentMethodID,
		"stripe_customer_id", customerID)
	return nil
}

// SetDefaultPaymentMethod makes the payment method the customer's invoice default
func (g *Gateway) SetDefaultPaymentMethod(ctx context.Context, customerID, paymentMethodID string) error {
	stripeClient, err := g.client.GetStripeClient()
	if err != nil {
		return err
	}

	params := &stripe.CustomerUpdateParams{
		InvoiceSettings: &stripe.CustomerUpdateInvoiceSettingsParams{
			DefaultPaymentMethod: stripe.String(paymentMethodID),
		},
	}

	if _, err := stripeClient.V1Customers.Update(ctx, customerID, params); err != nil {
		g.logger.Errorw("failed to set default payment method",
			"error", err,
			"payment_method_id", paymentMethodID,
			"stripe_customer_id", customerID)
		return gatewayError("set default payment method", err)
	}

	return nil
}
