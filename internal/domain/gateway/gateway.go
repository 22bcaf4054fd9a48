package gateway

import "context"

// Gateway is the remote payment service. It owns customers, checkout
// sessions, payment methods and subscriptions; this service keeps no copy of
// them. Every call is a blocking remote call.
type Gateway interface {
	// FindCustomerByEmail returns an existing customer or an ErrNotFound error
	FindCustomerByEmail(ctx context.Context, email string) (*Customer, error)
	CreateCustomer(ctx context.Context, input *CreateCustomerInput) (*Customer, error)
	// UpdateCustomer replaces name, phone and merges metadata of an existing customer
	UpdateCustomer(ctx context.Context, customerID string, name, phone string, metadata map[string]string) (*Customer, error)

	CreateCheckoutSession(ctx context.Context, input *CreateCheckoutSessionInput) (*CheckoutSession, error)
	// GetCheckoutPaymentMethod returns the payment method a completed
	// checkout session collected
	GetCheckoutPaymentMethod(ctx context.Context, sessionID string) (string, error)

	// AttachPaymentMethod attaches a payment method to a customer; attaching
	// one that already belongs to the customer is a no-op
	AttachPaymentMethod(ctx context.Context, paymentMethodID, customerID string) error
	SetDefaultPaymentMethod(ctx context.Context, customerID, paymentMethodID string) error

	// FindSubscription returns the live (not canceled or expired) subscription
	// of the customer to the price that was created for the checkout session,
	// or an ErrNotFound error
	FindSubscription(ctx context.Context, customerID, priceID, sessionID string) (*Subscription, error)
	CreateSubscription(ctx context.Context, input *CreateSubscriptionInput) (*Subscription, error)
}

// EventVerifier authenticates signed webhook payloads
type EventVerifier interface {
	// VerifyEvent checks the signature header against the raw payload and
	// decodes the event. Failures are ErrInvalidSignature errors.
	VerifyEvent(payload []byte, signature string) (*Event, error)
}
