package gateway

import (
	"time"

	"github.com/lessonpay/lessonpay/internal/types"
)

// Customer is the gateway's payer record
type Customer struct {
	ID       string
	Name     string
	Email    string
	Phone    string
	Metadata types.Metadata
}

// CreateCustomerInput describes a new payer
type CreateCustomerInput struct {
	Name     string
	Email    string
	Phone    string
	Metadata types.Metadata
	// PaymentMethodID, when set, becomes the customer's default for invoices
	PaymentMethodID string
	IdempotencyKey  string
}

// CheckoutMode is the kind of hosted checkout flow
type CheckoutMode string

const (
	// CheckoutModePayment collects a one-time payment
	CheckoutModePayment CheckoutMode = "payment"
	// CheckoutModeSetup only collects a payment method
	CheckoutModeSetup CheckoutMode = "setup"
)

// CreateCheckoutSessionInput describes a one-time checkout
type CreateCheckoutSessionInput struct {
	CustomerID  string
	Mode        CheckoutMode
	Amount      int64
	Currency    string
	ProductName string
	Description string
	SuccessURL  string
	CancelURL   string
	Metadata    types.Metadata
	// SaveForFutureUse keeps the payment method usable off-session so the
	// subscription can charge it later
	SaveForFutureUse bool
	IdempotencyKey   string
}

// CheckoutSession is a hosted, single-use checkout flow
type CheckoutSession struct {
	ID              string
	URL             string
	Mode            CheckoutMode
	CustomerID      string
	PaymentIntentID string
	SetupIntentID   string
	PaymentStatus   string
	Metadata        types.Metadata
}

// CreateSubscriptionInput describes a recurring subscription
type CreateSubscriptionInput struct {
	CustomerID             string
	PriceID                string
	DefaultPaymentMethodID string
	BillingCycleAnchor     time.Time
	ProrationBehavior      string
	PaymentBehavior        string
	Metadata               types.Metadata
	IdempotencyKey         string
}

// Subscription is a recurring billing schedule
type Subscription struct {
	ID                 string
	CustomerID         string
	PriceID            string
	Status             string
	BillingCycleAnchor time.Time
	Metadata           types.Metadata
}

// Event is a verified gateway webhook event
type Event struct {
	ID   string
	Type string
	// CheckoutSession is set for checkout.session.* events
	CheckoutSession *CheckoutSession
	Created         time.Time
	LiveMode        bool
}

// IsCheckoutCompleted reports whether the event finishes a checkout
func (e *Event) IsCheckoutCompleted() bool {
	return e.Type == string(types.WebhookEventTypeCheckoutSessionCompleted)
}
