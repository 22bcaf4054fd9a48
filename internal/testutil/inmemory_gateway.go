package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/lessonpay/lessonpay/internal/domain/gateway"
	ierr "github.com/lessonpay/lessonpay/internal/errors"
	"github.com/lessonpay/lessonpay/internal/types"
	"github.com/samber/lo"
)

// Gateway method names, used for call recording and failure injection
const (
	MethodFindCustomerByEmail      = "FindCustomerByEmail"
	MethodCreateCustomer           = "CreateCustomer"
	MethodUpdateCustomer           = "UpdateCustomer"
	MethodCreateCheckoutSession    = "CreateCheckoutSession"
	MethodGetCheckoutPaymentMethod = "GetCheckoutPaymentMethod"
	MethodAttachPaymentMethod      = "AttachPaymentMethod"
	MethodSetDefaultPaymentMethod  = "SetDefaultPaymentMethod"
	MethodFindSubscription         = "FindSubscription"
	MethodCreateSubscription       = "CreateSubscription"
)

// InMemoryGateway is an in-memory implementation of gateway.Gateway that
// records every call
type InMemoryGateway struct {
	mu sync.Mutex

	customers             map[string]*gateway.Customer
	sessions              map[string]*gateway.CheckoutSession
	sessionPaymentMethods map[string]string
	attached              map[string]string // payment method -> customer
	defaults              map[string]string // customer -> payment method
	subscriptions         []*gateway.Subscription
	subscriptionsByKey    map[string]*gateway.Subscription

	customerInputs     []*gateway.CreateCustomerInput
	checkoutInputs     []*gateway.CreateCheckoutSessionInput
	subscriptionInputs []*gateway.CreateSubscriptionInput

	calls    []string
	failures map[string]error
	seq      int
}

var _ gateway.Gateway = (*InMemoryGateway)(nil)

// NewInMemoryGateway creates an empty gateway
func NewInMemoryGateway() *InMemoryGateway {
	g := &InMemoryGateway{}
	g.Clear()
	return g
}

// Clear drops all state, recorded calls and injected failures
func (g *InMemoryGateway) Clear() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.customers = make(map[string]*gateway.Customer)
	g.sessions = make(map[string]*gateway.CheckoutSession)
	g.sessionPaymentMethods = make(map[string]string)
	g.attached = make(map[string]string)
	g.defaults = make(map[string]string)
	g.subscriptions = nil
	g.subscriptionsByKey = make(map[string]*gateway.Subscription)
	g.customerInputs = nil
	g.checkoutInputs = nil
	g.subscriptionInputs = nil
	g.calls = nil
	g.failures = make(map[string]error)
	g.seq = 0
}

// FailOn makes every later call of method return err
func (g *InMemoryGateway) FailOn(method string, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failures[method] = err
}

// Calls returns the recorded method names in call order
func (g *InMemoryGateway) Calls() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.calls...)
}

// CallCount returns how often method was called
func (g *InMemoryGateway) CallCount(method string) int {
	return lo.Count(g.Calls(), method)
}

// AddCustomer seeds an existing customer
func (g *InMemoryGateway) AddCustomer(c *gateway.Customer) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.customers[c.ID] = c
}

// Customer returns a stored customer
func (g *InMemoryGateway) Customer(id string) (*gateway.Customer, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	c, ok := g.customers[id]
	return c, ok
}

// CompleteSession records the payment method a checkout session collected
func (g *InMemoryGateway) CompleteSession(sessionID, paymentMethodID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sessionPaymentMethods[sessionID] = paymentMethodID
}

// AddSubscription seeds an existing subscription
func (g *InMemoryGateway) AddSubscription(sub *gateway.Subscription) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.subscriptions = append(g.subscriptions, sub)
}

// Subscriptions returns every stored subscription
func (g *InMemoryGateway) Subscriptions() []*gateway.Subscription {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]*gateway.Subscription(nil), g.subscriptions...)
}

// CustomerInputs returns the inputs of every CreateCustomer call
func (g *InMemoryGateway) CustomerInputs() []*gateway.CreateCustomerInput {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]*gateway.CreateCustomerInput(nil), g.customerInputs...)
}

// CheckoutInputs returns the inputs of every CreateCheckoutSession call
func (g *InMemoryGateway) CheckoutInputs() []*gateway.CreateCheckoutSessionInput {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]*gateway.CreateCheckoutSessionInput(nil), g.checkoutInputs...)
}

// SubscriptionInputs returns the inputs of every CreateSubscription call
func (g *InMemoryGateway) SubscriptionInputs() []*gateway.CreateSubscriptionInput {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]*gateway.CreateSubscriptionInput(nil), g.subscriptionInputs...)
}

// AttachedTo returns the customer a payment method is attached to
func (g *InMemoryGateway) AttachedTo(paymentMethodID string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.attached[paymentMethodID]
}

// DefaultPaymentMethod returns the customer's invoice default
func (g *InMemoryGateway) DefaultPaymentMethod(customerID string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.defaults[customerID]
}

// record must be called with the lock held
func (g *InMemoryGateway) record(method string) error {
	g.calls = append(g.calls, method)
	return g.failures[method]
}

func (g *InMemoryGateway) nextID(prefix string) string {
	g.seq++
	return fmt.Sprintf("%s_%d", prefix, g.seq)
}

func (g *InMemoryGateway) FindCustomerByEmail(_ context.Context, email string) (*gateway.Customer, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.record(MethodFindCustomerByEmail); err != nil {
		return nil, err
	}

	var found *gateway.Customer
	for _, c := range g.customers {
		if c.Email == email && (found == nil || c.ID > found.ID) {
			found = c
		}
	}
	if found == nil {
		return nil, ierr.NewError("customer not found").Mark(ierr.ErrNotFound)
	}
	return found, nil
}

func (g *InMemoryGateway) CreateCustomer(_ context.Context, input *gateway.CreateCustomerInput) (*gateway.Customer, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.record(MethodCreateCustomer); err != nil {
		return nil, err
	}
	g.customerInputs = append(g.customerInputs, input)

	c := &gateway.Customer{
		ID:       g.nextID("cus"),
		Name:     input.Name,
		Email:    input.Email,
		Phone:    input.Phone,
		Metadata: input.Metadata.Clone(),
	}
	g.customers[c.ID] = c
	if input.PaymentMethodID != "" {
		g.attached[input.PaymentMethodID] = c.ID
		g.defaults[c.ID] = input.PaymentMethodID
	}
	return c, nil
}

func (g *InMemoryGateway) UpdateCustomer(_ context.Context, customerID string, name, phone string, metadata map[string]string) (*gateway.Customer, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.record(MethodUpdateCustomer); err != nil {
		return nil, err
	}

	c, ok := g.customers[customerID]
	if !ok {
		return nil, missing("customer", customerID)
	}
	if name != "" {
		c.Name = name
	}
	if phone != "" {
		c.Phone = phone
	}
	if c.Metadata == nil {
		c.Metadata = types.Metadata{}
	}
	for k, v := range metadata {
		c.Metadata[k] = v
	}
	return c, nil
}

func (g *InMemoryGateway) CreateCheckoutSession(_ context.Context, input *gateway.CreateCheckoutSessionInput) (*gateway.CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.record(MethodCreateCheckoutSession); err != nil {
		return nil, err
	}
	if _, ok := g.customers[input.CustomerID]; !ok {
		return nil, missing("customer", input.CustomerID)
	}
	g.checkoutInputs = append(g.checkoutInputs, input)

	s := &gateway.CheckoutSession{
		ID:            g.nextID("cs_test"),
		Mode:          input.Mode,
		CustomerID:    input.CustomerID,
		PaymentStatus: "unpaid",
		Metadata:      input.Metadata.Clone(),
	}
	s.URL = "https://checkout.example.test/pay/" + s.ID
	g.sessions[s.ID] = s
	return s, nil
}

func (g *InMemoryGateway) GetCheckoutPaymentMethod(_ context.Context, sessionID string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.record(MethodGetCheckoutPaymentMethod); err != nil {
		return "", err
	}

	pm, ok := g.sessionPaymentMethods[sessionID]
	if !ok {
		return "", ierr.NewError("checkout session has no payment method").Mark(ierr.ErrNotFound)
	}
	return pm, nil
}

func (g *InMemoryGateway) AttachPaymentMethod(_ context.Context, paymentMethodID, customerID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.record(MethodAttachPaymentMethod); err != nil {
		return err
	}

	if owner, ok := g.attached[paymentMethodID]; ok && owner != customerID {
		return ierr.NewGatewayError("attach payment method", &ierr.GatewayError{
			Message: "The payment method is attached to another customer.",
			Type:    "invalid_request_error",
			Code:    "payment_method_unexpected_state",
			Param:   "payment_method",
		})
	}
	g.attached[paymentMethodID] = customerID
	return nil
}

func (g *InMemoryGateway) SetDefaultPaymentMethod(_ context.Context, customerID, paymentMethodID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.record(MethodSetDefaultPaymentMethod); err != nil {
		return err
	}
	if g.attached[paymentMethodID] != customerID {
		return missing("payment_method", paymentMethodID)
	}
	g.defaults[customerID] = paymentMethodID
	return nil
}

func (g *InMemoryGateway) FindSubscription(_ context.Context, customerID, priceID, sessionID string) (*gateway.Subscription, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.record(MethodFindSubscription); err != nil {
		return nil, err
	}

	sub, ok := lo.Find(g.subscriptions, func(s *gateway.Subscription) bool {
		return s.CustomerID == customerID && s.PriceID == priceID &&
			s.Metadata[types.MetadataKeySessionID] == sessionID &&
			s.Status != "canceled" && s.Status != "incomplete_expired"
	})
	if !ok {
		return nil, ierr.NewError("subscription not found").Mark(ierr.ErrNotFound)
	}
	return sub, nil
}

func (g *InMemoryGateway) CreateSubscription(_ context.Context, input *gateway.CreateSubscriptionInput) (*gateway.Subscription, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.record(MethodCreateSubscription); err != nil {
		return nil, err
	}
	if input.IdempotencyKey != "" {
		if sub, ok := g.subscriptionsByKey[input.IdempotencyKey]; ok {
			return sub, nil
		}
	}
	if _, ok := g.customers[input.CustomerID]; !ok {
		return nil, missing("customer", input.CustomerID)
	}
	g.subscriptionInputs = append(g.subscriptionInputs, input)

	sub := &gateway.Subscription{
		ID:                 g.nextID("sub"),
		CustomerID:         input.CustomerID,
		PriceID:            input.PriceID,
		Status:             "active",
		BillingCycleAnchor: input.BillingCycleAnchor,
		Metadata:           input.Metadata.Clone(),
	}
	g.subscriptions = append(g.subscriptions, sub)
	if input.IdempotencyKey != "" {
		g.subscriptionsByKey[input.IdempotencyKey] = sub
	}
	return sub, nil
}

func missing(resource, id string) error {
	return ierr.NewGatewayError("lookup "+resource, &ierr.GatewayError{
		Message: fmt.Sprintf("No such %s: '%s'", resource, id),
		Type:    "invalid_request_error",
		Code:    "resource_missing",
		Param:   resource,
	})
}

// GatewayFailure builds the error a declined gateway call returns
func GatewayFailure(op, message, code string) error {
	return ierr.NewGatewayError(op, &ierr.GatewayError{
		Message: message,
		Type:    "card_error",
		Code:    code,
	})
}
