package dto

import (
	"strings"
	"time"

	"github.com/lessonpay/lessonpay/internal/domain/proration"
	"github.com/lessonpay/lessonpay/internal/validator"
)

// CreateCheckoutSessionRequest starts an enrollment. Field order is the order
// missing fields are reported in.
type CreateCheckoutSessionRequest struct {
	StudentName   string `json:"studentName" validate:"required"`
	CustomerName  string `json:"customerName" validate:"required"`
	CustomerEmail string `json:"customerEmail" validate:"required"`
	CustomerPhone string `json:"customerPhone" validate:"required"`
	LessonType    string `json:"lessonType" validate:"required"`
}

func (r *CreateCheckoutSessionRequest) Validate() error {
	r.normalize()
	return validator.ValidateRequest(r)
}

func (r *CreateCheckoutSessionRequest) normalize() {
	r.StudentName = strings.TrimSpace(r.StudentName)
	r.CustomerName = strings.TrimSpace(r.CustomerName)
	r.CustomerEmail = strings.TrimSpace(r.CustomerEmail)
	r.CustomerPhone = strings.TrimSpace(r.CustomerPhone)
}

// CreateCheckoutSessionResponse is the redirect handle of a new enrollment
type CreateCheckoutSessionResponse struct {
	CheckoutURL        string    `json:"checkoutUrl"`
	SessionID          string    `json:"sessionId"`
	CustomerID         string    `json:"customerId"`
	EnrollmentID       string    `json:"enrollmentId"`
	ChargeAmount       int64     `json:"chargeAmount"`
	Currency           string    `json:"currency"`
	DaysRemaining      int       `json:"daysRemaining"`
	DaysInPeriod       int       `json:"daysInPeriod"`
	BillingCycleAnchor time.Time `json:"billingCycleAnchor"`
}

// SetProration copies the computed proration into the response
func (r *CreateCheckoutSessionResponse) SetProration(p *proration.Result) {
	r.ChargeAmount = p.ChargeAmount
	r.DaysRemaining = p.DaysRemaining
	r.DaysInPeriod = p.DaysInPeriod
	r.BillingCycleAnchor = p.BillingAnchor
}

// CreateSubscriptionRequest enrolls with a payment method collected by the
// client, skipping hosted checkout
type CreateSubscriptionRequest struct {
	StudentName     string `json:"studentName" validate:"required"`
	CustomerName    string `json:"customerName" validate:"required"`
	CustomerEmail   string `json:"customerEmail" validate:"required"`
	CustomerPhone   string `json:"customerPhone" validate:"required"`
	LessonType      string `json:"lessonType" validate:"required"`
	PaymentMethodID string `json:"paymentMethodId" validate:"required"`
	// PriceID is optional; when sent it must be the price of LessonType
	PriceID string `json:"priceId,omitempty"`
}

func (r *CreateSubscriptionRequest) Validate() error {
	r.StudentName = strings.TrimSpace(r.StudentName)
	r.CustomerName = strings.TrimSpace(r.CustomerName)
	r.CustomerEmail = strings.TrimSpace(r.CustomerEmail)
	r.CustomerPhone = strings.TrimSpace(r.CustomerPhone)
	r.PaymentMethodID = strings.TrimSpace(r.PaymentMethodID)
	return validator.ValidateRequest(r)
}

// CreateSubscriptionResponse reports the subscription of a direct enrollment
type CreateSubscriptionResponse struct {
	Message            string    `json:"message"`
	SubscriptionID     string    `json:"subscriptionId"`
	CustomerID         string    `json:"customerId"`
	Status             string    `json:"status"`
	BillingCycleAnchor time.Time `json:"billingCycleAnchor"`
}
