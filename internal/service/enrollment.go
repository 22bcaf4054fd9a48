package service

import (
	"context"
	"fmt"
	"net/url"

	"github.com/lessonpay/lessonpay/internal/api/dto"
	"github.com/lessonpay/lessonpay/internal/domain/gateway"
	"github.com/lessonpay/lessonpay/internal/domain/plan"
	"github.com/lessonpay/lessonpay/internal/domain/proration"
	ierr "github.com/lessonpay/lessonpay/internal/errors"
	"github.com/lessonpay/lessonpay/internal/idempotency"
	"github.com/lessonpay/lessonpay/internal/logger"
	"github.com/lessonpay/lessonpay/internal/types"
	"github.com/samber/lo"
)

// EnrollmentService starts enrollments into a monthly lesson plan
type EnrollmentService interface {
	// CreateCheckoutSession charges the prorated rest of this month through
	// hosted checkout. The subscription is created when the checkout completes.
	CreateCheckoutSession(ctx context.Context, req dto.CreateCheckoutSessionRequest) (*dto.CreateCheckoutSessionResponse, error)
	// CreateSubscription subscribes right away with a payment method the
	// client already collected
	CreateSubscription(ctx context.Context, req dto.CreateSubscriptionRequest) (*dto.CreateSubscriptionResponse, error)
	// ListPlans returns the plans of the active mode
	ListPlans(ctx context.Context) *dto.ListPlansResponse
}

type enrollmentService struct {
	ServiceParams
}

func NewEnrollmentService(params ServiceParams) EnrollmentService {
	return &enrollmentService{
		ServiceParams: params,
	}
}

func (s *enrollmentService) CreateCheckoutSession(ctx context.Context, req dto.CreateCheckoutSessionRequest) (*dto.CreateCheckoutSessionResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	mode := s.Config.PlanMode()
	p, err := s.Catalog.Resolve(req.LessonType, mode)
	if err != nil {
		return nil, err
	}

	if err := s.Config.RequireEnrollment(); err != nil {
		return nil, err
	}

	enrollmentID := types.GenerateUUIDWithPrefix(types.UUID_PREFIX_ENROLLMENT)
	ctx = types.SetEnrollmentID(ctx, enrollmentID)
	log := s.Logger.WithContext(ctx)

	result, err := s.Calculator.Compute(p.FullAmount, s.Clock.Now())
	if err != nil {
		return nil, err
	}

	metadata := correlationMetadata(req.StudentName, p, enrollmentID)

	customer, created, err := s.provisionCustomer(ctx, &gateway.CreateCustomerInput{
		Name:           req.CustomerName,
		Email:          req.CustomerEmail,
		Phone:          req.CustomerPhone,
		Metadata:       metadata,
		IdempotencyKey: s.Idempotency.EnrollmentKey(idempotency.ScopeEnrollmentCustomer, enrollmentID),
	})
	if err != nil {
		return nil, err
	}

	// Nothing is owed on the last day of a month; still collect the card
	checkoutMode := lo.Ternary(result.IsZero(), gateway.CheckoutModeSetup, gateway.CheckoutModePayment)

	session, err := s.Gateway.CreateCheckoutSession(ctx, &gateway.CreateCheckoutSessionInput{
		CustomerID:       customer.ID,
		Mode:             checkoutMode,
		Amount:           result.ChargeAmount,
		Currency:         p.Currency,
		ProductName:      p.Label,
		Description:      prorationDescription(result),
		SuccessURL:       s.successURL(customer.ID, p.Label),
		CancelURL:        s.cancelURL(customer.ID, p.Label),
		Metadata:         metadata,
		SaveForFutureUse: true,
		IdempotencyKey:   s.Idempotency.EnrollmentKey(idempotency.ScopeEnrollmentCheckout, enrollmentID),
	})
	if err != nil {
		s.warnOrphan(log, customer.ID, created, err)
		return nil, err
	}

	log.Infow("created enrollment checkout",
		"session_id", session.ID,
		"stripe_customer_id", customer.ID,
		"lesson_type", p.Label,
		"mode", mode,
		"checkout_mode", checkoutMode,
		"charge_amount", result.ChargeAmount,
		"days_remaining", result.DaysRemaining,
		"days_in_period", result.DaysInPeriod,
		"billing_cycle_anchor", result.BillingAnchor,
	)

	s.Notifier.Notify(ctx, types.NotificationEnrollmentCheckoutCreated, &EnrollmentNotification{
		EnrollmentID:       enrollmentID,
		SessionID:          session.ID,
		CustomerID:         customer.ID,
		StudentName:        req.StudentName,
		LessonType:         p.Label,
		Mode:               string(mode),
		ChargeAmount:       lo.ToPtr(result.ChargeAmount),
		Currency:           p.Currency,
		BillingCycleAnchor: result.BillingAnchor,
		OccurredAt:         s.Clock.Now().UTC(),
	})

	resp := &dto.CreateCheckoutSessionResponse{
		CheckoutURL:  session.URL,
		SessionID:    session.ID,
		CustomerID:   customer.ID,
		EnrollmentID: enrollmentID,
		Currency:     p.Currency,
	}
	resp.SetProration(result)
	return resp, nil
}

func (s *enrollmentService) CreateSubscription(ctx context.Context, req dto.CreateSubscriptionRequest) (*dto.CreateSubscriptionResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	mode := s.Config.PlanMode()
	p, err := s.Catalog.Resolve(req.LessonType, mode)
	if err != nil {
		return nil, err
	}
	if req.PriceID != "" && req.PriceID != p.PriceRef {
		return nil, ierr.NewError("price does not match lesson type").
			WithHint("Invalid lesson type selected.").
			WithReportableDetails(map[string]any{
				"lesson_type": req.LessonType,
				"price_id":    req.PriceID,
			}).
			Mark(ierr.ErrInvalidPlan)
	}

	if err := s.Config.RequireGateway(); err != nil {
		return nil, err
	}

	enrollmentID := types.GenerateUUIDWithPrefix(types.UUID_PREFIX_ENROLLMENT)
	ctx = types.SetEnrollmentID(ctx, enrollmentID)
	log := s.Logger.WithContext(ctx)
	metadata := correlationMetadata(req.StudentName, p, enrollmentID)

	customer, err := s.Gateway.CreateCustomer(ctx, &gateway.CreateCustomerInput{
		Name:            req.CustomerName,
		Email:           req.CustomerEmail,
		Phone:           req.CustomerPhone,
		Metadata:        metadata,
		PaymentMethodID: req.PaymentMethodID,
		IdempotencyKey:  s.Idempotency.EnrollmentKey(idempotency.ScopeEnrollmentCustomer, enrollmentID),
	})
	if err != nil {
		return nil, err
	}

	if err := s.Gateway.AttachPaymentMethod(ctx, req.PaymentMethodID, customer.ID); err != nil {
		s.warnOrphan(log, customer.ID, true, err)
		return nil, err
	}

	anchor := s.Calculator.NextAnchor(s.Clock.Now())
	sub, err := s.Gateway.CreateSubscription(ctx, &gateway.CreateSubscriptionInput{
		CustomerID:             customer.ID,
		PriceID:                p.PriceRef,
		DefaultPaymentMethodID: req.PaymentMethodID,
		BillingCycleAnchor:     anchor,
		ProrationBehavior:      types.ProrationBehaviorCreateProrations,
		PaymentBehavior:        types.PaymentBehaviorDefaultIncomplete,
		Metadata:               metadata,
		IdempotencyKey:         s.Idempotency.EnrollmentKey(idempotency.ScopeDirectSubscription, enrollmentID),
	})
	if err != nil {
		s.warnOrphan(log, customer.ID, true, err)
		return nil, err
	}

	log.Infow("created subscription with collected payment method",
		"subscription_id", sub.ID,
		"stripe_customer_id", customer.ID,
		"lesson_type", p.Label,
		"billing_cycle_anchor", anchor,
	)

	s.Notifier.Notify(ctx, types.NotificationEnrollmentActivated, &EnrollmentNotification{
		EnrollmentID:       enrollmentID,
		CustomerID:         customer.ID,
		SubscriptionID:     sub.ID,
		StudentName:        req.StudentName,
		LessonType:         p.Label,
		Mode:               string(mode),
		BillingCycleAnchor: anchor,
		OccurredAt:         s.Clock.Now().UTC(),
	})

	return &dto.CreateSubscriptionResponse{
		Message:            "Subscription Created!",
		SubscriptionID:     sub.ID,
		CustomerID:         customer.ID,
		Status:             sub.Status,
		BillingCycleAnchor: anchor,
	}, nil
}

func (s *enrollmentService) ListPlans(_ context.Context) *dto.ListPlansResponse {
	mode := s.Config.PlanMode()
	return dto.NewListPlansResponse(string(mode), s.Catalog.List(mode))
}

// provisionCustomer creates the payer, or with the reuse policy refreshes an
// existing one found by email. The lookup is best effort: two enrollments
// racing on one email may both create a customer.
func (s *enrollmentService) provisionCustomer(ctx context.Context, input *gateway.CreateCustomerInput) (*gateway.Customer, bool, error) {
	if s.Config.Enrollment.CustomerPolicy == types.CustomerPolicyReuse {
		existing, err := s.Gateway.FindCustomerByEmail(ctx, input.Email)
		switch {
		case err == nil:
			updated, err := s.Gateway.UpdateCustomer(ctx, existing.ID, input.Name, input.Phone, input.Metadata)
			if err != nil {
				return nil, false, err
			}
			s.Logger.WithContext(ctx).Infow("reusing existing customer", "stripe_customer_id", updated.ID)
			return updated, false, nil
		case !ierr.IsNotFound(err):
			return nil, false, err
		}
	}

	customer, err := s.Gateway.CreateCustomer(ctx, input)
	if err != nil {
		return nil, false, err
	}
	return customer, true, nil
}

// warnOrphan logs a customer created for an enrollment that then failed.
// The customer stays in the gateway.
func (s *enrollmentService) warnOrphan(log *logger.Logger, customerID string, created bool, cause error) {
	if !created {
		return
	}
	log.Warnw("enrollment failed after customer creation",
		"orphaned_customer_id", customerID,
		"error", cause,
	)
}

func (s *enrollmentService) successURL(customerID, label string) string {
	q := url.Values{}
	q.Set("customer_id", customerID)
	q.Set("plan", label)
	// {CHECKOUT_SESSION_ID} is replaced by the gateway and must stay unescaped
	return fmt.Sprintf("%s/thank-you?session_id={CHECKOUT_SESSION_ID}&%s", s.Config.Server.ClientURL, q.Encode())
}

func (s *enrollmentService) cancelURL(customerID, label string) string {
	q := url.Values{}
	q.Set("customer_id", customerID)
	q.Set("plan", label)
	return fmt.Sprintf("%s/cancellation?%s", s.Config.Server.ClientURL, q.Encode())
}

func correlationMetadata(studentName string, p *plan.Plan, enrollmentID string) types.Metadata {
	return types.Metadata{
		types.MetadataKeyStudentName:  studentName,
		types.MetadataKeyLessonType:   p.Label,
		types.MetadataKeyPlanMode:     string(p.Mode),
		types.MetadataKeyEnrollmentID: enrollmentID,
		types.MetadataKeySource:       types.MetadataSourceEnrollment,
	}
}

func prorationDescription(r *proration.Result) string {
	return fmt.Sprintf("Prorated for %d of %d days this month", r.DaysRemaining, r.DaysInPeriod)
}
