package service

import (
	"context"

	"github.com/lessonpay/lessonpay/internal/api/dto"
	"github.com/lessonpay/lessonpay/internal/cache"
	"github.com/lessonpay/lessonpay/internal/domain/gateway"
	"github.com/lessonpay/lessonpay/internal/domain/plan"
	ierr "github.com/lessonpay/lessonpay/internal/errors"
	"github.com/lessonpay/lessonpay/internal/sentry"
	"github.com/lessonpay/lessonpay/internal/types"
	"github.com/samber/lo"
)

// ActivationService turns completed checkouts into subscriptions
type ActivationService interface {
	// HandleWebhook verifies a signed gateway event and activates the
	// enrollment it completes. Malformed and unrelated events are
	// acknowledged without error.
	HandleWebhook(ctx context.Context, payload []byte, signature string) (*dto.WebhookResponse, error)
	// Activate creates the subscription for a completed checkout. It is safe
	// to call again for the same session.
	Activate(ctx context.Context, task *dto.ActivationTask) (*dto.ActivationResponse, error)
}

type activationService struct {
	ServiceParams
}

func NewActivationService(params ServiceParams) ActivationService {
	return &activationService{
		ServiceParams: params,
	}
}

func (s *activationService) HandleWebhook(ctx context.Context, payload []byte, signature string) (*dto.WebhookResponse, error) {
	if err := s.Config.RequireWebhook(); err != nil {
		return nil, err
	}

	event, err := s.Verifier.VerifyEvent(payload, signature)
	if err != nil {
		return nil, err
	}

	ctx = types.SetEventID(ctx, event.ID)
	log := s.Logger.WithContext(ctx)

	span, ctx := s.Sentry.MonitorWebhookProcessing(ctx, event.Type, event.Created, map[string]interface{}{
		"event_id": event.ID,
	})
	defer sentry.FinishSpan(span, nil)

	if !event.IsCheckoutCompleted() {
		log.Debugw("ignoring webhook event", "event_type", event.Type)
		return &dto.WebhookResponse{
			Received: true,
			Status:   dto.WebhookStatusIgnored,
			EventID:  event.ID,
			Message:  "Webhook received.",
		}, nil
	}

	task, err := s.taskFromEvent(event)
	if err != nil {
		// Retrying cannot fix a malformed event, so it is acknowledged
		log.Errorw("malformed checkout completion event",
			"error", err,
			"hint", ierr.DisplayMessage(err, ""),
		)
		return &dto.WebhookResponse{
			Received: true,
			Status:   dto.WebhookStatusMalformed,
			EventID:  event.ID,
			Message:  ierr.DisplayMessage(err, "Missing required data."),
		}, nil
	}

	if task.EnrollmentID != "" {
		ctx = types.SetEnrollmentID(ctx, task.EnrollmentID)
	}

	if s.Config.Activation.Deferred {
		if err := s.ActivationPublisher.PublishActivation(ctx, task); err != nil {
			return nil, ierr.WithError(err).
				WithHint("Failed to queue subscription activation").
				Mark(ierr.ErrSystem)
		}
		return &dto.WebhookResponse{
			Received: true,
			Status:   dto.WebhookStatusQueued,
			EventID:  event.ID,
		}, nil
	}

	if timeout := s.Config.Activation.Timeout; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	result, err := s.Activate(ctx, task)
	if err != nil {
		s.Sentry.CaptureException(err)
		return nil, err
	}

	return &dto.WebhookResponse{
		Received:       true,
		Status:         lo.Ternary(result.Created, dto.WebhookStatusActivated, dto.WebhookStatusDuplicate),
		EventID:        event.ID,
		SubscriptionID: result.SubscriptionID,
	}, nil
}

func (s *activationService) Activate(ctx context.Context, task *dto.ActivationTask) (*dto.ActivationResponse, error) {
	log := s.Logger.WithContext(ctx)

	p, err := s.Catalog.Resolve(task.LessonType, task.Mode)
	if err != nil {
		return nil, malformed(err, "Unknown lesson type in checkout session")
	}

	processedKey := cache.GenerateKey(cache.PrefixProcessedSession, task.SessionID)
	if subID, ok := s.Cache.Get(ctx, processedKey); ok {
		log.Infow("checkout session already activated",
			"session_id", task.SessionID,
			"subscription_id", subID,
		)
		return &dto.ActivationResponse{
			SessionID:      task.SessionID,
			CustomerID:     task.CustomerID,
			SubscriptionID: subID.(string),
		}, nil
	}

	inFlightKey := cache.GenerateKey(cache.PrefixActivationInFlight, task.SessionID)
	if !s.Cache.Add(ctx, inFlightKey, task.EventID, s.Config.Activation.Timeout) {
		return nil, ierr.NewError("activation already in progress").
			WithHint("This checkout session is being activated, retry later").
			WithReportableDetails(map[string]any{"session_id": task.SessionID}).
			Mark(ierr.ErrConflict)
	}
	defer s.Cache.Delete(ctx, inFlightKey)

	existing, err := s.Gateway.FindSubscription(ctx, task.CustomerID, p.PriceRef, task.SessionID)
	switch {
	case err == nil:
		log.Infow("subscription already exists for checkout session",
			"session_id", task.SessionID,
			"subscription_id", existing.ID,
			"status", existing.Status,
		)
		s.Cache.Set(ctx, processedKey, existing.ID, s.Config.Activation.ProcessedTTL)
		return &dto.ActivationResponse{
			SessionID:      task.SessionID,
			CustomerID:     task.CustomerID,
			SubscriptionID: existing.ID,
		}, nil
	case !ierr.IsNotFound(err):
		return nil, err
	}

	span, ctx := s.Sentry.StartGatewaySpan(ctx, "activate", map[string]interface{}{
		"session_id": task.SessionID,
	})

	sub, err := s.createSubscription(ctx, task, p)
	sentry.FinishSpan(span, err)
	if err != nil {
		return nil, err
	}

	s.Cache.Set(ctx, processedKey, sub.ID, s.Config.Activation.ProcessedTTL)

	log.Infow("activated enrollment subscription",
		"session_id", task.SessionID,
		"stripe_customer_id", task.CustomerID,
		"subscription_id", sub.ID,
		"lesson_type", p.Label,
		"billing_cycle_anchor", sub.BillingCycleAnchor,
	)

	s.Notifier.Notify(ctx, types.NotificationEnrollmentActivated, &EnrollmentNotification{
		EnrollmentID:       task.EnrollmentID,
		SessionID:          task.SessionID,
		CustomerID:         task.CustomerID,
		SubscriptionID:     sub.ID,
		StudentName:        task.StudentName,
		LessonType:         p.Label,
		Mode:               string(task.Mode),
		BillingCycleAnchor: sub.BillingCycleAnchor,
		OccurredAt:         s.Clock.Now().UTC(),
	})

	return &dto.ActivationResponse{
		SessionID:      task.SessionID,
		CustomerID:     task.CustomerID,
		SubscriptionID: sub.ID,
		Created:        true,
	}, nil
}

// createSubscription makes the checkout's payment method the customer's
// default and subscribes from the next anchor on. The first partial month
// was already charged at checkout, so nothing is prorated.
func (s *activationService) createSubscription(ctx context.Context, task *dto.ActivationTask, p *plan.Plan) (*gateway.Subscription, error) {
	paymentMethodID, err := s.Gateway.GetCheckoutPaymentMethod(ctx, task.SessionID)
	if err != nil {
		return nil, err
	}

	if err := s.Gateway.AttachPaymentMethod(ctx, paymentMethodID, task.CustomerID); err != nil {
		return nil, err
	}
	if err := s.Gateway.SetDefaultPaymentMethod(ctx, task.CustomerID, paymentMethodID); err != nil {
		return nil, err
	}

	// Processing may run well after checkout, so the anchor is taken now
	anchor := s.Calculator.NextAnchor(s.Clock.Now())

	return s.Gateway.CreateSubscription(ctx, &gateway.CreateSubscriptionInput{
		CustomerID:             task.CustomerID,
		PriceID:                p.PriceRef,
		DefaultPaymentMethodID: paymentMethodID,
		BillingCycleAnchor:     anchor,
		ProrationBehavior:      types.ProrationBehaviorNone,
		PaymentBehavior:        types.PaymentBehaviorDefaultIncomplete,
		Metadata: types.Metadata{
			types.MetadataKeyStudentName:  task.StudentName,
			types.MetadataKeyLessonType:   p.Label,
			types.MetadataKeyPlanMode:     string(task.Mode),
			types.MetadataKeyEnrollmentID: task.EnrollmentID,
			types.MetadataKeySessionID:    task.SessionID,
			types.MetadataKeySource:       types.MetadataSourceEnrollment,
		},
		IdempotencyKey: s.Idempotency.ActivationKey(task.SessionID),
	})
}

// taskFromEvent extracts the correlation data a checkout completion carries
func (s *activationService) taskFromEvent(event *gateway.Event) (*dto.ActivationTask, error) {
	session := event.CheckoutSession
	if session == nil {
		return nil, malformed(nil, "Missing or unreadable checkout session in event")
	}
	if session.CustomerID == "" {
		return nil, malformed(nil, "Missing customer in checkout session")
	}

	label := session.Metadata.LessonType()
	if label == "" {
		return nil, malformed(nil, "Missing lesson type in checkout session")
	}

	mode := s.Config.PlanMode()
	if m, ok := session.Metadata[types.MetadataKeyPlanMode]; ok && m != "" {
		mode = types.ParsePlanMode(m)
	}
	if _, err := s.Catalog.Resolve(label, mode); err != nil {
		return nil, malformed(err, "Unknown lesson type in checkout session")
	}

	return &dto.ActivationTask{
		EventID:      event.ID,
		SessionID:    session.ID,
		CustomerID:   session.CustomerID,
		LessonType:   label,
		Mode:         mode,
		EnrollmentID: session.Metadata[types.MetadataKeyEnrollmentID],
		StudentName:  session.Metadata[types.MetadataKeyStudentName],
	}, nil
}

func malformed(cause error, hint string) error {
	b := ierr.NewError("malformed checkout event")
	if cause != nil {
		b = ierr.WithError(cause)
	}
	return b.WithHint(hint).Mark(ierr.ErrMalformedEvent)
}
