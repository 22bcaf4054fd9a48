package service

import (
	"context"
	"time"

	"github.com/lessonpay/lessonpay/internal/config"
	"github.com/lessonpay/lessonpay/internal/logger"
	"github.com/lessonpay/lessonpay/internal/svix"
	"github.com/lessonpay/lessonpay/internal/types"
)

// EnrollmentNotification is the body of the studio notifications
type EnrollmentNotification struct {
	EnrollmentID       string    `json:"enrollment_id,omitempty"`
	SessionID          string    `json:"session_id,omitempty"`
	CustomerID         string    `json:"customer_id"`
	SubscriptionID     string    `json:"subscription_id,omitempty"`
	StudentName        string    `json:"student_name,omitempty"`
	LessonType         string    `json:"lesson_type"`
	Mode               string    `json:"mode"`
	ChargeAmount       *int64    `json:"charge_amount,omitempty"`
	Currency           string    `json:"currency,omitempty"`
	BillingCycleAnchor time.Time `json:"billing_cycle_anchor"`
	OccurredAt         time.Time `json:"occurred_at"`
}

// Notifier tells the studio about enrollments. Delivery failures are logged
// and never reach the caller.
type Notifier interface {
	Notify(ctx context.Context, eventType types.NotificationEventType, notification *EnrollmentNotification)
}

type svixNotifier struct {
	client *svix.Client
	config *config.Configuration
	logger *logger.Logger
}

// NewNotifier creates a notifier delivering through Svix
func NewNotifier(client *svix.Client, cfg *config.Configuration, logger *logger.Logger) Notifier {
	return &svixNotifier{
		client: client,
		config: cfg,
		logger: logger,
	}
}

func (n *svixNotifier) Notify(ctx context.Context, eventType types.NotificationEventType, notification *EnrollmentNotification) {
	log := n.logger.WithContext(ctx)
	if !n.client.Enabled() {
		log.Debugw("notifications disabled, skipping", "event_type", eventType)
		return
	}

	mode := types.ParsePlanMode(notification.Mode)
	appID, err := n.client.GetOrCreateApplication(ctx, mode)
	if err != nil {
		log.Errorw("failed to get notification application",
			"error", err,
			"event_type", eventType,
			"mode", mode,
		)
		return
	}

	if err := n.client.SendMessage(ctx, appID, string(eventType), notification); err != nil {
		log.Errorw("failed to send notification",
			"error", err,
			"event_type", eventType,
			"application_id", appID,
		)
		return
	}

	log.Infow("notification sent",
		"event_type", eventType,
		"application_id", appID,
		"stripe_customer_id", notification.CustomerID,
	)
}
