package types

// WebhookEventType is a gateway event type this service reacts to
type WebhookEventType string

const (
	WebhookEventTypeCheckoutSessionCompleted WebhookEventType = "checkout.session.completed"
)

// NotificationEventType names the outbound notifications sent to the studio
type NotificationEventType string

const (
	NotificationEnrollmentCheckoutCreated NotificationEventType = "enrollment.checkout_created"
	NotificationEnrollmentActivated       NotificationEventType = "enrollment.activated"
)

// Subscription creation parameters sent to the gateway
const (
	ProrationBehaviorNone             = "none"
	ProrationBehaviorCreateProrations = "create_prorations"
	PaymentBehaviorDefaultIncomplete  = "default_incomplete"
	SetupFutureUsageOffSession        = "off_session"
)
