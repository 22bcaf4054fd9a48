package dto

import (
	"github.com/lessonpay/lessonpay/internal/types"
)

// WebhookStatus is the outcome of one webhook delivery
type WebhookStatus string

const (
	WebhookStatusActivated WebhookStatus = "activated"
	WebhookStatusDuplicate WebhookStatus = "duplicate"
	WebhookStatusQueued    WebhookStatus = "queued"
	WebhookStatusIgnored   WebhookStatus = "ignored"
	WebhookStatusMalformed WebhookStatus = "malformed"
)

// WebhookResponse acknowledges a gateway event
type WebhookResponse struct {
	Received       bool          `json:"received"`
	Status         WebhookStatus `json:"status"`
	EventID        string        `json:"eventId,omitempty"`
	SubscriptionID string        `json:"subscriptionId,omitempty"`
	Message        string        `json:"message,omitempty"`
}

// ActivationTask is the work of creating the subscription for a completed
// checkout. It is the payload of deferred activation messages.
type ActivationTask struct {
	EventID      string         `json:"event_id"`
	SessionID    string         `json:"session_id"`
	CustomerID   string         `json:"customer_id"`
	LessonType   string         `json:"lesson_type"`
	Mode         types.PlanMode `json:"mode"`
	EnrollmentID string         `json:"enrollment_id,omitempty"`
	StudentName  string         `json:"student_name,omitempty"`
}

// ActivationResponse is the subscription that backs a completed checkout
type ActivationResponse struct {
	SessionID      string `json:"session_id"`
	CustomerID     string `json:"customer_id"`
	SubscriptionID string `json:"subscription_id"`
	// Created is false when an existing subscription was found
	Created bool `json:"created"`
}
