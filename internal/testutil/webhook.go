package testutil

import (
	"encoding/json"
	"time"

	"github.com/lessonpay/lessonpay/internal/types"
	"github.com/stripe/stripe-go/v82/webhook"
)

// TestWebhookSecret signs the events built by the helpers below
const TestWebhookSecret = "whsec_unit_test"

// CheckoutCompletedEvent builds a checkout.session.completed payload
func CheckoutCompletedEvent(eventID, sessionID, customerID string, metadata types.Metadata) []byte {
	return Event(eventID, string(types.WebhookEventTypeCheckoutSessionCompleted), map[string]any{
		"id":             sessionID,
		"object":         "checkout.session",
		"mode":           "payment",
		"customer":       customerID,
		"payment_status": "paid",
		"metadata":       metadata,
	})
}

// Event builds a gateway event payload around object
func Event(eventID, eventType string, object map[string]any) []byte {
	payload, _ := json.Marshal(map[string]any{
		"id":       eventID,
		"object":   "event",
		"type":     eventType,
		"created":  time.Now().Unix(),
		"livemode": false,
		"data":     map[string]any{"object": object},
	})
	return payload
}

// Sign returns the signature header for payload under secret
func Sign(payload []byte, secret string) string {
	return webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    secret,
		Timestamp: time.Now(),
		Scheme:    "v1",
	}).Header
}
