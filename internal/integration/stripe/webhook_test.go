package stripe

import (
	"fmt"
	"testing"
	"time"

	"github.com/lessonpay/lessonpay/internal/config"
	"github.com/lessonpay/lessonpay/internal/domain/gateway"
	ierr "github.com/lessonpay/lessonpay/internal/errors"
	"github.com/lessonpay/lessonpay/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82/webhook"
)

const testWebhookSecret = "whsec_test_secret"

func newTestVerifier(secret string) gateway.EventVerifier {
	cfg := &config.Configuration{Stripe: config.StripeConfig{WebhookSecret: secret}}
	return NewEventVerifier(cfg, logger.NewNopLogger())
}

func sign(t *testing.T, secret string, payload []byte) string {
	t.Helper()
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    secret,
		Timestamp: time.Now(),
		Scheme:    "v1",
	})
	return signed.Header
}

func checkoutCompletedPayload(sessionID string) []byte {
	return []byte(fmt.Sprintf(`{
		"id": "evt_123",
		"object": "event",
		"type": "checkout.session.completed",
		"created": 1718000000,
		"livemode": false,
		"data": {
			"object": {
				"id": %q,
				"object": "checkout.session",
				"mode": "payment",
				"customer": "cus_123",
				"payment_intent": "pi_123",
				"payment_status": "paid",
				"metadata": {
					"student_name": "Ana",
					"lesson_type": "30 Minute Lessons - $150 / Month"
				}
			}
		}
	}`, sessionID))
}

func TestVerifyEvent_ValidSignature(t *testing.T) {
	v := newTestVerifier(testWebhookSecret)
	payload := checkoutCompletedPayload("cs_test_1")

	event, err := v.VerifyEvent(payload, sign(t, testWebhookSecret, payload))
	require.NoError(t, err)

	assert.Equal(t, "evt_123", event.ID)
	assert.True(t, event.IsCheckoutCompleted())
	require.NotNil(t, event.CheckoutSession)
	assert.Equal(t, "cs_test_1", event.CheckoutSession.ID)
	assert.Equal(t, "cus_123", event.CheckoutSession.CustomerID)
	assert.Equal(t, "pi_123", event.CheckoutSession.PaymentIntentID)
	assert.Equal(t, gateway.CheckoutModePayment, event.CheckoutSession.Mode)
	assert.Equal(t, "30 Minute Lessons - $150 / Month", event.CheckoutSession.Metadata.LessonType())
	assert.Equal(t, time.Unix(1718000000, 0).UTC(), event.Created)
}

func TestVerifyEvent_Rejects(t *testing.T) {
	payload := checkoutCompletedPayload("cs_test_1")

	tests := []struct {
		name      string
		signature string
		payload   []byte
	}{
		{
			name:      "wrong secret",
			signature: sign(t, "whsec_other", payload),
			payload:   payload,
		},
		{
			name:      "tampered payload",
			signature: sign(t, testWebhookSecret, payload),
			payload:   checkoutCompletedPayload("cs_test_2"),
		},
		{
			name:      "missing header",
			signature: "",
			payload:   payload,
		},
		{
			name:      "garbage header",
			signature: "t=abc,v1=def",
			payload:   payload,
		},
	}

	v := newTestVerifier(testWebhookSecret)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event, err := v.VerifyEvent(tt.payload, tt.signature)
			require.Error(t, err)
			assert.Nil(t, event)
			assert.True(t, ierr.IsInvalidSignature(err))
		})
	}
}

func TestVerifyEvent_OtherEventTypeHasNoSession(t *testing.T) {
	v := newTestVerifier(testWebhookSecret)
	payload := []byte(`{
		"id": "evt_456",
		"object": "event",
		"type": "invoice.paid",
		"created": 1718000000,
		"data": {"object": {"id": "in_1", "object": "invoice"}}
	}`)

	event, err := v.VerifyEvent(payload, sign(t, testWebhookSecret, payload))
	require.NoError(t, err)
	assert.False(t, event.IsCheckoutCompleted())
	assert.Nil(t, event.CheckoutSession)
}

func TestVerifyEvent_UndecodableSessionIsKept(t *testing.T) {
	v := newTestVerifier(testWebhookSecret)
	payload := []byte(`{
		"id": "evt_789",
		"object": "event",
		"type": "checkout.session.completed",
		"created": 1718000000,
		"data": {"object": {"id": "cs_test_1", "object": "checkout.session", "metadata": {"lesson_type": 123}}}
	}`)

	event, err := v.VerifyEvent(payload, sign(t, testWebhookSecret, payload))
	require.NoError(t, err)
	assert.Equal(t, "evt_789", event.ID)
	assert.True(t, event.IsCheckoutCompleted())
	assert.Nil(t, event.CheckoutSession)
}

func TestVerifyEvent_MissingSecret(t *testing.T) {
	v := newTestVerifier("")
	payload := checkoutCompletedPayload("cs_test_1")

	_, err := v.VerifyEvent(payload, sign(t, testWebhookSecret, payload))
	require.Error(t, err)
	assert.True(t, ierr.IsMisconfiguration(err))
}
