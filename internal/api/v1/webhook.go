package v1

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	ierr "github.com/lessonpay/lessonpay/internal/errors"
	"github.com/lessonpay/lessonpay/internal/logger"
	"github.com/lessonpay/lessonpay/internal/rest/middleware"
	"github.com/lessonpay/lessonpay/internal/service"
)

const (
	// HeaderStripeSignature carries the event signature
	HeaderStripeSignature = "Stripe-Signature"

	maxWebhookBodyBytes = int64(65536)
)

// WebhookHandler receives gateway events
type WebhookHandler struct {
	service service.ActivationService
	log     *logger.Logger
}

func NewWebhookHandler(service service.ActivationService, log *logger.Logger) *WebhookHandler {
	return &WebhookHandler{
		service: service,
		log:     log,
	}
}

// HandleStripeWebhook handles POST /api/webhook. The body is read raw since
// the signature covers the exact bytes sent.
func (h *WebhookHandler) HandleStripeWebhook(c *gin.Context) {
	log := h.log.WithContext(c.Request.Context())

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBodyBytes)
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		log.Errorw("failed to read webhook body", "error", err)
		c.JSON(http.StatusBadRequest, middleware.ErrorResponse{Error: "Failed to read request body"})
		return
	}

	resp, err := h.service.HandleWebhook(c.Request.Context(), body, c.GetHeader(HeaderStripeSignature))
	if err != nil {
		status := webhookStatus(err)
		log.Errorw("webhook processing failed",
			"error", err,
			"status", status,
			"payload_length", len(body),
		)
		c.JSON(status, middleware.NewErrorResponse(err))
		return
	}

	c.JSON(http.StatusOK, resp)
}

// webhookStatus decides what the gateway sees. Anything but a rejected
// signature is a 409 or 5xx so that the gateway delivers the event again.
// Malformed events never get here, they are acknowledged with a 200.
func webhookStatus(err error) int {
	switch {
	case ierr.IsInvalidSignature(err):
		return http.StatusBadRequest
	case ierr.IsConflict(err):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
