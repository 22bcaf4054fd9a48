package v1

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lessonpay/lessonpay/internal/api/dto"
	ierr "github.com/lessonpay/lessonpay/internal/errors"
	"github.com/lessonpay/lessonpay/internal/logger"
	"github.com/lessonpay/lessonpay/internal/service"
)

type EnrollmentHandler struct {
	service service.EnrollmentService
	log     *logger.Logger
}

func NewEnrollmentHandler(service service.EnrollmentService, log *logger.Logger) *EnrollmentHandler {
	return &EnrollmentHandler{
		service: service,
		log:     log,
	}
}

// CreateCheckoutSession handles POST /api/create-checkout-session
func (h *EnrollmentHandler) CreateCheckoutSession(c *gin.Context) {
	var req dto.CreateCheckoutSessionRequest
	if err := bindJSON(c, &req); err != nil {
		c.Error(err)
		return
	}

	resp, err := h.service.CreateCheckoutSession(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// CreateSubscription handles POST /api/create-subscription
func (h *EnrollmentHandler) CreateSubscription(c *gin.Context) {
	var req dto.CreateSubscriptionRequest
	if err := bindJSON(c, &req); err != nil {
		c.Error(err)
		return
	}

	resp, err := h.service.CreateSubscription(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ListPlans handles GET /api/plans
func (h *EnrollmentHandler) ListPlans(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.ListPlans(c.Request.Context()))
}

// bindJSON decodes the request body. An empty body decodes to the zero
// request so that field validation names the first missing field.
func bindJSON(c *gin.Context, req any) error {
	if err := c.ShouldBindJSON(req); err != nil && !errors.Is(err, io.EOF) {
		return ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation)
	}
	return nil
}
