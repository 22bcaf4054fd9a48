package api

import (
	"github.com/gin-gonic/gin"
	v1 "github.com/lessonpay/lessonpay/internal/api/v1"
	"github.com/lessonpay/lessonpay/internal/config"
	ierr "github.com/lessonpay/lessonpay/internal/errors"
	"github.com/lessonpay/lessonpay/internal/logger"
	"github.com/lessonpay/lessonpay/internal/rest/middleware"
	"github.com/lessonpay/lessonpay/internal/types"
)

type Handlers struct {
	Health     *v1.HealthHandler
	Enrollment *v1.EnrollmentHandler
	Webhook    *v1.WebhookHandler
}

func NewRouter(handlers Handlers, cfg *config.Configuration, logger *logger.Logger) *gin.Engine {
	if cfg.Deployment.Mode != types.ModeLocal {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.HandleMethodNotAllowed = true

	router.Use(
		gin.Recovery(),
		middleware.SentryMiddleware(cfg),
		middleware.RequestIDMiddleware,
		middleware.LoggingMiddleware(logger),
		middleware.CORSMiddleware,
		middleware.ErrorHandler(logger),
	)

	router.NoMethod(func(c *gin.Context) {
		c.Error(ierr.NewError("method not allowed").
			WithHintf("Method %s not allowed", c.Request.Method).
			Mark(ierr.ErrMethodNotAllowed))
	})
	router.NoRoute(func(c *gin.Context) {
		c.Error(ierr.NewError("route not found").
			WithHint("Not found").
			Mark(ierr.ErrNotFound))
	})

	router.GET("/health", handlers.Health.Health)

	// Paths served to the existing enrollment page
	public := router.Group("/api")
	{
		public.POST("/create-checkout-session", handlers.Enrollment.CreateCheckoutSession)
		public.POST("/create-subscription", handlers.Enrollment.CreateSubscription)
		public.POST("/webhook", handlers.Webhook.HandleStripeWebhook)
		public.GET("/plans", handlers.Enrollment.ListPlans)
	}

	v1Group := router.Group("/v1")
	{
		v1Group.POST("/enrollments", handlers.Enrollment.CreateCheckoutSession)
		v1Group.POST("/subscriptions", handlers.Enrollment.CreateSubscription)
		v1Group.GET("/plans", handlers.Enrollment.ListPlans)
	}

	return router
}
