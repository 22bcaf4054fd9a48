package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"
	"github.com/lessonpay/lessonpay/internal/activation"
	"github.com/lessonpay/lessonpay/internal/api"
	v1 "github.com/lessonpay/lessonpay/internal/api/v1"
	"github.com/lessonpay/lessonpay/internal/cache"
	"github.com/lessonpay/lessonpay/internal/config"
	"github.com/lessonpay/lessonpay/internal/domain/plan"
	"github.com/lessonpay/lessonpay/internal/idempotency"
	"github.com/lessonpay/lessonpay/internal/integration/stripe"
	"github.com/lessonpay/lessonpay/internal/logger"
	"github.com/lessonpay/lessonpay/internal/pubsub"
	"github.com/lessonpay/lessonpay/internal/pubsub/memory"
	pubsubRouter "github.com/lessonpay/lessonpay/internal/pubsub/router"
	"github.com/lessonpay/lessonpay/internal/sentry"
	"github.com/lessonpay/lessonpay/internal/service"
	"github.com/lessonpay/lessonpay/internal/svix"
	"github.com/lessonpay/lessonpay/internal/types"
	"github.com/lessonpay/lessonpay/internal/validator"
	"go.uber.org/fx"
)

func main() {
	// Initialize Fx application
	var opts []fx.Option

	// Core dependencies
	opts = append(opts,
		fx.Provide(
			// Validator
			validator.NewValidator,

			// Config
			config.NewConfig,

			// Logger
			logger.NewLogger,

			// Cache
			cache.NewInMemoryCache,

			// Catalog, proration and clock
			plan.NewCatalogFromConfig,
			service.NewCalculatorFromConfig,
			types.NewSystemClock,
			idempotency.NewGenerator,

			// Payment gateway
			stripe.NewClient,
			stripe.NewGateway,
			stripe.NewEventVerifier,

			// Notifications
			svix.NewClient,
			service.NewNotifier,

			// PubSub
			memory.NewPubSub,
			pubsubRouter.NewRouter,
			activation.NewPublisher,
		),
	)

	// Monitoring
	opts = append(opts, sentry.Module())

	// Service layer
	opts = append(opts,
		fx.Provide(
			service.NewServiceParams,

			service.NewEnrollmentService,
			service.NewActivationService,

			provideActivationHandler,
		),
	)

	// API
	opts = append(opts,
		fx.Provide(
			provideHandlers,
			provideRouter,
		),
		fx.Invoke(
			startServer,
		),
	)

	app := fx.New(opts...)
	app.Run()
}

func provideActivationHandler(
	cfg *config.Configuration,
	log *logger.Logger,
	pubSub pubsub.PubSub,
	activationService service.ActivationService,
) activation.Handler {
	return activation.NewHandler(pubSub, activationService, cfg, log)
}

func provideHandlers(
	cfg *config.Configuration,
	logger *logger.Logger,
	enrollmentService service.EnrollmentService,
	activationService service.ActivationService,
) api.Handlers {
	return api.Handlers{
		Health:     v1.NewHealthHandler(cfg, logger),
		Enrollment: v1.NewEnrollmentHandler(enrollmentService, logger),
		Webhook:    v1.NewWebhookHandler(activationService, logger),
	}
}

func provideRouter(handlers api.Handlers, cfg *config.Configuration, logger *logger.Logger) *gin.Engine {
	return api.NewRouter(handlers, cfg, logger)
}

func startServer(
	lc fx.Lifecycle,
	cfg *config.Configuration,
	r *gin.Engine,
	router *pubsubRouter.Router,
	activationHandler activation.Handler,
	log *logger.Logger,
) {
	mode := cfg.Deployment.Mode
	if mode == "" {
		mode = types.ModeLocal
	}

	switch mode {
	case types.ModeLocal, types.ModeAPI:
		// fx runs start hooks in order, so the router subscribes before the
		// server accepts webhooks
		startMessageRouter(lc, router, activationHandler, log)
		startAPIServer(lc, r, cfg, log)
	case types.ModeAWSLambdaAPI:
		if cfg.Activation.Deferred {
			log.Warn("deferred activation is not supported on lambda, activating inline")
			cfg.Activation.Deferred = false
		}
		startAWSLambdaAPI(lc, r)
	default:
		log.Fatalf("Unknown deployment mode: %s", mode)
	}
}

func startAPIServer(
	lc fx.Lifecycle,
	r *gin.Engine,
	cfg *config.Configuration,
	log *logger.Logger,
) {
	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	log.Info("Registering API server start hook")
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("starting API server",
				"address", cfg.Server.Address,
				"plan_mode", cfg.PlanMode(),
				"deferred_activation", cfg.Activation.Deferred,
			)
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatalf("Failed to start server: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down server...")
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

func startAWSLambdaAPI(lc fx.Lifecycle, r *gin.Engine) {
	ginLambda := ginadapter.New(r)
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go lambda.Start(ginLambda.ProxyWithContext)
			return nil
		},
	})
}

func startMessageRouter(
	lc fx.Lifecycle,
	router *pubsubRouter.Router,
	activationHandler activation.Handler,
	logger *logger.Logger,
) {
	// Register handlers before starting the router
	activationHandler.RegisterHandler(router)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("starting message router")
			go func() {
				if err := router.Run(); err != nil {
					logger.Errorw("message router failed", "error", err)
				}
			}()

			// The queue does not keep messages for late subscribers
			select {
			case <-router.Running():
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("stopping message router")
			return router.Close()
		},
	})
}
