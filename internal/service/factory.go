package service

import (
	"github.com/lessonpay/lessonpay/internal/activation"
	"github.com/lessonpay/lessonpay/internal/cache"
	"github.com/lessonpay/lessonpay/internal/config"
	"github.com/lessonpay/lessonpay/internal/domain/gateway"
	"github.com/lessonpay/lessonpay/internal/domain/plan"
	"github.com/lessonpay/lessonpay/internal/domain/proration"
	"github.com/lessonpay/lessonpay/internal/idempotency"
	"github.com/lessonpay/lessonpay/internal/logger"
	"github.com/lessonpay/lessonpay/internal/sentry"
	"github.com/lessonpay/lessonpay/internal/types"
)

// ServiceParams holds common dependencies for services
type ServiceParams struct {
	Logger *logger.Logger
	Config *config.Configuration
	Sentry *sentry.Service

	Catalog     *plan.Catalog
	Calculator  proration.Calculator
	Clock       types.Clock
	Idempotency *idempotency.Generator
	Cache       cache.Cache

	// Payment gateway
	Gateway  gateway.Gateway
	Verifier gateway.EventVerifier

	// Outbound
	Notifier            Notifier
	ActivationPublisher activation.Publisher
}

// Common service params
func NewServiceParams(
	logger *logger.Logger,
	config *config.Configuration,
	sentry *sentry.Service,
	catalog *plan.Catalog,
	calculator proration.Calculator,
	clock types.Clock,
	idempotencyGenerator *idempotency.Generator,
	cache cache.Cache,
	gateway gateway.Gateway,
	verifier gateway.EventVerifier,
	notifier Notifier,
	activationPublisher activation.Publisher,
) ServiceParams {
	return ServiceParams{
		Logger:              logger,
		Config:              config,
		Sentry:              sentry,
		Catalog:             catalog,
		Calculator:          calculator,
		Clock:               clock,
		Idempotency:         idempotencyGenerator,
		Cache:               cache,
		Gateway:             gateway,
		Verifier:            verifier,
		Notifier:            notifier,
		ActivationPublisher: activationPublisher,
	}
}

// NewCalculatorFromConfig creates the proration calculator for the billing timezone
func NewCalculatorFromConfig(cfg *config.Configuration) proration.Calculator {
	return proration.NewCalculator(cfg.Billing.Location())
}
