package testutil

import (
	"context"
	"time"

	"github.com/lessonpay/lessonpay/internal/cache"
	"github.com/lessonpay/lessonpay/internal/config"
	"github.com/lessonpay/lessonpay/internal/domain/plan"
	"github.com/lessonpay/lessonpay/internal/domain/proration"
	"github.com/lessonpay/lessonpay/internal/idempotency"
	"github.com/lessonpay/lessonpay/internal/logger"
	"github.com/lessonpay/lessonpay/internal/sentry"
	"github.com/lessonpay/lessonpay/internal/types"
	"github.com/lessonpay/lessonpay/internal/validator"
	"github.com/stretchr/testify/suite"

	_ "time/tzdata"
)

// TestClientURL is the client base URL of the test configuration
const TestClientURL = "https://lessons.example.com"

// BaseServiceTestSuite provides common functionality for all service test suites
type BaseServiceTestSuite struct {
	suite.Suite
	ctx         context.Context
	config      *config.Configuration
	logger      *logger.Logger
	sentry      *sentry.Service
	gateway     *InMemoryGateway
	clock       *FixedClock
	cache       cache.Cache
	catalog     *plan.Catalog
	calculator  proration.Calculator
	idempotency *idempotency.Generator
}

// SetupSuite is called once before running the tests in the suite
func (s *BaseServiceTestSuite) SetupSuite() {
	validator.NewValidator()
	s.logger = logger.NewNopLogger()
}

// SetupTest is called before each test
func (s *BaseServiceTestSuite) SetupTest() {
	s.config = NewTestConfig()
	s.ctx = SetupContext()
	s.sentry = sentry.NewSentryService(s.config, s.logger)
	s.gateway = NewInMemoryGateway()
	// 10:00 on 15 June 2024 in Phoenix
	s.clock = NewFixedClock(time.Date(2024, time.June, 15, 17, 0, 0, 0, time.UTC))
	s.cache = cache.NewInMemoryCache(s.config, s.logger)
	s.catalog = plan.NewCatalogFromConfig(s.config)
	s.calculator = proration.NewCalculator(s.config.Billing.Location())
	s.idempotency = idempotency.NewGenerator()
}

// TearDownTest is called after each test
func (s *BaseServiceTestSuite) TearDownTest() {
	s.gateway.Clear()
	s.cache.Flush(s.ctx)
}

// NewTestConfig returns a complete configuration in test mode
func NewTestConfig() *config.Configuration {
	cfg := config.GetDefaultConfig()
	cfg.Logging.Level = types.LogLevelInfo
	cfg.Server.ClientURL = TestClientURL
	cfg.Stripe = config.StripeConfig{
		SecretKey:     "sk_test_unit",
		WebhookSecret: TestWebhookSecret,
		LiveMode:      false,
	}
	return cfg
}

// SetupContext returns a context carrying a request ID
func SetupContext() context.Context {
	return types.SetRequestID(context.Background(), types.GenerateUUID())
}

func (s *BaseServiceTestSuite) GetContext() context.Context {
	return s.ctx
}

func (s *BaseServiceTestSuite) GetConfig() *config.Configuration {
	return s.config
}

func (s *BaseServiceTestSuite) GetLogger() *logger.Logger {
	return s.logger
}

func (s *BaseServiceTestSuite) GetSentry() *sentry.Service {
	return s.sentry
}

func (s *BaseServiceTestSuite) GetGateway() *InMemoryGateway {
	return s.gateway
}

func (s *BaseServiceTestSuite) GetClock() *FixedClock {
	return s.clock
}

func (s *BaseServiceTestSuite) GetCache() cache.Cache {
	return s.cache
}

func (s *BaseServiceTestSuite) GetCatalog() *plan.Catalog {
	return s.catalog
}

func (s *BaseServiceTestSuite) GetCalculator() proration.Calculator {
	return s.calculator
}

func (s *BaseServiceTestSuite) GetIdempotency() *idempotency.Generator {
	return s.idempotency
}
