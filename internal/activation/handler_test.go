package activation

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/lessonpay/lessonpay/internal/api/dto"
	"github.com/lessonpay/lessonpay/internal/config"
	ierr "github.com/lessonpay/lessonpay/internal/errors"
	"github.com/lessonpay/lessonpay/internal/logger"
	"github.com/lessonpay/lessonpay/internal/pubsub/memory"
	pubsubRouter "github.com/lessonpay/lessonpay/internal/pubsub/router"
	"github.com/lessonpay/lessonpay/internal/sentry"
	"github.com/lessonpay/lessonpay/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type recordingActivator struct {
	mu       sync.Mutex
	tasks    []*dto.ActivationTask
	failures int
	err      error
	done     chan struct{}
}

func (a *recordingActivator) Activate(ctx context.Context, task *dto.ActivationTask) (*dto.ActivationResponse, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.tasks = append(a.tasks, task)
	if a.failures > 0 {
		a.failures--
		return nil, a.err
	}
	defer func() {
		select {
		case a.done <- struct{}{}:
		default:
		}
	}()
	return &dto.ActivationResponse{
		SessionID:      task.SessionID,
		CustomerID:     task.CustomerID,
		SubscriptionID: "sub_1",
		Created:        true,
	}, nil
}

func (a *recordingActivator) calls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.tasks)
}

type HandlerSuite struct {
	suite.Suite
	cfg       *config.Configuration
	log       *logger.Logger
	router    *pubsubRouter.Router
	activator *recordingActivator
	publisher Publisher
}

func TestHandler(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.cfg = config.GetDefaultConfig()
	s.cfg.Activation.Topic = "activations_test"
	s.cfg.Activation.MaxRetries = 2
	s.cfg.Activation.InitialInterval = time.Millisecond
	s.cfg.Activation.MaxInterval = 5 * time.Millisecond
	s.cfg.Activation.Multiplier = 1.5
	s.cfg.Activation.MaxElapsedTime = time.Second
	s.log = logger.NewNopLogger()

	ps := memory.NewPubSub(s.log)
	router, err := pubsubRouter.NewRouter(s.cfg, s.log, sentry.NewSentryService(s.cfg, s.log))
	s.Require().NoError(err)
	s.router = router

	s.activator = &recordingActivator{done: make(chan struct{}, 1)}
	NewHandler(ps, s.activator, s.cfg, s.log).RegisterHandler(router)
	s.publisher = NewPublisher(ps, s.cfg, s.log)

	go func() { _ = router.Run() }()
	<-router.Running()
}

func (s *HandlerSuite) TearDownTest() {
	s.NoError(s.router.Close())
}

func (s *HandlerSuite) task() *dto.ActivationTask {
	return &dto.ActivationTask{
		EventID:    "evt_1",
		SessionID:  "cs_1",
		CustomerID: "cus_1",
		LessonType: "30 Minute Lessons - $150 / Month",
		Mode:       types.PlanModeTest,
	}
}

func (s *HandlerSuite) waitDone() {
	select {
	case <-s.activator.done:
	case <-time.After(2 * time.Second):
		s.FailNow("activation was not processed")
	}
}

func (s *HandlerSuite) TestProcessesPublishedTask() {
	ctx := types.SetRequestID(context.Background(), "req_1")
	s.Require().NoError(s.publisher.PublishActivation(ctx, s.task()))

	s.waitDone()
	s.Equal(1, s.activator.calls())
	s.Equal("cs_1", s.activator.tasks[0].SessionID)
	s.Equal(types.PlanModeTest, s.activator.tasks[0].Mode)
}

func (s *HandlerSuite) TestRetriesTransientFailure() {
	s.activator.failures = 1
	s.activator.err = ierr.NewGatewayError("create subscription", &ierr.GatewayError{Message: "try later", Type: "api_error"})

	s.Require().NoError(s.publisher.PublishActivation(context.Background(), s.task()))

	s.waitDone()
	s.Equal(2, s.activator.calls())
}

func (s *HandlerSuite) TestDoesNotRetryPermanentFailure() {
	s.activator.failures = 10
	s.activator.err = ierr.NewGatewayError("create subscription", &ierr.GatewayError{Message: "declined", Type: "card_error"})

	s.Require().NoError(s.publisher.PublishActivation(context.Background(), s.task()))

	s.Eventually(func() bool { return s.activator.calls() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	s.Equal(1, s.activator.calls())
}

func TestProcessMessage_DropsMalformedPayload(t *testing.T) {
	a := &recordingActivator{done: make(chan struct{}, 1)}
	h := &handler{activator: a, config: &config.ActivationConfig{}, logger: logger.NewNopLogger()}

	err := h.processMessage(message.NewMessage("m1", []byte("not json")))
	require.NoError(t, err)
	assert.Equal(t, 0, a.calls())
}
