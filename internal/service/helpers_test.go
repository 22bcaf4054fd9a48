package service

import (
	"context"
	"sync"

	"github.com/lessonpay/lessonpay/internal/api/dto"
	stripeintegration "github.com/lessonpay/lessonpay/internal/integration/stripe"
	"github.com/lessonpay/lessonpay/internal/testutil"
	"github.com/lessonpay/lessonpay/internal/types"
)

type sentNotification struct {
	eventType    types.NotificationEventType
	notification *EnrollmentNotification
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
}

func (n *recordingNotifier) Notify(_ context.Context, eventType types.NotificationEventType, notification *EnrollmentNotification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentNotification{eventType: eventType, notification: notification})
}

func (n *recordingNotifier) ofType(eventType types.NotificationEventType) []*EnrollmentNotification {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []*EnrollmentNotification
	for _, s := range n.sent {
		if s.eventType == eventType {
			out = append(out, s.notification)
		}
	}
	return out
}

type recordingPublisher struct {
	mu    sync.Mutex
	tasks []*dto.ActivationTask
	err   error
}

func (p *recordingPublisher) PublishActivation(_ context.Context, task *dto.ActivationTask) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.tasks = append(p.tasks, task)
	return nil
}

// serviceSuite wires services to the in-memory gateway
type serviceSuite struct {
	testutil.BaseServiceTestSuite
	notifier  *recordingNotifier
	publisher *recordingPublisher
}

func (s *serviceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.notifier = &recordingNotifier{}
	s.publisher = &recordingPublisher{}
}

func (s *serviceSuite) params() ServiceParams {
	cfg := s.GetConfig()
	return NewServiceParams(
		s.GetLogger(),
		cfg,
		s.GetSentry(),
		s.GetCatalog(),
		s.GetCalculator(),
		s.GetClock(),
		s.GetIdempotency(),
		s.GetCache(),
		s.GetGateway(),
		stripeintegration.NewEventVerifier(cfg, s.GetLogger()),
		s.notifier,
		s.publisher,
	)
}
