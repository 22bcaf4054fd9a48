package activation

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/lessonpay/lessonpay/internal/api/dto"
	"github.com/lessonpay/lessonpay/internal/config"
	"github.com/lessonpay/lessonpay/internal/logger"
	"github.com/lessonpay/lessonpay/internal/pubsub"
	"github.com/lessonpay/lessonpay/internal/types"
)

// Publisher queues subscription activations for the activation handler
type Publisher interface {
	PublishActivation(ctx context.Context, task *dto.ActivationTask) error
}

type publisher struct {
	pubSub pubsub.PubSub
	config *config.ActivationConfig
	logger *logger.Logger
}

// NewPublisher creates a publisher on the activation topic
func NewPublisher(pubSub pubsub.PubSub, cfg *config.Configuration, logger *logger.Logger) Publisher {
	return &publisher{
		pubSub: pubSub,
		config: &cfg.Activation,
		logger: logger,
	}
}

func (p *publisher) PublishActivation(ctx context.Context, task *dto.ActivationTask) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return err
	}

	// The gateway event ID keeps redeliveries of one event recognizable
	messageID := task.EventID
	if messageID == "" {
		messageID = watermill.NewUUID()
	}

	msg := message.NewMessage(messageID, payload)
	msg.Metadata.Set(metadataSessionID, task.SessionID)
	if requestID := types.GetRequestID(ctx); requestID != "" {
		msg.Metadata.Set(metadataRequestID, requestID)
	}

	if err := p.pubSub.Publish(ctx, p.config.Topic, msg); err != nil {
		p.logger.Errorw("failed to publish activation",
			"error", err,
			"session_id", task.SessionID,
			"event_id", task.EventID,
		)
		return err
	}

	p.logger.Infow("queued subscription activation",
		"session_id", task.SessionID,
		"stripe_customer_id", task.CustomerID,
		"topic", p.config.Topic,
	)
	return nil
}
