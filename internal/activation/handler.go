package activation

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/lessonpay/lessonpay/internal/api/dto"
	"github.com/lessonpay/lessonpay/internal/config"
	"github.com/lessonpay/lessonpay/internal/logger"
	"github.com/lessonpay/lessonpay/internal/pubsub"
	pubsubRouter "github.com/lessonpay/lessonpay/internal/pubsub/router"
	"github.com/lessonpay/lessonpay/internal/types"
)

const (
	metadataSessionID = "session_id"
	metadataRequestID = "request_id"
)

// Activator creates the subscription for a completed checkout
type Activator interface {
	Activate(ctx context.Context, task *dto.ActivationTask) (*dto.ActivationResponse, error)
}

// Handler consumes queued activations
type Handler interface {
	RegisterHandler(router *pubsubRouter.Router)
}

type handler struct {
	pubSub    pubsub.PubSub
	activator Activator
	config    *config.ActivationConfig
	logger    *logger.Logger
}

// NewHandler creates the activation consumer
func NewHandler(pubSub pubsub.PubSub, activator Activator, cfg *config.Configuration, logger *logger.Logger) Handler {
	return &handler{
		pubSub:    pubSub,
		activator: activator,
		config:    &cfg.Activation,
		logger:    logger,
	}
}

func (h *handler) RegisterHandler(router *pubsubRouter.Router) {
	router.AddNoPublishHandler(
		"activation_handler",
		h.config.Topic,
		h.pubSub,
		h.processMessage,
	)
}

func (h *handler) processMessage(msg *message.Message) error {
	var task dto.ActivationTask
	if err := json.Unmarshal(msg.Payload, &task); err != nil {
		h.logger.Errorw("failed to unmarshal activation task",
			"error", err,
			"message_uuid", msg.UUID,
		)
		return nil // Don't retry on unmarshal errors
	}

	ctx := msg.Context()
	if requestID := msg.Metadata.Get(metadataRequestID); requestID != "" {
		ctx = types.SetRequestID(ctx, requestID)
	}
	ctx = types.SetEventID(ctx, task.EventID)
	if task.EnrollmentID != "" {
		ctx = types.SetEnrollmentID(ctx, task.EnrollmentID)
	}

	if h.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.config.Timeout)
		defer cancel()
	}

	result, err := h.activator.Activate(ctx, &task)
	if err != nil {
		return err
	}

	h.logger.WithContext(ctx).Infow("processed queued activation",
		"session_id", result.SessionID,
		"subscription_id", result.SubscriptionID,
		"created", result.Created,
		"message_uuid", msg.UUID,
	)
	return nil
}
