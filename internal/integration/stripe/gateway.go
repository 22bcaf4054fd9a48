package stripe

import (
	"github.com/lessonpay/lessonpay/internal/domain/gateway"
	"github.com/lessonpay/lessonpay/internal/logger"
)

// Gateway implements gateway.Gateway on top of the Stripe API
type Gateway struct {
	client *Client
	logger *logger.Logger
}

var _ gateway.Gateway = (*Gateway)(nil)

// NewGateway creates the Stripe backed payment gateway
func NewGateway(client *Client, logger *logger.Logger) gateway.Gateway {
	return &Gateway{
		client: client,
		logger: logger,
	}
}
