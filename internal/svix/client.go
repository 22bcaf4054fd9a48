package svix

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/lessonpay/lessonpay/internal/config"
	"github.com/lessonpay/lessonpay/internal/types"
	svix "github.com/svix/svix-webhooks/go"
	"github.com/svix/svix-webhooks/go/models"
)

// Client wraps the Svix SDK client
type Client struct {
	client  *svix.Svix
	baseURL string
	enabled bool
}

// NewClient creates a new Svix client
func NewClient(config *config.Configuration) (*Client, error) {
	if !config.Webhook.Svix.Enabled {
		return &Client{
			enabled: false,
		}, nil
	}

	serverURL, err := url.Parse(config.Webhook.Svix.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	svixClient, err := svix.New(config.Webhook.Svix.AuthToken, &svix.SvixOptions{
		ServerUrl: serverURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create svix client: %w", err)
	}

	return &Client{
		client:  svixClient,
		baseURL: config.Webhook.Svix.BaseURL,
		enabled: true,
	}, nil
}

// Enabled reports whether messages are delivered
func (c *Client) Enabled() bool {
	return c.enabled && c.client != nil
}

// ApplicationID is the studio application receiving notifications of a mode
func ApplicationID(mode types.PlanMode) string {
	return fmt.Sprintf("studio_%s", mode)
}

// GetOrCreateApplication gets or creates the studio application for a mode
func (c *Client) GetOrCreateApplication(ctx context.Context, mode types.PlanMode) (string, error) {
	if !c.Enabled() {
		return "", nil
	}

	appID := ApplicationID(mode)

	if _, err := c.client.Application.Get(ctx, appID); err == nil {
		return appID, nil
	}

	app, err := c.client.Application.Create(ctx, models.ApplicationIn{
		Name: appID,
		Uid:  &appID,
	}, &svix.ApplicationCreateOptions{})
	if err != nil {
		return "", fmt.Errorf("failed to create application: %w", err)
	}

	return app.Id, nil
}

// SendMessage sends a notification to the given application
func (c *Client) SendMessage(ctx context.Context, applicationID string, eventType string, payload interface{}) error {
	if !c.Enabled() {
		return nil
	}

	payloadMap, err := toPayloadMap(payload)
	if err != nil {
		return err
	}

	_, err = c.client.Message.Create(ctx, applicationID, models.MessageIn{
		EventType: eventType,
		Payload:   payloadMap,
	}, &svix.MessageCreateOptions{})
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}

	return nil
}

func toPayloadMap(payload interface{}) (map[string]interface{}, error) {
	var payloadMap map[string]interface{}

	switch p := payload.(type) {
	case map[string]interface{}:
		return p, nil
	case json.RawMessage:
		if err := json.Unmarshal(p, &payloadMap); err != nil {
			return nil, fmt.Errorf("failed to unmarshal payload: %w", err)
		}
	default:
		data, err := json.Marshal(p)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal payload: %w", err)
		}
		if err := json.Unmarshal(data, &payloadMap); err != nil {
			return nil, fmt.Errorf("failed to unmarshal payload: %w", err)
		}
	}
	return payloadMap, nil
}
