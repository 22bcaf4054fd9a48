package svix

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/lessonpay/lessonpay/internal/config"
	"github.com/lessonpay/lessonpay/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisabledClientIsNoop(t *testing.T) {
	c, err := NewClient(&config.Configuration{})
	require.NoError(t, err)
	assert.False(t, c.Enabled())

	appID, err := c.GetOrCreateApplication(context.Background(), types.PlanModeTest)
	require.NoError(t, err)
	assert.Empty(t, appID)
	assert.NoError(t, c.SendMessage(context.Background(), "studio_test", "enrollment.activated", map[string]interface{}{"a": 1}))
}

func TestApplicationID(t *testing.T) {
	assert.Equal(t, "studio_live", ApplicationID(types.PlanModeLive))
	assert.Equal(t, "studio_test", ApplicationID(types.PlanModeTest))
}

func TestToPayloadMap(t *testing.T) {
	type payload struct {
		SessionID string `json:"session_id"`
		Amount    int64  `json:"amount"`
	}

	m, err := toPayloadMap(payload{SessionID: "cs_1", Amount: 150})
	require.NoError(t, err)
	assert.Equal(t, "cs_1", m["session_id"])
	assert.Equal(t, float64(150), m["amount"])

	m, err = toPayloadMap(json.RawMessage(`{"x":"y"}`))
	require.NoError(t, err)
	assert.Equal(t, "y", m["x"])

	_, err = toPayloadMap(json.RawMessage(`not json`))
	assert.Error(t, err)
}
