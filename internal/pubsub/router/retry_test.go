package router

import (
	"context"
	"errors"
	"testing"

	ierr "github.com/lessonpay/lessonpay/internal/errors"
	"github.com/lessonpay/lessonpay/internal/logger"
	"github.com/stretchr/testify/assert"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestShouldRetry(t *testing.T) {
	log := logger.NewNopLogger()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "network timeout", err: timeoutErr{}, want: true},
		{name: "deadline", err: context.DeadlineExceeded, want: true},
		{name: "unknown", err: errors.New("boom"), want: true},
		{name: "validation", err: ierr.MissingField("studentName"), want: false},
		{name: "not found", err: ierr.NewError("x").Mark(ierr.ErrNotFound), want: false},
		{name: "malformed", err: ierr.NewError("x").Mark(ierr.ErrMalformedEvent), want: false},
		{
			name: "card declined",
			err:  ierr.NewGatewayError("create subscription", &ierr.GatewayError{Message: "declined", Type: "card_error", Code: "card_declined"}),
			want: false,
		},
		{
			name: "gateway api error",
			err:  ierr.NewGatewayError("create subscription", &ierr.GatewayError{Message: "try again", Type: "api_error"}),
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, shouldRetry(log, tt.err))
		})
	}
}
