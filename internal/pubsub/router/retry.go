package router

import (
	"context"
	"net"

	"github.com/lessonpay/lessonpay/internal/errors"
	"github.com/lessonpay/lessonpay/internal/logger"
)

// shouldRetry reports whether a failed message is worth another attempt.
// Errors the gateway answered with are final; transport failures are not.
func shouldRetry(logger *logger.Logger, err error) bool {
	if err == nil {
		return false
	}

	// Network errors
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		logger.Debugw("retrying due to network timeout", "error", netErr)
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		logger.Debugw("retrying due to deadline", "error", err)
		return true
	}

	// Business logic errors (don't retry)
	if errors.IsValidation(err) ||
		errors.IsNotFound(err) ||
		errors.IsInvalidPlan(err) ||
		errors.IsMalformedEvent(err) ||
		errors.IsMisconfiguration(err) {
		return false
	}

	// Declines and invalid requests carry a gateway error type
	if gerr, ok := errors.AsGatewayError(err); ok {
		switch gerr.Type {
		case "api_error", "":
			return true
		default:
			logger.Debugw("non-retryable gateway error",
				"type", gerr.Type,
				"code", gerr.Code,
				"error", err,
			)
			return false
		}
	}

	// By default, retry unknown errors
	return true
}
