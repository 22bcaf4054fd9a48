package stripe

import (
	ierr "github.com/lessonpay/lessonpay/internal/errors"
	"github.com/stripe/stripe-go/v82"
)

// gatewayError converts a failed Stripe call into a GatewayError that keeps
// Stripe's message, type, code and param.
func gatewayError(op string, err error) error {
	gerr := &ierr.GatewayError{Message: err.Error(), Err: err}

	var stripeErr *stripe.Error
	if ierr.As(err, &stripeErr) {
		gerr.Message = stripeErr.Msg
		gerr.Type = string(stripeErr.Type)
		gerr.Code = string(stripeErr.Code)
		gerr.Param = stripeErr.Param
	}

	return ierr.NewGatewayError(op, gerr)
}

// isResourceMissing reports whether Stripe answered with resource_missing
func isResourceMissing(err error) bool {
	var stripeErr *stripe.Error
	return ierr.As(err, &stripeErr) && stripeErr.Code == stripe.ErrorCodeResourceMissing
}
