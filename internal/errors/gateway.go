package errors

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// GatewayError carries the remote service's own description of a failed call.
// It is surfaced verbatim to API callers.
type GatewayError struct {
	Message string
	Type    string
	Code    string
	Param   string
	Op      string
	Err     error
}

func (e *GatewayError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Op, e.Message, e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// NewGatewayError wraps a failed gateway call. The result is marked with
// ErrGateway and carries the gateway message as its display hint.
func NewGatewayError(op string, gerr *GatewayError) error {
	gerr.Op = op
	details := map[string]any{
		"type":  valueOrNA(gerr.Type),
		"code":  valueOrNA(gerr.Code),
		"param": valueOrNA(gerr.Param),
	}
	return WithError(gerr).
		WithHint(gerr.Message).
		WithReportableDetails(details).
		Mark(ErrGateway)
}

// AsGatewayError extracts the gateway error from a chain, if any
func AsGatewayError(err error) (*GatewayError, bool) {
	var gerr *GatewayError
	if errors.As(err, &gerr) {
		return gerr, true
	}
	return nil, false
}

func valueOrNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
