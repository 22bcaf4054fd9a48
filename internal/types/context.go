package types

import (
	"context"
)

// ContextKey is a type for the keys of values stored in the context
type ContextKey string

const (
	CtxRequestID    ContextKey = "ctx_request_id"
	CtxEnrollmentID ContextKey = "ctx_enrollment_id"
	CtxEventID      ContextKey = "ctx_event_id"
)

// HeaderRequestID carries the request ID in and out of the API
const HeaderRequestID = "X-Request-ID"

func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(CtxRequestID).(string); ok {
		return requestID
	}
	return ""
}

func GetEnrollmentID(ctx context.Context) string {
	if enrollmentID, ok := ctx.Value(CtxEnrollmentID).(string); ok {
		return enrollmentID
	}
	return ""
}

func GetEventID(ctx context.Context) string {
	if eventID, ok := ctx.Value(CtxEventID).(string); ok {
		return eventID
	}
	return ""
}

// SetRequestID sets the request ID in the context
func SetRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, CtxRequestID, requestID)
}

// SetEnrollmentID sets the enrollment ID in the context
func SetEnrollmentID(ctx context.Context, enrollmentID string) context.Context {
	return context.WithValue(ctx, CtxEnrollmentID, enrollmentID)
}

// SetEventID sets the gateway event ID in the context
func SetEventID(ctx context.Context, eventID string) context.Context {
	return context.WithValue(ctx, CtxEventID, eventID)
}
