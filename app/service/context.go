package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/vibast-solutions/ms-go-email-dispatcher/app/messaging"
)

// RequestIDAttribute is the message attribute carrying the submitter's request ID.
const RequestIDAttribute = "request_id"

type requestIDKey struct{}

// WithRequestID stores the request ID in the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// RequestIDFromContext extracts a non-empty request ID from the context.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	requestID, ok := ctx.Value(requestIDKey{}).(string)
	return requestID, ok && requestID != ""
}

// EnsureRequestID returns the context's request ID, minting one when absent.
func EnsureRequestID(ctx context.Context) (context.Context, string) {
	if requestID, ok := RequestIDFromContext(ctx); ok {
		return ctx, requestID
	}
	requestID := uuid.NewString()
	return WithRequestID(ctx, requestID), requestID
}

// RequestIDFromMessage reads the correlation attribute set at publish time.
func RequestIDFromMessage(msg messaging.Message) string {
	return msg.Attributes()[RequestIDAttribute]
}
