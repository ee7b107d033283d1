package httpx

import (
	"context"
	"net/http"
)

type contextKey string

const (
	deviceIDKey  contextKey = "deviceID"
	requestIDKey contextKey = "requestID"
)

// DeviceIDFrom retrieves the device ID from the request context.
func DeviceIDFrom(r *http.Request) string {
	return DeviceIDFromContext(r.Context())
}

// DeviceIDFromContext retrieves the device ID from ctx.
func DeviceIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(deviceIDKey).(string); ok {
		return v
	}
	return ""
}

// ContextWithDevice returns a new context carrying the device ID.
func ContextWithDevice(ctx context.Context, deviceID string) context.Context {
	return context.WithValue(ctx, deviceIDKey, deviceID)
}

// RequestIDFrom retrieves the request ID from the request context.
func RequestIDFrom(r *http.Request) string {
	if v, ok := r.Context().Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}

// ContextWithRequestID returns a new context carrying the request ID.
func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}
