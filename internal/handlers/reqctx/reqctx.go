package reqctx

import (
	"context"

	"github.com/coursecatalyst/identity/internal/models"
)

type ctxKey string

const (
	userKey   ctxKey = "user"
	deviceKey ctxKey = "deviceID"
)

// Create a new context with the user
func NewWithUser(ctx context.Context, u models.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// Extract the user from the context
func UserFromContext(ctx context.Context) (models.User, bool) {
	u, ok := ctx.Value(userKey).(models.User)
	return u, ok
}

// Create a new context with the device id
func NewWithDeviceID(ctx context.Context, deviceID string) context.Context {
	return context.WithValue(ctx, deviceKey, deviceID)
}

// Extract the device id from the context
func DeviceIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(deviceKey).(string)
	return id, ok
}
