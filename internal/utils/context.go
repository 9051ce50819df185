package utils

import (
	"context"
	"time"
)

type contextKey string

const ContextUserIDKey contextKey = "userID"

func GetUserIDFromContext(ctx context.Context) (string, bool) {
	userID := ctx.Value(ContextUserIDKey)
	userIDStr, ok := userID.(string)
	return userIDStr, ok
}

// SessionData is the minimal session view shared between the middleware
// and the auth package's fetcher.
type SessionData struct {
	UserID    string
	ExpiresAt time.Time
}
