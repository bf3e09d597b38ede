package ctxkeys

import (
	"context"
	"time"
)

// contextKey is a type for context keys to avoid collisions
type contextKey string

const (
	SessionKey   contextKey = "session"
	RequestIDKey contextKey = "request_id"
)

// Session identifies the authenticated caller. It is resolved once by the auth
// middleware and handed to services explicitly.
type Session struct {
	UserID   int64
	Username string
	IssuedAt time.Time
}

func SessionFrom(ctx context.Context) *Session {
	session, _ := ctx.Value(SessionKey).(*Session)
	return session
}

func WithSession(ctx context.Context, session *Session) context.Context {
	return context.WithValue(ctx, SessionKey, session)
}

func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}
