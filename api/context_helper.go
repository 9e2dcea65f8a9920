package api

import (
	"context"
	"time"
)

// QueryTimeout is the default timeout for database queries
const QueryTimeout = 10 * time.Second

type userContextKey struct{}

type contextUser struct {
	id    string
	email string
}

// WithQueryTimeout creates a context with query timeout
func WithQueryTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, QueryTimeout)
}

// WithUser returns a copy of ctx carrying the authenticated user
func WithUser(ctx context.Context, userID, email string) context.Context {
	return context.WithValue(ctx, userContextKey{}, contextUser{id: userID, email: email})
}

// UserFromContext returns the authenticated user's id and email
func UserFromContext(ctx context.Context) (string, string, bool) {
	u, ok := ctx.Value(userContextKey{}).(contextUser)
	if !ok || u.id == "" {
		return "", "", false
	}
	return u.id, u.email, true
}

// UserIDFromContext returns the authenticated user's id
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, _, ok := UserFromContext(ctx)
	return id, ok
}
