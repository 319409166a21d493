package middleware

import "context"

// contextKey is a private type for context keys set by this package.
// Using a custom type prevents collisions.
type contextKey string

const (
	loggerCtxKey  = contextKey("logger")
	actorIDKey    = contextKey("actorID")
	authMethodKey = contextKey("authMethod")
)

// GetActorIDFromCtx retrieves the authenticated actor id (admin user or caller
// service) from the request context. It returns the id and whether it was found.
func GetActorIDFromCtx(ctx context.Context) (string, bool) {
	val := ctx.Value(actorIDKey)
	if val == nil {
		return "", false
	}
	actorID, ok := val.(string)
	if !ok || actorID == "" {
		return "", false
	}
	return actorID, true
}

// WithActorID returns a context carrying the authenticated actor id.
func WithActorID(ctx context.Context, actorID string) context.Context {
	return context.WithValue(ctx, actorIDKey, actorID)
}
