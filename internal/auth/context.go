package auth

import "context"

type contextKey struct{}

// AuthContext identifies the signed-in user for the duration of a request.
type AuthContext struct {
	UserID    string
	Email     string
	SessionID int64
}

func WithAuth(ctx context.Context, ac AuthContext) context.Context {
	return context.WithValue(ctx, contextKey{}, ac)
}

func FromContext(ctx context.Context) (AuthContext, bool) {
	ac, ok := ctx.Value(contextKey{}).(AuthContext)
	return ac, ok
}

// UserID returns the signed-in user's id, or "" if the request is
// unauthenticated.
func UserID(ctx context.Context) string {
	ac, ok := FromContext(ctx)
	if !ok {
		return ""
	}
	return ac.UserID
}
