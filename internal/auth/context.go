package auth

import "context"

// SessionTokenHeader carries the session token issued at login.
const SessionTokenHeader = "X-Session-Token"

type userIDKey struct{}

// ContextWithUserID stores the session user in ctx. Set by the auth middleware.
func ContextWithUserID(ctx context.Context, userID int) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

func UserIDFromContext(ctx context.Context) (int, bool) {
	userID, ok := ctx.Value(userIDKey{}).(int)
	return userID, ok && userID > 0
}
