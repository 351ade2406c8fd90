package auth

import "context"

var _ Checker = (*LoginChecker)(nil)

// Checker resolves a session token to the logged user id.
// ok is false when the token is unknown or expired.
type Checker interface {
	SessionUser(ctx context.Context, token string) (userID int, ok bool, err error)
}
