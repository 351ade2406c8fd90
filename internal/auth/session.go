package auth

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var ErrMalformedSession = errors.New("malformed session value")

// Session is what a token resolves to: the logged user and the login time.
type Session struct {
	UserID    int
	CreatedAt time.Time
}

// stored as "<user id>:<created at unix>"
func (s Session) value() string {
	return fmt.Sprintf("%d:%d", s.UserID, s.CreatedAt.Unix())
}

func parseSession(val string) (Session, error) {
	userIDStr, createdAtStr, ok := strings.Cut(val, ":")
	if !ok {
		return Session{}, fmt.Errorf("%w: %q", ErrMalformedSession, val)
	}
	userID, err := strconv.Atoi(userIDStr)
	if err != nil || userID <= 0 {
		return Session{}, fmt.Errorf("%w: user id %q", ErrMalformedSession, userIDStr)
	}
	createdAtUnix, err := strconv.ParseInt(createdAtStr, 10, 64)
	if err != nil {
		return Session{}, fmt.Errorf("%w: created at %q", ErrMalformedSession, createdAtStr)
	}
	return Session{
		UserID:    userID,
		CreatedAt: time.Unix(createdAtUnix, 0),
	}, nil
}
