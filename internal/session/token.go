package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is what the exam service puts in its bearer tokens. Only the
// registered claims are relied on; the rest is informational.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"userId,omitempty"`
	Role   string `json:"role,omitempty"`
}

// TokenExpiry reads the exp claim of the active token without verifying the
// signature. The second return is false when there is no session, the token
// is opaque, or it carries no exp.
func (s *Store) TokenExpiry() (time.Time, bool) {
	return tokenExpiry(s.Token())
}

func tokenExpiry(token string) (time.Time, bool) {
	if token == "" {
		return time.Time{}, false
	}

	var claims Claims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
