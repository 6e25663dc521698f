package testutil

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stemsi/examtester/internal/model"
)

const (
	// ContextKeyClaims is the gin context key for verified token claims.
	ContextKeyClaims = "claims"

	tokenSecret = "fake-exam-service"
	// TokenTTL is the lifetime of tokens the fake issues.
	TokenTTL = 2 * time.Hour
)

// Claims is what the fake puts in its bearer tokens.
type Claims struct {
	jwt.RegisteredClaims
	UserID string     `json:"userId"`
	Role   model.Role `json:"role"`
}

// issueLocked signs a token for user and registers its jti as active.
// Callers hold f.mu.
func (f *FakeService) issueLocked(user model.User) string {
	now := time.Now()
	jti := uuid.New().String()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
		},
		UserID: user.ID,
		Role:   user.Role,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(tokenSecret))
	if err != nil {
		panic(fmt.Sprintf("sign token: %v", err))
	}
	f.tokens[jti] = user
	return signed
}

func validateToken(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(tokenSecret), nil
	})
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// requireToken validates the bearer token and checks that its session has
// not been revoked.
func (f *FakeService) requireToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := ""
		parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			tokenStr = parts[1]
		}
		if tokenStr == "" {
			fail(c, http.StatusUnauthorized, "No token, authorization denied")
			return
		}

		claims, err := validateToken(tokenStr)
		if err != nil {
			fail(c, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		f.mu.Lock()
		user, active := f.tokens[claims.ID]
		f.mu.Unlock()
		if !active {
			fail(c, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		c.Set(ContextKeyClaims, claims)
		c.Set(ctxUser, user)
		c.Next()
	}
}

// requireRole rejects callers whose token carries a different role.
func requireRole(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, _ := c.Get(ContextKeyClaims)
		cl, ok := claims.(*Claims)
		if !ok {
			fail(c, http.StatusUnauthorized, "No token, authorization denied")
			return
		}
		for _, r := range roles {
			if cl.Role == r {
				c.Next()
				return
			}
		}
		fail(c, http.StatusForbidden, "Access denied")
	}
}
