package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dfryer1193/blogwrite/api"
	"github.com/dfryer1193/blogwrite/blog/domain"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const identityKey = "identity"

var errNoUser = errors.New("token carries no user")

// Claims are the JWT claims understood by the blog. The user id is taken
// from user_id, falling back to sub.
type Claims struct {
	UserID string `json:"user_id,omitempty"`
	Name   string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// SignToken issues an HS256 token for identity.
func SignToken(secret string, identity domain.Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: identity.UserID,
		Name:   identity.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseToken validates an HS256 token and returns the identity in it.
func ParseToken(secret, token string) (domain.Identity, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return domain.Identity{}, err
	}

	userID := claims.UserID
	if userID == "" {
		userID = claims.Subject
	}
	if userID == "" {
		return domain.Identity{}, errNoUser
	}
	return domain.Identity{UserID: userID, Name: claims.Name}, nil
}

// Authenticate attaches the bearer token's identity to the request when a
// token is present. Requests without one pass through anonymously; a bad
// token is rejected.
func Authenticate(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}

		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
			unauthorized(c, "invalid authorization header format")
			return
		}

		id, err := ParseToken(secret, strings.TrimSpace(token))
		if err != nil {
			_ = c.Error(err)
			unauthorized(c, "invalid token")
			return
		}

		c.Set(identityKey, id)
		c.Request = c.Request.WithContext(domain.WithIdentity(c.Request.Context(), id))
		c.Next()
	}
}

// RequireIdentity rejects anonymous requests. It must run after Authenticate.
func RequireIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := identity(c); !ok {
			unauthorized(c, "authentication required")
			return
		}
		c.Next()
	}
}

// Identity returns the caller, or the zero identity when anonymous.
func Identity(c *gin.Context) domain.Identity {
	id, _ := identity(c)
	return id
}

func identity(c *gin.Context) (domain.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return domain.Identity{}, false
	}
	id, ok := v.(domain.Identity)
	return id, ok && !id.IsZero()
}

func unauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, api.Fail(api.CodeUnauthorized, message, nil))
}
