package httpgin

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	ctxExternalID = "external_id"
	ctxRole       = "role"
)

// AuthRequired verifies the bearer token issued by the identity provider
// (HS256) and stores the subject and role claims in the request context.
// User rows are resolved lazily by handlers that need them; the token alone
// carries no internal IDs.
func AuthRequired(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		const prefix = "Bearer "
		if !strings.HasPrefix(header, prefix) {
			unauthorized(c, "missing bearer token")
			return
		}

		claims := jwt.MapClaims{}
		_, err := jwt.ParseWithClaims(
			strings.TrimPrefix(header, prefix),
			claims,
			func(t *jwt.Token) (any, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, errors.New("unexpected signing method")
				}
				return []byte(secret), nil
			},
		)
		if err != nil {
			unauthorized(c, "invalid token")
			return
		}

		sub, err := claims.GetSubject()
		if err != nil || sub == "" {
			unauthorized(c, "token missing subject")
			return
		}

		c.Set(ctxExternalID, sub)
		if role, ok := claims["role"].(string); ok {
			c.Set(ctxRole, role)
		}

		c.Next()
	}
}

// AdminRequired gates a route on the token's role claim. Run after
// AuthRequired.
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(ctxRole) != "admin" {
			c.AbortWithStatusJSON(
				http.StatusForbidden,
				ErrorResponse{Error: "admin role required"},
			)
			return
		}
		c.Next()
	}
}

func unauthorized(c *gin.Context, msg string) {
	c.Header("WWW-Authenticate", "Bearer")
	c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: msg})
}
