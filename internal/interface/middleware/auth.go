package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-task-rbac/internal/application"
	"github.com/oksasatya/go-task-rbac/internal/domain/entity"
	"github.com/oksasatya/go-task-rbac/pkg/response"
)

const (
	CtxUserIDKey   = "userID"
	CtxIdentityKey = "identity"
)

// TokenVerifier checks a bearer credential and returns its claims.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, token string) (*entity.VerifiedToken, error)
}

// Auth verifies the Authorization bearer token and stores the caller's
// identity in the Gin context. The role comes from the token's claims only.
func Auth(v TokenVerifier, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			response.Error(c, http.StatusUnauthorized, "Missing Bearer token", nil)
			return
		}
		tok, err := v.VerifyIDToken(c.Request.Context(), token)
		if err != nil {
			if logger != nil {
				logger.WithError(err).WithField("request_id", c.GetString("request_id")).Debug("token rejected")
			}
			response.Error(c, http.StatusUnauthorized, "Invalid or expired token", nil)
			return
		}
		id := application.IdentityFromToken(tok)
		c.Set(CtxIdentityKey, id)
		c.Set(CtxUserIDKey, id.UID)
		c.Next()
	}
}

// RequireRole rejects callers whose role is not listed. Must run after Auth.
func RequireRole(roles ...entity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := IdentityFrom(c)
		if !ok {
			response.Error(c, http.StatusUnauthorized, "Missing Bearer token", nil)
			return
		}
		for _, r := range roles {
			if id.Role == r {
				c.Next()
				return
			}
		}
		response.Error(c, http.StatusForbidden, "Forbidden", nil)
	}
}

// IdentityFrom returns the identity set by Auth.
func IdentityFrom(c *gin.Context) (entity.Identity, bool) {
	v, ok := c.Get(CtxIdentityKey)
	if !ok {
		return entity.Identity{}, false
	}
	id, ok := v.(entity.Identity)
	return id, ok
}

func bearerToken(h string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(h), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
