package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"recruit-backend/internal/domain"
	"recruit-backend/internal/shared/auth"
	"recruit-backend/internal/shared/server/respond"
)

const (
	userIDKey    = "userId"
	companyIDKey = "companyId"
	roleKey      = "role"
	actorKey     = "actor"
)

// TokenVerifier checks a bearer token.
type TokenVerifier interface {
	Verify(token string) (auth.Claims, error)
}

// Auth verifies the bearer token and stores the actor in context.
func Auth(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			return
		}

		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		if !strings.HasPrefix(authHeader, "Bearer ") {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
			return
		}
		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
		if token == "" {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
			return
		}

		claims, err := verifier.Verify(token)
		if err != nil {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
			return
		}

		actor := claims.Actor()
		c.Set(actorKey, actor)
		c.Set(userIDKey, actor.UserID)
		c.Set(roleKey, string(actor.Role))
		if actor.CompanyID != "" {
			c.Set(companyIDKey, actor.CompanyID)
		}
		c.Next()
	}
}

// RequireRole rejects actors whose role is not listed.
func RequireRole(roles ...domain.Role) gin.HandlerFunc {
	allowed := make(map[domain.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		actor := ActorFromContext(c)
		if _, ok := allowed[actor.Role]; !ok {
			respond.Error(c, http.StatusForbidden, "forbidden", "role not allowed for this action", nil)
			return
		}
		c.Next()
	}
}

// RequireStaff rejects actors that are not company staff.
func RequireStaff() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !ActorFromContext(c).Role.Staff() {
			respond.Error(c, http.StatusForbidden, "forbidden", "company staff only", nil)
			return
		}
		c.Next()
	}
}

// ActorFromContext returns the actor stored by Auth.
func ActorFromContext(c *gin.Context) domain.Actor {
	if c == nil {
		return domain.Actor{}
	}
	val, _ := c.Get(actorKey)
	actor, _ := val.(domain.Actor)
	return actor
}

// UserIDFromContext fetches the user ID set by the auth middleware.
func UserIDFromContext(c *gin.Context) string {
	return ActorFromContext(c).UserID
}
