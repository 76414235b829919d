package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"recruit-backend/internal/audit"
)

const (
	entityTypeKey = "auditEntityType"
	entityIDKey   = "auditEntityId"
)

// SetEntity names the entity a handler created or changed for the audit trail.
func SetEntity(c *gin.Context, entityType, id string) {
	c.Set(entityTypeKey, entityType)
	c.Set(entityIDKey, id)
}

// Audit records every mutating request after the handler ran. Reads are skipped.
func Audit(rec audit.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if rec == nil || !mutating(c.Request.Method) {
			return
		}
		actor := ActorFromContext(c)
		entityID := c.GetString(entityIDKey)
		if entityID == "" {
			entityID = firstParam(c)
		}
		rec.Record(context.WithoutCancel(c.Request.Context()), audit.Entry{
			RequestID:  RequestIDFromContext(c),
			ActorID:    actor.UserID,
			CompanyID:  actor.CompanyID,
			Role:       string(actor.Role),
			Method:     c.Request.Method,
			Path:       c.Request.URL.Path,
			EntityType: c.GetString(entityTypeKey),
			EntityID:   entityID,
			StatusCode: c.Writer.Status(),
			At:         time.Now().UTC(),
		})
	}
}

func mutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

func firstParam(c *gin.Context) string {
	if len(c.Params) == 0 {
		return ""
	}
	return c.Params[0].Value
}
