package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"

	"recruit-backend/internal/audit"
	"recruit-backend/internal/domain"
)

type auditSink struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (s *auditSink) Record(_ context.Context, e audit.Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
}

func TestAuditRecordsMutationsOnly(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tokens := newTokens(t)
	sink := &auditSink{}

	router := gin.New()
	router.Use(RequestID(), Auth(tokens), Audit(sink))
	router.POST("/jobs", func(c *gin.Context) {
		SetEntity(c, "job", "job-7")
		c.JSON(http.StatusCreated, gin.H{"ok": true})
	})
	router.POST("/jobs/:jobId/close", func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"ok": false})
	})
	router.GET("/jobs/:jobId", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	for _, tc := range []struct{ method, path string }{
		{http.MethodPost, "/jobs"},
		{http.MethodPost, "/jobs/job-3/close"},
		{http.MethodGet, "/jobs/job-3"},
	} {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		req.Header.Set("Authorization", bearer(t, tokens, "user-1", "co-1", domain.RoleRecruiter))
		router.ServeHTTP(httptest.NewRecorder(), req)
	}

	if len(sink.entries) != 2 {
		t.Fatalf("expected two audit entries, got %d", len(sink.entries))
	}
	created := sink.entries[0]
	if created.EntityType != "job" || created.EntityID != "job-7" || created.StatusCode != http.StatusCreated {
		t.Fatalf("unexpected create entry: %+v", created)
	}
	if created.ActorID != "user-1" || created.CompanyID != "co-1" || created.RequestID == "" {
		t.Fatalf("actor fields missing: %+v", created)
	}
	closed := sink.entries[1]
	if closed.EntityID != "job-3" || closed.StatusCode != http.StatusNotFound {
		t.Fatalf("unexpected close entry: %+v", closed)
	}
}
