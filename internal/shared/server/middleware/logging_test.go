package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"recruit-backend/internal/domain"
	"recruit-backend/internal/shared/telemetry"
)

func TestLoggingIncludesRequiredFields(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tokens := newTokens(t)

	router := gin.New()
	router.Use(RequestID(), Auth(tokens), Logging())
	router.POST("/jobs/:jobId/publish", func(c *gin.Context) {
		c.Set(StatusTransitionKey, "draft->published")
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	var buf bytes.Buffer
	telemetry.Configure(&buf, "info")
	t.Cleanup(func() { telemetry.Configure(os.Stdout, "info") })

	req := httptest.NewRequest(http.MethodPost, "/jobs/job-1/publish", nil)
	req.Header.Set("Authorization", bearer(t, tokens, "user-1", "co-1", domain.RoleRecruiter))
	req.Header.Set("X-Request-Id", "req-42")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) == 0 || lines[0] == "" {
		t.Fatalf("expected log output")
	}
	last := lines[len(lines)-1]
	var payload map[string]any
	if err := json.Unmarshal([]byte(last), &payload); err != nil {
		t.Fatalf("decode log json: %v", err)
	}

	required := []string{"request_id", "user_id", "company_id", "role", "duration_ms", "status", "status_transition"}
	for _, key := range required {
		if _, ok := payload[key]; !ok {
			t.Fatalf("missing log field: %s", key)
		}
	}
	if payload["request_id"] != "req-42" {
		t.Fatalf("unexpected request_id: %v", payload["request_id"])
	}
	if payload["user_id"] != "user-1" || payload["company_id"] != "co-1" {
		t.Fatalf("unexpected identity fields: %v", payload)
	}
	if payload["status_transition"] != "draft->published" {
		t.Fatalf("unexpected status_transition: %v", payload["status_transition"])
	}
}

func TestRequestIDReplacesUnsafeHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestID())
	router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, RequestIDFromContext(c))
	})

	cases := map[string]bool{
		"req-42":                 true,
		"":                       false,
		"has space":              false,
		strings.Repeat("a", 200): false,
	}
	for in, keep := range cases {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set("X-Request-Id", in)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)

		got := resp.Header().Get("X-Request-Id")
		if got != resp.Body.String() {
			t.Fatalf("header %q and context %q differ", got, resp.Body.String())
		}
		if keep && got != in {
			t.Fatalf("expected %q to be kept, got %q", in, got)
		}
		if !keep && (got == in || len(got) != 36) {
			t.Fatalf("expected %q to be replaced with a uuid, got %q", in, got)
		}
	}
}
