package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"recruit-backend/internal/domain"
	"recruit-backend/internal/shared/auth"
)

func newTokens(t *testing.T) *auth.Tokens {
	t.Helper()
	tokens, err := auth.NewTokens("test-secret", false)
	if err != nil {
		t.Fatalf("NewTokens: %v", err)
	}
	return tokens
}

func bearer(t *testing.T, tokens *auth.Tokens, userID, companyID string, role domain.Role) string {
	t.Helper()
	signed, err := tokens.Sign(auth.Claims{
		CompanyID:        companyID,
		Role:             string(role),
		RegisteredClaims: jwt.RegisteredClaims{Subject: userID},
	})
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	return "Bearer " + signed
}

func TestAuthAllowsOptionsWithoutIdentity(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Auth(newTokens(t)))
	router.OPTIONS("/api/v1/jobs", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/jobs", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.Code)
	}
}

func TestAuthStoresActorAndEnforcesRoles(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tokens := newTokens(t)
	router := gin.New()
	router.Use(Auth(tokens))
	router.POST("/jobs", RequireRole(domain.RoleRecruiter, domain.RoleCompanyAdmin), func(c *gin.Context) {
		actor := ActorFromContext(c)
		c.JSON(http.StatusOK, gin.H{"user": actor.UserID, "company": actor.CompanyID})
	})

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"malformed", "Token abc", http.StatusUnauthorized},
		{"bad token", "Bearer abc", http.StatusUnauthorized},
		{"wrong role", bearer(t, tokens, "u-1", "co-1", domain.RoleInterviewer), http.StatusForbidden},
		{"candidate", bearer(t, tokens, "u-2", "", domain.RoleCandidate), http.StatusForbidden},
		{"recruiter", bearer(t, tokens, "u-3", "co-1", domain.RoleRecruiter), http.StatusOK},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodPost, "/jobs", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != tc.want {
			t.Fatalf("%s: expected %d, got %d (%s)", tc.name, tc.want, resp.Code, resp.Body.String())
		}
	}
}
