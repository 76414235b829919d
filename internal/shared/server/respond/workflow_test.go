package respond

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"recruit-backend/internal/workflow"
)

func TestWorkflowMapsOutcomes(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name string
		err  error
		code int
		body string
	}{
		{"validation", workflow.Invalid("status", "unknown"), http.StatusBadRequest, "validation_error"},
		{"not found", workflow.ErrNotFound, http.StatusNotFound, "not_found"},
		{"illegal transition", &workflow.IllegalTransitionError{Entity: "job", From: "closed", Event: "close"}, http.StatusNotFound, "not_found"},
		{"no openings", fmt.Errorf("apply: %w", workflow.ErrNoOpenings), http.StatusConflict, "no_openings"},
		{"not open", workflow.ErrNotOpen, http.StatusConflict, "not_open"},
		{"conflict", workflow.Conflict("already applied"), http.StatusConflict, "conflict"},
		{"inconsistent", workflow.Inconsistent("seat decrement"), http.StatusInternalServerError, "internal"},
		{"other", errors.New("db down"), http.StatusInternalServerError, "internal"},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodPost, "/x", nil)

		Workflow(c, tc.err)

		if w.Code != tc.code {
			t.Fatalf("%s: expected %d, got %d", tc.name, tc.code, w.Code)
		}
		var resp ErrorResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("%s: decode: %v", tc.name, err)
		}
		if resp.Error.Code != tc.body {
			t.Fatalf("%s: expected code %q, got %q", tc.name, tc.body, resp.Error.Code)
		}
	}
}
