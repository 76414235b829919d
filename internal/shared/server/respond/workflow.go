package respond

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"recruit-backend/internal/workflow"
)

// Workflow maps a lifecycle manager error onto the standard error body.
func Workflow(c *gin.Context, err error) {
	var verr *workflow.ValidationError
	switch {
	case errors.Is(err, workflow.ErrInconsistent):
		Error(c, http.StatusInternalServerError, "internal", "workflow consistency fault", nil)
	case errors.As(err, &verr):
		var details interface{}
		if verr.Field != "" {
			details = map[string]string{"field": verr.Field}
		}
		Error(c, http.StatusBadRequest, "validation_error", verr.Error(), details)
	case errors.Is(err, workflow.ErrNoOpenings):
		Error(c, http.StatusConflict, "no_openings", workflow.ErrNoOpenings.Error(), nil)
	case errors.Is(err, workflow.ErrNotOpen):
		Error(c, http.StatusConflict, "not_open", workflow.ErrNotOpen.Error(), nil)
	case errors.Is(err, workflow.ErrConflict):
		Error(c, http.StatusConflict, "conflict", err.Error(), nil)
	case errors.Is(err, workflow.ErrNotFound):
		Error(c, http.StatusNotFound, "not_found", "not found", nil)
	default:
		Error(c, http.StatusInternalServerError, "internal", "unexpected server error", nil)
	}
}
