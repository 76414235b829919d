package applications

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"recruit-backend/internal/domain"
	"recruit-backend/internal/shared/server/middleware"
	"recruit-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches application routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	candidates := middleware.RequireRole(domain.RoleCandidate)
	recruiters := middleware.RequireRole(domain.RoleRecruiter, domain.RoleCompanyAdmin)
	deciders := middleware.RequireRole(domain.RoleRecruiter, domain.RoleHiringManager, domain.RoleCompanyAdmin)
	staff := middleware.RequireStaff()

	rg.POST("/jobs/:jobId/applications", candidates, h.apply)
	rg.GET("/jobs/:jobId/applications", staff, h.listByJob)
	rg.GET("/me/applications", candidates, h.listMine)
	rg.GET("/applications/:applicationId", staff, h.get)
	rg.POST("/applications/:applicationId/screen", recruiters, h.screen)
	rg.POST("/applications/:applicationId/move-stage", recruiters, h.moveStage)
	rg.POST("/applications/:applicationId/final-decision", deciders, h.finalDecision)
}

func (h *Handler) apply(c *gin.Context) {
	var req applyRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
			return
		}
	}
	app, err := h.Svc.Apply(c.Request.Context(), middleware.ActorFromContext(c), c.Param("jobId"), req.CoverLetter)
	if err != nil {
		respond.Workflow(c, err)
		return
	}
	middleware.SetEntity(c, entity, app.ID)
	c.Set(middleware.StatusTransitionKey, string(app.Status))
	respond.Created(c, toResponse(app))
}

func (h *Handler) listByJob(c *gin.Context) {
	items, err := h.Svc.ListByJob(c.Request.Context(), middleware.ActorFromContext(c), c.Param("jobId"), listFilter(c))
	if err != nil {
		respond.Workflow(c, err)
		return
	}
	respond.List(c, toResponses(items))
}

func (h *Handler) listMine(c *gin.Context) {
	items, err := h.Svc.ListMine(c.Request.Context(), middleware.ActorFromContext(c), listFilter(c))
	if err != nil {
		respond.Workflow(c, err)
		return
	}
	respond.List(c, toResponses(items))
}

func (h *Handler) get(c *gin.Context) {
	app, err := h.Svc.Get(c.Request.Context(), middleware.ActorFromContext(c), c.Param("applicationId"))
	if err != nil {
		respond.Workflow(c, err)
		return
	}
	respond.OK(c, toResponse(app))
}

func (h *Handler) screen(c *gin.Context) {
	var req screenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	app, err := h.Svc.Screen(c.Request.Context(), middleware.ActorFromContext(c), c.Param("applicationId"), domain.ApplicationStatus(req.Status))
	h.finish(c, app, err)
}

func (h *Handler) moveStage(c *gin.Context) {
	var req moveStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	app, err := h.Svc.MoveStage(c.Request.Context(), middleware.ActorFromContext(c), c.Param("applicationId"), req.Status, req.StageID)
	h.finish(c, app, err)
}

func (h *Handler) finalDecision(c *gin.Context) {
	var req finalDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	app, err := h.Svc.FinalDecision(c.Request.Context(), middleware.ActorFromContext(c), c.Param("applicationId"), domain.ApplicationStatus(req.Status))
	h.finish(c, app, err)
}

func (h *Handler) finish(c *gin.Context, app domain.Application, err error) {
	if err != nil {
		respond.Workflow(c, err)
		return
	}
	c.Set(middleware.StatusTransitionKey, string(app.Status))
	respond.OK(c, toResponse(app))
}

func listFilter(c *gin.Context) ListFilter {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))
	return ListFilter{
		Status: domain.ApplicationStatus(c.Query("status")),
		Limit:  limit,
		Offset: offset,
	}
}
