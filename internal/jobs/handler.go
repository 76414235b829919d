package jobs

import (
	"context"
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

// RegisterRoutes attaches job routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	authors := middleware.RequireRole(domain.RoleRecruiter, domain.RoleCompanyAdmin)
	approvers := middleware.RequireRole(domain.RoleHiringManager, domain.RoleCompanyAdmin)
	staff := middleware.RequireStaff()

	rg.POST("/jobs", authors, h.create)
	rg.GET("/jobs", staff, h.list)
	rg.GET("/jobs/:jobId", staff, h.get)
	rg.PATCH("/jobs/:jobId", authors, h.edit)
	rg.GET("/jobs/:jobId/approvals", staff, h.listApprovals)
	rg.POST("/jobs/:jobId/submit", authors, h.submit)
	rg.POST("/jobs/:jobId/approve", approvers, h.approve)
	rg.POST("/jobs/:jobId/reject", approvers, h.reject)
	rg.POST("/jobs/:jobId/publish", authors, h.publish)
	rg.POST("/jobs/:jobId/close", authors, h.close)
}

func (h *Handler) create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	job, err := h.Svc.Create(c.Request.Context(), middleware.ActorFromContext(c), CreateInput{
		Title:          req.Title,
		Description:    req.Description,
		PositionsCount: req.PositionsCount,
	})
	if err != nil {
		respond.Workflow(c, err)
		return
	}
	middleware.SetEntity(c, "job", job.ID)
	respond.Created(c, toResponse(job))
}

func (h *Handler) list(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))
	items, err := h.Svc.List(c.Request.Context(), middleware.ActorFromContext(c), ListFilter{
		Status: domain.JobStatus(c.Query("status")),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		respond.Workflow(c, err)
		return
	}
	out := make([]JobResponse, 0, len(items))
	for _, job := range items {
		out = append(out, toResponse(job))
	}
	respond.List(c, out)
}

func (h *Handler) get(c *gin.Context) {
	job, err := h.Svc.Get(c.Request.Context(), middleware.ActorFromContext(c), c.Param("jobId"))
	if err != nil {
		respond.Workflow(c, err)
		return
	}
	respond.OK(c, toResponse(job))
}

func (h *Handler) edit(c *gin.Context) {
	var req editRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	job, err := h.Svc.Edit(c.Request.Context(), middleware.ActorFromContext(c), c.Param("jobId"), Patch{
		Title:          req.Title,
		Description:    req.Description,
		PositionsCount: req.PositionsCount,
	})
	if err != nil {
		respond.Workflow(c, err)
		return
	}
	respond.OK(c, toResponse(job))
}

func (h *Handler) listApprovals(c *gin.Context) {
	items, err := h.Svc.ListApprovals(c.Request.Context(), middleware.ActorFromContext(c), c.Param("jobId"))
	if err != nil {
		respond.Workflow(c, err)
		return
	}
	out := make([]ApprovalResponse, 0, len(items))
	for _, a := range items {
		out = append(out, toApprovalResponse(a))
	}
	respond.List(c, out)
}

func (h *Handler) submit(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	approval, err := h.Svc.Submit(c.Request.Context(), middleware.ActorFromContext(c), c.Param("jobId"), req.ApproverID)
	if err != nil {
		respond.Workflow(c, err)
		return
	}
	c.Set(middleware.StatusTransitionKey, string(domain.JobPending))
	respond.OK(c, toApprovalResponse(approval))
}

func (h *Handler) approve(c *gin.Context) {
	h.decide(c, h.Svc.Approve)
}

func (h *Handler) reject(c *gin.Context) {
	h.decide(c, h.Svc.Reject)
}

type decideFunc func(ctx context.Context, actor domain.Actor, jobID, comments string) (domain.Job, error)

func (h *Handler) decide(c *gin.Context, fn decideFunc) {
	var req decisionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
			return
		}
	}
	job, err := fn(c.Request.Context(), middleware.ActorFromContext(c), c.Param("jobId"), req.Comments)
	if err != nil {
		respond.Workflow(c, err)
		return
	}
	c.Set(middleware.StatusTransitionKey, string(job.Status))
	respond.OK(c, toResponse(job))
}

func (h *Handler) publish(c *gin.Context) {
	h.move(c, h.Svc.Publish)
}

func (h *Handler) close(c *gin.Context) {
	h.move(c, h.Svc.Close)
}

func (h *Handler) move(c *gin.Context, fn func(ctx context.Context, actor domain.Actor, jobID string) (domain.Job, error)) {
	job, err := fn(c.Request.Context(), middleware.ActorFromContext(c), c.Param("jobId"))
	if err != nil {
		respond.Workflow(c, err)
		return
	}
	c.Set(middleware.StatusTransitionKey, string(job.Status))
	respond.OK(c, toResponse(job))
}
