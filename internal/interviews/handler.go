package interviews

import (
	"net/http"

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

// RegisterRoutes attaches interview and scorecard routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	schedulers := middleware.RequireRole(domain.RoleRecruiter, domain.RoleCompanyAdmin)
	interviewers := middleware.RequireRole(domain.RoleInterviewer)
	staff := middleware.RequireStaff()

	rg.POST("/applications/:applicationId/interviews", schedulers, h.schedule)
	rg.GET("/interviews/:interviewId", staff, h.get)
	rg.PATCH("/interviews/:interviewId", schedulers, h.update)
	rg.POST("/interviews/:interviewId/cancel", schedulers, h.cancel)
	rg.POST("/interviews/:interviewId/scorecards", interviewers, h.submitScorecard)
	rg.GET("/interviews/:interviewId/scorecards", staff, h.listScorecards)
	rg.POST("/scorecards/:scorecardId/finalize", interviewers, h.finalize)
}

func (h *Handler) schedule(c *gin.Context) {
	var req scheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	iv, err := h.Svc.Schedule(c.Request.Context(), middleware.ActorFromContext(c), ScheduleInput{
		ApplicationID:   c.Param("applicationId"),
		InterviewerID:   req.InterviewerID,
		ScheduledAt:     req.ScheduledAt,
		DurationMinutes: req.DurationMinutes,
		Notes:           req.Notes,
		MeetingLink:     req.MeetingLink,
	})
	if err != nil {
		respond.Workflow(c, err)
		return
	}
	middleware.SetEntity(c, interviewEntity, iv.ID)
	c.Set(middleware.StatusTransitionKey, string(iv.Status))
	respond.Created(c, toResponse(iv))
}

func (h *Handler) get(c *gin.Context) {
	iv, err := h.Svc.Get(c.Request.Context(), middleware.ActorFromContext(c), c.Param("interviewId"))
	if err != nil {
		respond.Workflow(c, err)
		return
	}
	respond.OK(c, toResponse(iv))
}

func (h *Handler) update(c *gin.Context) {
	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	iv, err := h.Svc.Update(c.Request.Context(), middleware.ActorFromContext(c), c.Param("interviewId"), Patch{
		ScheduledAt:     req.ScheduledAt,
		DurationMinutes: req.DurationMinutes,
		Notes:           req.Notes,
		MeetingLink:     req.MeetingLink,
	})
	if err != nil {
		respond.Workflow(c, err)
		return
	}
	respond.OK(c, toResponse(iv))
}

func (h *Handler) cancel(c *gin.Context) {
	iv, err := h.Svc.Cancel(c.Request.Context(), middleware.ActorFromContext(c), c.Param("interviewId"))
	if err != nil {
		respond.Workflow(c, err)
		return
	}
	c.Set(middleware.StatusTransitionKey, string(iv.Status))
	respond.OK(c, toResponse(iv))
}

func (h *Handler) submitScorecard(c *gin.Context) {
	var req scorecardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	sc, err := h.Svc.SubmitScorecard(c.Request.Context(), middleware.ActorFromContext(c), c.Param("interviewId"), ScorecardInput{
		Ratings:        req.Ratings,
		Recommendation: domain.Recommendation(req.Recommendation),
		Notes:          req.Notes,
	})
	if err != nil {
		respond.Workflow(c, err)
		return
	}
	middleware.SetEntity(c, scorecardEntity, sc.ID)
	respond.Created(c, toScorecardResponse(sc))
}

func (h *Handler) listScorecards(c *gin.Context) {
	items, err := h.Svc.ListScorecards(c.Request.Context(), middleware.ActorFromContext(c), c.Param("interviewId"))
	if err != nil {
		respond.Workflow(c, err)
		return
	}
	out := make([]ScorecardResponse, 0, len(items))
	for _, sc := range items {
		out = append(out, toScorecardResponse(sc))
	}
	respond.List(c, out)
}

func (h *Handler) finalize(c *gin.Context) {
	sc, err := h.Svc.Finalize(c.Request.Context(), middleware.ActorFromContext(c), c.Param("scorecardId"))
	if err != nil {
		respond.Workflow(c, err)
		return
	}
	c.Set(middleware.StatusTransitionKey, string(domain.ApplicationScoreSubmitted))
	respond.OK(c, toScorecardResponse(sc))
}
