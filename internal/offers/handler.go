package offers

import (
	"context"
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

// RegisterRoutes attaches offer routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	writers := middleware.RequireRole(domain.RoleRecruiter, domain.RoleCompanyAdmin)
	candidates := middleware.RequireRole(domain.RoleCandidate)

	rg.POST("/applications/:applicationId/offers", writers, h.create)
	rg.GET("/offers/:offerId", h.get)
	rg.POST("/offers/:offerId/send", writers, h.send)
	rg.POST("/offers/:offerId/accept", candidates, h.accept)
	rg.POST("/offers/:offerId/decline", candidates, h.decline)
}

func (h *Handler) create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	start, err := req.startDate()
	if err != nil {
		respond.Workflow(c, err)
		return
	}
	offer, err := h.Svc.Create(c.Request.Context(), middleware.ActorFromContext(c), CreateInput{
		ApplicationID: c.Param("applicationId"),
		BaseSalary:    req.BaseSalary,
		Currency:      req.Currency,
		StartDate:     start,
		Notes:         req.Notes,
		ESignURL:      req.ESignURL,
	})
	if err != nil {
		respond.Workflow(c, err)
		return
	}
	middleware.SetEntity(c, entity, offer.ID)
	c.Set(middleware.StatusTransitionKey, string(offer.Status))
	respond.Created(c, toResponse(offer))
}

// get serves staff of the owning company and the candidate the offer is for.
func (h *Handler) get(c *gin.Context) {
	actor := middleware.ActorFromContext(c)
	var (
		offer domain.Offer
		err   error
	)
	switch {
	case actor.Role == domain.RoleCandidate:
		offer, err = h.Svc.GetForCandidate(c.Request.Context(), actor, c.Param("offerId"))
	case actor.Role.Staff():
		offer, err = h.Svc.Get(c.Request.Context(), actor, c.Param("offerId"))
	default:
		respond.Error(c, http.StatusForbidden, "forbidden", "role not allowed for this action", nil)
		return
	}
	if err != nil {
		respond.Workflow(c, err)
		return
	}
	respond.OK(c, toResponse(offer))
}

func (h *Handler) send(c *gin.Context) {
	h.finish(c, h.Svc.Send)
}

func (h *Handler) accept(c *gin.Context) {
	h.finish(c, h.Svc.Accept)
}

func (h *Handler) decline(c *gin.Context) {
	h.finish(c, h.Svc.Decline)
}

type transitionFunc func(ctx context.Context, actor domain.Actor, offerID string) (domain.Offer, error)

func (h *Handler) finish(c *gin.Context, fn transitionFunc) {
	offer, err := fn(c.Request.Context(), middleware.ActorFromContext(c), c.Param("offerId"))
	if err != nil {
		respond.Workflow(c, err)
		return
	}
	middleware.SetEntity(c, entity, offer.ID)
	c.Set(middleware.StatusTransitionKey, string(offer.Status))
	respond.OK(c, toResponse(offer))
}
