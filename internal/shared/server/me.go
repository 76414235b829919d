package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"recruit-backend/internal/shared/server/middleware"
	"recruit-backend/internal/shared/server/respond"
)

// registerMeRoutes attaches the /me endpoint.
func registerMeRoutes(rg *gin.RouterGroup) {
	rg.GET("/me", meHandler)
}

func meHandler(c *gin.Context) {
	actor := middleware.ActorFromContext(c)
	if actor.UserID == "" {
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
		return
	}

	response := gin.H{
		"userId": actor.UserID,
		"role":   actor.Role,
	}
	if actor.CompanyID != "" {
		response["companyId"] = actor.CompanyID
	}
	respond.JSON(c, http.StatusOK, response)
}
