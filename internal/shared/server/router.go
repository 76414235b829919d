package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"recruit-backend/internal/applications"
	"recruit-backend/internal/audit"
	"recruit-backend/internal/interviews"
	"recruit-backend/internal/jobs"
	"recruit-backend/internal/offers"
	"recruit-backend/internal/services/health"
	"recruit-backend/internal/shared/config"
	"recruit-backend/internal/shared/metrics"
	"recruit-backend/internal/shared/server/middleware"
	"recruit-backend/internal/shared/server/respond"
)

// RouterDeps carries everything NewRouter mounts. Nil handlers are skipped.
type RouterDeps struct {
	Config             config.Config
	Tokens             middleware.TokenVerifier
	Audit              audit.Recorder
	Health             *health.Service
	Limiter            *middleware.RateLimiter
	JobHandler         *jobs.Handler
	ApplicationHandler *applications.Handler
	InterviewHandler   *interviews.Handler
	OfferHandler       *offers.Handler
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		metrics.GinMiddleware(),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		status := deps.Health.Status(c.Request.Context())
		code := http.StatusOK
		if !status["ok"] {
			code = http.StatusServiceUnavailable
		}
		respond.JSON(c, code, status)
	})

	authed := api.Group("")
	authed.Use(
		middleware.Auth(deps.Tokens),
		middleware.RateLimit(middleware.RateLimitConfig{
			Rules: map[string]middleware.RateLimitRule{
				"READ":  {Rate: 2 * deps.Config.RateLimitRPS, Burst: 2 * deps.Config.RateLimitBurst},
				"WRITE": {Rate: deps.Config.RateLimitRPS, Burst: deps.Config.RateLimitBurst},
			},
			GroupFor: middleware.MethodGroup,
			Limiter:  deps.Limiter,
		}),
		middleware.Audit(deps.Audit),
	)
	registerMeRoutes(authed)

	if deps.JobHandler != nil {
		deps.JobHandler.RegisterRoutes(authed)
	}
	if deps.ApplicationHandler != nil {
		deps.ApplicationHandler.RegisterRoutes(authed)
	}
	if deps.InterviewHandler != nil {
		deps.InterviewHandler.RegisterRoutes(authed)
	}
	if deps.OfferHandler != nil {
		deps.OfferHandler.RegisterRoutes(authed)
	}

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
