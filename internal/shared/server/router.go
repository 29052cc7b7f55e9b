package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"alarmcheck-backend/internal/checklist"
	"alarmcheck-backend/internal/ics"
	"alarmcheck-backend/internal/services/health"
	"alarmcheck-backend/internal/shared/config"
	"alarmcheck-backend/internal/shared/metrics"
	"alarmcheck-backend/internal/shared/server/middleware"
	"alarmcheck-backend/internal/shared/server/respond"
)

// RouterDeps carries the handlers the router wires up.
type RouterDeps struct {
	Config           config.Config
	ChecklistHandler *checklist.Handler
	CalendarHandler  *ics.Handler
	HealthService    *health.Service
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.RateLimit(middleware.RateLimitConfig{
			Rules: map[string]middleware.RateLimitRule{
				"DEFAULT": {Rate: 10, Burst: 30},
			},
		}),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, deps.HealthService.Status())
	})
	deps.ChecklistHandler.RegisterRoutes(api)
	deps.CalendarHandler.RegisterRoutes(api)

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
