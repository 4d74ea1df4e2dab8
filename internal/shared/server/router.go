package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cvparse-backend/internal/documents"
	"cvparse-backend/internal/extractions"
	"cvparse-backend/internal/shared/config"
	"cvparse-backend/internal/shared/metrics"
	"cvparse-backend/internal/shared/server/middleware"
	"cvparse-backend/internal/shared/server/respond"
	"cvparse-backend/internal/uploads"
)

// RouterDeps carries the handlers the router mounts. Construction of services
// happens in bootstrap; the router only wires routes.
type RouterDeps struct {
	Config            config.Config
	DocumentHandler   *documents.Handler
	ExtractionHandler *extractions.Handler
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
		middleware.Auth(deps.Config.Env),
		middleware.RateLimit(middleware.RateLimitConfig{
			Rules: map[string]middleware.RateLimitRule{
				"EXTRACT": {Rate: 0.5, Burst: 5},
				"UPLOAD":  {Rate: 1, Burst: 10},
			},
			GroupFor: func(c *gin.Context) string {
				if c.Request.Method != http.MethodPost {
					return ""
				}
				switch c.FullPath() {
				case "/api/v1/extractions":
					return "EXTRACT"
				case "/api/v1/documents", "/api/v1/documents/from-s3":
					return "UPLOAD"
				}
				return ""
			},
		}),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})
	registerMeRoutes(api)
	uploads.RegisterRoutes(api)
	if deps.DocumentHandler != nil {
		deps.DocumentHandler.RegisterRoutes(api)
	}
	if deps.ExtractionHandler != nil {
		deps.ExtractionHandler.RegisterRoutes(api)
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
