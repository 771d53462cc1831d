package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/titlememory-backend/internal/http/handlers"
	httpMW "github.com/yungbote/titlememory-backend/internal/http/middleware"
	"github.com/yungbote/titlememory-backend/internal/observability"
	"github.com/yungbote/titlememory-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	ServiceName    string
	AllowedOrigins []string
	Metrics        *observability.Metrics

	AuthMiddleware     *httpMW.AuthMiddleware
	TitleMemoryHandler *httpH.TitleMemoryHandler
	HealthHandler      *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.AllowedOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	h := cfg.TitleMemoryHandler
	if h == nil {
		return r
	}

	requireAuth := func(c *gin.Context) { c.Next() }
	optionalAuth := requireAuth
	if cfg.AuthMiddleware != nil {
		requireAuth = cfg.AuthMiddleware.RequireAuth()
		optionalAuth = cfg.AuthMiddleware.OptionalAuth()
	}

	tm := r.Group("/api/title-memories")
	{
		// Public
		tm.GET("", h.List)
		tm.GET("/:id", h.Get)
		tm.GET("/:id/competencies", h.GetCompetencies)
		tm.POST("/search", optionalAuth, h.Search)

		// Service-to-service checks
		tm.POST("/check-owner", h.CheckOwner)
		tm.POST("/validate-skills", h.ValidateSkills)
		tm.POST("/validate-outcomes", h.ValidateOutcomes)
	}

	protected := tm.Group("", requireAuth)
	{
		protected.GET("/user/memories", h.ListByUser)
		protected.GET("/permitted", h.ListPermitted)
		protected.POST("", h.Create)
		protected.POST("/bulk", h.BulkCreate)
		protected.POST("/import", h.Import)
		protected.PUT("/:id", h.Update)
		protected.DELETE("/:id", h.Delete)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"message": "route not found", "code": "not_found"}})
	})
	return r
}
