package app

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/titlememory-backend/internal/data/repos/titlememory"
	"github.com/yungbote/titlememory-backend/internal/http"
	httpH "github.com/yungbote/titlememory-backend/internal/http/handlers"
	httpMW "github.com/yungbote/titlememory-backend/internal/http/middleware"
	"github.com/yungbote/titlememory-backend/internal/observability"
	"github.com/yungbote/titlememory-backend/internal/platform/dbctx"
	"github.com/yungbote/titlememory-backend/internal/platform/logger"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

type Handlers struct {
	Health      *httpH.HealthHandler
	TitleMemory *httpH.TitleMemoryHandler
}

func wireHandlers(log *logger.Logger, services Services, repos Repos, clients Clients) Handlers {
	log.Info("Wiring handlers...")
	checks := map[string]httpH.HealthCheck{
		"db": dbCheck(repos.TitleMemory),
	}
	if clients.Redis != nil {
		rdb := clients.Redis
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}
	return Handlers{
		Health:      httpH.NewHealthHandler(log, checks),
		TitleMemory: httpH.NewTitleMemoryHandler(log, services.TitleMemory),
	}
}

func dbCheck(repo titlememory.TitleMemoryRepo) httpH.HealthCheck {
	return func(ctx context.Context) error {
		return repo.Ping(dbctx.Context{Ctx: ctx})
	}
}

func wireMiddleware(log *logger.Logger, clients Clients) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, clients.Identity),
	}
}

func wireRouter(log *logger.Logger, cfg Config, handlers Handlers, middleware Middleware, metrics *observability.Metrics) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	return http.NewRouter(http.RouterConfig{
		Log:                log,
		ServiceName:        ServiceName,
		AllowedOrigins:     cfg.AllowedOrigins,
		Metrics:            metrics,
		AuthMiddleware:     middleware.Auth,
		TitleMemoryHandler: handlers.TitleMemory,
		HealthHandler:      handlers.Health,
	})
}
