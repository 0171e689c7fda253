package app

import (
	httpserver "github.com/yungbote/courseguide-backend/internal/http"
	"github.com/yungbote/courseguide-backend/internal/observability"
	"github.com/yungbote/courseguide-backend/internal/platform/logger"
)

func wireServer(log *logger.Logger, cfg Config, handlers Handlers, middleware Middleware, metrics *observability.Metrics) *httpserver.Server {
	return httpserver.NewServer(httpserver.RouterConfig{
		Log:                log,
		CourseGuideHandler: handlers.CourseGuide,
		RealtimeHandler:    handlers.Realtime,
		HealthHandler:      handlers.Health,
		IdentityMiddleware: middleware.Identity,
		Metrics:            metrics,
		CORSOrigins:        cfg.CORSOrigins,
		TracingEnabled:     cfg.Otel.Enabled,
		ServiceName:        cfg.Otel.ServiceName,
	})
}
