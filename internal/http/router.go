package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/courseguide-backend/internal/http/handlers"
	httpMW "github.com/yungbote/courseguide-backend/internal/http/middleware"
	"github.com/yungbote/courseguide-backend/internal/observability"
	"github.com/yungbote/courseguide-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log *logger.Logger

	CourseGuideHandler *httpH.CourseGuideHandler
	RealtimeHandler    *httpH.RealtimeHandler
	HealthHandler      *httpH.HealthHandler

	IdentityMiddleware *httpMW.IdentityMiddleware

	// Optional.
	Metrics        *observability.Metrics
	CORSOrigins    []string
	TracingEnabled bool
	ServiceName    string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.TracingEnabled {
		name := cfg.ServiceName
		if name == "" {
			name = "courseguide"
		}
		r.Use(otelgin.Middleware(name))
	}
	// After otelgin so the server span's trace id is reused.
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS(cfg.CORSOrigins))
	r.Use(httpMW.Metrics(cfg.Metrics))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	api := r.Group("/api")
	if cfg.IdentityMiddleware != nil {
		api.Use(cfg.IdentityMiddleware.RequireIdentity())
	}
	{
		if cfg.CourseGuideHandler != nil {
			api.POST("/course-guide", cfg.CourseGuideHandler.Create)
			api.GET("/course-guide", cfg.CourseGuideHandler.List)
			api.DELETE("/course-guide", cfg.CourseGuideHandler.Delete)
		}
		if cfg.RealtimeHandler != nil {
			api.GET("/course-guide/stream", cfg.RealtimeHandler.Stream)
		}
	}

	return r
}
