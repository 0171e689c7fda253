package app

import (
	httpH "github.com/yungbote/courseguide-backend/internal/http/handlers"
	"github.com/yungbote/courseguide-backend/internal/platform/logger"
	"github.com/yungbote/courseguide-backend/internal/realtime"
)

type Handlers struct {
	Health      *httpH.HealthHandler
	CourseGuide *httpH.CourseGuideHandler
	Realtime    *httpH.RealtimeHandler
}

func wireHandlers(log *logger.Logger, services Services, hub *realtime.Hub, db httpH.Pinger) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:      httpH.NewHealthHandler(db),
		CourseGuide: httpH.NewCourseGuideHandler(log, services.CourseGuide),
		Realtime:    httpH.NewRealtimeHandler(log, hub),
	}
}
