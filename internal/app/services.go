package app

import (
	"fmt"

	"gorm.io/gorm"

	guidemod "github.com/yungbote/courseguide-backend/internal/modules/courseguide"
	"github.com/yungbote/courseguide-backend/internal/modules/courseguide/prompts"
	"github.com/yungbote/courseguide-backend/internal/platform/logger"
	"github.com/yungbote/courseguide-backend/internal/realtime"
	"github.com/yungbote/courseguide-backend/internal/services"
)

type Services struct {
	CourseGuide services.CourseGuideService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, reposet Repos, clients Clients, hub *realtime.Hub) (Services, error) {
	log.Info("Wiring services...")

	prompt, err := prompts.Load(cfg.PromptPath)
	if err != nil {
		return Services{}, fmt.Errorf("load course guide prompt: %w", err)
	}
	log.Info("course guide prompt loaded", "name", prompt.Name, "version", prompt.Version)

	completer, err := guidemod.NewCompletionClient(clients.OpenRouter, prompt)
	if err != nil {
		return Services{}, fmt.Errorf("init completion client: %w", err)
	}

	courseGuide, err := services.NewCourseGuideServiceWithDeps(services.CourseGuideDeps{
		DB:        db,
		Log:       log,
		Completer: completer,
		Guides:    reposet.GuideRequest,
		Feed:      hub,
	})
	if err != nil {
		return Services{}, fmt.Errorf("init course guide service: %w", err)
	}

	return Services{CourseGuide: courseGuide}, nil
}
