package app

import (
	"gorm.io/gorm"

	guiderepo "github.com/yungbote/courseguide-backend/internal/data/repos/courseguide"
	"github.com/yungbote/courseguide-backend/internal/platform/logger"
)

type Repos struct {
	GuideRequest guiderepo.GuideRequestRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		GuideRequest: guiderepo.NewGuideRequestRepo(db, log),
	}
}
