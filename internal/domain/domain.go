package domain

import (
	"github.com/yungbote/courseguide-backend/internal/domain/courseguide"
)

type (
	GuideRequest    = courseguide.GuideRequest
	RoadmapStep     = courseguide.RoadmapStep
	SuggestedCourse = courseguide.SuggestedCourse
)

// Models lists every table AutoMigrate owns.
func Models() []any {
	return []any{
		&courseguide.GuideRequest{},
	}
}
