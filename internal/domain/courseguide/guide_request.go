package courseguide

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CreatedAtLayout matches JavaScript's Date.toISOString; fixed width, so lexical
// order of stored values is chronological order.
const CreatedAtLayout = "2006-01-02T15:04:05.000Z"

func FormatCreatedAt(t time.Time) string {
	return t.UTC().Format(CreatedAtLayout)
}

type RoadmapStep struct {
	Step        string `json:"step"`
	Description string `json:"description"`
}

type SuggestedCourse struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
}

// GuideRequest is one user's course-guide query and its generated result.
// ID is store-internal; clients address records by (userId, input, createdAt).
type GuideRequest struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"-"`

	Input            string                               `gorm:"column:input;type:text;not null" json:"input"`
	Roadmap          datatypes.JSONSlice[RoadmapStep]     `gorm:"column:roadmap" json:"roadmap"`
	SuggestedCourses datatypes.JSONSlice[SuggestedCourse] `gorm:"column:suggested_courses" json:"suggestedCourses"`

	CreatedAt string `gorm:"column:created_at;not null;autoCreateTime:false;index:idx_course_guide_user_created,priority:2" json:"createdAt"`
	UserID    string `gorm:"column:user_id;not null;index:idx_course_guide_user_created,priority:1" json:"userId"`
}

func (GuideRequest) TableName() string { return "course_guide_request" }

func (g *GuideRequest) BeforeCreate(tx *gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	if g.Roadmap == nil {
		g.Roadmap = datatypes.JSONSlice[RoadmapStep]{}
	}
	if g.SuggestedCourses == nil {
		g.SuggestedCourses = datatypes.JSONSlice[SuggestedCourse]{}
	}
	return nil
}
