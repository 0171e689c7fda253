package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/yungbote/courseguide-backend/internal/domain"
	"github.com/yungbote/courseguide-backend/internal/domain/courseguide"
)

// UserID returns a user id no other test shares.
func UserID() string { return "user-" + uuid.NewString() }

func SeedGuideRequest(tb testing.TB, ctx context.Context, tx *gorm.DB, userID, input string, at time.Time) *types.GuideRequest {
	tb.Helper()
	g := &types.GuideRequest{
		ID:    uuid.New(),
		Input: input,
		Roadmap: datatypes.JSONSlice[types.RoadmapStep]{
			{Step: "Basics", Description: "Start here"},
		},
		SuggestedCourses: datatypes.JSONSlice[types.SuggestedCourse]{
			{Title: "Intro", Description: "First course", URL: "https://example.com/intro"},
		},
		CreatedAt: courseguide.FormatCreatedAt(at),
		UserID:    userID,
	}
	if err := tx.WithContext(ctx).Create(g).Error; err != nil {
		tb.Fatalf("seed guide request: %v", err)
	}
	return g
}
