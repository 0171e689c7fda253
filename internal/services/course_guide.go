package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	guiderepo "github.com/yungbote/courseguide-backend/internal/data/repos/courseguide"
	types "github.com/yungbote/courseguide-backend/internal/domain"
	"github.com/yungbote/courseguide-backend/internal/domain/courseguide"
	guidemod "github.com/yungbote/courseguide-backend/internal/modules/courseguide"
	"github.com/yungbote/courseguide-backend/internal/observability"
	"github.com/yungbote/courseguide-backend/internal/platform/apierr"
	"github.com/yungbote/courseguide-backend/internal/platform/ctxutil"
	"github.com/yungbote/courseguide-backend/internal/platform/logger"
	"github.com/yungbote/courseguide-backend/internal/platform/openrouter"
	"github.com/yungbote/courseguide-backend/internal/realtime"
)

// Create pipeline stages, in order. Each transition is logged at debug.
const (
	StageReceived     = "received"
	StageModelInvoked = "model_invoked"
	StageSanitized    = "sanitized"
	StageValidated    = "validated"
	StagePersisted    = "persisted"
	StageResponded    = "responded"
)

// deleteConcurrency bounds the per-record delete fan-out.
const deleteConcurrency = 8

type CourseGuideService interface {
	Create(ctx context.Context, input, userID string) (*types.GuideRequest, error)
	List(ctx context.Context, userID string) ([]*types.GuideRequest, error)
	// Delete removes every record matching the tuple and reports how many.
	Delete(ctx context.Context, userID, input, createdAt string) (int, error)
}

// ChangePublisher receives created/deleted events. *realtime.Hub satisfies it.
type ChangePublisher interface {
	Publish(ctx context.Context, ev realtime.Event) error
}

type CourseGuideDeps struct {
	DB  *gorm.DB
	Log *logger.Logger

	Completer guidemod.Completer
	Guides    guiderepo.GuideRequestRepo

	// Optional.
	Feed ChangePublisher
	Now  func() time.Time
}

type courseGuideService struct {
	db        *gorm.DB
	log       *logger.Logger
	completer guidemod.Completer
	guides    guiderepo.GuideRequestRepo
	feed      ChangePublisher
	now       func() time.Time
}

func NewCourseGuideServiceWithDeps(deps CourseGuideDeps) (CourseGuideService, error) {
	if deps.Completer == nil {
		return nil, fmt.Errorf("course guide service: missing completer")
	}
	if deps.Guides == nil {
		return nil, fmt.Errorf("course guide service: missing guide request repo")
	}
	log := deps.Log
	if log == nil {
		log = logger.NewNop()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &courseGuideService{
		db:        deps.DB,
		log:       log.With("service", "CourseGuideService"),
		completer: deps.Completer,
		guides:    deps.Guides,
		feed:      deps.Feed,
		now:       now,
	}, nil
}

func (s *courseGuideService) Create(ctx context.Context, input, userID string) (*types.GuideRequest, error) {
	if input == "" || userID == "" {
		return nil, apierr.Validation(apierr.MsgMissingCreateFields)
	}
	log := s.requestLog(ctx).With("user_id", userID)
	log.Debug("course guide stage", "stage", StageReceived)

	raw, err := s.completer.Complete(ctx, input)
	if err != nil {
		var ue *openrouter.UpstreamError
		if errors.As(err, &ue) {
			log.Error("completion provider returned an error", "status", ue.StatusCode, "body", ue.Body)
		} else {
			log.Error("completion request failed", "error", err)
		}
		s.outcome(StageModelInvoked, "upstream_error")
		return nil, apierr.Upstream(err)
	}
	log.Debug("course guide stage", "stage", StageModelInvoked, "raw_len", len(raw))

	cleaned := guidemod.Sanitize(raw)
	log.Debug("course guide stage", "stage", StageSanitized, "sanitized_len", len(cleaned))

	guide, err := guidemod.Validate(cleaned)
	if err != nil {
		log.Error("could not use model output", "error", err, "raw", raw)
		if errors.Is(err, guidemod.ErrParse) {
			s.outcome(StageSanitized, "parse_error")
			return nil, apierr.Parse(err)
		}
		s.outcome(StageValidated, "schema_error")
		return nil, apierr.Schema(err)
	}
	log.Debug("course guide stage", "stage", StageValidated,
		"roadmap_steps", len(guide.Roadmap),
		"courses", len(guide.SuggestedCourses),
	)

	record := &types.GuideRequest{
		Input:            input,
		Roadmap:          datatypes.JSONSlice[types.RoadmapStep](guide.Roadmap),
		SuggestedCourses: datatypes.JSONSlice[types.SuggestedCourse](guide.SuggestedCourses),
		CreatedAt:        courseguide.FormatCreatedAt(s.now()),
		UserID:           userID,
	}
	if _, err := s.guides.Create(ctx, s.db, []*types.GuideRequest{record}); err != nil {
		log.Error("persist guide request failed", "error", err)
		s.outcome(StagePersisted, "store_error")
		return nil, apierr.Internal(fmt.Errorf("create guide request: %w", err))
	}
	log.Debug("course guide stage", "stage", StagePersisted, "created_at", record.CreatedAt)

	s.publish(ctx, realtime.Event{Type: realtime.EventGuideCreated, UserID: userID, Record: record})
	s.outcome(StageResponded, "ok")
	log.Debug("course guide stage", "stage", StageResponded)
	return record, nil
}

func (s *courseGuideService) List(ctx context.Context, userID string) ([]*types.GuideRequest, error) {
	if userID == "" {
		return []*types.GuideRequest{}, nil
	}
	rows, err := s.guides.GetByUserID(ctx, s.db, userID)
	if err != nil {
		s.requestLog(ctx).Error("list guide requests failed", "error", err, "user_id", userID)
		return nil, apierr.Internal(fmt.Errorf("list guide requests: %w", err))
	}
	return rows, nil
}

func (s *courseGuideService) Delete(ctx context.Context, userID, input, createdAt string) (int, error) {
	if userID == "" || input == "" || createdAt == "" {
		return 0, apierr.Validation(apierr.MsgMissingFields)
	}
	log := s.requestLog(ctx).With("user_id", userID)

	matches, err := s.guides.GetByTuple(ctx, s.db, userID, input, createdAt)
	if err != nil {
		log.Error("find guide requests failed", "error", err)
		return 0, apierr.Internal(fmt.Errorf("find guide requests: %w", err))
	}
	if len(matches) == 0 {
		return 0, apierr.NotFound(apierr.MsgEntryNotFound)
	}
	if len(matches) > 1 {
		log.Warn("deleting duplicate guide requests", "count", len(matches), "created_at", createdAt)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(deleteConcurrency)
	for _, m := range matches {
		id := m.ID
		g.Go(func() error {
			return s.guides.DeleteByIDs(gctx, s.db, []uuid.UUID{id})
		})
	}
	if err := g.Wait(); err != nil {
		log.Error("delete guide requests failed", "error", err)
		return 0, apierr.Internal(fmt.Errorf("delete guide requests: %w", err))
	}

	for _, m := range matches {
		s.publish(ctx, realtime.Event{Type: realtime.EventGuideDeleted, UserID: userID, Record: m})
	}
	return len(matches), nil
}

func (s *courseGuideService) publish(ctx context.Context, ev realtime.Event) {
	if s.feed == nil {
		return
	}
	if err := s.feed.Publish(ctx, ev); err != nil {
		s.log.Warn("publish change event failed", "error", err, "type", ev.Type)
	}
}

func (s *courseGuideService) outcome(stage, outcome string) {
	if m := observability.Current(); m != nil {
		m.IncGuideOutcome(stage, outcome)
	}
}

func (s *courseGuideService) requestLog(ctx context.Context) *logger.Logger {
	if td := ctxutil.GetTraceData(ctx); td != nil && td.RequestID != "" {
		return s.log.With("request_id", td.RequestID, "trace_id", td.TraceID)
	}
	return s.log
}
