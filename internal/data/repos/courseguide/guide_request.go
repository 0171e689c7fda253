package courseguide

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/courseguide-backend/internal/domain"
	"github.com/yungbote/courseguide-backend/internal/platform/logger"
)

type GuideRequestRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rows []*types.GuideRequest) ([]*types.GuideRequest, error)
	GetByUserID(ctx context.Context, tx *gorm.DB, userID string) ([]*types.GuideRequest, error)
	GetByTuple(ctx context.Context, tx *gorm.DB, userID, input, createdAt string) ([]*types.GuideRequest, error)
	DeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error
}

type guideRequestRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewGuideRequestRepo(db *gorm.DB, baseLog *logger.Logger) GuideRequestRepo {
	repoLog := baseLog.With("repo", "GuideRequestRepo")
	return &guideRequestRepo{db: db, log: repoLog}
}

func (r *guideRequestRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.GuideRequest) ([]*types.GuideRequest, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(rows) == 0 {
		return []*types.GuideRequest{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *guideRequestRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID string) ([]*types.GuideRequest, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	results := []*types.GuideRequest{}
	if userID == "" {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// GetByTuple matches all three fields exactly. Duplicate tuples are possible
// when two creates land in the same millisecond, so the result is a slice.
func (r *guideRequestRepo) GetByTuple(ctx context.Context, tx *gorm.DB, userID, input, createdAt string) ([]*types.GuideRequest, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	results := []*types.GuideRequest{}
	if err := transaction.WithContext(ctx).
		Where("user_id = ? AND input = ? AND created_at = ?", userID, input, createdAt).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *guideRequestRepo) DeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(ids) == 0 {
		return nil
	}

	if err := transaction.WithContext(ctx).
		Where("id IN ?", ids).
		Delete(&types.GuideRequest{}).Error; err != nil {
		return err
	}
	return nil
}
