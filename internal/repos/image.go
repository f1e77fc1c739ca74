package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/duda4418/dishwise-backend/internal/logger"
	"github.com/duda4418/dishwise-backend/internal/types"
)

type ImageRepo interface {
	Create(ctx context.Context, tx *gorm.DB, image *types.ConversationImage) (*types.ConversationImage, error)
	Update(ctx context.Context, tx *gorm.DB, image *types.ConversationImage) error
	ListBySession(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) ([]*types.ConversationImage, error)
}

type imageRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewImageRepo(db *gorm.DB, baseLog *logger.Logger) ImageRepo {
	repoLog := baseLog.With("repo", "ImageRepo")
	return &imageRepo{db: db, log: repoLog}
}

func (r *imageRepo) tx(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *imageRepo) Create(ctx context.Context, tx *gorm.DB, image *types.ConversationImage) (*types.ConversationImage, error) {
	if err := r.tx(tx).WithContext(ctx).Create(image).Error; err != nil {
		return nil, err
	}
	return image, nil
}

func (r *imageRepo) Update(ctx context.Context, tx *gorm.DB, image *types.ConversationImage) error {
	return r.tx(tx).WithContext(ctx).Save(image).Error
}

func (r *imageRepo) ListBySession(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) ([]*types.ConversationImage, error) {
	var results []*types.ConversationImage
	if err := r.tx(tx).WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
