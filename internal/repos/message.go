package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/duda4418/dishwise-backend/internal/logger"
	"github.com/duda4418/dishwise-backend/internal/types"
)

type MessageRepo interface {
	Create(ctx context.Context, tx *gorm.DB, message *types.ConversationMessage) (*types.ConversationMessage, error)
	GetByID(ctx context.Context, tx *gorm.DB, messageID uuid.UUID) (*types.ConversationMessage, error)
	ListBySession(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID, limit int) ([]*types.ConversationMessage, error)
	UpdateMetadata(ctx context.Context, tx *gorm.DB, messageID uuid.UUID, metadata []byte) error
	SetHelpful(ctx context.Context, tx *gorm.DB, messageID uuid.UUID, helpful bool) error
	CountBySessions(ctx context.Context, tx *gorm.DB, sessionIDs []uuid.UUID) (map[uuid.UUID]int64, error)
}

type messageRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMessageRepo(db *gorm.DB, baseLog *logger.Logger) MessageRepo {
	repoLog := baseLog.With("repo", "MessageRepo")
	return &messageRepo{db: db, log: repoLog}
}

func (r *messageRepo) tx(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *messageRepo) Create(ctx context.Context, tx *gorm.DB, message *types.ConversationMessage) (*types.ConversationMessage, error) {
	if err := r.tx(tx).WithContext(ctx).Create(message).Error; err != nil {
		return nil, err
	}
	return message, nil
}

func (r *messageRepo) GetByID(ctx context.Context, tx *gorm.DB, messageID uuid.UUID) (*types.ConversationMessage, error) {
	var result types.ConversationMessage
	err := r.tx(tx).WithContext(ctx).
		Where("id = ?", messageID).
		First(&result).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}

func (r *messageRepo) ListBySession(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID, limit int) ([]*types.ConversationMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var results []*types.ConversationMessage
	if err := r.tx(tx).WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *messageRepo) UpdateMetadata(ctx context.Context, tx *gorm.DB, messageID uuid.UUID, metadata []byte) error {
	return r.tx(tx).WithContext(ctx).
		Model(&types.ConversationMessage{}).
		Where("id = ?", messageID).
		Update("metadata", metadata).Error
}

func (r *messageRepo) SetHelpful(ctx context.Context, tx *gorm.DB, messageID uuid.UUID, helpful bool) error {
	return r.tx(tx).WithContext(ctx).
		Model(&types.ConversationMessage{}).
		Where("id = ?", messageID).
		Update("helpful", helpful).Error
}

func (r *messageRepo) CountBySessions(ctx context.Context, tx *gorm.DB, sessionIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	counts := make(map[uuid.UUID]int64, len(sessionIDs))
	if len(sessionIDs) == 0 {
		return counts, nil
	}
	var rows []struct {
		SessionID uuid.UUID
		Total     int64
	}
	err := r.tx(tx).WithContext(ctx).
		Model(&types.ConversationMessage{}).
		Select("session_id, COUNT(*) AS total").
		Where("session_id IN ?", sessionIDs).
		Group("session_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.SessionID] = row.Total
	}
	return counts, nil
}
