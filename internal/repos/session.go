package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/duda4418/dishwise-backend/internal/logger"
	"github.com/duda4418/dishwise-backend/internal/types"
)

type SessionRepo interface {
	Create(ctx context.Context, tx *gorm.DB, session *types.ConversationSession) (*types.ConversationSession, error)
	GetByID(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) (*types.ConversationSession, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, sessionIDs []uuid.UUID) ([]*types.ConversationSession, error)
	List(ctx context.Context, tx *gorm.DB, limit int) ([]*types.ConversationSession, error)
	SetStatus(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID, status string) error
	Touch(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) error
	SetFeedback(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID, rating *int, text *string) error
	FeedbackStats(ctx context.Context, tx *gorm.DB) (avgRating float64, ratedSessions int64, err error)
}

type sessionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSessionRepo(db *gorm.DB, baseLog *logger.Logger) SessionRepo {
	repoLog := baseLog.With("repo", "SessionRepo")
	return &sessionRepo{db: db, log: repoLog}
}

func (r *sessionRepo) tx(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *sessionRepo) Create(ctx context.Context, tx *gorm.DB, session *types.ConversationSession) (*types.ConversationSession, error) {
	if session.Status == "" {
		session.Status = types.SessionStatusInProgress
	}
	if err := r.tx(tx).WithContext(ctx).Create(session).Error; err != nil {
		return nil, err
	}
	return session, nil
}

func (r *sessionRepo) GetByID(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) (*types.ConversationSession, error) {
	var result types.ConversationSession
	err := r.tx(tx).WithContext(ctx).
		Where("id = ?", sessionID).
		First(&result).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}

func (r *sessionRepo) GetByIDs(ctx context.Context, tx *gorm.DB, sessionIDs []uuid.UUID) ([]*types.ConversationSession, error) {
	var results []*types.ConversationSession
	if len(sessionIDs) == 0 {
		return results, nil
	}
	if err := r.tx(tx).WithContext(ctx).
		Where("id IN ?", sessionIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *sessionRepo) List(ctx context.Context, tx *gorm.DB, limit int) ([]*types.ConversationSession, error) {
	if limit <= 0 {
		limit = 50
	}
	var results []*types.ConversationSession
	if err := r.tx(tx).WithContext(ctx).
		Order("updated_at DESC").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *sessionRepo) SetStatus(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID, status string) error {
	return r.tx(tx).WithContext(ctx).
		Model(&types.ConversationSession{}).
		Where("id = ?", sessionID).
		Updates(sessionStatusUpdates(status, time.Now().UTC())).Error
}

// sessionStatusUpdates stamps ended_at only for terminal statuses.
func sessionStatusUpdates(status string, now time.Time) map[string]any {
	updates := map[string]any{
		"status":     status,
		"updated_at": now,
	}
	if status == types.SessionStatusResolved || status == types.SessionStatusEscalated {
		updates["ended_at"] = now
	}
	return updates
}

func (r *sessionRepo) Touch(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) error {
	return r.tx(tx).WithContext(ctx).
		Model(&types.ConversationSession{}).
		Where("id = ?", sessionID).
		Update("updated_at", time.Now().UTC()).Error
}

func (r *sessionRepo) SetFeedback(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID, rating *int, text *string) error {
	updates := map[string]any{
		"updated_at": time.Now().UTC(),
	}
	if rating != nil {
		updates["feedback_rating"] = *rating
	}
	if text != nil {
		updates["feedback_text"] = *text
	}
	return r.tx(tx).WithContext(ctx).
		Model(&types.ConversationSession{}).
		Where("id = ?", sessionID).
		Updates(updates).Error
}

func (r *sessionRepo) FeedbackStats(ctx context.Context, tx *gorm.DB) (float64, int64, error) {
	var row struct {
		AvgRating *float64
		Rated     int64
	}
	err := r.tx(tx).WithContext(ctx).
		Model(&types.ConversationSession{}).
		Select("AVG(feedback_rating) AS avg_rating, COUNT(feedback_rating) AS rated").
		Where("feedback_rating IS NOT NULL").
		Scan(&row).Error
	if err != nil {
		return 0, 0, err
	}
	avg := 0.0
	if row.AvgRating != nil {
		avg = *row.AvgRating
	}
	return avg, row.Rated, nil
}
