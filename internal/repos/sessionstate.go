package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/duda4418/dishwise-backend/internal/logger"
	"github.com/duda4418/dishwise-backend/internal/types"
)

type ProblemStateRepo interface {
	GetBySession(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) (*types.SessionProblemState, error)
	Upsert(ctx context.Context, tx *gorm.DB, state *types.SessionProblemState) (*types.SessionProblemState, error)
}

type problemStateRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProblemStateRepo(db *gorm.DB, baseLog *logger.Logger) ProblemStateRepo {
	repoLog := baseLog.With("repo", "ProblemStateRepo")
	return &problemStateRepo{db: db, log: repoLog}
}

func (r *problemStateRepo) tx(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *problemStateRepo) GetBySession(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) (*types.SessionProblemState, error) {
	var result types.SessionProblemState
	err := r.tx(tx).WithContext(ctx).
		Where("session_id = ?", sessionID).
		First(&result).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}

func (r *problemStateRepo) Upsert(ctx context.Context, tx *gorm.DB, state *types.SessionProblemState) (*types.SessionProblemState, error) {
	existing, err := r.GetBySession(ctx, tx, state.SessionID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		if err := r.tx(tx).WithContext(ctx).Create(state).Error; err != nil {
			return nil, err
		}
		return state, nil
	}
	existing.CategoryID = state.CategoryID
	existing.CauseID = state.CauseID
	existing.ClassificationConfidence = state.ClassificationConfidence
	existing.ClassificationSource = state.ClassificationSource
	existing.ManualOverride = state.ManualOverride
	existing.UpdatedAt = time.Now().UTC()
	if err := r.tx(tx).WithContext(ctx).Save(existing).Error; err != nil {
		return nil, err
	}
	return existing, nil
}

type SuggestionRepo interface {
	Create(ctx context.Context, tx *gorm.DB, suggestion *types.SessionSuggestion) (*types.SessionSuggestion, error)
	ListBySession(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) ([]*types.SessionSuggestion, error)
}

type suggestionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSuggestionRepo(db *gorm.DB, baseLog *logger.Logger) SuggestionRepo {
	repoLog := baseLog.With("repo", "SuggestionRepo")
	return &suggestionRepo{db: db, log: repoLog}
}

func (r *suggestionRepo) tx(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *suggestionRepo) Create(ctx context.Context, tx *gorm.DB, suggestion *types.SessionSuggestion) (*types.SessionSuggestion, error) {
	if err := r.tx(tx).WithContext(ctx).Create(suggestion).Error; err != nil {
		return nil, err
	}
	return suggestion, nil
}

func (r *suggestionRepo) ListBySession(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) ([]*types.SessionSuggestion, error) {
	var results []*types.SessionSuggestion
	if err := r.tx(tx).WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
