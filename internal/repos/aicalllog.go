package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/duda4418/dishwise-backend/internal/logger"
	"github.com/duda4418/dishwise-backend/internal/types"
)

type UsageTotalsRow struct {
	UsageRecords int64
	Sessions     int64
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
	CostInput    float64
	CostOutput   float64
	CostTotal    float64
}

type SessionUsageRow struct {
	SessionID    uuid.UUID
	UsageRecords int64
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
	CostInput    float64
	CostOutput   float64
	CostTotal    float64
}

type AICallLogRepo interface {
	Create(ctx context.Context, tx *gorm.DB, logs []*types.AICallLog) ([]*types.AICallLog, error)
	AggregateTotals(ctx context.Context, tx *gorm.DB) (*UsageTotalsRow, error)
	AggregateBySession(ctx context.Context, tx *gorm.DB) ([]*SessionUsageRow, error)
}

type aiCallLogRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAICallLogRepo(db *gorm.DB, baseLog *logger.Logger) AICallLogRepo {
	repoLog := baseLog.With("repo", "AICallLogRepo")
	return &aiCallLogRepo{db: db, log: repoLog}
}

func (r *aiCallLogRepo) tx(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *aiCallLogRepo) Create(ctx context.Context, tx *gorm.DB, logs []*types.AICallLog) ([]*types.AICallLog, error) {
	if len(logs) == 0 {
		return []*types.AICallLog{}, nil
	}
	if err := r.tx(tx).WithContext(ctx).Create(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

func (r *aiCallLogRepo) AggregateTotals(ctx context.Context, tx *gorm.DB) (*UsageTotalsRow, error) {
	var row UsageTotalsRow
	err := r.tx(tx).WithContext(ctx).
		Model(&types.AICallLog{}).
		Select(`COUNT(*) AS usage_records,
COUNT(DISTINCT session_id) AS sessions,
COALESCE(SUM(input_tokens), 0) AS input_tokens,
COALESCE(SUM(output_tokens), 0) AS output_tokens,
COALESCE(SUM(total_tokens), 0) AS total_tokens,
COALESCE(SUM(cost_input), 0) AS cost_input,
COALESCE(SUM(cost_output), 0) AS cost_output,
COALESCE(SUM(cost_total), 0) AS cost_total`).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *aiCallLogRepo) AggregateBySession(ctx context.Context, tx *gorm.DB) ([]*SessionUsageRow, error) {
	var rows []*SessionUsageRow
	err := r.tx(tx).WithContext(ctx).
		Model(&types.AICallLog{}).
		Select(`session_id,
COUNT(*) AS usage_records,
COALESCE(SUM(input_tokens), 0) AS input_tokens,
COALESCE(SUM(output_tokens), 0) AS output_tokens,
COALESCE(SUM(total_tokens), 0) AS total_tokens,
COALESCE(SUM(cost_input), 0) AS cost_input,
COALESCE(SUM(cost_output), 0) AS cost_output,
COALESCE(SUM(cost_total), 0) AS cost_total`).
		Where("session_id IS NOT NULL").
		Group("session_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
