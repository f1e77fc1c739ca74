package services

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/duda4418/dishwise-backend/internal/logger"
	"github.com/duda4418/dishwise-backend/internal/repos"
	"github.com/duda4418/dishwise-backend/internal/types"
)

type UsageTotals struct {
	UsageRecords int64   `json:"usage_records"`
	Sessions     int64   `json:"sessions"`
	InputTokens  int64   `json:"input_tokens"`
	OutputTokens int64   `json:"output_tokens"`
	TotalTokens  int64   `json:"total_tokens"`
	CostInput    float64 `json:"cost_input"`
	CostOutput   float64 `json:"cost_output"`
	CostTotal    float64 `json:"cost_total"`
}

type SessionUsageMetrics struct {
	SessionID      uuid.UUID `json:"session_id"`
	Status         string    `json:"status"`
	UpdatedAt      time.Time `json:"updated_at"`
	Messages       int64     `json:"messages"`
	UsageRecords   int64     `json:"usage_records"`
	InputTokens    int64     `json:"input_tokens"`
	OutputTokens   int64     `json:"output_tokens"`
	TotalTokens    int64     `json:"total_tokens"`
	CostInput      float64   `json:"cost_input"`
	CostOutput     float64   `json:"cost_output"`
	CostTotal      float64   `json:"cost_total"`
	FeedbackRating *int      `json:"feedback_rating,omitempty"`
}

type FeedbackMetrics struct {
	AverageRating float64 `json:"average_rating"`
	RatedSessions int64   `json:"rated_sessions"`
}

type UsageMetricsResponse struct {
	Totals            UsageTotals            `json:"totals"`
	Sessions          []*SessionUsageMetrics `json:"sessions"`
	Feedback          FeedbackMetrics        `json:"feedback"`
	PricingConfigured bool                   `json:"pricing_configured"`
}

// MetricsService aggregates usage, cost, and feedback numbers for dashboards.
type MetricsService interface {
	UsageSummary(ctx context.Context) (*UsageMetricsResponse, error)
}

type metricsService struct {
	sessions repos.SessionRepo
	messages repos.MessageRepo
	callLogs repos.AICallLogRepo
	pricing  ModelPricing
	log      *logger.Logger
}

func NewMetricsService(
	sessions repos.SessionRepo,
	messages repos.MessageRepo,
	callLogs repos.AICallLogRepo,
	pricing ModelPricing,
	baseLog *logger.Logger,
) MetricsService {
	return &metricsService{
		sessions: sessions,
		messages: messages,
		callLogs: callLogs,
		pricing:  pricing,
		log:      baseLog.With("service", "MetricsService"),
	}
}

func (s *metricsService) UsageSummary(ctx context.Context) (*UsageMetricsResponse, error) {
	totalsRow, err := s.callLogs.AggregateTotals(ctx, nil)
	if err != nil {
		return nil, err
	}
	sessionRows, err := s.callLogs.AggregateBySession(ctx, nil)
	if err != nil {
		return nil, err
	}

	sessionIDs := make([]uuid.UUID, 0, len(sessionRows))
	for _, row := range sessionRows {
		sessionIDs = append(sessionIDs, row.SessionID)
	}

	sessionMap := map[uuid.UUID]*types.ConversationSession{}
	messageCounts := map[uuid.UUID]int64{}
	if len(sessionIDs) > 0 {
		sessions, err := s.sessions.GetByIDs(ctx, nil, sessionIDs)
		if err != nil {
			return nil, err
		}
		for _, session := range sessions {
			sessionMap[session.ID] = session
		}
		messageCounts, err = s.messages.CountBySessions(ctx, nil, sessionIDs)
		if err != nil {
			return nil, err
		}
	}

	sessionMetrics := make([]*SessionUsageMetrics, 0, len(sessionRows))
	for _, row := range sessionRows {
		session, ok := sessionMap[row.SessionID]
		if !ok {
			s.log.Debug("skipping usage row for missing session", "session_id", row.SessionID)
			continue
		}
		sessionMetrics = append(sessionMetrics, &SessionUsageMetrics{
			SessionID:      row.SessionID,
			Status:         session.Status,
			UpdatedAt:      session.UpdatedAt,
			Messages:       messageCounts[row.SessionID],
			UsageRecords:   row.UsageRecords,
			InputTokens:    row.InputTokens,
			OutputTokens:   row.OutputTokens,
			TotalTokens:    row.TotalTokens,
			CostInput:      row.CostInput,
			CostOutput:     row.CostOutput,
			CostTotal:      row.CostTotal,
			FeedbackRating: session.FeedbackRating,
		})
	}
	sort.Slice(sessionMetrics, func(i, j int) bool {
		return sessionMetrics[i].UpdatedAt.After(sessionMetrics[j].UpdatedAt)
	})

	avgRating, ratedSessions, err := s.sessions.FeedbackStats(ctx, nil)
	if err != nil {
		return nil, err
	}

	return &UsageMetricsResponse{
		Totals: UsageTotals{
			UsageRecords: totalsRow.UsageRecords,
			Sessions:     totalsRow.Sessions,
			InputTokens:  totalsRow.InputTokens,
			OutputTokens: totalsRow.OutputTokens,
			TotalTokens:  totalsRow.TotalTokens,
			CostInput:    totalsRow.CostInput,
			CostOutput:   totalsRow.CostOutput,
			CostTotal:    totalsRow.CostTotal,
		},
		Sessions: sessionMetrics,
		Feedback: FeedbackMetrics{
			AverageRating: avgRating,
			RatedSessions: ratedSessions,
		},
		PricingConfigured: s.pricing.Configured(),
	}, nil
}
