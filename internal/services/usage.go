package services

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/duda4418/dishwise-backend/internal/clients/openai"
	"github.com/duda4418/dishwise-backend/internal/logger"
	"github.com/duda4418/dishwise-backend/internal/repos"
	"github.com/duda4418/dishwise-backend/internal/types"
	"github.com/duda4418/dishwise-backend/internal/utils"
)

// ModelPricing holds per-million-token USD rates. Zero rates mean pricing is
// not configured and costs stay at zero.
type ModelPricing struct {
	InputPerMillion  float64
	OutputPerMillion float64
}

func PricingFromEnv(log *logger.Logger) ModelPricing {
	return ModelPricing{
		InputPerMillion:  utils.GetEnvAsFloat("OPENAI_PRICE_INPUT_PER_1M", 0, log),
		OutputPerMillion: utils.GetEnvAsFloat("OPENAI_PRICE_OUTPUT_PER_1M", 0, log),
	}
}

func (p ModelPricing) Configured() bool {
	return p.InputPerMillion > 0 || p.OutputPerMillion > 0
}

func (p ModelPricing) Cost(usage *openai.Usage) (input, output, total float64) {
	if usage == nil {
		return 0, 0, 0
	}
	input = float64(usage.InputTokens) / 1_000_000 * p.InputPerMillion
	output = float64(usage.OutputTokens) / 1_000_000 * p.OutputPerMillion
	return input, output, input + output
}

// UsageRecorder prices and persists one AI call. Failures are logged and
// swallowed so accounting never breaks a conversation turn.
type UsageRecorder interface {
	Record(ctx context.Context, sessionID, messageID *uuid.UUID, callType, model string, usage *openai.Usage) *ModelUsage
	Pricing() ModelPricing
}

type usageRecorder struct {
	callLogs repos.AICallLogRepo
	pricing  ModelPricing
	log      *logger.Logger
}

func NewUsageRecorder(callLogs repos.AICallLogRepo, pricing ModelPricing, baseLog *logger.Logger) UsageRecorder {
	return &usageRecorder{
		callLogs: callLogs,
		pricing:  pricing,
		log:      baseLog.With("service", "UsageRecorder"),
	}
}

func (r *usageRecorder) Pricing() ModelPricing {
	return r.pricing
}

func (r *usageRecorder) Record(ctx context.Context, sessionID, messageID *uuid.UUID, callType, model string, usage *openai.Usage) *ModelUsage {
	if usage == nil {
		return nil
	}
	costIn, costOut, costTotal := r.pricing.Cost(usage)

	result := &ModelUsage{
		RequestType:  callType,
		Model:        model,
		InputTokens:  usage.InputTokens,
		OutputTokens: usage.OutputTokens,
		TotalTokens:  usage.TotalTokens,
		CostInput:    costIn,
		CostOutput:   costOut,
		CostTotal:    costTotal,
	}

	raw, err := json.Marshal(usage)
	if err != nil {
		raw = nil
	}
	_, err = r.callLogs.Create(ctx, nil, []*types.AICallLog{{
		SessionID:    sessionID,
		MessageID:    messageID,
		CallType:     callType,
		Model:        model,
		InputTokens:  usage.InputTokens,
		OutputTokens: usage.OutputTokens,
		TotalTokens:  usage.TotalTokens,
		CostInput:    costIn,
		CostOutput:   costOut,
		CostTotal:    costTotal,
		Usage:        datatypes.JSON(raw),
	}})
	if err != nil {
		r.log.Warn("failed to persist ai call log", "call_type", callType, "error", err)
	}
	return result
}
