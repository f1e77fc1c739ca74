package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"

	"github.com/duda4418/dishwise-backend/internal/clients/openai"
	"github.com/duda4418/dishwise-backend/internal/logger"
	"github.com/duda4418/dishwise-backend/internal/repos"
	"github.com/duda4418/dishwise-backend/internal/types"
)

type ImageAnalysisRequest struct {
	SessionID      uuid.UUID
	MessageID      *uuid.UUID
	ImagesB64      []string
	ImageMimeTypes []string
	UserPrompt     string
	Locale         string
}

type ImageAnalysisSummary struct {
	Description string   `json:"description"`
	Confidence  float64  `json:"confidence"`
	Label       string   `json:"label,omitempty"`
	Details     []string `json:"details"`
}

type ImageAnalysisResult struct {
	SessionID uuid.UUID
	MessageID *uuid.UUID
	ImageIDs  []uuid.UUID
	Summary   ImageAnalysisSummary
	Usage     *ModelUsage
}

type imageSummaryPayload struct {
	Description string   `json:"description"`
	Confidence  float64  `json:"confidence"`
	Label       *string  `json:"label"`
	Details     []string `json:"details"`
}

func imageSummarySchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []string{"description", "confidence", "label", "details"},
		"properties": map[string]any{
			"description": map[string]any{"type": "string"},
			"confidence":  map[string]any{"type": "number", "minimum": 0, "maximum": 1},
			"label":       map[string]any{"type": []string{"string", "null"}},
			"details":     map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		},
	}
}

type ImageAnalysisService interface {
	AnalyzeAndStore(ctx context.Context, req ImageAnalysisRequest) (*ImageAnalysisResult, error)
}

type imageAnalysisService struct {
	images repos.ImageRepo
	ai     openai.Client
	usage  UsageRecorder
	log    *logger.Logger
}

func NewImageAnalysisService(images repos.ImageRepo, ai openai.Client, usage UsageRecorder, baseLog *logger.Logger) ImageAnalysisService {
	return &imageAnalysisService{
		images: images,
		ai:     ai,
		usage:  usage,
		log:    baseLog.With("service", "ImageAnalysisService"),
	}
}

func (s *imageAnalysisService) AnalyzeAndStore(ctx context.Context, req ImageAnalysisRequest) (*ImageAnalysisResult, error) {
	if len(req.ImagesB64) == 0 {
		return nil, fmt.Errorf("images cannot be empty")
	}

	// Persisting the raw records and the vision call are independent; run
	// them concurrently and join before writing the summary back.
	var stored []*types.ConversationImage
	var summary ImageAnalysisSummary
	var modelUsage *openai.Usage

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		var err error
		stored, err = s.persistImages(groupCtx, req)
		return err
	})
	group.Go(func() error {
		var err error
		summary, modelUsage, err = s.generateSummary(groupCtx, req)
		return err
	})
	if err := group.Wait(); err != nil {
		return nil, err
	}

	if err := s.writeBackSummary(ctx, stored, summary); err != nil {
		return nil, err
	}

	sessionID := req.SessionID
	usage := s.usage.Record(ctx, &sessionID, req.MessageID, "image_analysis", s.ai.VisionModel(), modelUsage)

	ids := make([]uuid.UUID, 0, len(stored))
	for _, img := range stored {
		ids = append(ids, img.ID)
	}
	return &ImageAnalysisResult{
		SessionID: req.SessionID,
		MessageID: req.MessageID,
		ImageIDs:  ids,
		Summary:   summary,
		Usage:     usage,
	}, nil
}

func (s *imageAnalysisService) persistImages(ctx context.Context, req ImageAnalysisRequest) ([]*types.ConversationImage, error) {
	sourceMeta, _ := json.Marshal(map[string]string{"source": "inline_base64"})
	stored := make([]*types.ConversationImage, 0, len(req.ImagesB64))
	for index := range req.ImagesB64 {
		image, err := s.images.Create(ctx, nil, &types.ConversationImage{
			SessionID:        req.SessionID,
			MessageID:        req.MessageID,
			StorageURI:       fmt.Sprintf("inline://%s/%d", req.SessionID, index),
			AnalysisMetadata: datatypes.JSON(sourceMeta),
		})
		if err != nil {
			return nil, fmt.Errorf("persist image %d: %w", index, err)
		}
		stored = append(stored, image)
	}
	return stored, nil
}

const imageAnalysisInstructions = "You describe appliance-related photos in neutral, observational language. " +
	"Return JSON with keys description (short clause of what is visible), confidence (0-1 float), " +
	"label (concise subject name), and details (array of brief factual observations about the visuals). " +
	"Do not provide troubleshooting advice, next steps, or instructions."

func (s *imageAnalysisService) generateSummary(ctx context.Context, req ImageAnalysisRequest) (ImageAnalysisSummary, *openai.Usage, error) {
	images := make([]openai.ImageInput, 0, len(req.ImagesB64))
	for idx, imageB64 := range req.ImagesB64 {
		hint := ""
		if idx < len(req.ImageMimeTypes) {
			hint = req.ImageMimeTypes[idx]
		}
		mime := ResolveImageMime(hint, imageB64)
		images = append(images, openai.ImageInput{DataURL: toDataURL(imageB64, mime)})
	}

	userPrompt := req.UserPrompt
	if userPrompt == "" {
		userPrompt = "Summarize what you see and highlight anything unusual."
	}
	var b strings.Builder
	if req.Locale != "" {
		b.WriteString("Locale: " + req.Locale + ".\n")
	}
	b.WriteString("Respond with valid JSON only. Keep the description factual and concise. ")
	b.WriteString("Details must be direct visual observations, not recommendations.\n")
	b.WriteString("User note: " + userPrompt)

	raw, usage, err := s.ai.GenerateJSON(ctx, openai.JSONRequest{
		System:      imageAnalysisInstructions,
		User:        b.String(),
		Images:      images,
		SchemaName:  "image_summary",
		Schema:      imageSummarySchema(),
		Model:       s.ai.VisionModel(),
		Temperature: 0.2,
	})
	if err != nil {
		return ImageAnalysisSummary{}, nil, fmt.Errorf("image analysis call: %w", err)
	}

	var payload imageSummaryPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return ImageAnalysisSummary{}, nil, fmt.Errorf("decode image summary: %w", err)
	}

	return ImageAnalysisSummary{
		Description: strings.TrimSpace(payload.Description),
		Confidence:  clamp01(payload.Confidence),
		Label:       derefString(payload.Label),
		Details:     payload.Details,
	}, usage, nil
}

func (s *imageAnalysisService) writeBackSummary(ctx context.Context, images []*types.ConversationImage, summary ImageAnalysisSummary) error {
	meta, err := json.Marshal(map[string]any{
		"confidence": summary.Confidence,
		"label":      summary.Label,
		"details":    summary.Details,
		"source":     "inline_base64",
	})
	if err != nil {
		return err
	}
	for _, image := range images {
		description := summary.Description
		image.AnalysisText = &description
		image.AnalysisMetadata = datatypes.JSON(meta)
		if err := s.images.Update(ctx, nil, image); err != nil {
			return fmt.Errorf("update image %s: %w", image.ID, err)
		}
	}
	return nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
