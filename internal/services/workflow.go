package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/duda4418/dishwise-backend/internal/logger"
	"github.com/duda4418/dishwise-backend/internal/repos"
	"github.com/duda4418/dishwise-backend/internal/types"
)

// ErrSessionClosed rejects new turns on resolved or escalated sessions.
var ErrSessionClosed = errors.New("conversation already completed")

type UserMessageRequest struct {
	SessionID      *uuid.UUID
	Text           string
	Locale         string
	ImagesB64      []string
	ImageMimeTypes []string
	Metadata       map[string]any
}

// MessageExchange is the outcome of one conversation turn. AssistantMessageID
// and FormID are nil for form dismissals, which skip AI processing entirely.
type MessageExchange struct {
	SessionID          uuid.UUID
	UserMessageID      uuid.UUID
	AssistantMessageID *uuid.UUID
	Answer             *AssistantAnswer
	FormID             *uuid.UUID
}

type WorkflowService interface {
	HandleMessage(ctx context.Context, req UserMessageRequest) (*MessageExchange, error)
}

type workflowService struct {
	classifier    ClassifierService
	responder     ResponseService
	contexts      ContextService
	imageAnalysis ImageAnalysisService
	sessions      repos.SessionRepo
	messages      repos.MessageRepo
	forms         repos.FormRepo
	suggestions   repos.SuggestionRepo
	solutions     repos.SolutionRepo
	log           *logger.Logger
}

func NewWorkflowService(
	classifier ClassifierService,
	responder ResponseService,
	contexts ContextService,
	imageAnalysis ImageAnalysisService,
	sessions repos.SessionRepo,
	messages repos.MessageRepo,
	forms repos.FormRepo,
	suggestions repos.SuggestionRepo,
	solutions repos.SolutionRepo,
	baseLog *logger.Logger,
) WorkflowService {
	return &workflowService{
		classifier:    classifier,
		responder:     responder,
		contexts:      contexts,
		imageAnalysis: imageAnalysis,
		sessions:      sessions,
		messages:      messages,
		forms:         forms,
		suggestions:   suggestions,
		solutions:     solutions,
		log:           baseLog.With("service", "WorkflowService"),
	}
}

func (s *workflowService) HandleMessage(ctx context.Context, req UserMessageRequest) (*MessageExchange, error) {
	session, err := s.getOrCreateSession(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}
	if session.Status == types.SessionStatusResolved || session.Status == types.SessionStatusEscalated {
		return nil, ErrSessionClosed
	}

	formResponse, isFormInteraction := s.formInteraction(req.Metadata)
	if isFormInteraction {
		if repliedTo, ok := formResponse["replied_to"].(string); ok && repliedTo != "" {
			s.markFormConsumed(ctx, repliedTo)
		}
	}

	if isFormInteraction && formResponse["status"] == "dismissed" {
		userMessage, err := s.persistUserMessage(ctx, session.ID, req)
		if err != nil {
			return nil, err
		}
		s.dismissOpenForm(ctx, session.ID)
		s.log.Info("form dismissed, skipping ai processing", "session_id", session.ID)
		return &MessageExchange{
			SessionID:     session.ID,
			UserMessageID: userMessage.ID,
			Answer:        &AssistantAnswer{Reply: "", SuggestedActions: []string{}},
		}, nil
	}

	userMessage, err := s.persistUserMessage(ctx, session.ID, req)
	if err != nil {
		return nil, err
	}

	if len(req.ImagesB64) > 0 {
		_, err := s.imageAnalysis.AnalyzeAndStore(ctx, ImageAnalysisRequest{
			SessionID:      session.ID,
			MessageID:      &userMessage.ID,
			ImagesB64:      req.ImagesB64,
			ImageMimeTypes: req.ImageMimeTypes,
			UserPrompt:     req.Text,
			Locale:         req.Locale,
		})
		if err != nil {
			// A failed vision call degrades the turn but never aborts it.
			s.log.Error("image analysis failed", "session_id", session.ID, "error", err)
		}
	}

	aiContext, err := s.contexts.AIContext(ctx, session.ID)
	if err != nil {
		return nil, fmt.Errorf("build context: %w", err)
	}

	classification, err := s.classifier.Classify(ctx, ClassificationRequest{
		SessionID: session.ID,
		MessageID: &userMessage.ID,
		UserText:  req.Text,
		Locale:    req.Locale,
		Events:    aiContext.Events,
	})
	if err != nil {
		return nil, err
	}

	response, err := s.responder.Generate(ctx, session.ID, &userMessage.ID, classification)
	if err != nil {
		return nil, err
	}

	suggestedActions := []string{}
	if classification.NextAction != ActionCloseResolved && classification.NextAction != ActionEscalate {
		if response.SuggestedAction != "" {
			suggestedActions = append(suggestedActions, response.SuggestedAction)
		}
	}

	confidence := classification.Confidence
	answer := &AssistantAnswer{
		Reply:            response.Reply,
		SuggestedActions: suggestedActions,
		FollowUpForm:     BuildForm(classification.NextAction),
		Confidence:       &confidence,
		Metadata: map[string]any{
			"intent":      string(classification.Intent),
			"next_action": string(classification.NextAction),
			"reasoning":   classification.Reasoning,
		},
	}

	assistantMessage, err := s.persistAssistantMessage(ctx, session.ID, answer)
	if err != nil {
		return nil, err
	}

	var formID *uuid.UUID
	if answer.FollowUpForm != nil {
		formID, err = s.persistForm(ctx, session.ID, answer.FollowUpForm)
		if err != nil {
			return nil, fmt.Errorf("persist form: %w", err)
		}
	}

	if classification.SolutionSlug != "" && !classification.SolutionAlreadyTried {
		s.trackSolution(ctx, session.ID, classification.SolutionSlug)
	}

	switch classification.NextAction {
	case ActionCloseResolved:
		if err := s.sessions.SetStatus(ctx, nil, session.ID, types.SessionStatusResolved); err != nil {
			return nil, err
		}
		s.log.Info("session resolved", "session_id", session.ID)
	case ActionEscalate:
		if err := s.sessions.SetStatus(ctx, nil, session.ID, types.SessionStatusEscalated); err != nil {
			return nil, err
		}
		s.log.Info("session escalated", "session_id", session.ID)
	default:
		if err := s.sessions.Touch(ctx, nil, session.ID); err != nil {
			s.log.Warn("failed to touch session", "session_id", session.ID, "error", err)
		}
	}

	return &MessageExchange{
		SessionID:          session.ID,
		UserMessageID:      userMessage.ID,
		AssistantMessageID: &assistantMessage.ID,
		Answer:             answer,
		FormID:             formID,
	}, nil
}

func (s *workflowService) getOrCreateSession(ctx context.Context, sessionID *uuid.UUID) (*types.ConversationSession, error) {
	if sessionID != nil {
		existing, err := s.sessions.GetByID(ctx, nil, *sessionID)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return existing, nil
		}
		s.log.Warn("session not found, creating new one", "session_id", *sessionID)
	}
	return s.sessions.Create(ctx, nil, &types.ConversationSession{Status: types.SessionStatusInProgress})
}

// formInteraction detects a client-hidden message carrying a form response.
func (s *workflowService) formInteraction(metadata map[string]any) (map[string]any, bool) {
	if metadata == nil {
		return nil, false
	}
	hidden, _ := metadata["client_hidden"].(bool)
	if !hidden {
		return nil, false
	}
	formResponse, ok := metadata["follow_up_form_response"].(map[string]any)
	if !ok {
		return nil, false
	}
	return formResponse, true
}

func (s *workflowService) persistUserMessage(ctx context.Context, sessionID uuid.UUID, req UserMessageRequest) (*types.ConversationMessage, error) {
	metadata := map[string]any{}
	for key, value := range req.Metadata {
		metadata[key] = value
	}

	if len(req.ImagesB64) > 0 {
		attachments := make([]map[string]any, 0, len(req.ImagesB64))
		for i, imageB64 := range req.ImagesB64 {
			hint := ""
			if i < len(req.ImageMimeTypes) {
				hint = req.ImageMimeTypes[i]
			}
			attachments = append(attachments, map[string]any{
				"type":      "image",
				"base64":    imageB64,
				"mime_type": ResolveImageMime(hint, imageB64),
			})
		}
		metadata["has_images"] = true
		metadata["attachments"] = attachments
	}

	raw, err := json.Marshal(metadata)
	if err != nil {
		return nil, fmt.Errorf("encode message metadata: %w", err)
	}
	return s.messages.Create(ctx, nil, &types.ConversationMessage{
		SessionID: sessionID,
		Role:      types.RoleUser,
		Content:   req.Text,
		Metadata:  datatypes.JSON(raw),
	})
}

func (s *workflowService) persistAssistantMessage(ctx context.Context, sessionID uuid.UUID, answer *AssistantAnswer) (*types.ConversationMessage, error) {
	metadata := map[string]any{
		"suggestions": answer.SuggestedActions,
	}
	for key, value := range answer.Metadata {
		metadata[key] = value
	}
	if answer.FollowUpForm != nil {
		metadata["follow_up_form"] = answer.FollowUpForm
	}
	if answer.Confidence != nil {
		metadata["confidence"] = *answer.Confidence
	}

	raw, err := json.Marshal(metadata)
	if err != nil {
		return nil, fmt.Errorf("encode message metadata: %w", err)
	}
	return s.messages.Create(ctx, nil, &types.ConversationMessage{
		SessionID: sessionID,
		Role:      types.RoleAssistant,
		Content:   answer.Reply,
		Metadata:  datatypes.JSON(raw),
	})
}

func (s *workflowService) persistForm(ctx context.Context, sessionID uuid.UUID, form *GeneratedForm) (*uuid.UUID, error) {
	title := form.Title
	description := form.Description
	record, err := s.forms.Create(ctx, nil, &types.ConversationForm{
		SessionID:   sessionID,
		Kind:        form.Kind,
		Title:       &title,
		Description: &description,
		Status:      types.FormStatusInProgress,
	})
	if err != nil {
		return nil, err
	}
	for position, field := range form.Fields {
		placeholder := field.Placeholder
		fieldRecord, err := s.forms.CreateField(ctx, nil, &types.ConversationFormField{
			FormID:      record.ID,
			Prompt:      field.Question,
			InputType:   field.InputType,
			Required:    field.Required,
			Position:    position,
			Placeholder: &placeholder,
		})
		if err != nil {
			return nil, err
		}
		for optPosition, option := range field.Options {
			_, err := s.forms.CreateFieldOption(ctx, nil, &types.ConversationFormFieldOption{
				FieldID:  fieldRecord.ID,
				Value:    option.Value,
				Label:    option.Label,
				Position: optPosition,
			})
			if err != nil {
				return nil, err
			}
		}
	}
	return &record.ID, nil
}

func (s *workflowService) trackSolution(ctx context.Context, sessionID uuid.UUID, solutionSlug string) {
	solution, err := s.solutions.GetBySlug(ctx, nil, solutionSlug)
	if err != nil {
		s.log.Error("failed to look up solution", "slug", solutionSlug, "error", err)
		return
	}
	if solution == nil {
		s.log.Warn("solution not found for tracking", "slug", solutionSlug)
		return
	}
	if _, err := s.suggestions.Create(ctx, nil, &types.SessionSuggestion{
		SessionID:  sessionID,
		SolutionID: solution.ID,
	}); err != nil {
		s.log.Error("failed to track suggestion", "slug", solutionSlug, "error", err)
	}
}

func (s *workflowService) markFormConsumed(ctx context.Context, messageID string) {
	id, err := uuid.Parse(messageID)
	if err != nil {
		s.log.Warn("invalid replied_to message id", "value", messageID)
		return
	}
	message, err := s.messages.GetByID(ctx, nil, id)
	if err != nil || message == nil {
		s.log.Warn("message not found for form consumption", "message_id", id)
		return
	}
	metadata := map[string]any{}
	if len(message.Metadata) > 0 {
		if err := json.Unmarshal(message.Metadata, &metadata); err != nil {
			metadata = map[string]any{}
		}
	}
	metadata["form_consumed"] = true
	raw, err := json.Marshal(metadata)
	if err != nil {
		return
	}
	if err := s.messages.UpdateMetadata(ctx, nil, id, raw); err != nil {
		s.log.Error("failed to mark form consumed", "message_id", id, "error", err)
	}
}

func (s *workflowService) dismissOpenForm(ctx context.Context, sessionID uuid.UUID) {
	form, err := s.forms.LatestOpenBySession(ctx, nil, sessionID)
	if err != nil || form == nil {
		return
	}
	reason := "dismissed"
	if err := s.forms.SetStatus(ctx, nil, form.ID, types.FormStatusRejected, &reason); err != nil {
		s.log.Warn("failed to reject dismissed form", "form_id", form.ID, "error", err)
	}
}
