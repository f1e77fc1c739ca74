package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/duda4418/dishwise-backend/internal/logger"
	"github.com/duda4418/dishwise-backend/internal/repos"
	"github.com/duda4418/dishwise-backend/internal/types"
)

var (
	ErrFormNotFound  = errors.New("form not found")
	ErrFormClosed    = errors.New("form already submitted or rejected")
	ErrMissingAnswer = errors.New("required field has no answer")
	ErrUnknownOption = errors.New("answer does not match any option")
)

// FormAnswerInput matches an answer to a field either by ID or by prompt text.
type FormAnswerInput struct {
	FieldID *uuid.UUID `json:"field_id,omitempty"`
	Prompt  string     `json:"prompt,omitempty"`
	Value   string     `json:"value"`
}

type FormSubmissionResult struct {
	FormID    uuid.UUID
	SessionID uuid.UUID
	Kind      string
	// Answers keyed by field prompt, resolved to option values where the
	// field is a choice.
	Answers map[string]string
}

type FormSubmitService interface {
	Submit(ctx context.Context, formID uuid.UUID, answers []FormAnswerInput) (*FormSubmissionResult, error)
	Dismiss(ctx context.Context, formID uuid.UUID) error
}

type formSubmitService struct {
	forms    repos.FormRepo
	sessions repos.SessionRepo
	log      *logger.Logger
}

func NewFormSubmitService(forms repos.FormRepo, sessions repos.SessionRepo, baseLog *logger.Logger) FormSubmitService {
	return &formSubmitService{
		forms:    forms,
		sessions: sessions,
		log:      baseLog.With("service", "FormSubmitService"),
	}
}

func (s *formSubmitService) Submit(ctx context.Context, formID uuid.UUID, answers []FormAnswerInput) (*FormSubmissionResult, error) {
	form, err := s.forms.GetByID(ctx, nil, formID)
	if err != nil {
		return nil, err
	}
	if form == nil {
		return nil, ErrFormNotFound
	}
	if form.Status != types.FormStatusInProgress {
		return nil, ErrFormClosed
	}

	fields, err := s.forms.ListFields(ctx, nil, formID)
	if err != nil {
		return nil, err
	}

	resolved := map[string]string{}
	for _, field := range fields {
		answer := matchAnswer(field, answers)
		if answer == nil {
			if field.Required {
				return nil, fmt.Errorf("%w: %s", ErrMissingAnswer, field.Prompt)
			}
			continue
		}

		response := &types.ConversationFormResponse{
			FormID:  formID,
			FieldID: field.ID,
		}
		value := strings.TrimSpace(answer.Value)

		if field.InputType == types.FormInputSingleChoice || field.InputType == types.FormInputYesNo {
			options, err := s.forms.ListFieldOptions(ctx, nil, field.ID)
			if err != nil {
				return nil, err
			}
			option := matchOption(options, value)
			if option == nil {
				return nil, fmt.Errorf("%w: field %q value %q", ErrUnknownOption, field.Prompt, value)
			}
			response.SelectedOptionID = &option.ID
			resolved[field.Prompt] = option.Value
		} else {
			response.Value = &value
			resolved[field.Prompt] = value
		}

		if _, err := s.forms.CreateResponse(ctx, nil, response); err != nil {
			return nil, fmt.Errorf("persist response for field %q: %w", field.Prompt, err)
		}
	}

	if err := s.forms.SetStatus(ctx, nil, formID, types.FormStatusSubmitted, nil); err != nil {
		return nil, err
	}

	result := &FormSubmissionResult{
		FormID:    formID,
		SessionID: form.SessionID,
		Kind:      form.Kind,
		Answers:   resolved,
	}
	s.applyFeedback(ctx, form, result)
	return result, nil
}

func (s *formSubmitService) Dismiss(ctx context.Context, formID uuid.UUID) error {
	form, err := s.forms.GetByID(ctx, nil, formID)
	if err != nil {
		return err
	}
	if form == nil {
		return ErrFormNotFound
	}
	if form.Status != types.FormStatusInProgress {
		return ErrFormClosed
	}
	reason := "dismissed"
	return s.forms.SetStatus(ctx, nil, formID, types.FormStatusRejected, &reason)
}

// applyFeedback turns a submitted feedback form into a session rating so the
// metrics endpoints can aggregate it. A yes maps to 5, a no to 1.
func (s *formSubmitService) applyFeedback(ctx context.Context, form *types.ConversationForm, result *FormSubmissionResult) {
	if form.Kind != types.FormKindFeedback {
		return
	}
	for _, value := range result.Answers {
		var rating int
		switch value {
		case "yes":
			rating = 5
		case "no":
			rating = 1
		default:
			continue
		}
		if err := s.sessions.SetFeedback(ctx, nil, form.SessionID, &rating, nil); err != nil {
			s.log.Warn("failed to store session feedback", "session_id", form.SessionID, "error", err)
		}
		return
	}
}

func matchAnswer(field *types.ConversationFormField, answers []FormAnswerInput) *FormAnswerInput {
	for i := range answers {
		answer := &answers[i]
		if answer.FieldID != nil && *answer.FieldID == field.ID {
			return answer
		}
		if answer.FieldID == nil && answer.Prompt != "" && strings.EqualFold(answer.Prompt, field.Prompt) {
			return answer
		}
	}
	return nil
}

func matchOption(options []*types.ConversationFormFieldOption, value string) *types.ConversationFormFieldOption {
	for _, option := range options {
		if strings.EqualFold(option.Value, value) || strings.EqualFold(option.Label, value) {
			return option
		}
	}
	return nil
}
