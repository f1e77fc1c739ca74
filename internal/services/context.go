package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/duda4418/dishwise-backend/internal/logger"
	"github.com/duda4418/dishwise-backend/internal/repos"
	"github.com/duda4418/dishwise-backend/internal/types"
)

const contextEventLimit = 30

// ConversationContext is the sanitized history fed to classification calls:
// user messages, assistant replies with their metadata, image analysis notes,
// and answered form prompts, each rendered as one event line.
type ConversationContext struct {
	SessionID uuid.UUID
	Events    []string
}

type ContextService interface {
	AIContext(ctx context.Context, sessionID uuid.UUID) (*ConversationContext, error)
}

type contextService struct {
	messages repos.MessageRepo
	images   repos.ImageRepo
	forms    repos.FormRepo
	log      *logger.Logger
}

func NewContextService(messages repos.MessageRepo, images repos.ImageRepo, forms repos.FormRepo, baseLog *logger.Logger) ContextService {
	return &contextService{
		messages: messages,
		images:   images,
		forms:    forms,
		log:      baseLog.With("service", "ContextService"),
	}
}

func (s *contextService) AIContext(ctx context.Context, sessionID uuid.UUID) (*ConversationContext, error) {
	messages, err := s.messages.ListBySession(ctx, nil, sessionID, 0)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	var events []string
	for _, msg := range messages {
		switch msg.Role {
		case types.RoleUser:
			if text := strings.TrimSpace(msg.Content); text != "" {
				events = append(events, "User message: "+text)
			}
		case types.RoleAssistant:
			if entry := formatAssistantEvent(msg); entry != "" {
				events = append(events, entry)
			}
		}
	}

	imageEvents, err := s.imageEvents(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	events = append(events, imageEvents...)

	formEvents, err := s.formEvents(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	events = append(events, formEvents...)

	return &ConversationContext{
		SessionID: sessionID,
		Events:    trimEvents(events, contextEventLimit),
	}, nil
}

func (s *contextService) imageEvents(ctx context.Context, sessionID uuid.UUID) ([]string, error) {
	images, err := s.images.ListBySession(ctx, nil, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	var events []string
	index := 0
	for _, img := range images {
		if img.AnalysisText == nil {
			continue
		}
		text := strings.TrimSpace(*img.AnalysisText)
		if text == "" {
			continue
		}
		index++
		events = append(events, fmt.Sprintf("Image analysis %d: %s", index, text))
	}
	return events, nil
}

func (s *contextService) formEvents(ctx context.Context, sessionID uuid.UUID) ([]string, error) {
	forms, err := s.forms.ListBySessionWithAnswers(ctx, nil, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list forms: %w", err)
	}
	var events []string
	for _, form := range forms {
		title := strings.TrimSpace(derefString(form.Form.Title))
		if title == "" {
			title = "Follow-up form"
		}
		prefix := fmt.Sprintf("Form '%s' [%s]", title, form.Form.Status)
		for _, answer := range form.Answers {
			prompt := strings.TrimSpace(answer.Prompt)
			if prompt == "" {
				prompt = "Prompt"
			}
			value := strings.TrimSpace(answer.Value)
			if value == "" {
				continue
			}
			events = append(events, fmt.Sprintf("%s prompt '%s': %s", prefix, prompt, value))
		}
	}
	return events, nil
}

func formatAssistantEvent(msg *types.ConversationMessage) string {
	var parts []string
	if reply := strings.TrimSpace(msg.Content); reply != "" {
		parts = append(parts, "Assistant reply: "+reply)
	}

	var metadata map[string]any
	if len(msg.Metadata) > 0 {
		if err := json.Unmarshal(msg.Metadata, &metadata); err != nil {
			metadata = nil
		}
	}

	if suggestions := stringList(metadata["suggestions"]); len(suggestions) > 0 {
		parts = append(parts, "Suggestions: "+strings.Join(suggestions, "; "))
	}
	if actions := stringList(metadata["actions"]); len(actions) > 0 {
		parts = append(parts, "Actions: "+strings.Join(actions, "; "))
	}
	if form, ok := metadata["follow_up_form"].(map[string]any); ok {
		title, _ := form["title"].(string)
		if title == "" {
			title = "Follow-up form"
		}
		parts = append(parts, "Offered form: "+title)
	}
	if extra, ok := metadata["extra"].(map[string]any); ok {
		if summary, ok := extra["form_summary"].(string); ok && strings.TrimSpace(summary) != "" {
			parts = append(parts, "Form summary: "+strings.TrimSpace(summary))
		}
	}
	if additional := summarizeMetadata(metadata); additional != "" {
		parts = append(parts, "Metadata: "+additional)
	}

	return strings.Join(parts, "\n")
}

func stringList(value any) []string {
	switch v := value.(type) {
	case nil:
		return nil
	case []any:
		var items []string
		for _, item := range v {
			text := strings.TrimSpace(fmt.Sprint(item))
			if text != "" {
				items = append(items, text)
			}
		}
		return items
	default:
		text := strings.TrimSpace(fmt.Sprint(v))
		if text == "" {
			return nil
		}
		return []string{text}
	}
}

func summarizeMetadata(metadata map[string]any) string {
	if len(metadata) == 0 {
		return ""
	}
	ignore := map[string]bool{"suggestions": true, "actions": true, "follow_up_form": true}

	condensed := map[string]any{}
	for key, value := range metadata {
		if ignore[key] || emptyValue(value) {
			continue
		}
		if key == "extra" {
			if extra, ok := value.(map[string]any); ok {
				for extraKey, extraValue := range extra {
					if !emptyValue(extraValue) {
						condensed["extra."+extraKey] = extraValue
					}
				}
				continue
			}
		}
		condensed[key] = value
	}
	if len(condensed) == 0 {
		return ""
	}

	keys := make([]string, 0, len(condensed))
	for key := range condensed {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	pieces := make([]string, 0, len(keys))
	for _, key := range keys {
		pieces = append(pieces, key+": "+metadataSnippet(condensed[key]))
	}
	return strings.Join(pieces, "; ")
}

func metadataSnippet(value any) string {
	switch value.(type) {
	case map[string]any, []any:
		raw, err := json.Marshal(value)
		if err != nil {
			return fmt.Sprint(value)
		}
		snippet := string(raw)
		if len(snippet) > 160 {
			snippet = snippet[:157] + "..."
		}
		return snippet
	default:
		return fmt.Sprint(value)
	}
}

func emptyValue(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case []any:
		return len(v) == 0
	case map[string]any:
		return len(v) == 0
	default:
		return false
	}
}

func trimEvents(events []string, limit int) []string {
	if len(events) <= limit {
		return events
	}
	return events[len(events)-limit:]
}
