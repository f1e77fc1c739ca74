package services

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/duda4418/dishwise-backend/internal/repos"
	"github.com/duda4418/dishwise-backend/internal/types"
)

func TestAIContext_RendersConversationEvents(t *testing.T) {
	messages := newFakeMessageRepo()
	images := &fakeImageRepo{}
	forms := newFakeFormRepo()
	sessionID := uuid.New()

	messages.messages = append(messages.messages,
		&types.ConversationMessage{
			SessionID: sessionID,
			Role:      types.RoleUser,
			Content:   "My dishwasher smells bad",
		},
		&types.ConversationMessage{
			SessionID: sessionID,
			Role:      types.RoleAssistant,
			Content:   "Try running a cleaning cycle.",
			Metadata:  datatypes.JSON(`{"suggestions":["Run a hot cycle with vinegar"],"intent":"new_problem"}`),
		},
	)

	analysis := "Standing water visible at the tub bottom"
	images.images = append(images.images, &types.ConversationImage{
		SessionID:    sessionID,
		StorageURI:   "inline://x/0",
		AnalysisText: &analysis,
	})

	title := "Did that help?"
	forms.answers[sessionID] = []*repos.FormWithAnswers{
		{
			Form: &types.ConversationForm{
				SessionID: sessionID,
				Title:     &title,
				Status:    types.FormStatusSubmitted,
			},
			Answers: []repos.FormAnswer{{Prompt: "Was this helpful?", Value: "no"}},
		},
	}

	svc := NewContextService(messages, images, forms, testLogger())
	out, err := svc.AIContext(context.Background(), sessionID)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	joined := strings.Join(out.Events, "\n")
	for _, expected := range []string{
		"User message: My dishwasher smells bad",
		"Assistant reply: Try running a cleaning cycle.",
		"Suggestions: Run a hot cycle with vinegar",
		"Image analysis 1: Standing water visible at the tub bottom",
		"Form 'Did that help?' [submitted] prompt 'Was this helpful?': no",
	} {
		if !strings.Contains(joined, expected) {
			t.Fatalf("missing event %q in:\n%s", expected, joined)
		}
	}
}

func TestAIContext_SkipsImagesWithoutAnalysis(t *testing.T) {
	images := &fakeImageRepo{}
	sessionID := uuid.New()
	empty := "  "
	images.images = append(images.images,
		&types.ConversationImage{SessionID: sessionID, StorageURI: "inline://x/0"},
		&types.ConversationImage{SessionID: sessionID, StorageURI: "inline://x/1", AnalysisText: &empty},
	)

	svc := NewContextService(newFakeMessageRepo(), images, newFakeFormRepo(), testLogger())
	out, err := svc.AIContext(context.Background(), sessionID)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(out.Events) != 0 {
		t.Fatalf("expected no events, got %#v", out.Events)
	}
}

func TestFormatAssistantEvent_OfferedFormAndMetadata(t *testing.T) {
	msg := &types.ConversationMessage{
		Role:     types.RoleAssistant,
		Content:  "A confirmation form will appear.",
		Metadata: datatypes.JSON(`{"follow_up_form":{"title":"Is your issue resolved?"},"next_action":"present_resolution_form"}`),
	}
	event := formatAssistantEvent(msg)
	if !strings.Contains(event, "Offered form: Is your issue resolved?") {
		t.Fatalf("missing form line:\n%s", event)
	}
	if !strings.Contains(event, "next_action: present_resolution_form") {
		t.Fatalf("missing metadata line:\n%s", event)
	}
}

func TestSummarizeMetadata_IgnoresRenderedKeysAndSortsRest(t *testing.T) {
	out := summarizeMetadata(map[string]any{
		"suggestions": []any{"x"},
		"actions":     []any{"y"},
		"zeta":        "last",
		"alpha":       "first",
		"empty":       "",
	})
	if out != "alpha: first; zeta: last" {
		t.Fatalf("unexpected summary: %q", out)
	}
}

func TestSummarizeMetadata_FlattensExtra(t *testing.T) {
	out := summarizeMetadata(map[string]any{
		"extra": map[string]any{"form_kind": "feedback", "blank": ""},
	})
	if out != "extra.form_kind: feedback" {
		t.Fatalf("unexpected summary: %q", out)
	}
}

func TestMetadataSnippet_TruncatesLongJSON(t *testing.T) {
	long := map[string]any{"key": strings.Repeat("a", 300)}
	snippet := metadataSnippet(long)
	if len(snippet) != 160 || !strings.HasSuffix(snippet, "...") {
		t.Fatalf("unexpected snippet length %d: %q", len(snippet), snippet)
	}
}

func TestTrimEvents_KeepsTail(t *testing.T) {
	var events []string
	for i := 0; i < 40; i++ {
		events = append(events, fmt.Sprintf("event %d", i))
	}
	trimmed := trimEvents(events, 30)
	if len(trimmed) != 30 {
		t.Fatalf("expected 30 events, got %d", len(trimmed))
	}
	if trimmed[0] != "event 10" || trimmed[29] != "event 39" {
		t.Fatalf("expected newest events kept: %q .. %q", trimmed[0], trimmed[29])
	}
}
