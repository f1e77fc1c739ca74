package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/duda4418/dishwise-backend/internal/types"
)

type fakeClassifier struct {
	result   *ClassificationResult
	err      error
	requests []ClassificationRequest
}

func (f *fakeClassifier) Classify(ctx context.Context, req ClassificationRequest) (*ClassificationResult, error) {
	f.requests = append(f.requests, req)
	return f.result, f.err
}

type fakeResponder struct {
	result     *ResponseResult
	err        error
	called     int
	messageIDs []*uuid.UUID
}

func (f *fakeResponder) Generate(ctx context.Context, sessionID uuid.UUID, messageID *uuid.UUID, classification *ClassificationResult) (*ResponseResult, error) {
	f.called++
	f.messageIDs = append(f.messageIDs, messageID)
	return f.result, f.err
}

type fakeContexts struct {
	events []string
}

func (f *fakeContexts) AIContext(ctx context.Context, sessionID uuid.UUID) (*ConversationContext, error) {
	return &ConversationContext{SessionID: sessionID, Events: f.events}, nil
}

type fakeImageAnalyzer struct {
	called   int
	err      error
	requests []ImageAnalysisRequest
}

func (f *fakeImageAnalyzer) AnalyzeAndStore(ctx context.Context, req ImageAnalysisRequest) (*ImageAnalysisResult, error) {
	f.called++
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return &ImageAnalysisResult{SessionID: req.SessionID}, nil
}

type workflowFixture struct {
	svc         WorkflowService
	classifier  *fakeClassifier
	responder   *fakeResponder
	analyzer    *fakeImageAnalyzer
	sessions    *fakeSessionRepo
	messages    *fakeMessageRepo
	forms       *fakeFormRepo
	suggestions *fakeSuggestionRepo
	solutions   *fakeSolutionRepo
}

func newWorkflowFixture(classification *ClassificationResult) *workflowFixture {
	f := &workflowFixture{
		classifier:  &fakeClassifier{result: classification},
		responder:   &fakeResponder{result: &ResponseResult{Reply: "Here is what to try.", SuggestedAction: "Clean the filter"}},
		analyzer:    &fakeImageAnalyzer{},
		sessions:    newFakeSessionRepo(),
		messages:    newFakeMessageRepo(),
		forms:       newFakeFormRepo(),
		suggestions: &fakeSuggestionRepo{},
		solutions:   newFakeSolutionRepo(),
	}
	f.svc = NewWorkflowService(
		f.classifier, f.responder, &fakeContexts{}, f.analyzer,
		f.sessions, f.messages, f.forms, f.suggestions, f.solutions,
		testLogger(),
	)
	return f
}

func TestHandleMessage_CreatesSessionAndPersistsTurn(t *testing.T) {
	fixture := newWorkflowFixture(&ClassificationResult{
		Intent:     IntentNewProblem,
		NextAction: ActionAskClarifyingQuestion,
		Confidence: 0.7,
		Reasoning:  "need more detail",
	})

	exchange, err := fixture.svc.HandleMessage(context.Background(), UserMessageRequest{
		Text: "It will not drain",
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if exchange.SessionID == uuid.Nil {
		t.Fatalf("expected a session to be created")
	}
	if exchange.AssistantMessageID == nil {
		t.Fatalf("expected assistant message")
	}
	if len(fixture.messages.messages) != 2 {
		t.Fatalf("expected user + assistant message, got %d", len(fixture.messages.messages))
	}
	if fixture.messages.messages[0].Role != types.RoleUser || fixture.messages.messages[1].Role != types.RoleAssistant {
		t.Fatalf("unexpected roles: %q / %q", fixture.messages.messages[0].Role, fixture.messages.messages[1].Role)
	}
	if exchange.Answer.Metadata["next_action"] != "ask_clarifying_question" {
		t.Fatalf("unexpected answer metadata: %#v", exchange.Answer.Metadata)
	}
	if fixture.sessions.touched != 1 {
		t.Fatalf("expected session touch, got %d", fixture.sessions.touched)
	}
	userMessageID := fixture.messages.messages[0].ID
	if req := fixture.classifier.requests[0]; req.MessageID == nil || *req.MessageID != userMessageID {
		t.Fatalf("expected classifier to receive the user message id, got %v", req.MessageID)
	}
	if len(fixture.responder.messageIDs) != 1 || fixture.responder.messageIDs[0] == nil || *fixture.responder.messageIDs[0] != userMessageID {
		t.Fatalf("expected responder to receive the user message id, got %v", fixture.responder.messageIDs)
	}
}

func TestHandleMessage_RejectsClosedSession(t *testing.T) {
	fixture := newWorkflowFixture(&ClassificationResult{NextAction: ActionSuggestSolution})
	session, _ := fixture.sessions.Create(context.Background(), nil, &types.ConversationSession{
		Status: types.SessionStatusResolved,
	})

	_, err := fixture.svc.HandleMessage(context.Background(), UserMessageRequest{
		SessionID: &session.ID,
		Text:      "hello again",
	})
	if !errors.Is(err, ErrSessionClosed) {
		t.Fatalf("expected ErrSessionClosed, got %v", err)
	}
}

func TestHandleMessage_UnknownSessionIDCreatesNewSession(t *testing.T) {
	fixture := newWorkflowFixture(&ClassificationResult{NextAction: ActionAskClarifyingQuestion})
	missing := uuid.New()

	exchange, err := fixture.svc.HandleMessage(context.Background(), UserMessageRequest{
		SessionID: &missing,
		Text:      "hi",
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if exchange.SessionID == missing {
		t.Fatalf("expected a fresh session id")
	}
}

func TestHandleMessage_FormDismissalSkipsAI(t *testing.T) {
	fixture := newWorkflowFixture(&ClassificationResult{NextAction: ActionSuggestSolution})
	session, _ := fixture.sessions.Create(context.Background(), nil, &types.ConversationSession{
		Status: types.SessionStatusInProgress,
	})
	openForm, _ := fixture.forms.Create(context.Background(), nil, &types.ConversationForm{
		SessionID: session.ID,
		Kind:      types.FormKindFeedback,
		Status:    types.FormStatusInProgress,
	})

	exchange, err := fixture.svc.HandleMessage(context.Background(), UserMessageRequest{
		SessionID: &session.ID,
		Text:      "dismissed the form",
		Metadata: map[string]any{
			"client_hidden":           true,
			"follow_up_form_response": map[string]any{"status": "dismissed"},
		},
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if exchange.AssistantMessageID != nil || exchange.FormID != nil {
		t.Fatalf("dismissal should not produce assistant output: %#v", exchange)
	}
	if exchange.Answer.Reply != "" {
		t.Fatalf("expected empty reply, got %q", exchange.Answer.Reply)
	}
	if len(fixture.classifier.requests) != 0 || fixture.responder.called != 0 {
		t.Fatalf("AI must not run on dismissal")
	}
	if fixture.forms.statuses[openForm.ID] != types.FormStatusRejected {
		t.Fatalf("expected open form rejected, got %q", fixture.forms.statuses[openForm.ID])
	}
}

func TestHandleMessage_FormResponseMarksMessageConsumed(t *testing.T) {
	fixture := newWorkflowFixture(&ClassificationResult{NextAction: ActionSuggestSolution})
	session, _ := fixture.sessions.Create(context.Background(), nil, &types.ConversationSession{
		Status: types.SessionStatusInProgress,
	})
	assistantMsg, _ := fixture.messages.Create(context.Background(), nil, &types.ConversationMessage{
		SessionID: session.ID,
		Role:      types.RoleAssistant,
		Content:   "form offered",
	})

	_, err := fixture.svc.HandleMessage(context.Background(), UserMessageRequest{
		SessionID: &session.ID,
		Text:      "yes it worked",
		Metadata: map[string]any{
			"client_hidden": true,
			"follow_up_form_response": map[string]any{
				"status":     "submitted",
				"replied_to": assistantMsg.ID.String(),
			},
		},
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	raw, ok := fixture.messages.updated[assistantMsg.ID]
	if !ok {
		t.Fatalf("expected metadata update on replied message")
	}
	var metadata map[string]any
	if err := json.Unmarshal(raw, &metadata); err != nil {
		t.Fatalf("decode metadata: %v", err)
	}
	if metadata["form_consumed"] != true {
		t.Fatalf("expected form_consumed flag: %#v", metadata)
	}
}

func TestHandleMessage_ImagesTriggerAnalysis(t *testing.T) {
	fixture := newWorkflowFixture(&ClassificationResult{NextAction: ActionAskClarifyingQuestion})

	_, err := fixture.svc.HandleMessage(context.Background(), UserMessageRequest{
		Text:      "look at this",
		ImagesB64: []string{"aW1hZ2U="},
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if fixture.analyzer.called != 1 {
		t.Fatalf("expected one analysis call, got %d", fixture.analyzer.called)
	}
	var userMeta map[string]any
	if err := json.Unmarshal(fixture.messages.messages[0].Metadata, &userMeta); err != nil {
		t.Fatalf("decode user metadata: %v", err)
	}
	if userMeta["has_images"] != true {
		t.Fatalf("expected has_images flag: %#v", userMeta)
	}
}

func TestHandleMessage_ImageAnalysisFailureIsNonFatal(t *testing.T) {
	fixture := newWorkflowFixture(&ClassificationResult{NextAction: ActionAskClarifyingQuestion})
	fixture.analyzer.err = errors.New("vision model down")

	exchange, err := fixture.svc.HandleMessage(context.Background(), UserMessageRequest{
		Text:      "photo attached",
		ImagesB64: []string{"aW1hZ2U="},
	})
	if err != nil {
		t.Fatalf("analysis failure must not abort the turn: %v", err)
	}
	if exchange.Answer.Reply == "" {
		t.Fatalf("expected a normal assistant reply")
	}
}

func TestHandleMessage_FeedbackFormPersisted(t *testing.T) {
	fixture := newWorkflowFixture(&ClassificationResult{
		Intent:     IntentNewProblem,
		NextAction: ActionPresentFeedbackForm,
	})

	exchange, err := fixture.svc.HandleMessage(context.Background(), UserMessageRequest{Text: "trying it now"})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if exchange.FormID == nil {
		t.Fatalf("expected persisted form id")
	}
	form := fixture.forms.forms[*exchange.FormID]
	if form == nil || form.Kind != types.FormKindFeedback {
		t.Fatalf("unexpected form record: %#v", form)
	}
	fields := fixture.forms.fields[form.ID]
	if len(fields) != 1 {
		t.Fatalf("expected one field, got %d", len(fields))
	}
	options := fixture.forms.options[fields[0].ID]
	if len(options) != 2 {
		t.Fatalf("expected two options, got %d", len(options))
	}
}

func TestHandleMessage_TracksSuggestedSolutionOnce(t *testing.T) {
	fixture := newWorkflowFixture(&ClassificationResult{
		Intent:       IntentNewProblem,
		NextAction:   ActionSuggestSolution,
		SolutionSlug: "clean-filter",
	})
	fixture.solutions.Create(context.Background(), nil, &types.ProblemSolution{
		Slug:  "clean-filter",
		Title: "Clean the filter",
	})

	if _, err := fixture.svc.HandleMessage(context.Background(), UserMessageRequest{Text: "water everywhere"}); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(fixture.suggestions.suggestions) != 1 {
		t.Fatalf("expected one tracked suggestion, got %d", len(fixture.suggestions.suggestions))
	}

	fixture.classifier.result.SolutionAlreadyTried = true
	if _, err := fixture.svc.HandleMessage(context.Background(), UserMessageRequest{Text: "done that"}); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(fixture.suggestions.suggestions) != 1 {
		t.Fatalf("already tried solutions must not be re-tracked, got %d", len(fixture.suggestions.suggestions))
	}
}

func TestHandleMessage_CloseResolvedSetsStatusAndHidesSuggestions(t *testing.T) {
	fixture := newWorkflowFixture(&ClassificationResult{
		Intent:     IntentConfirmResolved,
		NextAction: ActionCloseResolved,
	})

	exchange, err := fixture.svc.HandleMessage(context.Background(), UserMessageRequest{Text: "all fixed"})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if fixture.sessions.statuses[exchange.SessionID] != types.SessionStatusResolved {
		t.Fatalf("expected resolved status, got %q", fixture.sessions.statuses[exchange.SessionID])
	}
	if len(exchange.Answer.SuggestedActions) != 0 {
		t.Fatalf("closing turns must not carry suggestions: %#v", exchange.Answer.SuggestedActions)
	}
}

func TestHandleMessage_EscalateSetsStatus(t *testing.T) {
	fixture := newWorkflowFixture(&ClassificationResult{
		Intent:     IntentRequestEscalation,
		NextAction: ActionEscalate,
	})

	exchange, err := fixture.svc.HandleMessage(context.Background(), UserMessageRequest{Text: "get me a human"})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if fixture.sessions.statuses[exchange.SessionID] != types.SessionStatusEscalated {
		t.Fatalf("expected escalated status, got %q", fixture.sessions.statuses[exchange.SessionID])
	}
}
