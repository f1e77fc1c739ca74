package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/duda4418/dishwise-backend/internal/clients/openai"
	"github.com/duda4418/dishwise-backend/internal/logger"
	"github.com/duda4418/dishwise-backend/internal/repos"
	"github.com/duda4418/dishwise-backend/internal/types"
)

const classificationSource = "ai_classification"

// classifierPayload is the structured output contract for the decision call.
type classifierPayload struct {
	Intent     string  `json:"intent"`
	NextAction string  `json:"next_action"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`

	ProblemCategorySlug *string `json:"problem_category_slug"`
	ProblemCauseSlug    *string `json:"problem_cause_slug"`
	SolutionSlug        *string `json:"solution_slug"`

	ClarifyingQuestion   *string `json:"clarifying_question"`
	ContradictionDetails *string `json:"contradiction_details"`
	OutOfScopeReason     *string `json:"out_of_scope_reason"`

	ShouldEscalate   bool    `json:"should_escalate"`
	EscalationReason *string `json:"escalation_reason"`
}

func classifierSchema() map[string]any {
	optionalString := map[string]any{"type": []string{"string", "null"}}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required": []string{
			"intent", "next_action", "confidence", "reasoning",
			"problem_category_slug", "problem_cause_slug", "solution_slug",
			"clarifying_question", "contradiction_details", "out_of_scope_reason",
			"should_escalate", "escalation_reason",
		},
		"properties": map[string]any{
			"intent": map[string]any{
				"type": "string",
				"enum": []string{
					"new_problem", "clarifying", "feedback_positive", "feedback_negative",
					"request_escalation", "confirm_resolved", "confirm_unresolved",
					"out_of_scope", "unintelligible", "contradictory",
				},
			},
			"next_action": map[string]any{
				"type": "string",
				"enum": []string{
					"suggest_solution", "ask_clarifying_question", "present_resolution_form",
					"present_escalation_form", "present_feedback_form", "close_resolved",
					"escalate", "decline_out_of_scope", "request_clear_input",
				},
			},
			"confidence": map[string]any{"type": "number", "minimum": 0, "maximum": 1},
			"reasoning":  map[string]any{"type": "string"},

			"problem_category_slug": optionalString,
			"problem_cause_slug":    optionalString,
			"solution_slug":         optionalString,

			"clarifying_question":   optionalString,
			"contradiction_details": optionalString,
			"out_of_scope_reason":   optionalString,

			"should_escalate":   map[string]any{"type": "boolean"},
			"escalation_reason": optionalString,
		},
	}
}

type ClassifierService interface {
	Classify(ctx context.Context, req ClassificationRequest) (*ClassificationResult, error)
}

type classifierService struct {
	catalogue    CatalogueService
	suggestions  repos.SuggestionRepo
	solutions    repos.SolutionRepo
	problemState repos.ProblemStateRepo
	ai           openai.Client
	usage        UsageRecorder
	log          *logger.Logger
}

func NewClassifierService(
	catalogue CatalogueService,
	suggestions repos.SuggestionRepo,
	solutions repos.SolutionRepo,
	problemState repos.ProblemStateRepo,
	ai openai.Client,
	usage UsageRecorder,
	baseLog *logger.Logger,
) ClassifierService {
	return &classifierService{
		catalogue:    catalogue,
		suggestions:  suggestions,
		solutions:    solutions,
		problemState: problemState,
		ai:           ai,
		usage:        usage,
		log:          baseLog.With("service", "ClassifierService"),
	}
}

func (s *classifierService) Classify(ctx context.Context, req ClassificationRequest) (*ClassificationResult, error) {
	snapshot, err := s.catalogue.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalogue: %w", err)
	}

	attempted, err := s.attemptedSolutionSlugs(ctx, req.SessionID)
	if err != nil {
		return nil, fmt.Errorf("load attempted solutions: %w", err)
	}

	confirmedSlug, err := s.confirmedCategorySlug(ctx, req.SessionID, snapshot)
	if err != nil {
		return nil, fmt.Errorf("load problem state: %w", err)
	}

	raw, modelUsage, err := s.ai.GenerateJSON(ctx, openai.JSONRequest{
		System:      classifierInstructions,
		User:        buildClassifierContent(req, snapshot, attempted, confirmedSlug),
		SchemaName:  "classifier_payload",
		Schema:      classifierSchema(),
		Temperature: 0.1,
	})
	if err != nil {
		return nil, fmt.Errorf("classification call: %w", err)
	}

	var payload classifierPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("decode classifier payload: %w", err)
	}

	result, err := s.buildResult(payload, snapshot, attempted)
	if err != nil {
		return nil, err
	}

	if err := s.persistProblemState(ctx, req.SessionID, result, snapshot, payload.Confidence); err != nil {
		s.log.Warn("failed to persist problem state", "session_id", req.SessionID, "error", err)
	}

	sessionID := req.SessionID
	result.Usage = s.usage.Record(ctx, &sessionID, req.MessageID, "unified_classification", s.ai.Model(), modelUsage)

	s.log.Info("classified turn",
		"session_id", req.SessionID,
		"intent", result.Intent,
		"next_action", result.NextAction,
		"confidence", result.Confidence,
	)
	return result, nil
}

func (s *classifierService) attemptedSolutionSlugs(ctx context.Context, sessionID uuid.UUID) ([]string, error) {
	suggestions, err := s.suggestions.ListBySession(ctx, nil, sessionID)
	if err != nil {
		return nil, err
	}
	if len(suggestions) == 0 {
		return nil, nil
	}
	ids := make([]uuid.UUID, 0, len(suggestions))
	for _, sg := range suggestions {
		ids = append(ids, sg.SolutionID)
	}
	solutions, err := s.solutions.GetByIDs(ctx, nil, ids)
	if err != nil {
		return nil, err
	}
	slugs := make([]string, 0, len(solutions))
	for _, sol := range solutions {
		slugs = append(slugs, sol.Slug)
	}
	return slugs, nil
}

// confirmedCategorySlug resolves the session's confirmed category, if any,
// so the prompt can show that category's causes and solutions.
func (s *classifierService) confirmedCategorySlug(ctx context.Context, sessionID uuid.UUID, snapshot *CatalogueSnapshot) (string, error) {
	state, err := s.problemState.GetBySession(ctx, nil, sessionID)
	if err != nil {
		return "", err
	}
	if state == nil || state.CategoryID == nil {
		return "", nil
	}
	for _, cat := range snapshot.Categories {
		if cat.ID == *state.CategoryID {
			return cat.Slug, nil
		}
	}
	return "", nil
}

func (s *classifierService) buildResult(payload classifierPayload, snapshot *CatalogueSnapshot, attempted []string) (*ClassificationResult, error) {
	intent, err := ParseIntent(payload.Intent)
	if err != nil {
		return nil, fmt.Errorf("classifier returned %w", err)
	}
	action, err := ParseNextAction(payload.NextAction)
	if err != nil {
		return nil, fmt.Errorf("classifier returned %w", err)
	}

	result := &ClassificationResult{
		Intent:               intent,
		NextAction:           action,
		Confidence:           payload.Confidence,
		Reasoning:            payload.Reasoning,
		ClarifyingQuestion:   derefString(payload.ClarifyingQuestion),
		ContradictionDetails: derefString(payload.ContradictionDetails),
		OutOfScopeReason:     derefString(payload.OutOfScopeReason),
		ShouldEscalate:       payload.ShouldEscalate,
		EscalationReason:     derefString(payload.EscalationReason),
		AttemptedSolutions:   attempted,
	}

	categorySlug := derefString(payload.ProblemCategorySlug)
	if categorySlug == "" {
		return result, nil
	}
	category := snapshot.Category(categorySlug)
	if category == nil {
		// The model invented a slug; keep the decision but drop the reference.
		s.log.Warn("classifier referenced unknown category", "slug", categorySlug)
		return result, nil
	}
	result.ProblemCategorySlug = category.Slug
	result.ProblemCategoryName = category.Name

	causeSlug := derefString(payload.ProblemCauseSlug)
	if causeSlug == "" {
		return result, nil
	}
	cause := category.Cause(causeSlug)
	if cause == nil {
		s.log.Warn("classifier referenced unknown cause", "category", categorySlug, "slug", causeSlug)
		return result, nil
	}
	result.ProblemCauseSlug = cause.Slug
	result.ProblemCauseName = cause.Name

	solutionSlug := derefString(payload.SolutionSlug)
	if solutionSlug == "" {
		return result, nil
	}
	for _, sol := range cause.Solutions {
		if sol.Slug == solutionSlug {
			result.SolutionSlug = sol.Slug
			result.SolutionTitle = sol.Title
			result.SolutionSteps = sol.Instructions
			result.SolutionAlreadyTried = containsString(attempted, sol.Slug)
			break
		}
	}
	if result.SolutionSlug == "" {
		s.log.Warn("classifier referenced unknown solution", "cause", causeSlug, "slug", solutionSlug)
	}
	return result, nil
}

func (s *classifierService) persistProblemState(ctx context.Context, sessionID uuid.UUID, result *ClassificationResult, snapshot *CatalogueSnapshot, confidence float64) error {
	if result.ProblemCategorySlug == "" {
		return nil
	}
	category := snapshot.Category(result.ProblemCategorySlug)
	if category == nil {
		return nil
	}

	var causeID *uuid.UUID
	if result.ProblemCauseSlug != "" {
		if cause := category.Cause(result.ProblemCauseSlug); cause != nil {
			id := cause.ID
			causeID = &id
		}
	}

	categoryID := category.ID
	source := classificationSource
	_, err := s.problemState.Upsert(ctx, nil, &types.SessionProblemState{
		SessionID:                sessionID,
		CategoryID:               &categoryID,
		CauseID:                  causeID,
		ClassificationConfidence: &confidence,
		ClassificationSource:     &source,
		ManualOverride:           false,
	})
	return err
}

const classifierInstructions = `You are a dishwasher troubleshooting assistant. Analyze the situation and determine the next action.

INTENTS:
- new_problem - User reports an issue or sends image of problem
- clarifying - User provides more details about current problem
- feedback_positive - Solution worked or image shows improvement
- feedback_negative - Solution didn't work
- request_escalation - User wants human help
- confirm_resolved - User confirms problem is fixed
- confirm_unresolved - User states problem persists after resolution check
- out_of_scope - Not dishwasher related
- unintelligible - Can't understand input
- contradictory - Image evidence contradicts user text

ACTIONS:
- suggest_solution - Recommend a specific solution to try
- ask_clarifying_question - Need more information before proceeding
- present_resolution_form - Ask if problem is resolved
- present_escalation_form - Offer escalation to human support (use when user requests escalation OR after trying all solutions)
- present_feedback_form - Ask whether the last suggestion helped
- close_resolved - Close session as resolved (only after user confirms via form)
- escalate - Close and transfer to human support (only after user confirms via form)
- decline_out_of_scope - Politely decline non-dishwasher issues
- request_clear_input - Ask the user to rephrase unintelligible input

WORKFLOW:
1. NO problem selected yet -> Use image analysis + user text to identify problem CATEGORY
   - Set next_action: ask_clarifying_question
   - Wait for confirmation before suggesting solutions
   - DO NOT suggest solutions yet

2. Problem CONFIRMED -> Now you see causes/solutions for that category
   - Identify most likely cause based on symptoms
   - Set action: suggest_solution
   - Don't repeat already attempted solutions

3. After suggestion -> Evaluate outcome
   - Image analysis indicates resolution -> intent: feedback_positive, action: present_resolution_form
   - User reports success -> intent: feedback_positive, action: present_resolution_form
   - User reports failure -> intent: feedback_negative, action: suggest_solution (try next)
   - After proposed all suggestions and no improvement and no other leads -> action: present_escalation_form OR switch to the next likely cause

CATEGORY SWITCHING:
- You CAN switch to a different problem category anytime
- If user repeatedly clarifies different symptoms -> Switch category by returning new category slug
- If image shows different problem than selected category -> Switch categories
- System automatically updates to new category when you return different slug

RESOLUTION DETECTION (PRIORITY):
- If solution was suggested AND new image shows improvement -> intent: feedback_positive, action: present_resolution_form
- Image changing from "issue" to "clean" after solution = likely resolved
- Don't treat improvement as contradictory - treat as positive outcome
- Present resolution form to confirm, keep problem category for statistics

CLARIFYING QUESTIONS:
- Limit clarifying questions - prefer suggesting actionable solutions
- If user indicates no behavior change, assume machine-related cause
- Move to solution quickly rather than gathering excessive details

CRITICAL RULES:
- Prioritize IMAGE ANALYSIS over user text for problem identification
- If image contradicts user text, set intent: contradictory
- Don't use contradictory intent when image shows improvement after solution
- Suggest only ONE solution at a time
- Don't repeat already attempted solutions
- Stay on same cause if user confirms it
- Switch cause only if: solution failed OR user denies the cause
- Detect resolution from context changes, not just explicit user confirmation
- Maintain problem category throughout conversation for tracking, unless another problem detected
- When user requests escalation, use present_escalation_form to show the form first. Only use escalate action after form submission.
- When escalating, try to convince the user to try more troubleshooting, but still provide the form and acknowledge their request.

REASONING: Explain intent, action choice, and evidence.`

func buildClassifierContent(req ClassificationRequest, snapshot *CatalogueSnapshot, attempted []string, confirmedSlug string) string {
	var b strings.Builder

	if req.UserText != "" {
		b.WriteString("User: " + req.UserText)
	} else {
		b.WriteString("User: (sent image only)")
	}

	if len(req.Events) > 0 {
		b.WriteString("\n\nRecent conversation:")
		for _, event := range req.Events {
			b.WriteString("\n  " + event)
		}
	}

	if len(attempted) > 0 {
		b.WriteString("\n\nAlready tried: " + strings.Join(attempted, ", "))
	}

	b.WriteString("\n\n" + renderCatalogue(snapshot, confirmedSlug))
	return b.String()
}

// renderCatalogue always lists categories; cause and solution detail is shown
// only for the confirmed category to keep the prompt small.
func renderCatalogue(snapshot *CatalogueSnapshot, confirmedSlug string) string {
	var b strings.Builder
	b.WriteString("Problem categories:")
	for _, cat := range snapshot.Categories {
		b.WriteString(fmt.Sprintf("\n  - %s: %s", cat.Slug, cat.Name))
	}

	if confirmedSlug == "" {
		b.WriteString("\n\n-> Identify the problem category, then ask for confirmation.")
		return b.String()
	}

	b.WriteString("\n\nSelected: " + confirmedSlug)
	category := snapshot.Category(confirmedSlug)
	if category == nil {
		b.WriteString("\nCategory '" + confirmedSlug + "' not found.")
		return b.String()
	}
	for _, cause := range category.Causes {
		b.WriteString("\n\nCause: " + cause.Name)
		for _, sol := range cause.Solutions {
			b.WriteString(fmt.Sprintf("\n  -> %s: %s", sol.Slug, sol.Title))
		}
	}
	return b.String()
}

func containsString(list []string, target string) bool {
	for _, item := range list {
		if item == target {
			return true
		}
	}
	return false
}
