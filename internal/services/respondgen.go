package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/duda4418/dishwise-backend/internal/clients/openai"
	"github.com/duda4418/dishwise-backend/internal/logger"
)

// ResponseResult is generated text only; decisions come from the classifier.
type ResponseResult struct {
	Reply           string
	SuggestedAction string
	Usage           *ModelUsage
}

type responsePayload struct {
	Reply           string  `json:"reply"`
	SuggestedAction *string `json:"suggested_action"`
}

func responseSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []string{"reply", "suggested_action"},
		"properties": map[string]any{
			"reply":            map[string]any{"type": "string"},
			"suggested_action": map[string]any{"type": []string{"string", "null"}},
		},
	}
}

type ResponseService interface {
	Generate(ctx context.Context, sessionID uuid.UUID, messageID *uuid.UUID, classification *ClassificationResult) (*ResponseResult, error)
}

type responseService struct {
	ai    openai.Client
	usage UsageRecorder
	log   *logger.Logger
}

func NewResponseService(ai openai.Client, usage UsageRecorder, baseLog *logger.Logger) ResponseService {
	return &responseService{
		ai:    ai,
		usage: usage,
		log:   baseLog.With("service", "ResponseService"),
	}
}

func (s *responseService) Generate(ctx context.Context, sessionID uuid.UUID, messageID *uuid.UUID, classification *ClassificationResult) (*ResponseResult, error) {
	raw, modelUsage, err := s.ai.GenerateJSON(ctx, openai.JSONRequest{
		System:      responseInstructions(classification.NextAction),
		User:        responseContent(classification),
		SchemaName:  "response_payload",
		Schema:      responseSchema(),
		Temperature: 0.3,
	})
	if err != nil {
		return nil, fmt.Errorf("response call: %w", err)
	}

	var payload responsePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("decode response payload: %w", err)
	}
	if payload.Reply == "" {
		return nil, fmt.Errorf("response payload missing reply")
	}

	usage := s.usage.Record(ctx, &sessionID, messageID, "unified_response", s.ai.Model(), modelUsage)
	return &ResponseResult{
		Reply:           payload.Reply,
		SuggestedAction: derefString(payload.SuggestedAction),
		Usage:           usage,
	}, nil
}

const responseBaseInstructions = `You are a friendly dishwasher troubleshooting assistant.
Generate a conversational response based on the classification decisions provided.

IMPORTANT RULES:
- Keep responses SHORT: 2-3 sentences maximum
- Be friendly and natural, not robotic
- Vary your language - don't repeat the same phrases
- Always explain WHY before WHAT when suggesting solutions
- Only include information relevant to the next_action

SUGGESTED ACTIONS:
- suggested_action should be USER-FACING (what the user should do)
- Examples: "Lower rinse aid to level 1", "Run empty hot cycle with vinegar", "Check spray arms"
- NOT AI actions like "Ask for details" or "Present form"
- Set to null if there's no concrete action for the user to take

`

var responseTaskInstructions = map[NextAction]string{
	ActionSuggestSolution: `
TASK: Suggest a solution to try

Structure:
1. First sentence: Briefly explain what you think the problem/cause is
2. Second sentence: Suggest ONE clear action to try

Example: "This looks like rinse aid overdosing, which leaves waxy residue on glass. Try lowering the rinse-aid setting to level 1."

Use the solution_title and solution_steps from classification.
`,
	ActionAskClarifyingQuestion: `
TASK: Ask for clarification

Use the clarifying_question from classification.
Make it friendly and conversational.
Explain briefly why you're asking if helpful.

NOTE: Set suggested_action to null (we're asking a question, not suggesting an action).
`,
	ActionRequestClearInput: `
TASK: Request clearer input

The input was unintelligible or contradictory.
Use the reasoning and contradiction_details to explain what's unclear.
Ask the user to provide clearer information.
`,
	ActionDeclineOutOfScope: `
TASK: Politely decline out-of-scope question

Explain that you're specifically for dishwasher troubleshooting.
Invite them to ask dishwasher-related questions.
`,
	ActionPresentResolutionForm: `
TASK: Lead into resolution check

User indicated the problem might be fixed.
Express that you're glad to hear it.
Mention that a confirmation form will appear.
`,
	ActionPresentEscalationForm: `
TASK: Lead into escalation offer

Explain that you've tried available solutions or the issue requires human help.
Mention that an escalation form will appear.
`,
	ActionPresentFeedbackForm: `
TASK: Lead into feedback form

You just suggested a solution.
Keep it brief - the feedback form will appear asking if it helped.
`,
	ActionCloseResolved: `
TASK: Confirm resolution and close

Congratulate the user on resolving the issue.
Let them know they can start a new conversation if needed.
`,
	ActionEscalate: `
TASK: Confirm escalation

Let the user know their issue is being handed to a specialist.
Mention they'll be contacted with next steps.
`,
}

func responseInstructions(action NextAction) string {
	task, ok := responseTaskInstructions[action]
	if !ok {
		return responseBaseInstructions
	}
	return responseBaseInstructions + task
}

func responseContent(c *ClassificationResult) string {
	lines := []string{
		fmt.Sprintf("Intent: %s", c.Intent),
		fmt.Sprintf("Next Action: %s", c.NextAction),
		fmt.Sprintf("Confidence: %g", c.Confidence),
		fmt.Sprintf("Reasoning: %s", c.Reasoning),
	}

	if c.ProblemCauseName != "" {
		lines = append(lines, fmt.Sprintf("Problem Cause: %s", c.ProblemCauseName))
	}
	if c.SolutionTitle != "" {
		lines = append(lines, fmt.Sprintf("Solution: %s", c.SolutionTitle))
		if c.SolutionSteps != "" {
			firstStep := strings.SplitN(c.SolutionSteps, "\n", 2)[0]
			lines = append(lines, fmt.Sprintf("First Step: %s", firstStep))
		}
	}
	if c.ClarifyingQuestion != "" {
		lines = append(lines, fmt.Sprintf("Clarifying Question: %s", c.ClarifyingQuestion))
	}
	if c.ContradictionDetails != "" {
		lines = append(lines, fmt.Sprintf("Contradiction: %s", c.ContradictionDetails))
	}
	if c.OutOfScopeReason != "" {
		lines = append(lines, fmt.Sprintf("Out of Scope: %s", c.OutOfScopeReason))
	}
	if c.EscalationReason != "" {
		lines = append(lines, fmt.Sprintf("Escalation Reason: %s", c.EscalationReason))
	}

	return strings.Join(lines, "\n")
}
