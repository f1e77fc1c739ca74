package services

import (
	"fmt"

	"github.com/google/uuid"
)

// UserIntent is what the user is trying to do; NextAction is what the
// assistant does about it. Both sets are closed: anything else coming back
// from the model is a classification failure, never coerced.

type UserIntent string

const (
	IntentNewProblem        UserIntent = "new_problem"
	IntentClarifying        UserIntent = "clarifying"
	IntentFeedbackPositive  UserIntent = "feedback_positive"
	IntentFeedbackNegative  UserIntent = "feedback_negative"
	IntentRequestEscalation UserIntent = "request_escalation"
	IntentConfirmResolved   UserIntent = "confirm_resolved"
	IntentConfirmUnresolved UserIntent = "confirm_unresolved"
	IntentOutOfScope        UserIntent = "out_of_scope"
	IntentUnintelligible    UserIntent = "unintelligible"
	IntentContradictory     UserIntent = "contradictory"
)

type NextAction string

const (
	ActionSuggestSolution       NextAction = "suggest_solution"
	ActionAskClarifyingQuestion NextAction = "ask_clarifying_question"
	ActionPresentResolutionForm NextAction = "present_resolution_form"
	ActionPresentEscalationForm NextAction = "present_escalation_form"
	ActionPresentFeedbackForm   NextAction = "present_feedback_form"
	ActionCloseResolved         NextAction = "close_resolved"
	ActionEscalate              NextAction = "escalate"
	ActionDeclineOutOfScope     NextAction = "decline_out_of_scope"
	ActionRequestClearInput     NextAction = "request_clear_input"
)

var validIntents = map[UserIntent]bool{
	IntentNewProblem:        true,
	IntentClarifying:        true,
	IntentFeedbackPositive:  true,
	IntentFeedbackNegative:  true,
	IntentRequestEscalation: true,
	IntentConfirmResolved:   true,
	IntentConfirmUnresolved: true,
	IntentOutOfScope:        true,
	IntentUnintelligible:    true,
	IntentContradictory:     true,
}

var validActions = map[NextAction]bool{
	ActionSuggestSolution:       true,
	ActionAskClarifyingQuestion: true,
	ActionPresentResolutionForm: true,
	ActionPresentEscalationForm: true,
	ActionPresentFeedbackForm:   true,
	ActionCloseResolved:         true,
	ActionEscalate:              true,
	ActionDeclineOutOfScope:     true,
	ActionRequestClearInput:     true,
}

func ParseIntent(s string) (UserIntent, error) {
	intent := UserIntent(s)
	if !validIntents[intent] {
		return "", fmt.Errorf("unknown intent %q", s)
	}
	return intent, nil
}

func ParseNextAction(s string) (NextAction, error) {
	action := NextAction(s)
	if !validActions[action] {
		return "", fmt.Errorf("unknown next action %q", s)
	}
	return action, nil
}

// ClassificationRequest feeds the decision engine one conversation turn.
type ClassificationRequest struct {
	SessionID uuid.UUID
	MessageID *uuid.UUID
	UserText  string
	Locale    string
	Events    []string
}

// ClassificationResult carries every decision for the turn; the response
// generator only verbalizes it.
type ClassificationResult struct {
	Intent     UserIntent
	NextAction NextAction
	Confidence float64
	Reasoning  string

	ProblemCategorySlug string
	ProblemCategoryName string
	ProblemCauseSlug    string
	ProblemCauseName    string

	SolutionSlug         string
	SolutionTitle        string
	SolutionSteps        string
	SolutionAlreadyTried bool

	ClarifyingQuestion   string
	ContradictionDetails string
	OutOfScopeReason     string

	ShouldEscalate   bool
	EscalationReason string

	AttemptedSolutions []string

	Usage *ModelUsage
}

// ModelUsage is a single AI call's token/cost accounting.
type ModelUsage struct {
	RequestType  string
	Model        string
	InputTokens  int
	OutputTokens int
	TotalTokens  int
	CostInput    float64
	CostOutput   float64
	CostTotal    float64
}

type GeneratedFormOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

type GeneratedFormField struct {
	Question    string                `json:"question"`
	InputType   string                `json:"input_type"`
	Required    bool                  `json:"required"`
	Placeholder string                `json:"placeholder,omitempty"`
	Options     []GeneratedFormOption `json:"options,omitempty"`
}

type GeneratedForm struct {
	Kind        string               `json:"kind"`
	Title       string               `json:"title"`
	Description string               `json:"description,omitempty"`
	Fields      []GeneratedFormField `json:"fields"`
}

// AssistantAnswer is the user-facing payload for one turn.
type AssistantAnswer struct {
	Reply            string         `json:"reply"`
	SuggestedActions []string       `json:"suggested_actions"`
	FollowUpForm     *GeneratedForm `json:"follow_up_form,omitempty"`
	Confidence       *float64       `json:"confidence,omitempty"`
	Metadata         map[string]any `json:"metadata,omitempty"`
}
