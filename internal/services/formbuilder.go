package services

import (
	"github.com/duda4418/dishwise-backend/internal/types"
)

// BuildForm returns the static follow-up form for the given action, or nil
// when the action needs no form.
func BuildForm(action NextAction) *GeneratedForm {
	switch action {
	case ActionPresentFeedbackForm:
		return feedbackForm()
	case ActionPresentResolutionForm:
		return resolutionForm()
	case ActionPresentEscalationForm:
		return escalationForm()
	default:
		return nil
	}
}

func feedbackForm() *GeneratedForm {
	return &GeneratedForm{
		Kind:        types.FormKindFeedback,
		Title:       "Did that help?",
		Description: "Let us know if this suggestion worked for you",
		Fields: []GeneratedFormField{
			{
				Question:  "Was this helpful?",
				InputType: types.FormInputSingleChoice,
				Required:  true,
				Options: []GeneratedFormOption{
					{Value: "yes", Label: "Yes, it worked!"},
					{Value: "no", Label: "No, still having issues"},
				},
			},
		},
	}
}

func resolutionForm() *GeneratedForm {
	return &GeneratedForm{
		Kind:        types.FormKindResolution,
		Title:       "Is your issue resolved?",
		Description: "Please confirm if your problem has been fixed",
		Fields: []GeneratedFormField{
			{
				Question:  "Is the problem resolved?",
				InputType: types.FormInputSingleChoice,
				Required:  true,
				Options: []GeneratedFormOption{
					{Value: "yes", Label: "Yes, problem is fixed"},
					{Value: "no", Label: "No, still not working"},
				},
			},
		},
	}
}

func escalationForm() *GeneratedForm {
	return &GeneratedForm{
		Kind:        types.FormKindEscalation,
		Title:       "Contact Support?",
		Description: "Would you like us to connect you with a specialist?",
		Fields: []GeneratedFormField{
			{
				Question:  "Do you want to escalate to human support?",
				InputType: types.FormInputSingleChoice,
				Required:  true,
				Options: []GeneratedFormOption{
					{Value: "yes", Label: "Yes, please escalate"},
					{Value: "no", Label: "No, I'll keep trying"},
				},
			},
		},
	}
}
