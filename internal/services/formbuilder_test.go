package services

import (
	"testing"

	"github.com/duda4418/dishwise-backend/internal/types"
)

func TestBuildForm_FeedbackForm(t *testing.T) {
	form := BuildForm(ActionPresentFeedbackForm)
	if form == nil {
		t.Fatalf("expected a form")
	}
	if form.Kind != types.FormKindFeedback {
		t.Fatalf("unexpected kind: %q", form.Kind)
	}
	if form.Title != "Did that help?" {
		t.Fatalf("unexpected title: %q", form.Title)
	}
	if len(form.Fields) != 1 {
		t.Fatalf("expected one field, got %d", len(form.Fields))
	}
	field := form.Fields[0]
	if field.InputType != types.FormInputSingleChoice || !field.Required {
		t.Fatalf("unexpected field: %#v", field)
	}
	if len(field.Options) != 2 || field.Options[0].Value != "yes" || field.Options[1].Value != "no" {
		t.Fatalf("unexpected options: %#v", field.Options)
	}
}

func TestBuildForm_ResolutionForm(t *testing.T) {
	form := BuildForm(ActionPresentResolutionForm)
	if form == nil || form.Kind != types.FormKindResolution {
		t.Fatalf("unexpected form: %#v", form)
	}
	if form.Fields[0].Question != "Is the problem resolved?" {
		t.Fatalf("unexpected question: %q", form.Fields[0].Question)
	}
}

func TestBuildForm_EscalationForm(t *testing.T) {
	form := BuildForm(ActionPresentEscalationForm)
	if form == nil || form.Kind != types.FormKindEscalation {
		t.Fatalf("unexpected form: %#v", form)
	}
	if form.Fields[0].Options[1].Label != "No, I'll keep trying" {
		t.Fatalf("unexpected option label: %q", form.Fields[0].Options[1].Label)
	}
}

func TestBuildForm_NoFormForOtherActions(t *testing.T) {
	for _, action := range []NextAction{
		ActionSuggestSolution, ActionAskClarifyingQuestion, ActionCloseResolved,
		ActionEscalate, ActionDeclineOutOfScope, ActionRequestClearInput,
	} {
		if form := BuildForm(action); form != nil {
			t.Fatalf("expected nil form for %s, got %#v", action, form)
		}
	}
}
