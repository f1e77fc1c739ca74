package services

import "testing"

func TestParseIntent_AcceptsKnownValues(t *testing.T) {
	for _, raw := range []string{
		"new_problem", "clarifying", "feedback_positive", "feedback_negative",
		"request_escalation", "confirm_resolved", "confirm_unresolved",
		"out_of_scope", "unintelligible", "contradictory",
	} {
		intent, err := ParseIntent(raw)
		if err != nil {
			t.Fatalf("unexpected err for %q: %v", raw, err)
		}
		if string(intent) != raw {
			t.Fatalf("expected %q got %q", raw, intent)
		}
	}
}

func TestParseIntent_RejectsUnknown(t *testing.T) {
	if _, err := ParseIntent("chitchat"); err == nil {
		t.Fatalf("expected error for unknown intent")
	}
	if _, err := ParseIntent(""); err == nil {
		t.Fatalf("expected error for empty intent")
	}
}

func TestParseNextAction_AcceptsKnownValues(t *testing.T) {
	for _, raw := range []string{
		"suggest_solution", "ask_clarifying_question", "present_resolution_form",
		"present_escalation_form", "present_feedback_form", "close_resolved",
		"escalate", "decline_out_of_scope", "request_clear_input",
	} {
		action, err := ParseNextAction(raw)
		if err != nil {
			t.Fatalf("unexpected err for %q: %v", raw, err)
		}
		if string(action) != raw {
			t.Fatalf("expected %q got %q", raw, action)
		}
	}
}

func TestParseNextAction_RejectsUnknown(t *testing.T) {
	if _, err := ParseNextAction("do_nothing"); err == nil {
		t.Fatalf("expected error for unknown action")
	}
}
