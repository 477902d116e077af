package policy

import (
	"context"
	"testing"
)

func TestDefaultPolicy(t *testing.T) {
	ctx := context.Background()
	engine, err := NewEngine(ctx, DefaultPolicy)
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}

	tests := []struct {
		name string
		in   Input
		want Action
	}{
		{"plain text", Input{Text: "what are your hours?"}, ActionEcho},
		{"contact request", Input{Text: "Please CONTACT me"}, ActionForm},
		{"call me", Input{Text: "can you call me tomorrow"}, ActionForm},
		{"human", Input{Text: "I want a human"}, ActionHandoffHint},
		{"form submission", Input{FormSubmission: true}, ActionAck},
		{"handed off", Input{Text: "contact me", HandedOff: true}, ActionSilent},
		{"handed off submission", Input{FormSubmission: true, HandedOff: true}, ActionSilent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := engine.Decide(ctx, tt.in)
			if err != nil {
				t.Fatalf("Decide failed: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestCustomPolicy(t *testing.T) {
	ctx := context.Background()
	engine, err := NewEngine(ctx, `
package widget_policy

action = "form" {
	input.agent_id == "sales"
}
`)
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}

	got, err := engine.Decide(ctx, Input{Text: "hi", AgentID: "sales"})
	if err != nil || got != ActionForm {
		t.Fatalf("expected form, got %s (%v)", got, err)
	}

	// Undefined result falls back to echo.
	got, err = engine.Decide(ctx, Input{Text: "hi", AgentID: "support"})
	if err != nil || got != ActionEcho {
		t.Fatalf("expected echo, got %s (%v)", got, err)
	}
}

func TestInvalidPolicy(t *testing.T) {
	if _, err := NewEngine(context.Background(), "package widget_policy\naction = {"); err == nil {
		t.Fatal("expected compile error")
	}
}
