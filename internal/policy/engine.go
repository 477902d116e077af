// Package policy decides how the development backend answers a visitor message.
package policy

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/rego"
)

// Action is the backend's reply to one inbound message.
type Action string

const (
	// ActionEcho answers with a scripted bot reply.
	ActionEcho Action = "echo"
	// ActionForm pushes the contact form.
	ActionForm Action = "form"
	// ActionHandoffHint suggests talking to a human.
	ActionHandoffHint Action = "handoff_hint"
	// ActionAck acknowledges a form submission.
	ActionAck Action = "ack"
	// ActionSilent sends nothing; a human agent owns the session.
	ActionSilent Action = "silent"
)

// Input is what the policy sees about a message.
type Input struct {
	Text           string `json:"text"`
	FormSubmission bool   `json:"form_submission"`
	HandedOff      bool   `json:"handed_off"`
	AgentID        string `json:"agent_id"`
}

// Engine is the OPA policy engine.
type Engine struct {
	query rego.PreparedEvalQuery
}

// NewEngine compiles the given policy module.
func NewEngine(ctx context.Context, policyContent string) (*Engine, error) {
	r := rego.New(
		rego.Query("data.widget_policy.action"),
		rego.Module("widget_policy.rego", policyContent),
	)

	query, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare rego: %w", err)
	}

	return &Engine{query: query}, nil
}

// Decide evaluates the policy for one message. A policy that yields nothing
// falls back to ActionEcho.
func (e *Engine) Decide(ctx context.Context, in Input) (Action, error) {
	results, err := e.query.Eval(ctx, rego.EvalInput(in))
	if err != nil {
		return "", fmt.Errorf("failed to evaluate policy: %w", err)
	}

	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return ActionEcho, nil
	}

	s, ok := results[0].Expressions[0].Value.(string)
	if !ok {
		return "", fmt.Errorf("unexpected policy result %T", results[0].Expressions[0].Value)
	}
	return Action(s), nil
}

// DefaultPolicy is the policy used when none is configured.
const DefaultPolicy = `
package widget_policy

default action = "echo"

action = "silent" {
	input.handed_off
} else = "ack" {
	input.form_submission
} else = "form" {
	wants_form
} else = "handoff_hint" {
	wants_human
}

wants_form {
	contains(lower(input.text), "contact")
}

wants_form {
	contains(lower(input.text), "call me")
}

wants_human {
	contains(lower(input.text), "human")
}

wants_human {
	contains(lower(input.text), "real person")
}
`
