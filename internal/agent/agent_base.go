// Package agent adapts the teacher's BaseAgent/Stepper pair to this
// service's LLM call shape: a single request/validate/maybe-repair round
// trip rather than the teacher's multi-step ReAct loop. Neither the
// Feedback Generator nor the Roadmap Planner need open-ended planning —
// each makes exactly one LLM call per operation, plus at most one repair
// retry, so the ReAct-specific step counter and scratch memory are dropped.
package agent

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// State tracks a BaseAgent's lifecycle, trimmed from the teacher's
// AgentState to the three phases a single-step run actually passes through.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateFinished
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateFinished:
		return "finished"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Stepper performs one unit of work against a BaseAgent's chat client.
// Implementations here (see jsonstep.go) do the whole generate-validate-
// repair sequence inside a single Step call.
type Stepper interface {
	Step(ctx context.Context, a *BaseAgent) (string, error)
}

// BaseAgent is the trimmed teacher BaseAgent: a name, a system prompt, a
// chat client, and the Stepper that drives it. No MaxSteps/ChatMemory —
// this service's agents are stateless single calls, not multi-turn
// conversations.
type BaseAgent struct {
	Name         string
	SystemPrompt string
	State        State
	ChatClient   model.ToolCallingChatModel
	Stepper      Stepper
}

// NewBaseAgent builds a BaseAgent around client, driven by stepper.
func NewBaseAgent(name, systemPrompt string, client model.ToolCallingChatModel, stepper Stepper) *BaseAgent {
	return &BaseAgent{
		Name:         name,
		SystemPrompt: systemPrompt,
		State:        StateIdle,
		ChatClient:   client,
		Stepper:      stepper,
	}
}

// Run executes the agent's single step and returns its output.
func (a *BaseAgent) Run(ctx context.Context) (string, error) {
	if a.State == StateRunning {
		return "", fmt.Errorf("agent %q is already running", a.Name)
	}
	a.State = StateRunning

	out, err := a.Stepper.Step(ctx, a)
	if err != nil {
		a.State = StateError
		return "", err
	}
	a.State = StateFinished
	return out, nil
}

// Generate is a convenience wrapper that sends a system+user message pair
// through a's ChatClient and returns the assistant's text.
func (a *BaseAgent) Generate(ctx context.Context, userPrompt string) (string, error) {
	messages := []*schema.Message{
		schema.SystemMessage(a.SystemPrompt),
		schema.UserMessage(userPrompt),
	}
	resp, err := a.ChatClient.Generate(ctx, messages)
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}
