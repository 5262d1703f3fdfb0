// Package builtin implements AgentMap's built-in agent catalog (spec
// §6): Default/Echo/Failure/Input/Summary for generic data shuffling,
// Suspend for human-in-the-loop pauses, and Graph for sub-graph
// composition. Every concrete type embeds *agent.BaseAgent and is
// constructed by an assembler.AgentFactory supplied at the composition
// root (cmd/agentmap).
package builtin

import (
	"context"
	"fmt"
	"strings"

	"github.com/agentmap-go/agentmap/agent"
	"github.com/agentmap-go/agentmap/agentlog"
	"github.com/agentmap-go/agentmap/state"
)

// DefaultAgent logs and echoes a message describing its own
// invocation; used as the fallback agent type and in scaffolding.
// Grounded on original_source's default_agent.py.
type DefaultAgent struct {
	*agent.BaseAgent
}

func NewDefaultAgent(name, prompt string, ctx map[string]any, logger agentlog.Logger, adapter state.Adapter) *DefaultAgent {
	return &DefaultAgent{BaseAgent: agent.NewBaseAgent(name, prompt, ctx, logger, adapter)}
}

func (a *DefaultAgent) Process(_ context.Context, inputs map[string]any) (agent.Outcome, error) {
	msg := fmt.Sprintf("[%s] DefaultAgent executed", a.AgentName())
	if a.Prompt() != "" {
		msg = fmt.Sprintf("%s with prompt: %q", msg, a.Prompt())
	}
	a.LogInfo("output: %s", msg)
	return agent.Completed(msg), nil
}

// EchoAgent returns its inputs unchanged. Grounded on
// original_source's echo_agent.py.
type EchoAgent struct {
	*agent.BaseAgent
}

func NewEchoAgent(name, prompt string, ctx map[string]any, logger agentlog.Logger, adapter state.Adapter) *EchoAgent {
	return &EchoAgent{BaseAgent: agent.NewBaseAgent(name, prompt, ctx, logger, adapter)}
}

func (a *EchoAgent) Process(_ context.Context, inputs map[string]any) (agent.Outcome, error) {
	a.LogInfo("received inputs: %v and prompt: %q", inputs, a.Prompt())
	if len(inputs) > 0 {
		return agent.Completed(agent.StateUpdates(inputs)), nil
	}
	return agent.Completed("No input provided to echo"), nil
}

// FailureAgent always routes down the failure branch regardless of
// its own output, by overriding PostProcess to force
// last_action_success=false. Grounded on original_source's
// failure_agent.py.
type FailureAgent struct {
	*agent.BaseAgent
}

func NewFailureAgent(name, prompt string, ctx map[string]any, logger agentlog.Logger, adapter state.Adapter) *FailureAgent {
	return &FailureAgent{BaseAgent: agent.NewBaseAgent(name, prompt, ctx, logger, adapter)}
}

func (a *FailureAgent) Process(_ context.Context, inputs map[string]any) (agent.Outcome, error) {
	msg := fmt.Sprintf("%s executed (will set last_action_success=false)", a.AgentName())
	if len(inputs) > 0 {
		keys := make([]string, 0, len(inputs))
		for k := range inputs {
			keys = append(keys, k)
		}
		msg += fmt.Sprintf(" with inputs: %s", strings.Join(keys, ", "))
	}
	if a.Prompt() != "" {
		msg += fmt.Sprintf(" with prompt: %q", a.Prompt())
	}
	return agent.Completed(msg), nil
}

// PostProcess forces the failure branch even though Process succeeded
// without error — FailureAgent is a deliberate test/demo node for
// exercising failure routing.
func (a *FailureAgent) PostProcess(s state.State, _ map[string]any, outcome agent.Outcome) (state.State, agent.Outcome) {
	msg, _ := outcome.Value().(string)
	if msg != "" {
		msg += " (Will force FAILURE branch)"
	}
	fields := a.OutputFields()
	updates := agent.StateUpdates{state.KeyLastActionSuccess: false}
	if len(fields) == 1 {
		updates[fields[0]] = msg
	}
	return s, agent.Completed(updates)
}

// InputAgent reads a line of interactive input via a host-supplied
// reader function, defaulting to rejecting the run when none is wired
// (headless execution has no terminal to prompt). Grounded on
// original_source's input_agent.py, redesigned per spec §9: the
// source blocks on stdin directly, which has no sane analog in a
// server/worker process, so the reader is injected instead.
type InputAgent struct {
	*agent.BaseAgent
	Reader func(prompt string) (string, error)
}

func NewInputAgent(name, prompt string, ctx map[string]any, logger agentlog.Logger, adapter state.Adapter, reader func(string) (string, error)) *InputAgent {
	return &InputAgent{BaseAgent: agent.NewBaseAgent(name, prompt, ctx, logger, adapter), Reader: reader}
}

func (a *InputAgent) Process(_ context.Context, _ map[string]any) (agent.Outcome, error) {
	a.LogInfo("prompting for user input")
	if a.Reader == nil {
		return agent.Outcome{}, fmt.Errorf("input agent %q has no reader configured", a.AgentName())
	}
	prompt := a.Prompt()
	if prompt == "" {
		prompt = "Please provide input: "
	}
	answer, err := a.Reader(prompt)
	if err != nil {
		return agent.Outcome{}, err
	}
	return agent.Completed(answer), nil
}
