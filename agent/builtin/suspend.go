package builtin

import (
	"context"
	"fmt"

	"github.com/agentmap-go/agentmap/agent"
	"github.com/agentmap-go/agentmap/agentlog"
	"github.com/agentmap-go/agentmap/state"
)

// messagingNotifier is the minimal surface SuspendAgent needs from a
// messaging provider, declared locally per this package's
// duck-typed-capability convention.
type messagingNotifier interface {
	Notify(ctx context.Context, event string, payload map[string]any) error
}

// SuspendAgent pauses graph execution by returning a Suspended outcome
// on first invocation (spec §4.5); the graph runner persists a
// checkpoint and returns control to the caller. Resuming re-invokes
// Process with the resume value attached to ctx (agent.WithResumeValue),
// at which point Process returns Completed with a map holding
// "resume_value" and "node_name", and the node finishes normally. Grounded on original_source's suspend_agent.py,
// redesigned per spec §9 from LangGraph's interrupt()/GraphInterrupt
// exception pattern to the Outcome sum type + context-carried resume
// value (teacher: graph/errors.go's NodeInterrupt, graph/context.go's
// WithResumeValue).
type SuspendAgent struct {
	*agent.BaseAgent

	messaging messagingNotifier
}

func NewSuspendAgent(name, prompt string, ctx map[string]any, logger agentlog.Logger, adapter state.Adapter) *SuspendAgent {
	if prompt == "" {
		prompt = "suspend"
	}
	return &SuspendAgent{BaseAgent: agent.NewBaseAgent(name, prompt, ctx, logger, adapter)}
}

// ConfigureMessagingService implements registry.MessagingCapableAgent.
func (a *SuspendAgent) ConfigureMessagingService(svc any) error {
	notifier, ok := svc.(messagingNotifier)
	if !ok {
		return fmt.Errorf("suspend agent %q: configured messaging service does not satisfy Notify(ctx, event, payload)", a.AgentName())
	}
	a.messaging = notifier
	a.LogDebug("messaging service configured")
	return nil
}

func (a *SuspendAgent) Process(ctx context.Context, inputs map[string]any) (agent.Outcome, error) {
	threadID := a.threadID()

	if v := agent.ResumeValue(ctx); v != nil {
		a.LogInfo("resumed with value: %v", v)
		return agent.Completed(map[string]any{
			"resume_value": v,
			"node_name":    a.AgentName(),
		}), nil
	}

	a.LogInfo("suspending execution")
	if a.messaging != nil {
		if err := a.messaging.Notify(ctx, "suspend", map[string]any{
			"node_name": a.AgentName(),
			"thread_id": threadID,
		}); err != nil {
			a.LogWarn("suspend notification failed: %s", err)
		}
	}

	return agent.Interrupt(ctx, agent.SuspendRequest{
		NodeName: a.AgentName(),
		ThreadID: threadID,
		Inputs:   inputs,
		Context:  a.Context(),
	}), nil
}

func (a *SuspendAgent) threadID() string {
	if t := a.CurrentExecutionTracker(); t != nil {
		return t.ThreadID()
	}
	return ""
}
