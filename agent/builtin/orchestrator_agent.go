package builtin

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/agentmap-go/agentmap/agent"
	"github.com/agentmap-go/agentmap/agentlog"
	"github.com/agentmap-go/agentmap/orchestrator"
	"github.com/agentmap-go/agentmap/state"
)

// NodeDescriptor is one candidate node eligible for orchestrator
// selection, parsed from the agent's `nodes` context entry.
type NodeDescriptor struct {
	Description string
	Prompt      string
}

// OrchestratorAgent selects the best-matching downstream node for a
// piece of input text among a fixed candidate set (spec §4.8), writing
// the chosen node's name to its output field so a CSV-authored
// func:-edge can route there. Unlike ToolAgent (which delegates
// selection to an externally configured orchestrator service),
// OrchestratorAgent performs selection itself via an embedded
// orchestrator.Service and implements registry.LLMCapableAgent
// directly for its own llm/tiered scoring, grounded on
// original_source's tests/fresh_suite/test_agent_migration.py
// (test_orchestrator_agent_protocol_compliance asserts
// isinstance(agent, LLMCapableAgent) and exercises
// configure_llm_service, not a separate orchestrator-service
// protocol).
type OrchestratorAgent struct {
	*agent.BaseAgent

	nodes               map[string]orchestrator.Candidate
	strategy            string
	confidenceThreshold float64
	provider            string
	model               string
	temperature         float64

	svc    *orchestrator.Service
	caller chatCaller
}

func NewOrchestratorAgent(name, prompt string, ctx map[string]any, logger agentlog.Logger, adapter state.Adapter) *OrchestratorAgent {
	if ctx == nil {
		ctx = map[string]any{}
	}
	a := &OrchestratorAgent{
		BaseAgent:           agent.NewBaseAgent(name, prompt, ctx, logger, adapter),
		nodes:               map[string]orchestrator.Candidate{},
		strategy:            "tiered",
		confidenceThreshold: 0.8,
		provider:            "openai",
		temperature:         0.2,
		svc:                 orchestrator.New(),
	}
	if v, ok := ctx["matching_strategy"].(string); ok && v != "" {
		a.strategy = v
	}
	if v, ok := ctx["confidence_threshold"].(float64); ok {
		a.confidenceThreshold = v
	}
	if v, ok := ctx["llm_type"].(string); ok && v != "" {
		a.provider = v
	}
	if v, ok := ctx["model"].(string); ok && v != "" {
		a.model = v
	}
	if v, ok := ctx["temperature"].(float64); ok {
		a.temperature = v
	}
	if raw, ok := ctx["nodes"].(map[string]any); ok {
		for name, v := range raw {
			switch val := v.(type) {
			case string:
				a.nodes[name] = orchestrator.Candidate{Description: val}
			case map[string]any:
				c := orchestrator.Candidate{}
				if d, ok := val["description"].(string); ok {
					c.Description = d
				}
				if p, ok := val["prompt"].(string); ok {
					c.Prompt = p
				}
				a.nodes[name] = c
			}
		}
	}
	return a
}

// ConfigureLLMService implements registry.LLMCapableAgent; the
// configured caller backs this agent's own llm/tiered scoring path,
// wrapped in a small adapter satisfying orchestrator.Service.WithLLM's
// llmChooser shape.
func (a *OrchestratorAgent) ConfigureLLMService(svc any) error {
	caller, ok := svc.(chatCaller)
	if !ok {
		return fmt.Errorf("orchestrator agent %q: configured LLM service does not satisfy CallChat(...)", a.AgentName())
	}
	a.caller = caller
	a.svc = orchestrator.New().WithLLM(&llmNodeChooser{
		caller:      caller,
		provider:    a.provider,
		model:       a.model,
		temperature: a.temperature,
	})
	a.LogDebug("LLM service configured for orchestrator scoring")
	return nil
}

// AddNode registers a candidate node programmatically, used by the
// composition root when candidates come from the live graph's node
// registry rather than an inline `nodes` context literal.
func (a *OrchestratorAgent) AddNode(name string, candidate NodeDescriptor) {
	a.nodes[name] = orchestrator.Candidate{Description: candidate.Description, Prompt: candidate.Prompt}
}

func (a *OrchestratorAgent) Process(ctx context.Context, inputs map[string]any) (agent.Outcome, error) {
	if len(a.nodes) == 0 {
		return agent.Completed(agent.StateUpdates{
			"error":                    fmt.Sprintf("orchestrator agent %q has no candidate nodes configured", a.AgentName()),
			state.KeyLastActionSuccess: false,
		}), nil
	}

	inputText := a.inputText(inputs)
	chosen, err := a.svc.SelectBestNode(ctx, inputText, a.nodes, a.strategy, a.confidenceThreshold)
	if err != nil {
		a.LogError("node selection failed: %s", err)
		return agent.Completed(agent.StateUpdates{
			"error":                    err.Error(),
			state.KeyLastActionSuccess: false,
		}), nil
	}

	a.LogInfo("selected node %q for input %q", chosen, inputText)
	return agent.Completed(chosen), nil
}

func (a *OrchestratorAgent) inputText(inputs map[string]any) string {
	var parts []string
	keys := make([]string, 0, len(inputs))
	for k := range inputs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if v := inputs[k]; v != nil {
			parts = append(parts, fmt.Sprintf("%v", v))
		}
	}
	return strings.Join(parts, " ")
}

// llmNodeChooser adapts a chatCaller into orchestrator.Service's
// llmChooser shape: it prompts the model to pick a node name from the
// candidate list and matches the reply back to a candidate key. New
// code (no pack file implements LLM-backed node selection); grounded
// on spec §4.8's llm/tiered strategy description.
type llmNodeChooser struct {
	caller      chatCaller
	provider    string
	model       string
	temperature float64
}

func (c *llmNodeChooser) Choose(ctx context.Context, inputText string, candidates map[string]orchestrator.Candidate) (string, error) {
	names := make([]string, 0, len(candidates))
	for name := range candidates {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("Choose the single best matching node name for the input below. Respond with only the node name.\n\n")
	b.WriteString("Input: ")
	b.WriteString(inputText)
	b.WriteString("\n\nCandidates:\n")
	for _, name := range names {
		fmt.Fprintf(&b, "- %s: %s\n", name, candidates[name].Description)
	}

	reply, err := c.caller.CallChat(ctx, c.provider, c.model, c.temperature, []Message{{Role: "user", Content: b.String()}}, nil)
	if err != nil {
		return "", err
	}
	reply = strings.TrimSpace(reply)
	for _, name := range names {
		if strings.EqualFold(reply, name) || strings.Contains(reply, name) {
			return name, nil
		}
	}
	return names[0], nil
}
