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

// Tool is one callable the ToolAgent can dispatch to. Name and
// Description seed tool_descriptions/node-format entries; Call does
// the actual work. Grounded on original_source's tool_agent.py, whose
// tools are LangChain @tool-decorated callables with a name/
// description/invoke surface — redesigned per spec §9 as a plain Go
// function value since this corpus has no LangChain-tool equivalent.
type Tool struct {
	Name        string
	Description string
	Call        func(inputs map[string]any) (string, error)
}

// toolSelector is the minimal surface ToolAgent needs from an
// orchestrator-style selection service, declared locally per this
// package's duck-typed-capability convention so ToolAgent never
// imports the concrete orchestrator package. orchestrator.Service
// satisfies this directly.
type toolSelector interface {
	SelectBestNode(ctx context.Context, inputText string, candidates map[string]orchestrator.Candidate, strategy string, confidenceThreshold float64) (string, error)
}

// ToolAgent holds a fixed set of tools; a single tool is invoked
// directly, multiple tools are disambiguated by delegating to a
// configured selection service (treating each tool as a candidate
// node), mirroring original_source's tool_agent.py. The registry
// capability id this agent advertises is named ConfigureToolSelectionService
// rather than the original's configure_orchestrator_service, since this
// package already has a distinct GraphBundle/GraphRunner-style naming
// convention for configure methods named after what they configure,
// not what they're valued with.
type ToolAgent struct {
	*agent.BaseAgent

	matchingStrategy    string
	confidenceThreshold float64
	llmType             string
	temperature         float64

	tools       []Tool
	toolsByName map[string]*Tool

	selector toolSelector
}

func NewToolAgent(name, prompt string, ctx map[string]any, logger agentlog.Logger, adapter state.Adapter, tools []Tool) *ToolAgent {
	if ctx == nil {
		ctx = map[string]any{}
	}
	a := &ToolAgent{
		BaseAgent:           agent.NewBaseAgent(name, prompt, ctx, logger, adapter),
		matchingStrategy:    "tiered",
		confidenceThreshold: 0.8,
		llmType:             "openai",
		temperature:         0.2,
		tools:               tools,
		toolsByName:         map[string]*Tool{},
	}
	if v, ok := ctx["matching_strategy"].(string); ok && v != "" {
		a.matchingStrategy = v
	}
	if v, ok := ctx["confidence_threshold"].(float64); ok {
		a.confidenceThreshold = v
	}
	if v, ok := ctx["llm_type"].(string); ok && v != "" {
		a.llmType = v
	}
	if v, ok := ctx["temperature"].(float64); ok {
		a.temperature = v
	}

	overrides := parseAvailableTools(ctx["available_tools"])
	for i := range a.tools {
		t := &a.tools[i]
		if desc, ok := overrides[t.Name]; ok {
			t.Description = desc
		}
		a.toolsByName[t.Name] = t
	}
	return a
}

// ConfigureToolSelectionService implements registry.ToolCapableAgent.
func (a *ToolAgent) ConfigureToolSelectionService(svc any) error {
	sel, ok := svc.(toolSelector)
	if !ok {
		return fmt.Errorf("tool agent %q: configured selection service does not satisfy SelectBestNode(...)", a.AgentName())
	}
	a.selector = sel
	a.LogDebug("tool selection service configured")
	return nil
}

func (a *ToolAgent) Process(ctx context.Context, inputs map[string]any) (agent.Outcome, error) {
	if len(a.tools) == 0 {
		return agent.Completed(agent.StateUpdates{
			"error":                    fmt.Sprintf("tool agent %q has no tools configured", a.AgentName()),
			state.KeyLastActionSuccess: false,
		}), nil
	}

	if len(a.tools) == 1 {
		result, err := a.executeTool(&a.tools[0], inputs)
		if err != nil {
			return a.toolFailure(err), nil
		}
		return agent.Completed(result), nil
	}

	if a.selector == nil {
		return agent.Completed(agent.StateUpdates{
			"error":                    fmt.Sprintf("tool agent %q: tool selection service not configured for multiple tools", a.AgentName()),
			state.KeyLastActionSuccess: false,
		}), nil
	}

	candidates := make(map[string]orchestrator.Candidate, len(a.tools))
	for _, t := range a.tools {
		candidates[t.Name] = orchestrator.Candidate{Description: t.Description}
	}

	chosen, err := a.selector.SelectBestNode(ctx, a.inputText(inputs), candidates, a.matchingStrategy, a.confidenceThreshold)
	if err != nil {
		return a.toolFailure(err), nil
	}
	tool, ok := a.toolsByName[chosen]
	if !ok {
		return a.toolFailure(fmt.Errorf("selected tool %q is not registered", chosen)), nil
	}

	result, err := a.executeTool(tool, inputs)
	if err != nil {
		return a.toolFailure(err), nil
	}
	return agent.Completed(result), nil
}

func (a *ToolAgent) executeTool(t *Tool, inputs map[string]any) (string, error) {
	a.LogInfo("executing tool %q", t.Name)
	return t.Call(inputs)
}

func (a *ToolAgent) toolFailure(err error) agent.Outcome {
	a.LogError("tool execution failed: %s", err)
	return agent.Completed(agent.StateUpdates{
		"error":                    err.Error(),
		state.KeyLastActionSuccess: false,
	})
}

// inputText extracts the text to match against, preferring the
// agent's declared input fields and falling back to a few common
// field names (original_source's _get_input_text fallback list).
func (a *ToolAgent) inputText(inputs map[string]any) string {
	fields := a.InputFields()
	if len(fields) > 0 {
		var parts []string
		for _, f := range fields {
			if v, ok := inputs[f.Target]; ok && v != nil {
				parts = append(parts, fmt.Sprintf("%v", v))
			}
		}
		if len(parts) > 0 {
			return strings.Join(parts, " ")
		}
	}
	for _, common := range []string{"query", "input", "request", "message", "text"} {
		if v, ok := inputs[common]; ok && v != nil {
			return fmt.Sprintf("%v", v)
		}
	}
	keys := make([]string, 0, len(inputs))
	for k := range inputs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var parts []string
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%v", inputs[k]))
	}
	return strings.Join(parts, " ")
}

// parseAvailableTools parses the CSV `available_tools` context entry,
// e.g. `search("Custom description")|other_tool("desc")`, into a
// name->description override map. Grounded on
// test_tool_agent_csv_override's documented pipe/paren format.
func parseAvailableTools(raw any) map[string]string {
	s, _ := raw.(string)
	overrides := map[string]string{}
	if s == "" || !strings.Contains(s, "|") || !strings.Contains(s, "(") {
		return overrides
	}
	for _, entry := range strings.Split(s, "|") {
		entry = strings.TrimSpace(entry)
		open := strings.Index(entry, "(")
		closeIdx := strings.LastIndex(entry, ")")
		if open < 0 || closeIdx <= open {
			continue
		}
		name := strings.TrimSpace(entry[:open])
		desc := strings.Trim(strings.TrimSpace(entry[open+1:closeIdx]), `"`)
		if name != "" {
			overrides[name] = desc
		}
	}
	return overrides
}
