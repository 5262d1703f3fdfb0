package builtin

import (
	"context"
	"fmt"
	"strings"

	"github.com/agentmap-go/agentmap/agent"
	"github.com/agentmap-go/agentmap/agentlog"
	"github.com/agentmap-go/agentmap/state"
)

// Message is one entry of an LLM conversation, stored under the
// agent's configured memory key across turns.
type Message struct {
	Role    string
	Content string
}

// chatCaller is the minimal surface LLMAgent needs from a language
// model provider (direct or routed), declared locally per this
// package's duck-typed-capability convention. Concrete providers
// (llmprovider.OpenAIProvider, llmprovider.RoutedProvider) satisfy it
// without this package importing them.
type chatCaller interface {
	CallChat(ctx context.Context, provider, model string, temperature float64, messages []Message, routingContext map[string]any) (string, error)
}

// LLMAgent drives a single-turn (or memory-carrying multi-turn)
// language-model call, supporting the spec §6 legacy/routing dual
// mode. Grounded on
// original_source/src/agentmap/agents/builtins/llm/llm_agent.py.
type LLMAgent struct {
	*agent.BaseAgent

	routingEnabled bool
	provider       string
	model          string
	temperature    float64
	maxTokens      int
	hasMaxTokens   bool
	memoryKey      string
	maxMemory      int

	llm chatCaller
}

func NewLLMAgent(name, prompt string, ctx map[string]any, logger agentlog.Logger, adapter state.Adapter) *LLMAgent {
	if ctx == nil {
		ctx = map[string]any{}
	}
	a := &LLMAgent{
		BaseAgent:   agent.NewBaseAgent(name, prompt, ctx, logger, adapter),
		provider:    "anthropic",
		model:       "claude-3-sonnet-20240229",
		temperature: 0.7,
		memoryKey:   "memory",
	}
	if v, ok := ctx["routing_enabled"].(bool); ok {
		a.routingEnabled = v
	}
	if v, ok := ctx["provider"].(string); ok && v != "" {
		a.provider = v
	}
	if v, ok := ctx["model"].(string); ok && v != "" {
		a.model = v
	}
	if v, ok := ctx["temperature"].(float64); ok {
		a.temperature = v
	}
	if v, ok := ctx["max_tokens"].(int); ok {
		a.maxTokens, a.hasMaxTokens = v, true
	}
	if v, ok := ctx["memory_key"].(string); ok && v != "" {
		a.memoryKey = v
	}
	if v, ok := ctx["max_memory_messages"].(int); ok {
		a.maxMemory = v
	}

	hasMemoryField := false
	for _, f := range a.InputFieldsV {
		if f.Target == a.memoryKey {
			hasMemoryField = true
			break
		}
	}
	if !hasMemoryField {
		a.InputFieldsV = append(a.InputFieldsV, state.InputField{Raw: a.memoryKey, Target: a.memoryKey, Source: a.memoryKey})
	}
	return a
}

// ConfigureLLMService implements registry.LLMCapableAgent.
func (a *LLMAgent) ConfigureLLMService(svc any) error {
	caller, ok := svc.(chatCaller)
	if !ok {
		return fmt.Errorf("llm agent %q: configured LLM service does not satisfy CallChat(...)", a.AgentName())
	}
	a.llm = caller
	a.LogDebug("LLM service configured")
	return nil
}

func (a *LLMAgent) Process(ctx context.Context, inputs map[string]any) (agent.Outcome, error) {
	if a.llm == nil {
		return agent.Completed(agent.StateUpdates{
			"error":                    fmt.Sprintf("llm service not configured for agent %q", a.AgentName()),
			state.KeyLastActionSuccess: false,
		}), nil
	}

	memory := readMemory(inputs, a.memoryKey)
	if len(memory) == 0 && a.Prompt() != "" {
		memory = append(memory, Message{Role: "system", Content: a.Prompt()})
	}

	var parts []string
	for _, f := range a.InputFields() {
		if f.Target == a.memoryKey {
			continue
		}
		if v, ok := inputs[f.Target]; ok && v != nil {
			parts = append(parts, fmt.Sprintf("%s: %v", f.Target, v))
		}
	}
	userInput := strings.Join(parts, "\n")
	if userInput == "" {
		a.LogWarn("no input found in inputs")
	}
	if userInput != "" {
		memory = append(memory, Message{Role: "user", Content: userInput})
	}

	var routingContext map[string]any
	if a.routingEnabled {
		routingContext = map[string]any{
			"task_type": a.Context()["task_type"],
		}
	}
	if a.hasMaxTokens {
		if routingContext == nil {
			routingContext = map[string]any{}
		}
		routingContext["max_tokens"] = a.maxTokens
	}

	modelName := a.model
	if a.routingEnabled {
		modelName = ""
	}
	result, err := a.llm.CallChat(ctx, a.effectiveProvider(), modelName, a.temperature, memory, routingContext)
	if err != nil {
		a.LogError("error in %s processing: %s", a.effectiveProvider(), err)
		return agent.Completed(agent.StateUpdates{
			"error":                    err.Error(),
			state.KeyLastActionSuccess: false,
		}), nil
	}

	memory = append(memory, Message{Role: "assistant", Content: result})
	memory = truncateMemory(memory, a.maxMemory)

	a.LogInfo("LLM processing completed successfully")
	return agent.Completed(agent.StateUpdates{
		"output":  result,
		a.memoryKey: memory,
	}), nil
}

// PostProcess writes memory back into state and unwraps the output
// field, mirroring the original's state_adapter_service.set_value call
// for the memory key.
func (a *LLMAgent) PostProcess(s state.State, _ map[string]any, outcome agent.Outcome) (state.State, agent.Outcome) {
	su, ok := outcome.Value().(agent.StateUpdates)
	if !ok {
		return s, outcome
	}
	memory, hasMemory := su[a.memoryKey]
	if hasMemory {
		delete(su, a.memoryKey)
		s = s.Clone()
		s[a.memoryKey] = memory
	}

	fields := a.OutputFields()
	if len(fields) == 1 {
		if out, ok := su["output"]; ok {
			delete(su, "output")
			su[fields[0]] = out
		}
	}
	return s, agent.Completed(su)
}

func (a *LLMAgent) effectiveProvider() string {
	if a.routingEnabled {
		return "auto"
	}
	return a.provider
}

// truncateMemory drops entries from the front once memory exceeds
// maxMemory, but keeps a leading system message pinned in place
// rather than letting it age out like any other turn.
func truncateMemory(memory []Message, maxMemory int) []Message {
	if maxMemory <= 0 || len(memory) <= maxMemory {
		return memory
	}
	if memory[0].Role == "system" {
		if maxMemory <= 1 {
			return memory[:1]
		}
		kept := make([]Message, 0, maxMemory)
		kept = append(kept, memory[0])
		kept = append(kept, memory[len(memory)-(maxMemory-1):]...)
		return kept
	}
	return memory[len(memory)-maxMemory:]
}

func readMemory(inputs map[string]any, key string) []Message {
	raw, ok := inputs[key]
	if !ok {
		return nil
	}
	msgs, ok := raw.([]Message)
	if !ok {
		return nil
	}
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out
}
