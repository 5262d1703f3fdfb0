package builtin

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/agentmap-go/agentmap/agent"
	"github.com/agentmap-go/agentmap/agentlog"
	"github.com/agentmap-go/agentmap/state"
)

// llmCaller is the minimal surface SummaryAgent needs from an LLM
// provider, declared locally (rather than imported from llmprovider)
// so this package has no dependency on a concrete provider
// implementation — any type satisfying this signature, registered
// under the "llm" capability, can serve it.
type llmCaller interface {
	Call(ctx context.Context, systemPrompt, userContent string) (string, error)
}

// SummaryAgent concatenates its input fields using a format template,
// or — when context declares an "llm" provider name — delegates to an
// injected LLM for an abstractive summary. Grounded on
// original_source's summary_agent.py.
type SummaryAgent struct {
	*agent.BaseAgent

	format      string
	separator   string
	includeKeys bool
	llmKind     string

	llm llmCaller
}

func NewSummaryAgent(name, prompt string, ctx map[string]any, logger agentlog.Logger, adapter state.Adapter) *SummaryAgent {
	base := agent.NewBaseAgent(name, prompt, ctx, logger, adapter)
	a := &SummaryAgent{
		BaseAgent:   base,
		format:      "{key}: {value}",
		separator:   "\n\n",
		includeKeys: true,
	}
	if v, ok := ctx["format"].(string); ok && v != "" {
		a.format = v
	}
	if v, ok := ctx["separator"].(string); ok {
		a.separator = v
	}
	if v, ok := ctx["include_keys"].(bool); ok {
		a.includeKeys = v
	}
	if v, ok := ctx["llm"].(string); ok {
		a.llmKind = v
	}
	return a
}

// ConfigureLLMService implements registry.LLMCapableAgent.
func (a *SummaryAgent) ConfigureLLMService(svc any) error {
	caller, ok := svc.(llmCaller)
	if !ok {
		return fmt.Errorf("summary agent %q: configured LLM service does not satisfy Call(ctx, system, content)", a.AgentName())
	}
	a.llm = caller
	a.LogDebug("LLM service configured (mode=%s)", a.llmKind)
	return nil
}

func (a *SummaryAgent) Process(ctx context.Context, inputs map[string]any) (agent.Outcome, error) {
	if len(inputs) == 0 {
		a.LogWarn("received empty inputs")
		return agent.Completed(""), nil
	}

	concatenated := a.basicConcatenation(inputs)
	if a.llmKind == "" {
		return agent.Completed(concatenated), nil
	}
	if a.llm == nil {
		a.LogWarn("LLM mode %q requested but no LLM service configured; falling back to concatenation", a.llmKind)
		return agent.Completed(concatenated), nil
	}

	systemPrompt := a.Prompt()
	if systemPrompt == "" {
		systemPrompt = "Please summarize the following information:\n\n{content}"
	}
	result, err := a.llm.Call(ctx, systemPrompt, concatenated)
	if err != nil {
		a.LogError("LLM summarization failed: %s", err)
		return agent.Completed(fmt.Sprintf("ERROR in summarization: %s\n\nOriginal content:\n%s", err, concatenated)), nil
	}
	return agent.Completed(result), nil
}

func (a *SummaryAgent) basicConcatenation(inputs map[string]any) string {
	keys := make([]string, 0, len(inputs))
	for k := range inputs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	items := make([]string, 0, len(keys))
	for _, k := range keys {
		v := inputs[k]
		if v == nil {
			continue
		}
		if a.includeKeys {
			items = append(items, strings.NewReplacer("{key}", k, "{value}", fmt.Sprintf("%v", v)).Replace(a.format))
		} else {
			items = append(items, fmt.Sprintf("%v", v))
		}
	}
	return strings.Join(items, a.separator)
}
