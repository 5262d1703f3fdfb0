package builtin_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentmap-go/agentmap/agent"
	"github.com/agentmap-go/agentmap/agent/builtin"
	"github.com/agentmap-go/agentmap/agentlog"
	"github.com/agentmap-go/agentmap/state"
)

func orchestratorNodes() map[string]any {
	return map[string]any{
		"weather": map[string]any{"description": "Get current weather for a location"},
		"search":  map[string]any{"description": "Search the web for information"},
	}
}

func TestOrchestratorAgentAlgorithmicSelection(t *testing.T) {
	ctx := map[string]any{"matching_strategy": "algorithm", "nodes": orchestratorNodes()}
	a := builtin.NewOrchestratorAgent("o1", "", ctx, agentlog.NoOpLogger{}, nil)

	out, err := a.Process(context.Background(), map[string]any{"query": "what is the weather today"})
	require.NoError(t, err)
	assert.Equal(t, "weather", out.Value())
}

func TestOrchestratorAgentNoNodesFails(t *testing.T) {
	a := builtin.NewOrchestratorAgent("o1", "", nil, agentlog.NoOpLogger{}, nil)
	out, err := a.Process(context.Background(), map[string]any{"query": "anything"})
	require.NoError(t, err)
	su := out.Value().(agent.StateUpdates)
	assert.Equal(t, false, su[state.KeyLastActionSuccess])
}

func TestOrchestratorAgentSimpleNodesShorthand(t *testing.T) {
	ctx := map[string]any{
		"matching_strategy": "algorithm",
		"nodes": map[string]any{
			"weather": "Get current weather for a location",
			"search":  "Search the web for information",
		},
	}
	a := builtin.NewOrchestratorAgent("o1", "", ctx, agentlog.NoOpLogger{}, nil)
	out, err := a.Process(context.Background(), map[string]any{"query": "search the web please"})
	require.NoError(t, err)
	assert.Equal(t, "search", out.Value())
}

type fakeOrchestratorLLM struct{ response string }

func (f *fakeOrchestratorLLM) CallChat(_ context.Context, _ string, _ string, _ float64, _ []builtin.Message, _ map[string]any) (string, error) {
	return f.response, nil
}

func TestOrchestratorAgentLLMStrategyUsesConfiguredService(t *testing.T) {
	ctx := map[string]any{"matching_strategy": "llm", "nodes": orchestratorNodes()}
	a := builtin.NewOrchestratorAgent("o1", "", ctx, agentlog.NoOpLogger{}, nil)
	require.NoError(t, a.ConfigureLLMService(&fakeOrchestratorLLM{response: "search"}))

	out, err := a.Process(context.Background(), map[string]any{"query": "irrelevant to scoring"})
	require.NoError(t, err)
	assert.Equal(t, "search", out.Value())
}

func TestOrchestratorAgentAddNodeRegistersCandidate(t *testing.T) {
	a := builtin.NewOrchestratorAgent("o1", "", map[string]any{"matching_strategy": "algorithm"}, agentlog.NoOpLogger{}, nil)
	a.AddNode("weather", builtin.NodeDescriptor{Description: "Get current weather for a location"})

	out, err := a.Process(context.Background(), map[string]any{"query": "weather"})
	require.NoError(t, err)
	assert.Equal(t, "weather", out.Value())
}
