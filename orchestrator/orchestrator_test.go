package orchestrator_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentmap-go/agentmap/orchestrator"
)

func candidates() map[string]orchestrator.Candidate {
	return map[string]orchestrator.Candidate{
		"weather": {Description: "Get current weather for a location"},
		"search":  {Description: "Search the web for information"},
	}
}

func TestSelectBestNodeSingleCandidateShortCircuits(t *testing.T) {
	svc := orchestrator.New()
	name, err := svc.SelectBestNode(context.Background(), "anything", map[string]orchestrator.Candidate{"only": {}}, "algorithm", 0.8)
	require.NoError(t, err)
	assert.Equal(t, "only", name)
}

func TestSelectBestNodeAlgorithmicPicksHighestOverlap(t *testing.T) {
	svc := orchestrator.New()
	name, err := svc.SelectBestNode(context.Background(), "what is the current weather", candidates(), "algorithm", 0.8)
	require.NoError(t, err)
	assert.Equal(t, "weather", name)
}

func TestSelectBestNodeNoCandidatesErrors(t *testing.T) {
	svc := orchestrator.New()
	_, err := svc.SelectBestNode(context.Background(), "x", map[string]orchestrator.Candidate{}, "algorithm", 0.8)
	assert.Error(t, err)
}

func TestSelectBestNodeUnknownStrategyErrors(t *testing.T) {
	svc := orchestrator.New()
	_, err := svc.SelectBestNode(context.Background(), "x", candidates(), "bogus", 0.8)
	assert.Error(t, err)
}

type fakeChooser struct{ pick string }

func (f *fakeChooser) Choose(_ context.Context, _ string, _ map[string]orchestrator.Candidate) (string, error) {
	return f.pick, nil
}

func TestSelectBestNodeTieredFallsThroughToLLMBelowThreshold(t *testing.T) {
	svc := orchestrator.New().WithLLM(&fakeChooser{pick: "search"})
	name, err := svc.SelectBestNode(context.Background(), "zzz nonsense query", candidates(), "tiered", 0.9)
	require.NoError(t, err)
	assert.Equal(t, "search", name)
}

func TestSelectBestNodeTieredStaysAlgorithmicAboveThreshold(t *testing.T) {
	svc := orchestrator.New().WithLLM(&fakeChooser{pick: "search"})
	name, err := svc.SelectBestNode(context.Background(), "weather location", candidates(), "tiered", 0.01)
	require.NoError(t, err)
	assert.Equal(t, "weather", name)
}

func TestSelectBestNodeLLMStrategyDelegatesDirectly(t *testing.T) {
	svc := orchestrator.New().WithLLM(&fakeChooser{pick: "weather"})
	name, err := svc.SelectBestNode(context.Background(), "anything", candidates(), "llm", 0.8)
	require.NoError(t, err)
	assert.Equal(t, "weather", name)
}
