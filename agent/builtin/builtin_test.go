package builtin_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentmap-go/agentmap/agent"
	"github.com/agentmap-go/agentmap/agent/builtin"
	"github.com/agentmap-go/agentmap/agentlog"
	"github.com/agentmap-go/agentmap/graphbundle"
	"github.com/agentmap-go/agentmap/state"
	"github.com/agentmap-go/agentmap/tracker"
)

func TestDefaultAgentIncludesPromptInMessage(t *testing.T) {
	a := builtin.NewDefaultAgent("n1", "be nice", nil, agentlog.NoOpLogger{}, nil)
	out, err := a.Process(context.Background(), nil)
	require.NoError(t, err)
	msg := out.Value().(string)
	assert.Contains(t, msg, "n1")
	assert.Contains(t, msg, "be nice")
}

func TestEchoAgentReturnsInputsAsStateUpdates(t *testing.T) {
	a := builtin.NewEchoAgent("echo", "", nil, agentlog.NoOpLogger{}, nil)
	out, err := a.Process(context.Background(), map[string]any{"x": 1})
	require.NoError(t, err)
	su, ok := out.Value().(agent.StateUpdates)
	require.True(t, ok)
	assert.Equal(t, 1, su["x"])
}

func TestEchoAgentNoInputs(t *testing.T) {
	a := builtin.NewEchoAgent("echo", "", nil, agentlog.NoOpLogger{}, nil)
	out, err := a.Process(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "No input provided to echo", out.Value())
}

func TestFailureAgentForcesFailureBranch(t *testing.T) {
	ctx := map[string]any{"output_field": "result"}
	a := builtin.NewFailureAgent("f1", "", ctx, agentlog.NoOpLogger{}, nil)
	out, err := a.Process(context.Background(), nil)
	require.NoError(t, err)

	_, out2 := a.PostProcess(state.State{}, nil, out)
	su := out2.Value().(agent.StateUpdates)
	assert.Equal(t, false, su[state.KeyLastActionSuccess])
	assert.Contains(t, su["result"], "Will force FAILURE branch")
}

func TestInputAgentUsesInjectedReader(t *testing.T) {
	a := builtin.NewInputAgent("i1", "Name?", nil, agentlog.NoOpLogger{}, nil, func(p string) (string, error) {
		assert.Equal(t, "Name?", p)
		return "Ada", nil
	})
	out, err := a.Process(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "Ada", out.Value())
}

func TestInputAgentErrorsWithoutReader(t *testing.T) {
	a := builtin.NewInputAgent("i1", "", nil, agentlog.NoOpLogger{}, nil, nil)
	_, err := a.Process(context.Background(), nil)
	assert.Error(t, err)
}

func TestSummaryAgentBasicConcatenation(t *testing.T) {
	a := builtin.NewSummaryAgent("s1", "", nil, agentlog.NoOpLogger{}, nil)
	out, err := a.Process(context.Background(), map[string]any{"a": 1, "b": 2})
	require.NoError(t, err)
	assert.Equal(t, "a: 1\n\nb: 2", out.Value())
}

func TestSummaryAgentEmptyInputs(t *testing.T) {
	a := builtin.NewSummaryAgent("s1", "", nil, agentlog.NoOpLogger{}, nil)
	out, err := a.Process(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "", out.Value())
}

type fakeLLM struct{ response string }

func (f *fakeLLM) Call(_ context.Context, system, content string) (string, error) {
	return f.response, nil
}

func TestSummaryAgentLLMModeDelegatesToConfiguredService(t *testing.T) {
	a := builtin.NewSummaryAgent("s1", "summarize", map[string]any{"llm": "openai"}, agentlog.NoOpLogger{}, nil)
	require.NoError(t, a.ConfigureLLMService(&fakeLLM{response: "condensed"}))
	out, err := a.Process(context.Background(), map[string]any{"a": "x"})
	require.NoError(t, err)
	assert.Equal(t, "condensed", out.Value())
}

func TestSummaryAgentLLMModeFallsBackWhenUnconfigured(t *testing.T) {
	a := builtin.NewSummaryAgent("s1", "", map[string]any{"llm": "openai"}, agentlog.NoOpLogger{}, nil)
	out, err := a.Process(context.Background(), map[string]any{"a": "x"})
	require.NoError(t, err)
	assert.Equal(t, "a: x", out.Value())
}

func TestSuspendAgentSuspendsThenResumes(t *testing.T) {
	a := builtin.NewSuspendAgent("wait", "", nil, agentlog.NoOpLogger{}, nil)
	tr := tracker.New(tracker.AllSuccess)
	a.SetExecutionTracker(tr)

	out, err := a.Process(context.Background(), map[string]any{"x": 1})
	require.NoError(t, err)
	require.True(t, out.IsSuspended())
	req := out.SuspendRequestValue()
	assert.Equal(t, "wait", req.NodeName)
	assert.NotEmpty(t, req.ThreadID)

	resumeCtx := agent.WithResumeValue(context.Background(), "approved")
	out2, err := a.Process(resumeCtx, map[string]any{"x": 1})
	require.NoError(t, err)
	require.False(t, out2.IsSuspended())
	m := out2.Value().(map[string]any)
	assert.Equal(t, "approved", m["resume_value"])
}

type fakeBundleResolver struct {
	bundle *graphbundle.Bundle
	err    error
}

func (f *fakeBundleResolver) ResolveBundle(ref string) (*graphbundle.Bundle, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.bundle, nil
}

type fakeSubgraphRunner struct {
	finalState       map[string]any
	success          bool
	err              error
	lastInitialState map[string]any
}

func (f *fakeSubgraphRunner) RunSubgraph(_ context.Context, _ *graphbundle.Bundle, initialState map[string]any, _ *tracker.Tracker) (map[string]any, bool, tracker.Summary, error) {
	f.lastInitialState = initialState
	if f.err != nil {
		return nil, false, tracker.Summary{}, f.err
	}
	return f.finalState, f.success, tracker.Summary{RunID: "child"}, nil
}

func TestGraphAgentResolveSubgraphBundleFailsWithoutService(t *testing.T) {
	a := builtin.NewGraphAgent("sub", "child_workflow", nil, agentlog.NoOpLogger{}, nil)
	err := a.ResolveSubgraphBundle()
	assert.Error(t, err)
}

func TestGraphAgentResolveSubgraphBundleUsesWorkflowContextOverPrompt(t *testing.T) {
	b := graphbundle.New("child")
	resolver := &fakeBundleResolver{bundle: b}
	a := builtin.NewGraphAgent("sub", "legacy_name", map[string]any{"workflow": "child"}, agentlog.NoOpLogger{}, nil)
	require.NoError(t, a.ConfigureGraphBundleService(resolver))
	require.NoError(t, a.ResolveSubgraphBundle())
}

func TestGraphAgentResolveSubgraphBundlePropagatesError(t *testing.T) {
	resolver := &fakeBundleResolver{err: errors.New("workflow not found")}
	a := builtin.NewGraphAgent("sub", "missing", nil, agentlog.NoOpLogger{}, nil)
	require.NoError(t, a.ConfigureGraphBundleService(resolver))
	err := a.ResolveSubgraphBundle()
	assert.ErrorContains(t, err, "workflow not found")
}

func TestGraphAgentProcessRunsSubgraphAndMapsOutput(t *testing.T) {
	b := graphbundle.New("child")
	a := builtin.NewGraphAgent("sub", "child", map[string]any{"output_field": "result"}, agentlog.NoOpLogger{}, nil)
	require.NoError(t, a.ConfigureGraphBundleService(&fakeBundleResolver{bundle: b}))
	require.NoError(t, a.ConfigureGraphRunnerService(&fakeSubgraphRunner{
		finalState: map[string]any{"answer": 42},
		success:    true,
	}))
	require.NoError(t, a.ResolveSubgraphBundle())

	parentTracker := tracker.New(tracker.AllSuccess)
	a.SetExecutionTracker(parentTracker)

	out, err := a.Process(context.Background(), map[string]any{"q": "why"})
	require.NoError(t, err)

	_, out2 := a.PostProcess(state.State{}, nil, out)
	su := out2.Value().(agent.StateUpdates)
	assert.Equal(t, true, su[state.KeyLastActionSuccess])
	result := su["result"].(map[string]any)
	assert.Equal(t, 42, result["answer"])
}

func TestGraphAgentProcessHandlesSubgraphFailure(t *testing.T) {
	b := graphbundle.New("child")
	a := builtin.NewGraphAgent("sub", "child", nil, agentlog.NoOpLogger{}, nil)
	require.NoError(t, a.ConfigureGraphBundleService(&fakeBundleResolver{bundle: b}))
	require.NoError(t, a.ConfigureGraphRunnerService(&fakeSubgraphRunner{success: false}))
	require.NoError(t, a.ResolveSubgraphBundle())

	out, err := a.Process(context.Background(), nil)
	require.NoError(t, err)
	su := out.Value().(agent.StateUpdates)
	assert.Equal(t, false, su[state.KeyLastActionSuccess])
	assert.Contains(t, su["error"], "child")
}

func TestGraphAgentRunPassesWholeStateBagWhenNoInputFieldsDeclared(t *testing.T) {
	b := graphbundle.New("child")
	a := builtin.NewGraphAgent("sub", "child", nil, agentlog.NoOpLogger{}, nil)
	runner := &fakeSubgraphRunner{finalState: map[string]any{"answer": 42}, success: true}
	require.NoError(t, a.ConfigureGraphBundleService(&fakeBundleResolver{bundle: b}))
	require.NoError(t, a.ConfigureGraphRunnerService(runner))
	require.NoError(t, a.ResolveSubgraphBundle())

	parentTracker := tracker.New(tracker.AllSuccess)
	a.SetExecutionTracker(parentTracker)

	s := state.State{"user": "ada", "other": "value"}
	_, err := agent.Run(context.Background(), a, s)
	require.NoError(t, err)

	assert.Equal(t, "ada", runner.lastInitialState["user"])
	assert.Equal(t, "value", runner.lastInitialState["other"])
}

func TestGraphAgentProcessWithoutRunnerDegradesGracefully(t *testing.T) {
	b := graphbundle.New("child")
	a := builtin.NewGraphAgent("sub", "child", nil, agentlog.NoOpLogger{}, nil)
	require.NoError(t, a.ConfigureGraphBundleService(&fakeBundleResolver{bundle: b}))
	require.NoError(t, a.ResolveSubgraphBundle())

	out, err := a.Process(context.Background(), nil)
	require.NoError(t, err)
	su := out.Value().(agent.StateUpdates)
	assert.Equal(t, false, su[state.KeyLastActionSuccess])
}
