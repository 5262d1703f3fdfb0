package graphrunner_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentmap-go/agentmap/agent"
	"github.com/agentmap-go/agentmap/agent/builtin"
	"github.com/agentmap-go/agentmap/agentlog"
	"github.com/agentmap-go/agentmap/assembler"
	"github.com/agentmap-go/agentmap/checkpoint/memory"
	"github.com/agentmap-go/agentmap/graphbundle"
	"github.com/agentmap-go/agentmap/graphrunner"
	"github.com/agentmap-go/agentmap/state"
	"github.com/agentmap-go/agentmap/tracker"
)

func testFactories() map[string]assembler.AgentFactory {
	return map[string]assembler.AgentFactory{
		"default": func(n *graphbundle.Node, deps assembler.Deps) (agent.Runner, error) {
			return builtin.NewDefaultAgent(n.Name, n.Prompt, n.Context, deps.Logger, deps.Adapter), nil
		},
		"echo": func(n *graphbundle.Node, deps assembler.Deps) (agent.Runner, error) {
			return builtin.NewEchoAgent(n.Name, n.Prompt, n.Context, deps.Logger, deps.Adapter), nil
		},
		"suspend": func(n *graphbundle.Node, deps assembler.Deps) (agent.Runner, error) {
			return builtin.NewSuspendAgent(n.Name, n.Prompt, n.Context, deps.Logger, deps.Adapter), nil
		},
	}
}

func linearBundle() *graphbundle.Bundle {
	b := graphbundle.New("linear")
	b.EntryPoint = "A"
	b.AddNode(&graphbundle.Node{Name: "A", AgentType: "default", Edges: map[string]string{"default": "B"}})
	b.AddNode(&graphbundle.Node{Name: "B", AgentType: "echo"})
	return b
}

func suspendBundle() *graphbundle.Bundle {
	b := graphbundle.New("with-suspend")
	b.EntryPoint = "A"
	b.AddNode(&graphbundle.Node{Name: "A", AgentType: "default", Edges: map[string]string{"default": "Pause"}})
	b.AddNode(&graphbundle.Node{Name: "Pause", AgentType: "suspend", Edges: map[string]string{"default": "Done"}})
	b.AddNode(&graphbundle.Node{Name: "Done", AgentType: "echo"})
	return b
}

func TestRunCompletesLinearGraph(t *testing.T) {
	svc := graphrunner.New(testFactories(), assembler.Deps{Logger: agentlog.NoOpLogger{}}, memory.New())

	result, err := svc.Run(context.Background(), linearBundle(), map[string]any{"input": "hi"})
	require.NoError(t, err)
	assert.Equal(t, graphrunner.StatusCompleted, result.Status)
	assert.True(t, result.Success)
	assert.Equal(t, []string{"A", "B"}, result.Summary.Path)
}

func TestRunSuspendsAndResumeCompletesFromCheckpoint(t *testing.T) {
	store := memory.New()
	svc := graphrunner.New(testFactories(), assembler.Deps{Logger: agentlog.NoOpLogger{}}, store)
	bundle := suspendBundle()

	result, err := svc.Run(context.Background(), bundle, map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, graphrunner.StatusSuspended, result.Status)
	require.NotEmpty(t, result.ThreadID)

	cp, err := store.Load(context.Background(), result.ThreadID)
	require.NoError(t, err)
	require.NotNil(t, cp)
	assert.Equal(t, "Pause", cp.Position)
	assert.Equal(t, 1, cp.Version)

	resumed, err := svc.Resume(context.Background(), bundle, result.ThreadID, "approved")
	require.NoError(t, err)
	assert.Equal(t, graphrunner.StatusCompleted, resumed.Status)
	assert.True(t, resumed.Success)

	cleared, err := store.Load(context.Background(), result.ThreadID)
	require.NoError(t, err)
	assert.Nil(t, cleared)
}

func TestResumeFailsWithoutCheckpoint(t *testing.T) {
	svc := graphrunner.New(testFactories(), assembler.Deps{}, memory.New())
	_, err := svc.Resume(context.Background(), suspendBundle(), "no-such-thread", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no checkpoint found")
}

func TestResumeFailsWithoutStoreConfigured(t *testing.T) {
	svc := graphrunner.New(testFactories(), assembler.Deps{}, nil)
	_, err := svc.Resume(context.Background(), suspendBundle(), "thread-1", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no checkpoint store configured")
}

func TestRunSubgraphReturnsChildStateAndSummary(t *testing.T) {
	svc := graphrunner.New(testFactories(), assembler.Deps{}, memory.New())
	parentTracker := tracker.New(tracker.AllSuccess)

	st, success, summary, err := svc.RunSubgraph(context.Background(), linearBundle(), map[string]any{"seed": 1}, parentTracker)
	require.NoError(t, err)
	assert.True(t, success)
	assert.Equal(t, []string{"A", "B"}, summary.Path)
	assert.Equal(t, true, st[state.KeyLastActionSuccess])
}

func TestRunSubgraphRejectsNestedSuspend(t *testing.T) {
	svc := graphrunner.New(testFactories(), assembler.Deps{}, memory.New())
	_, _, _, err := svc.RunSubgraph(context.Background(), suspendBundle(), map[string]any{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nested suspend/resume is not supported")
}

func TestRunTerminatesWhenEntryNodeHasNoEdges(t *testing.T) {
	svc := graphrunner.New(testFactories(), assembler.Deps{}, memory.New())
	b := graphbundle.New("single-node")
	b.EntryPoint = "A"
	b.AddNode(&graphbundle.Node{Name: "A", AgentType: "default"})

	result, err := svc.Run(context.Background(), b, map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, graphrunner.StatusCompleted, result.Status)
	assert.True(t, result.Success)
	assert.Equal(t, []string{"A"}, result.Summary.Path)
}

func TestRunCancelledBetweenNodesReturnsCancellationError(t *testing.T) {
	svc := graphrunner.New(testFactories(), assembler.Deps{}, memory.New())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	time.Sleep(time.Millisecond)
	_, err := svc.Run(ctx, linearBundle(), map[string]any{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cancelled")
}

func TestCompileSurfacesAssemblyErrors(t *testing.T) {
	svc := graphrunner.New(testFactories(), assembler.Deps{}, memory.New())
	b := graphbundle.New("bad")
	b.EntryPoint = "A"
	b.AddNode(&graphbundle.Node{Name: "A", AgentType: "does-not-exist"})

	_, err := svc.Compile(b)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown agent type")
}
