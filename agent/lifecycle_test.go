package agent_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentmap-go/agentmap/agent"
	"github.com/agentmap-go/agentmap/agentlog"
	"github.com/agentmap-go/agentmap/state"
	"github.com/agentmap-go/agentmap/tracker"
)

// fnAgent is a minimal test double: its process() behavior is
// supplied by a closure, letting a single type exercise every
// lifecycle branch (single/multi/no output field, errors, suspend).
type fnAgent struct {
	*agent.BaseAgent
	fn func(ctx context.Context, inputs map[string]any) (agent.Outcome, error)
}

func (f *fnAgent) Process(ctx context.Context, inputs map[string]any) (agent.Outcome, error) {
	return f.fn(ctx, inputs)
}

func newFnAgent(name string, ctxCfg map[string]any, fn func(context.Context, map[string]any) (agent.Outcome, error)) *fnAgent {
	base := agent.NewBaseAgent(name, "", ctxCfg, agentlog.NoOpLogger{}, nil)
	base.SetExecutionTracker(tracker.New(tracker.AllSuccess))
	return &fnAgent{BaseAgent: base, fn: fn}
}

func TestRunTotalFunctionNeverErrors(t *testing.T) {
	a := newFnAgent("A", map[string]any{"output_field": "out"}, func(_ context.Context, _ map[string]any) (agent.Outcome, error) {
		return agent.Completed("hi"), nil
	})

	partial, err := agent.Run(context.Background(), a, state.State{})
	require.NoError(t, err)
	assert.Equal(t, "hi", partial["out"])
	assert.Equal(t, true, partial[state.KeyLastActionSuccess])
}

func TestSuccessFlagAlwaysSet(t *testing.T) {
	okAgent := newFnAgent("Ok", nil, func(_ context.Context, _ map[string]any) (agent.Outcome, error) {
		return agent.Completed(nil), nil
	})
	partial, err := agent.Run(context.Background(), okAgent, state.State{})
	require.NoError(t, err)
	_, ok := partial[state.KeyLastActionSuccess]
	assert.True(t, ok)

	failAgent := newFnAgent("Fail", nil, func(_ context.Context, _ map[string]any) (agent.Outcome, error) {
		return agent.Outcome{}, assertErr{}
	})
	partial2, err := agent.Run(context.Background(), failAgent, state.State{})
	require.NoError(t, err)
	assert.Equal(t, false, partial2[state.KeyLastActionSuccess])
}

type assertErr struct{}

func (assertErr) Error() string { return "boom" }

// fnPostProcessAgent layers a PostProcess hook that writes directly
// onto the state it's handed, the way LLMAgent stashes updated memory
// under its memory key rather than routing it through the outcome.
type fnPostProcessAgent struct {
	*fnAgent
	post func(s state.State) state.State
}

func (f *fnPostProcessAgent) PostProcess(s state.State, _ map[string]any, outcome agent.Outcome) (state.State, agent.Outcome) {
	return f.post(s), outcome
}

func TestRunCarriesDirectStateWritesFromPostProcessIntoPartial(t *testing.T) {
	inner := newFnAgent("A", nil, func(_ context.Context, _ map[string]any) (agent.Outcome, error) {
		return agent.Completed(agent.StateUpdates{}), nil
	})
	a := &fnPostProcessAgent{
		fnAgent: inner,
		post: func(s state.State) state.State {
			s = s.Clone()
			s["memory"] = "updated"
			return s
		},
	}

	partial, err := agent.Run(context.Background(), a, state.State{"memory": "original"})
	require.NoError(t, err)
	assert.Equal(t, "updated", partial["memory"])
}

func TestReservedKeysRoundTrip(t *testing.T) {
	a := newFnAgent("A", map[string]any{"output_field": "out", "input_fields": "msg"}, func(_ context.Context, inputs map[string]any) (agent.Outcome, error) {
		return agent.Completed(inputs["msg"]), nil
	})
	s := state.State{"msg": "hi", "keep": 42}
	partial, err := agent.Run(context.Background(), a, s)
	require.NoError(t, err)

	merged := state.Merge(s, partial)
	assert.Equal(t, "hi", merged["msg"])
	assert.Equal(t, 42, merged["keep"])
	assert.Equal(t, "hi", merged["out"])
}

func TestSingleOutputIdentity(t *testing.T) {
	a := newFnAgent("A", map[string]any{"output_field": "out"}, func(_ context.Context, _ map[string]any) (agent.Outcome, error) {
		return agent.Completed("value"), nil
	})
	partial, err := agent.Run(context.Background(), a, state.State{})
	require.NoError(t, err)
	assert.Equal(t, "value", partial["out"])
	assert.NotContains(t, partial, "other")
}

func TestSingleOutputNilProducesNoKey(t *testing.T) {
	a := newFnAgent("A", map[string]any{"output_field": "out"}, func(_ context.Context, _ map[string]any) (agent.Outcome, error) {
		return agent.Completed(nil), nil
	})
	partial, err := agent.Run(context.Background(), a, state.State{})
	require.NoError(t, err)
	_, ok := partial["out"]
	assert.False(t, ok)
}

func TestNoOutputFieldReturnsEmptyPartialPlusSuccess(t *testing.T) {
	a := newFnAgent("A", nil, func(_ context.Context, _ map[string]any) (agent.Outcome, error) {
		return agent.Completed("ignored"), nil
	})
	partial, err := agent.Run(context.Background(), a, state.State{})
	require.NoError(t, err)
	assert.Len(t, partial, 1) // only last_action_success
	assert.Equal(t, true, partial[state.KeyLastActionSuccess])
}

func TestMultiOutputIgnoreModeDropsExtrasAndFillsMissing(t *testing.T) {
	a := newFnAgent("X", map[string]any{"output_field": "a|b|c", "output_validation": "ignore"}, func(_ context.Context, _ map[string]any) (agent.Outcome, error) {
		return agent.Completed(map[string]any{"a": 1, "b": 2, "d": 9}), nil
	})
	partial, err := agent.Run(context.Background(), a, state.State{})
	require.NoError(t, err)
	assert.Equal(t, 1, partial["a"])
	assert.Equal(t, 2, partial["b"])
	assert.Nil(t, partial["c"])
	assert.NotContains(t, partial, "d")
}

func TestMultiOutputWarnModePreservesExtras(t *testing.T) {
	a := newFnAgent("X", map[string]any{"output_field": "a|b|c", "output_validation": "warn"}, func(_ context.Context, _ map[string]any) (agent.Outcome, error) {
		return agent.Completed(map[string]any{"a": 1, "b": 2, "d": 9}), nil
	})
	partial, err := agent.Run(context.Background(), a, state.State{})
	require.NoError(t, err)
	assert.Equal(t, 1, partial["a"])
	assert.Equal(t, 2, partial["b"])
	assert.Nil(t, partial["c"])
	assert.Equal(t, 9, partial["d"])
}

func TestMultiOutputErrorModeFailsOnMismatch(t *testing.T) {
	a := newFnAgent("X", map[string]any{"output_field": "a|b|c", "output_validation": "error"}, func(_ context.Context, _ map[string]any) (agent.Outcome, error) {
		return agent.Completed(map[string]any{"a": 1, "b": 2, "d": 9}), nil
	})
	partial, err := agent.Run(context.Background(), a, state.State{})
	require.NoError(t, err)
	assert.Equal(t, false, partial[state.KeyLastActionSuccess])
	assert.NotContains(t, partial, "a")
	errs := partial[state.KeyErrors].([]string)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "c")
	assert.Contains(t, errs[0], "d")
}

func TestMultiOutputNonMapGracefulDegradation(t *testing.T) {
	a := newFnAgent("X", map[string]any{"output_field": "a|b", "output_validation": "warn"}, func(_ context.Context, _ map[string]any) (agent.Outcome, error) {
		return agent.Completed("just a string"), nil
	})
	partial, err := agent.Run(context.Background(), a, state.State{})
	require.NoError(t, err)
	assert.Equal(t, "just a string", partial["a"])
	assert.NotContains(t, partial, "b")
}

func TestPostProcessStateUpdatesBypassesValidation(t *testing.T) {
	base := agent.NewBaseAgent("X", "", map[string]any{"output_field": "a|b"}, agentlog.NoOpLogger{}, nil)
	base.SetExecutionTracker(tracker.New(tracker.AllSuccess))
	pp := &postProcAgent{BaseAgent: base}
	partial, err := agent.Run(context.Background(), pp, state.State{})
	require.NoError(t, err)
	assert.Equal(t, "direct", partial["anything"])
	assert.Equal(t, true, partial[state.KeyLastActionSuccess])
}

type postProcAgent struct {
	*agent.BaseAgent
}

func (p *postProcAgent) Process(_ context.Context, _ map[string]any) (agent.Outcome, error) {
	return agent.Completed("unused"), nil
}

func (p *postProcAgent) PostProcess(s state.State, _ map[string]any, _ agent.Outcome) (state.State, agent.Outcome) {
	return s, agent.Completed(agent.StateUpdates{"anything": "direct"})
}

func TestInputFieldMappingProjectsTargetFromSource(t *testing.T) {
	a := newFnAgent("A", map[string]any{"input_fields": "x=user", "output_field": "out"}, func(_ context.Context, inputs map[string]any) (agent.Outcome, error) {
		return agent.Completed(inputs["x"]), nil
	})
	partial, err := agent.Run(context.Background(), a, state.State{"user": "alice"})
	require.NoError(t, err)
	assert.Equal(t, "alice", partial["out"])
}

func TestErrorPathNeverPanics(t *testing.T) {
	a := newFnAgent("A", map[string]any{"output_field": "out"}, func(_ context.Context, _ map[string]any) (agent.Outcome, error) {
		return agent.Outcome{}, assertErr{}
	})
	partial, err := agent.Run(context.Background(), a, state.State{})
	require.NoError(t, err)
	assert.Equal(t, false, partial[state.KeyLastActionSuccess])
	errs := partial[state.KeyErrors].([]string)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "boom")
}

func TestTrackerRecordsSuccessAndFailure(t *testing.T) {
	tr := tracker.New(tracker.AllSuccess)
	base := agent.NewBaseAgent("A", "", map[string]any{"output_field": "out"}, agentlog.NoOpLogger{}, nil)
	base.SetExecutionTracker(tr)
	a := &fnAgent{BaseAgent: base, fn: func(_ context.Context, _ map[string]any) (agent.Outcome, error) {
		return agent.Completed("v"), nil
	}}
	_, err := agent.Run(context.Background(), a, state.State{})
	require.NoError(t, err)

	summary := tr.Summary()
	require.Len(t, summary.NodeRecords, 1)
	assert.True(t, summary.NodeRecords[0].Success)
	assert.True(t, summary.GraphSuccess)
}
