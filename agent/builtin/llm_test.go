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

type fakeChatCaller struct {
	lastMessages []builtin.Message
	response     string
	err          error
}

func (f *fakeChatCaller) CallChat(_ context.Context, provider, model string, temperature float64, messages []builtin.Message, routingContext map[string]any) (string, error) {
	f.lastMessages = messages
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func TestLLMAgentErrorsWithoutConfiguredService(t *testing.T) {
	ctx := map[string]any{"input_fields": "question"}
	a := builtin.NewLLMAgent("l1", "be helpful", ctx, agentlog.NoOpLogger{}, nil)
	out, err := a.Process(context.Background(), map[string]any{"question": "hi"})
	require.NoError(t, err)
	su := out.Value().(agent.StateUpdates)
	assert.Equal(t, false, su[state.KeyLastActionSuccess])
}

func TestLLMAgentLegacyModeCallsConfiguredProvider(t *testing.T) {
	ctx := map[string]any{"input_fields": "question", "provider": "openai"}
	a := builtin.NewLLMAgent("l1", "be helpful", ctx, agentlog.NoOpLogger{}, nil)
	caller := &fakeChatCaller{response: "42"}
	require.NoError(t, a.ConfigureLLMService(caller))

	out, err := a.Process(context.Background(), map[string]any{"question": "what is the answer"})
	require.NoError(t, err)
	su := out.Value().(agent.StateUpdates)
	assert.Equal(t, "42", su["output"])

	memory := su["memory"].([]builtin.Message)
	require.Len(t, memory, 3)
	assert.Equal(t, "system", memory[0].Role)
	assert.Equal(t, "user", memory[1].Role)
	assert.Equal(t, "assistant", memory[2].Role)
	assert.Equal(t, "42", memory[2].Content)
}

func TestLLMAgentTruncatesMemoryButKeepsLeadingSystemMessage(t *testing.T) {
	ctx := map[string]any{"input_fields": "question", "max_memory_messages": 3}
	a := builtin.NewLLMAgent("l1", "be helpful", ctx, agentlog.NoOpLogger{}, nil)
	caller := &fakeChatCaller{response: "latest"}
	require.NoError(t, a.ConfigureLLMService(caller))

	seeded := []builtin.Message{
		{Role: "system", Content: "be helpful"},
		{Role: "user", Content: "first"},
		{Role: "assistant", Content: "first reply"},
		{Role: "user", Content: "second"},
		{Role: "assistant", Content: "second reply"},
	}
	out, err := a.Process(context.Background(), map[string]any{
		"question": "third",
		"memory":   seeded,
	})
	require.NoError(t, err)
	su := out.Value().(agent.StateUpdates)

	memory := su["memory"].([]builtin.Message)
	require.Len(t, memory, 3)
	assert.Equal(t, "system", memory[0].Role)
	assert.Equal(t, "be helpful", memory[0].Content)
	assert.Equal(t, "user", memory[1].Role)
	assert.Equal(t, "question: third", memory[1].Content)
	assert.Equal(t, "assistant", memory[2].Role)
	assert.Equal(t, "latest", memory[2].Content)
}

func TestLLMAgentPostProcessWritesMemoryAndUnwrapsOutputField(t *testing.T) {
	ctx := map[string]any{"input_fields": "question", "output_field": "answer"}
	a := builtin.NewLLMAgent("l1", "", ctx, agentlog.NoOpLogger{}, nil)
	caller := &fakeChatCaller{response: "ok"}
	require.NoError(t, a.ConfigureLLMService(caller))

	out, err := a.Process(context.Background(), map[string]any{"question": "q"})
	require.NoError(t, err)

	s, out2 := a.PostProcess(state.State{}, nil, out)
	assert.NotNil(t, s["memory"])
	su := out2.Value().(agent.StateUpdates)
	assert.Equal(t, "ok", su["answer"])
	_, hasRawOutput := su["output"]
	assert.False(t, hasRawOutput)
}
