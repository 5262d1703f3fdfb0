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
)

type fakeStorage struct {
	readData  any
	readErr   error
	writeRes  builtin.DocumentResult
	writeErr  error
	gotWrite  any
	gotParams map[string]any
}

func (f *fakeStorage) Read(_ context.Context, collection string, params map[string]any) (any, error) {
	f.gotParams = params
	return f.readData, f.readErr
}

func (f *fakeStorage) Write(_ context.Context, collection string, data any, mode string, params map[string]any) (builtin.DocumentResult, error) {
	f.gotWrite = data
	return f.writeRes, f.writeErr
}

func TestStorageAgentReadReturnsUniformResult(t *testing.T) {
	a := builtin.NewStorageAgent("csv", "reader", "r1", "", map[string]any{"collection": "data.csv"}, agentlog.NoOpLogger{}, nil)
	fake := &fakeStorage{readData: []map[string]any{{"id": 1}}}
	require.NoError(t, a.ConfigureCSVService(fake))

	out, err := a.Process(context.Background(), map[string]any{"format": "records"})
	require.NoError(t, err)
	res := out.Value().(builtin.DocumentResult)
	assert.True(t, res.Success)
	assert.Equal(t, "data.csv", res.FilePath)
}

func TestStorageAgentMissingCollectionFails(t *testing.T) {
	a := builtin.NewStorageAgent("csv", "reader", "r1", "", nil, agentlog.NoOpLogger{}, nil)
	out, err := a.Process(context.Background(), map[string]any{})
	require.NoError(t, err)
	res := out.Value().(builtin.DocumentResult)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "collection")
}

func TestStorageAgentUnconfiguredProviderFails(t *testing.T) {
	a := builtin.NewStorageAgent("kv", "reader", "r1", "", map[string]any{"collection": "bucket"}, agentlog.NoOpLogger{}, nil)
	out, err := a.Process(context.Background(), map[string]any{})
	require.NoError(t, err)
	res := out.Value().(builtin.DocumentResult)
	assert.False(t, res.Success)
}

func TestStorageAgentWriteDelegatesToProvider(t *testing.T) {
	a := builtin.NewStorageAgent("file", "writer", "w1", "", map[string]any{"collection": "out.txt"}, agentlog.NoOpLogger{}, nil)
	fake := &fakeStorage{writeRes: builtin.DocumentResult{Success: true, Counts: map[string]int{"written": 1}}}
	require.NoError(t, a.ConfigureFileService(fake))

	out, err := a.Process(context.Background(), map[string]any{"data": "hello", "mode": "append"})
	require.NoError(t, err)
	res := out.Value().(builtin.DocumentResult)
	assert.True(t, res.Success)
	assert.Equal(t, "out.txt", res.FilePath)
	assert.Equal(t, "hello", fake.gotWrite)
}

func TestStorageAgentReadErrorProducesFailureResult(t *testing.T) {
	a := builtin.NewStorageAgent("csv", "reader", "r1", "", map[string]any{"collection": "missing.csv"}, agentlog.NoOpLogger{}, nil)
	require.NoError(t, a.ConfigureCSVService(&fakeStorage{readErr: errors.New("not found")}))

	out, err := a.Process(context.Background(), map[string]any{})
	require.NoError(t, err)
	res := out.Value().(builtin.DocumentResult)
	assert.False(t, res.Success)
	assert.Equal(t, "not found", res.Error)
}

func TestStorageAgentInputsOverrideContextCollection(t *testing.T) {
	a := builtin.NewStorageAgent("csv", "reader", "r1", "", map[string]any{"collection": "default.csv"}, agentlog.NoOpLogger{}, nil)
	fake := &fakeStorage{readData: nil}
	require.NoError(t, a.ConfigureCSVService(fake))

	out, err := a.Process(context.Background(), map[string]any{"collection": "override.csv"})
	require.NoError(t, err)
	res := out.Value().(builtin.DocumentResult)
	assert.Equal(t, "override.csv", res.FilePath)
}
