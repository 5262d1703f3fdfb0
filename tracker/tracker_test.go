package tracker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllSuccessPolicyIsCumulativeAnd(t *testing.T) {
	tr := New(AllSuccess)

	tr.RecordNodeStart("A", nil)
	tr.RecordNodeResult("A", true, map[string]any{"x": 1}, "")
	assert.True(t, tr.GraphSuccess())

	tr.RecordNodeStart("B", nil)
	tr.RecordNodeResult("B", false, nil, "boom")
	assert.False(t, tr.GraphSuccess())

	// A later success must not flip graph_success back to true.
	tr.RecordNodeStart("C", nil)
	tr.RecordNodeResult("C", true, map[string]any{"y": 2}, "")
	assert.False(t, tr.GraphSuccess())
}

func TestAtLeastOneSuccessPolicy(t *testing.T) {
	tr := New(AtLeastOneSuccess)

	tr.RecordNodeStart("A", nil)
	tr.RecordNodeResult("A", false, nil, "err")
	assert.False(t, tr.GraphSuccess())

	tr.RecordNodeStart("B", nil)
	tr.RecordNodeResult("B", true, nil, "")
	assert.True(t, tr.GraphSuccess())
}

func TestCustomPolicy(t *testing.T) {
	tr := NewWithCustomPolicy(func(records []NodeRecord) bool {
		return len(records) >= 2
	})

	tr.RecordNodeStart("A", nil)
	tr.RecordNodeResult("A", true, nil, "")
	assert.False(t, tr.GraphSuccess())

	tr.RecordNodeStart("B", nil)
	tr.RecordNodeResult("B", true, nil, "")
	assert.True(t, tr.GraphSuccess())
}

func TestRecordNodeStartIdempotentWhileOpen(t *testing.T) {
	tr := New(AllSuccess)
	tr.RecordNodeStart("A", map[string]any{"v": 1})
	tr.RecordNodeStart("A", map[string]any{"v": 2}) // no-op, still open

	summary := tr.Summary()
	require.Len(t, summary.NodeRecords, 1)
	assert.Equal(t, 1, summary.NodeRecords[0].Inputs["v"])
}

func TestRecordNodeStartAllowsRevisitAfterFinish(t *testing.T) {
	tr := New(AllSuccess)
	tr.RecordNodeStart("A", nil)
	tr.RecordNodeResult("A", true, nil, "")
	tr.RecordNodeStart("A", nil)
	tr.RecordNodeResult("A", true, nil, "")

	summary := tr.Summary()
	assert.Len(t, summary.NodeRecords, 2)
	assert.Equal(t, []string{"A", "A"}, summary.Path)
}

func TestPathReflectsExecutionOrder(t *testing.T) {
	tr := New(AllSuccess)
	tr.RecordNodeStart("A", nil)
	tr.RecordNodeResult("A", true, nil, "")
	tr.RecordNodeStart("B", nil)
	tr.RecordNodeResult("B", true, nil, "")

	assert.Equal(t, []string{"A", "B"}, tr.Path())
}

func TestSubgraphSummaryNesting(t *testing.T) {
	parent := New(AllSuccess)
	child := New(AllSuccess)
	child.RecordNodeStart("P", nil)
	child.RecordNodeResult("P", true, nil, "")

	parent.RecordSubgraphExecution("G", child.Summary())

	summary := parent.Summary()
	require.Contains(t, summary.SubGraphSummaries, "G")
	assert.Equal(t, []string{"P"}, summary.SubGraphSummaries["G"].Path)
}

func TestThreadIDGeneratedLazily(t *testing.T) {
	tr := New(AllSuccess)
	id1 := tr.ThreadID()
	id2 := tr.ThreadID()
	assert.Equal(t, id1, id2)
	assert.NotEmpty(t, id1)
}

func TestForceFailureOverridesPolicy(t *testing.T) {
	tr := New(AllSuccess)
	tr.RecordNodeStart("A", nil)
	tr.RecordNodeResult("A", true, nil, "")
	assert.True(t, tr.GraphSuccess())

	tr.ForceFailure()
	assert.False(t, tr.GraphSuccess())
}
