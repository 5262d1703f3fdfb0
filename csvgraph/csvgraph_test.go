package csvgraph_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentmap-go/agentmap/csvgraph"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "graph.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const linearCSV = `GraphName,Node,AgentType,Input_Fields,Output_Field,Edge,Success_Next,Failure_Next,Prompt,Description,Context
greeting,start,default,,greeting_output,next,,,hello,first node,
greeting,next,echo,greeting_output,,,,,,second node,
`

func TestParseFileGroupsRowsByGraphName(t *testing.T) {
	path := writeCSV(t, linearCSV)
	bundles, err := csvgraph.ParseFile(path)
	require.NoError(t, err)
	require.Contains(t, bundles, "greeting")

	b := bundles["greeting"]
	assert.Equal(t, "start", b.EntryPoint)
	assert.Len(t, b.NodeMap, 2)
}

func TestParseFileSetsEdgesFromColumns(t *testing.T) {
	path := writeCSV(t, linearCSV)
	b, err := csvgraph.ParseGraph(path, "greeting")
	require.NoError(t, err)

	start, ok := b.Node("start")
	require.True(t, ok)
	assert.Equal(t, "next", start.Edges["default"])

	next, ok := b.Node("next")
	require.True(t, ok)
	assert.Empty(t, next.Edges)
}

func TestParseFileParsesJSONContext(t *testing.T) {
	content := `GraphName,Node,AgentType,Input_Fields,Output_Field,Edge,Success_Next,Failure_Next,Prompt,Description,Context
wf,reader,csv,,rows,,,,,read rows,"{""collection"": ""people.csv""}"
`
	path := writeCSV(t, content)
	b, err := csvgraph.ParseGraph(path, "wf")
	require.NoError(t, err)

	node, ok := b.Node("reader")
	require.True(t, ok)
	assert.Equal(t, "people.csv", node.Context["collection"])
	assert.Equal(t, "rows", node.Context["output_field"])
}

func TestParseFileStoresNonJSONContextUnderContextKey(t *testing.T) {
	content := `GraphName,Node,AgentType,Input_Fields,Output_Field,Edge,Success_Next,Failure_Next,Prompt,Description,Context
wf,n1,default,,,,,,,,plain text context
`
	path := writeCSV(t, content)
	b, err := csvgraph.ParseGraph(path, "wf")
	require.NoError(t, err)

	node, ok := b.Node("n1")
	require.True(t, ok)
	assert.Equal(t, "plain text context", node.Context["context"])
}

func TestParseFileSuccessFailureEdges(t *testing.T) {
	content := `GraphName,Node,AgentType,Input_Fields,Output_Field,Edge,Success_Next,Failure_Next,Prompt,Description,Context
wf,n1,default,,,,n2,n3,,,
wf,n2,default,,,,,,,,
wf,n3,default,,,,,,,,
`
	path := writeCSV(t, content)
	b, err := csvgraph.ParseGraph(path, "wf")
	require.NoError(t, err)

	n1, _ := b.Node("n1")
	assert.Equal(t, "n2", n1.Edges["success"])
	assert.Equal(t, "n3", n1.Edges["failure"])
}

func TestParseFileMissingRequiredColumnErrors(t *testing.T) {
	path := writeCSV(t, "Node,AgentType\nstart,default\n")
	_, err := csvgraph.ParseFile(path)
	require.Error(t, err)
}

func TestParseFileMissingGraphNameOrNodeErrors(t *testing.T) {
	content := `GraphName,Node,AgentType,Input_Fields,Output_Field,Edge,Success_Next,Failure_Next,Prompt,Description,Context
wf,,default,,,,,,,,
`
	path := writeCSV(t, content)
	_, err := csvgraph.ParseFile(path)
	require.Error(t, err)
}

func TestParseGraphUnknownGraphNameErrors(t *testing.T) {
	path := writeCSV(t, linearCSV)
	_, err := csvgraph.ParseGraph(path, "missing")
	require.Error(t, err)
}

func TestParseFileSourceHashMatchesContent(t *testing.T) {
	path := writeCSV(t, linearCSV)
	content, err := os.ReadFile(path)
	require.NoError(t, err)

	b, err := csvgraph.ParseGraph(path, "greeting")
	require.NoError(t, err)
	assert.False(t, b.IsStale(content))
	assert.True(t, b.IsStale([]byte("different content")))
}

func TestParseFileInputAndOutputFieldsSplitOnPipe(t *testing.T) {
	content := `GraphName,Node,AgentType,Input_Fields,Output_Field,Edge,Success_Next,Failure_Next,Prompt,Description,Context
wf,n1,default,a|b|target=source,x|y,,,,,,
`
	path := writeCSV(t, content)
	b, err := csvgraph.ParseGraph(path, "wf")
	require.NoError(t, err)

	node, _ := b.Node("n1")
	assert.Equal(t, []string{"a", "b", "target=source"}, node.InputFields)
	assert.Equal(t, "x|y", node.OutputField)
	assert.Equal(t, "a|b|target=source", node.Context["input_fields"])
}
