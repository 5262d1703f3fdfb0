// Package csvgraph implements the CSV layer spec §4.3 describes as
// producing "a parsed list of node records for one graph name" ahead
// of assembly: it reads the AgentMap CSV schema (GraphName, Node,
// AgentType, Input_Fields, Output_Field, Edge, Success_Next,
// Failure_Next, Prompt, Description, Context) and groups rows into
// one *graphbundle.Bundle per GraphName, entry point set to the first
// node encountered in source order per §4.3 step 3.
//
// original_source/agentmap/graph/assembler.py (GraphAssembler) takes
// already-extracted node/edge records and never touches CSV itself;
// the file that would read the CSV into those records was not among
// the retrieved original_source files, so this package is grounded
// directly on spec.md §6's schema description, using the same
// stdlib encoding/csv idiom storageprovider.CSVProvider already
// establishes for this codebase (no repo in the pack imports a
// third-party CSV library).
package csvgraph

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/agentmap-go/agentmap/graphbundle"
)

const (
	colGraphName    = "GraphName"
	colNode         = "Node"
	colAgentType    = "AgentType"
	colInputFields  = "Input_Fields"
	colOutputField  = "Output_Field"
	colEdge         = "Edge"
	colSuccessNext  = "Success_Next"
	colFailureNext  = "Failure_Next"
	colPrompt       = "Prompt"
	colDescription  = "Description"
	colContext      = "Context"
)

// ParseFile reads path and returns one bundle per GraphName column
// value, keyed by that name.
func ParseFile(path string) (map[string]*graphbundle.Bundle, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("csvgraph: read %q: %w", path, err)
	}
	return Parse(content)
}

// Parse builds one bundle per GraphName found in content, recording
// content's hash on every bundle for later staleness checks
// (graphbundle.Bundle.IsStale).
func Parse(content []byte) (map[string]*graphbundle.Bundle, error) {
	r := csv.NewReader(strings.NewReader(string(content)))
	r.TrimLeadingSpace = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("csvgraph: parse csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("csvgraph: empty CSV")
	}

	index, err := columnIndex(records[0])
	if err != nil {
		return nil, err
	}

	hash := graphbundle.HashSource(content)
	bundles := make(map[string]*graphbundle.Bundle)
	order := make(map[string][]string) // graph name -> node names in source order

	for lineNum, rec := range records[1:] {
		row := newRow(rec, index)
		graphName := row.get(colGraphName)
		nodeName := row.get(colNode)
		if graphName == "" || nodeName == "" {
			return nil, fmt.Errorf("csvgraph: row %d: GraphName and Node are required", lineNum+2)
		}

		b, ok := bundles[graphName]
		if !ok {
			b = graphbundle.New(graphName)
			b.SourceHash = hash
			bundles[graphName] = b
		}

		node, err := buildNode(nodeName, row)
		if err != nil {
			return nil, fmt.Errorf("csvgraph: row %d: %w", lineNum+2, err)
		}
		b.AddNode(node)
		order[graphName] = append(order[graphName], nodeName)
	}

	for name, b := range bundles {
		nodes := order[name]
		if len(nodes) > 0 {
			b.EntryPoint = nodes[0]
		}
	}

	return bundles, nil
}

// ParseGraph is a convenience wrapper around ParseFile for callers
// that already know which graph name they want (the CLI's `run`/
// `compile` subcommands take a graph name alongside the CSV path).
func ParseGraph(path, graphName string) (*graphbundle.Bundle, error) {
	bundles, err := ParseFile(path)
	if err != nil {
		return nil, err
	}
	b, ok := bundles[graphName]
	if !ok {
		return nil, fmt.Errorf("csvgraph: no graph named %q in %q", graphName, path)
	}
	return b, nil
}

func columnIndex(header []string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, col := range header {
		index[strings.TrimSpace(col)] = i
	}
	for _, required := range []string{colGraphName, colNode, colAgentType} {
		if _, ok := index[required]; !ok {
			return nil, fmt.Errorf("csvgraph: missing required column %q", required)
		}
	}
	return index, nil
}

type row struct {
	rec   []string
	index map[string]int
}

func newRow(rec []string, index map[string]int) row {
	return row{rec: rec, index: index}
}

func (r row) get(col string) string {
	i, ok := r.index[col]
	if !ok || i >= len(r.rec) {
		return ""
	}
	return strings.TrimSpace(r.rec[i])
}

func buildNode(name string, r row) (*graphbundle.Node, error) {
	inputFieldsRaw := r.get(colInputFields)
	outputFieldRaw := r.get(colOutputField)

	ctx, err := parseContext(r.get(colContext))
	if err != nil {
		return nil, fmt.Errorf("node %q: %w", name, err)
	}
	if inputFieldsRaw != "" {
		ctx["input_fields"] = inputFieldsRaw
	}
	if outputFieldRaw != "" {
		ctx["output_field"] = outputFieldRaw
	}

	edges := buildEdges(r)

	return &graphbundle.Node{
		Name:        name,
		AgentType:   r.get(colAgentType),
		Prompt:      r.get(colPrompt),
		Description: r.get(colDescription),
		Context:     ctx,
		InputFields: splitPipe(inputFieldsRaw),
		OutputField: outputFieldRaw,
		Edges:       edges,
	}, nil
}

// parseContext implements spec §6's Context semantics: JSON when the
// trimmed value begins with "{", otherwise a free-form string agents
// interpret for themselves, stored under the "context" key so an
// agent factory can still read it from the node's Context map.
func parseContext(raw string) (map[string]any, error) {
	if raw == "" {
		return map[string]any{}, nil
	}
	if strings.HasPrefix(raw, "{") {
		var ctx map[string]any
		if err := json.Unmarshal([]byte(raw), &ctx); err != nil {
			return nil, fmt.Errorf("malformed Context JSON: %w", err)
		}
		return ctx, nil
	}
	return map[string]any{"context": raw}, nil
}

func buildEdges(r row) map[string]string {
	edges := map[string]string{}
	if v := r.get(colEdge); v != "" {
		edges["default"] = v
	}
	if v := r.get(colSuccessNext); v != "" {
		edges["success"] = v
	}
	if v := r.get(colFailureNext); v != "" {
		edges["failure"] = v
	}
	if len(edges) == 0 {
		return nil
	}
	return edges
}

func splitPipe(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, "|")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
