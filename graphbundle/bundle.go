// Package graphbundle defines the compiled, persistable graph shape
// produced by the assembler (spec §3/§4.3): an immutable node map plus
// an entry point and a content hash of the CSV it was built from.
//
// Grounded on original_source/src/agentmap/services/compilation_service.py's
// GraphBundle.create/save pair (pickle + sibling .src file) and on the
// teacher's store.Checkpoint / store/sqlite JSON-in-column persistence
// idiom (encoding/json rather than pickle, since Go has no stable
// object-serialization analog).
package graphbundle

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Node is the compiled, immutable-after-assembly vertex shape (spec
// §3 "Node (compiled)").
type Node struct {
	Name         string            `json:"name"`
	AgentType    string            `json:"agent_type"`
	Prompt       string            `json:"prompt,omitempty"`
	Context      map[string]any    `json:"context,omitempty"`
	InputFields  []string          `json:"input_fields,omitempty"`
	OutputField  string            `json:"output_field,omitempty"`
	Description  string            `json:"description,omitempty"`
	Edges        map[string]string `json:"edges,omitempty"`
}

// Bundle is the compiled graph produced by the assembler: a node map,
// the entry point node name, and a source hash used to detect a
// stale compilation (spec §4.3).
type Bundle struct {
	Name       string           `json:"name"`
	NodeMap    map[string]*Node `json:"node_map"`
	EntryPoint string           `json:"entry_point"`
	SourceHash string           `json:"source_hash"`
}

// New creates an empty bundle ready for the assembler to populate.
func New(name string) *Bundle {
	return &Bundle{
		Name:    name,
		NodeMap: make(map[string]*Node),
	}
}

// HashSource computes the bundle's source_hash from the raw CSV bytes
// that produced it, so a later compile can detect whether the CSV has
// changed since this bundle was built.
func HashSource(csvContent []byte) string {
	sum := sha256.Sum256(csvContent)
	return hex.EncodeToString(sum[:])
}

// IsStale reports whether currentCSV no longer matches the hash this
// bundle was compiled from.
func (b *Bundle) IsStale(currentCSV []byte) bool {
	return b.SourceHash != HashSource(currentCSV)
}

// AddNode registers a compiled node. It is a programmer error to add
// the same node name twice; callers (the assembler) are expected to
// have already validated name uniqueness from the CSV.
func (b *Bundle) AddNode(n *Node) {
	if b.NodeMap == nil {
		b.NodeMap = make(map[string]*Node)
	}
	b.NodeMap[n.Name] = n
}

// Node looks up a compiled node by name.
func (b *Bundle) Node(name string) (*Node, bool) {
	n, ok := b.NodeMap[name]
	return n, ok
}

// Validate checks the structural invariants a compiled bundle must
// hold before it can be run: a non-empty entry point that exists in
// the node map, and every edge target resolving to a real node (or
// the empty string, meaning "terminal").
func (b *Bundle) Validate() error {
	if b.EntryPoint == "" {
		return fmt.Errorf("graphbundle %q: no entry point set", b.Name)
	}
	if _, ok := b.NodeMap[b.EntryPoint]; !ok {
		return fmt.Errorf("graphbundle %q: entry point %q is not a node in this graph", b.Name, b.EntryPoint)
	}
	for name, n := range b.NodeMap {
		for label, target := range n.Edges {
			if target == "" {
				continue
			}
			if strings.HasPrefix(target, "func:") {
				continue
			}
			if _, ok := b.NodeMap[target]; !ok {
				return fmt.Errorf("graphbundle %q: node %q edge %q targets unknown node %q", b.Name, name, label, target)
			}
		}
	}
	return nil
}

// Save persists the bundle as JSON to path, and — when srcLines is
// non-nil — writes a human-readable ".src" sibling file alongside it
// for debugging, mirroring compilation_service.py's compiled-graph +
// source-file pair.
func Save(b *Bundle, path string, srcLines []string) error {
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal bundle %q: %w", b.Name, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir for bundle %q: %w", b.Name, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write bundle %q to %s: %w", b.Name, path, err)
	}
	if srcLines != nil {
		srcPath := sourcePath(path)
		if err := os.WriteFile(srcPath, []byte(strings.Join(srcLines, "\n")+"\n"), 0o644); err != nil {
			return fmt.Errorf("write source file for bundle %q to %s: %w", b.Name, srcPath, err)
		}
	}
	return nil
}

// Load reads a bundle previously written by Save.
func Load(path string) (*Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read bundle from %s: %w", path, err)
	}
	var b Bundle
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("unmarshal bundle from %s: %w", path, err)
	}
	return &b, nil
}

func sourcePath(bundlePath string) string {
	ext := filepath.Ext(bundlePath)
	return strings.TrimSuffix(bundlePath, ext) + ".src"
}
