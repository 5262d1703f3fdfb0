package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"

	"github.com/agentmap-go/agentmap/graphbundle"
)

// scaffoldResult mirrors original_source's ScaffoldResult record
// (test_graph_scaffold_integration.py's scaffolded_count/errors/
// skipped_files) closely enough for the CLI to report the same shape
// of outcome, without carrying over its service-injection bookkeeping
// (this redesign has no dynamic service-attribute generation — see
// agentStubTemplate below).
type scaffoldResult struct {
	ScaffoldedAgents []string
	ScaffoldedFuncs  []string
	SkippedBuiltin   []string
	SkippedExisting  []string
}

// scaffoldGraph generates one Go stub file per custom (non-builtin)
// AgentType referenced in bundle, and one stub function file per
// `func:` edge reference, mirroring
// test_graph_scaffold_integration.py's "only custom agents get
// scaffolded, builtins are skipped" behavior. Unlike the original's
// GraphScaffoldService, generated code is a plain Go source stub the
// developer edits and wires into builtinFactories/the function
// resolver by hand — there is no dynamic agent-class-from-file import
// in Go, so scaffold output is a starting point, not a live plugin.
func scaffoldGraph(bundle *graphbundle.Bundle, agentsDir, funcsDir string, factories map[string]factoryPresence, overwrite bool) (scaffoldResult, error) {
	var result scaffoldResult

	if err := os.MkdirAll(agentsDir, 0o755); err != nil {
		return result, fmt.Errorf("creating agents dir: %w", err)
	}
	if err := os.MkdirAll(funcsDir, 0o755); err != nil {
		return result, fmt.Errorf("creating functions dir: %w", err)
	}

	seenAgentTypes := map[string]bool{}
	seenFuncs := map[string]bool{}

	for _, name := range sortedNodeNames(bundle) {
		node, _ := bundle.Node(name)

		if _, builtin := factories[node.AgentType]; builtin {
			result.SkippedBuiltin = append(result.SkippedBuiltin, node.AgentType)
		} else if !seenAgentTypes[node.AgentType] {
			seenAgentTypes[node.AgentType] = true
			created, err := scaffoldAgentFile(agentsDir, node, overwrite)
			if err != nil {
				return result, err
			}
			if created {
				result.ScaffoldedAgents = append(result.ScaffoldedAgents, node.AgentType)
			} else {
				result.SkippedExisting = append(result.SkippedExisting, node.AgentType)
			}
		}

		for _, target := range node.Edges {
			funcName := strings.TrimPrefix(target, "func:")
			if funcName == target || seenFuncs[funcName] {
				continue
			}
			seenFuncs[funcName] = true
			created, err := scaffoldFuncFile(funcsDir, funcName, node.Name, overwrite)
			if err != nil {
				return result, err
			}
			if created {
				result.ScaffoldedFuncs = append(result.ScaffoldedFuncs, funcName)
			} else {
				result.SkippedExisting = append(result.SkippedExisting, funcName)
			}
		}
	}

	return result, nil
}

func sortedNodeNames(bundle *graphbundle.Bundle) []string {
	names := make([]string, 0, len(bundle.NodeMap))
	for name := range bundle.NodeMap {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// factoryPresence is a marker-only map (builtinFactories' keys) passed
// around as map[string]factoryPresence so the scaffolder only needs
// membership, not the factory itself.
type factoryPresence struct{}

func builtinFactoryPresence() map[string]factoryPresence {
	present := make(map[string]factoryPresence)
	for name := range builtinFactories(nil) {
		present[name] = factoryPresence{}
	}
	return present
}

func scaffoldAgentFile(dir string, node *graphbundle.Node, overwrite bool) (bool, error) {
	path := filepath.Join(dir, fmt.Sprintf("%s_agent.go", sanitizeIdent(node.AgentType)))
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return false, nil
		}
	}

	var buf strings.Builder
	err := agentStubTemplate.Execute(&buf, struct {
		PackageName string
		TypeName    string
		AgentType   string
		NodeName    string
		Description string
		Prompt      string
	}{
		PackageName: "customagents",
		TypeName:    exportedIdent(node.AgentType),
		AgentType:   node.AgentType,
		NodeName:    node.Name,
		Description: node.Description,
		Prompt:      node.Prompt,
	})
	if err != nil {
		return false, fmt.Errorf("rendering agent stub for %q: %w", node.AgentType, err)
	}
	if err := os.WriteFile(path, []byte(buf.String()), 0o644); err != nil {
		return false, fmt.Errorf("writing %s: %w", path, err)
	}
	return true, nil
}

func scaffoldFuncFile(dir, funcName, nodeName string, overwrite bool) (bool, error) {
	path := filepath.Join(dir, fmt.Sprintf("%s.go", sanitizeIdent(funcName)))
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return false, nil
		}
	}

	var buf strings.Builder
	err := funcStubTemplate.Execute(&buf, struct {
		PackageName string
		FuncName    string
		NodeName    string
	}{
		PackageName: "customfuncs",
		FuncName:    exportedIdent(funcName),
		NodeName:    nodeName,
	})
	if err != nil {
		return false, fmt.Errorf("rendering function stub for %q: %w", funcName, err)
	}
	if err := os.WriteFile(path, []byte(buf.String()), 0o644); err != nil {
		return false, fmt.Errorf("writing %s: %w", path, err)
	}
	return true, nil
}

func sanitizeIdent(s string) string {
	s = strings.ToLower(s)
	return strings.Map(func(r rune) rune {
		if r == '_' || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return r
		}
		return '_'
	}, s)
}

func exportedIdent(s string) string {
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == '_' || r == '-' || r == ' ' })
	var b strings.Builder
	for _, p := range parts {
		if p == "" {
			continue
		}
		b.WriteString(strings.ToUpper(p[:1]))
		b.WriteString(p[1:])
	}
	if b.Len() == 0 {
		return "Custom"
	}
	return b.String()
}

var agentStubTemplate = template.Must(template.New("agent").Parse(
	`// Package {{.PackageName}} holds scaffolded custom agent
// implementations; edit and move into your own package as needed.
package {{.PackageName}}

import (
	"context"

	"github.com/agentmap-go/agentmap/agent"
	"github.com/agentmap-go/agentmap/agentlog"
	"github.com/agentmap-go/agentmap/state"
)

// {{.TypeName}}Agent implements the "{{.AgentType}}" AgentType
// referenced by node "{{.NodeName}}".
{{if .Description}}// {{.Description}}
{{end}}type {{.TypeName}}Agent struct {
	*agent.BaseAgent
}

// New{{.TypeName}}Agent constructs the agent. Register it in your
// AgentType -> assembler.AgentFactory table under "{{.AgentType}}".
func New{{.TypeName}}Agent(name, prompt string, ctx map[string]any, logger agentlog.Logger, adapter state.Adapter) *{{.TypeName}}Agent {
	return &{{.TypeName}}Agent{BaseAgent: agent.NewBaseAgent(name, prompt, ctx, logger, adapter)}
}

func (a *{{.TypeName}}Agent) Process(ctx context.Context, inputs map[string]any) (agent.Outcome, error) {
	// TODO: implement "{{.AgentType}}"{{if .Prompt}} ({{.Prompt}}){{end}}
	return agent.Completed(inputs), nil
}
`))

var funcStubTemplate = template.Must(template.New("func").Parse(
	`// Package {{.PackageName}} holds scaffolded func: references; edit
// and register with funcresolver before compiling the graph.
package {{.PackageName}}

import "github.com/agentmap-go/agentmap/state"

// {{.FuncName}}Input is a candidate funcresolver.InputFunc for node
// "{{.NodeName}}"'s func: input-field reference.
func {{.FuncName}}Input(s state.State) (map[string]any, error) {
	// TODO: project state into the node's input fields
	return map[string]any(s), nil
}

// {{.FuncName}}Route is a candidate funcresolver's route-func signature
// for node "{{.NodeName}}"'s func: edge reference.
func {{.FuncName}}Route(s state.State, successTarget, failureTarget string) (string, bool) {
	// TODO: pick the next node name from state
	return "", false
}
`))
